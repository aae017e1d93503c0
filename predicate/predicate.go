// Package predicate defines the pluggable boolean-predicate language the
// expression evaluator (package expr) delegates literal bodies to.
// Engine is injected into the core rather than looked up from a
// process-wide registry, so the evaluation algebra can be tested with a
// trivial mock language.
package predicate

import "github.com/dotrongnhan/xacml-pdp/model"

// Engine evaluates a single literal expression body against a read-only
// context. A non-nil error is always converted to an INDETERMINATE /
// SYNTAX_ERROR result by the caller (package expr); Engine
// implementations should never panic for a malformed body.
type Engine interface {
	Evaluate(ctx *model.EvaluationContext, body string) (bool, error)
}
