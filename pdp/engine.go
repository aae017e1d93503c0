// Package pdp implements the policy decision point: it wires the
// predicate engine, expression evaluator and principle tree together,
// then reduces the resulting EvaluationResult to a binary AuthzDecision
// per the configured decision strategy.
package pdp

import (
	"fmt"
	"time"

	"github.com/dotrongnhan/xacml-pdp/expr"
	"github.com/dotrongnhan/xacml-pdp/model"
	"github.com/dotrongnhan/xacml-pdp/predicate"
	"github.com/dotrongnhan/xacml-pdp/principle"
)

// Engine is the PDP entry point. It is safe for concurrent use: nothing it
// holds is mutated after construction, and model.EvaluationContext is never
// mutated during an evaluation.
type Engine struct {
	evaluator *expr.Evaluator
	strategy  model.Strategy
}

// New builds an Engine against the given predicate engine and decision
// strategy.
func New(predicateEngine predicate.Engine, strategy model.Strategy) *Engine {
	return &Engine{evaluator: expr.New(predicateEngine), strategy: strategy}
}

// Evaluate runs the policy evaluator against req's root policy and
// returns the raw seven-valued EvaluationResult, before any strategy
// reduction. Authorize is the usual entry point; Evaluate is exposed for
// callers that want the undiluted result (e.g. policy authoring tools that
// need to see an INDETERMINATE_P/_D/_DP distinction Authorize has already
// collapsed to a binary decision).
func (e *Engine) Evaluate(req *model.AuthzRequest) (model.EvaluationResult, error) {
	if req.RootPolicy == nil {
		return model.EvaluationResult{}, fmt.Errorf("pdp: request carries no root policy")
	}

	root, err := principle.Build(req.RootPolicy, e.evaluator)
	if err != nil {
		return model.EvaluationResult{}, fmt.Errorf("pdp: invalid policy tree: %w", err)
	}

	return root.Evaluate(req.Context()), nil
}

// Authorize evaluates req's policy tree against its context and reduces
// the result to a binary decision. A non-nil error means the policy tree
// itself is invalid (e.g. ONLY_ONE_APPLICABLE combining a Policy's
// rules), a configuration fault the caller must fix, never a decision
// outcome.
func (e *Engine) Authorize(req *model.AuthzRequest) (*model.AuthzDecision, error) {
	result, err := e.Evaluate(req)
	if err != nil {
		return nil, err
	}

	decision, details := reduce(e.strategy, result)

	return &model.AuthzDecision{
		Decision:  decision,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}, nil
}
