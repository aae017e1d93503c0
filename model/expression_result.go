package model

import "github.com/dotrongnhan/xacml-pdp/cause"

// ExpressionResultType is the three-valued result algebra the expression
// evaluator (package expr) produces.
type ExpressionResultType string

const (
	Match         ExpressionResultType = "MATCH"
	NoMatch       ExpressionResultType = "NO_MATCH"
	Indeterminate ExpressionResultType = "INDETERMINATE"
)

// ExpressionResult is the outcome of evaluating an Expression against a
// Context. Cause is non-nil iff ResultType == Indeterminate.
type ExpressionResult struct {
	ResultType ExpressionResultType
	Cause      *cause.Cause
}

// MatchResult, NoMatchResult and IndeterminateResult are the three
// constructors for ExpressionResult; they exist so call sites never build
// an invalid combination of ResultType/Cause by hand.
func MatchResult() ExpressionResult { return ExpressionResult{ResultType: Match} }

func NoMatchResult() ExpressionResult { return ExpressionResult{ResultType: NoMatch} }

func IndeterminateResult(c *cause.Cause) ExpressionResult {
	return ExpressionResult{ResultType: Indeterminate, Cause: c}
}

// IsIndeterminate reports whether the result carries a cause.
func (r ExpressionResult) IsIndeterminate() bool {
	return r.ResultType == Indeterminate
}
