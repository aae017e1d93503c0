package model

import "github.com/dotrongnhan/xacml-pdp/cause"

// EvaluationResultType is the seven-valued outcome algebra a Rule, Policy or
// PolicySet evaluation produces.
type EvaluationResultType string

const (
	ResultPermit          EvaluationResultType = "PERMIT"
	ResultDeny            EvaluationResultType = "DENY"
	ResultNotApplicable   EvaluationResultType = "NOT_APPLICABLE"
	ResultIndeterminate   EvaluationResultType = "INDETERMINATE"
	ResultIndeterminateD  EvaluationResultType = "INDETERMINATE_D"
	ResultIndeterminateP  EvaluationResultType = "INDETERMINATE_P"
	ResultIndeterminateDP EvaluationResultType = "INDETERMINATE_DP"
)

// EvaluationResult is the outcome of evaluating a Rule, Policy or PolicySet.
// Cause is non-nil iff ResultType is one of the four INDETERMINATE*
// values; Permit/Deny/NotApplicable never carry one.
type EvaluationResult struct {
	ResultType EvaluationResultType
	Cause      *cause.Cause
}

func Permit() EvaluationResult        { return EvaluationResult{ResultType: ResultPermit} }
func Deny() EvaluationResult          { return EvaluationResult{ResultType: ResultDeny} }
func NotApplicable() EvaluationResult { return EvaluationResult{ResultType: ResultNotApplicable} }

func IndeterminateResultOf(t EvaluationResultType, c *cause.Cause) EvaluationResult {
	return EvaluationResult{ResultType: t, Cause: c}
}

// IsIndeterminate reports whether ResultType is any of the four
// indeterminate variants.
func (r EvaluationResult) IsIndeterminate() bool {
	switch r.ResultType {
	case ResultIndeterminate, ResultIndeterminateD, ResultIndeterminateP, ResultIndeterminateDP:
		return true
	default:
		return false
	}
}

// Evaluable is the contract the combining algorithms (package combine)
// consume: something that can report whether it applies to a context and,
// separately, fully evaluate itself. Package principle adapts Rule, Policy
// and PolicySet values to this interface so that combine never needs to
// import principle (it would otherwise create an import cycle, since
// principle is what invokes the combining algorithms on a node's children).
type Evaluable interface {
	// EvaluableID identifies the underlying principle for diagnostics.
	EvaluableID() string
	// Applicability evaluates just the target. Only-One-Applicable
	// uses it to check applicability across all children before
	// deciding which one to fully evaluate.
	Applicability(ctx *EvaluationContext) ExpressionResult
	// Evaluate fully evaluates the principle and returns its
	// EvaluationResult.
	Evaluate(ctx *EvaluationContext) EvaluationResult
}
