package pdp

import "github.com/dotrongnhan/xacml-pdp/model"

// reduce applies a decision strategy to an EvaluationResult,
// collapsing the seven-valued outcome algebra to the binary
// model.AuthzDecision the PDP's callers see.
func reduce(strategy model.Strategy, result model.EvaluationResult) (model.Decision, any) {
	switch strategy {
	case model.StrategyDefaultPermit:
		return reduceDefaultPermit(result)
	case model.StrategyNotApplicablePermitIndeterminateDeny:
		return reduceNotApplicablePermitIndeterminateDeny(result)
	default: // model.StrategyDefaultDeny
		return reduceDefaultDeny(result)
	}
}

// reduceDefaultDeny: only PERMIT reduces to Permit; everything else
// (DENY, NOT_APPLICABLE, and every INDETERMINATE variant) reduces to
// Deny.
func reduceDefaultDeny(result model.EvaluationResult) (model.Decision, any) {
	if result.ResultType == model.ResultPermit {
		return model.DecisionPermit, nil
	}
	return model.DecisionDeny, details(result)
}

// reduceDefaultPermit: only DENY reduces to Deny; everything else
// reduces to Permit.
func reduceDefaultPermit(result model.EvaluationResult) (model.Decision, any) {
	if result.ResultType == model.ResultDeny {
		return model.DecisionDeny, details(result)
	}
	return model.DecisionPermit, details(result)
}

// reduceNotApplicablePermitIndeterminateDeny: NOT_APPLICABLE reduces
// to Permit, any INDETERMINATE variant reduces to Deny, PERMIT/DENY pass
// through unchanged.
func reduceNotApplicablePermitIndeterminateDeny(result model.EvaluationResult) (model.Decision, any) {
	switch result.ResultType {
	case model.ResultPermit:
		return model.DecisionPermit, nil
	case model.ResultDeny:
		return model.DecisionDeny, details(result)
	case model.ResultNotApplicable:
		return model.DecisionPermit, details(result)
	default:
		return model.DecisionDeny, details(result)
	}
}

// details carries the diagnostic payload attached to an AuthzDecision: the
// cause tree for an indeterminate result, the fixed NOT_APPLICABLE message,
// or nil for a plain Deny.
func details(result model.EvaluationResult) any {
	if result.IsIndeterminate() {
		return result.Cause
	}
	if result.ResultType == model.ResultNotApplicable {
		return "No policy applicable"
	}
	return nil
}
