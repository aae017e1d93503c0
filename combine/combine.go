// Package combine implements the six XACML 3.0 combining algorithms,
// reducing a list of already-constructed model.Evaluable children to a
// single model.EvaluationResult. It depends only on packages model and
// cause, never on principle, which is what invokes these algorithms on a
// Policy's Rules or a PolicySet's Children; importing principle here
// would create a cycle.
package combine

import (
	"fmt"

	"github.com/dotrongnhan/xacml-pdp/cause"
	"github.com/dotrongnhan/xacml-pdp/model"
)

// Combine dispatches to the algorithm named by combineAlgorithm. An
// unknown name yields INDETERMINATE_DP rather than a panic: the loader
// rejects unknown names, so this arm is unreachable for loader-built
// trees, but principle.Validate does not check names, so it keeps
// hand-built ones on the diagnostics channel.
func Combine(combineAlgorithm model.CombineAlgorithm, children []model.Evaluable, ctx *model.EvaluationContext) model.EvaluationResult {
	switch combineAlgorithm {
	case model.DenyOverrides:
		return denyOverrides(children, ctx)
	case model.PermitOverrides:
		return permitOverrides(children, ctx)
	case model.DenyUnlessPermit:
		return denyUnlessPermit(children, ctx)
	case model.PermitUnlessDeny:
		return permitUnlessDeny(children, ctx)
	case model.FirstApplicable:
		return firstApplicable(children, ctx)
	case model.OnlyOneApplicable:
		return onlyOneApplicable(children, ctx)
	default:
		return model.IndeterminateResultOf(model.ResultIndeterminateDP,
			cause.New(cause.ProcessingError, "unknown combining algorithm \""+string(combineAlgorithm)+"\""))
	}
}

// denyOverrides: a single Deny anywhere wins; otherwise Permit wins
// over any NotApplicable; indeterminate children that could still resolve
// to Deny or Permit keep the outcome open until every child has run.
func denyOverrides(children []model.Evaluable, ctx *model.EvaluationContext) model.EvaluationResult {
	var tally indeterminateTally
	atLeastOnePermit := false

	for _, child := range children {
		result := child.Evaluate(ctx)
		switch result.ResultType {
		case model.ResultDeny:
			return model.Deny()
		case model.ResultPermit:
			atLeastOnePermit = true
		default:
			tally.observe(result)
		}
	}

	if tally.sawDP || (tally.sawD && tally.sawP) || (tally.sawD && atLeastOnePermit) {
		return tally.result(model.ResultIndeterminateDP)
	}
	if tally.sawD {
		return tally.result(model.ResultIndeterminateD)
	}
	if atLeastOnePermit {
		return model.Permit()
	}
	if tally.sawP {
		return tally.result(model.ResultIndeterminateP)
	}
	return model.NotApplicable()
}

// permitOverrides is denyOverrides with Permit/Deny swapped throughout.
func permitOverrides(children []model.Evaluable, ctx *model.EvaluationContext) model.EvaluationResult {
	var tally indeterminateTally
	atLeastOneDeny := false

	for _, child := range children {
		result := child.Evaluate(ctx)
		switch result.ResultType {
		case model.ResultPermit:
			return model.Permit()
		case model.ResultDeny:
			atLeastOneDeny = true
		default:
			tally.observe(result)
		}
	}

	if tally.sawDP || (tally.sawD && tally.sawP) || (tally.sawP && atLeastOneDeny) {
		return tally.result(model.ResultIndeterminateDP)
	}
	if tally.sawP {
		return tally.result(model.ResultIndeterminateP)
	}
	if atLeastOneDeny {
		return model.Deny()
	}
	if tally.sawD {
		return tally.result(model.ResultIndeterminateD)
	}
	return model.NotApplicable()
}

// denyUnlessPermit never produces NotApplicable or Indeterminate: any
// Permit wins, everything else (including every indeterminate and
// not-applicable child) defaults to Deny.
func denyUnlessPermit(children []model.Evaluable, ctx *model.EvaluationContext) model.EvaluationResult {
	for _, child := range children {
		if child.Evaluate(ctx).ResultType == model.ResultPermit {
			return model.Permit()
		}
	}
	return model.Deny()
}

// permitUnlessDeny is denyUnlessPermit with Permit/Deny swapped: any Deny
// wins, everything else defaults to Permit.
func permitUnlessDeny(children []model.Evaluable, ctx *model.EvaluationContext) model.EvaluationResult {
	for _, child := range children {
		if child.Evaluate(ctx).ResultType == model.ResultDeny {
			return model.Deny()
		}
	}
	return model.Permit()
}

// firstApplicable returns the first child result that is not
// NotApplicable, in list order. Every child is evaluated regardless
// (never short-circuited), and when the first applicable result is
// itself indeterminate it is rebuilt with a cause aggregating every
// indeterminate cause observed across all children, not just those
// preceding it. A strict XACML reading would stop at the first; the
// wider aggregation is deliberate, so diagnostics show every broken
// branch in one pass.
func firstApplicable(children []model.Evaluable, ctx *model.EvaluationContext) model.EvaluationResult {
	results := make([]model.EvaluationResult, len(children))
	for i, child := range children {
		results[i] = child.Evaluate(ctx)
	}

	firstApplicableIndex := -1
	for i, result := range results {
		if result.ResultType != model.ResultNotApplicable {
			firstApplicableIndex = i
			break
		}
	}
	if firstApplicableIndex == -1 {
		return model.NotApplicable()
	}

	first := results[firstApplicableIndex]
	if !first.IsIndeterminate() {
		return first
	}

	var causes []*cause.Cause
	for _, result := range results {
		if result.IsIndeterminate() {
			causes = append(causes, result.Cause)
		}
	}
	return model.IndeterminateResultOf(first.ResultType,
		cause.Aggregate("first-applicable combining has processing_error", causes...))
}

// onlyOneApplicable is valid only over PolicySet children; the
// Policy-level restriction (it must never combine Rules) is enforced by
// package principle before Combine is ever called, since a misuse there
// is a config error rather than an evaluation outcome. It stops at the
// first child whose applicability is indeterminate, or the second child
// found applicable, rather than evaluating the whole list; ambiguity is
// reported as soon as it is detected.
func onlyOneApplicable(children []model.Evaluable, ctx *model.EvaluationContext) model.EvaluationResult {
	matched := -1

	for i, child := range children {
		applicability := child.Applicability(ctx)
		switch applicability.ResultType {
		case model.Indeterminate:
			return model.IndeterminateResultOf(model.ResultIndeterminate,
				cause.Wrap("Policy(Set)", child.EvaluableID(), applicability.Cause))
		case model.Match:
			if matched != -1 {
				return model.IndeterminateResultOf(model.ResultIndeterminate,
					cause.New(cause.ProcessingError,
						fmt.Sprintf("Policy(Set) with id %s has processing_error", child.EvaluableID())))
			}
			matched = i
		}
	}

	if matched == -1 {
		return model.NotApplicable()
	}
	return children[matched].Evaluate(ctx)
}

// indeterminateTally tracks which indeterminate variants a combining
// pass has seen and their causes in evaluation order, the order the
// aggregate cause's children must appear in, regardless of which
// variant each child produced.
type indeterminateTally struct {
	sawD, sawP, sawDP bool
	causes            []*cause.Cause
}

func (t *indeterminateTally) observe(result model.EvaluationResult) {
	switch result.ResultType {
	case model.ResultIndeterminateD:
		t.sawD = true
	case model.ResultIndeterminateP:
		t.sawP = true
	case model.ResultIndeterminateDP, model.ResultIndeterminate:
		t.sawDP = true
	default:
		return
	}
	t.causes = append(t.causes, result.Cause)
}

func (t *indeterminateTally) result(resultType model.EvaluationResultType) model.EvaluationResult {
	return model.IndeterminateResultOf(resultType,
		cause.Aggregate("combining algorithm has processing_error", t.causes...))
}
