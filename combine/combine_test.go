package combine

import (
	"testing"

	"github.com/dotrongnhan/xacml-pdp/cause"
	"github.com/dotrongnhan/xacml-pdp/model"
)

// fixedEvaluable is a model.Evaluable stub returning a canned result,
// letting combining-algorithm tests be written without a real policy tree.
type fixedEvaluable struct {
	id            string
	applicability model.ExpressionResult
	result        model.EvaluationResult
}

func (f fixedEvaluable) EvaluableID() string { return f.id }
func (f fixedEvaluable) Applicability(_ *model.EvaluationContext) model.ExpressionResult {
	return f.applicability
}
func (f fixedEvaluable) Evaluate(_ *model.EvaluationContext) model.EvaluationResult { return f.result }

func permit(id string) fixedEvaluable {
	return fixedEvaluable{id: id, applicability: model.MatchResult(), result: model.Permit()}
}
func deny(id string) fixedEvaluable {
	return fixedEvaluable{id: id, applicability: model.MatchResult(), result: model.Deny()}
}
func notApplicable(id string) fixedEvaluable {
	return fixedEvaluable{id: id, applicability: model.NoMatchResult(), result: model.NotApplicable()}
}
func indeterminate(id string, resultType model.EvaluationResultType) fixedEvaluable {
	c := cause.New(cause.ProcessingError, "boom")
	return fixedEvaluable{
		id:            id,
		applicability: model.IndeterminateResult(c),
		result:        model.IndeterminateResultOf(resultType, c),
	}
}

func asEvaluables(items ...fixedEvaluable) []model.Evaluable {
	out := make([]model.Evaluable, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func TestDenyOverridesFirstDenyWins(t *testing.T) {
	result := denyOverrides(asEvaluables(permit("p1"), deny("d1")), nil)
	if result.ResultType != model.ResultDeny {
		t.Fatalf("expected DENY, got %s", result.ResultType)
	}
}

func TestDenyOverridesAllNotApplicable(t *testing.T) {
	result := denyOverrides(asEvaluables(notApplicable("n1"), notApplicable("n2")), nil)
	if result.ResultType != model.ResultNotApplicable {
		t.Fatalf("expected NOT_APPLICABLE, got %s", result.ResultType)
	}
}

func TestDenyOverridesIndeterminateDWithPermitPromotesToDP(t *testing.T) {
	result := denyOverrides(asEvaluables(permit("p1"), indeterminate("i1", model.ResultIndeterminateD)), nil)
	if result.ResultType != model.ResultIndeterminateDP {
		t.Fatalf("expected INDETERMINATE_DP, got %s", result.ResultType)
	}
}

func TestDenyOverridesPermitWinsOverIndeterminateP(t *testing.T) {
	result := denyOverrides(asEvaluables(permit("p1"), indeterminate("i1", model.ResultIndeterminateP)), nil)
	if result.ResultType != model.ResultPermit {
		t.Fatalf("expected PERMIT, got %s", result.ResultType)
	}
}

func TestPermitOverridesFirstPermitWins(t *testing.T) {
	result := permitOverrides(asEvaluables(deny("d1"), permit("p1")), nil)
	if result.ResultType != model.ResultPermit {
		t.Fatalf("expected PERMIT, got %s", result.ResultType)
	}
}

func TestPermitOverridesIndeterminatePWithDenyPromotesToDP(t *testing.T) {
	result := permitOverrides(asEvaluables(indeterminate("i1", model.ResultIndeterminateP), deny("d1")), nil)
	if result.ResultType != model.ResultIndeterminateDP {
		t.Fatalf("expected INDETERMINATE_DP, got %s", result.ResultType)
	}
}

func TestDenyOverridesAggregatesCausesInEvaluationOrder(t *testing.T) {
	first := indeterminate("i1", model.ResultIndeterminateDP)
	second := indeterminate("i2", model.ResultIndeterminateD)
	result := denyOverrides(asEvaluables(first, second), nil)
	if result.ResultType != model.ResultIndeterminateDP {
		t.Fatalf("expected INDETERMINATE_DP, got %s", result.ResultType)
	}
	if len(result.Cause.Children) != 2 {
		t.Fatalf("expected both causes aggregated, got %d", len(result.Cause.Children))
	}
	if result.Cause.Children[0] != first.result.Cause || result.Cause.Children[1] != second.result.Cause {
		t.Fatalf("expected causes in evaluation order, got %+v", result.Cause.Children)
	}
}

func TestDenyUnlessPermitDefaultsToDeny(t *testing.T) {
	result := denyUnlessPermit(asEvaluables(notApplicable("n1"), indeterminate("i1", model.ResultIndeterminateP)), nil)
	if result.ResultType != model.ResultDeny {
		t.Fatalf("expected DENY, got %s", result.ResultType)
	}
}

func TestPermitUnlessDenyDefaultsToPermit(t *testing.T) {
	result := permitUnlessDeny(asEvaluables(notApplicable("n1"), indeterminate("i1", model.ResultIndeterminateD)), nil)
	if result.ResultType != model.ResultPermit {
		t.Fatalf("expected PERMIT, got %s", result.ResultType)
	}
}

func TestFirstApplicableReturnsFirstNonNotApplicable(t *testing.T) {
	result := firstApplicable(asEvaluables(notApplicable("n1"), deny("d1"), permit("p1")), nil)
	if result.ResultType != model.ResultDeny {
		t.Fatalf("expected DENY, got %s", result.ResultType)
	}
}

func TestFirstApplicableAllNotApplicable(t *testing.T) {
	result := firstApplicable(asEvaluables(notApplicable("n1"), notApplicable("n2")), nil)
	if result.ResultType != model.ResultNotApplicable {
		t.Fatalf("expected NOT_APPLICABLE, got %s", result.ResultType)
	}
}

func TestFirstApplicableIndeterminateAggregatesAllCauses(t *testing.T) {
	result := firstApplicable(asEvaluables(
		indeterminate("i1", model.ResultIndeterminateP),
		permit("p1"),
		indeterminate("i2", model.ResultIndeterminateD),
	), nil)
	if !result.IsIndeterminate() {
		t.Fatalf("expected an indeterminate result, got %s", result.ResultType)
	}
	if len(result.Cause.Children) != 2 {
		t.Fatalf("expected causes aggregated across all children (including those after the first applicable), got %d", len(result.Cause.Children))
	}
}

func TestOnlyOneApplicableSingleMatch(t *testing.T) {
	result := onlyOneApplicable(asEvaluables(notApplicable("n1"), permit("p1")), nil)
	if result.ResultType != model.ResultPermit {
		t.Fatalf("expected PERMIT, got %s", result.ResultType)
	}
}

func TestOnlyOneApplicableAmbiguity(t *testing.T) {
	result := onlyOneApplicable(asEvaluables(permit("p1"), permit("p2")), nil)
	if result.ResultType != model.ResultIndeterminate {
		t.Fatalf("expected plain INDETERMINATE for ambiguity, got %s", result.ResultType)
	}
}

func TestOnlyOneApplicableNoneMatch(t *testing.T) {
	result := onlyOneApplicable(asEvaluables(notApplicable("n1"), notApplicable("n2")), nil)
	if result.ResultType != model.ResultNotApplicable {
		t.Fatalf("expected NOT_APPLICABLE, got %s", result.ResultType)
	}
}

func TestOnlyOneApplicableIndeterminateApplicability(t *testing.T) {
	result := onlyOneApplicable(asEvaluables(indeterminate("i1", model.ResultIndeterminateDP)), nil)
	if result.ResultType != model.ResultIndeterminate {
		t.Fatalf("expected plain INDETERMINATE for indeterminate applicability, got %s", result.ResultType)
	}
}

func TestCombineDispatchesByAlgorithm(t *testing.T) {
	result := Combine(model.DenyOverrides, asEvaluables(deny("d1")), nil)
	if result.ResultType != model.ResultDeny {
		t.Fatalf("expected DENY, got %s", result.ResultType)
	}
}

func TestCombineEmptyListIsNotApplicable(t *testing.T) {
	for _, algorithm := range []model.CombineAlgorithm{
		model.DenyOverrides, model.PermitOverrides, model.FirstApplicable,
	} {
		result := Combine(algorithm, nil, nil)
		if result.ResultType != model.ResultNotApplicable {
			t.Fatalf("%s: expected NOT_APPLICABLE for an empty list, got %s", algorithm, result.ResultType)
		}
	}
}
