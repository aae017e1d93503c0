package pdp

import (
	"testing"

	"github.com/dotrongnhan/xacml-pdp/model"
)

type stubEngine struct{ match map[string]bool }

func (s *stubEngine) Evaluate(_ *model.EvaluationContext, body string) (bool, error) {
	return s.match[body], nil
}

func samplePolicy(effect model.Effect) *model.Policy {
	return &model.Policy{
		Base:             model.Base{ID: "p1", Target: model.Literal("t1", "policy-target")},
		CombineAlgorithm: model.DenyOverrides,
		Rules: []*model.Rule{
			{
				Base:      model.Base{ID: "r1"},
				Condition: model.Literal("r1-cond", "rule-cond"),
				Effect:    effect,
			},
		},
	}
}

func TestAuthorizePermit(t *testing.T) {
	engine := New(&stubEngine{match: map[string]bool{"policy-target": true, "rule-cond": true}}, model.StrategyDefaultDeny)
	req := &model.AuthzRequest{
		Subject:    &model.Subject{UserID: "u-1"},
		RootPolicy: samplePolicy(model.EffectPermit),
	}
	decision, err := engine.Authorize(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Decision != model.DecisionPermit {
		t.Fatalf("expected PERMIT, got %s", decision.Decision)
	}
}

func TestAuthorizeDefaultDenyOnNotApplicable(t *testing.T) {
	engine := New(&stubEngine{match: map[string]bool{"policy-target": false}}, model.StrategyDefaultDeny)
	req := &model.AuthzRequest{
		Subject:    &model.Subject{UserID: "u-1"},
		RootPolicy: samplePolicy(model.EffectPermit),
	}
	decision, err := engine.Authorize(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Decision != model.DecisionDeny {
		t.Fatalf("expected DENY under DEFAULT_DENY, got %s", decision.Decision)
	}
	if decision.Details != "No policy applicable" {
		t.Fatalf("expected NOT_APPLICABLE detail message, got %v", decision.Details)
	}
}

func TestAuthorizeNotApplicablePermitStrategy(t *testing.T) {
	engine := New(&stubEngine{match: map[string]bool{"policy-target": false}}, model.StrategyNotApplicablePermitIndeterminateDeny)
	req := &model.AuthzRequest{
		Subject:    &model.Subject{UserID: "u-1"},
		RootPolicy: samplePolicy(model.EffectPermit),
	}
	decision, err := engine.Authorize(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Decision != model.DecisionPermit {
		t.Fatalf("expected PERMIT under NOT_APPLICABLE_PERMIT_INDETERMINATE_DENY, got %s", decision.Decision)
	}
	if decision.Details != "No policy applicable" {
		t.Fatalf("expected NOT_APPLICABLE detail message even on a PERMIT decision, got %v", decision.Details)
	}
}

func TestAuthorizeDefaultPermitStrategyStillReportsNotApplicableDetails(t *testing.T) {
	engine := New(&stubEngine{match: map[string]bool{"policy-target": false}}, model.StrategyDefaultPermit)
	req := &model.AuthzRequest{
		Subject:    &model.Subject{UserID: "u-1"},
		RootPolicy: samplePolicy(model.EffectPermit),
	}
	decision, err := engine.Authorize(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Decision != model.DecisionPermit {
		t.Fatalf("expected PERMIT under DEFAULT_PERMIT, got %s", decision.Decision)
	}
	if decision.Details != "No policy applicable" {
		t.Fatalf("expected NOT_APPLICABLE detail message even on a PERMIT decision, got %v", decision.Details)
	}
}

func TestAuthorizeRejectsInvalidTree(t *testing.T) {
	policy := samplePolicy(model.EffectPermit)
	policy.CombineAlgorithm = model.OnlyOneApplicable
	engine := New(&stubEngine{}, model.StrategyDefaultDeny)
	req := &model.AuthzRequest{RootPolicy: policy}
	if _, err := engine.Authorize(req); err == nil {
		t.Fatalf("expected error for an invalid policy tree")
	}
}

func TestEvaluateReturnsRawResult(t *testing.T) {
	engine := New(&stubEngine{match: map[string]bool{"policy-target": true, "rule-cond": true}}, model.StrategyDefaultDeny)
	req := &model.AuthzRequest{
		Subject:    &model.Subject{UserID: "u-1"},
		RootPolicy: samplePolicy(model.EffectPermit),
	}
	result, err := engine.Evaluate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ResultType != model.ResultPermit {
		t.Fatalf("expected PERMIT, got %s", result.ResultType)
	}
	if result.Cause != nil {
		t.Fatalf("expected no cause on a PERMIT result, got %v", result.Cause)
	}
}

func TestAuthorizeMissingRootPolicy(t *testing.T) {
	engine := New(&stubEngine{}, model.StrategyDefaultDeny)
	if _, err := engine.Authorize(&model.AuthzRequest{}); err == nil {
		t.Fatalf("expected error for a missing root policy")
	}
}
