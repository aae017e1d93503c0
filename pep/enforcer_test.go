package pep

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dotrongnhan/xacml-pdp/model"
	"github.com/dotrongnhan/xacml-pdp/pdp"
)

type alwaysMatch struct{}

func (alwaysMatch) Evaluate(*model.EvaluationContext, string) (bool, error) { return true, nil }

func samplePolicy() *model.Policy {
	return &model.Policy{
		Base:             model.Base{ID: "p1", Target: model.Literal("t1", "match")},
		CombineAlgorithm: model.DenyOverrides,
		Rules: []*model.Rule{
			{Base: model.Base{ID: "r1"}, Effect: model.EffectPermit},
		},
	}
}

func newTestEnforcer(t *testing.T, config Config) *Enforcer {
	t.Helper()
	engine := pdp.New(alwaysMatch{}, model.StrategyDefaultDeny)
	metrics := NewMetrics(prometheus.NewRegistry())
	return New(engine, config, metrics, nil)
}

func TestAuthorizeCachesDecision(t *testing.T) {
	config := DefaultConfig()
	config.RateLimitEnabled = false
	config.CircuitBreakerEnabled = false
	enforcer := newTestEnforcer(t, config)

	req := &model.AuthzRequest{Subject: &model.Subject{UserID: "u-1"}, RootPolicy: samplePolicy()}

	first, err := enforcer.Authorize(context.Background(), req)
	if err != nil || first.Decision != model.DecisionPermit {
		t.Fatalf("unexpected first decision: %+v, err %v", first, err)
	}

	second, err := enforcer.Authorize(context.Background(), req)
	if err != nil || second.Decision != model.DecisionPermit {
		t.Fatalf("unexpected cached decision: %+v, err %v", second, err)
	}

	if enforcer.CacheStats().Hits != 1 {
		t.Fatalf("expected one cache hit, got %+v", enforcer.CacheStats())
	}
}

func TestAuthorizeFailSafeOnRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.CacheEnabled = false
	config.CircuitBreakerEnabled = false
	config.RateLimitPerSecond = 0
	config.RateLimitBurst = 0
	config.FailSafeDeny = true
	enforcer := newTestEnforcer(t, config)

	req := &model.AuthzRequest{Subject: &model.Subject{UserID: "u-1"}, RootPolicy: samplePolicy()}
	decision, err := enforcer.Authorize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Decision != model.DecisionDeny {
		t.Fatalf("expected fail-safe DENY, got %s", decision.Decision)
	}
}

func TestAuthorizeRejectsInvalidTree(t *testing.T) {
	config := DefaultConfig()
	config.CacheEnabled = false
	config.RateLimitEnabled = false
	config.CircuitBreakerEnabled = false
	enforcer := newTestEnforcer(t, config)

	policy := samplePolicy()
	policy.CombineAlgorithm = model.OnlyOneApplicable
	req := &model.AuthzRequest{Subject: &model.Subject{UserID: "u-1"}, RootPolicy: policy}

	if _, err := enforcer.Authorize(context.Background(), req); err == nil {
		t.Fatal("expected an error for an invalid policy tree")
	}
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	limiter := newRateLimiter(10, 2)
	if !limiter.Allow() || !limiter.Allow() {
		t.Fatal("expected burst capacity to allow two immediate requests")
	}
	if limiter.Allow() {
		t.Fatal("expected the third immediate request to be throttled")
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	breaker := newCircuitBreaker(2, 50*time.Millisecond, 10)
	breaker.Allow()
	breaker.RecordFailure()
	breaker.Allow()
	breaker.RecordFailure()

	if breaker.GetState() != circuitOpen {
		t.Fatalf("expected circuit to open after threshold failures, got %s", breaker.GetState())
	}
	if breaker.Allow() {
		t.Fatal("expected an open circuit to reject requests")
	}
}
