package cel

import (
	"testing"

	"github.com/dotrongnhan/xacml-pdp/model"
)

func testContext() *model.EvaluationContext {
	return &model.EvaluationContext{
		Subject: &model.Subject{
			UserID: "u-1",
			Roles:  []string{"admin"},
			Attributes: map[string]any{
				"department": "Engineering",
			},
		},
		Resource: &model.Resource{
			Name:       "invoice-42",
			Attributes: map[string]any{"owner_id": "u-1"},
		},
	}
}

func TestEvaluateMatch(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}

	ok, err := e.Evaluate(testContext(), `subject.attributes["department"] == "Engineering"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}
}

func TestEvaluateCrossSourceComparison(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}

	ok, err := e.Evaluate(testContext(), `object.attributes["owner_id"] == subject.userId`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected owner to match requesting subject")
	}
}

func TestEvaluateCompileError(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}

	if _, err := e.Evaluate(testContext(), "subject.attributes[("); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestEvaluateNonBoolResult(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}

	if _, err := e.Evaluate(testContext(), `subject.userId`); err == nil {
		t.Fatalf("expected error for non-bool result")
	}
}

func TestProgramCaching(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}

	body := `"admin" in subject.roles`
	if _, err := e.Evaluate(testContext(), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := e.programs[body]; !ok {
		t.Fatalf("expected compiled program to be cached")
	}
	if _, err := e.Evaluate(testContext(), body); err != nil {
		t.Fatalf("unexpected error on cached evaluate: %v", err)
	}
}
