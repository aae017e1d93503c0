package simple

import (
	"testing"

	"github.com/dotrongnhan/xacml-pdp/model"
)

func testContext() *model.EvaluationContext {
	return &model.EvaluationContext{
		Subject: &model.Subject{
			UserID: "u-1",
			Roles:  []string{"admin", "billing"},
			Attributes: map[string]any{
				"department": "Engineering",
				"level":      5,
			},
		},
		Resource: &model.Resource{
			Name:       "invoice-42",
			Attributes: map[string]any{"owner_id": "u-1"},
		},
		Action: &model.Action{
			Method: "GET",
		},
		Environment: &model.Environment{
			Global: map[string]any{"region": "us-east-1"},
		},
	}
}

func TestEvaluateEq(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(testContext(), `subject.attributes.department eq "Engineering"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}
}

func TestEvaluateEqAgainstOtherPath(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(testContext(), "object.attributes.owner_id eq subject.userId")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}
}

func TestEvaluateContains(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(testContext(), `subject.roles contains "admin"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected role list to contain admin")
	}
}

func TestEvaluateGte(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(testContext(), "subject.attributes.level gte 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected level 5 >= 3")
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(testContext(), `subject.attributes.department eq "Sales"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestEvaluateUnknownOperator(t *testing.T) {
	e := New()
	_, err := e.Evaluate(testContext(), `subject.userId frob "u-1"`)
	if err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}

func TestEvaluateMalformedBody(t *testing.T) {
	e := New()
	_, err := e.Evaluate(testContext(), "subject.userId")
	if err == nil {
		t.Fatalf("expected error for malformed body")
	}
}

func TestEvaluateExists(t *testing.T) {
	e := New()
	ok, err := e.Evaluate(testContext(), "subject.attributes.missing exists null")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected missing attribute to not exist")
	}
}
