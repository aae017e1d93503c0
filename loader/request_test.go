package loader

import (
	"testing"

	"github.com/dotrongnhan/xacml-pdp/model"
)

func TestDecodeRequest(t *testing.T) {
	doc := `{
		"subject": {"userId": "u-1", "roles": ["engineer"], "attributes": {"department": "Engineering"}},
		"resource": {"name": "invoice"},
		"action": {"method": "GET", "path": "/invoices/1"},
		"environment": {"global": {"region": "us-east-1"}},
		"rootPolicy": ` + samplePolicy + `
	}`

	req, err := DecodeRequest([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Subject.UserID != "u-1" {
		t.Fatalf("expected subject userId u-1, got %q", req.Subject.UserID)
	}
	if req.Resource.Name != "invoice" {
		t.Fatalf("expected resource name invoice, got %q", req.Resource.Name)
	}
	if req.Action.Method != "GET" {
		t.Fatalf("expected action method GET, got %q", req.Action.Method)
	}
	if req.Environment.Global["region"] != "us-east-1" {
		t.Fatalf("expected environment global region, got %+v", req.Environment.Global)
	}
	policy, ok := req.RootPolicy.(*model.Policy)
	if !ok {
		t.Fatalf("expected root policy to decode as *model.Policy, got %T", req.RootPolicy)
	}
	if policy.ID != "p1" {
		t.Fatalf("expected root policy id p1, got %q", policy.ID)
	}
}

func TestDecodeRequestRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeRequest([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}
