package loader

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/dotrongnhan/xacml-pdp/model"
)

// requestDoc mirrors the request boundary JSON: the four attribute
// sources plus an inline policy document as the tree to evaluate
// against.
type requestDoc struct {
	Subject     *subjectDoc     `json:"subject"`
	Resource    *resourceDoc    `json:"resource"`
	Action      *actionDoc      `json:"action"`
	Environment *environmentDoc `json:"environment"`
	RootPolicy  principleDoc    `json:"rootPolicy"`
}

type subjectDoc struct {
	UserID     string         `json:"userId"`
	Roles      []string       `json:"roles"`
	Attributes map[string]any `json:"attributes"`
}

type resourceDoc struct {
	Name         string         `json:"name"`
	SubResources []string       `json:"subResources"`
	Data         any            `json:"data"`
	Attributes   map[string]any `json:"attributes"`
}

type actionDoc struct {
	Method     string              `json:"method"`
	Path       string              `json:"path"`
	Headers    map[string][]string `json:"headers"`
	Query      map[string][]string `json:"query"`
	PathVars   map[string]string   `json:"pathVars"`
	Body       any                 `json:"body"`
	Cookies    map[string]string   `json:"cookies"`
	Session    map[string]any      `json:"session"`
	Attributes map[string]any      `json:"attributes"`
}

type environmentDoc struct {
	Global  map[string]any `json:"global"`
	Service map[string]any `json:"service"`
}

// DecodeRequest parses the request boundary JSON into a
// model.AuthzRequest ready for pdp.Engine.Authorize. This is boundary
// code, exactly like Load: the core never sees JSON, only the decoded
// model.AuthzRequest.
func DecodeRequest(document []byte) (*model.AuthzRequest, error) {
	var doc requestDoc
	if err := sonic.Unmarshal(document, &doc); err != nil {
		return nil, fmt.Errorf("loader: malformed authz request: %w", err)
	}

	rootPolicy, err := decodePrinciple(doc.RootPolicy)
	if err != nil {
		return nil, fmt.Errorf("loader: authz request root policy: %w", err)
	}

	req := &model.AuthzRequest{RootPolicy: rootPolicy}
	if doc.Subject != nil {
		req.Subject = &model.Subject{
			UserID: doc.Subject.UserID, Roles: doc.Subject.Roles, Attributes: doc.Subject.Attributes,
		}
	}
	if doc.Resource != nil {
		req.Resource = &model.Resource{
			Name: doc.Resource.Name, SubResources: doc.Resource.SubResources,
			Data: doc.Resource.Data, Attributes: doc.Resource.Attributes,
		}
	}
	if doc.Action != nil {
		req.Action = &model.Action{
			Method: doc.Action.Method, Path: doc.Action.Path, Headers: doc.Action.Headers,
			Query: doc.Action.Query, PathVars: doc.Action.PathVars, Body: doc.Action.Body,
			Cookies: doc.Action.Cookies, Session: doc.Action.Session, Attributes: doc.Action.Attributes,
		}
	}
	if doc.Environment != nil {
		req.Environment = &model.Environment{Global: doc.Environment.Global, Service: doc.Environment.Service}
	}

	return req, nil
}
