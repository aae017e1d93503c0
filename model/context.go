// Package model defines the policy tree data model, the evaluation
// context, and the request/decision boundary contract of the PDP.
// Every type here is a plain, immutable-by-convention value;
// none of them perform evaluation; see packages expr, principle,
// combine and pdp for that.
package model

// Subject represents the caller a request is evaluated on behalf of.
type Subject struct {
	UserID     string
	Roles      []string
	Attributes map[string]any
}

// Resource represents the object a request targets. Data is an opaque
// payload: expressions may reach into it through the predicate engine,
// but the core treats it as a read-only attribute source and never
// interprets its shape itself.
type Resource struct {
	Name         string
	SubResources []string
	Data         any
	Attributes   map[string]any
}

// Action is the boundary-provided, HTTP-request-shaped view of the
// operation being authorized. The core never parses these fields; it hands
// them to the predicate engine as read-only attributes.
type Action struct {
	Method     string
	Path       string
	Headers    map[string][]string
	Query      map[string][]string
	PathVars   map[string]string
	Body       any
	Cookies    map[string]string
	Session    map[string]any
	Attributes map[string]any
}

// Environment carries ambient attributes not tied to subject, resource or
// action: global (deployment-wide) and service (per-service) mappings.
type Environment struct {
	Global  map[string]any
	Service map[string]any
}

// EvaluationContext bundles everything a single evaluation reads. It is
// treated as read-only for the duration of an evaluation;
// nothing in this repository mutates a Context after construction.
type EvaluationContext struct {
	Subject     *Subject
	Resource    *Resource
	Action      *Action
	Environment *Environment
}
