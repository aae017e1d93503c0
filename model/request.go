package model

import (
	"encoding/json"
	"time"
)

// Strategy names one of the three decision strategies. Like
// CombineAlgorithm, these identifiers are part of the stable contract.
type Strategy string

const (
	StrategyDefaultDeny                          Strategy = "DEFAULT_DENY"
	StrategyDefaultPermit                        Strategy = "DEFAULT_PERMIT"
	StrategyNotApplicablePermitIndeterminateDeny Strategy = "NOT_APPLICABLE_PERMIT_INDETERMINATE_DENY"
)

// AuthzRequest is the boundary input the PDP accepts: a context plus the
// root of the policy tree it should be evaluated against.
type AuthzRequest struct {
	Subject     *Subject
	Resource    *Resource
	Action      *Action
	Environment *Environment
	RootPolicy  Principle // *Policy or *PolicySet
}

// Context adapts the request's four attribute sources into the read-only
// EvaluationContext the core evaluators consume.
func (r *AuthzRequest) Context() *EvaluationContext {
	return &EvaluationContext{
		Subject:     r.Subject,
		Resource:    r.Resource,
		Action:      r.Action,
		Environment: r.Environment,
	}
}

// Decision is the binary outcome a Strategy reduces an EvaluationResult to.
type Decision string

const (
	DecisionPermit Decision = "PERMIT"
	DecisionDeny   Decision = "DENY"
)

// AuthzDecision is the boundary output: a binary decision, the time it
// was reached, and optional details for observability, never anything
// an enforcement point must branch on beyond Decision itself.
type AuthzDecision struct {
	Decision  Decision
	Timestamp time.Time
	// Details is either a *cause.Cause (when the underlying
	// EvaluationResult was indeterminate), a string (the fixed
	// "No policy applicable" message for NOT_APPLICABLE), or nil.
	Details any
}

// authzDecisionWire is the JSON wire shape: timestamp is milliseconds
// since epoch, not an RFC3339 string.
type authzDecisionWire struct {
	Decision  Decision `json:"decision"`
	Timestamp int64    `json:"timestamp"`
	Details   any      `json:"details,omitempty"`
}

// MarshalJSON renders the timestamp as milliseconds since epoch per the
// wire contract.
func (d AuthzDecision) MarshalJSON() ([]byte, error) {
	return json.Marshal(authzDecisionWire{
		Decision:  d.Decision,
		Timestamp: d.Timestamp.UnixMilli(),
		Details:   d.Details,
	})
}
