// Package cause models the structured indeterminate-cause tree that
// evaluation diagnostics attach to INDETERMINATE-family results. Causes are
// immutable once built: callers that need to add context construct a new
// node rather than mutating an existing one, so a cause tree can be shared
// freely without a host ever observing a parent change underneath it.
package cause

import "fmt"

// Code identifies the broad category of an indeterminate cause.
type Code string

const (
	// SyntaxError marks a malformed literal or a structurally empty
	// composition (missing body, missing/empty child list).
	SyntaxError Code = "SYNTAX_ERROR"
	// ProcessingError marks a failure that occurred while aggregating
	// already-evaluated children (a composition, a rule, a combining
	// algorithm, or a target/condition wrapper).
	ProcessingError Code = "PROCESSING_ERROR"
)

// Lower returns the code in the lower-case form used by default
// descriptions such as "Target with id X has syntax_error".
func (c Code) Lower() string {
	switch c {
	case SyntaxError:
		return "syntax_error"
	case ProcessingError:
		return "processing_error"
	default:
		return string(c)
	}
}

// Cause is one node of an indeterminate-cause tree. Content, when present,
// carries a free-form diagnostic payload (e.g. the predicate evaluation
// error); Children holds sub-causes in evaluation order.
type Cause struct {
	Code        Code
	Description string
	Content     string
	Children    []*Cause
}

// New builds a leaf cause.
func New(code Code, description string) *Cause {
	return &Cause{Code: code, Description: description}
}

// NewWithContent builds a leaf cause carrying a diagnostic payload.
func NewWithContent(code Code, description, content string) *Cause {
	return &Cause{Code: code, Description: description, Content: content}
}

// Wrap builds a PROCESSING_ERROR node whose single child is the given
// cause, described with the default "<kind> with id <id> has <code>"
// template used at every composition boundary.
func Wrap(kind, id string, child *Cause) *Cause {
	return &Cause{
		Code:        ProcessingError,
		Description: fmt.Sprintf("%s with id %s has %s", kind, id, child.Code.Lower()),
		Children:    []*Cause{child},
	}
}

// Aggregate builds a PROCESSING_ERROR node whose children are every cause
// collected across a composition/combining pass, in the order they were
// observed. The caller supplies the top-level description.
func Aggregate(description string, children ...*Cause) *Cause {
	return &Cause{
		Code:        ProcessingError,
		Description: description,
		Children:    children,
	}
}

// Clone performs a deep structural copy so a cause can be attached under a
// second parent without two trees sharing mutable state.
func (c *Cause) Clone() *Cause {
	if c == nil {
		return nil
	}
	clone := &Cause{Code: c.Code, Description: c.Description, Content: c.Content}
	if len(c.Children) > 0 {
		clone.Children = make([]*Cause, len(c.Children))
		for i, child := range c.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// WithDescription returns a copy of the cause with its description
// replaced, used at composition boundaries to attach a default
// "<kind> with id <id> has <code>" message without mutating the original.
func (c *Cause) WithDescription(description string) *Cause {
	if c == nil {
		return nil
	}
	clone := c.Clone()
	clone.Description = description
	return clone
}

func (c *Cause) String() string {
	if c == nil {
		return "<nil cause>"
	}
	return fmt.Sprintf("%s: %s", c.Code, c.Description)
}
