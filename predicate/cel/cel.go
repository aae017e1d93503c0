// Package cel implements the production predicate.Engine on top of
// google/cel-go. Each literal body is a CEL expression that reads from
// four top-level variables (subject, object, action, environment)
// mirroring the four attribute sources on model.EvaluationContext; the
// resource is bound as "object".
package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/dotrongnhan/xacml-pdp/model"
)

// Engine compiles and evaluates CEL literal bodies. Compiled programs are
// cached by body text since the same literal is typically evaluated many
// times across requests.
type Engine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// New builds an Engine with the standard subject/object/action/environment
// variable declarations.
func New() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("subject", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("object", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("action", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("environment", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel predicate: building environment: %w", err)
	}
	return &Engine{env: env, programs: make(map[string]cel.Program)}, nil
}

// Evaluate compiles body (if not already cached) and runs it against ctx.
// The program must produce a bool; any other result type is an error.
func (e *Engine) Evaluate(ctx *model.EvaluationContext, body string) (bool, error) {
	program, err := e.compile(body)
	if err != nil {
		return false, err
	}

	out, _, err := program.Eval(toActivation(ctx))
	if err != nil {
		return false, fmt.Errorf("cel predicate: evaluating %q: %w", body, err)
	}

	value, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("cel predicate: %q did not evaluate to a bool (got %T)", body, out.Value())
	}
	return value, nil
}

func (e *Engine) compile(body string) (cel.Program, error) {
	e.mu.RLock()
	if program, ok := e.programs[body]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	ast, issues := e.env.Compile(body)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel predicate: compiling %q: %w", body, issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel predicate: building program for %q: %w", body, err)
	}

	e.mu.Lock()
	e.programs[body] = program
	e.mu.Unlock()

	return program, nil
}

func toActivation(ctx *model.EvaluationContext) map[string]any {
	vars := map[string]any{
		"subject":     map[string]any{},
		"object":      map[string]any{},
		"action":      map[string]any{},
		"environment": map[string]any{},
	}

	if ctx.Subject != nil {
		vars["subject"] = map[string]any{
			"userId":     ctx.Subject.UserID,
			"roles":      toDynSlice(ctx.Subject.Roles),
			"attributes": ctx.Subject.Attributes,
		}
	}
	if ctx.Resource != nil {
		vars["object"] = map[string]any{
			"name":         ctx.Resource.Name,
			"subResources": toDynSlice(ctx.Resource.SubResources),
			"data":         ctx.Resource.Data,
			"attributes":   ctx.Resource.Attributes,
		}
	}
	if ctx.Action != nil {
		vars["action"] = map[string]any{
			"method":     ctx.Action.Method,
			"path":       ctx.Action.Path,
			"headers":    ctx.Action.Headers,
			"query":      ctx.Action.Query,
			"pathVars":   ctx.Action.PathVars,
			"body":       ctx.Action.Body,
			"attributes": ctx.Action.Attributes,
			"cookies":    ctx.Action.Cookies,
			"session":    ctx.Action.Session,
		}
	}
	if ctx.Environment != nil {
		vars["environment"] = map[string]any{
			"global":  ctx.Environment.Global,
			"service": ctx.Environment.Service,
		}
	}

	return vars
}

func toDynSlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
