// Package simple implements a minimal operator-table predicate language:
// enough to exercise the expression evaluator in tests without standing
// up a full CEL environment (see package predicate/cel for the
// production engine).
//
// A literal body has the form "<path> <operator> <json-value>", e.g.:
//
//	subject.attributes.department eq "Engineering"
//	object.attributes.owner_id eq subject.userId
//	subject.roles contains "admin"
package simple

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/dotrongnhan/xacml-pdp/model"
)

// operatorFunc compares an actual value (resolved from the context) against
// an expected value (the literal's third token).
type operatorFunc func(actual, expected any) bool

// Engine is a predicate.Engine backed by the operator table below.
type Engine struct {
	operators map[string]operatorFunc
}

// New builds an Engine with the default operator table.
func New() *Engine {
	return &Engine{
		operators: map[string]operatorFunc{
			"eq":       equal,
			"neq":      notEqual,
			"gt":       greaterThan,
			"gte":      greaterThanEqual,
			"lt":       lessThan,
			"lte":      lessThanEqual,
			"in":       in,
			"nin":      notIn,
			"contains": contains,
			"regex":    matchRegex,
			"exists":   exists,
		},
	}
}

// Evaluate parses and evaluates a "<path> <op> <value>" literal body.
func (e *Engine) Evaluate(ctx *model.EvaluationContext, body string) (bool, error) {
	path, op, rawValue, err := split(body)
	if err != nil {
		return false, err
	}

	fn, ok := e.operators[op]
	if !ok {
		return false, fmt.Errorf("simple predicate: unknown operator %q", op)
	}

	actual, err := resolve(ctx, path)
	if err != nil {
		return false, err
	}

	expected := resolveLiteral(ctx, rawValue)

	return fn(actual, expected), nil
}

func split(body string) (path, op, value string, err error) {
	fields := strings.SplitN(strings.TrimSpace(body), " ", 3)
	if len(fields) != 3 {
		return "", "", "", fmt.Errorf("simple predicate: expected \"<path> <op> <value>\", got %q", body)
	}
	return fields[0], fields[1], strings.TrimSpace(fields[2]), nil
}

// resolveLiteral interprets the third token either as a JSON literal
// ("\"Engineering\"", "5", "[\"a\",\"b\"]") or, failing that, as a second
// context path (so "object.attributes.owner_id eq subject.userId" works).
func resolveLiteral(ctx *model.EvaluationContext, raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	if resolved, err := resolve(ctx, raw); err == nil {
		return resolved
	}
	return raw
}

// resolve walks a dotted path rooted at subject/object/action/environment.
func resolve(ctx *model.EvaluationContext, path string) (any, error) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return nil, fmt.Errorf("simple predicate: empty path")
	}

	var current any
	switch segments[0] {
	case "subject":
		if ctx.Subject == nil {
			return nil, nil
		}
		current = map[string]any{
			"userId":     ctx.Subject.UserID,
			"roles":      toAnySlice(ctx.Subject.Roles),
			"attributes": ctx.Subject.Attributes,
		}
	case "object":
		if ctx.Resource == nil {
			return nil, nil
		}
		current = map[string]any{
			"name":         ctx.Resource.Name,
			"subResources": toAnySlice(ctx.Resource.SubResources),
			"data":         ctx.Resource.Data,
			"attributes":   ctx.Resource.Attributes,
		}
	case "action":
		if ctx.Action == nil {
			return nil, nil
		}
		current = map[string]any{
			"method":     ctx.Action.Method,
			"path":       ctx.Action.Path,
			"attributes": ctx.Action.Attributes,
			"cookies":    ctx.Action.Cookies,
			"session":    ctx.Action.Session,
		}
	case "environment":
		if ctx.Environment == nil {
			return nil, nil
		}
		current = map[string]any{
			"global":  ctx.Environment.Global,
			"service": ctx.Environment.Service,
		}
	default:
		return nil, fmt.Errorf("simple predicate: unknown root %q", segments[0])
	}

	for _, segment := range segments[1:] {
		next, ok := navigate(current, segment)
		if !ok {
			return nil, nil
		}
		current = next
	}
	return current, nil
}

func navigate(current any, segment string) (any, bool) {
	switch m := current.(type) {
	case map[string]any:
		v, ok := m[segment]
		return v, ok
	default:
		v := reflect.ValueOf(current)
		if v.Kind() == reflect.Map {
			val := v.MapIndex(reflect.ValueOf(segment))
			if !val.IsValid() {
				return nil, false
			}
			return val.Interface(), true
		}
		return nil, false
	}
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// Operator implementations.

func equal(actual, expected any) bool {
	return reflect.DeepEqual(normalize(actual), normalize(expected))
}

func notEqual(actual, expected any) bool {
	return !equal(actual, expected)
}

func in(actual, expected any) bool {
	for _, item := range toSlice(expected) {
		if reflect.DeepEqual(normalize(actual), normalize(item)) {
			return true
		}
	}
	return false
}

func notIn(actual, expected any) bool {
	return !in(actual, expected)
}

func contains(actual, expected any) bool {
	slice := toSlice(actual)
	if slice == nil {
		return strings.Contains(toString(actual), toString(expected))
	}
	for _, item := range slice {
		if reflect.DeepEqual(normalize(item), normalize(expected)) {
			return true
		}
	}
	return false
}

func matchRegex(actual, expected any) bool {
	pattern := toString(expected)
	if pattern == "" {
		return false
	}
	matched, err := regexp.MatchString(pattern, toString(actual))
	return err == nil && matched
}

func greaterThan(actual, expected any) bool      { return compare(actual, expected) > 0 }
func greaterThanEqual(actual, expected any) bool { return compare(actual, expected) >= 0 }
func lessThan(actual, expected any) bool         { return compare(actual, expected) < 0 }
func lessThanEqual(actual, expected any) bool    { return compare(actual, expected) <= 0 }

func exists(actual, _ any) bool { return actual != nil }

func toSlice(value any) []any {
	if value == nil {
		return nil
	}
	if s, ok := value.([]any); ok {
		return s
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = v.Index(i).Interface()
	}
	return out
}

func toString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func toFloat64(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

func compare(actual, expected any) int {
	a, e := toFloat64(actual), toFloat64(expected)
	switch {
	case a > e:
		return 1
	case a < e:
		return -1
	default:
		return 0
	}
}

// normalize collapses int/float JSON-decoded numerics onto float64 so
// "5 eq 5.0" and "5 eq 5" behave consistently regardless of which side came
// from a JSON literal versus a native Go int in the context.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
