// Package expr implements the three-valued expression evaluator:
// MATCH/NO_MATCH/INDETERMINATE composition over LITERAL and AND/OR
// nodes, delegating leaf predicates to an injected predicate.Engine.
package expr

import (
	"github.com/dotrongnhan/xacml-pdp/cause"
	"github.com/dotrongnhan/xacml-pdp/model"
	"github.com/dotrongnhan/xacml-pdp/predicate"
)

// Evaluator evaluates model.Expression trees against a context, delegating
// LITERAL bodies to the predicate engine it was built with.
type Evaluator struct {
	engine predicate.Engine
}

// New builds an Evaluator backed by the given predicate engine.
func New(engine predicate.Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

// Evaluate walks expr and returns its three-valued result. A nil
// expression is treated as an unconditional MATCH; this is how a Rule
// with no Condition, or an absent target, composes cleanly with the
// rest of the algebra.
func (e *Evaluator) Evaluate(ctx *model.EvaluationContext, expression *model.Expression) model.ExpressionResult {
	if expression == nil {
		return model.MatchResult()
	}

	switch expression.Kind {
	case model.KindLiteral:
		return e.evaluateLiteral(ctx, expression)
	case model.KindComposition:
		return e.evaluateComposition(ctx, expression)
	default:
		return model.IndeterminateResult(cause.New(cause.SyntaxError,
			"Expression with id "+expression.ID+" has an unknown kind"))
	}
}

func (e *Evaluator) evaluateLiteral(ctx *model.EvaluationContext, expression *model.Expression) model.ExpressionResult {
	if expression.Body == "" {
		return model.IndeterminateResult(cause.New(cause.SyntaxError, "Expression is null"))
	}

	matched, err := e.engine.Evaluate(ctx, expression.Body)
	if err != nil {
		return model.IndeterminateResult(cause.NewWithContent(cause.SyntaxError,
			"Expression with id "+expression.ID+" has syntax_error", err.Error()))
	}

	if matched {
		return model.MatchResult()
	}
	return model.NoMatchResult()
}

// evaluateComposition implements three-valued AND/OR. Every child is
// evaluated before the result collapses: NO_MATCH/MATCH dominate the
// final outcome, but only after the full pass, so indeterminate
// provenance from later children is never silently dropped.
func (e *Evaluator) evaluateComposition(ctx *model.EvaluationContext, expression *model.Expression) model.ExpressionResult {
	if len(expression.Children) == 0 {
		return model.IndeterminateResult(cause.New(cause.SyntaxError, "Sub expression is empty"))
	}

	results := make([]model.ExpressionResult, len(expression.Children))
	for i, child := range expression.Children {
		results[i] = e.Evaluate(ctx, child)
	}

	dominant := model.NoMatch
	if expression.CombinationType == model.CombinationOr {
		dominant = model.Match
	}
	for _, result := range results {
		if result.ResultType == dominant {
			if dominant == model.Match {
				return model.MatchResult()
			}
			return model.NoMatchResult()
		}
	}

	var causes []*cause.Cause
	for _, result := range results {
		if result.IsIndeterminate() {
			causes = append(causes, result.Cause)
		}
	}
	if len(causes) > 0 {
		return model.IndeterminateResult(cause.Aggregate(
			"Expression with id "+expression.ID+" has processing_error", causes...))
	}

	// No child was indeterminate and none matched the dominant outcome: AND
	// reached here only via all-MATCH, OR only via all-NO_MATCH.
	if expression.CombinationType == model.CombinationAnd {
		return model.MatchResult()
	}
	return model.NoMatchResult()
}
