// Package principle evaluates the policy tree: Rule, Policy and
// PolicySet nodes wrapped as model.Evaluable so package combine can
// reduce them generically. It also materializes the target-inheritance
// view: a Rule with no Target of its own inherits its parent Policy's,
// without the shared model.Policy/model.Rule tree ever being mutated to
// reflect that.
package principle

import (
	"github.com/dotrongnhan/xacml-pdp/cause"
	"github.com/dotrongnhan/xacml-pdp/expr"
	"github.com/dotrongnhan/xacml-pdp/model"
)

// ruleNode adapts a *model.Rule to model.Evaluable. effectiveTarget is
// the rule's own Target if non-nil, otherwise the owning Policy's
// Target; this is where inheritance is materialized, entirely outside
// the model package.
type ruleNode struct {
	rule            *model.Rule
	effectiveTarget *model.Expression
	evaluator       *expr.Evaluator
}

// newRuleNode wraps rule for evaluation, inheriting parentTarget when the
// rule carries no target of its own.
func newRuleNode(rule *model.Rule, parentTarget *model.Expression, evaluator *expr.Evaluator) *ruleNode {
	target := rule.Target
	if target == nil {
		target = parentTarget
	}
	return &ruleNode{rule: rule, effectiveTarget: target, evaluator: evaluator}
}

func (n *ruleNode) EvaluableID() string { return n.rule.ID }

func (n *ruleNode) Applicability(ctx *model.EvaluationContext) model.ExpressionResult {
	return relabel("Target", n.effectiveTarget, n.evaluator.Evaluate(ctx, n.effectiveTarget))
}

// Evaluate implements the XACML rule evaluation table: target mismatch
// is NotApplicable; target or condition indeterminacy narrows to
// INDETERMINATE_D/INDETERMINATE_P depending on the rule's own Effect, since
// that is the only outcome it could have contributed; a matched target with
// a matched (or absent) condition contributes the rule's Effect verbatim.
func (n *ruleNode) Evaluate(ctx *model.EvaluationContext) model.EvaluationResult {
	target := n.Applicability(ctx)
	if target.ResultType == model.NoMatch {
		return model.NotApplicable()
	}
	if target.IsIndeterminate() {
		return model.IndeterminateResultOf(n.indeterminateEffectResult(), cause.Wrap("Rule", n.rule.ID, target.Cause))
	}

	condition := relabel("Condition", n.rule.Condition, n.evaluator.Evaluate(ctx, n.rule.Condition))
	if condition.ResultType == model.NoMatch {
		return model.NotApplicable()
	}
	if condition.IsIndeterminate() {
		return model.IndeterminateResultOf(n.indeterminateEffectResult(), cause.Wrap("Rule", n.rule.ID, condition.Cause))
	}

	if n.rule.Effect == model.EffectDeny {
		return model.Deny()
	}
	return model.Permit()
}

func (n *ruleNode) indeterminateEffectResult() model.EvaluationResultType {
	if n.rule.Effect == model.EffectDeny {
		return model.ResultIndeterminateD
	}
	return model.ResultIndeterminateP
}
