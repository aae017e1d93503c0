package principle

import (
	"github.com/samber/oops"

	"github.com/dotrongnhan/xacml-pdp/cause"
	"github.com/dotrongnhan/xacml-pdp/combine"
	"github.com/dotrongnhan/xacml-pdp/expr"
	"github.com/dotrongnhan/xacml-pdp/model"
)

// policyNode adapts a *model.Policy to model.Evaluable, combining its rules
// (wrapped as ruleNode, inheriting this policy's target) via the policy's
// combining algorithm.
type policyNode struct {
	policy    *model.Policy
	evaluator *expr.Evaluator
	rules     []model.Evaluable
}

func newPolicyNode(policy *model.Policy, evaluator *expr.Evaluator) *policyNode {
	rules := make([]model.Evaluable, len(policy.Rules))
	for i, rule := range policy.Rules {
		rules[i] = newRuleNode(rule, policy.Target, evaluator)
	}
	return &policyNode{policy: policy, evaluator: evaluator, rules: rules}
}

func (n *policyNode) EvaluableID() string { return n.policy.ID }

func (n *policyNode) Applicability(ctx *model.EvaluationContext) model.ExpressionResult {
	return relabel("Target", n.policy.Target, n.evaluator.Evaluate(ctx, n.policy.Target))
}

// Evaluate evaluates the Policy. A NO_MATCH target is terminal
// (NotApplicable without even combining); a MATCH target returns the
// combine result as-is (cause enriched on indeterminacy); an
// INDETERMINATE target promotes the combine result through promote()
// instead of collapsing straight to INDETERMINATE_DP.
func (n *policyNode) Evaluate(ctx *model.EvaluationContext) model.EvaluationResult {
	target := n.Applicability(ctx)
	if target.ResultType == model.NoMatch {
		return model.NotApplicable()
	}

	combineResult := combine.Combine(n.policy.CombineAlgorithm, n.rules, ctx)

	if target.ResultType == model.Match {
		if combineResult.IsIndeterminate() {
			combineResult.Cause = cause.Wrap("Policy", n.policy.ID, combineResult.Cause)
		}
		return combineResult
	}

	promoted := promote(combineResult.ResultType)
	if promoted == model.ResultNotApplicable {
		return model.NotApplicable()
	}
	return model.IndeterminateResultOf(promoted, cause.Wrap("Policy", n.policy.ID, target.Cause))
}

// policySetNode adapts a *model.PolicySet to model.Evaluable, combining its
// children (already-built Evaluables) via the set's combining algorithm.
type policySetNode struct {
	policySet *model.PolicySet
	evaluator *expr.Evaluator
	children  []model.Evaluable
}

func newPolicySetNode(policySet *model.PolicySet, evaluator *expr.Evaluator) (*policySetNode, error) {
	children := make([]model.Evaluable, len(policySet.Children))
	for i, child := range policySet.Children {
		built, err := build(child, evaluator)
		if err != nil {
			return nil, err
		}
		children[i] = built
	}
	return &policySetNode{policySet: policySet, evaluator: evaluator, children: children}, nil
}

func (n *policySetNode) EvaluableID() string { return n.policySet.ID }

func (n *policySetNode) Applicability(ctx *model.EvaluationContext) model.ExpressionResult {
	return relabel("Target", n.policySet.Target, n.evaluator.Evaluate(ctx, n.policySet.Target))
}

// Evaluate evaluates the PolicySet, identically to Policy save that it
// combines child Policies/PolicySets instead of Rules.
func (n *policySetNode) Evaluate(ctx *model.EvaluationContext) model.EvaluationResult {
	target := n.Applicability(ctx)
	if target.ResultType == model.NoMatch {
		return model.NotApplicable()
	}

	combineResult := combine.Combine(n.policySet.CombineAlgorithm, n.children, ctx)

	if target.ResultType == model.Match {
		if combineResult.IsIndeterminate() {
			combineResult.Cause = cause.Wrap("PolicySet", n.policySet.ID, combineResult.Cause)
		}
		return combineResult
	}

	promoted := promote(combineResult.ResultType)
	if promoted == model.ResultNotApplicable {
		return model.NotApplicable()
	}
	return model.IndeterminateResultOf(promoted, cause.Wrap("PolicySet", n.policySet.ID, target.Cause))
}

// promote maps a combine result to the indeterminate variant returned
// when a Policy or PolicySet's own target is indeterminate: the combine
// result over the children narrows which half of the outcome space
// (deny-direction, permit-direction, or both) is still reachable.
func promote(combineResult model.EvaluationResultType) model.EvaluationResultType {
	switch combineResult {
	case model.ResultNotApplicable:
		return model.ResultNotApplicable
	case model.ResultPermit, model.ResultIndeterminateP:
		return model.ResultIndeterminateP
	case model.ResultDeny, model.ResultIndeterminateD:
		return model.ResultIndeterminateD
	default: // ResultIndeterminateDP, ResultIndeterminate
		return model.ResultIndeterminateDP
	}
}

// Build validates root (Only-One-Applicable may combine PolicySet
// children only, never a Policy's Rules) and wraps the whole tree as a
// single model.Evaluable ready for the PDP to call Evaluate on. A
// validation failure is a fatal configuration error, not an evaluation
// outcome: it is returned as a Go error rather than an INDETERMINATE
// result, so a broken tree is rejected instead of evaluated.
func Build(root model.Principle, evaluator *expr.Evaluator) (model.Evaluable, error) {
	if err := Validate(root); err != nil {
		return nil, err
	}
	return build(root, evaluator)
}

func build(node model.Principle, evaluator *expr.Evaluator) (model.Evaluable, error) {
	switch typed := node.(type) {
	case *model.Policy:
		return newPolicyNode(typed, evaluator), nil
	case *model.PolicySet:
		return newPolicySetNode(typed, evaluator)
	default:
		return nil, oops.Code("UNSUPPORTED_PRINCIPLE").Errorf("principle: root of a policy tree must be a Policy or PolicySet, got %T", node)
	}
}

// Validate walks the tree checking the invariants that must hold before any
// evaluation can safely begin.
func Validate(root model.Principle) error {
	switch typed := root.(type) {
	case *model.Policy:
		return validatePolicy(typed)
	case *model.PolicySet:
		return validatePolicySet(typed)
	default:
		return oops.Code("UNSUPPORTED_PRINCIPLE").Errorf("principle: root of a policy tree must be a Policy or PolicySet, got %T", root)
	}
}

func validatePolicy(policy *model.Policy) error {
	if policy.Target == nil {
		return oops.Code("MISSING_TARGET").Errorf("principle: policy %q must carry a non-nil target", policy.ID)
	}
	if policy.CombineAlgorithm == model.OnlyOneApplicable {
		return oops.Code("INVALID_COMBINING_ALGORITHM").Errorf(
			"principle: policy %q uses ONLY_ONE_APPLICABLE, which may only combine PolicySet children, never a Policy's rules", policy.ID)
	}
	for _, rule := range policy.Rules {
		if err := validateRule(rule); err != nil {
			return err
		}
	}
	return nil
}

func validatePolicySet(policySet *model.PolicySet) error {
	if policySet.Target == nil {
		return oops.Code("MISSING_TARGET").Errorf("principle: policy set %q must carry a non-nil target", policySet.ID)
	}
	for _, child := range policySet.Children {
		if err := Validate(child); err != nil {
			return err
		}
	}
	return nil
}

func validateRule(rule *model.Rule) error {
	if rule.Effect != model.EffectPermit && rule.Effect != model.EffectDeny {
		return oops.Code("INVALID_EFFECT").Errorf("principle: rule %q has an invalid effect %q", rule.ID, rule.Effect)
	}
	return nil
}
