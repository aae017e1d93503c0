// Package loader parses the JSON policy document schema into the
// model.Principle tree the core evaluates. This is boundary code: all
// JSON deserialization of policies lives here, and nothing here is
// imported by expr/principle/combine/pdp. It uses bytedance/sonic, the
// codec the rest of this module's JSON boundary already uses, rather
// than encoding/json.
package loader

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/dotrongnhan/xacml-pdp/model"
)

// expressionDoc mirrors the wire Expression shape:
// { id, description, type: "LITERAL"|"COMPOSITION", expression?, subExpressions?, combinationType? }.
type expressionDoc struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Type            string          `json:"type"`
	Expression      string          `json:"expression,omitempty"`
	SubExpressions  []expressionDoc `json:"subExpressions,omitempty"`
	CombinationType string          `json:"combinationType,omitempty"`
}

// ruleDoc mirrors the wire Rule shape: { id, description, target?, condition?, effect }.
type ruleDoc struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Target      *expressionDoc `json:"target,omitempty"`
	Condition   *expressionDoc `json:"condition,omitempty"`
	Effect      string         `json:"effect"`
}

// principleDoc mirrors the discriminated Policy/PolicySet union: a "kind"
// tag of "policy" or "policySet", with either "rules" or "policies"
// populated accordingly.
type principleDoc struct {
	Kind                 string         `json:"kind"`
	ID                   string         `json:"id"`
	Description          string         `json:"description"`
	Target               *expressionDoc `json:"target"`
	CombineAlgorithmName string         `json:"combineAlgorithmName"`
	IsRoot               bool           `json:"isRoot"`
	Rules                []ruleDoc      `json:"rules,omitempty"`
	Policies             []principleDoc `json:"policies,omitempty"`
}

// Load parses a single policy document into a model.Principle tree. A
// malformed document is a configuration error, returned as a plain Go
// error rather than an evaluation outcome.
func Load(document []byte) (model.Principle, error) {
	var doc principleDoc
	if err := sonic.Unmarshal(document, &doc); err != nil {
		return nil, fmt.Errorf("loader: malformed policy document: %w", err)
	}
	return decodePrinciple(doc)
}

// LoadRoot parses document and additionally verifies it declares itself
// the tree's root (the "isRoot" field), the convention used to pick
// which top-level document to hand the PDP.
func LoadRoot(document []byte) (model.Principle, error) {
	var doc principleDoc
	if err := sonic.Unmarshal(document, &doc); err != nil {
		return nil, fmt.Errorf("loader: malformed policy document: %w", err)
	}
	if !doc.IsRoot {
		return nil, fmt.Errorf("loader: document %q is not marked isRoot", doc.ID)
	}
	return decodePrinciple(doc)
}

func decodePrinciple(doc principleDoc) (model.Principle, error) {
	switch doc.Kind {
	case "policy":
		return decodePolicy(doc)
	case "policySet":
		return decodePolicySet(doc)
	default:
		return nil, fmt.Errorf("loader: policy document %q has unknown kind %q (want \"policy\" or \"policySet\")", doc.ID, doc.Kind)
	}
}

func decodePolicy(doc principleDoc) (*model.Policy, error) {
	target, err := decodeExpression(doc.Target)
	if err != nil {
		return nil, fmt.Errorf("loader: policy %q target: %w", doc.ID, err)
	}
	if target == nil {
		return nil, fmt.Errorf("loader: policy %q is missing a target", doc.ID)
	}

	algorithm, err := decodeCombineAlgorithm(doc.CombineAlgorithmName)
	if err != nil {
		return nil, fmt.Errorf("loader: policy %q: %w", doc.ID, err)
	}

	rules := make([]*model.Rule, len(doc.Rules))
	for i, ruleDoc := range doc.Rules {
		rule, err := decodeRule(ruleDoc)
		if err != nil {
			return nil, fmt.Errorf("loader: policy %q rule %d: %w", doc.ID, i, err)
		}
		rules[i] = rule
	}

	return &model.Policy{
		Base:             model.Base{ID: doc.ID, Description: doc.Description, Target: target},
		CombineAlgorithm: algorithm,
		Rules:            rules,
	}, nil
}

func decodePolicySet(doc principleDoc) (*model.PolicySet, error) {
	target, err := decodeExpression(doc.Target)
	if err != nil {
		return nil, fmt.Errorf("loader: policy set %q target: %w", doc.ID, err)
	}
	if target == nil {
		return nil, fmt.Errorf("loader: policy set %q is missing a target", doc.ID)
	}

	algorithm, err := decodeCombineAlgorithm(doc.CombineAlgorithmName)
	if err != nil {
		return nil, fmt.Errorf("loader: policy set %q: %w", doc.ID, err)
	}

	children := make([]model.Principle, len(doc.Policies))
	for i, childDoc := range doc.Policies {
		child, err := decodePrinciple(childDoc)
		if err != nil {
			return nil, fmt.Errorf("loader: policy set %q child %d: %w", doc.ID, i, err)
		}
		children[i] = child
	}

	return &model.PolicySet{
		Base:             model.Base{ID: doc.ID, Description: doc.Description, Target: target},
		CombineAlgorithm: algorithm,
		Children:         children,
	}, nil
}

func decodeRule(doc ruleDoc) (*model.Rule, error) {
	target, err := decodeExpression(doc.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	condition, err := decodeExpression(doc.Condition)
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}

	effect, err := decodeEffect(doc.Effect)
	if err != nil {
		return nil, err
	}

	return &model.Rule{
		Base:      model.Base{ID: doc.ID, Description: doc.Description, Target: target},
		Condition: condition,
		Effect:    effect,
	}, nil
}

func decodeExpression(doc *expressionDoc) (*model.Expression, error) {
	if doc == nil {
		return nil, nil
	}

	switch doc.Type {
	case "LITERAL":
		return &model.Expression{
			ID:          doc.ID,
			Description: doc.Description,
			Kind:        model.KindLiteral,
			Body:        doc.Expression,
		}, nil
	case "COMPOSITION":
		combination, err := decodeCombinationType(doc.CombinationType)
		if err != nil {
			return nil, fmt.Errorf("expression %q: %w", doc.ID, err)
		}
		children := make([]*model.Expression, len(doc.SubExpressions))
		for i, childDoc := range doc.SubExpressions {
			child, err := decodeExpression(&childDoc)
			if err != nil {
				return nil, fmt.Errorf("expression %q child %d: %w", doc.ID, i, err)
			}
			children[i] = child
		}
		return &model.Expression{
			ID:              doc.ID,
			Description:     doc.Description,
			Kind:            model.KindComposition,
			CombinationType: combination,
			Children:        children,
		}, nil
	default:
		return nil, fmt.Errorf("expression %q has unknown type %q (want \"LITERAL\" or \"COMPOSITION\")", doc.ID, doc.Type)
	}
}

func decodeEffect(raw string) (model.Effect, error) {
	switch model.Effect(raw) {
	case model.EffectPermit, model.EffectDeny:
		return model.Effect(raw), nil
	default:
		return "", fmt.Errorf("unknown effect %q (want \"PERMIT\" or \"DENY\")", raw)
	}
}

func decodeCombinationType(raw string) (model.CombinationType, error) {
	switch model.CombinationType(raw) {
	case model.CombinationAnd, model.CombinationOr:
		return model.CombinationType(raw), nil
	default:
		return "", fmt.Errorf("unknown combination type %q (want \"AND\" or \"OR\")", raw)
	}
}

func decodeCombineAlgorithm(raw string) (model.CombineAlgorithm, error) {
	switch model.CombineAlgorithm(raw) {
	case model.DenyOverrides, model.PermitOverrides, model.DenyUnlessPermit,
		model.PermitUnlessDeny, model.FirstApplicable, model.OnlyOneApplicable:
		return model.CombineAlgorithm(raw), nil
	default:
		return "", fmt.Errorf("unknown combining algorithm %q", raw)
	}
}

// Marshal re-serializes a model.Principle tree back to the wire schema,
// the inverse of Load.
func Marshal(root model.Principle) ([]byte, error) {
	doc, err := encodePrinciple(root, false)
	if err != nil {
		return nil, err
	}
	return sonic.Marshal(doc)
}

func encodePrinciple(principle model.Principle, isRoot bool) (*principleDoc, error) {
	switch typed := principle.(type) {
	case *model.Policy:
		rules := make([]ruleDoc, len(typed.Rules))
		for i, rule := range typed.Rules {
			rules[i] = encodeRule(rule)
		}
		return &principleDoc{
			Kind:                 "policy",
			ID:                   typed.ID,
			Description:          typed.Description,
			Target:               encodeExpression(typed.Target),
			CombineAlgorithmName: string(typed.CombineAlgorithm),
			IsRoot:               isRoot,
			Rules:                rules,
		}, nil
	case *model.PolicySet:
		children := make([]principleDoc, len(typed.Children))
		for i, child := range typed.Children {
			childDoc, err := encodePrinciple(child, false)
			if err != nil {
				return nil, err
			}
			children[i] = *childDoc
		}
		return &principleDoc{
			Kind:                 "policySet",
			ID:                   typed.ID,
			Description:          typed.Description,
			Target:               encodeExpression(typed.Target),
			CombineAlgorithmName: string(typed.CombineAlgorithm),
			IsRoot:               isRoot,
			Policies:             children,
		}, nil
	default:
		return nil, fmt.Errorf("loader: cannot encode principle of type %T", principle)
	}
}

func encodeRule(rule *model.Rule) ruleDoc {
	return ruleDoc{
		ID:          rule.ID,
		Description: rule.Description,
		Target:      encodeExpression(rule.Target),
		Condition:   encodeExpression(rule.Condition),
		Effect:      string(rule.Effect),
	}
}

func encodeExpression(expression *model.Expression) *expressionDoc {
	if expression == nil {
		return nil
	}
	doc := &expressionDoc{
		ID:          expression.ID,
		Description: expression.Description,
		Type:        string(expression.Kind),
	}
	switch expression.Kind {
	case model.KindLiteral:
		doc.Expression = expression.Body
	case model.KindComposition:
		doc.CombinationType = string(expression.CombinationType)
		doc.SubExpressions = make([]expressionDoc, len(expression.Children))
		for i, child := range expression.Children {
			doc.SubExpressions[i] = *encodeExpression(child)
		}
	}
	return doc
}
