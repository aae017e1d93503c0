package principle

import (
	"fmt"

	"github.com/dotrongnhan/xacml-pdp/model"
)

// relabel replaces an indeterminate ExpressionResult's cause
// description with the default "<kind> with id <id> has
// <code_lowercase>" template, using the Expression's own id, not the
// owning principle's. A non-indeterminate result, or one with no
// Expression to name, passes through unchanged.
func relabel(kind string, expression *model.Expression, result model.ExpressionResult) model.ExpressionResult {
	if !result.IsIndeterminate() || expression == nil {
		return result
	}
	result.Cause = result.Cause.WithDescription(fmt.Sprintf("%s with id %s has %s", kind, expression.ID, result.Cause.Code.Lower()))
	return result
}
