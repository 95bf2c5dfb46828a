package builtin

import (
	"math"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// evalChildExpression evaluates a parse_into_expression Child instruction's
// matched dependency list: exprDeps[0] is the cached MathExpression whose
// external variables v0, v1, ... are bound, in order, to exprDeps[1:]. A
// matched child that itself supplies a MathExpr (a nested math child, via
// the Math profile) is evaluated with no further bindings before its value
// is bound in; one that supplies a Number is read directly.
func evalChildExpression(exprDeps []registry.DepValue) float64 {
	if len(exprDeps) == 0 {
		return math.NaN()
	}
	expr := exprDeps[0].Value.AsMathExpr()
	if expr.IsEmpty() {
		return math.NaN()
	}
	bindings := make(map[string]float64, len(exprDeps)-1)
	for i, d := range exprDeps[1:] {
		bindings[expr.VarName(i)] = childValueAsFloat(d.Value)
	}
	return expr.Eval(bindings)
}

func childValueAsFloat(v value.Value) float64 {
	if v.Kind() == value.KindMathExpr {
		return v.AsMathExpr().Eval(nil)
	}
	return v.AsNumber()
}
