package builtin

import (
	"strconv"

	"github.com/dqnykamp/doenetgraph/internal/mathexpr"
	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

func init() {
	registry.Register((&registry.ComponentType{
		Name: "math",
		StateVars: []registry.StateVarDef{
			{
				Name:                 "value",
				Kind:                 value.KindMathExpr,
				ForRenderer:          true,
				DefaultComponentType: "math",
				Instructions: []registry.DependencyInstruction{
					{
						Kind:                registry.InstrChild,
						ParseIntoExpression: true,
						DesiredProfiles:     []registry.Profile{registry.ProfileText, registry.ProfileNumber, registry.ProfileMath},
					},
				},
				// Calculate keeps the parsed structural expression as-is when
				// it has no bound component children (pure literal text, the
				// common case). When children contributed bound variables
				// the expression is baked down to its current numeric value
				// and re-wrapped as a self-contained expression, since the
				// evaluator has no symbolic substitution of its own: a math
				// value with free variables could not be read by another
				// component matching it via the Math profile.
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					exprDeps := deps[0]
					if len(exprDeps) == 0 {
						return registry.SetValue(value.MathExpr(mathexpr.Empty()))
					}
					if len(exprDeps) == 1 {
						return registry.SetValue(exprDeps[0].Value)
					}
					baked, err := mathexpr.Parse(strconv.FormatFloat(evalChildExpression(exprDeps), 'g', -1, 64), "v", 0)
					if err != nil {
						return registry.SetValue(value.MathExpr(mathexpr.Empty()))
					}
					return registry.SetValue(value.MathExpr(baked))
				},
			},
		},
		PrimaryInput: 0,
		Profiles: []registry.ProfileBinding{
			{Profile: registry.ProfileMath, StateVar: "value"},
		},
		ValidChildProfiles: []registry.Profile{registry.ProfileText, registry.ProfileNumber, registry.ProfileMath},
	}).Finalize())
}
