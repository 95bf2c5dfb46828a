package builtin

import (
	"math"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

func init() {
	registry.Register((&registry.ComponentType{
		Name: "number",
		StateVars: []registry.StateVarDef{
			{
				Name:                  "value",
				Kind:                  value.KindNumber,
				ForRenderer:           true,
				DefaultComponentType:  "number",
				InitialEssentialValue: value.Number(math.NaN()),
				Instructions: []registry.DependencyInstruction{
					{
						Kind:                registry.InstrChild,
						ParseIntoExpression: true,
						DesiredProfiles:     []registry.Profile{registry.ProfileText, registry.ProfileNumber, registry.ProfileMath},
					},
					{Kind: registry.InstrAttribute, AttrName: "bindValueTo", DefaultValue: value.Number(math.NaN())},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					if bind := deps[1]; len(bind) > 0 && !bind[0].UsedDefault {
						return registry.SetValue(bind[0].Value)
					}
					return registry.SetValue(value.Number(evalChildExpression(deps[0])))
				},
				RequestInverse: func(desired value.Value, deps [][]registry.DepValue) []registry.UpdateRequest {
					if bind := deps[1]; len(bind) > 0 && !bind[0].UsedDefault {
						return []registry.UpdateRequest{{InstructionIdx: 1, DependencyIdx: 0, Desired: desired}}
					}
					return nil
				},
			},
		},
		PrimaryInput: 0,
		Profiles: []registry.ProfileBinding{
			{Profile: registry.ProfileNumber, StateVar: "value"},
		},
		AttributeNames: map[string]bool{"bindvalueto": true},
	}).Finalize())
}
