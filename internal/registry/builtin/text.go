package builtin

import (
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

func init() {
	registry.Register((&registry.ComponentType{
		Name: "text",
		StateVars: []registry.StateVarDef{
			{
				Name:                 "value",
				Kind:                 value.KindString,
				ForRenderer:          true,
				DefaultComponentType: "text",
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrChild, DesiredProfiles: []registry.Profile{registry.ProfileText}},
					{Kind: registry.InstrAttribute, AttrName: "bindValueTo", DefaultValue: value.String("")},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					bind := deps[1]
					if len(bind) > 0 && !bind[0].UsedDefault {
						return registry.SetValue(bind[0].Value)
					}
					var b strings.Builder
					for _, d := range deps[0] {
						b.WriteString(d.Value.AsString())
					}
					return registry.SetValue(value.String(b.String()))
				},
				RequestInverse: func(desired value.Value, deps [][]registry.DepValue) []registry.UpdateRequest {
					if len(deps[1]) > 0 && !deps[1][0].UsedDefault {
						return []registry.UpdateRequest{{InstructionIdx: 1, DependencyIdx: 0, Desired: desired}}
					}
					return nil
				},
			},
		},
		PrimaryInput: 0,
		Profiles: []registry.ProfileBinding{
			{Profile: registry.ProfileText, StateVar: "value"},
		},
		AttributeNames: map[string]bool{"bindvalueto": true},
	}).Finalize())
}
