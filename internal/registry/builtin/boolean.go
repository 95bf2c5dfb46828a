package builtin

import (
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

func init() {
	registry.Register((&registry.ComponentType{
		Name: "boolean",
		StateVars: []registry.StateVarDef{
			{
				Name:                 "value",
				Kind:                 value.KindBoolean,
				ForRenderer:          true,
				DefaultComponentType: "boolean",
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrChild, DesiredProfiles: []registry.Profile{registry.ProfileBoolean, registry.ProfileText}},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					for _, d := range deps[0] {
						if d.Value.Kind() == value.KindBoolean {
							return registry.SetValue(d.Value)
						}
					}
					var b strings.Builder
					for _, d := range deps[0] {
						b.WriteString(d.Value.AsString())
					}
					return registry.SetValue(value.CoerceFromWire(strings.TrimSpace(b.String()), value.KindBoolean))
				},
			},
		},
		PrimaryInput: 0,
		Profiles: []registry.ProfileBinding{
			{Profile: registry.ProfileBoolean, StateVar: "value"},
		},
		ValidChildProfiles: []registry.Profile{registry.ProfileBoolean, registry.ProfileText},
	}).Finalize())
}
