package builtin

import (
	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// errorComponent substitutes for a descendant that failed to construct
// (an unknown type, an invalid or duplicate name, a bad attribute) when some ancestor
// declared DisplayErrors. Its range attributes carry the failure's exact
// source location through to the render payload.
func init() {
	registry.Register((&registry.ComponentType{
		Name: "_error",
		StateVars: []registry.StateVarDef{
			{
				Name:                 "message",
				Kind:                 value.KindString,
				ForRenderer:          true,
				DefaultComponentType: "text",
				Instructions:         []registry.DependencyInstruction{{Kind: registry.InstrAttribute, AttrName: "message", DefaultValue: value.String("")}},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(deps[0][0].Value)
				},
			},
			{
				Name:                 "startIndex",
				Kind:                 value.KindInteger,
				ForRenderer:          true,
				DefaultComponentType: "number",
				Instructions:         []registry.DependencyInstruction{{Kind: registry.InstrAttribute, AttrName: "startIndex", DefaultValue: value.Integer(-1)}},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(deps[0][0].Value)
				},
			},
			{
				Name:                 "endIndex",
				Kind:                 value.KindInteger,
				ForRenderer:          true,
				DefaultComponentType: "number",
				Instructions:         []registry.DependencyInstruction{{Kind: registry.InstrAttribute, AttrName: "endIndex", DefaultValue: value.Integer(-1)}},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(deps[0][0].Value)
				},
			},
		},
		PrimaryInput:         -1,
		DisplayErrors:        false,
		ShouldRenderChildren: false,
		StaticAttributeNames: map[string]bool{"message": true, "startindex": true, "endindex": true},
	}).Finalize())
}
