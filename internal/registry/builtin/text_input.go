package builtin

import (
	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// textInput models a two-stage renderer input: immediateValue tracks every
// keystroke, value only advances when the renderer commits (blur or
// explicit updateValue), and syncImmediateValue records whether the two
// are currently in lockstep.
func init() {
	registry.Register((&registry.ComponentType{
		Name: "textInput",
		StateVars: []registry.StateVarDef{
			{
				Name:                  "immediateValue",
				Kind:                  value.KindString,
				ForRenderer:           true,
				Instructions:          []registry.DependencyInstruction{{Kind: registry.InstrEssential, PrefillAttr: "prefill"}},
				Calculate:             func(deps [][]registry.DepValue) registry.CalcResult { return registry.SetValue(deps[0][0].Value) },
				RequestInverse: func(desired value.Value, deps [][]registry.DepValue) []registry.UpdateRequest {
					return []registry.UpdateRequest{{InstructionIdx: 0, DependencyIdx: 0, Desired: desired}}
				},
			},
			{
				Name:                  "syncImmediateValue",
				Kind:                  value.KindBoolean,
				InitialEssentialValue: value.Boolean(true),
				Instructions:          []registry.DependencyInstruction{{Kind: registry.InstrEssential}},
				Calculate:             func(deps [][]registry.DepValue) registry.CalcResult { return registry.SetValue(deps[0][0].Value) },
				RequestInverse: func(desired value.Value, deps [][]registry.DepValue) []registry.UpdateRequest {
					return []registry.UpdateRequest{{InstructionIdx: 0, DependencyIdx: 0, Desired: desired}}
				},
			},
			{
				Name: "value",
				Kind: value.KindString,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrEssential, PrefillAttr: "prefill"},
					{Kind: registry.InstrStateVar, StateVarName: "immediateValue"},
					{Kind: registry.InstrStateVar, StateVarName: "syncImmediateValue"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					if deps[2][0].Value.AsBool() {
						return registry.SetValue(deps[1][0].Value)
					}
					return registry.SetValue(deps[0][0].Value)
				},
				RequestInverse: func(desired value.Value, deps [][]registry.DepValue) []registry.UpdateRequest {
					return []registry.UpdateRequest{
						{InstructionIdx: 0, DependencyIdx: 0, Desired: desired},
						{InstructionIdx: 1, DependencyIdx: 0, Desired: desired},
						{InstructionIdx: 2, DependencyIdx: 0, Desired: value.Boolean(true)},
					}
				},
			},
		},
		PrimaryInput: 2,
		Profiles: []registry.ProfileBinding{
			{Profile: registry.ProfileText, StateVar: "value"},
		},
		AttributeNames: map[string]bool{"prefill": true},
		Actions: map[string]registry.ActionHandler{
			"updateImmediateValue": func(args map[string]value.Value, _ registry.StateVarReader) []registry.ActionRequest {
				return []registry.ActionRequest{
					{StateVar: "immediateValue", Desired: args["text"]},
					{StateVar: "syncImmediateValue", Desired: value.Boolean(false)},
				}
			},
			"updateValue": func(_ map[string]value.Value, read registry.StateVarReader) []registry.ActionRequest {
				return []registry.ActionRequest{
					{StateVar: "value", Desired: read("immediateValue")},
				}
			},
		},
	}).Finalize())
}
