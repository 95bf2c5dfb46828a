package builtin

import (
	"math"
	"strconv"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// numberInput is textInput's numeric sibling: rawRendererValue carries
// whatever text the renderer currently shows, immediateValue is that text
// parsed to a float (NaN on a bad parse), value commits on updateValue,
// and valid reports whether immediateValue (the text currently shown)
// parses as a number.
func init() {
	registry.Register((&registry.ComponentType{
		Name: "numberInput",
		StateVars: []registry.StateVarDef{
			{
				Name:                  "rawRendererValue",
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
				Name:                  "immediateValue",
				Kind:                  value.KindNumber,
				ForRenderer:           true,
				InitialEssentialValue: value.Number(math.NaN()),
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrStateVar, StateVarName: "rawRendererValue"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					n, err := strconv.ParseFloat(deps[0][0].Value.AsString(), 64)
					if err != nil {
						return registry.SetValue(value.Number(math.NaN()))
					}
					return registry.SetValue(value.Number(n))
				},
				RequestInverse: func(desired value.Value, deps [][]registry.DepValue) []registry.UpdateRequest {
					return []registry.UpdateRequest{{InstructionIdx: 0, DependencyIdx: 0,
						Desired: value.String(strconv.FormatFloat(desired.AsNumber(), 'g', -1, 64))}}
				},
			},
			{
				Name:                  "value",
				Kind:                  value.KindNumber,
				InitialEssentialValue: value.Number(math.NaN()),
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrEssential},
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
			{
				Name:        "valid",
				Kind:        value.KindBoolean,
				ForRenderer: true,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrStateVar, StateVarName: "immediateValue"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(value.Boolean(!math.IsNaN(deps[0][0].Value.AsNumber())))
				},
			},
		},
		PrimaryInput: 3,
		Profiles: []registry.ProfileBinding{
			{Profile: registry.ProfileNumber, StateVar: "value"},
		},
		AttributeNames: map[string]bool{"prefill": true},
		Actions: map[string]registry.ActionHandler{
			"updateImmediateValue": func(args map[string]value.Value, _ registry.StateVarReader) []registry.ActionRequest {
				return []registry.ActionRequest{
					{StateVar: "rawRendererValue", Desired: args["text"]},
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
