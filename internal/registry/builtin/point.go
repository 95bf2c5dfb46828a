package builtin

import (
	"math"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// point exposes a single "xs" attribute: a mixed list of literal numbers
// and component macros, one entry per coordinate. Each coordinate is its
// own state variable reading its position in that shared list, so a
// macro-bound entry (e.g. xs="3 $num") back-propagates an inverse request
// straight to the referenced component instead of a local essential cell.
func init() {
	registry.Register((&registry.ComponentType{
		Name: "point",
		StateVars: []registry.StateVarDef{
			coordinateStateVar("x", 0),
			coordinateStateVar("y", 1),
		},
		PrimaryInput:   -1,
		AttributeNames: map[string]bool{"xs": true},
	}).Finalize())
}

func coordinateStateVar(name string, index int) registry.StateVarDef {
	return registry.StateVarDef{
		Name:                  name,
		Kind:                  value.KindNumber,
		ForRenderer:           true,
		InitialEssentialValue: value.Number(math.NaN()),
		Instructions: []registry.DependencyInstruction{
			{Kind: registry.InstrEssential},
			{Kind: registry.InstrAttribute, AttrName: "xs", DefaultValue: value.Number(math.NaN())},
		},
		Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
			if xs := deps[1]; index < len(xs) && !xs[index].UsedDefault {
				return registry.SetValue(xs[index].Value)
			}
			return registry.SetValue(deps[0][0].Value)
		},
		RequestInverse: func(desired value.Value, deps [][]registry.DepValue) []registry.UpdateRequest {
			if xs := deps[1]; index < len(xs) && !xs[index].UsedDefault {
				return []registry.UpdateRequest{{InstructionIdx: 1, DependencyIdx: index, Desired: desired}}
			}
			return []registry.UpdateRequest{{InstructionIdx: 0, DependencyIdx: 0, Desired: desired}}
		},
	}
}
