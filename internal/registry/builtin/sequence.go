package builtin

import (
	"math"
	"strconv"
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// sequence generates a run of numbers from "from" to "to" (inclusive) in
// steps of "step", exposed as a count plus a comma-joined rendered text —
// this engine's primitive value kinds have no list variant, so a sequence
// renders as the string a renderer would actually display rather than as
// a structured array.
func init() {
	registry.Register((&registry.ComponentType{
		Name: "sequence",
		StateVars: []registry.StateVarDef{
			{
				Name: "count",
				Kind: value.KindInteger,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrAttribute, AttrName: "from", DefaultValue: value.Number(1)},
					{Kind: registry.InstrAttribute, AttrName: "to", DefaultValue: value.Number(1)},
					{Kind: registry.InstrAttribute, AttrName: "step", DefaultValue: value.Number(1)},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					from, to, step := seqBounds(deps)
					return registry.SetValue(value.Integer(int64(seqCount(from, to, step))))
				},
			},
			{
				Name:        "value",
				Kind:        value.KindString,
				ForRenderer: true,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrAttribute, AttrName: "from", DefaultValue: value.Number(1)},
					{Kind: registry.InstrAttribute, AttrName: "to", DefaultValue: value.Number(1)},
					{Kind: registry.InstrAttribute, AttrName: "step", DefaultValue: value.Number(1)},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					from, to, step := seqBounds(deps)
					n := seqCount(from, to, step)
					parts := make([]string, 0, n)
					for i := 0; i < n; i++ {
						parts = append(parts, strconv.FormatFloat(from+float64(i)*step, 'g', -1, 64))
					}
					return registry.SetValue(value.String(strings.Join(parts, ",")))
				},
			},
		},
		PrimaryInput:   -1,
		AttributeNames: map[string]bool{"from": true, "to": true, "step": true},
	}).Finalize())
}

func seqBounds(deps [][]registry.DepValue) (from, to, step float64) {
	from = deps[0][0].Value.AsNumber()
	to = deps[1][0].Value.AsNumber()
	step = deps[2][0].Value.AsNumber()
	if step == 0 {
		step = 1
	}
	return
}

func seqCount(from, to, step float64) int {
	if step == 0 || math.IsNaN(from) || math.IsNaN(to) {
		return 0
	}
	n := int(math.Floor((to-from)/step)) + 1
	if n < 0 {
		return 0
	}
	return n
}
