package builtin

import (
	"strconv"
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// collect gathers its direct (effective) children that fulfil the Text,
// Number, Boolean or Math profile into a count and a joined text
// rendering, exercising the Child dependency instruction's
// profile-matching beyond a single direct consumer. Deeper descendants are
// not gathered, and the declared "componentType" attribute is not read.
func init() {
	registry.Register((&registry.ComponentType{
		Name: "collect",
		StateVars: []registry.StateVarDef{
			{
				Name: "count",
				Kind: value.KindInteger,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrChild, DesiredProfiles: []registry.Profile{
						registry.ProfileText, registry.ProfileNumber, registry.ProfileBoolean, registry.ProfileMath,
					}},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(value.Integer(int64(len(deps[0]))))
				},
			},
			{
				Name:        "value",
				Kind:        value.KindString,
				ForRenderer: true,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrChild, DesiredProfiles: []registry.Profile{
						registry.ProfileText, registry.ProfileNumber, registry.ProfileBoolean, registry.ProfileMath,
					}},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					parts := make([]string, 0, len(deps[0]))
					for _, d := range deps[0] {
						parts = append(parts, collectRender(d.Value))
					}
					return registry.SetValue(value.String(strings.Join(parts, ", ")))
				},
			},
		},
		PrimaryInput:   -1,
		AttributeNames: map[string]bool{"componenttype": true},
	}).Finalize())
}

func collectRender(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		return v.AsString()
	case value.KindMathExpr:
		return v.AsMathExpr().Source()
	case value.KindBoolean:
		return strconv.FormatBool(v.AsBool())
	case value.KindInteger:
		return strconv.FormatInt(v.AsInt(), 10)
	case value.KindNumber:
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	default:
		return ""
	}
}
