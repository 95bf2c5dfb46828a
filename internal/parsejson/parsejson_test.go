package parsejson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqnykamp/doenetgraph/internal/ferrors"
	"github.com/dqnykamp/doenetgraph/internal/graph"
)

func TestParseRejectsEmptyInput(t *testing.T) {
	_, err := Parse([]byte("  "))
	assert.Error(t, err)
}

func TestParseSingleElement(t *testing.T) {
	el, err := Parse([]byte(`{"componentType":"text","props":{"name":"t1"},"children":["hi"]}`))
	require.NoError(t, err)
	assert.Equal(t, "text", el.ComponentType)
	assert.Equal(t, "t1", el.Props["name"])
	require.Len(t, el.Children, 1)
	assert.Equal(t, graph.ChildIsString, el.Children[0].Kind)
	assert.Equal(t, "hi", el.Children[0].Text)
}

func TestParseWrapsBareArrayInSyntheticDocument(t *testing.T) {
	el, err := Parse([]byte(`[{"componentType":"text"}, "loose text"]`))
	require.NoError(t, err)
	assert.Equal(t, "document", el.ComponentType)
	require.Len(t, el.Children, 2)
	assert.Equal(t, graph.ChildIsElement, el.Children[0].Kind)
	assert.Equal(t, "text", el.Children[0].Element.ComponentType)
	assert.Equal(t, graph.ChildIsString, el.Children[1].Kind)
	assert.Equal(t, "loose text", el.Children[1].Text)
}

func TestParseNestedElementChildren(t *testing.T) {
	el, err := Parse([]byte(`{
		"componentType": "section",
		"children": [
			{"componentType": "text", "children": ["nested"]}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, el.Children, 1)
	child := el.Children[0].Element
	require.NotNil(t, child)
	assert.Equal(t, "text", child.ComponentType)
	require.Len(t, child.Children, 1)
	assert.Equal(t, "nested", child.Children[0].Text)
}

func TestParseRangeKinds(t *testing.T) {
	cases := map[string]ferrors.RangeKind{
		"OpenClose": ferrors.RangeOpenClose,
		"SelfClose": ferrors.RangeSelfClose,
		"FromMacro": ferrors.RangeFromMacro,
		"Unknown":   ferrors.RangeNone,
	}
	for kindStr, want := range cases {
		el, err := Parse([]byte(`{"componentType":"text","range":{"kind":"` + kindStr + `","begin":1,"end":5}}`))
		require.NoError(t, err)
		assert.Equal(t, want, el.Range.Kind, kindStr)
		assert.Equal(t, 1, el.Range.Begin)
		assert.Equal(t, 5, el.Range.End)
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestParseRejectsInvalidChildJSON(t *testing.T) {
	_, err := Parse([]byte(`{"componentType":"text","children":[{bad}]}`))
	assert.Error(t, err)
}

func TestParseDefaultsNilPropsToEmptyMap(t *testing.T) {
	el, err := Parse([]byte(`{"componentType":"text"}`))
	require.NoError(t, err)
	assert.NotNil(t, el.Props)
	assert.Empty(t, el.Props)
}
