package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqnykamp/doenetgraph/internal/engine"
	"github.com/dqnykamp/doenetgraph/internal/graph"
	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/store"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

func leafType(name string) *registry.ComponentType {
	return (&registry.ComponentType{
		Name: name,
		StateVars: []registry.StateVarDef{
			{
				Name:        "value",
				Kind:        value.KindString,
				ForRenderer: true,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrEssential, PrefillAttr: "value"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(deps[0][0].Value)
				},
				InitialEssentialValue: value.String(""),
			},
		},
		PrimaryInput:         0,
		ShouldRenderChildren: true,
		Actions:              map[string]registry.ActionHandler{"update": nil},
	}).Finalize()
}

func aliasedLeafType(name string) *registry.ComponentType {
	t := leafType(name)
	t.RendererAlias = &registry.RendererAlias{RenderAsType: "renderedAs", Rename: map[string]string{"value": "text"}}
	return t
}

func containerType(name string) *registry.ComponentType {
	return (&registry.ComponentType{
		Name:                 name,
		StateVars:            []registry.StateVarDef{},
		PrimaryInput:         -1,
		ShouldRenderChildren: true,
	}).Finalize()
}

func TestEmitOrdersComponentsDocumentOrder(t *testing.T) {
	childTyp := leafType("leaf")
	rootTyp := containerType("container")
	g := &graph.Graph{
		Nodes: map[string]*graph.ComponentNode{
			"/root": {Name: "/root", TypeName: "container", Type: rootTyp, Children: []graph.ChildRef{{Name: "/c1"}, {Name: "/c2"}}},
			"/c1":   {Name: "/c1", TypeName: "leaf", Type: childTyp, Parent: "/root", StaticAttributes: map[string]string{"value": "one"}},
			"/c2":   {Name: "/c2", TypeName: "leaf", Type: childTyp, Parent: "/root", StaticAttributes: map[string]string{"value": "two"}},
		},
		Root:  "/root",
		Attrs: graph.Attributes{},
	}
	e := engine.New(g, store.New())

	out := Emit(g, e)
	require.Len(t, out, 3)
	assert.Equal(t, "/root", out[0].ComponentName)
	assert.Equal(t, "/c1", out[1].ComponentName)
	assert.Equal(t, "/c2", out[2].ComponentName)
	assert.Equal(t, "one", out[1].StateValues["value"])
}

func TestEmitOnlyIncludesForRendererStateVars(t *testing.T) {
	typ := (&registry.ComponentType{
		Name: "mixed",
		StateVars: []registry.StateVarDef{
			{Name: "visible", Kind: value.KindString, ForRenderer: true,
				Instructions: []registry.DependencyInstruction{{Kind: registry.InstrEssential}},
				Calculate:    func(deps [][]registry.DepValue) registry.CalcResult { return registry.SetValue(deps[0][0].Value) },
			},
			{Name: "hidden", Kind: value.KindString, ForRenderer: false,
				Instructions: []registry.DependencyInstruction{{Kind: registry.InstrEssential}},
				Calculate:    func(deps [][]registry.DepValue) registry.CalcResult { return registry.SetValue(deps[0][0].Value) },
			},
		},
		PrimaryInput: -1,
	}).Finalize()
	g := &graph.Graph{
		Nodes: map[string]*graph.ComponentNode{
			"/m1": {Name: "/m1", TypeName: "mixed", Type: typ, StaticAttributes: map[string]string{}},
		},
		Root:  "/m1",
		Attrs: graph.Attributes{},
	}
	e := engine.New(g, store.New())

	out := Emit(g, e)
	require.Len(t, out, 1)
	_, hasVisible := out[0].StateValues["visible"]
	_, hasHidden := out[0].StateValues["hidden"]
	assert.True(t, hasVisible)
	assert.False(t, hasHidden)
}

func TestEmitRenamesStateValuesViaRendererAlias(t *testing.T) {
	typ := aliasedLeafType("leaf2")
	g := &graph.Graph{
		Nodes: map[string]*graph.ComponentNode{
			"/l1": {Name: "/l1", TypeName: "leaf2", Type: typ, StaticAttributes: map[string]string{"value": "hi"}},
		},
		Root:  "/l1",
		Attrs: graph.Attributes{},
	}
	e := engine.New(g, store.New())

	out := Emit(g, e)
	require.Len(t, out, 1)
	assert.Equal(t, "hi", out[0].StateValues["text"])
	_, hasOriginal := out[0].StateValues["value"]
	assert.False(t, hasOriginal)
}

func TestEmitMarksInheritedChildrenWithMangledName(t *testing.T) {
	childTyp := leafType("leaf")
	rootTyp := containerType("container")
	g := &graph.Graph{
		Nodes: map[string]*graph.ComponentNode{
			"/a": {Name: "/a", TypeName: "container", Type: rootTyp, Children: []graph.ChildRef{{Name: "/shared"}}},
			"/b": {Name: "/b", TypeName: "container", Type: rootTyp,
				ExtendSource: &graph.ExtendSource{Kind: graph.ExtendComponent, Component: "/a"},
			},
			"/shared": {Name: "/shared", TypeName: "leaf", Type: childTyp, Parent: "/a", StaticAttributes: map[string]string{"value": "x"}},
		},
		Root:  "/b",
		Attrs: graph.Attributes{},
	}
	e := engine.New(g, store.New())

	out := Emit(g, e)
	require.Len(t, out, 2)
	require.Len(t, out[0].ChildrenInstructions, 1)
	ref := out[0].ChildrenInstructions[0].Component
	require.NotNil(t, ref)
	assert.Equal(t, "__cp:/shared(/b)", ref.EffectiveName)
}

func TestChildInstructionMarshalsStringAsBareJSON(t *testing.T) {
	ci := ChildInstruction{Text: "hello"}
	raw, err := json.Marshal(ci)
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, string(raw))
}

func TestChildInstructionMarshalsComponentAsObject(t *testing.T) {
	ci := ChildInstruction{Component: &ComponentRef{ComponentName: "/x", ComponentType: "leaf"}}
	raw, err := json.Marshal(ci)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "/x", decoded["componentName"])
}

func TestEmitListsActionNamesSorted(t *testing.T) {
	typ := (&registry.ComponentType{
		Name:         "actor",
		StateVars:    []registry.StateVarDef{},
		PrimaryInput: -1,
		Actions: map[string]registry.ActionHandler{
			"zeta":  nil,
			"alpha": nil,
		},
	}).Finalize()
	parentTyp := containerType("container2")
	g := &graph.Graph{
		Nodes: map[string]*graph.ComponentNode{
			"/root": {Name: "/root", TypeName: "container2", Type: parentTyp, Children: []graph.ChildRef{{Name: "/child"}}},
			"/child": {Name: "/child", TypeName: "actor", Type: typ, Parent: "/root"},
		},
		Root:  "/root",
		Attrs: graph.Attributes{},
	}
	e := engine.New(g, store.New())

	out := Emit(g, e)
	require.Len(t, out, 2)
	ref := out[0].ChildrenInstructions[0].Component
	require.NotNil(t, ref)
	assert.Equal(t, []string{"alpha", "zeta"}, ref.Actions)
}
