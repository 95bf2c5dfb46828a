package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqnykamp/doenetgraph/internal/graph"
	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/store"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

func echoType(name string) *registry.ComponentType {
	return (&registry.ComponentType{
		Name: name,
		StateVars: []registry.StateVarDef{
			{
				Name: "value",
				Kind: value.KindString,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrEssential, PrefillAttr: "value"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(deps[0][0].Value)
				},
				InitialEssentialValue: value.String(""),
			},
		},
		Profiles:             []registry.ProfileBinding{{Profile: registry.ProfileText, StateVar: "value"}},
		PrimaryInput:         0,
		StaticAttributeNames: map[string]bool{"value": true},
	}).Finalize()
}

func copyType(name string) *registry.ComponentType {
	return (&registry.ComponentType{
		Name: name,
		StateVars: []registry.StateVarDef{
			{
				Name: "value",
				Kind: value.KindString,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrStateVar, Component: "/src", StateVarName: "value"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(deps[0][0].Value)
				},
			},
		},
		PrimaryInput: 0,
	}).Finalize()
}

func parentReaderType(name string) *registry.ComponentType {
	return (&registry.ComponentType{
		Name: name,
		StateVars: []registry.StateVarDef{
			{
				Name: "value",
				Kind: value.KindString,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrParent, ParentStateVarName: "value"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(deps[0][0].Value)
				},
			},
		},
		PrimaryInput: -1,
	}).Finalize()
}

func containerType(name string) *registry.ComponentType {
	return (&registry.ComponentType{
		Name: name,
		StateVars: []registry.StateVarDef{
			{
				Name: "value",
				Kind: value.KindString,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrChild, DesiredProfiles: []registry.Profile{registry.ProfileText}},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					if len(deps[0]) == 0 {
						return registry.SetValue(value.String(""))
					}
					return registry.SetValue(deps[0][0].Value)
				},
			},
		},
		PrimaryInput: -1,
	}).Finalize()
}

func attrReaderType(name string) *registry.ComponentType {
	return (&registry.ComponentType{
		Name: name,
		StateVars: []registry.StateVarDef{
			{
				Name: "label",
				Kind: value.KindString,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrAttribute, AttrName: "label", DefaultValue: value.String("fallback")},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult {
					return registry.SetValue(deps[0][0].Value)
				},
			},
		},
		PrimaryInput: -1,
		AttributeNames: map[string]bool{"label": true},
	}).Finalize()
}

func buildSimpleGraph(nodes ...*graph.ComponentNode) *graph.Graph {
	g := &graph.Graph{Nodes: map[string]*graph.ComponentNode{}, Attrs: graph.Attributes{}}
	for _, n := range nodes {
		g.Nodes[n.Name] = n
	}
	return g
}

func TestEnsureFreshResolvesEssentialWithDefault(t *testing.T) {
	typ := echoType("echo")
	g := buildSimpleGraph(&graph.ComponentNode{Name: "/e1", TypeName: "echo", Type: typ, StaticAttributes: map[string]string{}})
	e := New(g, store.New())

	got := e.EnsureFresh("/e1", 0)
	assert.Equal(t, "", got.AsString())
	assert.Equal(t, Fresh, e.State("/e1", 0))
}

func TestEnsureFreshPrefillsFromStaticAttribute(t *testing.T) {
	typ := echoType("echo")
	g := buildSimpleGraph(&graph.ComponentNode{
		Name: "/e1", TypeName: "echo", Type: typ,
		StaticAttributes: map[string]string{"value": "hello"},
	})
	e := New(g, store.New())

	got := e.EnsureFresh("/e1", 0)
	assert.Equal(t, "hello", got.AsString())
}

func TestEnsureFreshCachesAcrossCalls(t *testing.T) {
	typ := echoType("echo")
	g := buildSimpleGraph(&graph.ComponentNode{Name: "/e1", TypeName: "echo", Type: typ, StaticAttributes: map[string]string{}})
	e := New(g, store.New())

	e.EnsureFresh("/e1", 0)
	assert.Equal(t, Fresh, e.State("/e1", 0))
	got := e.EnsureFresh("/e1", 0)
	assert.Equal(t, "", got.AsString())
}

func TestStateVarInstructionChainsAcrossComponents(t *testing.T) {
	srcType := echoType("echo")
	dstType := copyType("copier")
	g := buildSimpleGraph(
		&graph.ComponentNode{Name: "/src", TypeName: "echo", Type: srcType, StaticAttributes: map[string]string{"value": "from-src"}},
		&graph.ComponentNode{Name: "/dst", TypeName: "copier", Type: dstType, StaticAttributes: map[string]string{}},
	)
	e := New(g, store.New())

	got := e.EnsureFresh("/dst", 0)
	assert.Equal(t, "from-src", got.AsString())
	assert.Contains(t, e.Dependencies("/dst", 0), Key{"/src", 0})
	assert.Contains(t, e.Dependents("/src", 0), Key{"/dst", 0})
}

func TestParentInstructionReadsParentStateVar(t *testing.T) {
	parentType := echoType("echo")
	childType := parentReaderType("reader")
	g := buildSimpleGraph(
		&graph.ComponentNode{Name: "/p", TypeName: "echo", Type: parentType, StaticAttributes: map[string]string{"value": "parent-val"}},
		&graph.ComponentNode{Name: "/c", TypeName: "reader", Type: childType, Parent: "/p", StaticAttributes: map[string]string{}},
	)
	e := New(g, store.New())

	got := e.EnsureFresh("/c", 0)
	assert.Equal(t, "parent-val", got.AsString())
}

func TestAttributeInstructionUsesDefaultWhenAbsent(t *testing.T) {
	typ := attrReaderType("reader")
	g := buildSimpleGraph(&graph.ComponentNode{Name: "/r", TypeName: "reader", Type: typ, StaticAttributes: map[string]string{}})
	e := New(g, store.New())

	got := e.EnsureFresh("/r", 0)
	assert.Equal(t, "fallback", got.AsString())
	assert.True(t, e.UsedDefault("/r", 0))
}

func TestAttributeInstructionResolvesStringAttrValue(t *testing.T) {
	typ := attrReaderType("reader")
	g := buildSimpleGraph(&graph.ComponentNode{Name: "/r", TypeName: "reader", Type: typ, StaticAttributes: map[string]string{}})
	g.Attrs["/r"] = map[string][]graph.AttrValue{"label": {{Kind: graph.AttrIsString, Text: "hi"}}}
	e := New(g, store.New())

	got := e.EnsureFresh("/r", 0)
	assert.Equal(t, "hi", got.AsString())
	assert.False(t, e.UsedDefault("/r", 0))
}

func TestChildInstructionCollectsElementChild(t *testing.T) {
	echoTyp := echoType("echo")
	containerTyp := containerType("container")
	g := buildSimpleGraph(
		&graph.ComponentNode{Name: "/child", TypeName: "echo", Type: echoTyp, StaticAttributes: map[string]string{"value": "child-val"}},
		&graph.ComponentNode{
			Name: "/box", TypeName: "container", Type: containerTyp,
			Children: []graph.ChildRef{{Name: "/child"}},
		},
	)
	e := New(g, store.New())

	got := e.EnsureFresh("/box", 0)
	assert.Equal(t, "child-val", got.AsString())
}

func TestShadowTargetMirrorsExtendStateVarSource(t *testing.T) {
	srcType := echoType("echo")
	dstType := echoType("echo2")
	g := buildSimpleGraph(
		&graph.ComponentNode{Name: "/src", TypeName: "echo", Type: srcType, StaticAttributes: map[string]string{"value": "shadowed"}},
		&graph.ComponentNode{
			Name: "/dst", TypeName: "echo2", Type: dstType, StaticAttributes: map[string]string{},
			ExtendSource: &graph.ExtendSource{Kind: graph.ExtendStateVar, Component: "/src", StateVar: "value"},
		},
	)
	e := New(g, store.New())

	got := e.EnsureFresh("/dst", 0)
	assert.Equal(t, "shadowed", got.AsString())
}

func TestInvalidatePropagatesToDependents(t *testing.T) {
	srcType := echoType("echo")
	dstType := copyType("copier")
	g := buildSimpleGraph(
		&graph.ComponentNode{Name: "/src", TypeName: "echo", Type: srcType, StaticAttributes: map[string]string{"value": "v1"}},
		&graph.ComponentNode{Name: "/dst", TypeName: "copier", Type: dstType, StaticAttributes: map[string]string{}},
	)
	e := New(g, store.New())

	e.EnsureFresh("/dst", 0)
	require.Equal(t, Fresh, e.State("/dst", 0))

	e.Invalidate(Key{"/src", 0})
	assert.Equal(t, Stale, e.State("/dst", 0))
}

func TestNotifyEssentialChangedInvalidatesReaders(t *testing.T) {
	typ := echoType("echo")
	g := buildSimpleGraph(&graph.ComponentNode{Name: "/e1", TypeName: "echo", Type: typ, StaticAttributes: map[string]string{}})
	st := store.New()
	e := New(g, st)

	e.EnsureFresh("/e1", 0)
	require.Equal(t, Fresh, e.State("/e1", 0))

	sk := store.Key{Component: "/e1", Origin: store.Origin{Kind: store.OriginStateVar, StateVar: 0}}
	st.Set(sk, value.String("changed"))
	e.NotifyEssentialChanged(sk)
	assert.Equal(t, Stale, e.State("/e1", 0))

	got := e.EnsureFresh("/e1", 0)
	assert.Equal(t, "changed", got.AsString())
}

func TestCyclicalStateVarDependencyPanics(t *testing.T) {
	aType := (&registry.ComponentType{
		Name: "a",
		StateVars: []registry.StateVarDef{
			{
				Name: "value",
				Kind: value.KindString,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrStateVar, Component: "/b", StateVarName: "value"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult { return registry.SetValue(deps[0][0].Value) },
			},
		},
		PrimaryInput: -1,
	}).Finalize()
	bType := (&registry.ComponentType{
		Name: "b",
		StateVars: []registry.StateVarDef{
			{
				Name: "value",
				Kind: value.KindString,
				Instructions: []registry.DependencyInstruction{
					{Kind: registry.InstrStateVar, Component: "/a", StateVarName: "value"},
				},
				Calculate: func(deps [][]registry.DepValue) registry.CalcResult { return registry.SetValue(deps[0][0].Value) },
			},
		},
		PrimaryInput: -1,
	}).Finalize()
	g := buildSimpleGraph(
		&graph.ComponentNode{Name: "/a", TypeName: "a", Type: aType, StaticAttributes: map[string]string{}},
		&graph.ComponentNode{Name: "/b", TypeName: "b", Type: bType, StaticAttributes: map[string]string{}},
	)
	e := New(g, store.New())

	assert.Panics(t, func() { e.EnsureFresh("/a", 0) })
}
