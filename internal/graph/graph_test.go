package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

func init() {
	registry.Register((&registry.ComponentType{
		Name: "document",
		StateVars: []registry.StateVarDef{
			{Name: "value", Kind: value.KindString},
		},
		PrimaryInput: -1,
	}).Finalize())

	registry.Register((&registry.ComponentType{
		Name: "gtext",
		StateVars: []registry.StateVarDef{
			{Name: "value", Kind: value.KindString},
		},
		Profiles:             []registry.ProfileBinding{{Profile: registry.ProfileText, StateVar: "value"}},
		PrimaryInput:         0,
		AttributeNames:       map[string]bool{"hide": true},
		StaticAttributeNames: map[string]bool{"name": true},
	}).Finalize())

	registry.Register((&registry.ComponentType{
		Name:                 "gcontainer",
		StateVars:            []registry.StateVarDef{{Name: "value", Kind: value.KindString}},
		ValidChildProfiles:   []registry.Profile{registry.ProfileText},
		PrimaryInput:         -1,
		DisplayErrors:        true,
	}).Finalize())

	registry.Register((&registry.ComponentType{
		Name:         "_error",
		StateVars:    []registry.StateVarDef{{Name: "message", Kind: value.KindString}},
		PrimaryInput: -1,
		StaticAttributeNames: map[string]bool{
			"message":    true,
			"startindex": true,
			"endindex":   true,
		},
	}).Finalize())
}

func TestBuildWrapsNonDocumentRoot(t *testing.T) {
	root := &Element{ComponentType: "gtext", Props: map[string]any{}}
	g := Build(root)
	require.Nil(t, g.FatalError)
	rootNode := g.Nodes[g.Root]
	assert.Equal(t, "document", rootNode.TypeName)
	require.Len(t, rootNode.Children, 1)
}

func TestBuildAssignsFallbackNames(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{}}),
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{}}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	doc := g.Nodes[g.Root]
	require.Len(t, doc.Children, 2)
	assert.Equal(t, "/_gtext1", doc.Children[0].Name)
	assert.Equal(t, "/_gtext2", doc.Children[1].Name)
}

func TestBuildRejectsDuplicateName(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "dup"}}),
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "dup"}}),
		},
	}
	g := Build(root)
	require.NotNil(t, g.FatalError)
	assert.Equal(t, "DuplicateName", string(g.FatalError.Kind))
}

func TestBuildRejectsInvalidName(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "1bad"}}),
		},
	}
	g := Build(root)
	require.NotNil(t, g.FatalError)
	assert.Equal(t, "InvalidComponentName", string(g.FatalError.Kind))
}

func TestBuildRejectsUnknownComponentType(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "nosuchtype", Props: map[string]any{}}),
		},
	}
	g := Build(root)
	require.NotNil(t, g.FatalError)
	assert.Equal(t, "InvalidComponentType", string(g.FatalError.Kind))
}

func TestBuildCapturesErrorUnderDisplayErrorsAncestor(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{
				ComponentType: "gcontainer",
				Children: []Child{
					ElementChild(&Element{ComponentType: "nosuchtype", Props: map[string]any{}}),
				},
			}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	require.Len(t, g.CapturedErrors, 1)
	container := g.Nodes[g.Nodes[g.Root].Children[0].Name]
	require.Len(t, container.Children, 1)
	errNode := g.Nodes[container.Children[0].Name]
	assert.Equal(t, "_error", errNode.TypeName)
}

func TestBuildClassifiesDynamicAttribute(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{
				ComponentType: "gtext",
				Props:         map[string]any{"name": "t1", "hide": true},
			}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	values, ok := g.Attrs.Get("t1", "hide")
	require.True(t, ok)
	require.Len(t, values, 1)
	assert.Equal(t, AttrIsString, values[0].Kind)
}

func TestBuildRejectsUnrecognizedAttribute(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{
				ComponentType: "gtext",
				Props:         map[string]any{"name": "t1", "bogus": "x"},
			}),
		},
	}
	g := Build(root)
	require.NotNil(t, g.FatalError)
	assert.Equal(t, "AttributeDoesNotExist", string(g.FatalError.Kind))
}

func TestBuildResolvesCopySourceComponent(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "a"}}),
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "b", "copySource": "a"}}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	b := g.Nodes["b"]
	require.NotNil(t, b.ExtendSource)
	assert.Equal(t, ExtendComponent, b.ExtendSource.Kind)
	assert.Equal(t, "a", b.ExtendSource.Component)
	assert.Equal(t, "a", ExtendSourceRoot(g.Nodes, "b"))
}

func TestBuildResolvesCopyPropAsStateVarExtend(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "a"}}),
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "b", "copySource": "a", "copyProp": "value"}}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	b := g.Nodes["b"]
	require.NotNil(t, b.ExtendSource)
	assert.Equal(t, ExtendStateVar, b.ExtendSource.Kind)
	assert.Equal(t, "value", b.ExtendSource.StateVar)
}

func TestBuildWarnsOnMissingCopySource(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "b", "copySource": "nope"}}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	require.Len(t, g.Warnings, 1)
	assert.Equal(t, "ComponentDoesNotExist", string(g.Warnings[0].Kind))
	assert.Nil(t, g.Nodes["b"].ExtendSource)
}

func TestBuildRejectsCopySourceTypeMismatch(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "a"}}),
			ElementChild(&Element{ComponentType: "gcontainer", Props: map[string]any{"name": "b", "copySource": "a"}}),
		},
	}
	g := Build(root)
	require.NotNil(t, g.FatalError)
	assert.Equal(t, "ComponentCannotCopyOtherType", string(g.FatalError.Kind))
}

func TestBuildRejectsCyclicalCopySource(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "a", "copySource": "b"}}),
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "b", "copySource": "a"}}),
		},
	}
	g := Build(root)
	require.NotNil(t, g.FatalError)
	assert.Equal(t, "CyclicalDependency", string(g.FatalError.Kind))
}

func TestBuildWarnsOnInvalidChildProfile(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{
				ComponentType: "gcontainer",
				Children: []Child{
					ElementChild(&Element{ComponentType: "gcontainer", Props: map[string]any{"name": "inner"}}),
				},
			}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	require.Len(t, g.Warnings, 1)
	assert.Equal(t, "InvalidChildType", string(g.Warnings[0].Kind))
}

func TestBuildRejectsDanglingAttributeComponentReference(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{
				ComponentType: "gtext",
				Props: map[string]any{
					"name": "t1",
					"hide": []any{map[string]any{"component": "ghost"}},
				},
			}),
		},
	}
	g := Build(root)
	require.NotNil(t, g.FatalError)
	assert.Equal(t, "ComponentDoesNotExist", string(g.FatalError.Kind))
}

func TestEffectiveChildrenInheritsFromExtendSource(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{
				ComponentType: "gcontainer",
				Props:         map[string]any{"name": "a"},
				Children:      []Child{StringChild("hi")},
			}),
			ElementChild(&Element{ComponentType: "gcontainer", Props: map[string]any{"name": "b", "copySource": "a"}}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	eff := EffectiveChildren(g.Nodes, "b")
	require.Len(t, eff, 1)
	assert.True(t, eff[0].IsString)
	assert.Equal(t, "hi", eff[0].Text)
}

func TestExtendChainOrder(t *testing.T) {
	root := &Element{
		ComponentType: "document",
		Children: []Child{
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "a"}}),
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "b", "copySource": "a"}}),
			ElementChild(&Element{ComponentType: "gtext", Props: map[string]any{"name": "c", "copySource": "b"}}),
		},
	}
	g := Build(root)
	require.Nil(t, g.FatalError)
	assert.Equal(t, []string{"c", "b", "a"}, ExtendChain(g.Nodes, "c"))
}
