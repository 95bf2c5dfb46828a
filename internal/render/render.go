// Package render implements the Render Tree Emitter: a document-order walk
// of the component graph that freshens every for-renderer state variable
// and emits the JSON-shaped payload an external UI consumes.
package render

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dqnykamp/doenetgraph/internal/engine"
	"github.com/dqnykamp/doenetgraph/internal/graph"
	"github.com/dqnykamp/doenetgraph/internal/registry"
)

// ChildInstruction is one entry of a rendered component's children list:
// either a literal string or a reference to a rendered child component.
// Exactly one field is populated; MarshalJSON flattens it to the wire's
// "string | object" union.
type ChildInstruction struct {
	Text      string
	Component *ComponentRef
}

// ComponentRef describes a child component for the renderer to mount.
type ComponentRef struct {
	Actions       []string `json:"actions"`
	ComponentName string   `json:"componentName"`
	ComponentType string   `json:"componentType"`
	EffectiveName string   `json:"effectiveName"`
	RendererType  string   `json:"rendererType"`
}

// MarshalJSON emits a bare JSON string for a text child, or the component
// descriptor object for a component child.
func (c ChildInstruction) MarshalJSON() ([]byte, error) {
	if c.Component == nil {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Component)
}

// RenderedComponent is one entry of the render payload.
type RenderedComponent struct {
	ComponentName        string             `json:"componentName"`
	StateValues          map[string]any     `json:"stateValues"`
	ChildrenInstructions []ChildInstruction `json:"childrenInstructions"`
}

// Emit walks g from its root, freshening every for-renderer state variable
// through e, and returns one entry per rendered component in document
// order.
func Emit(g *graph.Graph, e *engine.Engine) []RenderedComponent {
	var out []RenderedComponent
	emitNode(g, e, g.Root, &out)
	return out
}

func emitNode(g *graph.Graph, e *engine.Engine, name string, out *[]RenderedComponent) {
	node, ok := g.Nodes[name]
	if !ok {
		return
	}
	t := node.Type

	values := make(map[string]any, len(t.StateVars))
	for i, sv := range t.StateVars {
		if !sv.ForRenderer {
			continue
		}
		key := sv.Name
		if t.RendererAlias != nil {
			if renamed, ok := t.RendererAlias.Rename[sv.Name]; ok {
				key = renamed
			}
		}
		values[key] = e.EnsureFresh(name, i).ToWire()
	}

	var children []ChildInstruction
	var toRecurse []string
	if t.ShouldRenderChildren {
		refs := graph.EffectiveChildren(g.Nodes, name)
		ownCount := len(node.Children)
		inheritedCount := len(refs) - ownCount
		for i, c := range refs {
			if c.IsString {
				children = append(children, ChildInstruction{Text: c.Text})
				continue
			}
			childNode, ok := g.Nodes[c.Name]
			if !ok {
				continue
			}
			effectiveName := c.Name
			if i < inheritedCount {
				effectiveName = fmt.Sprintf("__cp:%s(%s)", c.Name, name)
			}
			rendererType := childNode.TypeName
			if childNode.Type.RendererAlias != nil {
				rendererType = childNode.Type.RendererAlias.RenderAsType
			}
			children = append(children, ChildInstruction{Component: &ComponentRef{
				Actions:       actionNames(childNode.Type),
				ComponentName: c.Name,
				ComponentType: childNode.TypeName,
				EffectiveName: effectiveName,
				RendererType:  rendererType,
			}})
			toRecurse = append(toRecurse, c.Name)
		}
	}

	*out = append(*out, RenderedComponent{
		ComponentName:        name,
		StateValues:          values,
		ChildrenInstructions: children,
	})

	for _, childName := range toRecurse {
		emitNode(g, e, childName, out)
	}
}

func actionNames(t *registry.ComponentType) []string {
	names := make([]string, 0, len(t.Actions))
	for name := range t.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
