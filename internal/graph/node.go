package graph

import (
	"github.com/dqnykamp/doenetgraph/internal/ferrors"
	"github.com/dqnykamp/doenetgraph/internal/registry"
)

// ExtendSourceKind discriminates the two forms of extend/copy source.
type ExtendSourceKind int

const (
	ExtendNone ExtendSourceKind = iota
	// ExtendComponent copies another component of the same type.
	ExtendComponent
	// ExtendStateVar copies a single state variable of another component,
	// targeting this type's primary input.
	ExtendStateVar
)

// ExtendSource is the resolved copy/extend relation of a ComponentNode.
type ExtendSource struct {
	Kind      ExtendSourceKind
	Component string
	StateVar  string // meaningful only for ExtendStateVar
}

// ChildRef is one entry of a ComponentNode's Children list: either a
// string literal or the name of another component.
type ChildRef struct {
	IsString bool
	Text     string
	Name     string
}

// ComponentNode is a single component instance in the static topology.
// Built once; immutable thereafter.
type ComponentNode struct {
	Name             string
	TypeName         string
	Type             *registry.ComponentType
	Parent           string // "" for the root
	Children         []ChildRef
	ExtendSource     *ExtendSource
	StaticAttributes map[string]string
	Range            ferrors.SourceRange
}

// ExtendSourceRoot walks the node's extend-source chain to its end,
// returning the name of the last component that has no further extend
// source of kind ExtendComponent. Used by the common-parent tie-break.
// Essential cells are not keyed by this root: each component's essential
// cells are keyed by its own name, so a component that extends another
// does not share the other's essential cells.
//
// The caller must have already rejected cycles; this walk does
// not re-check for one, to keep the common path allocation-free.
func ExtendSourceRoot(nodes map[string]*ComponentNode, name string) string {
	cur := name
	for {
		n, ok := nodes[cur]
		if !ok || n.ExtendSource == nil || n.ExtendSource.Kind != ExtendComponent {
			return cur
		}
		cur = n.ExtendSource.Component
	}
}

// ExtendChain returns [self, extend-ancestor-1, extend-ancestor-2, ...]
// following ExtendComponent links, used by the common-parent tie-break's
// "first component in the extend chain" rule.
func ExtendChain(nodes map[string]*ComponentNode, name string) []string {
	chain := []string{name}
	cur := name
	for {
		n, ok := nodes[cur]
		if !ok || n.ExtendSource == nil || n.ExtendSource.Kind != ExtendComponent {
			return chain
		}
		cur = n.ExtendSource.Component
		chain = append(chain, cur)
	}
}

// EffectiveChildren returns this node's children prepended with its
// extend-source's effective children: a component that extends another
// component inherits that source's children ahead of its own. Recursive,
// since the source may itself extend another component.
func EffectiveChildren(nodes map[string]*ComponentNode, name string) []ChildRef {
	n, ok := nodes[name]
	if !ok {
		return nil
	}
	if n.ExtendSource == nil || n.ExtendSource.Kind != ExtendComponent {
		return n.Children
	}
	inherited := EffectiveChildren(nodes, n.ExtendSource.Component)
	out := make([]ChildRef, 0, len(inherited)+len(n.Children))
	out = append(out, inherited...)
	out = append(out, n.Children...)
	return out
}
