// Package graph implements the Graph Builder: turning a
// ComponentTree (the parser collaborator's output) plus an attribute map
// into the runtime ComponentNode table.
package graph

import "github.com/dqnykamp/doenetgraph/internal/ferrors"

// Element is one node of the ComponentTree the parser collaborator
// supplies: `{componentType, props, children, range}`.
type Element struct {
	ComponentType string
	Props         map[string]any
	Children      []Child
	Range         ferrors.SourceRange
}

// ChildKind discriminates a tree child: a nested element, or a string
// literal.
type ChildKind int

const (
	ChildIsElement ChildKind = iota
	ChildIsString
)

// Child is one entry of an Element's Children list.
type Child struct {
	Kind    ChildKind
	Element *Element
	Text    string
}

// StringChild constructs a literal-text child.
func StringChild(s string) Child { return Child{Kind: ChildIsString, Text: s} }

// ElementChild constructs a nested-element child.
func ElementChild(e *Element) Child { return Child{Kind: ChildIsElement, Element: e} }
