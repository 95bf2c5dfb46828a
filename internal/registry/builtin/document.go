// Package builtin registers the catalog of concrete component types this
// engine ships: document, text, number, math, boolean, the three input
// types, _error, and the structural/collection types. Each file's init
// registers one type, except containers.go, which registers p, section
// and graph.
package builtin

import "github.com/dqnykamp/doenetgraph/internal/registry"

func init() {
	registry.Register((&registry.ComponentType{
		Name:                 "document",
		PrimaryInput:         -1,
		ShouldRenderChildren: true,
		DisplayErrors:        true,
	}).Finalize())
}
