package builtin

import "github.com/dqnykamp/doenetgraph/internal/registry"

// p and section are plain block containers: they contribute no state
// variables of their own and simply render their children in document
// order.
func init() {
	registry.Register((&registry.ComponentType{
		Name:                 "p",
		PrimaryInput:         -1,
		ShouldRenderChildren: true,
	}).Finalize())

	registry.Register((&registry.ComponentType{
		Name:                 "section",
		PrimaryInput:         -1,
		ShouldRenderChildren: true,
	}).Finalize())

	registry.Register((&registry.ComponentType{
		Name:                 "graph",
		PrimaryInput:         -1,
		ShouldRenderChildren: true,
	}).Finalize())
}
