// Package inverse implements the Inverse Propagator: it takes a desired
// value for one state variable (as produced by dispatching an action) and
// walks it back through dependency instructions to the essential cells
// that can actually hold it, invalidating every reader along the way.
//
// The walk is iterative over an explicit worklist rather than recursive,
// mirroring how internal/engine evaluates forward dependencies on a stack
// instead of the native call stack.
package inverse

import (
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/diagnostics"
	"github.com/dqnykamp/doenetgraph/internal/engine"
	"github.com/dqnykamp/doenetgraph/internal/graph"
	"github.com/dqnykamp/doenetgraph/internal/metrics"
	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/store"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// Propagator drives desired-value requests back to essential cells for one
// component graph, engine and store triple.
type Propagator struct {
	graph  *graph.Graph
	engine *engine.Engine
	store  *store.Store
}

// New binds a propagator to the same graph, engine and store an Engine was
// constructed from.
func New(g *graph.Graph, e *engine.Engine, st *store.Store) *Propagator {
	return &Propagator{graph: g, engine: e, store: st}
}

// pending is one not-yet-resolved desired-value request on the worklist.
// path guards against a RequestInverse/extend-source loop feeding back
// into a key it already passed through for this same top-level request.
type pending struct {
	key     engine.Key
	desired value.Value
	path    map[engine.Key]bool
}

// Apply drives a desired value for (component, stateVar) back to whichever
// essential cells can hold it. It reports whether at least one essential
// cell was actually written; a false result means the request reached no
// writable destination (an uninvertible calculator or a dangling
// reference) and nothing changed. A cyclical forward dependency panics in
// the engine when Deps first resolves it.
func (p *Propagator) Apply(component, stateVar string, desired value.Value) bool {
	node, ok := p.graph.Nodes[component]
	if !ok {
		return false
	}
	idx, ok := node.Type.StateVarIndex(stateVar)
	if !ok {
		return false
	}

	stack := []pending{{key: engine.Key{Component: component, Index: idx}, desired: desired, path: map[engine.Key]bool{}}}
	wrote := false
	steps := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		steps++
		if p.step(cur, &stack) {
			wrote = true
		}
	}
	metrics.InverseDepth(steps)
	return wrote
}

// step resolves one pending request, pushing whatever further requests it
// decomposes into and reporting whether it wrote an essential cell itself.
func (p *Propagator) step(cur pending, stack *[]pending) bool {
	if cur.path[cur.key] {
		return false
	}
	path := make(map[engine.Key]bool, len(cur.path)+1)
	for k := range cur.path {
		path[k] = true
	}
	path[cur.key] = true

	node := p.graph.Nodes[cur.key.Component]
	if node == nil {
		return false
	}

	// A primary input that is itself a copied state variable is a shadow
	// of its source: redirect the whole request there instead of trying
	// to invert this component's own (nonexistent, for this case) schema.
	if node.ExtendSource != nil && node.ExtendSource.Kind == graph.ExtendStateVar && cur.key.Index == node.Type.PrimaryInput {
		targetNode, ok := p.graph.Nodes[node.ExtendSource.Component]
		if !ok {
			return false
		}
		tidx, ok := targetNode.Type.StateVarIndex(node.ExtendSource.StateVar)
		if !ok {
			return false
		}
		*stack = append(*stack, pending{key: engine.Key{Component: node.ExtendSource.Component, Index: tidx}, desired: cur.desired, path: path})
		return false
	}

	def := &node.Type.StateVars[cur.key.Index]
	if def.RequestInverse == nil {
		return false
	}

	deps := p.engine.Deps(cur.key.Component, cur.key.Index)
	var requests []registry.UpdateRequest
	diagnostics.Guard(cur.key.Component, def.Name, func() {
		requests = def.RequestInverse(cur.desired, deps)
	})
	wrote := false
	for _, ur := range requests {
		if ur.InstructionIdx < 0 || ur.InstructionIdx >= len(def.Instructions) {
			continue
		}
		if p.applyUpdateRequest(node, def.Instructions[ur.InstructionIdx], ur, cur.key.Index, path, stack) {
			wrote = true
		}
	}
	return wrote
}

// applyUpdateRequest carries out one (instruction, dependency) target of a
// RequestInverse result: either an immediate essential-cell write, or a
// further pending request pushed for later resolution.
func (p *Propagator) applyUpdateRequest(node *graph.ComponentNode, instr registry.DependencyInstruction, ur registry.UpdateRequest, svIndex int, path map[engine.Key]bool, stack *[]pending) bool {
	switch instr.Kind {
	case registry.InstrEssential:
		sk := store.Key{Component: node.Name, Origin: store.Origin{Kind: store.OriginStateVar, StateVar: svIndex}}
		p.writeEssential(sk, ur.Desired)
		return true

	case registry.InstrAttribute:
		return p.applyAttribute(node, instr, ur, path, stack)

	case registry.InstrStateVar:
		target := instr.Component
		if target == "" {
			target = node.Name
		}
		targetNode, ok := p.graph.Nodes[target]
		if !ok {
			return false
		}
		idx, ok := targetNode.Type.StateVarIndex(instr.StateVarName)
		if !ok {
			return false
		}
		*stack = append(*stack, pending{key: engine.Key{Component: target, Index: idx}, desired: ur.Desired, path: path})
		return false

	case registry.InstrParent:
		if node.Parent == "" {
			return false
		}
		parentNode, ok := p.graph.Nodes[node.Parent]
		if !ok {
			return false
		}
		idx, ok := parentNode.Type.StateVarIndex(instr.ParentStateVarName)
		if !ok {
			return false
		}
		*stack = append(*stack, pending{key: engine.Key{Component: node.Parent, Index: idx}, desired: ur.Desired, path: path})
		return false

	case registry.InstrChild:
		targets := matchedChildTargets(p.graph, node, instr)
		if ur.DependencyIdx < 0 || ur.DependencyIdx >= len(targets) {
			return false
		}
		t := targets[ur.DependencyIdx]
		if t.essential {
			p.writeEssential(t.sk, ur.Desired)
			return true
		}
		if t.key.Component == "" {
			return false
		}
		*stack = append(*stack, pending{key: t.key, desired: ur.Desired, path: path})
		return false

	default:
		return false
	}
}

// applyAttribute resolves an InstrAttribute target: a literal attribute
// value is an essential cell write, a component-valued attribute forwards
// the request to that component's primary input. A static attribute
// (fixed at build time) cannot be inverted.
func (p *Propagator) applyAttribute(node *graph.ComponentNode, instr registry.DependencyInstruction, ur registry.UpdateRequest, path map[engine.Key]bool, stack *[]pending) bool {
	name := instr.AttrName
	if _, isStatic := node.StaticAttributes[strings.ToLower(name)]; isStatic {
		return false
	}
	vals, ok := p.graph.Attrs.Get(node.Name, strings.ToLower(name))
	if !ok || ur.DependencyIdx < 0 || ur.DependencyIdx >= len(vals) {
		return false
	}
	v := vals[ur.DependencyIdx]
	switch v.Kind {
	case graph.AttrIsString:
		sk := store.Key{Component: node.Name, Origin: store.Origin{Kind: store.OriginAttribute, Name: strings.ToLower(name), Index: ur.DependencyIdx}}
		p.writeEssential(sk, ur.Desired)
		return true
	case graph.AttrIsComponent:
		targetNode, ok := p.graph.Nodes[v.Component]
		if !ok || targetNode.Type.PrimaryInput < 0 {
			return false
		}
		*stack = append(*stack, pending{key: engine.Key{Component: v.Component, Index: targetNode.Type.PrimaryInput}, desired: ur.Desired, path: path})
		return false
	default:
		return false
	}
}

func (p *Propagator) writeEssential(sk store.Key, v value.Value) {
	p.store.Set(sk, v)
	p.engine.NotifyEssentialChanged(sk)
}

// childTarget is one entry of an InstrChild instruction's matched
// dependency list, mirroring the order internal/engine's resolver builds
// it in: either a string child's backing essential cell, or a component
// child's profile-matched state variable.
type childTarget struct {
	essential bool
	sk        store.Key
	key       engine.Key
}

func matchedChildTargets(g *graph.Graph, node *graph.ComponentNode, instr registry.DependencyInstruction) []childTarget {
	children := graph.EffectiveChildren(g.Nodes, node.Name)
	var out []childTarget

	// parse_into_expression's dependency list, mirroring
	// internal/engine's resolveChildExpression, leads with the cached
	// expression (not independently invertible) followed by one target
	// per matched component child.
	if instr.ParseIntoExpression {
		out = append(out, childTarget{})
		for _, c := range children {
			if c.IsString {
				continue
			}
			childNode, exists := g.Nodes[c.Name]
			if !exists {
				continue
			}
			idx, matched := matchProfile(childNode.Type, instr.DesiredProfiles, instr.ExcludeIfPreferProfiles)
			if !matched {
				continue
			}
			out = append(out, childTarget{key: engine.Key{Component: c.Name, Index: idx}})
		}
		return out
	}

	for i, c := range children {
		if c.IsString {
			if containsProfile(instr.DesiredProfiles, registry.ProfileText) {
				out = append(out, childTarget{essential: true, sk: store.Key{
					Component: node.Name,
					Origin:    store.Origin{Kind: store.OriginStringChild, Index: i},
				}})
			}
			continue
		}
		childNode, exists := g.Nodes[c.Name]
		if !exists {
			continue
		}
		idx, matched := matchProfile(childNode.Type, instr.DesiredProfiles, instr.ExcludeIfPreferProfiles)
		if !matched {
			continue
		}
		out = append(out, childTarget{key: engine.Key{Component: c.Name, Index: idx}})
	}
	return out
}

func matchProfile(t *registry.ComponentType, desired, excludeIfPreferred []registry.Profile) (int, bool) {
	for _, pb := range t.Profiles {
		if containsProfile(desired, pb.Profile) {
			if idx, ok := t.FulfillsProfile(pb.Profile); ok {
				return idx, true
			}
		}
		if containsProfile(excludeIfPreferred, pb.Profile) {
			return 0, false
		}
	}
	return 0, false
}

func containsProfile(ps []registry.Profile, p registry.Profile) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

