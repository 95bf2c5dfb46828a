// Package engine implements dependency resolution and the freshness
// lifecycle: a state variable starts Unresolved, becomes Stale once its
// dependency instructions are known but unevaluated or invalidated, and
// becomes Fresh once Calculate has produced a value from fresh
// dependencies. Evaluation runs on an explicit work stack rather than
// native recursion, so a deeply nested component tree cannot blow the
// call stack.
package engine

import (
	"fmt"

	"github.com/dqnykamp/doenetgraph/internal/diagnostics"
	"github.com/dqnykamp/doenetgraph/internal/graph"
	"github.com/dqnykamp/doenetgraph/internal/metrics"
	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/store"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// State is where a state variable sits in its freshness lifecycle.
type State int

const (
	Unresolved State = iota
	Stale
	Fresh
)

// Key addresses a single state variable: a component name plus its
// type's state-variable index.
type Key struct {
	Component string
	Index     int
}

func (k Key) String() string { return fmt.Sprintf("%s#%d", k.Component, k.Index) }

type instance struct {
	state       State
	value       value.Value
	usedDefault bool
	deps        [][]registry.DepValue
}

// Engine owns the freshness cache and the dependency edges discovered
// while resolving it, for one component graph and essential store.
type Engine struct {
	graph *graph.Graph
	store *store.Store

	instances map[Key]*instance

	dependents          map[Key][]Key       // sv -> svs that read it
	forward             map[Key][]Key       // sv -> svs (or essential cells, recorded separately) it reads
	essentialDependents map[store.Key][]Key // essential cell -> svs that read it
}

// New creates an engine bound to a built component graph and its
// essential-cell store.
func New(g *graph.Graph, st *store.Store) *Engine {
	return &Engine{
		graph:               g,
		store:               st,
		instances:           make(map[Key]*instance),
		dependents:          make(map[Key][]Key),
		forward:             make(map[Key][]Key),
		essentialDependents: make(map[store.Key][]Key),
	}
}

// EnsureFresh returns the current value of (component, index), resolving
// and evaluating it (and any stale dependencies) first if needed.
func (e *Engine) EnsureFresh(component string, index int) value.Value {
	k := Key{component, index}
	cacheHit := false
	if inst, ok := e.instances[k]; ok && inst.state == Fresh {
		cacheHit = true
	}
	e.run(k)
	if node := e.graph.Nodes[component]; node != nil {
		metrics.Freshen(node.Type.Name, node.Type.StateVars[index].Name, cacheHit)
	}
	return e.instances[k].value
}

// UsedDefault reports whether the last freshened value of a state
// variable came from a dependency that used its type default (reported by
// the introspection server).
func (e *Engine) UsedDefault(component string, index int) bool {
	e.run(Key{component, index})
	return e.instances[Key{component, index}].usedDefault
}

// Deps returns the dependency values last used to freshen a state
// variable, indexed the same way its schema's Instructions are, freshening
// it first if needed. The Inverse Propagator walks this to find which
// essential cell (or further state variable) a desired value must reach.
func (e *Engine) Deps(component string, index int) [][]registry.DepValue {
	e.run(Key{component, index})
	return e.instances[Key{component, index}].deps
}

// Invalidate marks a state variable Stale and transitively invalidates
// every state variable that read it.
func (e *Engine) Invalidate(k Key) {
	inst, ok := e.instances[k]
	if !ok || inst.state != Fresh {
		return
	}
	inst.state = Stale
	for _, dep := range e.dependents[k] {
		e.Invalidate(dep)
	}
}

// NotifyEssentialChanged invalidates every state variable that reads the
// given essential cell. Called after the store's value is overwritten,
// whether by an inverse propagation or a direct reload.
func (e *Engine) NotifyEssentialChanged(key store.Key) {
	for _, dep := range e.essentialDependents[key] {
		e.Invalidate(dep)
	}
}

// frame is one in-flight state-variable evaluation on the explicit work
// stack: partially resolved dependency-instruction values, and how far
// through the schema's instruction list resolution has progressed.
//
// shadowTarget is set instead of the normal instruction walk when this key
// is a primary input shadowing a single state variable copied from another
// component (an ExtendStateVar source): the frame just mirrors that
// target's value rather than running Instructions/Calculate at all.
type frame struct {
	key          Key
	node         *graph.ComponentNode
	def          *registry.StateVarDef
	deps         [][]registry.DepValue
	instrIdx     int
	shadowTarget *Key
}

// run drives (component, index) to Fresh, resolving transitive
// dependencies on an explicit stack instead of recursing.
func (e *Engine) run(root Key) {
	if inst, ok := e.instances[root]; ok && inst.state == Fresh {
		return
	}

	stack := []*frame{e.newFrame(root)}
	onStack := map[Key]bool{root: true}

	for len(stack) > 0 {
		f := stack[len(stack)-1]

		if f.shadowTarget != nil {
			tk := *f.shadowTarget
			e.recordEdge(f.key, tk)
			if tinst, ok := e.instances[tk]; ok && tinst.state == Fresh {
				inst := e.instances[f.key]
				inst.value = tinst.value
				inst.usedDefault = tinst.usedDefault
				inst.state = Fresh
				stack = stack[:len(stack)-1]
				delete(onStack, f.key)
				continue
			}
			if onStack[tk] {
				panic(fmt.Sprintf("engine: cyclical extend-source shadow reaching %s", tk))
			}
			stack = append(stack, e.newFrame(tk))
			onStack[tk] = true
			continue
		}

		if f.instrIdx >= len(f.def.Instructions) {
			var result registry.CalcResult
			diagnostics.Guard(f.key.Component, f.def.Name, func() {
				result = f.def.Calculate(f.deps)
				if result.Changed && result.Value.Kind() != f.def.Kind {
					panic(fmt.Sprintf("engine: type protector violation: %s returned %s, want %s", f.def.Name, result.Value.Kind(), f.def.Kind))
				}
			})
			inst := e.instances[f.key]
			if result.Changed {
				inst.value = result.Value
			} else if inst.state == Unresolved {
				inst.value = value.Default(f.def.Kind)
			}
			inst.usedDefault = f.usedDefaultAcrossDeps()
			inst.deps = f.deps
			inst.state = Fresh
			stack = stack[:len(stack)-1]
			delete(onStack, f.key)
			continue
		}

		instr := f.def.Instructions[f.instrIdx]
		depValues, waitKeys, ok := e.resolveInstruction(f.key, f.node, f.def, instr)
		if ok {
			f.deps = append(f.deps, depValues)
			for _, wk := range waitKeys {
				e.recordEdge(f.key, wk)
			}
			f.instrIdx++
			continue
		}

		pushed := false
		for _, wk := range waitKeys {
			e.recordEdge(f.key, wk)
			if inst, ok := e.instances[wk]; ok && inst.state == Fresh {
				continue
			}
			if onStack[wk] {
				panic(fmt.Sprintf("engine: cyclical state-variable dependency reaching %s", wk))
			}
			stack = append(stack, e.newFrame(wk))
			onStack[wk] = true
			pushed = true
		}
		if !pushed {
			// Every wait key turned out already fresh between the first
			// and second look (recordEdge may have created its
			// instance); retry resolution of this instruction now.
			continue
		}
	}
}

func (f *frame) usedDefaultAcrossDeps() bool {
	for _, group := range f.deps {
		for _, d := range group {
			if d.UsedDefault {
				return true
			}
		}
	}
	return false
}

func (e *Engine) newFrame(k Key) *frame {
	node := e.graph.Nodes[k.Component]
	def := &node.Type.StateVars[k.Index]
	inst, ok := e.instances[k]
	if !ok {
		inst = &instance{value: value.Default(def.Kind)}
		e.instances[k] = inst
	}
	inst.state = Stale
	f := &frame{key: k, node: node, def: def}
	if node.ExtendSource != nil && node.ExtendSource.Kind == graph.ExtendStateVar && k.Index == node.Type.PrimaryInput {
		if targetNode, ok := e.graph.Nodes[node.ExtendSource.Component]; ok {
			if idx, ok := targetNode.Type.StateVarIndex(node.ExtendSource.StateVar); ok {
				tk := Key{node.ExtendSource.Component, idx}
				f.shadowTarget = &tk
			}
		}
	}
	return f
}

func (e *Engine) recordEdge(from, to Key) {
	if e.instances[from] == nil {
		return
	}
	for _, existing := range e.dependents[to] {
		if existing == from {
			return
		}
	}
	e.dependents[to] = append(e.dependents[to], from)
	e.forward[from] = append(e.forward[from], to)
}

// Dependencies returns the state variables (component, index) reads from,
// as discovered the last time it was freshened. Used by the introspection
// server to render a dependency graph without re-running resolution.
func (e *Engine) Dependencies(component string, index int) []Key {
	return append([]Key(nil), e.forward[Key{component, index}]...)
}

// Dependents returns the state variables that read (component, index), the
// reverse of Dependencies.
func (e *Engine) Dependents(component string, index int) []Key {
	return append([]Key(nil), e.dependents[Key{component, index}]...)
}

// State reports the freshness state of (component, index) without
// freshening it.
func (e *Engine) State(component string, index int) State {
	inst, ok := e.instances[Key{component, index}]
	if !ok {
		return Unresolved
	}
	return inst.state
}

func (e *Engine) recordEssentialEdge(k Key, sk store.Key) {
	for _, existing := range e.essentialDependents[sk] {
		if existing == k {
			return
		}
	}
	e.essentialDependents[sk] = append(e.essentialDependents[sk], k)
}
