// Package doenetgraph is the public facade over the reactive
// state-variable engine: Create builds a document from markup,
// UpdateRenderers walks it into a render payload, and HandleAction
// dispatches a UI action back through the Inverse Propagator.
package doenetgraph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dqnykamp/doenetgraph/internal/diagnostics"
	"github.com/dqnykamp/doenetgraph/internal/engine"
	"github.com/dqnykamp/doenetgraph/internal/ferrors"
	"github.com/dqnykamp/doenetgraph/internal/graph"
	"github.com/dqnykamp/doenetgraph/internal/inverse"
	"github.com/dqnykamp/doenetgraph/internal/metrics"
	"github.com/dqnykamp/doenetgraph/internal/parsejson"
	_ "github.com/dqnykamp/doenetgraph/internal/registry/builtin"
	"github.com/dqnykamp/doenetgraph/internal/render"
	"github.com/dqnykamp/doenetgraph/internal/store"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// SetMetrics installs the collector used to record freshen calls, cache
// hits, inverse-propagation depth, and construction warnings across every
// Handle. Passing nil restores the no-op default.
func SetMetrics(c metrics.Collector) {
	metrics.SetGlobal(c)
}

// SetDiagnostics installs the reporter used when a Calculate or
// RequestInverse call violates its state variable's fixed Kind. Passing
// nil restores the console default.
func SetDiagnostics(r diagnostics.Reporter) {
	diagnostics.SetReporter(r)
}

// Handle is one live document: its built component graph, freshness
// engine, essential store and inverse propagator, bound together. The
// zero value is not usable; obtain one from Create.
type Handle struct {
	graph      *graph.Graph
	engine     *engine.Engine
	store      *store.Store
	propagator *inverse.Propagator
}

// Create builds a document from markup JSON (a single element object, or
// a bare array of nodes). essentialDump, if non-empty, is a prior
// DumpEssentials result: essential cells are loaded from it instead of
// being initialized from their type defaults.
//
// A nil Handle means construction failed fatally; warnings and captured
// per-component errors are still returned alongside it either way.
func Create(markup, essentialDump []byte) (*Handle, []ferrors.Warning, []*ferrors.CreationError, error) {
	root, err := parsejson.Parse(markup)
	if err != nil {
		return nil, nil, nil, err
	}

	g := graph.Build(root)
	if g.FatalError != nil {
		log.Warn("graph construction failed",
			zap.String("kind", string(g.FatalError.Kind)),
			zap.String("component", g.FatalError.Component),
			zap.String("message", g.FatalError.Message))
		return nil, g.Warnings, g.CapturedErrors, g.FatalError
	}
	for _, w := range g.Warnings {
		log.Debug("graph construction warning",
			zap.String("kind", string(w.Kind)),
			zap.String("component", w.Component),
			zap.String("message", w.Message))
		metrics.Warning(string(w.Kind))
	}

	st := store.New()
	if len(essentialDump) > 0 {
		if err := loadEssentials(st, essentialDump); err != nil {
			return nil, g.Warnings, g.CapturedErrors, err
		}
	}

	e := engine.New(g, st)
	p := inverse.New(g, e, st)
	return &Handle{graph: g, engine: e, store: st, propagator: p}, g.Warnings, g.CapturedErrors, nil
}

// Graph returns the handle's built component graph, for callers (the
// devtools MCP server, the TUI inspector) that need to walk it directly
// rather than through the render or action surface.
func (h *Handle) Graph() *graph.Graph { return h.graph }

// Engine returns the handle's freshness engine, for the same kind of
// direct-introspection callers as Graph.
func (h *Handle) Engine() *engine.Engine { return h.engine }

// UpdateRenderers freshens every for-renderer state variable and returns
// the render payload as JSON. Idempotent in the absence of intervening
// actions: two consecutive calls with no HandleAction between them
// produce JSON-equal output, since freshening a Fresh state variable is a
// no-op.
func (h *Handle) UpdateRenderers() ([]byte, error) {
	return json.Marshal(render.Emit(h.graph, h.engine))
}

// wireAction mirrors the action input's JSON shape.
type wireAction struct {
	ComponentName string         `json:"componentName"`
	ActionName    string         `json:"actionName"`
	Args          map[string]any `json:"args"`
}

// HandleAction dispatches one action: decodes args, hands them to the
// target component type's action handler, and drives every resulting
// desired value back through the Inverse Propagator. It returns the
// action's result id — args.actionId if supplied, otherwise a generated
// one — regardless of whether the action resolved to anything.
func (h *Handle) HandleAction(actionJSON []byte) (string, error) {
	var wa wireAction
	if err := json.Unmarshal(actionJSON, &wa); err != nil {
		return "", fmt.Errorf("doenetgraph: decoding action: %w", err)
	}

	actionID, _ := wa.Args["actionId"].(string)
	if actionID == "" {
		actionID = uuid.New().String()
	}

	node, ok := h.graph.Nodes[wa.ComponentName]
	if !ok {
		log.Warn("action targets unknown component", zap.String("component", wa.ComponentName))
		return actionID, nil
	}
	handler, ok := node.Type.Actions[wa.ActionName]
	if !ok {
		log.Warn("action not declared by component type",
			zap.String("component", wa.ComponentName), zap.String("action", wa.ActionName))
		return actionID, nil
	}

	args := make(map[string]value.Value, len(wa.Args))
	for k, v := range wa.Args {
		if k == "actionId" {
			continue
		}
		args[k] = coerceActionArg(v)
	}

	component := wa.ComponentName
	read := func(svName string) value.Value {
		idx, ok := node.Type.StateVarIndex(svName)
		if !ok {
			return value.Default(value.KindString)
		}
		return h.engine.EnsureFresh(component, idx)
	}

	for _, req := range handler(args, read) {
		if !h.propagator.Apply(component, req.StateVar, req.Desired) {
			log.Debug("inverse request dropped",
				zap.String("component", component), zap.String("stateVar", req.StateVar))
		}
	}
	return actionID, nil
}

// coerceActionArg converts one action argument's loosely-typed JSON value
// into a Value. The action handler itself knows which kind each named arg
// should be and will coerce through value.CoerceFromWire as needed; here
// we only need a Kind to box it under before the handler inspects it, so
// booleans and strings pass through as their natural kind, numbers become
// a Number (JSON has one numeric type), and anything else (an array, an
// object, null) becomes an empty String.
func coerceActionArg(raw any) value.Value {
	switch v := raw.(type) {
	case bool:
		return value.Boolean(v)
	case string:
		return value.String(v)
	case float64:
		return value.Number(v)
	default:
		return value.Default(value.KindString)
	}
}

// wireCell is one essential cell's serialized form, round-tripping
// through DumpEssentials and Create's essentialDump parameter.
type wireCell struct {
	Kind        string `json:"kind"`
	Value       any    `json:"value"`
	UsedDefault bool   `json:"used_default"`
}

// DumpEssentials serializes every essential cell, keyed by owning
// component then origin, suitable for a later Create call's
// essentialDump parameter.
func (h *Handle) DumpEssentials() ([]byte, error) {
	out := make(map[string]map[string]wireCell)
	for k, cell := range h.store.All() {
		m, ok := out[k.Component]
		if !ok {
			m = map[string]wireCell{}
			out[k.Component] = m
		}
		m[k.Origin.String()] = wireCell{
			Kind:        cell.Value.Kind().String(),
			Value:       cell.Value.ToWire(),
			UsedDefault: cell.UsedDefault,
		}
	}
	return json.Marshal(out)
}

func loadEssentials(st *store.Store, dump []byte) error {
	var raw map[string]map[string]wireCell
	if err := json.Unmarshal(dump, &raw); err != nil {
		return fmt.Errorf("doenetgraph: decoding essential dump: %w", err)
	}
	for component, origins := range raw {
		for originStr, cell := range origins {
			origin, ok := store.ParseOrigin(originStr)
			if !ok {
				continue
			}
			kind, ok := value.KindFromString(cell.Kind)
			if !ok {
				continue
			}
			key := store.Key{Component: component, Origin: origin}
			st.Set(key, value.CoerceFromWire(cell.Value, kind))
			if cell.UsedDefault {
				if c, ok := st.Get(key); ok {
					c.UsedDefault = true
				}
			}
		}
	}
	return nil
}
