package engine

import (
	"fmt"
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/graph"
	"github.com/dqnykamp/doenetgraph/internal/mathexpr"
	"github.com/dqnykamp/doenetgraph/internal/registry"
	"github.com/dqnykamp/doenetgraph/internal/store"
	"github.com/dqnykamp/doenetgraph/internal/value"
)

// resolveInstruction attempts to turn one declarative DependencyInstruction
// into its matched DepValue list. ok is false when some dependency this
// instruction needs is not yet Fresh; waitKeys then lists what to
// freshen before retrying (also used, when ok is true, to record the
// dependency edges that were actually read).
func (e *Engine) resolveInstruction(owner Key, node *graph.ComponentNode, def *registry.StateVarDef, instr registry.DependencyInstruction) (values []registry.DepValue, waitKeys []Key, ok bool) {
	switch instr.Kind {
	case registry.InstrEssential:
		return e.resolveEssential(owner, node, def, instr)
	case registry.InstrStateVar:
		return e.resolveStateVar(node, instr)
	case registry.InstrParent:
		return e.resolveParent(node, instr)
	case registry.InstrAttribute:
		return e.resolveAttribute(owner, node, instr)
	case registry.InstrChild:
		return e.resolveChild(owner, node, instr)
	default:
		return nil, nil, true
	}
}

func (e *Engine) resolveEssential(owner Key, node *graph.ComponentNode, def *registry.StateVarDef, instr registry.DependencyInstruction) ([]registry.DepValue, []Key, bool) {
	sk := store.Key{Component: node.Name, Origin: store.Origin{Kind: store.OriginStateVar, StateVar: indexOf(node, def)}}
	e.recordEssentialEdge(owner, sk)
	cell := e.store.GetOrCreate(sk, func() store.Cell {
		init := def.InitialEssentialValue
		if init.Kind() != def.Kind {
			init = value.Default(def.Kind)
		}
		if instr.PrefillAttr != "" {
			if raw, ok := node.StaticAttributes[strings.ToLower(instr.PrefillAttr)]; ok {
				return store.Cell{Value: value.CoerceFromWire(raw, def.Kind)}
			}
			if vals, ok := e.graph.Attrs.Get(node.Name, strings.ToLower(instr.PrefillAttr)); ok && len(vals) > 0 && vals[0].Kind == graph.AttrIsString {
				return store.Cell{Value: value.CoerceFromWire(vals[0].Text, def.Kind)}
			}
		}
		return store.Cell{Value: init, UsedDefault: true}
	})
	return []registry.DepValue{{Value: cell.Value, UsedDefault: cell.UsedDefault}}, nil, true
}

func (e *Engine) resolveStateVar(node *graph.ComponentNode, instr registry.DependencyInstruction) ([]registry.DepValue, []Key, bool) {
	target := instr.Component
	if target == "" {
		target = node.Name
	}
	targetNode, exists := e.graph.Nodes[target]
	if !exists {
		return []registry.DepValue{{Value: value.Default(value.KindString), UsedDefault: true}}, nil, true
	}
	idx, ok := targetNode.Type.StateVarIndex(instr.StateVarName)
	if !ok {
		return []registry.DepValue{{Value: value.Default(value.KindString), UsedDefault: true}}, nil, true
	}
	k := Key{target, idx}
	if inst := e.instances[k]; inst != nil && inst.state == Fresh {
		return []registry.DepValue{{Value: inst.value, UsedDefault: inst.usedDefault}}, []Key{k}, true
	}
	return nil, []Key{k}, false
}

func (e *Engine) resolveParent(node *graph.ComponentNode, instr registry.DependencyInstruction) ([]registry.DepValue, []Key, bool) {
	if node.Parent == "" {
		return []registry.DepValue{{Value: value.Default(value.KindString), UsedDefault: true}}, nil, true
	}
	parentNode := e.graph.Nodes[node.Parent]
	idx, ok := parentNode.Type.StateVarIndex(instr.ParentStateVarName)
	if !ok {
		return []registry.DepValue{{Value: value.Default(value.KindString), UsedDefault: true}}, nil, true
	}
	k := Key{node.Parent, idx}
	if inst := e.instances[k]; inst != nil && inst.state == Fresh {
		return []registry.DepValue{{Value: inst.value, UsedDefault: inst.usedDefault}}, []Key{k}, true
	}
	return nil, []Key{k}, false
}

func (e *Engine) resolveAttribute(owner Key, node *graph.ComponentNode, instr registry.DependencyInstruction) ([]registry.DepValue, []Key, bool) {
	targetKind := instr.DefaultValue.Kind()
	name := strings.ToLower(instr.AttrName)

	if raw, ok := node.StaticAttributes[name]; ok {
		return []registry.DepValue{{Value: value.CoerceFromWire(raw, targetKind), UsedDefault: false}}, nil, true
	}

	vals, ok := e.graph.Attrs.Get(node.Name, name)
	if !ok || len(vals) == 0 {
		return []registry.DepValue{{Value: instr.DefaultValue, UsedDefault: true}}, nil, true
	}

	out := make([]registry.DepValue, 0, len(vals))
	var usedKeys, blockedKeys []Key
	for i, v := range vals {
		switch v.Kind {
		case graph.AttrIsString:
			sk := store.Key{Component: node.Name, Origin: store.Origin{Kind: store.OriginAttribute, Name: name, Index: i}}
			e.recordEssentialEdge(owner, sk)
			cell := e.store.GetOrCreate(sk, func() store.Cell {
				return store.Cell{Value: value.CoerceFromWire(v.Text, targetKind)}
			})
			out = append(out, registry.DepValue{Value: cell.Value})
		case graph.AttrIsComponent:
			targetNode := e.graph.Nodes[v.Component]
			idx := targetNode.Type.PrimaryInput
			if idx < 0 {
				out = append(out, registry.DepValue{Value: value.Default(targetKind), UsedDefault: true})
				continue
			}
			k := Key{v.Component, idx}
			usedKeys = append(usedKeys, k)
			if inst := e.instances[k]; inst != nil && inst.state == Fresh {
				// A component reference is a supplied attribute value,
				// whatever defaults that component used internally.
				out = append(out, registry.DepValue{Value: inst.value})
			} else {
				blockedKeys = append(blockedKeys, k)
			}
		}
	}
	if len(blockedKeys) > 0 {
		return nil, blockedKeys, false
	}
	return out, usedKeys, true
}

func (e *Engine) resolveChild(owner Key, node *graph.ComponentNode, instr registry.DependencyInstruction) ([]registry.DepValue, []Key, bool) {
	if instr.ParseIntoExpression {
		return e.resolveChildExpression(owner, node, instr)
	}

	children := graph.EffectiveChildren(e.graph.Nodes, node.Name)
	out := make([]registry.DepValue, 0, len(children))
	var usedKeys, blockedKeys []Key

	for i, c := range children {
		if c.IsString {
			sk := store.Key{Component: node.Name, Origin: store.Origin{Kind: store.OriginStringChild, Index: i}}
			e.recordEssentialEdge(owner, sk)
			cell := e.store.GetOrCreate(sk, func() store.Cell {
				return store.Cell{Value: value.String(c.Text)}
			})
			if containsProfile(instr.DesiredProfiles, registry.ProfileText) {
				out = append(out, registry.DepValue{Value: cell.Value})
			}
			continue
		}
		childNode, exists := e.graph.Nodes[c.Name]
		if !exists {
			continue
		}
		idx, matched := matchProfile(childNode.Type, instr.DesiredProfiles, instr.ExcludeIfPreferProfiles)
		if !matched {
			continue
		}
		k := Key{c.Name, idx}
		usedKeys = append(usedKeys, k)
		if inst := e.instances[k]; inst != nil && inst.state == Fresh {
			out = append(out, registry.DepValue{Value: inst.value, UsedDefault: inst.usedDefault})
		} else {
			blockedKeys = append(blockedKeys, k)
		}
	}
	if len(blockedKeys) > 0 {
		return nil, blockedKeys, false
	}
	return out, usedKeys, true
}

// resolveChildExpression implements the Child instruction's
// parse_into_expression mode: a single MathExpression is assembled from
// the matched children's source text (string children contribute their
// literal text, matched component children contribute a bound variable
// placeholder in their place), cached in an essential cell at the
// common-parent component, and returned alongside one DepValue per
// matched component child so a calculator can bind the expression's
// external variables to their current values.
func (e *Engine) resolveChildExpression(owner Key, node *graph.ComponentNode, instr registry.DependencyInstruction) ([]registry.DepValue, []Key, bool) {
	children := graph.EffectiveChildren(e.graph.Nodes, node.Name)

	var source strings.Builder
	var varKeys []Key
	var candidateParents []string

	for _, c := range children {
		if c.IsString {
			if containsProfile(instr.DesiredProfiles, registry.ProfileText) {
				source.WriteString(c.Text)
			}
			continue
		}
		childNode, exists := e.graph.Nodes[c.Name]
		if !exists {
			continue
		}
		idx, matched := matchProfile(childNode.Type, instr.DesiredProfiles, instr.ExcludeIfPreferProfiles)
		if !matched {
			continue
		}
		source.WriteString(fmt.Sprintf("v%d", len(varKeys)))
		varKeys = append(varKeys, Key{c.Name, idx})
		if childNode.Parent != "" {
			candidateParents = append(candidateParents, childNode.Parent)
		}
	}

	commonParent := commonParentOf(e.graph.Nodes, node.Name, candidateParents)

	ek := store.Key{Component: commonParent, Origin: store.Origin{Kind: store.OriginParsedExpression, Owner: owner.Component, StateVar: owner.Index}}
	e.recordEssentialEdge(owner, ek)
	cell := e.store.GetOrCreate(ek, func() store.Cell {
		expr, err := mathexpr.Parse(strings.TrimSpace(source.String()), "v", len(varKeys))
		if err != nil {
			return store.Cell{Value: value.MathExpr(mathexpr.Empty())}
		}
		return store.Cell{Value: value.MathExpr(expr)}
	})

	out := make([]registry.DepValue, 0, len(varKeys)+1)
	out = append(out, registry.DepValue{Value: cell.Value})

	var blockedKeys []Key
	for _, k := range varKeys {
		if inst := e.instances[k]; inst != nil && inst.state == Fresh {
			out = append(out, registry.DepValue{Value: inst.value, UsedDefault: inst.usedDefault})
		} else {
			blockedKeys = append(blockedKeys, k)
		}
	}
	if len(blockedKeys) > 0 {
		return nil, blockedKeys, false
	}
	return out, varKeys, true
}

// commonParentOf applies the common-parent tie-break: the recursive
// extend-source root when no children matched, the sole candidate parent
// when every matched child shares one, or else the first component in
// self's extend chain that is also a candidate parent.
func commonParentOf(nodes map[string]*graph.ComponentNode, self string, candidateParents []string) string {
	if len(candidateParents) == 0 {
		return graph.ExtendSourceRoot(nodes, self)
	}
	first := candidateParents[0]
	allSame := true
	for _, p := range candidateParents[1:] {
		if p != first {
			allSame = false
			break
		}
	}
	if allSame {
		return first
	}
	candidates := make(map[string]bool, len(candidateParents))
	for _, p := range candidateParents {
		candidates[p] = true
	}
	for _, c := range graph.ExtendChain(nodes, self) {
		if candidates[c] {
			return c
		}
	}
	return first
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

func indexOf(node *graph.ComponentNode, def *registry.StateVarDef) int {
	for i := range node.Type.StateVars {
		if &node.Type.StateVars[i] == def {
			return i
		}
	}
	return -1
}
