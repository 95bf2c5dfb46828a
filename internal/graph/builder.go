package graph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/ferrors"
	"github.com/dqnykamp/doenetgraph/internal/registry"
)

var nameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Graph is the Graph Builder's output: a keyed table of
// ComponentNode, the classified attribute table, the root's name, and the
// accumulated warnings/captured errors.
type Graph struct {
	Nodes  map[string]*ComponentNode
	Attrs  Attributes
	Root   string

	Warnings       []ferrors.Warning
	CapturedErrors []*ferrors.CreationError
	FatalError     *ferrors.CreationError
}

type builder struct {
	g             *Graph
	typeCounters  map[string]int
	pendingExtend map[string]extendRequest // component name -> raw copy request
}

type extendRequest struct {
	source    string
	prop      string
	hasProp   bool
	rangeInfo ferrors.SourceRange
}

// Build constructs the runtime component graph from a parsed ComponentTree.
// If root is not itself a `document`, it is wrapped in a synthetic one.
func Build(root *Element) *Graph {
	if !strings.EqualFold(root.ComponentType, "document") {
		root = &Element{
			ComponentType: "document",
			Props:         map[string]any{},
			Children:      []Child{ElementChild(root)},
		}
	}

	b := &builder{
		g: &Graph{
			Nodes: make(map[string]*ComponentNode),
			Attrs: make(Attributes),
		},
		typeCounters:  make(map[string]int),
		pendingExtend: make(map[string]extendRequest),
	}

	rootName, ok := b.buildElement(root, "", "")
	if !ok {
		return b.g // FatalError already set
	}
	b.g.Root = rootName

	if b.g.FatalError != nil {
		return b.g
	}

	b.resolveExtends()
	if b.g.FatalError != nil {
		return b.g
	}
	b.checkCycles()
	if b.g.FatalError != nil {
		return b.g
	}
	b.checkChildProfiles()
	b.checkAttributeReferences()

	return b.g
}

// buildElement builds one element (and its subtree) into the node table.
// displayErrorsAncestor is the name of the nearest enclosing component
// whose type has DisplayErrors set, or "" if none. Returns the name that
// was allocated to represent this element in its parent's child list
// (which may be a synthetic _error component if construction failed and
// was captured), and false only when the failure was truly fatal (no
// ancestor could capture it).
func (b *builder) buildElement(el *Element, parent string, displayErrorsAncestor string) (string, bool) {
	typ, ok := registry.Lookup(el.ComponentType)
	if !ok {
		return b.fail(ferrors.New(ferrors.InvalidComponentType, "",
			fmt.Sprintf("unknown component type %q", el.ComponentType)), el.Range, parent, displayErrorsAncestor)
	}

	name, err := b.allocateName(el, typ.Name)
	if err != nil {
		return b.fail(err, el.Range, parent, displayErrorsAncestor)
	}

	node := &ComponentNode{
		Name:             name,
		TypeName:         typ.Name,
		Type:             typ,
		Parent:           parent,
		StaticAttributes: map[string]string{},
		Range:            el.Range,
	}
	b.g.Nodes[name] = node

	selfDisplayErrors := displayErrorsAncestor
	if typ.DisplayErrors {
		selfDisplayErrors = name
	}

	// Classify props: builder metadata vs. literal attributes.
	attrOK := true
	for key, raw := range el.Props {
		switch strings.ToLower(key) {
		case "name":
			// already consumed by allocateName
		case "copysource":
			req := b.pendingExtend[name]
			req.source, _ = raw.(string)
			b.pendingExtend[name] = req
		case "copyprop":
			req := b.pendingExtend[name]
			req.prop, _ = raw.(string)
			req.hasProp = true
			b.pendingExtend[name] = req
		case "copycollection", "propindex", "componentindex":
			// Collection-indexed copy is out of this engine's scope
			// (it belongs to the `collect` component type's own
			// replacement-component machinery); ignored here.
		default:
			if !b.classifyAttribute(node, typ, key, raw) {
				attrOK = false
			}
		}
	}
	if !attrOK && typ.DisplayErrors {
		// Unknown-attribute failure on a display-errors type becomes a
		// substitute _error child of this same component, rather than
		// replacing the component itself.
		msg := fmt.Sprintf("component %q received an unrecognized attribute", name)
		errName := b.newErrorNode(msg, el.Range, name)
		node.Children = append(node.Children, ChildRef{Name: errName})
	} else if !attrOK {
		return b.fail(ferrors.New(ferrors.AttributeDoesNotExist, name,
			"unrecognized attribute"), el.Range, parent, displayErrorsAncestor)
	}

	// Children.
	for _, c := range el.Children {
		if c.Kind == ChildIsString {
			node.Children = append(node.Children, ChildRef{IsString: true, Text: c.Text})
			continue
		}
		childName, ok := b.buildElement(c.Element, name, selfDisplayErrors)
		if !ok {
			return "", false
		}
		node.Children = append(node.Children, ChildRef{Name: childName})
	}

	return name, true
}

// fail reports a construction error for the component at r. If an
// ancestor can capture it, a synthetic _error node is created and its name
// returned with ok=true (its parent is the failed component's parent);
// otherwise FatalError is set and ok=false.
func (b *builder) fail(err *ferrors.CreationError, r ferrors.SourceRange, parent, displayErrorsAncestor string) (string, bool) {
	err.Range = r
	if displayErrorsAncestor == "" {
		b.g.FatalError = err
		return "", false
	}
	b.g.CapturedErrors = append(b.g.CapturedErrors, err)
	errName := b.newErrorNode(err.Message, r, parent)
	return errName, true
}

// newErrorNode synthesizes an `_error` component node carrying message and
// the source range as attributes.
func (b *builder) newErrorNode(message string, r ferrors.SourceRange, parent string) string {
	typ, ok := registry.Lookup("_error")
	if !ok {
		panic("graph: _error component type not registered")
	}
	b.typeCounters["_error"]++
	name := fmt.Sprintf("/_error%d", b.typeCounters["_error"])
	node := &ComponentNode{
		Name:     name,
		TypeName: typ.Name,
		Type:     typ,
		Parent:   parent,
		StaticAttributes: map[string]string{
			"message":    message,
			"startindex": fmt.Sprint(r.Begin),
			"endindex":   fmt.Sprint(r.End),
		},
	}
	b.g.Nodes[name] = node
	return name
}

// allocateName validates an explicit name or assigns a "/_{type}{n}"
// fallback when none is given.
func (b *builder) allocateName(el *Element, typeName string) (string, *ferrors.CreationError) {
	if raw, ok := el.Props["name"]; ok {
		name, _ := raw.(string)
		if !nameRE.MatchString(name) {
			return "", ferrors.New(ferrors.InvalidComponentName, "",
				fmt.Sprintf("invalid component name %q", name))
		}
		if _, exists := b.g.Nodes[name]; exists {
			return "", ferrors.New(ferrors.DuplicateName, name,
				fmt.Sprintf("duplicate component name %q", name))
		}
		return name, nil
	}
	b.typeCounters[typeName]++
	return fmt.Sprintf("/_%s%d", typeName, b.typeCounters[typeName]), nil
}

// classifyAttribute sorts one literal prop value into the component's
// dynamic- or static-attribute table.
// Returns false if the attribute name is not declared by the type at all.
func (b *builder) classifyAttribute(node *ComponentNode, typ *registry.ComponentType, key string, raw any) bool {
	if typ.HasStaticAttribute(key) {
		node.StaticAttributes[strings.ToLower(key)] = toAttrString(raw)
		return true
	}
	if !typ.HasAttribute(key) {
		return false
	}
	values := toAttrValues(raw)
	lower := strings.ToLower(key)
	if b.g.Attrs[node.Name] == nil {
		b.g.Attrs[node.Name] = map[string][]AttrValue{}
	}
	b.g.Attrs[node.Name][lower] = values
	return true
}

func toAttrString(raw any) string {
	switch t := raw.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func toAttrValues(raw any) []AttrValue {
	switch t := raw.(type) {
	case []any:
		out := make([]AttrValue, 0, len(t))
		for _, item := range t {
			out = append(out, toAttrValue(item))
		}
		return out
	default:
		return []AttrValue{toAttrValue(raw)}
	}
}

func toAttrValue(item any) AttrValue {
	if m, ok := item.(map[string]any); ok {
		if comp, ok := m["component"].(string); ok {
			return AttrValue{Kind: AttrIsComponent, Component: comp}
		}
	}
	return AttrValue{Kind: AttrIsString, Text: toAttrString(item)}
}

// resolveExtends resolves each pending copySource/copyProp request into an
// ExtendSource.
func (b *builder) resolveExtends() {
	for name, req := range b.pendingExtend {
		if req.source == "" {
			continue
		}
		node := b.g.Nodes[name]
		target, ok := b.g.Nodes[req.source]
		if !ok {
			b.g.Warnings = append(b.g.Warnings, ferrors.NewWarning(ferrors.WarnComponentDoesNotExist,
				name, fmt.Sprintf("copySource %q does not exist", req.source)))
			continue
		}
		if !req.hasProp {
			if target.TypeName != node.TypeName {
				b.g.FatalError = ferrors.New(ferrors.ComponentCannotCopyOtherType, name,
					fmt.Sprintf("cannot copy component of type %q into type %q", target.TypeName, node.TypeName))
				return
			}
			node.ExtendSource = &ExtendSource{Kind: ExtendComponent, Component: req.source}
			continue
		}
		if node.Type.PrimaryInput < 0 {
			b.g.FatalError = ferrors.New(ferrors.ComponentCannotCopyOtherType, name,
				fmt.Sprintf("type %q declares no primary input to receive a state-variable copy", node.TypeName))
			return
		}
		if _, ok := target.Type.StateVarIndex(req.prop); !ok {
			b.g.Warnings = append(b.g.Warnings, ferrors.NewWarning(ferrors.WarnStateVarDoesNotExist,
				name, fmt.Sprintf("state variable %q does not exist on %q", req.prop, req.source)))
			continue
		}
		node.ExtendSource = &ExtendSource{Kind: ExtendStateVar, Component: req.source, StateVar: req.prop}
	}
}

// checkCycles rejects a non-terminating extend-source walk. Only
// ExtendComponent links can cycle back onto themselves; ExtendStateVar is
// always a terminal link in the chain.
func (b *builder) checkCycles() {
	for name := range b.g.Nodes {
		seen := map[string]bool{name: true}
		cur := name
		for {
			n := b.g.Nodes[cur]
			if n.ExtendSource == nil || n.ExtendSource.Kind != ExtendComponent {
				break
			}
			cur = n.ExtendSource.Component
			if seen[cur] {
				b.g.FatalError = ferrors.New(ferrors.CyclicalDependency, name,
					fmt.Sprintf("cyclical copySource chain starting at %q", name))
				return
			}
			seen[cur] = true
		}
	}
}

// checkChildProfiles validates, for every component whose type restricts
// child profiles, that each child fulfils at least one allowed profile.
// Failures are warnings, never fatal.
func (b *builder) checkChildProfiles() {
	for name, node := range b.g.Nodes {
		if len(node.Type.ValidChildProfiles) == 0 {
			continue
		}
		for _, child := range EffectiveChildren(b.g.Nodes, name) {
			if child.IsString {
				if !containsProfile(node.Type.ValidChildProfiles, registry.ProfileText) {
					b.g.Warnings = append(b.g.Warnings, ferrors.NewWarning(ferrors.WarnInvalidChildType,
						name, "string child not permitted by this component's child profiles"))
				}
				continue
			}
			childNode, ok := b.g.Nodes[child.Name]
			if !ok {
				continue
			}
			ok = false
			for _, p := range node.Type.ValidChildProfiles {
				if _, fulfils := childNode.Type.FulfillsProfile(p); fulfils {
					ok = true
					break
				}
			}
			if !ok {
				b.g.Warnings = append(b.g.Warnings, ferrors.NewWarning(ferrors.WarnInvalidChildType,
					name, fmt.Sprintf("child %q does not fulfil any required profile", child.Name)))
			}
		}
	}
}

func containsProfile(ps []registry.Profile, p registry.Profile) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

// checkAttributeReferences rejects (fatally) any component referenced
// from inside an attribute value that does not exist.
func (b *builder) checkAttributeReferences() {
	for name, attrs := range b.g.Attrs {
		for attrName, values := range attrs {
			for _, v := range values {
				if v.Kind != AttrIsComponent {
					continue
				}
				if _, ok := b.g.Nodes[v.Component]; !ok {
					b.g.FatalError = ferrors.New(ferrors.ComponentDoesNotExist, name,
						fmt.Sprintf("attribute %q references nonexistent component %q", attrName, v.Component))
					return
				}
			}
		}
	}
}
