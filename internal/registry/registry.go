// Package registry is the process-wide, read-only-after-init Component
// Registry: a static catalog keyed by component-type name that
// supplies each type's state-variable schema, default profiles, allowed
// attributes/children, and action handlers.
//
// The catalog is a lazily-populated map guarded only by the fact that
// writers run during package init, before any engine reads it: immutable
// in practice once the process is up.
package registry

import (
	"strings"

	"github.com/dqnykamp/doenetgraph/internal/value"
)

// Profile is a capability tag a component type may claim, used by
// Child dependency instructions to match children by what they can supply
// rather than by concrete type.
type Profile int

const (
	ProfileText Profile = iota
	ProfileNumber
	ProfileBoolean
	ProfileMath
)

func (p Profile) String() string {
	switch p {
	case ProfileText:
		return "Text"
	case ProfileNumber:
		return "Number"
	case ProfileBoolean:
		return "Boolean"
	case ProfileMath:
		return "Math"
	default:
		return "Profile(?)"
	}
}

// DependencyInstructionKind selects one of the five declarative recipes a
// state variable can use to obtain its inputs.
type DependencyInstructionKind int

const (
	InstrChild DependencyInstructionKind = iota
	InstrStateVar
	InstrParent
	InstrAttribute
	InstrEssential
)

// DependencyInstruction is the constant, declarative recipe a state
// variable's schema uses; the Dependency Resolver (internal/engine) turns
// one of these into concrete edges for a specific component instance.
type DependencyInstruction struct {
	Kind DependencyInstructionKind

	// Child
	DesiredProfiles         []Profile
	ExcludeIfPreferProfiles []Profile
	ParseIntoExpression     bool

	// StateVar ("" Component means self)
	Component    string
	StateVarName string

	// Parent
	ParentStateVarName string

	// Attribute
	AttrName     string
	DefaultValue value.Value

	// Essential
	PrefillAttr string
}

// DepValue is one matched dependency's value as seen by a calculator: the
// current value plus whether that value is still the type's default
// (needed by calculators like text's and number's bindValueTo and point's
// xs, which change behavior based on whether a bound value was ever
// supplied).
type DepValue struct {
	Value       value.Value
	UsedDefault bool
}

// CalcResult is a calculator's verdict: either a fresh value to store
// (SetValue), or NoChange to leave the current value untouched.
type CalcResult struct {
	Changed bool
	Value   value.Value
}

// SetValue constructs a CalcResult that stores v.
func SetValue(v value.Value) CalcResult { return CalcResult{Changed: true, Value: v} }

// NoChange constructs a CalcResult that leaves the state variable's
// current value untouched.
func NoChange() CalcResult { return CalcResult{Changed: false} }

// UpdateRequest is one entry of the ordered list an inverse calculator
// returns: which (instruction, dependency) pair should receive a desired
// value.
type UpdateRequest struct {
	InstructionIdx int
	DependencyIdx  int
	Desired        value.Value
}

// CalculateFunc computes a state variable's fresh value from its resolved
// dependency values, outer-indexed by dependency instruction and
// inner-indexed by matched dependency.
type CalculateFunc func(deps [][]DepValue) CalcResult

// InverseFunc computes which dependencies should receive which desired
// values to satisfy a requested value on this state variable. A nil
// InverseFunc means the state variable cannot be targeted by an action;
// one that cannot satisfy a particular request returns an empty list.
type InverseFunc func(desired value.Value, deps [][]DepValue) []UpdateRequest

// StateVarDef is one state variable's complete schema, as listed (in
// order) in a ComponentType's StateVars.
type StateVarDef struct {
	Name                  string
	Kind                  value.Kind
	ForRenderer           bool
	DefaultComponentType  string
	InitialEssentialValue value.Value
	Instructions          []DependencyInstruction
	Calculate             CalculateFunc
	RequestInverse        InverseFunc
}

// ProfileBinding records that a component type fulfils Profile by exposing
// the named state variable as that profile's value, in the type's
// preference order.
type ProfileBinding struct {
	Profile  Profile
	StateVar string
}

// ActionRequest is one (state-variable, desired-value) pair an action
// handler returns.
type ActionRequest struct {
	StateVar string
	Desired  value.Value
}

// StateVarReader lets an action handler read a sibling state variable's
// current (freshened) value by name, needed by actions like textInput's
// updateValue that commit whatever immediateValue currently holds.
type StateVarReader func(name string) value.Value

// ActionHandler dispatches a named action with its JSON-derived args into
// a list of desired-value requests. read resolves another state variable
// of the same component to its current value, freshening it first.
type ActionHandler func(args map[string]value.Value, read StateVarReader) []ActionRequest

// RendererAlias lets a component type declare it renders as a different
// type name with a renamed subset of state variables.
type RendererAlias struct {
	RenderAsType string
	Rename       map[string]string // this type's sv name -> renderer-facing name
}

// ComponentType is the per-type definition the Graph Builder and engine
// consult for everything about a component kind.
type ComponentType struct {
	Name string

	StateVars   []StateVarDef
	indexByName map[string]int

	AttributeNames       map[string]bool
	StaticAttributeNames map[string]bool

	// PrimaryInput is the index of the state variable targeted when this
	// component is used as an attribute value, or -1 if none.
	PrimaryInput int

	Profiles           []ProfileBinding
	ValidChildProfiles []Profile // empty means no restriction

	DisplayErrors        bool
	ShouldRenderChildren bool

	Actions map[string]ActionHandler

	RendererAlias *RendererAlias
}

// Finalize builds the case-insensitive name index. Must be called once
// after StateVars is populated and before the type is registered.
func (t *ComponentType) Finalize() *ComponentType {
	t.indexByName = make(map[string]int, len(t.StateVars))
	for i, sv := range t.StateVars {
		t.indexByName[strings.ToLower(sv.Name)] = i
	}
	if t.Actions == nil {
		t.Actions = map[string]ActionHandler{}
	}
	if t.AttributeNames == nil {
		t.AttributeNames = map[string]bool{}
	}
	if t.StaticAttributeNames == nil {
		t.StaticAttributeNames = map[string]bool{}
	}
	return t
}

// StateVarIndex looks up a state variable by name, case-insensitively.
func (t *ComponentType) StateVarIndex(name string) (int, bool) {
	i, ok := t.indexByName[strings.ToLower(name)]
	return i, ok
}

// HasAttribute reports whether name is a declared dynamic attribute,
// case-insensitively.
func (t *ComponentType) HasAttribute(name string) bool {
	return t.AttributeNames[strings.ToLower(name)]
}

// HasStaticAttribute reports whether name is a declared static attribute,
// case-insensitively.
func (t *ComponentType) HasStaticAttribute(name string) bool {
	return t.StaticAttributeNames[strings.ToLower(name)]
}

// FulfillsProfile reports whether this type fulfils p and, if so, which
// state variable index supplies it.
func (t *ComponentType) FulfillsProfile(p Profile) (int, bool) {
	for _, pb := range t.Profiles {
		if pb.Profile == p {
			idx, ok := t.StateVarIndex(pb.StateVar)
			if ok {
				return idx, true
			}
		}
	}
	return -1, false
}

// registry is the process-wide catalog, keyed by lowercased type name.
var registry = map[string]*ComponentType{}

// Register adds a type definition to the process-wide catalog. Intended
// to be called from builtin package init() functions only.
func Register(t *ComponentType) {
	registry[strings.ToLower(t.Name)] = t
}

// Lookup finds a registered type by name, case-insensitively.
func Lookup(name string) (*ComponentType, bool) {
	t, ok := registry[strings.ToLower(name)]
	return t, ok
}

// All returns every registered type, for devtools introspection.
func All() map[string]*ComponentType {
	return registry
}
