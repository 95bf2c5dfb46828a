// Package ferrors defines the two disjoint error/warning streams the
// engine produces during graph construction and the source
// ranges both carry. Named ferrors (not errors) to avoid colliding with
// the standard library package under a local identifier at call sites.
package ferrors

import "fmt"

// RangeKind discriminates how a source range was produced.
type RangeKind int

const (
	// RangeNone means no source range is available.
	RangeNone RangeKind = iota
	// RangeOpenClose is an open/close tag pair, e.g. <text>...</text>.
	RangeOpenClose
	// RangeSelfClose is a self-closing tag, e.g. <point .../>.
	RangeSelfClose
	// RangeFromMacro means the range was synthesized by macro expansion.
	RangeFromMacro
)

// SourceRange locates the markup span an error or warning refers to.
type SourceRange struct {
	Kind  RangeKind
	Begin int
	End   int
}

// Kind identifies a fatal construction error.
type Kind string

// Fatal error kinds. Any of these aborts Create, except that an
// InvalidComponentType, InvalidComponentName, DuplicateName or
// AttributeDoesNotExist error is captured as an _error component instead
// when a display-errors ancestor exists.
const (
	InvalidComponentType         Kind = "InvalidComponentType"
	InvalidComponentName         Kind = "InvalidComponentName"
	DuplicateName                Kind = "DuplicateName"
	AttributeDoesNotExist        Kind = "AttributeDoesNotExist"
	ComponentCannotCopyOtherType Kind = "ComponentCannotCopyOtherType"
	CyclicalDependency           Kind = "CyclicalDependency"
	ComponentDoesNotExist        Kind = "ComponentDoesNotExist"
)

// WarningKind identifies a recoverable anomaly.
type WarningKind string

const (
	WarnComponentDoesNotExist         WarningKind = "ComponentDoesNotExist"
	WarnStateVarDoesNotExist          WarningKind = "StateVarDoesNotExist"
	WarnInvalidChildType              WarningKind = "InvalidChildType"
	WarnInvalidArrayIndex             WarningKind = "InvalidArrayIndex"
	WarnPropIndexIsNotPositiveInteger WarningKind = "PropIndexIsNotPositiveInteger"
)

// CreationError is a fatal error encountered while building the component
// graph. It carries enough context to render as an _error component when a
// display-errors ancestor captures it.
type CreationError struct {
	Kind      Kind
	Component string
	Message   string
	Range     SourceRange
}

func (e *CreationError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s: %s (component %q)", e.Kind, e.Message, e.Component)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Warning is a recoverable anomaly accumulated during construction; it
// never aborts Create.
type Warning struct {
	Kind      WarningKind
	Component string
	Message   string
	Range     SourceRange
}

func (w Warning) String() string {
	if w.Component != "" {
		return fmt.Sprintf("%s: %s (component %q)", w.Kind, w.Message, w.Component)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// New constructs a CreationError with no source range.
func New(kind Kind, component, message string) *CreationError {
	return &CreationError{Kind: kind, Component: component, Message: message}
}

// NewWithRange constructs a CreationError carrying a source range.
func NewWithRange(kind Kind, component, message string, r SourceRange) *CreationError {
	return &CreationError{Kind: kind, Component: component, Message: message, Range: r}
}

// NewWarning constructs a Warning with no source range.
func NewWarning(kind WarningKind, component, message string) Warning {
	return Warning{Kind: kind, Component: component, Message: message}
}
