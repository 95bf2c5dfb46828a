// Package value implements the tagged union of the five primitive state
// variable types: String, Boolean, Integer, Number, and MathExpr.
//
// A Value's Kind is fixed at construction and never changes for the
// lifetime of the state variable that holds it (the "type protector").
// Every mutation path in this module either preserves Kind or panics — a
// Kind mismatch is a programming error in the component registry, not a
// recoverable condition.
package value

import (
	"fmt"
	"strconv"

	"github.com/dqnykamp/doenetgraph/internal/mathexpr"
)

// Kind identifies which of the five primitive variants a Value holds.
type Kind int

const (
	// KindString holds a Go string.
	KindString Kind = iota
	// KindBoolean holds a Go bool.
	KindBoolean
	// KindInteger holds a 64-bit integer.
	KindInteger
	// KindNumber holds a float64.
	KindNumber
	// KindMathExpr holds a parsed math expression tree.
	KindMathExpr
)

// String renders the kind's name, used in panic messages and devtools output.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindNumber:
		return "Number"
	case KindMathExpr:
		return "MathExpr"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindFromString reverses Kind.String(), used when reloading a serialized
// essential-cell dump that must reconstruct each cell's exact variant.
func KindFromString(s string) (Kind, bool) {
	switch s {
	case "String":
		return KindString, true
	case "Boolean":
		return KindBoolean, true
	case "Integer":
		return KindInteger, true
	case "Number":
		return KindNumber, true
	case "MathExpr":
		return KindMathExpr, true
	default:
		return 0, false
	}
}

// Value is the immutable-variant, mutable-payload tagged union every state
// variable holds. Values are small and are passed by value through the
// engine; only the Kind is ever compared for protection checks.
type Value struct {
	kind Kind
	str  string
	b    bool
	i    int64
	n    float64
	expr *mathexpr.Expression
}

// Kind returns the variant this value holds.
func (v Value) Kind() Kind { return v.kind }

// String constructs a String-kind value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Boolean constructs a Boolean-kind value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Integer constructs an Integer-kind value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Number constructs a Number-kind value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// MathExpr constructs a MathExpr-kind value.
func MathExpr(e *mathexpr.Expression) Value { return Value{kind: KindMathExpr, expr: e} }

// Default returns the zero value for a kind: "", false, 0, 0.0, or an empty
// expression. Used whenever a computation or attribute coercion fails
// softly and falls back to the state variable's type default.
func Default(k Kind) Value {
	switch k {
	case KindString:
		return String("")
	case KindBoolean:
		return Boolean(false)
	case KindInteger:
		return Integer(0)
	case KindNumber:
		return Number(0)
	case KindMathExpr:
		return MathExpr(mathexpr.Empty())
	default:
		panic(fmt.Sprintf("value: unknown kind %d", int(k)))
	}
}

// AsString returns the string payload. Panics if Kind() != KindString —
// callers must only invoke accessors matching the protected kind.
func (v Value) AsString() string {
	v.mustBe(KindString)
	return v.str
}

// AsBool returns the boolean payload.
func (v Value) AsBool() bool {
	v.mustBe(KindBoolean)
	return v.b
}

// AsInt returns the integer payload.
func (v Value) AsInt() int64 {
	v.mustBe(KindInteger)
	return v.i
}

// AsNumber returns the float64 payload.
func (v Value) AsNumber() float64 {
	v.mustBe(KindNumber)
	return v.n
}

// AsMathExpr returns the expression payload.
func (v Value) AsMathExpr() *mathexpr.Expression {
	v.mustBe(KindMathExpr)
	return v.expr
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("value: type protector violation: expected %s, got %s", k, v.kind))
	}
}

// CoerceFromWire converts a loosely-typed value arriving from the JSON
// boundary (action args, attribute literals, reload dumps) into the target
// Kind. Coercion never fails loudly: on mismatch it returns the kind's
// Default.
func CoerceFromWire(raw any, target Kind) Value {
	switch target {
	case KindString:
		switch t := raw.(type) {
		case string:
			return String(t)
		case float64:
			return String(strconv.FormatFloat(t, 'g', -1, 64))
		case bool:
			return String(strconv.FormatBool(t))
		default:
			return Default(KindString)
		}
	case KindBoolean:
		switch t := raw.(type) {
		case bool:
			return Boolean(t)
		case string:
			// Only the literal lowercase forms coerce; anything else falls
			// back to the type default rather than guessing.
			if t == "true" {
				return Boolean(true)
			}
			if t == "false" {
				return Boolean(false)
			}
			return Default(KindBoolean)
		default:
			return Default(KindBoolean)
		}
	case KindInteger:
		switch t := raw.(type) {
		case float64:
			return Integer(int64(t))
		case string:
			n, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return Default(KindInteger)
			}
			return Integer(n)
		default:
			return Default(KindInteger)
		}
	case KindNumber:
		switch t := raw.(type) {
		case float64:
			return Number(t)
		case string:
			n, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return Default(KindNumber)
			}
			return Number(n)
		default:
			return Default(KindNumber)
		}
	case KindMathExpr:
		if s, ok := raw.(string); ok {
			expr, err := mathexpr.Parse(s, "", 0)
			if err != nil {
				return Default(KindMathExpr)
			}
			return MathExpr(expr)
		}
		return Default(KindMathExpr)
	default:
		panic(fmt.Sprintf("value: unknown target kind %d", int(target)))
	}
}

// ToWire converts a Value to the representation the JSON render payload
// uses: bool stays bool, Integer/Number become float64 (JSON has one
// numeric type), String and MathExpr (rendered as their source text)
// become string.
func (v Value) ToWire() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBoolean:
		return v.b
	case KindInteger:
		return float64(v.i)
	case KindNumber:
		return v.n
	case KindMathExpr:
		if v.expr == nil {
			return ""
		}
		return v.expr.Source()
	default:
		panic(fmt.Sprintf("value: unknown kind %d", int(v.kind)))
	}
}

// Equal reports whether two values of the same kind hold the same payload.
// Values of different kinds are never equal (type protection means this
// should not normally be asked).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindBoolean:
		return v.b == other.b
	case KindInteger:
		return v.i == other.i
	case KindNumber:
		return v.n == other.n
	case KindMathExpr:
		return v.expr.Source() == other.expr.Source()
	default:
		return false
	}
}
