package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqnykamp/doenetgraph/internal/mathexpr"
)

func TestConstructorsRoundTripKind(t *testing.T) {
	assert.Equal(t, KindString, String("hi").Kind())
	assert.Equal(t, KindBoolean, Boolean(true).Kind())
	assert.Equal(t, KindInteger, Integer(3).Kind())
	assert.Equal(t, KindNumber, Number(1.5).Kind())
	assert.Equal(t, KindMathExpr, MathExpr(mathexpr.Empty()).Kind())
}

func TestAccessorsMatchPayload(t *testing.T) {
	assert.Equal(t, "hi", String("hi").AsString())
	assert.Equal(t, true, Boolean(true).AsBool())
	assert.Equal(t, int64(3), Integer(3).AsInt())
	assert.Equal(t, 1.5, Number(1.5).AsNumber())
}

func TestAccessorPanicsOnKindMismatch(t *testing.T) {
	assert.Panics(t, func() { String("hi").AsBool() })
	assert.Panics(t, func() { Boolean(true).AsInt() })
	assert.Panics(t, func() { Integer(3).AsNumber() })
}

func TestDefaultPerKind(t *testing.T) {
	assert.Equal(t, "", Default(KindString).AsString())
	assert.Equal(t, false, Default(KindBoolean).AsBool())
	assert.Equal(t, int64(0), Default(KindInteger).AsInt())
	assert.Equal(t, 0.0, Default(KindNumber).AsNumber())
	assert.True(t, Default(KindMathExpr).AsMathExpr().IsEmpty())
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindString, KindBoolean, KindInteger, KindNumber, KindMathExpr} {
		parsed, ok := KindFromString(k.String())
		require.True(t, ok)
		assert.Equal(t, k, parsed)
	}
	_, ok := KindFromString("NotAKind")
	assert.False(t, ok)
}

func TestCoerceFromWireString(t *testing.T) {
	assert.Equal(t, "hi", CoerceFromWire("hi", KindString).AsString())
	assert.Equal(t, "true", CoerceFromWire(true, KindString).AsString())
}

func TestCoerceFromWireBoolean(t *testing.T) {
	assert.Equal(t, true, CoerceFromWire(true, KindBoolean).AsBool())
	assert.Equal(t, true, CoerceFromWire("true", KindBoolean).AsBool())
	assert.Equal(t, false, CoerceFromWire("false", KindBoolean).AsBool())
	assert.Equal(t, false, CoerceFromWire("garbage", KindBoolean).AsBool())
	assert.Equal(t, false, CoerceFromWire(42.0, KindBoolean).AsBool())
}

func TestCoerceFromWireInteger(t *testing.T) {
	assert.Equal(t, int64(42), CoerceFromWire(42.0, KindInteger).AsInt())
	assert.Equal(t, int64(42), CoerceFromWire("42", KindInteger).AsInt())
	assert.Equal(t, int64(0), CoerceFromWire("not a number", KindInteger).AsInt())
}

func TestCoerceFromWireNumber(t *testing.T) {
	assert.Equal(t, 3.5, CoerceFromWire(3.5, KindNumber).AsNumber())
	assert.Equal(t, 3.5, CoerceFromWire("3.5", KindNumber).AsNumber())
}

func TestCoerceFromWireMathExpr(t *testing.T) {
	v := CoerceFromWire("1+2", KindMathExpr)
	assert.Equal(t, "1+2", v.AsMathExpr().Source())
	assert.True(t, CoerceFromWire(42.0, KindMathExpr).AsMathExpr().IsEmpty())
}

func TestToWire(t *testing.T) {
	assert.Equal(t, "hi", String("hi").ToWire())
	assert.Equal(t, true, Boolean(true).ToWire())
	assert.Equal(t, float64(3), Integer(3).ToWire())
	assert.Equal(t, 1.5, Number(1.5).ToWire())
	expr, err := mathexpr.Parse("x0+1", "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "x0+1", MathExpr(expr).ToWire())
}

func TestEqual(t *testing.T) {
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, String("a").Equal(String("b")))
	assert.False(t, String("a").Equal(Boolean(false)))
	assert.True(t, Integer(1).Equal(Integer(1)))
	assert.True(t, Number(1.0).Equal(Number(1.0)))
}
