package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDisplay(t *testing.T) {
	obj := NewPlainObject()
	obj.Set("a", NumberValue(1))
	obj.Set("b", NewString("x"))

	cases := []struct {
		name   string
		value  Value
		expect string
	}{
		{"Undefined", Undefined, "undefined"},
		{"Null", Null, "null"},
		{"True", True, "true"},
		{"False", False, "false"},
		{"Int", NumberValue(42), "42"},
		{"Float", NumberValue(1.5), "1.5"},
		{"NegZero", NumberValue(math.Copysign(0, -1)), "-0"},
		{"NaN", NaN, "NaN"},
		{"PosInf", NumberValue(math.Inf(1)), "Infinity"},
		{"NegInf", NumberValue(math.Inf(-1)), "-Infinity"},
		{"String", NewString("hello"), "hello"},
		{"EmptyArray", NewArray(), "[]"},
		{"Array", NewArray(NumberValue(1), NewString("two"), Null), "[1, two, null]"},
		{"NestedArray", NewArray(NewArray(NumberValue(1)), NumberValue(2)), "[[1], 2]"},
		{"Object", NewObject(obj), "{a: 1, b: x}"},
		{"NativeFunc", NewNativeFunction("parseInt", nil), "[Function: parseInt]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.value.ToDisplay())
		})
	}
}

func TestInspectQuotesStrings(t *testing.T) {
	assert.Equal(t, `"hi"`, NewString("hi").Inspect())
	assert.Equal(t, `[1, "two"]`, NewArray(NumberValue(1), NewString("two")).Inspect())

	obj := NewPlainObject()
	obj.Set("k", NewString("v"))
	assert.Equal(t, `{k: "v"}`, NewObject(obj).Inspect())
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		name   string
		value  Value
		expect float64
	}{
		{"Number", NumberValue(7), 7},
		{"True", True, 1},
		{"False", False, 0},
		{"Null", Null, 0},
		{"EmptyString", NewString(""), 0},
		{"PaddedNumeric", NewString("  42 "), 42},
		{"Decimal", NewString("3.5"), 3.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.value.ToFloat())
		})
	}

	assert.True(t, math.IsNaN(Undefined.ToFloat()))
	assert.True(t, math.IsNaN(NewString("abc").ToFloat()))
	assert.True(t, math.IsNaN(NewObject(NewPlainObject()).ToFloat()))
}

func TestToInt32(t *testing.T) {
	assert.Equal(t, int32(3), NumberValue(3.7).ToInt32())
	assert.Equal(t, int32(-3), NumberValue(-3.7).ToInt32())
	assert.Equal(t, int32(0), NaN.ToInt32())
	assert.Equal(t, int32(0), NumberValue(math.Inf(1)).ToInt32())
	assert.Equal(t, int32(5), NewString("5").ToInt32())
}

func TestTruthiness(t *testing.T) {
	falsey := []Value{Undefined, Null, False, NumberValue(0), NaN, NewString("")}
	for _, v := range falsey {
		assert.True(t, v.IsFalsey(), "expected %s to be falsey", v.ToDisplay())
	}
	truthy := []Value{True, NumberValue(1), NumberValue(-1), NewString("0"), NewArray(), NewObject(NewPlainObject())}
	for _, v := range truthy {
		assert.True(t, v.IsTruthy(), "expected %s to be truthy", v.ToDisplay())
	}
}

func TestStrictEquality(t *testing.T) {
	arr := NewArray(NumberValue(1))

	cases := []struct {
		name   string
		a, b   Value
		expect bool
	}{
		{"SameNumber", NumberValue(2), NumberValue(2), true},
		{"DiffNumber", NumberValue(2), NumberValue(3), false},
		{"NaNNotSelf", NaN, NaN, false},
		{"NumberVsString", NumberValue(1), NewString("1"), false},
		{"NullVsUndefined", Null, Undefined, false},
		{"SameString", NewString("a"), NewString("a"), true},
		{"ArrayIdentity", arr, arr, true},
		{"ArrayStructural", NewArray(NumberValue(1)), NewArray(NumberValue(1)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.a.StrictlyEquals(tc.b))
		})
	}
}

func TestLooseEquality(t *testing.T) {
	cases := []struct {
		name   string
		a, b   Value
		expect bool
	}{
		{"NullUndefined", Null, Undefined, true},
		{"NumberString", NumberValue(1), NewString("1"), true},
		{"StringNumber", NewString("2.5"), NumberValue(2.5), true},
		{"BoolNumber", True, NumberValue(1), true},
		{"BoolString", True, NewString("1"), true},
		{"FalseZero", False, NumberValue(0), true},
		{"NullZero", Null, NumberValue(0), false},
		{"NaNNever", NaN, NaN, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.a.Equals(tc.b))
		})
	}
}

func TestTypeName(t *testing.T) {
	cases := []struct {
		name   string
		value  Value
		expect string
	}{
		{"Undefined", Undefined, "undefined"},
		{"Null", Null, "object"},
		{"Bool", True, "boolean"},
		{"Number", NumberValue(1), "number"},
		{"String", NewString(""), "string"},
		{"Array", NewArray(), "object"},
		{"Object", NewObject(NewPlainObject()), "object"},
		{"Native", NewNativeFunction("f", nil), "function"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.value.TypeName())
		})
	}
}

func TestArrayObjectSetGrowsWithHoles(t *testing.T) {
	v := NewArray()
	a := v.AsArray()
	a.Set(2, NumberValue(9))

	assert.Equal(t, 3, a.Len())
	assert.True(t, a.Get(0).IsUndefined())
	assert.Equal(t, float64(9), a.Get(2).AsNumber())
	assert.True(t, a.Get(5).IsUndefined())
}

func TestPlainObjectKeyOrder(t *testing.T) {
	o := NewPlainObject()
	o.Set("b", NumberValue(1))
	o.Set("a", NumberValue(2))
	o.Set("b", NumberValue(3))
	assert.Equal(t, []string{"b", "a"}, o.Keys())

	o.Delete("b")
	assert.Equal(t, []string{"a"}, o.Keys())
	_, ok := o.Get("b")
	assert.False(t, ok)
}
