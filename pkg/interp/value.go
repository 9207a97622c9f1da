package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unsafe"

	"github.com/dop251/goja/ast"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull

	TypeBoolean
	TypeNumber
	TypeString

	TypeArray
	TypeObject

	TypeFunction
	TypeNativeFunction

	TypePromise
)

type stringObject struct {
	value string
}

// ArrayObject is a mutable ordered sequence of values.
type ArrayObject struct {
	elements []Value
}

// Elements exposes the backing slice for iteration.
func (a *ArrayObject) Elements() []Value { return a.elements }

// Len reports the array length.
func (a *ArrayObject) Len() int { return len(a.elements) }

// Get returns the element at i, or Undefined out of range.
func (a *ArrayObject) Get(i int) Value {
	if i < 0 || i >= len(a.elements) {
		return Undefined
	}
	return a.elements[i]
}

// Set stores v at i, growing with undefined holes as needed.
func (a *ArrayObject) Set(i int, v Value) {
	if i < 0 {
		return
	}
	for len(a.elements) <= i {
		a.elements = append(a.elements, Undefined)
	}
	a.elements[i] = v
}

// Append pushes v at the end.
func (a *ArrayObject) Append(v Value) {
	a.elements = append(a.elements, v)
}

// PlainObject is a string-keyed property map. Key insertion order is kept so
// stringification stays deterministic across runs.
type PlainObject struct {
	keys  []string
	props map[string]Value
}

// NewPlainObject returns an empty object.
func NewPlainObject() *PlainObject {
	return &PlainObject{props: make(map[string]Value)}
}

// Get returns the property value and whether it exists.
func (o *PlainObject) Get(name string) (Value, bool) {
	v, ok := o.props[name]
	return v, ok
}

// Set writes a property, recording first-insertion order.
func (o *PlainObject) Set(name string, v Value) {
	if _, ok := o.props[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.props[name] = v
}

// Delete removes a property.
func (o *PlainObject) Delete(name string) {
	if _, ok := o.props[name]; !ok {
		return
	}
	delete(o.props, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns property names in insertion order.
func (o *PlainObject) Keys() []string { return o.keys }

// FunctionObject is a user-defined function: immutable after creation.
type FunctionObject struct {
	name    string
	params  []string
	body    *ast.BlockStatement // nil for expression-bodied arrows
	expr    ast.Expression      // expression body of an arrow, if any
	scope   *Scope              // captured lexical scope
	isAsync bool
	isArrow bool
	line    int
}

// Name returns the function's name ("" when anonymous).
func (f *FunctionObject) Name() string { return f.name }

// Line returns the function's source line.
func (f *FunctionObject) Line() int { return f.line }

// NativeFn is the callable behind a NativeFunction value. It receives the
// engine, the bound this value, and the already-evaluated arguments.
type NativeFn func(ip *Interp, this Value, args []Value) (Value, error)

// NativeFunctionObject is a host-provided function. Statics like
// Promise.resolve hang off props.
type NativeFunctionObject struct {
	name  string
	fn    NativeFn
	props *PlainObject
}

// Name returns the native function's name.
func (f *NativeFunctionObject) Name() string { return f.name }

// SetProp attaches a static property to the function.
func (f *NativeFunctionObject) SetProp(name string, v Value) {
	if f.props == nil {
		f.props = NewPlainObject()
	}
	f.props.Set(name, v)
}

// Prop looks up a static property.
func (f *NativeFunctionObject) Prop(name string) (Value, bool) {
	if f.props == nil {
		return Undefined, false
	}
	return f.props.Get(name)
}

// Value is the runtime value: a tagged union. Number and boolean payloads
// live inline; everything else is a heap object behind obj.
type Value struct {
	typ     ValueType
	payload uint64
	obj     unsafe.Pointer
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
	NaN       = Value{typ: TypeNumber, payload: math.Float64bits(math.NaN())}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeNumber, payload: math.Float64bits(value)}
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	return Value{typ: TypeString, obj: unsafe.Pointer(&stringObject{value: value})}
}

// NewArray builds an array value around the given elements.
func NewArray(elements ...Value) Value {
	return Value{typ: TypeArray, obj: unsafe.Pointer(&ArrayObject{elements: elements})}
}

// NewObject wraps a PlainObject as a value.
func NewObject(obj *PlainObject) Value {
	return Value{typ: TypeObject, obj: unsafe.Pointer(obj)}
}

// NewNativeFunction builds a host function value.
func NewNativeFunction(name string, fn NativeFn) Value {
	return Value{typ: TypeNativeFunction, obj: unsafe.Pointer(&NativeFunctionObject{name: name, fn: fn})}
}

func newFunctionValue(fn *FunctionObject) Value {
	return Value{typ: TypeFunction, obj: unsafe.Pointer(fn)}
}

func newPromiseValue(p *PromiseObject) Value {
	return Value{typ: TypePromise, obj: unsafe.Pointer(p)}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool    { return v.typ == TypeNumber }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsArray() bool     { return v.typ == TypeArray }
func (v Value) IsObject() bool    { return v.typ == TypeObject }
func (v Value) IsPromise() bool   { return v.typ == TypePromise }

func (v Value) IsFunction() bool       { return v.typ == TypeFunction }
func (v Value) IsNativeFunction() bool { return v.typ == TypeNativeFunction }

func (v Value) IsCallable() bool {
	return v.typ == TypeFunction || v.typ == TypeNativeFunction
}

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.payload == 1
}

func (v Value) AsNumber() float64 {
	if v.typ != TypeNumber {
		panic("value is not a number")
	}
	return math.Float64frombits(v.payload)
}

func (v Value) AsString() string {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return (*stringObject)(v.obj).value
}

func (v Value) AsArray() *ArrayObject {
	if v.typ != TypeArray {
		panic("value is not an array")
	}
	return (*ArrayObject)(v.obj)
}

func (v Value) AsObject() *PlainObject {
	if v.typ != TypeObject {
		panic("value is not an object")
	}
	return (*PlainObject)(v.obj)
}

func (v Value) AsFunction() *FunctionObject {
	if v.typ != TypeFunction {
		panic("value is not a function")
	}
	return (*FunctionObject)(v.obj)
}

func (v Value) AsNativeFunction() *NativeFunctionObject {
	if v.typ != TypeNativeFunction {
		panic("value is not a native function")
	}
	return (*NativeFunctionObject)(v.obj)
}

func (v Value) AsPromise() *PromiseObject {
	if v.typ != TypePromise {
		panic("value is not a promise")
	}
	return (*PromiseObject)(v.obj)
}

// TypeName returns the typeof tag. Any function reports "function".
func (v Value) TypeName() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "object"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeFunction, TypeNativeFunction:
		return "function"
	case TypeArray, TypeObject, TypePromise:
		return "object"
	default:
		return fmt.Sprintf("<unknown type: %d>", v.typ)
	}
}

// formatNumber renders a float the way JS display does: integers without a
// decimal point, NaN/Infinity spelled out.
func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToDisplay is the stringifier used by console output and string
// concatenation. Arrays and objects recurse with the same stringifier.
func (v Value) ToDisplay() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case TypeNumber:
		return formatNumber(v.AsNumber())
	case TypeString:
		return v.AsString()
	case TypeFunction:
		fn := v.AsFunction()
		if fn.name != "" {
			return fmt.Sprintf("[Function: %s]", fn.name)
		}
		return "[Function (anonymous)]"
	case TypeNativeFunction:
		fn := v.AsNativeFunction()
		if fn.name != "" {
			return fmt.Sprintf("[Function: %s]", fn.name)
		}
		return "[Function (anonymous)]"
	case TypePromise:
		return fmt.Sprintf("Promise {<%s>}", v.AsPromise().State().String())
	case TypeArray:
		arr := v.AsArray()
		parts := make([]string, len(arr.elements))
		for i, el := range arr.elements {
			parts[i] = el.ToDisplay()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeObject:
		obj := v.AsObject()
		parts := make([]string, 0, len(obj.keys))
		for _, k := range obj.keys {
			parts = append(parts, k+": "+obj.props[k].ToDisplay())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("<unknown %d>", v.typ)
	}
}

// Inspect is the REPL-style representation: strings inside containers are
// quoted, top-level strings too.
func (v Value) Inspect() string {
	switch v.typ {
	case TypeString:
		return fmt.Sprintf("%q", v.AsString())
	case TypeArray:
		arr := v.AsArray()
		parts := make([]string, len(arr.elements))
		for i, el := range arr.elements {
			parts[i] = el.Inspect()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeObject:
		obj := v.AsObject()
		parts := make([]string, 0, len(obj.keys))
		for _, k := range obj.keys {
			parts = append(parts, k+": "+obj.props[k].Inspect())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.ToDisplay()
	}
}

// ToFloat performs JS numeric coercion: "" -> 0, invalid string -> NaN,
// booleans -> 0/1, null -> 0, undefined -> NaN, objects -> NaN.
func (v Value) ToFloat() float64 {
	switch v.typ {
	case TypeNumber:
		return v.AsNumber()
	case TypeBoolean:
		if v.AsBoolean() {
			return 1
		}
		return 0
	case TypeNull:
		return 0
	case TypeString:
		str := strings.TrimSpace(v.AsString())
		if str == "" {
			return 0
		}
		f, err := strconv.ParseFloat(str, 64)
		if err == nil {
			return f
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// ToInt32 coerces for bitwise operators.
func (v Value) ToInt32() int32 {
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}

// IsFalsey follows ECMAScript truthiness: null, undefined, false, +-0, NaN
// and "" are falsey.
func (v Value) IsFalsey() bool {
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return !v.AsBoolean()
	case TypeNumber:
		f := v.AsNumber()
		return f == 0 || math.IsNaN(f)
	case TypeString:
		return v.AsString() == ""
	default:
		return false
	}
}

// IsTruthy is the opposite of IsFalsey.
func (v Value) IsTruthy() bool { return !v.IsFalsey() }

// StrictlyEquals implements `===`: no coercion, NaN !== NaN, objects by
// reference.
func (v Value) StrictlyEquals(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return v.AsBoolean() == other.AsBoolean()
	case TypeNumber:
		vf, of := v.AsNumber(), other.AsNumber()
		if math.IsNaN(vf) || math.IsNaN(of) {
			return false
		}
		return vf == of
	case TypeString:
		return v.AsString() == other.AsString()
	default:
		return v.obj == other.obj
	}
}

// Equals implements `==` loose equality for the supported subset.
func (v Value) Equals(other Value) bool {
	for {
		if v.typ == other.typ {
			return v.StrictlyEquals(other)
		}
		if (v.typ == TypeNull && other.typ == TypeUndefined) ||
			(v.typ == TypeUndefined && other.typ == TypeNull) {
			return true
		}
		if v.typ == TypeNumber && other.typ == TypeString {
			return v.AsNumber() == other.ToFloat()
		}
		if v.typ == TypeString && other.typ == TypeNumber {
			return v.ToFloat() == other.AsNumber()
		}
		// Booleans coerce to numbers and the comparison restarts.
		if v.typ == TypeBoolean {
			v = NumberValue(v.ToFloat())
			continue
		}
		if other.typ == TypeBoolean {
			other = NumberValue(other.ToFloat())
			continue
		}
		return false
	}
}
