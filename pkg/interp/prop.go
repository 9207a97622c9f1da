package interp

import (
	"fmt"
	"strconv"
	"strings"
)

func argAt(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

// method wraps an intrinsic bound to its receiver. The receiver is captured
// at lookup time, so extracting a method and calling it later still works.
func method(name string, impl func(ip *Interp, args []Value) Value) Value {
	return NewNativeFunction(name, func(ip *Interp, _ Value, args []Value) (Value, error) {
		return impl(ip, args), nil
	})
}

func (ip *Interp) getMember(obj Value, name string, pos Position) Value {
	switch {
	case obj.IsUndefined(), obj.IsNull():
		throwErr(&TypeError{
			Position: pos,
			Msg:      fmt.Sprintf("Cannot read properties of %s (reading '%s')", obj.ToDisplay(), name),
		})
	case obj.IsObject():
		if v, ok := obj.AsObject().Get(name); ok {
			return v
		}
		if name == "hasOwnProperty" {
			o := obj.AsObject()
			return method("hasOwnProperty", func(_ *Interp, args []Value) Value {
				_, ok := o.Get(argAt(args, 0).ToDisplay())
				return BooleanValue(ok)
			})
		}
		return Undefined
	case obj.IsArray():
		return ip.arrayMember(obj, name)
	case obj.IsString():
		return ip.stringMember(obj, name)
	case obj.IsPromise():
		return promiseMember(obj.AsPromise(), name)
	case obj.IsNumber():
		return numberMember(obj, name)
	case obj.IsFunction():
		if name == "name" {
			return NewString(obj.AsFunction().Name())
		}
		return Undefined
	case obj.IsNativeFunction():
		nf := obj.AsNativeFunction()
		if v, ok := nf.Prop(name); ok {
			return v
		}
		if name == "name" {
			return NewString(nf.Name())
		}
		return Undefined
	}
	return Undefined
}

func (ip *Interp) getIndex(obj Value, key Value, pos Position) Value {
	if key.IsNumber() {
		idx := int(key.AsNumber())
		switch {
		case obj.IsArray():
			return obj.AsArray().Get(idx)
		case obj.IsString():
			s := obj.AsString()
			if idx < 0 || idx >= len(s) {
				return Undefined
			}
			return NewString(string(s[idx]))
		}
	}
	return ip.getMember(obj, key.ToDisplay(), pos)
}

func (ip *Interp) setMember(obj Value, name string, v Value, pos Position) {
	switch {
	case obj.IsUndefined(), obj.IsNull():
		throwErr(&TypeError{
			Position: pos,
			Msg:      fmt.Sprintf("Cannot set properties of %s (setting '%s')", obj.ToDisplay(), name),
		})
	case obj.IsObject():
		obj.AsObject().Set(name, v)
	case obj.IsArray():
		if name == "length" {
			setArrayLength(obj.AsArray(), int(v.ToFloat()))
		}
	}
}

func (ip *Interp) setIndex(obj Value, key Value, v Value, pos Position) {
	if key.IsNumber() && obj.IsArray() {
		idx := int(key.AsNumber())
		if idx >= 0 {
			obj.AsArray().Set(idx, v)
		}
		return
	}
	ip.setMember(obj, key.ToDisplay(), v, pos)
}

func setArrayLength(a *ArrayObject, n int) {
	if n < 0 {
		n = 0
	}
	for a.Len() > n {
		a.elements = a.elements[:a.Len()-1]
	}
	for a.Len() < n {
		a.Append(Undefined)
	}
}

// normSlice clamps a JS slice range against length, handling negatives.
func normSlice(start, end, length int) (int, int) {
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		return 0, 0
	}
	return start, end
}

func (ip *Interp) arrayMember(recv Value, name string) Value {
	a := recv.AsArray()
	switch name {
	case "length":
		return NumberValue(float64(a.Len()))
	case "push":
		return method("push", func(_ *Interp, args []Value) Value {
			for _, v := range args {
				a.Append(v)
			}
			return NumberValue(float64(a.Len()))
		})
	case "pop":
		return method("pop", func(_ *Interp, _ []Value) Value {
			if a.Len() == 0 {
				return Undefined
			}
			last := a.elements[a.Len()-1]
			a.elements = a.elements[:a.Len()-1]
			return last
		})
	case "shift":
		return method("shift", func(_ *Interp, _ []Value) Value {
			if a.Len() == 0 {
				return Undefined
			}
			first := a.elements[0]
			a.elements = a.elements[1:]
			return first
		})
	case "unshift":
		return method("unshift", func(_ *Interp, args []Value) Value {
			a.elements = append(append([]Value{}, args...), a.elements...)
			return NumberValue(float64(a.Len()))
		})
	case "slice":
		return method("slice", func(_ *Interp, args []Value) Value {
			start, end := 0, a.Len()
			if len(args) > 0 && !args[0].IsUndefined() {
				start = int(args[0].ToFloat())
			}
			if len(args) > 1 && !args[1].IsUndefined() {
				end = int(args[1].ToFloat())
			}
			start, end = normSlice(start, end, a.Len())
			return NewArray(append([]Value{}, a.elements[start:end]...)...)
		})
	case "concat":
		return method("concat", func(_ *Interp, args []Value) Value {
			out := append([]Value{}, a.elements...)
			for _, v := range args {
				if v.IsArray() {
					out = append(out, v.AsArray().Elements()...)
				} else {
					out = append(out, v)
				}
			}
			return NewArray(out...)
		})
	case "indexOf":
		return method("indexOf", func(_ *Interp, args []Value) Value {
			want := argAt(args, 0)
			for i, v := range a.elements {
				if v.StrictlyEquals(want) {
					return NumberValue(float64(i))
				}
			}
			return NumberValue(-1)
		})
	case "includes":
		return method("includes", func(_ *Interp, args []Value) Value {
			want := argAt(args, 0)
			for _, v := range a.elements {
				if v.StrictlyEquals(want) {
					return True
				}
			}
			return False
		})
	case "join":
		return method("join", func(_ *Interp, args []Value) Value {
			sep := ","
			if len(args) > 0 && !args[0].IsUndefined() {
				sep = args[0].ToDisplay()
			}
			parts := make([]string, a.Len())
			for i, v := range a.elements {
				if v.IsUndefined() || v.IsNull() {
					parts[i] = ""
				} else {
					parts[i] = v.ToDisplay()
				}
			}
			return NewString(strings.Join(parts, sep))
		})
	case "reverse":
		return method("reverse", func(_ *Interp, _ []Value) Value {
			for i, j := 0, a.Len()-1; i < j; i, j = i+1, j-1 {
				a.elements[i], a.elements[j] = a.elements[j], a.elements[i]
			}
			return recv
		})
	case "map":
		return method("map", func(ip *Interp, args []Value) Value {
			cb := argAt(args, 0)
			out := make([]Value, a.Len())
			for i, v := range append([]Value{}, a.elements...) {
				out[i] = ip.invoke(cb, Undefined, []Value{v, NumberValue(float64(i)), recv})
			}
			return NewArray(out...)
		})
	case "filter":
		return method("filter", func(ip *Interp, args []Value) Value {
			cb := argAt(args, 0)
			var out []Value
			for i, v := range append([]Value{}, a.elements...) {
				if ip.invoke(cb, Undefined, []Value{v, NumberValue(float64(i)), recv}).IsTruthy() {
					out = append(out, v)
				}
			}
			return NewArray(out...)
		})
	case "forEach":
		return method("forEach", func(ip *Interp, args []Value) Value {
			cb := argAt(args, 0)
			for i, v := range append([]Value{}, a.elements...) {
				ip.invoke(cb, Undefined, []Value{v, NumberValue(float64(i)), recv})
			}
			return Undefined
		})
	case "find":
		return method("find", func(ip *Interp, args []Value) Value {
			cb := argAt(args, 0)
			for i, v := range append([]Value{}, a.elements...) {
				if ip.invoke(cb, Undefined, []Value{v, NumberValue(float64(i)), recv}).IsTruthy() {
					return v
				}
			}
			return Undefined
		})
	case "reduce":
		return method("reduce", func(ip *Interp, args []Value) Value {
			cb := argAt(args, 0)
			elems := append([]Value{}, a.elements...)
			var acc Value
			start := 0
			if len(args) > 1 {
				acc = args[1]
			} else {
				if len(elems) == 0 {
					throwErr(&TypeError{Msg: "Reduce of empty array with no initial value"})
				}
				acc = elems[0]
				start = 1
			}
			for i := start; i < len(elems); i++ {
				acc = ip.invoke(cb, Undefined, []Value{acc, elems[i], NumberValue(float64(i)), recv})
			}
			return acc
		})
	}
	return Undefined
}

func (ip *Interp) stringMember(recv Value, name string) Value {
	s := recv.AsString()
	switch name {
	case "length":
		return NumberValue(float64(len(s)))
	case "toUpperCase":
		return method("toUpperCase", func(_ *Interp, _ []Value) Value {
			return NewString(strings.ToUpper(s))
		})
	case "toLowerCase":
		return method("toLowerCase", func(_ *Interp, _ []Value) Value {
			return NewString(strings.ToLower(s))
		})
	case "includes":
		return method("includes", func(_ *Interp, args []Value) Value {
			return BooleanValue(strings.Contains(s, argAt(args, 0).ToDisplay()))
		})
	case "indexOf":
		return method("indexOf", func(_ *Interp, args []Value) Value {
			return NumberValue(float64(strings.Index(s, argAt(args, 0).ToDisplay())))
		})
	case "charAt":
		return method("charAt", func(_ *Interp, args []Value) Value {
			i := int(argAt(args, 0).ToFloat())
			if i < 0 || i >= len(s) {
				return NewString("")
			}
			return NewString(string(s[i]))
		})
	case "trim":
		return method("trim", func(_ *Interp, _ []Value) Value {
			return NewString(strings.TrimSpace(s))
		})
	case "repeat":
		return method("repeat", func(_ *Interp, args []Value) Value {
			n := int(argAt(args, 0).ToFloat())
			if n < 0 {
				throwErr(&RangeError{Msg: "Invalid count value"})
			}
			return NewString(strings.Repeat(s, n))
		})
	case "slice":
		return method("slice", func(_ *Interp, args []Value) Value {
			start, end := 0, len(s)
			if len(args) > 0 && !args[0].IsUndefined() {
				start = int(args[0].ToFloat())
			}
			if len(args) > 1 && !args[1].IsUndefined() {
				end = int(args[1].ToFloat())
			}
			start, end = normSlice(start, end, len(s))
			return NewString(s[start:end])
		})
	case "split":
		return method("split", func(_ *Interp, args []Value) Value {
			sep := argAt(args, 0)
			if sep.IsUndefined() {
				return NewArray(NewString(s))
			}
			parts := strings.Split(s, sep.ToDisplay())
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = NewString(p)
			}
			return NewArray(out...)
		})
	}
	return Undefined
}

func promiseMember(p *PromiseObject, name string) Value {
	switch name {
	case "then":
		return method("then", func(_ *Interp, args []Value) Value {
			return p.Then(argAt(args, 0), argAt(args, 1))
		})
	case "catch":
		return method("catch", func(_ *Interp, args []Value) Value {
			return p.Catch(argAt(args, 0))
		})
	case "finally":
		return method("finally", func(_ *Interp, args []Value) Value {
			return p.Finally(argAt(args, 0))
		})
	}
	return Undefined
}

func numberMember(recv Value, name string) Value {
	n := recv.AsNumber()
	switch name {
	case "toFixed":
		return method("toFixed", func(_ *Interp, args []Value) Value {
			digits := int(argAt(args, 0).ToFloat())
			if digits < 0 || digits > 100 {
				throwErr(&RangeError{Msg: "toFixed() digits argument must be between 0 and 100"})
			}
			return NewString(strconv.FormatFloat(n, 'f', digits, 64))
		})
	case "toString":
		return method("toString", func(_ *Interp, _ []Value) Value {
			return NewString(formatNumber(n))
		})
	}
	return Undefined
}
