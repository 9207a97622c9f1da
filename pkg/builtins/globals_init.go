package builtins

import (
	"math"
	"strconv"
	"strings"

	"jsloop/pkg/interp"
)

// GlobalsInitializer installs the loose global functions and the constructor
// namespaces that are not big enough for a module of their own.
type GlobalsInitializer struct{}

func (g *GlobalsInitializer) Name() string {
	return "globals"
}

func (g *GlobalsInitializer) Priority() int {
	return PriorityGlobals
}

func (g *GlobalsInitializer) InitRuntime(ctx *RuntimeContext) error {
	defs := map[string]interp.Value{
		"NaN":        interp.NaN,
		"Infinity":   interp.NumberValue(math.Inf(1)),
		"undefined":  interp.Undefined,
		"parseInt":   interp.NewNativeFunction("parseInt", parseIntImpl),
		"parseFloat": interp.NewNativeFunction("parseFloat", parseFloatImpl),
		"isNaN": interp.NewNativeFunction("isNaN", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
			return interp.BooleanValue(math.IsNaN(firstArg(args).ToFloat())), nil
		}),
		"isFinite": interp.NewNativeFunction("isFinite", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
			f := firstArg(args).ToFloat()
			return interp.BooleanValue(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
		}),
		"String": interp.NewNativeFunction("String", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
			if len(args) == 0 {
				return interp.NewString(""), nil
			}
			return interp.NewString(args[0].ToDisplay()), nil
		}),
		"Number": interp.NewNativeFunction("Number", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
			if len(args) == 0 {
				return interp.NumberValue(0), nil
			}
			return interp.NumberValue(args[0].ToFloat()), nil
		}),
		"Boolean": interp.NewNativeFunction("Boolean", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
			return interp.BooleanValue(firstArg(args).IsTruthy()), nil
		}),
		"Array":  arrayCtor(),
		"Object": objectCtor(),
		"Date":   dateCtor(),
	}
	for _, name := range []string{
		"NaN", "Infinity", "undefined",
		"parseInt", "parseFloat", "isNaN", "isFinite",
		"String", "Number", "Boolean",
		"Array", "Object", "Date",
	} {
		if err := ctx.DefineGlobal(name, defs[name]); err != nil {
			return err
		}
	}
	return nil
}

func arrayCtor() interp.Value {
	ctor := interp.NewNativeFunction("Array", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		if len(args) == 1 && args[0].IsNumber() {
			n := int(args[0].AsNumber())
			elems := make([]interp.Value, n)
			for i := range elems {
				elems[i] = interp.Undefined
			}
			return interp.NewArray(elems...), nil
		}
		return interp.NewArray(args...), nil
	})
	nf := ctor.AsNativeFunction()
	nf.SetProp("isArray", interp.NewNativeFunction("isArray", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		return interp.BooleanValue(firstArg(args).IsArray()), nil
	}))
	nf.SetProp("of", interp.NewNativeFunction("of", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		return interp.NewArray(args...), nil
	}))
	nf.SetProp("from", interp.NewNativeFunction("from", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		src := firstArg(args)
		var elems []interp.Value
		switch {
		case src.IsArray():
			elems = append(elems, src.AsArray().Elements()...)
		case src.IsString():
			for _, r := range src.AsString() {
				elems = append(elems, interp.NewString(string(r)))
			}
		default:
			return interp.NewArray(), nil
		}
		if len(args) > 1 && args[1].IsCallable() {
			for i, el := range elems {
				elems[i] = ip.Invoke(args[1], interp.Undefined, []interp.Value{el, interp.NumberValue(float64(i))})
			}
		}
		return interp.NewArray(elems...), nil
	}))
	return ctor
}

func objectCtor() interp.Value {
	ctor := interp.NewNativeFunction("Object", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		v := firstArg(args)
		if v.IsObject() {
			return v, nil
		}
		return interp.NewObject(interp.NewPlainObject()), nil
	})
	nf := ctor.AsNativeFunction()
	nf.SetProp("keys", interp.NewNativeFunction("keys", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		v := firstArg(args)
		if !v.IsObject() {
			return interp.NewArray(), nil
		}
		keys := v.AsObject().Keys()
		out := make([]interp.Value, len(keys))
		for i, k := range keys {
			out[i] = interp.NewString(k)
		}
		return interp.NewArray(out...), nil
	}))
	nf.SetProp("values", interp.NewNativeFunction("values", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		v := firstArg(args)
		if !v.IsObject() {
			return interp.NewArray(), nil
		}
		o := v.AsObject()
		var out []interp.Value
		for _, k := range o.Keys() {
			pv, _ := o.Get(k)
			out = append(out, pv)
		}
		return interp.NewArray(out...), nil
	}))
	nf.SetProp("entries", interp.NewNativeFunction("entries", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		v := firstArg(args)
		if !v.IsObject() {
			return interp.NewArray(), nil
		}
		o := v.AsObject()
		var out []interp.Value
		for _, k := range o.Keys() {
			pv, _ := o.Get(k)
			out = append(out, interp.NewArray(interp.NewString(k), pv))
		}
		return interp.NewArray(out...), nil
	}))
	nf.SetProp("assign", interp.NewNativeFunction("assign", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		target := firstArg(args)
		if !target.IsObject() {
			return target, nil
		}
		dst := target.AsObject()
		for _, src := range args[1:] {
			if !src.IsObject() {
				continue
			}
			o := src.AsObject()
			for _, k := range o.Keys() {
				pv, _ := o.Get(k)
				dst.Set(k, pv)
			}
		}
		return target, nil
	}))
	return ctor
}

// dateCtor exposes Date.now against the virtual clock, so scripts observe
// simulated time rather than wall time.
func dateCtor() interp.Value {
	ctor := interp.NewNativeFunction("Date", func(ip *interp.Interp, _ interp.Value, _ []interp.Value) (interp.Value, error) {
		return interp.NumberValue(float64(ip.Scheduler().Now())), nil
	})
	ctor.AsNativeFunction().SetProp("now", interp.NewNativeFunction("now", func(ip *interp.Interp, _ interp.Value, _ []interp.Value) (interp.Value, error) {
		return interp.NumberValue(float64(ip.Scheduler().Now())), nil
	}))
	return ctor
}

func parseIntImpl(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
	s := strings.TrimSpace(firstArg(args).ToDisplay())
	radix := 10
	if len(args) > 1 && args[1].IsNumber() {
		if r := int(args[1].AsNumber()); r != 0 {
			radix = r
		}
	}
	if radix < 2 || radix > 36 {
		return interp.NaN, nil
	}
	sign := 1
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
	} else if radix == 10 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		radix = 16
		s = s[2:]
	}
	for end := len(s); end > 0; end-- {
		if n, err := strconv.ParseInt(s[:end], radix, 64); err == nil {
			return interp.NumberValue(float64(sign) * float64(n)), nil
		}
	}
	return interp.NaN, nil
}

func parseFloatImpl(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
	s := strings.TrimSpace(firstArg(args).ToDisplay())
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return interp.NumberValue(f), nil
		}
	}
	return interp.NaN, nil
}
