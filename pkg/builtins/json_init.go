package builtins

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"jsloop/pkg/interp"
)

type JSONInitializer struct{}

func (j *JSONInitializer) Name() string {
	return "JSON"
}

func (j *JSONInitializer) Priority() int {
	return PriorityJSON
}

func (j *JSONInitializer) InitRuntime(ctx *RuntimeContext) error {
	obj := interp.NewPlainObject()

	obj.Set("stringify", interp.NewNativeFunction("stringify", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		v := firstArg(args)
		indent := ""
		if len(args) > 2 {
			switch {
			case args[2].IsNumber():
				n := int(args[2].AsNumber())
				if n > 10 {
					n = 10
				}
				if n > 0 {
					indent = strings.Repeat(" ", n)
				}
			case args[2].IsString():
				indent = args[2].AsString()
			}
		}
		out, ok := stringifyValue(v, indent, "")
		if !ok {
			return interp.Undefined, nil
		}
		return interp.NewString(out), nil
	}))

	obj.Set("parse", interp.NewNativeFunction("parse", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		src := firstArg(args)
		if !src.IsString() {
			return interp.Undefined, fmt.Errorf("JSON.parse argument is not a string")
		}
		dec := json.NewDecoder(strings.NewReader(src.AsString()))
		dec.UseNumber()
		v, err := parseJSONValue(dec)
		if err != nil {
			return interp.Undefined, fmt.Errorf("Unexpected token in JSON: %v", err)
		}
		return v, nil
	}))

	return ctx.DefineGlobal("JSON", interp.NewObject(obj))
}

// stringifyValue serializes v. The bool is false when the value is dropped
// entirely, the way JSON.stringify(undefined) disappears.
func stringifyValue(v interp.Value, indent, prefix string) (string, bool) {
	switch {
	case v.IsNull():
		return "null", true
	case v.IsBoolean():
		if v.AsBoolean() {
			return "true", true
		}
		return "false", true
	case v.IsNumber():
		f := v.AsNumber()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "null", true
		}
		return v.ToDisplay(), true
	case v.IsString():
		return strconv.Quote(v.AsString()), true
	case v.IsArray():
		return stringifyArray(v.AsArray(), indent, prefix), true
	case v.IsObject():
		return stringifyObject(v.AsObject(), indent, prefix), true
	case v.IsPromise():
		return "{}", true
	default:
		// undefined and functions are not representable.
		return "", false
	}
}

func stringifyArray(a *interp.ArrayObject, indent, prefix string) string {
	if a.Len() == 0 {
		return "[]"
	}
	inner := prefix + indent
	parts := make([]string, a.Len())
	for i, el := range a.Elements() {
		s, ok := stringifyValue(el, indent, inner)
		if !ok {
			s = "null"
		}
		parts[i] = s
	}
	if indent == "" {
		return "[" + strings.Join(parts, ",") + "]"
	}
	return "[\n" + inner + strings.Join(parts, ",\n"+inner) + "\n" + prefix + "]"
}

func stringifyObject(o *interp.PlainObject, indent, prefix string) string {
	inner := prefix + indent
	var parts []string
	for _, k := range o.Keys() {
		pv, _ := o.Get(k)
		s, ok := stringifyValue(pv, indent, inner)
		if !ok {
			continue
		}
		sep := ":"
		if indent != "" {
			sep = ": "
		}
		parts = append(parts, strconv.Quote(k)+sep+s)
	}
	if len(parts) == 0 {
		return "{}"
	}
	if indent == "" {
		return "{" + strings.Join(parts, ",") + "}"
	}
	return "{\n" + inner + strings.Join(parts, ",\n"+inner) + "\n" + prefix + "}"
}

// parseJSONValue reads one JSON value off the decoder token stream, keeping
// object keys in document order.
func parseJSONValue(dec *json.Decoder) (interp.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return interp.Undefined, err
	}
	return parseFromToken(dec, tok)
}

func parseFromToken(dec *json.Decoder, tok json.Token) (interp.Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := interp.NewPlainObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return interp.Undefined, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return interp.Undefined, fmt.Errorf("invalid object key %v", keyTok)
				}
				v, err := parseJSONValue(dec)
				if err != nil {
					return interp.Undefined, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return interp.Undefined, err
			}
			return interp.NewObject(obj), nil
		case '[':
			var elems []interp.Value
			for dec.More() {
				v, err := parseJSONValue(dec)
				if err != nil {
					return interp.Undefined, err
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil {
				return interp.Undefined, err
			}
			return interp.NewArray(elems...), nil
		default:
			return interp.Undefined, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return interp.NewString(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return interp.Undefined, err
		}
		return interp.NumberValue(f), nil
	case bool:
		return interp.BooleanValue(t), nil
	case nil:
		return interp.Null, nil
	default:
		return interp.Undefined, fmt.Errorf("unexpected token %v", tok)
	}
}
