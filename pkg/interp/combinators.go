package interp

import "fmt"

// Try runs fn and converts a thrown engine error into a return value. Builtin
// initializers use it where an error must be handled instead of unwinding,
// such as a promise executor.
func (ip *Interp) Try(fn func()) EngineError {
	var out EngineError
	depth := len(ip.frames)
	func() {
		defer func() {
			if r := recover(); r != nil {
				ee, ok := r.(EngineError)
				if !ok {
					panic(r)
				}
				ip.unwindTo(depth)
				out = ee
			}
		}()
		fn()
	}()
	return out
}

// Invoke calls a callable value from host code. Engine errors unwind to the
// nearest task or try boundary.
func (ip *Interp) Invoke(fn Value, this Value, args []Value) Value {
	return ip.invoke(fn, this, args)
}

// EmitConsole records one console line as a step and a captured entry.
func (ip *Interp) EmitConsole(level string, parts []string) {
	ip.emitConsole(level, parts)
}

// ErrorValue converts an engine error into the value a rejection path or
// catch binding observes.
func ErrorValue(err EngineError) Value {
	return errValue(err)
}

// asPromise coerces a combinator input: promises pass through, everything
// else becomes an already-resolved promise.
func asPromise(ip *Interp, v Value) *PromiseObject {
	if v.IsPromise() {
		return v.AsPromise()
	}
	return ResolvedPromise(ip, v).AsPromise()
}

// PromiseAll resolves with an array of results in input order, or rejects
// with the first rejection.
func PromiseAll(ip *Interp, inputs []Value) Value {
	out := NewPromise(ip)
	n := len(inputs)
	if n == 0 {
		out.Resolve(NewArray())
		return newPromiseValue(out)
	}
	results := make([]Value, n)
	remaining := n
	for i, in := range inputs {
		i := i
		p := asPromise(ip, in)
		p.markHandled()
		p.onSettled(func(st PromiseState, v Value) {
			if st == Rejected {
				out.Reject(v)
				return
			}
			results[i] = v
			remaining--
			if remaining == 0 {
				out.Resolve(NewArray(results...))
			}
		})
	}
	return newPromiseValue(out)
}

// PromiseRace settles with the first input to settle, in either direction.
func PromiseRace(ip *Interp, inputs []Value) Value {
	out := NewPromise(ip)
	for _, in := range inputs {
		p := asPromise(ip, in)
		p.markHandled()
		p.onSettled(func(st PromiseState, v Value) {
			if st == Rejected {
				out.Reject(v)
			} else {
				out.Resolve(v)
			}
		})
	}
	return newPromiseValue(out)
}

// PromiseAllSettled resolves with one descriptor object per input once every
// input has settled. It never rejects.
func PromiseAllSettled(ip *Interp, inputs []Value) Value {
	out := NewPromise(ip)
	n := len(inputs)
	if n == 0 {
		out.Resolve(NewArray())
		return newPromiseValue(out)
	}
	results := make([]Value, n)
	remaining := n
	for i, in := range inputs {
		i := i
		p := asPromise(ip, in)
		p.markHandled()
		p.onSettled(func(st PromiseState, v Value) {
			desc := NewPlainObject()
			if st == Rejected {
				desc.Set("status", NewString("rejected"))
				desc.Set("reason", v)
			} else {
				desc.Set("status", NewString("fulfilled"))
				desc.Set("value", v)
			}
			results[i] = NewObject(desc)
			remaining--
			if remaining == 0 {
				out.Resolve(NewArray(results...))
			}
		})
	}
	return newPromiseValue(out)
}

// PromiseAny resolves with the first fulfillment, or rejects once every
// input has rejected.
func PromiseAny(ip *Interp, inputs []Value) Value {
	out := NewPromise(ip)
	n := len(inputs)
	if n == 0 {
		out.Reject(NewString("AggregateError: All promises were rejected"))
		return newPromiseValue(out)
	}
	remaining := n
	for _, in := range inputs {
		p := asPromise(ip, in)
		p.markHandled()
		p.onSettled(func(st PromiseState, v Value) {
			if st == Fulfilled {
				out.Resolve(v)
				return
			}
			remaining--
			if remaining == 0 {
				out.Reject(NewString("AggregateError: All promises were rejected"))
			}
		})
	}
	return newPromiseValue(out)
}

// CallbackLabel names a queued callback for trace payloads.
func CallbackLabel(prefix string, cb Value) string {
	name := ""
	switch {
	case cb.IsFunction():
		name = cb.AsFunction().Name()
	case cb.IsNativeFunction():
		name = cb.AsNativeFunction().Name()
	}
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("%s(%s)", prefix, name)
}
