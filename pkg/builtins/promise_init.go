package builtins

import (
	"fmt"

	"jsloop/pkg/interp"
)

type PromiseInitializer struct{}

func (p *PromiseInitializer) Name() string {
	return "Promise"
}

func (p *PromiseInitializer) Priority() int {
	return PriorityPromise
}

func (p *PromiseInitializer) InitRuntime(ctx *RuntimeContext) error {
	ctor := interp.NewNativeFunction("Promise", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		if len(args) == 0 || !args[0].IsCallable() {
			return interp.Undefined, fmt.Errorf("Promise resolver is not a function")
		}
		executor := args[0]
		pr := interp.NewPromise(ip)
		resolveFn := interp.NewNativeFunction("resolve", func(_ *interp.Interp, _ interp.Value, a []interp.Value) (interp.Value, error) {
			pr.Resolve(firstArg(a))
			return interp.Undefined, nil
		})
		rejectFn := interp.NewNativeFunction("reject", func(_ *interp.Interp, _ interp.Value, a []interp.Value) (interp.Value, error) {
			pr.Reject(firstArg(a))
			return interp.Undefined, nil
		})
		if err := ip.Try(func() {
			ip.Invoke(executor, interp.Undefined, []interp.Value{resolveFn, rejectFn})
		}); err != nil {
			pr.Reject(interp.ErrorValue(err))
		}
		return pr.Value(), nil
	})

	nf := ctor.AsNativeFunction()
	nf.SetProp("resolve", interp.NewNativeFunction("resolve", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		return interp.ResolvedPromise(ip, firstArg(args)), nil
	}))
	nf.SetProp("reject", interp.NewNativeFunction("reject", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		return interp.RejectedPromise(ip, firstArg(args)), nil
	}))
	nf.SetProp("all", combinator("all", interp.PromiseAll))
	nf.SetProp("race", combinator("race", interp.PromiseRace))
	nf.SetProp("allSettled", combinator("allSettled", interp.PromiseAllSettled))
	nf.SetProp("any", combinator("any", interp.PromiseAny))

	return ctx.DefineGlobal("Promise", ctor)
}

func firstArg(args []interp.Value) interp.Value {
	if len(args) > 0 {
		return args[0]
	}
	return interp.Undefined
}

func combinator(name string, impl func(*interp.Interp, []interp.Value) interp.Value) interp.Value {
	return interp.NewNativeFunction(name, func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		in := firstArg(args)
		if !in.IsArray() {
			return interp.Undefined, fmt.Errorf("Promise.%s argument is not an array", name)
		}
		return impl(ip, in.AsArray().Elements()), nil
	})
}
