package builtins

import (
	"fmt"

	"jsloop/pkg/interp"
)

// TimersInitializer installs the queue entry points. setTimeout, setInterval,
// and queueMicrotask exist in both modes; requestAnimationFrame is browser
// only; setImmediate and process.nextTick are node only.
type TimersInitializer struct{}

func (t *TimersInitializer) Name() string {
	return "timers"
}

func (t *TimersInitializer) Priority() int {
	return PriorityTimers
}

func (t *TimersInitializer) InitRuntime(ctx *RuntimeContext) error {
	eng := ctx.Interp

	callbackArg := func(args []interp.Value, who string) (interp.Value, error) {
		if len(args) == 0 || !args[0].IsCallable() {
			return interp.Undefined, fmt.Errorf("%s callback is not a function", who)
		}
		return args[0], nil
	}
	delayArg := func(args []interp.Value) int {
		if len(args) < 2 {
			return 0
		}
		return int(args[1].ToFloat())
	}

	setTimeout := interp.NewNativeFunction("setTimeout", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		cb, err := callbackArg(args, "setTimeout")
		if err != nil {
			return interp.Undefined, err
		}
		extra := append([]interp.Value{}, args[min(2, len(args)):]...)
		id := ip.Scheduler().RegisterTimer(interp.CallbackLabel("setTimeout", cb), delayArg(args), false, func() {
			ip.Invoke(cb, interp.Undefined, extra)
		})
		return interp.NumberValue(float64(id)), nil
	})

	setInterval := interp.NewNativeFunction("setInterval", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		cb, err := callbackArg(args, "setInterval")
		if err != nil {
			return interp.Undefined, err
		}
		extra := append([]interp.Value{}, args[min(2, len(args)):]...)
		id := ip.Scheduler().RegisterTimer(interp.CallbackLabel("setInterval", cb), delayArg(args), true, func() {
			ip.Invoke(cb, interp.Undefined, extra)
		})
		return interp.NumberValue(float64(id)), nil
	})

	clearByID := func(name string) interp.Value {
		return interp.NewNativeFunction(name, func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
			if len(args) > 0 && args[0].IsNumber() {
				ip.Scheduler().ClearTimer(int(args[0].AsNumber()))
			}
			return interp.Undefined, nil
		})
	}

	queueMicrotask := interp.NewNativeFunction("queueMicrotask", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		cb, err := callbackArg(args, "queueMicrotask")
		if err != nil {
			return interp.Undefined, err
		}
		ip.Scheduler().ScheduleMicrotask(interp.CallbackLabel("queueMicrotask", cb), interp.SourceMicro, func() {
			ip.Invoke(cb, interp.Undefined, nil)
		})
		return interp.Undefined, nil
	})

	if err := ctx.DefineGlobal("setTimeout", setTimeout); err != nil {
		return err
	}
	if err := ctx.DefineGlobal("clearTimeout", clearByID("clearTimeout")); err != nil {
		return err
	}
	if err := ctx.DefineGlobal("setInterval", setInterval); err != nil {
		return err
	}
	if err := ctx.DefineGlobal("clearInterval", clearByID("clearInterval")); err != nil {
		return err
	}
	if err := ctx.DefineGlobal("queueMicrotask", queueMicrotask); err != nil {
		return err
	}

	if eng.Mode() == interp.ModeBrowser {
		return t.initBrowser(ctx)
	}
	return t.initNode(ctx)
}

// Animation frames are simulated as one-shot 16ms timers.
const frameInterval = 16

func (t *TimersInitializer) initBrowser(ctx *RuntimeContext) error {
	raf := interp.NewNativeFunction("requestAnimationFrame", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		if len(args) == 0 || !args[0].IsCallable() {
			return interp.Undefined, fmt.Errorf("requestAnimationFrame callback is not a function")
		}
		cb := args[0]
		id := ip.Scheduler().RegisterTimer(interp.CallbackLabel("requestAnimationFrame", cb), frameInterval, false, func() {
			ip.Invoke(cb, interp.Undefined, []interp.Value{interp.NumberValue(float64(ip.Scheduler().Now()))})
		})
		return interp.NumberValue(float64(id)), nil
	})
	caf := interp.NewNativeFunction("cancelAnimationFrame", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		if len(args) > 0 && args[0].IsNumber() {
			ip.Scheduler().ClearTimer(int(args[0].AsNumber()))
		}
		return interp.Undefined, nil
	})
	if err := ctx.DefineGlobal("requestAnimationFrame", raf); err != nil {
		return err
	}
	return ctx.DefineGlobal("cancelAnimationFrame", caf)
}

func (t *TimersInitializer) initNode(ctx *RuntimeContext) error {
	setImmediate := interp.NewNativeFunction("setImmediate", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		if len(args) == 0 || !args[0].IsCallable() {
			return interp.Undefined, fmt.Errorf("setImmediate callback is not a function")
		}
		cb := args[0]
		t := ip.Scheduler().ScheduleCheck(interp.CallbackLabel("setImmediate", cb), func() {
			ip.Invoke(cb, interp.Undefined, nil)
		})
		return interp.NumberValue(float64(t.ID)), nil
	})
	if err := ctx.DefineGlobal("setImmediate", setImmediate); err != nil {
		return err
	}

	process := interp.NewPlainObject()
	process.Set("nextTick", interp.NewNativeFunction("nextTick", func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		if len(args) == 0 || !args[0].IsCallable() {
			return interp.Undefined, fmt.Errorf("process.nextTick callback is not a function")
		}
		cb := args[0]
		extra := append([]interp.Value{}, args[1:]...)
		ip.Scheduler().ScheduleNextTick(interp.CallbackLabel("process.nextTick", cb), func() {
			ip.Invoke(cb, interp.Undefined, extra)
		})
		return interp.Undefined, nil
	}))
	return ctx.DefineGlobal("process", interp.NewObject(process))
}
