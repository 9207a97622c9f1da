// Package builtins installs the host globals a simulated script sees:
// console, timers, Promise, Math, JSON, and the loose global functions. Each
// builtin is an initializer; the driver installs the standard set in
// priority order before running a program.
package builtins

import (
	"sort"

	"github.com/npillmayer/schuko/tracing"

	"jsloop/pkg/interp"
)

func tracer() tracing.Trace {
	return tracing.Select("jsloop.builtins")
}

// BuiltinInitializer is implemented by each builtin module.
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "console", "Promise", "Math").
	Name() string

	// Priority returns initialization order (lower = earlier).
	Priority() int

	// InitRuntime installs the module's globals into the engine.
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything an initializer needs.
type RuntimeContext struct {
	// The engine instance.
	Interp *interp.Interp

	// Define a global value.
	DefineGlobal func(name string, value interp.Value) error
}

// Priority constants for initialization order.
const (
	PriorityGlobals = 0   // loose globals and constructors first
	PriorityPromise = 10  // Promise before anything that returns one
	PriorityTimers  = 20  // timers and queue entry points
	PriorityMath    = 100 // Math object
	PriorityJSON    = 101 // JSON object
	PriorityConsole = 102 // console last, after JSON
)

// Standard returns the full builtin set for a run.
func Standard() []BuiltinInitializer {
	return []BuiltinInitializer{
		&GlobalsInitializer{},
		&PromiseInitializer{},
		&TimersInitializer{},
		&MathInitializer{},
		&JSONInitializer{},
		&ConsoleInitializer{},
	}
}

// InstallAll runs every initializer against the engine in priority order.
func InstallAll(ip *interp.Interp) error {
	inits := Standard()
	sort.SliceStable(inits, func(i, j int) bool {
		return inits[i].Priority() < inits[j].Priority()
	})
	ctx := &RuntimeContext{
		Interp: ip,
		DefineGlobal: func(name string, value interp.Value) error {
			ip.Global().Define(name, value, interp.BindConst)
			return nil
		},
	}
	for _, init := range inits {
		tracer().Debugf("installing builtin %s", init.Name())
		if err := init.InitRuntime(ctx); err != nil {
			return err
		}
	}
	return nil
}
