package builtins

import "jsloop/pkg/interp"

type ConsoleInitializer struct{}

func (c *ConsoleInitializer) Name() string {
	return "console"
}

func (c *ConsoleInitializer) Priority() int {
	return PriorityConsole
}

func (c *ConsoleInitializer) InitRuntime(ctx *RuntimeContext) error {
	consoleObj := interp.NewPlainObject()

	formatArgs := func(args []interp.Value) []string {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.ToDisplay()
		}
		return parts
	}

	emit := func(level string) interp.NativeFn {
		return func(ip *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
			ip.EmitConsole(level, formatArgs(args))
			return interp.Undefined, nil
		}
	}

	consoleObj.Set("log", interp.NewNativeFunction("log", emit("log")))
	consoleObj.Set("warn", interp.NewNativeFunction("warn", emit("warn")))
	consoleObj.Set("error", interp.NewNativeFunction("error", emit("error")))
	// info and debug render as plain log lines, like most host consoles.
	consoleObj.Set("info", interp.NewNativeFunction("info", emit("log")))
	consoleObj.Set("debug", interp.NewNativeFunction("debug", emit("log")))

	return ctx.DefineGlobal("console", interp.NewObject(consoleObj))
}
