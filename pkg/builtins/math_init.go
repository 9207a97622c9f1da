package builtins

import (
	"math"

	"jsloop/pkg/interp"
)

type MathInitializer struct{}

func (m *MathInitializer) Name() string {
	return "Math"
}

func (m *MathInitializer) Priority() int {
	return PriorityMath
}

// randSeed starts every run's Math.random sequence. A fixed seed keeps
// traces reproducible across runs of the same program.
const randSeed = 0x2545F4914F6CDD1D

func (m *MathInitializer) InitRuntime(ctx *RuntimeContext) error {
	obj := interp.NewPlainObject()

	unary := func(name string, fn func(float64) float64) {
		obj.Set(name, interp.NewNativeFunction(name, func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
			return interp.NumberValue(fn(firstArg(args).ToFloat())), nil
		}))
	}

	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("abs", math.Abs)
	unary("sqrt", math.Sqrt)
	unary("trunc", math.Trunc)
	unary("round", func(f float64) float64 {
		// JS rounds halves toward positive infinity.
		return math.Floor(f + 0.5)
	})
	unary("sign", func(f float64) float64 {
		switch {
		case math.IsNaN(f):
			return f
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return f
		}
	})

	obj.Set("pow", interp.NewNativeFunction("pow", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		base := firstArg(args).ToFloat()
		exp := 0.0
		if len(args) > 1 {
			exp = args[1].ToFloat()
		}
		return interp.NumberValue(math.Pow(base, exp)), nil
	}))

	obj.Set("max", interp.NewNativeFunction("max", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		out := math.Inf(-1)
		for _, a := range args {
			f := a.ToFloat()
			if math.IsNaN(f) {
				return interp.NaN, nil
			}
			out = math.Max(out, f)
		}
		return interp.NumberValue(out), nil
	}))
	obj.Set("min", interp.NewNativeFunction("min", func(_ *interp.Interp, _ interp.Value, args []interp.Value) (interp.Value, error) {
		out := math.Inf(1)
		for _, a := range args {
			f := a.ToFloat()
			if math.IsNaN(f) {
				return interp.NaN, nil
			}
			out = math.Min(out, f)
		}
		return interp.NumberValue(out), nil
	}))

	state := uint64(randSeed)
	obj.Set("random", interp.NewNativeFunction("random", func(_ *interp.Interp, _ interp.Value, _ []interp.Value) (interp.Value, error) {
		state = state*6364136223846793005 + 1442695040888963407
		return interp.NumberValue(float64(state>>11) / float64(uint64(1)<<53)), nil
	}))

	obj.Set("PI", interp.NumberValue(math.Pi))
	obj.Set("E", interp.NumberValue(math.E))

	return ctx.DefineGlobal("Math", interp.NewObject(obj))
}
