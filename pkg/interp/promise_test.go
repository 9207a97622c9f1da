package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsloop/pkg/trace"
)

func newTestInterp(mode Mode) *Interp {
	return NewInterp(trace.NewRecorder(nil), mode)
}

func addOne() Value {
	return NewNativeFunction("addOne", func(_ *Interp, _ Value, args []Value) (Value, error) {
		return NumberValue(args[0].AsNumber() + 1), nil
	})
}

func TestThenRunsHandlerOnMicrotask(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	p := NewPromise(ip)
	derived := p.Then(addOne(), Undefined)

	p.Resolve(NumberValue(1))
	assert.Equal(t, Pending, derived.AsPromise().State())

	ip.Scheduler().DrainMicrotasks()

	require.Equal(t, Fulfilled, derived.AsPromise().State())
	assert.Equal(t, float64(2), derived.AsPromise().Result().AsNumber())
}

func TestThenOnSettledPromiseStillDefers(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	p := ResolvedPromise(ip, NumberValue(10)).AsPromise()
	derived := p.Then(addOne(), Undefined)

	assert.Equal(t, Pending, derived.AsPromise().State())
	ip.Scheduler().DrainMicrotasks()
	assert.Equal(t, float64(11), derived.AsPromise().Result().AsNumber())
}

func TestThenPassesRejectionThrough(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	p := RejectedPromise(ip, NewString("bad")).AsPromise()
	derived := p.Then(addOne(), Undefined)

	ip.Scheduler().DrainMicrotasks()

	require.Equal(t, Rejected, derived.AsPromise().State())
	assert.Equal(t, "bad", derived.AsPromise().Result().AsString())
}

func TestHandlerErrorRejectsDerived(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	boom := NewNativeFunction("boom", func(_ *Interp, _ Value, _ []Value) (Value, error) {
		return Undefined, &TypeError{Msg: "boom"}
	})
	p := ResolvedPromise(ip, NumberValue(1)).AsPromise()
	derived := p.Then(boom, Undefined)

	ip.Scheduler().DrainMicrotasks()

	require.Equal(t, Rejected, derived.AsPromise().State())
	assert.Equal(t, "TypeError: boom", derived.AsPromise().Result().AsString())
}

func TestCatchHandlesRejection(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	p := RejectedPromise(ip, NewString("oops")).AsPromise()
	recovered := NewNativeFunction("recover", func(_ *Interp, _ Value, args []Value) (Value, error) {
		return NewString("handled " + args[0].AsString()), nil
	})
	derived := p.Catch(recovered)

	ip.Scheduler().DrainMicrotasks()

	require.Equal(t, Fulfilled, derived.AsPromise().State())
	assert.Equal(t, "handled oops", derived.AsPromise().Result().AsString())
}

func TestResolveAdoptsInnerPromise(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	inner := NewPromise(ip)
	outer := NewPromise(ip)

	outer.Resolve(inner.Value())
	assert.Equal(t, Pending, outer.State())

	inner.Resolve(NumberValue(5))
	assert.Equal(t, Fulfilled, outer.State())
	assert.Equal(t, float64(5), outer.Result().AsNumber())
}

func TestResolveAdoptsInnerRejection(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	inner := NewPromise(ip)
	outer := NewPromise(ip)

	outer.Resolve(inner.Value())
	inner.Reject(NewString("inner failure"))

	assert.Equal(t, Rejected, outer.State())
	assert.Equal(t, "inner failure", outer.Result().AsString())
}

func TestResolveSelfCycleRejects(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	p := NewPromise(ip)
	p.Resolve(p.Value())

	require.Equal(t, Rejected, p.State())
	assert.Contains(t, p.Result().AsString(), "chaining cycle")
}

func TestSettlementIsOneShot(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	p := NewPromise(ip)
	p.Resolve(NumberValue(1))
	p.Reject(NewString("late"))
	p.Resolve(NumberValue(2))

	assert.Equal(t, Fulfilled, p.State())
	assert.Equal(t, float64(1), p.Result().AsNumber())
}

func TestFinallyForwardsOutcome(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	ran := false
	cb := NewNativeFunction("cleanup", func(_ *Interp, _ Value, _ []Value) (Value, error) {
		ran = true
		return Undefined, nil
	})
	p := ResolvedPromise(ip, NumberValue(3)).AsPromise()
	derived := p.Finally(cb)

	ip.Scheduler().DrainMicrotasks()

	assert.True(t, ran)
	require.Equal(t, Fulfilled, derived.AsPromise().State())
	assert.Equal(t, float64(3), derived.AsPromise().Result().AsNumber())
}

func TestUnhandledRejectionSurfacesAfterIdle(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	RejectedPromise(ip, NewString("bad"))

	ip.flushRejections()

	require.Len(t, ip.Errors(), 1)
	require.Len(t, ip.Console(), 1)
	assert.Equal(t, "error", ip.Console()[0].Level)
	assert.Equal(t, "Uncaught (in promise) bad", ip.Console()[0].Text)
}

func TestCatchSuppressesUnhandledRejection(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	p := RejectedPromise(ip, NewString("bad")).AsPromise()
	p.Catch(NewNativeFunction("swallow", func(_ *Interp, _ Value, _ []Value) (Value, error) {
		return Undefined, nil
	}))

	ip.Scheduler().DrainMicrotasks()
	ip.flushRejections()

	assert.Empty(t, ip.Errors())
}

func TestPromiseAll(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	a := NewPromise(ip)
	b := NewPromise(ip)
	all := PromiseAll(ip, []Value{a.Value(), NumberValue(2), b.Value()})

	a.Resolve(NumberValue(1))
	assert.Equal(t, Pending, all.AsPromise().State())
	b.Resolve(NumberValue(3))

	require.Equal(t, Fulfilled, all.AsPromise().State())
	assert.Equal(t, "[1, 2, 3]", all.AsPromise().Result().ToDisplay())
}

func TestPromiseAllRejectsOnFirstFailure(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	a := NewPromise(ip)
	b := NewPromise(ip)
	all := PromiseAll(ip, []Value{a.Value(), b.Value()})

	b.Reject(NewString("nope"))

	require.Equal(t, Rejected, all.AsPromise().State())
	assert.Equal(t, "nope", all.AsPromise().Result().AsString())
}

func TestPromiseAllEmptyResolvesImmediately(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	all := PromiseAll(ip, nil)
	require.Equal(t, Fulfilled, all.AsPromise().State())
	assert.Equal(t, "[]", all.AsPromise().Result().ToDisplay())
}

func TestPromiseRaceFirstSettlementWins(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	slow := NewPromise(ip)
	fast := NewPromise(ip)
	race := PromiseRace(ip, []Value{slow.Value(), fast.Value()})

	fast.Resolve(NewString("fast"))
	slow.Resolve(NewString("slow"))

	require.Equal(t, Fulfilled, race.AsPromise().State())
	assert.Equal(t, "fast", race.AsPromise().Result().AsString())
}

func TestPromiseAllSettledNeverRejects(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	a := NewPromise(ip)
	b := NewPromise(ip)
	settled := PromiseAllSettled(ip, []Value{a.Value(), b.Value()})

	a.Resolve(NumberValue(1))
	b.Reject(NewString("bad"))

	require.Equal(t, Fulfilled, settled.AsPromise().State())
	arr := settled.AsPromise().Result().AsArray()
	require.Equal(t, 2, arr.Len())

	first := arr.Get(0).AsObject()
	status, _ := first.Get("status")
	assert.Equal(t, "fulfilled", status.AsString())
	value, _ := first.Get("value")
	assert.Equal(t, float64(1), value.AsNumber())

	second := arr.Get(1).AsObject()
	status, _ = second.Get("status")
	assert.Equal(t, "rejected", status.AsString())
	reason, _ := second.Get("reason")
	assert.Equal(t, "bad", reason.AsString())
}

func TestPromiseAnyRejectsOnlyWhenAllFail(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	a := NewPromise(ip)
	b := NewPromise(ip)
	any := PromiseAny(ip, []Value{a.Value(), b.Value()})

	a.Reject(NewString("first"))
	assert.Equal(t, Pending, any.AsPromise().State())
	b.Reject(NewString("second"))

	require.Equal(t, Rejected, any.AsPromise().State())
	assert.Contains(t, any.AsPromise().Result().AsString(), "AggregateError")
}

func TestPromiseIDsAreSequential(t *testing.T) {
	ip := newTestInterp(ModeBrowser)
	first := NewPromise(ip)
	second := NewPromise(ip)
	assert.Equal(t, 1, first.ID())
	assert.Equal(t, 2, second.ID())
}

func TestCallbackLabel(t *testing.T) {
	named := NewNativeFunction("tick", nil)
	assert.Equal(t, "setTimeout(tick)", CallbackLabel("setTimeout", named))
	assert.Equal(t, "queueMicrotask(<anonymous>)", CallbackLabel("queueMicrotask", NewNativeFunction("", nil)))
	assert.Equal(t, "setInterval(<anonymous>)", CallbackLabel("setInterval", NumberValue(1)))
}
