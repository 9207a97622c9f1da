package interp

import "fmt"

// PromiseState is the settlement state of a promise.
type PromiseState int

const (
	Pending PromiseState = iota
	Fulfilled
	Rejected
)

func (s PromiseState) String() string {
	switch s {
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// reaction links a settled promise to a derived one. A non-callable handler
// passes the settlement through unchanged.
type reaction struct {
	handler Value
	state   PromiseState // which settlement this reaction answers
	resolve func(Value)
	reject  func(Value)
	label   string
}

// PromiseObject is the heap payload behind a promise Value. Settlement is
// one-shot; reactions attached after settlement are scheduled immediately.
type PromiseObject struct {
	id        int
	ip        *Interp
	state     PromiseState
	result    Value
	reactions []*reaction
	hooks     []func(PromiseState, Value)
	settlers  []*QueuedTask
	handled   bool
}

// NewPromise allocates a pending promise with a fresh per-run id.
func NewPromise(ip *Interp) *PromiseObject {
	ip.nextPromiseID++
	return &PromiseObject{id: ip.nextPromiseID, ip: ip}
}

func (p *PromiseObject) ID() int             { return p.id }

// Value wraps p as a runtime value.
func (p *PromiseObject) Value() Value { return newPromiseValue(p) }

func (p *PromiseObject) State() PromiseState { return p.state }
func (p *PromiseObject) Result() Value       { return p.result }

// Resolve fulfills p with v, adopting v's eventual state when v is itself a
// promise. Resolving a settled promise is a no-op.
func (p *PromiseObject) Resolve(v Value) {
	if p.state != Pending {
		return
	}
	if v.IsPromise() {
		inner := v.AsPromise()
		if inner == p {
			p.settle(Rejected, NewString("TypeError: chaining cycle detected"))
			return
		}
		inner.markHandled()
		inner.onSettled(func(st PromiseState, res Value) {
			if st == Rejected {
				p.settle(Rejected, res)
			} else {
				p.Resolve(res)
			}
		})
		return
	}
	p.settle(Fulfilled, v)
}

// Reject settles p as rejected. Rejecting a settled promise is a no-op.
func (p *PromiseObject) Reject(v Value) {
	if p.state != Pending {
		return
	}
	p.settle(Rejected, v)
}

func (p *PromiseObject) settle(st PromiseState, v Value) {
	p.state = st
	p.result = v
	if st == Rejected && !p.handled {
		p.ip.trackRejection(p)
	}
	for _, r := range p.reactions {
		if r.state == st {
			p.scheduleReaction(r)
		}
	}
	p.reactions = nil
	for _, hook := range p.hooks {
		hook(st, v)
	}
	p.hooks = nil
	for _, t := range p.settlers {
		p.ip.sched.EnqueueMicrotask(t)
	}
	p.settlers = nil
}

func (p *PromiseObject) markHandled() {
	p.handled = true
	p.ip.untrackRejection(p)
}

// onSettled runs fn at settlement time, synchronously, or immediately when p
// is already settled. Promise adoption and combinators use it; user-visible
// handlers go through reactions so they hit the microtask queue.
func (p *PromiseObject) onSettled(fn func(PromiseState, Value)) {
	if p.state != Pending {
		fn(p.state, p.result)
		return
	}
	p.hooks = append(p.hooks, fn)
}

// WhenSettled enqueues the pre-announced task t once p settles. Await uses
// this: the schedule step was emitted at suspension time, the enqueue happens
// at settlement. Already-settled promises enqueue immediately.
func (p *PromiseObject) WhenSettled(t *QueuedTask) {
	p.markHandled()
	if p.state != Pending {
		p.ip.sched.EnqueueMicrotask(t)
		return
	}
	p.settlers = append(p.settlers, t)
}

// scheduleReaction queues one microtask that runs r against the settled
// result. A reaction for the other settlement passes through.
func (p *PromiseObject) scheduleReaction(r *reaction) {
	st, v := p.state, p.result
	p.ip.sched.ScheduleMicrotask(r.label, SourcePromise, func() {
		if r.state != st || !r.handler.IsCallable() {
			if st == Rejected {
				r.reject(v)
			} else {
				r.resolve(v)
			}
			return
		}
		depth := len(p.ip.frames)
		defer func() {
			if rec := recover(); rec != nil {
				if ee, ok := rec.(EngineError); ok {
					p.ip.unwindTo(depth)
					r.reject(errValue(ee))
					return
				}
				panic(rec)
			}
		}()
		out := p.ip.invoke(r.handler, Undefined, []Value{v})
		r.resolve(out)
	})
}

// Then attaches fulfillment and rejection handlers and returns the derived
// promise value.
func (p *PromiseObject) Then(onFulfilled, onRejected Value) Value {
	derived := NewPromise(p.ip)
	p.markHandled()
	label := fmt.Sprintf("then(Promise#%d)", p.id)
	fulfil := &reaction{
		handler: onFulfilled,
		state:   Fulfilled,
		resolve: derived.Resolve,
		reject:  derived.Reject,
		label:   label,
	}
	rejected := &reaction{
		handler: onRejected,
		state:   Rejected,
		resolve: derived.Resolve,
		reject:  derived.Reject,
		label:   label,
	}
	switch p.state {
	case Pending:
		p.reactions = append(p.reactions, fulfil, rejected)
	case Fulfilled:
		p.scheduleReaction(fulfil)
	default:
		p.scheduleReaction(rejected)
	}
	return newPromiseValue(derived)
}

// Catch is Then with only a rejection handler.
func (p *PromiseObject) Catch(onRejected Value) Value {
	return p.Then(Undefined, onRejected)
}

// Finally runs the callback on either settlement and forwards the original
// outcome, unless the callback itself throws.
func (p *PromiseObject) Finally(callback Value) Value {
	derived := NewPromise(p.ip)
	p.markHandled()
	label := fmt.Sprintf("finally(Promise#%d)", p.id)
	run := func(st PromiseState, v Value) {
		p.ip.sched.ScheduleMicrotask(label, SourcePromise, func() {
			if callback.IsCallable() {
				depth := len(p.ip.frames)
				defer func() {
					if rec := recover(); rec != nil {
						if ee, ok := rec.(EngineError); ok {
							p.ip.unwindTo(depth)
							derived.Reject(errValue(ee))
							return
						}
						panic(rec)
					}
				}()
				p.ip.invoke(callback, Undefined, nil)
			}
			if st == Rejected {
				derived.Reject(v)
			} else {
				derived.Resolve(v)
			}
		})
	}
	p.onSettled(run)
	return newPromiseValue(derived)
}

// errValue converts an engine error into the value seen by promise rejection
// paths and catch bindings: the thrown value itself for user throws, the
// formatted message for internal errors.
func errValue(err EngineError) Value {
	if te, ok := err.(*ThrownError); ok {
		return te.Value
	}
	return NewString(fmt.Sprintf("%sError: %s", err.Kind(), err.Message()))
}

// ResolvedPromise returns a promise value already resolved with v. When v is
// a promise it is returned as-is rather than nested.
func ResolvedPromise(ip *Interp, v Value) Value {
	if v.IsPromise() {
		return v
	}
	p := NewPromise(ip)
	p.Resolve(v)
	return newPromiseValue(p)
}

// RejectedPromise returns a promise value already rejected with reason.
func RejectedPromise(ip *Interp, reason Value) Value {
	p := NewPromise(ip)
	p.Reject(reason)
	return newPromiseValue(p)
}
