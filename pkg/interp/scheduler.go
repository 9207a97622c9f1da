package interp

import (
	llq "github.com/emirpasic/gods/queues/linkedlistqueue"

	"jsloop/pkg/trace"
)

// Mode selects which event loop model the scheduler runs.
type Mode int

const (
	ModeBrowser Mode = iota
	ModeNode
)

func (m Mode) String() string {
	if m == ModeNode {
		return "node"
	}
	return "browser"
}

// Safety caps. Hitting one aborts the run with an OverflowError while keeping
// the partial trace.
const (
	MicrotaskDrainCap = 200
	OuterLoopCap      = 500
	LoopIterationCap  = 10000
)

// TaskSource tags where a queued task came from. The node timers phase keys
// off it.
const (
	SourceTimer     = "timer"
	SourceInterval  = "interval"
	SourcePromise   = "promise"
	SourceTick      = "nextTick"
	SourceImmediate = "setImmediate"
	SourceRAF       = "requestAnimationFrame"
	SourceMicro     = "queueMicrotask"
)

// QueuedTask is one unit of queued work, either a microtask or a macrotask.
type QueuedTask struct {
	ID     int
	Label  string
	Source string
	fn     func()
}

type timer struct {
	id       int
	label    string
	delay    int
	interval bool
	expiry   int
	order    int
	fn       func()
	cleared  bool
}

// Scheduler owns the virtual clock, the task queues, and the timer table.
// It emits every queue and loop transition into the recorder; task bodies
// run through the engine-provided runTask callback so the scheduler never
// touches interpreter state.
type Scheduler struct {
	rec  *trace.Recorder
	mode Mode

	ticks *llq.Queue
	micro *llq.Queue
	macro *llq.Queue
	check *llq.Queue

	timers     []*timer
	timerOrder int

	nowMS      int
	nextTaskID int
	nextTimer  int

	runTask  func(*QueuedTask)
	overflow *OverflowError
}

// NewScheduler wires a scheduler to a recorder. runTask executes one task
// body and must recover any engine error itself.
func NewScheduler(rec *trace.Recorder, mode Mode, runTask func(*QueuedTask)) *Scheduler {
	s := &Scheduler{
		rec:     rec,
		mode:    mode,
		ticks:   llq.New(),
		micro:   llq.New(),
		macro:   llq.New(),
		check:   llq.New(),
		runTask: runTask,
	}
	rec.SetClock(s.Now)
	return s
}

// Now returns the current virtual time in milliseconds.
func (s *Scheduler) Now() int { return s.nowMS }

// Overflow reports the safety cap error hit during the run, if any.
func (s *Scheduler) Overflow() *OverflowError { return s.overflow }

func (s *Scheduler) setOverflow(msg string) {
	if s.overflow == nil {
		s.overflow = &OverflowError{Msg: msg}
	}
}

func taskPayload(t *QueuedTask) map[string]any {
	return map[string]any{"id": t.ID, "label": t.Label, "source": t.Source}
}

// NewMicrotask allocates a task without announcing or queueing it. Await
// suspension uses this: the schedule step is emitted at suspension time while
// the enqueue happens only when the awaited promise settles.
func (s *Scheduler) NewMicrotask(label, source string, fn func()) *QueuedTask {
	s.nextTaskID++
	return &QueuedTask{ID: s.nextTaskID, Label: label, Source: source, fn: fn}
}

// AnnounceMicrotask emits the SCHEDULE_MICROTASK step for t.
func (s *Scheduler) AnnounceMicrotask(t *QueuedTask) {
	s.rec.Emit(trace.ScheduleMicrotask, taskPayload(t))
}

// EnqueueMicrotask places an announced task on the microtask queue.
func (s *Scheduler) EnqueueMicrotask(t *QueuedTask) {
	s.micro.Enqueue(t)
}

// ScheduleMicrotask announces and queues a microtask in one step.
func (s *Scheduler) ScheduleMicrotask(label, source string, fn func()) *QueuedTask {
	t := s.NewMicrotask(label, source, fn)
	s.AnnounceMicrotask(t)
	s.EnqueueMicrotask(t)
	return t
}

// ScheduleNextTick queues a process.nextTick callback. Ticks drain before
// ordinary microtasks.
func (s *Scheduler) ScheduleNextTick(label string, fn func()) *QueuedTask {
	t := s.NewMicrotask(label, SourceTick, fn)
	s.AnnounceMicrotask(t)
	s.ticks.Enqueue(t)
	return t
}

// ScheduleMacrotask queues a macrotask and emits its schedule step.
func (s *Scheduler) ScheduleMacrotask(label, source string, fn func()) *QueuedTask {
	s.nextTaskID++
	t := &QueuedTask{ID: s.nextTaskID, Label: label, Source: source, fn: fn}
	s.rec.Emit(trace.ScheduleMacrotask, taskPayload(t))
	s.macro.Enqueue(t)
	return t
}

// ScheduleCheck queues a setImmediate callback for the node check phase.
func (s *Scheduler) ScheduleCheck(label string, fn func()) *QueuedTask {
	s.nextTaskID++
	t := &QueuedTask{ID: s.nextTaskID, Label: label, Source: SourceImmediate, fn: fn}
	s.rec.Emit(trace.ScheduleMacrotask, taskPayload(t))
	s.check.Enqueue(t)
	return t
}

// RegisterTimer registers a setTimeout/setInterval timer against the virtual
// clock and returns its id.
func (s *Scheduler) RegisterTimer(label string, delay int, interval bool, fn func()) int {
	if delay < 0 {
		delay = 0
	}
	s.nextTimer++
	s.timerOrder++
	t := &timer{
		id:       s.nextTimer,
		label:    label,
		delay:    delay,
		interval: interval,
		expiry:   s.nowMS + delay,
		order:    s.timerOrder,
		fn:       fn,
	}
	s.timers = append(s.timers, t)
	s.rec.Emit(trace.RegisterWebAPI, map[string]any{"id": t.id, "label": t.label, "delay": t.delay})
	return t.id
}

// ClearTimer cancels a pending timer. Clearing an unknown or already fired
// id is a no-op.
func (s *Scheduler) ClearTimer(id int) {
	for _, t := range s.timers {
		if t.id == id && !t.cleared {
			t.cleared = true
			s.rec.Emit(trace.ResolveWebAPI, map[string]any{"id": t.id, "label": t.label})
			return
		}
	}
}

func (s *Scheduler) activeTimers() []*timer {
	var out []*timer
	for _, t := range s.timers {
		if !t.cleared {
			out = append(out, t)
		}
	}
	return out
}

// HasPendingWork reports whether any queue or timer could still produce
// execution.
func (s *Scheduler) HasPendingWork() bool {
	return !s.ticks.Empty() || !s.micro.Empty() || !s.macro.Empty() ||
		!s.check.Empty() || len(s.activeTimers()) > 0
}

func (s *Scheduler) popMicro() *QueuedTask {
	if v, ok := s.ticks.Dequeue(); ok {
		return v.(*QueuedTask)
	}
	if v, ok := s.micro.Dequeue(); ok {
		return v.(*QueuedTask)
	}
	return nil
}

// DrainMicrotasks runs queued microtasks to exhaustion, nextTick callbacks
// first. A single drain executes at most MicrotaskDrainCap tasks.
func (s *Scheduler) DrainMicrotasks() {
	count := 0
	for !s.ticks.Empty() || !s.micro.Empty() {
		if count >= MicrotaskDrainCap {
			s.setOverflow("microtask drain exceeded 200 tasks; possible microtask starvation loop")
			return
		}
		t := s.popMicro()
		s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhaseMicrotask})
		s.rec.Emit(trace.DequeueMicrotask, taskPayload(t))
		s.rec.Emit(trace.ExecuteMicrotask, taskPayload(t))
		s.runTask(t)
		count++
	}
}

// advanceTimers moves the virtual clock forward to the earliest pending
// expiry when nothing else is runnable, then promotes every expired timer to
// the macrotask queue in registration order. Intervals re-register from the
// new now; timeouts are consumed.
func (s *Scheduler) advanceTimers() {
	active := s.activeTimers()
	if len(active) == 0 {
		return
	}
	min := active[0].expiry
	for _, t := range active[1:] {
		if t.expiry < min {
			min = t.expiry
		}
	}
	if min > s.nowMS {
		s.nowMS = min
	}
	var due []*timer
	for _, t := range active {
		if t.expiry <= s.nowMS {
			due = append(due, t)
		}
	}
	for i := 1; i < len(due); i++ {
		for j := i; j > 0 && due[j].order < due[j-1].order; j-- {
			due[j], due[j-1] = due[j-1], due[j]
		}
	}
	for _, t := range due {
		s.rec.Emit(trace.ResolveWebAPI, map[string]any{"id": t.id, "label": t.label})
		source := SourceTimer
		if t.interval {
			source = SourceInterval
		}
		s.ScheduleMacrotask(t.label, source, t.fn)
		if t.interval {
			t.expiry = s.nowMS + t.delay
			s.timerOrder++
			t.order = s.timerOrder
			s.rec.Emit(trace.RegisterWebAPI, map[string]any{"id": t.id, "label": t.label, "delay": t.delay})
		} else {
			t.cleared = true
		}
	}
}

func (s *Scheduler) runMacro(t *QueuedTask) {
	s.rec.Emit(trace.DequeueMacrotask, taskPayload(t))
	s.rec.Emit(trace.ExecuteMacrotask, taskPayload(t))
	s.runTask(t)
}

// Run drives the event loop for the configured mode until the queues and
// timer table are empty or a safety cap trips.
func (s *Scheduler) Run() {
	if s.mode == ModeNode {
		s.runNode()
		return
	}
	s.runBrowser()
}

// runBrowser is the classic model: drain microtasks, let timers fire, then
// execute exactly one macrotask per turn.
func (s *Scheduler) runBrowser() {
	for i := 0; i < OuterLoopCap; i++ {
		s.DrainMicrotasks()
		if s.overflow != nil {
			return
		}
		if s.macro.Empty() && len(s.activeTimers()) > 0 {
			s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhaseWebAPI})
			s.advanceTimers()
		}
		if s.macro.Empty() {
			s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhaseIdle})
			return
		}
		s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhaseMacrotask})
		v, _ := s.macro.Dequeue()
		s.runMacro(v.(*QueuedTask))
	}
	s.setOverflow("event loop exceeded 500 iterations; possible runaway task chain")
}

// runNode walks the six libuv phases. Microtasks (nextTick first) drain
// after the synchronous script, after every callback, and between phases.
func (s *Scheduler) runNode() {
	for i := 0; i < OuterLoopCap; i++ {
		s.DrainMicrotasks()
		if s.overflow != nil {
			return
		}
		if !s.HasPendingWork() {
			s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhaseIdle})
			return
		}

		// Timers phase.
		s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhaseTimers})
		if s.macro.Empty() && s.check.Empty() && s.micro.Empty() && s.ticks.Empty() && len(s.activeTimers()) > 0 {
			s.advanceTimers()
		}
		for _, t := range s.takeTimerTasks() {
			s.runMacro(t)
			s.DrainMicrotasks()
			if s.overflow != nil {
				return
			}
		}

		// Pending callbacks phase. No deferred system callbacks exist in the
		// simulation, so the phase is only marked.
		s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhasePending})

		// Poll phase runs at most one queued task that is neither a timer nor
		// a setImmediate; the rest wait for the next turn.
		s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhasePoll})
		if t, ok := s.takePollTask(); ok {
			s.runMacro(t)
			s.DrainMicrotasks()
			if s.overflow != nil {
				return
			}
		}

		// Check phase runs setImmediate callbacks queued before this turn.
		s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhaseCheck})
		pending := s.check.Size()
		for j := 0; j < pending; j++ {
			v, ok := s.check.Dequeue()
			if !ok {
				break
			}
			s.runMacro(v.(*QueuedTask))
			s.DrainMicrotasks()
			if s.overflow != nil {
				return
			}
		}

		s.rec.Emit(trace.EventLoopCheck, map[string]any{"phase": trace.PhaseClose})
	}
	s.setOverflow("event loop exceeded 500 iterations; possible runaway task chain")
}

// takePollTask removes the first non-timer macrotask, leaving everything
// else in queue order.
func (s *Scheduler) takePollTask() (*QueuedTask, bool) {
	size := s.macro.Size()
	var found *QueuedTask
	for i := 0; i < size; i++ {
		v, ok := s.macro.Dequeue()
		if !ok {
			break
		}
		t := v.(*QueuedTask)
		isTimer := t.Source == SourceTimer || t.Source == SourceInterval
		if found == nil && !isTimer {
			found = t
			continue
		}
		s.macro.Enqueue(t)
	}
	return found, found != nil
}

// takeTimerTasks drains the macrotask queue and returns the timer-source
// entries in order; everything else is re-enqueued unchanged.
func (s *Scheduler) takeTimerTasks() []*QueuedTask {
	size := s.macro.Size()
	var taken []*QueuedTask
	for i := 0; i < size; i++ {
		v, ok := s.macro.Dequeue()
		if !ok {
			break
		}
		t := v.(*QueuedTask)
		if t.Source == SourceTimer || t.Source == SourceInterval {
			taken = append(taken, t)
		} else {
			s.macro.Enqueue(t)
		}
	}
	return taken
}
