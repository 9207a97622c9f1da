package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsloop/pkg/trace"
)

// newTestScheduler wires a scheduler whose runTask just invokes the task body,
// recording execution order through the returned slice pointer.
func newTestScheduler(mode Mode) (*Scheduler, *trace.Recorder, *[]string) {
	order := &[]string{}
	rec := trace.NewRecorder(nil)
	s := NewScheduler(rec, mode, func(t *QueuedTask) { t.fn() })
	return s, rec, order
}

func logTo(order *[]string, label string) func() {
	return func() { *order = append(*order, label) }
}

func TestBrowserMicrotasksBeforeMacrotasks(t *testing.T) {
	s, _, order := newTestScheduler(ModeBrowser)
	s.ScheduleMacrotask("macro", SourceTimer, logTo(order, "macro"))
	s.ScheduleMicrotask("micro", SourceMicro, logTo(order, "micro"))

	s.Run()

	assert.Equal(t, []string{"micro", "macro"}, *order)
	assert.Nil(t, s.Overflow())
	assert.False(t, s.HasPendingWork())
}

func TestNextTickDrainsBeforeMicrotasks(t *testing.T) {
	s, _, order := newTestScheduler(ModeNode)
	s.ScheduleMicrotask("micro", SourceMicro, logTo(order, "micro"))
	s.ScheduleNextTick("tick", logTo(order, "tick"))

	s.DrainMicrotasks()

	assert.Equal(t, []string{"tick", "micro"}, *order)
}

func TestMicrotasksQueuedDuringDrainRunInSameDrain(t *testing.T) {
	s, _, order := newTestScheduler(ModeBrowser)
	s.ScheduleMicrotask("outer", SourceMicro, func() {
		*order = append(*order, "outer")
		s.ScheduleMicrotask("inner", SourceMicro, logTo(order, "inner"))
	})

	s.DrainMicrotasks()

	assert.Equal(t, []string{"outer", "inner"}, *order)
}

func TestTimerAdvancesVirtualClock(t *testing.T) {
	s, _, order := newTestScheduler(ModeBrowser)
	s.RegisterTimer("late", 30, false, logTo(order, "late"))

	require.Equal(t, 0, s.Now())
	s.Run()

	assert.Equal(t, []string{"late"}, *order)
	assert.Equal(t, 30, s.Now())
}

func TestTimersFireInRegistrationOrderOnTie(t *testing.T) {
	s, _, order := newTestScheduler(ModeBrowser)
	s.RegisterTimer("first", 10, false, logTo(order, "first"))
	s.RegisterTimer("second", 10, false, logTo(order, "second"))

	s.Run()

	assert.Equal(t, []string{"first", "second"}, *order)
}

func TestClockJumpsToEarliestExpiryOnly(t *testing.T) {
	s, _, order := newTestScheduler(ModeBrowser)
	s.RegisterTimer("far", 10, false, func() {
		*order = append(*order, "far")
		assert.Equal(t, 10, s.Now())
	})
	s.RegisterTimer("near", 5, false, func() {
		*order = append(*order, "near")
		assert.Equal(t, 5, s.Now())
	})

	s.Run()

	assert.Equal(t, []string{"near", "far"}, *order)
	assert.Equal(t, 10, s.Now())
}

func TestNegativeDelayClampsToZero(t *testing.T) {
	s, _, order := newTestScheduler(ModeBrowser)
	s.RegisterTimer("t", -5, false, logTo(order, "t"))

	s.Run()

	assert.Equal(t, []string{"t"}, *order)
	assert.Equal(t, 0, s.Now())
}

func TestClearTimerCancels(t *testing.T) {
	s, rec, order := newTestScheduler(ModeBrowser)
	id := s.RegisterTimer("doomed", 10, false, logTo(order, "doomed"))
	s.ClearTimer(id)
	s.ClearTimer(999) // unknown id is a no-op

	s.Run()

	assert.Empty(t, *order)
	types := stepTypes(rec.Steps())
	assert.Contains(t, types, trace.RegisterWebAPI)
	assert.Contains(t, types, trace.ResolveWebAPI)
}

func TestIntervalRepeatsUntilCleared(t *testing.T) {
	s, _, order := newTestScheduler(ModeBrowser)
	var id int
	runs := 0
	id = s.RegisterTimer("every", 10, true, func() {
		runs++
		*order = append(*order, "fire")
		if runs == 3 {
			s.ClearTimer(id)
		}
	})

	s.Run()

	assert.Equal(t, []string{"fire", "fire", "fire"}, *order)
	assert.Equal(t, 30, s.Now())
}

func TestBrowserOneMacrotaskPerTurn(t *testing.T) {
	s, _, order := newTestScheduler(ModeBrowser)
	s.ScheduleMacrotask("m1", SourceTimer, func() {
		*order = append(*order, "m1")
		s.ScheduleMicrotask("between", SourceMicro, logTo(order, "between"))
	})
	s.ScheduleMacrotask("m2", SourceTimer, logTo(order, "m2"))

	s.Run()

	assert.Equal(t, []string{"m1", "between", "m2"}, *order)
}

func TestMicrotaskDrainCapOverflows(t *testing.T) {
	s, _, _ := newTestScheduler(ModeBrowser)
	var spin func()
	spin = func() { s.ScheduleMicrotask("again", SourceMicro, spin) }
	s.ScheduleMicrotask("again", SourceMicro, spin)

	s.Run()

	require.NotNil(t, s.Overflow())
	assert.Contains(t, s.Overflow().Error(), "microtask drain exceeded 200 tasks")
}

func TestOuterLoopCapOverflows(t *testing.T) {
	s, _, _ := newTestScheduler(ModeBrowser)
	var respawn func()
	respawn = func() { s.ScheduleMacrotask("again", SourceTimer, respawn) }
	s.ScheduleMacrotask("again", SourceTimer, respawn)

	s.Run()

	require.NotNil(t, s.Overflow())
	assert.Contains(t, s.Overflow().Error(), "event loop exceeded 500 iterations")
}

func TestNodePhaseOrder(t *testing.T) {
	s, rec, order := newTestScheduler(ModeNode)
	s.RegisterTimer("timer", 0, false, logTo(order, "timer"))
	s.ScheduleMacrotask("io", "io", logTo(order, "io"))
	s.ScheduleCheck("immediate", logTo(order, "immediate"))

	s.Run()

	// The pending timer is not promoted while other queues hold work, so the
	// first turn runs poll and check work and the second turn runs the timer.
	assert.Equal(t, []string{"io", "immediate", "timer"}, *order)

	phases := phaseSequence(rec.Steps())
	assert.Subset(t, phases, []string{
		trace.PhaseTimers, trace.PhasePending, trace.PhasePoll,
		trace.PhaseCheck, trace.PhaseClose, trace.PhaseIdle,
	})
	assert.Equal(t, trace.PhaseIdle, phases[len(phases)-1])
}

func TestNodeImmediateQueuedDuringCheckWaitsATurn(t *testing.T) {
	s, _, order := newTestScheduler(ModeNode)
	s.ScheduleCheck("first", func() {
		*order = append(*order, "first")
		s.ScheduleCheck("second", logTo(order, "second"))
	})

	s.Run()

	assert.Equal(t, []string{"first", "second"}, *order)
}

func TestNodeTimersPhaseRunsOnlyTimerTasks(t *testing.T) {
	s, _, order := newTestScheduler(ModeNode)
	s.ScheduleMacrotask("io", "io", logTo(order, "io"))
	s.ScheduleMacrotask("t", SourceTimer, logTo(order, "t"))

	s.Run()

	// The timer-tagged task runs in the timers phase ahead of the poll task
	// even though it was queued second.
	assert.Equal(t, []string{"t", "io"}, *order)
}

func TestNodePollRunsOneTaskPerTurn(t *testing.T) {
	s, _, order := newTestScheduler(ModeNode)
	s.ScheduleMacrotask("io1", "io", logTo(order, "io1"))
	s.ScheduleMacrotask("io2", "io", logTo(order, "io2"))
	s.ScheduleCheck("immediate", logTo(order, "immediate"))

	s.Run()

	// The second poll task waits for the next turn, so the check phase runs
	// between the two.
	assert.Equal(t, []string{"io1", "immediate", "io2"}, *order)
}

func TestScheduleStepsEmitted(t *testing.T) {
	s, rec, _ := newTestScheduler(ModeBrowser)
	s.ScheduleMicrotask("m", SourceMicro, func() {})
	s.Run()

	types := stepTypes(rec.Steps())
	assert.Contains(t, types, trace.ScheduleMicrotask)
	assert.Contains(t, types, trace.DequeueMicrotask)
	assert.Contains(t, types, trace.ExecuteMicrotask)
}

func stepTypes(steps []trace.Step) []trace.StepType {
	out := make([]trace.StepType, len(steps))
	for i, s := range steps {
		out[i] = s.Type
	}
	return out
}

func phaseSequence(steps []trace.Step) []string {
	var out []string
	for _, s := range steps {
		if s.Type == trace.EventLoopCheck {
			if phase, ok := s.Payload["phase"].(string); ok {
				out = append(out, phase)
			}
		}
	}
	return out
}
