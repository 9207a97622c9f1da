package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderStampsWithClock(t *testing.T) {
	now := 0
	rec := NewRecorder(func() int { return now })

	rec.Emit(ConsoleLog, map[string]any{"raw": "first"})
	now = 25
	rec.Emit(ConsoleLog, map[string]any{"raw": "second"})

	steps := rec.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].TimestampMS)
	assert.Equal(t, 25, steps[1].TimestampMS)
}

func TestRecorderNilClockStampsZero(t *testing.T) {
	rec := NewRecorder(nil)
	rec.Emit(EventLoopCheck, map[string]any{"phase": PhaseIdle})
	require.Equal(t, 1, rec.Len())
	assert.Equal(t, 0, rec.Steps()[0].TimestampMS)
}

func TestRecorderSetClock(t *testing.T) {
	rec := NewRecorder(nil)
	rec.SetClock(func() int { return 42 })
	rec.Emit(ConsoleLog, nil)
	assert.Equal(t, 42, rec.Steps()[0].TimestampMS)

	// A nil clock is ignored rather than installed.
	rec.SetClock(nil)
	rec.Emit(ConsoleLog, nil)
	assert.Equal(t, 42, rec.Steps()[1].TimestampMS)
}

func TestEmitAtCarriesPosition(t *testing.T) {
	rec := NewRecorder(nil)
	rec.EmitAt(HighlightLine, map[string]any{"line": 7}, 7, 3)

	step := rec.Steps()[0]
	assert.Equal(t, HighlightLine, step.Type)
	assert.Equal(t, 7, step.Line)
	assert.Equal(t, 3, step.Column)
}
