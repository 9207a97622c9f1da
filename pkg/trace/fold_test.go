package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldEmpty(t *testing.T) {
	st := Fold(nil, -1)
	assert.Empty(t, st.Stack)
	assert.Empty(t, st.Microtasks)
	assert.Empty(t, st.Macrotasks)
	assert.Empty(t, st.WebAPIs)
	assert.Empty(t, st.Console)
	assert.Equal(t, 0, st.HighlightedLine)
}

func TestFoldStackPushPop(t *testing.T) {
	steps := []Step{
		{Type: PushStack, Payload: map[string]any{"id": 1, "name": "<global>", "line": 1}},
		{Type: PushStack, Payload: map[string]any{"id": 2, "name": "work", "line": 4}},
		{Type: PopStack, Payload: map[string]any{"id": 2, "name": "work"}},
	}

	mid := Fold(steps, 2)
	require.Len(t, mid.Stack, 2)
	assert.Equal(t, FrameInfo{ID: 1, Name: "<global>", Line: 1}, mid.Stack[0])
	assert.Equal(t, FrameInfo{ID: 2, Name: "work", Line: 4}, mid.Stack[1])

	full := Fold(steps, -1)
	require.Len(t, full.Stack, 1)
	assert.Equal(t, "<global>", full.Stack[0].Name)
}

func TestFoldQueues(t *testing.T) {
	steps := []Step{
		{Type: ScheduleMicrotask, Payload: map[string]any{"id": 1, "label": "then(Promise#1)", "source": "promise"}},
		{Type: ScheduleMacrotask, Payload: map[string]any{"id": 2, "label": "setTimeout(cb)", "source": "timer"}},
		{Type: DequeueMicrotask, Payload: map[string]any{"id": 1, "label": "then(Promise#1)"}},
		{Type: DequeueMacrotask, Payload: map[string]any{"id": 2, "label": "setTimeout(cb)"}},
	}

	afterSchedule := Fold(steps, 2)
	require.Len(t, afterSchedule.Microtasks, 1)
	require.Len(t, afterSchedule.Macrotasks, 1)
	assert.Equal(t, TaskInfo{ID: 1, Label: "then(Promise#1)", Source: "promise"}, afterSchedule.Microtasks[0])
	assert.Equal(t, TaskInfo{ID: 2, Label: "setTimeout(cb)", Source: "timer"}, afterSchedule.Macrotasks[0])

	drained := Fold(steps, -1)
	assert.Empty(t, drained.Microtasks)
	assert.Empty(t, drained.Macrotasks)
}

func TestFoldRemoveTaskByLabel(t *testing.T) {
	// Dequeue payloads without an id fall back to label matching.
	steps := []Step{
		{Type: ScheduleMicrotask, Payload: map[string]any{"label": "a"}},
		{Type: ScheduleMicrotask, Payload: map[string]any{"label": "b"}},
		{Type: DequeueMicrotask, Payload: map[string]any{"label": "a"}},
	}
	st := Fold(steps, -1)
	require.Len(t, st.Microtasks, 1)
	assert.Equal(t, "b", st.Microtasks[0].Label)
}

func TestFoldWebAPIs(t *testing.T) {
	steps := []Step{
		{Type: RegisterWebAPI, Payload: map[string]any{"id": 1, "label": "setTimeout(cb)", "delay": 100}},
		{Type: RegisterWebAPI, Payload: map[string]any{"id": 2, "label": "setInterval(cb)", "delay": 50}},
		{Type: ResolveWebAPI, Payload: map[string]any{"id": 1, "label": "setTimeout(cb)"}},
	}
	st := Fold(steps, -1)
	require.Len(t, st.WebAPIs, 1)
	assert.Equal(t, WebAPIInfo{ID: 2, Label: "setInterval(cb)", Delay: 50}, st.WebAPIs[0])
}

func TestFoldConsoleAndPhase(t *testing.T) {
	steps := []Step{
		{Type: ConsoleLog, Payload: map[string]any{"args": []string{"hello", "1"}, "raw": "hello 1"}},
		{Type: ConsoleWarn, Payload: map[string]any{"args": []string{"careful"}, "raw": "careful"}},
		{Type: ConsoleError, Payload: map[string]any{"args": []string{"boom"}, "raw": "boom"}},
		{Type: EventLoopCheck, Payload: map[string]any{"phase": PhaseMicrotask}},
	}
	st := Fold(steps, -1)
	require.Len(t, st.Console, 3)
	assert.Equal(t, ConsoleLine{Level: "log", Text: "hello 1"}, st.Console[0])
	assert.Equal(t, ConsoleLine{Level: "warn", Text: "careful"}, st.Console[1])
	assert.Equal(t, ConsoleLine{Level: "error", Text: "boom"}, st.Console[2])
	assert.Equal(t, PhaseMicrotask, st.Phase)
}

func TestFoldHighlightAndClock(t *testing.T) {
	steps := []Step{
		{Type: HighlightLine, Line: 3, TimestampMS: 0},
		{Type: HighlightLine, Payload: map[string]any{"line": 9}, TimestampMS: 40},
	}
	st := Fold(steps, -1)
	assert.Equal(t, 9, st.HighlightedLine)
	assert.Equal(t, 40, st.NowMS)
}

// Fold is pure: replaying a prefix must not disturb the input, so later folds
// over the same slice see the original stream.
func TestFoldDoesNotMutateInput(t *testing.T) {
	steps := []Step{
		{Type: PushStack, Payload: map[string]any{"id": 1, "name": "f", "line": 1}},
		{Type: ScheduleMicrotask, Payload: map[string]any{"id": 2, "label": "m"}},
		{Type: DequeueMicrotask, Payload: map[string]any{"id": 2, "label": "m"}},
		{Type: PopStack, Payload: map[string]any{"id": 1}},
	}

	for n := 0; n <= len(steps); n++ {
		Fold(steps, n)
	}
	st := Fold(steps, -1)
	assert.Empty(t, st.Stack)
	assert.Empty(t, st.Microtasks)
	assert.Equal(t, PushStack, steps[0].Type)
	assert.Equal(t, "m", steps[1].Payload["label"])
}

// Integer payloads survive a JSON round trip as float64; the fold accepts
// both.
func TestFoldFloatPayloads(t *testing.T) {
	steps := []Step{
		{Type: PushStack, Payload: map[string]any{"id": float64(3), "name": "g", "line": float64(12)}},
		{Type: RegisterWebAPI, Payload: map[string]any{"id": float64(1), "label": "t", "delay": float64(500)}},
	}
	st := Fold(steps, -1)
	require.Len(t, st.Stack, 1)
	assert.Equal(t, 3, st.Stack[0].ID)
	assert.Equal(t, 12, st.Stack[0].Line)
	require.Len(t, st.WebAPIs, 1)
	assert.Equal(t, 500, st.WebAPIs[0].Delay)
}
