package trace

// FrameInfo is one call-stack entry as seen by a replaying host.
type FrameInfo struct {
	ID   int
	Name string
	Line int
}

// TaskInfo is one queued task (micro or macro) as seen by a replaying host.
type TaskInfo struct {
	ID     int
	Label  string
	Source string
}

// WebAPIInfo is one in-flight timer registration.
type WebAPIInfo struct {
	ID    int
	Label string
	Delay int
}

// ConsoleLine is one console entry reconstructed from a CONSOLE_* step.
type ConsoleLine struct {
	Level string // "log", "warn", "error"
	Text  string
}

// State is the visual state of the simulation after applying a prefix of the
// step stream. It is what a teaching UI renders.
type State struct {
	Stack           []FrameInfo
	Microtasks      []TaskInfo
	Macrotasks      []TaskInfo
	WebAPIs         []WebAPIInfo
	Console         []ConsoleLine
	HighlightedLine int
	Phase           string
	NowMS           int
}

// Fold replays the first n steps of the stream and returns the reconstructed
// state. Passing n >= len(steps) (or n < 0) folds the whole stream. The fold
// is pure: it never mutates the input.
func Fold(steps []Step, n int) State {
	if n < 0 || n > len(steps) {
		n = len(steps)
	}
	var st State
	for i := 0; i < n; i++ {
		applyStep(&st, steps[i])
	}
	return st
}

func applyStep(st *State, s Step) {
	st.NowMS = s.TimestampMS
	switch s.Type {
	case PushStack:
		st.Stack = append(st.Stack, FrameInfo{
			ID:   payloadInt(s.Payload, "id"),
			Name: payloadString(s.Payload, "name"),
			Line: payloadInt(s.Payload, "line"),
		})
	case PopStack:
		if len(st.Stack) > 0 {
			st.Stack = st.Stack[:len(st.Stack)-1]
		}
	case HighlightLine:
		if s.Line != 0 {
			st.HighlightedLine = s.Line
		} else {
			st.HighlightedLine = payloadInt(s.Payload, "line")
		}
	case ScheduleMicrotask:
		st.Microtasks = append(st.Microtasks, taskInfo(s.Payload))
	case DequeueMicrotask:
		st.Microtasks = removeTask(st.Microtasks, s.Payload)
	case ScheduleMacrotask:
		st.Macrotasks = append(st.Macrotasks, taskInfo(s.Payload))
	case DequeueMacrotask:
		st.Macrotasks = removeTask(st.Macrotasks, s.Payload)
	case RegisterWebAPI:
		st.WebAPIs = append(st.WebAPIs, WebAPIInfo{
			ID:    payloadInt(s.Payload, "id"),
			Label: payloadString(s.Payload, "label"),
			Delay: payloadInt(s.Payload, "delay"),
		})
	case ResolveWebAPI:
		id := payloadInt(s.Payload, "id")
		kept := st.WebAPIs[:0:0]
		for _, w := range st.WebAPIs {
			if w.ID != id {
				kept = append(kept, w)
			}
		}
		st.WebAPIs = kept
	case EventLoopCheck:
		st.Phase = payloadString(s.Payload, "phase")
	case ConsoleLog:
		st.Console = append(st.Console, ConsoleLine{Level: "log", Text: consoleText(s.Payload)})
	case ConsoleWarn:
		st.Console = append(st.Console, ConsoleLine{Level: "warn", Text: consoleText(s.Payload)})
	case ConsoleError:
		st.Console = append(st.Console, ConsoleLine{Level: "error", Text: consoleText(s.Payload)})
	}
}

func taskInfo(p map[string]any) TaskInfo {
	return TaskInfo{
		ID:     payloadInt(p, "id"),
		Label:  payloadString(p, "label"),
		Source: payloadString(p, "source"),
	}
}

// removeTask drops the queued task matching the dequeue payload, matching by
// id when present and by label otherwise.
func removeTask(tasks []TaskInfo, p map[string]any) []TaskInfo {
	id := payloadInt(p, "id")
	label := payloadString(p, "label")
	for i, t := range tasks {
		if (id != 0 && t.ID == id) || (id == 0 && t.Label == label) {
			return append(tasks[:i:i], tasks[i+1:]...)
		}
	}
	return tasks
}

func consoleText(p map[string]any) string {
	args, ok := p["args"].([]string)
	if !ok {
		return payloadString(p, "raw")
	}
	text := ""
	for i, a := range args {
		if i > 0 {
			text += " "
		}
		text += a
	}
	return text
}

func payloadInt(p map[string]any, key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func payloadString(p map[string]any, key string) string {
	if p == nil {
		return ""
	}
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}
