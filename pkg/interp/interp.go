// Package interp implements the simulated JavaScript engine: a tree-walking
// interpreter over the goja AST plus the dual-mode event loop scheduler. Every
// observable effect of a run is emitted into a trace.Recorder so hosts can
// replay execution step by step.
package interp

import (
	"fmt"

	"github.com/dop251/goja/file"
	"github.com/npillmayer/schuko/tracing"

	"jsloop/pkg/trace"
)

// tracer writes to the global "jsloop.interp" trace.
func tracer() tracing.Trace {
	return tracing.Select("jsloop.interp")
}

// ConsoleEntry is one line of captured console output.
type ConsoleEntry struct {
	Level string // "log", "warn", "error"
	Text  string
}

type frame struct {
	id   int
	name string
}

// Interp holds all per-run engine state. A fresh Interp is created for every
// run; ids, clock, and queues never leak between runs.
type Interp struct {
	rec    *trace.Recorder
	sched  *Scheduler
	global *Scope
	mode   Mode
	src    *file.File

	frames        []frame
	nextFrameID   int
	nextPromiseID int
	curLine       int
	curCol        int

	console    []ConsoleEntry
	errs       []EngineError
	rejections []*PromiseObject
	halted     bool
}

// NewInterp builds an engine around a recorder. The caller installs globals
// (builtins) before running a program.
func NewInterp(rec *trace.Recorder, mode Mode) *Interp {
	ip := &Interp{
		rec:    rec,
		mode:   mode,
		global: NewScope(nil, true),
	}
	ip.sched = NewScheduler(rec, mode, ip.runTask)
	return ip
}

// Mode reports which event loop model this engine runs.
func (ip *Interp) Mode() Mode { return ip.mode }

// Scheduler exposes the engine's scheduler to builtin initializers.
func (ip *Interp) Scheduler() *Scheduler { return ip.sched }

// Global exposes the global scope to builtin initializers.
func (ip *Interp) Global() *Scope { return ip.global }

// Recorder exposes the step recorder.
func (ip *Interp) Recorder() *trace.Recorder { return ip.rec }

// Console returns the captured console output in emission order.
func (ip *Interp) Console() []ConsoleEntry { return ip.console }

// Errors returns every error surfaced during the run.
func (ip *Interp) Errors() []EngineError { return ip.errs }

// Halted reports whether a safety cap aborted the run.
func (ip *Interp) Halted() bool { return ip.halted }

func (ip *Interp) pos(idx file.Idx) Position {
	if ip.src == nil || idx == 0 {
		return Position{}
	}
	p := ip.src.Position(int(idx))
	return Position{Line: p.Line, Column: p.Column}
}

// pushFrame records a call-stack push and returns the frame id.
func (ip *Interp) pushFrame(name string, line int) int {
	ip.nextFrameID++
	id := ip.nextFrameID
	ip.frames = append(ip.frames, frame{id: id, name: name})
	ip.rec.Emit(trace.PushStack, map[string]any{"id": id, "name": name, "line": line})
	return id
}

// popFrame records a call-stack pop.
func (ip *Interp) popFrame() {
	if len(ip.frames) == 0 {
		return
	}
	top := ip.frames[len(ip.frames)-1]
	ip.frames = ip.frames[:len(ip.frames)-1]
	ip.rec.Emit(trace.PopStack, map[string]any{"id": top.id, "name": top.name})
}

// unwindTo pops frames until the stack is back at depth. Error recovery uses
// it so push and pop steps stay balanced.
func (ip *Interp) unwindTo(depth int) {
	for len(ip.frames) > depth {
		ip.popFrame()
	}
}

// highlight emits a HIGHLIGHT_LINE step for the statement at idx.
func (ip *Interp) highlight(idx file.Idx) {
	p := ip.pos(idx)
	if p.Line == 0 {
		return
	}
	ip.curLine, ip.curCol = p.Line, p.Column
	ip.rec.EmitAt(trace.HighlightLine, map[string]any{"line": p.Line}, p.Line, p.Column)
}

// highlightCurrent re-emits the highlight for the line being executed, used
// when a call enters a frame that has no statements of its own.
func (ip *Interp) highlightCurrent() {
	if ip.curLine == 0 {
		return
	}
	ip.rec.EmitAt(trace.HighlightLine, map[string]any{"line": ip.curLine}, ip.curLine, ip.curCol)
}

// emitConsole records one console line as both a step and a captured entry.
func (ip *Interp) emitConsole(level string, parts []string) {
	text := ""
	for i, p := range parts {
		if i > 0 {
			text += " "
		}
		text += p
	}
	var typ trace.StepType
	switch level {
	case "warn":
		typ = trace.ConsoleWarn
	case "error":
		typ = trace.ConsoleError
	default:
		level = "log"
		typ = trace.ConsoleLog
	}
	ip.rec.Emit(typ, map[string]any{"args": parts, "raw": text})
	ip.console = append(ip.console, ConsoleEntry{Level: level, Text: text})
}

// reportError surfaces an engine error: a CONSOLE_ERROR step, a console
// entry, and an entry in the run's error list. Overflow errors also halt the
// run.
func (ip *Interp) reportError(err EngineError) {
	text := err.Error()
	switch err.(type) {
	case *ThrownError, *OverflowError:
	default:
		text = "Uncaught " + text
	}
	tracer().Errorf("run error: %s", text)
	ip.rec.Emit(trace.ConsoleError, map[string]any{"args": []string{text}, "raw": text})
	ip.console = append(ip.console, ConsoleEntry{Level: "error", Text: text})
	ip.errs = append(ip.errs, err)
	if _, ok := err.(*OverflowError); ok {
		ip.halted = true
	}
}

// ReportError surfaces an engine error from host code, such as a parse
// failure before execution starts.
func (ip *Interp) ReportError(err EngineError) {
	ip.reportError(err)
}

// runTask executes one queued task body. Engine errors thrown inside the
// task are recovered here, the task boundary, with the stack unwound to the
// depth it had on entry.
func (ip *Interp) runTask(t *QueuedTask) {
	if ip.halted {
		return
	}
	depth := len(ip.frames)
	defer func() {
		if rec := recover(); rec != nil {
			ee, ok := rec.(EngineError)
			if !ok {
				panic(rec)
			}
			ip.unwindTo(depth)
			ip.reportError(ee)
		}
	}()
	t.fn()
}

func (ip *Interp) trackRejection(p *PromiseObject) {
	for _, q := range ip.rejections {
		if q == p {
			return
		}
	}
	ip.rejections = append(ip.rejections, p)
}

func (ip *Interp) untrackRejection(p *PromiseObject) {
	for i, q := range ip.rejections {
		if q == p {
			ip.rejections = append(ip.rejections[:i], ip.rejections[i+1:]...)
			return
		}
	}
}

// flushRejections reports promises still rejected and unhandled once the
// event loop has gone idle.
func (ip *Interp) flushRejections() {
	for _, p := range ip.rejections {
		if p.handled || p.state != Rejected {
			continue
		}
		text := fmt.Sprintf("Uncaught (in promise) %s", p.result.ToDisplay())
		ip.rec.Emit(trace.ConsoleError, map[string]any{"args": []string{text}, "raw": text})
		ip.console = append(ip.console, ConsoleEntry{Level: "error", Text: text})
		ip.errs = append(ip.errs, &ThrownError{Value: p.result})
	}
	ip.rejections = nil
}
