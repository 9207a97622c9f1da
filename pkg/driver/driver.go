// Package driver wires the parser, engine, and builtins into a single entry
// point: hand it source text, get back the full step trace plus console
// output and errors.
package driver

import (
	"github.com/dop251/goja/parser"
	"github.com/npillmayer/schuko/tracing"

	"jsloop/pkg/builtins"
	"jsloop/pkg/interp"
	"jsloop/pkg/trace"
)

func tracer() tracing.Trace {
	return tracing.Select("jsloop.driver")
}

// Option configures a session.
type Option func(*Session)

// WithMode selects the event loop model. The default is the browser loop.
func WithMode(mode interp.Mode) Option {
	return func(s *Session) { s.mode = mode }
}

// Session runs programs. Each Run is fully isolated: ids, virtual time, and
// queues reset, so the same source always yields the same trace.
type Session struct {
	mode interp.Mode
}

// New creates a session.
func New(opts ...Option) *Session {
	s := &Session{mode: interp.ModeBrowser}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is everything observable about one run.
type Result struct {
	Steps   []trace.Step
	Console []interp.ConsoleEntry
	Errors  []interp.EngineError
	Halted  bool
}

// Run parses and executes src to quiescence. A parse failure produces a
// single-error result with an empty step stream apart from the error step.
func (s *Session) Run(src string) *Result {
	rec := trace.NewRecorder(nil)
	ip := interp.NewInterp(rec, s.mode)
	if err := builtins.InstallAll(ip); err != nil {
		tracer().Errorf("builtin install failed: %v", err)
		ip.ReportError(&interp.TypeError{Msg: err.Error()})
		return resultOf(rec, ip)
	}

	prog, err := parser.ParseFile(nil, "main.js", src, 0)
	if err != nil {
		ip.ReportError(syntaxError(err))
		return resultOf(rec, ip)
	}

	ip.RunProgram(prog)
	return resultOf(rec, ip)
}

func resultOf(rec *trace.Recorder, ip *interp.Interp) *Result {
	return &Result{
		Steps:   rec.Steps(),
		Console: ip.Console(),
		Errors:  ip.Errors(),
		Halted:  ip.Halted(),
	}
}

func syntaxError(err error) *interp.SyntaxError {
	pos := interp.Position{Line: 1, Column: 1}
	msg := err.Error()
	if list, ok := err.(parser.ErrorList); ok && len(list) > 0 {
		pos = interp.Position{Line: list[0].Position.Line, Column: list[0].Position.Column}
		msg = list[0].Message
	}
	return &interp.SyntaxError{Position: pos, Msg: msg}
}
