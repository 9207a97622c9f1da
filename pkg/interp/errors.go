package interp

import "fmt"

// Position is a 1-based source location.
type Position struct {
	Line   int
	Column int
}

// EngineError is the interface implemented by every error the simulator can
// surface. All of them end up as CONSOLE_ERROR steps and entries in the
// run's error list; none of them panic the host.
type EngineError interface {
	error
	Pos() Position
	Kind() string // "Syntax", "Reference", "Type", "Range", "Thrown", "Overflow"
	// Message returns the error message without position info.
	Message() string
}

// SyntaxError reports a parse failure. It carries the position the parser
// reported and stops the run at step 0.
type SyntaxError struct {
	Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }

// ReferenceError reports a read of an identifier that is not in scope, or an
// assignment to one. Lookups under typeof are exempt.
type ReferenceError struct {
	Position
	Msg string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("ReferenceError: %s", e.Msg)
}
func (e *ReferenceError) Pos() Position   { return e.Position }
func (e *ReferenceError) Kind() string    { return "Reference" }
func (e *ReferenceError) Message() string { return e.Msg }

// TypeError reports calling a non-function, assigning to a const binding, or
// reading a property of undefined/null.
type TypeError struct {
	Position
	Msg string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("TypeError: %s", e.Msg)
}
func (e *TypeError) Pos() Position   { return e.Position }
func (e *TypeError) Kind() string    { return "Type" }
func (e *TypeError) Message() string { return e.Msg }

// RangeError reports an exceeded loop iteration guard or call stack cap, or an
// out-of-range argument to a builtin.
type RangeError struct {
	Position
	Msg string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("RangeError: %s", e.Msg)
}
func (e *RangeError) Pos() Position   { return e.Position }
func (e *RangeError) Kind() string    { return "Range" }
func (e *RangeError) Message() string { return e.Msg }

// ThrownError wraps a user `throw`. If a try/catch catches it, it never
// surfaces; uncaught, its value is stringified into the error list.
type ThrownError struct {
	Position
	Value Value
}

func (e *ThrownError) Error() string {
	return fmt.Sprintf("Uncaught %s", e.Value.ToDisplay())
}
func (e *ThrownError) Pos() Position   { return e.Position }
func (e *ThrownError) Kind() string    { return "Thrown" }
func (e *ThrownError) Message() string { return e.Value.ToDisplay() }

// OverflowError reports a hit scheduler safety cap (outer loop iterations or
// microtasks per drain). The partial trace is still returned.
type OverflowError struct {
	Msg string
}

func (e *OverflowError) Error() string   { return e.Msg }
func (e *OverflowError) Pos() Position   { return Position{} }
func (e *OverflowError) Kind() string    { return "Overflow" }
func (e *OverflowError) Message() string { return e.Msg }

// throwErr raises an EngineError through the host exception mechanism. The
// interpreter recovers it at statement, call, and task boundaries.
func throwErr(err EngineError) {
	panic(err)
}
