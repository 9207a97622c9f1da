package interp

import (
	"github.com/dop251/goja/ast"
)

// completionType classifies how a statement finished.
type completionType int

const (
	cNormal completionType = iota
	cReturn
	cBreak
	cContinue
)

// completion is the result of executing one statement. Engine errors do not
// travel through completions; they propagate as panics recovered at task,
// call, and try boundaries.
type completion struct {
	typ   completionType
	value Value
	label string
}

var normal = completion{typ: cNormal}

// CallStackCap bounds synchronous recursion depth.
const CallStackCap = 1000

// RunProgram executes a parsed script: the synchronous top-level code first,
// then the event loop until quiescence or a safety cap.
func (ip *Interp) RunProgram(prog *ast.Program) {
	ip.src = prog.File
	tracer().Debugf("run start: mode=%s statements=%d", ip.mode, len(prog.Body))

	ip.runTask(&QueuedTask{Label: "<global>", fn: func() {
		ip.pushFrame("<global>", 1)
		ip.hoistFunctions(prog.Body, ip.global)
		for _, st := range prog.Body {
			c := ip.execStmt(st, ip.global)
			if c.typ != cNormal {
				break
			}
		}
		ip.popFrame()
	}})

	ip.sched.Run()
	if ov := ip.sched.Overflow(); ov != nil {
		ip.reportError(ov)
	}
	ip.flushRejections()
	tracer().Debugf("run done: steps=%d errors=%d", ip.rec.Len(), len(ip.errs))
}

// hoistFunctions predeclares function declarations so calls may precede the
// declaration textually.
func (ip *Interp) hoistFunctions(stmts []ast.Statement, sc *Scope) {
	for _, st := range stmts {
		decl, ok := st.(*ast.FunctionDeclaration)
		if !ok {
			continue
		}
		fn := ip.makeFunction(decl.Function, sc)
		name := ""
		if decl.Function.Name != nil {
			name = decl.Function.Name.Name.String()
		}
		if name != "" {
			sc.Define(name, fn, BindVar)
		}
	}
}

// execBlock runs a statement list in a fresh block scope.
func (ip *Interp) execBlock(stmts []ast.Statement, parent *Scope) completion {
	sc := parent.Child()
	ip.hoistFunctions(stmts, sc)
	for _, st := range stmts {
		c := ip.execStmt(st, sc)
		if c.typ != cNormal {
			return c
		}
	}
	return normal
}
