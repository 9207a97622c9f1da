package interp

import (
	"fmt"

	"github.com/dop251/goja/ast"
)

// awaitForm describes one of the statement shapes that suspend an async
// function body: a lone `await E;`, a `let x = await E;` declaration, or a
// `return await E;`.
type awaitForm struct {
	arg      ast.Expression
	bind     string
	kind     BindingKind
	isReturn bool
	pos      Position
}

func (ip *Interp) matchAwaitForm(st ast.Statement) *awaitForm {
	switch s := st.(type) {
	case *ast.ExpressionStatement:
		if aw, ok := s.Expression.(*ast.AwaitExpression); ok {
			return &awaitForm{arg: aw.Argument, pos: ip.pos(aw.Idx0())}
		}
	case *ast.VariableStatement:
		if len(s.List) == 1 {
			if aw, ok := initializerAwait(s.List[0]); ok {
				return &awaitForm{
					arg:  aw.Argument,
					bind: bindingName(s.List[0].Target),
					kind: BindVar,
					pos:  ip.pos(aw.Idx0()),
				}
			}
		}
	case *ast.LexicalDeclaration:
		if len(s.List) == 1 {
			if aw, ok := initializerAwait(s.List[0]); ok {
				return &awaitForm{
					arg:  aw.Argument,
					bind: bindingName(s.List[0].Target),
					kind: lexicalKind(s.Token),
					pos:  ip.pos(aw.Idx0()),
				}
			}
		}
	case *ast.ReturnStatement:
		if s.Argument != nil {
			if aw, ok := s.Argument.(*ast.AwaitExpression); ok {
				return &awaitForm{arg: aw.Argument, isReturn: true, pos: ip.pos(aw.Idx0())}
			}
		}
	}
	return nil
}

func initializerAwait(b *ast.Binding) (*ast.AwaitExpression, bool) {
	if b.Initializer == nil {
		return nil, false
	}
	aw, ok := b.Initializer.(*ast.AwaitExpression)
	return aw, ok
}

// callAsync runs an async function: the body executes synchronously up to
// the first suspension point and the returned promise settles later from a
// microtask.
func (ip *Interp) callAsync(fn *FunctionObject, this Value, args []Value) Value {
	ip.checkStackDepth(Position{Line: fn.line})
	p := NewPromise(ip)
	name := frameName(fn)
	sc := bindCall(fn, this, args)
	depth := len(ip.frames)
	func() {
		defer func() {
			if r := recover(); r != nil {
				ee, ok := r.(EngineError)
				if !ok {
					panic(r)
				}
				ip.unwindTo(depth)
				p.Reject(errValue(ee))
			}
		}()
		ip.pushFrame(name, fn.line)
		if fn.body == nil {
			v := ip.eval(fn.expr, sc)
			ip.popFrame()
			p.Resolve(v)
			return
		}
		ip.hoistFunctions(fn.body.List, sc)
		ip.runAsyncBody(name, fn.body.List, sc, p)
	}()
	return newPromiseValue(p)
}

// runAsyncBody executes statements until completion or the next suspension
// point. It owns the frame pushed by its caller and pops it before returning.
func (ip *Interp) runAsyncBody(name string, stmts []ast.Statement, sc *Scope, p *PromiseObject) {
	for i, st := range stmts {
		if info := ip.matchAwaitForm(st); info != nil {
			ip.highlight(st.Idx0())
			ip.suspend(name, info, stmts[i+1:], sc, p)
			return
		}
		c := ip.execStmt(st, sc)
		if c.typ == cReturn {
			ip.popFrame()
			p.Resolve(c.value)
			return
		}
		if c.typ != cNormal {
			break
		}
	}
	ip.popFrame()
	p.Resolve(Undefined)
}

// suspend evaluates the awaited expression, announces the resumption
// microtask, and unwinds the frame. The task is enqueued only when the
// awaited promise settles.
func (ip *Interp) suspend(name string, info *awaitForm, rest []ast.Statement, sc *Scope, p *PromiseObject) {
	v := ip.eval(info.arg, sc)
	if !v.IsPromise() {
		v = ResolvedPromise(ip, v)
	}
	awaited := v.AsPromise()
	t := ip.sched.NewMicrotask(fmt.Sprintf("resume %s", name), SourcePromise, nil)
	t.fn = func() { ip.resumeAsync(name, info, awaited, rest, sc, p) }
	ip.sched.AnnounceMicrotask(t)
	awaited.WhenSettled(t)
	ip.popFrame()
}

func (ip *Interp) resumeAsync(name string, info *awaitForm, awaited *PromiseObject, rest []ast.Statement, sc *Scope, p *PromiseObject) {
	depth := len(ip.frames)
	defer func() {
		if r := recover(); r != nil {
			ee, ok := r.(EngineError)
			if !ok {
				panic(r)
			}
			ip.unwindTo(depth)
			p.Reject(errValue(ee))
		}
	}()
	ip.pushFrame(name, info.pos.Line)
	if awaited.State() == Rejected {
		throwErr(&ThrownError{Position: info.pos, Value: awaited.Result()})
	}
	v := awaited.Result()
	if info.isReturn {
		ip.popFrame()
		p.Resolve(v)
		return
	}
	if info.bind != "" {
		sc.Define(info.bind, v, info.kind)
	}
	ip.runAsyncBody(name, rest, sc, p)
}

// awaitSync handles await in expression position, where the interpreter
// cannot suspend. Settled promises read out synchronously; pending ones
// produce undefined.
func (ip *Interp) awaitSync(x *ast.AwaitExpression, sc *Scope) Value {
	v := ip.eval(x.Argument, sc)
	if !v.IsPromise() {
		return v
	}
	p := v.AsPromise()
	switch p.State() {
	case Fulfilled:
		return p.Result()
	case Rejected:
		p.markHandled()
		throwErr(&ThrownError{Position: ip.pos(x.Idx0()), Value: p.Result()})
		return Undefined
	default:
		return Undefined
	}
}
