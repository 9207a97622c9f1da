package interp

import (
	"fmt"

	"github.com/dop251/goja/ast"
)

// invoke calls a callable value. Both user and native functions push a stack
// frame; errors unwind past popFrame and rebalance at the recovery boundary.
func (ip *Interp) invoke(callee Value, this Value, args []Value) Value {
	switch {
	case callee.IsNativeFunction():
		nf := callee.AsNativeFunction()
		name := nf.Name()
		if name == "" {
			name = "<anonymous>"
		}
		ip.pushFrame(name, ip.curLine)
		ip.highlightCurrent()
		v, err := nf.fn(ip, this, args)
		if err != nil {
			if ee, ok := err.(EngineError); ok {
				throwErr(ee)
			}
			throwErr(&TypeError{Msg: err.Error()})
		}
		ip.popFrame()
		return v
	case callee.IsFunction():
		fn := callee.AsFunction()
		if fn.isAsync {
			return ip.callAsync(fn, this, args)
		}
		return ip.callSync(fn, this, args)
	default:
		throwErr(&TypeError{Msg: fmt.Sprintf("%s is not a function", callee.ToDisplay())})
		return Undefined
	}
}

func frameName(fn *FunctionObject) string {
	if fn.name != "" {
		return fn.name
	}
	return "<anonymous>"
}

// bindCall sets up the activation scope for a user function call.
func bindCall(fn *FunctionObject, this Value, args []Value) *Scope {
	sc := fn.scope.ChildFunction()
	for i, p := range fn.params {
		v := Undefined
		if i < len(args) {
			v = args[i]
		}
		sc.Define(p, v, BindVar)
	}
	if !fn.isArrow {
		sc.Define("this", this, BindConst)
	}
	return sc
}

func (ip *Interp) checkStackDepth(pos Position) {
	if len(ip.frames) >= CallStackCap {
		throwErr(&RangeError{Position: pos, Msg: "Maximum call stack size exceeded"})
	}
}

func (ip *Interp) callSync(fn *FunctionObject, this Value, args []Value) Value {
	ip.checkStackDepth(Position{Line: fn.line})
	ip.pushFrame(frameName(fn), fn.line)
	sc := bindCall(fn, this, args)
	result := Undefined
	if fn.body == nil {
		result = ip.eval(fn.expr, sc)
	} else {
		ip.hoistFunctions(fn.body.List, sc)
		for _, st := range fn.body.List {
			c := ip.execStmt(st, sc)
			if c.typ == cReturn {
				result = c.value
				break
			}
			if c.typ != cNormal {
				break
			}
		}
	}
	ip.popFrame()
	return result
}

func (ip *Interp) evalArgs(list []ast.Expression, sc *Scope) []Value {
	args := make([]Value, 0, len(list))
	for _, a := range list {
		if spread, ok := a.(*ast.SpreadElement); ok {
			v := ip.eval(spread.Expression, sc)
			if !v.IsArray() {
				throwErr(&TypeError{Position: ip.pos(spread.Idx0()), Msg: "spread source is not an array"})
			}
			args = append(args, v.AsArray().Elements()...)
			continue
		}
		args = append(args, ip.eval(a, sc))
	}
	return args
}

func (ip *Interp) evalCall(x *ast.CallExpression, sc *Scope) Value {
	var callee, this Value
	this = Undefined
	switch target := x.Callee.(type) {
	case *ast.DotExpression:
		this = ip.eval(target.Left, sc)
		callee = ip.getMember(this, target.Identifier.Name.String(), ip.pos(target.Idx0()))
	case *ast.BracketExpression:
		this = ip.eval(target.Left, sc)
		callee = ip.getIndex(this, ip.eval(target.Member, sc), ip.pos(target.Idx0()))
	default:
		callee = ip.eval(x.Callee, sc)
	}
	args := ip.evalArgs(x.ArgumentList, sc)
	if !callee.IsCallable() {
		throwErr(&TypeError{
			Position: ip.pos(x.Idx0()),
			Msg:      fmt.Sprintf("%s is not a function", calleeText(x.Callee)),
		})
	}
	return ip.invoke(callee, this, args)
}

func calleeText(e ast.Expression) string {
	switch t := e.(type) {
	case *ast.Identifier:
		return t.Name.String()
	case *ast.DotExpression:
		return calleeText(t.Left) + "." + t.Identifier.Name.String()
	default:
		return "expression"
	}
}

// evalNew supports `new` with the exposed native constructors (Promise) and
// plain user functions used as constructors. An explicit return value from a
// user constructor is ignored; the fresh object always comes back.
func (ip *Interp) evalNew(x *ast.NewExpression, sc *Scope) Value {
	callee := ip.eval(x.Callee, sc)
	args := ip.evalArgs(x.ArgumentList, sc)
	switch {
	case callee.IsNativeFunction():
		return ip.invoke(callee, Undefined, args)
	case callee.IsFunction():
		this := NewObject(NewPlainObject())
		ip.invoke(callee, this, args)
		return this
	default:
		throwErr(&TypeError{
			Position: ip.pos(x.Idx0()),
			Msg:      fmt.Sprintf("%s is not a constructor", calleeText(x.Callee)),
		})
		return Undefined
	}
}
