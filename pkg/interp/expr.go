package interp

import (
	"fmt"

	"github.com/dop251/goja/ast"
)

func (ip *Interp) eval(e ast.Expression, sc *Scope) Value {
	switch x := e.(type) {
	case *ast.Identifier:
		v, ok := sc.Get(x.Name.String())
		if !ok {
			throwErr(&ReferenceError{
				Position: ip.pos(x.Idx0()),
				Msg:      fmt.Sprintf("%s is not defined", x.Name.String()),
			})
		}
		return v
	case *ast.NumberLiteral:
		switch n := x.Value.(type) {
		case int64:
			return NumberValue(float64(n))
		case float64:
			return NumberValue(n)
		default:
			return NaN
		}
	case *ast.StringLiteral:
		return NewString(x.Value.String())
	case *ast.BooleanLiteral:
		return BooleanValue(x.Value)
	case *ast.NullLiteral:
		return Null
	case *ast.TemplateLiteral:
		return ip.evalTemplate(x, sc)
	case *ast.ArrayLiteral:
		return ip.evalArrayLiteral(x, sc)
	case *ast.ObjectLiteral:
		return ip.evalObjectLiteral(x, sc)
	case *ast.ThisExpression:
		if v, ok := sc.Get("this"); ok {
			return v
		}
		return Undefined
	case *ast.FunctionLiteral:
		return ip.makeFunction(x, sc)
	case *ast.ArrowFunctionLiteral:
		return ip.makeArrow(x, sc)
	case *ast.BinaryExpression:
		return ip.evalBinary(x, sc)
	case *ast.AssignExpression:
		return ip.evalAssign(x, sc)
	case *ast.UnaryExpression:
		return ip.evalUnary(x, sc)
	case *ast.ConditionalExpression:
		if ip.eval(x.Test, sc).IsTruthy() {
			return ip.eval(x.Consequent, sc)
		}
		return ip.eval(x.Alternate, sc)
	case *ast.SequenceExpression:
		v := Undefined
		for _, sub := range x.Sequence {
			v = ip.eval(sub, sc)
		}
		return v
	case *ast.CallExpression:
		return ip.evalCall(x, sc)
	case *ast.NewExpression:
		return ip.evalNew(x, sc)
	case *ast.DotExpression:
		return ip.getMember(ip.eval(x.Left, sc), x.Identifier.Name.String(), ip.pos(x.Idx0()))
	case *ast.BracketExpression:
		return ip.getIndex(ip.eval(x.Left, sc), ip.eval(x.Member, sc), ip.pos(x.Idx0()))
	case *ast.AwaitExpression:
		return ip.awaitSync(x, sc)
	default:
		throwErr(&SyntaxError{
			Position: ip.pos(e.Idx0()),
			Msg:      fmt.Sprintf("unsupported expression %T", e),
		})
		return Undefined
	}
}

func (ip *Interp) evalTemplate(x *ast.TemplateLiteral, sc *Scope) Value {
	if x.Tag != nil {
		throwErr(&SyntaxError{Position: ip.pos(x.Idx0()), Msg: "tagged templates are not supported"})
	}
	out := ""
	for i, el := range x.Elements {
		out += el.Parsed.String()
		if i < len(x.Expressions) {
			out += ip.eval(x.Expressions[i], sc).ToDisplay()
		}
	}
	return NewString(out)
}

func (ip *Interp) evalArrayLiteral(x *ast.ArrayLiteral, sc *Scope) Value {
	elems := make([]Value, 0, len(x.Value))
	for _, e := range x.Value {
		if e == nil {
			elems = append(elems, Undefined)
			continue
		}
		if spread, ok := e.(*ast.SpreadElement); ok {
			v := ip.eval(spread.Expression, sc)
			if !v.IsArray() {
				throwErr(&TypeError{Position: ip.pos(spread.Idx0()), Msg: "spread source is not an array"})
			}
			elems = append(elems, v.AsArray().Elements()...)
			continue
		}
		elems = append(elems, ip.eval(e, sc))
	}
	return NewArray(elems...)
}

func (ip *Interp) evalObjectLiteral(x *ast.ObjectLiteral, sc *Scope) Value {
	obj := NewPlainObject()
	for _, prop := range x.Value {
		switch p := prop.(type) {
		case *ast.PropertyShort:
			name := p.Name.Name.String()
			v, ok := sc.Get(name)
			if !ok {
				throwErr(&ReferenceError{
					Position: ip.pos(p.Name.Idx0()),
					Msg:      fmt.Sprintf("%s is not defined", name),
				})
			}
			obj.Set(name, v)
		case *ast.PropertyKeyed:
			key := ip.propertyKey(p, sc)
			obj.Set(key, ip.eval(p.Value, sc))
		case *ast.SpreadElement:
			v := ip.eval(p.Expression, sc)
			if v.IsObject() {
				src := v.AsObject()
				for _, k := range src.Keys() {
					pv, _ := src.Get(k)
					obj.Set(k, pv)
				}
			}
		default:
			throwErr(&SyntaxError{Position: ip.pos(x.Idx0()), Msg: "unsupported object property"})
		}
	}
	return NewObject(obj)
}

func (ip *Interp) propertyKey(p *ast.PropertyKeyed, sc *Scope) string {
	if p.Computed {
		return ip.eval(p.Key, sc).ToDisplay()
	}
	switch k := p.Key.(type) {
	case *ast.StringLiteral:
		return k.Value.String()
	case *ast.NumberLiteral:
		return ip.eval(k, sc).ToDisplay()
	case *ast.Identifier:
		return k.Name.String()
	default:
		return ip.eval(p.Key, sc).ToDisplay()
	}
}

func paramNames(pl *ast.ParameterList) []string {
	if pl == nil {
		return nil
	}
	names := make([]string, 0, len(pl.List))
	for _, b := range pl.List {
		names = append(names, bindingName(b.Target))
	}
	return names
}

func (ip *Interp) makeFunction(lit *ast.FunctionLiteral, sc *Scope) Value {
	name := ""
	if lit.Name != nil {
		name = lit.Name.Name.String()
	}
	return newFunctionValue(&FunctionObject{
		name:    name,
		params:  paramNames(lit.ParameterList),
		body:    lit.Body,
		scope:   sc,
		isAsync: lit.Async,
		line:    ip.pos(lit.Idx0()).Line,
	})
}

func (ip *Interp) makeArrow(lit *ast.ArrowFunctionLiteral, sc *Scope) Value {
	fn := &FunctionObject{
		params:  paramNames(lit.ParameterList),
		scope:   sc,
		isAsync: lit.Async,
		isArrow: true,
		line:    ip.pos(lit.Idx0()).Line,
	}
	switch body := lit.Body.(type) {
	case *ast.BlockStatement:
		fn.body = body
	case *ast.ExpressionBody:
		fn.expr = body.Expression
	default:
		throwErr(&SyntaxError{Position: ip.pos(lit.Idx0()), Msg: "unsupported arrow body"})
	}
	return newFunctionValue(fn)
}
