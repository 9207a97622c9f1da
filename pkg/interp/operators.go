package interp

import (
	"fmt"
	"math"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

func (ip *Interp) evalBinary(x *ast.BinaryExpression, sc *Scope) Value {
	switch x.Operator {
	case token.LOGICAL_AND:
		l := ip.eval(x.Left, sc)
		if l.IsFalsey() {
			return l
		}
		return ip.eval(x.Right, sc)
	case token.LOGICAL_OR:
		l := ip.eval(x.Left, sc)
		if l.IsTruthy() {
			return l
		}
		return ip.eval(x.Right, sc)
	case token.COALESCE:
		l := ip.eval(x.Left, sc)
		if !l.IsUndefined() && !l.IsNull() {
			return l
		}
		return ip.eval(x.Right, sc)
	}
	l := ip.eval(x.Left, sc)
	r := ip.eval(x.Right, sc)
	return ip.binaryOp(x.Operator, l, r, ip.pos(x.Idx0()))
}

func (ip *Interp) binaryOp(op token.Token, l, r Value, pos Position) Value {
	switch op {
	case token.PLUS:
		if l.IsString() || r.IsString() || l.IsArray() || r.IsArray() || l.IsObject() || r.IsObject() {
			return NewString(l.ToDisplay() + r.ToDisplay())
		}
		return NumberValue(l.ToFloat() + r.ToFloat())
	case token.MINUS:
		return NumberValue(l.ToFloat() - r.ToFloat())
	case token.MULTIPLY:
		return NumberValue(l.ToFloat() * r.ToFloat())
	case token.SLASH:
		return NumberValue(l.ToFloat() / r.ToFloat())
	case token.REMAINDER:
		return NumberValue(math.Mod(l.ToFloat(), r.ToFloat()))
	case token.AND:
		return NumberValue(float64(l.ToInt32() & r.ToInt32()))
	case token.OR:
		return NumberValue(float64(l.ToInt32() | r.ToInt32()))
	case token.EXCLUSIVE_OR:
		return NumberValue(float64(l.ToInt32() ^ r.ToInt32()))
	case token.SHIFT_LEFT:
		return NumberValue(float64(l.ToInt32() << (uint32(r.ToInt32()) & 31)))
	case token.SHIFT_RIGHT:
		return NumberValue(float64(l.ToInt32() >> (uint32(r.ToInt32()) & 31)))
	case token.UNSIGNED_SHIFT_RIGHT:
		return NumberValue(float64(uint32(l.ToInt32()) >> (uint32(r.ToInt32()) & 31)))
	case token.EQUAL:
		return BooleanValue(l.Equals(r))
	case token.NOT_EQUAL:
		return BooleanValue(!l.Equals(r))
	case token.STRICT_EQUAL:
		return BooleanValue(l.StrictlyEquals(r))
	case token.STRICT_NOT_EQUAL:
		return BooleanValue(!l.StrictlyEquals(r))
	case token.LESS:
		if l.IsString() && r.IsString() {
			return BooleanValue(l.AsString() < r.AsString())
		}
		return BooleanValue(l.ToFloat() < r.ToFloat())
	case token.GREATER:
		if l.IsString() && r.IsString() {
			return BooleanValue(l.AsString() > r.AsString())
		}
		return BooleanValue(l.ToFloat() > r.ToFloat())
	case token.LESS_OR_EQUAL:
		if l.IsString() && r.IsString() {
			return BooleanValue(l.AsString() <= r.AsString())
		}
		return BooleanValue(l.ToFloat() <= r.ToFloat())
	case token.GREATER_OR_EQUAL:
		if l.IsString() && r.IsString() {
			return BooleanValue(l.AsString() >= r.AsString())
		}
		return BooleanValue(l.ToFloat() >= r.ToFloat())
	case token.INSTANCEOF:
		// No prototype chains in the simulated language, so nothing is ever
		// an instance of anything.
		return False
	default:
		throwErr(&SyntaxError{Position: pos, Msg: fmt.Sprintf("unsupported operator %s", op.String())})
		return Undefined
	}
}

func (ip *Interp) evalUnary(x *ast.UnaryExpression, sc *Scope) Value {
	switch x.Operator {
	case token.INCREMENT, token.DECREMENT:
		return ip.evalIncDec(x, sc)
	case token.TYPEOF:
		if id, ok := x.Operand.(*ast.Identifier); ok {
			if v, found := sc.Get(id.Name.String()); found {
				return NewString(v.TypeName())
			}
			return NewString("undefined")
		}
		return NewString(ip.eval(x.Operand, sc).TypeName())
	case token.DELETE:
		return ip.evalDelete(x, sc)
	case token.VOID:
		ip.eval(x.Operand, sc)
		return Undefined
	case token.NOT:
		return BooleanValue(ip.eval(x.Operand, sc).IsFalsey())
	case token.MINUS:
		return NumberValue(-ip.eval(x.Operand, sc).ToFloat())
	case token.PLUS:
		return NumberValue(ip.eval(x.Operand, sc).ToFloat())
	case token.BITWISE_NOT:
		return NumberValue(float64(^ip.eval(x.Operand, sc).ToInt32()))
	default:
		throwErr(&SyntaxError{
			Position: ip.pos(x.Idx0()),
			Msg:      fmt.Sprintf("unsupported unary operator %s", x.Operator.String()),
		})
		return Undefined
	}
}

func (ip *Interp) evalIncDec(x *ast.UnaryExpression, sc *Scope) Value {
	old := ip.eval(x.Operand, sc).ToFloat()
	delta := 1.0
	if x.Operator == token.DECREMENT {
		delta = -1.0
	}
	nv := NumberValue(old + delta)
	ip.assignTo(x.Operand, nv, sc)
	if x.Postfix {
		return NumberValue(old)
	}
	return nv
}

func (ip *Interp) evalDelete(x *ast.UnaryExpression, sc *Scope) Value {
	switch t := x.Operand.(type) {
	case *ast.DotExpression:
		obj := ip.eval(t.Left, sc)
		if obj.IsObject() {
			obj.AsObject().Delete(t.Identifier.Name.String())
		}
		return True
	case *ast.BracketExpression:
		obj := ip.eval(t.Left, sc)
		key := ip.eval(t.Member, sc)
		if obj.IsObject() {
			obj.AsObject().Delete(key.ToDisplay())
		}
		return True
	default:
		return True
	}
}

func (ip *Interp) evalAssign(x *ast.AssignExpression, sc *Scope) Value {
	var v Value
	if x.Operator == token.ASSIGN {
		v = ip.eval(x.Right, sc)
	} else {
		cur := ip.eval(x.Left, sc)
		v = ip.binaryOp(x.Operator, cur, ip.eval(x.Right, sc), ip.pos(x.Idx0()))
	}
	ip.assignTo(x.Left, v, sc)
	return v
}

func (ip *Interp) assignTo(target ast.Expression, v Value, sc *Scope) {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := sc.Set(t.Name.String(), v, ip.pos(t.Idx0())); err != nil {
			throwErr(err)
		}
	case *ast.DotExpression:
		obj := ip.eval(t.Left, sc)
		ip.setMember(obj, t.Identifier.Name.String(), v, ip.pos(t.Idx0()))
	case *ast.BracketExpression:
		obj := ip.eval(t.Left, sc)
		key := ip.eval(t.Member, sc)
		ip.setIndex(obj, key, v, ip.pos(t.Idx0()))
	default:
		throwErr(&SyntaxError{Position: ip.pos(target.Idx0()), Msg: "invalid assignment target"})
	}
}
