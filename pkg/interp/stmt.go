package interp

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/token"
)

func bindingName(t ast.BindingTarget) string {
	if id, ok := t.(*ast.Identifier); ok {
		return id.Name.String()
	}
	return ""
}

func (ip *Interp) declBindings(list []*ast.Binding, kind BindingKind, sc *Scope) {
	for _, b := range list {
		name := bindingName(b.Target)
		if name == "" {
			throwErr(&SyntaxError{Position: ip.pos(b.Target.Idx0()), Msg: "unsupported binding pattern"})
		}
		v := Undefined
		if b.Initializer != nil {
			v = ip.eval(b.Initializer, sc)
		}
		sc.Define(name, v, kind)
	}
}

func lexicalKind(tok token.Token) BindingKind {
	if tok == token.CONST {
		return BindConst
	}
	return BindLet
}

func (ip *Interp) loopGuard(count *int, idx file.Idx) {
	*count++
	if *count > LoopIterationCap {
		throwErr(&RangeError{
			Position: ip.pos(idx),
			Msg:      fmt.Sprintf("loop exceeded %d iterations", LoopIterationCap),
		})
	}
}

// loopStep folds a body completion into loop control flow. exit means leave
// the loop; done means propagate c to the caller.
func loopStep(c completion, label string) (exit, done bool, out completion) {
	switch c.typ {
	case cNormal:
		return false, false, normal
	case cContinue:
		if c.label == "" || c.label == label {
			return false, false, normal
		}
		return true, true, c
	case cBreak:
		if c.label == "" || c.label == label {
			return true, false, normal
		}
		return true, true, c
	default: // cReturn
		return true, true, c
	}
}

func (ip *Interp) execStmt(st ast.Statement, sc *Scope) completion {
	switch s := st.(type) {
	case *ast.BlockStatement:
		return ip.execBlock(s.List, sc)
	case *ast.EmptyStatement:
		return normal
	case *ast.FunctionDeclaration:
		// Hoisted before the surrounding list ran.
		return normal
	case *ast.LabelledStatement:
		return ip.execLabelled(s, sc)
	}

	ip.highlight(st.Idx0())

	switch s := st.(type) {
	case *ast.ExpressionStatement:
		ip.eval(s.Expression, sc)
		return normal
	case *ast.VariableStatement:
		ip.declBindings(s.List, BindVar, sc)
		return normal
	case *ast.LexicalDeclaration:
		ip.declBindings(s.List, lexicalKind(s.Token), sc)
		return normal
	case *ast.IfStatement:
		if ip.eval(s.Test, sc).IsTruthy() {
			return ip.execStmt(s.Consequent, sc)
		}
		if s.Alternate != nil {
			return ip.execStmt(s.Alternate, sc)
		}
		return normal
	case *ast.WhileStatement:
		return ip.execWhile(s, sc, "")
	case *ast.DoWhileStatement:
		return ip.execDoWhile(s, sc, "")
	case *ast.ForStatement:
		return ip.execFor(s, sc, "")
	case *ast.ForOfStatement:
		return ip.execForOf(s, sc, "")
	case *ast.ReturnStatement:
		v := Undefined
		if s.Argument != nil {
			v = ip.eval(s.Argument, sc)
		}
		return completion{typ: cReturn, value: v}
	case *ast.BranchStatement:
		label := ""
		if s.Label != nil {
			label = s.Label.Name.String()
		}
		if s.Token == token.CONTINUE {
			return completion{typ: cContinue, label: label}
		}
		return completion{typ: cBreak, label: label}
	case *ast.ThrowStatement:
		v := ip.eval(s.Argument, sc)
		throwErr(&ThrownError{Position: ip.pos(s.Idx0()), Value: v})
		return normal
	case *ast.TryStatement:
		return ip.execTry(s, sc)
	case *ast.SwitchStatement:
		return ip.execSwitch(s, sc)
	default:
		throwErr(&SyntaxError{
			Position: ip.pos(st.Idx0()),
			Msg:      fmt.Sprintf("unsupported statement %T", st),
		})
		return normal
	}
}

func (ip *Interp) execLabelled(s *ast.LabelledStatement, sc *Scope) completion {
	label := s.Label.Name.String()
	var c completion
	switch body := s.Statement.(type) {
	case *ast.WhileStatement:
		c = ip.execWhile(body, sc, label)
	case *ast.DoWhileStatement:
		c = ip.execDoWhile(body, sc, label)
	case *ast.ForStatement:
		c = ip.execFor(body, sc, label)
	case *ast.ForOfStatement:
		c = ip.execForOf(body, sc, label)
	default:
		c = ip.execStmt(s.Statement, sc)
		if c.typ == cBreak && c.label == label {
			return normal
		}
	}
	return c
}

func (ip *Interp) execWhile(s *ast.WhileStatement, sc *Scope, label string) completion {
	count := 0
	for {
		ip.loopGuard(&count, s.Idx0())
		if ip.eval(s.Test, sc).IsFalsey() {
			return normal
		}
		exit, done, out := loopStep(ip.execStmt(s.Body, sc), label)
		if done {
			return out
		}
		if exit {
			return normal
		}
	}
}

func (ip *Interp) execDoWhile(s *ast.DoWhileStatement, sc *Scope, label string) completion {
	count := 0
	for {
		ip.loopGuard(&count, s.Idx0())
		exit, done, out := loopStep(ip.execStmt(s.Body, sc), label)
		if done {
			return out
		}
		if exit {
			return normal
		}
		if ip.eval(s.Test, sc).IsFalsey() {
			return normal
		}
	}
}

func (ip *Interp) execFor(s *ast.ForStatement, sc *Scope, label string) completion {
	fsc := sc.Child()
	if s.Initializer != nil {
		switch init := s.Initializer.(type) {
		case *ast.ForLoopInitializerExpression:
			ip.eval(init.Expression, fsc)
		case *ast.ForLoopInitializerVarDeclList:
			ip.declBindings(init.List, BindVar, fsc)
		case *ast.ForLoopInitializerLexicalDecl:
			ip.declBindings(init.LexicalDeclaration.List, lexicalKind(init.LexicalDeclaration.Token), fsc)
		}
	}
	count := 0
	for {
		ip.loopGuard(&count, s.Idx0())
		if s.Test != nil && ip.eval(s.Test, fsc).IsFalsey() {
			return normal
		}
		exit, done, out := loopStep(ip.execStmt(s.Body, fsc), label)
		if done {
			return out
		}
		if exit {
			return normal
		}
		if s.Update != nil {
			ip.eval(s.Update, fsc)
		}
	}
}

func (ip *Interp) execForOf(s *ast.ForOfStatement, sc *Scope, label string) completion {
	src := ip.eval(s.Source, sc)
	var items []Value
	switch {
	case src.IsArray():
		items = append(items, src.AsArray().Elements()...)
	case src.IsString():
		for _, r := range src.AsString() {
			items = append(items, NewString(string(r)))
		}
	default:
		throwErr(&TypeError{
			Position: ip.pos(s.Source.Idx0()),
			Msg:      fmt.Sprintf("%s is not iterable", src.ToDisplay()),
		})
	}
	count := 0
	for _, item := range items {
		ip.loopGuard(&count, s.Idx0())
		isc := sc.Child()
		ip.bindForInto(s.Into, item, isc)
		exit, done, out := loopStep(ip.execStmt(s.Body, isc), label)
		if done {
			return out
		}
		if exit {
			return normal
		}
	}
	return normal
}

func (ip *Interp) bindForInto(into ast.ForInto, v Value, sc *Scope) {
	switch t := into.(type) {
	case *ast.ForIntoVar:
		sc.Define(bindingName(t.Binding.Target), v, BindVar)
	case *ast.ForDeclaration:
		kind := BindLet
		if t.IsConst {
			kind = BindConst
		}
		sc.Define(bindingName(t.Target), v, kind)
	case *ast.ForIntoExpression:
		ip.assignTo(t.Expression, v, sc)
	default:
		throwErr(&SyntaxError{Position: ip.pos(into.Idx0()), Msg: "unsupported loop target"})
	}
}

func (ip *Interp) execTry(s *ast.TryStatement, sc *Scope) completion {
	depth := len(ip.frames)
	var c completion
	caught := func() (ee EngineError) {
		defer func() {
			if r := recover(); r != nil {
				e, ok := r.(EngineError)
				if !ok {
					panic(r)
				}
				ip.unwindTo(depth)
				ee = e
			}
		}()
		c = ip.execBlock(s.Body.List, sc)
		return nil
	}()

	if caught != nil && s.Catch != nil {
		csc := sc.Child()
		if s.Catch.Parameter != nil {
			csc.Define(bindingName(s.Catch.Parameter), errValue(caught), BindLet)
		}
		caught = nil
		c = func() (out completion) {
			defer func() {
				if r := recover(); r != nil {
					e, ok := r.(EngineError)
					if !ok {
						panic(r)
					}
					ip.unwindTo(depth)
					caught = e
				}
			}()
			ip.hoistFunctions(s.Catch.Body.List, csc)
			for _, st := range s.Catch.Body.List {
				if out = ip.execStmt(st, csc); out.typ != cNormal {
					return out
				}
			}
			return normal
		}()
	}

	if s.Finally != nil {
		fc := ip.execBlock(s.Finally.List, sc)
		if fc.typ != cNormal {
			return fc
		}
	}
	if caught != nil {
		panic(caught)
	}
	return c
}

func (ip *Interp) execSwitch(s *ast.SwitchStatement, sc *Scope) completion {
	disc := ip.eval(s.Discriminant, sc)
	ssc := sc.Child()
	match := -1
	for i, cs := range s.Body {
		if cs.Test == nil {
			continue
		}
		if disc.StrictlyEquals(ip.eval(cs.Test, ssc)) {
			match = i
			break
		}
	}
	if match < 0 {
		match = s.Default
	}
	if match < 0 {
		return normal
	}
	for i := match; i < len(s.Body); i++ {
		for _, st := range s.Body[i].Consequent {
			c := ip.execStmt(st, ssc)
			switch c.typ {
			case cNormal:
			case cBreak:
				if c.label == "" {
					return normal
				}
				return c
			default:
				return c
			}
		}
	}
	return normal
}
