package codegen

import (
	"fmt"
	"strings"

	"github.com/Marco012/cito/internal/ast"
)

// SexprGenerator renders a Program as an indented, parenthesized dump.
// An Accept/Visitor pair earns its keep when many independent visitors
// share one dispatch table, but cito's AST is a closed set with exactly
// one real consumer, so a single type switch plays the same role with
// far less boilerplate.
type SexprGenerator struct{}

func (g *SexprGenerator) Name() string { return "sexpr" }

func (g *SexprGenerator) Generate(p *ast.Program) (string, error) {
	var b strings.Builder
	w := &sexprWriter{buf: &b}
	w.writeProgram(p)
	return b.String(), nil
}

type sexprWriter struct {
	buf   *strings.Builder
	depth int
}

func (w *sexprWriter) line(s string) {
	w.buf.WriteString(strings.Repeat("  ", w.depth))
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *sexprWriter) writeProgram(p *ast.Program) {
	w.line("(program")
	w.depth++
	for _, native := range p.TopLevelNatives {
		w.line(fmt.Sprintf("(native %q)", native))
	}
	for _, t := range p.Types {
		switch d := t.(type) {
		case *ast.Class:
			w.writeClass(d)
		case *ast.Enum:
			w.writeEnum(d)
		}
	}
	w.depth--
	w.line(")")
}

func (w *sexprWriter) writeClass(c *ast.Class) {
	w.line(fmt.Sprintf("(class %s %s %s", c.Name, c.Visibility, c.CallKind))
	w.depth++
	if c.HasBase {
		w.line(":base " + c.BaseName)
	}
	for _, cst := range c.Consts {
		w.writeConst(cst)
	}
	for _, f := range c.Fields {
		w.writeField(f)
	}
	if c.Ctor != nil {
		w.writeMethod(c.Ctor)
	}
	for _, m := range c.Methods {
		w.writeMethod(m)
	}
	w.depth--
	w.line(")")
}

func (w *sexprWriter) writeEnum(e *ast.Enum) {
	w.line(fmt.Sprintf("(enum %s %s flags=%t", e.Name, e.Visibility, e.Flags))
	w.depth++
	for _, c := range e.Constants {
		val := ""
		if c.Value != nil {
			val = " " + w.exprStr(c.Value)
		}
		w.line(fmt.Sprintf("(constant %s%s)", c.Name, val))
	}
	w.depth--
	w.line(")")
}

func (w *sexprWriter) writeConst(c *ast.Const) {
	w.line(fmt.Sprintf("(const %s %s %s %s)", c.Visibility, w.typeStr(c.Type), c.Name, w.exprStr(c.Value)))
}

func (w *sexprWriter) writeField(f *ast.Field) {
	init := ""
	if f.Init != nil {
		init = " " + w.exprStr(f.Init)
	}
	w.line(fmt.Sprintf("(field %s %s %s%s)", f.Visibility, w.typeStr(f.Type), f.Name, init))
}

func (w *sexprWriter) writeMethod(m *ast.Method) {
	ret := "void"
	if !m.IsVoid {
		ret = w.typeStr(m.ReturnType)
	}
	params := make([]string, 0, len(m.Params))
	for _, pm := range m.Params {
		params = append(params, fmt.Sprintf("(%s %s)", w.typeStr(pm.Type), pm.Name))
	}
	w.line(fmt.Sprintf("(method %s %s %s %s (%s)", m.Visibility, m.CallKind, ret, m.Name, strings.Join(params, " ")))
	w.depth++
	if m.Body != nil {
		w.writeStmt(m.Body)
	} else {
		w.line("(abstract)")
	}
	w.depth--
	w.line(")")
}

func (w *sexprWriter) writeStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BlockStmt:
		w.line("(block")
		w.depth++
		for _, st := range n.Stmts {
			w.writeStmt(st)
		}
		w.depth--
		w.line(")")

	case *ast.AssertStmt:
		msg := ""
		if n.Message != nil {
			msg = " " + w.exprStr(n.Message)
		}
		w.line(fmt.Sprintf("(assert %s%s)", w.exprStr(n.Cond), msg))

	case *ast.BreakStmt:
		w.line("(break)")

	case *ast.ContinueStmt:
		w.line("(continue)")

	case *ast.DoWhileStmt:
		w.line("(do-while")
		w.depth++
		w.writeStmt(n.Body)
		w.line(":cond " + w.exprStr(n.Cond))
		w.depth--
		w.line(")")

	case *ast.ForStmt:
		w.line("(for")
		w.depth++
		if n.Init != nil {
			w.line(":init")
			w.depth++
			w.writeStmt(n.Init)
			w.depth--
		}
		if n.Cond != nil {
			w.line(":cond " + w.exprStr(n.Cond))
		}
		if n.Advance != nil {
			w.line(":advance")
			w.depth++
			w.writeStmt(n.Advance)
			w.depth--
		}
		w.writeStmt(n.Body)
		w.depth--
		w.line(")")

	case *ast.ForeachStmt:
		w.line("(foreach")
		w.depth++
		w.line(":var1 " + w.exprStr(n.Var1))
		if n.Var2 != nil {
			w.line(":var2 " + w.exprStr(n.Var2))
		}
		w.line(":collection " + w.exprStr(n.Collection))
		w.writeStmt(n.Body)
		w.depth--
		w.line(")")

	case *ast.IfStmt:
		w.line(fmt.Sprintf("(if %s", w.exprStr(n.Cond)))
		w.depth++
		w.writeStmt(n.Then)
		if n.Else != nil {
			w.line(":else")
			w.depth++
			w.writeStmt(n.Else)
			w.depth--
		}
		w.depth--
		w.line(")")

	case *ast.LockStmt:
		w.line(fmt.Sprintf("(lock %s", w.exprStr(n.Lock)))
		w.depth++
		w.writeStmt(n.Body)
		w.depth--
		w.line(")")

	case *ast.NativeStmt:
		w.line(fmt.Sprintf("(native %q)", n.Content))

	case *ast.ReturnStmt:
		if n.Value != nil {
			w.line(fmt.Sprintf("(return %s)", w.exprStr(n.Value)))
		} else {
			w.line("(return)")
		}

	case *ast.SwitchStmt:
		w.line(fmt.Sprintf("(switch %s", w.exprStr(n.Value)))
		w.depth++
		for _, c := range n.Cases {
			vals := make([]string, 0, len(c.Values))
			for _, v := range c.Values {
				vals = append(vals, w.exprStr(v))
			}
			w.line(fmt.Sprintf("(case (%s)", strings.Join(vals, " ")))
			w.depth++
			for _, st := range c.Body {
				w.writeStmt(st)
			}
			w.depth--
			w.line(")")
		}
		if n.HasDefault {
			w.line("(default")
			w.depth++
			for _, st := range n.DefaultBody {
				w.writeStmt(st)
			}
			w.depth--
			w.line(")")
		}
		w.depth--
		w.line(")")

	case *ast.ThrowStmt:
		w.line(fmt.Sprintf("(throw %s)", w.exprStr(n.Message)))

	case *ast.WhileStmt:
		w.line(fmt.Sprintf("(while %s", w.exprStr(n.Cond)))
		w.depth++
		w.writeStmt(n.Body)
		w.depth--
		w.line(")")

	case *ast.ExprStmt:
		w.line(w.exprStr(n.X))

	case *ast.ConstStmt:
		w.writeConst(n.Decl)

	default:
		w.line(fmt.Sprintf("(unknown-stmt %T)", s))
	}
}

func (w *sexprWriter) exprStr(e ast.Expr) string {
	if e == nil {
		return "nil"
	}
	switch n := e.(type) {
	case *ast.LongLiteral:
		return fmt.Sprintf("%d", n.Value)
	case *ast.DoubleLiteral:
		return fmt.Sprintf("%g", n.Value)
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", n.Value)
	case *ast.BoolLiteral:
		return fmt.Sprintf("%t", n.Value)
	case *ast.NullLiteral:
		return "null"
	case *ast.InterpolatedString:
		parts := make([]string, 0, len(n.Parts))
		for _, part := range n.Parts {
			parts = append(parts, fmt.Sprintf("(%q %s)", part.Prefix, w.exprStr(part.Arg)))
		}
		return fmt.Sprintf("(interp %s %q)", strings.Join(parts, " "), n.Suffix)
	case *ast.SymbolRef:
		if n.Qualifier != nil {
			return fmt.Sprintf("(. %s %s)", w.exprStr(n.Qualifier), n.Name)
		}
		return n.Name
	case *ast.PrefixExpr:
		return fmt.Sprintf("(%s %s)", n.Op, w.exprStr(n.Inner))
	case *ast.PostfixExpr:
		return fmt.Sprintf("(post%s %s)", n.Op, w.exprStr(n.Inner))
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", n.Op, w.exprStr(n.Left), w.exprStr(n.Right))
	case *ast.CallExpr:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, w.exprStr(a))
		}
		return fmt.Sprintf("(call %s %s)", w.exprStr(n.Method), strings.Join(args, " "))
	case *ast.SelectExpr:
		return fmt.Sprintf("(? %s %s %s)", w.exprStr(n.Cond), w.exprStr(n.OnTrue), w.exprStr(n.OnFalse))
	case *ast.AggregateInitializer:
		items := make([]string, 0, len(n.Items))
		for _, it := range n.Items {
			items = append(items, w.exprStr(it))
		}
		return fmt.Sprintf("(aggregate %s)", strings.Join(items, " "))
	case *ast.IsExpr:
		s := fmt.Sprintf("(is %s %s", w.exprStr(n.X), w.typeStr(n.Type))
		if n.HasBinding {
			s += " " + n.BindingName
		}
		return s + ")"
	case *ast.NewExpr:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, w.exprStr(a))
		}
		return fmt.Sprintf("(new %s %s)", w.typeStr(n.Type), strings.Join(args, " "))
	case *ast.ResourceExpr:
		return fmt.Sprintf("(resource %s)", w.exprStr(n.Path))
	case *ast.VarDecl:
		s := fmt.Sprintf("(var %s %s", w.typeStr(n.Type), n.Name)
		if n.Init != nil {
			s += " " + w.exprStr(n.Init)
		}
		return s + ")"
	default:
		return fmt.Sprintf("(unknown-expr %T)", e)
	}
}

func (w *sexprWriter) typeStr(t ast.TypeExpr) string {
	if t == nil {
		return "nil"
	}
	switch n := t.(type) {
	case *ast.NamedType:
		return n.Name
	case *ast.ArrayType:
		return fmt.Sprintf("(array %s)", w.typeStr(n.Element))
	case *ast.GenericType:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, w.typeStr(a))
		}
		return fmt.Sprintf("(%s %s)", n.Name, strings.Join(args, " "))
	case *ast.RangeType:
		return fmt.Sprintf("(range %s %s)", w.exprStr(n.Low), w.exprStr(n.High))
	case *ast.VoidType:
		return "void"
	default:
		return fmt.Sprintf("(unknown-type %T)", t)
	}
}
