package parser_test

import (
	"testing"

	"github.com/Marco012/cito/internal/ast"
	"github.com/Marco012/cito/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exprOf(t *testing.T, class *ast.Class, methodIdx int) ast.Expr {
	t.Helper()
	require.Greater(t, len(class.Methods), methodIdx)
	body := class.Methods[methodIdx].Body
	require.NotNil(t, body)
	require.NotEmpty(t, body.Stmts)
	exprStmt, ok := body.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok)
	return exprStmt.X
}

func TestPrecedenceMultiplicationBindsTighterThanAddition(t *testing.T) {
	prog := mustParse(t, "class W { void F() { 1 + 2 * 3; } }")
	class := mustClass(t, prog, "W")
	e := exprOf(t, class, 0)

	add, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)

	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestPrecedenceCondOrLowerThanCondAnd(t *testing.T) {
	prog := mustParse(t, "class W { void F() { a || b && c; } }")
	class := mustClass(t, prog, "W")
	e := exprOf(t, class, 0)

	or, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "||", or.Op)

	and, ok := or.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "&&", and.Op)
}

func TestPrecedenceAdditiveLeftAssociative(t *testing.T) {
	prog := mustParse(t, "class W { void F() { 1 - 2 - 3; } }")
	class := mustClass(t, prog, "W")
	e := exprOf(t, class, 0)

	outer, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "-", outer.Op)
	_, outerLeftIsBinary := outer.Left.(*ast.BinaryExpr)
	assert.True(t, outerLeftIsBinary, "additive should be left-associative: (1-2)-3")
}

func TestSelectTernaryIsLowestPrecedence(t *testing.T) {
	prog := mustParse(t, "class W { void F() { a || b ? c : d; } }")
	class := mustClass(t, prog, "W")
	e := exprOf(t, class, 0)

	sel, ok := e.(*ast.SelectExpr)
	require.True(t, ok)
	_, condIsOr := sel.Cond.(*ast.BinaryExpr)
	assert.True(t, condIsOr)
}

func TestIncrementRejectedInsideAndAnd(t *testing.T) {
	p := parser.New()
	err := p.Parse("test.ci", "class W { void F() { a && b++; } }")
	assert.Error(t, err)
}

func TestIncrementRejectedInsideOrOr(t *testing.T) {
	p := parser.New()
	err := p.Parse("test.ci", "class W { void F() { a || ++b; } }")
	assert.Error(t, err)
}

func TestIncrementRejectedInsideTernaryBranch(t *testing.T) {
	p := parser.New()
	err := p.Parse("test.ci", "class W { void F() { a ? b++ : c; } }")
	assert.Error(t, err)
}

func TestIncrementAllowedOutsideRestrictedContexts(t *testing.T) {
	prog := mustParse(t, "class W { void F() { a++; } }")
	class := mustClass(t, prog, "W")
	e := exprOf(t, class, 0)
	post, ok := e.(*ast.PostfixExpr)
	require.True(t, ok)
	assert.Equal(t, "++", post.Op)
}

func TestIncrementAllowedAfterRestrictedContextEnds(t *testing.T) {
	// The && restriction only applies while inside that operator's RHS
	// parse; a following statement is unaffected.
	prog := mustParse(t, "class W { void F() { a && b; c++; } }")
	class := mustClass(t, prog, "W")
	require.Len(t, class.Methods[0].Body.Stmts, 2)
	second, ok := class.Methods[0].Body.Stmts[1].(*ast.ExprStmt)
	require.True(t, ok)
	_, ok = second.X.(*ast.PostfixExpr)
	assert.True(t, ok)
}

func TestInterpolatedStringBasic(t *testing.T) {
	prog := mustParse(t, `class W { void F() { $"hi {name} there"; } }`)
	class := mustClass(t, prog, "W")
	e := exprOf(t, class, 0)
	interp, ok := e.(*ast.InterpolatedString)
	require.True(t, ok)
	require.Len(t, interp.Parts, 1)
	assert.Equal(t, "hi ", interp.Parts[0].Prefix)
	assert.Equal(t, " there", interp.Suffix)
	ref, ok := interp.Parts[0].Arg.(*ast.SymbolRef)
	require.True(t, ok)
	assert.Equal(t, "name", ref.Name)
}

func TestInterpolatedStringWidthAndFormat(t *testing.T) {
	prog := mustParse(t, `class W { void F() { $"v={x,5:D2}"; } }`)
	class := mustClass(t, prog, "W")
	e := exprOf(t, class, 0)
	interp, ok := e.(*ast.InterpolatedString)
	require.True(t, ok)
	require.Len(t, interp.Parts, 1)
	part := interp.Parts[0]
	require.NotNil(t, part.Width)
	assert.True(t, part.HasFormat)
	assert.Equal(t, byte('D'), part.Format)
	assert.True(t, part.HasPrecision)
	assert.Equal(t, 2, part.Precision)
}

func TestInterpolatedStringRejectsUnknownFormat(t *testing.T) {
	p := parser.New()
	err := p.Parse("test.ci", `class W { void F() { $"{x:Z2}"; } }`)
	assert.Error(t, err)
}

func TestBreakMarksEnclosingLoopHasBreak(t *testing.T) {
	prog := mustParse(t, "class W { void F() { while (true) { break; } } }")
	class := mustClass(t, prog, "W")
	outer := class.Methods[0].Body.Stmts[0].(*ast.WhileStmt)
	assert.True(t, outer.HasBreak)
}

func TestBreakOutsideLoopOrSwitchIsContextualError(t *testing.T) {
	p := parser.New()
	err := p.Parse("test.ci", "class W { void F() { break; } }")
	assert.Error(t, err)
}

func TestContinueOutsideLoopIsContextualError(t *testing.T) {
	p := parser.New()
	err := p.Parse("test.ci", "class W { void F() { switch (1) { default: continue; } } }")
	assert.Error(t, err)
}

func TestContinueInsideSwitchInsideLoopTargetsLoop(t *testing.T) {
	prog := mustParse(t, "class W { void F() { while (true) { switch (1) { case 1: break; default: continue; } } } }")
	class := mustClass(t, prog, "W")
	outer := class.Methods[0].Body.Stmts[0].(*ast.WhileStmt)
	sw := outer.Body.(*ast.BlockStmt).Stmts[0].(*ast.SwitchStmt)
	cont := sw.DefaultBody[0].(*ast.ContinueStmt)
	assert.Same(t, outer, cont.Target)
}

func TestSwitchWithNoCasesIsContextualError(t *testing.T) {
	p := parser.New()
	err := p.Parse("test.ci", "class W { void F() { switch (1) { } } }")
	assert.Error(t, err)
}

func TestSwitchCaseAfterDefaultIsContextualError(t *testing.T) {
	p := parser.New()
	err := p.Parse("test.ci", "class W { void F() { switch (1) { default: break; case 1: break; } } }")
	assert.Error(t, err)
}
