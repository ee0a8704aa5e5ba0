package ast_test

import (
	"testing"

	"github.com/Marco012/cito/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSourceLine(t *testing.T) {
	lit := &ast.LongLiteral{Base: ast.Base{Line: 7}, Value: 1}
	assert.Equal(t, 7, lit.SourceLine())
}

func TestVisibilityString(t *testing.T) {
	tests := []struct {
		v    ast.Visibility
		want string
	}{
		{ast.Private, "private"},
		{ast.Internal, "internal"},
		{ast.Protected, "protected"},
		{ast.Public, "public"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestCallKindString(t *testing.T) {
	// Every CallKind value must render to something other than "unknown"
	// for the zero value and the named constants the parser emits.
	assert.NotEqual(t, "unknown", ast.Normal.String())
	assert.NotEqual(t, "unknown", ast.Static.String())
	assert.NotEqual(t, "unknown", ast.Abstract.String())
	assert.NotEqual(t, "unknown", ast.Virtual.String())
	assert.NotEqual(t, "unknown", ast.Override.String())
	assert.NotEqual(t, "unknown", ast.Sealed.String())
}

func TestLoopMarkerInterfaces(t *testing.T) {
	var loops []ast.Loop = []ast.Loop{
		&ast.ForStmt{},
		&ast.WhileStmt{},
		&ast.DoWhileStmt{},
		&ast.ForeachStmt{},
	}
	for _, l := range loops {
		l.MarkHasBreak()
	}
	assert.True(t, loops[0].(*ast.ForStmt).HasBreak)
	assert.True(t, loops[1].(*ast.WhileStmt).HasBreak)
	assert.True(t, loops[2].(*ast.DoWhileStmt).HasBreak)
	assert.True(t, loops[3].(*ast.ForeachStmt).HasBreak)
}

func TestSwitchIsLoopOrSwitchButNotLoop(t *testing.T) {
	var sw ast.LoopOrSwitch = &ast.SwitchStmt{}
	sw.MarkHasBreak()
	assert.True(t, sw.(*ast.SwitchStmt).HasBreak)

	// SwitchStmt intentionally has no loopNode() method, so it cannot be
	// assigned to ast.Loop — this is a compile-time guarantee (BreakStmt
	// accepts LoopOrSwitch, ContinueStmt only accepts Loop) rather than
	// something this test asserts at runtime; the assignment below only
	// confirms SwitchStmt satisfies LoopOrSwitch.
	var _ ast.LoopOrSwitch = sw
}

func TestProgramAddAndLookup(t *testing.T) {
	p := ast.NewProgram()
	class := &ast.Class{Name: "Widget"}
	enum := &ast.Enum{Name: "Color"}

	p.Add(class)
	p.Add(enum)

	got, ok := p.TryLookup("Widget")
	require.True(t, ok)
	assert.Same(t, ast.TypeDecl(class), got)

	got, ok = p.TryLookup("Color")
	require.True(t, ok)
	assert.Same(t, ast.TypeDecl(enum), got)

	_, ok = p.TryLookup("Missing")
	assert.False(t, ok)

	assert.Equal(t, []ast.TypeDecl{class, enum}, p.Types)
}

func TestClassAndEnumTypeName(t *testing.T) {
	class := &ast.Class{Name: "Widget"}
	enum := &ast.Enum{Name: "Color"}
	assert.Equal(t, "Widget", class.TypeName())
	assert.Equal(t, "Color", enum.TypeName())
}
