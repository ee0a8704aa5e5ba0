package codegen_test

import (
	"testing"

	"github.com/Marco012/cito/internal/ast"
	"github.com/Marco012/cito/internal/codegen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSexprGeneratorRendersClassWithMethod(t *testing.T) {
	prog := ast.NewProgram()
	prog.Add(&ast.Class{
		Name:       "Widget",
		Visibility: ast.Public,
		CallKind:   ast.Normal,
		Fields: []*ast.Field{
			{Name: "count", Type: &ast.NamedType{Name: "int"}, Visibility: ast.Private},
		},
		Methods: []*ast.Method{
			{
				Name:       "Increment",
				Visibility: ast.Public,
				CallKind:   ast.Normal,
				IsVoid:     true,
				Body: &ast.BlockStmt{
					Stmts: []ast.Stmt{
						&ast.ReturnStmt{},
					},
				},
			},
		},
	})

	gen := &codegen.SexprGenerator{}
	out, err := gen.Generate(prog)
	require.NoError(t, err)

	assert.Contains(t, out, "(class Widget public normal")
	assert.Contains(t, out, "(field private int count)")
	assert.Contains(t, out, "(method public normal void Increment ()")
	assert.Contains(t, out, "(return)")
}

func TestSexprGeneratorRendersExpressions(t *testing.T) {
	prog := ast.NewProgram()
	prog.Add(&ast.Class{
		Name: "Widget",
		Consts: []*ast.Const{
			{
				Name:       "Max",
				Visibility: ast.Public,
				Type:       &ast.NamedType{Name: "int"},
				Value: &ast.BinaryExpr{
					Op:    "+",
					Left:  &ast.LongLiteral{Value: 1},
					Right: &ast.LongLiteral{Value: 2},
				},
			},
		},
	})

	gen := &codegen.SexprGenerator{}
	out, err := gen.Generate(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "(const public int Max (+ 1 2))")
}

func TestSexprGeneratorRendersAbstractMethodBody(t *testing.T) {
	prog := ast.NewProgram()
	prog.Add(&ast.Class{
		Name:     "Shape",
		CallKind: ast.Abstract,
		Methods: []*ast.Method{
			{Name: "Area", CallKind: ast.Abstract, Body: nil},
		},
	})

	gen := &codegen.SexprGenerator{}
	out, err := gen.Generate(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "(abstract)")
}

func TestSexprGeneratorRendersEnum(t *testing.T) {
	prog := ast.NewProgram()
	prog.Add(&ast.Enum{
		Name:  "Color",
		Flags: true,
		Constants: []ast.EnumConstant{
			{Name: "Red", Value: &ast.LongLiteral{Value: 1}},
			{Name: "Green", Value: &ast.LongLiteral{Value: 2}},
		},
	})

	gen := &codegen.SexprGenerator{}
	out, err := gen.Generate(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "(enum Color private flags=true")
	assert.Contains(t, out, "(constant Red 1)")
	assert.Contains(t, out, "(constant Green 2)")
}
