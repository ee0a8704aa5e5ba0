package parser_test

import (
	"testing"

	"github.com/Marco012/cito/internal/ast"
	"github.com/Marco012/cito/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericArityEnforced(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"List with one arg ok", "class Widget { List<int> xs; }", false},
		{"List with zero args rejected", "class Widget { List<> xs; }", true},
		{"List with two args rejected", "class Widget { List<int, int> xs; }", true},
		{"Dictionary with two args ok", "class Widget { Dictionary<int, string> xs; }", false},
		{"Dictionary with one arg rejected", "class Widget { Dictionary<int> xs; }", true},
		{"unknown generic name rejected", "class Widget { Frobnicator<int> xs; }", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parser.New()
			err := p.Parse("test.ci", tt.src)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNestedGenericClosingShrIsSplit(t *testing.T) {
	prog, err := parseOK(t, "class Widget { List<List<int>> xs; }")
	require.NoError(t, err)
	class := mustClass(t, prog, "Widget")
	require.Len(t, class.Fields, 1)
	outer, ok := class.Fields[0].Type.(*ast.GenericType)
	require.True(t, ok)
	assert.Equal(t, "List", outer.Name)
	require.Len(t, outer.Args, 1)
	inner, ok := outer.Args[0].(*ast.GenericType)
	require.True(t, ok)
	assert.Equal(t, "List", inner.Name)
}

func parseOK(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	p := parser.New()
	err := p.Parse("test.ci", src)
	return p.Program(), err
}

func TestExtraGenericsMergeWithoutMutatingDefaults(t *testing.T) {
	p := parser.NewWithExtraGenerics(map[string]int{"Queue": 1})
	require.NoError(t, p.Parse("test.ci", "class Widget { Queue<int> xs; }"))

	// A fresh default-only parser must still reject the project-specific name.
	plain := parser.New()
	err := plain.Parse("test.ci", "class Widget { Queue<int> xs; }")
	assert.Error(t, err)
}

func TestArrayType(t *testing.T) {
	prog := mustParse(t, "class Widget { int[] xs; }")
	class := mustClass(t, prog, "Widget")
	require.Len(t, class.Fields, 1)
	arr, ok := class.Fields[0].Type.(*ast.ArrayType)
	require.True(t, ok)
	named, ok := arr.Element.(*ast.NamedType)
	require.True(t, ok)
	assert.Equal(t, "int", named.Name)
}

func TestShiftOperatorOutsideGenericArgsIsNotSplit(t *testing.T) {
	prog := mustParse(t, "class W { void F() { a >> b; } }")
	class := mustClass(t, prog, "W")
	e := exprOf(t, class, 0)
	bin, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ">>", bin.Op)
}

func TestRangeType(t *testing.T) {
	prog := mustParse(t, "class Widget { int X(1..10 r) => 0; }")
	class := mustClass(t, prog, "Widget")
	require.Len(t, class.Methods, 1)
	require.Len(t, class.Methods[0].Params, 1)
	_, ok := class.Methods[0].Params[0].Type.(*ast.RangeType)
	assert.True(t, ok)
}
