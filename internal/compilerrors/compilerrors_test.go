package compilerrors_test

import (
	"testing"

	"github.com/Marco012/cito/internal/compilerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetCategory(t *testing.T) {
	tests := []struct {
		name string
		err  *compilerrors.CompileError
		want compilerrors.Category
	}{
		{"lexical", compilerrors.Lexical("a.ci", 1, "bad char %q", '$'), compilerrors.CategoryLexical},
		{"structural", compilerrors.Structural("a.ci", 2, "expected %s", "}"), compilerrors.CategoryStructural},
		{"contextual", compilerrors.Contextual("a.ci", 3, "duplicate constructor"), compilerrors.CategoryContextual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Category)
		})
	}
}

func TestErrorMessageIncludesFileLineAndCategory(t *testing.T) {
	err := compilerrors.Structural("widget.ci", 42, "expected %s but found %s", "}", "EOF")
	assert.Equal(t, `widget.ci:42: structural error: expected } but found EOF`, err.Error())
}

func TestDiagnosticsAccumulatesAcrossFiles(t *testing.T) {
	var d compilerrors.Diagnostics
	assert.False(t, d.HasErrors())
	assert.Equal(t, 0, d.Count())

	d.Add(compilerrors.Lexical("a.ci", 1, "bad"))
	d.Add(compilerrors.Structural("b.ci", 2, "worse"))

	require.True(t, d.HasErrors())
	assert.Equal(t, 2, d.Count())
	assert.Equal(t, "a.ci", d.Errors[0].Filename)
	assert.Equal(t, "b.ci", d.Errors[1].Filename)
}
