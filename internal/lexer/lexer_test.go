package lexer_test

import (
	"strings"
	"testing"

	"github.com/Marco012/cito/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []lexer.Token {
	t.Helper()
	lx, err := lexer.New("test.ci", src)
	require.NoError(t, err)

	var toks []lexer.Token
	for {
		tok := lx.Current()
		toks = append(toks, tok)
		if tok.Kind == lexer.EOF {
			return toks
		}
		_, err := lx.NextToken()
		require.NoError(t, err)
	}
}

func kinds(toks []lexer.Token) []lexer.Kind {
	ks := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []lexer.Kind
	}{
		{"class keyword", "class", []lexer.Kind{lexer.Class, lexer.EOF}},
		{"plain identifier", "fooBar", []lexer.Kind{lexer.Ident, lexer.EOF}},
		{"keyword-shaped but not reserved", "classy", []lexer.Kind{lexer.Ident, lexer.EOF}},
		{
			"visibility keywords", "public protected internal",
			[]lexer.Kind{lexer.Public, lexer.Protected, lexer.Internal, lexer.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			assert.Equal(t, tt.want, kinds(toks))
		})
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  lexer.Kind
		wantInt   int64
		wantFloat float64
	}{
		{"decimal", "42", lexer.IntLiteral, 42, 0},
		{"underscored decimal", "1_000_000", lexer.IntLiteral, 1000000, 0},
		{"hex", "0xFF", lexer.IntLiteral, 255, 0},
		{"binary", "0b1010", lexer.IntLiteral, 10, 0},
		{"double", "3.14", lexer.FloatLiteral, 0, 3.14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			require.Len(t, toks, 2)
			require.Equal(t, tt.wantKind, toks[0].Kind)
			if tt.wantKind == lexer.IntLiteral {
				assert.Equal(t, tt.wantInt, toks[0].IntValue)
			} else {
				assert.Equal(t, tt.wantFloat, toks[0].FloatValue)
			}
		})
	}
}

func TestMalformedNumberIsLexicalError(t *testing.T) {
	// New reads the first token eagerly, so the error surfaces immediately.
	_, err := lexer.New("test.ci", "1_2_foo")
	assert.Error(t, err)
}

func TestStringEscapes(t *testing.T) {
	toks := lexAll(t, `"a\nb\tc\\d\"e"`)
	require.Len(t, toks, 2)
	require.Equal(t, lexer.StringLiteral, toks[0].Kind)
	assert.Equal(t, "a\nb\tc\\d\"e", toks[0].Literal)
}

func TestCharLiteral(t *testing.T) {
	toks := lexAll(t, `'x'`)
	require.Len(t, toks, 2)
	require.Equal(t, lexer.IntLiteral, toks[0].Kind)
	assert.Equal(t, int64('x'), toks[0].IntValue)
}

func TestDocCommentConcatenatesConsecutiveLines(t *testing.T) {
	toks := lexAll(t, "/// first line\n/// second line\nclass")
	require.GreaterOrEqual(t, len(toks), 2)
	require.Equal(t, lexer.DocComment, toks[0].Kind)
	assert.Equal(t, "first line\nsecond line", toks[0].Literal)
	assert.Equal(t, lexer.Class, toks[1].Kind)
}

func TestLineCommentIsNotDocComment(t *testing.T) {
	toks := lexAll(t, "// not a doc comment\nclass")
	require.Equal(t, []lexer.Kind{lexer.Class, lexer.EOF}, kinds(toks))
}

func TestBlockComment(t *testing.T) {
	toks := lexAll(t, "/* skip\nme */ class")
	assert.Equal(t, []lexer.Kind{lexer.Class, lexer.EOF}, kinds(toks))
}

func TestUnterminatedBlockCommentIsLexicalError(t *testing.T) {
	_, err := lexer.New("test.ci", "/* never closes")
	assert.Error(t, err)
}

func TestOperatorDisambiguation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []lexer.Kind
	}{
		{"increment vs plus", "++", []lexer.Kind{lexer.Inc, lexer.EOF}},
		{"plus then plus", "+ +", []lexer.Kind{lexer.Plus, lexer.Plus, lexer.EOF}},
		{"shift right vs greater-than", ">>", []lexer.Kind{lexer.Shr, lexer.EOF}},
		{"shift right assign", ">>=", []lexer.Kind{lexer.ShrAssign, lexer.EOF}},
		{"fat arrow", "=>", []lexer.Kind{lexer.FatArrow, lexer.EOF}},
		{"range", "..", []lexer.Kind{lexer.Range, lexer.EOF}},
		{"dot then dot", ". .", []lexer.Kind{lexer.Dot, lexer.Dot, lexer.EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			assert.Equal(t, tt.want, kinds(toks))
		})
	}
}

func TestSplitShrRevealsTwoGtTokens(t *testing.T) {
	lx, err := lexer.New("test.ci", ">> rest")
	require.NoError(t, err)
	require.True(t, lx.See(lexer.Shr))

	lx.SplitShr()
	require.True(t, lx.See(lexer.Gt))

	kind, err := lx.NextToken()
	require.NoError(t, err)
	assert.Equal(t, lexer.Gt, kind)
	assert.True(t, lx.See(lexer.Gt))

	kind, err = lx.NextToken()
	require.NoError(t, err)
	assert.Equal(t, lexer.Gt, kind)
	assert.True(t, lx.See(lexer.Ident))
}

func TestAttachCaptureRecordsConsumedBytes(t *testing.T) {
	lx, err := lexer.New("test.ci", "abc def")
	require.NoError(t, err)

	var buf strings.Builder
	lx.AttachCapture(&buf)
	_, err = lx.NextToken()
	require.NoError(t, err)
	lx.DetachCapture()

	assert.Equal(t, " def", buf.String())
}

func TestEatAndExpect(t *testing.T) {
	lx, err := lexer.New("test.ci", "class foo")
	require.NoError(t, err)

	ok, err := lx.Eat(lexer.Public)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lx.Eat(lexer.Class)
	require.NoError(t, err)
	assert.True(t, ok)

	err = lx.Expect(lexer.Ident)
	require.NoError(t, err)
	assert.True(t, lx.See(lexer.EOF))
}

func TestExpectMismatchIsStructuralError(t *testing.T) {
	lx, err := lexer.New("test.ci", "class")
	require.NoError(t, err)
	err = lx.Expect(lexer.Ident)
	assert.Error(t, err)
}

func TestInterpolatedStringFragments(t *testing.T) {
	lx, err := lexer.New("test.ci", `$"hi {x} there"`)
	require.NoError(t, err)

	first := lx.Current()
	require.Equal(t, lexer.InterpStringFragment, first.Kind)
	assert.Equal(t, "hi ", first.Literal)
	assert.False(t, first.Final)
}
