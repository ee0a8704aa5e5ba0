// Package parser implements the cito recursive-descent parser: one token
// of lookahead over internal/lexer, producing the closed AST defined in
// internal/ast, rooted at an accumulating Program.
package parser

import (
	"github.com/Marco012/cito/internal/ast"
	"github.com/Marco012/cito/internal/compilerrors"
	"github.com/Marco012/cito/internal/lexer"
)

// defaultGenericArity is the known set of generic classes the parser
// recognises as type constructors, and the number of type arguments each
// requires.
var defaultGenericArity = map[string]int{
	"List":             1,
	"Stack":            1,
	"HashSet":          1,
	"Dictionary":       2,
	"SortedDictionary": 2,
}

// Parser holds the per-parse contextual state described in the design:
// the innermost loop, the innermost loop-or-switch, the xcrement guard,
// and the generic type-argument-parsing flag.
type Parser struct {
	lex      *lexer.Lexer
	filename string
	program  *ast.Program

	genericArity map[string]int

	currentLoop         ast.Loop
	currentLoopOrSwitch ast.LoopOrSwitch
	xcrementParent      string // "", "&&", "||", or "?"
	parsingTypeArg      bool
}

// New creates a parser that accumulates declarations into a fresh
// Program, recognising the five built-in generic container names.
func New() *Parser {
	arity := make(map[string]int, len(defaultGenericArity))
	for k, v := range defaultGenericArity {
		arity[k] = v
	}
	return &Parser{program: ast.NewProgram(), genericArity: arity}
}

// NewWithExtraGenerics is New plus additional generic container
// names/arities a project has registered beyond the built-in table (see
// cliutil.Config.ExtraGenerics), without touching the compiled-in
// default.
func NewWithExtraGenerics(extra map[string]int) *Parser {
	p := New()
	for name, arity := range extra {
		p.genericArity[name] = arity
	}
	return p
}

func (p *Parser) isKnownGeneric(name string) bool {
	_, ok := p.genericArity[name]
	return ok
}

// Program returns the accumulating root; it grows with each call to
// Parse.
func (p *Parser) Program() *ast.Program { return p.program }

// Parse parses one file's worth of source and appends its declarations
// and top-level native blocks to Program. It aborts and returns an error
// at the first lexical, structural, or contextual violation.
func (p *Parser) Parse(filename, src string) error {
	lx, err := lexer.New(filename, src)
	if err != nil {
		return err
	}
	p.lex = lx
	p.filename = filename
	p.currentLoop = nil
	p.currentLoopOrSwitch = nil
	p.xcrementParent = ""
	p.parsingTypeArg = false

	for !p.lex.See(lexer.EOF) {
		if err := p.parseTopLevel(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) line() int { return p.lex.Current().Pos.Line }

func (p *Parser) errLexical(format string, args ...interface{}) error {
	return compilerrors.Lexical(p.filename, p.line(), format, args...)
}

func (p *Parser) errStructural(format string, args ...interface{}) error {
	return compilerrors.Structural(p.filename, p.line(), format, args...)
}

func (p *Parser) errContextual(line int, format string, args ...interface{}) error {
	return compilerrors.Contextual(p.filename, line, format, args...)
}

// checkXcrement rejects ++/-- while a forbidden surrounding context
// (&&, ||, ?:) is active.
func (p *Parser) checkXcrement(line int) error {
	if p.xcrementParent != "" {
		return p.errContextual(line, "'++' and '--' are not allowed inside '%s'", p.xcrementParent)
	}
	return nil
}

// withXcrement runs fn with xcrementParent set to ctx, restoring the
// previous value on every exit path including error.
func (p *Parser) withXcrement(ctx string, fn func() (ast.Expr, error)) (ast.Expr, error) {
	saved := p.xcrementParent
	p.xcrementParent = ctx
	e, err := fn()
	p.xcrementParent = saved
	return e, err
}

// enterLoop installs loop as both currentLoop and currentLoopOrSwitch,
// returning a function that restores the previous values.
func (p *Parser) enterLoop(loop ast.Loop) func() {
	savedLoop := p.currentLoop
	savedLS := p.currentLoopOrSwitch
	p.currentLoop = loop
	p.currentLoopOrSwitch = loop
	return func() {
		p.currentLoop = savedLoop
		p.currentLoopOrSwitch = savedLS
	}
}

// enterSwitch installs sw as currentLoopOrSwitch without touching
// currentLoop, so a bare continue inside a switch still targets the
// enclosing loop (or fails if there is none).
func (p *Parser) enterSwitch(sw ast.LoopOrSwitch) func() {
	saved := p.currentLoopOrSwitch
	p.currentLoopOrSwitch = sw
	return func() { p.currentLoopOrSwitch = saved }
}

func (p *Parser) atOneOf(kinds ...lexer.Kind) bool {
	for _, k := range kinds {
		if p.lex.See(k) {
			return true
		}
	}
	return false
}

// parseType implements §4.3.2: a primary type name or integer literal
// range bound, optional array brackets, optional generic argument list
// (arity-checked against the known generic set), optional low..high
// range, in that order.
func (p *Parser) parseType() (ast.TypeExpr, error) {
	line := p.line()

	if p.lex.See(lexer.Void) {
		if err := p.lex.Expect(lexer.Void); err != nil {
			return nil, err
		}
		return &ast.VoidType{Base: ast.Base{Line: line}}, nil
	}

	var low ast.Expr
	var typ ast.TypeExpr

	switch {
	case p.lex.See(lexer.IntLiteral):
		v := p.lex.Current().IntValue
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		low = &ast.LongLiteral{Base: ast.Base{Line: line}, Value: v}

	case p.lex.See(lexer.Ident):
		name := p.lex.Current().Literal
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		typ = &ast.NamedType{Base: ast.Base{Line: line}, Name: name}

		for p.lex.See(lexer.LBracket) {
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			if err := p.lex.Expect(lexer.RBracket); err != nil {
				return nil, err
			}
			typ = &ast.ArrayType{Base: ast.Base{Line: line}, Element: typ}
		}

		if p.lex.See(lexer.Lt) {
			if !p.isKnownGeneric(name) {
				return nil, p.errContextual(line, "%q is not a known generic class", name)
			}
			args, hasCall, err := p.parseGenericArgs(name, line)
			if err != nil {
				return nil, err
			}
			typ = &ast.GenericType{Base: ast.Base{Line: line}, Name: name, Args: args, HasCall: hasCall}
		}

	default:
		return nil, p.errStructural("expected a type but found %s", p.lex.Current().Kind)
	}

	ok, err := p.lex.Eat(lexer.Range)
	if err != nil {
		return nil, err
	}
	if ok {
		var high ast.Expr
		hline := p.line()
		switch {
		case p.lex.See(lexer.IntLiteral):
			hv := p.lex.Current().IntValue
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			high = &ast.LongLiteral{Base: ast.Base{Line: hline}, Value: hv}
		case p.lex.See(lexer.Ident):
			hname := p.lex.Current().Literal
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			high = &ast.SymbolRef{Base: ast.Base{Line: hline}, Name: hname}
		default:
			return nil, p.errStructural("expected a range upper bound but found %s", p.lex.Current().Kind)
		}
		if low == nil {
			if nt, ok := typ.(*ast.NamedType); ok {
				low = &ast.SymbolRef{Base: ast.Base{Line: line}, Name: nt.Name}
			}
		}
		return &ast.RangeType{Base: ast.Base{Line: line}, Low: low, High: high}, nil
	}

	if typ == nil {
		return nil, p.errStructural("expected a type")
	}
	return typ, nil
}

// closeGenericArg consumes one '>' that closes a generic argument list,
// splitting a ">>" token in two when two lists close back to back (e.g.
// "List<List<int>>"). The split only ever fires while parsing a type
// argument list; a bare ">>" anywhere else is a shift operator.
func (p *Parser) closeGenericArg() error {
	if p.parsingTypeArg && p.lex.See(lexer.Shr) {
		p.lex.SplitShr()
	}
	return p.lex.Expect(lexer.Gt)
}

// parseGenericArgs parses the "<Args...>" list of a known generic class,
// enforces its arity, and consumes an optional trailing no-argument
// construction call "()".
func (p *Parser) parseGenericArgs(name string, line int) ([]ast.TypeExpr, bool, error) {
	if err := p.lex.Expect(lexer.Lt); err != nil {
		return nil, false, err
	}

	saved := p.parsingTypeArg
	p.parsingTypeArg = true
	var args []ast.TypeExpr
	for {
		arg, err := p.parseType()
		if err != nil {
			p.parsingTypeArg = saved
			return nil, false, err
		}
		args = append(args, arg)
		more, err := p.lex.Eat(lexer.Comma)
		if err != nil {
			p.parsingTypeArg = saved
			return nil, false, err
		}
		if !more {
			break
		}
	}
	p.parsingTypeArg = saved

	if err := p.closeGenericArg(); err != nil {
		return nil, false, err
	}

	if arity := p.genericArity[name]; len(args) != arity {
		return nil, false, p.errContextual(line, "%s expects %d type argument(s), got %d", name, arity, len(args))
	}

	hasCall, err := p.lex.Eat(lexer.LParen)
	if err != nil {
		return nil, false, err
	}
	if hasCall {
		if err := p.lex.Expect(lexer.RParen); err != nil {
			return nil, false, err
		}
	}
	return args, hasCall, nil
}

// parseDocComment consumes a leading doc comment, if present, and
// returns its decoded text (empty if absent).
func (p *Parser) parseDocComment() (string, error) {
	if !p.lex.See(lexer.DocComment) {
		return "", nil
	}
	doc := p.lex.Current().Literal
	if _, err := p.lex.NextToken(); err != nil {
		return "", err
	}
	return doc, nil
}
