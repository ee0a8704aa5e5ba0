package parser

import (
	"strconv"
	"strings"

	"github.com/Marco012/cito/internal/ast"
	"github.com/Marco012/cito/internal/lexer"
)

var assignOps = map[lexer.Kind]string{
	lexer.Assign:    "=",
	lexer.AddAssign: "+=",
	lexer.SubAssign: "-=",
	lexer.MulAssign: "*=",
	lexer.DivAssign: "/=",
	lexer.ModAssign: "%=",
	lexer.AndAssign: "&=",
	lexer.OrAssign:  "|=",
	lexer.XorAssign: "^=",
	lexer.ShlAssign: "<<=",
	lexer.ShrAssign: ">>=",
}

func (p *Parser) assignOpIfPresent() (string, bool) {
	op, ok := assignOps[p.lex.Current().Kind]
	return op, ok
}

// parseExpr parses a full expression at the select (ternary) level, the
// lowest precedence.
func (p *Parser) parseExpr() (ast.Expr, error) {
	left, err := p.parseCondOr()
	if err != nil {
		return nil, err
	}
	return p.continueSelect(left)
}

func (p *Parser) continueSelect(cond ast.Expr) (ast.Expr, error) {
	ok, err := p.lex.Eat(lexer.Question)
	if err != nil {
		return nil, err
	}
	if !ok {
		return cond, nil
	}
	line := cond.SourceLine()
	onTrue, err := p.withXcrement("?", p.parseExpr)
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Colon); err != nil {
		return nil, err
	}
	onFalse, err := p.withXcrement("?", p.parseExpr)
	if err != nil {
		return nil, err
	}
	return &ast.SelectExpr{Base: ast.Base{Line: line}, Cond: cond, OnTrue: onTrue, OnFalse: onFalse}, nil
}

// parseAssignExpr parses an assignment: a select-level expression,
// optionally followed by a right-associative chain of assignment
// operators.
func (p *Parser) parseAssignExpr() (ast.Expr, error) {
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	op, ok := p.assignOpIfPresent()
	if !ok {
		return left, nil
	}
	line := left.SourceLine()
	if _, err := p.lex.NextToken(); err != nil {
		return nil, err
	}
	right, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Base: ast.Base{Line: line}, Left: left, Op: op, Right: right}, nil
}

func (p *Parser) parseCondOr() (ast.Expr, error) {
	left, err := p.parseCondAnd()
	if err != nil {
		return nil, err
	}
	return p.continueCondOr(left)
}

func (p *Parser) continueCondOr(left ast.Expr) (ast.Expr, error) {
	for p.lex.See(lexer.OrOr) {
		line := left.SourceLine()
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		right, err := p.withXcrement("||", p.parseCondAnd)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.Base{Line: line}, Left: left, Op: "||", Right: right}
	}
	return left, nil
}

func (p *Parser) parseCondAnd() (ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	return p.continueCondAnd(left)
}

func (p *Parser) continueCondAnd(left ast.Expr) (ast.Expr, error) {
	for p.lex.See(lexer.AndAnd) {
		line := left.SourceLine()
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		right, err := p.withXcrement("&&", p.parseOr)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.Base{Line: line}, Left: left, Op: "&&", Right: right}
	}
	return left, nil
}

// parseBinaryFrom implements one left-associative precedence level given
// an already-parsed left operand: it repeatedly consumes one of kinds and
// parses the next-higher-precedence operand via next.
func (p *Parser) parseBinaryFrom(left ast.Expr, next func() (ast.Expr, error), kinds ...lexer.Kind) (ast.Expr, error) {
	for p.atOneOf(kinds...) {
		line := left.SourceLine()
		op := p.lex.Current().Kind.String()
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.Base{Line: line}, Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseXor, lexer.Pipe)
}

func (p *Parser) parseXor() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseAnd, lexer.Caret)
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseEquality, lexer.Amp)
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseRelational, lexer.EqEq, lexer.Ne)
}

// parseRelational handles <, <=, >, >=, and the "is Type [binding]" type
// test, all at one precedence level.
func (p *Parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	return p.continueRelational(left)
}

func (p *Parser) continueRelational(left ast.Expr) (ast.Expr, error) {
	for {
		line := left.SourceLine()
		if p.lex.See(lexer.Is) {
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			hasBinding := false
			bindingName := ""
			if p.lex.See(lexer.Ident) {
				hasBinding = true
				bindingName = p.lex.Current().Literal
				if _, err := p.lex.NextToken(); err != nil {
					return nil, err
				}
			}
			left = &ast.IsExpr{Base: ast.Base{Line: line}, X: left, Type: typ, HasBinding: hasBinding, BindingName: bindingName}
			continue
		}
		if !p.atOneOf(lexer.Lt, lexer.Le, lexer.Gt, lexer.Ge) {
			return left, nil
		}
		op := p.lex.Current().Kind.String()
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Base: ast.Base{Line: line}, Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseShift() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseAdditive, lexer.Shl, lexer.Shr)
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseMultiplicative, lexer.Plus, lexer.Minus)
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinaryFrom(left, p.parseUnary, lexer.Star, lexer.Slash, lexer.Percent)
}

// parseUnary handles the right-associative prefix level: - ~ ! ++ -- new
// resource.
func (p *Parser) parseUnary() (ast.Expr, error) {
	line := p.line()
	switch {
	case p.atOneOf(lexer.Minus, lexer.Tilde, lexer.Not):
		op := p.lex.Current().Kind.String()
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpr{Base: ast.Base{Line: line}, Op: op, Inner: inner}, nil

	case p.atOneOf(lexer.Inc, lexer.Dec):
		if err := p.checkXcrement(line); err != nil {
			return nil, err
		}
		op := p.lex.Current().Kind.String()
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpr{Base: ast.Base{Line: line}, Op: op, Inner: inner}, nil

	case p.lex.See(lexer.NewKw):
		return p.parseNewExpr()

	case p.lex.See(lexer.Resource):
		return p.parseResourceExpr()

	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parseNewExpr() (ast.Expr, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.NewKw); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	hasCall, err := p.lex.Eat(lexer.LParen)
	if err != nil {
		return nil, err
	}
	var args []ast.Expr
	if hasCall {
		args, err = p.parseArgList()
		if err != nil {
			return nil, err
		}
		if err := p.lex.Expect(lexer.RParen); err != nil {
			return nil, err
		}
	}
	return &ast.NewExpr{Base: ast.Base{Line: line}, Type: typ, Args: args, HasCall: hasCall}, nil
}

// parseResourceExpr parses "resource<byte[]>(path)": the "<byte[]>" is a
// fixed lexical requirement, not a parsed type.
func (p *Parser) parseResourceExpr() (ast.Expr, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Resource); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Lt); err != nil {
		return nil, err
	}
	if err := p.lex.Check(lexer.Ident); err != nil {
		return nil, err
	}
	if p.lex.Current().Literal != "byte" {
		return nil, p.errStructural("expected 'byte[]' after 'resource<'")
	}
	if _, err := p.lex.NextToken(); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LBracket); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.RBracket); err != nil {
		return nil, err
	}
	if err := p.closeGenericArg(); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return nil, err
	}
	path, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return nil, err
	}
	return &ast.ResourceExpr{Base: ast.Base{Line: line}, Path: path}, nil
}

// parsePostfix handles primary expressions plus the postfix chain: member
// access, call, index, and postfix ++/--/!/#.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.continuePostfix(expr)
}

func (p *Parser) continuePostfix(expr ast.Expr) (ast.Expr, error) {
	for {
		line := expr.SourceLine()
		switch {
		case p.lex.See(lexer.Dot):
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			if err := p.lex.Check(lexer.Ident); err != nil {
				return nil, err
			}
			name := p.lex.Current().Literal
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			expr = &ast.SymbolRef{Base: ast.Base{Line: line}, Qualifier: expr, Name: name}

		case p.lex.See(lexer.LParen):
			sym, ok := expr.(*ast.SymbolRef)
			if !ok {
				return nil, p.errStructural("call target must be a symbol reference")
			}
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if err := p.lex.Expect(lexer.RParen); err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Base: ast.Base{Line: line}, Method: sym, Args: args}

		case p.lex.See(lexer.LBracket):
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			var index ast.Expr
			if !p.lex.See(lexer.RBracket) {
				var err error
				index, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			if err := p.lex.Expect(lexer.RBracket); err != nil {
				return nil, err
			}
			expr = &ast.BinaryExpr{Base: ast.Base{Line: line}, Left: expr, Op: "[]", Right: index}

		case p.atOneOf(lexer.Inc, lexer.Dec):
			if err := p.checkXcrement(line); err != nil {
				return nil, err
			}
			op := p.lex.Current().Kind.String()
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			expr = &ast.PostfixExpr{Base: ast.Base{Line: line}, Inner: expr, Op: op}

		case p.lex.See(lexer.Not):
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			expr = &ast.PostfixExpr{Base: ast.Base{Line: line}, Inner: expr, Op: "!"}

		case p.lex.See(lexer.Hash):
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			expr = &ast.PostfixExpr{Base: ast.Base{Line: line}, Inner: expr, Op: "#"}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	line := p.line()
	tok := p.lex.Current()
	switch tok.Kind {
	case lexer.IntLiteral:
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		return &ast.LongLiteral{Base: ast.Base{Line: line}, Value: tok.IntValue}, nil

	case lexer.FloatLiteral:
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		return &ast.DoubleLiteral{Base: ast.Base{Line: line}, Value: tok.FloatValue}, nil

	case lexer.StringLiteral:
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Base: ast.Base{Line: line}, Value: tok.Literal}, nil

	case lexer.True:
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		return &ast.BoolLiteral{Base: ast.Base{Line: line}, Value: true}, nil

	case lexer.False:
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		return &ast.BoolLiteral{Base: ast.Base{Line: line}, Value: false}, nil

	case lexer.Null:
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		return &ast.NullLiteral{Base: ast.Base{Line: line}}, nil

	case lexer.InterpStringFragment:
		return p.parseInterpolatedString()

	case lexer.Ident:
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		return &ast.SymbolRef{Base: ast.Base{Line: line}, Name: tok.Literal}, nil

	case lexer.LParen:
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.lex.Expect(lexer.RParen); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, p.errStructural("unexpected token %s in expression", tok.Kind)
	}
}

// parseInterpolatedString parses the remainder of a $"..." literal,
// starting from its already-current initial fragment.
func (p *Parser) parseInterpolatedString() (ast.Expr, error) {
	line := p.line()
	frag := p.lex.Current()
	if _, err := p.lex.NextToken(); err != nil {
		return nil, err
	}
	prefix := frag.Literal
	final := frag.Final
	var parts []ast.InterpPart

	for !final {
		part := ast.InterpPart{Prefix: prefix}

		arg, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		part.Arg = arg

		hasWidth, err := p.lex.Eat(lexer.Comma)
		if err != nil {
			return nil, err
		}
		if hasWidth {
			width, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			part.Width = width
		}

		hasFormat, err := p.lex.Eat(lexer.Colon)
		if err != nil {
			return nil, err
		}
		if hasFormat {
			if err := p.lex.Check(lexer.Ident); err != nil {
				return nil, err
			}
			spec := p.lex.Current().Literal
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			if len(spec) == 0 {
				return nil, p.errStructural("empty interpolation format specifier")
			}
			if !strings.ContainsRune("DdEeFfGgXx", rune(spec[0])) {
				return nil, p.errLexical("bad interpolation format %q, expected one of DdEeFfGgXx", spec[0])
			}
			part.HasFormat = true
			part.Format = spec[0]
			if len(spec) > 1 {
				digits := spec[1:]
				if len(digits) > 2 {
					return nil, p.errStructural("interpolation precision must be 1 or 2 digits")
				}
				prec, convErr := strconv.Atoi(digits)
				if convErr != nil {
					return nil, p.errStructural("malformed interpolation precision %q", digits)
				}
				part.HasPrecision = true
				part.Precision = prec
			}
		}

		if err := p.lex.Check(lexer.RBrace); err != nil {
			return nil, err
		}
		next, err := p.lex.ReadInterpolatedString()
		if err != nil {
			return nil, err
		}
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		parts = append(parts, part)
		prefix = next.Literal
		final = next.Final
	}

	return &ast.InterpolatedString{Base: ast.Base{Line: line}, Parts: parts, Suffix: prefix}, nil
}

func (p *Parser) parseArgList() ([]ast.Expr, error) {
	var args []ast.Expr
	if p.lex.See(lexer.RParen) {
		return args, nil
	}
	for {
		arg, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		more, err := p.lex.Eat(lexer.Comma)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return args, nil
}

// parseInitializer parses the right-hand side of "=": either an
// aggregate { ... } initializer or an ordinary assignment-level
// expression.
func (p *Parser) parseInitializer() (ast.Expr, error) {
	if p.lex.See(lexer.LBrace) {
		return p.parseAggregateInitializer()
	}
	return p.parseAssignExpr()
}

func (p *Parser) parseAggregateInitializer() (ast.Expr, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var items []ast.Expr
	for !p.lex.See(lexer.RBrace) {
		item, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		more, err := p.lex.Eat(lexer.Comma)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	if err := p.lex.Expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return &ast.AggregateInitializer{Base: ast.Base{Line: line}, Items: items}, nil
}

// typeToExpr reinterprets a parseType() result as an expression, for the
// declaration/expression disambiguation in parseAssign: only a bare name
// can plausibly continue as an expression.
func (p *Parser) typeToExpr(t ast.TypeExpr) (ast.Expr, error) {
	switch n := t.(type) {
	case *ast.NamedType:
		return &ast.SymbolRef{Base: n.Base, Name: n.Name}, nil
	default:
		return nil, p.errStructural("unexpected type expression used as a value")
	}
}

// continueExprFrom resumes the full binary-operator chain (from
// multiplicative up through select) given an already-parsed
// primary/postfix-level left operand. Used after the declaration lookahead
// in parseAssign determines the parsed type was in fact an expression.
func (p *Parser) continueExprFrom(left ast.Expr) (ast.Expr, error) {
	left, err := p.parseBinaryFrom(left, p.parseUnary, lexer.Star, lexer.Slash, lexer.Percent)
	if err != nil {
		return nil, err
	}
	left, err = p.parseBinaryFrom(left, p.parseMultiplicative, lexer.Plus, lexer.Minus)
	if err != nil {
		return nil, err
	}
	left, err = p.parseBinaryFrom(left, p.parseAdditive, lexer.Shl, lexer.Shr)
	if err != nil {
		return nil, err
	}
	left, err = p.continueRelational(left)
	if err != nil {
		return nil, err
	}
	left, err = p.parseBinaryFrom(left, p.parseRelational, lexer.EqEq, lexer.Ne)
	if err != nil {
		return nil, err
	}
	left, err = p.parseBinaryFrom(left, p.parseEquality, lexer.Amp)
	if err != nil {
		return nil, err
	}
	left, err = p.parseBinaryFrom(left, p.parseAnd, lexer.Caret)
	if err != nil {
		return nil, err
	}
	left, err = p.parseBinaryFrom(left, p.parseXor, lexer.Pipe)
	if err != nil {
		return nil, err
	}
	left, err = p.continueCondAnd(left)
	if err != nil {
		return nil, err
	}
	left, err = p.continueCondOr(left)
	if err != nil {
		return nil, err
	}
	return p.continueSelect(left)
}
