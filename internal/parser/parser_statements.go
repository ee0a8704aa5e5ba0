package parser

import (
	"strings"

	"github.com/Marco012/cito/internal/ast"
	"github.com/Marco012/cito/internal/lexer"
)

// parseAssign implements §4.3.3's declaration/expression disambiguation.
// When allowVar is true and the current token opens a type name, the
// parser speculatively parses a type; if a second identifier follows, the
// construct is a variable declaration, otherwise the parsed type is
// reinterpreted as the start of an expression and parsing continues from
// there. Block statements and for-init pass allowVar = true; the for
// advance passes false.
func (p *Parser) parseAssign(allowVar bool) (ast.Stmt, error) {
	line := p.line()

	if allowVar && p.lex.See(lexer.Ident) {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.lex.See(lexer.Ident) {
			name := p.lex.Current().Literal
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			var init ast.Expr
			hasInit, err := p.lex.Eat(lexer.Assign)
			if err != nil {
				return nil, err
			}
			if hasInit {
				init, err = p.parseInitializer()
				if err != nil {
					return nil, err
				}
			}
			decl := &ast.VarDecl{Base: ast.Base{Line: line}, Type: typ, Name: name, Init: init}
			return &ast.ExprStmt{Base: ast.Base{Line: line}, X: decl}, nil
		}

		expr, err := p.typeToExpr(typ)
		if err != nil {
			return nil, err
		}
		expr, err = p.continuePostfix(expr)
		if err != nil {
			return nil, err
		}
		expr, err = p.continueExprFrom(expr)
		if err != nil {
			return nil, err
		}
		return p.finishAssignOrExpr(line, expr)
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return p.finishAssignOrExpr(line, expr)
}

func (p *Parser) finishAssignOrExpr(line int, expr ast.Expr) (ast.Stmt, error) {
	op, ok := p.assignOpIfPresent()
	if !ok {
		return &ast.ExprStmt{Base: ast.Base{Line: line}, X: expr}, nil
	}
	if _, err := p.lex.NextToken(); err != nil {
		return nil, err
	}
	right, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Base: ast.Base{Line: line}, X: &ast.BinaryExpr{Base: ast.Base{Line: line}, Left: expr, Op: op, Right: right}}, nil
}

// parseStatement dispatches on the current token per §4.3.4.
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.lex.See(lexer.LBrace):
		return p.parseBlock()
	case p.lex.See(lexer.Assert):
		return p.parseAssert()
	case p.lex.See(lexer.Break):
		return p.parseBreak()
	case p.lex.See(lexer.Continue):
		return p.parseContinue()
	case p.lex.See(lexer.Const):
		return p.parseConstStmt()
	case p.lex.See(lexer.Do):
		return p.parseDoWhile()
	case p.lex.See(lexer.For):
		return p.parseFor()
	case p.lex.See(lexer.Foreach):
		return p.parseForeach()
	case p.lex.See(lexer.If):
		return p.parseIf()
	case p.lex.See(lexer.Lock):
		return p.parseLock()
	case p.lex.See(lexer.Native):
		return p.parseNativeStmt()
	case p.lex.See(lexer.Return):
		return p.parseReturn()
	case p.lex.See(lexer.Switch):
		return p.parseSwitch()
	case p.lex.See(lexer.Throw):
		return p.parseThrow()
	case p.lex.See(lexer.While):
		return p.parseWhile()
	default:
		stmt, err := p.parseAssign(true)
		if err != nil {
			return nil, err
		}
		if err := p.lex.Expect(lexer.Semicolon); err != nil {
			return nil, err
		}
		return stmt, nil
	}
}

func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.lex.See(lexer.RBrace) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if err := p.lex.Expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Base: ast.Base{Line: line}, Stmts: stmts}, nil
}

func (p *Parser) parseAssert() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Assert); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var message ast.Expr
	hasMsg, err := p.lex.Eat(lexer.Comma)
	if err != nil {
		return nil, err
	}
	if hasMsg {
		message, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return &ast.AssertStmt{Base: ast.Base{Line: line}, Cond: cond, Message: message}, nil
}

func (p *Parser) parseBreak() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Break); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	if p.currentLoopOrSwitch == nil {
		return nil, p.errContextual(line, "'break' outside a loop or switch")
	}
	p.currentLoopOrSwitch.MarkHasBreak()
	return &ast.BreakStmt{Base: ast.Base{Line: line}, Target: p.currentLoopOrSwitch}, nil
}

func (p *Parser) parseContinue() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Continue); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	if p.currentLoop == nil {
		return nil, p.errContextual(line, "'continue' outside a loop")
	}
	return &ast.ContinueStmt{Base: ast.Base{Line: line}, Target: p.currentLoop}, nil
}

// parseConstDecl parses "const Type name = initializer" without the
// trailing semicolon or a visibility/doc comment, shared by top-level,
// class-member, and local const parsing.
func (p *Parser) parseConstDecl() (*ast.Const, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Const); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Check(lexer.Ident); err != nil {
		return nil, err
	}
	name := p.lex.Current().Literal
	if _, err := p.lex.NextToken(); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Assign); err != nil {
		return nil, err
	}
	value, err := p.parseInitializer()
	if err != nil {
		return nil, err
	}
	return &ast.Const{DocBase: ast.DocBase{Base: ast.Base{Line: line}}, Type: typ, Name: name, Value: value}, nil
}

func (p *Parser) parseConstStmt() (ast.Stmt, error) {
	line := p.line()
	decl, err := p.parseConstDecl()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return &ast.ConstStmt{Base: ast.Base{Line: line}, Decl: decl}, nil
}

func (p *Parser) parseDoWhile() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Do); err != nil {
		return nil, err
	}
	node := &ast.DoWhileStmt{Base: ast.Base{Line: line}}
	restore := p.enterLoop(node)
	body, err := p.parseStatement()
	restore()
	if err != nil {
		return nil, err
	}
	node.Body = body
	if err := p.lex.Expect(lexer.While); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	node.Cond = cond
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.For); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return nil, err
	}
	node := &ast.ForStmt{Base: ast.Base{Line: line}}

	if !p.lex.See(lexer.Semicolon) {
		init, err := p.parseAssign(true)
		if err != nil {
			return nil, err
		}
		node.Init = init
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	if !p.lex.See(lexer.Semicolon) {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Cond = cond
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}

	if !p.lex.See(lexer.RParen) {
		advance, err := p.parseAssign(false)
		if err != nil {
			return nil, err
		}
		node.Advance = advance
	}
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return nil, err
	}

	restore := p.enterLoop(node)
	body, err := p.parseStatement()
	restore()
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}

func (p *Parser) parseForeachVar() (*ast.VarDecl, error) {
	line := p.line()
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Check(lexer.Ident); err != nil {
		return nil, err
	}
	name := p.lex.Current().Literal
	if _, err := p.lex.NextToken(); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Base: ast.Base{Line: line}, Type: typ, Name: name}, nil
}

func (p *Parser) parseForeach() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Foreach); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return nil, err
	}

	node := &ast.ForeachStmt{Base: ast.Base{Line: line}}

	if ok, err := p.lex.Eat(lexer.LParen); err != nil {
		return nil, err
	} else if ok {
		v1, err := p.parseForeachVar()
		if err != nil {
			return nil, err
		}
		if err := p.lex.Expect(lexer.Comma); err != nil {
			return nil, err
		}
		v2, err := p.parseForeachVar()
		if err != nil {
			return nil, err
		}
		if err := p.lex.Expect(lexer.RParen); err != nil {
			return nil, err
		}
		node.Var1, node.Var2 = v1, v2
	} else {
		v1, err := p.parseForeachVar()
		if err != nil {
			return nil, err
		}
		node.Var1 = v1
	}

	if err := p.lex.Expect(lexer.In); err != nil {
		return nil, err
	}
	collection, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	node.Collection = collection
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return nil, err
	}

	restore := p.enterLoop(node)
	body, err := p.parseStatement()
	restore()
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.If); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Stmt
	hasElse, err := p.lex.Eat(lexer.Else)
	if err != nil {
		return nil, err
	}
	if hasElse {
		elseStmt, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfStmt{Base: ast.Base{Line: line}, Cond: cond, Then: then, Else: elseStmt}, nil
}

func (p *Parser) parseLock() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Lock); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return nil, err
	}
	lockExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.LockStmt{Base: ast.Base{Line: line}, Lock: lockExpr, Body: body}, nil
}

// parseNativeStmt implements §4.3.5: the lexer's capture buffer is
// attached across the whole verbatim block, tracking brace nesting by
// advancing token-by-token; the trailing '}' is trimmed from the
// captured text.
func (p *Parser) parseNativeStmt() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Native); err != nil {
		return nil, err
	}
	if err := p.lex.Check(lexer.LBrace); err != nil {
		return nil, err
	}

	var buf strings.Builder
	p.lex.AttachCapture(&buf)
	depth := 0
	for {
		if p.lex.See(lexer.LBrace) {
			depth++
		} else if p.lex.See(lexer.RBrace) {
			depth--
		} else if p.lex.See(lexer.EOF) {
			p.lex.DetachCapture()
			return nil, p.errLexical("unterminated native block")
		}
		if depth == 0 {
			break
		}
		if _, err := p.lex.NextToken(); err != nil {
			p.lex.DetachCapture()
			return nil, err
		}
	}
	p.lex.DetachCapture()

	content := buf.String()
	content = strings.TrimSuffix(content, "}")
	if _, err := p.lex.NextToken(); err != nil {
		return nil, err
	}
	return &ast.NativeStmt{Base: ast.Base{Line: line}, Content: content}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Return); err != nil {
		return nil, err
	}
	var value ast.Expr
	if !p.lex.See(lexer.Semicolon) {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		value = v
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Base: ast.Base{Line: line}, Value: value}, nil
}

func (p *Parser) parseSwitch() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Switch); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LBrace); err != nil {
		return nil, err
	}

	node := &ast.SwitchStmt{Base: ast.Base{Line: line}, Value: value}
	restore := p.enterSwitch(node)
	defer restore()

	for !p.lex.See(lexer.RBrace) {
		if p.lex.See(lexer.Default) {
			if node.HasDefault {
				return nil, p.errContextual(p.line(), "duplicate 'default' in switch")
			}
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			if err := p.lex.Expect(lexer.Colon); err != nil {
				return nil, err
			}
			var body []ast.Stmt
			for !p.lex.See(lexer.RBrace) && !p.lex.See(lexer.Case) {
				if p.lex.See(lexer.Default) {
					return nil, p.errContextual(p.line(), "duplicate 'default' in switch")
				}
				s, err := p.parseStatement()
				if err != nil {
					return nil, err
				}
				body = append(body, s)
			}
			node.HasDefault = true
			node.DefaultBody = body
			continue
		}

		if node.HasDefault {
			return nil, p.errContextual(p.line(), "please remove case before default")
		}

		var values []ast.Expr
		for p.lex.See(lexer.Case) {
			if _, err := p.lex.NextToken(); err != nil {
				return nil, err
			}
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if err := p.lex.Expect(lexer.Colon); err != nil {
				return nil, err
			}
		}
		if len(values) == 0 {
			return nil, p.errStructural("expected 'case' or 'default' but found %s", p.lex.Current().Kind)
		}
		var body []ast.Stmt
		for !p.lex.See(lexer.Case) && !p.lex.See(lexer.Default) && !p.lex.See(lexer.RBrace) {
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			body = append(body, s)
		}
		node.Cases = append(node.Cases, ast.SwitchCase{Values: values, Body: body})
	}

	if len(node.Cases) == 0 {
		return nil, p.errContextual(line, "switch has no cases")
	}
	if err := p.lex.Expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseThrow() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Throw); err != nil {
		return nil, err
	}
	message, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return &ast.ThrowStmt{Base: ast.Base{Line: line}, Message: message}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.While); err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return nil, err
	}
	node := &ast.WhileStmt{Base: ast.Base{Line: line}, Cond: cond}
	restore := p.enterLoop(node)
	body, err := p.parseStatement()
	restore()
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}
