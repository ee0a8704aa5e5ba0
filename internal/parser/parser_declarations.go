package parser

import (
	"github.com/Marco012/cito/internal/ast"
	"github.com/Marco012/cito/internal/lexer"
)

// memberLegality is the class-kind × member-kind legality matrix from
// §4.3.6.
var memberLegality = map[ast.CallKind]map[ast.CallKind]bool{
	ast.Static: {
		ast.Static: true,
	},
	ast.Normal: {
		ast.Static: true, ast.Normal: true, ast.Virtual: true,
		ast.Override: true, ast.Sealed: true,
	},
	ast.Abstract: {
		ast.Static: true, ast.Normal: true, ast.Abstract: true,
		ast.Virtual: true, ast.Override: true, ast.Sealed: true,
	},
	ast.Sealed: {
		ast.Static: true, ast.Normal: true, ast.Override: true, ast.Sealed: true,
	},
}

func (p *Parser) checkMemberLegality(line int, classKind, memberKind ast.CallKind) error {
	if !memberLegality[classKind][memberKind] {
		return p.errContextual(line, "a %s class cannot have a %s member", classKind, memberKind)
	}
	return nil
}

func (p *Parser) checkPrivateVisibility(line int, vis ast.Visibility, kind ast.CallKind) error {
	if vis == ast.Private && kind != ast.Static && kind != ast.Normal {
		return p.errContextual(line, "private visibility is not legal with %s call-kind", kind)
	}
	return nil
}

// parseVisibility parses "internal|protected|public", defaulting to
// Private.
func (p *Parser) parseVisibility() (ast.Visibility, error) {
	switch {
	case p.lex.See(lexer.Internal):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Internal, nil
	case p.lex.See(lexer.Protected):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Protected, nil
	case p.lex.See(lexer.Public):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Public, nil
	default:
		return ast.Private, nil
	}
}

// parseTopLevelVisibility parses the top-level item's optional "public"
// prefix; absent means Internal.
func (p *Parser) parseTopLevelVisibility() (ast.Visibility, error) {
	ok, err := p.lex.Eat(lexer.Public)
	if err != nil {
		return 0, err
	}
	if ok {
		return ast.Public, nil
	}
	return ast.Internal, nil
}

func (p *Parser) parseClassCallKind() (ast.CallKind, error) {
	switch {
	case p.lex.See(lexer.Static):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Static, nil
	case p.lex.See(lexer.Abstract):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Abstract, nil
	case p.lex.See(lexer.Sealed):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Sealed, nil
	default:
		return ast.Normal, nil
	}
}

func (p *Parser) parseMemberCallKind() (ast.CallKind, error) {
	switch {
	case p.lex.See(lexer.Static):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Static, nil
	case p.lex.See(lexer.Abstract):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Abstract, nil
	case p.lex.See(lexer.Virtual):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Virtual, nil
	case p.lex.See(lexer.Override):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Override, nil
	case p.lex.See(lexer.Sealed):
		if _, err := p.lex.NextToken(); err != nil {
			return 0, err
		}
		return ast.Sealed, nil
	default:
		return ast.Normal, nil
	}
}

// parseTopLevel parses one top-level item: an optionally-public class or
// enum, or a bare native block appended to the program's top-level
// natives list.
func (p *Parser) parseTopLevel() error {
	if p.lex.See(lexer.Native) {
		stmt, err := p.parseNativeStmt()
		if err != nil {
			return err
		}
		p.program.TopLevelNatives = append(p.program.TopLevelNatives, stmt.(*ast.NativeStmt).Content)
		return nil
	}

	doc, err := p.parseDocComment()
	if err != nil {
		return err
	}
	vis, err := p.parseTopLevelVisibility()
	if err != nil {
		return err
	}

	switch {
	case p.lex.See(lexer.Enum):
		enum, err := p.parseEnum(vis, doc)
		if err != nil {
			return err
		}
		enum.Program = p.program
		p.program.Add(enum)
		return nil

	case p.atOneOf(lexer.Static, lexer.Abstract, lexer.Sealed, lexer.Class):
		class, err := p.parseClass(vis, doc)
		if err != nil {
			return err
		}
		class.Program = p.program
		p.program.Add(class)
		return nil

	default:
		return p.errStructural("expected class or enum but found %s", p.lex.Current().Kind)
	}
}

// parseClass implements §4.3.6.
func (p *Parser) parseClass(vis ast.Visibility, doc string) (*ast.Class, error) {
	line := p.line()
	classKind, err := p.parseClassCallKind()
	if err != nil {
		return nil, err
	}
	if err := p.lex.Expect(lexer.Class); err != nil {
		return nil, err
	}
	if err := p.lex.Check(lexer.Ident); err != nil {
		return nil, err
	}
	name := p.lex.Current().Literal
	if _, err := p.lex.NextToken(); err != nil {
		return nil, err
	}

	class := &ast.Class{
		DocBase:    ast.DocBase{Base: ast.Base{Line: line}, Doc: doc},
		Name:       name,
		CallKind:   classKind,
		Visibility: vis,
	}

	hasBase, err := p.lex.Eat(lexer.Colon)
	if err != nil {
		return nil, err
	}
	if hasBase {
		if err := p.lex.Check(lexer.Ident); err != nil {
			return nil, err
		}
		class.BaseName = p.lex.Current().Literal
		class.HasBase = true
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
	}

	if err := p.lex.Expect(lexer.LBrace); err != nil {
		return nil, err
	}
	for !p.lex.See(lexer.RBrace) {
		if err := p.parseClassMember(class); err != nil {
			return nil, err
		}
	}
	return class, p.lex.Expect(lexer.RBrace)
}

// parseClassMember implements the member grammar and legality checks of
// §4.3.6 points 1-8.
func (p *Parser) parseClassMember(class *ast.Class) error {
	line := p.line()
	doc, err := p.parseDocComment()
	if err != nil {
		return err
	}
	vis, err := p.parseVisibility()
	if err != nil {
		return err
	}

	if p.lex.See(lexer.Const) {
		c, err := p.parseConstDecl()
		if err != nil {
			return err
		}
		if err := p.lex.Expect(lexer.Semicolon); err != nil {
			return err
		}
		c.Doc = doc
		c.Visibility = vis
		class.Consts = append(class.Consts, c)
		return nil
	}

	memberKind, err := p.parseMemberCallKind()
	if err != nil {
		return err
	}
	if err := p.checkMemberLegality(line, class.CallKind, memberKind); err != nil {
		return err
	}
	if err := p.checkPrivateVisibility(line, vis, memberKind); err != nil {
		return err
	}

	isVoid := false
	var retType ast.TypeExpr
	if p.lex.See(lexer.Void) {
		isVoid = true
		if _, err := p.lex.NextToken(); err != nil {
			return err
		}
	} else {
		retType, err = p.parseType()
		if err != nil {
			return err
		}
	}

	if !isVoid {
		if ctor, err := p.tryParseConstructor(class, line, doc, vis, memberKind, retType); err != nil {
			return err
		} else if ctor {
			return nil
		}
	}

	if err := p.lex.Check(lexer.Ident); err != nil {
		return err
	}
	name := p.lex.Current().Literal
	if _, err := p.lex.NextToken(); err != nil {
		return err
	}

	if p.lex.See(lexer.LParen) || p.lex.See(lexer.Not) {
		return p.parseMethod(class, line, doc, vis, memberKind, retType, isVoid, name)
	}
	return p.parseField(class, line, doc, vis, memberKind, retType, isVoid, name)
}

// tryParseConstructor recognises "ClassName() { ... }" per point 6: the
// return type was parsed as a call expression with no arguments whose
// method name equals the class name. Since parseType never produces call
// expressions, the shape is detected directly: a NamedType matching the
// class name, immediately followed by "()" then "{".
func (p *Parser) tryParseConstructor(class *ast.Class, line int, doc string, vis ast.Visibility, memberKind ast.CallKind, retType ast.TypeExpr) (bool, error) {
	nt, ok := retType.(*ast.NamedType)
	if !ok || nt.Name != class.Name {
		return false, nil
	}
	if !p.lex.See(lexer.LParen) {
		return false, nil
	}
	if _, err := p.lex.NextToken(); err != nil {
		return false, err
	}
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return false, err
	}
	if err := p.lex.Check(lexer.LBrace); err != nil {
		return false, err
	}
	if class.Ctor != nil {
		return false, p.errContextual(line, "class %s already has a constructor", class.Name)
	}
	if memberKind != ast.Normal {
		return false, p.errContextual(line, "constructor of %s must have normal call-kind", class.Name)
	}
	body, err := p.parseBlock()
	if err != nil {
		return false, err
	}
	ctorVis := vis
	if ctorVis == ast.Private {
		// TODO: retained from the original front end without a stated
		// rationale; see DESIGN.md.
		ctorVis = ast.Internal
	}
	class.Ctor = &ast.Method{
		DocBase:    ast.DocBase{Base: ast.Base{Line: line}, Doc: doc},
		CallKind:   ast.Normal,
		IsVoid:     true,
		Name:       class.Name,
		Body:       body,
		Visibility: ctorVis,
		Owner:      class,
	}
	return true, nil
}

func (p *Parser) parseMethod(class *ast.Class, line int, doc string, vis ast.Visibility, memberKind ast.CallKind, retType ast.TypeExpr, isVoid bool, name string) error {
	isMutator, err := p.lex.Eat(lexer.Not)
	if err != nil {
		return err
	}
	if err := p.lex.Expect(lexer.LParen); err != nil {
		return err
	}
	params, err := p.parseParamList(class)
	if err != nil {
		return err
	}
	if err := p.lex.Expect(lexer.RParen); err != nil {
		return err
	}
	throws, err := p.lex.Eat(lexer.Throws)
	if err != nil {
		return err
	}

	method := &ast.Method{
		DocBase:    ast.DocBase{Base: ast.Base{Line: line}, Doc: doc},
		CallKind:   memberKind,
		ReturnType: retType,
		IsVoid:     isVoid,
		Name:       name,
		Params:     params,
		IsMutator:  isMutator,
		Throws:     throws,
		Visibility: vis,
		Owner:      class,
	}

	switch {
	case p.lex.See(lexer.Semicolon):
		if memberKind != ast.Abstract {
			return p.errContextual(line, "method %s without a body must be abstract", name)
		}
		if _, err := p.lex.NextToken(); err != nil {
			return err
		}

	case p.lex.See(lexer.FatArrow):
		if _, err := p.lex.NextToken(); err != nil {
			return err
		}
		value, err := p.parseExpr()
		if err != nil {
			return err
		}
		if err := p.lex.Expect(lexer.Semicolon); err != nil {
			return err
		}
		method.ExprBody = value
		method.Body = &ast.BlockStmt{
			Base:  ast.Base{Line: line},
			Stmts: []ast.Stmt{&ast.ReturnStmt{Base: ast.Base{Line: line}, Value: value}},
		}

	case p.lex.See(lexer.LBrace):
		body, err := p.parseBlock()
		if err != nil {
			return err
		}
		method.Body = body

	default:
		return p.errStructural("expected method body but found %s", p.lex.Current().Kind)
	}

	class.Methods = append(class.Methods, method)
	return nil
}

func (p *Parser) parseField(class *ast.Class, line int, doc string, vis ast.Visibility, memberKind ast.CallKind, retType ast.TypeExpr, isVoid bool, name string) error {
	if memberKind != ast.Normal {
		return p.errContextual(line, "field %s must have normal call-kind", name)
	}
	if isVoid {
		return p.errContextual(line, "field %s cannot have type void", name)
	}
	if vis == ast.Public {
		return p.errContextual(line, "field %s cannot be public", name)
	}
	var init ast.Expr
	hasInit, err := p.lex.Eat(lexer.Assign)
	if err != nil {
		return err
	}
	if hasInit {
		init, err = p.parseInitializer()
		if err != nil {
			return err
		}
	}
	if err := p.lex.Expect(lexer.Semicolon); err != nil {
		return err
	}
	class.Fields = append(class.Fields, &ast.Field{
		DocBase:    ast.DocBase{Base: ast.Base{Line: line}, Doc: doc},
		Type:       retType,
		Name:       name,
		Init:       init,
		Visibility: vis,
	})
	return nil
}

// parseParamList implements point 7's parameter grammar: comma-separated
// "[doc] Type name [= default]". Default values are accepted here and
// left for the resolver, per the open question in the design notes.
func (p *Parser) parseParamList(owner *ast.Class) ([]*ast.Param, error) {
	var params []*ast.Param
	if p.lex.See(lexer.RParen) {
		return params, nil
	}
	for {
		doc, err := p.parseDocComment()
		if err != nil {
			return nil, err
		}
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
		var def ast.Expr
		hasDefault, err := p.lex.Eat(lexer.Assign)
		if err != nil {
			return nil, err
		}
		if hasDefault {
			def, err = p.parseInitializer()
			if err != nil {
				return nil, err
			}
		}
		params = append(params, &ast.Param{
			DocBase: ast.DocBase{Base: ast.Base{Line: line}, Doc: doc},
			Type:    typ,
			Name:    name,
			Default: def,
			Owner:   owner,
		})
		more, err := p.lex.Eat(lexer.Comma)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return params, nil
}

// parseEnum implements §4.3.7. The "*" marker (lexed as Star) selects the
// flags variant, whose constants must all carry an explicit value.
func (p *Parser) parseEnum(vis ast.Visibility, doc string) (*ast.Enum, error) {
	line := p.line()
	if err := p.lex.Expect(lexer.Enum); err != nil {
		return nil, err
	}
	flags, err := p.lex.Eat(lexer.Star)
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
	if err := p.lex.Expect(lexer.LBrace); err != nil {
		return nil, err
	}

	enum := &ast.Enum{
		DocBase:    ast.DocBase{Base: ast.Base{Line: line}, Doc: doc},
		Name:       name,
		Flags:      flags,
		Visibility: vis,
	}

	for {
		cdoc, err := p.parseDocComment()
		if err != nil {
			return nil, err
		}
		cline := p.line()
		if err := p.lex.Check(lexer.Ident); err != nil {
			return nil, err
		}
		cname := p.lex.Current().Literal
		if _, err := p.lex.NextToken(); err != nil {
			return nil, err
		}
		var value ast.Expr
		hasValue, err := p.lex.Eat(lexer.Assign)
		if err != nil {
			return nil, err
		}
		if hasValue {
			value, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		} else if flags {
			return nil, p.errContextual(cline, "flags enum constant %s must have an explicit value", cname)
		}
		enum.Constants = append(enum.Constants, ast.EnumConstant{
			DocBase: ast.DocBase{Base: ast.Base{Line: cline}, Doc: cdoc},
			Name:    cname,
			Value:   value,
		})
		more, err := p.lex.Eat(lexer.Comma)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}

	return enum, p.lex.Expect(lexer.RBrace)
}
