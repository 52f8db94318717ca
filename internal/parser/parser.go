// Package parser builds the declaration store for the Vesper template
// surface. Generic function bodies are not parsed eagerly: their token range
// is recorded and the template engine asks for a re-parse once parameters
// are bound.
package parser

import (
	"fmt"

	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/lexer"
	"vesper/internal/source"
	"vesper/internal/token"
)

type Options struct {
	MaxErrors uint
	Reporter  diag.Reporter
}

type Result struct {
	Decls []ast.DeclID
}

// Parser is the per-file parse state.
type Parser struct {
	lx       *lexer.Lexer
	file     *source.File
	b        *ast.Builder
	strs     *source.Interner
	reporter diag.Reporter
	opts     Options

	tok    token.Token
	prev   source.Span
	errors uint
}

// ParseFile parses one file into the shared builder and returns its
// top-level declarations in order.
func ParseFile(file *source.File, b *ast.Builder, strs *source.Interner, opts Options) Result {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	p := &Parser{
		lx:       lexer.New(file, reporter),
		file:     file,
		b:        b,
		strs:     strs,
		reporter: reporter,
		opts:     opts,
	}
	p.advance()
	var decls []ast.DeclID
	for p.tok.Kind != token.EOF && !p.tooManyErrors() {
		id, ok := p.parseDecl()
		if !ok {
			p.resyncTop()
			continue
		}
		decls = append(decls, id)
	}
	return Result{Decls: decls}
}

// ReparseBlock builds the template engine's re-parse callback: it
// materializes a deferred body from its stored token range.
func ReparseBlock(fs *source.FileSet, b *ast.Builder, strs *source.Interner, reporter diag.Reporter) func(ast.TokenRange) (ast.StmtID, bool) {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return func(r ast.TokenRange) (ast.StmtID, bool) {
		file := fs.Get(r.File)
		if file == nil || !r.IsValid() {
			return ast.NoStmtID, false
		}
		p := &Parser{
			lx:       lexer.NewRange(file, reporter, r.Start, r.End),
			file:     file,
			b:        b,
			strs:     strs,
			reporter: reporter,
		}
		p.advance()
		id, ok := p.parseBlock()
		return id, ok && p.errors == 0
	}
}

func (p *Parser) advance() {
	p.prev = p.tok.Span
	p.tok = p.lx.Next()
}

func (p *Parser) at(k token.Kind) bool {
	return p.tok.Kind == k
}

func (p *Parser) eat(k token.Kind) bool {
	if !p.at(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(k token.Kind, code diag.Code) bool {
	if p.eat(k) {
		return true
	}
	p.errorf(code, p.tok.Span, "expected %s, found %s", k, p.tok.Kind)
	return false
}

func (p *Parser) errorf(code diag.Code, span source.Span, format string, args ...any) {
	p.errors++
	p.reporter.Report(code, diag.SevError, span, fmt.Sprintf(format, args...), nil, nil)
}

func (p *Parser) tooManyErrors() bool {
	return p.opts.MaxErrors > 0 && p.errors >= p.opts.MaxErrors
}

func (p *Parser) intern(s string) source.StringID {
	return p.strs.Intern(s)
}

// resyncTop skips ahead to the next plausible top-level declaration.
func (p *Parser) resyncTop() {
	for p.tok.Kind != token.EOF {
		switch p.tok.Kind {
		case token.KwType, token.KwConcept, token.KwFn, token.KwConst:
			return
		case token.Semicolon, token.RBrace:
			p.advance()
			return
		}
		p.advance()
	}
}

func (p *Parser) parseDecl() (ast.DeclID, bool) {
	switch p.tok.Kind {
	case token.KwType:
		return p.parseTypeDecl()
	case token.KwConcept:
		return p.parseConceptDecl()
	case token.KwFn:
		return p.parseFnDecl()
	case token.KwConst:
		return p.parseConstDecl()
	}
	p.errorf(diag.SynUnexpectedToken, p.tok.Span,
		"expected a declaration, found %s", p.tok.Kind)
	return ast.NoDeclID, false
}

// parseTypeDecl handles both struct types and aliases:
//
//	type Pair<T, U> = { first: T; second: U; }
//	type Ptr<T> = *T;
func (p *Parser) parseTypeDecl() (ast.DeclID, bool) {
	start := p.tok.Span
	p.advance()
	name, ok := p.parseIdent()
	if !ok {
		return ast.NoDeclID, false
	}
	params, ok := p.parseGenericParams()
	if !ok {
		return ast.NoDeclID, false
	}
	where := ast.NoExprID
	if p.eat(token.KwWhere) {
		where, ok = p.parseExpr()
		if !ok {
			return ast.NoDeclID, false
		}
	}
	if !p.expect(token.Assign, diag.SynUnexpectedToken) {
		return ast.NoDeclID, false
	}
	if p.at(token.LBrace) {
		return p.parseStructBody(start, name, params, where)
	}
	target, ok := p.parseType()
	if !ok {
		return ast.NoDeclID, false
	}
	if !p.expect(token.Semicolon, diag.SynExpectSemicolon) {
		return ast.NoDeclID, false
	}
	return p.b.Decls.NewAlias(start.Cover(p.prev), ast.DeclAliasData{
		Name:   name,
		Params: params,
		Target: target,
	}), true
}

func (p *Parser) parseStructBody(start source.Span, name source.StringID, params []ast.ParamID, where ast.ExprID) (ast.DeclID, bool) {
	p.advance()
	data := ast.DeclStructData{Name: name, Params: params, Where: where}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		switch p.tok.Kind {
		case token.Ident:
			fieldSpan := p.tok.Span
			fieldName, _ := p.parseIdent()
			if !p.expect(token.Colon, diag.SynUnexpectedToken) {
				return ast.NoDeclID, false
			}
			typ, ok := p.parseType()
			if !ok {
				return ast.NoDeclID, false
			}
			if !p.expect(token.Semicolon, diag.SynExpectSemicolon) {
				return ast.NoDeclID, false
			}
			data.Fields = append(data.Fields, p.b.Decls.NewField(ast.Field{
				Name: fieldName, Type: typ, Span: fieldSpan.Cover(p.prev),
			}))
		case token.KwFn:
			m, ok := p.parseFnDecl()
			if !ok {
				return ast.NoDeclID, false
			}
			data.Methods = append(data.Methods, m)
		case token.KwConst:
			m, ok := p.parseConstDecl()
			if !ok {
				return ast.NoDeclID, false
			}
			data.Statics = append(data.Statics, m)
		case token.KwType:
			m, ok := p.parseTypeDecl()
			if !ok {
				return ast.NoDeclID, false
			}
			if decl := p.b.Decls.Get(m); decl != nil && decl.Kind == ast.DeclAlias {
				data.Aliases = append(data.Aliases, m)
			} else {
				data.Nested = append(data.Nested, m)
			}
		default:
			p.errorf(diag.SynUnexpectedToken, p.tok.Span,
				"expected a member, found %s", p.tok.Kind)
			return ast.NoDeclID, false
		}
	}
	if !p.expect(token.RBrace, diag.SynUnclosedDelim) {
		return ast.NoDeclID, false
	}
	return p.b.Decls.NewStruct(start.Cover(p.prev), data), true
}

func (p *Parser) parseConceptDecl() (ast.DeclID, bool) {
	start := p.tok.Span
	p.advance()
	name, ok := p.parseIdent()
	if !ok {
		return ast.NoDeclID, false
	}
	params, ok := p.parseGenericParams()
	if !ok {
		return ast.NoDeclID, false
	}
	if !p.expect(token.Assign, diag.SynUnexpectedToken) {
		return ast.NoDeclID, false
	}
	pred, ok := p.parseExpr()
	if !ok {
		return ast.NoDeclID, false
	}
	if !p.expect(token.Semicolon, diag.SynExpectSemicolon) {
		return ast.NoDeclID, false
	}
	return p.b.Decls.NewConcept(start.Cover(p.prev), ast.DeclConceptData{
		Name:   name,
		Params: params,
		Pred:   pred,
	}), true
}

func (p *Parser) parseConstDecl() (ast.DeclID, bool) {
	start := p.tok.Span
	p.advance()
	name, ok := p.parseIdent()
	if !ok {
		return ast.NoDeclID, false
	}
	params, ok := p.parseGenericParams()
	if !ok {
		return ast.NoDeclID, false
	}
	if !p.expect(token.Colon, diag.SynUnexpectedToken) {
		return ast.NoDeclID, false
	}
	typ, ok := p.parseType()
	if !ok {
		return ast.NoDeclID, false
	}
	if !p.expect(token.Assign, diag.SynUnexpectedToken) {
		return ast.NoDeclID, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.NoDeclID, false
	}
	if !p.expect(token.Semicolon, diag.SynExpectSemicolon) {
		return ast.NoDeclID, false
	}
	return p.b.Decls.NewConst(start.Cover(p.prev), ast.DeclConstData{
		Name:   name,
		Params: params,
		Type:   typ,
		Value:  value,
	}), true
}

func (p *Parser) parseFnDecl() (ast.DeclID, bool) {
	start := p.tok.Span
	p.advance()
	name, ok := p.parseIdent()
	if !ok {
		return ast.NoDeclID, false
	}
	params, ok := p.parseGenericParams()
	if !ok {
		return ast.NoDeclID, false
	}
	if !p.expect(token.LParen, diag.SynUnexpectedToken) {
		return ast.NoDeclID, false
	}
	var fnParams []ast.FnParam
	for !p.at(token.RParen) && !p.at(token.EOF) {
		pspan := p.tok.Span
		pname, ok := p.parseIdent()
		if !ok {
			return ast.NoDeclID, false
		}
		if !p.expect(token.Colon, diag.SynUnexpectedToken) {
			return ast.NoDeclID, false
		}
		ptype, ok := p.parseType()
		if !ok {
			return ast.NoDeclID, false
		}
		fnParams = append(fnParams, ast.FnParam{Name: pname, Type: ptype, Span: pspan.Cover(p.prev)})
		if !p.eat(token.Comma) {
			break
		}
	}
	if !p.expect(token.RParen, diag.SynUnclosedDelim) {
		return ast.NoDeclID, false
	}
	result := ast.NoTypeID
	if p.eat(token.Arrow) {
		result, ok = p.parseType()
		if !ok {
			return ast.NoDeclID, false
		}
	}
	where := ast.NoExprID
	if p.eat(token.KwWhere) {
		where, ok = p.parseExpr()
		if !ok {
			return ast.NoDeclID, false
		}
	}

	data := ast.DeclFnData{
		Name:     name,
		Params:   params,
		FnParams: fnParams,
		Result:   result,
		Where:    where,
	}
	if len(params) > 0 {
		// Generic bodies are deferred: remember where the braces sit and
		// skip them; substitution re-parses on first materialization.
		r, ok := p.skipBracedRange()
		if !ok {
			return ast.NoDeclID, false
		}
		data.BodyRange = r
	} else {
		body, ok := p.parseBlock()
		if !ok {
			return ast.NoDeclID, false
		}
		data.Body = body
	}
	return p.b.Decls.NewFn(start.Cover(p.prev), data), true
}

// skipBracedRange consumes a balanced brace block without building nodes
// and returns its byte range.
func (p *Parser) skipBracedRange() (ast.TokenRange, bool) {
	if !p.at(token.LBrace) {
		p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected a body, found %s", p.tok.Kind)
		return ast.TokenRange{}, false
	}
	start := p.tok.Span.Start
	depth := 0
	for {
		switch p.tok.Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			depth--
			if depth == 0 {
				end := p.tok.Span.End
				p.advance()
				return ast.TokenRange{File: p.file.ID, Start: start, End: end}, true
			}
		case token.EOF:
			p.errorf(diag.SynUnclosedDelim, p.tok.Span, "unterminated body")
			return ast.TokenRange{}, false
		}
		p.advance()
	}
}

// parseGenericParams parses `<...>`, returning nil when absent.
func (p *Parser) parseGenericParams() ([]ast.ParamID, bool) {
	if !p.eat(token.Lt) {
		return nil, true
	}
	var out []ast.ParamID
	for {
		param, ok := p.parseGenericParam()
		if !ok {
			return nil, false
		}
		out = append(out, param)
		if p.eat(token.Comma) {
			continue
		}
		break
	}
	if !p.expect(token.Gt, diag.SynBadTypeParam) {
		return nil, false
	}
	return out, true
}

func (p *Parser) parseGenericParam() (ast.ParamID, bool) {
	span := p.tok.Span
	if p.eat(token.KwConst) {
		name, ok := p.parseIdent()
		if !ok {
			return ast.NoParamID, false
		}
		if !p.expect(token.Colon, diag.SynBadTypeParam) {
			return ast.NoParamID, false
		}
		vt, ok := p.parseType()
		if !ok {
			return ast.NoParamID, false
		}
		def := ast.NoExprID
		if p.eat(token.Assign) {
			def, ok = p.parseSimpleExpr()
			if !ok {
				return ast.NoParamID, false
			}
		}
		return p.b.Decls.NewParam(ast.TypeParam{
			Kind: ast.ParamValue, Name: name, Span: span,
			ValueType: vt, DefaultExpr: def,
		}), true
	}
	name, ok := p.parseIdent()
	if !ok {
		return ast.NoParamID, false
	}
	variadic := p.eat(token.Ellipsis)
	def := ast.NoTypeID
	if !variadic && p.eat(token.Assign) {
		def, ok = p.parseType()
		if !ok {
			return ast.NoParamID, false
		}
	}
	return p.b.Decls.NewParam(ast.TypeParam{
		Kind: ast.ParamType, Name: name, Span: span,
		Variadic: variadic, DefaultType: def,
	}), true
}

func (p *Parser) parseIdent() (source.StringID, bool) {
	if !p.at(token.Ident) {
		p.errorf(diag.SynExpectIdentifier, p.tok.Span,
			"expected an identifier, found %s", p.tok.Kind)
		return source.NoStringID, false
	}
	id := p.intern(p.tok.Text)
	p.advance()
	return id, true
}

// parseType parses a use-site type with its decorations: `const`,
// `volatile`, `&`/`&mut`, a `*` run, the base name with optional generic
// arguments and `::` chains, a `[N]` suffix, and a trailing `...` marking a
// pack expansion.
func (p *Parser) parseType() (ast.TypeID, bool) {
	start := p.tok.Span
	var deco ast.Deco
loop:
	for {
		switch p.tok.Kind {
		case token.KwConst:
			deco.Const = true
			p.advance()
		case token.KwVolatile:
			deco.Volatile = true
			p.advance()
		case token.Amp:
			p.advance()
			if p.eat(token.KwMut) {
				deco.Ref = ast.RefMut
			} else {
				deco.Ref = ast.RefShared
			}
		case token.Star:
			deco.PtrDepth++
			p.advance()
		default:
			break loop
		}
	}

	name, ok := p.parseIdent()
	if !ok {
		return ast.NoTypeID, false
	}
	args, ok := p.parseGenericArgs()
	if !ok {
		return ast.NoTypeID, false
	}
	base := p.b.Types.NewName(start.Cover(p.prev), name, args, ast.Deco{})
	for p.eat(token.ColonColon) {
		member, ok := p.parseIdent()
		if !ok {
			return ast.NoTypeID, false
		}
		margs, ok := p.parseGenericArgs()
		if !ok {
			return ast.NoTypeID, false
		}
		base = p.b.Types.NewQualified(start.Cover(p.prev), base, member, margs, ast.Deco{})
	}

	if p.eat(token.LBracket) {
		length, ok := p.parseSimpleExpr()
		if !ok {
			return ast.NoTypeID, false
		}
		if !p.expect(token.RBracket, diag.SynUnclosedDelim) {
			return ast.NoTypeID, false
		}
		deco.IsArray = true
		deco.ArrayLen = length
	}

	// The decorations live on the outermost node.
	te := p.b.Types.Get(base)
	te.Deco = deco
	te.Span = start.Cover(p.prev)

	if p.eat(token.Ellipsis) {
		return p.b.Types.NewPack(start.Cover(p.prev), base), true
	}
	return base, true
}

// parseGenericArgs parses `<...>` at a use site; absent means nil. A bare
// identifier is recorded as ambiguous so the engine can settle it against
// the parameter kind.
func (p *Parser) parseGenericArgs() ([]ast.GenericArg, bool) {
	if !p.eat(token.Lt) {
		return nil, true
	}
	var out []ast.GenericArg
	for {
		arg, ok := p.parseGenericArg()
		if !ok {
			return nil, false
		}
		out = append(out, arg)
		if p.eat(token.Comma) {
			continue
		}
		break
	}
	if !p.expect(token.Gt, diag.SynUnclosedDelim) {
		return nil, false
	}
	return out, true
}

func (p *Parser) parseGenericArg() (ast.GenericArg, bool) {
	switch p.tok.Kind {
	case token.IntLit, token.Minus, token.KwSizeof, token.KwTrue, token.KwFalse, token.LParen:
		expr, ok := p.parseSimpleExpr()
		if !ok {
			return ast.GenericArg{}, false
		}
		return ast.GenericArg{Expr: expr}, true
	}
	span := p.tok.Span
	text := p.tok.Text
	typ, ok := p.parseType()
	if !ok {
		return ast.GenericArg{}, false
	}
	arg := ast.GenericArg{Type: typ}
	if te := p.b.Types.Get(typ); te != nil && te.Kind == ast.TypeName && te.Deco.None() {
		if data, ok := p.b.Types.Name(typ); ok && len(data.Args) == 0 {
			// A lone identifier could also name a constant.
			arg.Expr = p.b.Exprs.NewIdent(span, p.intern(text))
			arg.Ambiguous = true
		}
	}
	return arg, true
}
