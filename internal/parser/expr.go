package parser

import (
	"strconv"
	"strings"

	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/token"
)

// Binary precedence, higher binds tighter. Comparison lives below the
// bitwise tier so `a & b == c` groups as `(a & b) == c` would in C only
// with explicit parens; templates rarely mix them unparenthesized.
const (
	precNone = iota
	precOr
	precAnd
	precCmp
	precBitOr
	precBitXor
	precBitAnd
	precAdd
	precMul
)

func binaryOpOf(k token.Kind) (ast.BinaryOp, int, bool) {
	switch k {
	case token.OrOr:
		return ast.BinLOr, precOr, true
	case token.AndAnd:
		return ast.BinLAnd, precAnd, true
	case token.EqEq:
		return ast.BinEq, precCmp, true
	case token.BangEq:
		return ast.BinNe, precCmp, true
	case token.Lt:
		return ast.BinLt, precCmp, true
	case token.LtEq:
		return ast.BinLe, precCmp, true
	case token.Gt:
		return ast.BinGt, precCmp, true
	case token.GtEq:
		return ast.BinGe, precCmp, true
	case token.Pipe:
		return ast.BinOr, precBitOr, true
	case token.Caret:
		return ast.BinXor, precBitXor, true
	case token.Amp:
		return ast.BinAnd, precBitAnd, true
	case token.Plus:
		return ast.BinAdd, precAdd, true
	case token.Minus:
		return ast.BinSub, precAdd, true
	case token.Star:
		return ast.BinMul, precMul, true
	case token.Slash:
		return ast.BinDiv, precMul, true
	case token.Percent:
		return ast.BinRem, precMul, true
	}
	return 0, precNone, false
}

// foldOpOf covers the operators allowed in a fold, which includes the
// comma; a bare comma is never a binary operator elsewhere.
func foldOpOf(k token.Kind) (ast.BinaryOp, bool) {
	if k == token.Comma {
		return ast.BinComma, true
	}
	op, _, ok := binaryOpOf(k)
	return op, ok
}

func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseBinaryMin(precNone + 1)
}

// parseSimpleExpr parses the restricted expression level used for generic
// arguments and array lengths: no comparison or logical operators, so a
// closing `>` always ends the argument list.
func (p *Parser) parseSimpleExpr() (ast.ExprID, bool) {
	return p.parseBinaryMin(precBitOr)
}

func (p *Parser) parseBinaryMin(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	return p.parseBinaryRest(left, minPrec)
}

func (p *Parser) parseBinaryRest(left ast.ExprID, minPrec int) (ast.ExprID, bool) {
	for {
		op, prec, ok := binaryOpOf(p.tok.Kind)
		if !ok || prec < minPrec {
			return left, true
		}
		p.advance()
		right, ok := p.parseBinaryMin(prec + 1)
		if !ok {
			return ast.NoExprID, false
		}
		span := p.b.Exprs.Span(left).Cover(p.b.Exprs.Span(right))
		left = p.b.Exprs.NewBinary(span, op, left, right)
	}
}

func (p *Parser) parseUnary() (ast.ExprID, bool) {
	span := p.tok.Span
	var op ast.UnaryOp
	switch p.tok.Kind {
	case token.Minus:
		op = ast.UnaryNeg
	case token.Bang:
		op = ast.UnaryNot
	case token.Amp:
		op = ast.UnaryAddr
	case token.Star:
		op = ast.UnaryDeref
	default:
		return p.parsePostfix()
	}
	p.advance()
	operand, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	return p.b.Exprs.NewUnary(span.Cover(p.prev), op, operand), true
}

func (p *Parser) parsePostfix() (ast.ExprID, bool) {
	expr, ok := p.parsePrimary()
	if !ok {
		return ast.NoExprID, false
	}
	start := p.b.Exprs.Span(expr)
	for {
		switch p.tok.Kind {
		case token.LParen:
			args, ok := p.parseCallArgs()
			if !ok {
				return ast.NoExprID, false
			}
			expr = p.b.Exprs.NewCall(start.Cover(p.prev), expr, args, nil)
		case token.Dot:
			p.advance()
			field, ok := p.parseIdent()
			if !ok {
				return ast.NoExprID, false
			}
			expr = p.b.Exprs.NewMember(start.Cover(p.prev), expr, field)
		case token.LBracket:
			p.advance()
			index, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			if !p.expect(token.RBracket, diag.SynUnclosedDelim) {
				return ast.NoExprID, false
			}
			expr = p.b.Exprs.NewIndex(start.Cover(p.prev), expr, index)
		case token.ColonColon:
			// Either explicit generic arguments, callee::<T, N>(...), or a
			// static member access, Owner::member.
			if p.lx.Peek().Kind == token.Lt {
				p.advance()
				gargs, ok := p.parseGenericArgs()
				if !ok {
					return ast.NoExprID, false
				}
				if !p.expect(token.LParen, diag.SynUnexpectedToken) {
					return ast.NoExprID, false
				}
				args, ok := p.finishCallArgs()
				if !ok {
					return ast.NoExprID, false
				}
				expr = p.b.Exprs.NewCall(start.Cover(p.prev), expr, args, gargs)
				continue
			}
			p.advance()
			member, ok := p.parseIdent()
			if !ok {
				return ast.NoExprID, false
			}
			expr = p.b.Exprs.NewMember(start.Cover(p.prev), expr, member)
		default:
			return expr, true
		}
	}
}

func (p *Parser) parseCallArgs() ([]ast.ExprID, bool) {
	p.advance()
	return p.finishCallArgs()
}

// finishCallArgs assumes the opening paren was consumed.
func (p *Parser) finishCallArgs() ([]ast.ExprID, bool) {
	var args []ast.ExprID
	for !p.at(token.RParen) && !p.at(token.EOF) {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.eat(token.Comma) {
			break
		}
	}
	if !p.expect(token.RParen, diag.SynUnclosedDelim) {
		return nil, false
	}
	return args, true
}

func (p *Parser) parsePrimary() (ast.ExprID, bool) {
	span := p.tok.Span
	switch p.tok.Kind {
	case token.IntLit:
		text := strings.ReplaceAll(p.tok.Text, "_", "")
		value, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			p.errorf(diag.SynUnexpectedToken, span, "integer literal out of range")
			return ast.NoExprID, false
		}
		p.advance()
		return p.b.Exprs.NewIntLit(span, value), true
	case token.KwTrue:
		p.advance()
		return p.b.Exprs.NewBoolLit(span, true), true
	case token.KwFalse:
		p.advance()
		return p.b.Exprs.NewBoolLit(span, false), true
	case token.Ident:
		name, _ := p.parseIdent()
		return p.b.Exprs.NewIdent(span, name), true
	case token.KwCast:
		return p.parseCast()
	case token.KwSizeof:
		return p.parseSizeof()
	case token.KwRequires:
		return p.parseRequires()
	case token.LParen:
		return p.parseParenExpr()
	}
	p.errorf(diag.SynUnexpectedToken, span, "expected an expression, found %s", p.tok.Kind)
	return ast.NoExprID, false
}

// parseCast parses cast<T>(e).
func (p *Parser) parseCast() (ast.ExprID, bool) {
	span := p.tok.Span
	p.advance()
	if !p.expect(token.Lt, diag.SynUnexpectedToken) {
		return ast.NoExprID, false
	}
	typ, ok := p.parseType()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.expect(token.Gt, diag.SynUnclosedDelim) {
		return ast.NoExprID, false
	}
	if !p.expect(token.LParen, diag.SynUnexpectedToken) {
		return ast.NoExprID, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.expect(token.RParen, diag.SynUnclosedDelim) {
		return ast.NoExprID, false
	}
	return p.b.Exprs.NewCast(span.Cover(p.prev), typ, value), true
}

// parseSizeof parses sizeof(T) and sizeof...(pack).
func (p *Parser) parseSizeof() (ast.ExprID, bool) {
	span := p.tok.Span
	p.advance()
	if p.eat(token.Ellipsis) {
		if !p.expect(token.LParen, diag.SynUnexpectedToken) {
			return ast.NoExprID, false
		}
		pack, ok := p.parseIdent()
		if !ok {
			return ast.NoExprID, false
		}
		if !p.expect(token.RParen, diag.SynUnclosedDelim) {
			return ast.NoExprID, false
		}
		return p.b.Exprs.NewSizeofPack(span.Cover(p.prev), pack), true
	}
	if !p.expect(token.LParen, diag.SynUnexpectedToken) {
		return ast.NoExprID, false
	}
	typ, ok := p.parseType()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.expect(token.RParen, diag.SynUnclosedDelim) {
		return ast.NoExprID, false
	}
	return p.b.Exprs.NewSizeof(span.Cover(p.prev), typ), true
}

// parseRequires parses requires { req; req; ... }. A requirement that fails
// to parse is recorded as an invalid entry and the parser resyncs to the
// next semicolon, so the block itself survives as an unsatisfiable marker.
func (p *Parser) parseRequires() (ast.ExprID, bool) {
	span := p.tok.Span
	p.advance()
	if !p.expect(token.LBrace, diag.SynUnexpectedToken) {
		return ast.NoExprID, false
	}
	var reqs []ast.ExprID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		req, ok := p.parseExpr()
		if !ok {
			reqs = append(reqs, ast.NoExprID)
			p.resyncToSemicolon()
			continue
		}
		reqs = append(reqs, req)
		if !p.expect(token.Semicolon, diag.SynExpectSemicolon) {
			return ast.NoExprID, false
		}
	}
	if !p.expect(token.RBrace, diag.SynUnclosedDelim) {
		return ast.NoExprID, false
	}
	return p.b.Exprs.NewRequires(span.Cover(p.prev), reqs), true
}

func (p *Parser) resyncToSemicolon() {
	for !p.at(token.Semicolon) && !p.at(token.RBrace) && !p.at(token.EOF) {
		p.advance()
	}
	p.eat(token.Semicolon)
}

// parseParenExpr parses a parenthesized expression or a fold. Fold operands
// sit at unary level; the operator before an ellipsis is the fold operator:
//
//	(xs + ...)        unary right fold
//	(... + xs)        unary left fold
//	(xs + ... + seed) binary fold; which side holds the pack is settled
//	                  during substitution, not here
func (p *Parser) parseParenExpr() (ast.ExprID, bool) {
	span := p.tok.Span
	p.advance()

	if p.eat(token.Ellipsis) {
		op, ok := foldOpOf(p.tok.Kind)
		if !ok {
			p.errorf(diag.SynBadFold, p.tok.Span, "expected a fold operator, found %s", p.tok.Kind)
			return ast.NoExprID, false
		}
		p.advance()
		pattern, ok := p.parseUnary()
		if !ok {
			return ast.NoExprID, false
		}
		if !p.expect(token.RParen, diag.SynBadFold) {
			return ast.NoExprID, false
		}
		return p.b.Exprs.NewFold(span.Cover(p.prev), op, pattern, ast.NoExprID, false), true
	}

	left, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}

	if op, isFold := foldOpOf(p.tok.Kind); isFold && p.lx.Peek().Kind == token.Ellipsis {
		opKind := p.tok.Kind
		p.advance()
		p.advance()
		if p.eat(token.RParen) {
			return p.b.Exprs.NewFold(span.Cover(p.prev), op, left, ast.NoExprID, true), true
		}
		if !p.at(opKind) {
			p.errorf(diag.SynBadFold, p.tok.Span,
				"fold operator mismatch: expected %s, found %s", opKind, p.tok.Kind)
			return ast.NoExprID, false
		}
		p.advance()
		seed, ok := p.parseUnary()
		if !ok {
			return ast.NoExprID, false
		}
		if !p.expect(token.RParen, diag.SynBadFold) {
			return ast.NoExprID, false
		}
		return p.b.Exprs.NewFold(span.Cover(p.prev), op, left, seed, true), true
	}

	expr, ok := p.parseBinaryRest(left, precNone+1)
	if !ok {
		return ast.NoExprID, false
	}
	if !p.expect(token.RParen, diag.SynUnclosedDelim) {
		return ast.NoExprID, false
	}
	return expr, true
}

func (p *Parser) parseBlock() (ast.StmtID, bool) {
	span := p.tok.Span
	if !p.expect(token.LBrace, diag.SynUnexpectedToken) {
		return ast.NoStmtID, false
	}
	var stmts []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmt, ok := p.parseStmt()
		if !ok {
			return ast.NoStmtID, false
		}
		stmts = append(stmts, stmt)
	}
	if !p.expect(token.RBrace, diag.SynUnclosedDelim) {
		return ast.NoStmtID, false
	}
	return p.b.Stmts.NewBlock(span.Cover(p.prev), stmts), true
}

func (p *Parser) parseStmt() (ast.StmtID, bool) {
	switch p.tok.Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwIf:
		return p.parseIf()
	case token.LBrace:
		return p.parseBlock()
	}
	span := p.tok.Span
	expr, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	if !p.expect(token.Semicolon, diag.SynExpectSemicolon) {
		return ast.NoStmtID, false
	}
	return p.b.Stmts.NewExpr(span.Cover(p.prev), expr), true
}

func (p *Parser) parseLet() (ast.StmtID, bool) {
	span := p.tok.Span
	p.advance()
	name, ok := p.parseIdent()
	if !ok {
		return ast.NoStmtID, false
	}
	typ := ast.NoTypeID
	if p.eat(token.Colon) {
		typ, ok = p.parseType()
		if !ok {
			return ast.NoStmtID, false
		}
	}
	if !p.expect(token.Assign, diag.SynUnexpectedToken) {
		return ast.NoStmtID, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	if !p.expect(token.Semicolon, diag.SynExpectSemicolon) {
		return ast.NoStmtID, false
	}
	return p.b.Stmts.NewLet(span.Cover(p.prev), name, typ, value), true
}

func (p *Parser) parseReturn() (ast.StmtID, bool) {
	span := p.tok.Span
	p.advance()
	value := ast.NoExprID
	if !p.at(token.Semicolon) {
		var ok bool
		value, ok = p.parseExpr()
		if !ok {
			return ast.NoStmtID, false
		}
	}
	if !p.expect(token.Semicolon, diag.SynExpectSemicolon) {
		return ast.NoStmtID, false
	}
	return p.b.Stmts.NewReturn(span.Cover(p.prev), value), true
}

func (p *Parser) parseIf() (ast.StmtID, bool) {
	span := p.tok.Span
	p.advance()
	isConst := p.eat(token.KwConst)
	cond, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, false
	}
	then, ok := p.parseBlock()
	if !ok {
		return ast.NoStmtID, false
	}
	els := ast.NoStmtID
	if p.eat(token.KwElse) {
		if p.at(token.KwIf) {
			els, ok = p.parseIf()
		} else {
			els, ok = p.parseBlock()
		}
		if !ok {
			return ast.NoStmtID, false
		}
	}
	return p.b.Stmts.NewIf(span.Cover(p.prev), cond, isConst, then, els), true
}
