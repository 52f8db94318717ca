package template

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
)

// SubstExpr rewrites an expression under a binding, replacing every
// parameter reference with its bound argument. The rewrite is structure
// preserving and never mutates its input: changed subtrees are fresh nodes,
// untouched subtrees are returned by their original id.
//
// A Value-kind parameter position that received a Type argument is left
// unsubstituted rather than guessed; identifiers belonging to an enclosing
// unbound generic are returned unchanged.
func SubstExpr(ctx *Context, b *Binding, id ast.ExprID) (ast.ExprID, *Failure) {
	expr := ctx.Builder.Exprs.Get(id)
	if expr == nil {
		return ast.NoExprID, hardf(diag.TplSubstFailed, source.Span{}, "missing expression node")
	}
	e := ctx.Builder.Exprs
	span := expr.Span
	switch expr.Kind {
	case ast.ExprIntLit, ast.ExprBoolLit:
		return id, nil

	case ast.ExprIdent:
		data, _ := e.Ident(id)
		arg, ok := b.Lookup(data.Name)
		if !ok {
			// Locals, function names, packs outside expansion, and names of
			// enclosing unbound generics all pass through untouched.
			return id, nil
		}
		if p := b.DeclaredParam(data.Name); p != nil && p.Kind == ast.ParamValue && arg.Kind == ArgTypeKind {
			return id, nil
		}
		switch arg.Kind {
		case ArgValueKind:
			return e.NewIntLit(span, arg.Value), nil
		default:
			display := ctx.Catalog.Display(arg.Materialize(ctx.Catalog), ctx.Strings)
			return e.NewIdent(span, ctx.Strings.Intern(display)), nil
		}

	case ast.ExprUnary:
		data, _ := e.Unary(id)
		operand, fail := SubstExpr(ctx, b, data.Operand)
		if fail != nil {
			return ast.NoExprID, fail
		}
		if operand == data.Operand {
			return id, nil
		}
		return e.NewUnary(span, data.Op, operand), nil

	case ast.ExprBinary:
		data, _ := e.Binary(id)
		left, fail := SubstExpr(ctx, b, data.Left)
		if fail != nil {
			return ast.NoExprID, fail
		}
		right, fail := SubstExpr(ctx, b, data.Right)
		if fail != nil {
			return ast.NoExprID, fail
		}
		if left == data.Left && right == data.Right {
			return id, nil
		}
		return e.NewBinary(span, data.Op, left, right), nil

	case ast.ExprCall:
		data, _ := e.Call(id)
		callee, fail := SubstExpr(ctx, b, data.Callee)
		if fail != nil {
			return ast.NoExprID, fail
		}
		changed := callee != data.Callee
		args := make([]ast.ExprID, len(data.Args))
		for i, a := range data.Args {
			args[i], fail = SubstExpr(ctx, b, a)
			if fail != nil {
				return ast.NoExprID, fail
			}
			changed = changed || args[i] != a
		}
		if !changed {
			return id, nil
		}
		return e.NewCall(span, callee, args, data.GenericArgs), nil

	case ast.ExprMember:
		data, _ := e.Member(id)
		target, fail := SubstExpr(ctx, b, data.Target)
		if fail != nil {
			return ast.NoExprID, fail
		}
		if target == data.Target {
			return id, nil
		}
		return e.NewMember(span, target, data.Field), nil

	case ast.ExprIndex:
		data, _ := e.Index(id)
		target, fail := SubstExpr(ctx, b, data.Target)
		if fail != nil {
			return ast.NoExprID, fail
		}
		index, fail := SubstExpr(ctx, b, data.Index)
		if fail != nil {
			return ast.NoExprID, fail
		}
		if target == data.Target && index == data.Index {
			return id, nil
		}
		return e.NewIndex(span, target, index), nil

	case ast.ExprCast:
		data, _ := e.Cast(id)
		value, fail := SubstExpr(ctx, b, data.Value)
		if fail != nil {
			return ast.NoExprID, fail
		}
		typ, fail := substTypeNode(ctx, b, data.Type)
		if fail != nil {
			return ast.NoExprID, fail
		}
		if value == data.Value && typ == data.Type {
			return id, nil
		}
		return e.NewCast(span, typ, value), nil

	case ast.ExprSizeof:
		// A sizeof whose operand becomes concrete folds to a literal; a
		// still-dependent operand keeps the node for a later pass.
		if v, fail := EvalConst(ctx, b, id); fail == nil {
			if iv, ok := v.AsInt(); ok {
				return e.NewIntLit(span, iv), nil
			}
		} else if fail.IsHard() {
			return ast.NoExprID, fail
		}
		return id, nil

	case ast.ExprSizeofPack:
		data, _ := e.SizeofPack(id)
		n, fail := packSize(ctx, b, data.Pack, span)
		if fail != nil {
			if fail.IsDeferred() {
				return id, nil
			}
			return ast.NoExprID, fail
		}
		return e.NewIntLit(span, int64(n)), nil

	case ast.ExprFold:
		return ExpandFold(ctx, b, id)

	case ast.ExprRequires:
		data, _ := e.RequiresBlock(id)
		changed := false
		reqs := make([]ast.ExprID, len(data.Reqs))
		for i, req := range data.Reqs {
			if !req.IsValid() {
				reqs[i] = req
				continue
			}
			sub, fail := SubstExpr(ctx, b, req)
			if fail != nil {
				return ast.NoExprID, fail
			}
			reqs[i] = sub
			changed = changed || sub != req
		}
		if !changed {
			return id, nil
		}
		return e.NewRequires(span, reqs), nil
	}
	return ast.NoExprID, hardf(diag.TplSubstFailed, span, "unknown expression shape")
}

// substTypeNode rewrites a syntactic type node to its concrete spelling
// under the binding. Types that stay dependent pass through unchanged so a
// later, fuller binding can still resolve them.
func substTypeNode(ctx *Context, b *Binding, id ast.TypeID) (ast.TypeID, *Failure) {
	if !id.IsValid() {
		return id, nil
	}
	resolved, fail := ResolveType(ctx, b, id)
	if fail != nil {
		if fail.IsDeferred() {
			return id, nil
		}
		return ast.NoTypeID, fail
	}
	if ctx.Catalog.IsDependent(resolved) {
		return id, nil
	}
	display := ctx.Catalog.Display(resolved, ctx.Strings)
	span := ctx.Builder.Types.Span(id)
	return ctx.Builder.Types.NewName(span, ctx.Strings.Intern(display), nil, ast.Deco{}), nil
}

// SubstStmt rewrites a statement under a binding. An `if const` evaluates
// its substituted condition and keeps only the chosen branch; the other
// branch is discarded unexamined.
func SubstStmt(ctx *Context, b *Binding, id ast.StmtID) (ast.StmtID, *Failure) {
	stmt := ctx.Builder.Stmts.Get(id)
	if stmt == nil {
		return ast.NoStmtID, hardf(diag.TplSubstFailed, source.Span{}, "missing statement node")
	}
	s := ctx.Builder.Stmts
	span := stmt.Span
	switch stmt.Kind {
	case ast.StmtLet:
		data, _ := s.Let(id)
		typ, fail := substTypeNode(ctx, b, data.Type)
		if fail != nil {
			return ast.NoStmtID, fail
		}
		value := data.Value
		if value.IsValid() {
			value, fail = SubstExpr(ctx, b, data.Value)
			if fail != nil {
				return ast.NoStmtID, fail
			}
		}
		if typ == data.Type && value == data.Value {
			return id, nil
		}
		return s.NewLet(span, data.Name, typ, value), nil

	case ast.StmtReturn:
		data, _ := s.Return(id)
		if !data.Value.IsValid() {
			return id, nil
		}
		value, fail := SubstExpr(ctx, b, data.Value)
		if fail != nil {
			return ast.NoStmtID, fail
		}
		if value == data.Value {
			return id, nil
		}
		return s.NewReturn(span, value), nil

	case ast.StmtExpr:
		data, _ := s.Expr(id)
		expr, fail := SubstExpr(ctx, b, data.Expr)
		if fail != nil {
			return ast.NoStmtID, fail
		}
		if expr == data.Expr {
			return id, nil
		}
		return s.NewExpr(span, expr), nil

	case ast.StmtIf:
		data, _ := s.If(id)
		if data.Const {
			return substConstIf(ctx, b, id, span, data)
		}
		cond, fail := SubstExpr(ctx, b, data.Cond)
		if fail != nil {
			return ast.NoStmtID, fail
		}
		then, fail := SubstStmt(ctx, b, data.Then)
		if fail != nil {
			return ast.NoStmtID, fail
		}
		els := data.Else
		if els.IsValid() {
			els, fail = SubstStmt(ctx, b, data.Else)
			if fail != nil {
				return ast.NoStmtID, fail
			}
		}
		if cond == data.Cond && then == data.Then && els == data.Else {
			return id, nil
		}
		return s.NewIf(span, cond, false, then, els), nil

	case ast.StmtBlock:
		data, _ := s.Block(id)
		changed := false
		stmts := make([]ast.StmtID, 0, len(data.Stmts))
		for _, child := range data.Stmts {
			sub, fail := SubstStmt(ctx, b, child)
			if fail != nil {
				return ast.NoStmtID, fail
			}
			stmts = append(stmts, sub)
			changed = changed || sub != child
		}
		if !changed {
			return id, nil
		}
		return s.NewBlock(span, stmts), nil
	}
	return ast.NoStmtID, hardf(diag.TplSubstFailed, span, "unknown statement shape")
}

func substConstIf(ctx *Context, b *Binding, id ast.StmtID, span source.Span, data *ast.StmtIfData) (ast.StmtID, *Failure) {
	cond, fail := SubstExpr(ctx, b, data.Cond)
	if fail != nil {
		return ast.NoStmtID, fail
	}
	v, fail := EvalConst(ctx, b, cond)
	if fail != nil {
		if fail.IsDeferred() {
			// Keep the whole construct; a fuller binding decides later.
			return id, nil
		}
		return ast.NoStmtID, fail
	}
	taken, ok := v.AsBool()
	if !ok {
		return ast.NoStmtID, softf(diag.TplSubstFailed, span, "if const condition is not a boolean constant")
	}
	if taken {
		return SubstStmt(ctx, b, data.Then)
	}
	if data.Else.IsValid() {
		return SubstStmt(ctx, b, data.Else)
	}
	return ctx.Builder.Stmts.NewBlock(span, nil), nil
}
