package template

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
)

// packSize resolves the element count of a pack through three lookups in
// order: the explicit binding, an enclosing generic's pack tables, and the
// standalone pack-size table. When none applies the name must at least be
// explainable by an unbound enclosing context, otherwise it is simply
// unknown.
func packSize(ctx *Context, b *Binding, name source.StringID, span source.Span) (int, *Failure) {
	if args, ok := b.Pack(name); ok {
		return len(args), nil
	}
	for cur := b; cur != nil; cur = enclosingOf(cur) {
		if n := cur.IndexedCount(name, ctx.Strings); n > 0 {
			return n, nil
		}
	}
	if n, ok := ctx.PackSizes[name]; ok {
		return n, nil
	}
	if b.IsUnboundOuter(name) {
		return 0, deferredf(span, "pack %s belongs to an unbound enclosing generic", ctx.lookupName(name))
	}
	return 0, hardf(diag.TplPackSizeUnknown, span, "unknown pack size for %s", ctx.lookupName(name))
}

func enclosingOf(b *Binding) *Binding {
	if b == nil {
		return nil
	}
	return b.Enclosing
}

// findPackRef scans a pattern for the first identifier that names a pack
// visible through the binding or the pack-size table.
func findPackRef(ctx *Context, b *Binding, id ast.ExprID) (source.StringID, bool) {
	expr := ctx.Builder.Exprs.Get(id)
	if expr == nil {
		return source.NoStringID, false
	}
	e := ctx.Builder.Exprs
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := e.Ident(id)
		if isPackName(ctx, b, data.Name) {
			return data.Name, true
		}
	case ast.ExprUnary:
		data, _ := e.Unary(id)
		return findPackRef(ctx, b, data.Operand)
	case ast.ExprBinary:
		data, _ := e.Binary(id)
		if name, ok := findPackRef(ctx, b, data.Left); ok {
			return name, true
		}
		return findPackRef(ctx, b, data.Right)
	case ast.ExprCall:
		data, _ := e.Call(id)
		if name, ok := findPackRef(ctx, b, data.Callee); ok {
			return name, true
		}
		for _, arg := range data.Args {
			if name, ok := findPackRef(ctx, b, arg); ok {
				return name, true
			}
		}
	case ast.ExprMember:
		data, _ := e.Member(id)
		return findPackRef(ctx, b, data.Target)
	case ast.ExprIndex:
		data, _ := e.Index(id)
		if name, ok := findPackRef(ctx, b, data.Target); ok {
			return name, true
		}
		return findPackRef(ctx, b, data.Index)
	case ast.ExprCast:
		data, _ := e.Cast(id)
		return findPackRef(ctx, b, data.Value)
	}
	return source.NoStringID, false
}

func isPackName(ctx *Context, b *Binding, name source.StringID) bool {
	if _, ok := b.Pack(name); ok {
		return true
	}
	_, ok := ctx.PackSizes[name]
	return ok
}

// ExpandPack produces one substituted copy of the pattern per pack element,
// renaming the pack reference to its indexed spelling. Elements carried by
// the binding are materialized as indexed bindings first so the substituted
// copies resolve them directly.
func ExpandPack(ctx *Context, b *Binding, pattern ast.ExprID, pack source.StringID, span source.Span) ([]ast.ExprID, *Failure) {
	n, fail := packSize(ctx, b, pack, span)
	if fail != nil {
		return nil, fail
	}
	base := ctx.lookupName(pack)
	if args, ok := b.Pack(pack); ok {
		for i, arg := range args {
			b.BindIndexed(ctx.Strings.Intern(indexedName(base, i)), arg)
		}
	}
	out := make([]ast.ExprID, 0, n)
	for i := 0; i < n; i++ {
		indexed := ctx.Strings.Intern(indexedName(base, i))
		renamed := renamePackRef(ctx, pattern, pack, indexed)
		sub, fail := SubstExpr(ctx, b, renamed)
		if fail != nil {
			return nil, fail
		}
		out = append(out, sub)
	}
	return out, nil
}

// renamePackRef clones the pattern with every reference to the pack renamed
// to the indexed spelling. The input tree is never mutated.
func renamePackRef(ctx *Context, id ast.ExprID, pack, indexed source.StringID) ast.ExprID {
	expr := ctx.Builder.Exprs.Get(id)
	if expr == nil {
		return id
	}
	e := ctx.Builder.Exprs
	span := expr.Span
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := e.Ident(id)
		if data.Name == pack {
			return e.NewIdent(span, indexed)
		}
		return id
	case ast.ExprUnary:
		data, _ := e.Unary(id)
		operand := renamePackRef(ctx, data.Operand, pack, indexed)
		if operand == data.Operand {
			return id
		}
		return e.NewUnary(span, data.Op, operand)
	case ast.ExprBinary:
		data, _ := e.Binary(id)
		left := renamePackRef(ctx, data.Left, pack, indexed)
		right := renamePackRef(ctx, data.Right, pack, indexed)
		if left == data.Left && right == data.Right {
			return id
		}
		return e.NewBinary(span, data.Op, left, right)
	case ast.ExprCall:
		data, _ := e.Call(id)
		callee := renamePackRef(ctx, data.Callee, pack, indexed)
		changed := callee != data.Callee
		args := make([]ast.ExprID, len(data.Args))
		for i, arg := range data.Args {
			args[i] = renamePackRef(ctx, arg, pack, indexed)
			changed = changed || args[i] != arg
		}
		if !changed {
			return id
		}
		return e.NewCall(span, callee, args, data.GenericArgs)
	case ast.ExprMember:
		data, _ := e.Member(id)
		target := renamePackRef(ctx, data.Target, pack, indexed)
		if target == data.Target {
			return id
		}
		return e.NewMember(span, target, data.Field)
	case ast.ExprIndex:
		data, _ := e.Index(id)
		target := renamePackRef(ctx, data.Target, pack, indexed)
		index := renamePackRef(ctx, data.Index, pack, indexed)
		if target == data.Target && index == data.Index {
			return id
		}
		return e.NewIndex(span, target, index)
	case ast.ExprCast:
		data, _ := e.Cast(id)
		value := renamePackRef(ctx, data.Value, pack, indexed)
		if value == data.Value {
			return id
		}
		return e.NewCast(span, data.Type, value)
	}
	return id
}

// ExpandFold rewrites a fold expression into a chain of binary operations
// over the expanded pack elements. A seeded fold folds the seed in on the
// appropriate side; the empty-pack identities for unseeded folds are fixed:
// `&&` yields true, `||` yields false, comma yields a no-op value, and every
// other operator is an error.
func ExpandFold(ctx *Context, b *Binding, id ast.ExprID) (ast.ExprID, *Failure) {
	expr := ctx.Builder.Exprs.Get(id)
	data, ok := ctx.Builder.Exprs.Fold(id)
	if !ok {
		return ast.NoExprID, hardf(diag.TplSubstFailed, source.Span{}, "malformed fold expression")
	}
	span := expr.Span
	pattern, seedExpr, rightAssoc := data.Pattern, data.Seed, data.Right
	pack, ok := findPackRef(ctx, b, pattern)
	if !ok && seedExpr.IsValid() {
		// The parser cannot tell which operand of a seeded fold holds the
		// pack; when it sits on the seed side the roles swap.
		if p, found := findPackRef(ctx, b, seedExpr); found {
			pattern, seedExpr = seedExpr, pattern
			rightAssoc = !rightAssoc
			pack, ok = p, true
		}
	}
	if !ok {
		return ast.NoExprID, hardf(diag.TplSubstFailed, span, "fold pattern contains no pack")
	}
	elems, fail := ExpandPack(ctx, b, pattern, pack, span)
	if fail != nil {
		return ast.NoExprID, fail
	}

	var seed ast.ExprID
	if seedExpr.IsValid() {
		seed, fail = SubstExpr(ctx, b, seedExpr)
		if fail != nil {
			return ast.NoExprID, fail
		}
	}

	e := ctx.Builder.Exprs
	if len(elems) == 0 {
		if seed.IsValid() {
			return seed, nil
		}
		switch data.Op {
		case ast.BinLAnd:
			return e.NewBoolLit(span, true), nil
		case ast.BinLOr:
			return e.NewBoolLit(span, false), nil
		case ast.BinComma:
			return e.NewIntLit(span, 0), nil
		}
		return ast.NoExprID, hardf(diag.TplEmptyFold, span,
			"fold over an empty pack has no identity for %s", data.Op)
	}

	if rightAssoc {
		// (xs op ...) right-associates; the seed, if any, sits innermost.
		acc := seed
		start := len(elems) - 1
		if !acc.IsValid() {
			acc = elems[start]
			start--
		}
		for i := start; i >= 0; i-- {
			acc = e.NewBinary(span, data.Op, elems[i], acc)
		}
		return acc, nil
	}

	// (... op xs) left-associates; the seed, if any, sits leftmost.
	acc := seed
	start := 0
	if !acc.IsValid() {
		acc = elems[0]
		start = 1
	}
	for i := start; i < len(elems); i++ {
		acc = e.NewBinary(span, data.Op, acc, elems[i])
	}
	return acc, nil
}
