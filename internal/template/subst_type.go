package template

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/types"
)

// ResolveType rewrites a syntactic type expression under a binding into a
// concrete catalog entry. The base kind comes from the bound argument (or a
// registered type); decorations written at the use site are re-applied on
// top, so `*T` with T = int32 is pointer-to-int32 regardless of what T's
// argument itself carries.
//
// A name belonging to an enclosing, still-unbound generic resolves to a
// fresh dependent placeholder instead of failing.
func ResolveType(ctx *Context, b *Binding, id ast.TypeID) (types.TypeID, *Failure) {
	te := ctx.Builder.Types.Get(id)
	if te == nil {
		return types.NoTypeID, hardf(diag.TplSubstFailed, source.Span{}, "missing type node")
	}
	switch te.Kind {
	case ast.TypeName:
		return resolveTypeName(ctx, b, id, te)
	case ast.TypeQualified:
		return resolveTypeQualified(ctx, b, id, te)
	case ast.TypePack:
		// A pack expansion is only legal where the expander rewrites it.
		return types.NoTypeID, hardf(diag.TplSubstFailed, te.Span,
			"pack expansion outside a pack context")
	}
	return types.NoTypeID, hardf(diag.TplSubstFailed, te.Span, "unknown type shape")
}

func resolveTypeName(ctx *Context, b *Binding, id ast.TypeID, te *ast.TypeExpr) (types.TypeID, *Failure) {
	data, ok := ctx.Builder.Types.Name(id)
	if !ok {
		return types.NoTypeID, hardf(diag.TplSubstFailed, te.Span, "malformed type name")
	}

	// Parameter reference.
	if arg, ok := b.Lookup(data.Name); ok {
		if len(data.Args) > 0 && !arg.IsGenericOfGeneric {
			return types.NoTypeID, softf(diag.TplArgKindMismatch, te.Span,
				"%s is not a generic and takes no arguments", ctx.lookupName(data.Name))
		}
		if arg.Kind == ArgValueKind {
			return types.NoTypeID, softf(diag.TplArgKindMismatch, te.Span,
				"%s is a value, used where a type is required", ctx.lookupName(data.Name))
		}
		return applyDeco(ctx, b, arg.Materialize(ctx.Catalog), te)
	}

	spelled := ctx.lookupName(data.Name)

	// Built-in primitive.
	if len(data.Args) == 0 {
		if builtin, ok := ctx.builtinType(spelled); ok {
			return applyDeco(ctx, b, builtin, te)
		}
	}

	// Registered generic (zero generic parameters included).
	if declID, ok := ctx.Registry.Lookup(data.Name); ok {
		args, fail := ResolveGenericArgs(ctx, b, ctx.Builder.Decls.ParamsOf(declID), data.Args, te.Span)
		if fail != nil {
			return types.NoTypeID, fail
		}
		for _, a := range args {
			if a.IsDependent {
				// An application over a still-unbound argument names no
				// instance yet; it stays dependent as a whole.
				dep := ctx.Catalog.NewDependent(spelled + "<" + argsKeyOf(ctx, args) + ">")
				return applyDeco(ctx, b, dep, te)
			}
		}
		rec, fail := ResolveName(ctx, data.Name, args, te.Span)
		if fail != nil {
			return types.NoTypeID, fail
		}
		if rec.Type == types.NoTypeID {
			return types.NoTypeID, softf(diag.TplArgKindMismatch, te.Span,
				"%s does not name a type", spelled)
		}
		return applyDeco(ctx, b, rec.Type, te)
	}

	// A name owned by an enclosing, unbound generic is dependent, not wrong.
	if b.IsUnboundOuter(data.Name) {
		dep := ctx.Catalog.NewDependent(spelled)
		return applyDeco(ctx, b, dep, te)
	}

	return types.NoTypeID, hardf(diag.TplUnknownName, te.Span, "unknown type name %s", spelled)
}

func resolveTypeQualified(ctx *Context, b *Binding, id ast.TypeID, te *ast.TypeExpr) (types.TypeID, *Failure) {
	data, ok := ctx.Builder.Types.Qualified(id)
	if !ok {
		return types.NoTypeID, hardf(diag.TplSubstFailed, te.Span, "malformed qualified type")
	}
	base, fail := ResolveType(ctx, b, data.Base)
	if fail != nil {
		return types.NoTypeID, fail
	}
	if ctx.Catalog.IsDependent(base) {
		// Base still depends on unbound parameters; the member cannot mean
		// anything yet.
		display := ctx.Catalog.Display(base, ctx.Strings) + "::" + ctx.lookupName(data.Member)
		return applyDeco(ctx, b, ctx.Catalog.NewDependent(display), te)
	}
	member, fail := ResolveQualified(ctx, b, base, data.Member, data.Args, te.Span)
	if fail != nil {
		return types.NoTypeID, fail
	}
	return applyDeco(ctx, b, member, te)
}

// applyDeco re-applies the use-site decorations: qualifiers first, then the
// array, then pointers, then the reference.
func applyDeco(ctx *Context, b *Binding, id types.TypeID, te *ast.TypeExpr) (types.TypeID, *Failure) {
	d := te.Deco
	if d.None() {
		return id, nil
	}
	var quals types.Qual
	if d.Const {
		quals |= types.QualConst
	}
	if d.Volatile {
		quals |= types.QualVolatile
	}
	if quals != 0 {
		id = ctx.Catalog.Qualify(id, quals)
	}
	if d.IsArray {
		n := int64(0)
		if d.ArrayLen.IsValid() {
			v, fail := EvalConst(ctx, b, d.ArrayLen)
			if fail != nil {
				return types.NoTypeID, fail
			}
			iv, ok := v.AsInt()
			if !ok || iv < 0 {
				return types.NoTypeID, softf(diag.TplSubstFailed, te.Span,
					"array length must be a non-negative constant integer")
			}
			n = iv
		}
		id = ctx.Catalog.Intern(types.MakeArray(id, uint32(n)))
	}
	for i := uint8(0); i < d.PtrDepth; i++ {
		id = ctx.Catalog.Intern(types.MakePointer(id))
	}
	switch d.Ref {
	case ast.RefShared:
		id = ctx.Catalog.Intern(types.MakeReference(id, false))
	case ast.RefMut:
		id = ctx.Catalog.Intern(types.MakeReference(id, true))
	}
	return id, nil
}

// ResolveGenericArgs turns the syntactic argument list of a generic
// application into engine arguments, resolving each against the outer
// binding. An ambiguous argument (a bare identifier the parser could not
// classify) is settled by the kind of the parameter it lands on.
func ResolveGenericArgs(ctx *Context, b *Binding, params []ast.ParamID, gargs []ast.GenericArg, span source.Span) ([]Argument, *Failure) {
	if len(gargs) == 0 {
		return nil, nil
	}
	out := make([]Argument, 0, len(gargs))
	for i, ga := range gargs {
		kind := paramKindAt(ctx, params, i)
		arg, fail := resolveGenericArg(ctx, b, ga, kind, span)
		if fail != nil {
			return nil, fail
		}
		out = append(out, arg)
	}
	return out, nil
}

// paramKindAt returns the declared kind of the parameter that position i
// binds to; a trailing variadic absorbs every later position.
func paramKindAt(ctx *Context, params []ast.ParamID, i int) ast.ParamKind {
	if len(params) == 0 {
		return ast.ParamType
	}
	idx := i
	if idx >= len(params) {
		idx = len(params) - 1
	}
	p := ctx.Builder.Decls.Param(params[idx])
	if p == nil {
		return ast.ParamType
	}
	if idx < i && !p.Variadic {
		return ast.ParamType
	}
	return p.Kind
}

func resolveGenericArg(ctx *Context, b *Binding, ga ast.GenericArg, kind ast.ParamKind, span source.Span) (Argument, *Failure) {
	wantValue := kind == ast.ParamValue
	if ga.Ambiguous && wantValue && ga.Expr.IsValid() {
		v, fail := EvalConst(ctx, b, ga.Expr)
		if fail == nil {
			if iv, ok := v.AsInt(); ok {
				return ValueArg(iv, v.Type), nil
			}
		} else if fail.IsHard() {
			return Argument{}, fail
		}
		// Fall through: the identifier names a type after all.
	}
	if ga.Type.IsValid() {
		id, fail := ResolveType(ctx, b, ga.Type)
		if fail != nil {
			return Argument{}, fail
		}
		arg := TypeArg(id)
		arg.IsDependent = ctx.Catalog.IsDependent(id)
		if decl, ok := declOfTypeName(ctx, ga.Type); ok && len(ctx.Builder.Decls.ParamsOf(decl)) > 0 {
			// Bare generic name passed as an argument.
			arg.IsGenericOfGeneric = hasNoArgs(ctx, ga.Type)
		}
		return arg, nil
	}
	if ga.Expr.IsValid() {
		v, fail := EvalConst(ctx, b, ga.Expr)
		if fail != nil {
			return Argument{}, fail
		}
		iv, ok := v.AsInt()
		if !ok {
			return Argument{}, softf(diag.TplArgKindMismatch, span,
				"value argument must be a constant integer")
		}
		return ValueArg(iv, v.Type), nil
	}
	return Argument{}, hardf(diag.TplSubstFailed, span, "empty generic argument")
}

func declOfTypeName(ctx *Context, id ast.TypeID) (ast.DeclID, bool) {
	data, ok := ctx.Builder.Types.Name(id)
	if !ok {
		return ast.NoDeclID, false
	}
	return ctx.Registry.Lookup(data.Name)
}

func hasNoArgs(ctx *Context, id ast.TypeID) bool {
	data, ok := ctx.Builder.Types.Name(id)
	return ok && len(data.Args) == 0
}
