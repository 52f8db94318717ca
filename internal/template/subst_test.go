package template

import (
	"testing"

	"vesper/internal/ast"
	"vesper/internal/source"
)

// packBinding builds a binding whose single variadic parameter xs carries
// the given integer values.
func packBinding(ctx *Context, values ...int64) *Binding {
	d := ctx.Builder.Decls
	params := []ast.ParamID{d.NewParam(ast.TypeParam{
		Kind: ast.ParamValue, Name: ctx.Strings.Intern("xs"), Variadic: true,
	})}
	bi := ctx.Catalog.Builtins()
	args := make([]Argument, len(values))
	for i, v := range values {
		args[i] = ValueArg(v, bi.Int)
	}
	b, fail := NewBinding(d, ast.NoDeclID, params, args, source.Span{})
	if fail != nil {
		panic(fail.Error())
	}
	return b
}

func mustEvalInt(t *testing.T, ctx *Context, b *Binding, id ast.ExprID) int64 {
	t.Helper()
	v, fail := EvalConst(ctx, b, id)
	if fail != nil {
		t.Fatalf("eval failed: %v", fail)
	}
	iv, ok := v.AsInt()
	if !ok {
		t.Fatalf("value is not an integer: %+v", v)
	}
	return iv
}

func TestSizeofPackCountsArguments(t *testing.T) {
	ctx := newTestContext()
	b := packBinding(ctx, 10, 20, 30)
	expr := ctx.Builder.Exprs.NewSizeofPack(source.Span{}, ctx.Strings.Intern("xs"))
	if got := mustEvalInt(t, ctx, b, expr); got != 3 {
		t.Fatalf("sizeof...(xs) = %d, want 3", got)
	}
}

func TestSizeofPackFallsBackToPackSizeTable(t *testing.T) {
	ctx := newTestContext()
	b, fail := NewBinding(ctx.Builder.Decls, ast.NoDeclID, nil, nil, source.Span{})
	if fail != nil {
		t.Fatalf("binding failed: %v", fail)
	}
	ctx.PackSizes[ctx.Strings.Intern("ys")] = 5
	expr := ctx.Builder.Exprs.NewSizeofPack(source.Span{}, ctx.Strings.Intern("ys"))
	if got := mustEvalInt(t, ctx, b, expr); got != 5 {
		t.Fatalf("sizeof...(ys) = %d, want 5", got)
	}
}

func TestPackElementsCarryPackMark(t *testing.T) {
	ctx := newTestContext()
	b := packBinding(ctx, 1, 2)
	elems, ok := b.Pack(ctx.Strings.Intern("xs"))
	if !ok || len(elems) != 2 {
		t.Fatalf("pack lookup: ok=%v len=%d", ok, len(elems))
	}
	for i, e := range elems {
		if !e.IsPack {
			t.Fatalf("element %d is not marked as a pack element", i)
		}
	}
	// Indexed bindings get the mark too; IndexedCount only counts marked
	// entries, so a plain binding spelled like an indexed element does not
	// inflate the pack size.
	b.BindIndexed(ctx.Strings.Intern("xs_0"), elems[0])
	arg, ok := b.Lookup(ctx.Strings.Intern("xs_0"))
	if !ok || !arg.IsPack {
		t.Fatalf("indexed lookup: ok=%v IsPack=%v", ok, arg.IsPack)
	}
}

func TestPackExpansionCount(t *testing.T) {
	ctx := newTestContext()
	b := packBinding(ctx, 1, 2, 3)
	pattern := ctx.Builder.Exprs.NewIdent(source.Span{}, ctx.Strings.Intern("xs"))
	elems, fail := ExpandPack(ctx, b, pattern, ctx.Strings.Intern("xs"), source.Span{})
	if fail != nil {
		t.Fatalf("expansion failed: %v", fail)
	}
	if len(elems) != 3 {
		t.Fatalf("expanded %d copies, want 3", len(elems))
	}
	for i, elem := range elems {
		want := int64(i + 1)
		if got := mustEvalInt(t, ctx, b, elem); got != want {
			t.Fatalf("element %d = %d, want %d", i, got, want)
		}
	}
}

func TestFoldAssociativity(t *testing.T) {
	ctx := newTestContext()
	e := ctx.Builder.Exprs
	pattern := func() ast.ExprID {
		return e.NewIdent(source.Span{}, ctx.Strings.Intern("xs"))
	}

	cases := map[string]struct {
		right bool
		want  int64
	}{
		// (... - xs) over [1,2,3] is ((1-2)-3).
		"left": {right: false, want: -4},
		// (xs - ...) over [1,2,3] is (1-(2-3)).
		"right": {right: true, want: 2},
	}
	for name, tc := range cases {
		b := packBinding(ctx, 1, 2, 3)
		fold := e.NewFold(source.Span{}, ast.BinSub, pattern(), ast.NoExprID, tc.right)
		expanded, fail := ExpandFold(ctx, b, fold)
		if fail != nil {
			t.Fatalf("%s: expansion failed: %v", name, fail)
		}
		if got := mustEvalInt(t, ctx, b, expanded); got != tc.want {
			t.Fatalf("%s fold = %d, want %d", name, got, tc.want)
		}
	}
}

func TestFoldEmptyPackIdentities(t *testing.T) {
	ctx := newTestContext()
	e := ctx.Builder.Exprs
	pattern := func() ast.ExprID {
		return e.NewIdent(source.Span{}, ctx.Strings.Intern("xs"))
	}

	b := packBinding(ctx)
	and, fail := ExpandFold(ctx, b, e.NewFold(source.Span{}, ast.BinLAnd, pattern(), ast.NoExprID, false))
	if fail != nil {
		t.Fatalf("empty && failed: %v", fail)
	}
	if data, ok := e.BoolLit(and); !ok || !data.Value {
		t.Fatal("empty && must fold to true")
	}

	or, fail := ExpandFold(ctx, b, e.NewFold(source.Span{}, ast.BinLOr, pattern(), ast.NoExprID, false))
	if fail != nil {
		t.Fatalf("empty || failed: %v", fail)
	}
	if data, ok := e.BoolLit(or); !ok || data.Value {
		t.Fatal("empty || must fold to false")
	}

	_, fail = ExpandFold(ctx, b, e.NewFold(source.Span{}, ast.BinSub, pattern(), ast.NoExprID, false))
	if fail == nil || !fail.IsHard() {
		t.Fatalf("unseeded - over empty pack must be an error, got %v", fail)
	}

	seed := e.NewIntLit(source.Span{}, 7)
	seeded, fail := ExpandFold(ctx, b, e.NewFold(source.Span{}, ast.BinSub, pattern(), seed, false))
	if fail != nil {
		t.Fatalf("seeded empty fold failed: %v", fail)
	}
	if got := mustEvalInt(t, ctx, b, seeded); got != 7 {
		t.Fatalf("seeded empty fold = %d, want the seed 7", got)
	}
}

func TestSeededFoldSides(t *testing.T) {
	ctx := newTestContext()
	e := ctx.Builder.Exprs
	seed := func() ast.ExprID { return e.NewIntLit(source.Span{}, 100) }
	pattern := func() ast.ExprID { return e.NewIdent(source.Span{}, ctx.Strings.Intern("xs")) }

	// (100 - ... - xs) over [1,2,3] is (((100-1)-2)-3).
	b := packBinding(ctx, 1, 2, 3)
	left, fail := ExpandFold(ctx, b, e.NewFold(source.Span{}, ast.BinSub, pattern(), seed(), false))
	if fail != nil {
		t.Fatalf("seeded left fold failed: %v", fail)
	}
	if got := mustEvalInt(t, ctx, b, left); got != 94 {
		t.Fatalf("seeded left fold = %d, want 94", got)
	}

	// (xs - ... - 100) over [1,2,3] is (1-(2-(3-100))).
	b = packBinding(ctx, 1, 2, 3)
	right, fail := ExpandFold(ctx, b, e.NewFold(source.Span{}, ast.BinSub, pattern(), seed(), true))
	if fail != nil {
		t.Fatalf("seeded right fold failed: %v", fail)
	}
	if got := mustEvalInt(t, ctx, b, right); got != -98 {
		t.Fatalf("seeded right fold = %d, want -98", got)
	}
}

func TestSubstValueParamWithTypeArgLeftAlone(t *testing.T) {
	ctx := newTestContext()
	d := ctx.Builder.Decls
	params := []ast.ParamID{d.NewParam(ast.TypeParam{
		Kind: ast.ParamValue, Name: ctx.Strings.Intern("N"),
	})}
	bi := ctx.Catalog.Builtins()
	b, fail := NewBinding(d, ast.NoDeclID, params, []Argument{TypeArg(bi.Int32)}, source.Span{})
	if fail != nil {
		t.Fatalf("binding failed: %v", fail)
	}
	ident := ctx.Builder.Exprs.NewIdent(source.Span{}, ctx.Strings.Intern("N"))
	out, fail := SubstExpr(ctx, b, ident)
	if fail != nil {
		t.Fatalf("substitution failed: %v", fail)
	}
	if out != ident {
		t.Fatal("value parameter bound to a type argument must stay unsubstituted")
	}
}

func TestSubstReplacesParams(t *testing.T) {
	ctx := newTestContext()
	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	params := []ast.ParamID{
		d.NewParam(ast.TypeParam{Kind: ast.ParamValue, Name: ctx.Strings.Intern("N")}),
		typeParam(ctx, "T"),
	}
	bi := ctx.Catalog.Builtins()
	b, fail := NewBinding(d, ast.NoDeclID, params,
		[]Argument{ValueArg(41, bi.Int), TypeArg(bi.Int32)}, source.Span{})
	if fail != nil {
		t.Fatalf("binding failed: %v", fail)
	}

	sum := e.NewBinary(source.Span{}, ast.BinAdd,
		e.NewIdent(source.Span{}, ctx.Strings.Intern("N")),
		e.NewIntLit(source.Span{}, 1))
	out, fail := SubstExpr(ctx, b, sum)
	if fail != nil {
		t.Fatalf("substitution failed: %v", fail)
	}
	if got := mustEvalInt(t, ctx, b, out); got != 42 {
		t.Fatalf("N + 1 = %d, want 42", got)
	}

	tRef := e.NewIdent(source.Span{}, ctx.Strings.Intern("T"))
	out, fail = SubstExpr(ctx, b, tRef)
	if fail != nil {
		t.Fatalf("substitution failed: %v", fail)
	}
	data, ok := e.Ident(out)
	if !ok {
		t.Fatal("type parameter must substitute to a type identifier")
	}
	if got, _ := ctx.Strings.Lookup(data.Name); got != "int32" {
		t.Fatalf("substituted spelling = %q, want int32", got)
	}
}

func TestUnboundOuterIdentifierUnchanged(t *testing.T) {
	ctx := newTestContext()
	b, fail := NewBinding(ctx.Builder.Decls, ast.NoDeclID, nil, nil, source.Span{})
	if fail != nil {
		t.Fatalf("binding failed: %v", fail)
	}
	b.UnboundOuter = []source.StringID{ctx.Strings.Intern("Outer")}

	ident := ctx.Builder.Exprs.NewIdent(source.Span{}, ctx.Strings.Intern("Outer"))
	out, fail := SubstExpr(ctx, b, ident)
	if fail != nil {
		t.Fatalf("substitution failed: %v", fail)
	}
	if out != ident {
		t.Fatal("identifier of an unbound enclosing generic must pass through")
	}
}

func TestConstIfPrunesBranch(t *testing.T) {
	ctx := newTestContext()
	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	s := ctx.Builder.Stmts
	params := []ast.ParamID{d.NewParam(ast.TypeParam{
		Kind: ast.ParamValue, Name: ctx.Strings.Intern("N"),
	})}
	bi := ctx.Catalog.Builtins()

	build := func() ast.StmtID {
		cond := e.NewBinary(source.Span{}, ast.BinEq,
			e.NewIdent(source.Span{}, ctx.Strings.Intern("N")),
			e.NewIntLit(source.Span{}, 0))
		then := s.NewReturn(source.Span{}, e.NewIntLit(source.Span{}, 1))
		els := s.NewReturn(source.Span{}, e.NewIntLit(source.Span{}, 2))
		return s.NewIf(source.Span{}, cond, true, then, els)
	}

	cases := map[string]struct {
		n    int64
		want int64
	}{
		"then": {n: 0, want: 1},
		"else": {n: 9, want: 2},
	}
	for name, tc := range cases {
		b, fail := NewBinding(d, ast.NoDeclID, params, []Argument{ValueArg(tc.n, bi.Int)}, source.Span{})
		if fail != nil {
			t.Fatalf("%s: binding failed: %v", name, fail)
		}
		out, fail := SubstStmt(ctx, b, build())
		if fail != nil {
			t.Fatalf("%s: substitution failed: %v", name, fail)
		}
		ret, ok := s.Return(out)
		if !ok {
			t.Fatalf("%s: pruned result is not a lone return", name)
		}
		if got := mustEvalInt(t, ctx, b, ret.Value); got != tc.want {
			t.Fatalf("%s: returned %d, want %d", name, got, tc.want)
		}
	}
}
