package template

import (
	"testing"

	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/types"
)

func newTestContext() *Context {
	return NewContext(ast.NewBuilder(), source.NewInterner(), source.NewFileSet(), diag.NewBag(64))
}

func typeName(ctx *Context, name string, args ...ast.GenericArg) ast.TypeID {
	return ctx.Builder.Types.NewName(source.Span{}, ctx.Strings.Intern(name), args, ast.Deco{})
}

func typeArgOf(ctx *Context, name string) ast.GenericArg {
	return ast.GenericArg{Type: typeName(ctx, name)}
}

func typeParam(ctx *Context, name string) ast.ParamID {
	return ctx.Builder.Decls.NewParam(ast.TypeParam{Kind: ast.ParamType, Name: ctx.Strings.Intern(name)})
}

// declarePair registers `type Pair<T, U> = { first: T; second: U; }`.
func declarePair(ctx *Context) ast.DeclID {
	d := ctx.Builder.Decls
	id := d.NewStruct(source.Span{}, ast.DeclStructData{
		Name:   ctx.Strings.Intern("Pair"),
		Params: []ast.ParamID{typeParam(ctx, "T"), typeParam(ctx, "U")},
		Fields: []ast.FieldID{
			d.NewField(ast.Field{Name: ctx.Strings.Intern("first"), Type: typeName(ctx, "T")}),
			d.NewField(ast.Field{Name: ctx.Strings.Intern("second"), Type: typeName(ctx, "U")}),
		},
	})
	ctx.Registry.Register(d, id)
	return id
}

func TestInstantiationKeyDeterministic(t *testing.T) {
	ctx := newTestContext()
	bi := ctx.Catalog.Builtins()
	name := ctx.Strings.Intern("Pair")
	args := []Argument{TypeArg(bi.Int32), TypeArg(bi.Bool)}

	k1 := KeyFor(ctx, name, args)
	k2 := KeyFor(ctx, name, args)
	if k1 != k2 {
		t.Fatalf("key not stable: %+v vs %+v", k1, k2)
	}
	if got := k1.Mangled(ctx.Strings); got != "Pair<int32,bool>" {
		t.Fatalf("mangled = %q", got)
	}
}

func TestStructInstantiationIdempotent(t *testing.T) {
	ctx := newTestContext()
	declarePair(ctx)
	bi := ctx.Catalog.Builtins()
	name := ctx.Strings.Intern("Pair")
	args := []Argument{TypeArg(bi.Int32), TypeArg(bi.Bool)}

	first, fail := ResolveName(ctx, name, args, source.Span{})
	if fail != nil {
		t.Fatalf("first instantiation failed: %v", fail)
	}
	second, fail := ResolveName(ctx, name, args, source.Span{})
	if fail != nil {
		t.Fatalf("second instantiation failed: %v", fail)
	}
	if first.Type != second.Type {
		t.Fatalf("type ids differ: %d vs %d", first.Type, second.Type)
	}
	if got := ctx.Registry.RecordCount(); got != 1 {
		t.Fatalf("RecordCount() = %d, want 1", got)
	}
}

func TestStructLayoutOnDemand(t *testing.T) {
	ctx := newTestContext()
	declarePair(ctx)
	bi := ctx.Catalog.Builtins()
	rec, fail := ResolveName(ctx, ctx.Strings.Intern("Pair"),
		[]Argument{TypeArg(bi.Int8), TypeArg(bi.Int64)}, source.Span{})
	if fail != nil {
		t.Fatalf("instantiation failed: %v", fail)
	}
	if ctx.Lazy.Phase(rec.Type) != PhaseMinimal {
		t.Fatalf("phase after mention = %v, want minimal", ctx.Lazy.Phase(rec.Type))
	}
	if _, ok := ctx.Catalog.SizeOf(rec.Type); ok {
		t.Fatal("minimal instance must not be sized yet")
	}
	if fail := RequirePhase(ctx, rec.Type, PhaseLayout); fail != nil {
		t.Fatalf("layout failed: %v", fail)
	}
	size, ok := ctx.Catalog.SizeOf(rec.Type)
	if !ok || size != 16 {
		t.Fatalf("size = %d (ok=%v), want 16", size, ok)
	}
}

func TestPhaseMonotonic(t *testing.T) {
	ctx := newTestContext()
	declarePair(ctx)
	bi := ctx.Catalog.Builtins()
	rec, fail := ResolveName(ctx, ctx.Strings.Intern("Pair"),
		[]Argument{TypeArg(bi.Int32), TypeArg(bi.Int32)}, source.Span{})
	if fail != nil {
		t.Fatalf("instantiation failed: %v", fail)
	}
	if fail := RequirePhase(ctx, rec.Type, PhaseFull); fail != nil {
		t.Fatalf("full materialization failed: %v", fail)
	}
	if ctx.Lazy.NeedsLayout(rec.Type) {
		t.Fatal("NeedsLayout must be false after Full")
	}
	if ctx.Lazy.Advance(rec.Type, PhaseMinimal) {
		t.Fatal("phase regressed")
	}
	if _, tracked := ctx.Lazy.Class(rec.Type); tracked {
		t.Fatal("class entry must be deleted once Full completes")
	}
	// Re-requesting completion on the absent entry is a no-op.
	if fail := RequirePhase(ctx, rec.Type, PhaseFull); fail != nil {
		t.Fatalf("repeat completion errored: %v", fail)
	}
}

func TestAliasCycleIsHardError(t *testing.T) {
	ctx := newTestContext()
	d := ctx.Builder.Decls
	id := d.NewAlias(source.Span{}, ast.DeclAliasData{
		Name:   ctx.Strings.Intern("Loop"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Target: typeName(ctx, "Loop", typeArgOf(ctx, "T")),
	})
	ctx.Registry.Register(d, id)

	bi := ctx.Catalog.Builtins()
	_, fail := ResolveName(ctx, ctx.Strings.Intern("Loop"),
		[]Argument{TypeArg(bi.Int32)}, source.Span{})
	if fail == nil || !fail.IsHard() || fail.Code != diag.TplCycleDetected {
		t.Fatalf("want hard cycle error, got %v", fail)
	}
}

func TestDepthLimitIsHardError(t *testing.T) {
	ctx := newTestContext()
	ctx.Limits.MaxDepth = 16
	d := ctx.Builder.Decls

	// Deep<T> = Deep<*T>: every step produces a fresh key.
	ptrT := ctx.Builder.Types.NewName(source.Span{}, ctx.Strings.Intern("T"), nil, ast.Deco{PtrDepth: 1})
	id := d.NewAlias(source.Span{}, ast.DeclAliasData{
		Name:   ctx.Strings.Intern("Deep"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Target: typeName(ctx, "Deep", ast.GenericArg{Type: ptrT}),
	})
	ctx.Registry.Register(d, id)

	bi := ctx.Catalog.Builtins()
	_, fail := ResolveName(ctx, ctx.Strings.Intern("Deep"),
		[]Argument{TypeArg(bi.Int32)}, source.Span{})
	if fail == nil || !fail.IsHard() || fail.Code != diag.TplDepthExceeded {
		t.Fatalf("want hard depth error, got %v", fail)
	}
}

// declareSizeGated registers two overloads of `pick`: one viable below 8
// bytes, one at 8 or above.
func declareSizeGated(ctx *Context) {
	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	body := func(v int64) ast.StmtID {
		return ctx.Builder.Stmts.NewReturn(source.Span{}, e.NewIntLit(source.Span{}, v))
	}
	small := d.NewFn(source.Span{}, ast.DeclFnData{
		Name:   ctx.Strings.Intern("pick"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Where: e.NewBinary(source.Span{}, ast.BinLt,
			e.NewSizeof(source.Span{}, typeName(ctx, "T")),
			e.NewIntLit(source.Span{}, 8)),
		Body: body(1),
	})
	large := d.NewFn(source.Span{}, ast.DeclFnData{
		Name:   ctx.Strings.Intern("pick"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Where: e.NewBinary(source.Span{}, ast.BinGe,
			e.NewSizeof(source.Span{}, typeName(ctx, "T")),
			e.NewIntLit(source.Span{}, 8)),
		Body: body(2),
	})
	ctx.Registry.Register(d, small)
	ctx.Registry.Register(d, large)
}

func TestOverloadSelectionSkipsFailedCandidate(t *testing.T) {
	ctx := newTestContext()
	declareSizeGated(ctx)
	bi := ctx.Catalog.Builtins()

	rec, fail := SelectOverload(ctx, ctx.Strings.Intern("pick"),
		[]Argument{TypeArg(bi.Int64)}, source.Span{})
	if fail != nil {
		t.Fatalf("selection failed: %v", fail)
	}
	if !rec.Fn.IsValid() {
		t.Fatal("no concrete function produced")
	}
	if ctx.Bag.HasErrors() {
		t.Fatal("a skipped candidate must not leave a hard diagnostic")
	}

	rec2, fail := SelectOverload(ctx, ctx.Strings.Intern("pick"),
		[]Argument{TypeArg(bi.Int16)}, source.Span{})
	if fail != nil {
		t.Fatalf("selection failed: %v", fail)
	}
	if rec2.Fn == rec.Fn {
		t.Fatal("distinct argument lists selected the same instantiation")
	}
}

func TestSizeConstraintFailsSoft(t *testing.T) {
	ctx := newTestContext()
	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	fn := d.NewFn(source.Span{}, ast.DeclFnData{
		Name:   ctx.Strings.Intern("narrow"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Where: e.NewBinary(source.Span{}, ast.BinLt,
			e.NewSizeof(source.Span{}, typeName(ctx, "T")),
			e.NewIntLit(source.Span{}, 8)),
		Body: ctx.Builder.Stmts.NewBlock(source.Span{}, nil),
	})
	ctx.Registry.Register(d, fn)

	wide := ctx.Catalog.Intern(types.MakeArray(ctx.Catalog.Builtins().Int64, 2))
	_, fail := InstantiateFn(ctx, fn, []Argument{TypeArg(wide)}, source.Span{})
	if fail == nil {
		t.Fatal("16-byte argument must not satisfy sizeof(T) < 8")
	}
	if !fail.IsSoft() {
		t.Fatalf("want soft failure, got %v", fail)
	}
}

func TestConstTemplate(t *testing.T) {
	ctx := newTestContext()
	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	// const size_of<T>: int = sizeof(T);
	id := d.NewConst(source.Span{}, ast.DeclConstData{
		Name:   ctx.Strings.Intern("size_of"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Type:   typeName(ctx, "int"),
		Value:  e.NewSizeof(source.Span{}, typeName(ctx, "T")),
	})
	ctx.Registry.Register(d, id)

	bi := ctx.Catalog.Builtins()
	rec, fail := ResolveName(ctx, ctx.Strings.Intern("size_of"),
		[]Argument{TypeArg(bi.Int16)}, source.Span{})
	if fail != nil {
		t.Fatalf("instantiation failed: %v", fail)
	}
	if !rec.HasValue || rec.Value != 2 {
		t.Fatalf("size_of<int16> = %d (has=%v), want 2", rec.Value, rec.HasValue)
	}
}

func TestDefaultedParameterSharesRecord(t *testing.T) {
	ctx := newTestContext()
	d := ctx.Builder.Decls
	// type Box<T, U = T> = { a: T; b: U; }
	id := d.NewStruct(source.Span{}, ast.DeclStructData{
		Name: ctx.Strings.Intern("Box"),
		Params: []ast.ParamID{
			typeParam(ctx, "T"),
			d.NewParam(ast.TypeParam{
				Kind: ast.ParamType, Name: ctx.Strings.Intern("U"),
				DefaultType: typeName(ctx, "T"),
			}),
		},
		Fields: []ast.FieldID{
			d.NewField(ast.Field{Name: ctx.Strings.Intern("a"), Type: typeName(ctx, "T")}),
			d.NewField(ast.Field{Name: ctx.Strings.Intern("b"), Type: typeName(ctx, "U")}),
		},
	})
	ctx.Registry.Register(d, id)

	bi := ctx.Catalog.Builtins()
	short, fail := ResolveName(ctx, ctx.Strings.Intern("Box"),
		[]Argument{TypeArg(bi.Int32)}, source.Span{})
	if fail != nil {
		t.Fatalf("defaulted instantiation failed: %v", fail)
	}
	full, fail := ResolveName(ctx, ctx.Strings.Intern("Box"),
		[]Argument{TypeArg(bi.Int32), TypeArg(bi.Int32)}, source.Span{})
	if fail != nil {
		t.Fatalf("explicit instantiation failed: %v", fail)
	}
	if short.Type != full.Type {
		t.Fatalf("Box<int32> and Box<int32,int32> diverged: %d vs %d", short.Type, full.Type)
	}
}

func emptyBinding(t *testing.T, ctx *Context) *Binding {
	t.Helper()
	b, fail := NewBinding(ctx.Builder.Decls, ast.NoDeclID, nil, nil, source.Span{})
	if fail != nil {
		t.Fatalf("empty binding failed: %v", fail)
	}
	return b
}

func TestNestedGenericMemberSeesClassParameter(t *testing.T) {
	ctx := newTestContext()
	declarePair(ctx)
	d := ctx.Builder.Decls
	// type Box<T> = { value: T; type Mirror<U> = Pair<U, T>; }
	mirror := d.NewAlias(source.Span{}, ast.DeclAliasData{
		Name:   ctx.Strings.Intern("Mirror"),
		Params: []ast.ParamID{typeParam(ctx, "U")},
		Target: typeName(ctx, "Pair", typeArgOf(ctx, "U"), typeArgOf(ctx, "T")),
	})
	box := d.NewStruct(source.Span{}, ast.DeclStructData{
		Name:   ctx.Strings.Intern("Box"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Fields: []ast.FieldID{
			d.NewField(ast.Field{Name: ctx.Strings.Intern("value"), Type: typeName(ctx, "T")}),
		},
		Aliases: []ast.DeclID{mirror},
	})
	ctx.Registry.Register(d, box)

	bi := ctx.Catalog.Builtins()
	rec, fail := ResolveName(ctx, ctx.Strings.Intern("Box"),
		[]Argument{TypeArg(bi.Int32)}, source.Span{})
	if fail != nil {
		t.Fatalf("Box<int32> failed: %v", fail)
	}
	b := emptyBinding(t, ctx)
	member := ctx.Strings.Intern("Mirror")
	got, fail := ResolveQualified(ctx, b, rec.Type, member,
		[]ast.GenericArg{typeArgOf(ctx, "bool")}, source.Span{})
	if fail != nil {
		t.Fatalf("Mirror<bool> failed: %v", fail)
	}
	if disp := ctx.Catalog.Display(got, ctx.Strings); disp != "Pair<bool,int32>" {
		t.Fatalf("Mirror<bool> = %s, want Pair<bool,int32>", disp)
	}
	// The member's registry entry survives its first specialization.
	again, fail := ResolveQualified(ctx, b, rec.Type, member,
		[]ast.GenericArg{typeArgOf(ctx, "int64")}, source.Span{})
	if fail != nil {
		t.Fatalf("Mirror<int64> failed: %v", fail)
	}
	if again == got {
		t.Fatal("distinct argument lists resolved to the same type")
	}
	if disp := ctx.Catalog.Display(again, ctx.Strings); disp != "Pair<int64,int32>" {
		t.Fatalf("Mirror<int64> = %s, want Pair<int64,int32>", disp)
	}
}

func TestGenericMethodMaterializesPerArgumentList(t *testing.T) {
	ctx := newTestContext()
	declarePair(ctx)
	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	// type Box<T> = { value: T; fn dup<V>(v: V) -> Pair<V, T> { return v; } }
	method := d.NewFn(source.Span{}, ast.DeclFnData{
		Name:   ctx.Strings.Intern("dup"),
		Params: []ast.ParamID{typeParam(ctx, "V")},
		FnParams: []ast.FnParam{
			{Name: ctx.Strings.Intern("v"), Type: typeName(ctx, "V")},
		},
		Result: typeName(ctx, "Pair", typeArgOf(ctx, "V"), typeArgOf(ctx, "T")),
		Body: ctx.Builder.Stmts.NewReturn(source.Span{},
			e.NewIdent(source.Span{}, ctx.Strings.Intern("v"))),
	})
	box := d.NewStruct(source.Span{}, ast.DeclStructData{
		Name:   ctx.Strings.Intern("Box"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Fields: []ast.FieldID{
			d.NewField(ast.Field{Name: ctx.Strings.Intern("value"), Type: typeName(ctx, "T")}),
		},
		Methods: []ast.DeclID{method},
	})
	ctx.Registry.Register(d, box)

	bi := ctx.Catalog.Builtins()
	rec, fail := ResolveName(ctx, ctx.Strings.Intern("Box"),
		[]Argument{TypeArg(bi.Int32)}, source.Span{})
	if fail != nil {
		t.Fatalf("Box<int32> failed: %v", fail)
	}
	b := emptyBinding(t, ctx)
	dup := ctx.Strings.Intern("dup")

	first, fail := MemberRecord(ctx, b, rec.Type, dup,
		[]ast.GenericArg{typeArgOf(ctx, "int64")}, source.Span{})
	if fail != nil {
		t.Fatalf("dup<int64> failed: %v", fail)
	}
	if !first.Decl.IsValid() {
		t.Fatal("no concrete member function produced")
	}
	if got := ctx.lookupName(d.Name(first.Decl)); got != "Box<int32>::dup<int64>" {
		t.Fatalf("mangled = %q", got)
	}
	second, fail := MemberRecord(ctx, b, rec.Type, dup,
		[]ast.GenericArg{typeArgOf(ctx, "bool")}, source.Span{})
	if fail != nil {
		t.Fatalf("dup<bool> failed: %v", fail)
	}
	if second.Decl == first.Decl {
		t.Fatal("distinct argument lists produced the same instantiation")
	}
	repeat, fail := MemberRecord(ctx, b, rec.Type, dup,
		[]ast.GenericArg{typeArgOf(ctx, "int64")}, source.Span{})
	if fail != nil {
		t.Fatalf("repeat dup<int64> failed: %v", fail)
	}
	if repeat.Decl != first.Decl {
		t.Fatal("repeat specialization did not hit the cache")
	}
}

func TestPendingMethodSignatureChecked(t *testing.T) {
	newBoxWith := func(ctx *Context, method ast.DeclID) *Record {
		t.Helper()
		d := ctx.Builder.Decls
		box := d.NewStruct(source.Span{}, ast.DeclStructData{
			Name:   ctx.Strings.Intern("Box"),
			Params: []ast.ParamID{typeParam(ctx, "T")},
			Fields: []ast.FieldID{
				d.NewField(ast.Field{Name: ctx.Strings.Intern("value"), Type: typeName(ctx, "T")}),
			},
			Methods: []ast.DeclID{method},
		})
		ctx.Registry.Register(d, box)
		rec, fail := ResolveName(ctx, ctx.Strings.Intern("Box"),
			[]Argument{TypeArg(ctx.Catalog.Builtins().Int32)}, source.Span{})
		if fail != nil {
			t.Fatalf("Box<int32> failed: %v", fail)
		}
		return rec
	}

	t.Run("own parameters stay dependent", func(t *testing.T) {
		ctx := newTestContext()
		d := ctx.Builder.Decls
		// fn keep<V>(v: V) -> T stays pending; V resolves to a placeholder,
		// not an unknown-name error.
		method := d.NewFn(source.Span{}, ast.DeclFnData{
			Name:   ctx.Strings.Intern("keep"),
			Params: []ast.ParamID{typeParam(ctx, "V")},
			FnParams: []ast.FnParam{
				{Name: ctx.Strings.Intern("v"), Type: typeName(ctx, "V")},
			},
			Result: typeName(ctx, "T"),
			Body:   ctx.Builder.Stmts.NewBlock(source.Span{}, nil),
		})
		rec := newBoxWith(ctx, method)
		if fail := RequirePhase(ctx, rec.Type, PhaseFull); fail != nil {
			t.Fatalf("full materialization failed: %v", fail)
		}
		if got := ctx.Lazy.PendingCount(RoleMethod); got != 1 {
			t.Fatalf("pending member functions = %d, want 1", got)
		}
	})

	t.Run("unknown signature type is hard", func(t *testing.T) {
		ctx := newTestContext()
		d := ctx.Builder.Decls
		method := d.NewFn(source.Span{}, ast.DeclFnData{
			Name:   ctx.Strings.Intern("bad"),
			Params: []ast.ParamID{typeParam(ctx, "V")},
			FnParams: []ast.FnParam{
				{Name: ctx.Strings.Intern("x"), Type: typeName(ctx, "Missing")},
			},
			Result: typeName(ctx, "T"),
			Body:   ctx.Builder.Stmts.NewBlock(source.Span{}, nil),
		})
		rec := newBoxWith(ctx, method)
		fail := RequirePhase(ctx, rec.Type, PhaseFull)
		if fail == nil || !fail.IsHard() || fail.Code != diag.TplUnknownName {
			t.Fatalf("want hard unknown-name error, got %v", fail)
		}
	})
}

func TestMethodSeesClassPack(t *testing.T) {
	ctx := newTestContext()
	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	// type Tuple<Ts...> = { fn width<V>() -> int { return sizeof...(Ts); } }
	method := d.NewFn(source.Span{}, ast.DeclFnData{
		Name:   ctx.Strings.Intern("width"),
		Params: []ast.ParamID{typeParam(ctx, "V")},
		Result: typeName(ctx, "int"),
		Body: ctx.Builder.Stmts.NewReturn(source.Span{},
			e.NewSizeofPack(source.Span{}, ctx.Strings.Intern("Ts"))),
	})
	tuple := d.NewStruct(source.Span{}, ast.DeclStructData{
		Name: ctx.Strings.Intern("Tuple"),
		Params: []ast.ParamID{
			d.NewParam(ast.TypeParam{
				Kind: ast.ParamType, Name: ctx.Strings.Intern("Ts"), Variadic: true,
			}),
		},
		Methods: []ast.DeclID{method},
	})
	ctx.Registry.Register(d, tuple)

	bi := ctx.Catalog.Builtins()
	rec, fail := ResolveName(ctx, ctx.Strings.Intern("Tuple"),
		[]Argument{TypeArg(bi.Int32), TypeArg(bi.Bool)}, source.Span{})
	if fail != nil {
		t.Fatalf("Tuple<int32,bool> failed: %v", fail)
	}
	res, fail := MemberRecord(ctx, emptyBinding(t, ctx), rec.Type, ctx.Strings.Intern("width"),
		[]ast.GenericArg{typeArgOf(ctx, "int64")}, source.Span{})
	if fail != nil {
		t.Fatalf("width<int64> failed: %v", fail)
	}
	data, ok := d.Fn(res.Decl)
	if !ok {
		t.Fatal("no concrete member function produced")
	}
	ret, ok := ctx.Builder.Stmts.Return(data.Body)
	if !ok {
		t.Fatal("substituted body is not a return")
	}
	lit, ok := e.IntLit(ret.Value)
	if !ok || lit.Value != 2 {
		t.Fatalf("sizeof...(Ts) did not fold to the class pack size, got %+v", lit)
	}
}

func TestInstantiationReportDedupsUseSites(t *testing.T) {
	ctx := newTestContext()
	declarePair(ctx)
	bi := ctx.Catalog.Builtins()
	span := source.Span{File: 1, Start: 4, End: 9}
	args := []Argument{TypeArg(bi.Int32), TypeArg(bi.Bool)}
	for i := 0; i < 3; i++ {
		if _, fail := ResolveName(ctx, ctx.Strings.Intern("Pair"), args, span); fail != nil {
			t.Fatalf("instantiation failed: %v", fail)
		}
	}
	entries := ctx.Report.Entries()
	if len(entries) != 1 {
		t.Fatalf("report entries = %d, want 1", len(entries))
	}
	if len(entries[0].UseSites) != 1 {
		t.Fatalf("use sites = %d, want 1 after dedup", len(entries[0].UseSites))
	}
}
