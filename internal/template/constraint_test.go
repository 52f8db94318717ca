package template

import (
	"testing"

	"vesper/internal/ast"
	"vesper/internal/source"
	"vesper/internal/types"
)

// declareIntegral registers `concept Integral<T> = is_integral(T);`.
func declareIntegral(ctx *Context) {
	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	pred := e.NewCall(source.Span{},
		e.NewIdent(source.Span{}, ctx.Strings.Intern("is_integral")),
		[]ast.ExprID{e.NewIdent(source.Span{}, ctx.Strings.Intern("T"))}, nil)
	id := d.NewConcept(source.Span{}, ast.DeclConceptData{
		Name:   ctx.Strings.Intern("Integral"),
		Params: []ast.ParamID{typeParam(ctx, "T")},
		Pred:   pred,
	})
	ctx.Registry.Register(d, id)
}

func conceptBinding(ctx *Context, arg Argument) *Binding {
	params := []ast.ParamID{typeParam(ctx, "T")}
	b, fail := NewBinding(ctx.Builder.Decls, ast.NoDeclID, params, []Argument{arg}, source.Span{})
	if fail != nil {
		panic(fail.Error())
	}
	return b
}

func TestTraitFailureCarriesRequirement(t *testing.T) {
	ctx := newTestContext()
	declareIntegral(ctx)
	bi := ctx.Catalog.Builtins()

	e := ctx.Builder.Exprs
	pred := e.NewIdent(source.Span{}, ctx.Strings.Intern("Integral"))

	res := Evaluate(ctx, conceptBinding(ctx, TypeArg(bi.Float32)), pred)
	if res.Satisfied {
		t.Fatal("Integral<float32> must not be satisfied")
	}
	if res.FailedRequirement != "is_integral" {
		t.Fatalf("failed requirement = %q, want is_integral", res.FailedRequirement)
	}

	res = Evaluate(ctx, conceptBinding(ctx, TypeArg(bi.Int64)), pred)
	if !res.Satisfied {
		t.Fatalf("Integral<int64> must be satisfied, got %+v", res)
	}
}

func TestConceptCallResolvesExplicitArgs(t *testing.T) {
	ctx := newTestContext()
	declareIntegral(ctx)
	bi := ctx.Catalog.Builtins()
	e := ctx.Builder.Exprs

	// Integral(U) evaluated under a binding where U = uint16.
	params := []ast.ParamID{typeParam(ctx, "U")}
	b, fail := NewBinding(ctx.Builder.Decls, ast.NoDeclID, params,
		[]Argument{TypeArg(bi.Uint16)}, source.Span{})
	if fail != nil {
		t.Fatalf("binding failed: %v", fail)
	}
	pred := e.NewCall(source.Span{},
		e.NewIdent(source.Span{}, ctx.Strings.Intern("Integral")),
		[]ast.ExprID{e.NewIdent(source.Span{}, ctx.Strings.Intern("U"))}, nil)
	if res := Evaluate(ctx, b, pred); !res.Satisfied {
		t.Fatalf("Integral(U) with U=uint16 must hold, got %+v", res)
	}
}

func TestTraitsOverResolvedOperands(t *testing.T) {
	ctx := newTestContext()
	bi := ctx.Catalog.Builtins()
	ptr := ctx.Catalog.Intern(types.MakePointer(bi.Int32))
	ref := ctx.Catalog.Intern(types.MakeReference(bi.Int32, true))
	cq := ctx.Catalog.Qualify(bi.Int32, types.QualConst)

	cases := map[string]struct {
		trait string
		arg   Argument
		want  bool
	}{
		"pointer yes":   {trait: "is_pointer", arg: TypeArg(ptr), want: true},
		"pointer no":    {trait: "is_pointer", arg: TypeArg(bi.Int32), want: false},
		"reference yes": {trait: "is_reference", arg: TypeArg(ref), want: true},
		"const yes":     {trait: "is_const", arg: TypeArg(cq), want: true},
		"const no":      {trait: "is_const", arg: TypeArg(bi.Int32), want: false},
		"unsigned yes":  {trait: "is_unsigned", arg: TypeArg(bi.Uint8), want: true},
		"floating yes":  {trait: "is_floating", arg: TypeArg(bi.Float64), want: true},
		"signed no":     {trait: "is_signed", arg: TypeArg(bi.Uint32), want: false},
	}
	e := ctx.Builder.Exprs
	for name, tc := range cases {
		pred := e.NewCall(source.Span{},
			e.NewIdent(source.Span{}, ctx.Strings.Intern(tc.trait)),
			[]ast.ExprID{e.NewIdent(source.Span{}, ctx.Strings.Intern("T"))}, nil)
		res := Evaluate(ctx, conceptBinding(ctx, tc.arg), pred)
		if res.Satisfied != tc.want {
			t.Fatalf("%s: satisfied = %v, want %v", name, res.Satisfied, tc.want)
		}
	}
}

func TestSameTypeLooksThroughAliases(t *testing.T) {
	ctx := newTestContext()
	bi := ctx.Catalog.Builtins()
	alias := ctx.Catalog.RegisterAliasInstance(ctx.Strings.Intern("Id"), "int32")
	ctx.Catalog.SetAliasTarget(alias, bi.Int32)

	d := ctx.Builder.Decls
	e := ctx.Builder.Exprs
	params := []ast.ParamID{typeParam(ctx, "A"), typeParam(ctx, "B")}
	b, fail := NewBinding(d, ast.NoDeclID, params,
		[]Argument{TypeArg(alias), TypeArg(bi.Int32)}, source.Span{})
	if fail != nil {
		t.Fatalf("binding failed: %v", fail)
	}
	pred := e.NewCall(source.Span{},
		e.NewIdent(source.Span{}, ctx.Strings.Intern("same_type")),
		[]ast.ExprID{
			e.NewIdent(source.Span{}, ctx.Strings.Intern("A")),
			e.NewIdent(source.Span{}, ctx.Strings.Intern("B")),
		}, nil)
	if res := Evaluate(ctx, b, pred); !res.Satisfied {
		t.Fatalf("alias-to-int32 and int32 must compare equal, got %+v", res)
	}
}

func TestShortCircuitPropagatesDetail(t *testing.T) {
	ctx := newTestContext()
	declareIntegral(ctx)
	bi := ctx.Catalog.Builtins()
	e := ctx.Builder.Exprs

	integral := func() ast.ExprID {
		return e.NewCall(source.Span{},
			e.NewIdent(source.Span{}, ctx.Strings.Intern("Integral")),
			[]ast.ExprID{e.NewIdent(source.Span{}, ctx.Strings.Intern("T"))}, nil)
	}

	and := e.NewBinary(source.Span{}, ast.BinLAnd, e.NewBoolLit(source.Span{}, true), integral())
	res := Evaluate(ctx, conceptBinding(ctx, TypeArg(bi.Float32)), and)
	if res.Satisfied || res.FailedRequirement != "is_integral" {
		t.Fatalf("&& must surface the failing branch, got %+v", res)
	}

	or := e.NewBinary(source.Span{}, ast.BinLOr, integral(), e.NewBoolLit(source.Span{}, true))
	if res := Evaluate(ctx, conceptBinding(ctx, TypeArg(bi.Float32)), or); !res.Satisfied {
		t.Fatalf("|| with a succeeding branch must hold, got %+v", res)
	}
}

func TestNonConstantRelationIsLenient(t *testing.T) {
	ctx := newTestContext()
	bi := ctx.Catalog.Builtins()
	e := ctx.Builder.Exprs

	// `unknown < 8` cannot be reduced; the relation passes conservatively.
	rel := e.NewBinary(source.Span{}, ast.BinLt,
		e.NewIdent(source.Span{}, ctx.Strings.Intern("unknown")),
		e.NewIntLit(source.Span{}, 8))
	if res := Evaluate(ctx, conceptBinding(ctx, TypeArg(bi.Int32)), rel); !res.Satisfied {
		t.Fatalf("irreducible relation must be treated as satisfied, got %+v", res)
	}
}

func TestRequiresBlock(t *testing.T) {
	ctx := newTestContext()
	declareIntegral(ctx)
	bi := ctx.Catalog.Builtins()
	e := ctx.Builder.Exprs

	integral := e.NewCall(source.Span{},
		e.NewIdent(source.Span{}, ctx.Strings.Intern("Integral")),
		[]ast.ExprID{e.NewIdent(source.Span{}, ctx.Strings.Intern("T"))}, nil)

	ok := e.NewRequires(source.Span{}, []ast.ExprID{integral})
	if res := Evaluate(ctx, conceptBinding(ctx, TypeArg(bi.Int8)), ok); !res.Satisfied {
		t.Fatalf("requires { Integral(T) } with int8 must hold, got %+v", res)
	}

	// A requirement that failed to parse is stored as an invalid id and acts
	// as a false marker.
	broken := e.NewRequires(source.Span{}, []ast.ExprID{ast.NoExprID})
	res := Evaluate(ctx, conceptBinding(ctx, TypeArg(bi.Int8)), broken)
	if res.Satisfied {
		t.Fatal("ill-formed requirement must not be satisfied")
	}
}

func TestUnrecognizedShapeDefaultsSatisfied(t *testing.T) {
	ctx := newTestContext()
	bi := ctx.Catalog.Builtins()
	e := ctx.Builder.Exprs

	member := e.NewMember(source.Span{},
		e.NewIdent(source.Span{}, ctx.Strings.Intern("T")),
		ctx.Strings.Intern("anything"))
	if res := Evaluate(ctx, conceptBinding(ctx, TypeArg(bi.Int32)), member); !res.Satisfied {
		t.Fatalf("unmodeled predicate shapes must default to satisfied, got %+v", res)
	}
}
