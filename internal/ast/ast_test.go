package ast

import (
	"testing"

	"vesper/internal/source"
)

func TestArenaIsOneBased(t *testing.T) {
	a := NewArena[int](4)
	if got := a.Get(0); got != nil {
		t.Fatalf("Get(0) = %v, want nil sentinel", got)
	}
	idx := a.Allocate(42)
	if idx != 1 {
		t.Fatalf("first Allocate = %d, want 1", idx)
	}
	if got := a.Get(idx); got == nil || *got != 42 {
		t.Fatalf("Get(%d) = %v", idx, got)
	}
	if got := a.Get(99); got != nil {
		t.Fatalf("out-of-range Get = %v, want nil", got)
	}
}

func TestArenaIndicesStableAcrossGrowth(t *testing.T) {
	a := NewArena[int](1)
	first := a.Allocate(10)
	for i := 0; i < 100; i++ {
		a.Allocate(i)
	}
	if got := a.Get(first); got == nil || *got != 10 {
		t.Fatalf("index %d no longer resolves to original value", first)
	}
}

func TestExprRoundTrip(t *testing.T) {
	b := NewBuilder()
	strs := source.NewInterner()

	name := strs.Intern("T")
	id := b.Exprs.NewIdent(source.Span{Start: 1, End: 2}, name)
	lit := b.Exprs.NewIntLit(source.Span{Start: 3, End: 4}, 7)
	bin := b.Exprs.NewBinary(source.Span{Start: 1, End: 4}, BinAdd, id, lit)

	data, ok := b.Exprs.Binary(bin)
	if !ok {
		t.Fatalf("Binary(%d) not found", bin)
	}
	if data.Op != BinAdd || data.Left != id || data.Right != lit {
		t.Fatalf("binary payload = %+v", data)
	}
	if _, ok := b.Exprs.Ident(bin); ok {
		t.Fatalf("kind-mismatched accessor should fail")
	}
	identData, ok := b.Exprs.Ident(id)
	if !ok || identData.Name != name {
		t.Fatalf("ident payload = %+v, %v", identData, ok)
	}
}

func TestTypeExprDeco(t *testing.T) {
	b := NewBuilder()
	strs := source.NewInterner()

	deco := Deco{PtrDepth: 1, Const: true}
	id := b.Types.NewName(source.Span{}, strs.Intern("T"), nil, deco)
	te := b.Types.Get(id)
	if te == nil || te.Deco != deco {
		t.Fatalf("deco lost: %+v", te)
	}
	if te.Deco.None() {
		t.Fatalf("Deco.None() = true for decorated type")
	}
	plain := b.Types.NewName(source.Span{}, strs.Intern("U"), nil, Deco{})
	if !b.Types.Get(plain).Deco.None() {
		t.Fatalf("Deco.None() = false for plain type")
	}
}

func TestDeclNameAndParams(t *testing.T) {
	b := NewBuilder()
	strs := source.NewInterner()

	p := b.Decls.NewParam(TypeParam{Kind: ParamType, Name: strs.Intern("T")})
	declID := b.Decls.NewStruct(source.Span{}, DeclStructData{
		Name:   strs.Intern("Box"),
		Params: []ParamID{p},
	})

	if got := b.Decls.Name(declID); got != strs.Intern("Box") {
		t.Fatalf("Name = %d", got)
	}
	params := b.Decls.ParamsOf(declID)
	if len(params) != 1 || params[0] != p {
		t.Fatalf("ParamsOf = %v", params)
	}
}
