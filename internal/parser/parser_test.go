package parser

import (
	"testing"

	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
)

type parseFixture struct {
	fs   *source.FileSet
	b    *ast.Builder
	strs *source.Interner
	bag  *diag.Bag
	res  Result
}

func parseSrc(t *testing.T, src string) parseFixture {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.vsp", []byte(src))
	b := ast.NewBuilder()
	strs := source.NewInterner()
	bag := diag.NewBag(16)
	res := ParseFile(fs.Get(id), b, strs, Options{
		MaxErrors: 10,
		Reporter:  diag.BagReporter{Bag: bag},
	})
	return parseFixture{fs: fs, b: b, strs: strs, bag: bag, res: res}
}

func (f parseFixture) mustClean(t *testing.T) {
	t.Helper()
	if f.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", f.bag.Items())
	}
}

func (f parseFixture) name(id source.StringID) string {
	s, _ := f.strs.Lookup(id)
	return s
}

func TestParseStructDecl(t *testing.T) {
	f := parseSrc(t, `
type Pair<T, U> = {
    first: T;
    second: U;
}
`)
	f.mustClean(t)
	if len(f.res.Decls) != 1 {
		t.Fatalf("decl count = %d, want 1", len(f.res.Decls))
	}
	data, ok := f.b.Decls.Struct(f.res.Decls[0])
	if !ok {
		t.Fatalf("expected a struct decl")
	}
	if got := f.name(data.Name); got != "Pair" {
		t.Fatalf("name = %q, want Pair", got)
	}
	if len(data.Params) != 2 || len(data.Fields) != 2 {
		t.Fatalf("params = %d fields = %d, want 2 and 2", len(data.Params), len(data.Fields))
	}
	second := f.b.Decls.Field(data.Fields[1])
	if got := f.name(second.Name); got != "second" {
		t.Fatalf("field name = %q, want second", got)
	}
}

func TestParseAliasWithDecorations(t *testing.T) {
	f := parseSrc(t, `type Buf<T> = const *T[16];`)
	f.mustClean(t)
	data, ok := f.b.Decls.Alias(f.res.Decls[0])
	if !ok {
		t.Fatalf("expected an alias decl")
	}
	te := f.b.Types.Get(data.Target)
	if te == nil || te.Kind != ast.TypeName {
		t.Fatalf("expected a named target type")
	}
	if !te.Deco.Const || te.Deco.PtrDepth != 1 || !te.Deco.IsArray {
		t.Fatalf("deco = %+v, want const *[...]", te.Deco)
	}
	length, ok := f.b.Exprs.IntLit(te.Deco.ArrayLen)
	if !ok || length.Value != 16 {
		t.Fatalf("array length not the literal 16")
	}
}

func TestParseValueParamWithDefault(t *testing.T) {
	f := parseSrc(t, `type Vec<T, const N: int32 = 4> = { data: T[N]; }`)
	f.mustClean(t)
	data, _ := f.b.Decls.Struct(f.res.Decls[0])
	if len(data.Params) != 2 {
		t.Fatalf("params = %d, want 2", len(data.Params))
	}
	n := f.b.Decls.Param(data.Params[1])
	if n.Kind != ast.ParamValue {
		t.Fatalf("second param kind = %v, want value", n.Kind)
	}
	if !n.ValueType.IsValid() || !n.DefaultExpr.IsValid() {
		t.Fatalf("value param missing declared type or default")
	}
	def, ok := f.b.Exprs.IntLit(n.DefaultExpr)
	if !ok || def.Value != 4 {
		t.Fatalf("default not the literal 4")
	}
}

func TestParseVariadicParamAndPackType(t *testing.T) {
	f := parseSrc(t, `type Tuple<Ts...> = { head: Ts...; }`)
	f.mustClean(t)
	data, _ := f.b.Decls.Struct(f.res.Decls[0])
	param := f.b.Decls.Param(data.Params[0])
	if !param.Variadic {
		t.Fatalf("expected a variadic parameter")
	}
	field := f.b.Decls.Field(data.Fields[0])
	te := f.b.Types.Get(field.Type)
	if te == nil || te.Kind != ast.TypePack {
		t.Fatalf("field type kind = %v, want pack", te.Kind)
	}
}

func TestParseConceptAndWhere(t *testing.T) {
	f := parseSrc(t, `
concept Integral<T> = is_integral(T);
fn sum<T>(a: T, b: T) -> T where Integral(T) { return a + b; }
`)
	f.mustClean(t)
	if len(f.res.Decls) != 2 {
		t.Fatalf("decl count = %d, want 2", len(f.res.Decls))
	}
	concept, ok := f.b.Decls.Concept(f.res.Decls[0])
	if !ok || !concept.Pred.IsValid() {
		t.Fatalf("concept predicate missing")
	}
	fn, ok := f.b.Decls.Fn(f.res.Decls[1])
	if !ok {
		t.Fatalf("expected a fn decl")
	}
	if !fn.Where.IsValid() {
		t.Fatalf("where clause missing")
	}
	if fn.Body.IsValid() {
		t.Fatalf("generic body should be deferred, not parsed")
	}
	if !fn.BodyRange.IsValid() {
		t.Fatalf("deferred body range missing")
	}
}

func TestParseNonGenericFnBodyIsEager(t *testing.T) {
	f := parseSrc(t, `fn three() -> int32 { let x = 1; return x + 2; }`)
	f.mustClean(t)
	fn, _ := f.b.Decls.Fn(f.res.Decls[0])
	if !fn.Body.IsValid() || fn.BodyRange.IsValid() {
		t.Fatalf("non-generic body should be parsed eagerly")
	}
	block, ok := f.b.Stmts.Block(fn.Body)
	if !ok || len(block.Stmts) != 2 {
		t.Fatalf("body should hold two statements")
	}
	if _, ok := f.b.Stmts.Let(block.Stmts[0]); !ok {
		t.Fatalf("first statement should be a let")
	}
}

func TestReparseDeferredBody(t *testing.T) {
	f := parseSrc(t, `fn id<T>(x: T) -> T { return x; }`)
	f.mustClean(t)
	fn, _ := f.b.Decls.Fn(f.res.Decls[0])
	reparse := ReparseBlock(f.fs, f.b, f.strs, diag.BagReporter{Bag: f.bag})
	body, ok := reparse(fn.BodyRange)
	if !ok {
		t.Fatalf("reparse failed: %v", f.bag.Items())
	}
	block, ok := f.b.Stmts.Block(body)
	if !ok || len(block.Stmts) != 1 {
		t.Fatalf("reparsed body should hold one statement")
	}
	if _, ok := f.b.Stmts.Return(block.Stmts[0]); !ok {
		t.Fatalf("reparsed statement should be a return")
	}
}

func TestParseFoldForms(t *testing.T) {
	cases := []struct {
		src   string
		op    ast.BinaryOp
		right bool
		seed  bool
	}{
		{`(xs + ...)`, ast.BinAdd, true, false},
		{`(... + xs)`, ast.BinAdd, false, false},
		{`(xs && ... && true)`, ast.BinLAnd, true, true},
		{`(xs, ...)`, ast.BinComma, true, false},
	}
	for _, tc := range cases {
		f := parseSrc(t, `const all<Ts...>: bool = `+tc.src+`;`)
		f.mustClean(t)
		data, _ := f.b.Decls.Const(f.res.Decls[0])
		fold, ok := f.b.Exprs.Fold(data.Value)
		if !ok {
			t.Fatalf("%s: expected a fold", tc.src)
		}
		if fold.Op != tc.op || fold.Right != tc.right {
			t.Fatalf("%s: op=%v right=%v, want op=%v right=%v",
				tc.src, fold.Op, fold.Right, tc.op, tc.right)
		}
		if fold.Seed.IsValid() != tc.seed {
			t.Fatalf("%s: seed presence = %v, want %v", tc.src, fold.Seed.IsValid(), tc.seed)
		}
	}
}

func TestParseFoldOperatorMismatch(t *testing.T) {
	f := parseSrc(t, `const bad<Ts...>: int32 = (xs + ... - 1);`)
	if f.bag.Len() == 0 {
		t.Fatalf("expected a fold diagnostic")
	}
}

func TestParseSizeofForms(t *testing.T) {
	f := parseSrc(t, `const n<Ts...>: int32 = sizeof...(Ts) + sizeof(int64);`)
	f.mustClean(t)
	data, _ := f.b.Decls.Const(f.res.Decls[0])
	bin, ok := f.b.Exprs.Binary(data.Value)
	if !ok || bin.Op != ast.BinAdd {
		t.Fatalf("expected an addition at the top")
	}
	if _, ok := f.b.Exprs.SizeofPack(bin.Left); !ok {
		t.Fatalf("left operand should be sizeof...")
	}
	if _, ok := f.b.Exprs.Sizeof(bin.Right); !ok {
		t.Fatalf("right operand should be sizeof")
	}
}

func TestParseRequiresBlockKeepsBadRequirement(t *testing.T) {
	f := parseSrc(t, `concept C<T> = requires { is_integral(T); + ; };`)
	if f.bag.Len() == 0 {
		t.Fatalf("expected a diagnostic for the bad requirement")
	}
	concept, ok := f.b.Decls.Concept(f.res.Decls[0])
	if !ok {
		t.Fatalf("concept should survive the bad requirement")
	}
	reqs, ok := f.b.Exprs.RequiresBlock(concept.Pred)
	if !ok || len(reqs.Reqs) != 2 {
		t.Fatalf("requires block should hold two entries")
	}
	if !reqs.Reqs[0].IsValid() || reqs.Reqs[1].IsValid() {
		t.Fatalf("second entry should be the invalid marker")
	}
}

func TestParseQualifiedTypeChain(t *testing.T) {
	f := parseSrc(t, `type E<T> = Box<T>::inner::elem;`)
	f.mustClean(t)
	data, _ := f.b.Decls.Alias(f.res.Decls[0])
	outer, ok := f.b.Types.Qualified(data.Target)
	if !ok {
		t.Fatalf("target should be a qualified type")
	}
	if got := f.name(outer.Member); got != "elem" {
		t.Fatalf("outer member = %q, want elem", got)
	}
	inner, ok := f.b.Types.Qualified(outer.Base)
	if !ok || f.name(inner.Member) != "inner" {
		t.Fatalf("inner qualifier should name inner")
	}
	base, ok := f.b.Types.Name(inner.Base)
	if !ok || f.name(base.Name) != "Box" || len(base.Args) != 1 {
		t.Fatalf("base should be Box with one argument")
	}
}

func TestParseAmbiguousGenericArg(t *testing.T) {
	f := parseSrc(t, `type A<T> = Box<T, 4, int32>;`)
	f.mustClean(t)
	data, _ := f.b.Decls.Alias(f.res.Decls[0])
	base, _ := f.b.Types.Name(data.Target)
	if len(base.Args) != 3 {
		t.Fatalf("arg count = %d, want 3", len(base.Args))
	}
	if !base.Args[0].Ambiguous || !base.Args[0].Type.IsValid() || !base.Args[0].Expr.IsValid() {
		t.Fatalf("bare identifier should be recorded ambiguously")
	}
	if base.Args[1].Ambiguous || base.Args[1].Type.IsValid() || !base.Args[1].Expr.IsValid() {
		t.Fatalf("literal should be a plain value argument")
	}
	if !base.Args[2].Ambiguous {
		t.Fatalf("int32 is still just an identifier to the parser")
	}
}

func TestParseTurbofishCall(t *testing.T) {
	f := parseSrc(t, `fn use_it() -> int32 { return pick::<int64, 3>(1, 2); }`)
	f.mustClean(t)
	fn, _ := f.b.Decls.Fn(f.res.Decls[0])
	block, _ := f.b.Stmts.Block(fn.Body)
	ret, _ := f.b.Stmts.Return(block.Stmts[0])
	call, ok := f.b.Exprs.Call(ret.Value)
	if !ok {
		t.Fatalf("expected a call")
	}
	if len(call.GenericArgs) != 2 || len(call.Args) != 2 {
		t.Fatalf("generic args = %d args = %d, want 2 and 2",
			len(call.GenericArgs), len(call.Args))
	}
}

func TestParseIfConstStmt(t *testing.T) {
	f := parseSrc(t, `fn f() -> int32 { if const true { return 1; } else { return 2; } }`)
	f.mustClean(t)
	fn, _ := f.b.Decls.Fn(f.res.Decls[0])
	block, _ := f.b.Stmts.Block(fn.Body)
	ifs, ok := f.b.Stmts.If(block.Stmts[0])
	if !ok || !ifs.Const {
		t.Fatalf("expected an if const statement")
	}
	if !ifs.Then.IsValid() || !ifs.Else.IsValid() {
		t.Fatalf("both branches should be present")
	}
}

func TestParseRecoversAtTopLevel(t *testing.T) {
	f := parseSrc(t, `
type Bad<T> = ;
type Good<T> = *T;
`)
	if f.bag.Len() == 0 {
		t.Fatalf("expected a diagnostic for the bad alias")
	}
	found := false
	for _, id := range f.res.Decls {
		if data, ok := f.b.Decls.Alias(id); ok && f.name(data.Name) == "Good" {
			found = true
		}
	}
	if !found {
		t.Fatalf("parser should recover and keep the following declaration")
	}
}

func TestParsePrecedence(t *testing.T) {
	f := parseSrc(t, `fn f() -> int32 { return 1 + 2 * 3 == 7 && true; }`)
	f.mustClean(t)
	fn, _ := f.b.Decls.Fn(f.res.Decls[0])
	block, _ := f.b.Stmts.Block(fn.Body)
	ret, _ := f.b.Stmts.Return(block.Stmts[0])
	and, ok := f.b.Exprs.Binary(ret.Value)
	if !ok || and.Op != ast.BinLAnd {
		t.Fatalf("top operator should be &&")
	}
	eq, ok := f.b.Exprs.Binary(and.Left)
	if !ok || eq.Op != ast.BinEq {
		t.Fatalf("left of && should be ==")
	}
	add, ok := f.b.Exprs.Binary(eq.Left)
	if !ok || add.Op != ast.BinAdd {
		t.Fatalf("left of == should be +")
	}
	mul, ok := f.b.Exprs.Binary(add.Right)
	if !ok || mul.Op != ast.BinMul {
		t.Fatalf("right of + should be *")
	}
}
