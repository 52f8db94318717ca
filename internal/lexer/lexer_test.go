package lexer

import (
	"testing"

	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/token"
)

func tokenize(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.vsp", []byte(src))
	bag := diag.NewBag(16)
	toks := Tokenize(fs.Get(id), diag.BagReporter{Bag: bag})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestTokenizeGenericHeader(t *testing.T) {
	toks, bag := tokenize(t, "type Pair<T, U> = { first: T; }")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}
	want := []token.Kind{
		token.KwType, token.Ident, token.Lt, token.Ident, token.Comma,
		token.Ident, token.Gt, token.Assign, token.LBrace, token.Ident,
		token.Colon, token.Ident, token.Semicolon, token.RBrace, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTokenizeEllipsisAndFold(t *testing.T) {
	toks, bag := tokenize(t, "(... + xs) sizeof...(Ts)")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}
	want := []token.Kind{
		token.LParen, token.Ellipsis, token.Plus, token.Ident, token.RParen,
		token.KwSizeof, token.Ellipsis, token.LParen, token.Ident, token.RParen,
		token.EOF,
	}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTokenizeOperators(t *testing.T) {
	toks, _ := tokenize(t, ":: -> <= >= == != && ||")
	want := []token.Kind{
		token.ColonColon, token.Arrow, token.LtEq, token.GtEq,
		token.EqEq, token.BangEq, token.AndAnd, token.OrOr, token.EOF,
	}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTokenizeComments(t *testing.T) {
	toks, bag := tokenize(t, "a // line\n/* block */ b")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}
	got := kinds(toks)
	want := []token.Kind{token.Ident, token.Ident, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
}

func TestTokenizeBadNumber(t *testing.T) {
	toks, bag := tokenize(t, "12ab")
	if bag.Len() == 0 {
		t.Fatalf("expected a diagnostic for malformed literal")
	}
	if toks[0].Kind != token.Invalid {
		t.Fatalf("first token = %v, want Invalid", toks[0].Kind)
	}
	if toks[0].Text != "12ab" {
		t.Fatalf("bad literal text = %q, want one merged token", toks[0].Text)
	}
}

func TestRangeLexer(t *testing.T) {
	fs := source.NewFileSet()
	src := "ignored { a + b } ignored"
	id := fs.AddVirtual("range.vsp", []byte(src))
	lx := NewRange(fs.Get(id), diag.NopReporter{}, 10, 15)

	var got []token.Kind
	for {
		tok := lx.Next()
		got = append(got, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	want := []token.Kind{token.Ident, token.Plus, token.Ident, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}
