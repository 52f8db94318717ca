package diag

import (
	"testing"

	"vesper/internal/source"
)

func TestBagCapacity(t *testing.T) {
	b := NewBag(2)
	for i := 0; i < 3; i++ {
		added := b.Add(NewError(TplUnknownName, source.Span{Start: uint32(i)}, "x"))
		if i < 2 && !added {
			t.Fatalf("Add #%d rejected below capacity", i)
		}
		if i == 2 && added {
			t.Fatalf("Add #%d accepted above capacity", i)
		}
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
}

func TestBagSortDeterministic(t *testing.T) {
	b := NewBag(8)
	b.Add(New(SevWarning, SynUnexpectedToken, source.Span{File: 1, Start: 5, End: 6}, "w"))
	b.Add(New(SevError, TplCycleDetected, source.Span{File: 1, Start: 5, End: 6}, "e"))
	b.Add(New(SevError, LexUnknownChar, source.Span{File: 1, Start: 1, End: 2}, "a"))
	b.Sort()

	items := b.Items()
	if items[0].Code != LexUnknownChar {
		t.Fatalf("first after sort = %v", items[0].Code)
	}
	// Same span: error sorts ahead of warning.
	if items[1].Severity != SevError || items[2].Severity != SevWarning {
		t.Fatalf("severity order wrong: %v then %v", items[1].Severity, items[2].Severity)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(8)
	sp := source.Span{File: 1, Start: 3, End: 9}
	b.Add(NewError(TplSubstFailed, sp, "first"))
	b.Add(NewError(TplSubstFailed, sp, "second"))
	b.Add(NewError(TplSubstFailed, source.Span{File: 1, Start: 4, End: 9}, "third"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("Dedup left %d items, want 2", b.Len())
	}
}

func TestCodeString(t *testing.T) {
	cases := map[Code]string{
		UnknownCode:        "VSP0000",
		LexBadNumber:       "LEX0002",
		SynUnexpectedToken: "SYN0001",
		TplDepthExceeded:   "TPL0007",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Fatalf("Code(%d).String() = %q, want %q", code, got, want)
		}
	}
}
