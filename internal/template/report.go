package template

import (
	"sort"

	"vesper/internal/source"
)

// InstKind identifies the kind of entity an instantiation produced.
type InstKind uint8

const (
	// InstStruct is a struct instantiation.
	InstStruct InstKind = iota
	// InstAlias is an alias instantiation.
	InstAlias
	// InstFn is a function instantiation.
	InstFn
	// InstConst is a constant instantiation.
	InstConst
)

func (k InstKind) String() string {
	switch k {
	case InstStruct:
		return "struct"
	case InstAlias:
		return "alias"
	case InstFn:
		return "fn"
	case InstConst:
		return "const"
	}
	return "InstKind(?)"
}

// UseSite records one location where an instantiation was requested.
type UseSite struct {
	Span source.Span
	Note string
}

// InstEntry captures all uses of one instantiation.
type InstEntry struct {
	Kind     InstKind
	Mangled  string
	UseSites []UseSite
}

// InstantiationReport accumulates every instantiation performed during a
// compile, keyed by mangled name, for the driver's report artifact.
type InstantiationReport struct {
	entries map[string]*InstEntry
}

func NewInstantiationReport() *InstantiationReport {
	return &InstantiationReport{entries: make(map[string]*InstEntry)}
}

// Note registers an instantiation at a specific site. Duplicate use sites
// for the same mangled name are dropped.
func (r *InstantiationReport) Note(kind InstKind, mangled string, site source.Span, note string) {
	if r == nil || mangled == "" {
		return
	}
	entry := r.entries[mangled]
	if entry == nil {
		entry = &InstEntry{Kind: kind, Mangled: mangled}
		r.entries[mangled] = entry
	}
	if site != (source.Span{}) {
		us := UseSite{Span: site, Note: note}
		for _, existing := range entry.UseSites {
			if existing == us {
				return
			}
		}
		entry.UseSites = append(entry.UseSites, us)
	}
}

// Entries returns all entries ordered by mangled name for deterministic
// output.
func (r *InstantiationReport) Entries() []*InstEntry {
	if r == nil {
		return nil
	}
	out := make([]*InstEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mangled < out[j].Mangled })
	return out
}

// Len reports the number of distinct instantiations recorded.
func (r *InstantiationReport) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}
