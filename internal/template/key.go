package template

import (
	"fmt"
	"strings"

	"vesper/internal/source"
)

// Key is the deterministic identity of one instantiation: the generic's name
// plus the rendered, ordered argument list. Equal argument lists always
// render to equal keys, which is what enables dedup, and the rendered form
// doubles as the externally visible mangled identity of the produced entity.
type Key struct {
	Name source.StringID
	Args string
}

// KeyFor computes the instantiation key for (name, args).
func KeyFor(ctx *Context, name source.StringID, args []Argument) Key {
	if len(args) == 0 {
		return Key{Name: name}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.keyPart(ctx)
	}
	return Key{Name: name, Args: strings.Join(parts, ",")}
}

// Mangled renders the key as the concrete entity's display/mangled name.
func (k Key) Mangled(strs *source.Interner) string {
	base, _ := strs.Lookup(k.Name)
	if k.Args == "" {
		return base
	}
	return fmt.Sprintf("%s<%s>", base, k.Args)
}

// indexedName forms the spelling of one expanded pack element.
func indexedName(base string, i int) string {
	return fmt.Sprintf("%s_%d", base, i)
}

// normalizeMemberName strips enclosing-scope qualification so qualified and
// unqualified references to the same member collide on one cache entry:
// "Box<int32>::get" and "get" share a key.
func normalizeMemberName(name string) string {
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		return name[idx+2:]
	}
	return name
}
