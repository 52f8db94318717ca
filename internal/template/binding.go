package template

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
)

// Binding pairs a generic declaration's ordered parameter list with the
// concrete arguments of one instantiation. A trailing variadic parameter
// absorbs every argument past the fixed ones.
type Binding struct {
	Owner  ast.DeclID
	Params []ast.ParamID
	Args   []Argument

	decls *ast.Decls

	// packs maps a variadic parameter's name to its collected arguments.
	packs map[source.StringID][]Argument
	// indexed holds name_i bindings materialized by pack expansion, so a
	// later lookup of `xs_2` resolves without re-expansion.
	indexed map[source.StringID]Argument

	// Enclosing chains to the binding of an outer generic whose members are
	// being instantiated; nil at top level. Name lookups that miss here fall
	// through to it, with local parameters shadowing outer ones.
	Enclosing *Binding
	// UnboundOuter lists parameter names of a generic context that has not
	// been instantiated yet. References to them substitute to themselves and
	// resolve later.
	UnboundOuter []source.StringID
}

// NewBinding checks arity, applies defaults, and collects the trailing pack.
func NewBinding(decls *ast.Decls, owner ast.DeclID, params []ast.ParamID, args []Argument, span source.Span) (*Binding, *Failure) {
	fixed := len(params)
	variadic := false
	var packName source.StringID
	if n := len(params); n > 0 {
		if last := decls.Param(params[n-1]); last != nil && last.Variadic {
			variadic = true
			packName = last.Name
			fixed = n - 1
		}
	}

	if len(args) < fixed {
		// Defaults may cover the tail.
		padded := make([]Argument, 0, fixed)
		padded = append(padded, args...)
		for i := len(args); i < fixed; i++ {
			p := decls.Param(params[i])
			if p == nil || (!p.DefaultType.IsValid() && !p.DefaultExpr.IsValid()) {
				return nil, softf(diag.TplArityMismatch, span,
					"expected %d argument(s), got %d", fixed, len(args))
			}
			// The caller resolves default expressions before binding; an
			// unresolved default at this point is an engine bug, surfaced
			// as a soft arity failure rather than a panic.
			return nil, softf(diag.TplArityMismatch, span,
				"default for parameter %d not resolved", i)
		}
		args = padded
	}
	if len(args) > fixed && !variadic {
		return nil, softf(diag.TplArityMismatch, span,
			"expected %d argument(s), got %d", fixed, len(args))
	}

	b := &Binding{
		Owner:   owner,
		Params:  params,
		Args:    args,
		decls:   decls,
		indexed: make(map[source.StringID]Argument),
	}
	if variadic {
		tail := append([]Argument(nil), args[fixed:]...)
		for i := range tail {
			tail[i].IsPack = true
		}
		b.packs = map[source.StringID][]Argument{packName: tail}
	}
	return b, nil
}

// Param returns the declared parameter at position i.
func (b *Binding) Param(i int) *ast.TypeParam {
	if b == nil || i < 0 || i >= len(b.Params) {
		return nil
	}
	return b.decls.Param(b.Params[i])
}

// ParamIndex finds the position of a parameter by name, or -1.
func (b *Binding) ParamIndex(name source.StringID) int {
	if b == nil {
		return -1
	}
	for i := range b.Params {
		if p := b.decls.Param(b.Params[i]); p != nil && p.Name == name {
			return i
		}
	}
	return -1
}

// Lookup resolves a parameter name: fixed parameters map to their argument,
// indexed pack elements resolve through the pack tables, and misses fall
// through the enclosing chain so a member sees its class's parameters. A name
// declared at an inner level shadows any outer spelling, even when it does
// not denote a single argument (the bare pack name).
func (b *Binding) Lookup(name source.StringID) (Argument, bool) {
	for cur := b; cur != nil; cur = cur.Enclosing {
		if arg, ok := cur.indexed[name]; ok {
			return arg, true
		}
		idx := cur.ParamIndex(name)
		if idx < 0 {
			continue
		}
		if p := cur.decls.Param(cur.Params[idx]); p != nil && p.Variadic {
			return Argument{}, false
		}
		if idx >= len(cur.Args) {
			return Argument{}, false
		}
		return cur.Args[idx], true
	}
	return Argument{}, false
}

// DeclaredParam finds the declaring parameter of name along the enclosing
// chain.
func (b *Binding) DeclaredParam(name source.StringID) *ast.TypeParam {
	for cur := b; cur != nil; cur = cur.Enclosing {
		if idx := cur.ParamIndex(name); idx >= 0 {
			return cur.Param(idx)
		}
	}
	return nil
}

// Pack returns the collected arguments of a variadic parameter, walking the
// enclosing chain. A fixed parameter of the same spelling at an inner level
// shadows an outer pack.
func (b *Binding) Pack(name source.StringID) ([]Argument, bool) {
	for cur := b; cur != nil; cur = cur.Enclosing {
		if cur.packs != nil {
			if args, ok := cur.packs[name]; ok {
				return args, true
			}
		}
		if cur.ParamIndex(name) >= 0 {
			return nil, false
		}
	}
	return nil, false
}

// BindIndexed materializes one name_i element so later lookups hit it
// directly.
func (b *Binding) BindIndexed(name source.StringID, arg Argument) {
	if b.indexed == nil {
		b.indexed = make(map[source.StringID]Argument)
	}
	arg.IsPack = true
	b.indexed[name] = arg
}

// IndexedCount counts already-materialized name_0..name_k-1 bindings for the
// given pack, using the interner to form the indexed spellings.
func (b *Binding) IndexedCount(name source.StringID, strs *source.Interner) int {
	if b == nil || len(b.indexed) == 0 {
		return 0
	}
	base, ok := strs.Lookup(name)
	if !ok {
		return 0
	}
	count := 0
	for {
		id := strs.Intern(indexedName(base, count))
		if arg, ok := b.indexed[id]; !ok || !arg.IsPack {
			return count
		}
		count++
	}
}

// IsUnboundOuter reports whether name belongs to an enclosing generic context
// that is not bound yet. Such references are returned unchanged by the
// substitution engine.
func (b *Binding) IsUnboundOuter(name source.StringID) bool {
	for cur := b; cur != nil; cur = cur.Enclosing {
		for _, n := range cur.UnboundOuter {
			if n == name {
				return true
			}
		}
	}
	return false
}
