package template

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/types"
)

// ReparseFunc asks the parser to re-parse a previously stored token range,
// materializing a deferred body now that parameters are bound.
type ReparseFunc func(r ast.TokenRange) (ast.StmtID, bool)

// Limits bounds the engine. MaxDepth counts recursive instantiations; going
// past it is a hard error, not unbounded growth.
type Limits struct {
	MaxDepth int
}

// DefaultLimits matches the manifest defaults.
func DefaultLimits() Limits {
	return Limits{MaxDepth: 256}
}

// Context is the whole mutable state of one compilation: declaration store,
// type catalog, generic registry, lazy registries, and the resolving stack.
// Independent compilations get independent contexts and never share state;
// within one context execution is single-threaded and re-entrant only
// through explicit recursion.
type Context struct {
	Builder  *ast.Builder
	Catalog  *types.Catalog
	Strings  *source.Interner
	Files    *source.FileSet
	Registry *Registry
	Lazy     *Scheduler
	Bag      *diag.Bag
	Report   *InstantiationReport
	Reparse  ReparseFunc
	Limits   Limits

	// PackSizes is the standalone pack-size table, the last resort of the
	// sizeof... lookup chain.
	PackSizes map[source.StringID]int

	depth        int
	resolving    []string
	resolvingSet map[string]struct{}
}

// NewContext builds an empty compilation context around a declaration store.
func NewContext(builder *ast.Builder, strs *source.Interner, files *source.FileSet, bag *diag.Bag) *Context {
	return &Context{
		Builder:      builder,
		Catalog:      types.NewCatalog(),
		Strings:      strs,
		Files:        files,
		Registry:     NewRegistry(),
		Lazy:         NewScheduler(),
		Bag:          bag,
		Report:       NewInstantiationReport(),
		Limits:       DefaultLimits(),
		PackSizes:    make(map[source.StringID]int),
		resolvingSet: make(map[string]struct{}),
	}
}

// enterResolve pushes label onto the in-progress stack. A label already on
// the stack is a cycle; a stack deeper than MaxDepth is runaway recursion.
// Both are hard errors.
func (ctx *Context) enterResolve(label string, span source.Span) *Failure {
	if _, ok := ctx.resolvingSet[label]; ok {
		return hardf(diag.TplCycleDetected, span, "cyclic instantiation of %s", label)
	}
	if ctx.depth >= ctx.Limits.MaxDepth {
		return hardf(diag.TplDepthExceeded, span,
			"maximum instantiation depth %d exceeded at %s", ctx.Limits.MaxDepth, label)
	}
	ctx.depth++
	ctx.resolving = append(ctx.resolving, label)
	ctx.resolvingSet[label] = struct{}{}
	return nil
}

func (ctx *Context) leaveResolve(label string) {
	if n := len(ctx.resolving); n > 0 && ctx.resolving[n-1] == label {
		ctx.resolving = ctx.resolving[:n-1]
	}
	delete(ctx.resolvingSet, label)
	ctx.depth--
}

// lookupName is a shorthand for rendering interned names in messages.
func (ctx *Context) lookupName(id source.StringID) string {
	s, _ := ctx.Strings.Lookup(id)
	return s
}

// ReportFailure forwards a failure to the bag as a diagnostic. Deferred
// failures are data, not diagnostics, and are skipped.
func (ctx *Context) ReportFailure(f *Failure) {
	if f == nil || f.Kind == FailDeferred || ctx.Bag == nil {
		return
	}
	d := diag.NewError(f.Code, f.Span, f.Message)
	if f.FailedRequirement != "" {
		d = d.WithNote(f.Span, "failed requirement: "+f.FailedRequirement)
	}
	if f.Suggestion != "" {
		d = d.WithNote(f.Span, f.Suggestion)
	}
	ctx.Bag.Add(d)
}

// builtinType maps a spelled name to a catalog builtin, if it is one.
func (ctx *Context) builtinType(name string) (types.TypeID, bool) {
	b := ctx.Catalog.Builtins()
	switch name {
	case "unit":
		return b.Unit, true
	case "bool":
		return b.Bool, true
	case "int":
		return b.Int, true
	case "int8":
		return b.Int8, true
	case "int16":
		return b.Int16, true
	case "int32":
		return b.Int32, true
	case "int64":
		return b.Int64, true
	case "uint":
		return b.Uint, true
	case "uint8":
		return b.Uint8, true
	case "uint16":
		return b.Uint16, true
	case "uint32":
		return b.Uint32, true
	case "uint64":
		return b.Uint64, true
	case "float32":
		return b.Float32, true
	case "float64":
		return b.Float64, true
	}
	return types.NoTypeID, false
}
