// Package driver runs the per-file front-end pipeline: lex, parse, collect
// generic declarations, then instantiate every concrete use.
package driver

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/parser"
	"vesper/internal/source"
	"vesper/internal/template"
)

type Options struct {
	MaxDiagnostics int
	MaxDepth       int
}

func (o Options) normalized() Options {
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = 64
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = template.DefaultLimits().MaxDepth
	}
	return o
}

// Compilation is one file's pipeline result. Each compilation owns its
// context; nothing is shared across files.
type Compilation struct {
	Path    string
	FileID  source.FileID
	FileSet *source.FileSet
	Builder *ast.Builder
	Strings *source.Interner
	Bag     *diag.Bag
	Ctx     *template.Context
	Decls   []ast.DeclID
}

// CompileFile loads path into a fresh file set and compiles it.
func CompileFile(path string, opts Options) (*Compilation, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	c := CompileSource(fs, id, opts)
	c.Path = path
	return c, nil
}

// CompileSource runs the pipeline over an already-loaded file.
func CompileSource(fs *source.FileSet, id source.FileID, opts Options) *Compilation {
	opts = opts.normalized()
	builder := ast.NewBuilder()
	strs := source.NewInterner()
	bag := diag.NewBag(opts.MaxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}

	res := parser.ParseFile(fs.Get(id), builder, strs, parser.Options{
		MaxErrors: uint(opts.MaxDiagnostics),
		Reporter:  reporter,
	})

	ctx := template.NewContext(builder, strs, fs, bag)
	ctx.Limits = template.Limits{MaxDepth: opts.MaxDepth}
	ctx.Reparse = parser.ReparseBlock(fs, builder, strs, reporter)

	c := &Compilation{
		Path:    fs.Get(id).Path,
		FileID:  id,
		FileSet: fs,
		Builder: builder,
		Strings: strs,
		Bag:     bag,
		Ctx:     ctx,
		Decls:   res.Decls,
	}
	if bag.HasErrors() {
		// Instantiating over a broken tree only compounds the noise.
		return c
	}

	for _, declID := range res.Decls {
		if len(builder.Decls.ParamsOf(declID)) > 0 {
			ctx.Registry.Register(builder.Decls, declID)
			continue
		}
		if decl := builder.Decls.Get(declID); decl != nil && decl.Kind == ast.DeclConcept {
			ctx.Registry.Register(builder.Decls, declID)
		}
	}
	expandRoots(c)
	return c
}

// expandRoots walks every non-generic declaration and instantiates the
// generic uses it mentions. These are the instantiation roots; everything
// else happens on demand inside the engine.
func expandRoots(c *Compilation) {
	w := &rootWalker{c: c, binding: emptyBinding(c.Ctx)}
	for _, declID := range c.Decls {
		if len(c.Builder.Decls.ParamsOf(declID)) > 0 {
			continue
		}
		w.decl(declID)
	}
}

func emptyBinding(ctx *template.Context) *template.Binding {
	b, _ := template.NewBinding(ctx.Builder.Decls, ast.NoDeclID, nil, nil, source.Span{})
	return b
}
