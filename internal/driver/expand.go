package driver

import (
	"vesper/internal/ast"
	"vesper/internal/template"
)

// rootWalker visits the trees of non-generic declarations and resolves every
// generic use it finds. Failures at a root are real errors: there is no
// enclosing substitution to absorb a soft failure.
type rootWalker struct {
	c       *Compilation
	binding *template.Binding
}

func (w *rootWalker) fail(f *template.Failure) {
	w.c.Ctx.ReportFailure(f)
}

func (w *rootWalker) decl(id ast.DeclID) {
	decls := w.c.Builder.Decls
	decl := decls.Get(id)
	if decl == nil {
		return
	}
	switch decl.Kind {
	case ast.DeclAlias:
		if data, ok := decls.Alias(id); ok {
			w.typ(data.Target)
		}
	case ast.DeclStruct:
		if data, ok := decls.Struct(id); ok {
			for _, fieldID := range data.Fields {
				if field := decls.Field(fieldID); field != nil {
					w.typ(field.Type)
				}
			}
			for _, member := range data.Methods {
				w.decl(member)
			}
			for _, member := range data.Statics {
				w.decl(member)
			}
		}
	case ast.DeclConst:
		if data, ok := decls.Const(id); ok {
			if data.Type.IsValid() {
				w.typ(data.Type)
			}
			if _, f := template.EvalConst(w.c.Ctx, w.binding, data.Value); f != nil {
				w.fail(f)
			}
		}
	case ast.DeclFn:
		if data, ok := decls.Fn(id); ok {
			for _, p := range data.FnParams {
				w.typ(p.Type)
			}
			if data.Result.IsValid() {
				w.typ(data.Result)
			}
			if data.Body.IsValid() {
				w.stmt(data.Body)
			}
		}
	}
}

func (w *rootWalker) typ(id ast.TypeID) {
	if !id.IsValid() {
		return
	}
	if _, f := template.ResolveType(w.c.Ctx, w.binding, id); f != nil {
		w.fail(f)
	}
}

func (w *rootWalker) stmt(id ast.StmtID) {
	stmts := w.c.Builder.Stmts
	s := stmts.Get(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtLet:
		if data, ok := stmts.Let(id); ok {
			if data.Type.IsValid() {
				w.typ(data.Type)
			}
			w.expr(data.Value)
		}
	case ast.StmtReturn:
		if data, ok := stmts.Return(id); ok && data.Value.IsValid() {
			w.expr(data.Value)
		}
	case ast.StmtExpr:
		if data, ok := stmts.Expr(id); ok {
			w.expr(data.Expr)
		}
	case ast.StmtIf:
		if data, ok := stmts.If(id); ok {
			w.expr(data.Cond)
			w.stmt(data.Then)
			if data.Else.IsValid() {
				w.stmt(data.Else)
			}
		}
	case ast.StmtBlock:
		if data, ok := stmts.Block(id); ok {
			for _, sub := range data.Stmts {
				w.stmt(sub)
			}
		}
	}
}

func (w *rootWalker) expr(id ast.ExprID) {
	if !id.IsValid() {
		return
	}
	exprs := w.c.Builder.Exprs
	e := exprs.Get(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprUnary:
		if data, ok := exprs.Unary(id); ok {
			w.expr(data.Operand)
		}
	case ast.ExprBinary:
		if data, ok := exprs.Binary(id); ok {
			w.expr(data.Left)
			w.expr(data.Right)
		}
	case ast.ExprCall:
		w.call(id)
	case ast.ExprMember:
		if data, ok := exprs.Member(id); ok {
			w.expr(data.Target)
		}
	case ast.ExprIndex:
		if data, ok := exprs.Index(id); ok {
			w.expr(data.Target)
			w.expr(data.Index)
		}
	case ast.ExprCast:
		if data, ok := exprs.Cast(id); ok {
			w.typ(data.Type)
			w.expr(data.Value)
		}
	case ast.ExprSizeof:
		if data, ok := exprs.Sizeof(id); ok {
			w.typ(data.Type)
		}
	}
}

// call instantiates explicit generic calls, callee::<args>(...). Plain calls
// only walk their operands; nothing forces an instantiation there.
func (w *rootWalker) call(id ast.ExprID) {
	exprs := w.c.Builder.Exprs
	data, ok := exprs.Call(id)
	if !ok {
		return
	}
	for _, arg := range data.Args {
		w.expr(arg)
	}
	if len(data.GenericArgs) == 0 {
		w.expr(data.Callee)
		return
	}
	callee, ok := exprs.Ident(data.Callee)
	if !ok {
		w.expr(data.Callee)
		return
	}
	ctx := w.c.Ctx
	span := exprs.Span(id)
	primary, ok := ctx.Registry.Lookup(callee.Name)
	if !ok {
		w.fail(template.UnknownNameFailure(ctx, callee.Name, span))
		return
	}
	args, f := template.ResolveGenericArgs(ctx, w.binding,
		ctx.Builder.Decls.ParamsOf(primary), data.GenericArgs, span)
	if f != nil {
		w.fail(f)
		return
	}
	if decl := ctx.Builder.Decls.Get(primary); decl != nil && decl.Kind == ast.DeclFn {
		if _, f := template.SelectOverload(ctx, callee.Name, args, span); f != nil {
			w.fail(f)
		}
		return
	}
	if _, f := template.ResolveName(ctx, callee.Name, args, span); f != nil {
		w.fail(f)
	}
}
