package ast

// Builder owns every arena of one compilation's syntax trees. All nodes are
// reachable only through the builder; nothing holds a Go pointer into an
// arena across an allocation.
type Builder struct {
	Exprs *Exprs
	Stmts *Stmts
	Types *TypeExprs
	Decls *Decls
}

func NewBuilder() *Builder {
	return &Builder{
		Exprs: NewExprs(0),
		Stmts: NewStmts(0),
		Types: NewTypeExprs(0),
		Decls: NewDecls(0),
	}
}
