package ast

import (
	"vesper/internal/source"
)

// TypeKind enumerates syntactic type-expression shapes.
type TypeKind uint8

const (
	// TypeName is an identifier, optionally with generic arguments.
	TypeName TypeKind = iota
	// TypeQualified is a dependent member reference: Base::Member<...>.
	TypeQualified
	// TypePack is a pack expansion: Elem... .
	TypePack
)

// RefKind describes the reference decoration written at a use site.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefShared
	RefMut
)

// Deco carries the pointer/reference/qualifier decorations written at the use
// site. During substitution these are re-applied on top of whatever the bound
// argument carries, so `*T` with T=int32 is pointer-to-int32 and never
// inherits pointer-ness from the argument itself.
type Deco struct {
	PtrDepth uint8
	Ref      RefKind
	Const    bool
	Volatile bool
	// ArrayLen holds the length expression of a trailing [N]; NoExprID when
	// the type is not an array.
	ArrayLen ExprID
	IsArray  bool
}

// None reports whether no decoration was written.
func (d Deco) None() bool {
	return d.PtrDepth == 0 && d.Ref == RefNone && !d.Const && !d.Volatile && !d.IsArray
}

// GenericArg is one syntactic argument of a generic application. Exactly one
// of Type/Expr is valid; the parser cannot always tell which (a bare
// identifier may be a type or a value), so Ambiguous marks args to resolve
// against the parameter kind during substitution.
type GenericArg struct {
	Type      TypeID
	Expr      ExprID
	Ambiguous bool
}

// TypeExpr is the fixed-size arena record for syntactic types.
type TypeExpr struct {
	Kind    TypeKind
	Span    source.Span
	Payload PayloadID
	Deco    Deco
}

type TypeNameData struct {
	Name source.StringID
	Args []GenericArg
}

type TypeQualifiedData struct {
	Base   TypeID
	Member source.StringID
	Args   []GenericArg
}

type TypePackData struct {
	Elem TypeID
}

// TypeExprs manages allocation of syntactic type expressions.
type TypeExprs struct {
	Arena      *Arena[TypeExpr]
	Names      *Arena[TypeNameData]
	Qualifieds *Arena[TypeQualifiedData]
	Packs      *Arena[TypePackData]
}

func NewTypeExprs(capHint uint) *TypeExprs {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &TypeExprs{
		Arena:      NewArena[TypeExpr](capHint),
		Names:      NewArena[TypeNameData](capHint),
		Qualifieds: NewArena[TypeQualifiedData](capHint),
		Packs:      NewArena[TypePackData](capHint),
	}
}

func (t *TypeExprs) new(kind TypeKind, span source.Span, payload PayloadID, deco Deco) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{
		Kind:    kind,
		Span:    span,
		Payload: payload,
		Deco:    deco,
	}))
}

func (t *TypeExprs) Get(id TypeID) *TypeExpr {
	return t.Arena.Get(uint32(id))
}

func (t *TypeExprs) Span(id TypeID) source.Span {
	if te := t.Get(id); te != nil {
		return te.Span
	}
	return source.Span{}
}

func (t *TypeExprs) NewName(span source.Span, name source.StringID, args []GenericArg, deco Deco) TypeID {
	payload := t.Names.Allocate(TypeNameData{Name: name, Args: args})
	return t.new(TypeName, span, PayloadID(payload), deco)
}

func (t *TypeExprs) Name(id TypeID) (*TypeNameData, bool) {
	te := t.Get(id)
	if te == nil || te.Kind != TypeName {
		return nil, false
	}
	return t.Names.Get(uint32(te.Payload)), true
}

func (t *TypeExprs) NewQualified(span source.Span, base TypeID, member source.StringID, args []GenericArg, deco Deco) TypeID {
	payload := t.Qualifieds.Allocate(TypeQualifiedData{Base: base, Member: member, Args: args})
	return t.new(TypeQualified, span, PayloadID(payload), deco)
}

func (t *TypeExprs) Qualified(id TypeID) (*TypeQualifiedData, bool) {
	te := t.Get(id)
	if te == nil || te.Kind != TypeQualified {
		return nil, false
	}
	return t.Qualifieds.Get(uint32(te.Payload)), true
}

func (t *TypeExprs) NewPack(span source.Span, elem TypeID) TypeID {
	payload := t.Packs.Allocate(TypePackData{Elem: elem})
	return t.new(TypePack, span, PayloadID(payload), Deco{})
}

func (t *TypeExprs) Pack(id TypeID) (*TypePackData, bool) {
	te := t.Get(id)
	if te == nil || te.Kind != TypePack {
		return nil, false
	}
	return t.Packs.Get(uint32(te.Payload)), true
}
