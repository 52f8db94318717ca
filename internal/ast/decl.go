package ast

import (
	"vesper/internal/source"
)

// ParamKind classifies a generic parameter.
type ParamKind uint8

const (
	// ParamType is a type parameter: <T>.
	ParamType ParamKind = iota
	// ParamValue is a value parameter: <const N: int>.
	ParamValue
	// ParamGeneric is a generic-of-generic parameter: a parameter that is
	// itself bound to a generic name rather than a concrete type.
	ParamGeneric
)

// TypeParam is one entry of a generic declaration's ordered parameter list.
type TypeParam struct {
	Kind     ParamKind
	Name     source.StringID
	Span     source.Span
	Variadic bool
	// ValueType is the declared type of a value parameter.
	ValueType TypeID
	// DefaultType / DefaultExpr carry the optional default argument.
	DefaultType TypeID
	DefaultExpr ExprID
}

// FnParam is a run-time parameter of a function declaration.
type FnParam struct {
	Name source.StringID
	Type TypeID
	Span source.Span
}

// Field is one field of a struct type declaration.
type Field struct {
	Name source.StringID
	Type TypeID
	Span source.Span
}

// TokenRange remembers where a deferred body lives in the source so it can be
// re-parsed once parameters are bound.
type TokenRange struct {
	File  source.FileID
	Start uint32
	End   uint32
}

func (r TokenRange) IsValid() bool {
	return r.End > r.Start
}

type DeclKind uint8

const (
	// DeclStruct is a (possibly generic) struct type declaration.
	DeclStruct DeclKind = iota
	// DeclAlias is a (possibly generic) type alias.
	DeclAlias
	// DeclConcept is a named constraint.
	DeclConcept
	// DeclFn is a (possibly generic) function.
	DeclFn
	// DeclConst is a value template: const zero<T>: T = ... .
	DeclConst
)

type Decl struct {
	Kind    DeclKind
	Span    source.Span
	Payload PayloadID
}

// DeclStructData is a struct body. Members beyond plain fields are tracked by
// role so the lazy scheduler can register them in its per-role registries.
type DeclStructData struct {
	Name    source.StringID
	Params  []ParamID
	Where   ExprID
	Fields  []FieldID
	Methods []DeclID
	Statics []DeclID
	Nested  []DeclID
	Aliases []DeclID
}

type DeclAliasData struct {
	Name   source.StringID
	Params []ParamID
	Target TypeID
}

type DeclConceptData struct {
	Name   source.StringID
	Params []ParamID
	Pred   ExprID
}

type DeclFnData struct {
	Name    source.StringID
	Params  []ParamID
	FnParams []FnParam
	Result  TypeID
	Where   ExprID
	Body    StmtID
	// BodyRange is set instead of Body when the body is deferred; the engine
	// asks the parser to re-parse it on first materialization.
	BodyRange TokenRange
}

type DeclConstData struct {
	Name   source.StringID
	Params []ParamID
	Type   TypeID
	Value  ExprID
}

// Decls manages allocation of declarations.
type Decls struct {
	Arena    *Arena[Decl]
	Structs  *Arena[DeclStructData]
	Aliases  *Arena[DeclAliasData]
	Concepts *Arena[DeclConceptData]
	Fns      *Arena[DeclFnData]
	Consts   *Arena[DeclConstData]
	Params   *Arena[TypeParam]
	Fields   *Arena[Field]
}

func NewDecls(capHint uint) *Decls {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Decls{
		Arena:    NewArena[Decl](capHint),
		Structs:  NewArena[DeclStructData](capHint),
		Aliases:  NewArena[DeclAliasData](capHint),
		Concepts: NewArena[DeclConceptData](capHint),
		Fns:      NewArena[DeclFnData](capHint),
		Consts:   NewArena[DeclConstData](capHint),
		Params:   NewArena[TypeParam](capHint),
		Fields:   NewArena[Field](capHint),
	}
}

func (d *Decls) new(kind DeclKind, span source.Span, payload PayloadID) DeclID {
	return DeclID(d.Arena.Allocate(Decl{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

func (d *Decls) Get(id DeclID) *Decl {
	return d.Arena.Get(uint32(id))
}

func (d *Decls) NewParam(p TypeParam) ParamID {
	return ParamID(d.Params.Allocate(p))
}

func (d *Decls) Param(id ParamID) *TypeParam {
	return d.Params.Get(uint32(id))
}

func (d *Decls) NewField(f Field) FieldID {
	return FieldID(d.Fields.Allocate(f))
}

func (d *Decls) Field(id FieldID) *Field {
	return d.Fields.Get(uint32(id))
}

func (d *Decls) NewStruct(span source.Span, data DeclStructData) DeclID {
	payload := d.Structs.Allocate(data)
	return d.new(DeclStruct, span, PayloadID(payload))
}

func (d *Decls) Struct(id DeclID) (*DeclStructData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclStruct {
		return nil, false
	}
	return d.Structs.Get(uint32(decl.Payload)), true
}

func (d *Decls) NewAlias(span source.Span, data DeclAliasData) DeclID {
	payload := d.Aliases.Allocate(data)
	return d.new(DeclAlias, span, PayloadID(payload))
}

func (d *Decls) Alias(id DeclID) (*DeclAliasData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclAlias {
		return nil, false
	}
	return d.Aliases.Get(uint32(decl.Payload)), true
}

func (d *Decls) NewConcept(span source.Span, data DeclConceptData) DeclID {
	payload := d.Concepts.Allocate(data)
	return d.new(DeclConcept, span, PayloadID(payload))
}

func (d *Decls) Concept(id DeclID) (*DeclConceptData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclConcept {
		return nil, false
	}
	return d.Concepts.Get(uint32(decl.Payload)), true
}

func (d *Decls) NewFn(span source.Span, data DeclFnData) DeclID {
	payload := d.Fns.Allocate(data)
	return d.new(DeclFn, span, PayloadID(payload))
}

func (d *Decls) Fn(id DeclID) (*DeclFnData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclFn {
		return nil, false
	}
	return d.Fns.Get(uint32(decl.Payload)), true
}

func (d *Decls) NewConst(span source.Span, data DeclConstData) DeclID {
	payload := d.Consts.Allocate(data)
	return d.new(DeclConst, span, PayloadID(payload))
}

func (d *Decls) Const(id DeclID) (*DeclConstData, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclConst {
		return nil, false
	}
	return d.Consts.Get(uint32(decl.Payload)), true
}

// Name returns the declared name for any declaration kind.
func (d *Decls) Name(id DeclID) source.StringID {
	decl := d.Get(id)
	if decl == nil {
		return source.NoStringID
	}
	switch decl.Kind {
	case DeclStruct:
		if data, ok := d.Struct(id); ok {
			return data.Name
		}
	case DeclAlias:
		if data, ok := d.Alias(id); ok {
			return data.Name
		}
	case DeclConcept:
		if data, ok := d.Concept(id); ok {
			return data.Name
		}
	case DeclFn:
		if data, ok := d.Fn(id); ok {
			return data.Name
		}
	case DeclConst:
		if data, ok := d.Const(id); ok {
			return data.Name
		}
	}
	return source.NoStringID
}

// ParamsOf returns the generic parameter list for any declaration kind.
func (d *Decls) ParamsOf(id DeclID) []ParamID {
	decl := d.Get(id)
	if decl == nil {
		return nil
	}
	switch decl.Kind {
	case DeclStruct:
		if data, ok := d.Struct(id); ok {
			return data.Params
		}
	case DeclAlias:
		if data, ok := d.Alias(id); ok {
			return data.Params
		}
	case DeclConcept:
		if data, ok := d.Concept(id); ok {
			return data.Params
		}
	case DeclFn:
		if data, ok := d.Fn(id); ok {
			return data.Params
		}
	case DeclConst:
		if data, ok := d.Const(id); ok {
			return data.Params
		}
	}
	return nil
}
