package template

import (
	"strconv"

	"vesper/internal/ast"
	"vesper/internal/types"
)

// ArgKind tags the Argument union.
type ArgKind uint8

const (
	// ArgTypeKind is a type argument.
	ArgTypeKind ArgKind = iota
	// ArgValueKind is a constant value argument.
	ArgValueKind
)

// Argument is one concrete argument of an instantiation. Immutable once
// produced; owned by the instantiation that created it.
type Argument struct {
	Kind ArgKind

	// Type argument payload. Type is the base catalog entry; PtrDepth, Ref,
	// and Quals are decorations the argument itself carries (e.g. deduced
	// from `*int32`).
	Type     types.TypeID
	PtrDepth uint8
	Ref      ast.RefKind
	Quals    types.Qual

	// Value argument payload.
	Value     int64
	ValueType types.TypeID

	// IsPack marks an argument collected into a variadic parameter's pack,
	// including the indexed name_i elements expansion materializes.
	IsPack             bool
	IsDependent        bool
	IsGenericOfGeneric bool
}

// TypeArg builds a plain type argument.
func TypeArg(id types.TypeID) Argument {
	return Argument{Kind: ArgTypeKind, Type: id}
}

// ValueArg builds a constant value argument.
func ValueArg(v int64, valueType types.TypeID) Argument {
	return Argument{Kind: ArgValueKind, Value: v, ValueType: valueType}
}

// Materialize folds the argument's own decorations into a single catalog
// entry. Use-site decorations are applied separately, on top of this.
func (a Argument) Materialize(cat *types.Catalog) types.TypeID {
	if a.Kind != ArgTypeKind {
		return types.NoTypeID
	}
	id := a.Type
	if a.Quals != 0 {
		id = cat.Qualify(id, a.Quals)
	}
	for i := uint8(0); i < a.PtrDepth; i++ {
		id = cat.Intern(types.MakePointer(id))
	}
	switch a.Ref {
	case ast.RefShared:
		id = cat.Intern(types.MakeReference(id, false))
	case ast.RefMut:
		id = cat.Intern(types.MakeReference(id, true))
	}
	return id
}

// keyPart renders the argument for instantiation keys. Equal arguments always
// render identically, which is what makes keys idempotent.
func (a Argument) keyPart(ctx *Context) string {
	switch a.Kind {
	case ArgValueKind:
		return strconv.FormatInt(a.Value, 10)
	default:
		return ctx.Catalog.Display(a.Materialize(ctx.Catalog), ctx.Strings)
	}
}
