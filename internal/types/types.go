package types

import (
	"fmt"

	"vesper/internal/source"
)

// TypeID uniquely identifies a type inside the catalog.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindUint
	KindFloat
	KindArray
	KindPointer
	KindReference
	KindStruct
	KindAlias
	// KindDependent is an unresolved placeholder for a name whose meaning
	// depends on a still-unbound generic parameter. It is never sized.
	KindDependent
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindArray:
		return "array"
	case KindPointer:
		return "pointer"
	case KindReference:
		return "reference"
	case KindStruct:
		return "struct"
	case KindAlias:
		return "alias"
	case KindDependent:
		return "dependent"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Qual is a const/volatile qualifier bitset.
type Qual uint8

const (
	QualConst Qual = 1 << iota
	QualVolatile
)

// Type is a compact descriptor for any supported type. Struct, alias, and
// dependent entries carry a Payload index into the catalog's side tables.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32 // for arrays
	Width   Width  // for numeric primitives
	Mutable bool   // for references
	Quals   Qual
	Payload uint32
}

// MakeInt describes a signed integer of the given width (WidthAny for "int").
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes an array of count elements.
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakePointer describes a pointer to elem.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakeReference describes &T or &mut T depending on the mutable flag.
func MakeReference(elem TypeID, mutable bool) Type {
	return Type{Kind: KindReference, Elem: elem, Mutable: mutable}
}

// FieldInfo is one laid-out field of a struct instance.
type FieldInfo struct {
	Name source.StringID
	Type TypeID
}

// StructInfo is the side-table record of a struct instance. Key is the
// instantiation key of the generic it was produced from; empty for
// non-generic structs.
type StructInfo struct {
	Name     source.StringID
	Key      string
	Fields   []FieldInfo
	HasLayout bool
	Size     int64
	Align    int64
}

// AliasInfo is the side-table record of an alias instance.
type AliasInfo struct {
	Name   source.StringID
	Key    string
	Target TypeID
}

// DependentInfo names an unresolved placeholder for diagnostics.
type DependentInfo struct {
	Display string
}
