package types

import (
	"fmt"

	"fortio.org/safecast"

	"vesper/internal/source"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	Int8    TypeID
	Int16   TypeID
	Int32   TypeID
	Int64   TypeID
	Uint    TypeID
	Uint8   TypeID
	Uint16  TypeID
	Uint32  TypeID
	Uint64  TypeID
	Float32 TypeID
	Float64 TypeID
}

// Catalog provides stable TypeIDs by hashing structural descriptors. Struct,
// alias, and dependent entries are nominal and never dedup structurally; their
// identity is the (name, instantiation key) pair.
type Catalog struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins

	structs    []StructInfo
	aliases    []AliasInfo
	dependents []DependentInfo

	structIndex map[instanceKey]TypeID
	aliasIndex  map[instanceKey]TypeID
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Width   Width
	Mutable bool
	Quals   Qual
}

type instanceKey struct {
	Name source.StringID
	Key  string
}

// NewCatalog constructs a catalog seeded with built-in primitives.
func NewCatalog() *Catalog {
	c := &Catalog{
		index:       make(map[typeKey]TypeID, 64),
		structIndex: make(map[instanceKey]TypeID, 16),
		aliasIndex:  make(map[instanceKey]TypeID, 16),
	}
	// Reserve slot 0 of each side table as an invalid sentinel.
	c.structs = append(c.structs, StructInfo{})
	c.aliases = append(c.aliases, AliasInfo{})
	c.dependents = append(c.dependents, DependentInfo{})

	c.builtins.Invalid = c.internRaw(Type{Kind: KindInvalid})
	c.builtins.Unit = c.Intern(Type{Kind: KindUnit})
	c.builtins.Bool = c.Intern(Type{Kind: KindBool})
	c.builtins.Int = c.Intern(MakeInt(WidthAny))
	c.builtins.Int8 = c.Intern(MakeInt(Width8))
	c.builtins.Int16 = c.Intern(MakeInt(Width16))
	c.builtins.Int32 = c.Intern(MakeInt(Width32))
	c.builtins.Int64 = c.Intern(MakeInt(Width64))
	c.builtins.Uint = c.Intern(MakeUint(WidthAny))
	c.builtins.Uint8 = c.Intern(MakeUint(Width8))
	c.builtins.Uint16 = c.Intern(MakeUint(Width16))
	c.builtins.Uint32 = c.Intern(MakeUint(Width32))
	c.builtins.Uint64 = c.Intern(MakeUint(Width64))
	c.builtins.Float32 = c.Intern(MakeFloat(Width32))
	c.builtins.Float64 = c.Intern(MakeFloat(Width64))
	return c
}

// Builtins returns TypeIDs for primitive types.
func (c *Catalog) Builtins() Builtins {
	return c.builtins
}

// Intern ensures the provided structural descriptor has a stable TypeID.
// Nominal kinds (struct, alias, dependent) must go through their Register
// helpers instead.
func (c *Catalog) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey{
		Kind: t.Kind, Elem: t.Elem, Count: t.Count,
		Width: t.Width, Mutable: t.Mutable, Quals: t.Quals,
	}
	if id, ok := c.index[key]; ok {
		return id
	}
	id := c.internRaw(t)
	c.index[key] = id
	return id
}

func (c *Catalog) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(c.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	c.types = append(c.types, t)
	return id
}

// Lookup returns the descriptor for a TypeID.
func (c *Catalog) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(c.types) {
		return Type{}, false
	}
	return c.types[id], true
}

// MustLookup panics when id is invalid.
func (c *Catalog) MustLookup(id TypeID) Type {
	tt, ok := c.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len returns the number of catalog entries including the invalid sentinel.
func (c *Catalog) Len() int {
	return len(c.types)
}

// Qualify returns id with the extra qualifiers applied.
func (c *Catalog) Qualify(id TypeID, quals Qual) TypeID {
	if quals == 0 {
		return id
	}
	tt, ok := c.Lookup(id)
	if !ok {
		return id
	}
	if tt.Kind == KindStruct || tt.Kind == KindAlias || tt.Kind == KindDependent {
		// Qualifiers on nominal types are dropped; layout is unaffected and
		// the engine compares instances by identity.
		return id
	}
	tt.Quals |= quals
	return c.Intern(tt)
}

// RegisterStructInstance allocates (or returns) the struct entry for the
// given name and instantiation key. A fresh entry starts without layout.
func (c *Catalog) RegisterStructInstance(name source.StringID, key string) TypeID {
	ik := instanceKey{Name: name, Key: key}
	if id, ok := c.structIndex[ik]; ok {
		return id
	}
	payload, err := safecast.Conv[uint32](len(c.structs))
	if err != nil {
		panic(fmt.Errorf("len(structs) overflow: %w", err))
	}
	c.structs = append(c.structs, StructInfo{Name: name, Key: key})
	id := c.internRaw(Type{Kind: KindStruct, Payload: payload})
	c.structIndex[ik] = id
	return id
}

// FindStructInstance returns a previously registered struct instance.
func (c *Catalog) FindStructInstance(name source.StringID, key string) (TypeID, bool) {
	id, ok := c.structIndex[instanceKey{Name: name, Key: key}]
	return id, ok
}

// StructInfo returns the side-table record for a struct TypeID.
func (c *Catalog) StructInfo(id TypeID) (*StructInfo, bool) {
	tt, ok := c.Lookup(id)
	if !ok || tt.Kind != KindStruct || tt.Payload == 0 || int(tt.Payload) >= len(c.structs) {
		return nil, false
	}
	return &c.structs[tt.Payload], true
}

// SetStructFields stores the laid-out fields and computes size/alignment.
// Fields whose types cannot be sized leave the instance without layout.
func (c *Catalog) SetStructFields(id TypeID, fields []FieldInfo) bool {
	info, ok := c.StructInfo(id)
	if !ok {
		return false
	}
	info.Fields = fields
	size := int64(0)
	align := int64(1)
	for _, f := range fields {
		fsz, fal, ok := c.SizeAlign(f.Type)
		if !ok {
			info.HasLayout = false
			return false
		}
		if fal > align {
			align = fal
		}
		if rem := size % fal; rem != 0 {
			size += fal - rem
		}
		size += fsz
	}
	if rem := size % align; rem != 0 {
		size += align - rem
	}
	info.Size = size
	info.Align = align
	info.HasLayout = true
	return true
}

// RegisterAliasInstance allocates (or returns) the alias entry for the given
// name and instantiation key; the target is set once resolution finishes.
func (c *Catalog) RegisterAliasInstance(name source.StringID, key string) TypeID {
	ik := instanceKey{Name: name, Key: key}
	if id, ok := c.aliasIndex[ik]; ok {
		return id
	}
	payload, err := safecast.Conv[uint32](len(c.aliases))
	if err != nil {
		panic(fmt.Errorf("len(aliases) overflow: %w", err))
	}
	c.aliases = append(c.aliases, AliasInfo{Name: name, Key: key})
	id := c.internRaw(Type{Kind: KindAlias, Payload: payload})
	c.aliasIndex[ik] = id
	return id
}

// FindAliasInstance returns a previously registered alias instance.
func (c *Catalog) FindAliasInstance(name source.StringID, key string) (TypeID, bool) {
	id, ok := c.aliasIndex[instanceKey{Name: name, Key: key}]
	return id, ok
}

// AliasInfo returns the side-table record for an alias TypeID.
func (c *Catalog) AliasInfo(id TypeID) (*AliasInfo, bool) {
	tt, ok := c.Lookup(id)
	if !ok || tt.Kind != KindAlias || tt.Payload == 0 || int(tt.Payload) >= len(c.aliases) {
		return nil, false
	}
	return &c.aliases[tt.Payload], true
}

// SetAliasTarget binds the alias to its resolved target.
func (c *Catalog) SetAliasTarget(id, target TypeID) bool {
	info, ok := c.AliasInfo(id)
	if !ok {
		return false
	}
	info.Target = target
	return true
}

// ResolveAlias follows alias targets to the underlying type. Unset targets
// stop the walk; the caller decides if that is an error.
func (c *Catalog) ResolveAlias(id TypeID) TypeID {
	for i := 0; i < 64; i++ {
		info, ok := c.AliasInfo(id)
		if !ok || info.Target == NoTypeID {
			return id
		}
		id = info.Target
	}
	return id
}

// NewDependent allocates a fresh placeholder entry. Placeholders are never
// deduplicated: each unresolved occurrence keeps its own identity until
// substitution resolves it.
func (c *Catalog) NewDependent(display string) TypeID {
	payload, err := safecast.Conv[uint32](len(c.dependents))
	if err != nil {
		panic(fmt.Errorf("len(dependents) overflow: %w", err))
	}
	c.dependents = append(c.dependents, DependentInfo{Display: display})
	return c.internRaw(Type{Kind: KindDependent, Payload: payload})
}

// DependentInfo returns the placeholder record for a dependent TypeID.
func (c *Catalog) DependentInfo(id TypeID) (*DependentInfo, bool) {
	tt, ok := c.Lookup(id)
	if !ok || tt.Kind != KindDependent || tt.Payload == 0 || int(tt.Payload) >= len(c.dependents) {
		return nil, false
	}
	return &c.dependents[tt.Payload], true
}

// IsDependent reports whether id is (or aliases to) an unresolved placeholder.
func (c *Catalog) IsDependent(id TypeID) bool {
	tt, ok := c.Lookup(c.ResolveAlias(id))
	return ok && tt.Kind == KindDependent
}
