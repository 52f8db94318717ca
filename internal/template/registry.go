package template

import (
	"vesper/internal/ast"
	"vesper/internal/source"
	"vesper/internal/types"
)

// Record maps one instantiation key to the concrete entities produced for
// it. Created exactly once per key; later requests return the cached record.
type Record struct {
	Key     Key
	Mangled string

	// Type is set for struct and alias instantiations.
	Type types.TypeID
	// Fn is the concrete declaration produced for a function instantiation.
	Fn ast.DeclID
	// Value/ValueType are set for value-template instantiations.
	Value     int64
	ValueType types.TypeID
	HasValue  bool
}

// Registry stores primary generic declarations by name and previously
// produced instantiations by key. Function names hold overload sets; every
// other kind is a single primary per name.
type Registry struct {
	primaries map[source.StringID]ast.DeclID
	overloads map[source.StringID][]ast.DeclID
	records   map[Key]*Record
}

func NewRegistry() *Registry {
	return &Registry{
		primaries: make(map[source.StringID]ast.DeclID),
		overloads: make(map[source.StringID][]ast.DeclID),
		records:   make(map[Key]*Record),
	}
}

// Register files a primary declaration under its name. Registering a function
// name twice grows its overload set; re-registering any other kind replaces
// the primary (last declaration wins, matching single-pass collection).
func (r *Registry) Register(decls *ast.Decls, id ast.DeclID) {
	name := decls.Name(id)
	if name == source.NoStringID {
		return
	}
	decl := decls.Get(id)
	if decl != nil && decl.Kind == ast.DeclFn {
		r.overloads[name] = append(r.overloads[name], id)
		// The first overload also serves as the name's primary so that
		// plain name lookups resolve.
		if _, ok := r.primaries[name]; !ok {
			r.primaries[name] = id
		}
		return
	}
	r.primaries[name] = id
}

// Lookup returns the primary declaration registered under name.
func (r *Registry) Lookup(name source.StringID) (ast.DeclID, bool) {
	id, ok := r.primaries[name]
	return id, ok
}

// Overloads returns the function overload set for name.
func (r *Registry) Overloads(name source.StringID) []ast.DeclID {
	return r.overloads[name]
}

// Record returns the cached instantiation for key.
func (r *Registry) Record(key Key) (*Record, bool) {
	rec, ok := r.records[key]
	return rec, ok
}

// PutRecord publishes a fully-populated record. The record must be complete
// before this call: partially built records must never become visible.
func (r *Registry) PutRecord(rec *Record) {
	r.records[rec.Key] = rec
}

// RecordCount returns the number of cached instantiations.
func (r *Registry) RecordCount() int {
	return len(r.records)
}
