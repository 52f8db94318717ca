package template

import (
	"vesper/internal/ast"
	"vesper/internal/source"
	"vesper/internal/types"
)

// Phase is the per-class materialization state. It only ever advances:
// None → Minimal → Layout → Full.
type Phase uint8

const (
	// PhaseNone: the name has not been mentioned.
	PhaseNone Phase = iota
	// PhaseMinimal: the name is reserved and has a catalog entry, with no
	// size guarantee. Entered on first mention.
	PhaseMinimal
	// PhaseLayout: member layout is computed; member bodies are not.
	// Entered on the first size- or alignment-sensitive use.
	PhaseLayout
	// PhaseFull: base types, static members, and member functions are
	// materialized. Entered on member access or interrogation.
	PhaseFull
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseMinimal:
		return "minimal"
	case PhaseLayout:
		return "layout"
	case PhaseFull:
		return "full"
	}
	return "Phase(?)"
}

// MemberRole selects one of the four member work registries.
type MemberRole uint8

const (
	RoleMethod MemberRole = iota
	RoleStatic
	RoleNested
	RoleAlias
)

func (r MemberRole) String() string {
	switch r {
	case RoleMethod:
		return "member function"
	case RoleStatic:
		return "static member"
	case RoleNested:
		return "nested type"
	case RoleAlias:
		return "alias"
	}
	return "member"
}

// ClassEntry is the pending work of one class instantiation: the generic
// body plus the binding to substitute it with.
type ClassEntry struct {
	Decl    ast.DeclID
	Binding *Binding
}

// MemberEntry is one registry work item below class granularity.
type MemberEntry struct {
	Owner   types.TypeID
	Decl    ast.DeclID
	Binding *Binding
}

// MemberResult is the materialized output of a member entry. Which fields
// are set depends on the role.
type MemberResult struct {
	Decl      ast.DeclID
	Type      types.TypeID
	Value     int64
	ValueType types.TypeID
	HasValue  bool
}

type memberKey struct {
	Owner types.TypeID
	Name  source.StringID
}

// resultKey extends memberKey with the rendered argument list, so a member
// carrying its own generic parameters caches one result per specialization.
// Args is empty for plain members.
type resultKey struct {
	Owner types.TypeID
	Name  source.StringID
	Args  string
}

// Scheduler tracks deferred class- and member-level instantiation work.
// A plain member's entry is deleted the instant materialization completes:
// absence from a registry is the "done" signal, and completing an absent key
// is a no-op. A member with its own generic parameters completes one
// specialization at a time; its entry survives so later argument lists can
// still materialize. Results are cached separately for O(1) repeat lookups.
type Scheduler struct {
	classes map[types.TypeID]*ClassEntry
	phases  map[types.TypeID]Phase

	pending map[MemberRole]map[memberKey]*MemberEntry
	done    map[MemberRole]map[resultKey]MemberResult
}

func NewScheduler() *Scheduler {
	s := &Scheduler{
		classes: make(map[types.TypeID]*ClassEntry),
		phases:  make(map[types.TypeID]Phase),
		pending: make(map[MemberRole]map[memberKey]*MemberEntry),
		done:    make(map[MemberRole]map[resultKey]MemberResult),
	}
	for _, role := range []MemberRole{RoleMethod, RoleStatic, RoleNested, RoleAlias} {
		s.pending[role] = make(map[memberKey]*MemberEntry)
		s.done[role] = make(map[resultKey]MemberResult)
	}
	return s
}

// TrackClass records pending class work and moves the type to Minimal.
func (s *Scheduler) TrackClass(id types.TypeID, decl ast.DeclID, binding *Binding) {
	s.classes[id] = &ClassEntry{Decl: decl, Binding: binding}
	s.Advance(id, PhaseMinimal)
}

// Class returns the pending work for a class, if any remains.
func (s *Scheduler) Class(id types.TypeID) (*ClassEntry, bool) {
	e, ok := s.classes[id]
	return e, ok
}

// DropClass deletes the class work item. The phase record survives so later
// phase queries still answer correctly.
func (s *Scheduler) DropClass(id types.TypeID) {
	delete(s.classes, id)
}

// Phase returns the current phase of a type.
func (s *Scheduler) Phase(id types.TypeID) Phase {
	return s.phases[id]
}

// Advance moves id to phase if that is forward progress; it never regresses.
// It reports whether the phase changed.
func (s *Scheduler) Advance(id types.TypeID, phase Phase) bool {
	if s.phases[id] >= phase {
		return false
	}
	s.phases[id] = phase
	return true
}

// NeedsLayout reports whether a size/alignment-sensitive use still has work
// to trigger.
func (s *Scheduler) NeedsLayout(id types.TypeID) bool {
	return s.phases[id] < PhaseLayout
}

// NeedsFull reports whether member access still has work to trigger.
func (s *Scheduler) NeedsFull(id types.TypeID) bool {
	return s.phases[id] < PhaseFull
}

// AddMember registers a work item in the role's registry unless that key is
// already pending or already done.
func (s *Scheduler) AddMember(role MemberRole, owner types.TypeID, name source.StringID, e *MemberEntry) {
	key := memberKey{Owner: owner, Name: name}
	if _, ok := s.done[role][resultKey{Owner: owner, Name: name}]; ok {
		return
	}
	if _, ok := s.pending[role][key]; ok {
		return
	}
	s.pending[role][key] = e
}

// Member returns the pending work item for (role, owner, name).
func (s *Scheduler) Member(role MemberRole, owner types.TypeID, name source.StringID) (*MemberEntry, bool) {
	e, ok := s.pending[role][memberKey{Owner: owner, Name: name}]
	return e, ok
}

// Complete caches one materialization. A plain completion (empty args)
// deletes the work item; a specialization leaves it pending for other
// argument lists. Completing an already-done key is a no-op.
func (s *Scheduler) Complete(role MemberRole, owner types.TypeID, name source.StringID, args string, result MemberResult) {
	key := resultKey{Owner: owner, Name: name, Args: args}
	if _, done := s.done[role][key]; done {
		return
	}
	if args == "" {
		delete(s.pending[role], memberKey{Owner: owner, Name: name})
	}
	s.done[role][key] = result
}

// Result returns the cached materialization for (role, owner, name) under
// the given rendered argument list.
func (s *Scheduler) Result(role MemberRole, owner types.TypeID, name source.StringID, args string) (MemberResult, bool) {
	r, ok := s.done[role][resultKey{Owner: owner, Name: name, Args: args}]
	return r, ok
}

// PendingCount reports outstanding work in one registry, for tests and the
// driver's summary output.
func (s *Scheduler) PendingCount(role MemberRole) int {
	return len(s.pending[role])
}
