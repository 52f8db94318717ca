package template

import (
	"strings"

	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/types"
)

// ResolveName instantiates the generic registered under name with the given
// arguments, or returns the cached record when the key has been produced
// before. The record is fully populated before it becomes visible.
func ResolveName(ctx *Context, name source.StringID, args []Argument, span source.Span) (*Record, *Failure) {
	declID, ok := ctx.Registry.Lookup(name)
	if !ok {
		return nil, hardf(diag.TplUnknownName, span, "unknown name %s", ctx.lookupName(name))
	}
	decl := ctx.Builder.Decls.Get(declID)
	if decl == nil {
		return nil, hardf(diag.TplUnknownName, span, "unknown name %s", ctx.lookupName(name))
	}
	args, fail := padDefaults(ctx, ctx.Builder.Decls.ParamsOf(declID), args, span)
	if fail != nil {
		return nil, fail
	}
	key := KeyFor(ctx, name, args)
	if rec, ok := ctx.Registry.Record(key); ok {
		ctx.Report.Note(recordInstKind(ctx, name), rec.Mangled, span, "")
		return rec, nil
	}
	switch decl.Kind {
	case ast.DeclStruct:
		return instantiateStruct(ctx, declID, key, args, span)
	case ast.DeclAlias:
		return instantiateAlias(ctx, declID, key, args, span)
	case ast.DeclConst:
		return instantiateConst(ctx, declID, key, args, span)
	case ast.DeclFn:
		return SelectOverload(ctx, name, args, span)
	case ast.DeclConcept:
		return nil, softf(diag.TplArgKindMismatch, span,
			"%s names a constraint, not an instantiable entity", ctx.lookupName(name))
	}
	return nil, hardf(diag.TplUnknownName, span, "unknown declaration kind for %s", ctx.lookupName(name))
}

// padDefaults fills missing trailing arguments from parameter defaults. A
// default may reference earlier parameters, so each one resolves under a
// partial binding of everything before it. Keys are always computed after
// padding, so an explicit and a defaulted spelling of the same argument list
// share one record.
func padDefaults(ctx *Context, params []ast.ParamID, args []Argument, span source.Span) ([]Argument, *Failure) {
	fixed := len(params)
	if n := len(params); n > 0 {
		if last := ctx.Builder.Decls.Param(params[n-1]); last != nil && last.Variadic {
			fixed = n - 1
		}
	}
	if len(args) >= fixed {
		return args, nil
	}
	out := append([]Argument(nil), args...)
	for i := len(args); i < fixed; i++ {
		p := ctx.Builder.Decls.Param(params[i])
		if p == nil || (!p.DefaultType.IsValid() && !p.DefaultExpr.IsValid()) {
			// NewBinding reports the arity mismatch.
			return args, nil
		}
		partial := &Binding{Params: params[:i], Args: out, decls: ctx.Builder.Decls}
		if p.DefaultExpr.IsValid() {
			v, fail := EvalConst(ctx, partial, p.DefaultExpr)
			if fail != nil {
				return nil, fail
			}
			iv, ok := v.AsInt()
			if !ok {
				return nil, softf(diag.TplArgKindMismatch, span,
					"default for %s is not a constant integer", ctx.lookupName(p.Name))
			}
			out = append(out, ValueArg(iv, v.Type))
			continue
		}
		id, fail := ResolveType(ctx, partial, p.DefaultType)
		if fail != nil {
			return nil, fail
		}
		arg := TypeArg(id)
		arg.IsDependent = ctx.Catalog.IsDependent(id)
		out = append(out, arg)
	}
	return out, nil
}

func recordInstKind(ctx *Context, name source.StringID) InstKind {
	if declID, ok := ctx.Registry.Lookup(name); ok {
		if decl := ctx.Builder.Decls.Get(declID); decl != nil {
			switch decl.Kind {
			case ast.DeclAlias:
				return InstAlias
			case ast.DeclFn:
				return InstFn
			case ast.DeclConst:
				return InstConst
			}
		}
	}
	return InstStruct
}

// instantiateStruct reserves the instance at Minimal phase: the name gets a
// catalog entry immediately so self-referential bodies resolve, while layout
// and members wait for a use that needs them.
func instantiateStruct(ctx *Context, declID ast.DeclID, key Key, args []Argument, span source.Span) (*Record, *Failure) {
	data, ok := ctx.Builder.Decls.Struct(declID)
	if !ok {
		return nil, hardf(diag.TplSubstFailed, span, "malformed struct declaration")
	}
	binding, fail := NewBinding(ctx.Builder.Decls, declID, data.Params, args, span)
	if fail != nil {
		return nil, fail
	}
	if data.Where.IsValid() {
		if res := Evaluate(ctx, binding, data.Where); !res.Satisfied {
			return nil, constraintFailure(res, span, ctx.lookupName(data.Name))
		}
	}
	mangled := key.Mangled(ctx.Strings)
	id := ctx.Catalog.RegisterStructInstance(data.Name, mangled)
	ctx.Lazy.TrackClass(id, declID, binding)

	rec := &Record{Key: key, Mangled: mangled, Type: id}
	ctx.Registry.PutRecord(rec)
	ctx.Report.Note(InstStruct, rec.Mangled, span, "")
	return rec, nil
}

func constraintFailure(res Result, span source.Span, name string) *Failure {
	f := softf(diag.TplConstraintFailed, span, "constraint on %s not satisfied: %s", name, res.Message)
	f.FailedRequirement = res.FailedRequirement
	f.Suggestion = res.Suggestion
	return f
}

func instantiateAlias(ctx *Context, declID ast.DeclID, key Key, args []Argument, span source.Span) (*Record, *Failure) {
	data, ok := ctx.Builder.Decls.Alias(declID)
	if !ok {
		return nil, hardf(diag.TplSubstFailed, span, "malformed alias declaration")
	}
	mangled := key.Mangled(ctx.Strings)
	if fail := ctx.enterResolve(mangled, span); fail != nil {
		return nil, fail
	}
	defer ctx.leaveResolve(mangled)

	binding, fail := NewBinding(ctx.Builder.Decls, declID, data.Params, args, span)
	if fail != nil {
		return nil, fail
	}
	target, fail := ResolveType(ctx, binding, data.Target)
	if fail != nil {
		return nil, fail
	}
	id := ctx.Catalog.RegisterAliasInstance(data.Name, mangled)
	ctx.Catalog.SetAliasTarget(id, target)

	rec := &Record{Key: key, Mangled: mangled, Type: id}
	ctx.Registry.PutRecord(rec)
	ctx.Report.Note(InstAlias, mangled, span, "")
	return rec, nil
}

func instantiateConst(ctx *Context, declID ast.DeclID, key Key, args []Argument, span source.Span) (*Record, *Failure) {
	data, ok := ctx.Builder.Decls.Const(declID)
	if !ok {
		return nil, hardf(diag.TplSubstFailed, span, "malformed constant declaration")
	}
	mangled := key.Mangled(ctx.Strings)
	if fail := ctx.enterResolve(mangled, span); fail != nil {
		return nil, fail
	}
	defer ctx.leaveResolve(mangled)

	binding, fail := NewBinding(ctx.Builder.Decls, declID, data.Params, args, span)
	if fail != nil {
		return nil, fail
	}
	value, fail := EvalConst(ctx, binding, data.Value)
	if fail != nil {
		return nil, fail
	}
	iv, ok := value.AsInt()
	if !ok {
		if bv, isBool := value.AsBool(); isBool {
			iv = 0
			if bv {
				iv = 1
			}
		} else {
			return nil, softf(diag.TplSubstFailed, span, "constant %s does not reduce to a value", mangled)
		}
	}
	valueType := value.Type
	if data.Type.IsValid() {
		valueType, fail = ResolveType(ctx, binding, data.Type)
		if fail != nil {
			return nil, fail
		}
	}

	rec := &Record{Key: key, Mangled: mangled, Value: iv, ValueType: valueType, HasValue: true}
	ctx.Registry.PutRecord(rec)
	ctx.Report.Note(InstConst, mangled, span, "")
	return rec, nil
}

// constRecord instantiates a zero-parameter constant template on demand, for
// constant expressions that reference it by bare name.
func (ctx *Context) constRecord(name source.StringID) (*Record, bool) {
	declID, ok := ctx.Registry.Lookup(name)
	if !ok {
		return nil, false
	}
	decl := ctx.Builder.Decls.Get(declID)
	if decl == nil || decl.Kind != ast.DeclConst {
		return nil, false
	}
	if len(ctx.Builder.Decls.ParamsOf(declID)) > 0 {
		return nil, false
	}
	rec, fail := ResolveName(ctx, name, nil, source.Span{})
	if fail != nil {
		return nil, false
	}
	return rec, true
}

// InstantiateFn substitutes one function candidate. Constraint and
// substitution failures stay soft so overload selection can move on.
func InstantiateFn(ctx *Context, declID ast.DeclID, args []Argument, span source.Span) (*Record, *Failure) {
	data, ok := ctx.Builder.Decls.Fn(declID)
	if !ok {
		return nil, hardf(diag.TplSubstFailed, span, "malformed function declaration")
	}
	args, fail := padDefaults(ctx, data.Params, args, span)
	if fail != nil {
		return nil, fail
	}
	key := KeyFor(ctx, data.Name, args)
	mangled := key.Mangled(ctx.Strings)

	binding, fail := NewBinding(ctx.Builder.Decls, declID, data.Params, args, span)
	if fail != nil {
		return nil, fail
	}
	if data.Where.IsValid() {
		if res := Evaluate(ctx, binding, data.Where); !res.Satisfied {
			return nil, constraintFailure(res, span, ctx.lookupName(data.Name))
		}
	}

	if fail := ctx.enterResolve(mangled, span); fail != nil {
		return nil, fail
	}
	defer ctx.leaveResolve(mangled)

	body := data.Body
	if !body.IsValid() && data.BodyRange.IsValid() {
		if ctx.Reparse == nil {
			return nil, hardf(diag.TplSubstFailed, span, "deferred body for %s has no parser", mangled)
		}
		reparsed, ok := ctx.Reparse(data.BodyRange)
		if !ok {
			return nil, hardf(diag.TplSubstFailed, span, "re-parse of deferred body for %s failed", mangled)
		}
		body = reparsed
		data.Body = reparsed
	}

	var concreteBody ast.StmtID
	if body.IsValid() {
		concreteBody, fail = SubstStmt(ctx, binding, body)
		if fail != nil {
			return nil, fail
		}
	}

	fnParams := make([]ast.FnParam, len(data.FnParams))
	for i, p := range data.FnParams {
		typ, fail := substTypeNode(ctx, binding, p.Type)
		if fail != nil {
			return nil, fail
		}
		fnParams[i] = ast.FnParam{Name: p.Name, Type: typ, Span: p.Span}
	}
	result := data.Result
	if result.IsValid() {
		result, fail = substTypeNode(ctx, binding, data.Result)
		if fail != nil {
			return nil, fail
		}
	}

	concrete := ctx.Builder.Decls.NewFn(span, ast.DeclFnData{
		Name:     ctx.Strings.Intern(mangled),
		FnParams: fnParams,
		Result:   result,
		Body:     concreteBody,
	})

	rec := &Record{Key: key, Mangled: mangled, Fn: concrete}
	ctx.Registry.PutRecord(rec)
	ctx.Report.Note(InstFn, mangled, span, "")
	return rec, nil
}

// SelectOverload tries every function candidate registered under name. Soft
// failures remove one candidate; the first viable candidate wins. Exhausting
// every candidate surfaces the accumulated detail as a hard error.
func SelectOverload(ctx *Context, name source.StringID, args []Argument, span source.Span) (*Record, *Failure) {
	key := KeyFor(ctx, name, args)
	if rec, ok := ctx.Registry.Record(key); ok {
		return rec, nil
	}
	cands := ctx.Registry.Overloads(name)
	if len(cands) == 0 {
		return nil, hardf(diag.TplUnknownName, span, "unknown function %s", ctx.lookupName(name))
	}
	var details []string
	var firstReq, firstSuggestion string
	for _, cand := range cands {
		rec, fail := InstantiateFn(ctx, cand, args, span)
		if fail == nil {
			return rec, nil
		}
		if fail.IsHard() || fail.IsDeferred() {
			return nil, fail
		}
		if firstReq == "" {
			firstReq = fail.FailedRequirement
			firstSuggestion = fail.Suggestion
		}
		details = append(details, fail.Message)
	}
	f := hardf(diag.TplNoViableCandidate, span, "no viable candidate for %s: %s",
		ctx.lookupName(name), strings.Join(details, "; "))
	f.FailedRequirement = firstReq
	f.Suggestion = firstSuggestion
	return nil, f
}

// RequirePhase drives the class phase machine forward to at least the given
// phase. Types the scheduler never tracked (builtins, structural composites)
// advance for free.
func RequirePhase(ctx *Context, id types.TypeID, phase Phase) *Failure {
	if ctx.Lazy.Phase(id) >= phase {
		return nil
	}
	entry, tracked := ctx.Lazy.Class(id)
	if !tracked {
		ctx.Lazy.Advance(id, phase)
		return nil
	}
	if phase >= PhaseLayout && ctx.Lazy.NeedsLayout(id) {
		if fail := computeLayout(ctx, id, entry); fail != nil {
			return fail
		}
	}
	if phase >= PhaseFull && ctx.Lazy.NeedsFull(id) {
		if fail := materializeMembers(ctx, id, entry); fail != nil {
			return fail
		}
		ctx.Lazy.Advance(id, PhaseFull)
		ctx.Lazy.DropClass(id)
	}
	return nil
}

func computeLayout(ctx *Context, id types.TypeID, entry *ClassEntry) *Failure {
	data, ok := ctx.Builder.Decls.Struct(entry.Decl)
	if !ok {
		return hardf(diag.TplSubstFailed, source.Span{}, "class entry does not name a struct")
	}
	label := "layout:" + ctx.Catalog.Display(id, ctx.Strings)
	span := ctx.Builder.Decls.Get(entry.Decl).Span
	if fail := ctx.enterResolve(label, span); fail != nil {
		return fail
	}
	defer ctx.leaveResolve(label)

	fields := make([]types.FieldInfo, 0, len(data.Fields))
	for _, fid := range data.Fields {
		f := ctx.Builder.Decls.Field(fid)
		if f == nil {
			continue
		}
		ft, fail := ResolveType(ctx, entry.Binding, f.Type)
		if fail != nil {
			return fail
		}
		if _, ok := ctx.Catalog.SizeOf(ft); !ok {
			// A by-value field forces its own type to Layout first.
			if fail := RequirePhase(ctx, ft, PhaseLayout); fail != nil {
				return fail
			}
			if _, ok := ctx.Catalog.SizeOf(ft); !ok {
				return softf(diag.TplIncompleteType, f.Span,
					"field %s has incomplete type %s",
					ctx.lookupName(f.Name), ctx.Catalog.Display(ft, ctx.Strings))
			}
		}
		fields = append(fields, types.FieldInfo{Name: f.Name, Type: ft})
	}
	ctx.Catalog.SetStructFields(id, fields)
	ctx.Lazy.Advance(id, PhaseLayout)
	return nil
}

// materializeMembers finishes the Layout→Full transition: statics and member
// functions without own generic parameters are substituted now; nested types
// and aliases are filed as registry work items and materialize on first
// demand.
func materializeMembers(ctx *Context, id types.TypeID, entry *ClassEntry) *Failure {
	if fail := RequirePhase(ctx, id, PhaseLayout); fail != nil {
		return fail
	}
	data, ok := ctx.Builder.Decls.Struct(entry.Decl)
	if !ok {
		return hardf(diag.TplSubstFailed, source.Span{}, "class entry does not name a struct")
	}
	for _, m := range data.Statics {
		name := memberNameOf(ctx, m)
		e := &MemberEntry{Owner: id, Decl: m, Binding: entry.Binding}
		ctx.Lazy.AddMember(RoleStatic, id, name, e)
		if fail := materializeMember(ctx, RoleStatic, id, name, nil); fail != nil && !fail.IsDeferred() {
			return fail
		}
	}
	for _, m := range data.Methods {
		name := memberNameOf(ctx, m)
		ctx.Lazy.AddMember(RoleMethod, id, name, &MemberEntry{Owner: id, Decl: m, Binding: entry.Binding})
		if params := ctx.Builder.Decls.ParamsOf(m); len(params) > 0 {
			// A generic member needs its own arguments; it stays pending.
			// Its signature is still checked now, under the class binding
			// alone, with the member's parameters left unbound.
			if fail := checkPendingSignature(ctx, m, entry.Binding, params); fail != nil && !fail.IsDeferred() {
				return fail
			}
			continue
		}
		if fail := materializeMember(ctx, RoleMethod, id, name, nil); fail != nil && !fail.IsDeferred() {
			return fail
		}
	}
	for _, m := range data.Nested {
		ctx.Lazy.AddMember(RoleNested, id, memberNameOf(ctx, m), &MemberEntry{Owner: id, Decl: m, Binding: entry.Binding})
	}
	for _, m := range data.Aliases {
		ctx.Lazy.AddMember(RoleAlias, id, memberNameOf(ctx, m), &MemberEntry{Owner: id, Decl: m, Binding: entry.Binding})
	}
	return nil
}

// checkPendingSignature resolves a generic member's parameter and result
// types under the class binding, with the member's own parameters listed as
// unbound. References to them come back as dependent placeholders; anything
// genuinely unknown in the signature surfaces now instead of at the first
// call.
func checkPendingSignature(ctx *Context, decl ast.DeclID, class *Binding, params []ast.ParamID) *Failure {
	data, ok := ctx.Builder.Decls.Fn(decl)
	if !ok {
		return nil
	}
	names := make([]source.StringID, 0, len(params))
	for _, pid := range params {
		if p := ctx.Builder.Decls.Param(pid); p != nil {
			names = append(names, p.Name)
		}
	}
	partial := &Binding{decls: ctx.Builder.Decls, Enclosing: class, UnboundOuter: names}
	for _, p := range data.FnParams {
		if _, fail := substTypeNode(ctx, partial, p.Type); fail != nil {
			return fail
		}
	}
	if data.Result.IsValid() {
		if _, fail := substTypeNode(ctx, partial, data.Result); fail != nil {
			return fail
		}
	}
	return nil
}

// memberNameOf interns the unqualified spelling of a member declaration's
// name, so qualified and unqualified references share one registry key.
func memberNameOf(ctx *Context, id ast.DeclID) source.StringID {
	spelled := ctx.lookupName(ctx.Builder.Decls.Name(id))
	return ctx.Strings.Intern(normalizeMemberName(spelled))
}

// ResolveQualified resolves Base::Member to a concrete type, driving the
// base to Full and materializing the member on first demand. Only nested
// types and aliases denote types; other member roles are rejected softly so
// expression-context lookups can retry through MemberRecord.
func ResolveQualified(ctx *Context, b *Binding, base types.TypeID, member source.StringID, gargs []ast.GenericArg, span source.Span) (types.TypeID, *Failure) {
	name := ctx.Strings.Intern(normalizeMemberName(ctx.lookupName(member)))
	if fail := RequirePhase(ctx, base, PhaseFull); fail != nil {
		return types.NoTypeID, fail
	}
	var args []Argument
	if len(gargs) > 0 {
		var fail *Failure
		entryParams := memberParams(ctx, base, name)
		args, fail = ResolveGenericArgs(ctx, b, entryParams, gargs, span)
		if fail != nil {
			return types.NoTypeID, fail
		}
	}
	akey := argsKeyOf(ctx, args)
	for _, role := range []MemberRole{RoleAlias, RoleNested} {
		if res, ok := ctx.Lazy.Result(role, base, name, akey); ok {
			return res.Type, nil
		}
		if _, ok := ctx.Lazy.Member(role, base, name); ok {
			if fail := materializeMember(ctx, role, base, name, args); fail != nil {
				return types.NoTypeID, fail
			}
			if res, ok := ctx.Lazy.Result(role, base, name, akey); ok {
				return res.Type, nil
			}
		}
	}
	if _, ok := ctx.Lazy.Result(RoleStatic, base, name, ""); ok {
		return types.NoTypeID, softf(diag.TplArgKindMismatch, span,
			"%s::%s is a static member, not a type",
			ctx.Catalog.Display(base, ctx.Strings), ctx.lookupName(name))
	}
	return types.NoTypeID, hardf(diag.TplUnknownName, span, "%s has no member %s",
		ctx.Catalog.Display(base, ctx.Strings), ctx.lookupName(name))
}

func memberParams(ctx *Context, base types.TypeID, name source.StringID) []ast.ParamID {
	for _, role := range []MemberRole{RoleAlias, RoleNested, RoleMethod} {
		if e, ok := ctx.Lazy.Member(role, base, name); ok {
			return ctx.Builder.Decls.ParamsOf(e.Decl)
		}
	}
	return nil
}

// MemberRecord materializes and returns a static-member or member-function
// result for expression-context lookups. Explicit generic arguments select
// one specialization of a generic member function; each argument list
// materializes its own result.
func MemberRecord(ctx *Context, b *Binding, base types.TypeID, member source.StringID, gargs []ast.GenericArg, span source.Span) (MemberResult, *Failure) {
	name := ctx.Strings.Intern(normalizeMemberName(ctx.lookupName(member)))
	if fail := RequirePhase(ctx, base, PhaseFull); fail != nil {
		return MemberResult{}, fail
	}
	var args []Argument
	if len(gargs) > 0 {
		var fail *Failure
		args, fail = ResolveGenericArgs(ctx, b, memberParams(ctx, base, name), gargs, span)
		if fail != nil {
			return MemberResult{}, fail
		}
	}
	akey := argsKeyOf(ctx, args)
	for _, role := range []MemberRole{RoleStatic, RoleMethod} {
		if res, ok := ctx.Lazy.Result(role, base, name, akey); ok {
			return res, nil
		}
		if _, ok := ctx.Lazy.Member(role, base, name); ok {
			if fail := materializeMember(ctx, role, base, name, args); fail != nil {
				return MemberResult{}, fail
			}
			if res, ok := ctx.Lazy.Result(role, base, name, akey); ok {
				return res, nil
			}
		}
	}
	return MemberResult{}, hardf(diag.TplUnknownName, span, "%s has no member %s",
		ctx.Catalog.Display(base, ctx.Strings), ctx.lookupName(name))
}

// materializeMember substitutes one registry work item and caches the
// result. A plain member's entry is deleted on completion; a generic
// member's entry survives, producing one cached result per argument list.
// Repeat requests against an absent key fall through to the cache and are
// no-ops.
func materializeMember(ctx *Context, role MemberRole, owner types.TypeID, name source.StringID, args []Argument) *Failure {
	akey := argsKeyOf(ctx, args)
	if _, done := ctx.Lazy.Result(role, owner, name, akey); done {
		return nil
	}
	entry, ok := ctx.Lazy.Member(role, owner, name)
	if !ok {
		return nil
	}
	decl := ctx.Builder.Decls.Get(entry.Decl)
	if decl == nil {
		return hardf(diag.TplSubstFailed, source.Span{}, "missing member declaration")
	}
	span := decl.Span
	params := ctx.Builder.Decls.ParamsOf(entry.Decl)
	binding := entry.Binding
	if len(params) > 0 || len(args) > 0 {
		inner, fail := NewBinding(ctx.Builder.Decls, entry.Decl, params, args, span)
		if fail != nil {
			return fail
		}
		inner.Enclosing = entry.Binding
		binding = inner
	}

	switch decl.Kind {
	case ast.DeclAlias:
		data, _ := ctx.Builder.Decls.Alias(entry.Decl)
		target, fail := ResolveType(ctx, withMemberScope(binding, entry.Binding), data.Target)
		if fail != nil {
			return fail
		}
		ctx.Lazy.Complete(role, owner, name, akey, MemberResult{Decl: entry.Decl, Type: target})
		return nil

	case ast.DeclStruct:
		data, _ := ctx.Builder.Decls.Struct(entry.Decl)
		key := nestedKey(ctx, owner, name, args)
		id := ctx.Catalog.RegisterStructInstance(data.Name, key)
		ctx.Lazy.TrackClass(id, entry.Decl, withMemberScope(binding, entry.Binding))
		ctx.Lazy.Complete(role, owner, name, akey, MemberResult{Decl: entry.Decl, Type: id})
		return nil

	case ast.DeclConst:
		data, _ := ctx.Builder.Decls.Const(entry.Decl)
		v, fail := EvalConst(ctx, withMemberScope(binding, entry.Binding), data.Value)
		if fail != nil {
			return fail
		}
		iv, _ := v.AsInt()
		ctx.Lazy.Complete(role, owner, name, akey, MemberResult{
			Decl: entry.Decl, Value: iv, ValueType: v.Type, HasValue: true,
		})
		return nil

	case ast.DeclFn:
		concrete, fail := instantiateMemberFn(ctx, entry, withMemberScope(binding, entry.Binding), owner, name, akey, span)
		if fail != nil {
			return fail
		}
		ctx.Lazy.Complete(role, owner, name, akey, MemberResult{Decl: concrete})
		return nil
	}
	return hardf(diag.TplSubstFailed, span, "member kind cannot be materialized")
}

// instantiateMemberFn substitutes a member function under the chained
// class+member binding. The produced declaration is keyed by its qualified
// mangled spelling.
func instantiateMemberFn(ctx *Context, entry *MemberEntry, binding *Binding, owner types.TypeID, name source.StringID, akey string, span source.Span) (ast.DeclID, *Failure) {
	data, ok := ctx.Builder.Decls.Fn(entry.Decl)
	if !ok {
		return ast.NoDeclID, hardf(diag.TplSubstFailed, span, "malformed member function")
	}
	mangled := ctx.Catalog.Display(owner, ctx.Strings) + "::" + ctx.lookupName(name)
	if akey != "" {
		mangled += "<" + akey + ">"
	}
	if data.Where.IsValid() {
		if res := Evaluate(ctx, binding, data.Where); !res.Satisfied {
			return ast.NoDeclID, constraintFailure(res, span, mangled)
		}
	}
	if fail := ctx.enterResolve(mangled, span); fail != nil {
		return ast.NoDeclID, fail
	}
	defer ctx.leaveResolve(mangled)

	body := data.Body
	if !body.IsValid() && data.BodyRange.IsValid() {
		if ctx.Reparse == nil {
			return ast.NoDeclID, hardf(diag.TplSubstFailed, span, "deferred body for %s has no parser", mangled)
		}
		reparsed, ok := ctx.Reparse(data.BodyRange)
		if !ok {
			return ast.NoDeclID, hardf(diag.TplSubstFailed, span, "re-parse of deferred body for %s failed", mangled)
		}
		body = reparsed
		data.Body = reparsed
	}
	var concreteBody ast.StmtID
	var fail *Failure
	if body.IsValid() {
		concreteBody, fail = SubstStmt(ctx, binding, body)
		if fail != nil {
			return ast.NoDeclID, fail
		}
	}
	fnParams := make([]ast.FnParam, len(data.FnParams))
	for i, p := range data.FnParams {
		typ, fail := substTypeNode(ctx, binding, p.Type)
		if fail != nil {
			return ast.NoDeclID, fail
		}
		fnParams[i] = ast.FnParam{Name: p.Name, Type: typ, Span: p.Span}
	}
	result := data.Result
	if result.IsValid() {
		result, fail = substTypeNode(ctx, binding, data.Result)
		if fail != nil {
			return ast.NoDeclID, fail
		}
	}
	concrete := ctx.Builder.Decls.NewFn(span, ast.DeclFnData{
		Name:     ctx.Strings.Intern(mangled),
		FnParams: fnParams,
		Result:   result,
		Body:     concreteBody,
	})
	ctx.Report.Note(InstFn, mangled, span, "")
	return concrete, nil
}

// withMemberScope chains the member's own binding to the class binding so
// class parameters stay visible inside the member body.
func withMemberScope(binding, class *Binding) *Binding {
	if binding == class || binding == nil {
		return class
	}
	if binding.Enclosing == nil {
		binding.Enclosing = class
	}
	return binding
}

func nestedKey(ctx *Context, owner types.TypeID, name source.StringID, args []Argument) string {
	key := ctx.Catalog.Display(owner, ctx.Strings) + "::" + ctx.lookupName(name)
	if akey := argsKeyOf(ctx, args); akey != "" {
		key += "<" + akey + ">"
	}
	return key
}

// argsKeyOf renders an argument list the way instantiation keys do; empty
// for a plain (non-generic) member.
func argsKeyOf(ctx *Context, args []Argument) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.keyPart(ctx)
	}
	return strings.Join(parts, ",")
}
