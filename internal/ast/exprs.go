package ast

import (
	"vesper/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena       *Arena[Expr]
	Idents      *Arena[ExprIdentData]
	Ints        *Arena[ExprIntData]
	Bools       *Arena[ExprBoolData]
	Unaries     *Arena[ExprUnaryData]
	Binaries    *Arena[ExprBinaryData]
	Calls       *Arena[ExprCallData]
	Members     *Arena[ExprMemberData]
	Indices     *Arena[ExprIndexData]
	Casts       *Arena[ExprCastData]
	Sizeofs     *Arena[ExprSizeofData]
	SizeofPacks *Arena[ExprSizeofPackData]
	Folds       *Arena[ExprFoldData]
	Requires    *Arena[ExprRequiresData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:       NewArena[Expr](capHint),
		Idents:      NewArena[ExprIdentData](capHint),
		Ints:        NewArena[ExprIntData](capHint),
		Bools:       NewArena[ExprBoolData](capHint),
		Unaries:     NewArena[ExprUnaryData](capHint),
		Binaries:    NewArena[ExprBinaryData](capHint),
		Calls:       NewArena[ExprCallData](capHint),
		Members:     NewArena[ExprMemberData](capHint),
		Indices:     NewArena[ExprIndexData](capHint),
		Casts:       NewArena[ExprCastData](capHint),
		Sizeofs:     NewArena[ExprSizeofData](capHint),
		SizeofPacks: NewArena[ExprSizeofPackData](capHint),
		Folds:       NewArena[ExprFoldData](capHint),
		Requires:    NewArena[ExprRequiresData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the expression record with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// Kind returns the node kind, or ExprIdent for an invalid id; callers are
// expected to check IsValid first.
func (e *Exprs) Kind(id ExprID) (ExprKind, bool) {
	expr := e.Get(id)
	if expr == nil {
		return 0, false
	}
	return expr.Kind, true
}

// Span returns the source span for the expression.
func (e *Exprs) Span(id ExprID) source.Span {
	if expr := e.Get(id); expr != nil {
		return expr.Span
	}
	return source.Span{}
}

func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	payload := e.Idents.Allocate(ExprIdentData{Name: name})
	return e.new(ExprIdent, span, PayloadID(payload))
}

func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIdent {
		return nil, false
	}
	return e.Idents.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewIntLit(span source.Span, value int64) ExprID {
	payload := e.Ints.Allocate(ExprIntData{Value: value})
	return e.new(ExprIntLit, span, PayloadID(payload))
}

func (e *Exprs) IntLit(id ExprID) (*ExprIntData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIntLit {
		return nil, false
	}
	return e.Ints.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewBoolLit(span source.Span, value bool) ExprID {
	payload := e.Bools.Allocate(ExprBoolData{Value: value})
	return e.new(ExprBoolLit, span, PayloadID(payload))
}

func (e *Exprs) BoolLit(id ExprID) (*ExprBoolData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBoolLit {
		return nil, false
	}
	return e.Bools.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewUnary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	payload := e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand})
	return e.new(ExprUnary, span, PayloadID(payload))
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprUnary {
		return nil, false
	}
	return e.Unaries.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	payload := e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right})
	return e.new(ExprBinary, span, PayloadID(payload))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBinary {
		return nil, false
	}
	return e.Binaries.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID, genericArgs []GenericArg) ExprID {
	payload := e.Calls.Allocate(ExprCallData{Callee: callee, Args: args, GenericArgs: genericArgs})
	return e.new(ExprCall, span, PayloadID(payload))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCall {
		return nil, false
	}
	return e.Calls.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewMember(span source.Span, target ExprID, field source.StringID) ExprID {
	payload := e.Members.Allocate(ExprMemberData{Target: target, Field: field})
	return e.new(ExprMember, span, PayloadID(payload))
}

func (e *Exprs) Member(id ExprID) (*ExprMemberData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprMember {
		return nil, false
	}
	return e.Members.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewIndex(span source.Span, target, index ExprID) ExprID {
	payload := e.Indices.Allocate(ExprIndexData{Target: target, Index: index})
	return e.new(ExprIndex, span, PayloadID(payload))
}

func (e *Exprs) Index(id ExprID) (*ExprIndexData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIndex {
		return nil, false
	}
	return e.Indices.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewCast(span source.Span, typ TypeID, value ExprID) ExprID {
	payload := e.Casts.Allocate(ExprCastData{Type: typ, Value: value})
	return e.new(ExprCast, span, PayloadID(payload))
}

func (e *Exprs) Cast(id ExprID) (*ExprCastData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCast {
		return nil, false
	}
	return e.Casts.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewSizeof(span source.Span, typ TypeID) ExprID {
	payload := e.Sizeofs.Allocate(ExprSizeofData{Type: typ})
	return e.new(ExprSizeof, span, PayloadID(payload))
}

func (e *Exprs) Sizeof(id ExprID) (*ExprSizeofData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprSizeof {
		return nil, false
	}
	return e.Sizeofs.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewSizeofPack(span source.Span, pack source.StringID) ExprID {
	payload := e.SizeofPacks.Allocate(ExprSizeofPackData{Pack: pack})
	return e.new(ExprSizeofPack, span, PayloadID(payload))
}

func (e *Exprs) SizeofPack(id ExprID) (*ExprSizeofPackData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprSizeofPack {
		return nil, false
	}
	return e.SizeofPacks.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewFold(span source.Span, op BinaryOp, pattern, seed ExprID, right bool) ExprID {
	payload := e.Folds.Allocate(ExprFoldData{Op: op, Pattern: pattern, Seed: seed, Right: right})
	return e.new(ExprFold, span, PayloadID(payload))
}

func (e *Exprs) Fold(id ExprID) (*ExprFoldData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprFold {
		return nil, false
	}
	return e.Folds.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewRequires(span source.Span, reqs []ExprID) ExprID {
	payload := e.Requires.Allocate(ExprRequiresData{Reqs: reqs})
	return e.new(ExprRequires, span, PayloadID(payload))
}

func (e *Exprs) RequiresBlock(id ExprID) (*ExprRequiresData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprRequires {
		return nil, false
	}
	return e.Requires.Get(uint32(expr.Payload)), true
}
