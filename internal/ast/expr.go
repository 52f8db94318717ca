package ast

import (
	"vesper/internal/source"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprIntLit
	ExprBoolLit
	ExprUnary
	ExprBinary
	ExprCall
	ExprMember
	ExprIndex
	ExprCast
	ExprSizeof
	ExprSizeofPack
	ExprFold
	ExprRequires
)

// Expr is the fixed-size arena record; per-kind payloads live in side tables.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota // -
	UnaryNot                // !
	UnaryAddr               // &
	UnaryDeref              // *
)

type BinaryOp uint8

const (
	BinAdd BinaryOp = iota // +
	BinSub                 // -
	BinMul                 // *
	BinDiv                 // /
	BinRem                 // %
	BinAnd                 // &
	BinOr                  // |
	BinXor                 // ^
	BinEq                  // ==
	BinNe                  // !=
	BinLt                  // <
	BinLe                  // <=
	BinGt                  // >
	BinGe                  // >=
	BinLAnd                // &&
	BinLOr                 // ||
	BinComma               // ,
)

var binaryOpNames = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinRem: "%",
	BinAnd: "&", BinOr: "|", BinXor: "^",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
	BinLAnd: "&&", BinLOr: "||", BinComma: ",",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

type ExprIdentData struct {
	Name source.StringID
}

type ExprIntData struct {
	Value int64
}

type ExprBoolData struct {
	Value bool
}

type ExprUnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

type ExprBinaryData struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
	// Explicit generic arguments at the call site: callee<...>(...).
	GenericArgs []GenericArg
}

type ExprMemberData struct {
	Target ExprID
	Field  source.StringID
}

type ExprIndexData struct {
	Target ExprID
	Index  ExprID
}

type ExprCastData struct {
	Type  TypeID
	Value ExprID
}

type ExprSizeofData struct {
	Type TypeID
}

type ExprSizeofPackData struct {
	Pack source.StringID
}

// ExprFoldData describes a fold expression over a parameter pack.
// Unary folds leave Seed invalid; Right selects the associativity.
type ExprFoldData struct {
	Op      BinaryOp
	Pattern ExprID
	Seed    ExprID
	Right   bool
}

// ExprRequiresData lists the requirements of a requires block. A requirement
// that failed to parse under constraint-evaluation context is stored as
// NoExprID and treated as an unsatisfiable marker, not a hard error.
type ExprRequiresData struct {
	Reqs []ExprID
}
