package template

import (
	"vesper/internal/ast"
	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/types"
)

// ValueKind tags the compile-time Value union.
type ValueKind uint8

const (
	ValInt ValueKind = iota
	ValBool
)

// Value is a compile-time constant produced by the evaluator.
type Value struct {
	Kind ValueKind
	Int  int64
	Bool bool
	// Type is the value's declared type when known; NoTypeID otherwise.
	Type types.TypeID
}

func IntValue(v int64, typ types.TypeID) Value {
	return Value{Kind: ValInt, Int: v, Type: typ}
}

func BoolValue(v bool, typ types.TypeID) Value {
	return Value{Kind: ValBool, Bool: v, Type: typ}
}

// AsInt returns the value as an integer; booleans do not coerce.
func (v Value) AsInt() (int64, bool) {
	if v.Kind != ValInt {
		return 0, false
	}
	return v.Int, true
}

// AsBool returns the value as a boolean; integers do not coerce.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != ValBool {
		return false, false
	}
	return v.Bool, true
}

// EvalConst reduces an expression under a binding to a compile-time
// constant. Non-constant shapes are soft failures so overload machinery and
// the constraint evaluator can treat them as "not reducible" rather than
// aborting; names owned by an enclosing unbound generic defer instead.
func EvalConst(ctx *Context, b *Binding, id ast.ExprID) (Value, *Failure) {
	expr := ctx.Builder.Exprs.Get(id)
	if expr == nil {
		return Value{}, hardf(diag.TplSubstFailed, source.Span{}, "missing expression node")
	}
	bi := ctx.Catalog.Builtins()
	switch expr.Kind {
	case ast.ExprIntLit:
		data, _ := ctx.Builder.Exprs.IntLit(id)
		return IntValue(data.Value, bi.Int), nil

	case ast.ExprBoolLit:
		data, _ := ctx.Builder.Exprs.BoolLit(id)
		return BoolValue(data.Value, bi.Bool), nil

	case ast.ExprIdent:
		data, _ := ctx.Builder.Exprs.Ident(id)
		if arg, ok := b.Lookup(data.Name); ok {
			if arg.Kind == ArgValueKind {
				return IntValue(arg.Value, arg.ValueType), nil
			}
			return Value{}, softf(diag.TplArgKindMismatch, expr.Span,
				"%s is a type, used where a constant value is required", ctx.lookupName(data.Name))
		}
		if rec, ok := ctx.constRecord(data.Name); ok && rec.HasValue {
			return IntValue(rec.Value, rec.ValueType), nil
		}
		if b.IsUnboundOuter(data.Name) {
			return Value{}, deferredf(expr.Span, "%s depends on an unbound enclosing generic",
				ctx.lookupName(data.Name))
		}
		return Value{}, softf(diag.TplSubstFailed, expr.Span,
			"%s is not a constant", ctx.lookupName(data.Name))

	case ast.ExprUnary:
		data, _ := ctx.Builder.Exprs.Unary(id)
		v, fail := EvalConst(ctx, b, data.Operand)
		if fail != nil {
			return Value{}, fail
		}
		switch data.Op {
		case ast.UnaryNeg:
			if iv, ok := v.AsInt(); ok {
				return IntValue(-iv, v.Type), nil
			}
		case ast.UnaryNot:
			if bv, ok := v.AsBool(); ok {
				return BoolValue(!bv, bi.Bool), nil
			}
		}
		return Value{}, softf(diag.TplSubstFailed, expr.Span, "operand is not a constant of the right kind")

	case ast.ExprBinary:
		return evalConstBinary(ctx, b, id, expr)

	case ast.ExprSizeof:
		data, _ := ctx.Builder.Exprs.Sizeof(id)
		typ, fail := ResolveType(ctx, b, data.Type)
		if fail != nil {
			return Value{}, fail
		}
		size, ok := ctx.Catalog.SizeOf(typ)
		if !ok {
			if ctx.Catalog.IsDependent(typ) {
				return Value{}, deferredf(expr.Span, "sizeof of a dependent type")
			}
			// Sizing may require layout on an instance tracked lazily.
			if RequirePhase(ctx, typ, PhaseLayout) == nil {
				if size, ok = ctx.Catalog.SizeOf(typ); ok {
					return IntValue(size, bi.Int), nil
				}
			}
			return Value{}, softf(diag.TplIncompleteType, expr.Span,
				"sizeof of incomplete type %s", ctx.Catalog.Display(typ, ctx.Strings))
		}
		return IntValue(size, bi.Int), nil

	case ast.ExprSizeofPack:
		data, _ := ctx.Builder.Exprs.SizeofPack(id)
		n, fail := packSize(ctx, b, data.Pack, expr.Span)
		if fail != nil {
			return Value{}, fail
		}
		return IntValue(int64(n), bi.Int), nil

	case ast.ExprCast:
		data, _ := ctx.Builder.Exprs.Cast(id)
		v, fail := EvalConst(ctx, b, data.Value)
		if fail != nil {
			return Value{}, fail
		}
		typ, fail := ResolveType(ctx, b, data.Type)
		if fail != nil {
			return Value{}, fail
		}
		v.Type = typ
		return v, nil
	}
	return Value{}, softf(diag.TplSubstFailed, expr.Span, "expression is not a constant")
}

func evalConstBinary(ctx *Context, b *Binding, id ast.ExprID, expr *ast.Expr) (Value, *Failure) {
	data, _ := ctx.Builder.Exprs.Binary(id)
	bi := ctx.Catalog.Builtins()

	// Logical operators short-circuit so the unevaluated side may be
	// non-constant without failing the whole expression.
	switch data.Op {
	case ast.BinLAnd:
		lv, fail := EvalConst(ctx, b, data.Left)
		if fail != nil {
			return Value{}, fail
		}
		lb, ok := lv.AsBool()
		if !ok {
			return Value{}, softf(diag.TplSubstFailed, expr.Span, "&& requires boolean constants")
		}
		if !lb {
			return BoolValue(false, bi.Bool), nil
		}
		rv, fail := EvalConst(ctx, b, data.Right)
		if fail != nil {
			return Value{}, fail
		}
		rb, ok := rv.AsBool()
		if !ok {
			return Value{}, softf(diag.TplSubstFailed, expr.Span, "&& requires boolean constants")
		}
		return BoolValue(rb, bi.Bool), nil
	case ast.BinLOr:
		lv, fail := EvalConst(ctx, b, data.Left)
		if fail != nil {
			return Value{}, fail
		}
		lb, ok := lv.AsBool()
		if !ok {
			return Value{}, softf(diag.TplSubstFailed, expr.Span, "|| requires boolean constants")
		}
		if lb {
			return BoolValue(true, bi.Bool), nil
		}
		rv, fail := EvalConst(ctx, b, data.Right)
		if fail != nil {
			return Value{}, fail
		}
		rb, ok := rv.AsBool()
		if !ok {
			return Value{}, softf(diag.TplSubstFailed, expr.Span, "|| requires boolean constants")
		}
		return BoolValue(rb, bi.Bool), nil
	}

	lv, fail := EvalConst(ctx, b, data.Left)
	if fail != nil {
		return Value{}, fail
	}
	rv, fail := EvalConst(ctx, b, data.Right)
	if fail != nil {
		return Value{}, fail
	}

	if data.Op == ast.BinEq || data.Op == ast.BinNe {
		if lb, ok := lv.AsBool(); ok {
			rb, ok := rv.AsBool()
			if !ok {
				return Value{}, softf(diag.TplSubstFailed, expr.Span, "mismatched constant kinds")
			}
			eq := lb == rb
			if data.Op == ast.BinNe {
				eq = !eq
			}
			return BoolValue(eq, bi.Bool), nil
		}
	}

	li, lok := lv.AsInt()
	ri, rok := rv.AsInt()
	if !lok || !rok {
		return Value{}, softf(diag.TplSubstFailed, expr.Span, "operands are not constant integers")
	}

	switch data.Op {
	case ast.BinAdd:
		return IntValue(li+ri, lv.Type), nil
	case ast.BinSub:
		return IntValue(li-ri, lv.Type), nil
	case ast.BinMul:
		return IntValue(li*ri, lv.Type), nil
	case ast.BinDiv:
		if ri == 0 {
			return Value{}, hardf(diag.TplSubstFailed, expr.Span, "division by zero in constant expression")
		}
		return IntValue(li/ri, lv.Type), nil
	case ast.BinRem:
		if ri == 0 {
			return Value{}, hardf(diag.TplSubstFailed, expr.Span, "division by zero in constant expression")
		}
		return IntValue(li%ri, lv.Type), nil
	case ast.BinAnd:
		return IntValue(li&ri, lv.Type), nil
	case ast.BinOr:
		return IntValue(li|ri, lv.Type), nil
	case ast.BinXor:
		return IntValue(li^ri, lv.Type), nil
	case ast.BinEq:
		return BoolValue(li == ri, bi.Bool), nil
	case ast.BinNe:
		return BoolValue(li != ri, bi.Bool), nil
	case ast.BinLt:
		return BoolValue(li < ri, bi.Bool), nil
	case ast.BinLe:
		return BoolValue(li <= ri, bi.Bool), nil
	case ast.BinGt:
		return BoolValue(li > ri, bi.Bool), nil
	case ast.BinGe:
		return BoolValue(li >= ri, bi.Bool), nil
	case ast.BinComma:
		return rv, nil
	}
	return Value{}, softf(diag.TplSubstFailed, expr.Span, "operator is not constant-foldable")
}
