package template

import (
	"fmt"

	"vesper/internal/ast"
	"vesper/internal/source"
	"vesper/internal/types"
)

// Result is the outcome of evaluating a constraint predicate. Evaluation
// never raises hard errors; callers branch on Satisfied and surface the
// detail fields when every candidate has been exhausted.
type Result struct {
	Satisfied         bool
	Message           string
	FailedRequirement string
	Suggestion        string
}

func satisfied() Result {
	return Result{Satisfied: true}
}

func unsatisfied(req, format string, args ...any) Result {
	return Result{
		Satisfied:         false,
		Message:           fmt.Sprintf(format, args...),
		FailedRequirement: req,
	}
}

// Evaluate checks a constraint predicate against a candidate binding. Any
// predicate shape the evaluator does not recognize defaults to satisfied, so
// unmodeled constructs never block otherwise-valid code.
func Evaluate(ctx *Context, b *Binding, pred ast.ExprID) Result {
	if !pred.IsValid() {
		return satisfied()
	}
	expr := ctx.Builder.Exprs.Get(pred)
	if expr == nil {
		return satisfied()
	}
	e := ctx.Builder.Exprs
	switch expr.Kind {
	case ast.ExprBoolLit:
		data, _ := e.BoolLit(pred)
		if data.Value {
			return satisfied()
		}
		return unsatisfied("false", "constraint is literally false")

	case ast.ExprIntLit:
		data, _ := e.IntLit(pred)
		if data.Value != 0 {
			return satisfied()
		}
		return unsatisfied("0", "constraint is literally zero")

	case ast.ExprIdent:
		data, _ := e.Ident(pred)
		name := ctx.lookupName(data.Name)
		if trait, ok := traits[name]; ok {
			// A bare trait name applies to the first bound argument.
			if len(b.Args) == 0 {
				return satisfied()
			}
			return evalTrait(ctx, name, trait, []Argument{b.Args[0]}, expr.Span)
		}
		if concept, ok := conceptOf(ctx, data.Name); ok {
			return Evaluate(ctx, b, concept.Pred)
		}
		return satisfied()

	case ast.ExprUnary:
		data, _ := e.Unary(pred)
		if data.Op == ast.UnaryNot {
			inner := Evaluate(ctx, b, data.Operand)
			if inner.Satisfied {
				return unsatisfied(renderRequirement(ctx, pred), "negated constraint holds")
			}
			return satisfied()
		}
		return satisfied()

	case ast.ExprBinary:
		return evaluateBinary(ctx, b, pred, expr)

	case ast.ExprCall:
		return evaluateCall(ctx, b, pred, expr)

	case ast.ExprRequires:
		return evaluateRequires(ctx, b, pred, expr)
	}
	return satisfied()
}

func evaluateBinary(ctx *Context, b *Binding, pred ast.ExprID, expr *ast.Expr) Result {
	data, _ := ctx.Builder.Exprs.Binary(pred)
	switch data.Op {
	case ast.BinLAnd:
		left := Evaluate(ctx, b, data.Left)
		if !left.Satisfied {
			return left
		}
		return Evaluate(ctx, b, data.Right)
	case ast.BinLOr:
		left := Evaluate(ctx, b, data.Left)
		if left.Satisfied {
			return left
		}
		right := Evaluate(ctx, b, data.Right)
		if right.Satisfied {
			return right
		}
		// Surface the first branch's detail.
		return left
	case ast.BinEq, ast.BinNe, ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe:
		// Relations over constant integers. A side that cannot reduce to a
		// constant leaves the relation conservatively satisfied.
		v, fail := EvalConst(ctx, b, pred)
		if fail != nil {
			return satisfied()
		}
		holds, ok := v.AsBool()
		if !ok || holds {
			return satisfied()
		}
		return unsatisfied(renderRequirement(ctx, pred), "constant relation does not hold")
	}
	return satisfied()
}

func evaluateCall(ctx *Context, b *Binding, pred ast.ExprID, expr *ast.Expr) Result {
	data, _ := ctx.Builder.Exprs.Call(pred)
	calleeData, ok := ctx.Builder.Exprs.Ident(data.Callee)
	if !ok {
		return satisfied()
	}
	name := ctx.lookupName(calleeData.Name)

	if trait, ok := traits[name]; ok {
		operands := make([]Argument, 0, len(data.Args))
		for _, argExpr := range data.Args {
			operand, ok := resolveOperand(ctx, b, argExpr)
			if !ok {
				return satisfied()
			}
			operands = append(operands, operand)
		}
		return evalTrait(ctx, name, trait, operands, expr.Span)
	}

	if concept, ok := conceptOf(ctx, calleeData.Name); ok {
		// Explicit arguments first resolve against the outer binding, then
		// rebind under the concept's own parameter names.
		args := make([]Argument, 0, len(data.Args))
		for _, argExpr := range data.Args {
			operand, ok := resolveOperand(ctx, b, argExpr)
			if !ok {
				return satisfied()
			}
			args = append(args, operand)
		}
		decl, _ := ctx.Registry.Lookup(calleeData.Name)
		inner, fail := NewBinding(ctx.Builder.Decls, decl, concept.Params, args, expr.Span)
		if fail != nil {
			return unsatisfied(renderRequirement(ctx, pred), "%s", fail.Message)
		}
		inner.Enclosing = b
		return Evaluate(ctx, inner, concept.Pred)
	}

	// A call to a constrained generic function checks that function's own
	// predicate via positional parameter mapping.
	if fn, fnDecl, ok := constrainedFnOf(ctx, calleeData.Name); ok {
		args := make([]Argument, 0, len(data.Args))
		for _, argExpr := range data.Args {
			operand, ok := resolveOperand(ctx, b, argExpr)
			if !ok {
				return satisfied()
			}
			args = append(args, operand)
		}
		inner, fail := NewBinding(ctx.Builder.Decls, fnDecl, fn.Params, args, expr.Span)
		if fail != nil {
			return unsatisfied(renderRequirement(ctx, pred), "%s", fail.Message)
		}
		inner.Enclosing = b
		inner2 := Evaluate(ctx, inner, fn.Where)
		if !inner2.Satisfied && inner2.FailedRequirement == "" {
			inner2.FailedRequirement = renderRequirement(ctx, pred)
		}
		return inner2
	}
	return satisfied()
}

func evaluateRequires(ctx *Context, b *Binding, pred ast.ExprID, expr *ast.Expr) Result {
	data, _ := ctx.Builder.Exprs.RequiresBlock(pred)
	for _, req := range data.Reqs {
		if !req.IsValid() {
			// A requirement that failed to parse under constraint context is
			// a false marker, not an error.
			return unsatisfied("<ill-formed requirement>", "requirement is not well formed")
		}
		res := Evaluate(ctx, b, req)
		if !res.Satisfied {
			if res.FailedRequirement == "" {
				res.FailedRequirement = renderRequirement(ctx, req)
			}
			return res
		}
	}
	return satisfied()
}

func conceptOf(ctx *Context, name source.StringID) (*ast.DeclConceptData, bool) {
	decl, ok := ctx.Registry.Lookup(name)
	if !ok {
		return nil, false
	}
	return ctx.Builder.Decls.Concept(decl)
}

func constrainedFnOf(ctx *Context, name source.StringID) (*ast.DeclFnData, ast.DeclID, bool) {
	decl, ok := ctx.Registry.Lookup(name)
	if !ok {
		return nil, ast.NoDeclID, false
	}
	fn, ok := ctx.Builder.Decls.Fn(decl)
	if !ok || !fn.Where.IsValid() {
		return nil, ast.NoDeclID, false
	}
	return fn, decl, true
}

// resolveOperand resolves one trait/concept operand expression against the
// binding. Unresolvable operands report !ok, which callers treat leniently.
func resolveOperand(ctx *Context, b *Binding, id ast.ExprID) (Argument, bool) {
	expr := ctx.Builder.Exprs.Get(id)
	if expr == nil {
		return Argument{}, false
	}
	if expr.Kind == ast.ExprIdent {
		data, _ := ctx.Builder.Exprs.Ident(id)
		if arg, ok := b.Lookup(data.Name); ok {
			return arg, true
		}
		if builtin, ok := ctx.builtinType(ctx.lookupName(data.Name)); ok {
			return TypeArg(builtin), true
		}
	}
	if v, fail := EvalConst(ctx, b, id); fail == nil {
		if iv, ok := v.AsInt(); ok {
			return ValueArg(iv, v.Type), true
		}
		if bv, ok := v.AsBool(); ok {
			n := int64(0)
			if bv {
				n = 1
			}
			return ValueArg(n, ctx.Catalog.Builtins().Bool), true
		}
	}
	return Argument{}, false
}

// traitFunc checks one built-in type-relationship predicate over resolved
// operands.
type traitFunc func(ctx *Context, operands []Argument) bool

var traits = map[string]traitFunc{
	"is_integral":  func(ctx *Context, ops []Argument) bool { return operandKindIn(ctx, ops, types.KindInt, types.KindUint) },
	"is_floating":  func(ctx *Context, ops []Argument) bool { return operandKindIn(ctx, ops, types.KindFloat) },
	"is_signed":    func(ctx *Context, ops []Argument) bool { return operandKindIn(ctx, ops, types.KindInt, types.KindFloat) },
	"is_unsigned":  func(ctx *Context, ops []Argument) bool { return operandKindIn(ctx, ops, types.KindUint) },
	"is_bool":      func(ctx *Context, ops []Argument) bool { return operandKindIn(ctx, ops, types.KindBool) },
	"is_pointer":   func(ctx *Context, ops []Argument) bool { return operandKindIn(ctx, ops, types.KindPointer) },
	"is_reference": func(ctx *Context, ops []Argument) bool { return operandKindIn(ctx, ops, types.KindReference) },
	"is_array":     func(ctx *Context, ops []Argument) bool { return operandKindIn(ctx, ops, types.KindArray) },
	"is_const":     func(ctx *Context, ops []Argument) bool { return operandHasQual(ctx, ops, types.QualConst) },
	"is_volatile":  func(ctx *Context, ops []Argument) bool { return operandHasQual(ctx, ops, types.QualVolatile) },
	"same_type":    sameType,
}

func evalTrait(ctx *Context, name string, trait traitFunc, operands []Argument, span source.Span) Result {
	for _, op := range operands {
		if op.IsDependent {
			// Dependent operands cannot fail a trait yet.
			return satisfied()
		}
	}
	if trait(ctx, operands) {
		return satisfied()
	}
	res := unsatisfied(name, "trait %s does not hold", name)
	if len(operands) > 0 && operands[0].Kind == ArgTypeKind {
		res.Suggestion = fmt.Sprintf("argument resolves to %s",
			ctx.Catalog.Display(operands[0].Materialize(ctx.Catalog), ctx.Strings))
	}
	return res
}

// operandType resolves the first operand's type, looking through aliases.
func operandType(ctx *Context, ops []Argument) (types.Type, bool) {
	if len(ops) == 0 || ops[0].Kind != ArgTypeKind {
		return types.Type{}, false
	}
	id := ctx.Catalog.ResolveAlias(ops[0].Materialize(ctx.Catalog))
	return ctx.Catalog.Lookup(id)
}

func operandKindIn(ctx *Context, ops []Argument, kinds ...types.Kind) bool {
	tt, ok := operandType(ctx, ops)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if tt.Kind == k {
			return true
		}
	}
	return false
}

func operandHasQual(ctx *Context, ops []Argument, qual types.Qual) bool {
	if len(ops) > 0 && ops[0].Kind == ArgTypeKind && ops[0].Quals&qual != 0 {
		return true
	}
	tt, ok := operandType(ctx, ops)
	return ok && tt.Quals&qual != 0
}

func sameType(ctx *Context, ops []Argument) bool {
	if len(ops) < 2 {
		return false
	}
	first := ops[0]
	if first.Kind != ArgTypeKind {
		return false
	}
	a := ctx.Catalog.ResolveAlias(first.Materialize(ctx.Catalog))
	for _, op := range ops[1:] {
		if op.Kind != ArgTypeKind {
			return false
		}
		if ctx.Catalog.ResolveAlias(op.Materialize(ctx.Catalog)) != a {
			return false
		}
	}
	return true
}

// renderRequirement spells a predicate subtree for diagnostics.
func renderRequirement(ctx *Context, id ast.ExprID) string {
	expr := ctx.Builder.Exprs.Get(id)
	if expr == nil {
		return "<unknown>"
	}
	e := ctx.Builder.Exprs
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := e.Ident(id)
		return ctx.lookupName(data.Name)
	case ast.ExprIntLit:
		data, _ := e.IntLit(id)
		return fmt.Sprintf("%d", data.Value)
	case ast.ExprBoolLit:
		data, _ := e.BoolLit(id)
		return fmt.Sprintf("%t", data.Value)
	case ast.ExprUnary:
		data, _ := e.Unary(id)
		if data.Op == ast.UnaryNot {
			return "!" + renderRequirement(ctx, data.Operand)
		}
		return renderRequirement(ctx, data.Operand)
	case ast.ExprBinary:
		data, _ := e.Binary(id)
		return fmt.Sprintf("%s %s %s",
			renderRequirement(ctx, data.Left), data.Op, renderRequirement(ctx, data.Right))
	case ast.ExprCall:
		data, _ := e.Call(id)
		out := renderRequirement(ctx, data.Callee) + "("
		for i, arg := range data.Args {
			if i > 0 {
				out += ", "
			}
			out += renderRequirement(ctx, arg)
		}
		return out + ")"
	case ast.ExprSizeof:
		return "sizeof(...)"
	case ast.ExprSizeofPack:
		data, _ := e.SizeofPack(id)
		return "sizeof...(" + ctx.lookupName(data.Pack) + ")"
	}
	return "<requirement>"
}
