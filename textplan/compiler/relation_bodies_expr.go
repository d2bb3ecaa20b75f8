package compiler

import (
	"strconv"
	"strings"

	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/parser"
	"github.com/wbrown/substraitplan/textplan/pb"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

var setComparisonOps = map[string]pb.ComparisonOp{
	"EQ": pb.ComparisonEQ, "NE": pb.ComparisonNE, "LT": pb.ComparisonLT,
	"LE": pb.ComparisonLE, "GT": pb.ComparisonGT, "GE": pb.ComparisonGE,
}

// buildExpression is spec.md §4.5.3: it turns one expression parse-tree
// node into a pb.Expression, resolving column references against sym
// (the enclosing relation) and linking any subquery encountered to sym as
// its parent query.
func buildExpression(sym *symboltable.Symbol, node *ast.Node, ctx *bodyCtx) *pb.Expression {
	switch node.Kind {
	case ast.RuleExpressionConstant:
		return buildConstant(node, ctx)

	case ast.RuleExpressionColumn:
		return buildColumnReference(sym, node.Field("column"), ctx)

	case ast.RuleExpressionFunctionUse:
		return buildFunctionUse(sym, node, ctx)

	case ast.RuleExpressionCast:
		input := buildExpression(sym, node.Field("input"), ctx)
		typ := ResolveType(node.Field("type"), ctx.cache, ctx.errs)
		return &pb.Expression{Kind: pb.ExprCast, Cast: &pb.CastExpr{Input: input, Type: typ}}

	case ast.RuleExpressionIfThen:
		ifThen := &pb.IfThenExpr{}
		for _, clause := range node.Children {
			ifThen.Clauses = append(ifThen.Clauses, &pb.IfClause{
				If:   buildExpression(sym, clause.Field("if"), ctx),
				Then: buildExpression(sym, clause.Field("then"), ctx),
			})
		}
		ifThen.Else = buildExpression(sym, node.Field("else"), ctx)
		return &pb.Expression{Kind: pb.ExprIfThen, IfThen: ifThen}

	case ast.RuleExpressionScalarSubquery:
		ref := linkSubquery(sym, node.Text, ctx)
		if ref == nil {
			return &pb.Expression{Kind: pb.ExprScalarSubquery, ScalarSubquery: &pb.ScalarSubquery{}}
		}
		return &pb.Expression{Kind: pb.ExprScalarSubquery, ScalarSubquery: &pb.ScalarSubquery{Input: ref.Blob.Relation().Rel}}

	case ast.RuleExpressionInPredicateSubquery:
		ref := linkSubquery(sym, node.Text, ctx)
		needle := buildExpression(sym, node.Field("needle"), ctx)
		if ref == nil {
			return &pb.Expression{Kind: pb.ExprInPredicate, InPredicateSubquery: &pb.InPredicateSubquery{Needles: []*pb.Expression{needle}}}
		}
		return &pb.Expression{Kind: pb.ExprInPredicate, InPredicateSubquery: &pb.InPredicateSubquery{
			Needles:  []*pb.Expression{needle},
			Haystack: ref.Blob.Relation().Rel,
		}}

	case ast.RuleExpressionSetPredicateSubquery:
		ref := linkSubquery(sym, node.Text, ctx)
		sp := &pb.SetPredicateSubquery{Op: pb.SetPredicateExists, Negated: len(node.Strs) > 0 && node.Strs[0] == "NOT_EXISTS"}
		if ref != nil {
			sp.Tuples = ref.Blob.Relation().Rel
		}
		return &pb.Expression{Kind: pb.ExprSetPredicate, SetPredicateSubquery: sp}

	case ast.RuleExpressionSetComparisonSubquery:
		ref := linkSubquery(sym, node.Text, ctx)
		left := buildExpression(sym, node.Field("left"), ctx)
		sc := &pb.SetComparisonSubquery{Left: left}
		if len(node.Strs) == 2 {
			sc.Op = setComparisonOps[node.Strs[0]]
			if node.Strs[1] == "ANY" {
				sc.Quantifier = pb.QuantifierAny
			} else {
				sc.Quantifier = pb.QuantifierAll
			}
		}
		if ref != nil {
			sc.Right = ref.Blob.Relation().Rel
		}
		return &pb.Expression{Kind: pb.ExprSetComparison, SetComparisonSubquery: sc}

	default:
		ctx.errs.Add(SymbolError, node.Pos.Line, node.Pos.Col, "unexpected expression node kind %d", node.Kind)
		return &pb.Expression{}
	}
}

// linkSubquery resolves a `SUBQUERY name` reference, assigns it (and its
// continuing-pipeline chain) as a subquery of parent per spec.md §4.5.3
// step 2, and ensures its own body has been visited before it is used.
func linkSubquery(parent *symboltable.Symbol, name string, ctx *bodyCtx) *symboltable.Symbol {
	ref := ctx.tbl.LookupByName(name)
	if ref == nil {
		ctx.errs.Add(SymbolError, 0, 0, "subquery references undeclared relation %q", name)
		return nil
	}
	visitRelation(ref, ctx)

	idx := ctx.nextSubqueryIx[parent]
	ctx.nextSubqueryIx[parent] = idx + 1

	cur := ref
	for cur != nil {
		cur.ParentQueryLocation = parent.Location
		cur.ParentQueryIndex = idx
		cur.Blob.Relation().PipelineStart = ref
		cur = cur.Blob.Relation().ContinuingPipeline
	}
	return ref
}

func buildConstant(node *ast.Node, ctx *bodyCtx) *pb.Expression {
	tokenKind := ""
	if len(node.Strs) > 0 {
		tokenKind = node.Strs[0]
	}

	if tokenKind == "String" {
		return &pb.Expression{Kind: pb.ExprLiteral, Literal: &pb.Literal{
			Type:   &pb.Type{Kind: pb.TypeString, Nullability: pb.NullabilityRequired},
			String: node.Text,
		}}
	}

	if tokenKind == "TypedLiteral" {
		idx := strings.IndexByte(node.Text, '_')
		if idx < 0 {
			ctx.errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "malformed typed literal %q", node.Text)
			return &pb.Expression{Kind: pb.ExprLiteral, Literal: &pb.Literal{Type: &pb.Type{}}}
		}
		numeral, typeText := node.Text[:idx], node.Text[idx+1:]
		typeNode, err := parser.ParseTypeLiteral(typeText)
		if err != nil {
			ctx.errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "invalid type suffix %q: %v", typeText, err)
			return &pb.Expression{Kind: pb.ExprLiteral, Literal: &pb.Literal{Type: &pb.Type{}}}
		}
		typ := ResolveType(typeNode, ctx.cache, ctx.errs)
		return &pb.Expression{Kind: pb.ExprLiteral, Literal: literalFromText(numeral, typ, ctx, node)}
	}

	// Bare Number: default to fp64 if it looks fractional, else i32.
	typ := &pb.Type{Kind: pb.TypeI32, Nullability: pb.NullabilityRequired}
	if strings.ContainsAny(node.Text, ".eE") {
		typ = &pb.Type{Kind: pb.TypeFP64, Nullability: pb.NullabilityRequired}
	}
	return &pb.Expression{Kind: pb.ExprLiteral, Literal: literalFromText(node.Text, typ, ctx, node)}
}

func literalFromText(text string, typ *pb.Type, ctx *bodyCtx, node *ast.Node) *pb.Literal {
	lit := &pb.Literal{Type: typ, Nullable: typ.Nullability == pb.NullabilityNullable}
	switch typ.Kind {
	case pb.TypeBool:
		lit.Bool = text == "true"
	case pb.TypeI8, pb.TypeI16, pb.TypeI32:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			ctx.errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "invalid integer literal %q", text)
		}
		lit.I32 = int32(v)
	case pb.TypeI64:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			ctx.errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "invalid integer literal %q", text)
		}
		lit.I64 = v
	case pb.TypeFP32:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			ctx.errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "invalid float literal %q", text)
		}
		lit.FP32 = float32(v)
	case pb.TypeDecimal, pb.TypeFP64:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			ctx.errs.Add(TypeError, node.Pos.Line, node.Pos.Col, "invalid float literal %q", text)
		}
		lit.FP64 = v
	default:
		lit.String = text
	}
	return lit
}

// buildColumnReference resolves a column_name node against sym via
// spec.md §4.5.2's lookup and produces a FieldReference. The steps_out
// this assigns is provisional; Pass 5 recomputes it once subquery
// linkage is final.
func buildColumnReference(sym *symboltable.Symbol, col *ast.Node, ctx *bodyCtx) *pb.Expression {
	qualifier, bare := "", col.Text
	if len(col.Strs) == 2 {
		qualifier, bare = col.Strs[0], col.Strs[1]
	}
	// A lookup failure here is not necessarily an error: sym's
	// parent_query_location may not be linked yet (linkSubquery only
	// assigns it after the referenced relation's own body finishes
	// visiting), so an outer reference can legitimately fail to resolve
	// at this point. Pass 5 re-walks with final linkage and is the one
	// that raises "unresolved column" diagnostics.
	stepsOut, index, ok := lookupColumn(sym, qualifier, bare, col.Text, ctx)
	if !ok {
		return &pb.Expression{Kind: pb.ExprFieldReference, FieldReference: &pb.FieldReference{RootType: pb.RootReference}}
	}
	root := pb.RootReference
	if stepsOut > 0 {
		root = pb.OuterReference
	}
	return &pb.Expression{Kind: pb.ExprFieldReference, FieldReference: &pb.FieldReference{
		RootType: root,
		StepsOut: int32(stepsOut),
		Field:    int32(index),
	}}
}

func buildFunctionUse(sym *symboltable.Symbol, node *ast.Node, ctx *bodyCtx) *pb.Expression {
	fnSym := ctx.tbl.LookupByName(node.Text)
	var anchor uint32
	if fnSym == nil {
		ctx.errs.Add(SymbolError, node.Pos.Line, node.Pos.Col, "call to undeclared function %q", node.Text)
	} else {
		anchor = fnSym.Blob.Function().FunctionAnchor
	}

	var args []*pb.FunctionArgument
	for _, argNode := range node.Children {
		if len(argNode.Strs) > 0 && argNode.Strs[0] == "enum" {
			args = append(args, &pb.FunctionArgument{Enum: argNode.Text})
			continue
		}
		args = append(args, &pb.FunctionArgument{Value: buildExpression(sym, argNode.Field("expr"), ctx)})
	}

	sf := &pb.ScalarFunction{FunctionReference: anchor, Arguments: args}
	if outType := node.Field("outputType"); outType != nil {
		sf.OutputType = ResolveType(outType, ctx.cache, ctx.errs)
	}
	return &pb.Expression{Kind: pb.ExprScalarFunction, ScalarFunction: sf}
}
