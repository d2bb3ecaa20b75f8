package compiler

import (
	"sort"

	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/pb"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// FixupSubqueries is Pass 5 (spec.md §4.6). Pass 4 built every subquery
// relation's expressions as if their column references resolved in the
// subquery's own scope, because parent_query_location is only assigned
// once the subquery's body has finished visiting (see linkSubquery in
// relation_bodies_expr.go). This pass re-walks each subquery relation's
// parse tree now that every parent_query_location in the document is
// final, correcting any FieldReference that actually resolves in an
// enclosing query, then populates sub_query_pipelines.
func FixupSubqueries(tbl *symboltable.Table, errs *ErrorListener) {
	ctx := &bodyCtx{tbl: tbl, errs: errs, nextSubqueryIx: map[*symboltable.Symbol]int{}}
	for _, sym := range tbl.OfType(symboltable.Relation) {
		if !sym.IsSubquery() {
			continue
		}
		fixupRelationBody(sym, ctx)
	}
	populateSubQueryPipelines(tbl)
}

// fixupRelationBody re-walks one subquery relation's property details,
// locating the pb.Expression each ExpressionColumn occurrence already
// built (in processRelationBody) by mirroring the same traversal order,
// and corrects it in place.
func fixupRelationBody(sym *symboltable.Symbol, ctx *bodyCtx) {
	data := sym.Blob.Relation()
	if data.DeclNode == nil {
		return
	}
	rel := data.Rel
	projIdx, groupIdx, measureIdx, sortIdx := 0, 0, 0, 0

	for _, detail := range data.DeclNode.Children {
		switch detail.Kind {
		case ast.RuleRelationFilter:
			if rel.Kind == pb.RelFilter {
				fixupExpression(sym, detail.Field("expr"), rel.Filter.Condition, ctx)
			}

		case ast.RuleRelationExpression:
			exprNode := detail.Field("expr")
			switch rel.Kind {
			case pb.RelProject:
				if projIdx < len(rel.Project.Expressions) {
					fixupExpression(sym, exprNode, rel.Project.Expressions[projIdx], ctx)
				}
				projIdx++
			case pb.RelJoin:
				fixupExpression(sym, exprNode, rel.Join.Expression, ctx)
			case pb.RelHashJoin:
				fixupExpression(sym, exprNode, rel.HashJoin.PostJoinFilter, ctx)
			case pb.RelMergeJoin:
				fixupExpression(sym, exprNode, rel.MergeJoin.PostJoinFilter, ctx)
			}

		case ast.RuleRelationGrouping:
			if rel.Kind == pb.RelAggregate && groupIdx < len(rel.Aggregate.Groupings[0].GroupingExpressions) {
				fixupExpression(sym, detail.Field("expr"), rel.Aggregate.Groupings[0].GroupingExpressions[groupIdx], ctx)
			}
			groupIdx++

		case ast.RuleRelationMeasure:
			if rel.Kind == pb.RelAggregate && measureIdx < len(rel.Aggregate.Measures) {
				fixupAggregateFunctionArgs(sym, detail.Field("expr"), rel.Aggregate.Measures[measureIdx].Measure, ctx)
			}
			measureIdx++

		case ast.RuleRelationSort:
			if rel.Kind == pb.RelSort && sortIdx < len(rel.Sort.Sorts) {
				fixupExpression(sym, detail.Field("expr"), rel.Sort.Sorts[sortIdx].Expr, ctx)
			}
			sortIdx++
		}
	}
}

// fixupExpression walks an astNode/pb.Expression pair in lockstep —
// identical in shape to how buildExpression originally constructed expr
// from node — and corrects any FieldReference leaf's (steps_out, field)
// now that sym's parent-query linkage is final.
func fixupExpression(sym *symboltable.Symbol, node *ast.Node, expr *pb.Expression, ctx *bodyCtx) {
	if node == nil || expr == nil {
		return
	}
	switch node.Kind {
	case ast.RuleExpressionColumn:
		if expr.Kind != pb.ExprFieldReference {
			return
		}
		col := node.Field("column")
		qualifier, bare := "", col.Text
		if len(col.Strs) == 2 {
			qualifier, bare = col.Strs[0], col.Strs[1]
		}
		stepsOut, index, ok := lookupColumn(sym, qualifier, bare, col.Text, ctx)
		if !ok {
			ctx.errs.Add(SymbolError, col.Pos.Line, col.Pos.Col, "unresolved column reference %q", col.Text)
			return
		}
		expr.FieldReference.Field = int32(index)
		expr.FieldReference.StepsOut = 0
		expr.FieldReference.RootType = pb.RootReference
		if stepsOut > 0 {
			expr.FieldReference.RootType = pb.OuterReference
			expr.FieldReference.StepsOut = int32(stepsOut)
		}

	case ast.RuleExpressionFunctionUse:
		if expr.Kind == pb.ExprScalarFunction {
			fixupCallArgs(sym, node, expr.ScalarFunction.Arguments, ctx)
		}

	case ast.RuleExpressionCast:
		if expr.Kind == pb.ExprCast {
			fixupExpression(sym, node.Field("input"), expr.Cast.Input, ctx)
		}

	case ast.RuleExpressionIfThen:
		if expr.Kind != pb.ExprIfThen {
			return
		}
		for i, clause := range node.Children {
			if i >= len(expr.IfThen.Clauses) {
				break
			}
			fixupExpression(sym, clause.Field("if"), expr.IfThen.Clauses[i].If, ctx)
			fixupExpression(sym, clause.Field("then"), expr.IfThen.Clauses[i].Then, ctx)
		}
		fixupExpression(sym, node.Field("else"), expr.IfThen.Else, ctx)

	case ast.RuleExpressionInPredicateSubquery:
		if expr.Kind == pb.ExprInPredicate && len(expr.InPredicateSubquery.Needles) > 0 {
			fixupExpression(sym, node.Field("needle"), expr.InPredicateSubquery.Needles[0], ctx)
		}

	case ast.RuleExpressionSetComparisonSubquery:
		if expr.Kind == pb.ExprSetComparison {
			fixupExpression(sym, node.Field("left"), expr.SetComparisonSubquery.Left, ctx)
		}

	default:
		// Constant, ScalarSubquery, SetPredicateSubquery: no nested
		// column reference of sym's own scope to correct.
	}
}

func fixupAggregateFunctionArgs(sym *symboltable.Symbol, node *ast.Node, fn *pb.AggregateFunction, ctx *bodyCtx) {
	if node == nil || fn == nil || node.Kind != ast.RuleExpressionFunctionUse {
		return
	}
	fixupCallArgs(sym, node, fn.Arguments, ctx)
}

func fixupCallArgs(sym *symboltable.Symbol, node *ast.Node, args []*pb.FunctionArgument, ctx *bodyCtx) {
	argIdx := 0
	for _, argNode := range node.Children {
		if len(argNode.Strs) > 0 && argNode.Strs[0] == "enum" {
			continue
		}
		if argIdx < len(args) {
			fixupExpression(sym, argNode.Field("expr"), args[argIdx].Value, ctx)
		}
		argIdx++
	}
}

// populateSubQueryPipelines implements spec.md §4.6's closing step: a
// relation is a subquery pipeline terminus when it has a
// parent_query_index but is not itself any other relation's
// continuing_pipeline/new_pipelines upstream (nothing downstream
// consumes it within the document's wiring). Each terminus attaches to
// the relation at its parent_query_location, ordered by
// parent_query_index.
func populateSubQueryPipelines(tbl *symboltable.Table) {
	consumed := map[*symboltable.Symbol]bool{}
	for _, sym := range tbl.OfType(symboltable.Relation) {
		d := sym.Blob.Relation()
		if d.ContinuingPipeline != nil {
			consumed[d.ContinuingPipeline] = true
		}
		for _, up := range d.NewPipelines {
			consumed[up] = true
		}
	}

	type attachment struct {
		parent *symboltable.Symbol
		idx    int
		child  *symboltable.Symbol
	}
	var attachments []attachment
	for _, sym := range tbl.OfType(symboltable.Relation) {
		if sym.ParentQueryIndex < 0 || consumed[sym] {
			continue
		}
		parent := tbl.LookupByLocation(sym.ParentQueryLocation)
		if parent == nil {
			continue
		}
		attachments = append(attachments, attachment{parent, sym.ParentQueryIndex, sym})
	}
	sort.SliceStable(attachments, func(i, j int) bool { return attachments[i].idx < attachments[j].idx })

	for _, a := range attachments {
		data := a.parent.Blob.Relation()
		data.SubQueryPipelines = append(data.SubQueryPipelines, a.child)
	}
}
