package compiler

import (
	"strconv"

	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/pb"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// processRelationBody implements spec.md §4.5.5's property handlers plus
// the §4.5.4 generated-output population, walking sym's relation_detail
// children in declaration order. Each property handler runs immediately
// (so generated_field_references grows incrementally as GROUPING/
// EXPRESSION/MEASURE properties are seen, in source order); only EMIT is
// deferred, since it must see the relation's complete set of generated
// fields regardless of where in the body it was written.
func processRelationBody(sym *symboltable.Symbol, ctx *bodyCtx) {
	data := sym.Blob.Relation()
	rel := data.Rel

	var pendingEmit []*ast.Node

	for _, detail := range data.DeclNode.Children {
		switch detail.Kind {
		case ast.RuleRelationUsesSchema:
			schemaSym := ctx.tbl.LookupByName(detail.Text)
			if schemaSym == nil {
				ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "undeclared schema %q", detail.Text)
				continue
			}
			data.BaseSchema = schemaSym

		case ast.RuleRelationSourceReference:
			srcSym := ctx.tbl.LookupByName(detail.Text)
			if srcSym == nil {
				ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "undeclared source %q", detail.Text)
				continue
			}
			data.SourceSym = srcSym

		case ast.RuleRelationFilter:
			expr := buildExpression(sym, detail.Field("expr"), ctx)
			if rel.Kind != pb.RelFilter {
				ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "FILTER is not valid on a %q relation", sym.Name)
				continue
			}
			rel.Filter.Condition = expr

		case ast.RuleRelationExpression:
			handleExpressionProperty(sym, rel, detail, ctx)

		case ast.RuleRelationGrouping:
			if rel.Kind != pb.RelAggregate {
				ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "GROUPING is not valid on a %q relation", sym.Name)
				continue
			}
			exprNode := detail.Field("expr")
			expr := buildExpression(sym, exprNode, ctx)
			rel.Aggregate.Groupings[0].GroupingExpressions = append(rel.Aggregate.Groupings[0].GroupingExpressions, expr)
			if exprNode.Kind == ast.RuleExpressionColumn {
				if colSym, ok := resolveOwnFieldSymbol(sym, exprNode.Field("column"), ctx); ok {
					data.GeneratedFieldReferences = append(data.GeneratedFieldReferences, colSym)
				}
			}

		case ast.RuleRelationMeasure:
			handleMeasureProperty(sym, rel, detail, ctx)

		case ast.RuleRelationSort:
			if rel.Kind != pb.RelSort {
				ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "SORT is not valid on a %q relation", sym.Name)
				continue
			}
			expr := buildExpression(sym, detail.Field("expr"), ctx)
			rel.Sort.Sorts = append(rel.Sort.Sorts, &pb.SortField{Expr: expr, Direction: sortDirectionFromWord(detail.Text)})

		case ast.RuleRelationCount:
			n, _ := strconv.ParseInt(detail.Text, 10, 64)
			if rel.Kind != pb.RelFetch {
				ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "COUNT is not valid on a %q relation", sym.Name)
				continue
			}
			rel.Fetch.Count = n

		case ast.RuleRelationOffset:
			n, _ := strconv.ParseInt(detail.Text, 10, 64)
			if rel.Kind != pb.RelFetch {
				ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "OFFSET is not valid on a %q relation", sym.Name)
				continue
			}
			rel.Fetch.Offset = n

		case ast.RuleRelationJoinType:
			data.JoinTypeWord = detail.Text
			jt := joinTypeFromWord(detail.Text)
			switch rel.Kind {
			case pb.RelJoin:
				rel.Join.Type = jt
			case pb.RelHashJoin:
				rel.HashJoin.Type = jt
			case pb.RelMergeJoin:
				rel.MergeJoin.Type = jt
			default:
				ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "TYPE is not valid on a %q relation", sym.Name)
			}

		case ast.RuleRelationEmit:
			pendingEmit = append(pendingEmit, detail.Field("column"))

		default:
			ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "unexpected relation detail kind %d", detail.Kind)
		}
	}

	finalizeSourceBinding(sym, rel, data, ctx)

	if rel.Kind == pb.RelAggregate {
		data.OutputFieldReferences = append([]*symboltable.Symbol{}, data.GeneratedFieldReferences...)
	}

	if len(pendingEmit) > 0 {
		data.OutputFieldReferences = nil
		ctx.processingEmit = true
		for _, col := range pendingEmit {
			qualifier, bare := "", col.Text
			if len(col.Strs) == 2 {
				qualifier, bare = col.Strs[0], col.Strs[1]
			}
			idx, ok := lookupInRelation(sym, qualifier, bare, col.Text, ctx)
			if !ok {
				ctx.errs.Add(SymbolError, col.Pos.Line, col.Pos.Col, "EMIT references unresolved column %q", col.Text)
				continue
			}
			combined := append(append([]*symboltable.Symbol{}, data.FieldReferences...), data.GeneratedFieldReferences...)
			data.OutputFieldReferences = append(data.OutputFieldReferences, combined[idx])
		}
		ctx.processingEmit = false
	}
}

// handleExpressionProperty implements the EXPRESSION row of spec.md
// §4.5.5's table: its target depends on the owning relation's kind.
func handleExpressionProperty(sym *symboltable.Symbol, rel *pb.Rel, detail *ast.Node, ctx *bodyCtx) {
	data := sym.Blob.Relation()
	exprNode := detail.Field("expr")
	expr := buildExpression(sym, exprNode, ctx)

	switch rel.Kind {
	case pb.RelProject:
		rel.Project.Expressions = append(rel.Project.Expressions, expr)

		alias := ""
		if a := detail.Field("alias"); a != nil {
			alias = a.Text
		}
		if exprNode.Kind == ast.RuleExpressionColumn {
			if colSym, ok := resolveOwnFieldSymbol(sym, exprNode.Field("column"), ctx); ok {
				if alias != "" {
					ctx.tbl.AddAlias(colSym, alias)
				}
				data.GeneratedFieldReferences = append(data.GeneratedFieldReferences, colSym)
				return
			}
		}
		name := alias
		if name == "" {
			name = "intermediate"
		}
		genSym := ctx.tbl.Define(name, symboltable.Unknown, symboltable.Field, symboltable.KindUnknown, nil)
		data.GeneratedFieldReferences = append(data.GeneratedFieldReferences, genSym)

	case pb.RelJoin:
		rel.Join.Expression = expr

	case pb.RelHashJoin:
		rel.HashJoin.PostJoinFilter = expr

	case pb.RelMergeJoin:
		rel.MergeJoin.PostJoinFilter = expr

	default:
		ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "EXPRESSION is not valid on a %q relation", sym.Name)
	}
}

// handleMeasureProperty implements the MEASURE row: builds an
// AggregateFunction from the measure's function-call expression and mints
// a fresh generated output symbol for it, named after its NAMED alias when
// one is given (made unique by the table).
func handleMeasureProperty(sym *symboltable.Symbol, rel *pb.Rel, detail *ast.Node, ctx *bodyCtx) {
	if rel.Kind != pb.RelAggregate {
		ctx.errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "MEASURE is not valid on a %q relation", sym.Name)
		return
	}
	data := sym.Blob.Relation()

	invocation := pb.InvocationUnspecified
	if inv := detail.Field("invocation"); inv != nil {
		invocation = invocationFromWord(inv.Text)
	}
	fn := buildAggregateFunction(sym, detail.Field("expr"), invocation, ctx)
	rel.Aggregate.Measures = append(rel.Aggregate.Measures, &pb.AggregateMeasure{Measure: fn})

	alias := ""
	if a := detail.Field("alias"); a != nil {
		alias = a.Text
	}
	name := alias
	if name == "" {
		name = "measure"
	}
	genSym := ctx.tbl.Define(name, symboltable.Unknown, symboltable.Measure, symboltable.KindUnknown, nil)
	data.GeneratedFieldReferences = append(data.GeneratedFieldReferences, genSym)
}

// buildAggregateFunction mirrors buildFunctionUse but targets the
// AggregateFunction shape a MEASURE property needs, per spec.md §4.5.5:
// "phase = InitialToResult, invocation from an optional sibling
// INVOCATION detail".
func buildAggregateFunction(sym *symboltable.Symbol, node *ast.Node, invocation pb.AggregateInvocation, ctx *bodyCtx) *pb.AggregateFunction {
	if node.Kind != ast.RuleExpressionFunctionUse {
		ctx.errs.Add(SymbolError, node.Pos.Line, node.Pos.Col, "measure expression must be a function call")
		return &pb.AggregateFunction{Phase: pb.PhaseInitialToResult, Invocation: invocation}
	}

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

	af := &pb.AggregateFunction{FunctionReference: anchor, Arguments: args, Phase: pb.PhaseInitialToResult, Invocation: invocation}
	if outType := node.Field("outputType"); outType != nil {
		af.OutputType = ResolveType(outType, ctx.cache, ctx.errs)
	}
	return af
}

// finalizeSourceBinding fills in the table-shaped fields a Read/Ddl/Write
// relation's SOURCE (and, for Read, BASE_SCHEMA) binding resolves to,
// once the whole body has been walked.
func finalizeSourceBinding(sym *symboltable.Symbol, rel *pb.Rel, data *symboltable.RelationData, ctx *bodyCtx) {
	switch rel.Kind {
	case pb.RelRead:
		if data.BaseSchema != nil {
			rel.Read.BaseSchema = buildNamedStruct(data.BaseSchema, ctx.tbl)
		}
		if data.SourceSym != nil {
			src := data.SourceSym.Blob.Source()
			if src.Kind == "NAMED_TABLE" {
				rel.Read.NamedTable = src.Names
			} else {
				rel.Read.FileOrTableDetail = src.Detail
			}
		}
	case pb.RelDdl:
		if data.SourceSym != nil {
			rel.Ddl.TableName = data.SourceSym.Blob.Source().Names
		}
		if data.BaseSchema != nil {
			rel.Ddl.TableSchema = buildNamedStruct(data.BaseSchema, ctx.tbl)
		}
	case pb.RelWrite:
		if data.SourceSym != nil {
			rel.Write.TableName = data.SourceSym.Blob.Source().Names
		}
	}
}

// buildNamedStruct renders a Schema symbol as the substrait NamedStruct
// its declared columns describe, in declaration order.
func buildNamedStruct(schemaSym *symboltable.Symbol, tbl *symboltable.Table) *pb.NamedStruct {
	cols := schemaColumns(schemaSym, tbl)
	names := make([]string, 0, len(cols))
	types := make([]*pb.Type, 0, len(cols))
	for _, c := range cols {
		names = append(names, columnBareName(c))
		types = append(types, c.Blob.SchemaColumn().Type)
	}
	return &pb.NamedStruct{Names: names, Struct: &pb.Type{Kind: pb.TypeStruct, Nullability: pb.NullabilityRequired, StructTypes: types}}
}

// sortDirectionFromWord maps a SORT ... BY identifier to its
// SortDirection, defaulting to AscNullsLast per spec.md §4.5.5.
func sortDirectionFromWord(word string) pb.SortDirection {
	switch word {
	case "ASC_NULLS_FIRST":
		return pb.SortAscNullsFirst
	case "ASC", "ASC_NULLS_LAST":
		return pb.SortAscNullsLast
	case "DESC_NULLS_FIRST":
		return pb.SortDescNullsFirst
	case "DESC", "DESC_NULLS_LAST":
		return pb.SortDescNullsLast
	case "CLUSTERED":
		return pb.SortClustered
	default:
		return pb.SortAscNullsLast
	}
}

// joinTypeFromWord maps a TYPE identifier to its JoinType, per spec.md
// §4.5.5's numbered table (1..12, matching this package's JoinType iota
// order).
func joinTypeFromWord(word string) pb.JoinType {
	switch word {
	case "INNER":
		return pb.JoinInner
	case "OUTER":
		return pb.JoinOuter
	case "LEFT":
		return pb.JoinLeft
	case "RIGHT":
		return pb.JoinRight
	case "LEFT_SEMI":
		return pb.JoinLeftSemi
	case "RIGHT_SEMI":
		return pb.JoinRightSemi
	case "LEFT_ANTI":
		return pb.JoinLeftAnti
	case "RIGHT_ANTI":
		return pb.JoinRightAnti
	case "LEFT_SINGLE":
		return pb.JoinLeftSingle
	case "RIGHT_SINGLE":
		return pb.JoinRightSingle
	case "LEFT_MARK":
		return pb.JoinLeftMark
	case "RIGHT_MARK":
		return pb.JoinRightMark
	default:
		return pb.JoinUnspecified
	}
}

// invocationFromWord maps an INVOCATION identifier to its
// AggregateInvocation.
func invocationFromWord(word string) pb.AggregateInvocation {
	switch word {
	case "ALL":
		return pb.InvocationAll
	case "DISTINCT":
		return pb.InvocationDistinct
	default:
		return pb.InvocationUnspecified
	}
}
