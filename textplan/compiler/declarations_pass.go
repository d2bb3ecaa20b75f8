package compiler

import (
	"fmt"
	"strings"

	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/pb"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// relationKeywordKinds maps a relation_type keyword to its RelationKind.
var relationKeywordKinds = map[string]symboltable.RelationKind{
	"read":            symboltable.KindRead,
	"project":         symboltable.KindProject,
	"join":            symboltable.KindJoin,
	"cross":           symboltable.KindCross,
	"fetch":           symboltable.KindFetch,
	"aggregate":       symboltable.KindAggregate,
	"sort":            symboltable.KindSort,
	"filter":          symboltable.KindFilter,
	"set":             symboltable.KindSet,
	"hashjoin":        symboltable.KindHashJoin,
	"mergejoin":       symboltable.KindMergeJoin,
	"exchange":        symboltable.KindExchange,
	"ddl":             symboltable.KindDdl,
	"write":           symboltable.KindWrite,
	"extensionleaf":   symboltable.KindExtensionLeaf,
	"extensionsingle": symboltable.KindExtensionSingle,
	"extensionmulti":  symboltable.KindExtensionMulti,
}

// newDefaultRel builds the pb.Rel oneof variant matching kind, with its
// inner message default-populated, per spec.md §4.3's "Blob is a freshly
// constructed RelationData whose inner Rel carries the matching oneof
// variant pre-populated with a default inner message".
func newDefaultRel(kind symboltable.RelationKind) *pb.Rel {
	common := &pb.RelCommon{}
	switch kind {
	case symboltable.KindRead:
		return &pb.Rel{Kind: pb.RelRead, Read: &pb.ReadRel{Common: common}}
	case symboltable.KindProject:
		return &pb.Rel{Kind: pb.RelProject, Project: &pb.ProjectRel{Common: common}}
	case symboltable.KindJoin:
		common.Emit = pb.EmitDirect
		return &pb.Rel{Kind: pb.RelJoin, Join: &pb.JoinRel{Common: common}}
	case symboltable.KindCross:
		common.Emit = pb.EmitDirect
		return &pb.Rel{Kind: pb.RelCross, Cross: &pb.CrossRel{Common: common}}
	case symboltable.KindFetch:
		return &pb.Rel{Kind: pb.RelFetch, Fetch: &pb.FetchRel{Common: common}}
	case symboltable.KindAggregate:
		return &pb.Rel{Kind: pb.RelAggregate, Aggregate: &pb.AggregateRel{Common: common, Groupings: []*pb.AggregateGrouping{{}}}}
	case symboltable.KindSort:
		return &pb.Rel{Kind: pb.RelSort, Sort: &pb.SortRel{Common: common}}
	case symboltable.KindFilter:
		return &pb.Rel{Kind: pb.RelFilter, Filter: &pb.FilterRel{Common: common}}
	case symboltable.KindSet:
		return &pb.Rel{Kind: pb.RelSet, Set: &pb.SetRel{Common: common}}
	case symboltable.KindHashJoin:
		common.Emit = pb.EmitDirect
		return &pb.Rel{Kind: pb.RelHashJoin, HashJoin: &pb.HashJoinRel{Common: common}}
	case symboltable.KindMergeJoin:
		common.Emit = pb.EmitDirect
		return &pb.Rel{Kind: pb.RelMergeJoin, MergeJoin: &pb.MergeJoinRel{Common: common}}
	case symboltable.KindExchange:
		return &pb.Rel{Kind: pb.RelExchange, Exchange: &pb.ExchangeRel{Common: common}}
	case symboltable.KindDdl:
		return &pb.Rel{Kind: pb.RelDdl, Ddl: &pb.DdlRel{Common: common}}
	case symboltable.KindWrite:
		return &pb.Rel{Kind: pb.RelWrite, Write: &pb.WriteRel{Common: common}}
	case symboltable.KindExtensionLeaf:
		return &pb.Rel{Kind: pb.RelExtensionLeaf, ExtensionLeaf: &pb.ExtensionLeafRel{Common: common, Detail: map[string]string{}}}
	case symboltable.KindExtensionSingle:
		return &pb.Rel{Kind: pb.RelExtensionSingle, ExtensionSingle: &pb.ExtensionSingleRel{Common: common, Detail: map[string]string{}}}
	case symboltable.KindExtensionMulti:
		return &pb.Rel{Kind: pb.RelExtensionMulti, ExtensionMulti: &pb.ExtensionMultiRel{Common: common, Detail: map[string]string{}}}
	case symboltable.KindRoot:
		return &pb.Rel{}
	default:
		return &pb.Rel{}
	}
}

// DeclareAll is Pass 2: it registers a Symbol for every extension space,
// function, schema (+ its columns), source, and relation header in the
// document, per spec.md §4.3. Pipelines and relation bodies are left to
// Pass 3 and Pass 4.
func DeclareAll(plan *ast.Node, tbl *symboltable.Table, cache *TypeCache, errs *ErrorListener) {
	var lastExtensionSpace *symboltable.Symbol

	for _, stmt := range plan.Children {
		switch stmt.Kind {
		case ast.RuleExtensionSpace:
			sym := tbl.DefineSymbol(tbl.GetUniqueName("extension_space"), symboltable.FromPos(stmt.Pos),
				symboltable.ExtensionSpace, symboltable.KindUnknown,
				symboltable.NewBlob(&symboltable.ExtensionSpaceData{
					Anchor: uint32(len(tbl.OfType(symboltable.ExtensionSpace))),
					URI:    stmt.Text,
				}))
			lastExtensionSpace = sym

		case ast.RuleFunction:
			name := stmt.Text
			if alias := stmt.Field("alias"); alias != nil {
				name = alias.Text
			}
			tbl.DefineSymbol(tbl.GetUniqueName(name), symboltable.FromPos(stmt.Pos),
				symboltable.Function, symboltable.KindUnknown,
				symboltable.NewBlob(&symboltable.FunctionData{
					Signature:      stmt.Text,
					ExtensionSpace: lastExtensionSpace,
					FunctionAnchor: uint32(len(tbl.OfType(symboltable.Function))),
				}))

		case ast.RuleSchemaDefinition:
			declareSchema(stmt, tbl, cache, errs)

		case ast.RuleSourceDefinition:
			declareSource(stmt, tbl, errs)

		case ast.RuleRelation:
			declareRelationHeader(stmt, tbl, errs)

		case ast.RuleRootRelation:
			declareRootRelation(stmt, tbl)

		case ast.RulePipeline:
			// handled by Pass 3

		default:
			errs.Add(SymbolError, stmt.Pos.Line, stmt.Pos.Col, "unexpected top-level statement kind %d", stmt.Kind)
		}
	}
}

func declareSchema(stmt *ast.Node, tbl *symboltable.Table, cache *TypeCache, errs *ErrorListener) {
	schemaSym := tbl.DefineSymbol(stmt.Text, symboltable.FromPos(stmt.Pos), symboltable.Schema, symboltable.KindUnknown, nil)
	for _, item := range stmt.Children {
		typeNode := item.Field("type")
		t := ResolveType(typeNode, cache, errs)
		qualified := fmt.Sprintf("%s.%s", stmt.Text, item.Text)
		colSym := tbl.DefineSymbol(qualified, symboltable.FromPos(item.Pos), symboltable.SchemaColumn, symboltable.KindUnknown,
			symboltable.NewBlob(&symboltable.SchemaColumnData{Type: t, ParentSchema: schemaSym}))
		if tbl.LookupByName(item.Text) == nil {
			tbl.AddAlias(colSym, item.Text)
		}
	}
}

func declareSource(stmt *ast.Node, tbl *symboltable.Table, errs *ErrorListener) {
	data := &symboltable.SourceData{Kind: strings.ToUpper(stmt.Strs[0]), Detail: map[string]string{}}
	for _, detail := range stmt.Children {
		switch detail.Kind {
		case ast.RuleNamedTableDetail:
			data.Names = append(data.Names, detail.Strs...)
		case ast.RuleFileDetail:
			if len(detail.Strs) > 0 {
				data.Detail[detail.Text] = detail.Strs[0]
			}
		default:
			errs.Add(SymbolError, detail.Pos.Line, detail.Pos.Col, "unexpected source detail kind %d", detail.Kind)
		}
	}
	tbl.DefineSymbol(stmt.Text, symboltable.FromPos(stmt.Pos), symboltable.Source, symboltable.KindUnknown, symboltable.NewBlob(data))
}

func declareRelationHeader(stmt *ast.Node, tbl *symboltable.Table, errs *ErrorListener) {
	kindWord := strings.ToLower(stmt.Strs[0])
	kind, ok := relationKeywordKinds[kindWord]
	if !ok {
		errs.Add(SymbolError, stmt.Pos.Line, stmt.Pos.Col, "unknown relation kind %q", kindWord)
		kind = symboltable.KindUnknown
	}
	data := &symboltable.RelationData{Rel: newDefaultRel(kind), DeclNode: stmt}
	tbl.DefineSymbol(stmt.Text, symboltable.FromPos(stmt.Pos), symboltable.Relation, kind, symboltable.NewBlob(data))
}

func declareRootRelation(stmt *ast.Node, tbl *symboltable.Table) {
	data := &symboltable.RelationData{Rel: newDefaultRel(symboltable.KindRoot), RootNames: append([]string{}, stmt.Strs...), DeclNode: stmt}
	tbl.DefineSymbol("root", symboltable.FromPos(stmt.Pos), symboltable.Relation, symboltable.KindRoot, symboltable.NewBlob(data))
}
