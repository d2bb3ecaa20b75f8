// Package ast is the concrete parse tree textplan/parser builds and
// textplan/compiler consumes. It carries no compiler semantics — it is the
// "parse tree" external collaborator named in spec.md §6, addressable by
// grammar rule the way an ANTLR-generated tree would be.
package ast

import "github.com/wbrown/substraitplan/textplan/token"

// Pos is a compact source-position handle, cheap to compare and hash.
// It is the parse-tree analog of spec.md's Location entity; the symbol
// table stores a copy of the Pos of the declaring token for every symbol.
type Pos struct {
	Line int
	Col  int
}

// Unknown is the sentinel Pos for synthesized nodes that have no source
// location (e.g. stub relations created in Pass 3).
var Unknown = Pos{Line: -1, Col: -1}

// IsUnknown reports whether p is the Unknown sentinel.
func (p Pos) IsUnknown() bool { return p.Line < 0 }

func posOf(t token.Token) Pos { return Pos{Line: t.Line, Col: t.Col} }

// RuleKind tags a Node with the grammar rule (or labeled alternative) that
// produced it, mirroring the rule names spec.md §6 lists: plan,
// plan_detail, pipelines, pipeline, relation, relation_type, relation_ref,
// relation_detail (with its labeled alternatives), root_relation,
// source_definition, read_type, named_table_detail, schema_definition,
// schema_item, extensionspace, function, expression (with its labeled
// alternatives), constant, sort_field, column_name, file_detail, name, id.
type RuleKind int

const (
	RulePlan RuleKind = iota
	RuleExtensionSpace
	RuleFunction
	RuleSchemaDefinition
	RuleSchemaItem
	RuleSourceDefinition
	RuleNamedTableDetail
	RuleFileDetail
	RuleRelation
	RuleRootRelation
	RulePipeline

	// relation_detail labeled alternatives
	RuleRelationUsesSchema
	RuleRelationSourceReference
	RuleRelationFilter
	RuleRelationExpression
	RuleRelationGrouping
	RuleRelationMeasure
	RuleRelationSort
	RuleRelationCount
	RuleRelationOffset
	RuleRelationJoinType
	RuleRelationEmit
	RuleRelationInvocation

	// expression labeled alternatives
	RuleExpressionConstant
	RuleExpressionColumn
	RuleExpressionFunctionUse
	RuleExpressionCast
	RuleExpressionIfThen
	RuleExpressionScalarSubquery
	RuleExpressionSetComparisonSubquery
	RuleExpressionInPredicateSubquery
	RuleExpressionSetPredicateSubquery

	RuleColumnName
	RuleTypeLiteral
	RuleArgument
)

// Node is one node of the concrete parse tree. Which fields are populated
// depends on Kind; see the parser for the shape each rule constructs.
type Node struct {
	Kind RuleKind
	Pos  Pos

	// Text carries the primary literal/identifier text for leaf-ish rules
	// (names, keywords, string contents, numeric literal text).
	Text string

	// Children holds ordered sub-nodes (statements in a block, arguments in
	// a call, elements of a pipeline chain, schema items, etc.).
	Children []*Node

	// Fields carries rule-specific named sub-nodes that aren't naturally
	// part of an ordered list (e.g. a relation's header vs. its body, a
	// cast's target type, a measure's alias).
	Fields map[string]*Node

	// Strs carries rule-specific string lists (e.g. a NAMES = [...] list).
	Strs []string
}

func newNode(kind RuleKind, pos Pos) *Node {
	return &Node{Kind: kind, Pos: pos, Fields: map[string]*Node{}}
}

// NewNode is exported for the parser package.
func NewNode(kind RuleKind, tok token.Token) *Node {
	return newNode(kind, posOf(tok))
}

// NewNodeAt builds a Node at an explicit Pos (used for synthesized nodes).
func NewNodeAt(kind RuleKind, pos Pos) *Node {
	return newNode(kind, pos)
}

// Field fetches a named child, returning nil if absent.
func (n *Node) Field(name string) *Node {
	if n == nil {
		return nil
	}
	return n.Fields[name]
}

// SetField attaches a named child.
func (n *Node) SetField(name string, child *Node) {
	n.Fields[name] = child
}
