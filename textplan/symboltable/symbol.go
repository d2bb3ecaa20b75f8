package symboltable

import (
	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/pb"
)

// SymbolType is the kind of entity a SymbolInfo names, per spec.md §3.
type SymbolType int

const (
	Unknown SymbolType = iota
	ExtensionSpace
	Function
	PlanRelation
	Relation
	Schema
	SchemaColumn
	Source
	SourceDetail
	Field
	Root
	Table
	Measure
)

// RelationKind is the Relation symbol's `subtype`: which Rel oneof
// variant it owns. Mirrors pb.RelKind plus the grammar-only Root/Unknown
// markers spec.md §3 calls out (Root is a real relation kind in the parse
// tree even though substrait encodes it as a wrapper message).
type RelationKind int

const (
	KindUnknown RelationKind = iota
	KindRead
	KindProject
	KindJoin
	KindCross
	KindFetch
	KindAggregate
	KindSort
	KindFilter
	KindSet
	KindHashJoin
	KindMergeJoin
	KindExchange
	KindDdl
	KindWrite
	KindExtensionLeaf
	KindExtensionSingle
	KindExtensionMulti
	KindRoot
)

// IsUnary reports whether kind feeds exactly one upstream relation via
// continuing_pipeline (spec.md §4.4 step 3's "unary" bucket).
func (k RelationKind) IsUnary() bool {
	switch k {
	case KindJoin, KindCross, KindSet, KindHashJoin, KindMergeJoin, KindExtensionLeaf:
		return false
	default:
		return true
	}
}

// Symbol is a shared handle to one row of the table. Multiple passes hold
// the same *Symbol and mutate its Blob through the blob's own interior
// mutability rather than copying the row.
type Symbol struct {
	Name     string
	Alias    string
	Location Location

	// PermanentLocation starts out equal to Location and changes only
	// through Table.AddPermanentLocation.
	PermanentLocation Location

	// ParentQueryLocation/ParentQueryIndex are set iff this relation is a
	// subquery root or lies on the continuing-pipeline chain of one.
	ParentQueryLocation Location
	ParentQueryIndex    int // -1 when unset

	Type    SymbolType
	Subtype RelationKind

	Blob *Blob
}

// NewSymbol constructs a Symbol with no parent-query association.
func NewSymbol(name string, loc Location, typ SymbolType, subtype RelationKind) *Symbol {
	return &Symbol{
		Name:                name,
		Location:            loc,
		PermanentLocation:   loc,
		ParentQueryLocation: Unknown,
		ParentQueryIndex:    -1,
		Type:                typ,
		Subtype:             subtype,
	}
}

// IsSubquery reports whether s is a subquery root (or a node on one's
// continuing-pipeline chain) per spec.md's "parent_query_index >= 0" test.
func (s *Symbol) IsSubquery() bool { return s.ParentQueryIndex >= 0 }

// RelationData is the blob attached to every Relation-kind symbol,
// spec.md §3 "Relation blob".
type RelationData struct {
	Rel *pb.Rel

	ContinuingPipeline *Symbol   // unary upstream, nil if none/not-yet-wired
	NewPipelines       []*Symbol // binary/n-ary/terminal upstreams
	PipelineStart      *Symbol   // topological root of the containing chain

	FieldReferences          []*Symbol // input schema, populated lazily
	GeneratedFieldReferences []*Symbol // added output columns
	OutputFieldReferences    []*Symbol // emit projection; empty = passthrough

	SubQueryPipelines []*Symbol // subquery termini rooted at this relation

	// RootNames holds ROOT's `NAMES = [...]` output column names (only
	// populated when Subtype == KindRoot).
	RootNames []string

	// DeclNode is the parse-tree relation node (its relation_detail
	// children are walked by Pass 4). Nil for stub relations.
	DeclNode *ast.Node

	// BaseSchema/SourceSym record the schema/source a Read relation is
	// bound to via BASE_SCHEMA/SOURCE properties.
	BaseSchema *Symbol
	SourceSym  *Symbol

	// JoinTypeWord is the raw TYPE property text for Join/HashJoin/
	// MergeJoin relations, kept alongside the already-resolved pb.JoinType
	// on the Rel itself.
	JoinTypeWord string

	// fieldsResolved guards the lazy population described in spec.md
	// §4.5.1 so a relation's upstream chain is only walked once.
	fieldsResolved bool
	// visiting guards against accidental cycles during that walk.
	visiting bool
}

// FieldsResolved reports whether FieldReferences has already been
// populated for this relation (spec.md §4.5.1's memoization).
func (d *RelationData) FieldsResolved() bool { return d.fieldsResolved }

// MarkFieldsResolved records that FieldReferences is now populated.
func (d *RelationData) MarkFieldsResolved() { d.fieldsResolved = true }

// Visiting reports whether this relation is currently being walked by
// the field-resolution recursion (the cycle guard spec.md §4.5.1 calls
// for).
func (d *RelationData) Visiting() bool { return d.visiting }

// SetVisiting marks/unmarks this relation as currently being walked.
func (d *RelationData) SetVisiting(v bool) { d.visiting = v }

// ExtensionSpaceData is the blob for an ExtensionSpace symbol.
type ExtensionSpaceData struct {
	Anchor uint32
	URI    string
}

// FunctionData is the blob for a Function symbol.
type FunctionData struct {
	Signature      string
	ExtensionSpace *Symbol
	FunctionAnchor uint32
}

// SchemaColumnData is the blob for a SchemaColumn symbol.
type SchemaColumnData struct {
	Type         *pb.Type
	ParentSchema *Symbol
}

// SourceData is the blob for a Source symbol: the raw detail of a
// source_definition, kept close to its parsed form since the emitter is
// the only thing that interprets it (spec.md §4.3 folds SourceDetail
// lines into the owning Source rather than giving each its own symbol).
type SourceData struct {
	Kind   string // e.g. NAMED_TABLE, LOCAL_FILES, VIRTUAL_TABLE, EXTENSION_TABLE
	Names  []string
	Detail map[string]string
}
