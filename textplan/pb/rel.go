package pb

// RelKind discriminates the Rel oneof (substrait Rel.rel_type), one case
// per relation kind spec.md §4.1's RelationKind enumerates plus the Root
// wrapper, which substrait models as a distinct RelRoot message.
type RelKind int

const (
	RelUnspecified RelKind = iota
	RelRead
	RelProject
	RelJoin
	RelCross
	RelFetch
	RelAggregate
	RelSort
	RelFilter
	RelSet
	RelHashJoin
	RelMergeJoin
	RelExchange
	RelDdl
	RelWrite
	RelExtensionLeaf
	RelExtensionSingle
	RelExtensionMulti
)

// EmitKind discriminates RelCommon.EmitKind: Direct passes the relation's
// natural output struct through unchanged, Emit reorders/subsets it via
// OutputMapping (field indices into the natural output).
type EmitKind int

const (
	EmitUnspecified EmitKind = iota
	EmitDirect
	EmitRemapped
)

// RelCommon is substrait RelCommon, carried by every relation variant.
type RelCommon struct {
	Emit         EmitKind
	OutputMapping []int32
}

// ReadRel is substrait ReadRel, restricted to the source shapes spec.md
// §4.3 lists (named table, local files, virtual table, extension table).
type ReadRel struct {
	Common      *RelCommon
	BaseSchema  *NamedStruct
	NamedTable  []string // ReadRel.NamedTable.names
	// FileOrTableDetail carries the raw key/value pairs for local-file,
	// virtual-table, or extension-table sources verbatim, since textplan
	// only round-trips this metadata rather than interpreting it.
	FileOrTableDetail map[string]string
}

// ProjectRel is substrait ProjectRel.
type ProjectRel struct {
	Common      *RelCommon
	Input       *Rel
	Expressions []*Expression
}

// JoinType mirrors substrait JoinRel.JoinType, numbered per spec.md
// §4.5.5's TYPE table.
type JoinType int

const (
	JoinUnspecified JoinType = iota
	JoinInner
	JoinOuter
	JoinLeft
	JoinRight
	JoinLeftSemi
	JoinRightSemi
	JoinLeftAnti
	JoinRightAnti
	JoinLeftSingle
	JoinRightSingle
	JoinLeftMark
	JoinRightMark
)

// JoinRel is substrait JoinRel.
type JoinRel struct {
	Common    *RelCommon
	Left      *Rel
	Right     *Rel
	Expression *Expression
	Type      JoinType
}

// CrossRel is substrait CrossRel.
type CrossRel struct {
	Common *RelCommon
	Left   *Rel
	Right  *Rel
}

// FetchRel is substrait FetchRel.
type FetchRel struct {
	Common *RelCommon
	Input  *Rel
	Offset int64
	Count  int64
}

// AggregateInvocation mirrors AggregateFunction.AggregationInvocation.
type AggregateInvocation int

const (
	InvocationUnspecified AggregateInvocation = iota
	InvocationAll
	InvocationDistinct
)

// AggregatePhase mirrors AggregateFunction.AggregationPhase.
type AggregatePhase int

const (
	PhaseUnspecified AggregatePhase = iota
	PhaseInitialToIntermediate
	PhaseIntermediateToIntermediate
	PhaseInitialToResult
	PhaseIntermediateToResult
)

// AggregateFunction is substrait AggregateFunction (used inside
// AggregateRel.Measure).
type AggregateFunction struct {
	FunctionReference uint32
	Arguments         []*FunctionArgument
	Phase             AggregatePhase
	Invocation        AggregateInvocation
	OutputType        *Type
}

// AggregateMeasure is AggregateRel.Measure.
type AggregateMeasure struct {
	Measure *AggregateFunction
	Filter  *Expression
}

// AggregateGrouping is AggregateRel.Grouping.
type AggregateGrouping struct {
	GroupingExpressions []*Expression
}

// AggregateRel is substrait AggregateRel.
type AggregateRel struct {
	Common    *RelCommon
	Input     *Rel
	Groupings []*AggregateGrouping
	Measures  []*AggregateMeasure
}

// SortDirection mirrors SortField.SortDirection.
type SortDirection int

const (
	SortUnspecified SortDirection = iota
	SortAscNullsFirst
	SortAscNullsLast
	SortDescNullsFirst
	SortDescNullsLast
	SortClustered
)

// SortField is substrait SortField.
type SortField struct {
	Expr      *Expression
	Direction SortDirection
}

// SortRel is substrait SortRel.
type SortRel struct {
	Common *RelCommon
	Input  *Rel
	Sorts  []*SortField
}

// FilterRel is substrait FilterRel.
type FilterRel struct {
	Common    *RelCommon
	Input     *Rel
	Condition *Expression
}

// SetOp mirrors SetRel.SetOp.
type SetOp int

const (
	SetOpUnspecified SetOp = iota
	SetOpMinusPrimary
	SetOpMinusMultiset
	SetOpIntersectionPrimary
	SetOpIntersectionMultiset
	SetOpUnionDistinct
	SetOpUnionAll
)

// SetRel is substrait SetRel.
type SetRel struct {
	Common *RelCommon
	Inputs []*Rel
	Op     SetOp
}

// HashJoinRel is substrait HashJoinRel, a physical join with explicit key
// lists instead of a general boolean expression.
type HashJoinRel struct {
	Common     *RelCommon
	Left       *Rel
	Right      *Rel
	LeftKeys   []int32
	RightKeys  []int32
	PostJoinFilter *Expression
	Type       JoinType
}

// MergeJoinRel is substrait MergeJoinRel.
type MergeJoinRel struct {
	Common     *RelCommon
	Left       *Rel
	Right      *Rel
	LeftKeys   []int32
	RightKeys  []int32
	PostJoinFilter *Expression
	Type       JoinType
}

// ExchangeRel is substrait ExchangeRel, simplified to a single-target
// broadcast/scatter since textplan has no partition-spec surface syntax.
type ExchangeRel struct {
	Common *RelCommon
	Input  *Rel
}

// DdlRel is substrait DdlRel.
type DdlRel struct {
	Common     *RelCommon
	TableName  []string
	TableSchema *NamedStruct
}

// WriteRel is substrait WriteRel.
type WriteRel struct {
	Common    *RelCommon
	Input     *Rel
	TableName []string
}

// ExtensionLeafRel/ExtensionSingleRel/ExtensionMultiRel are substrait's
// escape hatch for engine-specific relations. Detail carries the opaque
// textplan metadata verbatim since the compiler core never interprets it.
type ExtensionLeafRel struct {
	Common *RelCommon
	Detail map[string]string
}

type ExtensionSingleRel struct {
	Common *RelCommon
	Input  *Rel
	Detail map[string]string
}

type ExtensionMultiRel struct {
	Common *RelCommon
	Inputs []*Rel
	Detail map[string]string
}

// Rel is the Substrait Rel message, flattened the same way as Expression
// and Type: Kind picks which pointer field is populated.
type Rel struct {
	Kind RelKind

	Read            *ReadRel
	Project         *ProjectRel
	Join            *JoinRel
	Cross           *CrossRel
	Fetch           *FetchRel
	Aggregate       *AggregateRel
	Sort            *SortRel
	Filter          *FilterRel
	Set             *SetRel
	HashJoin        *HashJoinRel
	MergeJoin       *MergeJoinRel
	Exchange        *ExchangeRel
	Ddl             *DdlRel
	Write           *WriteRel
	ExtensionLeaf   *ExtensionLeafRel
	ExtensionSingle *ExtensionSingleRel
	ExtensionMulti  *ExtensionMultiRel
}

// RelRoot is substrait RelRoot: the top of a pipeline, carrying the
// user-facing output column names.
type RelRoot struct {
	Input *Rel
	Names []string
}

// PlanRel is substrait PlanRel: a top-level entry is either a bare
// relation or a RelRoot.
type PlanRel struct {
	Rel  *Rel
	Root *RelRoot
}

// SimpleExtensionUri is substrait SimpleExtensionURI.
type SimpleExtensionUri struct {
	ExtensionURIAnchor uint32
	URI                string
}

// SimpleExtensionDeclaration is substrait SimpleExtensionDeclaration,
// restricted to ExtensionFunction since textplan has no type/
// type-variation extension syntax.
type SimpleExtensionDeclaration struct {
	ExtensionURIReference uint32
	FunctionAnchor        uint32
	Name                  string
}

// Version is substrait Version.
type Version struct {
	Major        uint32
	Minor        uint32
	Patch        uint32
	Producer     string
	GitHash      string
}

// Plan is the Substrait Plan message: the root of an entire compiled
// textplan document.
type Plan struct {
	Version    *Version
	ExtensionURIs  []*SimpleExtensionUri
	Extensions []*SimpleExtensionDeclaration
	Relations  []*PlanRel
}
