package pb

// ExpressionKind discriminates the Expression oneof (substrait
// Expression.rex_type).
type ExpressionKind int

const (
	ExprUnspecified ExpressionKind = iota
	ExprLiteral
	ExprFieldReference
	ExprScalarFunction
	ExprIfThen
	ExprCast
	ExprScalarSubquery
	ExprInPredicate
	ExprSetPredicate
	ExprSetComparison
)

// ReferenceRoot discriminates FieldReference.root_type: a direct
// reference resolves against the enclosing relation's own input(s); an
// outer reference walks StepsOut enclosing query scopes first, per
// spec.md's subquery field-reference rules.
type ReferenceRoot int

const (
	RootUnspecified ReferenceRoot = iota
	RootReference
	OuterReference
)

// FieldReference is Expression.FieldReference / Expression.ReferenceSegment
// flattened to the single case textplan ever emits: a direct struct-field
// index, optionally stepping out through enclosing subquery scopes.
type FieldReference struct {
	RootType ReferenceRoot
	// StepsOut is the number of enclosing query scopes to cross before
	// resolving Field, populated by the subquery fix-up pass.
	StepsOut int32
	Field    int32
}

// Literal is Expression.Literal, flattened to the scalar kinds textplan's
// constant grammar can produce.
type Literal struct {
	Type    *Type
	Nullable bool

	Bool    bool
	I8      int32
	I16     int32
	I32     int32
	I64     int64
	FP32    float32
	FP64    float64
	String  string
	Binary  []byte
}

// FunctionArgument is Substrait's FunctionArgument oneof: either an
// expression-valued argument or an enum argument (a bare name naming one
// of a function's declared enum options).
type FunctionArgument struct {
	Value *Expression
	Enum  string
}

// ScalarFunction is Expression.ScalarFunction.
type ScalarFunction struct {
	// FunctionReference is the FunctionAnchor of the called function's
	// SimpleExtensionDeclaration in the emitted Plan.
	FunctionReference uint32
	Arguments         []*FunctionArgument
	OutputType        *Type
}

// IfClause is one (if, then) pair of an IfThen expression.
type IfClause struct {
	If   *Expression
	Then *Expression
}

// IfThenExpr is Expression.IfThen.
type IfThenExpr struct {
	Clauses []*IfClause
	Else    *Expression
}

// CastExpr is Expression.Cast.
type CastExpr struct {
	Input *Expression
	Type  *Type
}

// ScalarSubquery is Expression.Subquery.Scalar.
type ScalarSubquery struct {
	Input *Rel
}

// InPredicateSubquery is Expression.Subquery.InPredicate.
type InPredicateSubquery struct {
	Needles []*Expression
	Haystack *Rel
}

// SetPredicateOp mirrors Expression.Subquery.SetPredicate.PredicateOp.
type SetPredicateOp int

const (
	SetPredicateUnspecified SetPredicateOp = iota
	SetPredicateExists
	SetPredicateUnique
)

// SetPredicateSubquery is Expression.Subquery.SetPredicate, generalized
// with a Negated flag so textplan's `NOT EXISTS` doesn't need a distinct
// predicate-op value the real schema lacks.
type SetPredicateSubquery struct {
	Op      SetPredicateOp
	Negated bool
	Tuples  *Rel
}

// ComparisonOp mirrors Expression.Subquery.SetComparison.ComparisonOp.
type ComparisonOp int

const (
	ComparisonUnspecified ComparisonOp = iota
	ComparisonEQ
	ComparisonNE
	ComparisonLT
	ComparisonLE
	ComparisonGT
	ComparisonGE
)

// ComparisonQuantifier mirrors the ANY/ALL reduction operator.
type ComparisonQuantifier int

const (
	QuantifierUnspecified ComparisonQuantifier = iota
	QuantifierAny
	QuantifierAll
)

// SetComparisonSubquery is Expression.Subquery.SetComparison.
type SetComparisonSubquery struct {
	Op         ComparisonOp
	Quantifier ComparisonQuantifier
	Left       *Expression
	Right      *Rel
}

// Expression is the Substrait Expression message, flattened the same way
// Type is: Kind picks which of the pointer fields is populated.
type Expression struct {
	Kind ExpressionKind

	Literal        *Literal
	FieldReference *FieldReference
	ScalarFunction *ScalarFunction
	IfThen         *IfThenExpr
	Cast           *CastExpr

	ScalarSubquery        *ScalarSubquery
	InPredicateSubquery   *InPredicateSubquery
	SetPredicateSubquery  *SetPredicateSubquery
	SetComparisonSubquery *SetComparisonSubquery
}
