package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/substraitplan/textplan/pb"
)

// E1: minimal read+filter, reproducing spec's worked example: a filter on
// the second column of a two-column schema produces field@1.
func TestCompileReadFilter(t *testing.T) {
	src := `
function "greater_than:fp64_fp64" AS greater_than;
schema S { id i32; price fp64; }
source NAMED_TABLE src { NAMES = [ "t" ] }
read RELATION r { SOURCE src; BASE_SCHEMA S; }
filter RELATION f { BASE_SCHEMA S; FILTER greater_than(price, 100.0_fp64); }
r -> f -> root;
ROOT { NAMES = [ out ] }
`
	result, err := Compile(src)
	require.NoError(t, err)
	require.False(t, result.Errs.HasErrors())
	plan := result.Plan
	require.Len(t, plan.Relations, 1)

	root := plan.Relations[0].Root
	require.NotNil(t, root)
	assert.Equal(t, []string{"out"}, root.Names)

	filterRel := root.Input
	require.NotNil(t, filterRel)
	assert.Equal(t, pb.RelFilter, filterRel.Kind)

	readRel := filterRel.Filter.Input
	require.NotNil(t, readRel)
	assert.Equal(t, pb.RelRead, readRel.Kind)
	assert.Equal(t, []string{"t"}, readRel.Read.NamedTable)

	cond := filterRel.Filter.Condition
	require.NotNil(t, cond)
	require.Equal(t, pb.ExprScalarFunction, cond.Kind)
	require.Len(t, cond.ScalarFunction.Arguments, 2)

	priceArg := cond.ScalarFunction.Arguments[0].Value
	require.Equal(t, pb.ExprFieldReference, priceArg.Kind)
	assert.Equal(t, int32(1), priceArg.FieldReference.Field)
	assert.Equal(t, pb.RootReference, priceArg.FieldReference.RootType)

	litArg := cond.ScalarFunction.Arguments[1].Value
	require.Equal(t, pb.ExprLiteral, litArg.Kind)
	assert.Equal(t, 100.0, litArg.Literal.FP64)
}

// E3-style: aggregate with a named measure and an explicit EMIT ordering.
func TestCompileAggregateMeasureEmit(t *testing.T) {
	src := `
function "sum:i32" AS sum;
schema S { a i32; b i32; }
source NAMED_TABLE src { NAMES = [ "t" ] }
read RELATION r { SOURCE src; BASE_SCHEMA S; }
aggregate RELATION g { BASE_SCHEMA S; GROUPING a; MEASURE { sum(b) NAMED total } EMIT a; EMIT total; }
r -> g -> root;
ROOT { NAMES = [ out1, out2 ] }
`
	result, err := Compile(src)
	require.NoError(t, err)
	require.False(t, result.Errs.HasErrors())

	aggRel := result.Plan.Relations[0].Root.Input
	require.Equal(t, pb.RelAggregate, aggRel.Kind)
	agg := aggRel.Aggregate

	require.Len(t, agg.Groupings[0].GroupingExpressions, 1)
	groupExpr := agg.Groupings[0].GroupingExpressions[0]
	require.Equal(t, pb.ExprFieldReference, groupExpr.Kind)
	assert.Equal(t, int32(0), groupExpr.FieldReference.Field)

	require.Len(t, agg.Measures, 1)
	measure := agg.Measures[0].Measure
	assert.Equal(t, pb.PhaseInitialToResult, measure.Phase)
	require.Len(t, measure.Arguments, 1)
	sumArg := measure.Arguments[0].Value
	require.Equal(t, pb.ExprFieldReference, sumArg.Kind)
	assert.Equal(t, int32(1), sumArg.FieldReference.Field)

	assert.Equal(t, pb.EmitRemapped, aggRel.Aggregate.Common.Emit)
	assert.Equal(t, []int32{0, 1}, aggRel.Aggregate.Common.OutputMapping)
}

// E5: fetch with count and offset.
func TestCompileFetchCountOffset(t *testing.T) {
	src := `
schema S { id i32; }
source NAMED_TABLE src { NAMES = [ "t" ] }
read RELATION r { SOURCE src; BASE_SCHEMA S; }
fetch RELATION lim { COUNT 10; OFFSET 5; }
r -> lim -> root;
ROOT { NAMES = [ out ] }
`
	result, err := Compile(src)
	require.NoError(t, err)
	require.False(t, result.Errs.HasErrors())

	fetchRel := result.Plan.Relations[0].Root.Input
	require.Equal(t, pb.RelFetch, fetchRel.Kind)
	assert.Equal(t, int64(10), fetchRel.Fetch.Count)
	assert.Equal(t, int64(5), fetchRel.Fetch.Offset)
}

// E6: join type selection resolves the TYPE word to its numbered JoinType
// and leaves the join's emit as Direct.
func TestCompileJoinType(t *testing.T) {
	src := `
function "equal:i32_i32" AS equal;
schema S { a i32; }
schema T { b i32; }
source NAMED_TABLE srcS { NAMES = [ "s" ] }
source NAMED_TABLE srcT { NAMES = [ "t" ] }
read RELATION rs { SOURCE srcS; BASE_SCHEMA S; }
read RELATION rt { SOURCE srcT; BASE_SCHEMA T; }
join RELATION j { TYPE LEFT; EXPRESSION equal(a, b); }
rs -> j;
rt -> j;
j -> root;
ROOT { NAMES = [ out ] }
`
	result, err := Compile(src)
	require.NoError(t, err)
	require.False(t, result.Errs.HasErrors())

	joinRel := result.Plan.Relations[0].Root.Input
	require.Equal(t, pb.RelJoin, joinRel.Kind)
	assert.Equal(t, pb.JoinLeft, joinRel.Join.Type)
	assert.Equal(t, pb.EmitDirect, joinRel.Join.Common.Emit)
	require.NotNil(t, joinRel.Join.Expression)
	assert.Equal(t, pb.ExprScalarFunction, joinRel.Join.Expression.Kind)
}

// E4-style: an outer reference inside a subquery resolves to
// OuterReference{steps_out=1}, while a reference to the subquery's own
// scope stays a RootReference.
func TestCompileOuterReference(t *testing.T) {
	src := `
function "equal:i32_i32" AS equal;
schema T { x i32; }
schema S { y i32; }
source NAMED_TABLE srcT { NAMES = [ "tt" ] }
source NAMED_TABLE srcS { NAMES = [ "ss" ] }
read RELATION rt { SOURCE srcT; BASE_SCHEMA T; }
read RELATION rs { SOURCE srcS; BASE_SCHEMA S; }
filter RELATION inner { BASE_SCHEMA T; FILTER equal(T.x, S.y); }
filter RELATION outer { BASE_SCHEMA S; FILTER exists SUBQUERY inner; }
rt -> inner;
rs -> outer;
outer -> root;
ROOT { NAMES = [ out ] }
`
	result, err := Compile(src)
	require.NoError(t, err)
	require.False(t, result.Errs.HasErrors())

	innerSym := result.Table.LookupByName("inner")
	require.NotNil(t, innerSym)
	innerRel := innerSym.Blob.Relation().Rel
	require.Equal(t, pb.RelFilter, innerRel.Kind)

	cond := innerRel.Filter.Condition
	require.Equal(t, pb.ExprScalarFunction, cond.Kind)
	require.Len(t, cond.ScalarFunction.Arguments, 2)

	xArg := cond.ScalarFunction.Arguments[0].Value
	assert.Equal(t, pb.RootReference, xArg.FieldReference.RootType)
	assert.Equal(t, int32(0), xArg.FieldReference.StepsOut)

	yArg := cond.ScalarFunction.Arguments[1].Value
	assert.Equal(t, pb.OuterReference, yArg.FieldReference.RootType)
	assert.Equal(t, int32(1), yArg.FieldReference.StepsOut)
	assert.Equal(t, int32(0), yArg.FieldReference.Field)

	outerSym := result.Table.LookupByName("outer")
	require.NotNil(t, outerSym)
	assert.True(t, innerSym.IsSubquery())
	assert.False(t, outerSym.IsSubquery())

	// The subquery root is reachable only via its parent's subquery
	// expression, never as a top-level PlanRel (invariant 7).
	for _, r := range result.Plan.Relations {
		assert.NotSame(t, innerRel, r.Rel)
		if r.Root != nil {
			assert.NotSame(t, innerRel, r.Root.Input)
		}
	}
	require.Len(t, outerSym.Blob.Relation().SubQueryPipelines, 1)
	assert.Same(t, innerSym, outerSym.Blob.Relation().SubQueryPipelines[0])
}
