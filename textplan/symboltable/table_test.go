package symboltable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUniqueName(t *testing.T) {
	tbl := New()
	assert.Equal(t, "foo", tbl.GetUniqueName("foo"))
	tbl.DefineSymbol("foo", Unknown, Relation, KindRead, NewBlob(&RelationData{}))
	assert.Equal(t, "foo1", tbl.GetUniqueName("foo"))
	tbl.DefineSymbol("foo1", Unknown, Relation, KindRead, NewBlob(&RelationData{}))
	assert.Equal(t, "foo2", tbl.GetUniqueName("foo"))
}

func TestDefineSymbolPanicsOnCollision(t *testing.T) {
	tbl := New()
	tbl.DefineSymbol("r", Location{Line: 1, Col: 1}, Relation, KindRead, NewBlob(&RelationData{}))
	assert.Panics(t, func() {
		tbl.DefineSymbol("r", Location{Line: 2, Col: 1}, Relation, KindRead, NewBlob(&RelationData{}))
	})
}

func TestLookupByNameAndAlias(t *testing.T) {
	tbl := New()
	sym := tbl.DefineSymbol("r", Location{Line: 1, Col: 1}, Relation, KindRead, NewBlob(&RelationData{}))
	tbl.AddAlias(sym, "r_alias")

	require.Same(t, sym, tbl.LookupByName("r"))
	require.Same(t, sym, tbl.LookupByName("r_alias"))
	assert.Nil(t, tbl.LookupByName("missing"))
}

func TestLookupByLocation(t *testing.T) {
	tbl := New()
	loc := Location{Line: 3, Col: 4}
	sym := tbl.DefineSymbol("r", loc, Relation, KindRead, NewBlob(&RelationData{}))
	require.Same(t, sym, tbl.LookupByLocation(loc))
	assert.Nil(t, tbl.LookupByLocation(Location{Line: 9, Col: 9}))
}

func TestBlobLockPanicsOnReentry(t *testing.T) {
	b := NewBlob(&RelationData{})
	unlock := b.Lock()
	assert.Panics(t, func() { b.Lock() })
	unlock()
	assert.NotPanics(t, func() { b.Lock()() })
}

func TestNthOfType(t *testing.T) {
	tbl := New()
	tbl.DefineSymbol("a", Unknown, Relation, KindRead, NewBlob(&RelationData{}))
	tbl.DefineSymbol("b", Unknown, Schema, KindUnknown, nil)
	tbl.DefineSymbol("c", Unknown, Relation, KindFilter, NewBlob(&RelationData{}))

	first := tbl.NthOfType(Relation, 0)
	second := tbl.NthOfType(Relation, 1)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, "a", first.Name)
	assert.Equal(t, "c", second.Name)
	assert.Nil(t, tbl.NthOfType(Relation, 2))
}
