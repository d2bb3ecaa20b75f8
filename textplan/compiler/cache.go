package compiler

import (
	"github.com/cespare/xxhash/v2"
	"github.com/wbrown/substraitplan/textplan/pb"
)

// TypeCache memoizes resolved Type protobufs by the canonical text of the
// type-literal that produced them. Grounded on datalog/planner/cache.go's
// PlanCache, which keys cached plans by an xxhash of the query text plus
// options; here the Type Resolver (Pass 1) is invoked repeatedly as a
// pure function over type-literal text (spec.md §4.2), so memoizing by
// hash avoids re-parsing e.g. `decimal<38,9>` once per occurrence in a
// wide schema.
type TypeCache struct {
	entries map[uint64]*pb.Type
}

// NewTypeCache returns an empty TypeCache.
func NewTypeCache() *TypeCache {
	return &TypeCache{entries: map[uint64]*pb.Type{}}
}

func (c *TypeCache) key(canonicalText string) uint64 {
	return xxhash.Sum64String(canonicalText)
}

// Get returns the cached Type for canonicalText, if present.
func (c *TypeCache) Get(canonicalText string) (*pb.Type, bool) {
	t, ok := c.entries[c.key(canonicalText)]
	return t, ok
}

// Put memoizes t under canonicalText.
func (c *TypeCache) Put(canonicalText string, t *pb.Type) {
	c.entries[c.key(canonicalText)] = t
}
