// Package symboltable holds the compiler's one piece of shared mutable
// state: an append-only registry of named entities (schemas, sources,
// relations, functions, fields, …) keyed by name, alias, and source
// location, each carrying a typed side-value ("blob").
//
// The interning/identity style is grounded on the teacher's own
// `datalog/intern.go` (a concurrent string-interning table keyed by hash)
// and `datalog/identity.go` (a small hashable handle type), generalized
// here from a `sync.Map`-backed concurrent interner into the
// single-threaded, append-only table spec.md §4.1 describes — textplan
// compiles one document per invocation, on one goroutine.
package symboltable

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/wbrown/substraitplan/textplan/ast"
)

// Location is a compact, hashable handle to a source position — the
// symbol table's analog of ast.Pos, kept as its own type so callers never
// confuse "a parse-tree position" with "a symbol table key".
type Location struct {
	Line int
	Col  int
}

// Unknown is the sentinel Location for symbols with no real source
// position (synthesized stubs, the root relation's synthesized blob).
var Unknown = Location{Line: -1, Col: -1}

// IsUnknown reports whether l is the Unknown sentinel.
func (l Location) IsUnknown() bool { return l.Line < 0 }

// FromPos converts a parse-tree position into a Location.
func FromPos(p ast.Pos) Location { return Location{Line: p.Line, Col: p.Col} }

// String renders a Location for diagnostics.
func (l Location) String() string {
	if l.IsUnknown() {
		return "<unknown>"
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

// Hash returns a stable hash of l, used by Table to bucket its
// location index (byLocation). Grounded on the teacher's use of
// github.com/cespare/xxhash/v2 for Identity.Hash() in datalog/identity.go.
func (l Location) Hash() uint64 {
	var b [16]byte
	putInt64(b[0:8], int64(l.Line))
	putInt64(b[8:16], int64(l.Col))
	return xxhash.Sum64(b[:])
}

func putInt64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}
