package symboltable

import "fmt"

// locationEntry is one bucket slot in byLocation: entries are stored under
// their Location.Hash() and disambiguated by an equality check on lookup,
// the same open-bucket shape as the teacher's datalog/intern.go.
type locationEntry struct {
	loc Location
	sym *Symbol
}

// Table is the compiler's symbol table: an append-only registry indexed
// by name, alias, and Location.
type Table struct {
	symbols    []*Symbol
	byName     map[string]*Symbol
	byAlias    map[string]*Symbol
	byLocation map[uint64][]locationEntry
}

// New creates an empty Table.
func New() *Table {
	return &Table{
		byName:     map[string]*Symbol{},
		byAlias:    map[string]*Symbol{},
		byLocation: map[uint64][]locationEntry{},
	}
}

func (t *Table) indexLocation(loc Location, sym *Symbol) {
	h := loc.Hash()
	for i, e := range t.byLocation[h] {
		if e.loc == loc {
			t.byLocation[h][i].sym = sym
			return
		}
	}
	t.byLocation[h] = append(t.byLocation[h], locationEntry{loc: loc, sym: sym})
}

// GetUniqueName returns base if it is not yet used as a symbol name,
// otherwise base suffixed with the smallest positive integer that makes
// it unused. Deterministic, per spec.md §4.1.
func (t *Table) GetUniqueName(base string) string {
	if _, used := t.byName[base]; !used {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if _, used := t.byName[candidate]; !used {
			return candidate
		}
	}
}

// DefineSymbol appends a new symbol and indexes it by name and location.
// It panics if name is already defined — spec.md §4.1 calls this
// "fails-closed"; callers must mint a unique name first via GetUniqueName
// when collisions are possible.
func (t *Table) DefineSymbol(name string, loc Location, typ SymbolType, subtype RelationKind, blob *Blob) *Symbol {
	if _, exists := t.byName[name]; exists {
		panic(fmt.Sprintf("symboltable: symbol %q already defined", name))
	}
	sym := NewSymbol(name, loc, typ, subtype)
	sym.Blob = blob
	t.symbols = append(t.symbols, sym)
	t.byName[name] = sym
	if !loc.IsUnknown() {
		t.indexLocation(loc, sym)
	}
	return sym
}

// AddAlias registers an additional lookup name for an existing symbol
// (e.g. a schema-qualified name, or a generated alias).
func (t *Table) AddAlias(sym *Symbol, alias string) {
	sym.Alias = alias
	t.byAlias[alias] = sym
}

// AddPermanentLocation re-anchors a symbol's PermanentLocation and
// re-indexes it by that location, so LookupByLocation(loc) also finds it.
func (t *Table) AddPermanentLocation(sym *Symbol, loc Location) {
	sym.PermanentLocation = loc
	if !loc.IsUnknown() {
		t.indexLocation(loc, sym)
	}
}

// LookupByName returns the symbol defined or aliased under name, or nil.
func (t *Table) LookupByName(name string) *Symbol {
	if s, ok := t.byName[name]; ok {
		return s
	}
	if s, ok := t.byAlias[name]; ok {
		return s
	}
	return nil
}

// LookupByLocation returns the symbol anchored at loc, or nil.
func (t *Table) LookupByLocation(loc Location) *Symbol {
	for _, e := range t.byLocation[loc.Hash()] {
		if e.loc == loc {
			return e.sym
		}
	}
	return nil
}

// All returns every symbol in declaration order.
func (t *Table) All() []*Symbol { return t.symbols }

// NthOfType returns the n-th (0-based) symbol of the given type, in
// declaration order, or nil if there are fewer than n+1.
func (t *Table) NthOfType(typ SymbolType, n int) *Symbol {
	count := 0
	for _, s := range t.symbols {
		if s.Type != typ {
			continue
		}
		if count == n {
			return s
		}
		count++
	}
	return nil
}

// OfType returns every symbol of the given type, in declaration order.
func (t *Table) OfType(typ SymbolType) []*Symbol {
	var out []*Symbol
	for _, s := range t.symbols {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

// Define is a convenience wrapper combining GetUniqueName and
// DefineSymbol for callers that want a guaranteed-fresh name rather than
// relying on the panic-on-collision contract.
func (t *Table) Define(base string, loc Location, typ SymbolType, subtype RelationKind, blob *Blob) *Symbol {
	return t.DefineSymbol(t.GetUniqueName(base), loc, typ, subtype, blob)
}
