package compiler

import (
	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// columnBareName returns the unqualified column name used for bare-name
// matching: a SchemaColumn's declared column name, or a generated/measure
// symbol's own Name (generated symbols are never schema-qualified).
func columnBareName(sym *symboltable.Symbol) string {
	if sym.Type == symboltable.SchemaColumn {
		// sym.Name is stored as "schema.column"; the bare part is
		// everything after the last dot.
		for i := len(sym.Name) - 1; i >= 0; i-- {
			if sym.Name[i] == '.' {
				return sym.Name[i+1:]
			}
		}
	}
	return sym.Name
}

func schemaNameOf(sym *symboltable.Symbol) string {
	if sym.Type != symboltable.SchemaColumn {
		return ""
	}
	if parent := sym.Blob.SchemaColumn().ParentSchema; parent != nil {
		return parent.Name
	}
	return ""
}

// fieldMatches implements the three-way match spec.md §4.5.2 describes:
// alias equality, bare-name equality (optionally schema-qualified), or
// qualified-name equality against the candidate's own symbol table name.
func fieldMatches(candidate *symboltable.Symbol, qualifier, bare, fullText string) bool {
	if candidate.Alias != "" && candidate.Alias == fullText {
		return true
	}
	if candidate.Name == fullText {
		return true
	}
	if columnBareName(candidate) == bare {
		if qualifier == "" || schemaNameOf(candidate) == qualifier {
			return true
		}
	}
	return false
}

// lookupInRelation searches sym's own fields (generated, then natural,
// both in reverse declaration order, per spec.md §4.5.2 steps 1-3) and
// returns the matched field's position within sym's
// field_references++generated_field_references concatenation.
func lookupInRelation(sym *symboltable.Symbol, qualifier, bare, fullText string, ctx *bodyCtx) (int, bool) {
	data := sym.Blob.Relation()
	combined := make([]*symboltable.Symbol, 0, len(data.FieldReferences)+len(data.GeneratedFieldReferences))
	combined = append(combined, data.FieldReferences...)
	combined = append(combined, data.GeneratedFieldReferences...)

	lowBound := 0
	if ctx.processingEmit && sym.Subtype == symboltable.KindAggregate {
		// Aggregate special case: field_references are invisible to EMIT,
		// only generated (post-aggregate) outputs are.
		lowBound = len(data.FieldReferences)
	}

	for i := len(combined) - 1; i >= lowBound; i-- {
		if fieldMatches(combined[i], qualifier, bare, fullText) {
			return i, true
		}
	}
	return 0, false
}

// resolveOwnFieldSymbol resolves colNode against sym's own fields only
// (stepsOut == 0) and returns the matched Symbol itself rather than an
// index — used by Pass 4's generated-output construction to detect a
// "plain field reference" expression that should reuse its source
// symbol instead of minting a new one (spec.md §4.5.4).
func resolveOwnFieldSymbol(sym *symboltable.Symbol, colNode *ast.Node, ctx *bodyCtx) (*symboltable.Symbol, bool) {
	qualifier, bare := "", colNode.Text
	if len(colNode.Strs) == 2 {
		qualifier, bare = colNode.Strs[0], colNode.Strs[1]
	}
	idx, ok := lookupInRelation(sym, qualifier, bare, colNode.Text, ctx)
	if !ok {
		return nil, false
	}
	data := sym.Blob.Relation()
	combined := append(append([]*symboltable.Symbol{}, data.FieldReferences...), data.GeneratedFieldReferences...)
	if idx < 0 || idx >= len(combined) {
		return nil, false
	}
	return combined[idx], true
}

// lookupColumn implements spec.md §4.5.2 step 4: if fullText isn't found
// in sym's own fields, continue the search in sym's enclosing query,
// counting how many scopes were crossed (steps_out).
func lookupColumn(sym *symboltable.Symbol, qualifier, bare, fullText string, ctx *bodyCtx) (stepsOut int, index int, ok bool) {
	if idx, found := lookupInRelation(sym, qualifier, bare, fullText, ctx); found {
		return 0, idx, true
	}
	if sym.ParentQueryLocation.IsUnknown() {
		return 0, 0, false
	}
	parent := ctx.tbl.LookupByLocation(sym.ParentQueryLocation)
	if parent == nil {
		return 0, 0, false
	}
	outer, idx, found := lookupColumn(parent, qualifier, bare, fullText, ctx)
	if !found {
		return 0, 0, false
	}
	return outer + 1, idx, true
}
