package compiler

import (
	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// bodyCtx carries the shared state Pass 4 threads through its recursive
// relation visitor: the symbol table, the Pass 1 type cache, the error
// listener, and the per-parent-relation subquery index counters spec.md
// §4.5.3 step 2 describes ("index is assigned per parent in
// subquery-encounter order starting at 0").
type bodyCtx struct {
	tbl            *symboltable.Table
	cache          *TypeCache
	errs           *ErrorListener
	nextSubqueryIx map[*symboltable.Symbol]int

	// processingEmit mirrors spec.md §4.5.2 step 3's "processing_emit"
	// flag: true while resolving an EMIT property's column reference,
	// which changes field visibility for Aggregate relations.
	processingEmit bool
}

// ResolveRelationBodies is Pass 4. It visits every declared Relation
// symbol (synthesized Unknown-kind stubs get their field references
// populated but have no body to process) in a recursive, upstream-first order so that by the time a
// relation's own detail handlers run, every relation feeding it already
// has FieldReferences/GeneratedFieldReferences/OutputFieldReferences
// fully populated, per spec.md §4.5.1.
func ResolveRelationBodies(tbl *symboltable.Table, cache *TypeCache, errs *ErrorListener) {
	ctx := &bodyCtx{tbl: tbl, cache: cache, errs: errs, nextSubqueryIx: map[*symboltable.Symbol]int{}}
	for _, sym := range tbl.OfType(symboltable.Relation) {
		visitRelation(sym, ctx)
	}
}

// visitRelation implements spec.md §4.5.1's recursive, cycle-guarded
// population of field_references, folding in full body processing (the
// property handlers of §4.5.5 and the generated-output population of
// §4.5.4) so that a relation is entirely finished before anything
// downstream of it runs.
func visitRelation(sym *symboltable.Symbol, ctx *bodyCtx) {
	data := sym.Blob.Relation()
	if data.FieldsResolved() {
		return
	}
	if data.Visiting() {
		ctx.errs.Add(SymbolError, 0, 0, "relation %q participates in a pipeline cycle", sym.Name)
		return
	}
	data.SetVisiting(true)
	defer data.SetVisiting(false)

	if data.ContinuingPipeline != nil {
		visitRelation(data.ContinuingPipeline, ctx)
	}
	for _, up := range data.NewPipelines {
		visitRelation(up, ctx)
	}

	// A Read relation's FieldReferences come from its BASE_SCHEMA binding
	// (populateFieldReferences below), but that binding is itself just
	// another relation_detail the body walk in processRelationBody would
	// otherwise be the one to resolve — too late, since FieldReferences
	// must already be populated before any downstream consumer's own
	// field-reference population runs. Bind it here, first.
	bindSchemaAndSource(sym, ctx)

	populateFieldReferences(sym, ctx)
	data.MarkFieldsResolved()

	if sym.Subtype == symboltable.KindUnknown {
		return // synthesized stub: no detail to process
	}
	processRelationBody(sym, ctx)
}

// bindSchemaAndSource resolves a relation's BASE_SCHEMA/SOURCE property
// references up front, ahead of field-reference population. Harmless to
// run again from within processRelationBody's main walk (same lookup,
// same result) but doing it here first is what makes populateFieldReferences
// see a non-nil BaseSchema for a Read relation.
func bindSchemaAndSource(sym *symboltable.Symbol, ctx *bodyCtx) {
	data := sym.Blob.Relation()
	if data.DeclNode == nil {
		return
	}
	for _, detail := range data.DeclNode.Children {
		switch detail.Kind {
		case ast.RuleRelationUsesSchema:
			if schemaSym := ctx.tbl.LookupByName(detail.Text); schemaSym != nil {
				data.BaseSchema = schemaSym
			}
		case ast.RuleRelationSourceReference:
			if srcSym := ctx.tbl.LookupByName(detail.Text); srcSym != nil {
				data.SourceSym = srcSym
			}
		}
	}
}

// upstreamOutputFields returns the ordered field symbols an upstream
// relation presents to its downstream consumer: its narrowed
// output_field_references if EMIT was given, otherwise its natural
// field_references followed by its generated_field_references.
func upstreamOutputFields(upstream *symboltable.Symbol) []*symboltable.Symbol {
	d := upstream.Blob.Relation()
	if len(d.OutputFieldReferences) > 0 {
		return d.OutputFieldReferences
	}
	out := make([]*symboltable.Symbol, 0, len(d.FieldReferences)+len(d.GeneratedFieldReferences))
	out = append(out, d.FieldReferences...)
	out = append(out, d.GeneratedFieldReferences...)
	return out
}

// populateFieldReferences fills in data.FieldReferences per spec.md
// §4.5.1: a Read relation's input is its bound schema's columns; every
// other relation's input is the concatenation of its upstream(s)'
// upstreamOutputFields.
func populateFieldReferences(sym *symboltable.Symbol, ctx *bodyCtx) {
	data := sym.Blob.Relation()

	if sym.Subtype == symboltable.KindRead {
		if data.BaseSchema == nil {
			return
		}
		data.FieldReferences = schemaColumns(data.BaseSchema, ctx.tbl)
		return
	}

	if data.ContinuingPipeline != nil {
		data.FieldReferences = append(data.FieldReferences, upstreamOutputFields(data.ContinuingPipeline)...)
	}
	for _, up := range data.NewPipelines {
		data.FieldReferences = append(data.FieldReferences, upstreamOutputFields(up)...)
	}
}

// schemaColumns returns every SchemaColumn symbol belonging to schemaSym,
// in declaration order.
func schemaColumns(schemaSym *symboltable.Symbol, tbl *symboltable.Table) []*symboltable.Symbol {
	var out []*symboltable.Symbol
	for _, col := range tbl.OfType(symboltable.SchemaColumn) {
		if col.Blob.SchemaColumn().ParentSchema == schemaSym {
			out = append(out, col)
		}
	}
	return out
}
