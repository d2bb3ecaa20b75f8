package compiler

import (
	"github.com/wbrown/substraitplan/textplan/ast"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// isBinaryOrTerminal reports whether a relation of this kind/name
// receives its upstream(s) via new_pipelines rather than
// continuing_pipeline, per spec.md §4.4 step 3.
func isBinaryOrTerminal(sym *symboltable.Symbol) bool {
	if sym.Name == "root" {
		return true
	}
	switch sym.Subtype {
	case symboltable.KindJoin, symboltable.KindCross, symboltable.KindSet,
		symboltable.KindHashJoin, symboltable.KindMergeJoin, symboltable.KindExtensionLeaf:
		return true
	default:
		return false
	}
}

// resolveOrStub looks up name, synthesizing an Unknown-kind stub Relation
// symbol if it has not been declared, per spec.md §4.4 step 1.
func resolveOrStub(name string, loc symboltable.Location, tbl *symboltable.Table) *symboltable.Symbol {
	if sym := tbl.LookupByName(name); sym != nil {
		return sym
	}
	data := &symboltable.RelationData{Rel: newDefaultRel(symboltable.KindUnknown)}
	return tbl.DefineSymbol(name, loc, symboltable.Relation, symboltable.KindUnknown, symboltable.NewBlob(data))
}

// WirePipelines is Pass 3: it walks every pipeline statement's `->` chain,
// wiring adjacent relations via continuing_pipeline or new_pipelines and
// computing pipeline_start, per spec.md §4.4.
func WirePipelines(plan *ast.Node, tbl *symboltable.Table, errs *ErrorListener) {
	for _, stmt := range plan.Children {
		if stmt.Kind != ast.RulePipeline {
			continue
		}
		wireOneChain(stmt, tbl, errs)
	}
}

func wireOneChain(stmt *ast.Node, tbl *symboltable.Table, errs *ErrorListener) {
	if len(stmt.Children) == 0 {
		return
	}

	syms := make([]*symboltable.Symbol, len(stmt.Children))
	for i, ref := range stmt.Children {
		syms[i] = resolveOrStub(ref.Text, symboltable.FromPos(ref.Pos), tbl)
	}

	for i := 0; i < len(syms)-1; i++ {
		left := syms[i]
		right := syms[i+1]
		rightData := right.Blob.Relation()

		if rightData.ContinuingPipeline != nil {
			errs.Add(SymbolError, stmt.Children[i+1].Pos.Line, stmt.Children[i+1].Pos.Col,
				"relation %q is already a participant in a pipeline", right.Name)
			continue
		}

		if isBinaryOrTerminal(right) {
			rightData.NewPipelines = append(rightData.NewPipelines, left)
		} else {
			rightData.ContinuingPipeline = left
		}
	}

	// pipeline_start, per spec.md §4.4 step 4: the terminus (the chain's
	// rightmost element, with no arrow following it) is reflexive; every
	// element upstream of it in this chain inherits that same value,
	// propagated backward so a later statement extending an already-wired
	// relation (e.g. a join's two separate `-> j;` feeds followed by
	// `j -> root;`) corrects everything feeding it, not just itself.
	term := syms[len(syms)-1]
	term.Blob.Relation().PipelineStart = term
	for i := len(syms) - 2; i >= 0; i-- {
		syms[i].Blob.Relation().PipelineStart = syms[i+1].Blob.Relation().PipelineStart
	}
}
