package compiler

import (
	"time"

	"github.com/wbrown/substraitplan/textplan/diagnostics"
	"github.com/wbrown/substraitplan/textplan/emitter"
	"github.com/wbrown/substraitplan/textplan/parser"
	"github.com/wbrown/substraitplan/textplan/pb"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// Result bundles a successful compilation's Plan with the diagnostics
// collected along the way (a document can compile with warnings the
// caller may still want to see even though HasErrors() is false for
// warning-only listeners — today every recorded diagnostic is an error,
// but the shape leaves room for that distinction).
type Result struct {
	Plan  *pb.Plan
	Table *symboltable.Table
	Errs  *ErrorListener
}

// Compile runs the full five-pass front end plus the emitter over
// textplan source, mirroring the teacher's datalog/planner.Plan entry
// point: one function sequencing every stage, returning either a Plan or
// the combined diagnostics explaining why it couldn't be built.
func Compile(source string) (*Result, error) {
	return CompileWithConfig(source, emitter.DefaultConfig, nil)
}

// CompileWithConfig is Compile with an explicit emitter.Config (version
// stamp) and an optional diagnostics.Bus. A nil bus is the zero-overhead
// path: every Pass call becomes a single nil check.
func CompileWithConfig(source string, cfg emitter.Config, bus *diagnostics.Bus) (*Result, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}

	tbl := symboltable.New()
	cache := NewTypeCache()
	errs := NewErrorListener()

	bus.Pass("declarations", func() { DeclareAll(tree, tbl, cache, errs) })
	bus.Pass("pipeline-wiring", func() { WirePipelines(tree, tbl, errs) })
	bus.Pass("relation-bodies", func() { ResolveRelationBodies(tbl, cache, errs) })
	bus.Pass("subquery-fixup", func() { FixupSubqueries(tbl, errs) })

	if errs.HasErrors() {
		for _, e := range errs.Errors() {
			bus.Emit(diagnostics.Event{Name: diagnostics.ErrorRecorded, Data: map[string]interface{}{"error": e.Error()}})
		}
		return &Result{Table: tbl, Errs: errs}, errs.Err()
	}

	var plan *pb.Plan
	emitStart := time.Now()
	bus.Emit(diagnostics.Event{Name: diagnostics.EmitBegin, Start: emitStart})
	plan, err = emitter.Emit(tbl, cfg)
	emitEnd := time.Now()
	bus.Emit(diagnostics.Event{Name: diagnostics.EmitComplete, Start: emitStart, End: emitEnd, Latency: emitEnd.Sub(emitStart)})
	if err != nil {
		return &Result{Table: tbl, Errs: errs}, err
	}
	return &Result{Plan: plan, Table: tbl, Errs: errs}, nil
}
