// Package emitter implements spec.md §4.7: it turns a fully-populated
// symboltable.Table into a pb.Plan, recursively grafting each relation's
// upstream(s) into its Rel oneof's input/left/right/inputs slot and
// computing its emit mapping.
package emitter

import (
	"fmt"

	"github.com/wbrown/substraitplan/textplan/pb"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// Config is the "configuration struct" spec.md §4.7 step 1 calls for:
// the version stamp every emitted Plan carries.
type Config struct {
	Major, Minor, Patch uint32
	Producer            string
}

// DefaultConfig is the version stamp used when no Config is supplied.
var DefaultConfig = Config{Major: 0, Minor: 42, Patch: 0, Producer: "textplan"}

// emitter carries the grafting recursion's shared, once-per-relation
// memoization state.
type emitter struct {
	tbl     *symboltable.Table
	grafted map[*symboltable.Symbol]bool
	errs    []string
}

// Emit runs Pass 4.7 over tbl and returns the resulting Plan. Emit errors
// (spec.md §7: "fatal for the current plan") are returned as a single
// combined error; nothing is returned on failure.
func Emit(tbl *symboltable.Table, cfg Config) (*pb.Plan, error) {
	e := &emitter{tbl: tbl, grafted: map[*symboltable.Symbol]bool{}}

	plan := &pb.Plan{
		Version: &pb.Version{Major: cfg.Major, Minor: cfg.Minor, Patch: cfg.Patch, Producer: cfg.Producer},
	}

	for _, sp := range tbl.OfType(symboltable.ExtensionSpace) {
		d := sp.Blob.ExtensionSpace()
		plan.ExtensionURIs = append(plan.ExtensionURIs, &pb.SimpleExtensionUri{ExtensionURIAnchor: d.Anchor, URI: d.URI})
	}
	for _, fn := range tbl.OfType(symboltable.Function) {
		d := fn.Blob.Function()
		decl := &pb.SimpleExtensionDeclaration{FunctionAnchor: d.FunctionAnchor, Name: d.Signature}
		if d.ExtensionSpace != nil {
			decl.ExtensionURIReference = d.ExtensionSpace.Blob.ExtensionSpace().Anchor
		}
		plan.Extensions = append(plan.Extensions, decl)
	}

	// Graft every relation — not just top-level ones. Subquery roots are
	// never reachable via continuing_pipeline/new_pipelines from a
	// top-level relation (they're linked only through the *pb.Rel pointer
	// an Expression's subquery field already shares with their
	// RelationData.Rel), so each must be grafted independently for that
	// shared pointer to end up fully materialized.
	for _, sym := range tbl.OfType(symboltable.Relation) {
		if sym.Subtype == symboltable.KindUnknown || sym.Subtype == symboltable.KindRoot {
			continue
		}
		e.graft(sym)
	}

	for _, sym := range tbl.OfType(symboltable.Relation) {
		data := sym.Blob.Relation()
		if data.PipelineStart != sym || sym.IsSubquery() {
			continue
		}

		if sym.Subtype == symboltable.KindRoot {
			// root is classified terminal (isBinaryOrTerminal special-cases
			// the literal name "root"), so its upstream lives in
			// new_pipelines, never continuing_pipeline.
			var input *pb.Rel
			if len(data.NewPipelines) > 0 {
				input = e.graft(data.NewPipelines[0])
			}
			plan.Relations = append(plan.Relations, &pb.PlanRel{Root: &pb.RelRoot{Input: input, Names: data.RootNames}})
			continue
		}

		plan.Relations = append(plan.Relations, &pb.PlanRel{Rel: data.Rel})
	}

	if len(e.errs) > 0 {
		msg := fmt.Sprintf("%d emit error(s):", len(e.errs))
		for _, m := range e.errs {
			msg += "\n  " + m
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return plan, nil
}

func (e *emitter) fail(format string, args ...interface{}) {
	e.errs = append(e.errs, fmt.Sprintf(format, args...))
}

// graft materializes sym's Rel in place — filling its oneof's upstream
// slot(s) from continuing_pipeline/new_pipelines and its emit mapping
// from output_field_references — and returns it. Idempotent: a relation
// reachable through more than one path (a subquery referenced from
// several expressions, a Set's shared upstream, …) is only grafted once.
func (e *emitter) graft(sym *symboltable.Symbol) *pb.Rel {
	data := sym.Blob.Relation()
	rel := data.Rel
	if e.grafted[sym] {
		return rel
	}
	e.grafted[sym] = true

	switch rel.Kind {
	case pb.RelJoin, pb.RelCross, pb.RelHashJoin, pb.RelMergeJoin:
		// Join/HashJoin/MergeJoin's Type field is already resolved from
		// the TYPE property by compiler.processRelationBody in Pass 4.
		left, right := e.twoUpstreams(sym, data)
		switch rel.Kind {
		case pb.RelJoin:
			rel.Join.Left, rel.Join.Right = left, right
		case pb.RelCross:
			rel.Cross.Left, rel.Cross.Right = left, right
		case pb.RelHashJoin:
			rel.HashJoin.Left, rel.HashJoin.Right = left, right
		case pb.RelMergeJoin:
			rel.MergeJoin.Left, rel.MergeJoin.Right = left, right
		}

	case pb.RelSet:
		for _, up := range data.NewPipelines {
			rel.Set.Inputs = append(rel.Set.Inputs, e.graft(up))
		}

	case pb.RelExtensionLeaf:
		// No input slot in the proto shape; a preceding `->` into an
		// ExtensionLeaf (malformed input) is silently dropped.

	case pb.RelExtensionMulti:
		if data.ContinuingPipeline != nil {
			rel.ExtensionMulti.Inputs = []*pb.Rel{e.graft(data.ContinuingPipeline)}
		}

	default:
		e.assignUnaryInput(rel, data)
	}

	e.assignEmitMapping(sym, data, rel)
	return rel
}

func (e *emitter) twoUpstreams(sym *symboltable.Symbol, data *symboltable.RelationData) (*pb.Rel, *pb.Rel) {
	if len(data.NewPipelines) != 2 {
		e.fail("relation %q needs exactly two upstream pipelines, has %d", sym.Name, len(data.NewPipelines))
		var left, right *pb.Rel
		if len(data.NewPipelines) > 0 {
			left = e.graft(data.NewPipelines[0])
		}
		return left, right
	}
	return e.graft(data.NewPipelines[0]), e.graft(data.NewPipelines[1])
}

// assignUnaryInput fills the single Input slot of every one-upstream Rel
// variant. Read/Ddl take no upstream at all (true leaves).
func (e *emitter) assignUnaryInput(rel *pb.Rel, data *symboltable.RelationData) {
	if data.ContinuingPipeline == nil {
		return
	}
	upstream := e.graft(data.ContinuingPipeline)
	switch rel.Kind {
	case pb.RelProject:
		rel.Project.Input = upstream
	case pb.RelFetch:
		rel.Fetch.Input = upstream
	case pb.RelSort:
		rel.Sort.Input = upstream
	case pb.RelFilter:
		rel.Filter.Input = upstream
	case pb.RelAggregate:
		rel.Aggregate.Input = upstream
	case pb.RelExchange:
		rel.Exchange.Input = upstream
	case pb.RelWrite:
		rel.Write.Input = upstream
	case pb.RelExtensionSingle:
		rel.ExtensionSingle.Input = upstream
	case pb.RelRead, pb.RelDdl:
		// Leaves; an upstream here means a malformed plan wired a source
		// into a read/ddl, which is silently ignored the same way
		// ExtensionLeaf's stray new_pipelines are.
	}
}

// assignEmitMapping implements spec.md §4.7 step 3's last bullet and
// invariant 8: a relation with no output_field_references is Direct;
// otherwise output_mapping holds each output symbol's position within
// this relation's own field_references++generated_field_references, or,
// for an Aggregate, within its generated_field_references alone (its
// groupings followed by its measures).
func (e *emitter) assignEmitMapping(sym *symboltable.Symbol, data *symboltable.RelationData, rel *pb.Rel) {
	common := relCommon(rel)
	if common == nil {
		return
	}
	if len(data.OutputFieldReferences) == 0 {
		common.Emit = pb.EmitDirect
		common.OutputMapping = nil
		return
	}

	combined := make([]*symboltable.Symbol, 0, len(data.FieldReferences)+len(data.GeneratedFieldReferences))
	if sym.Subtype != symboltable.KindAggregate {
		combined = append(combined, data.FieldReferences...)
	}
	combined = append(combined, data.GeneratedFieldReferences...)

	common.Emit = pb.EmitRemapped
	common.OutputMapping = nil
	for _, want := range data.OutputFieldReferences {
		idx := -1
		for i, cand := range combined {
			if cand == want {
				idx = i
				break
			}
		}
		if idx < 0 {
			e.fail("relation %q: emitted field %q not found in its own field list", sym.Name, want.Name)
			continue
		}
		common.OutputMapping = append(common.OutputMapping, int32(idx))
	}
}

// relCommon returns the RelCommon embedded in whichever oneof variant rel
// currently holds.
func relCommon(rel *pb.Rel) *pb.RelCommon {
	switch rel.Kind {
	case pb.RelRead:
		return rel.Read.Common
	case pb.RelProject:
		return rel.Project.Common
	case pb.RelJoin:
		return rel.Join.Common
	case pb.RelCross:
		return rel.Cross.Common
	case pb.RelFetch:
		return rel.Fetch.Common
	case pb.RelAggregate:
		return rel.Aggregate.Common
	case pb.RelSort:
		return rel.Sort.Common
	case pb.RelFilter:
		return rel.Filter.Common
	case pb.RelSet:
		return rel.Set.Common
	case pb.RelHashJoin:
		return rel.HashJoin.Common
	case pb.RelMergeJoin:
		return rel.MergeJoin.Common
	case pb.RelExchange:
		return rel.Exchange.Common
	case pb.RelDdl:
		return rel.Ddl.Common
	case pb.RelWrite:
		return rel.Write.Common
	case pb.RelExtensionLeaf:
		return rel.ExtensionLeaf.Common
	case pb.RelExtensionSingle:
		return rel.ExtensionSingle.Common
	case pb.RelExtensionMulti:
		return rel.ExtensionMulti.Common
	default:
		return nil
	}
}
