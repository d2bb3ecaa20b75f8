package symboltable

import "sync"

// Blob is the interior-mutability cell spec.md §5 requires: several passes
// edit the same per-relation side-data while holding only a shared handle
// to the owning Symbol. textplan compiles a single document on a single
// goroutine, so a real mutex buys no concurrency safety — it is kept
// anyway as a live assertion of spec.md's "no visitor holds more than one
// blob lock at a time on the same path" invariant: Lock panics on
// re-entry instead of silently deadlocking, which a bare struct pointer
// would not catch. Grounded on the teacher's general preference for
// explicit mutable structs passed by pointer (datalog/planner's
// *PatternPlan, *query.Expression) rather than copy-in/copy-out value
// semantics.
type Blob struct {
	mu      sync.Mutex
	locked  bool
	payload interface{}
}

// NewBlob wraps payload (typically *RelationData, *ExtensionSpaceData,
// *FunctionData, or *SchemaColumnData) in a Blob.
func NewBlob(payload interface{}) *Blob {
	return &Blob{payload: payload}
}

// Lock acquires exclusive access to the blob's payload and returns an
// unlock function the caller must invoke before recursing into any other
// blob on the same path (spec.md §5's no-nested-locks invariant).
func (b *Blob) Lock() func() {
	if !b.mu.TryLock() {
		panic("symboltable: blob already locked on this path")
	}
	b.locked = true
	return func() {
		b.locked = false
		b.mu.Unlock()
	}
}

// Relation returns the blob's *RelationData, panicking if the blob does
// not hold one — a programmer error (wrong symbol type), not a
// recoverable compile error.
func (b *Blob) Relation() *RelationData {
	return b.payload.(*RelationData)
}

// ExtensionSpace returns the blob's *ExtensionSpaceData.
func (b *Blob) ExtensionSpace() *ExtensionSpaceData {
	return b.payload.(*ExtensionSpaceData)
}

// Function returns the blob's *FunctionData.
func (b *Blob) Function() *FunctionData {
	return b.payload.(*FunctionData)
}

// SchemaColumn returns the blob's *SchemaColumnData.
func (b *Blob) SchemaColumn() *SchemaColumnData {
	return b.payload.(*SchemaColumnData)
}

// Source returns the blob's *SourceData.
func (b *Blob) Source() *SourceData {
	return b.payload.(*SourceData)
}
