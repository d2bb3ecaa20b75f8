// Package diagnostics is textplan's low-overhead event/annotation system
// for observing a compile: which pass is running, what got declared,
// what failed. Grounded on the teacher's datalog/annotations package, but
// simplified for a single-threaded, single-pass-at-a-time pipeline
// (spec.md §5) — no pooled buffers or mutex-guarded collector, since a
// textplan compile never runs two passes concurrently.
package diagnostics

import "time"

// Event name constants, hierarchical like the teacher's datalog/annotations.
const (
	PassBegin     = "pass/begin"
	PassComplete  = "pass/complete"
	SymbolDefined = "symbol/defined"
	ErrorRecorded = "error/recorded"
	EmitBegin     = "emit/begin"
	EmitComplete  = "emit/complete"
)

// Event is one observable occurrence during a compile.
type Event struct {
	Name    string
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]interface{}
}

// Handler processes events as they occur.
type Handler func(Event)

// Bus fans a compile's events out to zero or one handler. textplan only
// ever needs one observer (the CLI's -verbose formatter), so this skips
// the teacher's Collector/pool machinery in favor of the minimum that
// still lets cmd/textplan observe a compile without threading a listener
// through every pass function.
type Bus struct {
	handler Handler
}

// NewBus returns a Bus that calls handler for every event, or that
// discards events if handler is nil.
func NewBus(handler Handler) *Bus {
	return &Bus{handler: handler}
}

// Emit records ev if a handler is attached.
func (b *Bus) Emit(ev Event) {
	if b == nil || b.handler == nil {
		return
	}
	b.handler(ev)
}

// Pass emits a PassBegin/PassComplete pair bracketing fn, timing it.
func (b *Bus) Pass(name string, fn func()) {
	if b == nil || b.handler == nil {
		fn()
		return
	}
	start := time.Now()
	b.Emit(Event{Name: PassBegin, Start: start, Data: map[string]interface{}{"pass": name}})
	fn()
	end := time.Now()
	b.Emit(Event{Name: PassComplete, Start: start, End: end, Latency: end.Sub(start), Data: map[string]interface{}{"pass": name}})
}
