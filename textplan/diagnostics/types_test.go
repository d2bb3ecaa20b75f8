package diagnostics

import "testing"

func TestBusNilIsNoOp(t *testing.T) {
	var b *Bus
	b.Emit(Event{Name: PassBegin})
	ran := false
	b.Pass("whatever", func() { ran = true })
	if !ran {
		t.Fatal("Pass should still invoke fn on a nil Bus")
	}
}

func TestBusEmitsToHandler(t *testing.T) {
	var got []Event
	b := NewBus(func(ev Event) { got = append(got, ev) })

	b.Pass("declarations", func() {})

	if len(got) != 2 {
		t.Fatalf("want 2 events (begin+complete), got %d", len(got))
	}
	if got[0].Name != PassBegin || got[0].Data["pass"] != "declarations" {
		t.Errorf("first event = %+v, want PassBegin/declarations", got[0])
	}
	if got[1].Name != PassComplete || got[1].Data["pass"] != "declarations" {
		t.Errorf("second event = %+v, want PassComplete/declarations", got[1])
	}
	if got[1].Latency < 0 {
		t.Errorf("latency should be non-negative, got %v", got[1].Latency)
	}
}

func TestBusNoHandlerDoesNotPanic(t *testing.T) {
	b := NewBus(nil)
	b.Emit(Event{Name: ErrorRecorded})
}
