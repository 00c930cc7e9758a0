package actor

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vertexchain/vertex/src/common"
	"github.com/vertexchain/vertex/src/events"
)

var errBroken = errors.New("internal fault")

// countingActor counts handled events and optionally faults on a given
// kind.
type countingActor struct {
	Core
	handled uint32
	faultOn events.Kind
}

func newCountingActor(label string) *countingActor {
	return &countingActor{Core: NewCore(label), faultOn: events.Kind(255)}
}

func (a *countingActor) Handle(ev events.Event) (State, error) {
	if ev.IsStop() {
		return Terminating, nil
	}

	if ev.Kind == a.faultOn {
		return Terminating, errBroken
	}

	atomic.AddUint32(&a.handled, 1)

	return Running, nil
}

func (a *countingActor) handledCount() uint32 {
	return atomic.LoadUint32(&a.handled)
}

func TestActorIdentity(t *testing.T) {
	a := newCountingActor("gossip")
	b := newCountingActor("gossip")

	if a.Label() != "gossip" {
		t.Fatalf("got label %q, want gossip", a.Label())
	}

	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("actor ids not unique: %q vs %q", a.ID(), b.ID())
	}

	if a.Status() != Starting {
		t.Fatalf("got initial status %v, want Starting", a.Status())
	}
}

func TestRunStopsOnStopEvent(t *testing.T) {
	a := newCountingActor("test")

	control := make(chan events.Event, 3)

	// Queue events behind the Stop on the same endpoint; FIFO delivery
	// means they sit after Stop and must never be processed.
	control <- events.StopEvent()
	control <- events.NewEvent(events.NewTxn, []byte("late"))
	control <- events.NewEvent(events.NewTxn, []byte("later"))

	h := Spawn(a, control, nil, common.NewTestEntry(t))

	if err := h.Join(); err != nil {
		t.Fatalf("clean stop returned error: %v", err)
	}

	if a.Status() != Stopped {
		t.Fatalf("got status %v, want Stopped", a.Status())
	}

	if n := a.handledCount(); n != 0 {
		t.Fatalf("module processed %d events after Stop", n)
	}
}

func TestRunProcessesDomainEvents(t *testing.T) {
	a := newCountingActor("test")

	control := make(chan events.Event, 1)
	domain := make(chan events.Event, 10)

	domain <- events.NewEvent(events.NewTxn, []byte("tx1"))
	domain <- events.NewEvent(events.NewTxn, []byte("tx2"))

	h := Spawn(a, control, domain, common.NewTestEntry(t))

	deadline := time.After(time.Second)
	for a.handledCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("module handled %d events, want 2", a.handledCount())
		case <-time.After(time.Millisecond):
		}
	}

	if a.Status() != Running {
		t.Fatalf("got status %v, want Running", a.Status())
	}

	control <- events.StopEvent()

	if err := h.Join(); err != nil {
		t.Fatal(err)
	}
}

func TestRunSurfacesModuleFault(t *testing.T) {
	a := newCountingActor("test")
	a.faultOn = events.NewTxn

	control := make(chan events.Event, 1)
	domain := make(chan events.Event, 1)

	domain <- events.NewEvent(events.NewTxn, []byte("poison"))

	h := Spawn(a, control, domain, common.NewTestEntry(t))

	if err := h.Join(); !errors.Is(err, errBroken) {
		t.Fatalf("got %v, want errBroken", err)
	}

	// Join result is cached.
	if err := h.Join(); !errors.Is(err, errBroken) {
		t.Fatalf("second Join got %v, want errBroken", err)
	}
}

func TestRunExitsOnClosedEndpoint(t *testing.T) {
	a := newCountingActor("test")

	control := make(chan events.Event)
	close(control)

	h := Spawn(a, control, nil, common.NewTestEntry(t))

	if err := h.Join(); err != nil {
		t.Fatal(err)
	}

	if a.Status() != Stopped {
		t.Fatalf("got status %v, want Stopped", a.Status())
	}
}
