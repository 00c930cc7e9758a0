package actor

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vertexchain/vertex/src/events"
)

// Actor is the uniform interface every node module implements so that the
// orchestrator can manage heterogeneous modules identically.
type Actor interface {
	// ID returns the unique id assigned at construction.
	ID() string

	// Label returns the human-readable module name.
	Label() string

	// Status returns the module's current lifecycle state.
	Status() State

	// SetStatus records the state returned by the last Handle call.
	SetStatus(State)

	// Handle processes one event and returns the resulting state. A Stop
	// event must return Terminating and perform no further side effects.
	// Any other event returns Running to continue, or Terminating with a
	// non-nil error to self-terminate on an unrecoverable fault.
	Handle(events.Event) (State, error)
}

// Core holds the identity and status register shared by all modules. It is
// meant to be embedded; the embedding module supplies Handle.
type Core struct {
	id    string
	label string
	state uint32
}

// NewCore returns a Core with a fresh unique id and the given label, in the
// Starting state.
func NewCore(label string) Core {
	return Core{
		id:    uuid.New().String(),
		label: label,
		state: uint32(Starting),
	}
}

// ID implements Actor.
func (c *Core) ID() string {
	return c.id
}

// Label implements Actor.
func (c *Core) Label() string {
	return c.label
}

// Status implements Actor.
func (c *Core) Status() State {
	return State(atomic.LoadUint32(&c.state))
}

// SetStatus implements Actor.
func (c *Core) SetStatus(s State) {
	atomic.StoreUint32(&c.state, uint32(s))
}
