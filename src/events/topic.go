package events

// Topic identifies a logical broadcast channel within the event router. The
// set of topics is closed and declared once at router construction; modules
// subscribe to topics, never to each other.
type Topic uint8

const (
	// Control carries lifecycle events, notably Stop. Low volume, never
	// dropped.
	Control Topic = iota
	// State carries node state-machine transitions.
	State
	// Network carries gossip and peer events.
	Network
	// Consensus carries transaction validation and block events.
	Consensus
	// Storage carries events that mutate the mempool or the state store.
	Storage
)

// String ...
func (t Topic) String() string {
	switch t {
	case Control:
		return "Control"
	case State:
		return "State"
	case Network:
		return "Network"
	case Consensus:
		return "Consensus"
	case Storage:
		return "Storage"
	default:
		return "Unknown"
	}
}
