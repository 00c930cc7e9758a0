package events

// Kind discriminates the variants of an Event.
type Kind uint8

const (
	// NoOp is the zero value. Routed like any other event; handlers ignore
	// it.
	NoOp Kind = iota
	// Stop instructs a module to terminate. It carries no payload and is
	// understood by every module.
	Stop
	// NewTxn announces a transaction submitted to the node.
	NewTxn
	// TxnValidated announces a transaction that passed validation.
	TxnValidated
	// TxnRejected announces a transaction that failed validation.
	TxnRejected
	// BlockConfirmed announces a block cut by the miner.
	BlockConfirmed
	// PeerJoined announces a peer discovered through gossip.
	PeerJoined
	// StateUpdated announces a change to the ledger state.
	StateUpdated
)

// String ...
func (k Kind) String() string {
	switch k {
	case NoOp:
		return "NoOp"
	case Stop:
		return "Stop"
	case NewTxn:
		return "NewTxn"
	case TxnValidated:
		return "TxnValidated"
	case TxnRejected:
		return "TxnRejected"
	case BlockConfirmed:
		return "BlockConfirmed"
	case PeerJoined:
		return "PeerJoined"
	case StateUpdated:
		return "StateUpdated"
	default:
		return "Unknown"
	}
}

// Event is the message envelope routed between modules. Events are values;
// the router copies them into every subscriber queue and nothing mutates
// them after publish.
type Event struct {
	Kind Kind

	// Payload is the serialized body of the event. Empty for Stop and NoOp.
	Payload []byte

	// Source optionally names the peer or module the event originated from.
	Source string
}

// NewEvent returns an event of the given kind wrapping payload.
func NewEvent(kind Kind, payload []byte) Event {
	return Event{Kind: kind, Payload: payload}
}

// StopEvent returns the universal Stop event.
func StopEvent() Event {
	return Event{Kind: Stop}
}

// IsStop reports whether the event is the Stop variant.
func (e Event) IsStop() bool {
	return e.Kind == Stop
}

// DirectedEvent pairs an event with the topic it is published on. It is the
// router's unit of transport; producers address topics, never subscribers.
type DirectedEvent struct {
	Topic Topic
	Event Event
}
