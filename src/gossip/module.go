package gossip

import (
	"net"

	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/events"
)

// Module bridges Control and Network topic events to the broadcast engine.
// It is the exemplar of the actor contract bound to an external capability:
// construction acquires the gossip socket and may fail, and the resolved
// local address is exposed because the configured address may use an
// OS-assigned port.
type Module struct {
	actor.Core

	engine *BroadcastEngine
	nodeID string
	logger *logrus.Entry
}

// ModuleConfig carries the dependencies of a gossip Module.
type ModuleConfig struct {
	BindAddr       string
	BootstrapAddrs []string
	NodeID         string
	EventsTx       chan<- events.DirectedEvent
	Logger         *logrus.Entry
}

// NewModule binds the gossip socket and returns the module. A bind failure
// is returned to the caller; no fallback address is attempted.
func NewModule(cfg ModuleConfig) (*Module, error) {
	engine, err := NewBroadcastEngine(cfg.BindAddr, cfg.BootstrapAddrs, cfg.EventsTx, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Module{
		Core:   actor.NewCore("gossip"),
		engine: engine,
		nodeID: cfg.NodeID,
		logger: cfg.Logger.WithField("module", "gossip"),
	}, nil
}

// LocalAddr returns the engine's resolved socket address.
func (m *Module) LocalAddr() *net.UDPAddr {
	return m.engine.LocalAddr()
}

// Listen starts the engine's receive loop. Blocking; run in its own
// goroutine.
func (m *Module) Listen() {
	m.engine.Listen()
}

// Close releases the gossip socket. It is called through Handle(Stop) in
// normal operation; the bootstrapper calls it directly when a later module
// fails to construct.
func (m *Module) Close() error {
	return m.engine.Close()
}

// Handle implements actor.Actor. On Stop the socket is closed and no
// further network I/O happens.
func (m *Module) Handle(ev events.Event) (actor.State, error) {
	switch ev.Kind {
	case events.Stop:
		m.logger.Info("gossip received stop signal")
		if err := m.engine.Close(); err != nil {
			return actor.Terminating, err
		}
		return actor.Terminating, nil

	case events.PeerJoined:
		if err := m.engine.AddPeer(string(ev.Payload)); err != nil {
			m.logger.WithError(err).Warn("ignoring bad peer address")
		}

	case events.NewTxn, events.TxnValidated, events.TxnRejected, events.BlockConfirmed:
		// Events that arrived from a remote peer carry their origin and
		// are not reflected back into the network.
		if ev.Source != "" && ev.Source != m.nodeID {
			break
		}

		msg := &Message{Kind: ev.Kind, Payload: ev.Payload, Source: m.nodeID}
		if err := m.engine.Broadcast(msg); err != nil {
			m.logger.WithError(err).Warn("broadcast failed")
		}
	}

	return actor.Running, nil
}
