package mempool

import (
	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/events"
)

// Module bridges Storage-topic events to the transaction pool. It admits
// NewTxn events and evicts transactions once they are validated, rejected
// or folded into a confirmed block.
type Module struct {
	actor.Core

	pool     *Pool
	eventsTx chan<- events.DirectedEvent
	logger   *logrus.Entry
}

// ModuleConfig carries the dependencies of a mempool Module.
type ModuleConfig struct {
	EventsTx chan<- events.DirectedEvent
	Logger   *logrus.Entry
}

// NewModule returns a mempool module operating on pool.
func NewModule(pool *Pool, cfg ModuleConfig) *Module {
	m := &Module{
		Core:     actor.NewCore("mempool"),
		pool:     pool,
		eventsTx: cfg.EventsTx,
		logger:   cfg.Logger.WithField("module", "mempool"),
	}

	return m
}

// ReadHandle exposes the pool's read-only view for RPC and service reads.
func (m *Module) ReadHandle() ReadHandle {
	return m.pool.ReadHandle()
}

// Handle implements actor.Actor.
func (m *Module) Handle(ev events.Event) (actor.State, error) {
	switch ev.Kind {
	case events.Stop:
		m.logger.Info("mempool received stop signal")
		return actor.Terminating, nil

	case events.NewTxn:
		digest := m.pool.Add(ev.Payload)
		m.logger.WithField("txn", digest).Debug("admitted transaction")

		// Hand the admitted transaction to the validators.
		m.eventsTx <- events.DirectedEvent{
			Topic: events.Consensus,
			Event: events.NewEvent(events.NewTxn, ev.Payload),
		}

	case events.TxnValidated, events.TxnRejected:
		digest := Digest(ev.Payload)
		m.pool.Remove(digest)
		m.logger.WithFields(logrus.Fields{
			"txn":  digest,
			"kind": ev.Kind.String(),
		}).Debug("evicted transaction")
	}

	return actor.Running, nil
}
