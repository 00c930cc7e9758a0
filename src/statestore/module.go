package statestore

import (
	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/mempool"
)

// Module applies Storage-topic events to the state database. A failed
// transfer is a module-local fault: it is logged and skipped, it does not
// terminate the module.
type Module struct {
	actor.Core

	store    *Store
	eventsTx chan<- events.DirectedEvent
	logger   *logrus.Entry
}

// ModuleConfig carries the dependencies of a state Module.
type ModuleConfig struct {
	EventsTx chan<- events.DirectedEvent
	Logger   *logrus.Entry
}

// NewModule returns a state module operating on store.
func NewModule(store *Store, cfg ModuleConfig) *Module {
	return &Module{
		Core:     actor.NewCore("statestore"),
		store:    store,
		eventsTx: cfg.EventsTx,
		logger:   cfg.Logger.WithField("module", "statestore"),
	}
}

// ReadHandle exposes the store's concurrent read-only view.
func (m *Module) ReadHandle() ReadHandle {
	return m.store.ReadHandle()
}

// Handle implements actor.Actor.
func (m *Module) Handle(ev events.Event) (actor.State, error) {
	switch ev.Kind {
	case events.Stop:
		m.logger.Info("statestore received stop signal")
		if err := m.store.Close(); err != nil {
			return actor.Terminating, err
		}
		return actor.Terminating, nil

	case events.TxnValidated:
		txn, err := mempool.DecodeTxn(ev.Payload)
		if err != nil {
			m.logger.WithError(err).Warn("dropping undecodable transaction")
			return actor.Running, nil
		}

		if err := m.store.Transfer(txn.Sender, txn.Receiver, txn.Amount); err != nil {
			m.logger.WithError(err).Warn("transfer failed")
			return actor.Running, nil
		}

		m.eventsTx <- events.DirectedEvent{
			Topic: events.State,
			Event: events.NewEvent(events.StateUpdated, ev.Payload),
		}

	case events.BlockConfirmed:
		height, err := m.store.IncrementHeight()
		if err != nil {
			return actor.Terminating, err
		}
		m.logger.WithField("height", height).Debug("chain height updated")
	}

	return actor.Running, nil
}
