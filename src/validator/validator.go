package validator

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/mempool"
)

// Validation faults, carried on TxnRejected events for diagnostics.
var (
	errNoParties   = errors.New("transaction must name a sender and a receiver")
	errZeroAmount  = errors.New("transaction amount must be positive")
	errNoSignature = errors.New("transaction is not signed")
	errSelfSend    = errors.New("sender and receiver are the same account")
)

// Module consumes NewTxn events from the Consensus topic, checks them, and
// publishes the verdict: TxnValidated feeds the state store and the miner,
// TxnRejected evicts the transaction from the mempool.
type Module struct {
	actor.Core

	eventsTx chan<- events.DirectedEvent
	logger   *logrus.Entry
}

// ModuleConfig carries the dependencies of a validator Module.
type ModuleConfig struct {
	EventsTx chan<- events.DirectedEvent
	Logger   *logrus.Entry
}

// NewModule returns a validator module.
func NewModule(cfg ModuleConfig) *Module {
	return &Module{
		Core:     actor.NewCore("validator"),
		eventsTx: cfg.EventsTx,
		logger:   cfg.Logger.WithField("module", "validator"),
	}
}

// validate performs the structural checks applied to every transaction.
func validate(txn *mempool.Txn) error {
	if txn.Sender == "" || txn.Receiver == "" {
		return errNoParties
	}
	if txn.Sender == txn.Receiver {
		return errSelfSend
	}
	if txn.Amount == 0 {
		return errZeroAmount
	}
	if len(txn.Signature) == 0 {
		return errNoSignature
	}
	return nil
}

// Handle implements actor.Actor.
func (m *Module) Handle(ev events.Event) (actor.State, error) {
	switch ev.Kind {
	case events.Stop:
		m.logger.Info("validator received stop signal")
		return actor.Terminating, nil

	case events.NewTxn:
		digest := mempool.Digest(ev.Payload)

		txn, err := mempool.DecodeTxn(ev.Payload)
		if err != nil {
			m.logger.WithError(err).WithField("txn", digest).Warn("rejecting undecodable transaction")
			m.publishVerdict(events.TxnRejected, ev.Payload)
			return actor.Running, nil
		}

		if err := validate(txn); err != nil {
			m.logger.WithError(err).WithField("txn", digest).Debug("rejected transaction")
			m.publishVerdict(events.TxnRejected, ev.Payload)
			return actor.Running, nil
		}

		m.logger.WithField("txn", digest).Debug("validated transaction")
		m.publishVerdict(events.TxnValidated, ev.Payload)
	}

	return actor.Running, nil
}

// publishVerdict fans the verdict out to the storage pipeline and to the
// consensus topic, where the miner picks validated transactions up.
func (m *Module) publishVerdict(kind events.Kind, payload []byte) {
	m.eventsTx <- events.DirectedEvent{
		Topic: events.Storage,
		Event: events.NewEvent(kind, payload),
	}

	if kind == events.TxnValidated {
		m.eventsTx <- events.DirectedEvent{
			Topic: events.Consensus,
			Event: events.NewEvent(kind, payload),
		}
	}
}
