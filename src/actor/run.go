package actor

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/events"
)

// Handle is the ownership token for a spawned module's run loop. The node
// orchestrator holds exactly one Handle per enabled module and is the only
// party that joins it.
type Handle struct {
	label string

	once sync.Once
	err  error
	done chan error
}

// Label returns the module name the handle was spawned for.
func (h *Handle) Label() string {
	return h.label
}

// Join blocks until the module's run loop has exited and returns nil for a
// clean Stop-triggered termination, or the module's fault. Join may be
// called more than once; the result is cached.
func (h *Handle) Join() error {
	h.once.Do(func() {
		h.err = <-h.done
	})
	return h.err
}

// Spawn starts a module's run loop in its own goroutine and returns its
// Handle.
func Spawn(a Actor, control, domain <-chan events.Event, logger *logrus.Entry) *Handle {
	h := &Handle{
		label: a.Label(),
		done:  make(chan error, 1),
	}

	go func() {
		h.done <- Run(a, control, domain, logger)
	}()

	return h
}

// Run drives a module: it receives one event at a time from the module's
// inbound endpoints, calls Handle, and records the returned state. The loop
// exits when the state becomes Terminating, or when an endpoint is closed
// by the router. A nil domain channel is valid for modules that only listen
// on Control.
//
// Run returns nil on a clean termination and the module's own error when
// Handle reported an unrecoverable fault.
func Run(a Actor, control, domain <-chan events.Event, logger *logrus.Entry) error {
	logger = logger.WithField("module", a.Label())

	a.SetStatus(Running)
	logger.Debug("module started")

	for {
		var (
			ev events.Event
			ok bool
		)

		select {
		case ev, ok = <-control:
		case ev, ok = <-domain:
		}

		if !ok {
			// Inbound endpoint closed by the router; nothing more will
			// ever be delivered.
			a.SetStatus(Stopped)
			logger.Debug("module inbound endpoint closed")
			return nil
		}

		state, err := a.Handle(ev)
		a.SetStatus(state)

		if state == Terminating {
			a.SetStatus(Stopped)

			if err != nil {
				logger.WithError(err).Error("module terminated with error")
				return err
			}

			logger.Debug("module stopped")
			return nil
		}
	}
}
