package rpc

import (
	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/events"
)

// Module runs the JSON-RPC server under the actor contract. It listens on
// the Control topic only; the server itself accepts connections on its own
// goroutine.
type Module struct {
	actor.Core

	server *Server
	logger *logrus.Entry
}

// NewModule wraps a bound server in its actor module.
func NewModule(server *Server, logger *logrus.Entry) *Module {
	return &Module{
		Core:   actor.NewCore("jsonrpc"),
		server: server,
		logger: logger.WithField("module", "jsonrpc"),
	}
}

// Server returns the underlying server.
func (m *Module) Server() *Server {
	return m.server
}

// Handle implements actor.Actor.
func (m *Module) Handle(ev events.Event) (actor.State, error) {
	if ev.IsStop() {
		m.logger.Info("rpc server received stop signal")
		if err := m.server.Close(); err != nil {
			return actor.Terminating, err
		}
		return actor.Terminating, nil
	}

	return actor.Running, nil
}
