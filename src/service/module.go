package service

import (
	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/events"
)

// Module runs the info service under the actor contract, listening on the
// Control topic only.
type Module struct {
	actor.Core

	service *Service
	logger  *logrus.Entry
}

// NewModule wraps a bound service in its actor module.
func NewModule(service *Service, logger *logrus.Entry) *Module {
	return &Module{
		Core:    actor.NewCore("service"),
		service: service,
		logger:  logger.WithField("module", "service"),
	}
}

// Service returns the underlying service.
func (m *Module) Service() *Service {
	return m.service
}

// Handle implements actor.Actor.
func (m *Module) Handle(ev events.Event) (actor.State, error) {
	if ev.IsStop() {
		m.logger.Info("info service received stop signal")
		if err := m.service.Close(); err != nil {
			return actor.Terminating, err
		}
		return actor.Terminating, nil
	}

	return actor.Running, nil
}
