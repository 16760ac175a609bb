package server

import (
	"context"

	"github.com/kbukum/voicebrief/component"
)

const componentName = "http-server"

var _ component.Component = (*Server)(nil)

// Name returns the component name used for registration.
func (s *Server) Name() string { return componentName }

// Health reports healthy once the listener is bound.
func (s *Server) Health(_ context.Context) component.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "listener not bound",
		}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}
