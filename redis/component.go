package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/voicebrief/component"
)

// Component manages a Client's lifecycle in the component registry.
type Component struct {
	client *Client
}

var _ component.Component = (*Component)(nil)

// NewComponent wraps client.
func NewComponent(client *Client) *Component {
	return &Component{client: client}
}

// Name returns the component name.
func (c *Component) Name() string { return "redis" }

// Start verifies connectivity.
func (c *Component) Start(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	c.client.log.Info("Redis component started")
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(_ context.Context) error {
	return c.client.Close()
}

// Health pings the server.
func (c *Component) Health(ctx context.Context) component.Health {
	if err := c.client.Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}
