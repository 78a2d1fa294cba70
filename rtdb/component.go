package rtdb

import (
	"context"
	"fmt"

	"github.com/kbukum/firekit/component"
)

// DatabaseComponent wraps a Client in the component lifecycle so it can
// be registered, health-checked, and shut down with the rest of an
// application's infrastructure.
type DatabaseComponent struct {
	cfg    Config
	client *Client
}

// NewComponent creates an unstarted database component.
func NewComponent(cfg Config) *DatabaseComponent {
	return &DatabaseComponent{cfg: cfg}
}

// Client returns the started client, or nil before Start.
func (c *DatabaseComponent) Client() *Client { return c.client }

// Name returns the component's registry name.
func (c *DatabaseComponent) Name() string { return "rtdb" }

// Start creates the client and verifies the database is reachable with
// a shallow read of the root.
func (c *DatabaseComponent) Start(ctx context.Context) error {
	client, err := NewClient(c.cfg)
	if err != nil {
		return err
	}
	if _, err := client.get(ctx, "", map[string]string{"shallow": "true"}); err != nil {
		return err
	}
	c.client = client
	return nil
}

// Stop releases the client. Listeners hold their own contexts and stop
// with them.
func (c *DatabaseComponent) Stop(ctx context.Context) error {
	c.client = nil
	return nil
}

// Health probes the database with a shallow root read.
func (c *DatabaseComponent) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.client == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
		return h
	}
	if _, err := c.client.get(ctx, "", map[string]string{"shallow": "true"}); err != nil {
		h.Status = component.StatusUnhealthy
		h.Message = err.Error()
	}
	return h
}

// Describe reports the component for startup display.
func (c *DatabaseComponent) Describe() component.Description {
	return component.Description{
		Name:    "Realtime DB",
		Type:    "database",
		Details: fmt.Sprintf("%s timeout=%s", c.cfg.URL, c.cfg.Timeout),
	}
}
