package observability

import (
	"context"

	"github.com/kbukum/voicebrief/component"
)

var _ component.Component = (*Telemetry)(nil)

// Name returns the component name used for registration.
func (t *Telemetry) Name() string { return "telemetry" }

// Start is a no-op; providers are installed by Setup.
func (t *Telemetry) Start(_ context.Context) error { return nil }

// Stop flushes pending spans and metrics.
func (t *Telemetry) Stop(ctx context.Context) error { return t.Shutdown(ctx) }

// Health reports whether exporters are installed.
func (t *Telemetry) Health(_ context.Context) component.Health {
	msg := "exporters disabled"
	if len(t.shutdowns) > 0 {
		msg = "exporting"
	}
	return component.Health{Name: t.Name(), Status: component.StatusHealthy, Message: msg}
}
