package observability

import (
	"context"
	"errors"

	"github.com/kbukum/voicebrief/logger"
)

// Telemetry owns the installed providers and the pipeline instruments.
type Telemetry struct {
	Metrics   *Metrics
	shutdowns []func(context.Context) error
}

// Setup installs exporters when cfg.Enabled and creates the pipeline
// instruments on the resulting global meter.
func Setup(ctx context.Context, cfg Config, res Resource, log *logger.Logger) (*Telemetry, error) {
	cfg.ApplyDefaults()
	t := &Telemetry{}

	if cfg.Enabled {
		tp, err := InitTracer(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		t.shutdowns = append(t.shutdowns, tp.Shutdown)

		mp, err := InitMeter(ctx, cfg, res)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, err
		}
		t.shutdowns = append(t.shutdowns, mp.Shutdown)

		log.Info("Telemetry initialized", logger.Fields(
			"endpoint", cfg.Endpoint,
			"sample_rate", cfg.SampleRate,
			"interval", cfg.Interval.String(),
		))
	}

	m, err := NewMetrics(Meter())
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	t.Metrics = m
	return t, nil
}

// Shutdown flushes and stops the installed providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdowns) - 1; i >= 0; i-- {
		errs = append(errs, t.shutdowns[i](ctx))
	}
	t.shutdowns = nil
	return errors.Join(errs...)
}
