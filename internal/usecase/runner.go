package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Runner drives the pipeline on a fixed cadence. It fires once immediately
// and then on every tick until the context is cancelled.
type Runner struct {
	pipeline *Pipeline
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner builds the cadence loop around the pipeline.
func NewRunner(pipeline *Pipeline, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{pipeline: pipeline, interval: interval, logger: logger}
}

// Start blocks until ctx is cancelled, executing one run per interval. Run
// failures are logged and the loop continues.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("runner started", "interval", r.interval)

	r.execute(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped")
			return
		case <-ticker.C:
			r.execute(ctx)
		}
	}
}

func (r *Runner) execute(ctx context.Context) {
	runID := uuid.NewString()[:8]
	logger := r.logger.With("run_id", runID)

	published, err := r.pipeline.Run(ctx, false)
	if err != nil {
		logger.Error("run failed", "error", err)
		return
	}
	logger.Info("run completed", "published", published)
}
