package imagegen

import (
	"context"
	"time"

	"autopilot/internal/domain"
)

// Queue job statuses shared by every submit/poll/fetch consumer.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

const (
	defaultPollInterval = 6 * time.Second
	defaultMaxPolls     = 10
)

// Poller is a bounded retry policy for queue-based jobs: a fixed interval, a
// maximum attempt count and the terminal-status pair above. Both featured
// image and poster generation reuse it.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewPoller returns the production policy (6s interval, 10 attempts).
func NewPoller() *Poller {
	return NewPollerWith(defaultPollInterval, defaultMaxPolls)
}

// NewPollerWith returns a policy with a custom interval and attempt count.
func NewPollerWith(interval time.Duration, maxAttempts int) *Poller {
	return &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
	}
}

// Await polls status until the job completes, fails, or attempts run out.
// Transient status errors are ignored and the next attempt proceeds.
func (p *Poller) Await(ctx context.Context, stage string, status func(ctx context.Context) (string, error)) error {
	for i := 0; i < p.maxAttempts; i++ {
		if err := p.sleep(ctx, p.interval); err != nil {
			return domain.StageFailure(stage, domain.ErrTransport, err)
		}

		current, err := status(ctx)
		if err != nil {
			continue
		}

		switch current {
		case StatusCompleted:
			return nil
		case StatusFailed:
			return domain.Stagef(stage, domain.ErrProvider, "generation job failed")
		}
	}

	return domain.Stagef(stage, domain.ErrTimeout, "no result after %d polls", p.maxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
