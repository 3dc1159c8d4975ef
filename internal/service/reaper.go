package service

import (
	"context"
	"time"

	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/metrics"
	"github.com/veriflow/identity/internal/model"
)

// ReaperConfig carries the sweep schedule. RetentionWindow must be at least
// the OTP lifetime so an in-flight verification is never reaped mid-flow.
type ReaperConfig struct {
	Interval        time.Duration
	RetentionWindow time.Duration
}

// Reaper periodically deletes unverified accounts whose retention window has
// elapsed. Verified accounts are never touched regardless of age. Each sweep
// is idempotent: a run with no qualifying rows is a no-op.
type Reaper struct {
	accounts  model.AccountStore
	clock     model.Clock
	interval  time.Duration
	retention time.Duration
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewReaper(
	accounts model.AccountStore,
	clock model.Clock,
	cfg ReaperConfig,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Reaper {
	return &Reaper{
		accounts:  accounts,
		clock:     clock,
		interval:  cfg.Interval,
		retention: cfg.RetentionWindow,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run sweeps on the configured interval until ctx is cancelled. It is
// started by the process owner, typically in its own goroutine.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started",
		"interval", r.interval,
		"retention", r.retention)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("reaper sweep failed",
					"error", err.Error())
			}
		}
	}
}

// RunOnce deletes every unverified account older than the retention window
// and returns the number of rows removed.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.clock.Now().Add(-r.retention)

	removed, err := r.accounts.DeleteUnverifiedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		r.metrics.AccountsReaped(removed)
		r.logger.Info("reaped stale unverified accounts",
			"removed", removed,
			"cutoff", cutoff)
	}

	return removed, nil
}
