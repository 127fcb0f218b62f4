package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	done chan error
}

// BalancePoller keeps the budget tracker fresh: it loads the balance at
// startup (retrying with backoff), refreshes it on an activity-dependent
// interval and serves manual refresh requests.
type BalancePoller struct {
	budget       *BudgetTracker
	lastActivity func() time.Time
	maxInterval  time.Duration
	startupLimit time.Duration
	refreshCh    chan refreshRequest
	now          func() time.Time
}

// NewBalancePoller creates a poller. lastActivity reports the most recent
// review activity (may be nil); maxInterval caps the refresh interval.
func NewBalancePoller(budget *BudgetTracker, lastActivity func() time.Time, maxInterval time.Duration) *BalancePoller {
	if lastActivity == nil {
		lastActivity = func() time.Time { return time.Time{} }
	}
	return &BalancePoller{
		budget:       budget,
		lastActivity: lastActivity,
		maxInterval:  maxInterval,
		startupLimit: 2 * time.Minute,
		refreshCh:    make(chan refreshRequest),
		now:          time.Now,
	}
}

// Start loads the initial balance and then refreshes until ctx is canceled.
// Start blocks.
func (p *BalancePoller) Start(ctx context.Context) {
	if err := p.initialLoad(ctx); err != nil {
		slog.Error("initial balance load failed", "user", p.budget.User(), "error", err)
	}

	timer := time.NewTimer(p.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("balance poller stopped")
			return
		case <-timer.C:
			if _, err := p.budget.Refresh(ctx); err != nil {
				slog.Error("balance refresh cycle failed", "error", err)
			}
			timer.Reset(p.interval())
		case req := <-p.refreshCh:
			_, err := p.budget.Refresh(ctx)
			req.done <- err
		}
	}
}

// RefreshNow triggers an immediate refresh and blocks until it completes or
// ctx is canceled.
func (p *BalancePoller) RefreshNow(ctx context.Context) error {
	done := make(chan error, 1)
	req := refreshRequest{done: done}

	select {
	case p.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *BalancePoller) interval() time.Duration {
	d := nextInterval(p.lastActivity(), p.now(), p.maxInterval)
	slog.Debug("next balance refresh scheduled", "in", d)
	return d
}

// initialLoad retries the first refresh with exponential backoff. Submissions
// are never retried; this only covers startup.
func (p *BalancePoller) initialLoad(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = p.startupLimit

	return backoff.Retry(func() error {
		_, err := p.budget.Refresh(ctx)
		return err
	}, backoff.WithContext(policy, ctx))
}
