package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// BudgetTracker holds the acting user's cached points balance. One tracker is
// created per user session and shared by every document view; Refresh is the
// only mutator.
type BudgetTracker struct {
	mu      sync.RWMutex
	ledger  driven.Ledger
	user    string
	balance model.PointsBalance
	loaded  bool
	now     func() time.Time
}

// NewBudgetTracker creates a tracker for user. The balance is empty until the
// first successful Refresh.
func NewBudgetTracker(ledger driven.Ledger, user string) *BudgetTracker {
	return &BudgetTracker{
		ledger:  ledger,
		user:    user,
		balance: model.PointsBalance{User: user},
		now:     time.Now,
	}
}

// User returns the user whose budget is tracked.
func (b *BudgetTracker) User() string {
	return b.user
}

// CurrentBalance returns the cached balance. It may be stale.
func (b *BudgetTracker) CurrentBalance() model.PointsBalance {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balance
}

// Loaded reports whether a balance has been fetched at least once.
func (b *BudgetTracker) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// CanSpend reports whether amount fits in the cached review points.
func (b *BudgetTracker) CanSpend(amount int) bool {
	return amount <= b.CurrentBalance().ReviewPoints
}

// Refresh fetches the balance from the ledger and replaces the cached value.
// On failure the previous value is kept and the error is returned.
func (b *BudgetTracker) Refresh(ctx context.Context) (model.PointsBalance, error) {
	balance, err := b.ledger.GetBalance(ctx, b.user)
	if err != nil {
		slog.Warn("balance refresh failed, keeping cached balance",
			"user", b.user,
			"cached_review_points", b.CurrentBalance().ReviewPoints,
			"error", err,
		)
		return b.CurrentBalance(), fmt.Errorf("refresh balance for %s: %w", b.user, err)
	}

	balance.User = b.user
	if balance.RefreshedAt.IsZero() {
		balance.RefreshedAt = b.now().UTC()
	}

	b.mu.Lock()
	b.balance = balance
	b.loaded = true
	b.mu.Unlock()

	slog.Debug("balance refreshed", "user", b.user, "review_points", balance.ReviewPoints)
	return balance, nil
}
