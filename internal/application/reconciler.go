package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// HistoryReconciler merges newly created reviews into a session's history and
// refreshes everything derived from it.
type HistoryReconciler struct {
	budget *BudgetTracker
	events *TimelineEvents
	names  *DisplayNames
	now    func() time.Time
}

// NewHistoryReconciler creates a reconciler. events may be nil when no view
// listens for timeline refreshes.
func NewHistoryReconciler(budget *BudgetTracker, events *TimelineEvents, names *DisplayNames) *HistoryReconciler {
	return &HistoryReconciler{
		budget: budget,
		events: events,
		names:  names,
		now:    time.Now,
	}
}

// OnReviewCreated prepends record to the session history, triggers a timeline
// refresh, re-derives the pill list and refreshes the budget, in that order.
// A budget refresh failure is returned; the history update stands.
func (r *HistoryReconciler) OnReviewCreated(ctx context.Context, session *DocumentSession, record model.ReviewRecord) error {
	session.prepend(record)

	if r.events != nil {
		r.events.Publish(TimelineEvent{
			Document: session.Ref,
			ReviewID: record.ID,
			At:       r.now(),
		})
	}

	r.RenderPills(ctx, session)

	if _, err := r.budget.Refresh(ctx); err != nil {
		return fmt.Errorf("reconcile review %s: %w", record.ID, err)
	}

	slog.Debug("review reconciled",
		"session", session.ID,
		"document", session.Ref.String(),
		"review_id", record.ID,
	)
	return nil
}

// RenderPills re-derives the session's pill list from its current history and
// stores it. Safe to call any number of times and from concurrent requests: a
// list derived from a history that has since grown is derived again rather
// than stored.
func (r *HistoryReconciler) RenderPills(ctx context.Context, session *DocumentSession) []ReviewPill {
	for {
		history := session.History()
		pills := DerivePills(history, r.names.Lookup(ctx), r.now())
		if session.setPillsFor(len(history), pills) {
			return pills
		}
	}
}
