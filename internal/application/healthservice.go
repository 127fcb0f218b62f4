package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// HealthReport summarizes the readiness of the review workflow.
type HealthReport struct {
	Status          string // "ok" or "degraded".
	LedgerReachable bool
	LedgerError     string
	BalanceLoaded   bool
	OpenSessions    int
	CheckedAt       time.Time
}

// HealthService checks the ledger and local state.
type HealthService struct {
	ledger   driven.Ledger
	budget   *BudgetTracker
	sessions *SessionRegistry
	timeout  time.Duration
}

// NewHealthService creates a new HealthService with the required dependencies.
func NewHealthService(ledger driven.Ledger, budget *BudgetTracker, sessions *SessionRegistry) *HealthService {
	return &HealthService{
		ledger:   ledger,
		budget:   budget,
		sessions: sessions,
		timeout:  3 * time.Second,
	}
}

// Check pings the ledger and reports local state. A ledger failure degrades
// the status; it is never returned as an error.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:        "ok",
		BalanceLoaded: s.budget.Loaded(),
		OpenSessions:  s.sessions.Len(),
		CheckedAt:     time.Now().UTC(),
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ledger.Ping(pingCtx); err != nil {
		report.Status = "degraded"
		report.LedgerError = err.Error()
		return report
	}
	report.LedgerReachable = true
	return report
}
