package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// ReviewService wires the involvement resolver, budget tracker, submitter and
// reconciler around document view sessions. It depends only on port
// interfaces.
type ReviewService struct {
	documents  driven.DocumentSource
	schemas    driven.SchemaStore
	ledger     driven.Ledger
	budget     *BudgetTracker
	submitter  *ReviewSubmitter
	reconciler *HistoryReconciler
	sessions   *SessionRegistry
	actingUser string
	adminUser  string
	now        func() time.Time
}

// NewReviewService creates a new ReviewService with the required dependencies.
// An empty adminUser selects DefaultAdminUser.
func NewReviewService(
	documents driven.DocumentSource,
	schemas driven.SchemaStore,
	ledger driven.Ledger,
	budget *BudgetTracker,
	submitter *ReviewSubmitter,
	reconciler *HistoryReconciler,
	sessions *SessionRegistry,
	adminUser string,
) *ReviewService {
	if adminUser == "" {
		adminUser = DefaultAdminUser
	}
	return &ReviewService{
		documents:  documents,
		schemas:    schemas,
		ledger:     ledger,
		budget:     budget,
		submitter:  submitter,
		reconciler: reconciler,
		sessions:   sessions,
		actingUser: budget.User(),
		adminUser:  adminUser,
		now:        time.Now,
	}
}

// ActingUser returns the reviewer on whose behalf reviews are submitted.
func (s *ReviewService) ActingUser() string {
	return s.actingUser
}

// Budget returns the shared budget tracker.
func (s *ReviewService) Budget() *BudgetTracker {
	return s.budget
}

// OpenDocument loads a document view: its schema, current values, history
// feeds and point history. The involvement set and pill list are derived
// before the session is returned.
func (s *ReviewService) OpenDocument(ctx context.Context, ref model.DocumentRef) (*DocumentSession, error) {
	schema, err := s.schemas.GetSchema(ctx, ref.Type)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}

	reviews, err := s.ledger.ListReviews(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("open %s: load point history: %w", ref, err)
	}
	for i := range reviews {
		reviews[i] = reviews[i].Normalize()
	}

	session := newDocumentSession(ref, *schema, reviews, s.now())
	if err := s.resolveInvolvement(ctx, session); err != nil {
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}

	if !s.budget.Loaded() {
		if _, err := s.budget.Refresh(ctx); err != nil {
			slog.Warn("opening document without a balance", "document", ref.String(), "error", err)
		}
	}

	s.reconciler.RenderPills(ctx, session)
	s.sessions.add(session)

	slog.Info("document view opened",
		"session", session.ID,
		"document", ref.String(),
		"involved", len(session.Involvement()),
		"reviews", len(reviews),
	)
	return session, nil
}

// Session returns an open session.
func (s *ReviewService) Session(id string) (*DocumentSession, error) {
	return s.sessions.Get(id)
}

// CloseDocument discards the session and its history.
func (s *ReviewService) CloseDocument(id string) {
	s.sessions.Close(id)
	slog.Debug("document view closed", "session", id)
}

// Submit runs one review transaction for the session's dialog. Successful
// records are reconciled into the session before returning. The only error
// returned directly is model.ErrSessionNotFound; submission failures are
// reported through the result.
func (s *ReviewService) Submit(ctx context.Context, sessionID string, req SubmitRequest) (SubmitResult, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return SubmitResult{}, err
	}

	result := s.submitter.Submit(ctx, session.Control(), session.Ref, session.Involvement(), req)
	if !result.OK() {
		return result, nil
	}

	if err := s.reconciler.OnReviewCreated(ctx, session, result.Record); err != nil {
		slog.Warn("review recorded but balance is stale", "session", sessionID, "error", err)
	}

	if err := s.resolveInvolvement(ctx, session); err != nil {
		slog.Warn("involvement refresh failed, keeping previous set", "session", sessionID, "error", err)
	}

	return result, nil
}

// Pills re-derives and returns the session's pill list.
func (s *ReviewService) Pills(ctx context.Context, sessionID string) ([]ReviewPill, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.reconciler.RenderPills(ctx, session), nil
}

// resolveInvolvement re-reads the document and its history feeds and
// replaces the session's involvement set.
func (s *ReviewService) resolveInvolvement(ctx context.Context, session *DocumentSession) error {
	doc, err := s.documents.GetDocument(ctx, session.Ref)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	history, err := s.documents.GetHistory(ctx, session.Ref)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	session.setInvolvement(ResolveInvolvement(session.Schema(), *doc, *history, s.actingUser, s.adminUser))
	return nil
}
