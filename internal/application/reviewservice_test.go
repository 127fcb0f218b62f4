package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

type reviewServiceFixture struct {
	svc     *ReviewService
	ledger  *mockLedger
	docs    *mockDocumentSource
	budget  *BudgetTracker
	events  *TimelineEvents
	session *SessionRegistry
}

func newReviewServiceFixture(t *testing.T, ledger *mockLedger) *reviewServiceFixture {
	t.Helper()

	docs := &mockDocumentSource{
		doc: &model.Document{
			Owner:  "owner@example.com",
			Values: map[string]string{"reviewer": "rita@example.com"},
		},
		history: &model.DocumentHistory{
			Comments: []model.HistoryEntry{{Owner: "bob@example.com"}},
		},
	}
	schemas := &mockSchemaStore{schemas: map[string]model.Schema{"Task": taskSchema()}}

	budget := NewBudgetTracker(ledger, "me@example.com")
	events := NewTimelineEvents()
	reconciler := NewHistoryReconciler(budget, events, NewDisplayNames(&mockDirectory{
		names: map[string]string{"me@example.com": "Me", "bob@example.com": "Bob"},
	}))
	sessions := NewSessionRegistry()
	svc := NewReviewService(docs, schemas, ledger, budget, NewReviewSubmitter(ledger, budget, time.Second), reconciler, sessions, "")

	return &reviewServiceFixture{
		svc:     svc,
		ledger:  ledger,
		docs:    docs,
		budget:  budget,
		events:  events,
		session: sessions,
	}
}

func TestReviewService_OpenDocument(t *testing.T) {
	now := time.Now()
	ledger := &mockLedger{
		balance: model.PointsBalance{ReviewPoints: 5},
		reviews: []model.ReviewRecord{
			{ID: "R2", FromUser: "bob@example.com", ToUser: "me@example.com", Polarity: model.PolarityCriticism, Points: 1, CreatedAt: now.Add(-time.Hour)},
			{ID: "A1", FromUser: "bob@example.com", ToUser: "me@example.com", Polarity: model.PolarityAuto, Points: 10, CreatedAt: now.Add(-2 * time.Hour)},
		},
	}
	f := newReviewServiceFixture(t, ledger)

	session, err := f.svc.OpenDocument(context.Background(), taskRef)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, taskRef, session.Ref)
	assert.Equal(t, model.InvolvementSet{"owner@example.com", "rita@example.com", "bob@example.com"}, session.Involvement())

	// Criticism from the ledger is normalized to a negative value.
	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, -1, history[0].Points)

	pills := session.Pills()
	require.Len(t, pills, 1)
	assert.Equal(t, model.PillClassCriticism, pills[0].Class)
	assert.Equal(t, "Bob", pills[0].FromName)

	assert.True(t, f.budget.Loaded())
	assert.Equal(t, 1, f.session.Len())

	got, err := f.svc.Session(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestReviewService_OpenDocument_UnknownSchema(t *testing.T) {
	f := newReviewServiceFixture(t, &mockLedger{})

	_, err := f.svc.OpenDocument(context.Background(), model.DocumentRef{Type: "Invoice", Name: "INV-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSchemaNotFound)
	assert.Equal(t, 0, f.session.Len())
}

func TestReviewService_OpenDocument_LedgerHistoryFailure(t *testing.T) {
	f := newReviewServiceFixture(t, &mockLedger{listErr: errLedgerDown})

	_, err := f.svc.OpenDocument(context.Background(), taskRef)

	assert.ErrorIs(t, err, errLedgerDown)
}

func TestReviewService_OpenDocument_BalanceFailureStillOpens(t *testing.T) {
	f := newReviewServiceFixture(t, &mockLedger{balanceErr: errLedgerDown})

	session, err := f.svc.OpenDocument(context.Background(), taskRef)

	require.NoError(t, err)
	assert.NotNil(t, session)
	assert.False(t, f.budget.Loaded())
	assert.False(t, f.budget.CanSpend(1))
}

func TestReviewService_SubmitSuccessReconciles(t *testing.T) {
	ledger := &mockLedger{
		balances: []model.PointsBalance{{ReviewPoints: 5}, {ReviewPoints: 3}},
		created: model.ReviewRecord{
			ID:        "R9",
			FromUser:  "me@example.com",
			ToUser:    "bob@example.com",
			Polarity:  model.PolarityAppreciation,
			Points:    2,
			Reason:    "Thorough review",
			CreatedAt: time.Now(),
		},
	}
	f := newReviewServiceFixture(t, ledger)

	session, err := f.svc.OpenDocument(context.Background(), taskRef)
	require.NoError(t, err)
	sub, cancel := f.events.Subscribe(taskRef)
	defer cancel()

	res, err := f.svc.Submit(context.Background(), session.ID, validRequest())
	require.NoError(t, err)
	require.True(t, res.OK(), "unexpected failure: %v", res.Err)

	history := session.History()
	require.Len(t, history, 1)
	assert.Equal(t, "R9", history[0].ID)

	pills := session.Pills()
	require.Len(t, pills, 1)
	assert.Equal(t, "Me appreciated Bob with 2 points now: Thorough review", pills[0].Detail)

	assert.Equal(t, 3, f.budget.CurrentBalance().ReviewPoints)
	assert.Len(t, sub, 1)
	assert.False(t, session.Control().Disabled())
}

func TestReviewService_SubmitInsufficientPoints(t *testing.T) {
	f := newReviewServiceFixture(t, &mockLedger{balance: model.PointsBalance{ReviewPoints: 5}})

	session, err := f.svc.OpenDocument(context.Background(), taskRef)
	require.NoError(t, err)

	req := validRequest()
	req.Points = 6
	res, err := f.svc.Submit(context.Background(), session.ID, req)

	require.NoError(t, err)
	assert.Equal(t, model.KindValidation, res.Kind)
	assert.True(t, errors.Is(res.Err, model.ErrInsufficientPoints))
	assert.Equal(t, 0, f.ledger.createCount())
	assert.Empty(t, session.History())
	assert.Equal(t, 5, f.budget.CurrentBalance().ReviewPoints)
}

func TestReviewService_SubmitRecipientDroppedFromInvolvement(t *testing.T) {
	f := newReviewServiceFixture(t, &mockLedger{balance: model.PointsBalance{ReviewPoints: 5}})

	session, err := f.svc.OpenDocument(context.Background(), taskRef)
	require.NoError(t, err)

	req := validRequest()
	req.ToUser = "stranger@example.com"
	res, err := f.svc.Submit(context.Background(), session.ID, req)

	require.NoError(t, err)
	assert.Equal(t, model.KindInvariant, res.Kind)
	assert.Equal(t, 0, f.ledger.createCount())
}

func TestReviewService_SubmitUnknownSession(t *testing.T) {
	f := newReviewServiceFixture(t, &mockLedger{})

	_, err := f.svc.Submit(context.Background(), "missing", validRequest())

	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestReviewService_CloseDocument(t *testing.T) {
	f := newReviewServiceFixture(t, &mockLedger{balance: model.PointsBalance{ReviewPoints: 1}})

	session, err := f.svc.OpenDocument(context.Background(), taskRef)
	require.NoError(t, err)

	f.svc.CloseDocument(session.ID)

	_, err = f.svc.Session(session.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	_, err = f.svc.Pills(context.Background(), session.ID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestReviewService_DefaultsAdminUser(t *testing.T) {
	f := newReviewServiceFixture(t, &mockLedger{balance: model.PointsBalance{ReviewPoints: 1}})
	f.docs.doc.Owner = DefaultAdminUser

	session, err := f.svc.OpenDocument(context.Background(), taskRef)
	require.NoError(t, err)

	assert.False(t, session.Involvement().Contains(DefaultAdminUser))
	assert.Equal(t, "me@example.com", f.svc.ActingUser())
}
