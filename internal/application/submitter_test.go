package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

var taskRef = model.DocumentRef{Type: "Task", Name: "TASK-0001"}

func newLoadedBudget(t *testing.T, ledger *mockLedger, user string) *BudgetTracker {
	t.Helper()
	budget := NewBudgetTracker(ledger, user)
	_, err := budget.Refresh(context.Background())
	require.NoError(t, err)
	return budget
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		ToUser:   "bob@example.com",
		Polarity: model.PolarityAppreciation,
		Points:   2,
		Reason:   "Thorough review",
	}
}

func TestSubmit_Success(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	ledger := &mockLedger{
		balance: model.PointsBalance{ReviewPoints: 5},
		created: model.ReviewRecord{
			ID:        "EPL-0042",
			FromUser:  "me@example.com",
			ToUser:    "bob@example.com",
			Polarity:  model.PolarityAppreciation,
			Points:    2,
			Reason:    "Thorough review",
			CreatedAt: created,
		},
	}
	budget := newLoadedBudget(t, ledger, "me@example.com")
	submitter := NewReviewSubmitter(ledger, budget, time.Second)
	control := &SubmitControl{}

	res := submitter.Submit(context.Background(), control, taskRef, model.InvolvementSet{"bob@example.com"}, validRequest())

	require.True(t, res.OK(), "unexpected failure: %v", res.Err)
	assert.Equal(t, "EPL-0042", res.Record.ID)
	assert.Equal(t, taskRef, res.Record.Document)
	assert.Equal(t, created, res.Record.CreatedAt)
	assert.False(t, control.Disabled())

	require.Equal(t, 1, ledger.createCount())
	assert.Equal(t, driven.CreateReviewRequest{
		Document: taskRef,
		ToUser:   "bob@example.com",
		Points:   2,
		Polarity: model.PolarityAppreciation,
		Reason:   "Thorough review",
	}, ledger.createCalls[0])
}

func TestSubmit_NormalizesCriticismSign(t *testing.T) {
	ledger := &mockLedger{
		balance: model.PointsBalance{ReviewPoints: 5},
		created: model.ReviewRecord{ID: "EPL-1", FromUser: "me@example.com", ToUser: "bob@example.com", Polarity: model.PolarityCriticism, Points: 3},
	}
	budget := newLoadedBudget(t, ledger, "me@example.com")
	submitter := NewReviewSubmitter(ledger, budget, time.Second)

	req := validRequest()
	req.Polarity = model.PolarityCriticism
	req.Points = 3
	res := submitter.Submit(context.Background(), &SubmitControl{}, taskRef, model.InvolvementSet{"bob@example.com"}, req)

	require.True(t, res.OK())
	assert.Equal(t, -3, res.Record.Points)
}

func TestSubmit_InsufficientPointsMakesNoNetworkCall(t *testing.T) {
	ledger := &mockLedger{balance: model.PointsBalance{ReviewPoints: 5}}
	budget := newLoadedBudget(t, ledger, "me@example.com")
	submitter := NewReviewSubmitter(ledger, budget, time.Second)
	control := &SubmitControl{}

	req := validRequest()
	req.Points = 6
	res := submitter.Submit(context.Background(), control, taskRef, model.InvolvementSet{"bob@example.com"}, req)

	assert.False(t, res.OK())
	assert.Equal(t, model.KindValidation, res.Kind)
	assert.ErrorIs(t, res.Err, model.ErrInsufficientPoints)
	assert.Equal(t, model.KindValidation, model.KindOf(res.Err))
	assert.Equal(t, 0, ledger.createCount())
	assert.Equal(t, 5, budget.CurrentBalance().ReviewPoints)
	assert.False(t, control.Disabled())
}

func TestSubmit_ValidationFailures(t *testing.T) {
	tests := []struct {
		name        string
		involvement model.InvolvementSet
		mutate      func(*SubmitRequest)
		wantKind    model.ErrorKind
		wantErr     error
	}{
		{"empty involvement", model.InvolvementSet{}, func(*SubmitRequest) {}, model.KindValidation, model.ErrNoRecipients},
		{"missing recipient", nil, func(r *SubmitRequest) { r.ToUser = " " }, model.KindValidation, model.ErrMissingRecipient},
		{"self review", nil, func(r *SubmitRequest) { r.ToUser = "me@example.com" }, model.KindValidation, model.ErrSelfReview},
		{"self review other case", nil, func(r *SubmitRequest) { r.ToUser = "Me@Example.com" }, model.KindValidation, model.ErrSelfReview},
		{"stale recipient", nil, func(r *SubmitRequest) { r.ToUser = "gone@example.com" }, model.KindInvariant, model.ErrRecipientNotInvolved},
		{"non-review polarity", nil, func(r *SubmitRequest) { r.Polarity = model.PolarityAuto }, model.KindValidation, model.ErrInvalidPolarity},
		{"zero points", nil, func(r *SubmitRequest) { r.Points = 0 }, model.KindValidation, model.ErrInvalidPoints},
		{"negative points", nil, func(r *SubmitRequest) { r.Points = -1 }, model.KindValidation, model.ErrInvalidPoints},
		{"blank reason", nil, func(r *SubmitRequest) { r.Reason = "   " }, model.KindValidation, model.ErrMissingReason},
		{"over budget and stale recipient", nil, func(r *SubmitRequest) {
			r.ToUser = "stale@example.com"
			r.Points = 6
		}, model.KindValidation, model.ErrInsufficientPoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockLedger{balance: model.PointsBalance{ReviewPoints: 5}}
			budget := newLoadedBudget(t, ledger, "me@example.com")
			submitter := NewReviewSubmitter(ledger, budget, time.Second)

			involvement := tt.involvement
			if involvement == nil {
				involvement = model.InvolvementSet{"bob@example.com"}
			}
			req := validRequest()
			tt.mutate(&req)

			res := submitter.Submit(context.Background(), &SubmitControl{}, taskRef, involvement, req)

			assert.Equal(t, tt.wantKind, res.Kind)
			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.Equal(t, 0, ledger.createCount())
		})
	}
}

func TestSubmit_InvolvedRecipientMatchesIgnoringCase(t *testing.T) {
	ledger := &mockLedger{
		balance: model.PointsBalance{ReviewPoints: 5},
		created: model.ReviewRecord{ID: "EPL-7", FromUser: "me@example.com", ToUser: "Bob@Example.com", Polarity: model.PolarityAppreciation, Points: 2},
	}
	budget := newLoadedBudget(t, ledger, "me@example.com")
	submitter := NewReviewSubmitter(ledger, budget, time.Second)

	req := validRequest()
	req.ToUser = "Bob@Example.com"
	res := submitter.Submit(context.Background(), &SubmitControl{}, taskRef, model.InvolvementSet{"bob@example.com"}, req)

	require.True(t, res.OK(), "unexpected failure: %v", res.Err)
}

func TestSubmit_InvalidLedgerRecordIsTransient(t *testing.T) {
	tests := []struct {
		name    string
		record  model.ReviewRecord
		wantErr error
	}{
		{
			name:    "zero points",
			record:  model.ReviewRecord{ID: "EPL-2", FromUser: "me@example.com", ToUser: "bob@example.com", Polarity: model.PolarityAppreciation},
			wantErr: model.ErrInvalidPoints,
		},
		{
			name:    "self addressed",
			record:  model.ReviewRecord{ID: "EPL-3", FromUser: "bob@example.com", ToUser: "BOB@example.com", Polarity: model.PolarityAppreciation, Points: 2},
			wantErr: model.ErrSelfReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockLedger{balance: model.PointsBalance{ReviewPoints: 5}, created: tt.record}
			budget := newLoadedBudget(t, ledger, "me@example.com")
			submitter := NewReviewSubmitter(ledger, budget, time.Second)
			control := &SubmitControl{}

			res := submitter.Submit(context.Background(), control, taskRef, model.InvolvementSet{"bob@example.com"}, validRequest())

			assert.False(t, res.OK())
			assert.Equal(t, model.KindTransient, res.Kind)
			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.Equal(t, model.ReviewRecord{}, res.Record)
			assert.Equal(t, 1, ledger.createCount())
			assert.False(t, control.Disabled())
		})
	}
}

func TestSubmit_LedgerFailureIsTransientAndReenablesControl(t *testing.T) {
	ledger := &mockLedger{
		balance:   model.PointsBalance{ReviewPoints: 5},
		createErr: errLedgerDown,
	}
	budget := newLoadedBudget(t, ledger, "me@example.com")
	submitter := NewReviewSubmitter(ledger, budget, time.Second)
	control := &SubmitControl{}

	res := submitter.Submit(context.Background(), control, taskRef, model.InvolvementSet{"bob@example.com"}, validRequest())

	assert.Equal(t, model.KindTransient, res.Kind)
	assert.ErrorIs(t, res.Err, errLedgerDown)
	assert.False(t, control.Disabled())
	assert.Equal(t, 5, budget.CurrentBalance().ReviewPoints)
}

func TestSubmit_TimeoutReleasesControl(t *testing.T) {
	ledger := &mockLedger{
		balance: model.PointsBalance{ReviewPoints: 5},
		createFn: func(ctx context.Context, _ driven.CreateReviewRequest) (model.ReviewRecord, error) {
			<-ctx.Done()
			return model.ReviewRecord{}, ctx.Err()
		},
	}
	budget := newLoadedBudget(t, ledger, "me@example.com")
	submitter := NewReviewSubmitter(ledger, budget, 20*time.Millisecond)
	control := &SubmitControl{}

	res := submitter.Submit(context.Background(), control, taskRef, model.InvolvementSet{"bob@example.com"}, validRequest())

	assert.Equal(t, model.KindTransient, res.Kind)
	assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
	assert.False(t, control.Disabled())
}

func TestSubmit_RejectsConcurrentSubmissionOnSameDialog(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	ledger := &mockLedger{
		balance: model.PointsBalance{ReviewPoints: 5},
		createFn: func(_ context.Context, req driven.CreateReviewRequest) (model.ReviewRecord, error) {
			close(started)
			<-unblock
			return model.ReviewRecord{ID: "EPL-1", FromUser: "me@example.com", ToUser: req.ToUser, Polarity: req.Polarity, Points: req.Points}, nil
		},
	}
	budget := newLoadedBudget(t, ledger, "me@example.com")
	submitter := NewReviewSubmitter(ledger, budget, time.Second)
	control := &SubmitControl{}
	involvement := model.InvolvementSet{"bob@example.com"}

	first := make(chan SubmitResult, 1)
	go func() {
		first <- submitter.Submit(context.Background(), control, taskRef, involvement, validRequest())
	}()
	<-started

	assert.True(t, control.Disabled())
	second := submitter.Submit(context.Background(), control, taskRef, involvement, validRequest())
	assert.Equal(t, model.KindBusy, second.Kind)
	assert.ErrorIs(t, second.Err, model.ErrSubmissionInFlight)

	// A different dialog is not excluded.
	other := &SubmitControl{}
	release, ok := other.TryAcquire()
	require.True(t, ok)
	release()

	close(unblock)
	res := <-first
	assert.True(t, res.OK())
	assert.False(t, control.Disabled())
	assert.Equal(t, 1, ledger.createCount())
}

func TestSubmitControl_ReleaseIsIdempotent(t *testing.T) {
	control := &SubmitControl{}

	release, ok := control.TryAcquire()
	require.True(t, ok)
	release()
	release()

	_, ok = control.TryAcquire()
	assert.True(t, ok)
}
