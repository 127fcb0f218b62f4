package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// DefaultSubmitTimeout bounds a single ledger submission.
const DefaultSubmitTimeout = 15 * time.Second

// SubmitControl is the submit trigger of one review dialog. While a
// submission is in flight the control is disabled and further submissions on
// the same dialog are rejected. Independent dialogs have independent controls.
type SubmitControl struct {
	mu       sync.Mutex
	inFlight bool
}

// TryAcquire disables the control. It returns a release func that re-enables
// it, or false if a submission is already in flight.
func (c *SubmitControl) TryAcquire() (release func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return nil, false
	}
	c.inFlight = true

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.inFlight = false
			c.mu.Unlock()
		})
	}, true
}

// Disabled reports whether a submission is in flight.
func (c *SubmitControl) Disabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// SubmitRequest is a proposed review from the acting user.
type SubmitRequest struct {
	ToUser   string
	Polarity model.Polarity
	Points   int // Positive magnitude.
	Reason   string
}

// SubmitResult is the outcome of a submission: either a Record (Kind ==
// model.KindNone) or a failure Kind with its cause.
type SubmitResult struct {
	Record model.ReviewRecord
	Kind   model.ErrorKind
	Err    error
}

// OK reports whether the submission succeeded.
func (r SubmitResult) OK() bool {
	return r.Kind == model.KindNone && r.Err == nil
}

func failed(kind model.ErrorKind, err error) SubmitResult {
	return SubmitResult{Kind: kind, Err: model.NewSubmitError(kind, err)}
}

// ReviewSubmitter validates a review against the budget and involvement set
// and sends it to the ledger. It never mutates history.
type ReviewSubmitter struct {
	ledger  driven.Ledger
	budget  *BudgetTracker
	timeout time.Duration
}

// NewReviewSubmitter creates a submitter. A non-positive timeout selects
// DefaultSubmitTimeout.
func NewReviewSubmitter(ledger driven.Ledger, budget *BudgetTracker, timeout time.Duration) *ReviewSubmitter {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &ReviewSubmitter{
		ledger:  ledger,
		budget:  budget,
		timeout: timeout,
	}
}

// Submit performs one review transaction for doc. The control is disabled for
// the duration of the call and re-enabled on every exit path.
func (s *ReviewSubmitter) Submit(
	ctx context.Context,
	control *SubmitControl,
	doc model.DocumentRef,
	involvement model.InvolvementSet,
	req SubmitRequest,
) SubmitResult {
	release, ok := control.TryAcquire()
	if !ok {
		return failed(model.KindBusy, model.ErrSubmissionInFlight)
	}
	defer release()

	if kind, err := s.validate(involvement, req); err != nil {
		slog.Info("review rejected before submission",
			"document", doc.String(),
			"to_user", req.ToUser,
			"points", req.Points,
			"reason", err,
		)
		return failed(kind, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record, err := s.ledger.CreateReview(callCtx, driven.CreateReviewRequest{
		Document: doc,
		ToUser:   req.ToUser,
		Points:   req.Points,
		Polarity: req.Polarity,
		Reason:   strings.TrimSpace(req.Reason),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("ledger did not respond within %s: %w", s.timeout, err)
		}
		slog.Error("review submission failed",
			"document", doc.String(),
			"to_user", req.ToUser,
			"error", err,
		)
		return failed(model.KindTransient, err)
	}

	record = record.Normalize()
	if record.Document == (model.DocumentRef{}) {
		record.Document = doc
	}
	if err := record.Validate(); err != nil {
		slog.Error("ledger returned an invalid review",
			"document", doc.String(),
			"review_id", record.ID,
			"error", err,
		)
		return failed(model.KindTransient, fmt.Errorf("ledger record %s: %w", record.ID, err))
	}

	slog.Info("review submitted",
		"document", doc.String(),
		"review_id", record.ID,
		"to_user", record.ToUser,
		"points", record.Points,
	)
	return SubmitResult{Record: record}
}

// validate checks every precondition that can be decided locally.
func (s *ReviewSubmitter) validate(involvement model.InvolvementSet, req SubmitRequest) (model.ErrorKind, error) {
	if len(involvement) == 0 {
		return model.KindValidation, model.ErrNoRecipients
	}
	if strings.TrimSpace(req.ToUser) == "" {
		return model.KindValidation, model.ErrMissingRecipient
	}
	if model.SameUser(req.ToUser, s.budget.User()) {
		return model.KindValidation, model.ErrSelfReview
	}
	if !req.Polarity.IsReview() {
		return model.KindValidation, model.ErrInvalidPolarity
	}
	if req.Points <= 0 {
		return model.KindValidation, model.ErrInvalidPoints
	}
	if !s.budget.CanSpend(req.Points) {
		return model.KindValidation, model.ErrInsufficientPoints
	}
	if strings.TrimSpace(req.Reason) == "" {
		return model.KindValidation, model.ErrMissingReason
	}
	// A stale recipient is only reported once every local validation passed.
	if !involvement.Contains(req.ToUser) {
		return model.KindInvariant, model.ErrRecipientNotInvolved
	}
	return model.KindNone, nil
}
