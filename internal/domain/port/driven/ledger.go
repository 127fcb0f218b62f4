package driven

import (
	"context"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// CreateReviewRequest is the input to Ledger.CreateReview. Points is the
// positive magnitude; the sign is derived from Polarity by the ledger.
type CreateReviewRequest struct {
	Document model.DocumentRef
	ToUser   string
	Points   int
	Polarity model.Polarity
	Reason   string
}

// Ledger defines the driven port for the remote, authoritative points ledger.
type Ledger interface {
	// GetBalance returns the current balance of the given user.
	GetBalance(ctx context.Context, user string) (model.PointsBalance, error)

	// CreateReview records a review and returns the ledger's record, including
	// its server-assigned ID and creation time.
	CreateReview(ctx context.Context, req CreateReviewRequest) (model.ReviewRecord, error)

	// ListReviews returns the point history of a document, newest first.
	ListReviews(ctx context.Context, ref model.DocumentRef) ([]model.ReviewRecord, error)

	// Ping checks that the ledger is reachable.
	Ping(ctx context.Context) error
}
