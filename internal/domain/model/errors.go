package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies submission failures for the caller.
type ErrorKind int

const (
	// KindNone marks a successful result.
	KindNone ErrorKind = iota
	// KindValidation is a local precondition failure; no network call was made.
	KindValidation
	// KindTransient is a ledger failure (unreachable, timeout, non-2xx, or a
	// server-side rejection). Local state is unchanged and the user may retry.
	KindTransient
	// KindInvariant is a stale-client condition detected before submission,
	// such as a recipient no longer in the involvement set.
	KindInvariant
	// KindBusy means a submission for the same dialog is already in flight.
	KindBusy
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindInvariant:
		return "invariant"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

var (
	ErrInsufficientPoints   = errors.New("insufficient points")
	ErrInvalidPoints        = errors.New("points must be a positive integer")
	ErrMissingReason        = errors.New("a reason is required")
	ErrNoRecipients         = errors.New("no eligible recipients for this document")
	ErrMissingRecipient     = errors.New("a recipient is required")
	ErrRecipientNotInvolved = errors.New("recipient is not involved in this document")
	ErrSelfReview           = errors.New("cannot review yourself")
	ErrInvalidPolarity      = errors.New("review type must be Appreciation or Criticism")
	ErrSubmissionInFlight   = errors.New("a submission is already in progress")
	ErrSessionNotFound      = errors.New("session not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrSchemaNotFound       = errors.New("schema not found")
)

// SubmitError carries the kind of a failed submission alongside its cause.
type SubmitError struct {
	Kind ErrorKind
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// NewSubmitError wraps err with the given kind.
func NewSubmitError(kind ErrorKind, err error) *SubmitError {
	return &SubmitError{Kind: kind, Err: err}
}

// KindOf returns the ErrorKind carried by err, KindNone for nil, and
// KindTransient for any unclassified error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var se *SubmitError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransient
}
