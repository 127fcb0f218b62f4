package model

import "time"

// ReviewRecord is a single point transaction between two users on a document,
// as recorded by the ledger. Records are immutable once created.
type ReviewRecord struct {
	ID        string // Assigned by the ledger.
	Document  DocumentRef
	FromUser  string
	ToUser    string
	Polarity  Polarity
	Points    int // Signed; criticism records carry negative points.
	Reason    string
	CreatedAt time.Time
}

// Magnitude returns the absolute number of points moved by the record.
func (r ReviewRecord) Magnitude() int {
	if r.Points < 0 {
		return -r.Points
	}
	return r.Points
}

// Normalize returns a copy whose sign matches the polarity. The ledger may
// report criticism as a positive magnitude; the rest of the code relies on the
// sign of Points.
func (r ReviewRecord) Normalize() ReviewRecord {
	switch r.Polarity {
	case PolarityCriticism:
		if r.Points > 0 {
			r.Points = -r.Points
		}
	case PolarityAppreciation:
		if r.Points < 0 {
			r.Points = -r.Points
		}
	}
	return r
}

// Validate checks the record invariants: non-zero points and distinct users.
func (r ReviewRecord) Validate() error {
	if r.Magnitude() == 0 {
		return ErrInvalidPoints
	}
	if SameUser(r.FromUser, r.ToUser) {
		return ErrSelfReview
	}
	return nil
}
