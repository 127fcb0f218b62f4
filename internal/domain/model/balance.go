package model

import "time"

// PointsBalance is a user's point standing as last reported by the ledger.
type PointsBalance struct {
	User         string
	ReviewPoints int // Remaining budget the user may award or deduct.
	EnergyPoints int // Points the user has received; informational.
	RefreshedAt  time.Time
}

// Exhausted reports whether no review points remain.
func (b PointsBalance) Exhausted() bool {
	return b.ReviewPoints <= 0
}
