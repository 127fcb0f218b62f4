package model

import "strings"

// Polarity classifies an entry in a document's point history.
type Polarity string

const (
	PolarityAppreciation Polarity = "Appreciation"
	PolarityCriticism    Polarity = "Criticism"
	PolarityAuto         Polarity = "Auto"   // Awarded by a rule, not a reviewer.
	PolarityRevert       Polarity = "Revert" // Reversal of an earlier entry.
)

// IsReview reports whether the polarity is one a reviewer can submit.
func (p Polarity) IsReview() bool {
	return p == PolarityAppreciation || p == PolarityCriticism
}

// ParsePolarity maps a case-insensitive name to a Polarity. Unknown names
// return false.
func ParsePolarity(s string) (Polarity, bool) {
	for _, p := range []Polarity{PolarityAppreciation, PolarityCriticism, PolarityAuto, PolarityRevert} {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

// DeliveryStatusSent is the communication status that counts toward involvement.
const DeliveryStatusSent = "Sent"

// Pill classes used by review indicators.
const (
	PillClassAppreciation = "appreciation"
	PillClassCriticism    = "criticism"
)
