package model

import "time"

// Credential holds a stored secret for an external service ("ledger",
// "github").
type Credential struct {
	ID        int64
	Service   string
	Value     string
	UpdatedAt time.Time
}
