package model

import (
	"strings"
	"time"
)

// Communication is an outbound message attached to a document.
type Communication struct {
	Sender         string
	DeliveryStatus string
}

// HistoryEntry is an authored item in one of the document's history feeds
// (comment, version or assignment).
type HistoryEntry struct {
	Owner     string
	CreatedAt time.Time
}

// DocumentHistory groups the history feeds that contribute to involvement.
type DocumentHistory struct {
	Communications []Communication
	Comments       []HistoryEntry
	Versions       []HistoryEntry
	Assignments    []HistoryEntry
}

// InvolvementSet is the ordered, deduplicated list of eligible recipients.
type InvolvementSet []string

// SameUser reports whether two user IDs name the same user. IDs compare
// case-insensitively after trimming surrounding space.
func SameUser(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Contains reports whether user is in the set.
func (s InvolvementSet) Contains(user string) bool {
	for _, u := range s {
		if SameUser(u, user) {
			return true
		}
	}
	return false
}
