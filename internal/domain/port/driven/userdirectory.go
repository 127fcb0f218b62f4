package driven

import "context"

// UserDirectory resolves user identifiers to display names.
// Implementations return ("", nil) when the user is unknown.
type UserDirectory interface {
	FullName(ctx context.Context, user string) (string, error)
}
