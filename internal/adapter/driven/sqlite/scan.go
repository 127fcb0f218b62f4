package sqlite

import (
	"fmt"
	"time"
)

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// parseTime parses the timestamp formats SQLite hands back for DATETIME
// columns. Results are in UTC.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.000",
		"2006-01-02T15:04:05Z",
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}

// formatTime renders t the way CURRENT_TIMESTAMP does, so stored values sort
// consistently.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
