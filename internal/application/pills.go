package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// ReviewPill is the presentation-ready indicator of one review.
type ReviewPill struct {
	ReviewID  string
	Points    int // Signed, as recorded.
	Magnitude int
	Class     string
	Polarity  model.Polarity
	FromUser  string
	ToUser    string
	FromName  string
	ToName    string
	Reason    string
	CreatedAt time.Time
	When      string // Relative to the derivation time.
	Detail    string
}

// PillClass returns the styling class for a signed point value. Only strictly
// negative values are styled as criticism; zero renders as appreciation.
func PillClass(points int) string {
	if points < 0 {
		return model.PillClassCriticism
	}
	return model.PillClassAppreciation
}

// ReviewDetail formats the inspection text of a review, e.g.
// "Alice appreciated Bob with 1 point 2 hours ago: clean fix".
func ReviewDetail(fromName, toName string, points int, when, reason string) string {
	verb := "appreciated"
	if points < 0 {
		verb = "criticized"
	}

	magnitude := points
	if magnitude < 0 {
		magnitude = -magnitude
	}

	unit := "points"
	if points == 1 || points == -1 {
		unit = "point"
	}

	return fmt.Sprintf("%s %s %s with %d %s %s: %s", fromName, verb, toName, magnitude, unit, when, reason)
}

// DerivePills builds the pill list from history, keeping only review
// polarities and preserving history order. It has no side effects, so the
// same history always yields the same pills for a given now.
func DerivePills(history []model.ReviewRecord, fullName func(string) string, now time.Time) []ReviewPill {
	pills := make([]ReviewPill, 0, len(history))
	for _, r := range history {
		if !r.Polarity.IsReview() {
			continue
		}

		fromName := fullName(r.FromUser)
		toName := fullName(r.ToUser)
		when := humanize.RelTime(r.CreatedAt, now, "ago", "from now")

		pills = append(pills, ReviewPill{
			ReviewID:  r.ID,
			Points:    r.Points,
			Magnitude: r.Magnitude(),
			Class:     PillClass(r.Points),
			Polarity:  r.Polarity,
			FromUser:  r.FromUser,
			ToUser:    r.ToUser,
			FromName:  fromName,
			ToName:    toName,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
			When:      when,
			Detail:    ReviewDetail(fromName, toName, r.Points, when, r.Reason),
		})
	}
	return pills
}

// DisplayNames resolves and caches full names from a UserDirectory. Unknown
// users and lookup failures fall back to the user ID.
type DisplayNames struct {
	directory driven.UserDirectory

	mu    sync.Mutex
	cache map[string]string
}

// NewDisplayNames creates a resolver. directory may be nil, in which case IDs
// are used as names.
func NewDisplayNames(directory driven.UserDirectory) *DisplayNames {
	return &DisplayNames{
		directory: directory,
		cache:     make(map[string]string),
	}
}

// FullName returns the display name of user.
func (d *DisplayNames) FullName(ctx context.Context, user string) string {
	if user == "" {
		return ""
	}

	d.mu.Lock()
	name, ok := d.cache[user]
	d.mu.Unlock()
	if ok {
		return name
	}

	name = user
	if d.directory != nil {
		resolved, err := d.directory.FullName(ctx, user)
		if err != nil {
			slog.Warn("full name lookup failed", "user", user, "error", err)
			return user
		}
		if resolved != "" {
			name = resolved
		}
	}

	d.mu.Lock()
	d.cache[user] = name
	d.mu.Unlock()
	return name
}

// Lookup binds ctx for use with DerivePills.
func (d *DisplayNames) Lookup(ctx context.Context) func(string) string {
	return func(user string) string {
		return d.FullName(ctx, user)
	}
}
