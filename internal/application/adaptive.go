package application

import "time"

// ActivityTier buckets the time since the last review activity. Busier
// reviewers get fresher balances.
type ActivityTier int

const (
	TierHot    ActivityTier = iota // Activity within the last hour.
	TierActive                     // Within the last day.
	TierWarm                       // Within the last week.
	TierStale                      // Older, or never.
)

// activityTiers maps each tier to the age it covers and its refresh interval.
// Entries are ordered by increasing age.
var activityTiers = []struct {
	tier     ActivityTier
	name     string
	maxAge   time.Duration
	interval time.Duration
}{
	{TierHot, "hot", time.Hour, time.Minute},
	{TierActive, "active", 24 * time.Hour, 5 * time.Minute},
	{TierWarm, "warm", 7 * 24 * time.Hour, 15 * time.Minute},
	{TierStale, "stale", 0, 30 * time.Minute},
}

func (t ActivityTier) String() string {
	for _, at := range activityTiers {
		if at.tier == t {
			return at.name
		}
	}
	return "unknown"
}

// tierInterval returns the balance refresh interval for tier. Unknown tiers
// refresh at the TierActive rate.
func tierInterval(tier ActivityTier) time.Duration {
	for _, at := range activityTiers {
		if at.tier == tier {
			return at.interval
		}
	}
	return tierInterval(TierActive)
}

// classifyActivity returns the tier for lastActivity. A zero time is stale.
func classifyActivity(lastActivity, now time.Time) ActivityTier {
	if lastActivity.IsZero() {
		return TierStale
	}
	age := now.Sub(lastActivity)
	for _, at := range activityTiers {
		if at.maxAge > 0 && age < at.maxAge {
			return at.tier
		}
	}
	return TierStale
}

// nextInterval returns the refresh interval for lastActivity, capped at limit
// when limit is positive.
func nextInterval(lastActivity, now time.Time, limit time.Duration) time.Duration {
	d := tierInterval(classifyActivity(lastActivity, now))
	if limit > 0 && d > limit {
		return limit
	}
	return d
}
