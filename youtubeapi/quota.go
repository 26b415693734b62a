package youtubeapi

import (
	"fmt"
	"time"
)

// QuotaBudget describes an API cost budget to spread over a time window:
// TargetUnits total quota units, at UnitsPerRequest per fetch, across Window.
type QuotaBudget struct {
	TargetUnits     int64
	UnitsPerRequest int64
	Window          time.Duration
}

// Interval converts the budget into a minimum spacing between fetches, clamped
// into [minPoll, maxPoll]. The planner is pure: it does not replace server
// pacing or error backoff, it only widens the steady-state sleep.
func (b QuotaBudget) Interval(minPoll, maxPoll time.Duration) (time.Duration, error) {
	if b.Window <= 0 {
		return 0, fmt.Errorf("quota budget: window must be positive, got %s", b.Window)
	}
	unitsPer := b.UnitsPerRequest
	if unitsPer < 1 {
		unitsPer = 1
	}
	allowed := b.TargetUnits / unitsPer
	if allowed < 1 {
		allowed = 1
	}
	interval := b.Window / time.Duration(allowed)
	if interval < minPoll {
		interval = minPoll
	}
	if interval > maxPoll {
		interval = maxPoll
	}
	return interval, nil
}
