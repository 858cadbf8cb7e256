package replay

import (
	"time"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

// SelectWindow returns the trailing windowMinutes of the revealed prefix,
// anchored to the latest non-null timestamp it contains. The window slides
// with the replay, not with wall-clock time: an event drops out as soon as
// its age relative to the newest revealed event exceeds the window. Rows
// without a timestamp are excluded, and a prefix with no dated rows at all
// is returned unchanged.
func SelectWindow(prefix []domain.Event, windowMinutes int) []domain.Event {
	tMax, ok := latestTimestamp(prefix)
	if !ok {
		return prefix
	}
	cutoff := tMax.Add(-time.Duration(windowMinutes) * time.Minute)

	window := make([]domain.Event, 0, len(prefix))
	for _, e := range prefix {
		if !e.HasTimestamp() || e.Timestamp.Before(cutoff) {
			continue
		}
		window = append(window, e)
	}
	return window
}

func latestTimestamp(events []domain.Event) (time.Time, bool) {
	// Canonical order puts dated rows first, ascending; scan back past any
	// null-timestamp suffix. Input may be unsorted mid-merge, so fall back
	// to a full scan rather than assuming order.
	var tMax time.Time
	found := false
	for _, e := range events {
		if e.HasTimestamp() && e.Timestamp.After(tMax) {
			tMax = e.Timestamp
			found = true
		}
	}
	return tMax, found
}
