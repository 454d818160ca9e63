package service

import (
	"time"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

// NotificationPhase locates a notification relative to its date range.
type NotificationPhase string

const (
	PhaseUpcoming NotificationPhase = "UPCOMING"
	PhaseActive   NotificationPhase = "ACTIVE"
	PhaseExpired  NotificationPhase = "EXPIRED"
	PhaseRetired  NotificationPhase = "RETIRED"
)

// Phase evaluates the notification's date range at day granularity in UTC.
// Both bounds are inclusive: a notification ending on the 15th is still in
// phase ACTIVE at 23:59 UTC that day. Retired notifications never re-enter
// the rotation regardless of dates.
func Phase(n *models.Notification, now time.Time) NotificationPhase {
	if n.IsRetired() {
		return PhaseRetired
	}
	today := startOfUTCDay(now)
	if today.Before(startOfUTCDay(n.StartsOn)) {
		return PhaseUpcoming
	}
	if today.After(startOfUTCDay(n.EndsOn)) {
		return PhaseExpired
	}
	return PhaseActive
}

// WithinHours reports whether now falls inside one of the notification's
// daily display windows. No windows means all-day display. Window bounds
// are minute precision, compared lexicographically as HH:MM, inclusive on
// both ends.
func WithinHours(windows []models.TimeWindow, now time.Time) bool {
	if len(windows) == 0 {
		return true
	}
	clock := now.UTC().Format("15:04")
	for _, w := range windows {
		if clock >= w.Start && clock <= w.End {
			return true
		}
	}
	return false
}

// IsEligible reports whether the notification may be shown at the given
// instant: in phase ACTIVE and inside a display window.
func IsEligible(n *models.Notification, now time.Time) bool {
	if Phase(n, now) != PhaseActive {
		return false
	}
	return WithinHours(n.TimeWindows, now)
}

func startOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfUTCMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
