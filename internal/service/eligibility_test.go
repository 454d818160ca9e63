package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

func campaign(start, end time.Time, windows ...models.TimeWindow) *models.Notification {
	return &models.Notification{
		ID:          "n1",
		Title:       "Winter sale",
		Lifecycle:   models.LifecycleActive,
		StartsOn:    start,
		EndsOn:      end,
		TimeWindows: windows,
	}
}

func TestPhaseDateBoundsInclusive(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	n := campaign(start, end)

	cases := []struct {
		name string
		now  time.Time
		want NotificationPhase
	}{
		{"day before start", time.Date(2025, 1, 9, 23, 59, 0, 0, time.UTC), PhaseUpcoming},
		{"midnight on start day", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), PhaseActive},
		{"mid range late evening", time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC), PhaseActive},
		{"last minute of end day", time.Date(2025, 1, 20, 23, 59, 59, 0, time.UTC), PhaseActive},
		{"just past end day", time.Date(2025, 1, 21, 0, 1, 0, 0, time.UTC), PhaseExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Phase(n, tc.now))
		})
	}
}

func TestPhaseRetiredWins(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	n := campaign(start, end)
	n.Lifecycle = models.LifecycleRetired

	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, PhaseRetired, Phase(n, now))
	assert.False(t, IsEligible(n, now))
}

func TestWithinHoursBoundaries(t *testing.T) {
	windows := []models.TimeWindow{{Start: "09:00", End: "17:00"}}
	day := func(h, m int) time.Time {
		return time.Date(2025, 1, 15, h, m, 0, 0, time.UTC)
	}

	assert.False(t, WithinHours(windows, day(8, 59)))
	assert.True(t, WithinHours(windows, day(9, 0)))
	assert.True(t, WithinHours(windows, day(12, 30)))
	assert.True(t, WithinHours(windows, day(17, 0)))
	assert.False(t, WithinHours(windows, day(17, 1)))
}

func TestWithinHoursMultipleWindows(t *testing.T) {
	windows := []models.TimeWindow{
		{Start: "09:00", End: "11:00"},
		{Start: "14:00", End: "16:00"},
	}
	day := func(h, m int) time.Time {
		return time.Date(2025, 1, 15, h, m, 0, 0, time.UTC)
	}

	assert.True(t, WithinHours(windows, day(10, 0)))
	assert.False(t, WithinHours(windows, day(12, 0)))
	assert.True(t, WithinHours(windows, day(15, 30)))
	assert.False(t, WithinHours(windows, day(18, 0)))
}

func TestWithinHoursNoWindowsMeansAllDay(t *testing.T) {
	assert.True(t, WithinHours(nil, time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC)))
	assert.True(t, WithinHours([]models.TimeWindow{}, time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC)))
}

func TestIsEligibleCombinesPhaseAndWindows(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	n := campaign(start, end, models.TimeWindow{Start: "09:00", End: "17:00"})

	assert.True(t, IsEligible(n, time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)))
	assert.False(t, IsEligible(n, time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)))
	assert.False(t, IsEligible(n, time.Date(2025, 1, 25, 10, 0, 0, 0, time.UTC)))
	assert.False(t, IsEligible(n, time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)))
}

func TestPhaseUsesUTCDayOfLocalTimestamp(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	n := campaign(start, end)

	// Jan 21 02:00 in UTC+3 is still Jan 20 in UTC, so the campaign remains active.
	loc := time.FixedZone("UTC+3", 3*3600)
	now := time.Date(2025, 1, 21, 2, 0, 0, 0, loc)
	assert.Equal(t, PhaseActive, Phase(n, now))
}
