package dto

import (
	"time"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

// TrackRequest is the public visit beacon payload. Location fields are
// optional; the edge proxy fills them in when geo lookup is available.
type TrackRequest struct {
	Page     string `json:"page" binding:"required,max=500"`
	Referrer string `json:"referrer" binding:"max=500"`
	Country  string `json:"country" binding:"max=100"`
	City     string `json:"city" binding:"max=100"`
	Region   string `json:"region" binding:"max=100"`
}

// BreakdownEntry is one category in a dashboard breakdown.
type BreakdownEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RecentActivityEntry is a display-safe projection of a visit event. The
// session identifier and raw user agent never leave the server.
type RecentActivityEntry struct {
	OccurredAt  time.Time `json:"occurred_at"`
	Page        string    `json:"page"`
	Referrer    string    `json:"referrer,omitempty"`
	Browser     string    `json:"browser"`
	DeviceClass string    `json:"device_class"`
	OS          string    `json:"os"`
	Country     string    `json:"country,omitempty"`
	City        string    `json:"city,omitempty"`
}

// VisitorStatsResponse is the dashboard snapshot.
type VisitorStatsResponse struct {
	TotalVisitors  int                   `json:"total_visitors"`
	TodaysVisitors int                   `json:"todays_visitors"`
	WeekVisitors   int                   `json:"week_visitors"`
	MonthVisitors  int                   `json:"month_visitors"`
	Browsers       []BreakdownEntry      `json:"browsers"`
	Devices        []BreakdownEntry      `json:"devices"`
	RecentActivity []RecentActivityEntry `json:"recent_activity"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// ToVisitorStatsResponse projects the aggregate for dashboard consumers.
func ToVisitorStatsResponse(stats *models.VisitorStats) VisitorStatsResponse {
	resp := VisitorStatsResponse{
		TotalVisitors:  stats.TotalVisitors,
		TodaysVisitors: stats.TodaysVisitors,
		WeekVisitors:   stats.WeekVisitors,
		MonthVisitors:  stats.MonthVisitors,
		Browsers:       toBreakdownEntries(stats.BrowserBreakdown),
		Devices:        toBreakdownEntries(stats.DeviceBreakdown),
		RecentActivity: make([]RecentActivityEntry, 0, len(stats.RecentActivity)),
		GeneratedAt:    stats.GeneratedAt,
	}
	for _, event := range stats.RecentActivity {
		entry := RecentActivityEntry{
			OccurredAt:  event.OccurredAt,
			Page:        event.Page,
			Referrer:    event.Referrer,
			Browser:     event.Browser,
			DeviceClass: event.DeviceClass,
			OS:          event.OS,
		}
		if event.Country != nil {
			entry.Country = *event.Country
		}
		if event.City != nil {
			entry.City = *event.City
		}
		resp.RecentActivity = append(resp.RecentActivity, entry)
	}
	return resp
}

func toBreakdownEntries(rows []models.BreakdownRow) []BreakdownEntry {
	out := make([]BreakdownEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, BreakdownEntry{Label: row.Label, Count: row.Count})
	}
	return out
}
