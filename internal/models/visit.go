package models

import "time"

// VisitEvent is an immutable row in the append-only visit log. Classification
// fields (browser, device_class, os) are derived from the raw user agent once
// at ingestion time and never recomputed; changing the classifier does not
// retroactively reclassify stored history.
type VisitEvent struct {
	ID           string    `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	OccurredAt   time.Time `db:"occurred_at" json:"occurred_at"`
	Page         string    `db:"page" json:"page"`
	Referrer     string    `db:"referrer" json:"referrer"`
	UserAgentRaw string    `db:"user_agent_raw" json:"user_agent_raw"`
	Browser      string    `db:"browser" json:"browser"`
	DeviceClass  string    `db:"device_class" json:"device_class"`
	OS           string    `db:"os" json:"os"`
	Country      *string   `db:"country" json:"country,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	Region       *string   `db:"region" json:"region,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// VisitorStats is the on-demand aggregation of the visit log into the
// dashboard's rolling windows. Nothing is precomputed; every snapshot is
// derived from the log at read time, so windows can shrink between reads as
// events age out.
type VisitorStats struct {
	TotalVisitors    int            `json:"total_visitors"`
	TodaysVisitors   int            `json:"todays_visitors"`
	WeekVisitors     int            `json:"week_visitors"`
	MonthVisitors    int            `json:"month_visitors"`
	BrowserBreakdown []BreakdownRow `json:"browser_breakdown"`
	DeviceBreakdown  []BreakdownRow `json:"device_breakdown"`
	RecentActivity   []VisitEvent   `json:"recent_activity"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// BreakdownRow is a single category count in a page-view breakdown. Counts are
// event rows, not distinct sessions; the dashboard deliberately reports views
// per category and visitors per window as different metrics.
type BreakdownRow struct {
	Label string `db:"label" json:"label"`
	Count int    `db:"count" json:"count"`
}
