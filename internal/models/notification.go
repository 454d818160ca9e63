package models

import "time"

// NotificationLifecycle tags the soft-delete state of a notification.
// Retiring a record keeps it for audit history; it is never physically deleted.
type NotificationLifecycle string

const (
	LifecycleActive  NotificationLifecycle = "ACTIVE"
	LifecycleRetired NotificationLifecycle = "RETIRED"
)

// ActionKind distinguishes in-site navigation from external links.
type ActionKind string

const (
	ActionInternal ActionKind = "INTERNAL"
	ActionExternal ActionKind = "EXTERNAL"
)

// TimeWindow is a daily display window expressed as zero-padded "HH:MM"
// strings. Windows are inclusive on both ends and never wrap past midnight;
// End < Start is rejected at write time.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NotificationAction is a call-to-action button on a notification. Opaque to
// eligibility evaluation.
type NotificationAction struct {
	Label  string     `json:"label"`
	Target string     `json:"target"`
	Kind   ActionKind `json:"kind"`
}

// Notification is a scheduled site notification. Whether it displays at a
// given instant is a pure function of Lifecycle, StartsOn/EndsOn and
// TimeWindows; the remaining fields are display payload.
type Notification struct {
	ID          string                `db:"id" json:"id"`
	Title       string                `db:"title" json:"title"`
	Description string                `db:"description" json:"description"`
	Badge       string                `db:"badge" json:"badge"`
	ImageURL    string                `db:"image_url" json:"image_url"`
	Lifecycle   NotificationLifecycle `db:"lifecycle" json:"lifecycle"`
	StartsOn    time.Time             `db:"starts_on" json:"starts_on"`
	EndsOn      time.Time             `db:"ends_on" json:"ends_on"`
	TimeWindows []TimeWindow          `db:"-" json:"time_windows"`
	Actions     []NotificationAction  `db:"-" json:"actions"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updated_at"`
}

// IsRetired reports whether the record has been soft-deleted.
func (n *Notification) IsRetired() bool {
	return n.Lifecycle == LifecycleRetired
}
