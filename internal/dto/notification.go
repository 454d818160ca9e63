package dto

import (
	"time"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

// TimeWindowPayload carries one daily display window on the wire.
type TimeWindowPayload struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// ActionPayload carries one call-to-action button on the wire.
type ActionPayload struct {
	Label  string `json:"label" binding:"required,max=100"`
	Target string `json:"target" binding:"required,max=500"`
	Kind   string `json:"kind" binding:"required,oneof=INTERNAL EXTERNAL"`
}

// CreateNotificationRequest is the admin payload for a new notification.
// Active maps to the lifecycle enum: true is ACTIVE, false is RETIRED.
type CreateNotificationRequest struct {
	Title       string              `json:"title" binding:"required,max=200"`
	Description string              `json:"description" binding:"max=2000"`
	Badge       string              `json:"badge" binding:"max=50"`
	ImageURL    string              `json:"image_url" binding:"omitempty,url,max=500"`
	Active      *bool               `json:"active"`
	StartsOn    time.Time           `json:"starts_on" binding:"required"`
	EndsOn      time.Time           `json:"ends_on" binding:"required"`
	TimeWindows []TimeWindowPayload `json:"time_windows" binding:"dive"`
	Actions     []ActionPayload     `json:"actions" binding:"max=3,dive"`
}

// UpdateNotificationRequest replaces a notification wholesale. Partial edits
// are done client side by fetching, mutating and resubmitting.
type UpdateNotificationRequest = CreateNotificationRequest

// ListNotificationsQuery narrows the admin listing.
type ListNotificationsQuery struct {
	Active   *bool `form:"active"`
	Page     int   `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int   `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// NotificationResponse is the full admin view of a notification.
type NotificationResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Badge       string              `json:"badge"`
	ImageURL    string              `json:"image_url"`
	Active      bool                `json:"active"`
	Phase       string              `json:"phase"`
	StartsOn    time.Time           `json:"starts_on"`
	EndsOn      time.Time           `json:"ends_on"`
	TimeWindows []TimeWindowPayload `json:"time_windows"`
	Actions     []ActionPayload     `json:"actions"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CurrentNotificationResponse is the public projection served to the site.
// Scheduling internals (lifecycle, dates, windows) stay server side.
type CurrentNotificationResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Badge       string          `json:"badge,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Actions     []ActionPayload `json:"actions"`
}

// ToNotificationResponse projects the model for admin consumers.
func ToNotificationResponse(n *models.Notification, phase string) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Badge:       n.Badge,
		ImageURL:    n.ImageURL,
		Active:      !n.IsRetired(),
		Phase:       phase,
		StartsOn:    n.StartsOn,
		EndsOn:      n.EndsOn,
		TimeWindows: toWindowPayloads(n.TimeWindows),
		Actions:     toActionPayloads(n.Actions),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

// ToCurrentNotificationResponse projects the model for the public endpoint.
func ToCurrentNotificationResponse(n *models.Notification) CurrentNotificationResponse {
	return CurrentNotificationResponse{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Badge:       n.Badge,
		ImageURL:    n.ImageURL,
		Actions:     toActionPayloads(n.Actions),
	}
}

func toWindowPayloads(windows []models.TimeWindow) []TimeWindowPayload {
	out := make([]TimeWindowPayload, 0, len(windows))
	for _, w := range windows {
		out = append(out, TimeWindowPayload{Start: w.Start, End: w.End})
	}
	return out
}

func toActionPayloads(actions []models.NotificationAction) []ActionPayload {
	out := make([]ActionPayload, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionPayload{Label: a.Label, Target: a.Target, Kind: string(a.Kind)})
	}
	return out
}
