package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	Lifecycle *models.NotificationLifecycle
	Page      int
	PageSize  int
}

// NotificationRepository provides persistence for scheduled notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// notificationRow mirrors the table layout; time windows and actions are JSONB.
type notificationRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Badge       string    `db:"badge"`
	ImageURL    string    `db:"image_url"`
	Lifecycle   string    `db:"lifecycle"`
	StartsOn    time.Time `db:"starts_on"`
	EndsOn      time.Time `db:"ends_on"`
	TimeWindows []byte    `db:"time_windows"`
	Actions     []byte    `db:"actions"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const notificationColumns = "id, title, description, badge, image_url, lifecycle, starts_on, ends_on, time_windows, actions, created_at, updated_at"

// List returns notifications newest first with total count.
func (r *NotificationRepository) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, int, error) {
	base := "FROM notifications"
	where := []string{"1=1"}
	var args []interface{}
	if filter.Lifecycle != nil {
		args = append(args, string(*filter.Lifecycle))
		where = append(where, fmt.Sprintf("lifecycle = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		notificationColumns, base, whereClause, size, offset)
	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, total, nil
}

// ListActive returns every non-retired notification, newest first. The
// selector evaluates eligibility in memory, so the candidate set must not be
// paginated; the store only filters lifecycle.
func (r *NotificationRepository) ListActive(ctx context.Context) ([]models.Notification, error) {
	query := fmt.Sprintf("SELECT %s FROM notifications WHERE lifecycle = $1 ORDER BY created_at DESC", notificationColumns)
	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, string(models.LifecycleActive)); err != nil {
		return nil, fmt.Errorf("list active notifications: %w", err)
	}
	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toModel()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, nil
}

// GetByID returns a notification by identifier.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	query := fmt.Sprintf("SELECT %s FROM notifications WHERE id = $1", notificationColumns)
	var row notificationRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// Create inserts a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	row, err := fromModel(n)
	if err != nil {
		return err
	}
	const query = `INSERT INTO notifications (id, title, description, badge, image_url, lifecycle, starts_on, ends_on, time_windows, actions, created_at, updated_at)
VALUES (:id, :title, :description, :badge, :image_url, :lifecycle, :starts_on, :ends_on, :time_windows, :actions, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// Update modifies an existing notification.
func (r *NotificationRepository) Update(ctx context.Context, n *models.Notification) error {
	n.UpdatedAt = time.Now().UTC()
	row, err := fromModel(n)
	if err != nil {
		return err
	}
	const query = `UPDATE notifications SET title = :title, description = :description, badge = :badge, image_url = :image_url,
lifecycle = :lifecycle, starts_on = :starts_on, ends_on = :ends_on, time_windows = :time_windows, actions = :actions, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return nil
}

// SetLifecycle flips the soft-delete state of a notification.
func (r *NotificationRepository) SetLifecycle(ctx context.Context, id string, lifecycle models.NotificationLifecycle) error {
	const query = `UPDATE notifications SET lifecycle = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, string(lifecycle), time.Now().UTC()); err != nil {
		return fmt.Errorf("set notification lifecycle: %w", err)
	}
	return nil
}

func (row notificationRow) toModel() (*models.Notification, error) {
	n := &models.Notification{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Badge:       row.Badge,
		ImageURL:    row.ImageURL,
		Lifecycle:   models.NotificationLifecycle(row.Lifecycle),
		StartsOn:    row.StartsOn,
		EndsOn:      row.EndsOn,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if len(row.TimeWindows) > 0 {
		if err := json.Unmarshal(row.TimeWindows, &n.TimeWindows); err != nil {
			return nil, fmt.Errorf("decode time windows for %s: %w", row.ID, err)
		}
	}
	if len(row.Actions) > 0 {
		if err := json.Unmarshal(row.Actions, &n.Actions); err != nil {
			return nil, fmt.Errorf("decode actions for %s: %w", row.ID, err)
		}
	}
	return n, nil
}

func fromModel(n *models.Notification) (*notificationRow, error) {
	windows, err := json.Marshal(n.TimeWindows)
	if err != nil {
		return nil, fmt.Errorf("encode time windows: %w", err)
	}
	actions, err := json.Marshal(n.Actions)
	if err != nil {
		return nil, fmt.Errorf("encode actions: %w", err)
	}
	return &notificationRow{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Badge:       n.Badge,
		ImageURL:    n.ImageURL,
		Lifecycle:   string(n.Lifecycle),
		StartsOn:    n.StartsOn,
		EndsOn:      n.EndsOn,
		TimeWindows: windows,
		Actions:     actions,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}, nil
}
