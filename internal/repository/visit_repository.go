package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

// QueryObserver receives per-query timings for instrumentation.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// VisitRepository provides access to the append-only visit log. There are no
// update or delete paths: rows are written once at ingestion and only ever
// read back for aggregation.
type VisitRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewVisitRepository creates the repository.
func NewVisitRepository(db *sqlx.DB, metrics QueryObserver) *VisitRepository {
	return &VisitRepository{db: db, metrics: metrics}
}

func (r *VisitRepository) observe(label string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// Insert appends a visit event.
func (r *VisitRepository) Insert(ctx context.Context, event *models.VisitEvent) error {
	defer r.observe("visit_insert", time.Now())
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO visit_events (id, session_id, occurred_at, page, referrer, user_agent_raw, browser, device_class, os, country, city, region, created_at)
VALUES (:id, :session_id, :occurred_at, :page, :referrer, :user_agent_raw, :browser, :device_class, :os, :country, :city, :region, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert visit event: %w", err)
	}
	return nil
}

// TotalVisitors counts distinct sessions over the whole log.
func (r *VisitRepository) TotalVisitors(ctx context.Context) (int, error) {
	defer r.observe("visitors_total", time.Now())
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(DISTINCT session_id) FROM visit_events"); err != nil {
		return 0, fmt.Errorf("count total visitors: %w", err)
	}
	return count, nil
}

// VisitorsSince counts distinct sessions with a visit at or after the given instant.
func (r *VisitRepository) VisitorsSince(ctx context.Context, since time.Time) (int, error) {
	defer r.observe("visitors_since", time.Now())
	var count int
	const query = "SELECT COUNT(DISTINCT session_id) FROM visit_events WHERE occurred_at >= $1"
	if err := r.db.GetContext(ctx, &count, query, since); err != nil {
		return 0, fmt.Errorf("count visitors since %s: %w", since.Format(time.RFC3339), err)
	}
	return count, nil
}

// BrowserBreakdown returns page-view counts grouped by browser, most viewed first.
func (r *VisitRepository) BrowserBreakdown(ctx context.Context) ([]models.BreakdownRow, error) {
	defer r.observe("browser_breakdown", time.Now())
	const query = `SELECT browser AS label, COUNT(*) AS count FROM visit_events GROUP BY browser ORDER BY count DESC`
	var rows []models.BreakdownRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("browser breakdown: %w", err)
	}
	return rows, nil
}

// DeviceBreakdown returns page-view counts grouped by device class, most viewed first.
func (r *VisitRepository) DeviceBreakdown(ctx context.Context) ([]models.BreakdownRow, error) {
	defer r.observe("device_breakdown", time.Now())
	const query = `SELECT device_class AS label, COUNT(*) AS count FROM visit_events GROUP BY device_class ORDER BY count DESC`
	var rows []models.BreakdownRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("device breakdown: %w", err)
	}
	return rows, nil
}

// Recent returns the newest events by occurrence time. Insertion order is not
// trusted; clients may retry and deliver out of order.
func (r *VisitRepository) Recent(ctx context.Context, limit int) ([]models.VisitEvent, error) {
	defer r.observe("visits_recent", time.Now())
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT id, session_id, occurred_at, page, referrer, user_agent_raw, browser, device_class, os, country, city, region, created_at
FROM visit_events ORDER BY occurred_at DESC LIMIT $1`
	var events []models.VisitEvent
	if err := r.db.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("recent visit events: %w", err)
	}
	return events, nil
}
