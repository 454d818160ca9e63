package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

func notificationTestRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "badge", "image_url", "lifecycle", "starts_on", "ends_on", "time_windows", "actions", "created_at", "updated_at"}).
		AddRow("n1", "Winter sale", "Snow discount", "Sale", "", "ACTIVE",
			time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			[]byte(`[{"start":"09:00","end":"17:00"}]`),
			[]byte(`[{"label":"Shop","target":"/shop","kind":"INTERNAL"}]`),
			now, now)
}

func TestNotificationList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	active := models.LifecycleActive
	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("ACTIVE").
		WillReturnRows(notificationTestRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE 1=1 AND lifecycle = $1")).
		WithArgs("ACTIVE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	notifications, total, err := repo.List(context.Background(), NotificationFilter{Lifecycle: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Winter sale", notifications[0].Title)
	require.Len(t, notifications[0].TimeWindows, 1)
	assert.Equal(t, models.TimeWindow{Start: "09:00", End: "17:00"}, notifications[0].TimeWindows[0])
	require.Len(t, notifications[0].Actions, 1)
	assert.Equal(t, models.ActionInternal, notifications[0].Actions[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationListActiveIsUnpaginated(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	// Anchored so a reintroduced LIMIT clause fails the match.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+notificationColumns+" FROM notifications WHERE lifecycle = $1 ORDER BY created_at DESC") + "$").
		WithArgs("ACTIVE").
		WillReturnRows(notificationTestRows(now))

	notifications, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.LifecycleActive, notifications[0].Lifecycle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, title, description").
		WithArgs("n1").
		WillReturnRows(notificationTestRows(now))

	n, err := repo.GetByID(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleActive, n.Lifecycle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	n := &models.Notification{
		Title:     "Launch week",
		Lifecycle: models.LifecycleActive,
		StartsOn:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:    time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
	}
	err := repo.Create(context.Background(), n)
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationSetLifecycle(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET lifecycle = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("n1", "RETIRED", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetLifecycle(context.Background(), "n1", models.LifecycleRetired)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
