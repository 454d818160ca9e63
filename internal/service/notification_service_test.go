package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse-io/sitepulse-api/internal/dto"
	"github.com/sitepulse-io/sitepulse-api/internal/models"
	"github.com/sitepulse-io/sitepulse-api/internal/repository"
	appErrors "github.com/sitepulse-io/sitepulse-api/pkg/errors"
)

type fakeNotificationStore struct {
	active    []models.Notification
	byID      map[string]*models.Notification
	created   []*models.Notification
	updated   []*models.Notification
	lifecycle map[string]models.NotificationLifecycle
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{
		byID:      make(map[string]*models.Notification),
		lifecycle: make(map[string]models.NotificationLifecycle),
	}
}

func (f *fakeNotificationStore) List(_ context.Context, filter repository.NotificationFilter) ([]models.Notification, int, error) {
	return f.active, len(f.active), nil
}

func (f *fakeNotificationStore) ListActive(context.Context) ([]models.Notification, error) {
	return f.active, nil
}

func (f *fakeNotificationStore) GetByID(_ context.Context, id string) (*models.Notification, error) {
	if n, ok := f.byID[id]; ok {
		return n, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	n.ID = "generated-id"
	n.CreatedAt = time.Now().UTC()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationStore) Update(_ context.Context, n *models.Notification) error {
	f.updated = append(f.updated, n)
	return nil
}

func (f *fakeNotificationStore) SetLifecycle(_ context.Context, id string, lifecycle models.NotificationLifecycle) error {
	f.lifecycle[id] = lifecycle
	return nil
}

func eligibleCampaign(id string, createdAt time.Time) models.Notification {
	return models.Notification{
		ID:        id,
		Title:     "Campaign " + id,
		Lifecycle: models.LifecycleActive,
		StartsOn:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:    time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		CreatedAt: createdAt,
	}
}

func TestCurrentSelectsNewestEligible(t *testing.T) {
	store := newFakeNotificationStore()
	older := eligibleCampaign("old", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := eligibleCampaign("new", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	store.active = []models.Notification{older, newer}

	svc := NewNotificationService(store, nil, time.Minute, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	selected, cached, err := svc.Current(context.Background(), now)
	require.NoError(t, err)
	assert.False(t, cached)
	require.NotNil(t, selected)
	// Only the head of the rotation is served. The older campaign stays
	// shadowed for as long as the newer one remains eligible.
	assert.Equal(t, "new", selected.ID)
}

func TestCurrentSkipsIneligible(t *testing.T) {
	store := newFakeNotificationStore()
	expired := eligibleCampaign("expired", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	expired.EndsOn = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	windowed := eligibleCampaign("windowed", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	windowed.TimeWindows = []models.TimeWindow{{Start: "09:00", End: "10:00"}}
	fallback := eligibleCampaign("fallback", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	store.active = []models.Notification{expired, windowed, fallback}

	svc := NewNotificationService(store, nil, time.Minute, nil)
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

	selected, _, err := svc.Current(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "fallback", selected.ID)
}

func TestCurrentNoneEligible(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, time.Minute, nil)

	selected, _, err := svc.Current(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Nil(t, selected)
}

func TestCreateRejectsMalformedWindow(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, time.Minute, nil)

	base := dto.CreateNotificationRequest{
		Title:    "Bad windows",
		StartsOn: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	cases := []struct {
		name   string
		window dto.TimeWindowPayload
	}{
		{"hour out of range", dto.TimeWindowPayload{Start: "24:00", End: "25:00"}},
		{"missing zero padding", dto.TimeWindowPayload{Start: "9:00", End: "17:00"}},
		{"not a clock", dto.TimeWindowPayload{Start: "morning", End: "evening"}},
		{"end before start", dto.TimeWindowPayload{Start: "17:00", End: "09:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			req.TimeWindows = []dto.TimeWindowPayload{tc.window}
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrInvalidTimeWindow.Code, appErr.Code)
			assert.Contains(t, appErr.Message, "time_windows[0]")
		})
	}
	assert.Empty(t, store.created)
}

func TestCreateAllowsPointWindow(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, time.Minute, nil)

	req := dto.CreateNotificationRequest{
		Title:       "Flash sale",
		StartsOn:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TimeWindows: []dto.TimeWindowPayload{{Start: "12:00", End: "12:00"}},
	}
	n, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleActive, n.Lifecycle)
	assert.Len(t, store.created, 1)
}

func TestCreateRejectsEndBeforeStartDate(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, time.Minute, nil)

	req := dto.CreateNotificationRequest{
		Title:    "Backwards",
		StartsOn: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCreateInactiveMapsToRetired(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, time.Minute, nil)

	inactive := false
	req := dto.CreateNotificationRequest{
		Title:    "Draft",
		Active:   &inactive,
		StartsOn: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	n, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleRetired, n.Lifecycle)
}

func TestUpdatePreservesIdentityAndCreationTime(t *testing.T) {
	store := newFakeNotificationStore()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := eligibleCampaign("n1", created)
	store.byID["n1"] = &existing

	svc := NewNotificationService(store, nil, time.Minute, nil)
	req := dto.UpdateNotificationRequest{
		Title:    "Renamed",
		StartsOn: existing.StartsOn,
		EndsOn:   existing.EndsOn,
	}
	n, err := svc.Update(context.Background(), "n1", req)
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, created, n.CreatedAt)
	assert.Equal(t, "Renamed", n.Title)
}

func TestUpdateMissingNotification(t *testing.T) {
	store := newFakeNotificationStore()
	svc := NewNotificationService(store, nil, time.Minute, nil)

	_, err := svc.Update(context.Background(), "missing", dto.UpdateNotificationRequest{
		Title:    "x",
		StartsOn: time.Now(),
		EndsOn:   time.Now(),
	})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRetireFlipsLifecycle(t *testing.T) {
	store := newFakeNotificationStore()
	existing := eligibleCampaign("n1", time.Now().UTC())
	store.byID["n1"] = &existing

	svc := NewNotificationService(store, nil, time.Minute, nil)
	require.NoError(t, svc.Retire(context.Background(), "n1"))
	assert.Equal(t, models.LifecycleRetired, store.lifecycle["n1"])
}
