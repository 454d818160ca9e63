package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
	"github.com/sitepulse-io/sitepulse-api/internal/repository"
	"github.com/sitepulse-io/sitepulse-api/internal/service"
)

type stubNotificationStore struct {
	active    []models.Notification
	byID      map[string]*models.Notification
	created   []*models.Notification
	lifecycle map[string]models.NotificationLifecycle
}

func newStubNotificationStore() *stubNotificationStore {
	return &stubNotificationStore{
		byID:      make(map[string]*models.Notification),
		lifecycle: make(map[string]models.NotificationLifecycle),
	}
}

func (s *stubNotificationStore) List(_ context.Context, _ repository.NotificationFilter) ([]models.Notification, int, error) {
	return s.active, len(s.active), nil
}

func (s *stubNotificationStore) ListActive(context.Context) ([]models.Notification, error) {
	return s.active, nil
}

func (s *stubNotificationStore) GetByID(_ context.Context, id string) (*models.Notification, error) {
	if n, ok := s.byID[id]; ok {
		return n, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubNotificationStore) Create(_ context.Context, n *models.Notification) error {
	n.ID = "created-id"
	n.CreatedAt = time.Now().UTC()
	s.created = append(s.created, n)
	return nil
}

func (s *stubNotificationStore) Update(_ context.Context, n *models.Notification) error {
	s.byID[n.ID] = n
	return nil
}

func (s *stubNotificationStore) SetLifecycle(_ context.Context, id string, lifecycle models.NotificationLifecycle) error {
	s.lifecycle[id] = lifecycle
	return nil
}

func liveNotification(id string) models.Notification {
	now := time.Now().UTC()
	return models.Notification{
		ID:        id,
		Title:     "Launch " + id,
		Lifecycle: models.LifecycleActive,
		StartsOn:  now.AddDate(0, 0, -1),
		EndsOn:    now.AddDate(0, 0, 1),
		Actions:   []models.NotificationAction{{Label: "Shop", Target: "/shop", Kind: models.ActionInternal}},
		CreatedAt: now,
	}
}

func newNotificationHandler(store *stubNotificationStore) *NotificationHandler {
	svc := service.NewNotificationService(store, nil, time.Minute, nil)
	return NewNotificationHandler(svc)
}

func TestCurrentReturnsEligibleNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubNotificationStore()
	store.active = []models.Notification{liveNotification("n1")}
	handler := newNotificationHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications/current", nil)

	handler.Current(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "n1", envelope.Data["id"])
	// Scheduling internals must not leak through the public projection.
	assert.NotContains(t, envelope.Data, "lifecycle")
	assert.NotContains(t, envelope.Data, "starts_on")
}

func TestCurrentEmptyWhenNoneEligible(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNotificationHandler(newStubNotificationStore())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications/current", nil)

	handler.Current(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Data)
}

func TestCreateNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubNotificationStore()
	handler := newNotificationHandler(store)

	payload := `{
		"title": "Spring sale",
		"starts_on": "2025-03-01T00:00:00Z",
		"ends_on": "2025-03-14T00:00:00Z",
		"time_windows": [{"start": "09:00", "end": "17:00"}],
		"actions": [{"label": "Shop", "target": "/shop", "kind": "INTERNAL"}]
	}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/notifications", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "created-id", envelope.Data["id"])
	assert.Equal(t, true, envelope.Data["active"])
}

func TestCreateNotificationRejectsBadWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubNotificationStore()
	handler := newNotificationHandler(store)

	payload := `{
		"title": "Bad",
		"starts_on": "2025-03-01T00:00:00Z",
		"ends_on": "2025-03-14T00:00:00Z",
		"time_windows": [{"start": "17:00", "end": "09:00"}]
	}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/notifications", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.created)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_TIME_WINDOW", envelope.Error["code"])
}

func TestGetNotificationNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNotificationHandler(newStubNotificationStore())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/notifications/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetireNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubNotificationStore()
	existing := liveNotification("n1")
	store.byID["n1"] = &existing
	handler := newNotificationHandler(store)

	// A bare test context never flushes a body-less status, so drive the
	// request through a router the way production does.
	r := gin.New()
	r.DELETE("/admin/notifications/:id", handler.Retire)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/notifications/n1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.LifecycleRetired, store.lifecycle["n1"])
}

func TestListNotificationsIncludesPhase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubNotificationStore()
	store.active = []models.Notification{liveNotification("n1")}
	handler := newNotificationHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/notifications", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "ACTIVE", envelope.Data[0]["phase"])
	assert.Equal(t, float64(1), envelope.Pagination["total_count"])
}
