package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

type fakeAnalyticsSrv struct {
	stats       *models.VisitorStats
	err         error
	cacheHit    bool
	lastNow     time.Time
	invalidated bool
}

func (f *fakeAnalyticsSrv) Overview(_ context.Context, now time.Time) (*models.VisitorStats, bool, error) {
	f.lastNow = now
	return f.stats, f.cacheHit, f.err
}

func (f *fakeAnalyticsSrv) InvalidateCache(context.Context) error {
	f.invalidated = true
	return nil
}

func TestVisitorsDefaultsToNow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAnalyticsSrv{stats: &models.VisitorStats{TotalVisitors: 7}}
	handler := NewAnalyticsHandler(srv, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/visitors", nil)

	handler.Visitors(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.WithinDuration(t, time.Now().UTC(), srv.lastNow, 5*time.Second)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(7), envelope.Data["total_visitors"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestVisitorsAcceptsRFC3339Date(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAnalyticsSrv{stats: &models.VisitorStats{}}
	handler := NewAnalyticsHandler(srv, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/visitors?date=2025-06-18T10:00:00Z", nil)

	handler.Visitors(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC), srv.lastNow)
}

func TestVisitorsRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAnalyticsHandler(&fakeAnalyticsSrv{stats: &models.VisitorStats{}}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/visitors?date=yesterday", nil)

	handler.Visitors(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVisitorsReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAnalyticsSrv{stats: &models.VisitorStats{}, cacheHit: true}
	handler := NewAnalyticsHandler(srv, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/visitors", nil)

	handler.Visitors(c)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestFlushCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAnalyticsSrv{}
	handler := NewAnalyticsHandler(srv, nil)

	r := gin.New()
	r.DELETE("/admin/cache", handler.FlushCache)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/cache", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, srv.invalidated)
}

func TestVisitorsStripsSessionIdentifiers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAnalyticsSrv{stats: &models.VisitorStats{
		RecentActivity: []models.VisitEvent{{
			SessionID:    "secret-session",
			UserAgentRaw: "Mozilla/5.0 secret",
			Page:         "/pricing",
			Browser:      "Chrome",
		}},
	}}
	handler := NewAnalyticsHandler(srv, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/visitors", nil)

	handler.Visitors(c)

	body := rec.Body.String()
	assert.NotContains(t, body, "secret-session")
	assert.NotContains(t, body, "Mozilla/5.0 secret")
	assert.Contains(t, body, "/pricing")
}
