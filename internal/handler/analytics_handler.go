package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitepulse-io/sitepulse-api/internal/dto"
	"github.com/sitepulse-io/sitepulse-api/internal/middleware"
	"github.com/sitepulse-io/sitepulse-api/internal/models"
	"github.com/sitepulse-io/sitepulse-api/internal/service"
	appErrors "github.com/sitepulse-io/sitepulse-api/pkg/errors"
	"github.com/sitepulse-io/sitepulse-api/pkg/response"
)

type analyticsService interface {
	Overview(ctx context.Context, now time.Time) (*models.VisitorStats, bool, error)
	InvalidateCache(ctx context.Context) error
}

// AnalyticsHandler serves visitor statistics to the dashboard.
type AnalyticsHandler struct {
	analytics analyticsService
	metrics   *service.MetricsService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(analytics analyticsService, metrics *service.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, metrics: metrics}
}

// Visitors godoc
// @Summary Visitor statistics
// @Description Rolling-window visitor statistics aggregated from the visit log
// @Tags Dashboard
// @Produce json
// @Param date query string false "Reference time (RFC3339). Defaults to now"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/visitors [get]
func (h *AnalyticsHandler) Visitors(c *gin.Context) {
	now := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be RFC3339"))
			return
		}
		now = parsed
	}

	start := time.Now()
	stats, cacheHit, err := h.analytics.Overview(c.Request.Context(), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()

	response.JSON(c, http.StatusOK, dto.ToVisitorStatsResponse(stats), nil, meta)
}

// FlushCache godoc
// @Summary Drop cached visitor snapshots
// @Description Forces the next dashboard read to recompute from the visit log
// @Tags Dashboard
// @Success 204
// @Router /admin/cache [delete]
func (h *AnalyticsHandler) FlushCache(c *gin.Context) {
	if err := h.analytics.InvalidateCache(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// System godoc
// @Summary System metrics snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.metrics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
