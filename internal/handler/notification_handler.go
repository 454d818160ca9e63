package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitepulse-io/sitepulse-api/internal/dto"
	"github.com/sitepulse-io/sitepulse-api/internal/middleware"
	"github.com/sitepulse-io/sitepulse-api/internal/models"
	"github.com/sitepulse-io/sitepulse-api/internal/service"
	appErrors "github.com/sitepulse-io/sitepulse-api/pkg/errors"
	"github.com/sitepulse-io/sitepulse-api/pkg/response"
)

// NotificationHandler serves both the public current-notification endpoint
// and the admin CRUD surface.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// Current godoc
// @Summary Currently displayed notification
// @Description Returns the notification eligible for display right now, if any
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/current [get]
func (h *NotificationHandler) Current(c *gin.Context) {
	now := time.Now().UTC()
	selected, cacheHit, err := h.service.Current(c.Request.Context(), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)

	if selected == nil {
		response.JSON(c, http.StatusOK, nil, nil)
		return
	}
	projection := dto.ToCurrentNotificationResponse(selected)
	response.JSON(c, http.StatusOK, projection, nil)
}

// List godoc
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var query dto.ListNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing query"))
		return
	}

	notifications, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	now := time.Now().UTC()
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		items = append(items, dto.ToNotificationResponse(n, string(service.Phase(n, now))))
	}

	pagination := models.NewPagination(query.Page, query.PageSize, total)
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a notification
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/notifications/{id} [get]
func (h *NotificationHandler) Get(c *gin.Context) {
	n, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	now := time.Now().UTC()
	response.JSON(c, http.StatusOK, dto.ToNotificationResponse(n, string(service.Phase(n, now))), nil)
}

// Create godoc
// @Summary Create a notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.CreateNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}

	n, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	now := time.Now().UTC()
	response.Created(c, dto.ToNotificationResponse(n, string(service.Phase(n, now))))
}

// Update godoc
// @Summary Update a notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path string true "Notification ID"
// @Param payload body dto.UpdateNotificationRequest true "Notification payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/notifications/{id} [put]
func (h *NotificationHandler) Update(c *gin.Context) {
	var req dto.UpdateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}

	n, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	now := time.Now().UTC()
	response.JSON(c, http.StatusOK, dto.ToNotificationResponse(n, string(service.Phase(n, now))), nil)
}

// Retire godoc
// @Summary Retire a notification
// @Description Soft-deletes the notification; it leaves the rotation but stays queryable
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/notifications/{id} [delete]
func (h *NotificationHandler) Retire(c *gin.Context) {
	if err := h.service.Retire(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
