package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitepulse-io/sitepulse-api/internal/dto"
	"github.com/sitepulse-io/sitepulse-api/internal/service"
	"github.com/sitepulse-io/sitepulse-api/pkg/response"
)

// TrackingHandler serves the public visit beacon. It always answers 201: a
// malformed or dropped beacon must never surface as an error on the site.
type TrackingHandler struct {
	tracking     *service.TrackingService
	sessions     *service.SessionService
	cookieSecure bool
}

// NewTrackingHandler constructs the handler.
func NewTrackingHandler(tracking *service.TrackingService, sessions *service.SessionService, cookieSecure bool) *TrackingHandler {
	return &TrackingHandler{tracking: tracking, sessions: sessions, cookieSecure: cookieSecure}
}

// Track godoc
// @Summary Record a page visit
// @Description Records a visit beacon and issues the visitor cookie when absent
// @Tags Tracking
// @Accept json
// @Produce json
// @Param payload body dto.TrackRequest true "Visit payload"
// @Success 201 {object} response.Envelope
// @Router /track [post]
func (h *TrackingHandler) Track(c *gin.Context) {
	var req dto.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Still acknowledge; the beacon contract is fire-and-forget.
		response.JSON(c, http.StatusCreated, gin.H{"recorded": false}, nil)
		return
	}

	presented, _ := c.Cookie(h.sessions.CookieName())
	token, issued := h.sessions.EnsureToken(presented)
	if issued {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.sessions.CookieName(), token, int(h.sessions.CookieTTL().Seconds()), "/", "", h.cookieSecure, true)
	}

	h.tracking.Record(service.Visit{
		SessionID: token,
		Page:      req.Page,
		Referrer:  req.Referrer,
		UserAgent: c.GetHeader("User-Agent"),
		Country:   optionalString(req.Country),
		City:      optionalString(req.City),
		Region:    optionalString(req.Region),
	})

	response.JSON(c, http.StatusCreated, gin.H{"recorded": true}, nil)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
