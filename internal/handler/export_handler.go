package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitepulse-io/sitepulse-api/internal/service"
	appErrors "github.com/sitepulse-io/sitepulse-api/pkg/errors"
	"github.com/sitepulse-io/sitepulse-api/pkg/response"
)

// ExportHandler streams visitor reports as file downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Visitors godoc
// @Summary Export visitor statistics
// @Description Downloads the visitor report as CSV or PDF
// @Tags Dashboard
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /dashboard/visitors/export [get]
func (h *ExportHandler) Visitors(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	switch format {
	case string(service.FormatCSV), string(service.FormatPDF):
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	result, err := h.service.VisitorReport(c.Request.Context(), service.ExportFormat(format), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(200, result.ContentType, result.Data)
}
