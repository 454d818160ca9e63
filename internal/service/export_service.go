package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
	appErrors "github.com/sitepulse-io/sitepulse-api/pkg/errors"
	"github.com/sitepulse-io/sitepulse-api/pkg/export"
)

// ExportFormat enumerates supported visitor report formats.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered report ready to stream to the client.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders visitor statistics as downloadable reports.
type ExportService struct {
	analytics *AnalyticsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	enabled   bool
}

// NewExportService constructs the service.
func NewExportService(analytics *AnalyticsService, enabled bool) *ExportService {
	return &ExportService{
		analytics: analytics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		enabled:   enabled,
	}
}

// VisitorReport aggregates the current statistics and renders them in the
// requested format.
func (s *ExportService) VisitorReport(ctx context.Context, format ExportFormat, now time.Time) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	stats, _, err := s.analytics.Overview(ctx, now)
	if err != nil {
		return nil, err
	}
	dataset := visitorDataset(stats)
	stamp := now.UTC().Format("2006-01-02")

	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("visitor-report-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, "Visitor Report")
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("visitor-report-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func visitorDataset(stats *models.VisitorStats) export.Dataset {
	headers := []string{"Metric", "Value"}
	rows := []map[string]string{
		{"Metric": "Total visitors", "Value": strconv.Itoa(stats.TotalVisitors)},
		{"Metric": "Visitors today", "Value": strconv.Itoa(stats.TodaysVisitors)},
		{"Metric": "Visitors this week", "Value": strconv.Itoa(stats.WeekVisitors)},
		{"Metric": "Visitors this month", "Value": strconv.Itoa(stats.MonthVisitors)},
	}
	for _, row := range stats.BrowserBreakdown {
		rows = append(rows, map[string]string{
			"Metric": "Browser: " + row.Label,
			"Value":  strconv.Itoa(row.Count),
		})
	}
	for _, row := range stats.DeviceBreakdown {
		rows = append(rows, map[string]string{
			"Metric": "Device: " + row.Label,
			"Value":  strconv.Itoa(row.Count),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
