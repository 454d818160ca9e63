package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

func exportAnalytics() *AnalyticsService {
	reader := &fakeVisitReader{
		total:    321,
		since:    map[time.Time]int{},
		browsers: []models.BreakdownRow{{Label: "Chrome", Count: 200}, {Label: "Firefox", Count: 50}},
		devices:  []models.BreakdownRow{{Label: "Desktop", Count: 250}},
	}
	return NewAnalyticsService(reader, nil, time.Minute, 10, nil)
}

func TestVisitorReportCSV(t *testing.T) {
	svc := NewExportService(exportAnalytics(), true)
	now := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

	result, err := svc.VisitorReport(context.Background(), FormatCSV, now)
	require.NoError(t, err)
	assert.Equal(t, "visitor-report-2025-06-18.csv", result.FileName)
	assert.Equal(t, "text/csv", result.ContentType)

	body := string(result.Data)
	assert.True(t, strings.HasPrefix(body, "Metric,Value\n"))
	assert.Contains(t, body, "Total visitors,321")
	assert.Contains(t, body, "Browser: Chrome,200")
	assert.Contains(t, body, "Device: Desktop,250")
}

func TestVisitorReportPDF(t *testing.T) {
	svc := NewExportService(exportAnalytics(), true)
	now := time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

	result, err := svc.VisitorReport(context.Background(), FormatPDF, now)
	require.NoError(t, err)
	assert.Equal(t, "visitor-report-2025-06-18.pdf", result.FileName)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}

func TestVisitorReportUnsupportedFormat(t *testing.T) {
	svc := NewExportService(exportAnalytics(), true)

	_, err := svc.VisitorReport(context.Background(), ExportFormat("xlsx"), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx")
}

func TestVisitorReportDisabled(t *testing.T) {
	svc := NewExportService(exportAnalytics(), false)

	_, err := svc.VisitorReport(context.Background(), FormatCSV, time.Now())
	require.Error(t, err)
}
