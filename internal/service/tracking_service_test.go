package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
	"github.com/sitepulse-io/sitepulse-api/internal/useragent"
	"github.com/sitepulse-io/sitepulse-api/pkg/config"
)

type capturingVisitWriter struct {
	mu     sync.Mutex
	events []*models.VisitEvent
	err    error
	done   chan struct{}
}

func newCapturingVisitWriter(expected int) *capturingVisitWriter {
	return &capturingVisitWriter{done: make(chan struct{}, expected)}
}

func (w *capturingVisitWriter) Insert(_ context.Context, event *models.VisitEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, event)
	w.done <- struct{}{}
	return nil
}

func (w *capturingVisitWriter) wait(t *testing.T) *models.VisitEvent {
	t.Helper()
	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for visit insert")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	require.NotEmpty(t, w.events)
	return w.events[len(w.events)-1]
}

func trackingConfig() config.TrackingConfig {
	return config.TrackingConfig{Enabled: true, Workers: 1, QueueBuffer: 8, MaxRetries: 1}
}

func TestRecordClassifiesAndPersists(t *testing.T) {
	writer := newCapturingVisitWriter(1)
	svc := NewTrackingService(writer, nil, trackingConfig(), zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Record(Visit{
		SessionID: "abc123",
		Page:      "/pricing",
		Referrer:  "https://news.example.com",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	})

	event := writer.wait(t)
	assert.Equal(t, "abc123", event.SessionID)
	assert.Equal(t, "/pricing", event.Page)
	assert.Equal(t, useragent.BrowserChrome, event.Browser)
	assert.Equal(t, useragent.DeviceDesktop, event.DeviceClass)
	assert.Equal(t, useragent.OSWindows, event.OS)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestRecordNeverPanicsWhenQueueStopped(t *testing.T) {
	writer := newCapturingVisitWriter(1)
	svc := NewTrackingService(writer, nil, trackingConfig(), zap.NewNop())

	// Queue never started: the visit is silently dropped.
	assert.NotPanics(t, func() {
		svc.Record(Visit{SessionID: "abc", Page: "/", UserAgent: "ua"})
	})

	writer.mu.Lock()
	defer writer.mu.Unlock()
	assert.Empty(t, writer.events)
}

func TestRecordDisabledIsNoop(t *testing.T) {
	writer := newCapturingVisitWriter(1)
	cfg := trackingConfig()
	cfg.Enabled = false
	svc := NewTrackingService(writer, nil, cfg, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Record(Visit{SessionID: "abc", Page: "/", UserAgent: "ua"})

	writer.mu.Lock()
	defer writer.mu.Unlock()
	assert.Empty(t, writer.events)
}

func TestRecordUnknownUserAgent(t *testing.T) {
	writer := newCapturingVisitWriter(1)
	svc := NewTrackingService(writer, nil, trackingConfig(), zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Record(Visit{SessionID: "abc123", Page: "/", UserAgent: ""})

	event := writer.wait(t)
	assert.Equal(t, useragent.Unknown, event.Browser)
	assert.Equal(t, useragent.DeviceDesktop, event.DeviceClass)
	assert.Equal(t, useragent.Unknown, event.OS)
}
