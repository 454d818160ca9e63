package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
	"github.com/sitepulse-io/sitepulse-api/internal/useragent"
	"github.com/sitepulse-io/sitepulse-api/pkg/config"
	"github.com/sitepulse-io/sitepulse-api/pkg/jobs"
)

// VisitWriter persists visit events.
type VisitWriter interface {
	Insert(ctx context.Context, event *models.VisitEvent) error
}

// Visit captures a single page view as reported by the public tracking
// endpoint, before classification.
type Visit struct {
	SessionID string
	Page      string
	Referrer  string
	UserAgent string
	Country   *string
	City      *string
	Region    *string
}

// TrackingService ingests visit events. Recording is fire-and-forget: the
// request path only classifies and enqueues, and every downstream failure
// (full queue, database outage) is absorbed so tracking can never break a
// page load.
type TrackingService struct {
	repo    VisitWriter
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewTrackingService constructs the service and its ingest queue. Call Start
// before recording and Stop on shutdown.
func NewTrackingService(repo VisitWriter, metrics *MetricsService, cfg config.TrackingConfig, logger *zap.Logger) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TrackingService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		enabled: cfg.Enabled,
	}
	s.queue = jobs.NewQueue("visit-ingest", s.handleVisit, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.QueueBuffer,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the ingest workers.
func (s *TrackingService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the ingest workers.
func (s *TrackingService) Stop() {
	s.queue.Stop()
}

// Record classifies the visit and hands it to the ingest queue. It never
// returns an error; a dropped visit is counted and logged, nothing more.
func (s *TrackingService) Record(visit Visit) {
	if !s.enabled {
		return
	}

	classification := useragent.Classify(visit.UserAgent)
	event := &models.VisitEvent{
		SessionID:    visit.SessionID,
		OccurredAt:   time.Now().UTC(),
		Page:         visit.Page,
		Referrer:     visit.Referrer,
		UserAgentRaw: visit.UserAgent,
		Browser:      classification.Browser,
		DeviceClass:  classification.DeviceClass,
		OS:           classification.OS,
		Country:      visit.Country,
		City:         visit.City,
		Region:       visit.Region,
	}

	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "visit.record",
		Payload: event,
	}
	if !s.queue.TryEnqueue(job) {
		s.metrics.RecordVisitDropped()
		s.logger.Warn("visit dropped, ingest queue unavailable",
			zap.String("page", visit.Page),
			zap.String("session_id", visit.SessionID))
		return
	}
	s.metrics.RecordVisitIngested()
}

func (s *TrackingService) handleVisit(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(*models.VisitEvent)
	if !ok {
		// Nothing to retry; a malformed payload can only come from a
		// programming error.
		s.logger.Error("visit job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}
