package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/sitepulse-io/sitepulse-api/internal/dto"
	"github.com/sitepulse-io/sitepulse-api/internal/models"
	"github.com/sitepulse-io/sitepulse-api/internal/repository"
	appErrors "github.com/sitepulse-io/sitepulse-api/pkg/errors"
)

// NotificationStore abstracts notification persistence.
type NotificationStore interface {
	List(ctx context.Context, filter repository.NotificationFilter) ([]models.Notification, int, error)
	ListActive(ctx context.Context) ([]models.Notification, error)
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	Create(ctx context.Context, n *models.Notification) error
	Update(ctx context.Context, n *models.Notification) error
	SetLifecycle(ctx context.Context, id string, lifecycle models.NotificationLifecycle) error
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

const currentNotificationCacheKey = "notifications:current"

// NotificationService manages scheduled notifications and selects the one
// to display right now.
type NotificationService struct {
	store    NotificationStore
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewNotificationService constructs the service.
func NewNotificationService(store NotificationStore, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *NotificationService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, cache: cache, logger: logger, cacheTTL: cacheTTL}
}

// Current returns the notification to display at the given instant, or nil
// when none is eligible. Among eligible candidates the newest wins: ordering
// is by creation time descending, and only the head is returned. A long
// running campaign can therefore be shadowed entirely by a newer one for as
// long as both are eligible.
func (s *NotificationService) Current(ctx context.Context, now time.Time) (*models.Notification, bool, error) {
	if s.cache.Enabled() {
		var cached models.Notification
		if hit, err := s.cache.Get(ctx, currentNotificationCacheKey, &cached); err == nil && hit {
			// Re-check eligibility so a cached campaign cannot outlive its
			// window within the TTL.
			if IsEligible(&cached, now) {
				return &cached, true, nil
			}
		}
	}

	candidates, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, false, err
	}

	var selected *models.Notification
	for i := range candidates {
		n := &candidates[i]
		if !IsEligible(n, now) {
			continue
		}
		if selected == nil || n.CreatedAt.After(selected.CreatedAt) {
			selected = n
		}
	}
	if selected == nil {
		return nil, false, nil
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, currentNotificationCacheKey, selected, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache current notification", zap.Error(err))
		}
	}
	return selected, false, nil
}

// List returns notifications for the admin view, newest first.
func (s *NotificationService) List(ctx context.Context, query dto.ListNotificationsQuery) ([]models.Notification, int, error) {
	filter := repository.NotificationFilter{Page: query.Page, PageSize: query.PageSize}
	if query.Active != nil {
		lifecycle := models.LifecycleRetired
		if *query.Active {
			lifecycle = models.LifecycleActive
		}
		filter.Lifecycle = &lifecycle
	}
	return s.store.List(ctx, filter)
}

// Get returns a single notification.
func (s *NotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

// Create validates and stores a new notification.
func (s *NotificationService) Create(ctx context.Context, req dto.CreateNotificationRequest) (*models.Notification, error) {
	n, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return n, nil
}

// Update validates and replaces an existing notification.
func (s *NotificationService) Update(ctx context.Context, id string, req dto.UpdateNotificationRequest) (*models.Notification, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	n.ID = existing.ID
	n.CreatedAt = existing.CreatedAt
	if err := s.store.Update(ctx, n); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return n, nil
}

// Retire soft-deletes a notification. The record stays queryable for audit
// history but drops out of the selection rotation immediately.
func (s *NotificationService) Retire(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.SetLifecycle(ctx, id, models.LifecycleRetired); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *NotificationService) fromRequest(req dto.CreateNotificationRequest) (*models.Notification, error) {
	startsOn := req.StartsOn.UTC()
	endsOn := req.EndsOn.UTC()
	if startOfUTCDay(endsOn).Before(startOfUTCDay(startsOn)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ends_on must not precede starts_on")
	}

	windows := make([]models.TimeWindow, 0, len(req.TimeWindows))
	for i, w := range req.TimeWindows {
		if !clockPattern.MatchString(w.Start) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTimeWindow,
				fmt.Sprintf("time_windows[%d].start: %q is not a valid HH:MM clock time", i, w.Start))
		}
		if !clockPattern.MatchString(w.End) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTimeWindow,
				fmt.Sprintf("time_windows[%d].end: %q is not a valid HH:MM clock time", i, w.End))
		}
		if w.End < w.Start {
			return nil, appErrors.Clone(appErrors.ErrInvalidTimeWindow,
				fmt.Sprintf("time_windows[%d]: end %q precedes start %q", i, w.End, w.Start))
		}
		windows = append(windows, models.TimeWindow{Start: w.Start, End: w.End})
	}

	actions := make([]models.NotificationAction, 0, len(req.Actions))
	for _, a := range req.Actions {
		actions = append(actions, models.NotificationAction{
			Label:  a.Label,
			Target: a.Target,
			Kind:   models.ActionKind(a.Kind),
		})
	}

	lifecycle := models.LifecycleActive
	if req.Active != nil && !*req.Active {
		lifecycle = models.LifecycleRetired
	}

	return &models.Notification{
		Title:       req.Title,
		Description: req.Description,
		Badge:       req.Badge,
		ImageURL:    req.ImageURL,
		Lifecycle:   lifecycle,
		StartsOn:    startsOn,
		EndsOn:      endsOn,
		TimeWindows: windows,
		Actions:     actions,
	}, nil
}

func (s *NotificationService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "notifications:*"); err != nil {
		s.logger.Warn("failed to invalidate notification cache", zap.Error(err))
	}
}
