package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sitepulse-io/sitepulse-api/internal/models"
)

// VisitReader exposes the aggregation queries over the visit log.
type VisitReader interface {
	TotalVisitors(ctx context.Context) (int, error)
	VisitorsSince(ctx context.Context, since time.Time) (int, error)
	BrowserBreakdown(ctx context.Context) ([]models.BreakdownRow, error)
	DeviceBreakdown(ctx context.Context) ([]models.BreakdownRow, error)
	Recent(ctx context.Context, limit int) ([]models.VisitEvent, error)
}

// AnalyticsService aggregates the visit log into dashboard statistics on
// demand. Reads never mutate the log, so repeated calls with the same
// reference time and an unchanged log yield identical snapshots.
type AnalyticsService struct {
	repo        VisitReader
	cache       *CacheService
	logger      *zap.Logger
	cacheTTL    time.Duration
	recentLimit int
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(repo VisitReader, cache *CacheService, cacheTTL time.Duration, recentLimit int, logger *zap.Logger) *AnalyticsService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if recentLimit <= 0 {
		recentLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, logger: logger, cacheTTL: cacheTTL, recentLimit: recentLimit}
}

// Overview computes the full visitor snapshot for the given reference time.
// Windows are anchored to now: today is the current UTC calendar day, the
// week is a rolling 168 hours, and the month runs from the first of the
// current UTC month. The boolean reports whether the snapshot was served
// from cache.
func (s *AnalyticsService) Overview(ctx context.Context, now time.Time) (*models.VisitorStats, bool, error) {
	cacheKey := overviewCacheKey(now)
	if s.cache.Enabled() {
		var cached models.VisitorStats
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	stats, err := s.compute(ctx, now)
	if err != nil {
		return nil, false, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache visitor stats", zap.Error(err))
		}
	}
	return stats, false, nil
}

// InvalidateCache drops cached snapshots. Exposed for admin tooling; the
// short TTL usually makes explicit invalidation unnecessary.
func (s *AnalyticsService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, "analytics:*")
}

// overviewCacheKey keys snapshots on the truncated minute of the reference
// time. Two requests in the same minute share a snapshot; any coarser key
// would pin the rolling windows to the first request's anchor for the whole
// key period.
func overviewCacheKey(now time.Time) string {
	return fmt.Sprintf("analytics:overview:%s", now.UTC().Truncate(time.Minute).Format("2006-01-02T15:04"))
}

func (s *AnalyticsService) compute(ctx context.Context, now time.Time) (*models.VisitorStats, error) {
	total, err := s.repo.TotalVisitors(ctx)
	if err != nil {
		return nil, err
	}
	today, err := s.repo.VisitorsSince(ctx, startOfUTCDay(now))
	if err != nil {
		return nil, err
	}
	week, err := s.repo.VisitorsSince(ctx, now.UTC().Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	month, err := s.repo.VisitorsSince(ctx, startOfUTCMonth(now))
	if err != nil {
		return nil, err
	}
	browsers, err := s.repo.BrowserBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := s.repo.DeviceBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.Recent(ctx, s.recentLimit)
	if err != nil {
		return nil, err
	}

	return &models.VisitorStats{
		TotalVisitors:    total,
		TodaysVisitors:   today,
		WeekVisitors:     week,
		MonthVisitors:    month,
		BrowserBreakdown: browsers,
		DeviceBreakdown:  devices,
		RecentActivity:   recent,
		GeneratedAt:      now.UTC(),
	}, nil
}
