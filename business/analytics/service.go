package analytics

import (
	"context"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/pkg/logger"

	"github.com/google/uuid"
)

type Repository interface {
	FindByPattern(ctx context.Context, activityName string, hour, dayOfWeek int) (*domain.RequestAnalytics, error)
	Save(ctx context.Context, row *domain.RequestAnalytics) error
	PopularCombinations(ctx context.Context, minCount int) ([]domain.RequestAnalytics, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// TrackRequest upserts the analytics row for one request pattern. Tracking
// is best effort: failures are logged and swallowed so they can never fail
// the request that triggered them.
func (s *Service) TrackRequest(ctx context.Context, activityName string, requestedAt time.Time, cacheHit bool, responseTime time.Duration, userAgent string) {
	hour := requestedAt.Hour()
	dayOfWeek := isoWeekday(requestedAt)

	row, err := s.repo.FindByPattern(ctx, activityName, hour, dayOfWeek)
	if err != nil {
		logger.Warn("analytics lookup failed", "activity", activityName, "error", err)
		return
	}

	if row == nil {
		row = &domain.RequestAnalytics{
			ID:                 uuid.New(),
			ActivityName:       activityName,
			RequestedHour:      hour,
			RequestedDayOfWeek: dayOfWeek,
			RequestCount:       0,
		}
	}

	row.RequestCount++
	row.LastRequested = s.now()
	row.CacheHit = cacheHit
	row.ResponseTimeMs = responseTime.Milliseconds()
	row.UserAgent = userAgent

	if err := s.repo.Save(ctx, row); err != nil {
		logger.Warn("analytics write failed", "activity", activityName, "error", err)
	}
}

// PopularCombinations lists request patterns seen at least minCount times.
func (s *Service) PopularCombinations(ctx context.Context, minCount int) ([]domain.RequestAnalytics, error) {
	return s.repo.PopularCombinations(ctx, minCount)
}

// isoWeekday maps time.Weekday to ISO numbering, 1=Monday through 7=Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
