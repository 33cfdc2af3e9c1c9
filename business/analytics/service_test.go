package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"

	"github.com/google/uuid"
)

type fakeRepo struct {
	rows    map[string]*domain.RequestAnalytics
	findErr error
	saveErr error
}

func key(activity string, hour, day int) string {
	return activity + string(rune('0'+hour)) + string(rune('0'+day))
}

func (f *fakeRepo) FindByPattern(_ context.Context, activityName string, hour, dayOfWeek int) (*domain.RequestAnalytics, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.rows[key(activityName, hour, dayOfWeek)], nil
}

func (f *fakeRepo) Save(_ context.Context, row *domain.RequestAnalytics) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[key(row.ActivityName, row.RequestedHour, row.RequestedDayOfWeek)] = row
	return nil
}

func (f *fakeRepo) PopularCombinations(_ context.Context, _ int) ([]domain.RequestAnalytics, error) {
	return nil, nil
}

func TestTrackRequestCreatesRow(t *testing.T) {
	repo := &fakeRepo{rows: map[string]*domain.RequestAnalytics{}}
	svc := NewService(repo)

	// 2025-07-17 is a Thursday (ISO weekday 4).
	at := time.Date(2025, 7, 17, 15, 0, 0, 0, time.UTC)
	svc.TrackRequest(context.Background(), "Street photography", at, false, 120*time.Millisecond, "test-agent")

	row := repo.rows[key("Street photography", 15, 4)]
	if row == nil {
		t.Fatal("analytics row not created")
	}
	if row.RequestCount != 1 {
		t.Fatalf("request count = %d, want 1", row.RequestCount)
	}
	if row.ResponseTimeMs != 120 {
		t.Fatalf("response time = %d, want 120", row.ResponseTimeMs)
	}
}

func TestTrackRequestIncrementsExisting(t *testing.T) {
	existing := &domain.RequestAnalytics{
		ID:                 uuid.New(),
		ActivityName:       "Busking",
		RequestedHour:      9,
		RequestedDayOfWeek: 1,
		RequestCount:       4,
	}
	repo := &fakeRepo{rows: map[string]*domain.RequestAnalytics{
		key("Busking", 9, 1): existing,
	}}
	svc := NewService(repo)

	// 2025-07-14 is a Monday.
	at := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
	svc.TrackRequest(context.Background(), "Busking", at, true, 5*time.Millisecond, "")

	row := repo.rows[key("Busking", 9, 1)]
	if row.RequestCount != 5 {
		t.Fatalf("request count = %d, want 5", row.RequestCount)
	}
	if !row.CacheHit {
		t.Fatal("cache hit flag not recorded")
	}
}

func TestTrackRequestSwallowsErrors(t *testing.T) {
	repo := &fakeRepo{rows: map[string]*domain.RequestAnalytics{}, findErr: errors.New("db down")}
	svc := NewService(repo)

	// Must not panic or propagate.
	svc.TrackRequest(context.Background(), "Busking", time.Now(), false, 0, "")

	repo.findErr = nil
	repo.saveErr = errors.New("db down")
	svc.TrackRequest(context.Background(), "Busking", time.Now(), false, 0, "")
}

func TestIsoWeekdaySunday(t *testing.T) {
	// 2025-07-20 is a Sunday.
	if got := isoWeekday(time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)); got != 7 {
		t.Fatalf("sunday = %d, want 7", got)
	}
}
