package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationScoreRepository struct {
	DB *gorm.DB
}

func NewLocationScoreRepository(db *gorm.DB) *LocationScoreRepository {
	return &LocationScoreRepository{
		DB: db,
	}
}

// DistinctLocationScoreIDs returns score-row ids covering at most one row
// per physical location for the activity, best historical score first,
// capped at limit. Two-step on purpose: DISTINCT ON plus eager loading in
// one query forces a much slower plan.
func (r *LocationScoreRepository) DistinctLocationScoreIDs(ctx context.Context, activityName string, limit int) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uuid.UUID
	err := r.DB.WithContext(ctx).Raw(`
		SELECT las.id FROM location_activity_scores las
		WHERE las.id IN (
			SELECT DISTINCT ON (las2.location_id) las2.id
			FROM location_activity_scores las2
			JOIN activities a ON las2.activity_id = a.id
			WHERE LOWER(a.name) = LOWER(?)
			ORDER BY las2.location_id, las2.historical_activity_score DESC NULLS LAST
		)
		ORDER BY las.historical_activity_score DESC NULLS LAST
		LIMIT ?`, activityName, limit).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct location score ids: %w", err)
	}

	return ids, nil
}

func (r *LocationScoreRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.LocationActivityScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var scores []domain.LocationActivityScore
	err := r.DB.WithContext(ctx).
		Preload("Location").
		Preload("Activity").
		Preload("TaxiZone").
		Where("id IN ?", ids).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query location scores by ids: %w", err)
	}

	return scores, nil
}

// SaveAll persists the updated ML columns of already-loaded score rows.
func (r *LocationScoreRepository) SaveAll(ctx context.Context, scores []domain.LocationActivityScore) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(scores) == 0 {
		return nil
	}

	if err := r.DB.WithContext(ctx).Omit("Location", "Activity", "TaxiZone").Save(&scores).Error; err != nil {
		return fmt.Errorf("failed to save location scores: %w", err)
	}

	return nil
}

func (r *LocationScoreRepository) AvailableDates(ctx context.Context, activityName string) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var dates []time.Time
	err := r.DB.WithContext(ctx).
		Model(&domain.LocationActivityScore{}).
		Distinct("event_date").
		Joins("JOIN activities a ON location_activity_scores.activity_id = a.id").
		Where("a.name = ?", activityName).
		Order("event_date ASC").
		Pluck("event_date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query available dates: %w", err)
	}

	return dates, nil
}

func (r *LocationScoreRepository) AvailableTimes(ctx context.Context, activityName string, date time.Time) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var times []time.Time
	err := r.DB.WithContext(ctx).
		Model(&domain.LocationActivityScore{}).
		Distinct("event_time").
		Joins("JOIN activities a ON location_activity_scores.activity_id = a.id").
		Where("a.name = ? AND event_date = ?", activityName, date).
		Order("event_time ASC").
		Pluck("event_time", &times).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query available times: %w", err)
	}

	return times, nil
}

func (r *LocationScoreRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&domain.LocationActivityScore{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count score records: %w", err)
	}

	return count, nil
}

func (r *LocationScoreRepository) CountWithMLPredictions(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&domain.LocationActivityScore{}).
		Where("muse_score IS NOT NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count ml-predicted records: %w", err)
	}

	return count, nil
}

func (r *LocationScoreRepository) CountWithHistoricalData(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&domain.LocationActivityScore{}).
		Where("historical_activity_score IS NOT NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count historical records: %w", err)
	}

	return count, nil
}
