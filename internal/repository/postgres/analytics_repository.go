package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dovra-dev/atelier-finder/domain"

	"gorm.io/gorm"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{
		DB: db,
	}
}

// FindByPattern returns the analytics row for one (activity, hour, weekday)
// combination, or nil when it has never been requested.
func (r *AnalyticsRepository) FindByPattern(ctx context.Context, activityName string, hour, dayOfWeek int) (*domain.RequestAnalytics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row domain.RequestAnalytics
	err := r.DB.WithContext(ctx).
		First(&row, "activity_name = ? AND requested_hour = ? AND requested_day_of_week = ?",
			activityName, hour, dayOfWeek).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query request analytics: %w", err)
	}

	return &row, nil
}

func (r *AnalyticsRepository) Save(ctx context.Context, row *domain.RequestAnalytics) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("failed to save request analytics: %w", err)
	}

	return nil
}

// PopularCombinations lists combinations requested at least minCount times,
// most requested first.
func (r *AnalyticsRepository) PopularCombinations(ctx context.Context, minCount int) ([]domain.RequestAnalytics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.RequestAnalytics
	err := r.DB.WithContext(ctx).
		Where("request_count >= ?", minCount).
		Order("request_count DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query popular combinations: %w", err)
	}

	return rows, nil
}
