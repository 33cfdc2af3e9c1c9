package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"

	"gorm.io/gorm"
)

type WeatherCacheRepository struct {
	DB *gorm.DB
}

func NewWeatherCacheRepository(db *gorm.DB) *WeatherCacheRepository {
	return &WeatherCacheRepository{
		DB: db,
	}
}

// FindValidByDateTime returns the cached forecast for the hour, skipping
// expired rows. A nil result means cache miss.
func (r *WeatherCacheRepository) FindValidByDateTime(ctx context.Context, dateTime, now time.Time) (*domain.WeatherCache, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row domain.WeatherCache
	err := r.DB.WithContext(ctx).
		First(&row, "forecast_datetime = ? AND expires_at > ?", dateTime, now).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query weather cache: %w", err)
	}

	return &row, nil
}

func (r *WeatherCacheRepository) Save(ctx context.Context, row *domain.WeatherCache) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("failed to save weather cache: %w", err)
	}

	return nil
}
