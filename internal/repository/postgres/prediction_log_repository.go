package postgres

import (
	"context"
	"fmt"

	"github.com/dovra-dev/atelier-finder/domain"

	"gorm.io/gorm"
)

type PredictionLogRepository struct {
	DB *gorm.DB
}

func NewPredictionLogRepository(db *gorm.DB) *PredictionLogRepository {
	return &PredictionLogRepository{
		DB: db,
	}
}

// Save appends one audit row. Log entries are never updated.
func (r *PredictionLogRepository) Save(ctx context.Context, entry domain.MLPredictionLog) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to save prediction log: %w", err)
	}

	return nil
}
