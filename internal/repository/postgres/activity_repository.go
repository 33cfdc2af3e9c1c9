package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dovra-dev/atelier-finder/domain"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{
		DB: db,
	}
}

func (r *ActivityRepository) FindAll(ctx context.Context) ([]domain.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var activities []domain.Activity
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}

	return activities, nil
}

func (r *ActivityRepository) FindByName(ctx context.Context, name string) (domain.Activity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Activity{}, fmt.Errorf("context error: %w", err)
	}

	var activity domain.Activity
	err := r.DB.WithContext(ctx).First(&activity, "LOWER(name) = LOWER(?)", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Activity{}, fmt.Errorf("%w: %s", domain.ErrActivityNotFound, name)
		}
		return domain.Activity{}, fmt.Errorf("failed to query activity: %w", err)
	}

	return activity, nil
}
