package domain

import (
	"time"

	"github.com/google/uuid"
)

// MLPredictionLog is the audit record of one batch prediction run. Rows are
// append-only: the service creates one per request and never updates it.
type MLPredictionLog struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModelVersion     string    `gorm:"column:model_version;size:50" json:"model_version"`
	PredictionType   string    `gorm:"column:prediction_type;size:50;not null" json:"prediction_type"`
	RecordsProcessed int       `gorm:"column:records_processed;not null" json:"records_processed"`
	RecordsUpdated   int       `gorm:"column:records_updated;not null" json:"records_updated"`
	PredictionDate   time.Time `gorm:"column:prediction_date;not null" json:"prediction_date"`
	ModelAccuracy    *float64  `gorm:"column:model_accuracy" json:"model_accuracy,omitempty"`
	Notes            string    `gorm:"column:notes;type:text" json:"notes,omitempty"`
}

func (MLPredictionLog) TableName() string {
	return "ml_prediction_logs"
}
