package domain

import (
	"time"

	"github.com/google/uuid"
)

// LocationActivityScore is one historical (location, activity, datetime) row.
// The ML columns are nullable: they stay empty until a prediction batch has
// scored the row, and a composed muse score is only written when both
// sub-scores came back.
type LocationActivityScore struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID int       `gorm:"column:event_id;not null" json:"event_id"`

	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;not null" json:"-"`
	Location   Location  `gorm:"foreignKey:LocationID" json:"location"`

	ActivityID uuid.UUID `gorm:"column:activity_id;type:uuid;not null" json:"-"`
	Activity   Activity  `gorm:"foreignKey:ActivityID" json:"activity"`

	TaxiZoneID uuid.UUID `gorm:"column:taxi_zone_id;type:uuid;not null" json:"-"`
	TaxiZone   TaxiZone  `gorm:"foreignKey:TaxiZoneID" json:"taxi_zone"`

	EventDate time.Time `gorm:"column:event_date;type:date;not null" json:"event_date"`
	EventTime time.Time `gorm:"column:event_time;type:time;not null" json:"event_time"`

	HistoricalTaxiZoneCrowdScore *float64 `gorm:"column:historical_taxi_zone_crowd_score" json:"historical_taxi_zone_crowd_score"`
	HistoricalActivityScore      *float64 `gorm:"column:historical_activity_score" json:"historical_activity_score"`

	CulturalActivityScore *float64   `gorm:"column:cultural_activity_score" json:"cultural_activity_score"`
	CrowdScore            *float64   `gorm:"column:crowd_score" json:"crowd_score"`
	MuseScore             *float64   `gorm:"column:muse_score" json:"muse_score"`
	EstimatedCrowdNumber  *int       `gorm:"column:estimated_crowd_number" json:"estimated_crowd_number"`
	MLPredictionDate      *time.Time `gorm:"column:ml_prediction_date" json:"ml_prediction_date"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (LocationActivityScore) TableName() string {
	return "location_activity_scores"
}
