package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestAnalytics aggregates request patterns per (activity, hour, weekday)
// so the precompute job can prioritise popular combinations.
type RequestAnalytics struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityName       string    `gorm:"column:activity_name;not null" json:"activity_name"`
	RequestedHour      int       `gorm:"column:requested_hour;not null" json:"requested_hour"`
	RequestedDayOfWeek int       `gorm:"column:requested_day_of_week;not null" json:"requested_day_of_week"` // 1=Monday, 7=Sunday
	RequestCount       int       `gorm:"column:request_count;not null;default:1" json:"request_count"`
	LastRequested      time.Time `gorm:"column:last_requested;not null" json:"last_requested"`
	CacheHit           bool      `gorm:"column:cache_hit;not null" json:"cache_hit"`
	ResponseTimeMs     int64     `gorm:"column:response_time_ms" json:"response_time_ms"`
	UserAgent          string    `gorm:"column:user_agent" json:"user_agent,omitempty"`
}

func (RequestAnalytics) TableName() string {
	return "request_analytics"
}
