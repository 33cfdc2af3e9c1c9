package domain

import (
	"time"

	"github.com/google/uuid"
)

type WeatherCache struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ForecastDateTime   time.Time `gorm:"column:forecast_datetime;not null;index" json:"forecast_datetime"`
	Temperature        float64   `gorm:"column:temperature" json:"temperature"`
	WeatherCondition   string    `gorm:"column:weather_condition" json:"weather_condition"`
	WeatherDescription string    `gorm:"column:weather_description" json:"weather_description"`
	ExpiresAt          time.Time `gorm:"column:expires_at;not null" json:"-"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (WeatherCache) TableName() string {
	return "weather_cache"
}

// WeatherData is served for visualization only; it never influences the
// recommendation pipeline.
type WeatherData struct {
	DateTime          time.Time `json:"dateTime"`
	Temperature       float64   `json:"temperature"`
	Condition         string    `json:"condition"`
	Description       string    `json:"description"`
	FormattedDateTime string    `json:"formattedDateTime"`
}

// ForecastResponse maps the hourly forecast payload of the upstream weather
// provider. Unknown fields are ignored.
type ForecastResponse struct {
	Hourly []HourlyForecast `json:"list"`
}

type HourlyForecast struct {
	Dt       int64             `json:"dt"` // epoch seconds
	TempInfo ForecastTempInfo  `json:"main"`
	Weather  []ForecastWeather `json:"weather"`
}

type ForecastTempInfo struct {
	Temp float64 `json:"temp"`
}

type ForecastWeather struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Condition returns the summary condition of the hour, "Unknown" when the
// provider sent no weather entries.
func (h HourlyForecast) Condition() string {
	if len(h.Weather) == 0 {
		return "Unknown"
	}
	return h.Weather[0].Main
}
