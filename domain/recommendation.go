package domain

import (
	"time"

	"github.com/google/uuid"
)

// Crowd levels assigned to ranked recommendations.
const (
	CrowdLevelQuiet    = "Quiet"
	CrowdLevelModerate = "Moderate"
	CrowdLevelBusy     = "Busy"
)

type RecommendationRequest struct {
	Activity     string    `json:"activity" validate:"required"`
	DateTime     time.Time `json:"dateTime" validate:"required"`
	SelectedZone string    `json:"selectedZone,omitempty"`
}

type RecommendationResponse struct {
	Locations         []LocationRecommendation `json:"locations"`
	Activity          string                   `json:"activity"`
	RequestedDateTime string                   `json:"requestedDateTime"`
	TotalResults      int                      `json:"totalResults"`
}

// LocationRecommendation is one ranked result. Immutable once built; the
// muse score is the 60/40 composite of the creative-activity and crowd
// sub-scores.
type LocationRecommendation struct {
	ID                   uuid.UUID       `json:"id"`
	ZoneName             string          `json:"zoneName"`
	Latitude             float64         `json:"latitude"`
	Longitude            float64         `json:"longitude"`
	ActivityScore        *float64        `json:"activityScore"`
	MuseScore            *float64        `json:"museScore"`
	CrowdScore           *float64        `json:"crowdScore"`
	EstimatedCrowdNumber int             `json:"estimatedCrowdNumber"`
	CrowdLevel           string          `json:"crowdLevel,omitempty"`
	ScoreBreakdown       *ScoreBreakdown `json:"scoreBreakdown,omitempty"`
}

type ScoreBreakdown struct {
	ActivityScore *float64 `json:"activityScore"`
	MuseScore     *float64 `json:"museScore"`
	CrowdScore    *float64 `json:"crowdScore"`
	Explanation   string   `json:"explanation"`
}

// MLPredictionStats summarizes how much of the score table has been covered
// by ML predictions versus historical data.
type MLPredictionStats struct {
	TotalRecords                 int64   `json:"totalRecords"`
	RecordsWithMLPredictions     int64   `json:"recordsWithMlPredictions"`
	RecordsWithHistoricalData    int64   `json:"recordsWithHistoricalData"`
	MLCoveragePercentage         float64 `json:"mlCoveragePercentage"`
	HistoricalCoveragePercentage float64 `json:"historicalCoveragePercentage"`
}
