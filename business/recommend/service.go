package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/internal/ml"
	"github.com/dovra-dev/atelier-finder/pkg/zones"

	"github.com/google/uuid"
)

const (
	// universeLimit caps how many score rows are fetched per activity
	// before sampling.
	universeLimit = 500

	// sampleLimit caps the batch handed to the ML predictor.
	sampleLimit = 20

	// maxResults is the length of the ranked response.
	maxResults = 10

	// minSeparationMeters is the distance under which two candidates
	// count as the same physical place.
	minSeparationMeters = 50.0

	creativeWeight = 0.6
	crowdWeight    = 0.4
)

// ---- Repository interfaces ----

type ActivityRepository interface {
	FindAll(ctx context.Context) ([]domain.Activity, error)
	FindByName(ctx context.Context, name string) (domain.Activity, error)
}

type ScoreRepository interface {
	DistinctLocationScoreIDs(ctx context.Context, activityName string, limit int) ([]uuid.UUID, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.LocationActivityScore, error)
	SaveAll(ctx context.Context, scores []domain.LocationActivityScore) error
	AvailableDates(ctx context.Context, activityName string) ([]time.Time, error)
	AvailableTimes(ctx context.Context, activityName string, date time.Time) ([]time.Time, error)
	Count(ctx context.Context) (int64, error)
	CountWithMLPredictions(ctx context.Context) (int64, error)
	CountWithHistoricalData(ctx context.Context) (int64, error)
}

type PredictionLogRepository interface {
	Save(ctx context.Context, entry domain.MLPredictionLog) error
}

type BatchPredictor interface {
	PredictBatch(ctx context.Context, batch []ml.PredictionRequest) ([]ml.PredictionResponse, error)
}

// ---- Usecase / Service ----

type Service struct {
	activityRepo ActivityRepository
	scoreRepo    ScoreRepository
	logRepo      PredictionLogRepository
	predictor    BatchPredictor
	modelVersion string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(
	activityRepo ActivityRepository,
	scoreRepo ScoreRepository,
	logRepo PredictionLogRepository,
	predictor BatchPredictor,
	modelVersion string,
	rng *rand.Rand,
) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Service{
		activityRepo: activityRepo,
		scoreRepo:    scoreRepo,
		logRepo:      logRepo,
		predictor:    predictor,
		modelVersion: modelVersion,
		rng:          rng,
	}
}

// GetLocationRecommendations runs the full pipeline for one request:
// sample candidates, score them in one predictor batch, compose muse
// scores, drop near-duplicate locations, apply the optional zone filter,
// assign crowd levels, and rank. Updated scores and one prediction-log row
// are persisted only after the whole set has been scored and ranked.
func (s *Service) GetLocationRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if _, err := s.activityRepo.FindByName(ctx, req.Activity); err != nil {
		return nil, err
	}

	ids, err := s.scoreRepo.DistinctLocationScoreIDs(ctx, req.Activity, universeLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidate universe: %w", err)
	}

	// Empty universe short-circuits the whole pipeline: no predictor call,
	// no write-back.
	if len(ids) == 0 {
		return s.emptyResponse(req), nil
	}

	sampled := s.sampleIDs(ids)

	scores, err := s.scoreRepo.FindByIDs(ctx, sampled)
	if err != nil {
		return nil, fmt.Errorf("load sampled candidates: %w", err)
	}
	if len(scores) == 0 {
		return s.emptyResponse(req), nil
	}

	batch := buildBatch(scores, req)

	preds, err := s.predictor.PredictBatch(ctx, batch)
	if err != nil {
		return nil, err
	}

	// A short predictor response is valid: only the first min(req, resp)
	// candidates receive scores.
	scored := applyPredictions(scores, preds, time.Now())

	candidates := buildCandidates(scores[:scored])
	candidates = dedupBySeparation(candidates)

	if req.SelectedZone != "" {
		candidates = filterByZone(candidates, req.SelectedZone)
	}

	assignCrowdLevels(candidates)

	locations := rankAndTruncate(candidates)

	if err := s.scoreRepo.SaveAll(ctx, scores[:scored]); err != nil {
		return nil, err
	}

	entry := domain.MLPredictionLog{
		ID:               uuid.New(),
		ModelVersion:     s.modelVersion,
		PredictionType:   "location_recommendation",
		RecordsProcessed: len(scores),
		RecordsUpdated:   scored,
		PredictionDate:   time.Now(),
	}
	if err := s.logRepo.Save(ctx, entry); err != nil {
		return nil, err
	}

	return &domain.RecommendationResponse{
		Locations:         locations,
		Activity:          req.Activity,
		RequestedDateTime: req.DateTime.Format("2006-01-02T15:04:05"),
		TotalResults:      len(locations),
	}, nil
}

func (s *Service) emptyResponse(req domain.RecommendationRequest) *domain.RecommendationResponse {
	return &domain.RecommendationResponse{
		Locations:         []domain.LocationRecommendation{},
		Activity:          req.Activity,
		RequestedDateTime: req.DateTime.Format("2006-01-02T15:04:05"),
		TotalResults:      0,
	}
}

// sampleIDs draws up to sampleLimit ids without replacement. The order of
// the draw carries no meaning downstream.
func (s *Service) sampleIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)

	if len(out) <= sampleLimit {
		return out
	}

	s.mu.Lock()
	s.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	s.mu.Unlock()

	return out[:sampleLimit]
}

func buildBatch(scores []domain.LocationActivityScore, req domain.RecommendationRequest) []ml.PredictionRequest {
	batch := make([]ml.PredictionRequest, 0, len(scores))
	for _, sc := range scores {
		batch = append(batch, ml.PredictionRequest{
			Latitude:     sc.Location.Latitude,
			Longitude:    sc.Location.Longitude,
			Hour:         req.DateTime.Hour(),
			Month:        int(req.DateTime.Month()),
			Day:          req.DateTime.Day(),
			ActivityName: req.Activity,
		})
	}

	return batch
}

// ---- Secondary operations ----

func (s *Service) GetAllActivities(ctx context.Context) ([]domain.Activity, error) {
	return s.activityRepo.FindAll(ctx)
}

func (s *Service) GetAvailableDates(ctx context.Context, activityName string) ([]time.Time, error) {
	return s.scoreRepo.AvailableDates(ctx, activityName)
}

func (s *Service) GetAvailableTimes(ctx context.Context, activityName string, date time.Time) ([]time.Time, error) {
	return s.scoreRepo.AvailableTimes(ctx, activityName, date)
}

func (s *Service) GetAvailableZones(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	return zones.Keys(), nil
}

func (s *Service) GetMLPredictionStats(ctx context.Context) (*domain.MLPredictionStats, error) {
	total, err := s.scoreRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	withML, err := s.scoreRepo.CountWithMLPredictions(ctx)
	if err != nil {
		return nil, err
	}

	withHist, err := s.scoreRepo.CountWithHistoricalData(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.MLPredictionStats{
		TotalRecords:                 total,
		RecordsWithMLPredictions:     withML,
		RecordsWithHistoricalData:    withHist,
		MLCoveragePercentage:         coverage(withML, total),
		HistoricalCoveragePercentage: coverage(withHist, total),
	}, nil
}

func coverage(covered, total int64) float64 {
	if total == 0 {
		return 0
	}

	return math.Round(float64(covered)/float64(total)*10000) / 100
}
