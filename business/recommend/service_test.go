package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/internal/ml"

	"github.com/google/uuid"
)

// ---- fakes ----

type fakeActivityRepo struct {
	names []string
}

func (f *fakeActivityRepo) FindAll(_ context.Context) ([]domain.Activity, error) {
	out := make([]domain.Activity, 0, len(f.names))
	for _, n := range f.names {
		out = append(out, domain.Activity{ID: uuid.New(), Name: n})
	}
	return out, nil
}

func (f *fakeActivityRepo) FindByName(_ context.Context, name string) (domain.Activity, error) {
	for _, n := range f.names {
		if strings.EqualFold(n, name) {
			return domain.Activity{ID: uuid.New(), Name: n}, nil
		}
	}
	return domain.Activity{}, fmt.Errorf("%w: %s", domain.ErrActivityNotFound, name)
}

type fakeScoreRepo struct {
	rows    []domain.LocationActivityScore
	saved   [][]domain.LocationActivityScore
	saveErr error
}

func (f *fakeScoreRepo) DistinctLocationScoreIDs(_ context.Context, _ string, limit int) ([]uuid.UUID, error) {
	n := len(f.rows)
	if n > limit {
		n = limit
	}
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, f.rows[i].ID)
	}
	return ids, nil
}

func (f *fakeScoreRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]domain.LocationActivityScore, error) {
	byID := make(map[uuid.UUID]domain.LocationActivityScore, len(f.rows))
	for _, r := range f.rows {
		byID[r.ID] = r
	}
	out := make([]domain.LocationActivityScore, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeScoreRepo) SaveAll(_ context.Context, scores []domain.LocationActivityScore) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	batch := make([]domain.LocationActivityScore, len(scores))
	copy(batch, scores)
	f.saved = append(f.saved, batch)
	return nil
}

func (f *fakeScoreRepo) AvailableDates(_ context.Context, _ string) ([]time.Time, error) {
	return nil, nil
}

func (f *fakeScoreRepo) AvailableTimes(_ context.Context, _ string, _ time.Time) ([]time.Time, error) {
	return nil, nil
}

func (f *fakeScoreRepo) Count(_ context.Context) (int64, error) { return 0, nil }

func (f *fakeScoreRepo) CountWithMLPredictions(_ context.Context) (int64, error) { return 0, nil }

func (f *fakeScoreRepo) CountWithHistoricalData(_ context.Context) (int64, error) { return 0, nil }

type fakeLogRepo struct {
	entries []domain.MLPredictionLog
}

func (f *fakeLogRepo) Save(_ context.Context, entry domain.MLPredictionLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakePredictor struct {
	calls     int
	lastBatch []ml.PredictionRequest
	fn        func(batch []ml.PredictionRequest) ([]ml.PredictionResponse, error)
}

func (f *fakePredictor) PredictBatch(_ context.Context, batch []ml.PredictionRequest) ([]ml.PredictionResponse, error) {
	f.calls++
	f.lastBatch = batch
	return f.fn(batch)
}

// ---- helpers ----

func f64(v float64) *float64 { return &v }

func scoreRow(name string, lat, lon float64) domain.LocationActivityScore {
	return domain.LocationActivityScore{
		ID: uuid.New(),
		Location: domain.Location{
			ID:           uuid.New(),
			LocationName: name,
			Latitude:     lat,
			Longitude:    lon,
		},
	}
}

func uniformPredictions(creative, crowd float64, crowdNum int) func([]ml.PredictionRequest) ([]ml.PredictionResponse, error) {
	return func(batch []ml.PredictionRequest) ([]ml.PredictionResponse, error) {
		out := make([]ml.PredictionResponse, len(batch))
		for i := range out {
			out[i] = ml.PredictionResponse{
				CreativeActivityScore: f64(creative),
				CrowdScore:            f64(crowd),
				EstimatedCrowdNumber:  crowdNum,
			}
		}
		return out, nil
	}
}

func newTestService(rows []domain.LocationActivityScore, fn func([]ml.PredictionRequest) ([]ml.PredictionResponse, error)) (*Service, *fakeScoreRepo, *fakeLogRepo, *fakePredictor) {
	scoreRepo := &fakeScoreRepo{rows: rows}
	logRepo := &fakeLogRepo{}
	predictor := &fakePredictor{fn: fn}
	svc := NewService(
		&fakeActivityRepo{names: []string{"Portrait photography"}},
		scoreRepo,
		logRepo,
		predictor,
		"3.0",
		rand.New(rand.NewSource(1)),
	)
	return svc, scoreRepo, logRepo, predictor
}

func testRequest(zone string) domain.RecommendationRequest {
	return domain.RecommendationRequest{
		Activity:     "Portrait photography",
		DateTime:     time.Date(2025, 7, 17, 15, 0, 0, 0, time.UTC),
		SelectedZone: zone,
	}
}

// ---- tests ----

func TestRecommendationsUnknownActivity(t *testing.T) {
	svc, scoreRepo, logRepo, predictor := newTestService(nil, uniformPredictions(5, 5, 100))

	req := testRequest("")
	req.Activity = "Base jumping"

	_, err := svc.GetLocationRecommendations(context.Background(), req)
	if !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
	if predictor.calls != 0 {
		t.Fatalf("predictor called %d times for unknown activity", predictor.calls)
	}
	if len(scoreRepo.saved) != 0 || len(logRepo.entries) != 0 {
		t.Fatal("unexpected writes for unknown activity")
	}
}

func TestRecommendationsEmptyUniverse(t *testing.T) {
	svc, scoreRepo, logRepo, predictor := newTestService(nil, uniformPredictions(5, 5, 100))

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalResults != 0 || len(resp.Locations) != 0 {
		t.Fatalf("expected empty response, got %d results", resp.TotalResults)
	}
	if predictor.calls != 0 {
		t.Fatal("predictor should not be called for an empty universe")
	}
	if len(scoreRepo.saved) != 0 || len(logRepo.entries) != 0 {
		t.Fatal("no writes expected for an empty universe")
	}
}

func TestRecommendationsMuseComposition(t *testing.T) {
	rows := []domain.LocationActivityScore{
		scoreRow("Washington Square Park", 40.7308, -73.9973),
	}
	svc, scoreRepo, logRepo, _ := newTestService(rows, uniformPredictions(7, 8, 120))

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Locations) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Locations))
	}

	got := resp.Locations[0]
	if got.MuseScore == nil || *got.MuseScore != 0.6*7+0.4*8 {
		t.Fatalf("muse score = %v, want 7.4", got.MuseScore)
	}
	if got.EstimatedCrowdNumber != 120 {
		t.Fatalf("estimated crowd = %d, want 120", got.EstimatedCrowdNumber)
	}

	if len(scoreRepo.saved) != 1 {
		t.Fatalf("expected one write-back batch, got %d", len(scoreRepo.saved))
	}
	savedRow := scoreRepo.saved[0][0]
	if savedRow.MuseScore == nil || *savedRow.MuseScore != 7.4 {
		t.Fatalf("persisted muse score = %v, want 7.4", savedRow.MuseScore)
	}
	if savedRow.MLPredictionDate == nil {
		t.Fatal("persisted row missing prediction date")
	}

	if len(logRepo.entries) != 1 {
		t.Fatalf("expected exactly one prediction log entry, got %d", len(logRepo.entries))
	}
	entry := logRepo.entries[0]
	if entry.RecordsProcessed != 1 || entry.RecordsUpdated != 1 {
		t.Fatalf("log counts = (%d, %d), want (1, 1)", entry.RecordsProcessed, entry.RecordsUpdated)
	}
	if entry.ModelVersion != "3.0" || entry.PredictionType != "location_recommendation" {
		t.Fatalf("unexpected log metadata: %+v", entry)
	}
}

func TestRecommendationsMissingSubScoreExcluded(t *testing.T) {
	rows := []domain.LocationActivityScore{
		scoreRow("Bryant Park", 40.7536, -73.9832),
		scoreRow("Union Square", 40.7359, -73.9911),
	}
	fn := func(batch []ml.PredictionRequest) ([]ml.PredictionResponse, error) {
		return []ml.PredictionResponse{
			{CreativeActivityScore: f64(9), CrowdScore: nil, EstimatedCrowdNumber: 50},
			{CreativeActivityScore: f64(6), CrowdScore: f64(4), EstimatedCrowdNumber: 80},
		}, nil
	}
	svc, scoreRepo, logRepo, _ := newTestService(rows, fn)

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Locations) != 1 {
		t.Fatalf("expected the half-scored row to be excluded, got %d results", len(resp.Locations))
	}
	if resp.Locations[0].ZoneName != "Union Square" {
		t.Fatalf("wrong survivor: %s", resp.Locations[0].ZoneName)
	}

	// Both rows were still touched by the batch, so both are written back.
	if got := logRepo.entries[0].RecordsUpdated; got != 2 {
		t.Fatalf("records updated = %d, want 2", got)
	}
	if scoreRepo.saved[0][0].MuseScore != nil {
		t.Fatal("row without both sub-scores must not get a muse score")
	}
}

func TestRecommendationsPartialPredictorResponse(t *testing.T) {
	rows := []domain.LocationActivityScore{
		scoreRow("Loc A", 40.70, -74.00),
		scoreRow("Loc B", 40.72, -74.00),
		scoreRow("Loc C", 40.74, -74.00),
		scoreRow("Loc D", 40.76, -74.00),
	}
	fn := func(batch []ml.PredictionRequest) ([]ml.PredictionResponse, error) {
		return []ml.PredictionResponse{
			{CreativeActivityScore: f64(5), CrowdScore: f64(5), EstimatedCrowdNumber: 10},
			{CreativeActivityScore: f64(6), CrowdScore: f64(6), EstimatedCrowdNumber: 20},
		}, nil
	}
	svc, scoreRepo, logRepo, _ := newTestService(rows, fn)

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Locations) != 2 {
		t.Fatalf("expected 2 scored results, got %d", len(resp.Locations))
	}

	entry := logRepo.entries[0]
	if entry.RecordsProcessed != 4 || entry.RecordsUpdated != 2 {
		t.Fatalf("log counts = (%d, %d), want (4, 2)", entry.RecordsProcessed, entry.RecordsUpdated)
	}
	if len(scoreRepo.saved[0]) != 2 {
		t.Fatalf("write-back wrote %d rows, want 2", len(scoreRepo.saved[0]))
	}
}

func TestRecommendationsPredictorFailure(t *testing.T) {
	rows := []domain.LocationActivityScore{
		scoreRow("Loc A", 40.70, -74.00),
	}
	fn := func(batch []ml.PredictionRequest) ([]ml.PredictionResponse, error) {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrPredictorUnavailable)
	}
	svc, scoreRepo, logRepo, _ := newTestService(rows, fn)

	_, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if !errors.Is(err, domain.ErrPredictorUnavailable) {
		t.Fatalf("expected ErrPredictorUnavailable, got %v", err)
	}
	if len(scoreRepo.saved) != 0 || len(logRepo.entries) != 0 {
		t.Fatal("no writes may happen when the predictor fails")
	}
}

func TestRecommendationsDedupKeepsHigherScore(t *testing.T) {
	// ~20m apart: same place. The third row is ~2km away and survives.
	rows := []domain.LocationActivityScore{
		scoreRow("High Line North", 40.74800, -74.00480),
		scoreRow("High Line South", 40.74818, -74.00480),
		scoreRow("Madison Square Park", 40.74200, -73.98800),
	}
	fn := func(batch []ml.PredictionRequest) ([]ml.PredictionResponse, error) {
		return []ml.PredictionResponse{
			{CreativeActivityScore: f64(4), CrowdScore: f64(4), EstimatedCrowdNumber: 10},
			{CreativeActivityScore: f64(9), CrowdScore: f64(9), EstimatedCrowdNumber: 20},
			{CreativeActivityScore: f64(7), CrowdScore: f64(7), EstimatedCrowdNumber: 30},
		}, nil
	}
	svc, _, _, _ := newTestService(rows, fn)

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Locations) != 2 {
		t.Fatalf("expected 2 results after dedup, got %d", len(resp.Locations))
	}
	if resp.Locations[0].ZoneName != "High Line South" {
		t.Fatalf("collision must keep the higher score, got %s first", resp.Locations[0].ZoneName)
	}
	for _, loc := range resp.Locations {
		if loc.ZoneName == "High Line North" {
			t.Fatal("lower-scored colliding candidate survived dedup")
		}
	}
}

func TestRecommendationsDedupDistantPairRetained(t *testing.T) {
	// ~100m apart: distinct places, both retained.
	rows := []domain.LocationActivityScore{
		scoreRow("Pier 45", 40.73300, -74.01100),
		scoreRow("Pier 46", 40.73390, -74.01100),
	}
	svc, _, _, _ := newTestService(rows, uniformPredictions(5, 5, 40))

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Locations) != 2 {
		t.Fatalf("expected both distant candidates retained, got %d", len(resp.Locations))
	}
}

func TestRecommendationsZoneFilter(t *testing.T) {
	rows := []domain.LocationActivityScore{
		scoreRow("Midtown East Plaza", 40.7549, -73.9707),
		scoreRow("Harlem Art House", 40.8116, -73.9465),
	}
	svc, _, _, _ := newTestService(rows, uniformPredictions(5, 5, 40))

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest("midtown"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Locations) != 1 {
		t.Fatalf("expected 1 result in midtown, got %d", len(resp.Locations))
	}
	if resp.Locations[0].ZoneName != "Midtown East Plaza" {
		t.Fatalf("wrong zone survivor: %s", resp.Locations[0].ZoneName)
	}
}

func TestRecommendationsUnknownZoneYieldsEmpty(t *testing.T) {
	rows := []domain.LocationActivityScore{
		scoreRow("Midtown East Plaza", 40.7549, -73.9707),
	}
	svc, _, _, _ := newTestService(rows, uniformPredictions(5, 5, 40))

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest("atlantis"))
	if err != nil {
		t.Fatalf("unknown zone must not be an error, got %v", err)
	}
	if len(resp.Locations) != 0 {
		t.Fatalf("expected empty result for unknown zone, got %d", len(resp.Locations))
	}
}

func TestRecommendationsCrowdLevelForcedVariation(t *testing.T) {
	// Three candidates, identical scores, pairwise far apart.
	rows := []domain.LocationActivityScore{
		scoreRow("Loc A", 40.70, -74.00),
		scoreRow("Loc B", 40.75, -74.00),
		scoreRow("Loc C", 40.80, -74.00),
	}
	svc, _, _, _ := newTestService(rows, uniformPredictions(5, 5, 40))

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Locations) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Locations))
	}

	levels := map[string]string{}
	for _, loc := range resp.Locations {
		levels[loc.ZoneName] = loc.CrowdLevel
	}
	if levels["Loc A"] != domain.CrowdLevelBusy ||
		levels["Loc B"] != domain.CrowdLevelModerate ||
		levels["Loc C"] != domain.CrowdLevelQuiet {
		t.Fatalf("forced variation wrong: %v", levels)
	}
}

func TestRecommendationsCrowdLevelTertiles(t *testing.T) {
	rows := []domain.LocationActivityScore{
		scoreRow("Loc A", 40.70, -74.00),
		scoreRow("Loc B", 40.75, -74.00),
		scoreRow("Loc C", 40.80, -74.00),
	}
	fn := func(batch []ml.PredictionRequest) ([]ml.PredictionResponse, error) {
		return []ml.PredictionResponse{
			{CreativeActivityScore: f64(2), CrowdScore: f64(2), EstimatedCrowdNumber: 10},
			{CreativeActivityScore: f64(5), CrowdScore: f64(5), EstimatedCrowdNumber: 20},
			{CreativeActivityScore: f64(9), CrowdScore: f64(9), EstimatedCrowdNumber: 30},
		}, nil
	}
	svc, _, _, _ := newTestService(rows, fn)

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	levels := map[string]string{}
	for _, loc := range resp.Locations {
		levels[loc.ZoneName] = loc.CrowdLevel
	}
	if levels["Loc C"] != domain.CrowdLevelBusy {
		t.Fatalf("top scorer level = %s, want Busy", levels["Loc C"])
	}
	if levels["Loc A"] != domain.CrowdLevelQuiet {
		t.Fatalf("bottom scorer level = %s, want Quiet", levels["Loc A"])
	}
	if levels["Loc B"] != domain.CrowdLevelModerate {
		t.Fatalf("middle scorer level = %s, want Moderate", levels["Loc B"])
	}
}

func TestRecommendationsRankingAndTruncation(t *testing.T) {
	var rows []domain.LocationActivityScore
	for i := 0; i < 15; i++ {
		rows = append(rows, scoreRow(fmt.Sprintf("Loc %02d", i), 40.60+float64(i)*0.01, -74.00))
	}
	fn := func(batch []ml.PredictionRequest) ([]ml.PredictionResponse, error) {
		out := make([]ml.PredictionResponse, len(batch))
		for i := range out {
			out[i] = ml.PredictionResponse{
				CreativeActivityScore: f64(float64(i)),
				CrowdScore:            f64(float64(i)),
				EstimatedCrowdNumber:  10,
			}
		}
		return out, nil
	}
	svc, _, _, _ := newTestService(rows, fn)

	resp, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Locations) != maxResults {
		t.Fatalf("expected %d results, got %d", maxResults, len(resp.Locations))
	}
	for i := 1; i < len(resp.Locations); i++ {
		if *resp.Locations[i-1].MuseScore < *resp.Locations[i].MuseScore {
			t.Fatalf("results not sorted descending at index %d", i)
		}
	}
	if resp.Locations[0].ZoneName != "Loc 14" {
		t.Fatalf("highest scorer should rank first, got %s", resp.Locations[0].ZoneName)
	}
}

func TestRecommendationsSampleCap(t *testing.T) {
	var rows []domain.LocationActivityScore
	for i := 0; i < 60; i++ {
		rows = append(rows, scoreRow(fmt.Sprintf("Loc %02d", i), 40.50+float64(i)*0.01, -74.00))
	}
	svc, _, logRepo, predictor := newTestService(rows, uniformPredictions(5, 5, 40))

	_, err := svc.GetLocationRecommendations(context.Background(), testRequest(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictor.lastBatch) != sampleLimit {
		t.Fatalf("batch size = %d, want %d", len(predictor.lastBatch), sampleLimit)
	}
	if logRepo.entries[0].RecordsProcessed != sampleLimit {
		t.Fatalf("records processed = %d, want %d", logRepo.entries[0].RecordsProcessed, sampleLimit)
	}

	// Without replacement: no request coordinate repeats.
	seen := map[float64]bool{}
	for _, r := range predictor.lastBatch {
		if seen[r.Latitude] {
			t.Fatalf("duplicate candidate sampled at latitude %f", r.Latitude)
		}
		seen[r.Latitude] = true
	}
}

func TestRecommendationsSamplingDeterministicPerSeed(t *testing.T) {
	var rows []domain.LocationActivityScore
	for i := 0; i < 60; i++ {
		rows = append(rows, scoreRow(fmt.Sprintf("Loc %02d", i), 40.50+float64(i)*0.01, -74.00))
	}

	run := func() []ml.PredictionRequest {
		svc, _, _, predictor := newTestService(rows, uniformPredictions(5, 5, 40))
		if _, err := svc.GetLocationRecommendations(context.Background(), testRequest("")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return predictor.lastBatch
	}

	first := run()
	second := run()
	for i := range first {
		if first[i].Latitude != second[i].Latitude {
			t.Fatalf("same seed produced different samples at index %d", i)
		}
	}
}

func TestRecommendationsBatchRequestFields(t *testing.T) {
	rows := []domain.LocationActivityScore{
		scoreRow("Loc A", 40.70, -74.00),
	}
	svc, _, _, predictor := newTestService(rows, uniformPredictions(5, 5, 40))

	if _, err := svc.GetLocationRecommendations(context.Background(), testRequest("")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := predictor.lastBatch[0]
	if got.Hour != 15 || got.Month != 7 || got.Day != 17 {
		t.Fatalf("time features = (%d, %d, %d), want (15, 7, 17)", got.Hour, got.Month, got.Day)
	}
	if got.ActivityName != "Portrait photography" {
		t.Fatalf("activity name = %s", got.ActivityName)
	}
}

func TestGetAvailableZones(t *testing.T) {
	svc, _, _, _ := newTestService(nil, uniformPredictions(5, 5, 40))

	zonesOut, err := svc.GetAvailableZones(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zonesOut) == 0 {
		t.Fatal("expected registered zones")
	}
	found := false
	for _, z := range zonesOut {
		if z == "midtown" {
			found = true
		}
	}
	if !found {
		t.Fatal("midtown missing from zone list")
	}
}
