package weather

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/pkg/config"
	"github.com/dovra-dev/atelier-finder/pkg/logger"

	"github.com/codeGROOVE-dev/retry"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	cacheTTL    = time.Hour
	defaultTemp = 20.0
)

type CacheRepository interface {
	FindValidByDateTime(ctx context.Context, dateTime, now time.Time) (*domain.WeatherCache, error)
	Save(ctx context.Context, entry *domain.WeatherCache) error
}

// Service fetches the 96-hour hourly forecast for Manhattan. Forecast data
// is display-only and never feeds the recommendation pipeline, so every
// failure degrades to a default answer instead of an error.
type Service struct {
	baseURL    string
	apiKey     string
	latitude   float64
	longitude  float64
	httpClient *http.Client
	cacheRepo  CacheRepository
	now        func() time.Time
}

func NewService(cfg config.WeatherConfig, cacheRepo CacheRepository) *Service {
	return &Service{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		latitude:   cfg.Latitude,
		longitude:  cfg.Longitude,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheRepo:  cacheRepo,
		now:        time.Now,
	}
}

// GetWeatherForDateTime returns the forecast hour closest to dateTime,
// consulting the database cache first.
func (s *Service) GetWeatherForDateTime(ctx context.Context, dateTime time.Time) (*domain.WeatherData, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if cached, err := s.cacheRepo.FindValidByDateTime(ctx, dateTime, s.now()); err == nil && cached != nil {
		return &domain.WeatherData{
			DateTime:          cached.ForecastDateTime,
			Temperature:       cached.Temperature,
			Condition:         cached.WeatherCondition,
			Description:       cached.WeatherDescription,
			FormattedDateTime: formatDateTime(cached.ForecastDateTime),
		}, nil
	}

	forecast, err := s.fetchForecast(ctx)
	if err != nil {
		logger.Warn("weather fetch failed, serving default data", "error", err)
		return s.defaultData(dateTime), nil
	}

	hour, ok := closestHour(forecast.Hourly, dateTime)
	if !ok {
		return s.defaultData(dateTime), nil
	}

	data := &domain.WeatherData{
		DateTime:          time.Unix(hour.Dt, 0).UTC(),
		Temperature:       hour.TempInfo.Temp,
		Condition:         hour.Condition(),
		FormattedDateTime: formatDateTime(time.Unix(hour.Dt, 0).UTC()),
	}
	if len(hour.Weather) > 0 {
		data.Description = hour.Weather[0].Description
	}

	entry := &domain.WeatherCache{
		ID:                 uuid.New(),
		ForecastDateTime:   data.DateTime,
		Temperature:        data.Temperature,
		WeatherCondition:   data.Condition,
		WeatherDescription: data.Description,
		ExpiresAt:          s.now().Add(cacheTTL),
	}
	if err := s.cacheRepo.Save(ctx, entry); err != nil {
		logger.Warn("weather cache write failed", "error", err)
	}

	return data, nil
}

// GetForecast returns the full 96-hour forecast for display.
func (s *Service) GetForecast(ctx context.Context) ([]domain.WeatherData, error) {
	forecast, err := s.fetchForecast(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.WeatherData, 0, len(forecast.Hourly))
	for _, h := range forecast.Hourly {
		dt := time.Unix(h.Dt, 0).UTC()
		data := domain.WeatherData{
			DateTime:          dt,
			Temperature:       h.TempInfo.Temp,
			Condition:         h.Condition(),
			FormattedDateTime: formatDateTime(dt),
		}
		if len(h.Weather) > 0 {
			data.Description = h.Weather[0].Description
		}
		out = append(out, data)
	}

	return out, nil
}

func (s *Service) fetchForecast(ctx context.Context) (*domain.ForecastResponse, error) {
	reqURL := fmt.Sprintf("%s?lat=%s&lon=%s&appid=%s&units=metric&cnt=96",
		s.baseURL,
		url.QueryEscape(fmt.Sprintf("%f", s.latitude)),
		url.QueryEscape(fmt.Sprintf("%f", s.longitude)),
		url.QueryEscape(s.apiKey),
	)

	var body []byte
	err := retry.Do(
		func() error {
			req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if reqErr != nil {
				return reqErr
			}

			resp, doErr := s.httpClient.Do(req)
			if doErr != nil {
				return doErr
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				raw, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw))
			}

			var readErr error
			body, readErr = io.ReadAll(resp.Body)
			return readErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying weather fetch", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch hourly forecast: %w", err)
	}

	var forecast domain.ForecastResponse
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("decode hourly forecast: %w", err)
	}

	return &forecast, nil
}

func (s *Service) defaultData(dateTime time.Time) *domain.WeatherData {
	return &domain.WeatherData{
		DateTime:          dateTime,
		Temperature:       defaultTemp,
		Condition:         "Unknown",
		Description:       "weather data unavailable",
		FormattedDateTime: formatDateTime(dateTime),
	}
}

func closestHour(hours []domain.HourlyForecast, target time.Time) (domain.HourlyForecast, bool) {
	if len(hours) == 0 {
		return domain.HourlyForecast{}, false
	}

	best := hours[0]
	bestDiff := math.Abs(time.Unix(hours[0].Dt, 0).Sub(target).Hours())
	for _, h := range hours[1:] {
		diff := math.Abs(time.Unix(h.Dt, 0).Sub(target).Hours())
		if diff < bestDiff {
			best = h
			bestDiff = diff
		}
	}

	return best, true
}

func formatDateTime(t time.Time) string {
	return t.Format("Mon, Jan 2 at 3:04 PM")
}
