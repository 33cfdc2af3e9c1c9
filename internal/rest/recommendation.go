package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/pkg/logger"
	"github.com/dovra-dev/atelier-finder/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendationService interface {
		GetLocationRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResponse, error)
		GetAllActivities(ctx context.Context) ([]domain.Activity, error)
		GetAvailableDates(ctx context.Context, activityName string) ([]time.Time, error)
		GetAvailableTimes(ctx context.Context, activityName string, date time.Time) ([]time.Time, error)
		GetAvailableZones(ctx context.Context) ([]string, error)
	}

	ResponseCache interface {
		Key(activity string, dateTime time.Time, zone string) string
		Get(ctx context.Context, key string) (*domain.RecommendationResponse, error)
		Set(ctx context.Context, key string, resp *domain.RecommendationResponse) error
	}

	RequestTracker interface {
		TrackRequest(ctx context.Context, activityName string, requestedAt time.Time, cacheHit bool, responseTime time.Duration, userAgent string)
	}

	RecommendationHandler struct {
		service   RecommendationService
		cache     ResponseCache
		tracker   RequestTracker
		validator *validator.Validate
		timeout   time.Duration
	}

	RecommendationBody struct {
		Activity     string `json:"activity" validate:"required"`
		DateTime     string `json:"dateTime" validate:"required"`
		SelectedZone string `json:"selectedZone"`
	}
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

func NewRecommendationHandler(service RecommendationService, cache ResponseCache, tracker RequestTracker) *RecommendationHandler {
	return &RecommendationHandler{
		service:   service,
		cache:     cache,
		tracker:   tracker,
		validator: validator.New(),
		timeout:   60 * time.Second,
	}
}

func parseDateTime(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (h *RecommendationHandler) GetRecommendations(c echo.Context) error {
	started := time.Now()
	metrics.RecommendRequests.Inc()

	var body RecommendationBody
	if err := c.Bind(&body); err != nil {
		logger.Warn("Invalid recommendation request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	dateTime, err := parseDateTime(body.DateTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "dateTime must be ISO-8601, e.g. 2025-07-17T15:00:00"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	req := domain.RecommendationRequest{
		Activity:     body.Activity,
		DateTime:     dateTime,
		SelectedZone: body.SelectedZone,
	}

	key := h.cache.Key(req.Activity, req.DateTime, req.SelectedZone)
	if cached, cacheErr := h.cache.Get(ctx, key); cacheErr == nil && cached != nil {
		metrics.RecommendCacheHits.Inc()
		h.track(req, started, true, c.Request().UserAgent())
		return c.JSON(http.StatusOK, fres.Response.StatusOK(cached))
	} else if cacheErr != nil {
		logger.Warn("Recommendation cache read failed", "error", cacheErr)
	}

	resp, err := h.service.GetLocationRecommendations(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrActivityNotFound):
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		case errors.Is(err, domain.ErrPredictorUnavailable):
			logger.Error("Prediction service unavailable", "error", err)
			return c.JSON(http.StatusBadGateway, ResponseError{Message: "Prediction service unavailable"})
		default:
			logger.Error("Failed to build recommendations", "error", err)
			return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
		}
	}

	if err := h.cache.Set(ctx, key, resp); err != nil {
		logger.Warn("Recommendation cache write failed", "error", err)
	}

	h.track(req, started, false, c.Request().UserAgent())
	metrics.RecommendLatency.Observe(time.Since(started).Seconds())

	return c.JSON(http.StatusOK, fres.Response.StatusOK(resp))
}

// track runs in the background so analytics can never delay the response.
func (h *RecommendationHandler) track(req domain.RecommendationRequest, started time.Time, cacheHit bool, userAgent string) {
	elapsed := time.Since(started)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.tracker.TrackRequest(ctx, req.Activity, req.DateTime, cacheHit, elapsed, userAgent)
	}()
}

func (h *RecommendationHandler) GetAllActivities(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	activities, err := h.service.GetAllActivities(ctx)
	if err != nil {
		logger.Error("Failed to list activities", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(activities))
}

func (h *RecommendationHandler) GetAvailableZones(c echo.Context) error {
	zonesOut, err := h.service.GetAvailableZones(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(zonesOut))
}

func (h *RecommendationHandler) GetAvailableDates(c echo.Context) error {
	activity := c.QueryParam("activity")
	if activity == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "activity query parameter is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	dates, err := h.service.GetAvailableDates(ctx, activity)
	if err != nil {
		logger.Error("Failed to list available dates", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format("2006-01-02"))
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(out))
}

func (h *RecommendationHandler) GetAvailableTimes(c echo.Context) error {
	activity := c.QueryParam("activity")
	dateStr := c.QueryParam("date")
	if activity == "" || dateStr == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "activity and date query parameters are required"})
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "date must be formatted as 2006-01-02"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	times, err := h.service.GetAvailableTimes(ctx, activity, date)
	if err != nil {
		logger.Error("Failed to list available times", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.Format("15:04"))
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(out))
}
