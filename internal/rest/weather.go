package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	WeatherService interface {
		GetWeatherForDateTime(ctx context.Context, dateTime time.Time) (*domain.WeatherData, error)
		GetForecast(ctx context.Context) ([]domain.WeatherData, error)
	}

	WeatherHandler struct {
		service WeatherService
		timeout time.Duration
	}
)

func NewWeatherHandler(service WeatherService) *WeatherHandler {
	return &WeatherHandler{
		service: service,
		timeout: 15 * time.Second,
	}
}

func (h *WeatherHandler) GetForecast(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	forecast, err := h.service.GetForecast(ctx)
	if err != nil {
		logger.Error("Failed to fetch forecast", "error", err)
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Message: "Forecast unavailable"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(forecast))
}

func (h *WeatherHandler) GetWeatherForDateTime(c echo.Context) error {
	raw := c.QueryParam("datetime")
	if raw == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "datetime query parameter is required"})
	}

	dateTime, err := parseDateTime(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "datetime must be ISO-8601, e.g. 2025-07-17T15:00:00"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	data, err := h.service.GetWeatherForDateTime(ctx, dateTime)
	if err != nil {
		logger.Error("Failed to fetch weather", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(data))
}
