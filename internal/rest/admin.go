package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/pkg/config"
	"github.com/dovra-dev/atelier-finder/pkg/logger"
	"github.com/dovra-dev/atelier-finder/pkg/utils"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	StatsService interface {
		GetMLPredictionStats(ctx context.Context) (*domain.MLPredictionStats, error)
	}

	AnalyticsService interface {
		PopularCombinations(ctx context.Context, minCount int) ([]domain.RequestAnalytics, error)
	}

	CacheWarmer interface {
		Run(ctx context.Context)
	}

	AdminHandler struct {
		stats     StatsService
		analytics AnalyticsService
		warmer    CacheWarmer
		cfg       config.AdminConfig
		validator *validator.Validate
		timeout   time.Duration
	}

	AdminLoginRequest struct {
		Password string `json:"password" validate:"required"`
	}
)

func NewAdminHandler(stats StatsService, analytics AnalyticsService, warmer CacheWarmer, cfg config.AdminConfig) *AdminHandler {
	return &AdminHandler{
		stats:     stats,
		analytics: analytics,
		warmer:    warmer,
		cfg:       cfg,
		validator: validator.New(),
		timeout:   10 * time.Second,
	}
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if !utils.CheckPassword(req.Password, h.cfg.PasswordHash) {
		logger.Warn("Admin login rejected", "ip", c.RealIP())
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "Invalid credentials"})
	}

	token, err := utils.GenerateJWT("admin", "ADMIN", h.cfg.JWTSecret)
	if err != nil {
		logger.Error("Failed to issue admin token", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "Failed to issue token"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]any{
		"token": token,
	}))
}

// TriggerCacheWarm starts the precompute sweep in the background and
// returns immediately. The sweep throttles itself, so one trigger at a
// time is enough; callers are trusted not to hammer it.
func (h *AdminHandler) TriggerCacheWarm(c echo.Context) error {
	go h.warmer.Run(context.Background())

	logger.Info("Cache warm-up triggered", "by", c.Get("subject"))
	return c.JSON(http.StatusAccepted, fres.Response.StatusOK("Cache warm-up started"))
}

func (h *AdminHandler) GetMLStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.stats.GetMLPredictionStats(ctx)
	if err != nil {
		logger.Error("Failed to compute prediction stats", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}

func (h *AdminHandler) GetAnalytics(c echo.Context) error {
	minCount := 1
	if raw := c.QueryParam("min_count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "min_count must be a positive integer"})
		}
		minCount = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	rows, err := h.analytics.PopularCombinations(ctx, minCount)
	if err != nil {
		logger.Error("Failed to list request analytics", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rows))
}
