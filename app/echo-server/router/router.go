package router

import (
	"github.com/dovra-dev/atelier-finder/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler) {
	reco := api.Group("/recommendations")

	reco.POST("", handler.GetRecommendations)
	reco.GET("/activities", handler.GetAllActivities)
	reco.GET("/zones", handler.GetAvailableZones)
	reco.GET("/dates", handler.GetAvailableDates)
	reco.GET("/times", handler.GetAvailableTimes)
}

func SetupWeatherRoutes(api *echo.Group, handler *rest.WeatherHandler) {
	api.GET("/forecast", handler.GetForecast)
	api.GET("/weather", handler.GetWeatherForDateTime)
}

func SetupHealthRoutes(api *echo.Group, handler *rest.HealthHandler) {
	api.GET("/health", handler.Check)
}

func SetupAdminRoutes(api *echo.Group, handler *rest.AdminHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin")

	admin.POST("/login", handler.Login)

	admin.POST("/cache/warm", handler.TriggerCacheWarm, authRequired, adminOnly)
	admin.GET("/ml/stats", handler.GetMLStats, authRequired, adminOnly)
	admin.GET("/analytics", handler.GetAnalytics, authRequired, adminOnly)
}
