package middleware

import (
	"errors"
	"net/http"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/pkg/logger"
	jsonres "github.com/dovra-dev/atelier-finder/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler maps errors that escape a handler to the JSON envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	label := "INTERNAL_SERVER_ERROR"
	message := "Internal server error"

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		label = http.StatusText(code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	case errors.Is(err, domain.ErrActivityNotFound):
		code = http.StatusNotFound
		label = "NOT_FOUND"
		message = err.Error()
	case errors.Is(err, domain.ErrPredictorUnavailable):
		code = http.StatusBadGateway
		label = "BAD_GATEWAY"
		message = "Prediction service unavailable"
	}

	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled request error", "path", c.Path(), "error", err)
	}

	if jsonErr := c.JSON(code, jsonres.Error(label, message, nil)); jsonErr != nil {
		logger.Error("Failed to write error response", "error", jsonErr)
	}
}
