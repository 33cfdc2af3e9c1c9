package domain

import "errors"

var (
	// ErrActivityNotFound means the requested activity has no reference record.
	ErrActivityNotFound = errors.New("activity not found")

	// ErrPredictorUnavailable means the ML batch call failed entirely
	// (transport error or non-2xx status). The whole request is aborted.
	ErrPredictorUnavailable = errors.New("ml predictor unavailable")
)
