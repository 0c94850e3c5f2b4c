package weather

import "github.com/brandongraves08/ecobee-learning/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("weather_invalid_config")
	ErrMissingAPIKey = errors.ErrorCode("weather_missing_api_key")

	// Upstream Errors
	ErrUpstreamUnavailable = errors.ErrorCode("weather_upstream_unavailable")
	ErrRateLimited         = errors.ErrorCode("weather_rate_limited")
	ErrInvalidResponse     = errors.ErrorCode("weather_invalid_response")
)
