package climate

import "github.com/brandongraves08/ecobee-learning/internal/errors"

const (
	// Tracking Errors
	ErrDuplicateCycleStart = errors.ErrorCode("climate_duplicate_cycle_start")
	ErrReadingOutOfOrder   = errors.ErrorCode("climate_reading_out_of_order")

	// Source Errors
	ErrSourceUnavailable = errors.ErrorCode("climate_source_unavailable")
	ErrEntityNotFound    = errors.ErrorCode("climate_entity_not_found")
	ErrInvalidState      = errors.ErrorCode("climate_invalid_state")
)
