package contracts

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels for errors.Is matching
var (
	ErrMissingIndex         = errors.New("missing index")
	ErrMalformedSeries      = errors.New("malformed series")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MissingIndexError is returned when a requested index is not in the dataset
type MissingIndexError struct {
	Index string
}

func (e *MissingIndexError) Error() string {
	return fmt.Sprintf("index %q not found", e.Index)
}

func (e *MissingIndexError) Is(target error) bool {
	return target == ErrMissingIndex
}

// MalformedSeriesError is returned for duplicate or out-of-order dates
type MalformedSeriesError struct {
	Index  string
	Date   time.Time
	Reason string
}

func (e *MalformedSeriesError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("malformed series %q: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed series %q at %s: %s", e.Index, e.Date.Format("2006-01-02"), e.Reason)
}

func (e *MalformedSeriesError) Is(target error) bool {
	return target == ErrMalformedSeries
}

// InvalidConfigurationError is returned when engine options fail validation
type InvalidConfigurationError struct {
	Field   string
	Message string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

func (e *InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}
