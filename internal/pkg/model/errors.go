package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a measurement id does not exist.
	ErrNotFound = errors.New("measurement not found")

	// ErrSubmission wraps external ledger dispatch failures. It is logged by
	// the submitter and never surfaced to HTTP callers.
	ErrSubmission = errors.New("ledger submission failed")
)

// ValidationError reports a malformed or out-of-range input field. It is
// surfaced to the caller immediately and nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks a creation payload against the ingest rules and fills in
// the default unit.
func (c *CreateMeasurement) Validate() error {
	if c.SensorID <= 0 {
		return &ValidationError{Field: "sensor_id", Reason: "must be greater than 0"}
	}
	if c.Value == nil {
		return &ValidationError{Field: "value", Reason: "is required"}
	}
	if *c.Value < MinValue || *c.Value > MaxValue {
		return &ValidationError{Field: "value", Reason: fmt.Sprintf("must be within [%v, %v]", MinValue, MaxValue)}
	}
	if c.Unit == "" {
		c.Unit = DefaultUnit
	}
	if len(c.Unit) > 10 {
		return &ValidationError{Field: "unit", Reason: "must be at most 10 characters"}
	}
	return nil
}

// Validate checks a partial update payload.
func (u *UpdateMeasurement) Validate() error {
	if u.Value != nil && (*u.Value < MinValue || *u.Value > MaxValue) {
		return &ValidationError{Field: "value", Reason: fmt.Sprintf("must be within [%v, %v]", MinValue, MaxValue)}
	}
	return nil
}
