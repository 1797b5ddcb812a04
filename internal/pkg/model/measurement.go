package model

import (
	"time"
)

// Measurement is one sensor reading stored in the ledger. PrevHash and
// DataHash are assigned at append time and never change afterwards; Update
// deliberately leaves them alone (see the verifier for the consequences).
type Measurement struct {
	ID         int64          `json:"id"`
	SensorID   int64          `json:"sensorId"`
	Value      float64        `json:"value"`
	Unit       string         `json:"unit"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	RecordedAt time.Time      `json:"recordedAt"`
	PrevHash   string         `json:"prevHash"`
	DataHash   string         `json:"dataHash"`
}

type Measurements []Measurement

// DefaultUnit is used when a reading arrives without a unit.
const DefaultUnit = "C"

// Physically plausible temperature bounds for incoming values.
const (
	MinValue = -273.15
	MaxValue = 5000
)

// CreateMeasurement is the payload for appending a new reading. Value is a
// pointer so that an absent field can be told apart from a literal 0 and
// rejected instead of silently entering the chain.
type CreateMeasurement struct {
	SensorID int64          `json:"sensorId"`
	Value    *float64       `json:"value"`
	Unit     string         `json:"unit"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpdateMeasurement is a partial update; nil fields are left untouched.
// Chain fields are never updatable.
type UpdateMeasurement struct {
	Value    *float64       `json:"value"`
	Metadata map[string]any `json:"metadata"`
}

// ListFilter narrows a measurement listing. Zero values mean "no filter",
// except Limit which defaults to DefaultListLimit when unset.
type ListFilter struct {
	Skip      int
	Limit     int
	SensorID  *int64
	StartDate *time.Time
	EndDate   *time.Time
	Location  *string
}

const DefaultListLimit = 100

// Location returns the location carried in the metadata map, or "Unknown".
// The external ledger requires a location string on every submission.
func (m *Measurement) Location() string {
	if m.Metadata != nil {
		if loc, ok := m.Metadata["location"].(string); ok && loc != "" {
			return loc
		}
	}
	return "Unknown"
}
