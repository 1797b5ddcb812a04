package model

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMeasurementValidate(t *testing.T) {
	c := CreateMeasurement{SensorID: 1, Value: lo.ToPtr(22.5)}
	require.NoError(t, c.Validate())
	assert.Equal(t, DefaultUnit, c.Unit)

	c = CreateMeasurement{SensorID: 1, Value: lo.ToPtr(22.5), Unit: "K"}
	require.NoError(t, c.Validate())
	assert.Equal(t, "K", c.Unit)

	err := (&CreateMeasurement{SensorID: 0, Value: lo.ToPtr(20.0)}).Validate()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "sensor_id", validationErr.Field)

	err = (&CreateMeasurement{SensorID: 1, Value: lo.ToPtr(-273.16)}).Validate()
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "value", validationErr.Field)

	// boundaries are inclusive
	assert.NoError(t, (&CreateMeasurement{SensorID: 1, Value: lo.ToPtr(-273.15)}).Validate())
	assert.NoError(t, (&CreateMeasurement{SensorID: 1, Value: lo.ToPtr(5000.0)}).Validate())

	err = (&CreateMeasurement{SensorID: 1, Value: lo.ToPtr(20.0), Unit: "kelvin-and-then-some"}).Validate()
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "unit", validationErr.Field)
}

func TestCreateMeasurementValidate_MissingValue(t *testing.T) {
	// a reading without a value must be rejected, not defaulted to 0
	err := (&CreateMeasurement{SensorID: 1}).Validate()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "value", validationErr.Field)
	assert.Equal(t, "is required", validationErr.Reason)
}

func TestMeasurementLocation(t *testing.T) {
	m := Measurement{Metadata: map[string]any{"location": "Kyiv"}}
	assert.Equal(t, "Kyiv", m.Location())

	assert.Equal(t, "Unknown", (&Measurement{}).Location())
	assert.Equal(t, "Unknown", (&Measurement{Metadata: map[string]any{"location": 7}}).Location())
	assert.Equal(t, "Unknown", (&Measurement{Metadata: map[string]any{"site": "a"}}).Location())
}
