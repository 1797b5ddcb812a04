package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_KnownDigest(t *testing.T) {
	// digest("1" + "22.5" + "C" + "GENESIS_BLOCK")
	want := sha256.Sum256([]byte("122.5CGENESIS_BLOCK"))

	got, err := Compute(1, 22.5, "C", Genesis)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
	assert.Len(t, got, 64)
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(7, -12.25, "C", Genesis)
	require.NoError(t, err)
	b, err := Compute(7, -12.25, "C", Genesis)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompute_EveryFieldChangesDigest(t *testing.T) {
	base, err := Compute(1, 22.5, "C", Genesis)
	require.NoError(t, err)

	tests := []struct {
		name     string
		sensorID int64
		value    float64
		unit     string
		prevHash string
	}{
		{"sensor id", 2, 22.5, "C", Genesis},
		{"value", 1, 22.51, "C", Genesis},
		{"unit", 1, 22.5, "F", Genesis},
		{"prev hash", 1, 22.5, "C", "deadbeef"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Compute(tc.sensorID, tc.value, tc.unit, tc.prevHash)
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestCompute_NonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Compute(1, v, "C", Genesis)
		assert.ErrorIs(t, err, ErrNonFinite)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{22.5, "22.5"},
		{22, "22"},
		{-273.15, "-273.15"},
		{0.1, "0.1"},
		{5000, "5000"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatValue(tc.in))
	}
}
