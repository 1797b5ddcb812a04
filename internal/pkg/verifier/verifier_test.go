package verifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/chainhash"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

// buildChain links n valid records the way the store does.
func buildChain(t *testing.T, n int) model.Measurements {
	t.Helper()
	chain := make(model.Measurements, 0, n)
	prevHash := chainhash.Genesis
	for i := 0; i < n; i++ {
		value := 20.0 + float64(i)
		dataHash, err := chainhash.Compute(1, value, "C", prevHash)
		require.NoError(t, err)
		chain = append(chain, model.Measurement{
			ID:       int64(i + 1),
			SensorID: 1,
			Value:    value,
			Unit:     "C",
			PrevHash: prevHash,
			DataHash: dataHash,
		})
		prevHash = dataHash
	}
	return chain
}

func TestCheck_EmptyChain(t *testing.T) {
	report := Check(nil)
	assert.Equal(t, StatusSecure, report.Status)
	assert.Equal(t, 0, report.Length)
	assert.Empty(t, report.Errors)
}

func TestCheck_UntouchedChain(t *testing.T) {
	report := Check(buildChain(t, 3))
	assert.Equal(t, StatusSecure, report.Status)
	assert.Equal(t, 3, report.Length)
	assert.Empty(t, report.Errors)
}

func TestCheck_InvalidGenesis(t *testing.T) {
	chain := buildChain(t, 1)
	chain[0].PrevHash = "not-genesis"

	report := Check(chain)
	assert.Equal(t, StatusCorrupted, report.Status)
	// the genesis break also invalidates the record's own hash
	assert.Contains(t, report.Errors, "Block 1: Invalid Genesis Hash")
}

func TestCheck_TamperedValue(t *testing.T) {
	chain := buildChain(t, 3)
	chain[1].Value = 99.9

	report := Check(chain)
	assert.Equal(t, StatusCorrupted, report.Status)
	assert.Equal(t, []string{"Block 2: Data Tampered! Hash mismatch."}, report.Errors)
}

func TestCheck_TamperedUnit(t *testing.T) {
	chain := buildChain(t, 2)
	chain[0].Unit = "F"

	report := Check(chain)
	assert.Equal(t, StatusCorrupted, report.Status)
	assert.Contains(t, report.Errors, "Block 1: Data Tampered! Hash mismatch.")
}

func TestCheck_DeletedMiddleRecord(t *testing.T) {
	chain := buildChain(t, 3)
	chain = append(chain[:1], chain[2])

	report := Check(chain)
	assert.Equal(t, StatusCorrupted, report.Status)
	assert.Equal(t, []string{"Block 3: Broken Link! PrevHash doesn't match Block 1"}, report.Errors)
}

func TestCheck_ReportsAllErrorsInOnePass(t *testing.T) {
	chain := buildChain(t, 4)
	chain[0].PrevHash = "bogus"   // genesis break + self-hash break
	chain[2].Value = -5           // tampered
	chain[3].PrevHash = "deadbee" // broken link + self-hash break

	report := Check(chain)
	assert.Equal(t, StatusCorrupted, report.Status)
	assert.Len(t, report.Errors, 5)
	assert.Contains(t, report.Errors, "Block 1: Invalid Genesis Hash")
	assert.Contains(t, report.Errors, "Block 1: Data Tampered! Hash mismatch.")
	assert.Contains(t, report.Errors, "Block 3: Data Tampered! Hash mismatch.")
	assert.Contains(t, report.Errors, "Block 4: Broken Link! PrevHash doesn't match Block 3")
	assert.Contains(t, report.Errors, "Block 4: Data Tampered! Hash mismatch.")
}

type stubReader struct {
	chain model.Measurements
	err   error
}

func (s *stubReader) ListChain(_ context.Context) (model.Measurements, error) {
	return s.chain, s.err
}

func TestVerify_ReadsFromStore(t *testing.T) {
	v := New(&stubReader{chain: buildChain(t, 2)})

	report, err := v.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSecure, report.Status)
	assert.Equal(t, 2, report.Length)
}

func TestVerify_StoreError(t *testing.T) {
	wantErr := errors.New("connection refused")
	v := New(&stubReader{err: wantErr})

	_, err := v.Verify(context.Background())
	assert.ErrorIs(t, err, wantErr)
}
