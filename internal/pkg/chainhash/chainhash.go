package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
)

// Genesis is the prev_hash sentinel carried by the first record in the chain.
const Genesis = "GENESIS_BLOCK"

var ErrNonFinite = errors.New("value must be a finite number")

// Compute returns the hex sha256 link hash binding a record to its content
// and its predecessor. The digest covers the canonical textual concatenation
// of (sensorID, value, unit, prevHash) in that order; any drift in the
// numeric rendering breaks verification, so FormatValue is the only place
// values are turned into text.
func Compute(sensorID int64, value float64, unit, prevHash string) (string, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", ErrNonFinite
	}
	data := strconv.FormatInt(sensorID, 10) + FormatValue(value) + unit + prevHash
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:]), nil
}

// FormatValue renders a measurement value in its canonical form: the
// shortest decimal string that round-trips, without an exponent.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
