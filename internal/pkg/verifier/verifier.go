package verifier

import (
	"context"
	"fmt"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/chainhash"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

type Status string

const (
	StatusSecure    Status = "SECURE"
	StatusCorrupted Status = "CORRUPTED"
)

// Report is the outcome of one full chain walk. Errors holds every finding
// of the pass, not just the first; Length is only meaningful when the chain
// is secure.
type Report struct {
	Status Status   `json:"status"`
	Length int      `json:"length,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

type chainReader interface {
	ListChain(ctx context.Context) (model.Measurements, error)
}

type Verifier struct {
	db chainReader
}

func New(db chainReader) *Verifier {
	return &Verifier{db: db}
}

// Verify walks all stored records in creation order and checks each link and
// each record's own hash. It is read-only and may run concurrently with
// appends; an in-flight append not yet visible to the read is simply not
// part of this walk.
func (v *Verifier) Verify(ctx context.Context) (*Report, error) {
	chain, err := v.db.ListChain(ctx)
	if err != nil {
		return nil, err
	}
	return Check(chain), nil
}

// Check inspects an already loaded chain. Split out so tests and the store
// integration suite can verify in-memory sequences directly.
func Check(chain model.Measurements) *Report {
	var errs []string

	for i, block := range chain {
		if i == 0 {
			if block.PrevHash != chainhash.Genesis {
				errs = append(errs, fmt.Sprintf("Block %d: Invalid Genesis Hash", block.ID))
			}
		} else if block.PrevHash != chain[i-1].DataHash {
			errs = append(errs, fmt.Sprintf("Block %d: Broken Link! PrevHash doesn't match Block %d", block.ID, chain[i-1].ID))
		}

		recalculated, err := chainhash.Compute(block.SensorID, block.Value, block.Unit, block.PrevHash)
		if err != nil || recalculated != block.DataHash {
			errs = append(errs, fmt.Sprintf("Block %d: Data Tampered! Hash mismatch.", block.ID))
		}
	}

	if len(errs) > 0 {
		return &Report{Status: StatusCorrupted, Errors: errs}
	}
	return &Report{Status: StatusSecure, Length: len(chain)}
}
