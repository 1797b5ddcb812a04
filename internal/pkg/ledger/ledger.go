// Package ledger is the client for the external audit ledger. The ledger is
// a write-only witness: we push one signed transaction per measurement and
// never read submitted data back, only the pending count used to allocate
// sequence numbers.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

// ErrSequenceConflict is returned when the gateway rejects our sequence
// number, meaning the cached sequencer state has drifted from ground truth.
var ErrSequenceConflict = errors.New("sequence number conflict")

// Transaction is one measurement submission. Value is fixed-point scaled by
// 100 because the ledger's numeric type has no decimal support.
type Transaction struct {
	Sequence    uint64 `json:"sequence"`
	SensorID    int64  `json:"sensorId"`
	ScaledValue int64  `json:"scaledValue"`
	Location    string `json:"location"`
	RecordedAt  int64  `json:"recordedAt"`
	PublicKey   string `json:"publicKey"`
	Signature   string `json:"signature"`
}

// Receipt acknowledges an accepted transaction.
type Receipt struct {
	TxHash string `json:"txHash"`
}

type Client struct {
	baseURL string
	signer  *Signer
	hc      *http.Client
}

func New(baseURL string, signer *Signer) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

// ScaleValue converts a measurement value to the ledger's integer
// fixed-point representation (x100).
func ScaleValue(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Submit signs and dispatches one measurement. Dispatch is irreversible;
// callers must treat any error after this point as "possibly submitted".
func (c *Client) Submit(ctx context.Context, sequence uint64, m *model.Measurement) (*Receipt, error) {
	tx := Transaction{
		Sequence:    sequence,
		SensorID:    m.SensorID,
		ScaledValue: ScaleValue(m.Value),
		Location:    m.Location(),
		RecordedAt:  m.RecordedAt.Unix(),
		PublicKey:   c.signer.PublicKey(),
	}

	signature, err := c.signer.Sign(tx.signingBytes())
	if err != nil {
		return nil, fmt.Errorf("%w: sign transaction: %v", model.ErrSubmission, err)
	}
	tx.Signature = signature

	body, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal transaction: %v", model.ErrSubmission, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSubmission, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSubmission, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusConflict:
		return nil, fmt.Errorf("%w: %w", model.ErrSubmission, ErrSequenceConflict)
	case res.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: gateway returned %d: %s", model.ErrSubmission, res.StatusCode, msg)
	}

	var receipt Receipt
	if err := json.NewDecoder(res.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("%w: decode receipt: %v", model.ErrSubmission, err)
	}
	return &receipt, nil
}

// PendingSequence returns how many transactions the gateway already holds
// for our account, which is the next free sequence number.
func (c *Client) PendingSequence(ctx context.Context) (uint64, error) {
	url := c.baseURL + "/accounts/" + c.signer.PublicKey() + "/pending"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("gateway returned %d", res.StatusCode)
	}

	var out struct {
		Pending uint64 `json:"pending"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode pending count: %w", err)
	}
	return out.Pending, nil
}

// signingBytes is the canonical byte encoding covered by the signature. The
// signature field itself is excluded.
func (tx *Transaction) signingBytes() []byte {
	return []byte(strconv.FormatUint(tx.Sequence, 10) + "|" +
		strconv.FormatInt(tx.SensorID, 10) + "|" +
		strconv.FormatInt(tx.ScaledValue, 10) + "|" +
		tx.Location + "|" +
		strconv.FormatInt(tx.RecordedAt, 10) + "|" +
		tx.PublicKey)
}
