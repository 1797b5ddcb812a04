package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/chainhash"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

// Append links a new measurement to the chain tail and persists it in one
// transaction. The advisory lock spans "read tail, compute hash, insert";
// without it two concurrent appends could both read the same tail and claim
// the same predecessor.
func (db *Database) Append(ctx context.Context, c model.CreateMeasurement) (*model.Measurement, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", chainLockKey); err != nil {
		return nil, fmt.Errorf("acquire chain lock: %w", err)
	}

	prevHash := chainhash.Genesis
	var tailHash string
	err = tx.QueryRow(ctx, "SELECT data_hash FROM measurements ORDER BY id DESC LIMIT 1").Scan(&tailHash)
	switch {
	case err == nil:
		prevHash = tailHash
	case errors.Is(err, pgx.ErrNoRows):
		// empty chain, genesis record
	default:
		return nil, fmt.Errorf("read chain tail: %w", err)
	}

	value := lo.FromPtr(c.Value)
	dataHash, err := chainhash.Compute(c.SensorID, value, c.Unit, prevHash)
	if err != nil {
		return nil, err
	}

	metadata, err := marshalMetadata(c.Metadata)
	if err != nil {
		return nil, err
	}

	m := &model.Measurement{
		SensorID: c.SensorID,
		Value:    value,
		Unit:     c.Unit,
		Metadata: c.Metadata,
		PrevHash: prevHash,
		DataHash: dataHash,
	}
	const insertSQL = `
	INSERT INTO measurements (sensor_id, value, unit, metadata, prev_hash, data_hash)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, recorded_at;
	`
	if err := tx.QueryRow(ctx, insertSQL, c.SensorID, value, c.Unit, metadata, prevHash, dataHash).
		Scan(&m.ID, &m.RecordedAt); err != nil {
		return nil, fmt.Errorf("insert measurement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append tx: %w", err)
	}
	return m, nil
}

// Update changes value and/or metadata of an existing measurement. Chain
// fields are left untouched, so an updated record will no longer hash to its
// stored data_hash; the verifier reports that as tampering.
func (db *Database) Update(ctx context.Context, id int64, u model.UpdateMeasurement) (*model.Measurement, error) {
	metadata, err := marshalMetadata(u.Metadata)
	if err != nil {
		return nil, err
	}

	const updateSQL = `
	UPDATE measurements
	SET value = COALESCE($2, value), metadata = COALESCE($3, metadata)
	WHERE id = $1
	RETURNING id, sensor_id, value, unit, metadata, recorded_at, prev_hash, data_hash;
	`
	rows, err := db.pool.Query(ctx, updateSQL, id, u.Value, metadata)
	if err != nil {
		return nil, fmt.Errorf("update measurement: %w", err)
	}
	defer rows.Close()

	m, err := scanOne(rows)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a measurement. The neighbouring chain links are not
// rewritten, so deleting a middle record leaves a detectable break.
func (db *Database) Delete(ctx context.Context, id int64) error {
	tag, err := db.pool.Exec(ctx, "DELETE FROM measurements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}
