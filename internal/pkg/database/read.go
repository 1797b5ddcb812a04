package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

const selectColumns = "id, sensor_id, value, unit, metadata, recorded_at, prev_hash, data_hash"

// List returns measurements ordered by recording time descending, narrowed
// by the given filter.
func (db *Database) List(ctx context.Context, filter model.ListFilter) (model.Measurements, error) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.SensorID != nil {
		args = append(args, *filter.SensorID)
		conditions = append(conditions, "sensor_id = $"+strconv.Itoa(len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, "recorded_at >= $"+strconv.Itoa(len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conditions = append(conditions, "recorded_at <= $"+strconv.Itoa(len(args)))
	}
	if filter.Location != nil {
		args = append(args, *filter.Location)
		conditions = append(conditions, "metadata->>'location' = $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + selectColumns + " FROM measurements"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = model.DefaultListLimit
	}
	args = append(args, limit)
	query += " ORDER BY recorded_at DESC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Skip)
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	return scanMeasurements(rows)
}

// Get fetches a single measurement by id.
func (db *Database) Get(ctx context.Context, id int64) (*model.Measurement, error) {
	rows, err := db.pool.Query(ctx, "SELECT "+selectColumns+" FROM measurements WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get measurement: %w", err)
	}
	defer rows.Close()

	return scanOne(rows)
}

// ListChain returns every measurement in creation order (id ascending), the
// order the verifier walks.
func (db *Database) ListChain(ctx context.Context) (model.Measurements, error) {
	rows, err := db.pool.Query(ctx, "SELECT "+selectColumns+" FROM measurements ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list chain: %w", err)
	}
	defer rows.Close()

	return scanMeasurements(rows)
}

func scanOne(rows pgx.Rows) (*model.Measurement, error) {
	measurements, err := scanMeasurements(rows)
	if err != nil {
		return nil, err
	}
	if len(measurements) == 0 {
		return nil, model.ErrNotFound
	}
	return &measurements[0], nil
}

func scanMeasurements(rows pgx.Rows) (model.Measurements, error) {
	var measurements model.Measurements
	for rows.Next() {
		var (
			m        model.Measurement
			metadata []byte
		)
		if err := rows.Scan(&m.ID, &m.SensorID, &m.Value, &m.Unit, &metadata, &m.RecordedAt, &m.PrevHash, &m.DataHash); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		measurements = append(measurements, m)
	}

	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return measurements, nil
		}
		return nil, err
	}

	return measurements, nil
}
