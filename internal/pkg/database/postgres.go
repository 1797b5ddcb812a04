package database

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
)

// chainLockKey is the advisory lock id serializing appends to the single
// global chain. Every append transaction takes this lock before reading the
// tail, so two concurrent appends can never claim the same predecessor.
const chainLockKey = 702_441_913

type Database struct {
	pool *pgxpool.Pool
	io.Closer
}

func NewDatabase(pool *pgxpool.Pool) *Database {
	return &Database{
		pool: pool,
	}
}

func (db *Database) Close() error {
	if db.pool == nil {
		return nil
	}
	db.pool.Close()
	return nil
}

// Ping reports whether the underlying pool can reach the database.
func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
