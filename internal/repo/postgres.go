/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/agileflow/engine/internal/config"
	"github.com/agileflow/engine/internal/domain"
)

type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open connects and pings. Persistence is optional, so unlike a hard
// dependency this returns the error instead of exiting.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx2); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool, log: logger}, nil
}

func (d *DB) Close() { d.Pool.Close() }

// Repository persists whole-store snapshots as JSONB rows. The engine state
// is small; latest-row-wins restore keeps the adapter trivial and the store
// remains the source of truth while the process lives.
type Repository struct {
	db  *DB
	log zerolog.Logger
}

func NewRepository(d *DB, logger zerolog.Logger) *Repository {
	return &Repository{db: d, log: logger}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	const q = `
        CREATE TABLE IF NOT EXISTS snapshots(
            id        BIGSERIAL PRIMARY KEY,
            taken_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
            state     JSONB NOT NULL
        )`
	_, err := r.db.Pool.Exec(ctx, q)
	return err
}

func (r *Repository) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := r.db.Pool.Exec(ctx, `INSERT INTO snapshots(taken_at, state) VALUES($1, $2)`, snap.TakenAt, state); err != nil {
		return err
	}
	// keep a short history only
	_, err = r.db.Pool.Exec(ctx, `DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT 20)`)
	return err
}

// LoadSnapshot returns the most recent snapshot, or nil when none exists.
func (r *Repository) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var state []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT state FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap := &domain.Snapshot{}
	if err := json.Unmarshal(state, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
