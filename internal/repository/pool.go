// Package repository maps the Route aggregate onto three relational
// tables (routes, operations, segments) plus a permissions table, each
// edit committed under one ACID transaction. See SPEC_FULL.md §4.7.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a bounded connection pool against databaseURL. Ten
// connections by default, matching the "bounded, e.g. 10" guidance of
// SPEC_FULL.md §5; grounded on Cabeda-porto-realtime/worker/db.go's
// pgxpool.ParseConfig/NewWithConfig pattern.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// schema is the DDL for the four tables the repository maps onto. The
// operations/segments tables carry an "id"/"mode" column beyond the
// literal names in SPEC_FULL.md §4.7's table, needed to round-trip
// SegmentTemplate/Segment faithfully — see DESIGN.md's repository ledger
// entry for why the distilled table needed this supplement.
const schema = `
CREATE TABLE IF NOT EXISTS routes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	op_cursor INTEGER NOT NULL DEFAULT 0,
	ascent DOUBLE PRECISION NOT NULL DEFAULT 0,
	descent DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_public BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS operations (
	route_id TEXT NOT NULL REFERENCES routes(id),
	index INTEGER NOT NULL,
	id TEXT NOT NULL,
	code TEXT NOT NULL,
	pos INTEGER NOT NULL,
	splice_index INTEGER NOT NULL,
	mode TEXT NOT NULL,
	polyline TEXT NOT NULL,
	PRIMARY KEY (route_id, index)
);

CREATE TABLE IF NOT EXISTS segments (
	route_id TEXT NOT NULL REFERENCES routes(id),
	index INTEGER NOT NULL,
	id TEXT NOT NULL,
	mode TEXT NOT NULL,
	polyline TEXT NOT NULL,
	PRIMARY KEY (route_id, index)
);

CREATE TABLE IF NOT EXISTS permissions (
	route_id TEXT NOT NULL REFERENCES routes(id),
	user_id TEXT NOT NULL,
	permission_type TEXT NOT NULL,
	PRIMARY KEY (route_id, user_id)
);
`

// Migrate creates the schema if it doesn't already exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Truncate wipes every table's rows, for test/admin use.
func Truncate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE permissions, segments, operations, routes`)
	if err != nil {
		return fmt.Errorf("truncating tables: %w", err)
	}
	return nil
}
