// Package archive writes finished engagement records to Postgres for
// long-term analysis. The archive sits outside the hot path: the API
// keeps working when no database is configured, via NopArchive.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baitline/baitline/pkg/intel"
)

// Turn is one direction of a single exchange. Turns are append-only:
// rows are never updated after insert.
type Turn struct {
	SessionID string
	Turn      int
	Direction string // "inbound" or "outbound"
	Text      string
	State     string
	Composite float64
}

// Archiver persists session intelligence records and per-turn rows.
type Archiver interface {
	Save(ctx context.Context, rec *intel.SessionIntel) error
	SaveTurn(ctx context.Context, turn Turn) error
	Close()
}

// NopArchive satisfies Archiver without persisting anything.
type NopArchive struct{}

// Save discards the record.
func (NopArchive) Save(context.Context, *intel.SessionIntel) error { return nil }

// SaveTurn discards the turn.
func (NopArchive) SaveTurn(context.Context, Turn) error { return nil }

// Close is a no-op.
func (NopArchive) Close() {}

const schema = `
CREATE TABLE IF NOT EXISTS engagements (
    session_id        TEXT PRIMARY KEY,
    scam_detected     BOOLEAN NOT NULL,
    scammer_messages  INTEGER NOT NULL,
    behavior_score    DOUBLE PRECISION NOT NULL,
    jailbreak_blocked INTEGER NOT NULL,
    state             TEXT NOT NULL,
    artifacts         JSONB NOT NULL,
    keywords          TEXT[] NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL,
    archived_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS engagements_scam_idx ON engagements (scam_detected, updated_at);

CREATE TABLE IF NOT EXISTS engagement_turns (
    session_id  TEXT NOT NULL,
    turn        INTEGER NOT NULL,
    direction   TEXT NOT NULL,
    text        TEXT NOT NULL,
    state       TEXT NOT NULL,
    composite   DOUBLE PRECISION NOT NULL,
    archived_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (session_id, turn, direction)
);
`

// PostgresArchive stores engagements in a pgx connection pool.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive connects to dsn and ensures the schema exists.
func NewPostgresArchive(ctx context.Context, dsn string) (*PostgresArchive, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("archive: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: ensure schema: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

// Save upserts the record keyed by session id, so repeated saves over a
// session's lifetime keep the newest snapshot.
func (a *PostgresArchive) Save(ctx context.Context, rec *intel.SessionIntel) error {
	artifacts, err := json.Marshal(rec.Artifacts)
	if err != nil {
		return fmt.Errorf("archive: marshal artifacts: %w", err)
	}

	const q = `
INSERT INTO engagements (
    session_id, scam_detected, scammer_messages, behavior_score,
    jailbreak_blocked, state, artifacts, keywords, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (session_id) DO UPDATE SET
    scam_detected     = EXCLUDED.scam_detected,
    scammer_messages  = EXCLUDED.scammer_messages,
    behavior_score    = EXCLUDED.behavior_score,
    jailbreak_blocked = EXCLUDED.jailbreak_blocked,
    state             = EXCLUDED.state,
    artifacts         = EXCLUDED.artifacts,
    keywords          = EXCLUDED.keywords,
    updated_at        = EXCLUDED.updated_at,
    archived_at       = now()`

	_, err = a.pool.Exec(ctx, q,
		rec.SessionID, rec.ScamDetected, rec.ScammerMessages, rec.BehaviorScore,
		rec.JailbreakBlocked, rec.State, artifacts, rec.Keywords,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive: upsert engagement: %w", err)
	}
	return nil
}

// SaveTurn appends one turn row. A retried request hits the primary key
// and is dropped rather than rewriting history.
func (a *PostgresArchive) SaveTurn(ctx context.Context, turn Turn) error {
	const q = `
INSERT INTO engagement_turns (session_id, turn, direction, text, state, composite)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (session_id, turn, direction) DO NOTHING`

	_, err := a.pool.Exec(ctx, q,
		turn.SessionID, turn.Turn, turn.Direction, turn.Text, turn.State, turn.Composite,
	)
	if err != nil {
		return fmt.Errorf("archive: insert turn: %w", err)
	}
	return nil
}

// Close releases the pool.
func (a *PostgresArchive) Close() { a.pool.Close() }
