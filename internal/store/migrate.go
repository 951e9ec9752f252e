package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables owned by the store. Statements are idempotent so
// migrate can run on every Open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     TIMESTAMP NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_request_events_purpose ON llm_request_events (purpose)`,
	`CREATE TABLE IF NOT EXISTS submission_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     TIMESTAMP NOT NULL,
		attempt_id    TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		lesson_id     INTEGER NOT NULL DEFAULT 0,
		sign          TEXT NOT NULL,
		stage         TEXT NOT NULL DEFAULT '',
		reason        TEXT NOT NULL DEFAULT '',
		score         REAL NOT NULL DEFAULT 0,
		passed        BOOLEAN NOT NULL DEFAULT 0,
		media_url     TEXT NOT NULL DEFAULT '',
		latency_ms    INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submission_events_category ON submission_events (category)`,
	`CREATE TABLE IF NOT EXISTS attempt_events (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence  INTEGER NOT NULL UNIQUE,
		timestamp TIMESTAMP NOT NULL,
		category  TEXT NOT NULL,
		lesson_id INTEGER NOT NULL,
		kind      TEXT NOT NULL,
		action    TEXT NOT NULL,
		score     INTEGER NOT NULL DEFAULT 0,
		passed    BOOLEAN NOT NULL DEFAULT 0
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
