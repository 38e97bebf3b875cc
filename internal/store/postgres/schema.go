package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements returns the DDL in execution order. dimension sizes the vector column.
func schemaStatements(dimension int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id                   TEXT PRIMARY KEY,
			full_name            TEXT NOT NULL DEFAULT '',
			email                TEXT NOT NULL DEFAULT '',
			skills               TEXT[] NOT NULL DEFAULT '{}',
			work_history         JSONB NOT NULL DEFAULT '[]',
			education            JSONB NOT NULL DEFAULT '[]',
			interests            TEXT[] NOT NULL DEFAULT '{}',
			preferred_categories TEXT[] NOT NULL DEFAULT '{}',
			preferred_job_types  TEXT[] NOT NULL DEFAULT '{}',
			location             TEXT NOT NULL DEFAULT '',
			summary              TEXT NOT NULL DEFAULT '',
			content_hash         TEXT NOT NULL DEFAULT '',
			embedded_hash        TEXT NOT NULL DEFAULT '',
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS job_postings (
			id            TEXT PRIMARY KEY,
			recruiter_id  TEXT NOT NULL DEFAULT '',
			title         TEXT NOT NULL DEFAULT '',
			company       TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			job_type      TEXT NOT NULL DEFAULT '',
			requirements  JSONB NOT NULL DEFAULT '[]',
			categories    TEXT[] NOT NULL DEFAULT '{}',
			description   TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed')),
			content_hash  TEXT NOT NULL DEFAULT '',
			embedded_hash TEXT NOT NULL DEFAULT '',
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS job_postings_status_idx ON job_postings (status, updated_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
			entity_type      TEXT NOT NULL CHECK (entity_type IN ('candidate', 'job_posting')),
			entity_id        TEXT NOT NULL,
			embedding        vector(%d) NOT NULL,
			skills           TEXT[] NOT NULL DEFAULT '{}',
			location         TEXT NOT NULL DEFAULT '',
			experience_years INTEGER NOT NULL DEFAULT 0,
			content_hash     TEXT NOT NULL DEFAULT '',
			model            TEXT NOT NULL DEFAULT '',
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (entity_type, entity_id)
		)`, dimension),
		`CREATE INDEX IF NOT EXISTS embeddings_cosine_idx ON embeddings USING hnsw (embedding vector_cosine_ops)`,
		`CREATE TABLE IF NOT EXISTS candidate_job_evaluations (
			candidate_id         TEXT NOT NULL,
			job_posting_id       TEXT NOT NULL,
			evaluated_at         TIMESTAMPTZ NOT NULL,
			match_found          BOOLEAN NOT NULL,
			match_score          DOUBLE PRECISION,
			embedding_similarity DOUBLE PRECISION,
			CONSTRAINT candidate_job_evaluations_pair_key UNIQUE (candidate_id, job_posting_id)
		)`,
		`CREATE INDEX IF NOT EXISTS candidate_job_evaluations_job_idx ON candidate_job_evaluations (job_posting_id)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id             TEXT PRIMARY KEY,
			candidate_id   TEXT NOT NULL,
			job_posting_id TEXT NOT NULL,
			auto_applied   BOOLEAN NOT NULL DEFAULT FALSE,
			match_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
			match_reasons  TEXT[] NOT NULL DEFAULT '{}',
			status         TEXT NOT NULL DEFAULT 'submitted',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT applications_pair_key UNIQUE (candidate_id, job_posting_id)
		)`,
		`CREATE INDEX IF NOT EXISTS applications_candidate_created_idx ON applications (candidate_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS auto_apply_preferences (
			candidate_id             TEXT PRIMARY KEY,
			enabled                  BOOLEAN NOT NULL DEFAULT TRUE,
			min_score_threshold      INTEGER NOT NULL DEFAULT 70 CHECK (min_score_threshold BETWEEN 0 AND 100),
			max_applications_per_day INTEGER NOT NULL DEFAULT 5 CHECK (max_applications_per_day BETWEEN 1 AND 100),
			updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS matching_runs (
			id                     TEXT PRIMARY KEY,
			trigger                TEXT NOT NULL,
			attempt                INTEGER NOT NULL DEFAULT 1,
			status                 TEXT NOT NULL CHECK (status IN ('in_progress', 'completed', 'failed')),
			embeddings_generated   INTEGER NOT NULL DEFAULT 0,
			jobs_processed         INTEGER NOT NULL DEFAULT 0,
			candidates_evaluated   INTEGER NOT NULL DEFAULT 0,
			matches_found          INTEGER NOT NULL DEFAULT 0,
			applications_submitted INTEGER NOT NULL DEFAULT 0,
			applications_skipped   INTEGER NOT NULL DEFAULT 0,
			failures               INTEGER NOT NULL DEFAULT 0,
			errors                 TEXT[] NOT NULL DEFAULT '{}',
			error_summary          TEXT NOT NULL DEFAULT '',
			started_at             TIMESTAMPTZ NOT NULL,
			completed_at           TIMESTAMPTZ
		)`,
	}
}

// Migrate creates the schema if it does not exist. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB, dimension int) error {
	if dimension < 1 {
		return fmt.Errorf("migrate: embedding dimension must be positive, got %d", dimension)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin: %w", err)
	}
	for i, stmt := range schemaStatements(dimension) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate: statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}
