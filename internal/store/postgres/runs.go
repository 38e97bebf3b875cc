package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

func (s *Store) CreateRun(ctx context.Context, run *models.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matching_runs (id, trigger, attempt, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, string(run.Trigger), run.Attempt, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return insertError("matching_runs", err)
	}
	return nil
}

func (s *Store) UpdateRun(ctx context.Context, run *models.RunRecord) error {
	var completed sql.NullTime
	if run.CompletedAt != nil {
		completed = sql.NullTime{Time: *run.CompletedAt, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE matching_runs SET
			status = $2,
			embeddings_generated = $3,
			jobs_processed = $4,
			candidates_evaluated = $5,
			matches_found = $6,
			applications_submitted = $7,
			applications_skipped = $8,
			failures = $9,
			errors = $10,
			error_summary = $11,
			completed_at = $12
		WHERE id = $1`,
		run.ID,
		string(run.Status),
		run.EmbeddingsGenerated,
		run.JobsProcessed,
		run.CandidatesEvaluated,
		run.MatchesFound,
		run.ApplicationsSubmitted,
		run.ApplicationsSkipped,
		run.Failures,
		pq.Array(nonNil(run.Errors)),
		run.ErrorSummary,
		completed,
	)
	if err != nil {
		return queryError("update run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewEntityNotFoundError("matching_run", run.ID)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	var (
		run       = models.RunRecord{ID: id}
		trigger   string
		status    string
		completed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT trigger, attempt, status, embeddings_generated, jobs_processed, candidates_evaluated,
			matches_found, applications_submitted, applications_skipped, failures, errors,
			error_summary, started_at, completed_at
		FROM matching_runs
		WHERE id = $1`, id,
	).Scan(
		&trigger, &run.Attempt, &status, &run.EmbeddingsGenerated, &run.JobsProcessed,
		&run.CandidatesEvaluated, &run.MatchesFound, &run.ApplicationsSubmitted,
		&run.ApplicationsSkipped, &run.Failures, pq.Array(&run.Errors), &run.ErrorSummary,
		&run.StartedAt, &completed,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewEntityNotFoundError("matching_run", id)
	}
	if err != nil {
		return nil, queryError("get run", err)
	}
	run.Trigger = models.RunTrigger(trigger)
	run.Status = models.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
