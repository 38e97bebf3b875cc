package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

func (s *Store) ApplicationExists(ctx context.Context, candidateID, jobPostingID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM applications
			WHERE candidate_id = $1 AND job_posting_id = $2
		)`, candidateID, jobPostingID).Scan(&exists)
	if err != nil {
		return false, queryError("application exists", err)
	}
	return exists, nil
}

// CountApplicationsSince counts from stored timestamps on every call.
func (s *Store) CountApplicationsSince(ctx context.Context, candidateID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications
		WHERE candidate_id = $1 AND created_at >= $2`, candidateID, since).Scan(&n)
	if err != nil {
		return 0, queryError("count applications", err)
	}
	return n, nil
}

// CreateApplication maps a violation of applications_pair_key to ErrDuplicateApplication.
func (s *Store) CreateApplication(ctx context.Context, app *models.ApplicationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, candidate_id, job_posting_id, auto_applied, match_score, match_reasons, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		app.ID,
		app.CandidateID,
		app.JobPostingID,
		app.AutoApplied,
		app.MatchScore,
		pq.Array(nonNil(app.MatchReasons)),
		app.Status,
		app.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateApplicationError(app.CandidateID, app.JobPostingID)
		}
		return insertError("applications", err)
	}
	return nil
}

// CreateApplicationWithinLimit serializes writers per candidate with a transaction-scoped
// advisory lock, then inserts only while the candidate's count since the cutoff is below
// maxPerDay. Zero rows inserted means the cap is met.
func (s *Store) CreateApplicationWithinLimit(ctx context.Context, app *models.ApplicationRecord, since time.Time, maxPerDay int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return insertError("applications", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, app.CandidateID); err != nil {
		return queryError("lock candidate applications", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO applications (
			id, candidate_id, job_posting_id, auto_applied, match_score, match_reasons, status, created_at
		)
		SELECT $1::text, $2::text, $3::text, $4::boolean, $5::double precision, $6::text[], $7::text, $8::timestamptz
		WHERE (
			SELECT COUNT(*) FROM applications
			WHERE candidate_id = $2::text AND created_at >= $9::timestamptz
		) < $10::int`,
		app.ID,
		app.CandidateID,
		app.JobPostingID,
		app.AutoApplied,
		app.MatchScore,
		pq.Array(nonNil(app.MatchReasons)),
		app.Status,
		app.CreatedAt,
		since,
		maxPerDay,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateApplicationError(app.CandidateID, app.JobPostingID)
		}
		return insertError("applications", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return insertError("applications", err)
	}
	if n == 0 {
		return apperrors.NewDailyLimitReachedError(app.CandidateID, maxPerDay)
	}

	if err := tx.Commit(); err != nil {
		return insertError("applications", err)
	}
	return nil
}

func (s *Store) ListApplications(ctx context.Context, candidateID string) ([]*models.ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate_id, job_posting_id, auto_applied, match_score, match_reasons, status, created_at
		FROM applications
		WHERE candidate_id = $1
		ORDER BY created_at`, candidateID)
	if err != nil {
		return nil, queryError("list applications", err)
	}
	defer rows.Close()

	var out []*models.ApplicationRecord
	for rows.Next() {
		var a models.ApplicationRecord
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.JobPostingID, &a.AutoApplied, &a.MatchScore, pq.Array(&a.MatchReasons), &a.Status, &a.CreatedAt); err != nil {
			return nil, queryError("scan application", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list applications", err)
	}
	return out, nil
}
