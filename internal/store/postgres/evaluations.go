package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"automatch-workers/internal/models"
)

// UpsertEvaluation relies on candidate_job_evaluations_pair_key, so concurrent runs that both
// saw a pair as unevaluated still leave one row.
func (s *Store) UpsertEvaluation(ctx context.Context, rec *models.EvaluationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO candidate_job_evaluations (
			candidate_id, job_posting_id, evaluated_at, match_found, match_score, embedding_similarity
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (candidate_id, job_posting_id) DO UPDATE SET
			evaluated_at = EXCLUDED.evaluated_at,
			match_found = EXCLUDED.match_found,
			match_score = EXCLUDED.match_score,
			embedding_similarity = EXCLUDED.embedding_similarity`,
		rec.CandidateID,
		rec.JobPostingID,
		rec.EvaluatedAt,
		rec.MatchFound,
		nullFloat(rec.MatchScore),
		nullFloat(rec.EmbeddingSimilarity),
	)
	if err != nil {
		return insertError("candidate_job_evaluations", err)
	}
	return nil
}

func (s *Store) GetEvaluation(ctx context.Context, candidateID, jobPostingID string) (*models.EvaluationRecord, error) {
	var (
		rec        = models.EvaluationRecord{CandidateID: candidateID, JobPostingID: jobPostingID}
		score, sim sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT evaluated_at, match_found, match_score, embedding_similarity
		FROM candidate_job_evaluations
		WHERE candidate_id = $1 AND job_posting_id = $2`,
		candidateID, jobPostingID,
	).Scan(&rec.EvaluatedAt, &rec.MatchFound, &score, &sim)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("get evaluation", err)
	}
	rec.MatchScore = floatPtr(score)
	rec.EmbeddingSimilarity = floatPtr(sim)
	return &rec, nil
}

// UnevaluatedCandidates is an anti-join: candidates without a ledger row for the job.
func (s *Store) UnevaluatedCandidates(ctx context.Context, jobPostingID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id
		FROM candidates c
		WHERE NOT EXISTS (
			SELECT 1 FROM candidate_job_evaluations e
			WHERE e.candidate_id = c.id AND e.job_posting_id = $1
		)
		ORDER BY c.id
		LIMIT $2`, jobPostingID, limit)
	if err != nil {
		return nil, queryError("unevaluated candidates", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, queryError("scan candidate id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("unevaluated candidates", err)
	}
	return ids, nil
}

func (s *Store) DeleteEvaluationsForCandidate(ctx context.Context, candidateID string) (int64, error) {
	return s.deleteEvaluations(ctx, `DELETE FROM candidate_job_evaluations WHERE candidate_id = $1`, candidateID)
}

func (s *Store) DeleteEvaluationsForJob(ctx context.Context, jobPostingID string) (int64, error) {
	return s.deleteEvaluations(ctx, `DELETE FROM candidate_job_evaluations WHERE job_posting_id = $1`, jobPostingID)
}

func (s *Store) deleteEvaluations(ctx context.Context, query, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, queryError("delete evaluations", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, queryError("delete evaluations", err)
	}
	return n, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
