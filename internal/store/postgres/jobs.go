package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

const jobColumns = `id, recruiter_id, title, company, location, job_type, requirements, categories,
	description, status, updated_at`

func (s *Store) SaveJobPosting(ctx context.Context, j *models.JobPosting) error {
	if j.Status == "" {
		j.Status = models.JobStatusOpen
	}
	requirements, err := jsonList(j.Requirements)
	if err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("requirements: %v", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_postings (
			id, recruiter_id, title, company, location, job_type, requirements, categories,
			description, status, content_hash, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			recruiter_id = EXCLUDED.recruiter_id,
			title = EXCLUDED.title,
			company = EXCLUDED.company,
			location = EXCLUDED.location,
			job_type = EXCLUDED.job_type,
			requirements = EXCLUDED.requirements,
			categories = EXCLUDED.categories,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			content_hash = EXCLUDED.content_hash,
			updated_at = EXCLUDED.updated_at`,
		j.ID,
		j.RecruiterID,
		j.Title,
		j.Company,
		j.Location,
		j.JobType,
		requirements,
		pq.Array(nonNil(j.Categories)),
		j.Description,
		string(j.Status),
		j.ContentHash(),
		j.UpdatedAt,
	)
	if err != nil {
		return insertError("job_postings", err)
	}
	return nil
}

func (s *Store) GetJobPosting(ctx context.Context, id string) (*models.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM job_postings WHERE id = $1`, id)
	j, err := scanJob(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewEntityNotFoundError("job_posting", id)
	}
	if err != nil {
		return nil, queryError("get job posting", err)
	}
	return j, nil
}

// ListOpenJobs returns open postings, most recently updated first.
func (s *Store) ListOpenJobs(ctx context.Context, limit int) ([]*models.JobPosting, error) {
	return s.queryJobs(ctx, "list open jobs", `
		SELECT `+jobColumns+`
		FROM job_postings
		WHERE status = 'open'
		ORDER BY updated_at DESC, id
		LIMIT $1`, limit)
}

func (s *Store) JobsNeedingEmbedding(ctx context.Context, limit int) ([]*models.JobPosting, error) {
	return s.queryJobs(ctx, "jobs needing embedding", `
		SELECT `+jobColumns+`
		FROM job_postings
		WHERE status = 'open' AND content_hash <> embedded_hash
		ORDER BY updated_at, id
		LIMIT $1`, limit)
}

func (s *Store) queryJobs(ctx context.Context, op, query string, args ...interface{}) ([]*models.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError(op, err)
	}
	defer rows.Close()

	var out []*models.JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, queryError("scan job posting", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(op, err)
	}
	return out, nil
}

func scanJob(row rowScanner) (*models.JobPosting, error) {
	var (
		j            models.JobPosting
		requirements []byte
		status       string
	)
	err := row.Scan(
		&j.ID,
		&j.RecruiterID,
		&j.Title,
		&j.Company,
		&j.Location,
		&j.JobType,
		&requirements,
		pq.Array(&j.Categories),
		&j.Description,
		&status,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Status = models.JobStatus(status)
	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &j.Requirements); err != nil {
			return nil, fmt.Errorf("decode requirements: %w", err)
		}
	}
	return &j, nil
}
