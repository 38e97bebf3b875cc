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

const candidateColumns = `id, full_name, email, skills, work_history, education, interests,
	preferred_categories, preferred_job_types, location, summary, updated_at`

func (s *Store) SaveCandidate(ctx context.Context, c *models.CandidateProfile) error {
	work, err := jsonList(c.WorkHistory)
	if err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("work history: %v", err))
	}
	education, err := jsonList(c.Education)
	if err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("education: %v", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO candidates (
			id, full_name, email, skills, work_history, education, interests,
			preferred_categories, preferred_job_types, location, summary, content_hash, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			skills = EXCLUDED.skills,
			work_history = EXCLUDED.work_history,
			education = EXCLUDED.education,
			interests = EXCLUDED.interests,
			preferred_categories = EXCLUDED.preferred_categories,
			preferred_job_types = EXCLUDED.preferred_job_types,
			location = EXCLUDED.location,
			summary = EXCLUDED.summary,
			content_hash = EXCLUDED.content_hash,
			updated_at = EXCLUDED.updated_at`,
		c.ID,
		c.FullName,
		c.Email,
		pq.Array(nonNil(c.Skills)),
		work,
		education,
		pq.Array(nonNil(c.Interests)),
		pq.Array(nonNil(c.PreferredCategories)),
		pq.Array(nonNil(c.PreferredJobTypes)),
		c.Location,
		c.Summary,
		c.ContentHash(),
		c.UpdatedAt,
	)
	if err != nil {
		return insertError("candidates", err)
	}
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewEntityNotFoundError("candidate", id)
	}
	if err != nil {
		return nil, queryError("get candidate", err)
	}
	return c, nil
}

// CandidatesNeedingEmbedding returns candidates whose stored content hash differs from the
// hash their current embedding was built from.
func (s *Store) CandidatesNeedingEmbedding(ctx context.Context, limit int) ([]*models.CandidateProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+candidateColumns+`
		FROM candidates
		WHERE content_hash <> embedded_hash
		ORDER BY updated_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, queryError("candidates needing embedding", err)
	}
	defer rows.Close()

	var out []*models.CandidateProfile
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, queryError("scan candidate", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("candidates needing embedding", err)
	}
	return out, nil
}

// MarkEmbedded records the content hash an entity's embedding was built from. An empty hash
// marks it as needing a new embedding.
func (s *Store) MarkEmbedded(ctx context.Context, entityType models.EntityType, id, contentHash string) error {
	var table string
	switch entityType {
	case models.EntityCandidate:
		table = "candidates"
	case models.EntityJobPosting:
		table = "job_postings"
	default:
		return apperrors.NewInvalidInputError("unknown entity type: " + string(entityType))
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET embedded_hash = $2 WHERE id = $1`, id, contentHash); err != nil {
		return queryError("mark embedded", err)
	}
	return nil
}

func scanCandidate(row rowScanner) (*models.CandidateProfile, error) {
	var (
		c         models.CandidateProfile
		work      []byte
		education []byte
	)
	err := row.Scan(
		&c.ID,
		&c.FullName,
		&c.Email,
		pq.Array(&c.Skills),
		&work,
		&education,
		pq.Array(&c.Interests),
		pq.Array(&c.PreferredCategories),
		pq.Array(&c.PreferredJobTypes),
		&c.Location,
		&c.Summary,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(work) > 0 {
		if err := json.Unmarshal(work, &c.WorkHistory); err != nil {
			return nil, fmt.Errorf("decode work_history: %w", err)
		}
	}
	if len(education) > 0 {
		if err := json.Unmarshal(education, &c.Education); err != nil {
			return nil, fmt.Errorf("decode education: %w", err)
		}
	}
	return &c, nil
}
