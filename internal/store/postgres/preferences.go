package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"automatch-workers/internal/models"
)

// GetPreference returns nil, nil when the candidate never saved one.
func (s *Store) GetPreference(ctx context.Context, candidateID string) (*models.AutoApplyPreference, error) {
	p := models.AutoApplyPreference{CandidateID: candidateID}
	err := s.db.QueryRowContext(ctx, `
		SELECT enabled, min_score_threshold, max_applications_per_day, updated_at
		FROM auto_apply_preferences
		WHERE candidate_id = $1`, candidateID,
	).Scan(&p.Enabled, &p.MinScoreThreshold, &p.MaxApplicationsPerDay, &p.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryError("get preference", err)
	}
	return &p, nil
}

func (s *Store) SavePreference(ctx context.Context, p *models.AutoApplyPreference) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auto_apply_preferences (
			candidate_id, enabled, min_score_threshold, max_applications_per_day, updated_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (candidate_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			min_score_threshold = EXCLUDED.min_score_threshold,
			max_applications_per_day = EXCLUDED.max_applications_per_day,
			updated_at = EXCLUDED.updated_at`,
		p.CandidateID, p.Enabled, p.MinScoreThreshold, p.MaxApplicationsPerDay, p.UpdatedAt,
	)
	if err != nil {
		return insertError("auto_apply_preferences", err)
	}
	return nil
}
