// Package ledger tracks which (candidate, job) pairs have been scored. A pair without a
// record needs evaluation; invalidation deletes records rather than flagging them.
package ledger

import (
	"context"
	"time"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/models"
)

// Store persists evaluation records. UpsertEvaluation must be atomic on
// (candidate_id, job_posting_id); GetEvaluation returns nil, nil when no record exists.
type Store interface {
	UpsertEvaluation(ctx context.Context, rec *models.EvaluationRecord) error
	GetEvaluation(ctx context.Context, candidateID, jobPostingID string) (*models.EvaluationRecord, error)
	UnevaluatedCandidates(ctx context.Context, jobPostingID string, limit int) ([]string, error)
	DeleteEvaluationsForCandidate(ctx context.Context, candidateID string) (int64, error)
	DeleteEvaluationsForJob(ctx context.Context, jobPostingID string) (int64, error)
}

// Ledger records evaluated pairs and invalidates them when a profile or posting changes.
type Ledger struct {
	store  Store
	logger logger.Logger
	now    func() time.Time
}

// New returns a Ledger that stamps records with the current UTC time.
func New(store Store, log logger.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger.Component(log, "ledger"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NeedsEvaluation returns up to limit candidate IDs with no record for the job.
func (l *Ledger) NeedsEvaluation(ctx context.Context, jobPostingID string, limit int) ([]string, error) {
	if jobPostingID == "" {
		return nil, apperrors.NewInvalidInputError("jobPostingId is required")
	}
	if limit <= 0 {
		return nil, apperrors.NewInvalidInputError("limit must be positive")
	}
	return l.store.UnevaluatedCandidates(ctx, jobPostingID, limit)
}

// MarkEvaluated records the outcome for a pair, overwriting any previous record.
func (l *Ledger) MarkEvaluated(ctx context.Context, candidateID, jobPostingID string, matchFound bool, score, similarity *float64) error {
	if candidateID == "" || jobPostingID == "" {
		return apperrors.NewInvalidInputError("candidateId and jobPostingId are required")
	}

	rec := &models.EvaluationRecord{
		CandidateID:         candidateID,
		JobPostingID:        jobPostingID,
		EvaluatedAt:         l.now(),
		MatchFound:          matchFound,
		MatchScore:          score,
		EmbeddingSimilarity: similarity,
	}
	return l.store.UpsertEvaluation(ctx, rec)
}

// Lookup returns the record for a pair, or nil when the pair is unevaluated.
func (l *Ledger) Lookup(ctx context.Context, candidateID, jobPostingID string) (*models.EvaluationRecord, error) {
	return l.store.GetEvaluation(ctx, candidateID, jobPostingID)
}

// InvalidateCandidate drops every record for the candidate in one statement.
func (l *Ledger) InvalidateCandidate(ctx context.Context, candidateID string) (int64, error) {
	n, err := l.store.DeleteEvaluationsForCandidate(ctx, candidateID)
	if err != nil {
		return 0, err
	}
	l.logger.Info("candidate evaluations invalidated", map[string]interface{}{
		"candidateId": candidateID,
		"deleted":     n,
	})
	return n, nil
}

// InvalidateJob drops every record for the job in one statement.
func (l *Ledger) InvalidateJob(ctx context.Context, jobPostingID string) (int64, error) {
	n, err := l.store.DeleteEvaluationsForJob(ctx, jobPostingID)
	if err != nil {
		return 0, err
	}
	l.logger.Info("job evaluations invalidated", map[string]interface{}{
		"jobPostingId": jobPostingID,
		"deleted":      n,
	})
	return n, nil
}

// OnProfileUpdated invalidates the candidate when a material field changed. It reports
// whether an invalidation happened.
func (l *Ledger) OnProfileUpdated(ctx context.Context, old, updated *models.CandidateProfile) (bool, error) {
	if updated == nil || !models.MaterialChange(old, updated) {
		return false, nil
	}
	if _, err := l.InvalidateCandidate(ctx, updated.ID); err != nil {
		return false, err
	}
	return true, nil
}

// OnJobUpdated invalidates the job when its requirements or categories changed.
func (l *Ledger) OnJobUpdated(ctx context.Context, old, updated *models.JobPosting) (bool, error) {
	if updated == nil || !models.RequirementsChanged(old, updated) {
		return false, nil
	}
	if _, err := l.InvalidateJob(ctx, updated.ID); err != nil {
		return false, err
	}
	return true, nil
}
