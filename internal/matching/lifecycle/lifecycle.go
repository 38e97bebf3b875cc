// Package lifecycle applies candidate and job updates and keeps the ledger, the vector index
// and the profile cache consistent with them.
package lifecycle

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/matching/ledger"
	"automatch-workers/internal/matching/similarity"
	"automatch-workers/internal/models"
)

type Repository interface {
	GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error)
	SaveCandidate(ctx context.Context, c *models.CandidateProfile) error
	GetJobPosting(ctx context.Context, id string) (*models.JobPosting, error)
	SaveJobPosting(ctx context.Context, j *models.JobPosting) error
	MarkEmbedded(ctx context.Context, entityType models.EntityType, id, contentHash string) error
}

// ProfileCache drops cached candidate profiles.
type ProfileCache interface {
	Evict(ctx context.Context, candidateID string) error
}

// Result reports what an update changed downstream.
type Result struct {
	Created          bool `json:"created"`
	Invalidated      bool `json:"invalidated"`
	EmbeddingDropped bool `json:"embeddingDropped"`
}

type Service struct {
	repo   Repository
	ledger *ledger.Ledger
	index  *similarity.Index
	cache  ProfileCache
	logger logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, l *ledger.Ledger, index *similarity.Index, cache ProfileCache, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		ledger: l,
		index:  index,
		cache:  cache,
		logger: logger.Component(log, "lifecycle"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// UpdateCandidateProfile saves the profile. A material change clears every evaluation of
// the candidate and drops its embedding so the next run re-embeds and re-scores it.
func (s *Service) UpdateCandidateProfile(ctx context.Context, c *models.CandidateProfile) (Result, error) {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return Result{}, apperrors.NewInvalidInputError("candidate id is required")
	}

	old, err := s.repo.GetCandidate(ctx, c.ID)
	if err != nil && !stderrors.Is(err, apperrors.ErrEntityNotFound) {
		return Result{}, err
	}

	c.UpdatedAt = s.now()
	if err := s.repo.SaveCandidate(ctx, c); err != nil {
		return Result{}, err
	}
	s.evict(ctx, c.ID)

	if old == nil {
		s.logger.Info("candidate created", map[string]interface{}{"candidateId": c.ID})
		return Result{Created: true}, nil
	}

	invalidated, err := s.ledger.OnProfileUpdated(ctx, old, c)
	if err != nil {
		return Result{}, err
	}
	if !invalidated {
		return Result{}, nil
	}

	if err := s.dropEmbedding(ctx, models.EntityCandidate, c.ID); err != nil {
		return Result{Invalidated: true}, err
	}

	s.logger.Info("candidate profile changed materially", map[string]interface{}{"candidateId": c.ID})
	return Result{Invalidated: true, EmbeddingDropped: true}, nil
}

// UpdateJobPosting saves the posting. Requirement or category changes clear the job's
// evaluations; a posting saved as closed goes through CloseJobPosting.
func (s *Service) UpdateJobPosting(ctx context.Context, j *models.JobPosting) (Result, error) {
	if j == nil || strings.TrimSpace(j.ID) == "" {
		return Result{}, apperrors.NewInvalidInputError("job posting id is required")
	}
	if j.Status != "" && j.Status != models.JobStatusOpen && j.Status != models.JobStatusClosed {
		return Result{}, apperrors.NewInvalidInputError("job status must be open or closed")
	}
	for _, r := range j.Requirements {
		if !r.Type.Valid() {
			return Result{}, apperrors.NewInvalidInputError("unknown requirement type: " + string(r.Type))
		}
	}

	old, err := s.repo.GetJobPosting(ctx, j.ID)
	if err != nil && !stderrors.Is(err, apperrors.ErrEntityNotFound) {
		return Result{}, err
	}
	if j.Status == "" {
		j.Status = models.JobStatusOpen
		if old != nil {
			j.Status = old.Status
		}
	}

	j.UpdatedAt = s.now()
	if err := s.repo.SaveJobPosting(ctx, j); err != nil {
		return Result{}, err
	}

	if !j.IsOpen() {
		if err := s.dropEmbedding(ctx, models.EntityJobPosting, j.ID); err != nil {
			return Result{}, err
		}
		return Result{Created: old == nil, EmbeddingDropped: true}, nil
	}
	if old == nil {
		s.logger.Info("job posting created", map[string]interface{}{"jobPostingId": j.ID})
		return Result{Created: true}, nil
	}

	invalidated, err := s.ledger.OnJobUpdated(ctx, old, j)
	if err != nil {
		return Result{}, err
	}
	if !invalidated {
		return Result{}, nil
	}
	if err := s.dropEmbedding(ctx, models.EntityJobPosting, j.ID); err != nil {
		return Result{Invalidated: true}, err
	}

	s.logger.Info("job requirements changed", map[string]interface{}{"jobPostingId": j.ID})
	return Result{Invalidated: true, EmbeddingDropped: true}, nil
}

// CloseJobPosting marks the posting closed and removes its embedding. Closing an already
// closed posting is a no-op.
func (s *Service) CloseJobPosting(ctx context.Context, jobPostingID string) (Result, error) {
	if strings.TrimSpace(jobPostingID) == "" {
		return Result{}, apperrors.NewInvalidInputError("job posting id is required")
	}

	j, err := s.repo.GetJobPosting(ctx, jobPostingID)
	if err != nil {
		return Result{}, err
	}
	if !j.IsOpen() {
		return Result{}, nil
	}

	j.Status = models.JobStatusClosed
	j.UpdatedAt = s.now()
	if err := s.repo.SaveJobPosting(ctx, j); err != nil {
		return Result{}, err
	}
	if err := s.dropEmbedding(ctx, models.EntityJobPosting, j.ID); err != nil {
		return Result{}, err
	}

	s.logger.Info("job posting closed", map[string]interface{}{"jobPostingId": j.ID})
	return Result{EmbeddingDropped: true}, nil
}

func (s *Service) dropEmbedding(ctx context.Context, entityType models.EntityType, id string) error {
	if err := s.index.Delete(ctx, entityType, id); err != nil && !stderrors.Is(err, apperrors.ErrEmbeddingNotFound) {
		return err
	}
	return s.repo.MarkEmbedded(ctx, entityType, id, "")
}

func (s *Service) evict(ctx context.Context, candidateID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Evict(ctx, candidateID); err != nil {
		s.logger.Warn("profile cache eviction failed", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err.Error(),
		})
	}
}
