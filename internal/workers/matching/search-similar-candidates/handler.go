// Package searchsimilarcandidates lets recruiters find candidates semantically close to a
// job posting.
package searchsimilarcandidates

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"automatch-workers/internal/common/camunda"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/common/metrics"
	"automatch-workers/internal/models"
)

const (
	TaskType = "search-similar-candidates"
)

// Searcher is satisfied by *similarity.Index.
type Searcher interface {
	Get(ctx context.Context, entityType models.EntityType, entityID string) (*models.EmbeddingVector, error)
	Search(ctx context.Context, entityType models.EntityType, query []float32, minSimilarity float64, limit int, filters *models.SearchFilters) ([]models.SearchMatch, error)
}

type Handler struct {
	config *Config
	index  Searcher
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, index Searcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		index:  index,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := inputSchema.Decode(job.Variables, &input); err != nil {
		h.fail(client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
}

// Execute uses the posting's stored embedding as the query vector.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	f := input.Filters
	if f != nil && f.MinExperienceYears != nil && f.MaxExperienceYears != nil && *f.MinExperienceYears > *f.MaxExperienceYears {
		return nil, apperrors.NewInvalidFilterFormatError("minExperienceYears exceeds maxExperienceYears")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	minSimilarity := defaultMinSimilarity
	if input.MinSimilarity != nil {
		minSimilarity = *input.MinSimilarity
	}

	jobVector, err := h.index.Get(ctx, models.EntityJobPosting, input.JobPostingID)
	if err != nil {
		return nil, err
	}

	matches, err := h.index.Search(ctx, models.EntityCandidate, jobVector.Vector, minSimilarity, limit, f)
	if err != nil {
		return nil, err
	}

	h.logger.Info("similar candidates found", map[string]interface{}{
		"jobPostingId":  input.JobPostingID,
		"results":       len(matches),
		"minSimilarity": minSimilarity,
	})

	return &Output{
		JobPostingID: input.JobPostingID,
		Candidates:   matches,
		Count:        len(matches),
	}, nil
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}
