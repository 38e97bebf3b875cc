// Package candidateprofileupdated applies a candidate profile change to the matching
// pipeline.
package candidateprofileupdated

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"automatch-workers/internal/common/camunda"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/common/metrics"
	"automatch-workers/internal/matching/lifecycle"
	"automatch-workers/internal/models"
)

const (
	TaskType = "candidate-profile-updated"
)

type ProfileUpdater interface {
	UpdateCandidateProfile(ctx context.Context, c *models.CandidateProfile) (lifecycle.Result, error)
}

type Handler struct {
	config  *Config
	updater ProfileUpdater
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, updater ProfileUpdater, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		updater: updater,
		errors:  apperrors.NewErrorHandler(log),
		logger:  log,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	candidate := input.Candidate
	res, err := h.updater.UpdateCandidateProfile(ctx, &candidate)
	if err != nil {
		return nil, err
	}

	return &Output{
		CandidateID:          candidate.ID,
		Created:              res.Created,
		EvaluationsCleared:   res.Invalidated,
		EmbeddingInvalidated: res.EmbeddingDropped,
	}, nil
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}
