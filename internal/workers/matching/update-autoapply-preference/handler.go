// Package updateautoapplypreference stores a candidate's auto-apply settings.
package updateautoapplypreference

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
	TaskType = "update-autoapply-preference"
)

// Preferences is satisfied by *autoapply.Limiter.
type Preferences interface {
	Preference(ctx context.Context, candidateID string) (models.AutoApplyPreference, error)
	SetPreference(ctx context.Context, pref models.AutoApplyPreference) (models.AutoApplyPreference, error)
}

type Handler struct {
	config *Config
	prefs  Preferences
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, prefs Preferences, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		prefs:  prefs,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	pref, err := h.prefs.Preference(ctx, input.CandidateID)
	if err != nil {
		return nil, err
	}

	if input.AutoApplyEnabled != nil {
		pref.Enabled = *input.AutoApplyEnabled
	}
	if input.MinScoreThreshold != nil {
		pref.MinScoreThreshold = *input.MinScoreThreshold
	}
	if input.MaxApplicationsPerDay != nil {
		pref.MaxApplicationsPerDay = *input.MaxApplicationsPerDay
	}

	saved, err := h.prefs.SetPreference(ctx, pref)
	if err != nil {
		return nil, err
	}

	h.logger.Info("auto-apply preference updated", map[string]interface{}{
		"candidateId":           saved.CandidateID,
		"autoApplyEnabled":      saved.Enabled,
		"minScoreThreshold":     saved.MinScoreThreshold,
		"maxApplicationsPerDay": saved.MaxApplicationsPerDay,
	})

	return &Output{
		CandidateID:           saved.CandidateID,
		AutoApplyEnabled:      saved.Enabled,
		MinScoreThreshold:     saved.MinScoreThreshold,
		MaxApplicationsPerDay: saved.MaxApplicationsPerDay,
		UpdatedAt:             saved.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}
