// Package runmatchingbatch triggers a bounded matching run from a BPMN timer or operator
// process.
package runmatchingbatch

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"automatch-workers/internal/common/camunda"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/common/metrics"
	"automatch-workers/internal/matching/orchestrator"
	"automatch-workers/internal/models"
)

const (
	TaskType = "run-matching-batch"
)

// Runner is satisfied by *orchestrator.Orchestrator.
type Runner interface {
	RunWithRetry(ctx context.Context, opts orchestrator.Options) (*models.RunRecord, error)
}

type Handler struct {
	config   *Config
	runner   Runner
	defaults orchestrator.Options
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, runner Runner, defaults orchestrator.Options, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		runner:   runner,
		defaults: defaults,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
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

// Execute runs one matching batch with the input overrides applied to the configured
// defaults. A failed run is returned as an error so the job is retried; the error carries
// the last attempt's summary so it reaches the workflow variables.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	opts := h.defaults
	opts.Trigger = models.TriggerWorkflow
	if input.Trigger != "" {
		opts.Trigger = models.RunTrigger(input.Trigger)
	}
	if input.CandidateBatchSize != nil {
		opts.CandidateBatchSize = *input.CandidateBatchSize
	}
	if input.JobBatchSize != nil {
		opts.JobBatchSize = *input.JobBatchSize
	}
	if input.CandidatesPerJob != nil {
		opts.CandidatesPerJob = *input.CandidatesPerJob
	}

	run, err := h.runner.RunWithRetry(ctx, opts)
	if err != nil {
		return nil, withRunSummary(run, err)
	}

	summary := orchestrator.Summary(run)
	h.logger.Info("matching batch finished", map[string]interface{}{
		"runId":                 run.ID,
		"matchesFound":          summary.MatchesFound,
		"applicationsSubmitted": summary.ApplicationsSubmitted,
		"jobsProcessed":         summary.JobsProcessed,
		"errors":                len(summary.Errors),
	})

	return &Output{
		RunID:                 run.ID,
		Status:                string(run.Status),
		MatchesFound:          summary.MatchesFound,
		ApplicationsSubmitted: summary.ApplicationsSubmitted,
		JobsProcessed:         summary.JobsProcessed,
		Errors:                summary.Errors,
	}, nil
}

func withRunSummary(run *models.RunRecord, err error) error {
	if run == nil {
		return err
	}
	stdErr, ok := apperrors.AsStandardError(err)
	if !ok {
		stdErr = apperrors.NewRunFailedError(run.ID, err)
		err = stdErr
	}
	summary := orchestrator.Summary(run)
	stdErr.WithMetadata("runId", run.ID).
		WithMetadata("status", string(run.Status)).
		WithMetadata("matchesFound", summary.MatchesFound).
		WithMetadata("applicationsSubmitted", summary.ApplicationsSubmitted).
		WithMetadata("jobsProcessed", summary.JobsProcessed).
		WithMetadata("errors", summary.Errors)
	return err
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}
