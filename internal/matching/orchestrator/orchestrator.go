package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/common/metrics"
	"automatch-workers/internal/matching/autoapply"
	"automatch-workers/internal/matching/embedding"
	"automatch-workers/internal/matching/ledger"
	"automatch-workers/internal/matching/scoring"
	"automatch-workers/internal/matching/similarity"
	"automatch-workers/internal/models"
)

// Catalog reads candidates and jobs and tracks which content hash was last embedded.
type Catalog interface {
	GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error)
	GetJobPosting(ctx context.Context, id string) (*models.JobPosting, error)
	ListOpenJobs(ctx context.Context, limit int) ([]*models.JobPosting, error)
	CandidatesNeedingEmbedding(ctx context.Context, limit int) ([]*models.CandidateProfile, error)
	JobsNeedingEmbedding(ctx context.Context, limit int) ([]*models.JobPosting, error)
	MarkEmbedded(ctx context.Context, entityType models.EntityType, id, contentHash string) error
}

// CandidateLoader fetches a profile for scoring. The profile cache implements it.
type CandidateLoader interface {
	GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error)
}

type RunStore interface {
	CreateRun(ctx context.Context, run *models.RunRecord) error
	UpdateRun(ctx context.Context, run *models.RunRecord) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
}

// Notifier is told about every submitted application. Failures are logged only.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, app *models.ApplicationRecord, candidate *models.CandidateProfile, job *models.JobPosting) error
}

type Deps struct {
	Catalog    Catalog
	Candidates CandidateLoader
	Runs       RunStore
	Ledger     *ledger.Ledger
	Index      *similarity.Index
	Generator  *embedding.Generator
	Limiter    *autoapply.Limiter
	Notifier   Notifier
}

type Orchestrator struct {
	catalog    Catalog
	candidates CandidateLoader
	runs       RunStore
	ledger     *ledger.Ledger
	index      *similarity.Index
	generator  *embedding.Generator
	limiter    *autoapply.Limiter
	notifier   Notifier
	logger     logger.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

func New(deps Deps, log logger.Logger) *Orchestrator {
	candidates := deps.Candidates
	if candidates == nil {
		candidates = deps.Catalog
	}
	return &Orchestrator{
		catalog:    deps.Catalog,
		candidates: candidates,
		runs:       deps.Runs,
		ledger:     deps.Ledger,
		index:      deps.Index,
		generator:  deps.Generator,
		limiter:    deps.Limiter,
		notifier:   deps.Notifier,
		logger:     logger.Component(log, "orchestrator"),
		now:        func() time.Time { return time.Now().UTC() },
		sleep:      sleepContext,
	}
}

type pair struct {
	candidateID string
	job         *models.JobPosting
}

// Run executes one bounded matching run. Item failures are recorded on the returned
// RunRecord; a fatal failure marks it failed and is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*models.RunRecord, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return o.run(ctx, opts.withDefaults(), 1)
}

// RunWithRetry re-runs after fatal failures with exponential backoff and returns the last
// attempted run.
func (o *Orchestrator) RunWithRetry(ctx context.Context, opts Options) (*models.RunRecord, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var (
		run *models.RunRecord
		err error
	)
	delay := opts.RetryBaseDelay
	for attempt := 1; attempt <= opts.RetryAttempts; attempt++ {
		run, err = o.run(ctx, opts, attempt)
		if err == nil {
			return run, nil
		}
		if attempt == opts.RetryAttempts {
			break
		}

		o.logger.Warn("matching run failed, retrying", map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": opts.RetryAttempts,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})
		if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
			return run, err
		}
		delay *= 2
	}
	return run, err
}

// Summary is the caller-facing view of a run.
func Summary(run *models.RunRecord) models.RunSummary {
	if run == nil {
		return models.RunSummary{Errors: []string{}}
	}
	return run.Summary()
}

func (o *Orchestrator) run(ctx context.Context, opts Options, attempt int) (*models.RunRecord, error) {
	started := o.now()
	run := &models.RunRecord{
		ID:        uuid.New().String(),
		Trigger:   opts.Trigger,
		Attempt:   attempt,
		Status:    models.RunInProgress,
		Errors:    []string{},
		StartedAt: started,
	}

	ctx, span := otel.Tracer("orchestrator").Start(ctx, "orchestrator.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", run.ID),
		attribute.String("trigger", string(opts.Trigger)),
		attribute.Int("attempt", attempt),
	)

	log := o.logger.WithFields(map[string]interface{}{"runId": run.ID, "attempt": attempt})

	if err := o.runs.CreateRun(ctx, run); err != nil {
		err = apperrors.NewDatabaseConnectionFailedError(err)
		o.finish(ctx, run, err, log)
		span.RecordError(err)
		span.SetStatus(codes.Error, "run record not created")
		return run, apperrors.NewRunFailedError(run.ID, err)
	}

	log.Info("matching run started", map[string]interface{}{
		"trigger":          string(opts.Trigger),
		"jobBatchSize":     opts.JobBatchSize,
		"candidatesPerJob": opts.CandidatesPerJob,
		"workers":          opts.Workers,
	})

	state := newRunState(run, opts.MaxErrors)
	err := o.execute(ctx, opts, state, log)
	o.finish(ctx, run, err, log)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "matching run failed")
		return run, apperrors.NewRunFailedError(run.ID, err)
	}
	return run, nil
}

func (o *Orchestrator) execute(ctx context.Context, opts Options, state *runState, log logger.Logger) error {
	if err := o.embedPending(ctx, opts, state, log); err != nil {
		return err
	}

	jobs, err := o.catalog.ListOpenJobs(ctx, opts.JobBatchSize)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}

	return o.evaluate(ctx, jobs, opts, state, log)
}

// embedPending (re)generates embeddings for entities whose content hash changed since the
// last embedding.
func (o *Orchestrator) embedPending(ctx context.Context, opts Options, state *runState, log logger.Logger) error {
	ctx, span := otel.Tracer("orchestrator").Start(ctx, "orchestrator.embedPending")
	defer span.End()

	candidates, err := o.catalog.CandidatesNeedingEmbedding(ctx, opts.CandidateBatchSize)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	for _, c := range candidates {
		v, err := o.generator.EmbedCandidate(ctx, c)
		if err == nil {
			err = o.catalog.MarkEmbedded(ctx, models.EntityCandidate, c.ID, v.ContentHash)
		}
		if err != nil {
			if apperrors.IsFatal(err) {
				return err
			}
			o.itemFailed(state, log, "embed candidate", c.ID, "", err)
			continue
		}
		state.embedded()
	}

	jobs, err := o.catalog.JobsNeedingEmbedding(ctx, opts.JobBatchSize)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	for _, j := range jobs {
		v, err := o.generator.EmbedJob(ctx, j)
		if err == nil {
			err = o.catalog.MarkEmbedded(ctx, models.EntityJobPosting, j.ID, v.ContentHash)
		}
		if err != nil {
			if apperrors.IsFatal(err) {
				return err
			}
			o.itemFailed(state, log, "embed job", "", j.ID, err)
			continue
		}
		state.embedded()
	}

	span.SetAttributes(attribute.Int("candidates", len(candidates)), attribute.Int("jobs", len(jobs)))
	return nil
}

// evaluate feeds (candidate, job) pairs to a bounded worker pool. The first fatal error
// stops the producer and is returned once the workers drain.
func (o *Orchestrator) evaluate(ctx context.Context, jobs []*models.JobPosting, opts Options, state *runState, log logger.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pairs := make(chan pair)
	var (
		wg        sync.WaitGroup
		fatalOnce sync.Once
		fatalErr  error
	)

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range pairs {
				if ctx.Err() != nil {
					continue
				}
				if err := o.evaluatePair(ctx, p, opts, state, log); err != nil {
					fatalOnce.Do(func() {
						fatalErr = err
						cancel()
					})
				}
			}
		}()
	}

produce:
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		ids, err := o.ledger.NeedsEvaluation(ctx, job.ID, opts.CandidatesPerJob)
		if err != nil {
			if apperrors.IsFatal(err) {
				fatalOnce.Do(func() {
					fatalErr = err
					cancel()
				})
				break
			}
			o.itemFailed(state, log, "list unevaluated", "", job.ID, err)
			continue
		}
		state.jobProcessed()

		for _, id := range ids {
			select {
			case pairs <- pair{candidateID: id, job: job}:
			case <-ctx.Done():
				break produce
			}
		}
	}
	close(pairs)
	wg.Wait()

	if fatalErr != nil {
		return fatalErr
	}
	// Parent cancellation.
	return ctx.Err()
}

// evaluatePair scores one pair, records it in the ledger and runs the auto-apply policy on
// a match. Only fatal errors are returned.
func (o *Orchestrator) evaluatePair(ctx context.Context, p pair, opts Options, state *runState, log logger.Logger) error {
	jobID := p.job.ID

	candidate, err := o.candidates.GetCandidate(ctx, p.candidateID)
	if err != nil {
		return o.itemError(state, log, "load candidate", p.candidateID, jobID, err)
	}

	sim, err := o.index.Similarity(ctx, candidate.ID, jobID)
	if err != nil {
		return o.itemError(state, log, "similarity", candidate.ID, jobID, err)
	}

	result := scoring.Score(candidate, p.job, sim)
	matchFound := result.Score >= opts.MatchThreshold
	metrics.PairsEvaluated.Inc()

	score := result.Score
	if err := o.ledger.MarkEvaluated(ctx, candidate.ID, jobID, matchFound, &score, &sim); err != nil {
		return o.itemError(state, log, "mark evaluated", candidate.ID, jobID, err)
	}
	state.evaluated(matchFound)

	if !matchFound {
		return nil
	}
	metrics.MatchesFound.Inc()

	decision, app, err := o.limiter.Submit(ctx, candidate.ID, jobID, result.Score, result.Reasons)
	if err != nil {
		return o.itemError(state, log, "auto-apply", candidate.ID, jobID, err)
	}
	state.applied(decision.Submit)
	if !decision.Submit {
		return nil
	}

	if o.notifier != nil {
		if err := o.notifier.ApplicationSubmitted(ctx, app, candidate, p.job); err != nil {
			log.Warn("application notification failed", map[string]interface{}{
				"candidateId":  candidate.ID,
				"jobPostingId": jobID,
				"error":        err.Error(),
			})
		}
	}
	return nil
}

func (o *Orchestrator) itemError(state *runState, log logger.Logger, stage, candidateID, jobID string, err error) error {
	if apperrors.IsFatal(err) {
		return err
	}
	o.itemFailed(state, log, stage, candidateID, jobID, err)
	return nil
}

func (o *Orchestrator) itemFailed(state *runState, log logger.Logger, stage, candidateID, jobID string, err error) {
	entity := candidateID
	if entity == "" {
		entity = jobID
	} else if jobID != "" {
		entity = candidateID + "/" + jobID
	}
	state.fail(stage, entity, err)

	log.Warn("matching item failed", map[string]interface{}{
		"stage":        stage,
		"candidateId":  candidateID,
		"jobPostingId": jobID,
		"errorCode":    string(apperrors.CodeOf(err)),
		"error":        err.Error(),
	})
}

// finish stamps the terminal status and persists the run. A failed update is logged; the
// in-memory record is still returned to the caller.
func (o *Orchestrator) finish(ctx context.Context, run *models.RunRecord, runErr error, log logger.Logger) {
	completed := o.now()
	run.CompletedAt = &completed
	run.Status = models.RunCompleted
	if runErr != nil {
		run.Status = models.RunFailed
		run.ErrorSummary = apperrors.OperatorMessage(runErr)
		run.Errors = append(run.Errors, "run: "+apperrors.OperatorMessage(runErr))
	}

	// Persist even when the caller's context is already done.
	if err := o.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error("failed to persist run record", map[string]interface{}{"error": err.Error()})
	}

	duration := completed.Sub(run.StartedAt)
	metrics.MatchingRuns.WithLabelValues(string(run.Status)).Inc()
	metrics.MatchingRunDuration.Observe(duration.Seconds())

	log.Info("matching run finished", map[string]interface{}{
		"status":                string(run.Status),
		"durationMs":            duration.Milliseconds(),
		"embeddingsGenerated":   run.EmbeddingsGenerated,
		"jobsProcessed":         run.JobsProcessed,
		"candidatesEvaluated":   run.CandidatesEvaluated,
		"matchesFound":          run.MatchesFound,
		"applicationsSubmitted": run.ApplicationsSubmitted,
		"applicationsSkipped":   run.ApplicationsSkipped,
		"failures":              run.Failures,
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
