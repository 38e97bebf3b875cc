package orchestrator

import (
	"time"

	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

const (
	defaultCandidateBatchSize = 50
	defaultJobBatchSize       = 20
	defaultCandidatesPerJob   = 100
	defaultMatchThreshold     = 60
	defaultMaxErrors          = 10
	defaultRetryAttempts      = 3
	defaultRetryBaseDelay     = 2 * time.Second
)

// Options bound a single run. Zero values fall back to defaults.
type Options struct {
	Trigger            models.RunTrigger
	CandidateBatchSize int
	JobBatchSize       int
	CandidatesPerJob   int
	Workers            int
	MatchThreshold     float64
	MaxErrors          int
	RetryAttempts      int
	RetryBaseDelay     time.Duration
}

// OptionsFromConfig maps the matching section onto run options.
func OptionsFromConfig(cfg config.MatchingConfig, trigger models.RunTrigger) Options {
	return Options{
		Trigger:            trigger,
		CandidateBatchSize: cfg.CandidateBatchSize,
		JobBatchSize:       cfg.JobBatchSize,
		CandidatesPerJob:   cfg.CandidatesPerJob,
		Workers:            cfg.Workers,
		MatchThreshold:     cfg.MatchThreshold,
		MaxErrors:          cfg.MaxErrors,
		RetryAttempts:      cfg.RetryAttempts,
		RetryBaseDelay:     config.GetDuration(cfg.RetryBaseDelay),
	}
}

func (o Options) validate() error {
	if o.CandidateBatchSize < 0 || o.JobBatchSize < 0 || o.CandidatesPerJob < 0 {
		return apperrors.NewInvalidInputError("batch sizes must not be negative")
	}
	if o.Workers < 0 {
		return apperrors.NewInvalidInputError("workers must not be negative")
	}
	if o.MatchThreshold < 0 || o.MatchThreshold > 100 {
		return apperrors.NewInvalidInputError("match threshold must be within 0..100")
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Trigger == "" {
		o.Trigger = models.TriggerManual
	}
	if o.CandidateBatchSize == 0 {
		o.CandidateBatchSize = defaultCandidateBatchSize
	}
	if o.JobBatchSize == 0 {
		o.JobBatchSize = defaultJobBatchSize
	}
	if o.CandidatesPerJob == 0 {
		o.CandidatesPerJob = defaultCandidatesPerJob
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	if o.MatchThreshold == 0 {
		o.MatchThreshold = defaultMatchThreshold
	}
	if o.MaxErrors <= 0 {
		o.MaxErrors = defaultMaxErrors
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = defaultRetryAttempts
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = defaultRetryBaseDelay
	}
	return o
}
