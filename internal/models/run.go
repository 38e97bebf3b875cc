package models

import "time"

type RunTrigger string

const (
	TriggerManual    RunTrigger = "manual"
	TriggerScheduled RunTrigger = "scheduled"
	TriggerWorkflow  RunTrigger = "workflow"
)

type RunStatus string

const (
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

type RunRecord struct {
	ID                    string     `json:"id"`
	Trigger               RunTrigger `json:"trigger"`
	Attempt               int        `json:"attempt"`
	Status                RunStatus  `json:"status"`
	EmbeddingsGenerated   int        `json:"embeddingsGenerated"`
	JobsProcessed         int        `json:"jobsProcessed"`
	CandidatesEvaluated   int        `json:"candidatesEvaluated"`
	MatchesFound          int        `json:"matchesFound"`
	ApplicationsSubmitted int        `json:"applicationsSubmitted"`
	ApplicationsSkipped   int        `json:"applicationsSkipped"`
	Failures              int        `json:"failures"`
	Errors                []string   `json:"errors"`
	ErrorSummary          string     `json:"errorSummary,omitempty"`
	StartedAt             time.Time  `json:"startedAt"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
}

// RunSummary is what run triggers return to callers.
type RunSummary struct {
	MatchesFound          int      `json:"matchesFound"`
	ApplicationsSubmitted int      `json:"applicationsSubmitted"`
	JobsProcessed         int      `json:"jobsProcessed"`
	Errors                []string `json:"errors"`
}

func (r *RunRecord) Summary() RunSummary {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return RunSummary{
		MatchesFound:          r.MatchesFound,
		ApplicationsSubmitted: r.ApplicationsSubmitted,
		JobsProcessed:         r.JobsProcessed,
		Errors:                errs,
	}
}
