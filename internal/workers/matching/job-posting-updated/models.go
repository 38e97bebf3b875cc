package jobpostingupdated

import "automatch-workers/internal/models"

const (
	ActionUpsert = "upsert"
	ActionClose  = "close"
)

// Input either upserts a posting or closes one by id.
type Input struct {
	Action       string             `json:"action,omitempty"`
	JobPosting   *models.JobPosting `json:"jobPosting,omitempty"`
	JobPostingID string             `json:"jobPostingId,omitempty"`
}

type Output struct {
	JobPostingID         string `json:"jobPostingId"`
	Status               string `json:"status"`
	Created              bool   `json:"created"`
	EvaluationsCleared   bool   `json:"evaluationsCleared"`
	EmbeddingInvalidated bool   `json:"embeddingInvalidated"`
}
