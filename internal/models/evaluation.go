package models

import "time"

// EvaluationRecord marks a (candidate, job) pair as scored. Absence of a record means the
// pair still needs evaluation.
type EvaluationRecord struct {
	CandidateID         string    `json:"candidateId"`
	JobPostingID        string    `json:"jobPostingId"`
	EvaluatedAt         time.Time `json:"evaluatedAt"`
	MatchFound          bool      `json:"matchFound"`
	MatchScore          *float64  `json:"matchScore,omitempty"`
	EmbeddingSimilarity *float64  `json:"embeddingSimilarity,omitempty"`
}
