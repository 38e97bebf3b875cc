package models

import "time"

const ApplicationStatusSubmitted = "submitted"

// ApplicationRecord is unique per (CandidateID, JobPostingID) at the storage layer.
type ApplicationRecord struct {
	ID           string    `json:"id"`
	CandidateID  string    `json:"candidateId"`
	JobPostingID string    `json:"jobPostingId"`
	AutoApplied  bool      `json:"autoApplied"`
	MatchScore   float64   `json:"matchScore"`
	MatchReasons []string  `json:"matchReasons"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}
