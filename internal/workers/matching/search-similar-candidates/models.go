package searchsimilarcandidates

import "automatch-workers/internal/models"

const (
	defaultLimit         = 20
	defaultMinSimilarity = 0.5
)

type Input struct {
	JobPostingID  string                `json:"jobPostingId"`
	Limit         int                   `json:"limit,omitempty"`
	MinSimilarity *float64              `json:"minSimilarity,omitempty"`
	Filters       *models.SearchFilters `json:"filters,omitempty"`
}

type Output struct {
	JobPostingID string               `json:"jobPostingId"`
	Candidates   []models.SearchMatch `json:"candidates"`
	Count        int                  `json:"count"`
}
