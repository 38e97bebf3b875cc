package models

import (
	"fmt"
	"time"
)

const (
	DefaultMinScoreThreshold     = 70
	DefaultMaxApplicationsPerDay = 5
	MaxApplicationsPerDayCeiling = 100
)

type AutoApplyPreference struct {
	CandidateID           string    `json:"candidateId"`
	Enabled               bool      `json:"autoApplyEnabled"`
	MinScoreThreshold     int       `json:"minScoreThreshold"`
	MaxApplicationsPerDay int       `json:"maxApplicationsPerDay"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// DefaultPreference is what a candidate gets before saving any preference.
func DefaultPreference(candidateID string) AutoApplyPreference {
	return AutoApplyPreference{
		CandidateID:           candidateID,
		Enabled:               true,
		MinScoreThreshold:     DefaultMinScoreThreshold,
		MaxApplicationsPerDay: DefaultMaxApplicationsPerDay,
	}
}

// Validate rejects out-of-range values instead of clamping them.
func (p AutoApplyPreference) Validate() error {
	if p.CandidateID == "" {
		return fmt.Errorf("candidateId is required")
	}
	if p.MinScoreThreshold < 0 || p.MinScoreThreshold > 100 {
		return fmt.Errorf("minScoreThreshold must be within 0..100, got %d", p.MinScoreThreshold)
	}
	if p.MaxApplicationsPerDay < 1 || p.MaxApplicationsPerDay > MaxApplicationsPerDayCeiling {
		return fmt.Errorf("maxApplicationsPerDay must be within 1..%d, got %d", MaxApplicationsPerDayCeiling, p.MaxApplicationsPerDay)
	}
	return nil
}
