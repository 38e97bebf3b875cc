// Package autoapply decides whether to submit an application on a candidate's behalf and
// throttles the submissions it makes.
package autoapply

import (
	"fmt"

	"automatch-workers/internal/models"
)

const (
	ReasonDisabled       = "Auto-apply disabled"
	ReasonAlreadyApplied = "Already applied"
	ReasonSubmitted      = "Submitted"
)

// Decision is a policy outcome. Skips are expected results, not errors.
type Decision struct {
	Submit bool   `json:"submit"`
	Reason string `json:"reason,omitempty"`
}

// Decide applies the policy checks in order and stops at the first failing one: enabled,
// not already applied, score threshold, daily limit.
func Decide(matchScore float64, pref models.AutoApplyPreference, alreadyApplied bool, applicationsToday int) Decision {
	if !pref.Enabled {
		return Decision{Submit: false, Reason: ReasonDisabled}
	}
	if alreadyApplied {
		return Decision{Submit: false, Reason: ReasonAlreadyApplied}
	}
	if matchScore < float64(pref.MinScoreThreshold) {
		return Decision{
			Submit: false,
			Reason: fmt.Sprintf("Match score %.1f below threshold %d", matchScore, pref.MinScoreThreshold),
		}
	}
	if applicationsToday >= pref.MaxApplicationsPerDay {
		return Decision{
			Submit: false,
			Reason: fmt.Sprintf("Daily application limit reached (%d/%d)", applicationsToday, pref.MaxApplicationsPerDay),
		}
	}
	return Decision{Submit: true}
}
