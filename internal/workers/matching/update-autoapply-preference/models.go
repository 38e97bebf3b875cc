package updateautoapplypreference

// Input is a partial update; nil fields keep the stored (or default) value.
type Input struct {
	CandidateID           string `json:"candidateId"`
	AutoApplyEnabled      *bool  `json:"autoApplyEnabled,omitempty"`
	MinScoreThreshold     *int   `json:"minScoreThreshold,omitempty"`
	MaxApplicationsPerDay *int   `json:"maxApplicationsPerDay,omitempty"`
}

type Output struct {
	CandidateID           string `json:"candidateId"`
	AutoApplyEnabled      bool   `json:"autoApplyEnabled"`
	MinScoreThreshold     int    `json:"minScoreThreshold"`
	MaxApplicationsPerDay int    `json:"maxApplicationsPerDay"`
	UpdatedAt             string `json:"updatedAt"`
}
