package runmatchingbatch

// Input carries optional per-run overrides. Omitted fields keep the configured values.
type Input struct {
	Trigger            string `json:"trigger,omitempty"`
	CandidateBatchSize *int   `json:"candidateBatchSize,omitempty"`
	JobBatchSize       *int   `json:"jobBatchSize,omitempty"`
	CandidatesPerJob   *int   `json:"candidatesPerJob,omitempty"`
}

type Output struct {
	RunID                 string   `json:"runId"`
	Status                string   `json:"status"`
	MatchesFound          int      `json:"matchesFound"`
	ApplicationsSubmitted int      `json:"applicationsSubmitted"`
	JobsProcessed         int      `json:"jobsProcessed"`
	Errors                []string `json:"errors"`
}
