package candidateprofileupdated

import "automatch-workers/internal/models"

type Input struct {
	Candidate models.CandidateProfile `json:"candidate"`
}

type Output struct {
	CandidateID          string `json:"candidateId"`
	Created              bool   `json:"created"`
	EvaluationsCleared   bool   `json:"evaluationsCleared"`
	EmbeddingInvalidated bool   `json:"embeddingInvalidated"`
}
