package orchestrator

import (
	"fmt"
	"sync"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

// runState aggregates counters from concurrent workers into the RunRecord.
type runState struct {
	mu        sync.Mutex
	run       *models.RunRecord
	maxErrors int
}

func newRunState(run *models.RunRecord, maxErrors int) *runState {
	return &runState{run: run, maxErrors: maxErrors}
}

func (s *runState) embedded() {
	s.mu.Lock()
	s.run.EmbeddingsGenerated++
	s.mu.Unlock()
}

func (s *runState) jobProcessed() {
	s.mu.Lock()
	s.run.JobsProcessed++
	s.mu.Unlock()
}

func (s *runState) evaluated(matchFound bool) {
	s.mu.Lock()
	s.run.CandidatesEvaluated++
	if matchFound {
		s.run.MatchesFound++
	}
	s.mu.Unlock()
}

func (s *runState) applied(submitted bool) {
	s.mu.Lock()
	if submitted {
		s.run.ApplicationsSubmitted++
	} else {
		s.run.ApplicationsSkipped++
	}
	s.mu.Unlock()
}

// fail counts an item failure and keeps the first maxErrors messages.
func (s *runState) fail(stage, entityID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.Failures++
	if len(s.run.Errors) < s.maxErrors {
		s.run.Errors = append(s.run.Errors, fmt.Sprintf("%s %s: %s", stage, entityID, apperrors.OperatorMessage(err)))
	}
}
