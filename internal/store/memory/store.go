package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

type pairKey struct {
	candidateID  string
	jobPostingID string
}

// Store keeps candidates, jobs, evaluations, applications, preferences and runs in maps.
type Store struct {
	mu           sync.RWMutex
	candidates   map[string]models.CandidateProfile
	jobs         map[string]models.JobPosting
	embedded     map[vectorKey]string
	evaluations  map[pairKey]models.EvaluationRecord
	applications map[pairKey]models.ApplicationRecord
	preferences  map[string]models.AutoApplyPreference
	runs         map[string]models.RunRecord
}

func NewStore() *Store {
	return &Store{
		candidates:   make(map[string]models.CandidateProfile),
		jobs:         make(map[string]models.JobPosting),
		embedded:     make(map[vectorKey]string),
		evaluations:  make(map[pairKey]models.EvaluationRecord),
		applications: make(map[pairKey]models.ApplicationRecord),
		preferences:  make(map[string]models.AutoApplyPreference),
		runs:         make(map[string]models.RunRecord),
	}
}

// --- candidates & jobs ---

func (s *Store) SaveCandidate(_ context.Context, c *models.CandidateProfile) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.candidates[c.ID] = *c
	s.mu.Unlock()
	return nil
}

func (s *Store) GetCandidate(_ context.Context, id string) (*models.CandidateProfile, error) {
	s.mu.RLock()
	c, ok := s.candidates[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewEntityNotFoundError("candidate", id)
	}
	return &c, nil
}

func (s *Store) SaveJobPosting(_ context.Context, j *models.JobPosting) error {
	if j.Status == "" {
		j.Status = models.JobStatusOpen
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.jobs[j.ID] = *j
	s.mu.Unlock()
	return nil
}

func (s *Store) GetJobPosting(_ context.Context, id string) (*models.JobPosting, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewEntityNotFoundError("job_posting", id)
	}
	return &j, nil
}

func (s *Store) ListOpenJobs(_ context.Context, limit int) ([]*models.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.JobPosting
	for _, id := range sortedKeys(s.jobs) {
		j := s.jobs[id]
		if !j.IsOpen() {
			continue
		}
		out = append(out, &j)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CandidatesNeedingEmbedding(_ context.Context, limit int) ([]*models.CandidateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.CandidateProfile
	for _, id := range sortedKeys(s.candidates) {
		c := s.candidates[id]
		if s.embedded[vectorKey{models.EntityCandidate, id}] == c.ContentHash() {
			continue
		}
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) JobsNeedingEmbedding(_ context.Context, limit int) ([]*models.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.JobPosting
	for _, id := range sortedKeys(s.jobs) {
		j := s.jobs[id]
		if !j.IsOpen() || s.embedded[vectorKey{models.EntityJobPosting, id}] == j.ContentHash() {
			continue
		}
		out = append(out, &j)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkEmbedded records the content hash the current vector was built from. An empty hash
// clears the marker.
func (s *Store) MarkEmbedded(_ context.Context, entityType models.EntityType, id, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contentHash == "" {
		delete(s.embedded, vectorKey{entityType, id})
		return nil
	}
	s.embedded[vectorKey{entityType, id}] = contentHash
	return nil
}

// --- evaluation ledger ---

func (s *Store) UpsertEvaluation(_ context.Context, rec *models.EvaluationRecord) error {
	s.mu.Lock()
	s.evaluations[pairKey{rec.CandidateID, rec.JobPostingID}] = *rec
	s.mu.Unlock()
	return nil
}

func (s *Store) GetEvaluation(_ context.Context, candidateID, jobPostingID string) (*models.EvaluationRecord, error) {
	s.mu.RLock()
	rec, ok := s.evaluations[pairKey{candidateID, jobPostingID}]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) UnevaluatedCandidates(_ context.Context, jobPostingID string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, id := range sortedKeys(s.candidates) {
		if _, ok := s.evaluations[pairKey{id, jobPostingID}]; ok {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) DeleteEvaluationsForCandidate(_ context.Context, candidateID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k := range s.evaluations {
		if k.candidateID == candidateID {
			delete(s.evaluations, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteEvaluationsForJob(_ context.Context, jobPostingID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k := range s.evaluations {
		if k.jobPostingID == jobPostingID {
			delete(s.evaluations, k)
			n++
		}
	}
	return n, nil
}

// CountEvaluations returns the number of stored evaluation records.
func (s *Store) CountEvaluations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.evaluations)
}

// --- preferences & applications ---

func (s *Store) GetPreference(_ context.Context, candidateID string) (*models.AutoApplyPreference, error) {
	s.mu.RLock()
	p, ok := s.preferences[candidateID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) SavePreference(_ context.Context, pref *models.AutoApplyPreference) error {
	s.mu.Lock()
	s.preferences[pref.CandidateID] = *pref
	s.mu.Unlock()
	return nil
}

func (s *Store) ApplicationExists(_ context.Context, candidateID, jobPostingID string) (bool, error) {
	s.mu.RLock()
	_, ok := s.applications[pairKey{candidateID, jobPostingID}]
	s.mu.RUnlock()
	return ok, nil
}

func (s *Store) CountApplicationsSince(_ context.Context, candidateID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countApplicationsLocked(candidateID, since), nil
}

func (s *Store) countApplicationsLocked(candidateID string, since time.Time) int {
	n := 0
	for k, app := range s.applications {
		if k.candidateID == candidateID && !app.CreatedAt.Before(since) {
			n++
		}
	}
	return n
}

func (s *Store) CreateApplication(_ context.Context, app *models.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertApplicationLocked(app)
}

// CreateApplicationWithinLimit holds the write lock across the count and the insert.
func (s *Store) CreateApplicationWithinLimit(_ context.Context, app *models.ApplicationRecord, since time.Time, maxPerDay int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[pairKey{app.CandidateID, app.JobPostingID}]; ok {
		return apperrors.NewDuplicateApplicationError(app.CandidateID, app.JobPostingID)
	}
	if s.countApplicationsLocked(app.CandidateID, since) >= maxPerDay {
		return apperrors.NewDailyLimitReachedError(app.CandidateID, maxPerDay)
	}
	return s.insertApplicationLocked(app)
}

func (s *Store) insertApplicationLocked(app *models.ApplicationRecord) error {
	key := pairKey{app.CandidateID, app.JobPostingID}
	if _, ok := s.applications[key]; ok {
		return apperrors.NewDuplicateApplicationError(app.CandidateID, app.JobPostingID)
	}
	cp := *app
	cp.MatchReasons = append([]string(nil), app.MatchReasons...)
	s.applications[key] = cp
	return nil
}

func (s *Store) ListApplications(_ context.Context, candidateID string) ([]*models.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ApplicationRecord
	for k, app := range s.applications {
		if k.candidateID == candidateID {
			a := app
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- runs ---

func (s *Store) CreateRun(_ context.Context, run *models.RunRecord) error {
	s.mu.Lock()
	s.runs[run.ID] = cloneRun(run)
	s.mu.Unlock()
	return nil
}

func (s *Store) UpdateRun(_ context.Context, run *models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return apperrors.NewEntityNotFoundError("matching_run", run.ID)
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *Store) GetRun(_ context.Context, id string) (*models.RunRecord, error) {
	s.mu.RLock()
	r, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewEntityNotFoundError("matching_run", id)
	}
	return &r, nil
}

func cloneRun(r *models.RunRecord) models.RunRecord {
	cp := *r
	cp.Errors = append([]string(nil), r.Errors...)
	return cp
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
