package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/matching/ledger"
	"automatch-workers/internal/matching/similarity"
	"automatch-workers/internal/models"
	"automatch-workers/internal/store/memory"
)

type evictRecorder struct {
	evicted []string
}

func (e *evictRecorder) Evict(_ context.Context, id string) error {
	e.evicted = append(e.evicted, id)
	return nil
}

type harness struct {
	store   *memory.Store
	vectors *memory.VectorStore
	ledger  *ledger.Ledger
	cache   *evictRecorder
	svc     *Service
}

func newHarness(t *testing.T) *harness {
	log := logger.NewTestLogger(t)
	h := &harness{
		store:   memory.NewStore(),
		vectors: memory.NewVectorStore(),
		cache:   &evictRecorder{},
	}
	h.ledger = ledger.New(h.store, log)
	h.svc = NewService(h.store, h.ledger, similarity.NewIndex(h.vectors, 2, log), h.cache, log)
	return h
}

func (h *harness) embed(t *testing.T, entityType models.EntityType, id, hash string) {
	ctx := context.Background()
	require.NoError(t, h.vectors.Upsert(ctx, &models.EmbeddingVector{EntityType: entityType, EntityID: id, Vector: []float32{1, 0}}))
	require.NoError(t, h.store.MarkEmbedded(ctx, entityType, id, hash))
}

func TestUpdateCandidateProfile_SkillChangeInvalidatesEveryEvaluation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c := &models.CandidateProfile{ID: "cand-1", Skills: []string{"Go"}}
	res, err := h.svc.UpdateCandidateProfile(ctx, c)
	require.NoError(t, err)
	assert.True(t, res.Created)
	h.embed(t, models.EntityCandidate, "cand-1", c.ContentHash())

	for _, job := range []string{"job-1", "job-2", "job-3"} {
		require.NoError(t, h.ledger.MarkEvaluated(ctx, "cand-1", job, false, nil, nil))
	}
	require.NoError(t, h.ledger.MarkEvaluated(ctx, "cand-2", "job-1", false, nil, nil))

	res, err = h.svc.UpdateCandidateProfile(ctx, &models.CandidateProfile{ID: "cand-1", Skills: []string{"Go", "Rust"}})
	require.NoError(t, err)
	assert.Equal(t, Result{Invalidated: true, EmbeddingDropped: true}, res)

	assert.Equal(t, 1, h.store.CountEvaluations())
	assert.Zero(t, h.vectors.Len())
	pending, err := h.store.CandidatesNeedingEmbedding(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "cand-1", pending[0].ID)
	assert.Equal(t, []string{"cand-1", "cand-1"}, h.cache.evicted)
}

func TestUpdateCandidateProfile_NonMaterialChangeKeepsEvaluations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.UpdateCandidateProfile(ctx, &models.CandidateProfile{ID: "cand-1", FullName: "Ana", Skills: []string{"Go", "SQL"}})
	require.NoError(t, err)
	require.NoError(t, h.ledger.MarkEvaluated(ctx, "cand-1", "job-1", true, nil, nil))

	res, err := h.svc.UpdateCandidateProfile(ctx, &models.CandidateProfile{ID: "cand-1", FullName: "Ana Silva", Skills: []string{"sql", "go"}})
	require.NoError(t, err)
	assert.False(t, res.Invalidated)
	assert.Equal(t, 1, h.store.CountEvaluations())
}

func TestUpdateCandidateProfile_RequiresID(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.UpdateCandidateProfile(context.Background(), &models.CandidateProfile{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateJobPosting_RequirementChangeInvalidatesJob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	job := &models.JobPosting{ID: "job-1", Title: "Backend", Requirements: []models.Requirement{{Skill: "Go", Type: models.RequirementMustHave}}}
	res, err := h.svc.UpdateJobPosting(ctx, job)
	require.NoError(t, err)
	assert.True(t, res.Created)
	h.embed(t, models.EntityJobPosting, "job-1", job.ContentHash())

	require.NoError(t, h.ledger.MarkEvaluated(ctx, "cand-1", "job-1", true, nil, nil))
	require.NoError(t, h.ledger.MarkEvaluated(ctx, "cand-1", "job-2", true, nil, nil))

	res, err = h.svc.UpdateJobPosting(ctx, &models.JobPosting{ID: "job-1", Title: "Backend", Requirements: []models.Requirement{
		{Skill: "Go", Type: models.RequirementMustHave},
		{Skill: "Kafka", Type: models.RequirementMustHave},
	}})
	require.NoError(t, err)
	assert.True(t, res.Invalidated)
	assert.Equal(t, 1, h.store.CountEvaluations())
	assert.Zero(t, h.vectors.Len())

	stored, err := h.store.GetJobPosting(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOpen, stored.Status)
}

func TestUpdateJobPosting_DescriptionChangeKeepsLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.UpdateJobPosting(ctx, &models.JobPosting{ID: "job-1", Title: "Backend", Description: "v1"})
	require.NoError(t, err)
	require.NoError(t, h.ledger.MarkEvaluated(ctx, "cand-1", "job-1", true, nil, nil))

	res, err := h.svc.UpdateJobPosting(ctx, &models.JobPosting{ID: "job-1", Title: "Backend", Description: "v2"})
	require.NoError(t, err)
	assert.False(t, res.Invalidated)
	assert.Equal(t, 1, h.store.CountEvaluations())
}

func TestUpdateJobPosting_RejectsUnknownRequirementType(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.UpdateJobPosting(context.Background(), &models.JobPosting{ID: "job-1", Requirements: []models.Requirement{{Skill: "Go", Type: "required"}}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCloseJobPosting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	job := &models.JobPosting{ID: "job-1", Title: "Backend"}
	_, err := h.svc.UpdateJobPosting(ctx, job)
	require.NoError(t, err)
	h.embed(t, models.EntityJobPosting, "job-1", job.ContentHash())

	res, err := h.svc.CloseJobPosting(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, res.EmbeddingDropped)
	assert.Zero(t, h.vectors.Len())

	open, err := h.store.ListOpenJobs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, open)

	pending, err := h.store.JobsNeedingEmbedding(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	res, err = h.svc.CloseJobPosting(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	_, err = h.svc.CloseJobPosting(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrEntityNotFound)
}
