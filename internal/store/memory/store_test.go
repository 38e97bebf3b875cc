package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

func TestStore_ApplicationUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	app := &models.ApplicationRecord{ID: "a1", CandidateID: "c1", JobPostingID: "j1", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateApplication(ctx, app))

	dup := &models.ApplicationRecord{ID: "a2", CandidateID: "c1", JobPostingID: "j1", CreatedAt: time.Now().UTC()}
	err := s.CreateApplication(ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)

	apps, err := s.ListApplications(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, apps, 1)
	assert.Equal(t, "a1", apps[0].ID)
}

func TestStore_CreateApplicationWithinLimit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	old := &models.ApplicationRecord{ID: "a0", CandidateID: "c1", JobPostingID: "j0", CreatedAt: today.Add(-time.Hour)}
	require.NoError(t, s.CreateApplication(ctx, old))

	for i, job := range []string{"j1", "j2"} {
		app := &models.ApplicationRecord{ID: "a" + job, CandidateID: "c1", JobPostingID: job, CreatedAt: today.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.CreateApplicationWithinLimit(ctx, app, today, 2))
	}

	err := s.CreateApplicationWithinLimit(ctx, &models.ApplicationRecord{ID: "a3", CandidateID: "c1", JobPostingID: "j3", CreatedAt: today}, today, 2)
	assert.ErrorIs(t, err, apperrors.ErrDailyLimitReached)

	err = s.CreateApplicationWithinLimit(ctx, &models.ApplicationRecord{ID: "a4", CandidateID: "c1", JobPostingID: "j1", CreatedAt: today}, today, 5)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)

	// Other candidates have their own cap.
	require.NoError(t, s.CreateApplicationWithinLimit(ctx, &models.ApplicationRecord{ID: "b1", CandidateID: "c2", JobPostingID: "j3", CreatedAt: today}, today, 2))

	apps, err := s.ListApplications(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, apps, 3)
}

func TestStore_CreateApplicationWithinLimit_Concurrent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	today := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			app := &models.ApplicationRecord{ID: fmt.Sprintf("a%d", i), CandidateID: "c1", JobPostingID: fmt.Sprintf("j%d", i), CreatedAt: today}
			if err := s.CreateApplicationWithinLimit(ctx, app, today, 3); err == nil {
				mu.Lock()
				inserted++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperrors.ErrDailyLimitReached)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, inserted)
	n, err := s.CountApplicationsSince(ctx, "c1", today)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_EmbeddingStaleness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	c := &models.CandidateProfile{ID: "c1", Skills: []string{"Go"}}
	require.NoError(t, s.SaveCandidate(ctx, c))

	pending, err := s.CandidatesNeedingEmbedding(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, s.MarkEmbedded(ctx, models.EntityCandidate, "c1", c.ContentHash()))
	pending, err = s.CandidatesNeedingEmbedding(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	c.Skills = append(c.Skills, "Rust")
	require.NoError(t, s.SaveCandidate(ctx, c))
	pending, err = s.CandidatesNeedingEmbedding(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestStore_ClosedJobsAreNotListed(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.SaveJobPosting(ctx, &models.JobPosting{ID: "j1"}))
	require.NoError(t, s.SaveJobPosting(ctx, &models.JobPosting{ID: "j2", Status: models.JobStatusClosed}))

	open, err := s.ListOpenJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "j1", open[0].ID)

	pending, err := s.JobsNeedingEmbedding(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "j1", pending[0].ID)
}

func TestVectorStore_Nearest(t *testing.T) {
	vs := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, vs.Upsert(ctx, &models.EmbeddingVector{EntityType: models.EntityCandidate, EntityID: "a", Vector: []float32{1, 0}}))
	require.NoError(t, vs.Upsert(ctx, &models.EmbeddingVector{EntityType: models.EntityCandidate, EntityID: "b", Vector: []float32{1, 1}}))
	require.NoError(t, vs.Upsert(ctx, &models.EmbeddingVector{EntityType: models.EntityCandidate, EntityID: "c", Vector: []float32{0, 1}}))
	require.NoError(t, vs.Upsert(ctx, &models.EmbeddingVector{EntityType: models.EntityJobPosting, EntityID: "j", Vector: []float32{1, 0}}))

	got, err := vs.Nearest(ctx, models.EntityCandidate, []float32{1, 0}, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].EntityID)
	assert.Equal(t, "b", got[1].EntityID)

	_, err = vs.Get(ctx, models.EntityCandidate, "missing")
	assert.ErrorIs(t, err, apperrors.ErrEmbeddingNotFound)
}
