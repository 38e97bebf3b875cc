package similarity_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/matching/similarity"
	"automatch-workers/internal/models"
	"automatch-workers/internal/store/memory"
)

func newIndex(t *testing.T) *similarity.Index {
	return similarity.NewIndex(memory.NewVectorStore(), 3, logger.NewTestLogger(t))
}

func upsert(t *testing.T, ix *similarity.Index, et models.EntityType, id string, vec []float32, meta models.EmbeddingMetadata) {
	t.Helper()
	require.NoError(t, ix.UpsertEmbedding(context.Background(), &models.EmbeddingVector{
		EntityType: et,
		EntityID:   id,
		Vector:     vec,
		Metadata:   meta,
	}))
}

func TestIndex_UpsertReplacesVector(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	upsert(t, ix, models.EntityCandidate, "c1", []float32{1, 0, 0}, models.EmbeddingMetadata{})
	upsert(t, ix, models.EntityCandidate, "c1", []float32{0, 1, 0}, models.EmbeddingMetadata{Location: "Oslo"})

	v, err := ix.Get(ctx, models.EntityCandidate, "c1")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, v.Vector)
	assert.Equal(t, "Oslo", v.Metadata.Location)
	assert.False(t, v.UpdatedAt.IsZero())
}

func TestIndex_UpsertRejectsWrongDimension(t *testing.T) {
	ix := newIndex(t)
	err := ix.UpsertEmbedding(context.Background(), &models.EmbeddingVector{
		EntityType: models.EntityCandidate,
		EntityID:   "c1",
		Vector:     []float32{1, 2},
	})
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)

	err = ix.UpsertEmbedding(context.Background(), &models.EmbeddingVector{
		EntityType: "team",
		EntityID:   "c1",
		Vector:     []float32{1, 2, 3},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestIndex_SearchOrderingThresholdAndLimit(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	upsert(t, ix, models.EntityCandidate, "exact", []float32{1, 0, 0}, models.EmbeddingMetadata{})
	upsert(t, ix, models.EntityCandidate, "close", []float32{0.9, 0.1, 0}, models.EmbeddingMetadata{})
	upsert(t, ix, models.EntityCandidate, "far", []float32{0.2, 1, 0}, models.EmbeddingMetadata{})
	upsert(t, ix, models.EntityCandidate, "orthogonal", []float32{0, 0, 1}, models.EmbeddingMetadata{})
	upsert(t, ix, models.EntityJobPosting, "job", []float32{1, 0, 0}, models.EmbeddingMetadata{})

	got, err := ix.Search(ctx, models.EntityCandidate, []float32{1, 0, 0}, 0.1, 10, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].EntityID)
	assert.Equal(t, "close", got[1].EntityID)
	assert.Equal(t, "far", got[2].EntityID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}

	got, err = ix.Search(ctx, models.EntityCandidate, []float32{1, 0, 0}, 0.1, 2, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Threshold is exclusive.
	got, err = ix.Search(ctx, models.EntityCandidate, []float32{1, 0, 0}, 1.0, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndex_SearchPostFiltersWithOverfetch(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	// The best matches lack the filtered skill; the qualifying one ranks fourth.
	for i := 0; i < 3; i++ {
		upsert(t, ix, models.EntityCandidate, fmt.Sprintf("top-%d", i), []float32{1, float32(i) * 0.01, 0},
			models.EmbeddingMetadata{Skills: []string{"Java"}})
	}
	upsert(t, ix, models.EntityCandidate, "gopher", []float32{1, 0.2, 0},
		models.EmbeddingMetadata{Skills: []string{"Go"}, ExperienceYears: 4})

	filters := &models.SearchFilters{RequiredSkills: []string{"go"}}
	got, err := ix.Search(ctx, models.EntityCandidate, []float32{1, 0, 0}, 0, 1, filters)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gopher", got[0].EntityID)
}

func TestIndex_SearchInputValidation(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	_, err := ix.Search(ctx, models.EntityCandidate, []float32{1, 0}, 0, 5, nil)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)

	_, err = ix.Search(ctx, models.EntityCandidate, []float32{1, 0, 0}, 0, 0, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestIndex_Similarity(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	upsert(t, ix, models.EntityCandidate, "c1", []float32{1, 0, 0}, models.EmbeddingMetadata{})
	upsert(t, ix, models.EntityJobPosting, "j1", []float32{1, 0, 0}, models.EmbeddingMetadata{})
	upsert(t, ix, models.EntityJobPosting, "j2", []float32{-1, 0, 0}, models.EmbeddingMetadata{})

	sim, err := ix.Similarity(ctx, "c1", "j1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-6)

	sim, err = ix.Similarity(ctx, "c1", "j2")
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	_, err = ix.Similarity(ctx, "c1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrEmbeddingNotFound)
	assert.False(t, apperrors.IsFatal(err))
}

func TestIndex_Delete(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	upsert(t, ix, models.EntityJobPosting, "j1", []float32{1, 0, 0}, models.EmbeddingMetadata{})
	require.NoError(t, ix.Delete(ctx, models.EntityJobPosting, "j1"))
	require.NoError(t, ix.Delete(ctx, models.EntityJobPosting, "j1"))

	_, err := ix.Get(ctx, models.EntityJobPosting, "j1")
	assert.ErrorIs(t, err, apperrors.ErrEmbeddingNotFound)
}
