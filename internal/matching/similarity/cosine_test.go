package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

func TestCosine_SelfSimilarity(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.6, 0.8},
		{0.5, 0.5, 0.5, 0.5},
		{-0.3, 0.9, 0.1, -0.2, 0.25},
	}
	for _, v := range vectors {
		sim, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	}
}

func TestCosine_ZeroMagnitude(t *testing.T) {
	sim, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	sim, err = Cosine([]float32{1, 2, 3}, []float32{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)

	sim, err = Cosine(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDimensionMismatch)
	assert.True(t, apperrors.IsInputError(err))
}

func TestCosine_Orthogonal(t *testing.T) {
	sim, err := Cosine([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)

	sim, err = Cosine([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)
	assert.Equal(t, 0.0, Clamp01(sim))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 1.0, Clamp01(1.0000001))
	assert.Equal(t, 0.5, Clamp01(0.5))
}

func TestMatchesFilters(t *testing.T) {
	meta := models.EmbeddingMetadata{
		Skills:          []string{"Go", "PostgreSQL", "Kubernetes"},
		Location:        "Berlin, Germany",
		ExperienceYears: 6,
	}
	three, seven, ten := 3, 7, 10

	tests := []struct {
		name    string
		filters *models.SearchFilters
		want    bool
	}{
		{"nil filters", nil, true},
		{"experience in range", &models.SearchFilters{MinExperienceYears: &three, MaxExperienceYears: &seven}, true},
		{"experience too low", &models.SearchFilters{MinExperienceYears: &seven}, false},
		{"experience too high", &models.SearchFilters{MaxExperienceYears: &three}, false},
		{"all skills present", &models.SearchFilters{RequiredSkills: []string{"go", " POSTGRESQL "}}, true},
		{"one skill missing", &models.SearchFilters{RequiredSkills: []string{"Go", "Rust"}}, false},
		{"any location", &models.SearchFilters{Locations: []string{"Paris", "berlin"}}, true},
		{"no location", &models.SearchFilters{Locations: []string{"Paris"}}, false},
		{"combined", &models.SearchFilters{MaxExperienceYears: &ten, RequiredSkills: []string{"kubernetes"}, Locations: []string{"germany"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesFilters(meta, tt.filters))
		})
	}
}
