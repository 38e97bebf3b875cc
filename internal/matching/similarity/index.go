// Package similarity stores entity embeddings and answers nearest-neighbour queries over
// them.
package similarity

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/models"
)

// overfetchFactor widens the store query when post-filters will drop results.
const overfetchFactor = 4

// Store is a vector backend. Nearest must return matches with similarity strictly above
// minSimilarity, best first, at most limit entries. Get returns ErrEmbeddingNotFound for
// unknown entities.
type Store interface {
	Upsert(ctx context.Context, v *models.EmbeddingVector) error
	Get(ctx context.Context, entityType models.EntityType, entityID string) (*models.EmbeddingVector, error)
	Nearest(ctx context.Context, entityType models.EntityType, query []float32, minSimilarity float64, limit int) ([]models.SearchMatch, error)
	Delete(ctx context.Context, entityType models.EntityType, entityID string) error
}

// Index stores fixed-dimension embeddings and answers nearest-neighbour queries.
type Index struct {
	store     Store
	dimension int
	logger    logger.Logger
}

// NewIndex returns an Index over store. Vectors of any length other than dimension are rejected.
func NewIndex(store Store, dimension int, log logger.Logger) *Index {
	return &Index{
		store:     store,
		dimension: dimension,
		logger:    logger.Component(log, "similarity"),
	}
}

func (ix *Index) Dimension() int {
	return ix.dimension
}

// UpsertEmbedding replaces any stored vector for the entity.
func (ix *Index) UpsertEmbedding(ctx context.Context, v *models.EmbeddingVector) error {
	if v == nil || v.EntityID == "" {
		return apperrors.NewInvalidInputError("embedding entity id is required")
	}
	if !v.EntityType.Valid() {
		return apperrors.NewInvalidInputError(fmt.Sprintf("unknown entity type %q", v.EntityType))
	}
	if len(v.Vector) != ix.dimension {
		return apperrors.NewDimensionMismatchError(len(v.Vector), ix.dimension)
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now().UTC()
	}

	if err := ix.store.Upsert(ctx, v); err != nil {
		return err
	}

	ix.logger.Debug("embedding upserted", map[string]interface{}{
		"entityType": string(v.EntityType),
		"entityId":   v.EntityID,
	})
	return nil
}

// Get returns the stored vector for an entity.
func (ix *Index) Get(ctx context.Context, entityType models.EntityType, entityID string) (*models.EmbeddingVector, error) {
	return ix.store.Get(ctx, entityType, entityID)
}

// Delete removes the stored vector for an entity. Deleting a missing vector is not an error.
func (ix *Index) Delete(ctx context.Context, entityType models.EntityType, entityID string) error {
	return ix.store.Delete(ctx, entityType, entityID)
}

// Search returns entities of entityType ordered by descending cosine similarity to query,
// restricted to similarity > minSimilarity and truncated to limit after filtering.
func (ix *Index) Search(
	ctx context.Context,
	entityType models.EntityType,
	query []float32,
	minSimilarity float64,
	limit int,
	filters *models.SearchFilters,
) ([]models.SearchMatch, error) {
	ctx, span := otel.Tracer("similarity").Start(ctx, "similarity.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("entity_type", string(entityType)),
		attribute.Int("limit", limit),
	)

	if limit <= 0 {
		return nil, apperrors.NewInvalidInputError("search limit must be positive")
	}
	if len(query) != ix.dimension {
		return nil, apperrors.NewDimensionMismatchError(len(query), ix.dimension)
	}

	fetch := limit
	if !filters.Empty() {
		fetch = limit * overfetchFactor
	}

	raw, err := ix.store.Nearest(ctx, entityType, query, minSimilarity, fetch)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]models.SearchMatch, 0, limit)
	for _, m := range raw {
		if m.Similarity <= minSimilarity {
			continue
		}
		if !MatchesFilters(m.Metadata, filters) {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}

	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

// Similarity compares the stored candidate and job vectors, clamped to [0, 1].
func (ix *Index) Similarity(ctx context.Context, candidateID, jobPostingID string) (float64, error) {
	cand, err := ix.store.Get(ctx, models.EntityCandidate, candidateID)
	if err != nil {
		return 0, err
	}
	job, err := ix.store.Get(ctx, models.EntityJobPosting, jobPostingID)
	if err != nil {
		return 0, err
	}

	sim, err := Cosine(cand.Vector, job.Vector)
	if err != nil {
		return 0, err
	}
	return Clamp01(sim), nil
}
