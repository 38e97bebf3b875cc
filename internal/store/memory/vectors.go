// Package memory holds process-local stores used by tests and dry runs. They enforce the
// same uniqueness rules as the PostgreSQL schema.
package memory

import (
	"context"
	"sort"
	"sync"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/matching/similarity"
	"automatch-workers/internal/models"
)

type vectorKey struct {
	entityType models.EntityType
	entityID   string
}

// VectorStore is a brute-force cosine index.
type VectorStore struct {
	mu      sync.RWMutex
	vectors map[vectorKey]models.EmbeddingVector
}

func NewVectorStore() *VectorStore {
	return &VectorStore{vectors: make(map[vectorKey]models.EmbeddingVector)}
}

func (s *VectorStore) Upsert(_ context.Context, v *models.EmbeddingVector) error {
	cp := *v
	cp.Vector = append([]float32(nil), v.Vector...)
	cp.Metadata.Skills = append([]string(nil), v.Metadata.Skills...)

	s.mu.Lock()
	s.vectors[vectorKey{v.EntityType, v.EntityID}] = cp
	s.mu.Unlock()
	return nil
}

func (s *VectorStore) Get(_ context.Context, entityType models.EntityType, entityID string) (*models.EmbeddingVector, error) {
	s.mu.RLock()
	v, ok := s.vectors[vectorKey{entityType, entityID}]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewEmbeddingNotFoundError(string(entityType), entityID)
	}
	return &v, nil
}

func (s *VectorStore) Nearest(_ context.Context, entityType models.EntityType, query []float32, minSimilarity float64, limit int) ([]models.SearchMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SearchMatch
	for key, v := range s.vectors {
		if key.entityType != entityType {
			continue
		}
		sim, err := similarity.Cosine(query, v.Vector)
		if err != nil {
			continue
		}
		if sim <= minSimilarity {
			continue
		}
		out = append(out, models.SearchMatch{
			EntityID:   v.EntityID,
			Similarity: sim,
			Metadata:   v.Metadata,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].EntityID < out[j].EntityID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *VectorStore) Delete(_ context.Context, entityType models.EntityType, entityID string) error {
	s.mu.Lock()
	delete(s.vectors, vectorKey{entityType, entityID})
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored vectors.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}
