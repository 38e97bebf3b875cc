package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

// EmbeddingStore keeps vectors in a pgvector column and answers nearest-neighbour queries
// with the cosine distance operator.
type EmbeddingStore struct {
	db *sql.DB
}

func NewEmbeddingStore(db *sql.DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

func (s *EmbeddingStore) Upsert(ctx context.Context, v *models.EmbeddingVector) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (
			entity_type, entity_id, embedding, skills, location, experience_years,
			content_hash, model, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			skills = EXCLUDED.skills,
			location = EXCLUDED.location,
			experience_years = EXCLUDED.experience_years,
			content_hash = EXCLUDED.content_hash,
			model = EXCLUDED.model,
			updated_at = EXCLUDED.updated_at`,
		string(v.EntityType),
		v.EntityID,
		pgvector.NewVector(v.Vector),
		pq.Array(nonNil(v.Metadata.Skills)),
		v.Metadata.Location,
		v.Metadata.ExperienceYears,
		v.ContentHash,
		v.Model,
		v.UpdatedAt,
	)
	if err != nil {
		return insertError("embeddings", err)
	}
	return nil
}

func (s *EmbeddingStore) Get(ctx context.Context, entityType models.EntityType, entityID string) (*models.EmbeddingVector, error) {
	var (
		v   = models.EmbeddingVector{EntityType: entityType, EntityID: entityID}
		vec pgvector.Vector
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT embedding, skills, location, experience_years, content_hash, model, updated_at
		FROM embeddings
		WHERE entity_type = $1 AND entity_id = $2`,
		string(entityType), entityID,
	).Scan(&vec, pq.Array(&v.Metadata.Skills), &v.Metadata.Location, &v.Metadata.ExperienceYears, &v.ContentHash, &v.Model, &v.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewEmbeddingNotFoundError(string(entityType), entityID)
	}
	if err != nil {
		return nil, queryError("get embedding", err)
	}
	v.Vector = vec.Slice()
	return &v, nil
}

// Nearest orders by cosine distance and keeps rows whose similarity exceeds minSimilarity.
func (s *EmbeddingStore) Nearest(ctx context.Context, entityType models.EntityType, query []float32, minSimilarity float64, limit int) ([]models.SearchMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, 1 - (embedding <=> $1) AS similarity, skills, location, experience_years
		FROM embeddings
		WHERE entity_type = $2 AND 1 - (embedding <=> $1) > $3
		ORDER BY embedding <=> $1, entity_id
		LIMIT $4`,
		pgvector.NewVector(query), string(entityType), minSimilarity, limit,
	)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError("postgres", err)
	}
	defer rows.Close()

	var out []models.SearchMatch
	for rows.Next() {
		var m models.SearchMatch
		if err := rows.Scan(&m.EntityID, &m.Similarity, pq.Array(&m.Metadata.Skills), &m.Metadata.Location, &m.Metadata.ExperienceYears); err != nil {
			return nil, apperrors.NewSearchQueryFailedError("postgres", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewSearchQueryFailedError("postgres", err)
	}
	return out, nil
}

func (s *EmbeddingStore) Delete(ctx context.Context, entityType models.EntityType, entityID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE entity_type = $1 AND entity_id = $2`, string(entityType), entityID); err != nil {
		return queryError("delete embedding", err)
	}
	return nil
}
