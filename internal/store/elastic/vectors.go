// Package elastic stores embeddings in an Elasticsearch dense_vector index and serves
// approximate kNN queries from it.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

const minNumCandidates = 100

type VectorStore struct {
	client *elasticsearch.Client
	index  string
}

func NewVectorStore(client *elasticsearch.Client, index string) *VectorStore {
	return &VectorStore{client: client, index: index}
}

type document struct {
	EntityType      string    `json:"entity_type"`
	EntityID        string    `json:"entity_id"`
	Embedding       []float32 `json:"embedding"`
	Skills          []string  `json:"skills"`
	Location        string    `json:"location"`
	ExperienceYears int       `json:"experience_years"`
	ContentHash     string    `json:"content_hash"`
	Model           string    `json:"model"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func docID(entityType models.EntityType, entityID string) string {
	return string(entityType) + ":" + entityID
}

// EnsureIndex creates the index with a cosine dense_vector mapping when it is missing.
func (s *VectorStore) EnsureIndex(ctx context.Context, dimension int) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"entity_type":      {"type": "keyword"},
				"entity_id":        {"type": "keyword"},
				"embedding":        {"type": "dense_vector", "dims": %d, "index": true, "similarity": "cosine"},
				"skills":           {"type": "keyword", "normalizer": "lowercase"},
				"location":         {"type": "keyword"},
				"experience_years": {"type": "integer"},
				"content_hash":     {"type": "keyword"},
				"model":            {"type": "keyword"},
				"updated_at":       {"type": "date"}
			}
		},
		"settings": {
			"analysis": {"normalizer": {"lowercase": {"type": "custom", "filter": ["lowercase"]}}}
		}
	}`, dimension)

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", s.index, readError(res))
	}
	return nil
}

func (s *VectorStore) Upsert(ctx context.Context, v *models.EmbeddingVector) error {
	body, err := json.Marshal(document{
		EntityType:      string(v.EntityType),
		EntityID:        v.EntityID,
		Embedding:       v.Vector,
		Skills:          v.Metadata.Skills,
		Location:        v.Metadata.Location,
		ExperienceYears: v.Metadata.ExperienceYears,
		ContentHash:     v.ContentHash,
		Model:           v.Model,
		UpdatedAt:       v.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal embedding document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(docID(v.EntityType, v.EntityID)),
		s.client.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewDatabaseInsertFailedError(s.index, fmt.Errorf("%s", readError(res)))
	}
	return nil
}

func (s *VectorStore) Get(ctx context.Context, entityType models.EntityType, entityID string) (*models.EmbeddingVector, error) {
	res, err := s.client.Get(s.index, docID(entityType, entityID), s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewEmbeddingNotFoundError(string(entityType), entityID)
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError("elasticsearch", fmt.Errorf("%s", readError(res)))
	}

	var payload struct {
		Found  bool     `json:"found"`
		Source document `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewSearchQueryFailedError("elasticsearch", err)
	}
	if !payload.Found {
		return nil, apperrors.NewEmbeddingNotFoundError(string(entityType), entityID)
	}
	return payload.Source.toVector(), nil
}

// Nearest runs a kNN query restricted to entityType. Elasticsearch reports cosine hits as
// (1 + cos) / 2, which is mapped back to cosine before thresholding.
func (s *VectorStore) Nearest(ctx context.Context, entityType models.EntityType, query []float32, minSimilarity float64, limit int) ([]models.SearchMatch, error) {
	numCandidates := limit * 10
	if numCandidates < minNumCandidates {
		numCandidates = minNumCandidates
	}

	body, err := json.Marshal(map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   query,
			"k":              limit,
			"num_candidates": numCandidates,
			"filter":         map[string]interface{}{"term": map[string]interface{}{"entity_type": string(entityType)}},
		},
		"size":    limit,
		"_source": []string{"entity_id", "skills", "location", "experience_years"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal knn query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError("elasticsearch", fmt.Errorf("%s", readError(res)))
	}

	var payload struct {
		Hits struct {
			Hits []struct {
				Score  float64  `json:"_score"`
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewSearchQueryFailedError("elasticsearch", err)
	}

	out := make([]models.SearchMatch, 0, len(payload.Hits.Hits))
	for _, hit := range payload.Hits.Hits {
		sim := 2*hit.Score - 1
		if sim <= minSimilarity {
			continue
		}
		out = append(out, models.SearchMatch{
			EntityID:   hit.Source.EntityID,
			Similarity: sim,
			Metadata: models.EmbeddingMetadata{
				Skills:          hit.Source.Skills,
				Location:        hit.Source.Location,
				ExperienceYears: hit.Source.ExperienceYears,
			},
		})
	}
	return out, nil
}

// Delete is idempotent: a missing document is not an error.
func (s *VectorStore) Delete(ctx context.Context, entityType models.EntityType, entityID string) error {
	res, err := s.client.Delete(
		s.index,
		docID(entityType, entityID),
		s.client.Delete.WithContext(ctx),
		s.client.Delete.WithRefresh("wait_for"),
	)
	if err != nil {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return apperrors.NewQueryExecutionFailedError("delete embedding", fmt.Errorf("%s", readError(res)))
	}
	return nil
}

func (d document) toVector() *models.EmbeddingVector {
	return &models.EmbeddingVector{
		EntityType: models.EntityType(d.EntityType),
		EntityID:   d.EntityID,
		Vector:     d.Embedding,
		Metadata: models.EmbeddingMetadata{
			Skills:          d.Skills,
			Location:        d.Location,
			ExperienceYears: d.ExperienceYears,
		},
		ContentHash: d.ContentHash,
		Model:       d.Model,
		UpdatedAt:   d.UpdatedAt,
	}
}

func readError(res *esapi.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Sprintf("%s: %s", res.Status(), strings.TrimSpace(string(raw)))
}
