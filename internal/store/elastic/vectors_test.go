package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeTransport answers every request with the next canned response.
type fakeTransport struct {
	requests  []recordedRequest
	responses []fakeResponse
	err       error
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	f.requests = append(f.requests, recordedRequest{Method: req.Method, Path: req.URL.Path, Body: body})
	if f.err != nil {
		return nil, f.err
	}

	resp := fakeResponse{status: http.StatusOK, body: `{}`}
	if len(f.responses) > 0 {
		resp, f.responses = f.responses[0], f.responses[1:]
	}
	return &http.Response{
		StatusCode: resp.status,
		Status:     http.StatusText(resp.status),
		Header:     http.Header{"X-Elastic-Product": []string{"Elasticsearch"}, "Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(resp.body)),
		Request:    req,
	}, nil
}

func newTestStore(t *testing.T, transport *fakeTransport) *VectorStore {
	t.Helper()
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{"http://es.test:9200"},
		Transport:     transport,
		DisableRetry:  true,
		EnableMetrics: false,
	})
	require.NoError(t, err)
	return NewVectorStore(client, "match-embeddings")
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	tr := &fakeTransport{responses: []fakeResponse{
		{status: http.StatusNotFound, body: ``},
		{status: http.StatusOK, body: `{"acknowledged":true}`},
	}}
	s := newTestStore(t, tr)

	require.NoError(t, s.EnsureIndex(context.Background(), 768))
	require.Len(t, tr.requests, 2)
	assert.Equal(t, http.MethodHead, tr.requests[0].Method)
	assert.Equal(t, http.MethodPut, tr.requests[1].Method)
	assert.Contains(t, tr.requests[1].Body, `"dims": 768`)
	assert.Contains(t, tr.requests[1].Body, `"similarity": "cosine"`)
}

func TestEnsureIndex_ExistingIndexIsLeftAlone(t *testing.T) {
	tr := &fakeTransport{responses: []fakeResponse{{status: http.StatusOK}}}
	s := newTestStore(t, tr)

	require.NoError(t, s.EnsureIndex(context.Background(), 768))
	assert.Len(t, tr.requests, 1)
}

func TestUpsert_UsesEntityScopedDocumentID(t *testing.T) {
	tr := &fakeTransport{responses: []fakeResponse{{status: http.StatusCreated, body: `{"result":"created"}`}}}
	s := newTestStore(t, tr)

	err := s.Upsert(context.Background(), &models.EmbeddingVector{
		EntityType: models.EntityCandidate,
		EntityID:   "cand-1",
		Vector:     []float32{0.1, 0.2},
		Metadata:   models.EmbeddingMetadata{Skills: []string{"Go"}, ExperienceYears: 3},
	})
	require.NoError(t, err)
	require.Len(t, tr.requests, 1)
	assert.Equal(t, "/match-embeddings/_doc/candidate:cand-1", tr.requests[0].Path)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(tr.requests[0].Body), &doc))
	assert.Equal(t, "cand-1", doc.EntityID)
	assert.Equal(t, []float32{0.1, 0.2}, doc.Embedding)
}

func TestGet(t *testing.T) {
	tr := &fakeTransport{responses: []fakeResponse{
		{status: http.StatusOK, body: `{"found":true,"_source":{"entity_type":"job_posting","entity_id":"job-1","embedding":[1,0],"skills":["Go"],"content_hash":"h"}}`},
		{status: http.StatusNotFound, body: `{"found":false}`},
	}}
	s := newTestStore(t, tr)

	v, err := s.Get(context.Background(), models.EntityJobPosting, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v.Vector)
	assert.Equal(t, "h", v.ContentHash)

	_, err = s.Get(context.Background(), models.EntityJobPosting, "job-2")
	assert.ErrorIs(t, err, apperrors.ErrEmbeddingNotFound)
}

func TestNearest_ConvertsScoresAndThresholds(t *testing.T) {
	tr := &fakeTransport{responses: []fakeResponse{{status: http.StatusOK, body: `{
		"hits": {"hits": [
			{"_score": 0.95, "_source": {"entity_id": "cand-1", "skills": ["Go"], "location": "Lisbon", "experience_years": 5}},
			{"_score": 0.80, "_source": {"entity_id": "cand-2"}},
			{"_score": 0.70, "_source": {"entity_id": "cand-3"}}
		]}
	}`}}}
	s := newTestStore(t, tr)

	matches, err := s.Nearest(context.Background(), models.EntityCandidate, []float32{1, 0}, 0.5, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "cand-1", matches[0].EntityID)
	assert.InDelta(t, 0.9, matches[0].Similarity, 1e-9)
	assert.InDelta(t, 0.6, matches[1].Similarity, 1e-9)
	assert.Equal(t, 5, matches[0].Metadata.ExperienceYears)

	require.Len(t, tr.requests, 1)
	assert.Equal(t, "/match-embeddings/_search", tr.requests[0].Path)

	var q struct {
		Knn struct {
			K             int            `json:"k"`
			NumCandidates int            `json:"num_candidates"`
			Filter        map[string]any `json:"filter"`
		} `json:"knn"`
		Size int `json:"size"`
	}
	require.NoError(t, json.Unmarshal([]byte(tr.requests[0].Body), &q))
	assert.Equal(t, 5, q.Knn.K)
	assert.Equal(t, minNumCandidates, q.Knn.NumCandidates)
	assert.Equal(t, map[string]any{"term": map[string]any{"entity_type": "candidate"}}, q.Knn.Filter)
}

func TestNearest_ErrorResponse(t *testing.T) {
	tr := &fakeTransport{responses: []fakeResponse{{status: http.StatusBadRequest, body: `{"error":"bad knn"}`}}}
	s := newTestStore(t, tr)

	_, err := s.Nearest(context.Background(), models.EntityCandidate, []float32{1, 0}, 0, 5)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSearchQueryFailed, apperrors.CodeOf(err))
	assert.False(t, apperrors.IsFatal(err))
}

func TestTransportFailureIsFatal(t *testing.T) {
	tr := &fakeTransport{err: errors.New("connection refused")}
	s := newTestStore(t, tr)

	_, err := s.Nearest(context.Background(), models.EntityCandidate, []float32{1, 0}, 0, 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	tr := &fakeTransport{responses: []fakeResponse{{status: http.StatusNotFound, body: `{"result":"not_found"}`}}}
	s := newTestStore(t, tr)

	require.NoError(t, s.Delete(context.Background(), models.EntityJobPosting, "job-1"))
	assert.Equal(t, http.MethodDelete, tr.requests[0].Method)
}
