package embedding

import (
	"context"
	"time"

	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/common/metrics"
	"automatch-workers/internal/matching/similarity"
	"automatch-workers/internal/models"
)

// Generator embeds entities and upserts the result into the similarity index.
type Generator struct {
	provider Provider
	index    *similarity.Index
	logger   logger.Logger
	now      func() time.Time
}

func NewGenerator(provider Provider, index *similarity.Index, log logger.Logger) *Generator {
	return &Generator{
		provider: provider,
		index:    index,
		logger:   logger.Component(log, "embedding"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EmbedCandidate generates and stores the candidate's vector with its metadata snapshot.
func (g *Generator) EmbedCandidate(ctx context.Context, c *models.CandidateProfile) (*models.EmbeddingVector, error) {
	now := g.now()
	v, err := g.embed(ctx, models.EntityCandidate, c.ID, CandidateText(c))
	if err != nil {
		return nil, err
	}
	v.ContentHash = c.ContentHash()
	v.Metadata = models.EmbeddingMetadata{
		Skills:          c.Skills,
		Location:        c.Location,
		ExperienceYears: c.ExperienceYears(now),
	}
	return g.store(ctx, v)
}

// EmbedJob generates and stores the job's vector. Job metadata carries its must-have skills.
func (g *Generator) EmbedJob(ctx context.Context, j *models.JobPosting) (*models.EmbeddingVector, error) {
	v, err := g.embed(ctx, models.EntityJobPosting, j.ID, JobText(j))
	if err != nil {
		return nil, err
	}
	v.ContentHash = j.ContentHash()
	v.Metadata = models.EmbeddingMetadata{
		Skills:   j.SkillsOfType(models.RequirementMustHave),
		Location: j.Location,
	}
	return g.store(ctx, v)
}

func (g *Generator) embed(ctx context.Context, entityType models.EntityType, id, text string) (*models.EmbeddingVector, error) {
	vec, err := g.provider.Embed(ctx, text)
	if err != nil {
		metrics.EmbeddingsGenerated.WithLabelValues(string(entityType), "failed").Inc()
		if apperrors.IsFatal(err) {
			return nil, err
		}
		return nil, apperrors.NewEmbeddingGenerationFailedError(id, err)
	}
	return &models.EmbeddingVector{
		EntityType: entityType,
		EntityID:   id,
		Vector:     vec,
		Model:      g.provider.Model(),
		UpdatedAt:  g.now(),
	}, nil
}

func (g *Generator) store(ctx context.Context, v *models.EmbeddingVector) (*models.EmbeddingVector, error) {
	if err := g.index.UpsertEmbedding(ctx, v); err != nil {
		metrics.EmbeddingsGenerated.WithLabelValues(string(v.EntityType), "failed").Inc()
		return nil, err
	}
	metrics.EmbeddingsGenerated.WithLabelValues(string(v.EntityType), "stored").Inc()
	g.logger.Debug("embedding stored", map[string]interface{}{
		"entityType": string(v.EntityType),
		"entityId":   v.EntityID,
		"model":      v.Model,
	})
	return v, nil
}
