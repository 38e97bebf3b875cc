// Package cache fronts candidate profile reads with Redis. Cache failures degrade to direct
// reads and are never surfaced to callers.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/models"
)

const profileKeyPrefix = "candidate:profile:"

// CandidateSource is the backing store.
type CandidateSource interface {
	GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error)
}

type CandidateLoader struct {
	redis  *redis.Client
	ttl    time.Duration
	source CandidateSource
	logger logger.Logger
}

func NewCandidateLoader(rdb *redis.Client, ttl time.Duration, source CandidateSource, log logger.Logger) *CandidateLoader {
	return &CandidateLoader{
		redis:  rdb,
		ttl:    ttl,
		source: source,
		logger: logger.Component(log, "profile-cache"),
	}
}

func ProfileKey(candidateID string) string {
	return profileKeyPrefix + candidateID
}

func (l *CandidateLoader) GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error) {
	if l.redis == nil || l.ttl <= 0 {
		return l.source.GetCandidate(ctx, id)
	}

	val, err := l.redis.Get(ctx, ProfileKey(id)).Result()
	switch {
	case err == nil:
		var c models.CandidateProfile
		if err := json.Unmarshal([]byte(val), &c); err == nil {
			return &c, nil
		}
		l.logger.Warn("discarding undecodable cached profile", map[string]interface{}{"candidateId": id})
	case !stderrors.Is(err, redis.Nil):
		l.logger.Warn("profile cache read failed", map[string]interface{}{
			"candidateId": id,
			"error":       err.Error(),
		})
	}

	c, err := l.source.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(c); err == nil {
		if err := l.redis.Set(ctx, ProfileKey(id), data, l.ttl).Err(); err != nil {
			l.logger.Warn("profile cache write failed", map[string]interface{}{
				"candidateId": id,
				"error":       err.Error(),
			})
		}
	}
	return c, nil
}

// Evict removes the cached profile after an update.
func (l *CandidateLoader) Evict(ctx context.Context, candidateID string) error {
	if l.redis == nil {
		return nil
	}
	return l.redis.Del(ctx, ProfileKey(candidateID)).Err()
}
