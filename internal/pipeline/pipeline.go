// Package pipeline assembles the matching components from configuration. Both the worker
// manager and matchctl build on it.
package pipeline

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"automatch-workers/internal/common/config"
	"automatch-workers/internal/common/database"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
	"automatch-workers/internal/matching/autoapply"
	"automatch-workers/internal/matching/embedding"
	"automatch-workers/internal/matching/ledger"
	"automatch-workers/internal/matching/lifecycle"
	"automatch-workers/internal/matching/orchestrator"
	"automatch-workers/internal/matching/similarity"
	"automatch-workers/internal/models"
	"automatch-workers/internal/notify"
	"automatch-workers/internal/store/cache"
	"automatch-workers/internal/store/elastic"
	"automatch-workers/internal/store/memory"
	"automatch-workers/internal/store/postgres"
)

const (
	VectorStorePostgres      = "postgres"
	VectorStoreElasticsearch = "elasticsearch"
	VectorStoreMemory        = "memory"
)

// Store is everything the pipeline persists outside the vector index.
type Store interface {
	ledger.Store
	autoapply.Store
	orchestrator.Catalog
	orchestrator.RunStore
	lifecycle.Repository

	// CreateApplication records an application without applying the daily cap.
	CreateApplication(ctx context.Context, app *models.ApplicationRecord) error
}

// Connections are the external clients a pipeline may use. Nil fields are not configured.
type Connections struct {
	DB    *sql.DB
	Redis *redis.Client
	ES    *elasticsearch.Client
}

type Pipeline struct {
	Config       *config.Config
	Conns        Connections
	Store        Store
	Index        *similarity.Index
	Generator    *embedding.Generator
	Ledger       *ledger.Ledger
	Limiter      *autoapply.Limiter
	Lifecycle    *lifecycle.Service
	Orchestrator *orchestrator.Orchestrator
	Notifier     *notify.Notifier

	logger logger.Logger
}

// Connect opens the clients the configuration asks for, retrying each with backoff. The
// memory vector store needs no connections.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (Connections, error) {
	var conns Connections
	if cfg.Matching.VectorStore == VectorStoreMemory {
		return conns, nil
	}

	db, err := database.OpenPostgres(cfg.Database.Postgres, database.PostgresPool(cfg.Database.Postgres, cfg.Matching.Workers))
	if err != nil {
		return conns, apperrors.NewDatabaseConnectionFailedError(err)
	}
	err = RetryWithBackoff(ctx, func() error { return database.PingPostgres(ctx, db) },
		15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		_ = db.Close()
		if !apperrors.IsFatal(err) {
			err = apperrors.NewDatabaseConnectionFailedError(err)
		}
		return conns, err
	}
	conns.DB = db
	log.Info("PostgreSQL connected successfully", nil)

	if rdb := database.OpenRedis(cfg.Database.Redis); rdb != nil {
		err = RetryWithBackoff(ctx, func() error { return database.PingRedis(ctx, rdb) }, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			log.Warn("redis unavailable, caches disabled", map[string]interface{}{"error": err.Error()})
			_ = rdb.Close()
		} else {
			conns.Redis = rdb
			log.Info("Redis connected successfully", nil)
		}
	}

	if cfg.Matching.VectorStore == VectorStoreElasticsearch {
		var es *elasticsearch.Client
		err = RetryWithBackoff(ctx, func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return database.ClusterReady(ctx, es)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			_ = conns.Close()
			return Connections{}, apperrors.NewElasticsearchConnectionFailedError(err)
		}
		conns.ES = es
		log.Info("Elasticsearch connected successfully", nil)
	}

	return conns, nil
}

// Close releases the SQL and Redis clients.
func (c Connections) Close() error {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return stderrors.Join(errs...)
}

type Option func(*options)

type options struct {
	provider embedding.Provider
}

// WithProvider replaces the configured embedding provider.
func WithProvider(p embedding.Provider) Option {
	return func(o *options) { o.provider = p }
}

// New wires every component on top of conns. A missing embedding provider does not stop
// construction: runs fail fatally instead, and preference or lifecycle operations keep
// working.
func New(ctx context.Context, cfg *config.Config, conns Connections, log logger.Logger, opts ...Option) (*Pipeline, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pipeline{Config: cfg, Conns: conns, logger: log}

	vectors, err := p.buildStores(ctx)
	if err != nil {
		return nil, err
	}

	p.Index = similarity.NewIndex(vectors, cfg.Embedding.Dimension, log)
	p.Ledger = ledger.New(p.Store, log)

	provider := o.provider
	if provider == nil {
		provider, err = p.configuredProvider(ctx)
		if err != nil {
			return nil, err
		}
	}
	provider = embedding.NewCachedProvider(provider, conns.Redis, time.Duration(cfg.Embedding.CacheTTL)*time.Second, log)
	p.Generator = embedding.NewGenerator(provider, p.Index, log)

	p.Limiter = autoapply.NewLimiter(
		p.Store,
		autoapply.NewThrottle(config.GetDuration(cfg.AutoApply.SubmissionDelay)),
		autoapply.Defaults{
			MinScoreThreshold:     cfg.AutoApply.DefaultMinScore,
			MaxApplicationsPerDay: cfg.AutoApply.DefaultMaxPerDay,
		},
		log,
	)

	p.Notifier, err = notify.NewFromConfig(ctx, cfg.Notifications, log)
	if err != nil {
		return nil, err
	}

	var candidates orchestrator.CandidateLoader = p.Store
	var profileCache lifecycle.ProfileCache
	if conns.Redis != nil && cfg.Matching.ProfileCacheTTL > 0 {
		loader := cache.NewCandidateLoader(conns.Redis, time.Duration(cfg.Matching.ProfileCacheTTL)*time.Second, p.Store, log)
		candidates = loader
		profileCache = loader
	}

	p.Lifecycle = lifecycle.NewService(p.Store, p.Ledger, p.Index, profileCache, log)
	p.Orchestrator = orchestrator.New(orchestrator.Deps{
		Catalog:    p.Store,
		Candidates: candidates,
		Runs:       p.Store,
		Ledger:     p.Ledger,
		Index:      p.Index,
		Generator:  p.Generator,
		Limiter:    p.Limiter,
		Notifier:   p.Notifier,
	}, log)

	return p, nil
}

func (p *Pipeline) configuredProvider(ctx context.Context) (embedding.Provider, error) {
	cfg := p.Config.Embedding
	provider, err := embedding.NewProvider(ctx, cfg, p.logger)
	if err == nil {
		return provider, nil
	}
	if !apperrors.IsFatal(err) {
		return nil, err
	}
	p.logger.Warn("embedding provider not configured, matching runs will fail", map[string]interface{}{
		"provider": cfg.Provider,
		"error":    err.Error(),
	})
	return embedding.NewUnconfigured(err, cfg.Model), nil
}

func (p *Pipeline) buildStores(ctx context.Context) (similarity.Store, error) {
	cfg := p.Config
	switch cfg.Matching.VectorStore {
	case VectorStoreMemory:
		p.Store = memory.NewStore()
		return memory.NewVectorStore(), nil

	case VectorStorePostgres, "":
		if p.Conns.DB == nil {
			return nil, apperrors.NewDatabaseConnectionFailedError(fmt.Errorf("postgres is not connected"))
		}
		p.Store = postgres.New(p.Conns.DB, p.logger)
		return postgres.NewEmbeddingStore(p.Conns.DB), nil

	case VectorStoreElasticsearch:
		if p.Conns.DB == nil || p.Conns.ES == nil {
			return nil, apperrors.NewElasticsearchConnectionFailedError(fmt.Errorf("postgres and elasticsearch must both be connected"))
		}
		p.Store = postgres.New(p.Conns.DB, p.logger)
		vs := elastic.NewVectorStore(p.Conns.ES, cfg.Database.Elasticsearch.EmbeddingIndex)
		if err := vs.EnsureIndex(ctx, cfg.Embedding.Dimension); err != nil {
			return nil, err
		}
		return vs, nil

	default:
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown vector store %q", cfg.Matching.VectorStore))
	}
}

// Migrate creates the relational schema. It is a no-op for the memory store.
func (p *Pipeline) Migrate(ctx context.Context) error {
	if p.Conns.DB == nil {
		return nil
	}
	return postgres.Migrate(ctx, p.Conns.DB, p.Config.Embedding.Dimension)
}

// Ready pings every connected backend.
func (p *Pipeline) Ready(ctx context.Context) error {
	if p.Conns.DB != nil {
		if err := database.PingPostgres(ctx, p.Conns.DB); err != nil {
			return err
		}
	}
	if p.Conns.Redis != nil {
		if err := database.PingRedis(ctx, p.Conns.Redis); err != nil {
			return err
		}
	}
	if p.Conns.ES != nil {
		if err := database.ClusterReady(ctx, p.Conns.ES); err != nil {
			return err
		}
	}
	return nil
}

// RunOptions returns the configured run bounds for trigger.
func (p *Pipeline) RunOptions(trigger models.RunTrigger) orchestrator.Options {
	return orchestrator.OptionsFromConfig(p.Config.Matching, trigger)
}
