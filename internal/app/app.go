// Package app wires stores, clients and services from configuration. The
// server and the CLI share it.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/agent"
	"github.com/Harshitk-cp/searchmind/internal/config"
	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/embedding"
	"github.com/Harshitk-cp/searchmind/internal/gscexport"
	"github.com/Harshitk-cp/searchmind/internal/llm"
	"github.com/Harshitk-cp/searchmind/internal/searchconsole"
	"github.com/Harshitk-cp/searchmind/internal/service"
	"github.com/Harshitk-cp/searchmind/internal/store"
)

type Services struct {
	Properties *service.PropertyService
	Sync       *service.SyncService
	Memory     *service.MemoryService
	Actions    *service.ActionService
	Turns      *service.TurnService
	SleepCycle *service.SleepCycle
	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error

	closers []func()
}

// Stores groups the persistence layer so tests can swap in fakes.
type Stores struct {
	Properties domain.PropertyStore
	Memories   domain.MemoryStore
	Actions    domain.ActionStore
	Skills     domain.SkillStore
	Analytics  domain.AnalyticsStore
}

func PostgresStores(db *pgxpool.Pool) Stores {
	return Stores{
		Properties: store.NewPropertyStore(db),
		Memories:   store.NewMemoryStore(db),
		Actions:    store.NewActionStore(db),
		Skills:     store.NewSkillStore(db),
		Analytics:  store.NewAnalyticsStore(db),
	}
}

// Clients are the external collaborators. Source and Inspector may be nil.
type Clients struct {
	LLM       domain.InferenceClient
	Embedding domain.EmbeddingClient
	Source    domain.AnalyticsSource
	Inspector domain.URLInspector
}

// New builds every service against Postgres using the configured providers.
func New(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) (*Services, error) {
	var closers []func()

	llmClient, err := llm.NewClient(ctx, config.LLMProvider(), config.LLMAPIKey(), config.LLMModel())
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}
	logger.Info("LLM client initialized", zap.String("provider", config.LLMProvider()))

	embeddingClient, err := embedding.NewClient(ctx, config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		return nil, fmt.Errorf("init embedding client: %w", err)
	}
	if size := config.EmbeddingCacheSize(); size > 0 {
		cached, err := embedding.NewCachedClient(embeddingClient, int64(size))
		if err != nil {
			return nil, fmt.Errorf("init embedding cache: %w", err)
		}
		embeddingClient = cached
		closers = append(closers, cached.Close)
	}
	logger.Info("Embedding client initialized",
		zap.String("provider", config.EmbeddingProvider()),
		zap.Int("cache_size", config.EmbeddingCacheSize()))

	clients := Clients{LLM: llmClient, Embedding: embeddingClient}
	closers = append(closers, wireSearchConsole(ctx, &clients, logger)...)

	svcs := Build(PostgresStores(db), clients, logger)
	svcs.Ping = db.Ping
	svcs.closers = append(closers, svcs.closers...)
	return svcs, nil
}

// wireSearchConsole attaches the analytics source and URL inspector. Both are
// optional: failures leave them unset and the features report themselves as
// unconfigured.
func wireSearchConsole(ctx context.Context, c *Clients, logger *zap.Logger) []func() {
	var closers []func()

	gsc, err := searchconsole.NewClient(ctx, config.GoogleCredentialsFile(), logger)
	if err != nil {
		logger.Warn("Search Console client unavailable, URL inspection disabled", zap.Error(err))
	} else {
		c.Inspector = gsc
	}

	switch source := config.SyncSource(); source {
	case "api":
		if gsc != nil {
			c.Source = gsc
		}
	case "bigquery":
		bq, err := gscexport.NewSource(ctx, config.BigQueryProject(), config.BigQueryDataset(), logger)
		if err != nil {
			logger.Warn("BigQuery export source unavailable", zap.Error(err))
			break
		}
		c.Source = bq
		closers = append(closers, func() {
			if err := bq.Close(); err != nil {
				logger.Warn("closing BigQuery client", zap.Error(err))
			}
		})
	case "none":
	default:
		logger.Warn("unknown sync source, analytics sync disabled", zap.String("source", source))
	}
	return closers
}

// Build assembles services from already constructed stores and clients.
func Build(stores Stores, clients Clients, logger *zap.Logger) *Services {
	memory := service.NewMemoryService(stores.Memories, clients.Embedding, logger)

	registry := agent.NewRegistry(&agent.Deps{
		LLM:           clients.LLM,
		Analytics:     stores.Analytics,
		Inspector:     clients.Inspector,
		Memories:      stores.Memories,
		Actions:       stores.Actions,
		Skills:        stores.Skills,
		Logger:        logger,
		MaxToolRounds: config.MaxToolRounds(),
	})

	executor := service.NewExecutor(registry, logger)
	executor.SetAgentTimeout(config.AgentTimeout())
	executor.SetMaxParallel(config.AgentMaxParallel())

	turns := service.NewTurnService(stores.Properties, stores.Analytics, memory, service.NewRouter(clients.LLM, logger), executor, logger)
	turns.SetTimeout(config.TurnTimeout())

	sleep := service.NewSleepCycle(stores.Memories, stores.Actions, stores.Skills, logger)
	sleep.SetInterval(config.SleepCycleInterval())

	return &Services{
		Properties: service.NewPropertyService(stores.Properties),
		Sync:       service.NewSyncService(stores.Properties, stores.Analytics, clients.Source, logger),
		Memory:     memory,
		Actions:    service.NewActionService(stores.Actions, stores.Skills),
		Turns:      turns,
		SleepCycle: sleep,
		Ping:       func(context.Context) error { return nil },
		closers:    []func(){memory.Wait},
	}
}

// Close waits for detached memory writes, then releases clients.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
