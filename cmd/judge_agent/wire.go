package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/hackathon-judge/internal/agent"
	"github.com/jonathan/hackathon-judge/internal/analysis"
	"github.com/jonathan/hackathon-judge/internal/config"
	"github.com/jonathan/hackathon-judge/internal/db"
	"github.com/jonathan/hackathon-judge/internal/docstore"
	"github.com/jonathan/hackathon-judge/internal/janitor"
	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/repo"
	"github.com/jonathan/hackathon-judge/internal/store"
	"github.com/jonathan/hackathon-judge/internal/tasks"
	"github.com/jonathan/hackathon-judge/internal/tts"
	"github.com/jonathan/hackathon-judge/internal/websearch"
	"github.com/redis/go-redis/v9"
)

// loadConfig reads the environment, overlays --config and the global flags, and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		merged := fileCfg.MergeWithDefaults(*cfg)
		cfg = &merged
	}

	if apiKeyFlag != "" {
		cfg.GeminiAPIKey = apiKeyFlag
	}
	if verbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore connects the project store selected by STORE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		return database, nil
	case config.StoreMongo:
		docs, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		return docs, nil
	default:
		log.Printf("[CRUD] using in-memory store; projects are lost on restart")
		return store.NewMemoryStore()
	}
}

// models holds the generative client and embedder, throttled when LLM_QPS is set.
type models struct {
	client   llm.Client
	embedder llm.Embedder
}

// Close releases the underlying model connection.
func (m *models) Close() {
	if err := m.client.Close(); err != nil {
		log.Printf("Warning: failed to close model client: %v", err)
	}
}

// newModels creates the Gemini client and embedder.
func newModels(ctx context.Context, cfg *config.Config) (*models, error) {
	if err := cfg.RequireGemini(); err != nil {
		return nil, err
	}

	llmConfig := llm.DefaultGeminiConfig().
		WithModel(llm.TierLite, cfg.ModelLite).
		WithModel(llm.TierStandard, cfg.ModelStandard).
		WithModel(llm.TierAdvanced, cfg.ModelAdvanced)
	if cfg.EmbeddingModel != "" {
		llmConfig.EmbeddingModel = cfg.EmbeddingModel
	}

	gemini, err := llm.NewGeminiClient(ctx, llmConfig, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	return &models{
		client:   llm.NewThrottledClient(gemini, cfg.LLMQPS, cfg.LLMBurst),
		embedder: llm.NewThrottledEmbedder(gemini.Embedder(), cfg.LLMQPS, cfg.LLMBurst),
	}, nil
}

// newSearchTool selects the web search tool used by the market research agent.
func newSearchTool(ctx context.Context, cfg *config.Config) (websearch.Tool, error) {
	if cfg.SearchTool == config.SearchGoogle {
		return websearch.NewGoogleSearch(ctx, cfg.GoogleSearchAPIKey, cfg.GoogleSearchCX)
	}
	return websearch.NewDuckDuckGo(), nil
}

// newSpeech returns the ElevenLabs synthesizer, or nil when no key is configured.
func newSpeech(cfg *config.Config) tts.Synthesizer {
	if cfg.ElevenLabsAPIKey == "" {
		return nil
	}
	speech := tts.NewElevenLabs(cfg.ElevenLabsAPIKey)
	if cfg.ElevenLabsVoiceID != "" {
		speech.VoiceID = cfg.ElevenLabsVoiceID
	}
	if cfg.ElevenLabsModel != "" {
		speech.Model = cfg.ElevenLabsModel
	}
	return speech
}

// workerOptions maps the configured timeouts onto worker bounds.
func workerOptions(cfg *config.Config) analysis.Options {
	opts := analysis.DefaultOptions()
	if d := cfg.WorkerRunTimeout.Std(); d > 0 {
		opts.RunTimeout = d
	}
	if d := cfg.ExternalCallTimeout.Std(); d > 0 {
		opts.CallTimeout = d
	}
	return opts
}

// workers are the two analysis workers and the clone workspace they share.
type workers struct {
	market    *analysis.MarketWorker
	code      *analysis.CodeWorker
	workspace *repo.Workspace
}

// newWorkers builds the market and code workers over st.
func newWorkers(ctx context.Context, cfg *config.Config, st store.Store, m *models) (*workers, error) {
	tool, err := newSearchTool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create search tool: %w", err)
	}
	opts := workerOptions(cfg)
	workspace := repo.NewWorkspace(cfg.CloneDir, repo.GitCloner{})

	return &workers{
		market:    analysis.NewMarketWorker(st, agent.New(m.client, tool), analysis.NewThemeMatcher(m.client), opts),
		code:      analysis.NewCodeWorker(st, workspace, m.embedder, m.client, opts),
		workspace: workspace,
	}, nil
}

// taskTimeout bounds one queued task; the worker's own run timeout fires first.
func taskTimeout(cfg *config.Config) time.Duration {
	return workerOptions(cfg).RunTimeout + time.Minute
}

// sweepMargin keeps the janitor clear of clone directories whose task is still running.
const sweepMargin = 10 * time.Minute

// janitorConfig never sweeps a clone directory younger than the longest task.
func janitorConfig(cfg *config.Config) janitor.Config {
	jc := janitor.DefaultConfig()
	if age := taskTimeout(cfg) + sweepMargin; age > jc.MaxAge {
		jc.MaxAge = age
	}
	return jc
}

// newRedisQueue connects to Redis and checks it is reachable.
func newRedisQueue(ctx context.Context, cfg *config.Config) (*tasks.RedisQueue, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return tasks.NewRedisQueue(client), client, nil
}

// newPool starts the in-process worker pool.
func newPool(cfg *config.Config, registry *tasks.Registry) *tasks.Pool {
	return tasks.NewPool(registry, tasks.PoolConfig{
		Workers:     cfg.WorkerPoolSize,
		QueueSize:   cfg.QueueSize,
		TaskTimeout: taskTimeout(cfg),
	})
}
