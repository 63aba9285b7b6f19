package main

import (
	"context"
	"fmt"

	"github.com/akolanti/SecoursTech/internal/catalogue"
	"github.com/akolanti/SecoursTech/internal/config"
	"github.com/akolanti/SecoursTech/internal/customHttpClient"
	"github.com/akolanti/SecoursTech/internal/data/redisStore"
	"github.com/akolanti/SecoursTech/internal/data/store"
	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
	"github.com/akolanti/SecoursTech/internal/rag"
	"github.com/akolanti/SecoursTech/internal/rag/document"
	"github.com/akolanti/SecoursTech/internal/rag/llm"
	"github.com/akolanti/SecoursTech/internal/rag/llm/gemini"
	"github.com/akolanti/SecoursTech/internal/rag/llm/openaiLLM"
	"github.com/akolanti/SecoursTech/internal/session"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

// app holds everything the commands share. Stores fall back to memory when
// Redis is disabled or unreachable.
type app struct {
	settings  *config.Settings
	catalogue *catalogue.Catalogue
	documents document.Store
	pipeline  rag.Service
	messages  chatModel.MessageLog
	jobs      jobModel.JobStore
	sessions  *session.Manager
}

func loadSettings(opts logger_i.Options) (*config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	opts.Prod = settings.Log.Prod
	opts.File = settings.Log.File
	logger_i.InitWithOptions(opts)
	return settings, nil
}

func buildDocuments(settings *config.Settings) (*catalogue.Catalogue, document.Store, error) {
	cat, err := catalogue.Load(settings.Catalogue.File)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalogue: %w", err)
	}

	var docs document.Store = document.NewFileStore(settings.Documents.Root, config.DocumentMaxBytes)
	if settings.Documents.BaseURL != "" {
		docs, err = document.NewHTTPStore(settings.Documents.BaseURL, customHttpClient.NewClient(0), config.DocumentMaxBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("document store: %w", err)
		}
	}
	return cat, docs, nil
}

func buildProvider(ctx context.Context, settings *config.Settings) (llm.Provider, error) {
	client := customHttpClient.NewClient(0)
	switch settings.LLM.Provider {
	case config.LLMProviderOpenAI:
		return openaiLLM.NewOpenAIClient(settings.LLM.APIKey, settings.LLM.Model, settings.LLM.Timeout, client), nil
	default:
		return gemini.NewGeminiClient(ctx, settings.LLM.APIKey, settings.LLM.Model, settings.LLM.Timeout, client)
	}
}

func buildStores(ctx context.Context, settings *config.Settings) (chatModel.MessageLog, jobModel.JobStore) {
	logger := logger_i.NewLogger("main")
	if settings.Redis.Enabled {
		opts := redisStore.Options{Addr: settings.Redis.Addr, Password: settings.Redis.Password}
		messages, errMessages := store.GetRedisMessageLog(ctx, opts)
		jobs, errJobs := store.GetRedisJobStore(ctx, opts)
		if errMessages == nil && errJobs == nil {
			return messages, jobs
		}
		logger.Error("Redis stores are offline, using memory", "messages", errMessages, "jobs", errJobs)
	}
	return store.InitInMemoryMessageLog(), store.InitInMemoryJobStore()
}

func buildApp(ctx context.Context, settings *config.Settings) (*app, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cat, docs, err := buildDocuments(settings)
	if err != nil {
		return nil, err
	}
	provider, err := buildProvider(ctx, settings)
	if err != nil {
		return nil, err
	}

	fetcher := document.NewCachedFetcher(document.NewFetcher(docs), settings.Documents.CacheTTL)
	pipeline := rag.NewService(provider, fetcher, cat, rag.Options{
		Model:             settings.LLM.Model,
		DegradedThreshold: settings.Router.DegradedThreshold,
	})

	messages, jobs := buildStores(ctx, settings)
	return &app{
		settings:  settings,
		catalogue: cat,
		documents: docs,
		pipeline:  pipeline,
		messages:  messages,
		jobs:      jobs,
		sessions:  session.NewManager(pipeline, messages),
	}, nil
}
