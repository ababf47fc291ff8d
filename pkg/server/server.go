// Package server provides the public entry point for initializing the
// Counsel service.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/counseldesk/counsel/internal/api"
	"github.com/counseldesk/counsel/internal/api/handlers"
	"github.com/counseldesk/counsel/internal/api/middleware"
	"github.com/counseldesk/counsel/internal/assistant"
	"github.com/counseldesk/counsel/internal/auth"
	"github.com/counseldesk/counsel/internal/config"
	"github.com/counseldesk/counsel/internal/llm"
	"github.com/counseldesk/counsel/internal/store"
	"github.com/counseldesk/counsel/internal/telemetry"
	"github.com/counseldesk/counsel/pkg/contracts"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized Counsel service.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store backs case/client lookups and draft persistence.
	Store store.Store

	// Model is the generative model every assistant call goes through.
	Model contracts.Model

	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the service with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore, err := openStore(ctx, cfg.Storage, cfg.LLM.GCPProject)
	if err != nil {
		shutdown(ctx)
		return nil, err
	}

	if cfg.Storage.SeedFile != "" {
		if err := store.LoadSeed(ctx, dataStore, cfg.Storage.SeedFile); err != nil {
			log.Warn().Err(err).Str("file", cfg.Storage.SeedFile).Msg("Failed to load seed file")
		}
	}

	model, err := openModel(ctx, cfg.LLM)
	if err != nil {
		dataStore.Close()
		shutdown(ctx)
		return nil, err
	}
	log.Info().Str("model", model.Name()).Msg("Generative model initialized")

	// Assistant services
	asm := assistant.NewAssembler(dataStore, dataStore)
	gen := assistant.NewGenerator(model, cfg.Generation, cfg.LLM.Timeout)
	drafts := assistant.NewDraftService(gen, asm, dataStore)
	ext := assistant.NewExtractor(model, cfg.LLM.Timeout)

	// Auth
	chain := auth.NewProviderChain(
		auth.NewAPIKeyProvider(cfg.Auth.APIKeys, cfg.Auth.APIKeyRole),
		auth.NewUserTokenProvider(cfg.Auth.ServiceAccountSecret),
	)
	if !chain.Enabled() && cfg.Auth.RequireAuth {
		log.Warn().Msg("COUNSEL_REQUIRE_AUTH is set but no auth provider is configured; all API calls will be rejected")
	}
	authMW := middleware.NewAuthMiddleware(chain, cfg.Auth.RequireAuth)

	h := handlers.New(asm, gen, drafts, ext, cfg.IsDevelopment())
	router := api.NewRouter(cfg, h, authMW, dataStore)

	return &Server{
		Handler:      router,
		Store:        dataStore,
		Model:        model,
		Config:       cfg,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, gcpProject string) (store.Store, error) {
	switch cfg.Backend {
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.MaxConnections)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case "firestore":
		if gcpProject == "" {
			return nil, errors.New("COUNSEL_GCP_PROJECT is required for the firestore backend")
		}
		s, err := store.NewFirestoreStore(ctx, gcpProject)
		if err != nil {
			return nil, fmt.Errorf("open firestore store: %w", err)
		}
		return s, nil
	default:
		return store.NewMemoryStore(cfg.DataDir), nil
	}
}

func openModel(ctx context.Context, cfg config.LLMConfig) (contracts.Model, error) {
	switch cfg.Provider {
	case "gemini":
		return llm.NewGeminiModel(ctx, llm.GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			ModelName: cfg.ModelName,
		})
	case "vertex":
		return llm.NewGeminiModel(ctx, llm.GeminiConfig{
			Project:   cfg.GCPProject,
			Location:  cfg.GCPLocation,
			ModelName: cfg.ModelName,
		})
	case "openai":
		return llm.NewOpenAIModel(llm.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			ModelName: cfg.ModelName,
		})
	case "mock":
		return llm.NewMockModel(), nil
	}
	return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
}
