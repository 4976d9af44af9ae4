package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/ragassist/internal/chat"
	"github.com/Veraticus/ragassist/internal/config"
	"github.com/Veraticus/ragassist/internal/conversation"
	"github.com/Veraticus/ragassist/internal/ratelimit"
	"github.com/Veraticus/ragassist/internal/render"
	"github.com/Veraticus/ragassist/internal/serving"
)

// components holds everything both surfaces share.
type components struct {
	store        *conversation.PersistentStore
	limiter      *ratelimit.Limiter
	orchestrator *render.Orchestrator
	closers      []func() error
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			slog.Warn("Failed to close component", slog.Any("error", err))
		}
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, endpoint serving.Endpoint) (*components, error) {
	c := &components{}

	// 1. Session store, restored from the configured backend
	store, closeStore, err := buildStore(cfg.Session)
	if err != nil {
		return nil, err
	}
	c.store = store
	if closeStore != nil {
		c.closers = append(c.closers, closeStore)
	}

	restored, err := store.Restore()
	if err != nil {
		c.Close()
		return nil, err
	}
	if restored > 0 {
		slog.InfoContext(ctx, "Restored sessions", slog.Int("count", restored))
	}

	// 2. Conversation controller, throttled per session when configured
	controllerOpts := []chat.Option{chat.WithMaxTokens(cfg.Endpoint.MaxTokens)}
	if cfg.Session.RateLimitBurst > 0 {
		c.limiter = ratelimit.New(cfg.Session.RateLimitBurst, cfg.Session.RateLimitRefill)
		controllerOpts = append(controllerOpts, chat.WithLimiter(c.limiter))
	}

	controller, err := chat.NewController(endpoint, controllerOpts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	// 3. Render pass orchestrator
	c.orchestrator, err = render.NewOrchestrator(store, controller, cfg.UI,
		render.WithEndpointInfo(cfg.Endpoint.Name, cfg.Endpoint.Provider))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return c, nil
}

// buildEndpoint creates the serving endpoint client for the configured provider.
func buildEndpoint(ctx context.Context, cfg config.EndpointConfig) (serving.Endpoint, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := serving.NewGeminiClient(ctx, serving.GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Name,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, nil

	case config.ProviderDatabricks:
		client, err := serving.NewDatabricksClient(serving.Config{
			Host:     cfg.Host,
			Token:    cfg.Token,
			Endpoint: cfg.Name,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create databricks client: %w", err)
		}
		return client, nil
	}

	return nil, fmt.Errorf("unsupported endpoint provider %q", cfg.Provider)
}

// buildStore creates the session store for the configured backend. The
// returned close function may be nil.
func buildStore(cfg config.SessionConfig) (*conversation.PersistentStore, func() error, error) {
	switch cfg.Store {
	case config.StoreFile:
		return conversation.NewPersistentStore(cfg.Window, conversation.NewFilePersistence(cfg.Path)), nil, nil

	case config.StoreSQLite:
		db, err := conversation.NewSQLitePersistence(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return conversation.NewPersistentStore(cfg.Window, db), db.Close, nil

	case config.StoreMemory, "":
		return conversation.NewPersistentStore(cfg.Window, nil), nil, nil
	}

	return nil, nil, fmt.Errorf("unsupported session store %q", cfg.Store)
}
