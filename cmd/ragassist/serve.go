package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/ragassist/internal/config"
	"github.com/Veraticus/ragassist/internal/conversation"
	"github.com/Veraticus/ragassist/internal/serving"
	"github.com/Veraticus/ragassist/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			endpoint, err := buildEndpoint(cmd.Context(), cfg.Endpoint)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, endpoint)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides RAGASSIST_ADDR)")
	return cmd
}

// serve runs the HTTP server, session cleanup and periodic saving until ctx
// is done or one of them fails.
func serve(ctx context.Context, cfg *config.Config, endpoint serving.Endpoint) error {
	c, err := initializeComponents(ctx, cfg, endpoint)
	if err != nil {
		return err
	}
	defer c.Close()

	server, err := web.NewServer(c.orchestrator,
		web.WithSessionStats(c.store.Stats),
		web.WithShutdownTimeout(cfg.Server.ShutdownTimeout))
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "ragassist starting",
		slog.String("version", version),
		slog.String("endpoint", cfg.Endpoint.Name),
		slog.String("provider", cfg.Endpoint.Provider),
		slog.String("session_store", cfg.Session.Store))

	cleanupOpts := []conversation.CleanupOption{conversation.WithCleanupInterval(cfg.Session.CleanupInterval)}
	if c.limiter != nil {
		cleanupOpts = append(cleanupOpts, conversation.WithStaleCleaner("rate_limit", c.limiter))
	}
	cleanup := conversation.NewCleanupService(c.store.Store, cleanupOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		return cleanup.Run(gctx)
	})
	if cfg.Session.Store != config.StoreMemory {
		g.Go(func() error {
			return c.store.RunPeriodicSave(gctx, cfg.Session.SaveInterval)
		})
	}

	err = g.Wait()
	slog.Info("Shutdown complete")
	return err
}
