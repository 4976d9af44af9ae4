package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ragassist/internal/config"
	"github.com/Veraticus/ragassist/internal/identity"
	"github.com/Veraticus/ragassist/internal/serving"
	"github.com/Veraticus/ragassist/internal/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The terminal owns the screen, so logs are discarded.
			cfg, err := loadConfig(opts, io.Discard, false)
			if err != nil {
				return err
			}

			endpoint, err := buildEndpoint(cmd.Context(), cfg.Endpoint)
			if err != nil {
				return err
			}
			return chatInTerminal(cmd.Context(), cfg, endpoint, style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "Markdown style for answers (dark, light, notty)")
	return cmd
}

func chatInTerminal(ctx context.Context, cfg *config.Config, endpoint serving.Endpoint, style string) error {
	c, err := initializeComponents(ctx, cfg, endpoint)
	if err != nil {
		return err
	}
	defer c.Close()

	email := identity.Lookup(ctx, identity.Static(cfg.UI.UserEmail), nil, nil)

	if err := tui.Run(ctx, c.orchestrator, email, tui.WithGlamourStyle(style)); err != nil {
		return err
	}

	if cfg.Session.Store != config.StoreMemory {
		return c.store.Save()
	}
	return nil
}
