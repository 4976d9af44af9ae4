package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ragassist/internal/config"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ragassist",
		Short: "Chat front-end for a hosted retrieval-augmented model serving endpoint",
		Long: `ragassist forwards questions to a hosted model serving endpoint and renders
the conversation, either in the browser (serve) or in the terminal (chat).

The endpoint is named by SERVING_ENDPOINT. Provider credentials come from
DATABRICKS_HOST / DATABRICKS_TOKEN or GEMINI_API_KEY.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")

	root.AddCommand(
		newServeCmd(opts),
		newChatCmd(opts),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionString())
		},
	}
}

func versionString() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("ragassist %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("ragassist %s\n", version)
}

// loadConfig loads configuration and installs the default logger.
func loadConfig(opts *rootOptions, logOut io.Writer, jsonLogs bool) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(logOut, handlerOpts)
	if jsonLogs {
		handler = slog.NewJSONHandler(logOut, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))

	return cfg, nil
}
