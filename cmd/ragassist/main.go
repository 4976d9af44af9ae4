// Package main provides the entry point for the ragassist chat front-end.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Veraticus/ragassist/internal/config"
)

// Version information set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

func runMain(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, explain(err))
		return 1
	}
	return 0
}

// explain turns startup errors into instructions for the operator.
func explain(err error) string {
	switch {
	case errors.Is(err, config.ErrMissingEndpoint):
		return fmt.Sprintf("Error: %s. Set it to the name of the model serving endpoint (for example in app.yaml) and restart.",
			config.ErrMissingEndpoint)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
