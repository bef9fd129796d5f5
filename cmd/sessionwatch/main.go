// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command sessionwatch runs the session watchdog from a terminal.
//
// It polls the storefront validate endpoint with a stored access token and,
// once the server reports the session gone, prints the expiry notice,
// deletes the token file and prints the login URL.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/users/watchdog"
)

type options struct {
	server       string
	tokenFile    string
	interval     time.Duration
	initialDelay time.Duration
	verbose      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	defaults := watchdog.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "sessionwatch",
		Short: "Watch a storefront session and sign out when it expires",
		Long: `Poll the session validate endpoint and run the forced logout sequence
once the server reports the session as expired or missing.

Examples:
  sessionwatch --server https://api.storefront.shop --token-file ~/.storefront/token
  sessionwatch --interval 30s --initial-delay 1s`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", "http://localhost:8080", "API base URL")
	flags.StringVar(&opts.tokenFile, "token-file", "", "file holding the access token (required)")
	flags.DurationVar(&opts.interval, "interval", defaults.Interval, "time between checks")
	flags.DurationVar(&opts.initialDelay, "initial-delay", defaults.InitialDelay, "delay before the first check")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log state transitions")
	_ = cmd.MarkFlagRequired("token-file")

	return cmd
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	raw, err := os.ReadFile(opts.tokenFile)
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("token file %s is empty", opts.tokenFile)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName+"-sessionwatch"))

	config := watchdog.DefaultConfig()
	config.Interval = opts.interval
	config.InitialDelay = opts.initialDelay

	checker := watchdog.NewHTTPChecker(opts.server, token, &http.Client{Timeout: config.CheckTimeout})
	actions := &terminalActions{server: opts.server, tokenFile: opts.tokenFile, stdout: stdout, stderr: stderr}

	final := watchdog.New(checker, actions, config, logger).Run(ctx)
	logger.Info("sessionwatch_finished", slog.String("state", final.String()))

	return nil
}
