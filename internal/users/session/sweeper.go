// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically calls [Manager.SweepExpired] in-process.
//
// The scheduled HTTP cleanup endpoint remains the primary trigger; the
// sweeper covers deployments without an external scheduler.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper. A non-positive interval disables it.
func NewSweeper(manager *Manager, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{manager: manager, interval: interval, logger: logger}
}

// Enabled reports whether Run will do anything.
func (sweeper *Sweeper) Enabled() bool {
	return sweeper.interval > 0
}

// Run sweeps on every tick until ctx is cancelled.
//
// A failed pass is already logged by the manager and retried on the next tick.
func (sweeper *Sweeper) Run(ctx context.Context) {
	if !sweeper.Enabled() {
		return
	}

	ticker := time.NewTicker(sweeper.interval)
	defer ticker.Stop()

	sweeper.logger.Info("session_sweeper_started", slog.Duration("interval", sweeper.interval))

	for {
		select {
		case <-ctx.Done():
			sweeper.logger.Info("session_sweeper_stopped")
			return
		case <-ticker.C:
			_, _ = sweeper.manager.SweepExpired(ctx)
		}
	}
}
