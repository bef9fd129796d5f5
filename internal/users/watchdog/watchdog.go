// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package watchdog polls the session validation endpoint from a client and
drives a graceful forced logout once the server reports the session gone.

# State Machine

	Idle --mounted--> Polling --check_invalid--> Transitioning --logout_done--> LoggedOut
	  any non-terminal state --unmounted--> Stopped

Transport failures keep the machine in Polling: only an explicit non-2xx
answer from the server logs the user out.

# Concurrency

Run owns the state. Checks execute on their own goroutines and report back
over a channel, so a slow check never delays the timers. Checks may overlap;
the first invalid result seen while Polling stops both timers before any
other result is read, so the logout sequence runs at most once.
*/
package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/storefront/internal/platform/constants"
)

// LoginPath is where the client lands after a forced logout.
const LoginPath = "/login?reason=" + constants.SessionExpiredReason

// Checker asks the server whether the current session is still valid.
type Checker interface {
	// Check returns (true, nil) for a valid session, (false, nil) for an
	// explicit rejection and a non-nil error when the server was not reached.
	Check(ctx context.Context) (bool, error)
}

// Actions are the client side effects of a forced logout.
type Actions interface {
	// ShowOverlay displays the blocking "session expired" notice.
	ShowOverlay(ctx context.Context)
	// SignOut discards local credentials without contacting the server.
	SignOut(ctx context.Context) error
	// Navigate moves the client to path.
	Navigate(ctx context.Context, path string)
}

// Config holds the watchdog timings. Zero fields take the defaults.
type Config struct {
	InitialDelay  time.Duration
	Interval      time.Duration
	SettleDelay   time.Duration
	DwellDelay    time.Duration
	NavigateDelay time.Duration
	CheckTimeout  time.Duration
	LoginPath     string
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		InitialDelay:  2 * time.Second,
		Interval:      60 * time.Second,
		SettleDelay:   100 * time.Millisecond,
		DwellDelay:    3 * time.Second,
		NavigateDelay: 100 * time.Millisecond,
		CheckTimeout:  15 * time.Second,
		LoginPath:     LoginPath,
	}
}

func (cfg Config) withDefaults() Config {
	defaults := DefaultConfig()
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaults.InitialDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaults.SettleDelay
	}
	if cfg.DwellDelay <= 0 {
		cfg.DwellDelay = defaults.DwellDelay
	}
	if cfg.NavigateDelay <= 0 {
		cfg.NavigateDelay = defaults.NavigateDelay
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = defaults.CheckTimeout
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaults.LoginPath
	}
	return cfg
}

type checkResult struct {
	valid bool
	err   error
}

// Watchdog is a single-use session monitor. Create a new one per mount.
type Watchdog struct {
	checker Checker
	actions Actions
	config  Config
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// New constructs a [Watchdog] in the Idle state.
func New(checker Checker, actions Actions, config Config, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		checker: checker,
		actions: actions,
		config:  config.withDefaults(),
		logger:  logger,
		state:   Idle,
	}
}

// State returns the current state.
func (watchdog *Watchdog) State() State {
	watchdog.mu.Lock()
	defer watchdog.mu.Unlock()
	return watchdog.state
}

func (watchdog *Watchdog) apply(event Event) State {
	watchdog.mu.Lock()
	defer watchdog.mu.Unlock()

	next := Next(watchdog.state, event)
	if next != watchdog.state {
		watchdog.logger.Debug("watchdog_state_changed",
			slog.String("from", watchdog.state.String()),
			slog.String("to", next.String()),
			slog.String("event", event.String()),
		)
	}
	watchdog.state = next
	return next
}

/*
Run mounts the watchdog and blocks until it reaches a terminal state.

Description: The first check fires after InitialDelay and then every
Interval. Cancelling ctx tears the watchdog down at any point: timers stop,
pending actions are skipped and in-flight check results are dropped.

Returns:
  - State: LoggedOut or Stopped
*/
func (watchdog *Watchdog) Run(ctx context.Context) State {
	if watchdog.apply(EventMounted) != Polling {
		return watchdog.State()
	}

	done := make(chan struct{})
	defer close(done)

	results := make(chan checkResult)

	initial := time.NewTimer(watchdog.config.InitialDelay)
	ticker := time.NewTicker(watchdog.config.Interval)
	stopTimers := func() {
		initial.Stop()
		ticker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			stopTimers()
			return watchdog.apply(EventUnmounted)

		case <-initial.C:
			watchdog.launch(ctx, results, done)

		case <-ticker.C:
			watchdog.launch(ctx, results, done)

		case result := <-results:
			switch {
			case result.err != nil:
				watchdog.logger.Warn("watchdog_check_failed", slog.String("error", result.err.Error()))
				watchdog.apply(EventCheckFailed)
			case result.valid:
				watchdog.apply(EventCheckValid)
			default:
				if watchdog.apply(EventCheckInvalid) == Transitioning {
					stopTimers()
					return watchdog.logout(ctx)
				}
			}
		}
	}
}

// launch starts one check unless the latch is set.
func (watchdog *Watchdog) launch(ctx context.Context, results chan<- checkResult, done <-chan struct{}) {
	if watchdog.State() != Polling {
		return
	}

	// The check outlives teardown; its result is simply not read.
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), watchdog.config.CheckTimeout)

	go func() {
		defer cancel()

		valid, err := watchdog.checker.Check(checkCtx)
		select {
		case results <- checkResult{valid: valid, err: err}:
		case <-done:
		}
	}()
}

// logout runs the overlay, sign-out and navigation sequence.
func (watchdog *Watchdog) logout(ctx context.Context) State {
	watchdog.logger.Info("watchdog_session_expired")

	watchdog.actions.ShowOverlay(ctx)

	if !sleep(ctx, watchdog.config.SettleDelay+watchdog.config.DwellDelay) {
		return watchdog.apply(EventUnmounted)
	}

	if err := watchdog.actions.SignOut(ctx); err != nil {
		watchdog.logger.Warn("watchdog_sign_out_failed", slog.String("error", err.Error()))
	}

	if !sleep(ctx, watchdog.config.NavigateDelay) {
		return watchdog.apply(EventUnmounted)
	}

	watchdog.actions.Navigate(ctx, watchdog.config.LoginPath)
	return watchdog.apply(EventLogoutDone)
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
