// Package schedule reloads the weather source on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Reloader replaces the record set with a fresh load.
type Reloader interface {
	Load(ctx context.Context) error
}

// ReloadScheduler runs Reloader.Load on a standard five-field cron expression
// (or a descriptor such as "@hourly"). A run still in progress when the next
// one is due causes that next run to be skipped.
type ReloadScheduler struct {
	cron     *cron.Cron
	reloader Reloader
	expr     string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewReloadScheduler creates a scheduler; timeout bounds each reload.
func NewReloadScheduler(expr string, reloader Reloader, timeout time.Duration, logger *slog.Logger) *ReloadScheduler {
	return &ReloadScheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		reloader: reloader,
		expr:     expr,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the reload job and starts the cron runner. Jobs run with a
// context derived from ctx.
func (s *ReloadScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.expr, func() { s.ExecuteReload(ctx) }); err != nil {
		return fmt.Errorf("schedule reload %q: %w", s.expr, err)
	}
	s.cron.Start()
	s.logger.Info("reload scheduler started", "schedule", s.expr)
	return nil
}

// ExecuteReload runs one reload, tagged with a request ID in the logs.
func (s *ReloadScheduler) ExecuteReload(ctx context.Context) {
	requestID := uuid.New().String()
	logger := s.logger.With("request_id", requestID)

	if ctx.Err() != nil {
		logger.Debug("skipping scheduled reload, shutting down")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger.Info("scheduled reload triggered")
	if err := s.reloader.Load(ctx); err != nil {
		logger.Error("scheduled reload failed", "error", err)
		return
	}
	logger.Info("scheduled reload completed")
}

// Stop stops the runner and waits for a running reload to finish.
func (s *ReloadScheduler) Stop() {
	<-s.cron.Stop().Done()
}
