package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RefreshScheduler re-imports the snapshot directory on a cron schedule so
// a long-running server keeps serving fresh resolution data.
type RefreshScheduler struct {
	cron     *cron.Cron
	snapshot *SnapshotService
	dir      string
	spec     string
	logger   *slog.Logger

	mu      sync.Mutex
	entryID cron.EntryID
	lastRun time.Time
	lastErr error
}

// NewRefreshScheduler creates a scheduler that imports dir per spec (a
// standard five-field cron expression).
func NewRefreshScheduler(snapshot *SnapshotService, dir, spec string, logger *slog.Logger) *RefreshScheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RefreshScheduler{
		cron:     cron.New(),
		snapshot: snapshot,
		dir:      dir,
		spec:     spec,
		logger:   logger.With("component", "refresh"),
	}
}

// Start registers the refresh job and starts the cron loop.
func (s *RefreshScheduler) Start() error {
	id, err := s.cron.AddFunc(s.spec, s.run)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entryID = id
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("snapshot refresh scheduled", "spec", s.spec, "dir", s.dir)
	return nil
}

// Stop stops the cron loop and waits for a running refresh to finish.
func (s *RefreshScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("snapshot refresh stopped")
}

// LastRun reports when the most recent refresh ran and how it ended.
func (s *RefreshScheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *RefreshScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := s.snapshot.ImportDir(ctx, s.dir)

	s.mu.Lock()
	s.lastRun = time.Now().UTC()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("snapshot refresh failed", "dir", s.dir, "error", err)
		return
	}
	s.logger.Info("snapshot refreshed", "devices", summary.Devices, "policies", summary.Policies)
}
