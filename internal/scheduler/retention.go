// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pruner deletes records older than a cutoff. store.InferenceLogs
// satisfies it.
type Pruner interface {
	DeleteInferenceLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionScheduler deletes inference logs once they are older than the
// retention window.
type RetentionScheduler struct {
	pruner        Pruner
	retention     time.Duration
	checkInterval time.Duration
	logger        *slog.Logger
	now           func() time.Time
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewRetentionScheduler creates a new retention scheduler
func NewRetentionScheduler(pruner Pruner, retention, checkInterval time.Duration, logger *slog.Logger) *RetentionScheduler {
	if checkInterval <= 0 {
		checkInterval = time.Hour
	}
	return &RetentionScheduler{
		pruner:        pruner,
		retention:     retention,
		checkInterval: checkInterval,
		logger:        logger,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the scheduler loop. It returns when ctx is done or Stop is
// called.
func (s *RetentionScheduler) Start(ctx context.Context) {
	s.logger.Info("starting retention scheduler", "retention", s.retention, "check_interval", s.checkInterval)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Run once immediately on start
	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("retention scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("retention scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler. It is safe to call more than once.
func (s *RetentionScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// RunOnce deletes everything older than the retention window.
func (s *RetentionScheduler) RunOnce(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.pruner.DeleteInferenceLogsBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("failed to prune inference logs", "error", err)
		}
		return
	}
	if deleted > 0 {
		s.logger.Info("pruned inference logs", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
}
