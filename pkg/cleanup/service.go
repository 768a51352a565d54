// Package cleanup enforces session retention: a background loop deletes
// terminal sessions once they age past the configured window.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/noesis-forge/noesis/pkg/config"
	"github.com/noesis-forge/noesis/pkg/forge"
)

// SessionDeleter is the store surface the sweeper needs. *store.Store
// satisfies it.
type SessionDeleter interface {
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time, statuses []string) (int64, error)
}

// Service periodically deletes crystallized and cancelled sessions older
// than the retention window. Sessions still awaiting input or mid-turn are
// never touched. Each sweep is a single cascading delete, idempotent and
// safe to run from multiple replicas.
type Service struct {
	config config.CleanupConfig
	store  SessionDeleter

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a retention sweeper.
func NewService(cfg config.CleanupConfig, store SessionDeleter) *Service {
	return &Service{config: cfg, store: store}
}

// Start launches the background sweep loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Retention sweeper started",
		"retention_days", s.config.RetentionDays,
		"interval", s.config.Interval)
}

// Stop signals the sweep loop to exit and waits for it to finish. Calling
// Stop on a sweeper that never started is a no-op.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Retention sweeper stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep removes terminal sessions created before the retention cutoff.
func (s *Service) sweep(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	count, err := s.store.DeleteSessionsBefore(ctx, cutoff, terminalStatuses())
	if err != nil {
		slog.Error("Retention sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention sweep removed expired sessions",
			"count", count, "cutoff", cutoff.Format(time.RFC3339))
	}
}

func terminalStatuses() []string {
	return []string{string(forge.StatusCrystallized), string(forge.StatusCancelled)}
}
