package service

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes records that expired before now.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// HousekeepingService periodically removes expired refresh tokens and
// verification codes so the tables do not grow without bound.
type HousekeepingService struct {
	Purgers  map[string]Purger
	Logger   *slog.Logger
	Interval time.Duration

	// Now is the clock. Nil means time.Now.
	Now func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service purging tokens and
// codes. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(tokens *TokenService, codes *VerificationService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Purgers: map[string]Purger{
			"refresh_tokens":     tokens,
			"verification_codes": codes,
		},
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs every purger once. A failing purger is logged and retried on
// the next tick, it never stops the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var total int64
	for name, p := range s.Purgers {
		n, err := p.PurgeExpired(ctx, now)
		if err != nil {
			s.Logger.Error("housekeeping purge failed", "table", name, "error", err)
			continue
		}
		s.Logger.Debug("housekeeping purge done", "table", name, "deleted", n)
		total += n
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", total)
}
