package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/khabaroff/apikeys-dashboard/src/logging"
	"github.com/khabaroff/apikeys-dashboard/src/metrics"
)

// ActiveKeyCounter is satisfied by KeyRegistry
type ActiveKeyCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// KeyStatsService periodically publishes the active key count
type KeyStatsService struct {
	counter  ActiveKeyCounter
	metrics  metrics.Recorder
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// NewKeyStatsService creates a new stats service. A non-positive interval disables it.
func NewKeyStatsService(counter ActiveKeyCounter, recorder metrics.Recorder, interval time.Duration) *KeyStatsService {
	return &KeyStatsService{
		counter:  counter,
		metrics:  recorder,
		interval: interval,
		done:     make(chan struct{}),
		logger:   logging.NewLogger("key_stats"),
	}
}

// Start refreshes once and then on every tick until ctx ends or Stop is called
func (s *KeyStatsService) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info().Msg("Key stats service is disabled")
		return
	}

	s.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("Key stats service stopped")
				return
			case <-s.done:
				s.logger.Info().Msg("Key stats service stopped")
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()

	s.logger.Info().Dur("interval", s.interval).Msg("Key stats service started")
}

// Stop stops the refresh loop. Safe to call more than once.
func (s *KeyStatsService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Refresh counts active keys and updates the gauge
func (s *KeyStatsService) Refresh(ctx context.Context) {
	n, err := s.counter.CountActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count active keys")
		return
	}
	s.metrics.SetActiveKeys(n)
	s.logger.Debug().Int("active_keys", n).Msg("Active key count refreshed")
}
