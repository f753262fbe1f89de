package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"courtbook/internal/booking"
)

// Completer is the engine operation the sweeper drives.
type Completer interface {
	AutoCompletePastReservations(ctx context.Context, now time.Time) (booking.SweepResult, error)
}

// SweeperConfig holds configuration for the completion sweeper.
type SweeperConfig struct {
	// Interval is how often past reservations are completed.
	Interval time.Duration
	// RunOnStart runs one sweep before the first tick.
	RunOnStart bool
	// Clock returns the sweep time. Nil means time.Now.
	Clock func() time.Time
}

// Sweeper periodically completes confirmed reservations that have ended.
type Sweeper struct {
	config    SweeperConfig
	completer Completer
	logger    *zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	lastRun time.Time
}

// NewSweeper creates a sweeper. Interval defaults to 15 minutes.
func NewSweeper(config SweeperConfig, completer Completer, logger *zerolog.Logger) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = 15 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	l := logger.With().Str("component", "sweeper").Logger()
	return &Sweeper{
		config:    config,
		completer: completer,
		logger:    &l,
		now:       config.Clock,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is done or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.config.Interval).Msg("sweeper started")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.sweep(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopped by context")
			return
		case <-s.stopCh:
			s.logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop stops the sweeper.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()
}

// RunNow performs a sweep immediately.
func (s *Sweeper) RunNow(ctx context.Context) (booking.SweepResult, error) {
	return s.sweep(ctx)
}

// LastRun returns when the last successful sweep finished.
func (s *Sweeper) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Sweeper) sweep(ctx context.Context) (booking.SweepResult, error) {
	now := s.now()
	res, err := s.completer.AutoCompletePastReservations(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
		return res, err
	}

	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()

	s.logger.Debug().Int64("completed", res.CompletedCount).Msg("sweep finished")
	return res, nil
}
