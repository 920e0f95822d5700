package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper expires overdue gates on a fixed interval. Expiries go through
// the state machine so they hold the same per-project locks as
// resolutions and confirmations. Each sweep is independent; a failing or
// panicking sweep is logged and the next tick runs normally.
type Sweeper struct {
	interval time.Duration
	machine  *StateMachine
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepInterval sets the time between sweeps. Defaults to one minute.
func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.interval = interval
	}
}

// NewSweeper creates a sweeper over the state machine.
func NewSweeper(machine *StateMachine, logger *zap.Logger, opts ...SweeperOption) (*Sweeper, error) {
	if machine == nil {
		return nil, errors.New("state machine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sweeper{
		interval: time.Minute,
		machine:  machine,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start begins the background sweep loop. Calling Start on a running
// sweeper is an error.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("sweeper is already running")
	}

	s.stopCh = make(chan struct{})
	s.running = true

	s.logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))

	go s.run()

	return nil
}

// Stop signals the sweep loop to exit. Idempotent.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.logger.Info("stopping expiry sweeper")
	s.running = false
	close(s.stopCh)

	return nil
}

func (s *Sweeper) run() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweeper goroutine panicked, recovering",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.safeSweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) safeSweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep panicked, continuing sweeper",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	s.Sweep()
}

// Sweep runs one expiry pass over both gate kinds.
func (s *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expiredDecisions, err := s.machine.ExpireOverdueDecisions(ctx)
	if err != nil {
		s.logger.Error("decision gate sweep failed", zap.Error(err))
	}

	expiredPayments, err := s.machine.ExpireOverduePayments(ctx)
	if err != nil {
		s.logger.Error("payment gate sweep failed", zap.Error(err))
	}

	if len(expiredDecisions) > 0 || len(expiredPayments) > 0 {
		s.logger.Info("expiry sweep completed",
			zap.Int("decision_gates", len(expiredDecisions)),
			zap.Int("payment_gates", len(expiredPayments)),
		)
	}
}
