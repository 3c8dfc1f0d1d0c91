// Package scheduler runs the background poll loops. A failing or panicking
// cycle is logged and counted, and the loop carries on with the next one.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"league-tracker/internal/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type CycleFunc func(ctx context.Context) error

type Loop struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	run      CycleFunc
	clock    clockwork.Clock
	logger   zerolog.Logger
	metrics  metrics.TrackerMetrics
}

func NewLoop(name string, interval, timeout time.Duration, run CycleFunc, clock clockwork.Clock, logger zerolog.Logger, m metrics.TrackerMetrics) *Loop {
	return &Loop{
		name:     name,
		interval: interval,
		timeout:  timeout,
		run:      run,
		clock:    clock,
		logger:   logger.With().Str("loop", name).Logger(),
		metrics:  m,
	}
}

func (l *Loop) Name() string {
	return l.name
}

// Run starts a cycle right away and then waits interval after each one
// until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info().Dur("interval", l.interval).Msg("loop started")
	for {
		l.Cycle(ctx)

		select {
		case <-ctx.Done():
			l.logger.Info().Msg("loop stopped")
			return
		case <-l.clock.After(l.interval):
		}
	}
}

// Cycle runs one iteration under the cycle timeout.
func (l *Loop) Cycle(ctx context.Context) (err error) {
	start := l.clock.Now()
	cycleCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	defer func() {
		outcome := "ok"
		if r := recover(); r != nil {
			outcome = "panic"
			err = fmt.Errorf("cycle panicked: %v", r)
			l.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("cycle panicked")
		} else if err != nil {
			outcome = "error"
			l.logger.Error().Err(err).Msg("cycle failed")
		}

		elapsed := l.clock.Since(start)
		l.metrics.LoopCycle(l.name, outcome, elapsed)
		l.logger.Debug().Str("outcome", outcome).Dur("elapsed", elapsed).Msg("cycle finished")
	}()

	return l.run(cycleCtx)
}

// Runner owns the loops of the process.
type Runner struct {
	loops  []*Loop
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(logger zerolog.Logger, loops ...*Loop) *Runner {
	return &Runner{loops: loops, logger: logger}
}

// Start launches every loop. The loops outlive ctx and stop on Stop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return fmt.Errorf("loops already running")
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	for _, loop := range r.loops {
		r.wg.Add(1)
		go func(l *Loop) {
			defer r.wg.Done()
			l.Run(loopCtx)
		}(loop)
	}

	r.logger.Info().Int("loops", len(r.loops)).Msg("background loops started")
	return nil
}

// Stop cancels the loops and waits for running cycles to return, or for
// ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info().Msg("background loops stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for loops: %w", ctx.Err())
	}
}
