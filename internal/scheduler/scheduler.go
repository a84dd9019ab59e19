package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/repo"
)

// Reloader refreshes the live generation; it reports whether anything changed.
type Reloader interface {
	Reload() bool
}

// Registry is the live view the scheduler reads systems from and writes
// paused markers into.
type Registry interface {
	repo.StatusRegistry
	repo.GenerationSource
}

// Scheduler polls the live generation on a fixed tick and dispatches a probe
// for every active system whose interval has elapsed. Dispatched probes are
// not awaited by the loop.
type Scheduler struct {
	Logger   *zap.Logger
	Config   Reloader // optional
	Registry Registry
	Runner   *Runner
	Interval time.Duration
	now      func() time.Time

	// mu orders inflight.Add against Wait: no probe is added while a
	// drain is in progress.
	mu       sync.Mutex
	draining int
	inflight sync.WaitGroup
}

func New(
	logger *zap.Logger,
	cfg Reloader,
	reg Registry,
	runner *Runner,
	interval time.Duration,
) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		Logger:   logger,
		Config:   cfg,
		Registry: reg,
		Runner:   runner,
		Interval: interval,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled. The first tick happens immediately.
// Probes still running when Run returns keep going; use Wait to drain them.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("scheduler_stopped")
			return
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass and returns how many probes it dispatched.
func (s *Scheduler) Tick(ctx context.Context) int {
	if s.Config != nil {
		s.Config.Reload()
	}

	gen := s.Registry.Snapshot()
	now := s.now()
	dispatched := 0

	for _, id := range gen.IDs {
		sc := gen.Systems[id]
		rec, ok := gen.Status[id]
		if !ok {
			continue
		}
		if !sc.Active {
			if err := s.Registry.Update(id, repo.Paused()); err != nil && !errors.Is(err, repo.ErrNoSuchSystem) {
				s.Logger.Warn("scheduler_pause_error", zap.String("system_id", string(id)), zap.Error(err))
			}
			continue
		}
		if !Due(rec, sc.Interval, now) {
			continue
		}
		if s.dispatch(ctx, sc) {
			dispatched++
		}
	}
	return dispatched
}

// Wait blocks until every probe dispatched so far has finished. Ticks that
// run while Wait is blocked dispatch nothing; the skipped systems stay due
// and are picked up by the next tick after the drain.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	s.draining++
	s.mu.Unlock()

	s.inflight.Wait()

	s.mu.Lock()
	s.draining--
	s.mu.Unlock()
}

func (s *Scheduler) dispatch(ctx context.Context, sc domain.SystemConfig) bool {
	s.mu.Lock()
	if s.draining > 0 {
		s.mu.Unlock()
		s.Logger.Debug("scheduler_dispatch_skipped", zap.String("system_id", string(sc.ID)))
		return false
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		s.Runner.Probe(context.WithoutCancel(ctx), sc)
	}()
	return true
}

// Due reports whether a system with the given record needs probing at now.
func Due(rec domain.StatusRecord, interval time.Duration, now time.Time) bool {
	if rec.LastCheck == nil {
		return true
	}
	return now.Sub(*rec.LastCheck) > interval
}
