package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lyrasnap/internal/metrics"
	"lyrasnap/pkg/errors"
	"lyrasnap/pkg/logger"
)

const defaultStopTimeout = 2 * time.Minute

// Scheduler runs each registered worker on its own ticker
type Scheduler struct {
	workers     []Worker
	stopTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
	log         *logger.Logger
	started     bool
}

// NewScheduler creates a new worker scheduler. stopTimeout bounds how long Stop
// waits for an in-flight run; zero means two minutes.
func NewScheduler(stopTimeout time.Duration) *Scheduler {
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	return &Scheduler{
		stopTimeout: stopTimeout,
		log:         logger.Get().With("component", "scheduler"),
	}
}

// RegisterWorker adds a worker to the scheduler
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start runs every enabled worker immediately and then on each tick of its interval
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.Wrap(errors.ErrInternal, "scheduler already started")
	}
	for _, w := range s.workers {
		if w.Enabled() && w.Interval() <= 0 {
			return errors.Wrapf(errors.ErrInvalidInput, "worker %s has non-positive interval %v", w.Name(), w.Interval())
		}
	}

	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.log.Infow("Starting worker scheduler", "workers", len(s.workers))
	for _, w := range s.workers {
		if !w.Enabled() {
			s.log.Infow("Skipping disabled worker", "worker", w.Name())
			continue
		}
		s.wg.Add(1)
		go s.runWorker(w)
	}
	return nil
}

// Stop cancels all workers and waits for in-flight runs to return
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(s.stopTimeout):
		s.log.Warnw("Worker shutdown timed out", "timeout", s.stopTimeout)
		shutdownErr = errors.Wrapf(errors.ErrTimeout, "shutdown after %v", s.stopTimeout)
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

func (s *Scheduler) runWorker(w Worker) {
	defer s.wg.Done()

	ticker := time.NewTicker(w.Interval())
	defer ticker.Stop()

	s.executeWorker(w)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Infow("Worker stopping due to context cancellation", "worker", w.Name())
			return
		case <-ticker.C:
			s.executeWorker(w)
		}
	}
}

// executeWorker runs one iteration; errors and panics are logged and the next tick proceeds.
// Returned errors are tracked by the worker that produced them, so only panics reach the tracker here.
func (s *Scheduler) executeWorker(w Worker) {
	start := time.Now()
	var err error
	panicked := false

	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = fmt.Errorf("worker %s panicked: %v", w.Name(), r)
		}
		duration := time.Since(start)
		metrics.RecordWorkerExecution(w.Name(), duration, err)

		if hr, ok := w.(healthRecorder); ok {
			if err != nil {
				hr.RecordError(err, duration)
			} else {
				hr.RecordRun(duration)
			}
		}

		if panicked {
			s.log.ErrorWithContext(s.ctx, err, map[string]string{"worker": w.Name()})
			return
		}
		if err != nil && s.ctx.Err() == nil {
			s.log.Warnw("Worker execution failed", "worker", w.Name(), "duration", duration, "error", err)
			return
		}
		s.log.Debugw("Worker execution completed", "worker", w.Name(), "duration", duration)
	}()

	err = w.Run(s.ctx)
}

// GetWorkers returns a copy of the registered workers
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
