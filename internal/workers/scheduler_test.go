package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyrasnap/pkg/errors"
	"lyrasnap/pkg/logger"
)

type mockWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newMockWorker(name string, interval time.Duration, enabled bool) *mockWorker {
	return &mockWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
	}
}

func (m *mockWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&m.runCount, 1)
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return nil
}

func (m *mockWorker) runs() int {
	return int(atomic.LoadInt32(&m.runCount))
}

type countingTracker struct {
	captured int32
}

func (c *countingTracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	atomic.AddInt32(&c.captured, 1)
	return nil
}

func (c *countingTracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	return nil
}

func (c *countingTracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
}

func (c *countingTracker) Flush(ctx context.Context) error {
	return nil
}

func (c *countingTracker) count() int {
	return int(atomic.LoadInt32(&c.captured))
}

func withTracker(t *testing.T) *countingTracker {
	tracker := &countingTracker{}
	logger.Get()
	logger.SetErrorTracker(tracker)
	t.Cleanup(func() { logger.SetErrorTracker(nil) })
	return tracker
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	worker := newMockWorker("snapshot", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())
	assert.GreaterOrEqual(t, worker.runs(), 2, "immediate run plus at least one tick")
}

func TestScheduler_ContinuesAfterFailure(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	worker := newMockWorker("flaky", 50*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		return errors.Wrap(errors.ErrExchangeUnavailable, "tickers")
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(180 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	health := worker.Health()
	assert.GreaterOrEqual(t, worker.runs(), 2)
	assert.Equal(t, health.RunCount, health.ErrorCount)
	assert.ErrorIs(t, health.LastError, errors.ErrExchangeUnavailable)
}

func TestScheduler_RecoversPanic(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	worker := newMockWorker("panicky", 50*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		panic("nil map")
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.GreaterOrEqual(t, worker.runs(), 2, "panic does not kill the loop")
	require.Error(t, worker.Health().LastError)
	assert.Contains(t, worker.Health().LastError.Error(), "panicked")
}

func TestScheduler_TracksPanicsOnly(t *testing.T) {
	tracker := withTracker(t)

	scheduler := NewScheduler(time.Second)
	failing := newMockWorker("failing", time.Hour, true)
	failing.runFunc = func(ctx context.Context) error {
		return errors.Wrap(errors.ErrExchangeUnavailable, "tickers")
	}
	panicky := newMockWorker("panicky", time.Hour, true)
	panicky.runFunc = func(ctx context.Context) error {
		panic("nil map")
	}
	scheduler.RegisterWorker(failing)
	scheduler.RegisterWorker(panicky)

	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, func() bool {
		return failing.Health().RunCount == 1 && panicky.Health().RunCount == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Equal(t, 1, tracker.count(), "returned errors are tracked by the worker itself")
}

func TestScheduler_GracefulShutdown(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	worker := newMockWorker("slow", 100*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, scheduler.Stop())
	assert.Equal(t, int64(1), worker.Health().RunCount, "in-flight run completed")
}

func TestScheduler_StopTimeout(t *testing.T) {
	scheduler := NewScheduler(50 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	worker := newMockWorker("stuck", time.Hour, true)
	worker.runFunc = func(ctx context.Context) error {
		<-release
		return nil
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)

	err := scheduler.Stop()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTimeout)
}

func TestScheduler_ContextCancellation(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	worker := newMockWorker("snapshot", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
}

func TestScheduler_DisabledWorker(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	enabled := newMockWorker("enabled", 100*time.Millisecond, true)
	disabled := newMockWorker("disabled", 0, false)
	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.runs(), 0)
	assert.Equal(t, 0, disabled.runs())
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	scheduler.RegisterWorker(newMockWorker("broken", 0, true))

	err := scheduler.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.False(t, scheduler.IsRunning())
}

func TestScheduler_CannotStartTwice(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	scheduler.RegisterWorker(newMockWorker("snapshot", 100*time.Millisecond, true))

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Error(t, scheduler.Start(context.Background()))
	assert.NoError(t, scheduler.Stop())
	assert.Error(t, scheduler.Stop(), "second stop fails")
}

func TestScheduler_GetWorkers(t *testing.T) {
	scheduler := NewScheduler(0)
	scheduler.RegisterWorker(newMockWorker("worker-1", 100*time.Millisecond, true))
	scheduler.RegisterWorker(newMockWorker("worker-2", 200*time.Millisecond, false))

	workers := scheduler.GetWorkers()
	require.Len(t, workers, 2)
	assert.Equal(t, "worker-1", workers[0].Name())
	assert.Equal(t, "worker-2", workers[1].Name())
	assert.Equal(t, defaultStopTimeout, scheduler.stopTimeout)
}

func TestBaseWorker_Health(t *testing.T) {
	w := NewBaseWorker("snapshot", time.Minute, true)

	w.RecordRun(2 * time.Second)
	w.RecordError(errors.New("boom"), 4*time.Second)

	h := w.Health()
	assert.Equal(t, int64(2), h.RunCount)
	assert.Equal(t, int64(1), h.ErrorCount)
	assert.Equal(t, 3*time.Second, h.AvgDuration)
	assert.EqualError(t, h.LastError, "boom")

	w.SetEnabled(false)
	assert.False(t, w.Enabled())
	assert.False(t, w.Health().Enabled)
}
