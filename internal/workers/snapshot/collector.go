package snapshot

import (
	"context"
	"time"

	"lyrasnap/internal/metrics"
	snapshotsvc "lyrasnap/internal/services/snapshot"
	"lyrasnap/internal/workers"
)

// Runner runs one snapshot pipeline
type Runner interface {
	Run(ctx context.Context) (*snapshotsvc.Result, error)
}

// PushConfig points the collector at a Pushgateway. An empty URL disables pushing.
type PushConfig struct {
	URL      string
	Job      string
	Currency string
}

// Collector takes an options snapshot on every scheduler tick
type Collector struct {
	*workers.BaseWorker
	runner   Runner
	push     PushConfig
	onResult func(*snapshotsvc.Result)
}

// NewCollector creates a new snapshot collector
func NewCollector(runner Runner, push PushConfig, interval time.Duration, onResult func(*snapshotsvc.Result)) *Collector {
	return &Collector{
		BaseWorker: workers.NewBaseWorker("snapshot_collector", interval, interval > 0),
		runner:     runner,
		push:       push,
		onResult:   onResult,
	}
}

// Run executes one snapshot and pushes metrics whatever the outcome
func (c *Collector) Run(ctx context.Context) error {
	result, err := c.runner.Run(ctx)

	if pushErr := metrics.Push(ctx, c.push.URL, c.push.Job, c.push.Currency); pushErr != nil {
		c.Log().Warnw("Metrics push failed", "error", pushErr)
	}
	if err != nil {
		return err
	}

	if c.onResult != nil {
		c.onResult(result)
	}
	return nil
}
