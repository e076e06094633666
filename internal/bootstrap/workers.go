package bootstrap

import (
	"lyrasnap/internal/adapters/config"
	snapshotsvc "lyrasnap/internal/services/snapshot"
	"lyrasnap/internal/workers"
	snapshotworker "lyrasnap/internal/workers/snapshot"
	"lyrasnap/pkg/logger"
)

// MustInitBackground registers the snapshot collector for periodic mode.
// onResult receives every successful snapshot.
func (c *Container) MustInitBackground(onResult func(*snapshotsvc.Result)) {
	c.Scheduler = provideWorkers(c.Config, c.Snapshot, onResult, c.Log)
}

// provideWorkers initializes all background workers
func provideWorkers(
	cfg *config.Config,
	runner snapshotworker.Runner,
	onResult func(*snapshotsvc.Result),
	log *logger.Logger,
) *workers.Scheduler {
	log.Info("Initializing workers...")

	scheduler := workers.NewScheduler(0)
	scheduler.RegisterWorker(snapshotworker.NewCollector(
		runner,
		snapshotworker.PushConfig{
			URL:      cfg.Metrics.PushgatewayURL,
			Job:      cfg.Metrics.Job,
			Currency: cfg.Snapshot.Currency,
		},
		cfg.Snapshot.Interval,
		onResult,
	))

	log.Infow("✓ Workers initialized", "interval", cfg.Snapshot.Interval)
	return scheduler
}
