package bootstrap

import (
	"context"
	"time"

	chclient "lyrasnap/internal/adapters/clickhouse"
	"lyrasnap/internal/adapters/kafka"
	pgclient "lyrasnap/internal/adapters/postgres"
	redisclient "lyrasnap/internal/adapters/redis"
	chrepo "lyrasnap/internal/repository/clickhouse"
	"lyrasnap/internal/workers"
	"lyrasnap/pkg/errors"
	"lyrasnap/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 30 * time.Second,
	}
}

// Shutdown performs coordinated cleanup in order:
// 1. Workers finish the in-flight snapshot
// 2. Buffered ClickHouse rows are flushed
// 3. Kafka producer closes
// 4. Errors are flushed
// 5. Database connections last
// Nil components are skipped.
func (l *Lifecycle) Shutdown(
	scheduler *workers.Scheduler,
	snapshotRows *chrepo.SnapshotRepository,
	kafkaProducer *kafka.Producer,
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	if log == nil {
		log = logger.Get()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/5] Stopping workers...")
	if scheduler != nil && scheduler.IsRunning() {
		if err := scheduler.Stop(); err != nil {
			log.Error("Worker scheduler stop failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	log.Info("[2/5] Flushing ClickHouse batches...")
	if snapshotRows != nil {
		if err := snapshotRows.Close(shutdownCtx); err != nil {
			log.Error("ClickHouse flush failed", "error", err)
		} else {
			log.Info("✓ ClickHouse batches flushed")
		}
	}

	log.Info("[3/5] Closing Kafka producer...")
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	log.Info("[4/5] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)

	log.Info("[5/5] Closing databases...")
	l.closeDatabases(pgClient, chClient, redisClient, log)

	_ = logger.Sync()
}

func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Error("Error tracker flush failed", "error", err)
	} else {
		log.Info("✓ Error tracker flushed")
	}
}

func (l *Lifecycle) closeDatabases(
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	log *logger.Logger,
) {
	var dbErrors []error

	if pgClient != nil {
		if err := pgClient.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "postgres"))
		}
	}
	if chClient != nil {
		if err := chClient.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "clickhouse"))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "redis"))
		}
	}

	if len(dbErrors) > 0 {
		log.Error("Database close errors", "errors", dbErrors)
	} else {
		log.Info("✓ Database connections closed")
	}
}
