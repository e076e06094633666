package bootstrap

import (
	"context"
	"time"

	chclient "lyrasnap/internal/adapters/clickhouse"
	"lyrasnap/internal/adapters/config"
	errnoop "lyrasnap/internal/adapters/errors/noop"
	"lyrasnap/internal/adapters/errors/sentry"
	"lyrasnap/internal/adapters/exchangefactory"
	"lyrasnap/internal/adapters/kafka"
	pgclient "lyrasnap/internal/adapters/postgres"
	redisclient "lyrasnap/internal/adapters/redis"
	"lyrasnap/internal/metrics"
	chrepo "lyrasnap/internal/repository/clickhouse"
	csvrepo "lyrasnap/internal/repository/csv"
	pgrepo "lyrasnap/internal/repository/postgres"
	redisrepo "lyrasnap/internal/repository/redis"
	snapshotsvc "lyrasnap/internal/services/snapshot"
	"lyrasnap/pkg/errors"
	"lyrasnap/pkg/logger"
)

const schemaTimeout = 30 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the sinks that are enabled. An enabled
// sink that cannot be reached stops startup.
func (c *Container) MustInitInfrastructure() {
	if err := c.initInfrastructure(); err != nil {
		c.Log.Fatalf("failed to initialize infrastructure: %v", err)
	}
}

func (c *Container) initInfrastructure() error {
	var err error

	if c.Config.Postgres.Enabled {
		c.Log.Info("Connecting to PostgreSQL...")
		if c.PG, err = pgclient.NewClient(c.Config.Postgres); err != nil {
			return errors.Wrap(err, "postgres")
		}
		c.Log.Info("✓ PostgreSQL connected")
	}

	if c.Config.ClickHouse.Enabled {
		c.Log.Info("Connecting to ClickHouse...")
		if c.CH, err = chclient.NewClient(c.Config.ClickHouse); err != nil {
			return errors.Wrap(err, "clickhouse")
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Redis.Enabled {
		c.Log.Info("Connecting to Redis...")
		if c.Redis, err = redisclient.NewClient(c.Config.Redis); err != nil {
			return errors.Wrap(err, "redis")
		}
		c.Log.Info("✓ Redis connected")
	}

	if c.Config.Kafka.Enabled {
		c.Kafka = provideKafkaProducer(c.Config, c.Log)
	}
	return nil
}

// ========================================
// Phase 3: Services
// ========================================

// MustInitServices builds the exchange client, the sinks and the snapshot service
func (c *Container) MustInitServices() {
	if err := c.initServices(); err != nil {
		c.Log.Fatalf("failed to initialize services: %v", err)
	}
}

func (c *Container) initServices() error {
	c.Exchanges = exchangefactory.NewFactory(c.Config.Lyra)

	sinks, err := c.provideSinks()
	if err != nil {
		return err
	}

	snap := c.Config.Snapshot
	c.Snapshot = snapshotsvc.NewService(
		c.Exchanges.Lyra(),
		csvrepo.NewSnapshotWriter(snap.OutputDir),
		sinks,
		c.ErrorTracker,
		snapshotsvc.Config{
			Currency:          snap.Currency,
			SeedExpiry:        snap.SeedExpiry,
			DetailConcurrency: snap.DetailConcurrency,
			DropUntradable:    snap.DropUntradable,
			PreviewRows:       snap.PreviewRows,
		},
		c.Log,
	)
	c.Log.Infow("✓ Snapshot service initialized",
		"currency", snap.Currency,
		"seed_expiry", snap.SeedExpiry,
		"output_dir", snap.OutputDir,
	)
	return nil
}

// provideSinks wires a repository for every connected store and creates the schemas
func (c *Container) provideSinks() (snapshotsvc.Sinks, error) {
	var sinks snapshotsvc.Sinks

	ctx, cancel := context.WithTimeout(c.Context, schemaTimeout)
	defer cancel()

	if c.CH != nil {
		c.SnapshotRows = chrepo.NewSnapshotRepository(c.CH.Conn(), c.Config.ClickHouse.BatchSize)
		if err := c.SnapshotRows.EnsureSchema(ctx); err != nil {
			return sinks, errors.Wrap(err, "clickhouse schema")
		}
		sinks.Rows = c.SnapshotRows
	}

	if c.PG != nil {
		runs := pgrepo.NewRunRepository(c.PG.DB())
		if err := runs.EnsureSchema(ctx); err != nil {
			return sinks, errors.Wrap(err, "postgres schema")
		}
		sinks.Runs = runs
	}

	if c.Redis != nil {
		sinks.Cache = redisrepo.NewInstrumentCache(c.Redis.Client(), c.Config.Redis.TTL)
	}

	if c.Kafka != nil {
		sinks.Publisher = kafka.NewReportPublisher(c.Kafka, c.Config.Kafka.Topic)
	}

	return sinks, nil
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Name)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Infow("Initializing Kafka producer...", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}
