package bootstrap

import (
	"context"

	chclient "lyrasnap/internal/adapters/clickhouse"
	"lyrasnap/internal/adapters/config"
	"lyrasnap/internal/adapters/exchangefactory"
	"lyrasnap/internal/adapters/kafka"
	pgclient "lyrasnap/internal/adapters/postgres"
	redisclient "lyrasnap/internal/adapters/redis"
	chrepo "lyrasnap/internal/repository/clickhouse"
	snapshotsvc "lyrasnap/internal/services/snapshot"
	"lyrasnap/internal/workers"
	"lyrasnap/pkg/errors"
	"lyrasnap/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (optional sinks, nil when disabled)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client
	Kafka *kafka.Producer

	// Repositories that need closing
	SnapshotRows *chrepo.SnapshotRepository

	// External Adapters
	Exchanges *exchangefactory.Factory

	// Services
	Snapshot *snapshotsvc.Service

	// Background Processing (periodic mode only)
	Scheduler *workers.Scheduler

	// Lifecycle management
	Lifecycle *Lifecycle
	Context   context.Context
	Cancel    context.CancelFunc
}

// NewContainer creates an empty container bound to a cancellable context
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		Lifecycle: NewLifecycle(),
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit runs every initialization phase in order
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitServices()
}

// Shutdown releases everything the container opened
func (c *Container) Shutdown() {
	c.Cancel()
	c.Lifecycle.Shutdown(
		c.Scheduler,
		c.SnapshotRows,
		c.Kafka,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
