package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyrasnap/internal/adapters/config"
	errnoop "lyrasnap/internal/adapters/errors/noop"
	"lyrasnap/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "lyrasnap", Env: "test"},
		Lyra: config.LyraConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, RequestsPerMinute: 60},
		Snapshot: config.SnapshotConfig{
			Currency:          "BTC",
			SeedExpiry:        "20260925",
			OutputDir:         t.TempDir(),
			DetailConcurrency: 4,
			PreviewRows:       5,
			Interval:          time.Minute,
		},
		Metrics: config.MetricsConfig{Job: "lyrasnap"},
	}
}

func TestProvideErrorTracker_DisabledIsNoop(t *testing.T) {
	cfg := testConfig(t)

	tracker := provideErrorTracker(cfg, logger.Get())
	assert.IsType(t, &errnoop.Tracker{}, tracker)

	cfg.ErrorTracking.Enabled = true
	tracker = provideErrorTracker(cfg, logger.Get())
	assert.IsType(t, &errnoop.Tracker{}, tracker, "enabled without DSN stays no-op")
}

func TestInitServices_WithoutSinks(t *testing.T) {
	c := NewContainer()
	defer c.Cancel()
	c.Config = testConfig(t)
	c.Log = logger.Get()
	c.ErrorTracker = errnoop.New()

	require.NoError(t, c.initInfrastructure())
	assert.Nil(t, c.PG)
	assert.Nil(t, c.CH)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Kafka)

	sinks, err := c.provideSinks()
	require.NoError(t, err)
	assert.Nil(t, sinks.Rows)
	assert.Nil(t, sinks.Runs)
	assert.Nil(t, sinks.Cache)
	assert.Nil(t, sinks.Publisher)

	require.NoError(t, c.initServices())
	assert.NotNil(t, c.Snapshot)
	assert.NotNil(t, c.Exchanges.Lyra())
}

func TestInitServices_KafkaPublisher(t *testing.T) {
	c := NewContainer()
	defer c.Cancel()
	c.Config = testConfig(t)
	c.Config.Kafka = config.KafkaConfig{Enabled: true, Brokers: []string{"127.0.0.1:1"}, Topic: "options.snapshots"}
	c.Log = logger.Get()

	require.NoError(t, c.initInfrastructure())
	require.NotNil(t, c.Kafka)

	sinks, err := c.provideSinks()
	require.NoError(t, err)
	assert.NotNil(t, sinks.Publisher)

	c.Lifecycle.Shutdown(nil, nil, c.Kafka, nil, nil, nil, nil, c.Log)
}

func TestMustInitBackground_RegistersCollector(t *testing.T) {
	c := NewContainer()
	defer c.Cancel()
	c.Config = testConfig(t)
	c.Log = logger.Get()
	c.ErrorTracker = errnoop.New()
	require.NoError(t, c.initServices())

	c.MustInitBackground(nil)

	ws := c.Scheduler.GetWorkers()
	require.Len(t, ws, 1)
	assert.Equal(t, "snapshot_collector", ws[0].Name())
	assert.Equal(t, time.Minute, ws[0].Interval())
	assert.True(t, ws[0].Enabled())
	assert.False(t, c.Scheduler.IsRunning())
}

func TestShutdown_NothingOpened(t *testing.T) {
	c := NewContainer()
	c.Log = logger.Get()

	assert.NotPanics(t, c.Shutdown)
	assert.Error(t, c.Context.Err())
}
