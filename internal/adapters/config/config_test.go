package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyrasnap/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.lyra.finance", cfg.Lyra.BaseURL)
	assert.Equal(t, "BTC", cfg.Snapshot.Currency)
	assert.Equal(t, "20260925", cfg.Snapshot.SeedExpiry)
	assert.Equal(t, 1000, cfg.Lyra.PageSize)
	assert.Equal(t, 0, cfg.Lyra.MaxRetries)
	assert.Equal(t, 8, cfg.Snapshot.DetailConcurrency)
	assert.Equal(t, 5, cfg.Snapshot.PreviewRows)
	assert.Equal(t, time.Duration(0), cfg.Snapshot.Interval)
	assert.False(t, cfg.Snapshot.DropUntradable)
	assert.False(t, cfg.ClickHouse.Enabled)
	assert.False(t, cfg.Postgres.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SNAPSHOT_CURRENCY", " eth ")
	t.Setenv("LYRA_BASE_URL", "http://localhost:8080/")
	t.Setenv("SNAPSHOT_DETAIL_CONCURRENCY", "0")
	t.Setenv("SNAPSHOT_INTERVAL", "15m")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ETH", cfg.Snapshot.Currency)
	assert.Equal(t, "http://localhost:8080", cfg.Lyra.BaseURL)
	assert.Equal(t, 1, cfg.Snapshot.DetailConcurrency)
	assert.Equal(t, 15*time.Minute, cfg.Snapshot.Interval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidSeedExpiry(t *testing.T) {
	t.Setenv("SNAPSHOT_SEED_EXPIRY", "2026-09-25")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "snap", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=snap sslmode=disable", cfg.DSN())
}
