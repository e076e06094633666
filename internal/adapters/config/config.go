package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"lyrasnap/pkg/errors"
)

type Config struct {
	App           AppConfig
	Lyra          LyraConfig
	Snapshot      SnapshotConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"lyrasnap"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LyraConfig configures the upstream REST API client
type LyraConfig struct {
	BaseURL           string        `envconfig:"LYRA_BASE_URL" default:"https://api.lyra.finance"`
	Timeout           time.Duration `envconfig:"LYRA_TIMEOUT" default:"30s"`
	RequestsPerMinute int           `envconfig:"LYRA_REQUESTS_PER_MINUTE" default:"600"`
	MaxRetries        int           `envconfig:"LYRA_MAX_RETRIES" default:"0"` // 0 = single attempt
	PageSize          int           `envconfig:"LYRA_PAGE_SIZE" default:"1000"`
}

// SnapshotConfig controls one pipeline run
type SnapshotConfig struct {
	Currency          string        `envconfig:"SNAPSHOT_CURRENCY" default:"BTC"`
	SeedExpiry        string        `envconfig:"SNAPSHOT_SEED_EXPIRY" default:"20260925"` // YYYYMMDD
	OutputDir         string        `envconfig:"SNAPSHOT_OUTPUT_DIR" default:"."`
	DetailConcurrency int           `envconfig:"SNAPSHOT_DETAIL_CONCURRENCY" default:"8"`
	DropUntradable    bool          `envconfig:"SNAPSHOT_DROP_UNTRADABLE" default:"false"`
	PreviewRows       int           `envconfig:"SNAPSHOT_PREVIEW_ROWS" default:"5"`
	Interval          time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"0"` // 0 = run once and exit
}

type PostgresConfig struct {
	Enabled  bool   `envconfig:"POSTGRES_ENABLED" default:"false"`
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"lyrasnap"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"4"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Enabled   bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host      string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port      int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User      string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password  string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database  string `envconfig:"CLICKHOUSE_DB" default:"market"`
	BatchSize int    `envconfig:"CLICKHOUSE_BATCH_SIZE" default:"500"`
}

type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_INSTRUMENT_TTL" default:"6h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_SNAPSHOT_TOPIC" default:"options.snapshots"`
}

type MetricsConfig struct {
	PushgatewayURL string `envconfig:"METRICS_PUSHGATEWAY_URL"`
	Job            string `envconfig:"METRICS_JOB" default:"lyrasnap"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

var expiryPattern = regexp.MustCompile(`^\d{8}$`)

// Validate checks the values envconfig cannot express with tags
func (c *Config) Validate() error {
	c.Snapshot.Currency = strings.ToUpper(strings.TrimSpace(c.Snapshot.Currency))
	if c.Snapshot.Currency == "" {
		return errors.Wrap(errors.ErrInvalidInput, "SNAPSHOT_CURRENCY is empty")
	}
	if c.Snapshot.SeedExpiry != "" && !expiryPattern.MatchString(c.Snapshot.SeedExpiry) {
		return errors.Wrapf(errors.ErrInvalidInput, "SNAPSHOT_SEED_EXPIRY %q is not YYYYMMDD", c.Snapshot.SeedExpiry)
	}
	if c.Snapshot.DetailConcurrency < 1 {
		c.Snapshot.DetailConcurrency = 1
	}
	if c.Snapshot.Interval < 0 {
		return errors.Wrap(errors.ErrInvalidInput, "SNAPSHOT_INTERVAL must not be negative")
	}
	if c.Lyra.PageSize <= 0 || c.Lyra.PageSize > 1000 {
		c.Lyra.PageSize = 1000
	}
	if c.Lyra.MaxRetries < 0 {
		c.Lyra.MaxRetries = 0
	}
	c.Lyra.BaseURL = strings.TrimRight(c.Lyra.BaseURL, "/")
	return nil
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
