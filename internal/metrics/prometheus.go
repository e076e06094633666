package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"lyrasnap/pkg/errors"
)

var (
	// Registry holds every lyrasnap metric; pushed to the Pushgateway after each run
	Registry = prometheus.NewRegistry()

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lyrasnap_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lyrasnap_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"worker"},
	)

	// Exchange metrics
	ExchangeAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lyrasnap_exchange_api_calls_total",
			Help: "Total number of exchange API calls",
		},
		[]string{"exchange", "endpoint", "status"}, // status: success|error|rate_limited
	)

	ExchangeAPILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lyrasnap_exchange_api_latency_seconds",
			Help:    "Exchange API latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"exchange", "endpoint"},
	)

	// Snapshot metrics
	SnapshotRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lyrasnap_snapshot_runs_total",
			Help: "Total number of snapshot pipeline runs",
		},
		[]string{"currency", "status"}, // status: success|error
	)

	SnapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lyrasnap_snapshot_duration_seconds",
			Help:    "Snapshot pipeline duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"currency"},
	)

	SnapshotRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lyrasnap_snapshot_rows",
			Help: "Row counts of the last snapshot",
		},
		[]string{"currency", "kind"}, // kind: instruments|quoted|missing_quotes|zero_ask|written
	)

	SnapshotLastSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lyrasnap_snapshot_last_success_timestamp",
			Help: "Unix timestamp of the last successful snapshot",
		},
		[]string{"currency"},
	)

	// Sink metrics
	SinkWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lyrasnap_sink_writes_total",
			Help: "Total number of snapshot sink writes",
		},
		[]string{"sink", "status"}, // sink: csv|clickhouse|postgres|kafka
	)
)

var initOnce sync.Once

// Init registers all metrics with the lyrasnap registry
func Init() {
	initOnce.Do(func() {
		Registry.MustRegister(
			WorkerExecutions,
			WorkerDuration,
			ExchangeAPICalls,
			ExchangeAPILatency,
			SnapshotRuns,
			SnapshotDuration,
			SnapshotRows,
			SnapshotLastSuccess,
			SinkWrites,
		)
	})
}

// Push sends the current registry state to a Pushgateway
func Push(ctx context.Context, url, job, currency string) error {
	if url == "" {
		return nil
	}
	err := push.New(url, job).
		Gatherer(Registry).
		Grouping("instance", currency).
		PushContext(ctx)
	return errors.Wrap(err, "push metrics")
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, status(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
}

// RecordExchangeAPICall records an exchange API call
func RecordExchangeAPICall(exchange, endpoint string, latency time.Duration, err error) {
	s := status(err)
	if err != nil && errors.Is(err, errors.ErrRateLimitExceeded) {
		s = "rate_limited"
	}
	ExchangeAPICalls.WithLabelValues(exchange, endpoint, s).Inc()
	ExchangeAPILatency.WithLabelValues(exchange, endpoint).Observe(latency.Seconds())
}

// RecordSnapshotRun records the outcome of one pipeline run
func RecordSnapshotRun(currency string, duration time.Duration, err error) {
	SnapshotRuns.WithLabelValues(currency, status(err)).Inc()
	SnapshotDuration.WithLabelValues(currency).Observe(duration.Seconds())
	if err == nil {
		SnapshotLastSuccess.WithLabelValues(currency).SetToCurrentTime()
	}
}

// RecordSnapshotRows records row counts of the last snapshot
func RecordSnapshotRows(currency string, counts map[string]int) {
	for kind, n := range counts {
		SnapshotRows.WithLabelValues(currency, kind).Set(float64(n))
	}
}

// RecordSinkWrite records a write to a snapshot sink
func RecordSinkWrite(sink string, err error) {
	SinkWrites.WithLabelValues(sink, status(err)).Inc()
}
