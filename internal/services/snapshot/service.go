package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lyrasnap/internal/adapters/exchanges"
	"lyrasnap/internal/domain/options"
	"lyrasnap/internal/metrics"
	"lyrasnap/pkg/errors"
	"lyrasnap/pkg/logger"
)

// Config controls one pipeline run
type Config struct {
	Currency          string
	SeedExpiry        string
	DetailConcurrency int
	DropUntradable    bool // persist only rows with a quote and a non-zero ask
	PreviewRows       int
}

// Sinks are optional secondary targets. Nil fields are skipped.
type Sinks struct {
	Rows      options.RowRepository
	Runs      options.RunRepository
	Publisher options.ReportPublisher
	Cache     options.InstrumentCache
}

// Result is the outcome of a successful run
type Result struct {
	Report  *options.Report
	Rows    []options.Row // full left join, metadata order
	Preview []options.Row
}

// Service runs the list -> details -> tickers -> merge -> write pipeline
// for one currency against one options exchange.
type Service struct {
	exchange exchanges.OptionsExchange
	writer   options.SnapshotWriter
	sinks    Sinks
	tracker  errors.Tracker
	cfg      Config
	log      *logger.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewService creates a new snapshot service
func NewService(
	exchange exchanges.OptionsExchange,
	writer options.SnapshotWriter,
	sinks Sinks,
	tracker errors.Tracker,
	cfg Config,
	log *logger.Logger,
) *Service {
	if cfg.DetailConcurrency < 1 {
		cfg.DetailConcurrency = 1
	}
	if cfg.PreviewRows < 0 {
		cfg.PreviewRows = 0
	}
	return &Service{
		exchange: exchange,
		writer:   writer,
		sinks:    sinks,
		tracker:  tracker,
		cfg:      cfg,
		log:      log.With("component", "snapshot_service", "currency", cfg.Currency),
		now:      time.Now,
		newID:    uuid.New,
	}
}

// Run executes one snapshot. Any upstream failure aborts the run and nothing is
// persisted. Sink failures after the file is written are logged and tracked
// but do not fail the run.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := s.now()
	report := &options.Report{
		RunID:           s.newID(),
		Currency:        s.cfg.Currency,
		SeedExpiry:      s.cfg.SeedExpiry,
		GeneratedAt:     start.UTC(),
		MissingByExpiry: make(map[string]int),
	}

	result, err := s.run(ctx, report)
	report.Duration = s.now().Sub(start)
	metrics.RecordSnapshotRun(s.cfg.Currency, report.Duration, err)

	if err != nil {
		s.log.ErrorWithContext(ctx, err, map[string]string{
			"run_id": report.RunID.String(),
			"stage":  "pipeline",
		})
		return nil, errors.Wrapf(err, "snapshot %s", s.cfg.Currency)
	}

	s.publish(ctx, report, result.Rows)
	s.logReport(ctx, report)
	return result, nil
}

func (s *Service) run(ctx context.Context, report *options.Report) (*Result, error) {
	names, listed, err := s.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list instruments")
	}
	report.Listed = listed
	report.Active = len(names)
	s.breadcrumb(ctx, "listed instruments", map[string]interface{}{"listed": listed, "active": len(names)})

	instruments, err := s.FetchDetails(ctx, names)
	if err != nil {
		return nil, errors.Wrap(err, "fetch instrument details")
	}
	report.Details = len(instruments)
	report.Expiries = options.DistinctExpiries(instruments)
	s.breadcrumb(ctx, "fetched details", map[string]interface{}{"details": len(instruments), "expiries": len(report.Expiries)})

	quotes, missing, err := s.FetchQuotes(ctx, instruments)
	if err != nil {
		return nil, errors.Wrap(err, "fetch tickers")
	}
	report.QuotedRows = len(quotes)
	for expiry, n := range missing {
		report.MissingByExpiry[expiry] = n
		report.MissingQuotes += n
	}

	rows := Merge(instruments, quotes)
	for _, row := range rows {
		if row.ZeroAsk() {
			report.ZeroAskRows++
		}
	}

	persisted := rows
	if s.cfg.DropUntradable {
		persisted = Tradable(rows)
	}
	records := make([]options.Record, len(persisted))
	for i, row := range persisted {
		records[i] = row.Record(report.RunID, s.cfg.Currency, report.GeneratedAt)
	}

	path, size, err := s.writer.Write(ctx, records, report.GeneratedAt)
	metrics.RecordSinkWrite("csv", err)
	if err != nil {
		return nil, errors.Wrap(err, "write snapshot")
	}
	report.OutputPath = path
	report.FileSize = size
	report.RowsWritten = len(records)

	if s.sinks.Rows != nil {
		err := s.sinks.Rows.InsertRows(ctx, records)
		s.sinkResult(ctx, "clickhouse", report, err)
		if err == nil {
			s.verifyStored(ctx, report)
		}
	}

	return &Result{
		Report:  report,
		Rows:    rows,
		Preview: Preview(rows, s.cfg.PreviewRows),
	}, nil
}

// publish records the run ledger, announces the report and updates row gauges
func (s *Service) publish(ctx context.Context, report *options.Report, rows []options.Row) {
	if s.sinks.Runs != nil {
		s.sinkResult(ctx, "postgres", report, s.sinks.Runs.Create(ctx, report))
	}
	if s.sinks.Publisher != nil {
		s.sinkResult(ctx, "kafka", report, s.sinks.Publisher.PublishReport(ctx, report))
	}

	metrics.RecordSnapshotRows(s.cfg.Currency, map[string]int{
		"instruments":    len(rows),
		"quoted":         report.QuotedRows,
		"missing_quotes": report.MissingQuotes,
		"zero_ask":       report.ZeroAskRows,
		"written":        report.RowsWritten,
	})
}

// verifyStored reads back the analytics row count for the run
func (s *Service) verifyStored(ctx context.Context, report *options.Report) {
	stored, err := s.sinks.Rows.CountRows(ctx, report.RunID.String())
	if err != nil {
		s.log.Warnw("Stored row count unavailable", "run_id", report.RunID.String(), "error", err)
		return
	}
	report.RowsStored = int(stored)
	if report.RowsStored != report.RowsWritten {
		s.log.Warnw("Stored row count differs from file",
			"run_id", report.RunID.String(),
			"stored", report.RowsStored,
			"written", report.RowsWritten,
		)
	}
}

func (s *Service) sinkResult(ctx context.Context, sink string, report *options.Report, err error) {
	metrics.RecordSinkWrite(sink, err)
	if err == nil {
		return
	}
	s.log.ErrorWithContext(ctx, errors.Wrapf(err, "%s sink", sink), map[string]string{
		"run_id": report.RunID.String(),
		"sink":   sink,
	})
}

func (s *Service) logReport(ctx context.Context, report *options.Report) {
	fields := []interface{}{
		"run_id", report.RunID.String(),
		"seed_expiry", report.SeedExpiry,
		"active", report.Active,
		"expiries", len(report.Expiries),
		"quoted", report.QuotedRows,
		"missing_quotes", report.MissingQuotes,
		"zero_ask", report.ZeroAskRows,
		"rows_written", report.RowsWritten,
		"rows_stored", report.RowsStored,
		"file", report.OutputPath,
		"size", report.HumanFileSize(),
		"duration", report.Duration.Round(time.Millisecond),
	}
	if !report.Complete() {
		s.log.Warnw("Snapshot written with missing quotes", append(fields, "missing_by_expiry", report.MissingByExpiry)...)
		if s.tracker != nil {
			msg := fmt.Sprintf("snapshot %s missing %d of %d quotes", s.cfg.Currency, report.MissingQuotes, report.Active)
			_ = s.tracker.CaptureMessage(ctx, msg, errors.LevelWarning, map[string]string{
				"run_id":   report.RunID.String(),
				"currency": s.cfg.Currency,
			})
		}
		return
	}
	s.log.Infow("Snapshot written", fields...)
}

func (s *Service) breadcrumb(ctx context.Context, message string, data map[string]interface{}) {
	if s.tracker == nil {
		return
	}
	s.tracker.AddBreadcrumb(ctx, message, "snapshot", errors.LevelInfo, data)
}
