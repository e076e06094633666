package options

import (
	"context"
	"time"
)

// SnapshotWriter persists the merged snapshot table and returns where it went
type SnapshotWriter interface {
	Write(ctx context.Context, records []Record, generatedAt time.Time) (path string, size int64, err error)
}

// RowRepository stores snapshot rows for analytics
type RowRepository interface {
	InsertRows(ctx context.Context, records []Record) error
	CountRows(ctx context.Context, runID string) (uint64, error)
}

// RunRepository keeps one ledger entry per snapshot run
type RunRepository interface {
	Create(ctx context.Context, report *Report) error
	GetLatest(ctx context.Context, currency string) (*Report, error)
}

// InstrumentCache is a read-through cache of static instrument metadata
type InstrumentCache interface {
	Get(ctx context.Context, name string) (*Instrument, error) // nil, nil on miss
	Set(ctx context.Context, inst *Instrument) error
}

// ReportPublisher announces finished runs to downstream consumers
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *Report) error
}
