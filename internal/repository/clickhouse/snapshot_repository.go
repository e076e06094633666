package clickhouse

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"lyrasnap/internal/domain/options"
	chbatch "lyrasnap/pkg/clickhouse"
	"lyrasnap/pkg/errors"
)

const snapshotRowsTable = "options_snapshot_rows"

// SnapshotRowsSchema creates the row table. Quote columns are Nullable so an
// unmatched instrument stays distinguishable from a zero quote.
const SnapshotRowsSchema = `
	CREATE TABLE IF NOT EXISTS options_snapshot_rows (
		run_id           String,
		snapshot_time    DateTime64(3, 'UTC'),
		currency         LowCardinality(String),
		underlying_index LowCardinality(String),
		instrument_name  String,
		instrument_type  LowCardinality(String),
		is_active        Bool,
		tick_size        Float64,
		option_type      LowCardinality(String),
		strike           Float64,
		expiry           String,
		minimum_amount   Float64,
		amount_step      Float64,
		maker_fee_rate   Float64,
		taker_fee_rate   Float64,
		ask_price        Nullable(Float64),
		ask_size         Nullable(Float64),
		bid_price        Nullable(Float64),
		bid_size         Nullable(Float64),
		market_price     Nullable(Float64),
		delta            Nullable(Float64),
		gamma            Nullable(Float64),
		vega             Nullable(Float64),
		theta            Nullable(Float64),
		iv               Nullable(Float64),
		mark             Nullable(Float64),
		ts               Nullable(Int64)
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(snapshot_time)
	ORDER BY (currency, expiry, instrument_name, snapshot_time)
`

// Compile-time check
var _ options.RowRepository = (*SnapshotRepository)(nil)

// SnapshotRepository stores snapshot rows in ClickHouse through a batch writer
type SnapshotRepository struct {
	conn   driver.Conn
	writer *chbatch.BatchWriter[options.Record]
}

// NewSnapshotRepository creates a new snapshot row repository
func NewSnapshotRepository(conn driver.Conn, batchSize int) *SnapshotRepository {
	r := &SnapshotRepository{conn: conn}
	r.writer = chbatch.NewBatchWriter(chbatch.BatchWriterConfig[options.Record]{
		FlushFunc:    r.insertBatch,
		TableName:    snapshotRowsTable,
		MaxBatchSize: batchSize,
	})
	return r
}

// EnsureSchema creates the row table if it does not exist
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if err := r.conn.Exec(ctx, SnapshotRowsSchema); err != nil {
		return errors.Wrap(err, "create options_snapshot_rows")
	}
	return nil
}

// InsertRows writes one run's rows in batches and flushes the remainder
func (r *SnapshotRepository) InsertRows(ctx context.Context, records []options.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.writer.Add(ctx, records...); err != nil {
		return err
	}
	return r.writer.Flush(ctx)
}

// CountRows returns how many rows a run stored
func (r *SnapshotRepository) CountRows(ctx context.Context, runID string) (uint64, error) {
	var count uint64
	err := r.conn.QueryRow(ctx, `SELECT count() FROM options_snapshot_rows WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "count snapshot rows")
	}
	return count, nil
}

// Close flushes anything still buffered
func (r *SnapshotRepository) Close(ctx context.Context) error {
	return r.writer.Stop(ctx)
}

func (r *SnapshotRepository) insertBatch(ctx context.Context, records []options.Record) error {
	batch, err := r.conn.PrepareBatch(ctx, `INSERT INTO `+snapshotRowsTable)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for i := range records {
		if err := batch.AppendStruct(&records[i]); err != nil {
			return errors.Wrapf(err, "failed to append row %s", records[i].InstrumentName)
		}
	}

	if err := batch.Send(); err != nil {
		return errors.Wrap(err, "failed to send batch")
	}
	return nil
}
