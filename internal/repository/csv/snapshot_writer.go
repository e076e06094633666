package csv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"lyrasnap/internal/domain/options"
	"lyrasnap/pkg/errors"
)

// FilenameLayout is the UTC timestamp embedded in snapshot file names
const FilenameLayout = "20060102_150405"

// Compile-time check
var _ options.SnapshotWriter = (*SnapshotWriter)(nil)

// SnapshotWriter writes each snapshot to its own timestamped CSV file
type SnapshotWriter struct {
	dir string
}

// NewSnapshotWriter creates a writer rooted at dir
func NewSnapshotWriter(dir string) *SnapshotWriter {
	if dir == "" {
		dir = "."
	}
	return &SnapshotWriter{dir: dir}
}

// Filename returns options_snapshot_<YYYYMMDD_HHMMSS>.csv for the UTC time
func Filename(generatedAt time.Time) string {
	return fmt.Sprintf("options_snapshot_%s.csv", generatedAt.UTC().Format(FilenameLayout))
}

// Write persists records with a header row. The file is written under a
// temporary name and renamed, so a failed run never leaves a partial snapshot.
func (w *SnapshotWriter) Write(ctx context.Context, records []options.Record, generatedAt time.Time) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", 0, errors.Wrapf(err, "create output dir %s", w.dir)
	}

	path := filepath.Join(w.dir, Filename(generatedAt))
	tmp, err := os.CreateTemp(w.dir, ".options_snapshot_*.csv")
	if err != nil {
		return "", 0, errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if records == nil {
		records = []options.Record{}
	}
	if err := gocsv.MarshalFile(&records, tmp); err != nil {
		_ = tmp.Close()
		return "", 0, errors.Wrap(err, "marshal snapshot csv")
	}
	if err := tmp.Close(); err != nil {
		return "", 0, errors.Wrap(err, "close snapshot csv")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", 0, errors.Wrapf(err, "rename to %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, errors.Wrap(err, "stat snapshot csv")
	}
	return path, info.Size(), nil
}
