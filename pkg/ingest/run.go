// Package ingest orchestrates one reconciliation run: source files plus a
// target date in, a ReportSummary out. File-level failures skip the file
// and continue; only an invalid invocation (unparseable target date) is an
// error.
package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"rollcall/pkg/engine"
	"rollcall/pkg/parser"
	"rollcall/pkg/report"
	"rollcall/pkg/schema"
)

// ErrNoHeader marks a file whose scan window contained no row that scores
// as a header. The file contributes zero events.
var ErrNoHeader = errors.New("no header row detected")

// errScanExhausted aborts streaming once the header scan window is spent.
var errScanExhausted = errors.New("header scan window exhausted")

const (
	// DefaultChunkSize bounds how many data rows are buffered before they
	// are folded into the ledger. Boundaries carry no semantics (the
	// ledger accumulates min/max incrementally); this only caps memory on
	// month-to-date exports.
	DefaultChunkSize = 2000

	dateLayout = "2006-01-02"
)

// Config carries the knobs of a run. The zero value is usable: default
// shift policy, default chunk size, standard logger.
type Config struct {
	Policy    engine.ShiftPolicy
	ChunkSize int
	Logger    *logrus.Logger
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}

func (c Config) logger() *logrus.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.StandardLogger()
}

// Run reconciles the given driving-history and activity-detail files
// against each target date (ISO YYYY-MM-DD) in order and returns one
// summary per date. Every run builds its state from scratch; runs are pure
// functions of their inputs and may be parallelized by the caller.
func Run(cfg Config, drivingFiles, activityFiles []string, dates []string) ([]*report.ReportSummary, error) {
	if len(dates) == 0 {
		return nil, errors.New("no target dates supplied")
	}
	for _, d := range dates {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, fmt.Errorf("invalid target date %q: %w", d, err)
		}
	}

	summaries := make([]*report.ReportSummary, 0, len(dates))
	for _, date := range dates {
		summaries = append(summaries, runDate(cfg, drivingFiles, activityFiles, date))
	}
	return summaries, nil
}

// RunDate is the single-date convenience wrapper.
func RunDate(cfg Config, drivingFiles, activityFiles []string, date string) (*report.ReportSummary, error) {
	summaries, err := Run(cfg, drivingFiles, activityFiles, []string{date})
	if err != nil {
		return nil, err
	}
	return summaries[0], nil
}

func runDate(cfg Config, drivingFiles, activityFiles []string, date string) *report.ReportSummary {
	run := &runState{
		cfg:    cfg,
		date:   date,
		ledger: engine.NewLedger(date),
		stats: map[schema.SourceKind]*report.SourceStats{
			schema.SourceDrivingHistory: {Kind: schema.SourceDrivingHistory},
			schema.SourceActivityDetail: {Kind: schema.SourceActivityDetail},
		},
	}

	for _, path := range drivingFiles {
		run.ingestFile(path, schema.SourceDrivingHistory)
	}
	for _, path := range activityFiles {
		run.ingestFile(path, schema.SourceActivityDetail)
	}

	sources := []report.SourceStats{
		*run.stats[schema.SourceDrivingHistory],
		*run.stats[schema.SourceActivityDetail],
	}
	return report.BuildSummary(date, run.ledger.Records(), cfg.Policy, sources, run.diags)
}

// runState is the per-date mutable state of one run.
type runState struct {
	cfg    Config
	date   string
	ledger *engine.Ledger
	stats  map[schema.SourceKind]*report.SourceStats
	diags  []report.Diagnostic
}

// ingestFile streams one file through header detection, column resolution
// and chunked normalization into the ledger. Any file-level failure records
// a diagnostic and returns; already-merged records from earlier files are
// kept, by design.
func (r *runState) ingestFile(path string, kind schema.SourceKind) {
	log := r.cfg.logger().WithFields(logrus.Fields{
		"file":   path,
		"source": kind,
		"date":   r.date,
	})
	stats := r.stats[kind]
	stats.FilesSeen++

	fs := &fileState{run: r, kind: kind, stats: stats, chunk: make([][]string, 0, r.cfg.chunkSize())}

	warnings, err := parser.StreamFile(path, fs.onRow)

	switch {
	case err == nil && fs.resolution == nil:
		// Clean EOF before any header row qualified.
		err = ErrNoHeader
	case errors.Is(err, errScanExhausted):
		err = ErrNoHeader
	}

	if err != nil {
		r.skipFile(path, kind, err, log)
		return
	}

	fs.recordWarnings(warnings, log)
	fs.flush()
	log.WithFields(logrus.Fields{
		"rowsSeen":     stats.RowsSeen,
		"rowsRetained": stats.RowsRetained,
	}).Info("file ingested")
}

// skipFile records the file-level failure and keeps the run going.
func (r *runState) skipFile(path string, kind schema.SourceKind, err error, log *logrus.Entry) {
	stage := "read"
	switch {
	case errors.Is(err, ErrNoHeader):
		stage = "header"
	case errors.Is(err, schema.ErrMissingColumns):
		stage = "columns"
	}

	r.stats[kind].FilesSkipped++
	r.diags = append(r.diags, report.Diagnostic{
		Stage:  stage,
		File:   path,
		Reason: err.Error(),
	})
	log.WithField("stage", stage).Warn("skipping file: ", err)
}

// fileState tracks one file's progress from banner rows to data rows.
type fileState struct {
	run        *runState
	kind       schema.SourceKind
	stats      *report.SourceStats
	resolution *schema.ColumnResolution
	scanned    int
	headerRow  int
	chunk      [][]string
}

// recordWarnings folds parse warnings into the dropped-row count. Warnings
// raised in the banner region are logged but not counted; those rows were
// never data. Skipped files never reach this, so their row stats stay zero.
func (f *fileState) recordWarnings(warnings []parser.ParseWarning, log *logrus.Entry) {
	for _, w := range warnings {
		log.WithField("row", w.Row).Debug(w.Message)
		if w.Row > f.headerRow {
			f.stats.RowsDropped++
		}
	}
}

// onRow is the parser callback. Before the header is found it scores each
// row against the keyword categories; afterwards it buffers data rows and
// flushes them to the ledger a chunk at a time.
func (f *fileState) onRow(rowNum int, cells []string) error {
	if f.resolution == nil {
		f.scanned++
		if schema.IsHeaderRow(cells) {
			res, err := schema.ResolveColumns(cells, f.kind)
			if err != nil {
				return err
			}
			f.resolution = res
			f.headerRow = rowNum
			return nil
		}
		if f.scanned >= schema.HeaderScanLimit {
			return errScanExhausted
		}
		return nil
	}

	f.stats.RowsSeen++
	f.chunk = append(f.chunk, cells)
	if len(f.chunk) >= f.run.cfg.chunkSize() {
		f.flush()
	}
	return nil
}

// flush normalizes the buffered chunk and folds it into the ledger.
func (f *fileState) flush() {
	for _, cells := range f.chunk {
		ev, ok := schema.NormalizeRow(cells, f.resolution, f.kind)
		if !ok {
			f.stats.RowsDropped++
			continue
		}
		if ev.Timestamp.Format(dateLayout) != f.run.date {
			f.stats.RowsOutsideDate++
			continue
		}
		f.stats.RowsRetained++
		f.run.ledger.Merge(ev)
	}
	f.chunk = f.chunk[:0]
}
