// Package history keeps a SQLite record of statistics runs so class balance
// can be compared across dataset revisions.
package history

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/labelstats/internal/labels"
	"github.com/banshee-data/labelstats/internal/stats"
)

// Store is a run history database.
type Store struct {
	*sql.DB
}

// Run is one invocation of the pipeline.
type Run struct {
	ID          string
	StartedAt   time.Time
	Version     string
	DatasetRoot string
	ClassCount  int
}

// SplitSummary is the stored digest of one split of a run.
type SplitSummary struct {
	RunID           string
	Split           string
	Files           int
	Records         int
	SkippedLines    int
	OutOfRange      int
	FileErrors      int
	WidthMean       float64
	WidthMedian     float64
	HeightMean      float64
	HeightMedian    float64
	AspectMean      float64
	AspectMedian    float64
	AspectNonFinite int
}

// ClassCount is the stored instance count of one class in one split.
type ClassCount struct {
	Index int
	Name  string
	Count int
}

// Open opens (creating if needed) the database at path and applies all
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps "PRAGMA foreign_keys" and ":memory:"
	// databases consistent across statements.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewRun returns a run with a fresh ID stamped with the current time.
func NewRun(version, datasetRoot string, classCount int) Run {
	return Run{
		ID:          uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		Version:     version,
		DatasetRoot: datasetRoot,
		ClassCount:  classCount,
	}
}

// RecordRun stores a run row.
func (s *Store) RecordRun(run Run) error {
	_, err := s.Exec(
		`INSERT INTO runs (run_id, started_unix_nanos, version, dataset_root, class_count) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.Version, run.DatasetRoot, run.ClassCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordSplit stores the summary and class counts of one split.
func (s *Store) RecordSplit(runID, split string, reg *labels.Registry, st *stats.Stats) error {
	w := stats.Summarize(st.Widths)
	h := stats.Summarize(st.Heights)
	a := stats.Summarize(st.AspectRatios)

	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO split_summaries (
			run_id, split, files, records, skipped_lines, out_of_range, file_errors,
			width_mean, width_median, height_mean, height_median,
			aspect_mean, aspect_median, aspect_nonfinite
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, split, st.Parse.Files, st.Records(), st.Parse.Skipped, st.OutOfRange, st.FileErrors,
		nullIfEmpty(w, w.Mean), nullIfEmpty(w, w.Median),
		nullIfEmpty(h, h.Mean), nullIfEmpty(h, h.Median),
		nullIfEmpty(a, a.Mean), nullIfEmpty(a, a.Median),
		a.N-a.Finite,
	)
	if err != nil {
		return fmt.Errorf("failed to record split %s: %w", split, err)
	}

	for i, c := range st.Counts {
		if _, err := tx.Exec(
			`INSERT INTO class_counts (run_id, split, class_index, class_name, count) VALUES (?, ?, ?, ?, ?)`,
			runID, split, i, reg.Name(i), c,
		); err != nil {
			return fmt.Errorf("failed to record class count: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.Query(
		`SELECT run_id, started_unix_nanos, version, dataset_root, class_count FROM runs ORDER BY started_unix_nanos DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var nanos int64
		if err := rows.Scan(&r.ID, &nanos, &r.Version, &r.DatasetRoot, &r.ClassCount); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(0, nanos).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SplitSummaries returns the split rows of a run in insertion order.
func (s *Store) SplitSummaries(runID string) ([]SplitSummary, error) {
	rows, err := s.Query(`
		SELECT run_id, split, files, records, skipped_lines, out_of_range, file_errors,
			width_mean, width_median, height_mean, height_median,
			aspect_mean, aspect_median, aspect_nonfinite
		FROM split_summaries WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SplitSummary
	for rows.Next() {
		var ss SplitSummary
		var wm, wmed, hm, hmed, am, amed sql.NullFloat64
		if err := rows.Scan(&ss.RunID, &ss.Split, &ss.Files, &ss.Records, &ss.SkippedLines,
			&ss.OutOfRange, &ss.FileErrors, &wm, &wmed, &hm, &hmed, &am, &amed, &ss.AspectNonFinite); err != nil {
			return nil, err
		}
		ss.WidthMean, ss.WidthMedian = orNaN(wm), orNaN(wmed)
		ss.HeightMean, ss.HeightMedian = orNaN(hm), orNaN(hmed)
		ss.AspectMean, ss.AspectMedian = orNaN(am), orNaN(amed)
		out = append(out, ss)
	}
	return out, rows.Err()
}

// ClassCounts returns the per-class counts of a split, in class order.
func (s *Store) ClassCounts(runID, split string) ([]ClassCount, error) {
	rows, err := s.Query(
		`SELECT class_index, class_name, count FROM class_counts WHERE run_id = ? AND split = ? ORDER BY class_index`,
		runID, split,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClassCount
	for rows.Next() {
		var c ClassCount
		if err := rows.Scan(&c.Index, &c.Name, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// nullIfEmpty stores NULL for statistics of a collection without finite
// values, since SQLite cannot hold NaN.
func nullIfEmpty(s stats.Summary, v float64) sql.NullFloat64 {
	if s.Finite == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
