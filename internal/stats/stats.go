// Package stats accumulates per-class counts and bounding-box geometry for a
// dataset split.
package stats

import (
	"fmt"

	"github.com/banshee-data/labelstats/internal/fsutil"
	"github.com/banshee-data/labelstats/internal/labels"
	"github.com/banshee-data/labelstats/internal/monitoring"
)

var logf = monitoring.Prefixed("stats")

// Stats holds the aggregate statistics of one split.
//
// Counts is indexed by class and only includes records whose class index is
// in the registry. Widths, Heights and AspectRatios hold one entry per
// parseable record regardless of class, so a record with an unknown class
// still shows up in the geometry distributions.
type Stats struct {
	Counts       []int
	Widths       []float64
	Heights      []float64
	AspectRatios []float64

	Parse      labels.ParseStats
	OutOfRange int // records whose class index is not in the registry
	FileErrors int // label files that could not be read
}

// New returns empty statistics for numClasses classes.
func New(numClasses int) *Stats {
	return &Stats{Counts: make([]int, numClasses)}
}

// Add folds one record into s. The aspect ratio is width/height with IEEE
// semantics, so a zero height stores +Inf, -Inf or NaN as computed.
func (s *Stats) Add(rec labels.Record) {
	if rec.ClassIndex >= 0 && rec.ClassIndex < len(s.Counts) {
		s.Counts[rec.ClassIndex]++
	} else {
		s.OutOfRange++
	}
	s.Widths = append(s.Widths, rec.Width)
	s.Heights = append(s.Heights, rec.Height)
	s.AspectRatios = append(s.AspectRatios, rec.Width/rec.Height)
}

// Total returns the number of in-range records counted.
func (s *Stats) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Records returns the number of geometry samples, i.e. every parseable
// record including those with an out-of-range class.
func (s *Stats) Records() int { return len(s.Widths) }

// Merge returns new statistics pooling a and b: counts are summed element
// by element and the geometry collections are concatenated.
func Merge(a, b *Stats) *Stats {
	n := len(a.Counts)
	if len(b.Counts) > n {
		n = len(b.Counts)
	}
	out := New(n)
	for _, s := range []*Stats{a, b} {
		for i, c := range s.Counts {
			out.Counts[i] += c
		}
		out.Widths = append(out.Widths, s.Widths...)
		out.Heights = append(out.Heights, s.Heights...)
		out.AspectRatios = append(out.AspectRatios, s.AspectRatios...)
		out.Parse.Add(s.Parse)
		out.OutOfRange += s.OutOfRange
		out.FileErrors += s.FileErrors
	}
	return out
}

// Aggregator builds Stats from label directories.
type Aggregator struct {
	FS       fsutil.FileSystem
	Registry *labels.Registry
	Observer Observer // nil means NopObserver
}

// Aggregate pools every label file under dirs and returns fresh statistics
// for the split. Missing directories contribute nothing. A label file that
// cannot be read is logged and counted in FileErrors; the rest of the split
// still aggregates.
func (a *Aggregator) Aggregate(split string, dirs []string) (*Stats, error) {
	obs := a.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	var files []string
	for _, dir := range dirs {
		found, err := labels.ListFiles(a.FS, dir)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", split, err)
		}
		files = append(files, found...)
	}

	st := New(a.Registry.Len())
	for i, path := range files {
		obs.FileStarted(split, i, len(files), path)

		ps, err := labels.ReadFile(a.FS, path, st.Add)
		st.Parse.Add(ps)
		if err != nil {
			logf("split %s: %v", split, err)
			st.FileErrors++
		}
	}

	obs.SplitDone(split, st)
	return st, nil
}
