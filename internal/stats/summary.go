package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the finite values of a geometry collection.
type Summary struct {
	N      int // all values, including non-finite ones
	Finite int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
	P05    float64
	P95    float64
}

// Summarize computes summary statistics over the finite values. With no
// finite values every statistic is zero.
func Summarize(values []float64) Summary {
	finite := finiteSorted(values)
	s := Summary{N: len(values), Finite: len(finite)}
	if len(finite) == 0 {
		return s
	}

	s.Min = finite[0]
	s.Max = finite[len(finite)-1]
	s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	if len(finite) == 1 {
		s.StdDev = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, finite, nil)
	s.P05 = stat.Quantile(0.05, stat.Empirical, finite, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, finite, nil)
	return s
}

// Binned is a fixed-count equal-width histogram.
type Binned struct {
	Lo      float64
	Hi      float64
	Width   float64
	Counts  []float64
	Dropped int // non-finite values left out of every bin
}

// Bin sorts the finite values into bins equal-width bins spanning their
// range. A degenerate range is widened by 0.5 on each side. With no finite
// values the bins span [0, 1] and are all empty.
func Bin(values []float64, bins int) Binned {
	finite := finiteSorted(values)
	lo, hi := 0.0, 1.0
	if len(finite) > 0 {
		lo, hi = finite[0], finite[len(finite)-1]
		if lo == hi {
			lo -= 0.5
			hi += 0.5
		}
	}
	b := binSorted(finite, bins, lo, hi)
	b.Dropped = len(values) - len(finite)
	return b
}

// BinRange bins values over the fixed range [lo, hi]. Values outside the
// range and non-finite values are counted in Dropped. It is used to put
// several series on shared bins.
func BinRange(values []float64, bins int, lo, hi float64) Binned {
	if !(hi > lo) {
		lo, hi = lo-0.5, lo+0.5
	}
	finite := finiteSorted(values)
	inRange := finite[:0]
	for _, v := range finite {
		if v >= lo && v <= hi {
			inRange = append(inRange, v)
		}
	}
	b := binSorted(inRange, bins, lo, hi)
	b.Dropped = len(values) - len(inRange)
	return b
}

func binSorted(sorted []float64, bins int, lo, hi float64) Binned {
	if bins < 1 {
		bins = 1
	}
	b := Binned{
		Lo:     lo,
		Hi:     hi,
		Width:  (hi - lo) / float64(bins),
		Counts: make([]float64, bins),
	}
	if len(sorted) == 0 {
		return b
	}

	// stat.Histogram bins are half open, so nudge the top divider past the
	// maximum to keep it in the last bin.
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	stat.Histogram(b.Counts, dividers, sorted, nil)
	return b
}

// Centers returns the midpoint of every bin.
func (b Binned) Centers() []float64 {
	out := make([]float64, len(b.Counts))
	for i := range out {
		out[i] = b.Lo + (float64(i)+0.5)*b.Width
	}
	return out
}

// Total returns the number of values placed in bins.
func (b Binned) Total() float64 { return floats.Sum(b.Counts) }

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
