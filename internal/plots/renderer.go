// Package plots renders the per-split dataset charts: class distribution,
// bounding-box size distribution and aspect-ratio distribution.
package plots

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg" // png, jpeg and tiff canvases

	"github.com/banshee-data/labelstats/internal/fsutil"
	"github.com/banshee-data/labelstats/internal/labels"
	"github.com/banshee-data/labelstats/internal/stats"
)

// DefaultBins is the histogram bin count for size and aspect-ratio charts.
const DefaultBins = 20

// Plot kinds, used as file name suffixes.
const (
	ClassDistribution  = "class_distribution"
	BBoxSizeDistrib    = "bbox_size_distribution"
	AspectRatioDistrib = "aspect_ratio_distribution"
)

// Renderer writes the three charts of a split into OutputDir.
type Renderer struct {
	FS        fsutil.FileSystem
	OutputDir string
	Bins      int       // 0 means DefaultBins
	Width     vg.Length // 0 means 8 inches
	Height    vg.Length // 0 means 6 inches
	Format    string    // image format understood by plot.WriterTo; "" means png
}

// FileNames returns the chart file names for split, in render order.
func FileNames(split, format string) []string {
	if format == "" {
		format = "png"
	}
	return []string{
		fmt.Sprintf("%s_%s.%s", split, ClassDistribution, format),
		fmt.Sprintf("%s_%s.%s", split, BBoxSizeDistrib, format),
		fmt.Sprintf("%s_%s.%s", split, AspectRatioDistrib, format),
	}
}

// Render draws and saves the split's charts, overwriting existing files, and
// returns the paths written. Empty statistics produce empty charts.
func (r *Renderer) Render(split string, reg *labels.Registry, st *stats.Stats) ([]string, error) {
	if err := r.FS.MkdirAll(r.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	bins := r.Bins
	if bins <= 0 {
		bins = DefaultBins
	}

	builders := []func() (*plot.Plot, error){
		func() (*plot.Plot, error) { return classPlot(split, reg, st.Counts) },
		func() (*plot.Plot, error) { return sizePlot(split, st.Widths, st.Heights, bins) },
		func() (*plot.Plot, error) { return aspectPlot(split, st.AspectRatios, bins) },
	}

	var written []string
	for i, name := range FileNames(split, r.Format) {
		p, err := builders[i]()
		if err != nil {
			return written, fmt.Errorf("build %s: %w", name, err)
		}
		path := filepath.Join(r.OutputDir, name)
		if err := r.save(p, path); err != nil {
			return written, fmt.Errorf("save %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func (r *Renderer) save(p *plot.Plot, path string) (err error) {
	w, h := r.Width, r.Height
	if w == 0 {
		w = 8 * vg.Inch
	}
	if h == 0 {
		h = 6 * vg.Inch
	}
	format := r.Format
	if format == "" {
		format = "png"
	}

	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return err
	}

	f, err := r.FS.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = wt.WriteTo(f)
	return err
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(grid)
	return p
}

func classPlot(split string, reg *labels.Registry, counts []int) (*plot.Plot, error) {
	p := newPlot(split+" - Class Distribution", "Class", "Number of Instances")

	if len(counts) == 0 {
		return p, nil
	}

	colors := classColors(len(counts))
	maxCount := 0
	for i, c := range counts {
		// One BarChart per class so each bar gets its own colour while
		// sharing the nominal X position i.
		bar, err := plotter.NewBarChart(plotter.Values{float64(c)}, vg.Points(40))
		if err != nil {
			return nil, err
		}
		bar.XMin = float64(i)
		bar.Color = colors[i]
		bar.LineStyle.Width = 0
		p.Add(bar)
		if c > maxCount {
			maxCount = c
		}
	}

	names := make([]string, len(counts))
	for i := range names {
		names[i] = reg.Name(i)
	}
	p.NominalX(names...)
	p.Y.Min = 0
	if maxCount == 0 {
		p.Y.Max = 1
	}
	return p, nil
}

func sizePlot(split string, widths, heights []float64, bins int) (*plot.Plot, error) {
	p := newPlot(split+" - Bounding Box Size Distribution", "Normalized Size", "Frequency")

	for _, series := range []struct {
		name   string
		values []float64
		fill   color.Color
	}{
		{"Width", widths, widthFill},
		{"Height", heights, heightFill},
	} {
		h := histogram(stats.Bin(series.values, bins), series.fill)
		if h == nil {
			continue
		}
		p.Add(h)
		p.Legend.Add(series.name, h)
	}
	p.Legend.Top = true
	finishHistogramAxes(p)
	return p, nil
}

func aspectPlot(split string, ratios []float64, bins int) (*plot.Plot, error) {
	p := newPlot(split+" - Bounding Box Aspect Ratio Distribution", "Aspect Ratio (Width/Height)", "Frequency")

	if h := histogram(stats.Bin(ratios, bins), aspectFill); h != nil {
		p.Add(h)
	}
	finishHistogramAxes(p)
	return p, nil
}

// histogram converts precomputed bins into a gonum histogram. It returns nil
// when there is nothing to draw.
func histogram(b stats.Binned, fill color.Color) *plotter.Histogram {
	if b.Total() == 0 {
		return nil
	}

	hbins := make([]plotter.HistogramBin, len(b.Counts))
	for i, c := range b.Counts {
		hbins[i] = plotter.HistogramBin{
			Min:    b.Lo + float64(i)*b.Width,
			Max:    b.Lo + float64(i+1)*b.Width,
			Weight: c,
		}
	}

	ls := plotter.DefaultLineStyle
	ls.Width = vg.Points(0.5)
	return &plotter.Histogram{
		Bins:      hbins,
		Width:     b.Width,
		FillColor: fill,
		LineStyle: ls,
	}
}

func finishHistogramAxes(p *plot.Plot) {
	if math.IsInf(p.X.Min, 0) || math.IsInf(p.X.Max, 0) {
		p.X.Min, p.X.Max = 0, 1
	}
	p.Y.Min = 0
	if p.Y.Max <= 0 {
		p.Y.Max = 1
	}
}
