package plots

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/labelstats/internal/fsutil"
	"github.com/banshee-data/labelstats/internal/labels"
	"github.com/banshee-data/labelstats/internal/stats"
)

// ReportFile is the name of the interactive HTML report.
const ReportFile = "report.html"

// HTMLReport collects interactive versions of the split charts into a single
// go-echarts page.
type HTMLReport struct {
	FS        fsutil.FileSystem
	OutputDir string
	Bins      int
	Title     string

	charts []components.Charter
}

// AddSplit appends the three charts of a split to the report.
func (h *HTMLReport) AddSplit(split string, reg *labels.Registry, st *stats.Stats) {
	bins := h.Bins
	if bins <= 0 {
		bins = DefaultBins
	}
	h.charts = append(h.charts,
		classBar(split, reg, st.Counts),
		sizeBar(split, st.Widths, st.Heights, bins),
		aspectBar(split, st.AspectRatios, bins),
	)
}

// Len returns the number of charts collected so far.
func (h *HTMLReport) Len() int { return len(h.charts) }

// Write renders the page to OutputDir/report.html and returns its path.
func (h *HTMLReport) Write() (string, error) {
	if err := h.FS.MkdirAll(h.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	page := components.NewPage()
	page.PageTitle = h.Title
	if page.PageTitle == "" {
		page.PageTitle = "Dataset Statistics"
	}
	page.AddCharts(h.charts...)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return "", fmt.Errorf("render error: %w", err)
	}

	path := filepath.Join(h.OutputDir, ReportFile)
	f, err := h.FS.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func classBar(split string, reg *labels.Registry, counts []int) *charts.Bar {
	names := make([]string, len(counts))
	colors := classColors(len(counts))
	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		names[i] = reg.Name(i)
		data[i] = opts.BarData{Value: c, ItemStyle: &opts.ItemStyle{Color: hexColor(colors[i])}}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: split + " - Class Distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Class", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of Instances", NameLocation: "middle", NameGap: 40}),
	)
	bar.SetXAxis(names).
		AddSeries("instances", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func sizeBar(split string, widths, heights []float64, bins int) *charts.Bar {
	// Both series share one set of bins so their bars line up.
	shared := stats.Bin(append(append([]float64(nil), widths...), heights...), bins)
	w := stats.BinRange(widths, bins, shared.Lo, shared.Hi)
	hgt := stats.BinRange(heights, bins, shared.Lo, shared.Hi)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: split + " - Bounding Box Size Distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Normalized Size", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency", NameLocation: "middle", NameGap: 40}),
	)
	bar.SetXAxis(binLabels(shared)).
		AddSeries("Width", barData(w), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#1f77b4"})).
		AddSeries("Height", barData(hgt), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff7f0e"}))
	return bar
}

func aspectBar(split string, ratios []float64, bins int) *charts.Bar {
	b := stats.Bin(ratios, bins)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    split + " - Bounding Box Aspect Ratio Distribution",
			Subtitle: fmt.Sprintf("%d non-finite ratios omitted", b.Dropped),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Aspect Ratio (Width/Height)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency", NameLocation: "middle", NameGap: 40}),
	)
	bar.SetXAxis(binLabels(b)).
		AddSeries("aspect ratio", barData(b), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#800080"}))
	return bar
}

func binLabels(b stats.Binned) []string {
	centers := b.Centers()
	out := make([]string, len(centers))
	for i, c := range centers {
		out[i] = fmt.Sprintf("%.3g", c)
	}
	return out
}

func barData(b stats.Binned) []opts.BarData {
	out := make([]opts.BarData, len(b.Counts))
	for i, c := range b.Counts {
		out[i] = opts.BarData{Value: c}
	}
	return out
}
