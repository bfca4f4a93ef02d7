// Package pipeline runs the dataset statistics job: load the class
// manifest once, then aggregate and plot each split in order.
package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/labelstats/internal/config"
	"github.com/banshee-data/labelstats/internal/fsutil"
	"github.com/banshee-data/labelstats/internal/history"
	"github.com/banshee-data/labelstats/internal/labels"
	"github.com/banshee-data/labelstats/internal/monitoring"
	"github.com/banshee-data/labelstats/internal/plots"
	"github.com/banshee-data/labelstats/internal/stats"
	"github.com/banshee-data/labelstats/internal/version"
)

var logf = monitoring.Prefixed("pipeline")

// Options wires the pipeline's collaborators.
type Options struct {
	FS       fsutil.FileSystem // nil means fsutil.OSFileSystem
	Config   *config.Config    // nil means all defaults
	Observer stats.Observer    // nil means a ProgressObserver driven by the config
	History  *history.Store    // nil disables run history
}

// SplitResult is the outcome of one split.
type SplitResult struct {
	Name  string
	Dirs  []string
	Stats *stats.Stats
	Plots []string
	Err   error
}

// Report summarises a run.
type Report struct {
	RunID      string
	Registry   *labels.Registry
	Splits     []SplitResult
	HTMLReport string
}

// Failed returns the splits that did not complete.
func (r *Report) Failed() []SplitResult {
	var out []SplitResult
	for _, s := range r.Splits {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Run executes every configured split in sequence. It fails outright only
// when the class manifest cannot be loaded or ctx is cancelled; a failing
// split is recorded in the report and the remaining splits still run.
func Run(ctx context.Context, opts Options) (*Report, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Empty()
	}
	obs := opts.Observer
	if obs == nil {
		if every := cfg.GetProgressEvery(); every > 0 {
			obs = stats.ProgressObserver{Every: every}
		} else {
			obs = stats.NopObserver{}
		}
	}

	reg, err := labels.LoadRegistry(fsys, cfg.GetClassFile())
	if err != nil {
		return nil, err
	}
	logf("loaded %d classes from %s", reg.Len(), cfg.GetClassFile())

	run := history.NewRun(version.Version, cfg.GetDatasetRoot(), reg.Len())
	store := opts.History
	if store != nil {
		if err := store.RecordRun(run); err != nil {
			logf("run history disabled: %v", err)
			store = nil
		}
	}

	agg := &stats.Aggregator{FS: fsys, Registry: reg, Observer: obs}
	renderer := &plots.Renderer{
		FS:        fsys,
		OutputDir: cfg.GetOutputDir(),
		Bins:      cfg.GetBins(),
		Format:    cfg.GetImageFormat(),
	}
	var html *plots.HTMLReport
	if cfg.GetHTMLReport() {
		html = &plots.HTMLReport{
			FS:        fsys,
			OutputDir: cfg.GetOutputDir(),
			Bins:      cfg.GetBins(),
			Title:     fmt.Sprintf("Dataset Statistics (%s)", cfg.GetDatasetRoot()),
		}
	}

	report := &Report{RunID: run.ID, Registry: reg}
	for _, split := range cfg.GetSplits() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := runSplit(agg, renderer, reg, split)
		if res.Err != nil {
			logf("split %s failed: %v", split.Name, res.Err)
		} else {
			if html != nil {
				html.AddSplit(split.Name, reg, res.Stats)
			}
			if store != nil {
				if err := store.RecordSplit(run.ID, split.Name, reg, res.Stats); err != nil {
					logf("failed to record split %s: %v", split.Name, err)
				}
			}
		}
		report.Splits = append(report.Splits, res)
	}

	if html != nil && html.Len() > 0 {
		path, err := html.Write()
		if err != nil {
			logf("failed to write HTML report: %v", err)
		} else {
			report.HTMLReport = path
			logf("interactive report saved to %s", path)
		}
	}

	return report, nil
}

func runSplit(agg *stats.Aggregator, renderer *plots.Renderer, reg *labels.Registry, split config.SplitConfig) SplitResult {
	res := SplitResult{Name: split.Name, Dirs: split.Dirs}
	logf("processing %s dataset", split.Name)

	st, err := agg.Aggregate(split.Name, split.Dirs)
	if err != nil {
		res.Err = err
		return res
	}
	res.Stats = st

	written, err := renderer.Render(split.Name, reg, st)
	res.Plots = written
	if err != nil {
		res.Err = fmt.Errorf("render %s: %w", split.Name, err)
		return res
	}
	logf("plots saved for %s", split.Name)
	return res
}
