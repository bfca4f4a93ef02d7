package pipeline

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/labelstats/internal/config"
	"github.com/banshee-data/labelstats/internal/fsutil"
	"github.com/banshee-data/labelstats/internal/history"
	"github.com/banshee-data/labelstats/internal/monitoring"
	"github.com/banshee-data/labelstats/internal/plots"
	"github.com/banshee-data/labelstats/internal/stats"
	"github.com/banshee-data/labelstats/internal/testutil"
)

const root = "/ds"

func init() {
	monitoring.SetLogger(nil)
}

func rootConfig() *config.Config {
	cfg := config.Empty()
	cfg.SetDatasetRoot(root)
	return cfg
}

func TestRun_DefaultLayoutWritesNinePlots(t *testing.T) {
	t.Parallel()

	mfs := testutil.MemDataset(root, testutil.HelmetDataset())
	report, err := Run(context.Background(), Options{FS: mfs, Config: rootConfig(), Observer: stats.NopObserver{}})
	require.NoError(t, err)
	require.Empty(t, report.Failed())

	var want []string
	for _, split := range []string{"Train", "Validation", "Full"} {
		for _, name := range plots.FileNames(split, "png") {
			want = append(want, filepath.Join(root, "plots", name))
		}
	}
	assert.ElementsMatch(t, want, mfs.Files(filepath.Join(root, "plots")))
	assert.Len(t, want, 9)

	require.Len(t, report.Splits, 3)
	assert.Equal(t, []int{1, 1}, report.Splits[0].Stats.Counts)
	assert.Equal(t, []int{2, 0}, report.Splits[1].Stats.Counts)
	assert.Equal(t, []int{3, 1}, report.Splits[2].Stats.Counts)
	assert.Equal(t, 5, report.Splits[2].Stats.Records())
	assert.NotEmpty(t, report.RunID)
	assert.Zero(t, mfs.OpenHandles())
}

func TestRun_EmptyAndMissingSplitsStillPlot(t *testing.T) {
	t.Parallel()

	// val/labels is never created
	mfs := testutil.MemDataset(root, testutil.Dataset{Classes: []string{"a", "b"}, Train: map[string]string{}})
	report, err := Run(context.Background(), Options{FS: mfs, Config: rootConfig()})
	require.NoError(t, err)
	require.Empty(t, report.Failed())

	for _, s := range report.Splits {
		assert.Equal(t, []int{0, 0}, s.Stats.Counts, s.Name)
		assert.Empty(t, s.Stats.Widths, s.Name)
		assert.Len(t, s.Plots, 3, s.Name)
	}
	assert.Len(t, mfs.Files(filepath.Join(root, "plots")), 9)
}

func TestRun_MissingManifestIsFatal(t *testing.T) {
	t.Parallel()

	d := testutil.HelmetDataset()
	d.Classes = nil
	mfs := testutil.MemDataset(root, d)

	report, err := Run(context.Background(), Options{FS: mfs, Config: rootConfig()})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Empty(t, mfs.Files(filepath.Join(root, "plots")))
}

// faultyFS fails directory listings and file creation under chosen paths.
type faultyFS struct {
	*fsutil.MemoryFileSystem
	badDir    string
	badCreate string
}

func (f faultyFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name == f.badDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrPermission}
	}
	return f.MemoryFileSystem.ReadDir(name)
}

func (f faultyFS) Create(name string) (io.WriteCloser, error) {
	if f.badCreate != "" && strings.Contains(name, f.badCreate) {
		return nil, errors.New("disk full")
	}
	return f.MemoryFileSystem.Create(name)
}

func TestRun_FailingSplitDoesNotStopLaterSplits(t *testing.T) {
	t.Parallel()

	mfs := testutil.MemDataset(root, testutil.HelmetDataset())
	fsys := faultyFS{MemoryFileSystem: mfs, badDir: filepath.Join(root, testutil.ValLabelDir)}

	report, err := Run(context.Background(), Options{FS: fsys, Config: rootConfig()})
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, "Validation", failed[0].Name)
	assert.Equal(t, "Full", failed[1].Name)
	assert.ErrorIs(t, failed[0].Err, fs.ErrPermission)

	assert.NoError(t, report.Splits[0].Err)
	assert.Len(t, mfs.Files(filepath.Join(root, "plots")), 3)
}

func TestRun_RenderFailureIsolated(t *testing.T) {
	t.Parallel()

	mfs := testutil.MemDataset(root, testutil.HelmetDataset())
	fsys := faultyFS{MemoryFileSystem: mfs, badCreate: "Train_bbox"}

	report, err := Run(context.Background(), Options{FS: fsys, Config: rootConfig()})
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "Train", failed[0].Name)
	assert.Len(t, failed[0].Plots, 1, "class chart was written before the failure")

	// Validation and Full wrote all six of theirs.
	assert.Len(t, mfs.Files(filepath.Join(root, "plots")), 7)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mfs := testutil.MemDataset(root, testutil.HelmetDataset())
	report, err := Run(ctx, Options{FS: mfs, Config: rootConfig()})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Splits)
}

func TestRun_CustomSplits(t *testing.T) {
	t.Parallel()

	cfg := rootConfig()
	cfg.Splits = []config.SplitConfig{{Name: "ValOnly", Dirs: []string{testutil.ValLabelDir}}}

	mfs := testutil.MemDataset(root, testutil.HelmetDataset())
	report, err := Run(context.Background(), Options{FS: mfs, Config: cfg})
	require.NoError(t, err)

	require.Len(t, report.Splits, 1)
	assert.Equal(t, "ValOnly", report.Splits[0].Name)
	assert.Len(t, mfs.Files(filepath.Join(root, "plots")), 3)
}

func TestRun_HTMLReport(t *testing.T) {
	t.Parallel()

	cfg := rootConfig()
	cfg.SetHTMLReport(true)

	mfs := testutil.MemDataset(root, testutil.HelmetDataset())
	report, err := Run(context.Background(), Options{FS: mfs, Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "plots", plots.ReportFile), report.HTMLReport)
	assert.Len(t, mfs.Files(filepath.Join(root, "plots")), 10)
}

func TestRun_RecordsHistory(t *testing.T) {
	t.Parallel()

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	mfs := testutil.MemDataset(root, testutil.HelmetDataset())
	report, err := Run(context.Background(), Options{FS: mfs, Config: rootConfig(), History: store})
	require.NoError(t, err)

	runs, err := store.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].ID)
	assert.Equal(t, 2, runs[0].ClassCount)

	summaries, err := store.SplitSummaries(report.RunID)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "Full", summaries[2].Split)
	assert.Equal(t, 5, summaries[2].Records)

	counts, err := store.ClassCounts(report.RunID, "Full")
	require.NoError(t, err)
	assert.Equal(t, []history.ClassCount{{Index: 0, Name: "helmet", Count: 3}, {Index: 1, Name: "no-helmet", Count: 1}}, counts)
}

func TestRun_OnDisk(t *testing.T) {
	t.Parallel()

	dsRoot := testutil.WriteDataset(t, testutil.HelmetDataset())
	cfg := config.Empty()
	cfg.SetDatasetRoot(dsRoot)

	report, err := Run(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	require.Empty(t, report.Failed())

	for _, s := range report.Splits {
		for _, p := range s.Plots {
			assert.FileExists(t, p)
		}
	}
}
