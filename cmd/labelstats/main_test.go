package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/labelstats/internal/monitoring"
	"github.com/banshee-data/labelstats/internal/testutil"
)

func setFlag(t *testing.T, p *string, v string) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func muteLogs(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func TestRun_DatasetRoot(t *testing.T) {
	muteLogs(t)

	root := testutil.WriteDataset(t, testutil.HelmetDataset())
	setFlag(t, rootDir, root)
	setFlag(t, historyPath, "history.db")

	require.Equal(t, 0, run())

	entries, err := os.ReadDir(filepath.Join(root, "plots"))
	require.NoError(t, err)
	assert.Len(t, entries, 9)
	assert.FileExists(t, filepath.Join(root, "history.db"))
}

func TestRun_MissingManifest(t *testing.T) {
	muteLogs(t)

	root := testutil.WriteDataset(t, testutil.Dataset{Train: map[string]string{}})
	setFlag(t, rootDir, root)

	assert.Equal(t, 1, run())
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dataset_root": "/from/file", "bins": 12}`), 0644))
	setFlag(t, configPath, path)
	setFlag(t, rootDir, "/from/flag")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.GetDatasetRoot())
	assert.Equal(t, 12, cfg.GetBins())
}

func TestLoadConfig_BadFile(t *testing.T) {
	setFlag(t, configPath, filepath.Join(t.TempDir(), "nope.json"))

	_, err := loadConfig()
	assert.Error(t, err)
}
