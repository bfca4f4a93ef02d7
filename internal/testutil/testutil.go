// Package testutil provides shared test fixtures.
//
// Dataset describes a small YOLO-style dataset tree that can be laid down in
// a temporary directory or in an in-memory filesystem.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/labelstats/internal/fsutil"
)

// Label directories relative to a dataset root.
var (
	TrainLabelDir = filepath.Join("train", "labels")
	ValLabelDir   = filepath.Join("val", "labels")
)

// ClassFile is the manifest name relative to a dataset root.
const ClassFile = "class.txt"

// Dataset maps label file names to their contents for each split. A nil
// split map means the directory is not created at all.
type Dataset struct {
	Classes []string
	Train   map[string]string
	Val     map[string]string
}

// HelmetDataset returns the two-class fixture used across packages: a
// single train file mixing valid, out-of-range and malformed lines, and one
// val file.
func HelmetDataset() Dataset {
	return Dataset{
		Classes: []string{"helmet", "no-helmet"},
		Train: map[string]string{
			"img1.txt": Lines(
				"0 0.5 0.5 0.2 0.3",
				"1 0.4 0.4 0.1 0.1",
				"2 0.1 0.1 0.1 0.1",
				"bad line",
			),
		},
		Val: map[string]string{
			"img2.txt": Lines(
				"0 0.3 0.3 0.4 0.2",
				"0 0.6 0.6 0.5 0.5",
			),
		},
	}
}

// Lines joins lines with newlines and adds a trailing newline.
func Lines(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// WriteDataset lays d down under a fresh temporary directory and returns
// its root.
func WriteDataset(t *testing.T, d Dataset) string {
	t.Helper()
	root := t.TempDir()

	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	if d.Classes != nil {
		write(ClassFile, Lines(d.Classes...))
	}
	for dir, files := range map[string]map[string]string{TrainLabelDir: d.Train, ValLabelDir: d.Val} {
		if files == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
		for name, content := range files {
			write(filepath.Join(dir, name), content)
		}
	}
	return root
}

// MemDataset lays d down under root in a new in-memory filesystem.
func MemDataset(root string, d Dataset) *fsutil.MemoryFileSystem {
	mfs := fsutil.NewMemoryFileSystem()
	if d.Classes != nil {
		mfs.AddFile(filepath.Join(root, ClassFile), []byte(Lines(d.Classes...)))
	}
	for dir, files := range map[string]map[string]string{TrainLabelDir: d.Train, ValLabelDir: d.Val} {
		if files == nil {
			continue
		}
		_ = mfs.MkdirAll(filepath.Join(root, dir), 0755)
		for name, content := range files {
			mfs.AddFile(filepath.Join(root, dir, name), []byte(content))
		}
	}
	return mfs
}
