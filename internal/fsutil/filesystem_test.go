package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_ReadDirSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	entries, err := OSFileSystem{}.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "c.jpg"}, names)
}

func TestMemoryFileSystem_AddAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("/data/train/labels/img1.txt", []byte("0 0.5 0.5 0.2 0.3\n"))

	data, err := mfs.ReadFile("/data/train/labels/img1.txt")
	require.NoError(t, err)
	assert.Equal(t, "0 0.5 0.5 0.2 0.3\n", string(data))

	assert.True(t, mfs.Exists("/data/train/labels"))
	assert.True(t, mfs.Exists("/data/train"))
	assert.False(t, mfs.Exists("/data/val"))
}

func TestMemoryFileSystem_CreateRequiresParent(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Create("/plots/out.png")
	require.Error(t, err)

	require.NoError(t, mfs.MkdirAll("/plots", 0755))
	w, err := mfs.Create("/plots/out.png")
	require.NoError(t, err)

	_, err = w.Write([]byte("created content"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := mfs.ReadFile("/plots/out.png")
	require.NoError(t, err)
	assert.Equal(t, "created content", string(data))
}

func TestMemoryFileSystem_CreateTruncates(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("/plots/out.png", []byte("old content that is long"))

	w, err := mfs.Create("/plots/out.png")
	require.NoError(t, err)
	_, _ = w.Write([]byte("new"))
	require.NoError(t, w.Close())

	data, err := mfs.ReadFile("/plots/out.png")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("/ds/labels/b.txt", nil)
	mfs.AddFile("/ds/labels/a.txt", nil)
	mfs.AddFile("/ds/labels/nested/c.txt", nil)
	mfs.AddFile("/ds/other/d.txt", nil)

	entries, err := mfs.ReadDir("/ds/labels")
	require.NoError(t, err)

	var names []string
	var dirs []string
	for _, e := range entries {
		names = append(names, e.Name())
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	assert.Equal(t, []string{"a.txt", "b.txt", "nested"}, names)
	assert.Equal(t, []string{"nested"}, dirs)

	_, err = mfs.ReadDir("/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_OpenHandles(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("/a.txt", []byte("hello"))

	f, err := mfs.Open("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, mfs.OpenHandles())

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, f.Close())
	assert.Equal(t, 0, mfs.OpenHandles())
	assert.Error(t, f.Close())
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("/dir/file.txt", []byte("12345"))

	info, err := mfs.Stat("/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "file.txt", info.Name())
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())

	info, err = mfs.Stat("/dir")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = mfs.Stat("/nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_Files(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.AddFile("/plots/b.png", nil)
	mfs.AddFile("/plots/a.png", nil)
	mfs.AddFile("/plotsx/c.png", nil)

	assert.Equal(t, []string{"/plots/a.png", "/plots/b.png"}, mfs.Files("/plots"))
}
