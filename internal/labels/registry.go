package labels

import (
	"errors"
	"fmt"
	"strings"

	"github.com/banshee-data/labelstats/internal/fsutil"
)

// ErrEmptyManifest is returned when a class manifest names no classes.
var ErrEmptyManifest = errors.New("class manifest is empty")

// Registry is the ordered list of class names. A class index is the
// position of its name in the manifest.
type Registry struct {
	names []string
}

// NewRegistry builds a registry from names in index order.
func NewRegistry(names ...string) *Registry {
	return &Registry{names: append([]string(nil), names...)}
}

// LoadRegistry reads a class manifest, one name per line. Names are trimmed
// of surrounding whitespace. Trailing blank lines are dropped; blank lines
// between names are kept so later indices do not shift.
func LoadRegistry(fsys fsutil.FileSystem, path string) (*Registry, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class manifest: %w", err)
	}

	var names []string
	err = readLines(strings.NewReader(string(data)), func(line string) {
		names = append(names, strings.TrimSpace(line))
	})
	if err != nil {
		return nil, fmt.Errorf("read class manifest: %w", err)
	}

	for len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyManifest)
	}

	return &Registry{names: names}, nil
}

// Len returns the number of classes.
func (r *Registry) Len() int { return len(r.names) }

// Valid reports whether i indexes a known class.
func (r *Registry) Valid(i int) bool { return i >= 0 && i < len(r.names) }

// Name returns the name of class i, or "" when i is out of range.
func (r *Registry) Name(i int) string {
	if !r.Valid(i) {
		return ""
	}
	return r.names[i]
}

// Names returns a copy of the class names in index order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
