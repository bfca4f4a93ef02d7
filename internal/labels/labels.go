// Package labels reads YOLO-format label files and the class manifest that
// gives their class indices names.
//
// A label line is "class x_center y_center width height", whitespace
// separated, with the four geometry values normalised to the image size.
package labels

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/labelstats/internal/fsutil"
	"github.com/banshee-data/labelstats/internal/monitoring"
)

// LabelExt is the extension of label files inside a label directory.
const LabelExt = ".txt"

// fieldsPerLine is the exact token count of a bounding-box line.
const fieldsPerLine = 5

var logf = monitoring.Prefixed("labels")

// Record is one parsed bounding-box annotation.
type Record struct {
	ClassIndex int
	XCenter    float64
	YCenter    float64
	Width      float64
	Height     float64
}

// ParseStats counts what happened while reading label files.
type ParseStats struct {
	Files   int // label files read
	Lines   int // non-empty lines seen
	Records int // lines that parsed into a Record
	Skipped int // non-empty lines rejected as malformed
}

// Add accumulates o into s.
func (s *ParseStats) Add(o ParseStats) {
	s.Files += o.Files
	s.Lines += o.Lines
	s.Records += o.Records
	s.Skipped += o.Skipped
}

// ParseLine parses a single label line. It reports false for lines that do
// not hold exactly five tokens or whose tokens are not numeric; such lines
// are skipped by callers rather than treated as errors.
func ParseLine(line string) (Record, bool) {
	fields := strings.Fields(line)
	if len(fields) != fieldsPerLine {
		return Record{}, false
	}

	class, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, false
	}

	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Record{}, false
		}
		vals[i] = v
	}

	return Record{
		ClassIndex: class,
		XCenter:    vals[0],
		YCenter:    vals[1],
		Width:      vals[2],
		Height:     vals[3],
	}, true
}

// ListFiles returns the label files directly under dir, sorted by name.
// Subdirectories are not descended into. A missing directory is logged and
// yields no files so that one absent split does not abort a run.
func ListFiles(fsys fsutil.FileSystem, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logf("label directory %s does not exist, treating as empty", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("list label directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), LabelExt) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// ReadFile streams the records of one label file to fn. Malformed lines are
// counted in the returned stats and otherwise ignored. The file is closed
// before ReadFile returns.
func ReadFile(fsys fsutil.FileSystem, path string, fn func(Record)) (ParseStats, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return ParseStats{}, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	ps := ParseStats{Files: 1}
	err = readLines(f, func(line string) {
		if strings.TrimSpace(line) == "" {
			return
		}
		ps.Lines++
		rec, ok := ParseLine(line)
		if !ok {
			ps.Skipped++
			return
		}
		ps.Records++
		fn(rec)
	})
	if err != nil {
		return ps, fmt.Errorf("read label file %s: %w", path, err)
	}
	return ps, nil
}

// readLines calls fn for every line in r, without the trailing newline.
// Lines of any length are supported.
func readLines(r io.Reader, fn func(string)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
