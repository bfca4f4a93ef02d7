// Package config loads the optional JSON run configuration. Every field is
// optional; the Get* accessors supply defaults that reproduce the standard
// dataset layout (class.txt, train/labels, val/labels, plots/).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults for the standard dataset layout.
const (
	DefaultClassFile     = "class.txt"
	DefaultOutputDir     = "plots"
	DefaultBins          = 20
	DefaultProgressEvery = 100
	DefaultImageFormat   = "png"
)

// maxFileSize bounds the config file read.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// SplitConfig names a group of label directories that are pooled together.
type SplitConfig struct {
	Name string   `json:"name"`
	Dirs []string `json:"dirs"`
}

// Config is the root run configuration.
type Config struct {
	DatasetRoot   *string       `json:"dataset_root,omitempty"`
	ClassFile     *string       `json:"class_file,omitempty"`
	OutputDir     *string       `json:"output_dir,omitempty"`
	Bins          *int          `json:"bins,omitempty"`
	Splits        []SplitConfig `json:"splits,omitempty"`
	ImageFormat   *string       `json:"image_format,omitempty"`
	HTMLReport    *bool         `json:"html_report,omitempty"`
	HistoryDB     *string       `json:"history_db,omitempty"` // "" disables run history
	ProgressEvery *int          `json:"progress_every,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrBool(v bool) *bool       { return &v }

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json
// extension and be at most 1MB. Fields omitted from the file fall back to
// their defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

var imageFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true,
	"svg": true, "pdf": true, "eps": true,
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Bins != nil && (*c.Bins < 1 || *c.Bins > 1000) {
		return fmt.Errorf("bins must be between 1 and 1000, got %d", *c.Bins)
	}

	if c.ProgressEvery != nil && *c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must be non-negative, got %d", *c.ProgressEvery)
	}

	if c.ImageFormat != nil && !imageFormats[strings.ToLower(*c.ImageFormat)] {
		return fmt.Errorf("unsupported image_format %q", *c.ImageFormat)
	}

	if c.ClassFile != nil && *c.ClassFile == "" {
		return fmt.Errorf("class_file must not be empty")
	}

	seen := make(map[string]bool)
	for i, s := range c.Splits {
		if s.Name == "" {
			return fmt.Errorf("splits[%d]: name is required", i)
		}
		if strings.ContainsAny(s.Name, `/\`) {
			return fmt.Errorf("splits[%d]: name %q must not contain path separators", i, s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("splits[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
		if len(s.Dirs) == 0 {
			return fmt.Errorf("split %q: at least one directory is required", s.Name)
		}
	}

	return nil
}

// SetDatasetRoot overrides the dataset root.
func (c *Config) SetDatasetRoot(root string) { c.DatasetRoot = ptrString(root) }

// SetHTMLReport overrides html_report.
func (c *Config) SetHTMLReport(v bool) { c.HTMLReport = ptrBool(v) }

// SetHistoryDB overrides history_db.
func (c *Config) SetHistoryDB(path string) { c.HistoryDB = ptrString(path) }

// GetDatasetRoot returns the dataset root or the current directory.
func (c *Config) GetDatasetRoot() string {
	if c.DatasetRoot == nil || *c.DatasetRoot == "" {
		return "."
	}
	return *c.DatasetRoot
}

// Resolve returns p unchanged when absolute, otherwise joined onto the
// dataset root.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.GetDatasetRoot(), p)
}

// GetClassFile returns the class manifest path, resolved against the root.
func (c *Config) GetClassFile() string {
	if c.ClassFile == nil {
		return c.Resolve(DefaultClassFile)
	}
	return c.Resolve(*c.ClassFile)
}

// GetOutputDir returns the plot directory, resolved against the root.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return c.Resolve(DefaultOutputDir)
	}
	return c.Resolve(*c.OutputDir)
}

// GetBins returns the histogram bin count or the default.
func (c *Config) GetBins() int {
	if c.Bins == nil {
		return DefaultBins
	}
	return *c.Bins
}

// GetImageFormat returns the plot image format or the default.
func (c *Config) GetImageFormat() string {
	if c.ImageFormat == nil {
		return DefaultImageFormat
	}
	return strings.ToLower(*c.ImageFormat)
}

// GetHTMLReport returns whether to write the interactive report.
func (c *Config) GetHTMLReport() bool {
	if c.HTMLReport == nil {
		return false
	}
	return *c.HTMLReport
}

// GetHistoryDB returns the run history database path, resolved against the
// root, or "" when history is disabled.
func (c *Config) GetHistoryDB() string {
	if c.HistoryDB == nil || *c.HistoryDB == "" {
		return ""
	}
	return c.Resolve(*c.HistoryDB)
}

// GetProgressEvery returns how many files pass between progress lines.
// Zero disables progress output.
func (c *Config) GetProgressEvery() int {
	if c.ProgressEvery == nil {
		return DefaultProgressEvery
	}
	return *c.ProgressEvery
}

// GetSplits returns the configured splits with directories resolved against
// the root. The default is Train (train/labels), Validation (val/labels)
// and Full (both pooled), in that order.
func (c *Config) GetSplits() []SplitConfig {
	splits := c.Splits
	if len(splits) == 0 {
		train := filepath.Join("train", "labels")
		val := filepath.Join("val", "labels")
		splits = []SplitConfig{
			{Name: "Train", Dirs: []string{train}},
			{Name: "Validation", Dirs: []string{val}},
			{Name: "Full", Dirs: []string{train, val}},
		}
	}

	out := make([]SplitConfig, len(splits))
	for i, s := range splits {
		dirs := make([]string, len(s.Dirs))
		for j, d := range s.Dirs {
			dirs[j] = c.Resolve(d)
		}
		out[i] = SplitConfig{Name: s.Name, Dirs: dirs}
	}
	return out
}
