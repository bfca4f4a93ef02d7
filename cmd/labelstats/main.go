// Command labelstats computes class counts and bounding-box statistics for a
// YOLO-format dataset and renders them as plots.
//
// Run with no arguments from the dataset root (the directory holding
// class.txt, train/labels and val/labels); nine charts are written to
// plots/.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/labelstats/internal/config"
	"github.com/banshee-data/labelstats/internal/history"
	"github.com/banshee-data/labelstats/internal/monitoring"
	"github.com/banshee-data/labelstats/internal/pipeline"
	"github.com/banshee-data/labelstats/internal/version"
)

var (
	configPath  = flag.String("config", "", "optional JSON config file")
	rootDir     = flag.String("root", "", "dataset root (default: config value or current directory)")
	htmlReport  = flag.Bool("html", false, "also write an interactive report.html")
	historyPath = flag.String("history", "", "record run statistics in this SQLite database (relative to the dataset root)")
	quiet       = flag.Bool("quiet", false, "suppress progress output")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("labelstats", version.String())
		return
	}
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 2
	}

	if *quiet {
		monitoring.SetLogger(nil)
	}

	opts := pipeline.Options{Config: cfg}
	if dbPath := cfg.GetHistoryDB(); dbPath != "" {
		store, err := history.Open(dbPath)
		if err != nil {
			log.Printf("Failed to open history database: %v", err)
			return 2
		}
		defer store.Close()
		opts.History = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := pipeline.Run(ctx, opts)
	if report == nil {
		log.Printf("Failed to run: %v", err)
		return 1
	}
	if err != nil {
		log.Printf("Stopped: %v", err)
	}

	failed := report.Failed()
	for _, s := range failed {
		log.Printf("✗ %s: %v", s.Name, s.Err)
	}
	if err != nil || len(failed) > 0 {
		return 1
	}
	log.Printf("✓ Plots written to %s", cfg.GetOutputDir())
	return 0
}

func loadConfig() (*config.Config, error) {
	cfg := config.Empty()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if *rootDir != "" {
		cfg.SetDatasetRoot(*rootDir)
	}
	if *htmlReport {
		cfg.SetHTMLReport(true)
	}
	if *historyPath != "" {
		cfg.SetHistoryDB(*historyPath)
	}
	return cfg, nil
}
