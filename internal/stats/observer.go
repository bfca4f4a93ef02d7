package stats

import (
	"github.com/dustin/go-humanize"
)

// Observer receives progress notifications while a split is aggregated.
// Observers must not modify the Stats they are handed.
type Observer interface {
	FileStarted(split string, index, total int, path string)
	SplitDone(split string, st *Stats)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) FileStarted(string, int, int, string) {}
func (NopObserver) SplitDone(string, *Stats)             {}

// ProgressObserver logs file progress every Every files and a one-line
// summary when a split finishes.
type ProgressObserver struct {
	Every int
	Logf  func(format string, v ...interface{}) // nil means the stats logger
}

func (p ProgressObserver) logger() func(string, ...interface{}) {
	if p.Logf != nil {
		return p.Logf
	}
	return logf
}

func (p ProgressObserver) FileStarted(split string, index, total int, path string) {
	every := p.Every
	if every <= 0 {
		every = 100
	}
	n := index + 1
	if n%every == 0 || n == total {
		p.logger()("Analyzing %s: %s/%s files", split, humanize.Comma(int64(n)), humanize.Comma(int64(total)))
	}
}

func (p ProgressObserver) SplitDone(split string, st *Stats) {
	p.logger()("Finished %s: %s files, %s records, %s skipped lines, %s out-of-range classes",
		split,
		humanize.Comma(int64(st.Parse.Files)),
		humanize.Comma(int64(st.Records())),
		humanize.Comma(int64(st.Parse.Skipped)),
		humanize.Comma(int64(st.OutOfRange)),
	)
}
