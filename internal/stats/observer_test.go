package stats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressObserver(t *testing.T) {
	t.Parallel()

	var lines []string
	p := ProgressObserver{Every: 2, Logf: func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	}}

	for i := 0; i < 5; i++ {
		p.FileStarted("Train", i, 5, "f.txt")
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "Analyzing Train: 2/5 files", lines[0])
	assert.Equal(t, "Analyzing Train: 5/5 files", lines[2])

	st := New(1)
	st.Widths = make([]float64, 1500)
	st.Parse.Files = 5
	p.SplitDone("Train", st)
	assert.Contains(t, lines[3], "1,500 records")
}

func TestNopObserver(t *testing.T) {
	t.Parallel()

	var o Observer = NopObserver{}
	o.FileStarted("x", 0, 1, "p")
	o.SplitDone("x", New(0))
}
