package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	stagehttp "github.com/tanq16/stagedl/internal/downloaders/http"
	"github.com/tanq16/stagedl/internal/utils"
	"golang.org/x/term"
)

// ProgressBar renders a fixed-width bar for current/total.
func ProgressBar(current, total uint64, width int) string {
	if width <= 0 {
		width = 30
	}
	filled := width
	if total > 0 && current < total {
		filled = int(float64(current) / float64(total) * float64(width))
	}
	filled = max(0, min(filled, width))
	bar := StyleSymbols["bullet"]
	bar += strings.Repeat(StyleSymbols["hline"], filled)
	bar += strings.Repeat(" ", width-filled)
	bar += StyleSymbols["bullet"]
	return bar
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ProgressPrinter renders engine progress. On a terminal the line is rewritten
// in place; otherwise each update is printed on its own line.
type ProgressPrinter struct {
	out   io.Writer
	tty   bool
	start time.Time
	dirty bool
}

func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{out: w, tty: IsTerminal(w), start: time.Now()}
}

func (p *ProgressPrinter) Update(state stagehttp.ProgressState) {
	line := stagehttp.FormatLine(state)
	if !p.tty {
		fmt.Fprintln(p.out, line)
		return
	}
	elapsed := time.Since(p.start).Seconds()
	bar := ""
	if state.TotalKnown {
		bar = ProgressBar(state.Transferred, state.Total, 30) + " "
	}
	fmt.Fprintf(p.out, "\r\033[K%s%s %s %s",
		FDebug(bar), FPending(line), StyleSymbols["bullet"], FDebug(utils.FormatSpeed(state.Transferred, elapsed)))
	p.dirty = true
}

// Finish terminates an in-place line so later output starts cleanly.
func (p *ProgressPrinter) Finish() {
	if p.tty && p.dirty {
		fmt.Fprintln(p.out)
		p.dirty = false
	}
}
