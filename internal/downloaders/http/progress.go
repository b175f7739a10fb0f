package stagehttp

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ProgressState is the byte accounting of one download. Total is only
// meaningful when TotalKnown is set.
type ProgressState struct {
	Transferred uint64
	Total       uint64
	TotalKnown  bool
}

// Percent returns the completion percentage, or false when the total is unknown.
func (p ProgressState) Percent() (uint64, bool) {
	if !p.TotalKnown {
		return 0, false
	}
	return Percentage(p.Transferred, p.Total), true
}

func (p ProgressState) Done() bool {
	return p.TotalKnown && p.Transferred >= p.Total
}

// Percentage is ceil(transferred/total*100), held at 99 while any byte is
// still outstanding. A zero total counts as complete.
func Percentage(transferred, total uint64) uint64 {
	if transferred >= total {
		return 100
	}
	// transferred < total, so the high word stays below total and Div64 cannot panic
	hi, lo := bits.Mul64(transferred, 100)
	q, rem := bits.Div64(hi, lo, total)
	if rem != 0 {
		q++
	}
	return min(q, 99)
}

// FormatPercent right-justifies p to the width of "100".
func FormatPercent(p uint64) string {
	return fmt.Sprintf("%3d%%", p)
}

// FormatFraction renders "transferred/total" with transferred left-padded to
// the decimal width of total.
func FormatFraction(transferred, total uint64) string {
	return PadToWidth(transferred, total) + "/" + strconv.FormatUint(total, 10)
}

// PadToWidth left-pads value with spaces to the decimal width of reference.
func PadToWidth(value, reference uint64) string {
	s := strconv.FormatUint(value, 10)
	width := len(strconv.FormatUint(reference, 10))
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// FormatLine is the single-line progress text for p.
func FormatLine(p ProgressState) string {
	if pct, ok := p.Percent(); ok {
		return fmt.Sprintf("Download progress: %s    %s", FormatPercent(pct), FormatFraction(p.Transferred, p.Total))
	}
	return fmt.Sprintf("Download progress:    ?    %d bytes", p.Transferred)
}
