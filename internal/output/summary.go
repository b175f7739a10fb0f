package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tanq16/stagedl/internal/scheduler"
)

func statusIndicator(err error) string {
	if err != nil {
		return FError(StyleSymbols["fail"])
	}
	return FSuccess(StyleSymbols["pass"])
}

// ShowSummary prints one line per batch result followed by the error list.
func ShowSummary(w io.Writer, results []scheduler.Result) {
	var failures []scheduler.Result
	for _, res := range results {
		elapsed := res.Finished.Sub(res.Started).Round(time.Millisecond).String()
		message := FSuccess(res.Path)
		if res.Err != nil {
			message = FError(res.Job.Label)
			failures = append(failures, res)
		}
		fmt.Fprintf(w, "%s%s %s %s\n", strings.Repeat(" ", 2), statusIndicator(res.Err), FDebug(elapsed), message)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat(" ", 2)+FSuccess(fmt.Sprintf("Completed %d of %d", len(results)-len(failures), len(results))))
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w, strings.Repeat(" ", 2)+FError(fmt.Sprintf("Failed %d of %d", len(failures), len(results))))
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat(" ", 2)+errorStyle.Bold(true).Render("Errors:"))
	for i, res := range failures {
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat(" ", 4), FError(fmt.Sprintf("%d.", i+1)), FError(res.Job.Label))
		fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", 6), FError(fmt.Sprintf("Error: %v", res.Err)))
	}
}
