package report

import (
	"fmt"
	"io"
	"time"

	"github.com/devicelab-dev/crashcheck/pkg/core"
)

// PrintSummary writes a short per-scenario summary of the run.
func PrintSummary(w io.Writer, result *core.RunResult) {
	fmt.Fprintf(w, "\n%s (%s)\n", result.Platform, result.Profile)
	for _, sc := range result.Scenarios {
		fmt.Fprintf(w, "  %s %-20s %8s", symbol(sc.Status), sc.Name, round(sc.Duration))
		if sc.Error != "" {
			fmt.Fprintf(w, "  %s", sc.Error)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d scenarios: %d passed, %d failed, %d skipped (%s)\n",
		result.Total, result.Passed, result.Failed, result.Skipped, round(result.Duration))
}

func symbol(s core.StepStatus) string {
	switch s {
	case core.StatusPassed:
		return "✓"
	case core.StatusFailed, core.StatusErrored:
		return "✗"
	case core.StatusSkipped:
		return "-"
	default:
		return "?"
	}
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Millisecond)
}
