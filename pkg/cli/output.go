package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/devicelab-dev/crashcheck/pkg/config"
	"github.com/devicelab-dev/crashcheck/pkg/core"
	"github.com/devicelab-dev/crashcheck/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Sleep steps are expected to be slow, so they are never flagged.
const slowThreshold = 5 * time.Second

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printBanner(cfg *config.Config, driver string, count int) {
	fmt.Println()
	fmt.Printf("  %scrashcheck%s %s\n", color(colorBold), color(colorReset), Version)
	fmt.Printf("  %splatform%s %s  %sprofile%s %s  %sdriver%s %s  %sscenarios%s %d\n",
		color(colorGray), color(colorReset), cfg.Platform,
		color(colorGray), color(colorReset), cfg.Profile,
		color(colorGray), color(colorReset), driver,
		color(colorGray), color(colorReset), count)
	if cfg.Profile == config.Local {
		fmt.Printf("  %sappium%s %s\n", color(colorGray), color(colorReset), cfg.ServerURL)
	}
}

// progress prints live scenario and step results.
type progress struct {
	w io.Writer
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

func (p *progress) scenarioStart(idx, total int, name string) {
	fmt.Fprintf(p.w, "\n  %s[%d/%d]%s %s%s%s\n",
		color(colorCyan), idx+1, total, color(colorReset),
		color(colorBold), name, color(colorReset))
	fmt.Fprintln(p.w, strings.Repeat("─", 60))
}

func (p *progress) stepComplete(idx int, desc string, status core.StepStatus, d time.Duration, errMsg string) {
	durStr := formatDuration(d)

	switch status {
	case core.StatusPassed:
		symbol := "✓"
		symbolColor := color(colorGreen)
		durColor := ""
		if d >= slowThreshold && !strings.HasPrefix(desc, "sleep") {
			durColor = color(colorYellow)
			symbol = "⚠"
			symbolColor = color(colorYellow)
		}
		fmt.Fprintf(p.w, "    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, color(colorReset), desc, durColor, durStr, color(colorReset))
	case core.StatusSkipped:
		fmt.Fprintf(p.w, "    %s- %s%s\n", color(colorGray), desc, color(colorReset))
	default:
		fmt.Fprintf(p.w, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), desc, durStr)
		if errMsg != "" {
			fmt.Fprintf(p.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), errMsg)
		}
	}
}

func (p *progress) scenarioEnd(name string, status core.StepStatus, d time.Duration) {
	switch status {
	case core.StatusPassed:
		fmt.Fprintf(p.w, "%s✓ %s%s %s%s%s\n",
			color(colorGreen), color(colorReset), name, color(colorGray), formatDuration(d), color(colorReset))
	case core.StatusSkipped:
		fmt.Fprintf(p.w, "%s- %s%s %sskipped%s\n",
			color(colorYellow), color(colorReset), name, color(colorGray), color(colorReset))
	default:
		fmt.Fprintf(p.w, "%s✗ %s%s %s%s%s\n",
			color(colorRed), color(colorReset), name, color(colorGray), formatDuration(d), color(colorReset))
	}
}

func printReportPaths(w io.Writer, paths report.Paths, logPath string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %sJSON%s   %s\n", color(colorGray), color(colorReset), paths.JSON)
	fmt.Fprintf(w, "  %sJUnit%s  %s\n", color(colorGray), color(colorReset), paths.JUnit)
	fmt.Fprintf(w, "  %sHTML%s   %s\n", color(colorGray), color(colorReset), paths.HTML)
	fmt.Fprintf(w, "  %sLog%s    %s\n", color(colorGray), color(colorReset), logPath)
}

// formatDuration shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
