package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/crashcheck/pkg/config"
	"github.com/devicelab-dev/crashcheck/pkg/core"
	"github.com/devicelab-dev/crashcheck/pkg/driver/mock"
	"github.com/devicelab-dev/crashcheck/pkg/event"
	"github.com/devicelab-dev/crashcheck/pkg/executor"
	"github.com/devicelab-dev/crashcheck/pkg/logger"
	"github.com/devicelab-dev/crashcheck/pkg/report"
	"github.com/devicelab-dev/crashcheck/pkg/scenario"
	"github.com/devicelab-dev/crashcheck/pkg/session"
)

// errRunFailed is returned when at least one scenario failed or errored.
var errRunFailed = errors.New("crash reporting checks failed")

var scenarioFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "scenarios-dir",
		Usage:   "Directory with extra scenario files (default: <home>/scenarios/<platform>)",
		EnvVars: []string{"CRASHCHECK_SCENARIOS"},
	},
	&cli.StringSliceFlag{
		Name:  "include-tags",
		Usage: "Only run scenarios with these tags",
	},
	&cli.StringSliceFlag{
		Name:  "exclude-tags",
		Usage: "Skip scenarios with these tags",
	},
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run crash reporting scenarios",
	ArgsUsage: "[scenario...]",
	Description: `Run the built-in scenarios for the selected platform plus any scenario
files found in the scenarios directory. Name scenarios to run only those,
in the given order.

Each scenario gets its own session, which is always ended afterwards.
Scenarios tagged "api" look the captured event up through the Sentry API
and are skipped when SENTRY_AUTH_TOKEN is not set.

Examples:
  crashcheck run
  crashcheck run throw_error native_crash
  crashcheck --platform ios run --exclude-tags api
  crashcheck run --env BUTTON="send message" custom_tap
  crashcheck --driver mock run --output ./out --flatten`,
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip the remaining scenarios after the first failure",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Write reports directly into --output instead of a timestamped subfolder",
		},
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Variables for ${...} in tap and screenshot targets (KEY=VALUE)",
		},
	}, scenarioFlags...),
	Action: runScenarios,
}

// RunConfig holds everything resolved before the run starts.
type RunConfig struct {
	Config     *config.Config
	Driver     string
	OutputDir  string
	StopOnFail bool
	Verbose    bool
	Scenarios  []*scenario.Scenario
	Env        map[string]string

	sleep executor.Sleeper // nil uses real timers
}

func runScenarios(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	outputDir, err := resolveOutputDir(globalString(c, "output"), c.Bool("flatten"))
	if err != nil {
		return err
	}

	scenarios, err := loadScenarios(c, cfg.Platform)
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios to run for %s", cfg.Platform)
	}

	verbose, _ := globalBool(c, "verbose")
	rc := &RunConfig{
		Config:     cfg,
		Driver:     globalString(c, "driver"),
		OutputDir:  outputDir,
		StopOnFail: c.Bool("stop-on-fail"),
		Verbose:    verbose,
		Scenarios:  scenarios,
		Env:        parseEnvVars(c.StringSlice("env")),
	}

	// Ctrl+C cancels the run; the current session is still ended.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, rc)
}

// parseEnvVars turns KEY=VALUE pairs into a map. Entries without = are ignored.
func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: <home>/reports/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = config.GetReportsDir()
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

func loadScenarios(c *cli.Context, platform config.Platform) ([]*scenario.Scenario, error) {
	dir := c.String("scenarios-dir")
	if dir == "" {
		dir = config.GetScenariosDir(platform)
	}

	scenarios, err := scenario.Load(platform, dir, c.StringSlice("include-tags"), c.StringSlice("exclude-tags"))
	if err != nil {
		return nil, err
	}
	if c.NArg() > 0 {
		return scenario.Select(scenarios, c.Args().Slice())
	}
	return scenarios, nil
}

func newFactory(driver string, cfg *config.Config) (session.Factory, error) {
	switch driver {
	case "", driverAppium:
		return session.AppiumFactory(cfg.ServerURL), nil
	case driverMock:
		return session.MockFactory(mock.Config{Platform: string(cfg.Platform)}, nil), nil
	default:
		return nil, fmt.Errorf("unknown driver %q (want %s or %s)", driver, driverAppium, driverMock)
	}
}

// newFetcher returns nil without an API token, which makes the runner skip
// scenarios that need the Sentry API.
func newFetcher(cfg *config.Config) executor.EventFetcher {
	if cfg.Sentry.Token == "" {
		return nil
	}
	return event.NewFetcher(cfg.Sentry)
}

func executeRun(ctx context.Context, rc *RunConfig) error {
	// 1. Create output directory
	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 2. Initialize logging
	logPath := filepath.Join(rc.OutputDir, "crashcheck.log")
	if err := logger.Init(logPath); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	if rc.Verbose {
		logger.SetVerbose(os.Stderr)
		defer logger.SetVerbose(nil)
	}

	cfg := rc.Config
	logger.Info("=== Run started ===")
	logger.Info("Output directory: %s", rc.OutputDir)
	logger.Info("Platform: %s, profile: %s, driver: %s", cfg.Platform, cfg.Profile, rc.Driver)

	// 3. Build the session factory
	factory, err := newFactory(rc.Driver, cfg)
	if err != nil {
		return err
	}

	printBanner(cfg, rc.Driver, len(rc.Scenarios))

	// 4. Run
	progress := newProgress(os.Stdout)
	runner := executor.New(executor.RunnerConfig{
		Platform:        cfg.Platform,
		Profile:         cfg.Profile,
		Capabilities:    cfg.Capabilities(),
		Factory:         factory,
		Fetcher:         newFetcher(cfg),
		OutputDir:       rc.OutputDir,
		StopOnFail:      rc.StopOnFail,
		Sleep:           rc.sleep,
		Env:             rc.Env,
		OnScenarioStart: progress.scenarioStart,
		OnStepComplete:  progress.stepComplete,
		OnScenarioEnd:   progress.scenarioEnd,
	})
	result := runner.Run(ctx, rc.Scenarios)

	// 5. Reports
	paths, err := report.Write(rc.OutputDir, result)
	if err != nil {
		logger.Error("Failed to write reports: %v", err)
		return fmt.Errorf("failed to write reports: %w", err)
	}

	fmt.Println()
	report.PrintSummary(os.Stdout, result)
	printReportPaths(os.Stdout, paths, logPath)

	return runError(result)
}

func runError(result *core.RunResult) error {
	if result.Success() {
		return nil
	}
	if result.Failed == 0 {
		return fmt.Errorf("no scenario ran (%d skipped)", result.Skipped)
	}
	return fmt.Errorf("%w: %d of %d scenarios failed", errRunFailed, result.Failed, result.Total)
}
