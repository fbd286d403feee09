// Package cli provides the command-line interface for crashcheck.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/crashcheck/pkg/config"
)

// Version is set at build time.
var Version = "dev"

// Session drivers selectable with --driver.
const (
	driverAppium = "appium"
	driverMock   = "mock"
)

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Platform to run on (android, ios)",
		EnvVars: []string{config.EnvPlatform},
	},
	&cli.BoolFlag{
		Name:  "farm",
		Usage: "Run on a remote device farm (platform, device and app come from the farm; env " + config.EnvRemoteFarm + ")",
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL",
		EnvVars: []string{config.EnvAppiumURL},
	},
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to crashcheck.yaml (default: crashcheck.yaml in the home directory)",
		EnvVars: []string{"CRASHCHECK_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "driver",
		Aliases: []string{"d"},
		Usage:   "Session driver (appium, mock)",
		Value:   driverAppium,
		EnvVars: []string{"CRASHCHECK_DRIVER"},
	},
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output directory for reports and logs",
		EnvVars: []string{"CRASHCHECK_OUTPUT"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Mirror the log to stderr",
		EnvVars: []string{"CRASHCHECK_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the crashcheck application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "crashcheck",
		Usage:   "End-to-end crash reporting checks for mobile apps over Appium",
		Version: Version,
		Description: `crashcheck drives a sample app through Appium, makes it report
messages, errors and native crashes, and checks the event payload
the app writes into its status field.

Examples:
  crashcheck list --platform ios
  crashcheck run
  crashcheck run send_message native_crash --platform ios
  crashcheck --farm run --include-tags api
  crashcheck caps --platform android`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			listCommand,
			capsCommand,
			validateCommand,
			showCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags live on the root context. When run as a subcommand they are
// looked up through the lineage.
func globalString(c *cli.Context, name string) string {
	for _, ctx := range c.Lineage() {
		if ctx != nil && ctx.IsSet(name) {
			return ctx.String(name)
		}
	}
	return c.String(name)
}

func globalBool(c *cli.Context, name string) (value, set bool) {
	for _, ctx := range c.Lineage() {
		if ctx != nil && ctx.IsSet(name) {
			return ctx.Bool(name), true
		}
	}
	return false, false
}

// loadConfig resolves the run configuration: file, then environment, then flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := globalString(c, "config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(config.GetHome())
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if v := globalString(c, "platform"); v != "" {
		p, err := config.ParsePlatform(v)
		if err != nil {
			return nil, err
		}
		cfg.Platform = p
	}
	if farm, ok := globalBool(c, "farm"); ok {
		cfg.Profile = config.Local
		if farm {
			cfg.Profile = config.Farm
		}
	}
	if v := globalString(c, "appium-url"); v != "" {
		cfg.ServerURL = v
	}
	return cfg, nil
}
