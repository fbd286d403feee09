package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/crashcheck/pkg/report"
	"github.com/devicelab-dev/crashcheck/pkg/validator"
)

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List the scenarios that would run",
	Description: `Print the built-in and custom scenarios for the selected platform,
after tag filtering.

Examples:
  crashcheck list
  crashcheck --platform ios list --include-tags api`,
	Flags:  scenarioFlags,
	Action: listScenarios,
}

var capsCommand = &cli.Command{
	Name:  "caps",
	Usage: "Print the session capabilities as JSON",
	Description: `Resolve the configuration (file, environment, flags) and print the
capabilities a session would be created with.

Examples:
  crashcheck caps --platform ios
  crashcheck --farm caps`,
	Action: printCapabilities,
}

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Check scenario files without running them",
	ArgsUsage: "<file or folder>...",
	Description: `Parse scenario files and check step order and assertion syntax.

Examples:
  crashcheck validate scenarios/
  crashcheck validate --exclude-tags api crash.yaml`,
	Flags:  scenarioFlags[1:],
	Action: validateScenarios,
}

var showCommand = &cli.Command{
	Name:      "show",
	Usage:     "Print the summary of a previous run",
	ArgsUsage: "<report.json>",
	Action:    showReport,
}

func listScenarios(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	scenarios, err := loadScenarios(c, cfg.Platform)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	for _, sc := range scenarios {
		source := "builtin"
		if sc.SourcePath != "" && !strings.HasPrefix(sc.SourcePath, "builtin/") {
			source = sc.SourcePath
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sc.Name(), strings.Join(sc.Config.Tags, ","), source, sc.Config.Description)
	}
	return w.Flush()
}

func printCapabilities(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg.Capabilities(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}

func showReport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one report.json path")
	}
	result, err := report.ReadJSON(c.Args().First())
	if err != nil {
		return err
	}
	report.PrintSummary(c.App.Writer, result)
	return nil
}

func validateScenarios(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one scenario file or folder is required")
	}

	v := validator.New(c.StringSlice("include-tags"), c.StringSlice("exclude-tags"))
	valid, invalid := 0, 0
	for _, path := range c.Args().Slice() {
		result := v.Validate(path)
		valid += len(result.Files)
		invalid += len(result.Errors)
		for _, err := range result.Errors {
			fmt.Fprintf(c.App.Writer, "%s✗%s %v\n", color(colorRed), color(colorReset), err)
		}
	}

	fmt.Fprintf(c.App.Writer, "%d valid scenario files, %d problems\n", valid, invalid)
	if invalid > 0 {
		return fmt.Errorf("%d problems found", invalid)
	}
	return nil
}
