package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/crashcheck/pkg/config"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single scenario file.
func ParseFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided scenario file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses scenario YAML: an optional header document, then the step list.
func Parse(data []byte, sourcePath string) (*Scenario, error) {
	parts := splitYAMLDocuments(string(data))

	sc := &Scenario{
		SourcePath: sourcePath,
	}

	if len(parts) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "empty scenario file",
		}
	}

	steps := parts[0]
	if len(parts) > 1 {
		if err := parseConfig(parts[0], sc); err != nil {
			return nil, err
		}
		steps = parts[1]
	}
	if err := parseSteps(steps, sc); err != nil {
		return nil, err
	}

	if len(sc.Steps) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Message: "scenario has no steps",
		}
	}
	return sc, nil
}

func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimRight(line, " \t\r") == "---" {
			if strings.TrimSpace(current.String()) != "" {
				parts = append(parts, current.String())
			}
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}

	if strings.TrimSpace(current.String()) != "" {
		parts = append(parts, current.String())
	}
	return parts
}

func parseConfig(content string, sc *Scenario) error {
	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return &ParseError{
			Path:    sc.SourcePath,
			Message: fmt.Sprintf("invalid header: %v", err),
		}
	}
	for i, p := range cfg.Platforms {
		parsed, err := config.ParsePlatform(string(p))
		if err != nil || p == "" {
			return &ParseError{
				Path:    sc.SourcePath,
				Message: fmt.Sprintf("invalid platform %q", p),
			}
		}
		cfg.Platforms[i] = parsed
	}
	sc.Config = cfg
	return nil
}

func parseSteps(content string, sc *Scenario) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    sc.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for i := range rawSteps {
		step, err := parseStep(&rawSteps[i], sc.SourcePath)
		if err != nil {
			return err
		}
		sc.Steps = append(sc.Steps, step)
	}
	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// Scalar nodes like "- capture" carry no parameters
	if node.Kind == yaml.ScalarNode {
		if !isStepType(node.Value) {
			return Step{}, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("unknown step type: %s", node.Value),
			}
		}
		return decodeStep(StepType(node.Value), nil, node.Line, sourcePath)
	}

	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return Step{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a step name or a single-key mapping",
		}
	}

	key, value := node.Content[0], node.Content[1]
	if !isStepType(key.Value) {
		return Step{}, &ParseError{
			Path:    sourcePath,
			Line:    key.Line,
			Message: fmt.Sprintf("unknown step type: %s", key.Value),
		}
	}
	return decodeStep(StepType(key.Value), value, node.Line, sourcePath)
}

func decodeStep(stepType StepType, value *yaml.Node, line int, sourcePath string) (Step, error) {
	step := Step{Type: stepType, Line: line}

	switch stepType {
	case StepTap:
		if value == nil || value.Kind != yaml.ScalarNode || value.Value == "" {
			return step, &ParseError{Path: sourcePath, Line: line, Message: "tap requires an accessibility id"}
		}
		step.Target = value.Value

	case StepSleep:
		if value == nil || value.Kind != yaml.ScalarNode {
			return step, &ParseError{Path: sourcePath, Line: line, Message: "sleep requires a duration"}
		}
		d, err := parseDuration(value.Value)
		if err != nil {
			return step, wrapParseError(sourcePath, value.Line, err)
		}
		step.Duration = d

	case StepAssert:
		if value == nil || value.Kind != yaml.ScalarNode || strings.TrimSpace(value.Value) == "" {
			return step, &ParseError{Path: sourcePath, Line: line, Message: "assert requires an expression"}
		}
		step.Expr = strings.TrimSpace(value.Value)

	case StepScreenshot:
		if value != nil && value.Kind == yaml.ScalarNode {
			step.Target = value.Value
		}

	default:
		// relaunch, capture, expectEmpty and fetch take no parameters; "true" is accepted.
		if value != nil {
			var on bool
			if err := value.Decode(&on); err != nil || !on {
				return step, &ParseError{
					Path:    sourcePath,
					Line:    line,
					Message: fmt.Sprintf("%s takes no parameters", stepType),
				}
			}
		}
	}
	return step, nil
}

// parseDuration accepts milliseconds ("3000") or a Go duration ("3s").
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative sleep: %d", ms)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use milliseconds or a value like 3s", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative sleep: %s", s)
	}
	return d, nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}

// ParseDirectory parses all YAML files in a directory. Every file is
// attempted; the scenarios that parsed are returned together with the
// joined errors of those that did not.
func ParseDirectory(dir string, includeTags, excludeTags []string) ([]*Scenario, error) {
	var (
		scenarios []*Scenario
		parseErrs []error
	)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		sc, parseErr := ParseFile(path)
		if parseErr != nil {
			parseErrs = append(parseErrs, parseErr)
			return nil
		}

		if ShouldInclude(sc, includeTags, excludeTags) {
			scenarios = append(scenarios, sc)
		}
		return nil
	})
	if err != nil {
		return scenarios, err
	}

	return scenarios, errors.Join(parseErrs...)
}

// ShouldInclude checks if a scenario matches tag filters.
func ShouldInclude(sc *Scenario, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, include := range includeTags {
			if sc.HasTag(include) {
				hasTag = true
				break
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, exclude := range excludeTags {
		if sc.HasTag(exclude) {
			return false
		}
	}

	return true
}
