// Package scenario handles parsing and representation of crash report
// scenarios: a short list of UI steps followed by assertions on the event
// the app rendered.
package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/crashcheck/pkg/config"
)

// TagAPI marks scenarios that look events up through the Sentry web API.
const TagAPI = "api"

// Scenario represents a parsed scenario file.
type Scenario struct {
	SourcePath string `yaml:"-"`
	Config     Config `yaml:"-"`
	Steps      []Step `yaml:"-"`
}

// Config is the header document of a scenario file.
type Config struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Platforms   []config.Platform `yaml:"platforms"` // empty means every platform
	Tags        []string          `yaml:"tags"`
	// Env holds variables for ${...} in tap and screenshot targets.
	Env map[string]string `yaml:"env"`
}

// Name returns the scenario name, falling back to the file name.
func (s *Scenario) Name() string {
	if s.Config.Name != "" {
		return s.Config.Name
	}
	base := s.SourcePath
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")
}

// RunsOn reports whether the scenario applies to platform.
func (s *Scenario) RunsOn(platform config.Platform) bool {
	if len(s.Config.Platforms) == 0 {
		return true
	}
	for _, p := range s.Config.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Config.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	StepTap         StepType = "tap"         // find by accessibility id and click
	StepSleep       StepType = "sleep"       // wait a fixed time
	StepRelaunch    StepType = "relaunch"    // close and launch the app, keeping the session
	StepCapture     StepType = "capture"     // read the status field and parse the event
	StepExpectEmpty StepType = "expectEmpty" // the status field must hold no value
	StepAssert      StepType = "assert"      // JS expression over event must be truthy
	StepFetch       StepType = "fetch"       // resolve the captured event id through the web API
	StepScreenshot  StepType = "screenshot"  // save a screenshot into the report directory
)

// Step is a single scenario step.
type Step struct {
	Type     StepType
	Target   string        // tap: accessibility id; screenshot: file name
	Duration time.Duration // sleep
	Expr     string        // assert
	Line     int
}

// Describe returns a short human-readable form of the step.
func (s Step) Describe() string {
	switch s.Type {
	case StepTap:
		return fmt.Sprintf("tap %q", s.Target)
	case StepSleep:
		return fmt.Sprintf("sleep %v", s.Duration)
	case StepAssert:
		return "assert " + s.Expr
	case StepScreenshot:
		if s.Target != "" {
			return "screenshot " + s.Target
		}
	}
	return string(s.Type)
}

func isStepType(key string) bool {
	switch StepType(key) {
	case StepTap, StepSleep, StepRelaunch, StepCapture, StepExpectEmpty,
		StepAssert, StepFetch, StepScreenshot:
		return true
	}
	return false
}
