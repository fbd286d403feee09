package core

import (
	"time"
)

// StepResult captures the outcome of executing a single scenario step
type StepResult struct {
	Index   int    `json:"index"`   // 0-based position in scenario
	Command string `json:"command"` // tap, sleep, relaunch, capture, assert, ...
	Target  string `json:"target,omitempty"`

	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EventSummary holds the fields of a captured event shown in reports.
type EventSummary struct {
	ID       string `json:"id"`
	Level    string `json:"level"`
	Release  string `json:"release,omitempty"`
	Dist     string `json:"dist,omitempty"`
	Platform string `json:"platform,omitempty"`
	Message  string `json:"message,omitempty"`
	SDK      string `json:"sdk,omitempty"`

	Exceptions   int `json:"exceptions"`
	NativeFrames int `json:"nativeFrames"`
	JSFrames     int `json:"jsFrames"`
	Breadcrumbs  int `json:"breadcrumbs"`
	Threads      int `json:"threads"`
	DebugImages  int `json:"debugImages"`
}

// ScenarioResult captures the outcome of executing one scenario
type ScenarioResult struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Source   string `json:"source,omitempty"`

	Status StepStatus `json:"status"`

	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Steps []StepResult `json:"steps"`

	// Raw event payload captured from the status field, if any
	Event string `json:"event,omitempty"`
	// Captured is read from Event
	Captured *EventSummary `json:"captured,omitempty"`

	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`

	Error string `json:"error,omitempty"`
}

// ComputeSummary calculates step counts from the Steps slice
func (s *ScenarioResult) ComputeSummary() {
	s.TotalSteps = len(s.Steps)
	s.PassedSteps = 0
	s.FailedSteps = 0
	s.SkippedSteps = 0

	for _, step := range s.Steps {
		switch step.Status {
		case StatusPassed:
			s.PassedSteps++
		case StatusFailed, StatusErrored:
			s.FailedSteps++
		case StatusSkipped:
			s.SkippedSteps++
		}
	}
}

// AggregateStatus determines the scenario status from step results.
// An errored step wins over a failed one since it points at the setup, not the app.
func (s *ScenarioResult) AggregateStatus() StepStatus {
	status := StatusPassed
	for _, step := range s.Steps {
		switch step.Status {
		case StatusErrored:
			return StatusErrored
		case StatusFailed:
			status = StatusFailed
		}
	}
	return status
}

// RunResult captures the outcome of executing multiple scenarios
type RunResult struct {
	Platform string `json:"platform"`
	Profile  string `json:"profile"`

	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Scenarios []ScenarioResult `json:"scenarios"`

	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// ComputeSummary calculates scenario counts from the Scenarios slice
func (r *RunResult) ComputeSummary() {
	r.Total = len(r.Scenarios)
	r.Passed = 0
	r.Failed = 0
	r.Skipped = 0

	for _, sc := range r.Scenarios {
		switch sc.Status {
		case StatusPassed:
			r.Passed++
		case StatusFailed, StatusErrored:
			r.Failed++
		case StatusSkipped:
			r.Skipped++
		}
	}
}

// Success returns true if at least one scenario passed and none failed.
// Skipped scenarios do not count either way.
func (r *RunResult) Success() bool {
	passed := 0
	for _, sc := range r.Scenarios {
		switch sc.Status {
		case StatusPassed:
			passed++
		case StatusSkipped:
		default:
			return false
		}
	}
	return passed > 0
}
