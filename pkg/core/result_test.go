package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestScenarioResult_ComputeSummary(t *testing.T) {
	sc := &ScenarioResult{
		Steps: []StepResult{
			{Status: StatusPassed},
			{Status: StatusPassed},
			{Status: StatusFailed},
			{Status: StatusSkipped},
			{Status: StatusSkipped},
		},
	}

	sc.ComputeSummary()

	if sc.TotalSteps != 5 {
		t.Errorf("TotalSteps = %d, want 5", sc.TotalSteps)
	}
	if sc.PassedSteps != 2 {
		t.Errorf("PassedSteps = %d, want 2", sc.PassedSteps)
	}
	if sc.FailedSteps != 1 {
		t.Errorf("FailedSteps = %d, want 1", sc.FailedSteps)
	}
	if sc.SkippedSteps != 2 {
		t.Errorf("SkippedSteps = %d, want 2", sc.SkippedSteps)
	}
}

func TestScenarioResult_ComputeSummary_Empty(t *testing.T) {
	sc := &ScenarioResult{}
	sc.ComputeSummary()

	if sc.TotalSteps != 0 || sc.PassedSteps != 0 {
		t.Errorf("expected zero counts, got %+v", sc)
	}
}

func TestScenarioResult_AggregateStatus(t *testing.T) {
	tests := []struct {
		name  string
		steps []StepStatus
		want  StepStatus
	}{
		{"all passed", []StepStatus{StatusPassed, StatusPassed}, StatusPassed},
		{"failed", []StepStatus{StatusPassed, StatusFailed, StatusSkipped}, StatusFailed},
		{"errored wins", []StepStatus{StatusFailed, StatusErrored}, StatusErrored},
		{"no steps", nil, StatusPassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &ScenarioResult{}
			for _, st := range tt.steps {
				sc.Steps = append(sc.Steps, StepResult{Status: st})
			}
			if got := sc.AggregateStatus(); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRunResult_ComputeSummary(t *testing.T) {
	r := &RunResult{
		Scenarios: []ScenarioResult{
			{Status: StatusPassed},
			{Status: StatusFailed},
			{Status: StatusErrored},
			{Status: StatusSkipped},
		},
	}

	r.ComputeSummary()

	if r.Total != 4 || r.Passed != 1 || r.Failed != 2 || r.Skipped != 1 {
		t.Errorf("unexpected summary: %+v", r)
	}
}

func TestRunResult_Success(t *testing.T) {
	tests := []struct {
		name      string
		scenarios []ScenarioResult
		want      bool
	}{
		{"all passed", []ScenarioResult{{Status: StatusPassed}, {Status: StatusPassed}}, true},
		{"one failed", []ScenarioResult{{Status: StatusPassed}, {Status: StatusFailed}}, false},
		{"errored", []ScenarioResult{{Status: StatusPassed}, {Status: StatusErrored}}, false},
		{"passed and skipped", []ScenarioResult{{Status: StatusPassed}, {Status: StatusSkipped}}, true},
		{"only skipped", []ScenarioResult{{Status: StatusSkipped}}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &RunResult{Scenarios: tt.scenarios}
			if got := r.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStepResult_JSONUsesNames(t *testing.T) {
	step := StepResult{
		Index:    1,
		Command:  "capture",
		Status:   StatusFailed,
		Category: ErrCategoryPayload,
	}

	data, err := json.Marshal(step)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"status":"failed"`) {
		t.Errorf("status not rendered by name: %s", out)
	}
	if !strings.Contains(out, `"errorCategory":"payload"`) {
		t.Errorf("category not rendered by name: %s", out)
	}
}
