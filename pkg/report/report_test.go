package report

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/crashcheck/pkg/core"
)

func sampleResult() *core.RunResult {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &core.RunResult{
		Platform:  "android",
		Profile:   "local",
		StartTime: start,
		Duration:  7 * time.Second,
		Scenarios: []core.ScenarioResult{
			{
				Name:     "send_message",
				Platform: "android",
				Source:   "builtin/android/send_message.yaml",
				Status:   core.StatusPassed,
				Duration: 3 * time.Second,
				Event:    `{"level":"warning","message":"TEST message"}`,
				Captured: &core.EventSummary{ID: "c0ffee", Level: "warning", Release: "com.awesomeproject.full-1.0"},
				Steps: []core.StepResult{
					{Index: 0, Command: "tap", Target: "send message", Status: core.StatusPassed},
					{Index: 1, Command: "capture", Status: core.StatusPassed},
				},
			},
			{
				Name:     "dist",
				Platform: "android",
				Status:   core.StatusFailed,
				Duration: 3 * time.Second,
				Error:    "step 1 (assert event.dist === '500'): event.dist === '500'",
				Steps: []core.StepResult{
					{Index: 0, Command: "capture", Status: core.StatusPassed},
					{Index: 1, Command: "assert", Target: "event.dist === '500'", Status: core.StatusFailed,
						Category: core.ErrCategoryAssertion, Error: "event.dist === '500'"},
				},
			},
			{
				Name:     "native_crash",
				Platform: "android",
				Status:   core.StatusErrored,
				Error:    "could not create automation session: ECONNREFUSED",
				Steps: []core.StepResult{
					{Index: 0, Command: "tap", Target: "native crash", Status: core.StatusErrored,
						Category: core.ErrCategoryConnection, Error: "ECONNREFUSED"},
				},
			},
			{
				Name:     "message_ingested",
				Platform: "android",
				Status:   core.StatusSkipped,
				Error:    "SENTRY_AUTH_TOKEN not set",
			},
		},
	}
	for i := range r.Scenarios {
		r.Scenarios[i].ComputeSummary()
	}
	r.ComputeSummary()
	return r
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	result := sampleResult()

	paths, err := Write(dir, result)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for _, p := range []string{paths.JSON, paths.JUnit, paths.HTML} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Errorf("expected only the 3 report files, found %d entries", len(entries))
	}

	back, err := ReadJSON(paths.JSON)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if back.Total != 4 || back.Passed != 1 || back.Failed != 2 || back.Skipped != 1 {
		t.Errorf("summary = %+v", back)
	}
	if back.Scenarios[1].Steps[1].Category != core.ErrCategoryAssertion {
		t.Errorf("category = %s", back.Scenarios[1].Steps[1].Category)
	}
	if c := back.Scenarios[0].Captured; c == nil || c.ID != "c0ffee" || c.Level != "warning" {
		t.Errorf("captured = %+v", c)
	}
	if back.Scenarios[2].Status != core.StatusErrored {
		t.Errorf("status = %s", back.Scenarios[2].Status)
	}
}

func TestReadJSON_Errors(t *testing.T) {
	if _, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"scenarios":[{"status":"exploded"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJSON(bad); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestMarshalJUnit(t *testing.T) {
	data, err := MarshalJUnit(sampleResult())
	if err != nil {
		t.Fatalf("MarshalJUnit failed: %v", err)
	}

	var suites junitSuites
	if err := xml.Unmarshal(data, &suites); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}

	if suites.Tests != 4 || suites.Failures != 1 || suites.Errors != 1 || suites.Skipped != 1 {
		t.Errorf("counts = tests %d failures %d errors %d skipped %d",
			suites.Tests, suites.Failures, suites.Errors, suites.Skipped)
	}
	cases := suites.Suites[0].Cases
	if cases[0].Failure != nil || cases[0].SystemOut == "" {
		t.Errorf("passed case = %+v", cases[0])
	}
	if cases[1].Failure == nil || cases[1].Failure.Type != "assertion" {
		t.Errorf("failed case = %+v", cases[1])
	}
	if !strings.Contains(cases[1].Failure.Body, "[failed] 1 assert") {
		t.Errorf("failure body = %q", cases[1].Failure.Body)
	}
	if cases[2].Error == nil || cases[2].Error.Type != "connection" {
		t.Errorf("errored case = %+v", cases[2])
	}
	if cases[3].Skipped == nil || cases[3].Skipped.Message != "SENTRY_AUTH_TOKEN not set" {
		t.Errorf("skipped case = %+v", cases[3])
	}
	if cases[0].Time != "3.000" {
		t.Errorf("time = %s", cases[0].Time)
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(sampleResult())
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	out := string(html)

	for _, want := range []string{
		"<title>crashcheck: android</title>",
		"send_message",
		`class="scenario failed"`,
		`class="scenario skipped"`,
		"event.dist === &#39;500&#39;",
		"&#34;message&#34;: &#34;TEST message&#34;",
		"event c0ffee: warning, release com.awesomeproject.full-1.0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestRenderHTML_CapturedCrash(t *testing.T) {
	r := &core.RunResult{
		Platform: "ios",
		Scenarios: []core.ScenarioResult{{
			Name:     "throw_error",
			Platform: "ios",
			Status:   core.StatusPassed,
			Captured: &core.EventSummary{ID: "deadbeef", Level: "fatal", Dist: "500", Exceptions: 1, NativeFrames: 1, JSFrames: 2},
		}},
	}
	html, err := RenderHTML(r)
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	if want := "event deadbeef: fatal, dist 500, 1 exception(s) with 1 native and 2 JS frames"; !strings.Contains(string(html), want) {
		t.Errorf("HTML missing %q", want)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{
		"android (local)",
		"✓ send_message",
		"✗ dist",
		"- message_ingested",
		"SENTRY_AUTH_TOKEN not set",
		"4 scenarios: 1 passed, 2 failed, 1 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
