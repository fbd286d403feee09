package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/crashcheck/pkg/config"
)

func TestParse_HeaderAndSteps(t *testing.T) {
	yaml := `name: custom
platforms: [iOS]
tags: [smoke, api]
---
- tap: send message
- sleep: 1500
- sleep: 2s
- relaunch
- relaunch: true
- capture
- expectEmpty
- fetch
- screenshot: after
- screenshot
- assert: event.level === 'warning'
`
	sc, err := Parse([]byte(yaml), "custom.yaml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if sc.Name() != "custom" {
		t.Errorf("Name = %q", sc.Name())
	}
	if !sc.RunsOn(config.IOS) || sc.RunsOn(config.Android) {
		t.Errorf("Platforms = %v", sc.Config.Platforms)
	}
	if !sc.HasTag("api") || sc.HasTag("other") {
		t.Errorf("Tags = %v", sc.Config.Tags)
	}

	want := []Step{
		{Type: StepTap, Target: "send message"},
		{Type: StepSleep, Duration: 1500 * time.Millisecond},
		{Type: StepSleep, Duration: 2 * time.Second},
		{Type: StepRelaunch},
		{Type: StepRelaunch},
		{Type: StepCapture},
		{Type: StepExpectEmpty},
		{Type: StepFetch},
		{Type: StepScreenshot, Target: "after"},
		{Type: StepScreenshot},
		{Type: StepAssert, Expr: "event.level === 'warning'"},
	}
	if len(sc.Steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(sc.Steps), len(want))
	}
	for i, w := range want {
		got := sc.Steps[i]
		if got.Type != w.Type || got.Target != w.Target || got.Duration != w.Duration || got.Expr != w.Expr {
			t.Errorf("step %d = %+v, want %+v", i, got, w)
		}
		if got.Line == 0 {
			t.Errorf("step %d has no line number", i)
		}
	}
}

func TestParse_StepsOnly(t *testing.T) {
	sc, err := Parse([]byte("- tap: throw error\n- relaunch\n- expectEmpty\n"), "dir/throw_error.yml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if sc.Name() != "throw_error" {
		t.Errorf("Name = %q, want file name", sc.Name())
	}
	if !sc.RunsOn(config.Android) || !sc.RunsOn(config.IOS) {
		t.Error("scenario without platforms should run everywhere")
	}
}

func TestParse_AssertWithColon(t *testing.T) {
	sc, err := Parse([]byte(`- assert: "event.message === 'Sentry: Test throw error'"`+"\n"), "s.yaml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if want := "event.message === 'Sentry: Test throw error'"; sc.Steps[0].Expr != want {
		t.Errorf("Expr = %q, want %q", sc.Steps[0].Expr, want)
	}

	if _, err := Parse([]byte("- assert: event.message === 'Sentry: Test throw error'\n"), "s.yaml"); err == nil {
		t.Error("an unquoted ': ' inside a plain scalar should not parse")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		line    int
		message string
	}{
		{"empty", "", 1, "empty scenario file"},
		{"no steps", "name: x\n---\n[]\n", 0, "no steps"},
		{"unknown scalar", "- capture\n- swipe\n", 2, "unknown step type: swipe"},
		{"unknown key", "- tapOn: x\n", 1, "unknown step type: tapOn"},
		{"tap without id", "- tap\n", 1, "tap requires"},
		{"sleep bad", "- sleep: soon\n", 1, "invalid duration"},
		{"sleep negative", "- sleep: -5\n", 1, "negative sleep"},
		{"assert empty", "- assert: ''\n", 1, "assert requires"},
		{"parameter on flag step", "- capture: now\n", 1, "takes no parameters"},
		{"false flag", "- relaunch: false\n", 1, "takes no parameters"},
		{"two keys", "- tap: a\n  sleep: 1\n", 1, "single-key mapping"},
		{"bad platform", "platforms: [windows]\n---\n- capture\n", 0, "invalid platform"},
		{"bad header", "name: [\n---\n- capture\n", 0, "invalid header"},
		{"not a list", "tap: x\n", 0, "invalid steps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "s.yaml")
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Line != tt.line {
				t.Errorf("Line = %d, want %d", pe.Line, tt.line)
			}
			if !strings.Contains(pe.Message, tt.message) {
				t.Errorf("Message = %q, want it to contain %q", pe.Message, tt.message)
			}
			if !strings.HasPrefix(err.Error(), "s.yaml") {
				t.Errorf("Error() = %q should start with the path", err.Error())
			}
		})
	}
}

func TestStep_Describe(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{Step{Type: StepTap, Target: "send message"}, `tap "send message"`},
		{Step{Type: StepSleep, Duration: 3 * time.Second}, "sleep 3s"},
		{Step{Type: StepAssert, Expr: "event.dist === '500'"}, "assert event.dist === '500'"},
		{Step{Type: StepScreenshot, Target: "x"}, "screenshot x"},
		{Step{Type: StepScreenshot}, "screenshot"},
		{Step{Type: StepRelaunch}, "relaunch"},
	}
	for _, tt := range tests {
		if got := tt.step.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.yaml":        "name: a\ntags: [smoke]\n---\n- capture\n",
		"b.yml":         "name: b\n---\n- capture\n",
		"broken.yaml":   "- nope\n",
		"notes.txt":     "ignored",
		"sub/c.yaml":    "name: c\ntags: [api]\n---\n- fetch\n",
		"sub/README.md": "ignored",
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	all, err := ParseDirectory(dir, nil, nil)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path != filepath.Join(dir, "broken.yaml") {
		t.Fatalf("ParseDirectory error = %v, want the broken file reported", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d scenarios, want 3 (broken file left out)", len(all))
	}

	smoke, _ := ParseDirectory(dir, []string{"smoke"}, nil)
	if len(smoke) != 1 || smoke[0].Name() != "a" {
		t.Errorf("include smoke = %v", names(smoke))
	}

	noAPI, _ := ParseDirectory(dir, nil, []string{TagAPI})
	if len(noAPI) != 2 {
		t.Errorf("exclude api = %v", names(noAPI))
	}
}

func names(scenarios []*Scenario) []string {
	var out []string
	for _, sc := range scenarios {
		out = append(out, sc.Name())
	}
	return out
}
