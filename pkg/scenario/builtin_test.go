package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/devicelab-dev/crashcheck/pkg/config"
)

func TestBuiltin(t *testing.T) {
	want := []string{"dist", "message_ingested", "native_crash", "release", "send_message", "throw_error", "version"}

	for _, platform := range []config.Platform{config.Android, config.IOS} {
		t.Run(string(platform), func(t *testing.T) {
			scenarios, err := Builtin(platform)
			if err != nil {
				t.Fatalf("Builtin failed: %v", err)
			}
			if got := names(scenarios); !reflect.DeepEqual(got, want) {
				t.Errorf("names = %v, want %v", got, want)
			}
			for _, sc := range scenarios {
				if !sc.RunsOn(platform) {
					t.Errorf("%s does not run on %s", sc.Name(), platform)
				}
				if sc.Config.Description == "" {
					t.Errorf("%s has no description", sc.Name())
				}
			}
		})
	}
}

func TestBuiltin_ThrowErrorDiffersByPlatform(t *testing.T) {
	android, _ := Builtin(config.Android)
	ios, _ := Builtin(config.IOS)

	find := func(list []*Scenario) *Scenario {
		sc, err := Select(list, []string{"throw_error"})
		if err != nil {
			t.Fatal(err)
		}
		return sc[0]
	}

	a := find(android)
	if last := a.Steps[len(a.Steps)-1]; last.Type != StepExpectEmpty {
		t.Errorf("android throw_error should end expecting no status, got %s", last.Describe())
	}
	i := find(ios)
	hasCapture := false
	for _, s := range i.Steps {
		if s.Type == StepCapture {
			hasCapture = true
		}
	}
	if !hasCapture {
		t.Error("ios throw_error should capture the crash after relaunch")
	}
}

func TestBuiltin_UnknownPlatform(t *testing.T) {
	if _, err := Builtin(config.Platform("windows")); err == nil {
		t.Error("expected error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("override.yaml", "name: dist\n---\n- tap: set dist\n")
	write("extra.yaml", "name: zz_extra\nplatforms: [android]\n---\n- capture\n")
	write("ios_only.yaml", "name: ios_only\nplatforms: [ios]\n---\n- capture\n")

	scenarios, err := Load(config.Android, dir, nil, []string{TagAPI})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := names(scenarios)
	want := []string{"dist", "native_crash", "release", "send_message", "throw_error", "version", "zz_extra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
	if len(scenarios[0].Steps) != 1 {
		t.Error("custom dist should replace the built-in one")
	}

	missing, err := Load(config.IOS, filepath.Join(dir, "missing"), nil, nil)
	if err != nil {
		t.Fatalf("missing dir should not fail: %v", err)
	}
	if len(missing) != 7 {
		t.Errorf("got %d built-ins, want 7", len(missing))
	}
}

func TestLoad_BrokenCustomScenario(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "send_message.yaml"), []byte("name: send_message\n---\n- tapp: send message\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(config.Android, dir, nil, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Load error = %v, want the parse error instead of the built-in", err)
	}
	if !strings.Contains(pe.Message, "unknown step type: tapp") {
		t.Errorf("Message = %q", pe.Message)
	}
}

func TestSelect(t *testing.T) {
	scenarios, _ := Builtin(config.Android)

	all, err := Select(scenarios, nil)
	if err != nil || len(all) != len(scenarios) {
		t.Errorf("Select(nil) = %d, %v", len(all), err)
	}

	picked, err := Select(scenarios, []string{"version", "dist"})
	if err != nil {
		t.Fatal(err)
	}
	if got := names(picked); !reflect.DeepEqual(got, []string{"version", "dist"}) {
		t.Errorf("Select = %v", got)
	}

	if _, err := Select(scenarios, []string{"nope"}); err == nil {
		t.Error("expected error for unknown scenario")
	}
}
