package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	Info("session %s created", "abc")
	Warn("quit failed: %v", "boom")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "[INFO] session abc created") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "[WARN] quit failed: boom") {
		t.Errorf("missing warn line in %q", out)
	}
}

func TestSetVerbose_MirrorsWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	SetVerbose(&buf)
	defer SetVerbose(nil)

	Debug("tap %q", "send message")

	if !strings.Contains(buf.String(), `[DEBUG] tap "send message"`) {
		t.Errorf("expected mirrored line, got %q", buf.String())
	}
}

func TestLogging_NoopWhenUninitialized(t *testing.T) {
	Close()
	SetVerbose(nil)

	// must not panic
	Error("dropped %d", 1)

	if GetWriter() == nil {
		t.Error("GetWriter should never return nil")
	}
}

func TestInit_InvalidPath(t *testing.T) {
	err := Init(filepath.Join(t.TempDir(), "missing", "dir", "run.log"))
	if err == nil {
		Close()
		t.Fatal("expected error for missing directory")
	}
}
