package core

import "testing"

func TestStepStatus_String(t *testing.T) {
	tests := []struct {
		status   StepStatus
		expected string
	}{
		{StatusPending, "pending"},
		{StatusRunning, "running"},
		{StatusPassed, "passed"},
		{StatusFailed, "failed"},
		{StatusErrored, "errored"},
		{StatusSkipped, "skipped"},
		{StepStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.expected {
			t.Errorf("StepStatus(%d).String() = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestStepStatus_IsTerminal(t *testing.T) {
	terminalStatuses := []StepStatus{StatusPassed, StatusFailed, StatusErrored, StatusSkipped}
	nonTerminalStatuses := []StepStatus{StatusPending, StatusRunning}

	for _, s := range terminalStatuses {
		if !s.IsTerminal() {
			t.Errorf("StepStatus(%s).IsTerminal() = false, want true", s)
		}
	}

	for _, s := range nonTerminalStatuses {
		if s.IsTerminal() {
			t.Errorf("StepStatus(%s).IsTerminal() = true, want false", s)
		}
	}
}

func TestStepStatus_IsSuccess(t *testing.T) {
	successStatuses := []StepStatus{StatusPassed}
	failureStatuses := []StepStatus{StatusPending, StatusRunning, StatusFailed, StatusErrored, StatusSkipped}

	for _, s := range successStatuses {
		if !s.IsSuccess() {
			t.Errorf("StepStatus(%s).IsSuccess() = false, want true", s)
		}
	}

	for _, s := range failureStatuses {
		if s.IsSuccess() {
			t.Errorf("StepStatus(%s).IsSuccess() = true, want false", s)
		}
	}
}

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected string
	}{
		{ErrCategoryNone, "none"},
		{ErrCategoryAssertion, "assertion"},
		{ErrCategoryConnection, "connection"},
		{ErrCategoryPayload, "payload"},
		{ErrCategoryConfig, "config"},
		{ErrCategoryAPI, "api"},
		{ErrorCategory(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.category.String(); got != tt.expected {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", tt.category, got, tt.expected)
		}
	}
}

func TestStepStatus_MarshalText(t *testing.T) {
	b, err := StatusErrored.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(b) != "errored" {
		t.Errorf("MarshalText() = %q, want %q", b, "errored")
	}
}

func TestTextRoundTrip(t *testing.T) {
	for s := StatusPending; s <= StatusSkipped; s++ {
		text, _ := s.MarshalText()
		var got StepStatus
		if err := got.UnmarshalText(text); err != nil || got != s {
			t.Errorf("StepStatus %s round trip = %s, %v", s, got, err)
		}
	}
	for c := ErrCategoryNone; c <= ErrCategoryAPI; c++ {
		text, _ := c.MarshalText()
		var got ErrorCategory
		if err := got.UnmarshalText(text); err != nil || got != c {
			t.Errorf("ErrorCategory %s round trip = %s, %v", c, got, err)
		}
	}

	var s StepStatus
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown status")
	}
	var c ErrorCategory
	if err := c.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown category")
	}
}
