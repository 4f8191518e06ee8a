package console

import (
	"testing"
	"time"
)

func TestSpinnerLifecycle(t *testing.T) {
	s := NewSpinner("Validating rules")
	if s == nil {
		t.Fatal("NewSpinner returned nil")
	}

	s.UpdateMessage("before start")
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.UpdateMessage("Validating rules/r2.json")
	s.Stop()
}

func TestSpinnerDisabledOutsideTerminal(t *testing.T) {
	s := NewSpinner("Validating rules")
	if s.IsEnabled() != isTTY() {
		t.Errorf("IsEnabled() = %v, want %v", s.IsEnabled(), isTTY())
	}
}
