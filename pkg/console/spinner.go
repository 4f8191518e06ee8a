package console

import (
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress while rule files are validated. It does nothing when
// stdout is not a terminal.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner with the given message
func NewSpinner(message string) *Spinner {
	s := &Spinner{}
	if isTTY() {
		s.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.spinner.Suffix = " " + message
		_ = s.spinner.Color("cyan")
	}
	return s
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	if s.spinner != nil {
		s.spinner.Start()
	}
}

// Stop stops the spinner animation and clears its line
func (s *Spinner) Stop() {
	if s.spinner != nil {
		s.spinner.Stop()
	}
}

// UpdateMessage replaces the message shown next to the spinner
func (s *Spinner) UpdateMessage(message string) {
	if s.spinner != nil {
		s.spinner.Lock()
		s.spinner.Suffix = " " + message
		s.spinner.Unlock()
	}
}

// IsEnabled reports whether the spinner renders anything
func (s *Spinner) IsEnabled() bool {
	return s.spinner != nil
}
