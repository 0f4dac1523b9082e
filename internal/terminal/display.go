package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Spinner shows an animated status line while a stage runs
type Spinner struct {
	out io.Writer

	mu     sync.Mutex
	active bool
	done   chan struct{}
	exited chan struct{}
}

// NewSpinner creates a spinner writing to out
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out}
}

// Color codes
const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Start displays the spinner with msg, replacing any running spinner
func (s *Spinner) Start(msg string) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.done = make(chan struct{})
	s.exited = make(chan struct{})

	go func(done, exited chan struct{}) {
		defer close(exited)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			fmt.Fprintf(s.out, "\r%s%s%s %s%s", clearLine(), colorCyan, spinnerChars[i], msg, colorReset)
			i = (i + 1) % len(spinnerChars)
			select {
			case <-done:
				// Clear the spinner line
				fmt.Fprintf(s.out, "\r%s\r", clearLine())
				return
			case <-ticker.C:
			}
		}
	}(s.done, s.exited)
}

// Stop removes the spinner line
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	close(s.done)
	<-s.exited
}

// Active reports whether the spinner is running
func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// clearLine returns ANSI escape code to clear the current line
func clearLine() string {
	return "\033[2K"
}

// IsTerminal checks if stdout is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the terminal width, or 80 when stdout is not a terminal
func Width() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
