package playback

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink renders one audio file. Start begins output at offset, replacing any
// output already running; Stop silences it.
type Sink interface {
	Start(offset time.Duration, volume float64) error
	Stop() error
}

// NopSink discards output. Used when no player is configured.
type NopSink struct{}

func (NopSink) Start(time.Duration, float64) error { return nil }
func (NopSink) Stop() error                        { return nil }

// DefaultPlayer is the player command template. Placeholders: {path},
// {offset} (seconds), {volume} (0-100) and {loop} (0 = forever, 1 = once).
const DefaultPlayer = "ffplay -nodisp -autoexit -loglevel quiet -ss {offset} -volume {volume} -loop {loop} {path}"

// ExecSink plays a file through an external player process
type ExecSink struct {
	template []string
	path     string
	loop     bool

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecSink creates a sink for path using the player command template
func NewExecSink(template, path string, loop bool) (*ExecSink, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return nil, fmt.Errorf("player command is empty")
	}
	return &ExecSink{template: fields, path: path, loop: loop}, nil
}

// Args expands the command template
func (s *ExecSink) Args(offset time.Duration, volume float64) []string {
	loop := "1"
	if s.loop {
		loop = "0"
	}
	r := strings.NewReplacer(
		"{path}", s.path,
		"{offset}", strconv.FormatFloat(offset.Seconds(), 'f', 2, 64),
		"{volume}", strconv.Itoa(int(volume*100+0.5)),
		"{loop}", loop,
	)
	args := make([]string, len(s.template))
	for i, f := range s.template {
		args[i] = r.Replace(f)
	}
	return args
}

// Start launches the player, stopping any previous process first
func (s *ExecSink) Start(offset time.Duration, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopUnlocked()
	args := s.Args(offset, volume)
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player %s: %w", args[0], err)
	}
	s.cmd = cmd
	go cmd.Wait()
	return nil
}

// Stop kills the player process if one is running
func (s *ExecSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopUnlocked()
	return nil
}

func (s *ExecSink) stopUnlocked() {
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd = nil
}
