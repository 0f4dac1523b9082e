package terminal

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestReadLine(t *testing.T) {
	in := NewInput(strings.NewReader("  hello  \nsecond\nlast"))

	for _, want := range []string{"hello", "second", "last"} {
		got, err := in.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
	if _, err := in.ReadLine(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestIsCommand(t *testing.T) {
	tests := []struct {
		in    string
		cmd   string
		isCmd bool
	}{
		{"/exit", "exit", true},
		{"/Clear now", "clear", true},
		{"/", "", false},
		{"hello /exit", "", false},
	}
	for _, tt := range tests {
		cmd, ok := IsCommand(tt.in)
		if cmd != tt.cmd || ok != tt.isCmd {
			t.Errorf("IsCommand(%q) = %q, %v", tt.in, cmd, ok)
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerStartStop(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner(out)

	s.Start("Painting your visuals...")
	if !s.Active() {
		t.Fatal("spinner should be active")
	}
	time.Sleep(20 * time.Millisecond)
	s.Start("Crafting meditation script...")
	s.Stop()
	s.Stop()

	if s.Active() {
		t.Fatal("spinner should be stopped")
	}
	got := out.String()
	if !strings.Contains(got, "Painting your visuals...") || !strings.Contains(got, "Crafting meditation script...") {
		t.Fatalf("spinner output missing messages: %q", got)
	}
}
