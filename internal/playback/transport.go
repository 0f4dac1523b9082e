package playback

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// DefaultBackgroundVolume is the initial level of the background track
const DefaultBackgroundVolume = 0.3

// State of the primary track
type State int

const (
	Stopped State = iota
	Playing
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	}
	return "stopped"
}

// Source is a playable resource of known length
type Source interface {
	Path() string
	Duration() time.Duration
	Released() bool
}

// Background is a looping track that follows the primary track
type Background struct {
	Name   string
	sink   Sink
	volume float64
}

// NewBackground creates a background track at the default volume
func NewBackground(name string, sink Sink) *Background {
	return &Background{Name: name, sink: sink, volume: DefaultBackgroundVolume}
}

// Transport drives the voiceover of one session and keeps the optional
// background track in step with it: the background starts when the
// voiceover plays and stops when it pauses or ends.
type Transport struct {
	source Source
	sink   Sink
	logger *log.Logger
	now    func() time.Time

	mu         sync.Mutex
	state      State
	volume     float64
	offset     time.Duration
	startedAt  time.Time
	background *Background
}

// NewTransport creates a stopped transport for source
func NewTransport(source Source, sink Sink, logger *log.Logger) *Transport {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Transport{source: source, sink: sink, logger: logger, now: time.Now, volume: 1}
}

// State returns the current state, ending playback if the track ran out
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickUnlocked()
	return t.state
}

// Duration returns the length of the primary track
func (t *Transport) Duration() time.Duration {
	return t.source.Duration()
}

// Position returns the playback position of the primary track
func (t *Transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickUnlocked()
	return t.positionUnlocked()
}

// Volume returns the primary track volume
func (t *Transport) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// Play starts or resumes the primary track and the background track
func (t *Transport) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.source.Released() {
		return fmt.Errorf("audio resource has been released")
	}
	t.tickUnlocked()
	switch t.state {
	case Playing:
		return nil
	case Ended:
		t.offset = 0
	}

	if err := t.sink.Start(t.offset, t.volume); err != nil {
		return err
	}
	t.state = Playing
	t.startedAt = t.now()
	t.startBackgroundUnlocked()
	return nil
}

// Pause stops the primary and background tracks, keeping the position
func (t *Transport) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tickUnlocked()
	if t.state != Playing {
		return nil
	}
	t.offset = t.positionUnlocked()
	t.state = Paused
	t.stopBackgroundUnlocked()
	return t.sink.Stop()
}

// End stops playback as if the track had finished
func (t *Transport) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endUnlocked()
}

// Seek moves the primary track to pos, clamped to the track length
func (t *Transport) Seek(pos time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	if d := t.source.Duration(); pos > d {
		pos = d
	}
	t.tickUnlocked()
	t.offset = pos
	if t.state == Ended {
		t.state = Paused
	}
	if t.state == Playing {
		t.startedAt = t.now()
		return t.sink.Start(pos, t.volume)
	}
	return nil
}

// SetVolume sets the primary track volume in [0, 1]
func (t *Transport) SetVolume(v float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.volume = clampVolume(v)
	t.tickUnlocked()
	if t.state == Playing {
		t.offset = t.positionUnlocked()
		t.startedAt = t.now()
		return t.sink.Start(t.offset, t.volume)
	}
	return nil
}

// SetBackground replaces the background track. A track attached while the
// primary plays starts immediately. nil removes the background.
func (t *Transport) SetBackground(bg *Background) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopBackgroundUnlocked()
	t.background = bg
	t.tickUnlocked()
	if t.state == Playing {
		t.startBackgroundUnlocked()
	}
}

// Background returns the attached background track
func (t *Transport) Background() *Background {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.background
}

// SetBackgroundVolume changes the background level without touching the primary
func (t *Transport) SetBackgroundVolume(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.background == nil {
		return
	}
	t.background.volume = clampVolume(v)
	if t.state == Playing {
		t.startBackgroundUnlocked()
	}
}

// Wait blocks until the primary track ends or ctx is done
func (t *Transport) Wait(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if t.State() == Ended {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops everything
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopBackgroundUnlocked()
	t.state = Stopped
	t.offset = 0
	return t.sink.Stop()
}

// Volume returns the background track volume
func (b *Background) Volume() float64 { return b.volume }

func (t *Transport) positionUnlocked() time.Duration {
	pos := t.offset
	if t.state == Playing {
		pos += t.now().Sub(t.startedAt)
	}
	if d := t.source.Duration(); pos > d {
		pos = d
	}
	return pos
}

// tickUnlocked ends playback once the clock passes the track length
func (t *Transport) tickUnlocked() {
	if t.state == Playing && t.positionUnlocked() >= t.source.Duration() {
		if err := t.endUnlocked(); err != nil {
			t.logger.Printf("failed to stop player: %v", err)
		}
	}
}

func (t *Transport) endUnlocked() error {
	if t.state == Stopped || t.state == Ended {
		t.state = Ended
		return nil
	}
	t.state = Ended
	t.offset = t.source.Duration()
	t.stopBackgroundUnlocked()
	return t.sink.Stop()
}

func (t *Transport) startBackgroundUnlocked() {
	if t.background == nil {
		return
	}
	if err := t.background.sink.Start(0, t.background.volume); err != nil {
		t.logger.Printf("failed to start background track %s: %v", t.background.Name, err)
	}
}

func (t *Transport) stopBackgroundUnlocked() {
	if t.background == nil {
		return
	}
	if err := t.background.sink.Stop(); err != nil {
		t.logger.Printf("failed to stop background track %s: %v", t.background.Name, err)
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
