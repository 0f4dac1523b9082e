// Package audio turns synthesized speech payloads into playable resources
// and tracks their lifetime.
package audio

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zaf/g711"

	"zenith/internal/models"
)

// DefaultSampleRate is the rate of raw PCM returned by the speech model
const DefaultSampleRate = 24000

// Handle is a playable audio resource backed by a WAV file.
// It must be released once superseded.
type Handle struct {
	path     string
	duration time.Duration
	size     int
	released atomic.Bool
	owner    *Builder
}

// Path is the location of the playable WAV file
func (h *Handle) Path() string { return h.path }

// MIMEType is always audio/wav
func (h *Handle) MIMEType() string { return "audio/wav" }

// Duration is the playing time of the resource
func (h *Handle) Duration() time.Duration { return h.duration }

// Size is the byte size of the WAV file
func (h *Handle) Size() int { return h.size }

// Released reports whether Release has been called
func (h *Handle) Released() bool { return h.released.Load() }

// Release deletes the backing file. Calling it more than once is a no-op.
func (h *Handle) Release() error {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return nil
	}
	if h.owner != nil {
		h.owner.forget(h)
	}
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to release audio resource: %w", err)
	}
	return nil
}

// Builder converts payloads into handles
type Builder struct {
	dir        string
	sampleRate int

	mu   sync.Mutex
	live map[*Handle]struct{}
}

// NewBuilder creates a builder writing resources into dir ("" uses the OS temp dir)
func NewBuilder(dir string) *Builder {
	return &Builder{
		dir:        dir,
		sampleRate: DefaultSampleRate,
		live:       make(map[*Handle]struct{}),
	}
}

// Build decodes payload and writes a playable WAV resource.
// Malformed payloads fail with a decode ResourceError.
func (b *Builder) Build(payload models.Payload) (*Handle, error) {
	if payload.Empty() {
		return nil, decodeError(errors.New("audio payload is empty"))
	}
	raw, err := payload.Bytes()
	if err != nil {
		return nil, decodeError(err)
	}

	pcm, channels, rate, err := b.toPCM(payload.MIMEType, raw)
	if err != nil {
		return nil, decodeError(err)
	}

	wav, err := PCMToWAV(pcm, channels, rate)
	if err != nil {
		return nil, decodeError(err)
	}

	if b.dir != "" {
		if err := os.MkdirAll(b.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create audio directory: %w", err)
		}
	}
	f, err := os.CreateTemp(b.dir, "zenith-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create audio resource: %w", err)
	}
	if _, err := f.Write(wav); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write audio resource: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write audio resource: %w", err)
	}

	h := &Handle{
		path:     f.Name(),
		duration: PCMDuration(len(pcm), channels, rate),
		size:     len(wav),
		owner:    b,
	}
	b.mu.Lock()
	b.live[h] = struct{}{}
	b.mu.Unlock()
	return h, nil
}

// Live returns the number of handles that were built but not released
func (b *Builder) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// ReleaseAll releases every outstanding handle
func (b *Builder) ReleaseAll() error {
	b.mu.Lock()
	handles := make([]*Handle, 0, len(b.live))
	for h := range b.live {
		handles = append(handles, h)
	}
	b.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Builder) forget(h *Handle) {
	b.mu.Lock()
	delete(b.live, h)
	b.mu.Unlock()
}

// toPCM interprets raw according to its MIME type
func (b *Builder) toPCM(mimeType string, raw []byte) (pcm []byte, channels, rate int, err error) {
	mediaType, params := "audio/l16", map[string]string{}
	if strings.TrimSpace(mimeType) != "" {
		mediaType, params, err = mime.ParseMediaType(mimeType)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("invalid audio MIME type %q: %w", mimeType, err)
		}
		mediaType = strings.ToLower(mediaType)
	}

	switch mediaType {
	case "audio/l16", "audio/pcm":
		rate = b.sampleRate
		if v, ok := params["rate"]; ok {
			if rate, err = strconv.Atoi(v); err != nil || rate <= 0 {
				return nil, 0, 0, fmt.Errorf("invalid sample rate %q", v)
			}
		}
		channels = 1
		if v, ok := params["channels"]; ok {
			if channels, err = strconv.Atoi(v); err != nil {
				return nil, 0, 0, fmt.Errorf("invalid channel count %q", v)
			}
		}
		return raw, channels, rate, nil
	case "audio/wav", "audio/x-wav", "audio/wave":
		info, err := parseWAV(raw)
		if err != nil {
			return nil, 0, 0, err
		}
		return info.pcm, info.channels, info.sampleRate, nil
	case "audio/pcmu", "audio/basic":
		return g711.DecodeUlaw(raw), 1, 8000, nil
	case "audio/pcma":
		return g711.DecodeAlaw(raw), 1, 8000, nil
	}
	return nil, 0, 0, fmt.Errorf("unsupported audio format %q", mediaType)
}

func decodeError(err error) error {
	return &models.ResourceError{Kind: models.KindDecode, Err: err}
}
