package meditation

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"zenith/internal/audio"
	"zenith/internal/models"
)

// MaxImages is the number of slideshow images requested per session
const MaxImages = 3

// ErrBusy is returned when a run is started while another is active
var ErrBusy = errors.New("a meditation session is already being prepared")

// Generator is the subset of the capability client used by the orchestrator
type Generator interface {
	GenerateImages(ctx context.Context, theme string) ([]models.Payload, error)
	GenerateScript(ctx context.Context, cfg models.SessionConfig) (string, error)
	GenerateAudio(ctx context.Context, script string, voice models.Voice) (models.Payload, error)
}

// ResourceBuilder turns an audio payload into a playable handle
type ResourceBuilder interface {
	Build(payload models.Payload) (*audio.Handle, error)
}

// HistoryStore receives every successful fresh session
type HistoryStore interface {
	Append(entry models.HistoryEntry) error
}

// Session is a generated or restored meditation
type Session struct {
	ID        string
	Config    models.SessionConfig
	Images    []models.Payload
	Script    string
	Audio     models.Payload
	Handle    *audio.Handle
	CreatedAt time.Time
	Archived  bool
}

// Preview is the part of a session available before the audio
type Preview struct {
	Config models.SessionConfig
	Images []models.Payload
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithObserver registers fn to receive every published phase
func WithObserver(fn func(Phase)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithStageTimeout bounds every remote stage
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator drives one meditation run at a time through its phases and
// owns the playable handle of the current session
type Orchestrator struct {
	gen          Generator
	builder      ResourceBuilder
	history      HistoryStore
	observer     func(Phase)
	logger       *log.Logger
	stageTimeout time.Duration
	now          func() time.Time

	mu      sync.Mutex
	running bool
	phase   Phase
	current *Session
}

// NewOrchestrator creates an orchestrator in the Idle phase
func NewOrchestrator(gen Generator, builder ResourceBuilder, history HistoryStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:     gen,
		builder: builder,
		history: history,
		logger:  log.New(io.Discard, "", 0),
		now:     time.Now,
		phase:   Idle{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Phase returns the last published phase
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Current returns the session that owns the live handle, if any
func (o *Orchestrator) Current() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Generate runs a fresh session for cfg. Validation errors are returned
// before any remote call and leave the phase untouched.
func (o *Orchestrator) Generate(ctx context.Context, cfg models.SessionConfig) (*Session, error) {
	cfg = cfg.WithDefaults()
	cfg.Theme = strings.TrimSpace(cfg.Theme)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !o.begin() {
		return nil, ErrBusy
	}
	defer o.end()
	o.releaseCurrent()

	o.publish(RequestingVisuals{})
	var images []models.Payload
	err := o.stage(ctx, func(ctx context.Context) (err error) {
		images, err = o.gen.GenerateImages(ctx, cfg.Theme)
		return err
	})
	if err == nil && len(images) == 0 {
		err = errors.New("no images generated")
	}
	if err != nil {
		return o.fail(models.KindImage, false, err)
	}
	if len(images) > MaxImages {
		images = images[:MaxImages]
	}
	o.publish(PartialReady{Preview: Preview{Config: cfg, Images: images}})

	o.publish(RequestingScript{})
	var script string
	err = o.stage(ctx, func(ctx context.Context) (err error) {
		script, err = o.gen.GenerateScript(ctx, cfg)
		return err
	})
	if err != nil {
		return o.fail(models.KindScript, false, err)
	}

	o.publish(RequestingAudio{})
	var payload models.Payload
	err = o.stage(ctx, func(ctx context.Context) (err error) {
		payload, err = o.gen.GenerateAudio(ctx, script, cfg.Voice)
		return err
	})
	if err == nil && payload.Empty() {
		err = errors.New("no audio data received")
	}
	if err != nil {
		return o.fail(models.KindAudio, false, err)
	}

	o.publish(BuildingResource{})
	handle, err := o.builder.Build(payload)
	if err != nil {
		return o.fail(models.KindDecode, false, err)
	}

	session := &Session{
		ID:        uuid.New().String(),
		Config:    cfg,
		Images:    images,
		Script:    script,
		Audio:     payload,
		Handle:    handle,
		CreatedAt: o.now(),
	}

	if o.history != nil {
		entry := models.HistoryEntry{
			ID:         session.ID,
			Prompt:     cfg.Theme,
			Voice:      cfg.Voice,
			Atmosphere: cfg.Atmosphere,
			Duration:   cfg.Duration,
			Images:     images,
			Audio:      payload,
			Timestamp:  session.CreatedAt,
		}
		if err := o.history.Append(entry); err != nil {
			o.logger.Printf("failed to save session %s to history: %v", session.ID, err)
		}
	}

	o.complete(session)
	return session, nil
}

// LoadEntry restores an archived session. Only the audio resource is
// rebuilt; no remote call is made and history is left untouched.
func (o *Orchestrator) LoadEntry(entry models.HistoryEntry) (*Session, error) {
	if !o.begin() {
		return nil, ErrBusy
	}
	defer o.end()
	o.releaseCurrent()

	o.publish(BuildingResource{Archived: true})
	handle, err := o.builder.Build(entry.Audio)
	if err != nil {
		return o.fail(models.KindDecode, true, err)
	}

	session := &Session{
		ID:        entry.ID,
		Config:    entry.Config(),
		Images:    entry.Images,
		Audio:     entry.Audio,
		Handle:    handle,
		CreatedAt: entry.Timestamp,
		Archived:  true,
	}
	o.complete(session)
	return session, nil
}

// Close releases the live handle and returns to Idle
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	current := o.current
	o.current = nil
	o.phase = Idle{}
	o.mu.Unlock()

	if current != nil && current.Handle != nil {
		return current.Handle.Release()
	}
	return nil
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// releaseCurrent frees the handle of the session being superseded
func (o *Orchestrator) releaseCurrent() {
	o.mu.Lock()
	current := o.current
	o.current = nil
	o.mu.Unlock()

	if current != nil && current.Handle != nil {
		if err := current.Handle.Release(); err != nil {
			o.logger.Printf("failed to release audio for session %s: %v", current.ID, err)
		}
	}
}

// stage runs fn under the per-stage timeout
func (o *Orchestrator) stage(ctx context.Context, fn func(context.Context) error) error {
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (o *Orchestrator) publish(p Phase) {
	o.mu.Lock()
	o.phase = p
	observer := o.observer
	o.mu.Unlock()

	if observer != nil {
		observer(p)
	}
}

func (o *Orchestrator) complete(session *Session) {
	o.mu.Lock()
	o.current = session
	o.mu.Unlock()
	o.publish(Complete{Session: session})
}

// fail publishes Failed and returns err typed with the failing stage kind
func (o *Orchestrator) fail(kind models.Kind, archived bool, err error) (*Session, error) {
	if k, ok := models.KindOf(err); !ok || k != kind {
		if kind == models.KindDecode {
			err = &models.ResourceError{Kind: kind, Err: err}
		} else {
			err = &models.GenerationError{Kind: kind, Err: err}
		}
	}
	o.logger.Printf("meditation run failed at %s stage: %v", kind, err)
	o.publish(Failed{Kind: kind, Archived: archived, Err: err})
	return nil, err
}
