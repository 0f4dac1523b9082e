package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"zenith/internal/audio"
	"zenith/internal/chat"
	"zenith/internal/config"
	"zenith/internal/focus"
	"zenith/internal/gemini"
	"zenith/internal/history"
	"zenith/internal/kvstore"
	"zenith/internal/meditation"
	"zenith/internal/playback"
	"zenith/internal/soundscape"
	"zenith/internal/terminal"
	"zenith/internal/ui"
)

// app holds the components shared by all commands
type app struct {
	cfg     *config.Config
	out     io.Writer
	display *ui.Display
	spinner *terminal.Spinner

	store   kvstore.Store
	history *history.Manager
	client  *gemini.Client
	closers []io.Closer

	// imagesDir receives slideshow images as soon as they are generated
	imagesDir  string
	imagePaths []string
}

func newApp(cfg *config.Config, out io.Writer) *app {
	return &app{
		cfg:     cfg,
		out:     out,
		display: ui.NewDisplay(out, terminal.Width()),
		spinner: terminal.NewSpinner(out),
	}
}

// logger returns a component logger. Output is discarded unless verbose.
func (a *app) logger(component string) *log.Logger {
	if !a.cfg.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}

// openStorage opens the key-value store and restores history
func (a *app) openStorage() error {
	if a.store != nil {
		return nil
	}
	if err := a.cfg.ValidateStorage(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	store, err := kvstore.Open(a.cfg.StoreBackend, a.cfg.StorePath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.store = store

	a.history = history.NewManager(store, a.cfg.MaxHistorySize, a.logger("history"))
	if err := a.history.Restore(); err != nil {
		a.display.PrintWarning(fmt.Sprintf("Failed to load history: %v", err))
	}
	return nil
}

// openClient validates the full configuration and creates the Gemini client
func (a *app) openClient() error {
	if a.client != nil {
		return nil
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := a.openStorage(); err != nil {
		return err
	}

	a.client = gemini.NewClient(a.geminiOptions())
	return nil
}

func (a *app) geminiOptions() gemini.Options {
	return gemini.Options{
		BaseURL:      a.cfg.BaseURL,
		APIKey:       a.cfg.APIKey,
		Timeout:      a.cfg.RequestTimeout,
		ScriptModel:  a.cfg.ScriptModel,
		FocusModel:   a.cfg.FocusModel,
		ImageModel:   a.cfg.ImageModel,
		SpeechModel:  a.cfg.SpeechModel,
		ChatModel:    a.cfg.ChatModel,
		AspectRatio:  a.cfg.AspectRatio,
		ImageWorkers: a.cfg.ImageWorkers,
		Logger:       a.logger("gemini"),
	}
}

// chatSession returns the conversation for the configured backend
func (a *app) chatSession(ctx context.Context) (chat.Session, error) {
	if a.cfg.ChatBackend == "sdk" {
		conv, err := gemini.NewSDKConversation(ctx, a.geminiOptions())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conv)
		return conv, nil
	}
	return a.client.Conversation(), nil
}

// orchestrator wires a meditation orchestrator whose phases drive the spinner
func (a *app) orchestrator() *meditation.Orchestrator {
	builder := audio.NewBuilder(a.cfg.AudioDir())
	return meditation.NewOrchestrator(a.client, builder, a.history,
		meditation.WithLogger(a.logger("meditation")),
		meditation.WithStageTimeout(a.cfg.RequestTimeout),
		meditation.WithObserver(a.showPhase),
	)
}

// storageOrchestrator restores archived sessions without a Gemini client
func (a *app) storageOrchestrator() *meditation.Orchestrator {
	builder := audio.NewBuilder(a.cfg.AudioDir())
	return meditation.NewOrchestrator(nil, builder, a.history,
		meditation.WithLogger(a.logger("meditation")),
		meditation.WithObserver(a.showPhase),
	)
}

func (a *app) showPhase(p meditation.Phase) {
	a.spinner.Stop()
	switch p := p.(type) {
	case meditation.PartialReady:
		a.display.PrintPhase(p)
		if a.imagesDir != "" {
			if err := a.saveImages(a.imagesDir, p.Preview.Images); err != nil {
				a.display.PrintWarning(err.Error())
			}
		}
	case meditation.Complete, meditation.Failed:
		a.display.PrintPhase(p)
	default:
		if terminal.IsTerminal() {
			a.spinner.Start(p.Label())
		} else {
			a.display.PrintPhase(p)
		}
	}
}

func (a *app) focusService() *focus.Service {
	return focus.NewService(a.client, a.store, a.logger("focus"))
}

// playSession plays the voiceover with an optional background track until
// it ends or ctx is cancelled
func (a *app) playSession(ctx context.Context, s *meditation.Session, track soundscape.Track, uploadPath string, volume float64) error {
	player := a.cfg.PlayerCommand
	if player == "" {
		player = playback.DefaultPlayer
	}

	sink, err := playback.NewExecSink(player, s.Handle.Path(), false)
	if err != nil {
		return err
	}
	transport := playback.NewTransport(s.Handle, sink, a.logger("playback"))
	defer transport.Close()

	if track.Key != soundscape.None {
		fetcher := soundscape.NewFetcher(a.cfg.TrackDir(), a.cfg.TrackTimeout, a.cfg.MaxTrackSize, a.cfg.UserAgent)
		path, err := fetcher.Fetch(ctx, track, uploadPath)
		if err != nil {
			a.display.PrintWarning(fmt.Sprintf("Background track unavailable: %v", err))
		} else if path != "" {
			bgSink, err := playback.NewExecSink(player, path, true)
			if err != nil {
				return err
			}
			transport.SetBackground(playback.NewBackground(track.Label, bgSink))
			transport.SetBackgroundVolume(volume)
		}
	}

	if err := transport.Play(); err != nil {
		return err
	}
	a.display.PrintInfo(fmt.Sprintf("Playing %s. Press Ctrl+C to stop.", s.Handle.Duration().Round(1e9)))

	if err := transport.Wait(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (a *app) close() {
	a.spinner.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}
