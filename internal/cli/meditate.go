package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"zenith/internal/meditation"
	"zenith/internal/models"
	"zenith/internal/soundscape"
)

// playbackFlags are shared by meditate and history load
type playbackFlags struct {
	play      bool
	out       string
	imagesDir string
	music     string
	file      string
	volume    float64
}

func (f *playbackFlags) register(cmd *cobra.Command, defaultVolume float64) {
	cmd.Flags().BoolVar(&f.play, "play", false, "Play the session through the configured player")
	cmd.Flags().StringVar(&f.out, "out", "", "Save the voiceover as a WAV file")
	cmd.Flags().StringVar(&f.imagesDir, "images-dir", "", "Save the slideshow images into this directory")
	cmd.Flags().StringVar(&f.music, "music", soundscape.None, "Background track: "+strings.Join(soundscape.Keys(), ", "))
	cmd.Flags().StringVar(&f.file, "music-file", "", "Audio file to use with --music upload")
	cmd.Flags().Float64Var(&f.volume, "music-volume", defaultVolume, "Background track volume (0-1)")
}

// newMeditateCmd creates the meditate command
func newMeditateCmd(app func() *app, defaultVolume float64) *cobra.Command {
	var (
		theme      string
		voice      string
		atmosphere string
		duration   string
		pf         playbackFlags
	)

	cmd := &cobra.Command{
		Use:   "meditate [THEME]",
		Short: "Generate a guided meditation session",
		Long: `Generate a guided meditation from a theme: three slideshow images, a spoken
script and a synthesized voiceover. Example:
  zenith meditate --theme "A calm forest by a gentle stream" --voice Puck --duration short`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if theme == "" {
				theme = strings.Join(args, " ")
			}

			cfg := models.SessionConfig{Theme: theme, Atmosphere: atmosphere}
			var err error
			if voice != "" {
				if cfg.Voice, err = models.ParseVoice(voice); err != nil {
					return err
				}
			}
			if duration != "" {
				if cfg.Duration, err = models.ParseDuration(duration); err != nil {
					return err
				}
			}
			track, err := soundscape.Lookup(pf.music)
			if err != nil {
				return err
			}

			if err := a.openClient(); err != nil {
				return err
			}

			a.imagesDir = pf.imagesDir
			orch := a.orchestrator()
			defer orch.Close()

			session, err := orch.Generate(cmd.Context(), cfg)
			if err != nil {
				if errors.Is(err, models.ErrEmptyInput) {
					return fmt.Errorf("please enter a theme for your meditation")
				}
				return err
			}
			a.display.PrintSession(session)
			return a.deliver(cmd.Context(), session, track, pf)
		},
	}

	cmd.Flags().StringVarP(&theme, "theme", "t", "", "What the meditation should be about")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice: Kore, Puck, Charon, Fenrir or Zephyr (default Kore)")
	cmd.Flags().StringVar(&atmosphere, "atmosphere", "", "Atmosphere, e.g. \""+strings.Join(models.Atmospheres, "\", \"")+"\"")
	cmd.Flags().StringVar(&duration, "duration", "", "Length: short, medium or long (default medium)")
	pf.register(cmd, defaultVolume)

	return cmd
}

// deliver saves and/or plays a finished session
func (a *app) deliver(ctx context.Context, s *meditation.Session, track soundscape.Track, pf playbackFlags) error {
	if pf.imagesDir != "" && a.imagePaths == nil {
		if err := a.saveImages(pf.imagesDir, s.Images); err != nil {
			return err
		}
	}

	if pf.out != "" {
		if err := copyFile(s.Handle.Path(), pf.out); err != nil {
			return fmt.Errorf("failed to save voiceover: %w", err)
		}
		a.display.PrintSuccess("Voiceover saved to " + pf.out)
	}

	if pf.play {
		return a.playSession(ctx, s, track, pf.file, pf.volume)
	}
	if pf.out == "" && pf.imagesDir == "" {
		a.display.PrintInfo("Saved to history as " + s.ID + ". Replay with: zenith history load " + strconv.Quote(s.ID) + " --play")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
