package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zenith/internal/config"
)

// Execute runs the zenith command line
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(config.Load()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config) *cobra.Command {
	var a *app

	rootCmd := &cobra.Command{
		Use:   "zenith",
		Short: "Zenith AI - guided meditations and a mindful companion",
		Long: `Zenith generates personalized guided meditations (script, slideshow imagery and
a synthesized voiceover) from a theme, and offers a supportive chat companion.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				cfg.Verbose = true
			}
			if s, _ := cmd.Flags().GetString("store"); s != "" {
				cfg.StoreBackend = s
			}
			if d, _ := cmd.Flags().GetString("data-dir"); d != "" {
				cfg.DataDir = d
			}
			a = newApp(cfg, cmd.OutOrStdout())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.display.PrintWelcome("Find your calm. Run `zenith meditate --theme \"...\"` or `zenith chat`.")
			if cfg.APIKey == "" {
				return cmd.Help()
			}
			if err := a.openClient(); err != nil {
				return err
			}
			f, err := a.focusService().Get(cmd.Context())
			if err != nil {
				a.display.PrintWarning(fmt.Sprintf("Daily focus unavailable: %v", err))
				return nil
			}
			a.display.PrintFocus(f)
			return nil
		},
	}

	app := func() *app { return a }
	rootCmd.AddCommand(newMeditateCmd(app, cfg.BackgroundVolume))
	rootCmd.AddCommand(newChatCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app, cfg.BackgroundVolume))
	rootCmd.AddCommand(newFocusCmd(app))
	rootCmd.AddCommand(newModelsCmd(app))

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log requests and internal events to stderr")
	rootCmd.PersistentFlags().String("store", "", "Storage backend: file, sqlite or memory")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for history, audio and cached tracks")

	return rootCmd
}

// newModelsCmd creates the models command
func newModelsCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models available to your API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.openClient(); err != nil {
				return err
			}
			names, err := a.client.ListModels(cmd.Context())
			if err != nil {
				a.display.PrintError(err)
				return err
			}
			a.display.PrintModels(names)
			return nil
		},
	}
}

// newFocusCmd creates the focus command
func newFocusCmd(app func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Show today's mindful intention",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.openClient(); err != nil {
				return err
			}
			svc := a.focusService()
			get := svc.Get
			if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
				get = svc.Refresh
			}
			f, err := get(cmd.Context())
			if err != nil {
				a.display.PrintError(err)
				return err
			}
			a.display.PrintFocus(f)
			return nil
		},
	}
	cmd.Flags().Bool("refresh", false, "Generate a new focus even if today's is cached")
	return cmd
}
