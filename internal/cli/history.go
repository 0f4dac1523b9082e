package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"zenith/internal/models"
	"zenith/internal/soundscape"
)

// newHistoryCmd creates the history command
func newHistoryCmd(app func() *app, defaultVolume float64) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse, replay and clear past sessions",
	}

	historyCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.openStorage(); err != nil {
				return err
			}
			a.display.PrintHistory(a.history.LoadAll())
			return nil
		},
	})

	var pf playbackFlags
	loadCmd := &cobra.Command{
		Use:   "load <ID|NUMBER>",
		Short: "Restore a saved session without calling the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.openStorage(); err != nil {
				return err
			}
			entry, err := findEntry(a.history.LoadAll(), args[0])
			if err != nil {
				return err
			}
			track, err := soundscape.Lookup(pf.music)
			if err != nil {
				return err
			}

			a.imagesDir = pf.imagesDir
			orch := a.storageOrchestrator()
			defer orch.Close()

			session, err := orch.LoadEntry(entry)
			if err != nil {
				return err
			}
			a.display.PrintSession(session)
			return a.deliver(cmd.Context(), session, track, pf)
		},
	}
	pf.register(loadCmd, defaultVolume)
	historyCmd.AddCommand(loadCmd)

	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.openStorage(); err != nil {
				return err
			}
			if err := a.history.Clear(); err != nil {
				return err
			}
			a.display.PrintSuccess("History cleared")
			return nil
		},
	})

	return historyCmd
}

// findEntry resolves an entry by id or by its 1-based position in the list
func findEntry(entries []models.HistoryEntry, ref string) (models.HistoryEntry, error) {
	for _, e := range entries {
		if e.ID == ref {
			return e, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1], nil
	}
	return models.HistoryEntry{}, fmt.Errorf("no saved session %q", ref)
}
