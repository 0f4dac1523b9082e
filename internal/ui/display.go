package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"zenith/internal/meditation"
	"zenith/internal/models"
)

// Display renders Zenith output to a terminal
type Display struct {
	out      io.Writer
	width    int
	renderer *glamour.TermRenderer

	replyBuffer strings.Builder
	replyStart  time.Time
}

// NewDisplay creates a display writing to out, wrapping at width columns
func NewDisplay(out io.Writer, width int) *Display {
	if width <= 0 {
		width = 80
	}

	// Create markdown renderer
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width, 100)-4),
	)

	return &Display{out: out, width: width, renderer: renderer}
}

// PrintWelcome displays the banner
func (d *Display) PrintWelcome(subtitle string) {
	banner := TitleStyle.Render("Zenith AI") + "\n" + LabelStyle.Render(subtitle)
	fmt.Fprintln(d.out, BannerStyle.Render(banner))
}

// PrintSeparator prints a visual separator
func (d *Display) PrintSeparator() {
	fmt.Fprintln(d.out, DimStyle.Render(strings.Repeat("─", min(d.width, 80))))
}

// PrintPrompt displays the user input prompt
func (d *Display) PrintPrompt() {
	fmt.Fprint(d.out, "\n"+UserStyle.Render("❯")+" ")
}

// PrintPhase shows a published orchestrator phase
func (d *Display) PrintPhase(p meditation.Phase) {
	switch p := p.(type) {
	case meditation.PartialReady:
		fmt.Fprintf(d.out, "%s %s\n", SuccessStyle.Render("✓"), fmt.Sprintf("%s (%d images)", p.Label(), len(p.Preview.Images)))
	case meditation.Failed:
		d.PrintError(fmt.Errorf("%s", p.Message()))
	case meditation.Complete:
		// printed by PrintSession
	default:
		fmt.Fprintln(d.out, StageStyle.Render("• "+p.Label()))
	}
}

// PrintSession shows a finished session
func (d *Display) PrintSession(s *meditation.Session) {
	title := "Your meditation is ready"
	if s.Archived {
		title = "Restored from history"
	}
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, TitleStyle.Render(title))
	fmt.Fprintf(d.out, "%s %s\n", LabelStyle.Render("Theme:     "), s.Config.Theme)
	fmt.Fprintf(d.out, "%s %s · %s · %s\n", LabelStyle.Render("Settings:  "), s.Config.Voice, s.Config.Atmosphere, s.Config.Duration)
	fmt.Fprintf(d.out, "%s %d\n", LabelStyle.Render("Images:    "), len(s.Images))
	if s.Handle != nil {
		fmt.Fprintf(d.out, "%s %s (%s)\n", LabelStyle.Render("Audio:     "), s.Handle.Path(), formatDuration(s.Handle.Duration()))
	}

	if s.Script != "" && d.renderer != nil {
		fmt.Fprintln(d.out)
		rendered, err := d.renderer.Render(s.Script)
		if err == nil {
			fmt.Fprint(d.out, rendered)
		} else {
			fmt.Fprintln(d.out, s.Script)
		}
	}
}

// PrintImages lists the saved slideshow images
func (d *Display) PrintImages(paths []string) {
	for i, p := range paths {
		fmt.Fprintf(d.out, "%s %s\n", LabelStyle.Render(fmt.Sprintf("Image %d:   ", i+1)), p)
	}
}

// PrintHistory lists archived sessions newest first
func (d *Display) PrintHistory(entries []models.HistoryEntry) {
	if len(entries) == 0 {
		d.PrintInfo("No saved sessions yet")
		return
	}
	fmt.Fprintln(d.out, TitleStyle.Render("Session history"))
	for i, e := range entries {
		fmt.Fprintf(d.out, "%2d. %s  %s\n    %s\n",
			i+1,
			truncate(e.Prompt, 50),
			DimStyle.Render(e.Timestamp.Local().Format("2006-01-02 15:04")),
			DimStyle.Render(fmt.Sprintf("%s · %s · %d images", e.ID, e.Voice, len(e.Images))),
		)
	}
}

// PrintFocus shows the daily focus
func (d *Display) PrintFocus(f models.DailyFocus) {
	fmt.Fprintf(d.out, "%s %s\n", LabelStyle.Render("Today's focus ("+f.Date+"):"), FocusStyle.Render(f.Text))
}

// PrintModels lists available models
func (d *Display) PrintModels(names []string) {
	fmt.Fprintln(d.out, TitleStyle.Render("Available models"))
	for _, n := range names {
		fmt.Fprintf(d.out, "  • %s\n", n)
	}
}

// PrintMessage shows a complete transcript message
func (d *Display) PrintMessage(m models.ChatMessage) {
	if m.Role == models.RoleUser {
		fmt.Fprintf(d.out, "%s %s\n", UserStyle.Render("You:"), m.Content)
		return
	}
	fmt.Fprintf(d.out, "%s %s\n", ModelStyle.Render("Zenith:"), m.Content)
}

// StartReply prints the reply prefix and starts timing
func (d *Display) StartReply() {
	d.replyStart = time.Now()
	d.replyBuffer.Reset()
	fmt.Fprint(d.out, "\n"+ModelStyle.Render("Zenith:")+" ")
}

// WriteFragment streams reply text as it arrives
func (d *Display) WriteFragment(text string) {
	d.replyBuffer.WriteString(text)
	fmt.Fprint(d.out, text)
}

// EndReply renders the complete reply as markdown and shows timing
func (d *Display) EndReply() {
	fmt.Fprintln(d.out)

	reply := d.replyBuffer.String()
	if looksLikeMarkdown(reply) && d.renderer != nil {
		if rendered, err := d.renderer.Render(reply); err == nil {
			fmt.Fprint(d.out, rendered)
		}
	}

	words := len(strings.Fields(reply))
	fmt.Fprintln(d.out, DimStyle.Render(fmt.Sprintf("%s · ~%d words", formatDuration(time.Since(d.replyStart)), words)))
}

// PrintInfo displays info message
func (d *Display) PrintInfo(msg string) {
	fmt.Fprintln(d.out, InfoStyle.Render("ℹ "+msg))
}

// PrintWarning displays warning message
func (d *Display) PrintWarning(msg string) {
	fmt.Fprintln(d.out, WarningStyle.Render("⚠ "+msg))
}

// PrintError displays error message
func (d *Display) PrintError(err error) {
	fmt.Fprintln(d.out, ErrorStyle.Render(fmt.Sprintf("✗ %v", err)))
}

// PrintSuccess displays success message
func (d *Display) PrintSuccess(msg string) {
	fmt.Fprintln(d.out, SuccessStyle.Render("✓ "+msg))
}

// PrintGoodbye displays goodbye message
func (d *Display) PrintGoodbye() {
	fmt.Fprintln(d.out, "\n"+TitleStyle.Render("Be well. 🌿"))
}

// Helper functions

func looksLikeMarkdown(s string) bool {
	return strings.Contains(s, "**") || strings.Contains(s, "\n- ") || strings.Contains(s, "\n#") || strings.Contains(s, "\n1. ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
