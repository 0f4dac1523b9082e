package ui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorIndigo = lipgloss.Color("#818CF8")
	ColorTeal   = lipgloss.Color("#5EEAD4")
	ColorGreen  = lipgloss.Color("#86EFAC")
	ColorYellow = lipgloss.Color("#FDE68A")
	ColorRed    = lipgloss.Color("#FCA5A5")
	ColorGray   = lipgloss.Color("#94A3B8")
	ColorDim    = lipgloss.Color("#475569")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorIndigo)

	BannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorIndigo).
			Padding(0, 2)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	StageStyle = lipgloss.NewStyle().
			Foreground(ColorTeal)

	FocusStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(ColorTeal)

	UserStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	ModelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorIndigo)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorTeal)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)
)
