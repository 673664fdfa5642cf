package ui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary    = lipgloss.Color("#00BFFF") // Cyan, headings
	colorAccent     = lipgloss.Color("#FFD700") // Gold, medium band and warnings
	colorSuccess    = lipgloss.Color("#00E676") // Green, ok
	colorDanger     = lipgloss.Color("#FF5252") // Red, high band and errors
	colorMuted      = lipgloss.Color("#636363")
	colorMutedLight = lipgloss.Color("#8C8C8C")
	colorWhite      = lipgloss.Color("#EEEEEE")
)

const (
	iconOK       = "✓"
	iconFailed   = "✗"
	iconCycle    = "⟳"
	iconWarn     = "⚠"
	iconSuggest  = "◆"
	arrowDepends = " → "
)

var (
	styleHeading = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMutedLight)

	styleText = lipgloss.NewStyle().
			Foreground(colorWhite)

	styleOK = lipgloss.NewStyle().
		Foreground(colorSuccess).
		Bold(true)

	styleWarn = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleError = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleTableBorder = lipgloss.NewStyle().
				Foreground(colorMuted)

	styleCell = lipgloss.NewStyle().
			Padding(0, 1)

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// bandStyles colors scores by priority band.
var bandStyles = map[string]lipgloss.Style{
	"high":   lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
	"medium": lipgloss.NewStyle().Foreground(colorAccent),
	"low":    lipgloss.NewStyle().Foreground(colorSuccess),
}
