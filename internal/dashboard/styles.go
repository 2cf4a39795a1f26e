package dashboard

import "github.com/charmbracelet/lipgloss"

// Dashboard color palette
const (
	ColorBorder = lipgloss.Color("#2A3A4A")

	// Semantic colors for connection state
	ColorConnected    = lipgloss.Color("#2ECC71")
	ColorDisconnected = lipgloss.Color("#E74C3C")
	ColorPending      = lipgloss.Color("#F1C40F")

	// Text colors
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#A9B7C6")
	ColorTextMuted     = lipgloss.Color("#5C6B7A")

	// Accent colors
	ColorAccent = lipgloss.Color("#00B4D8")
	ColorGraph  = lipgloss.Color("#48CAE4")
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted).
				Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorTextPrimary).
				Background(lipgloss.Color("#1F3A4D")).
				Bold(true)

	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(ColorConnected)

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(ColorDisconnected)

	StatusPendingStyle = lipgloss.NewStyle().
				Foreground(ColorPending)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDisconnected)

	StaleStyle = lipgloss.NewStyle().
			Foreground(ColorPending)
)

// Status indicator characters
const (
	StatusConnected    = "◉"
	StatusDisconnected = "◌"
)

// PendingSpinnerFrames are the animation frames shown while a connect or
// disconnect is awaiting server confirmation.
var PendingSpinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
