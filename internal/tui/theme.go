package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha subset
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	rowStyle        = lipgloss.NewStyle().Foreground(colorText)
	cursorStyle     = lipgloss.NewStyle().Background(colorSurface1).Foreground(colorText)
	selectedStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	lockedStyle     = lipgloss.NewStyle().Foreground(colorOverlay0)
	statusStyle     = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle      = lipgloss.NewStyle().Foreground(colorRed)
	helpStyle       = lipgloss.NewStyle().Foreground(colorOverlay0)
	placeholderText = lipgloss.NewStyle().Foreground(colorOverlay0).Render("…")
)
