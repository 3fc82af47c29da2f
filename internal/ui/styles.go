package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorError     = lipgloss.Color("196") // Red
)

// TitleStyle for the dashboard header.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// ModeActive style for the selected mode tab.
var ModeActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// ModeInactive style for unselected mode tabs.
var ModeInactive = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// AxisStyle for chart axes.
var AxisStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// LabelStyle for chart axis labels.
var LabelStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for fetch failure notices.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorError).
	Padding(0, 1)

// FilterPromptStyle for the author filter input line.
var FilterPromptStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)
