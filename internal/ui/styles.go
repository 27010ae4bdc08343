package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorText      = lipgloss.Color("#E0E0E0")
	ColorMuted     = lipgloss.Color("#888888")
	ColorDim       = lipgloss.Color("#555555")
	ColorPanel     = lipgloss.Color("#1A1A1A")
	ColorBorder    = lipgloss.Color("#444444")
	ColorBorderHot = lipgloss.Color("#00BFFF")
	ColorWiFi      = lipgloss.Color("#FFD700")
	ColorBLE       = lipgloss.Color("#00BFFF")
	ColorNominal   = lipgloss.Color("#00FF00")
	ColorWarning   = lipgloss.Color("#FF0000")
	ColorCV        = lipgloss.Color("#FF3030")
	ColorEnv       = lipgloss.Color("#7FDBFF")
)

// Pre-built styles
var (
	StyleMenuBar = lipgloss.NewStyle().
			Background(ColorPanel).
			Foreground(ColorText).
			Padding(0, 1)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorBorderHot).
			Bold(true)

	StyleStatusBar = lipgloss.NewStyle().
			Background(ColorPanel).
			Foreground(ColorMuted).
			Padding(0, 1)

	StyleConnected = lipgloss.NewStyle().
			Foreground(ColorNominal).
			Bold(true)

	StyleDisconnected = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true)

	StylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder)

	StylePanelActive = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorderHot)

	StylePanelTitle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true).
			Padding(0, 1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleValue = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleWiFi = lipgloss.NewStyle().
			Foreground(ColorWiFi)

	StyleBLE = lipgloss.NewStyle().
			Foreground(ColorBLE)

	StyleNominal = lipgloss.NewStyle().
			Foreground(ColorNominal).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	StyleCV = lipgloss.NewStyle().
		Foreground(ColorCV)

	StyleEnv = lipgloss.NewStyle().
			Foreground(ColorEnv)

	StyleLost = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleSeparator = lipgloss.NewStyle().
			Foreground(ColorBorder)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleLegend = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
