package theme

import "github.com/charmbracelet/lipgloss"

// CatppuccinMochaTheme returns the Catppuccin Mocha theme
// Based on: https://github.com/catppuccin/catppuccin
func CatppuccinMochaTheme() Theme {
	return Theme{
		Name: "catppuccin-mocha",

		Background: lipgloss.Color("#1e1e2e"), // Base
		Foreground: lipgloss.Color("#cdd6f4"), // Text
		Muted:      lipgloss.Color("#6c7086"), // Overlay0

		Border:        lipgloss.Color("#45475a"), // Surface1
		BorderFocused: lipgloss.Color("#89b4fa"), // Blue
		Selection:     lipgloss.Color("#313244"), // Surface0
		Cursor:        lipgloss.Color("#f5e0dc"), // Rosewater
		Key:           lipgloss.Color("#f9e2af"), // Yellow

		Success: lipgloss.Color("#a6e3a1"), // Green
		Warning: lipgloss.Color("#f9e2af"), // Yellow
		Error:   lipgloss.Color("#f38ba8"), // Red
		Info:    lipgloss.Color("#89dceb"), // Sky

		TableHeader:      lipgloss.Color("#cba6f7"), // Mauve
		TableRowSelected: lipgloss.Color("#45475a"), // Surface1
		TableRowMarked:   lipgloss.Color("#94e2d5"), // Teal

		FilterIncomplete: lipgloss.Color("#7f849c"), // Overlay1
		FilterInvalid:    lipgloss.Color("#eba0ac"), // Maroon

		Draft: lipgloss.Color("#fab387"), // Peach
	}
}
