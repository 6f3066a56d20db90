package styles

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// ThemeName represents a named color theme.
type ThemeName string

// Available theme names.
const (
	ThemeDefault        ThemeName = "default"         // Violet/green dark theme
	ThemeNord           ThemeName = "nord"            // Nord theme - cool blue-gray
	ThemeDracula        ThemeName = "dracula"         // Dracula theme colors
	ThemeSolarizedLight ThemeName = "solarized-light" // Solarized Light for bright terminals
)

// BuiltinThemes returns all built-in theme names.
func BuiltinThemes() []string {
	return []string{
		string(ThemeDefault),
		string(ThemeNord),
		string(ThemeDracula),
		string(ThemeSolarizedLight),
	}
}

// IsValidTheme reports whether name is a built-in theme.
func IsValidTheme(name string) bool {
	return slices.Contains(BuiltinThemes(), name)
}

// ColorPalette defines the color scheme for a theme.
type ColorPalette struct {
	// Primary accent color (active tab, titles, selection)
	Primary lipgloss.Color
	// Secondary accent color (key hints, success)
	Secondary lipgloss.Color
	// Warning color (read-only badge, on-disk change banner)
	Warning lipgloss.Color
	// Error color
	Error lipgloss.Color
	// Muted color (de-emphasized text)
	Muted lipgloss.Color
	// Surface color (status bar background)
	Surface lipgloss.Color
	// Text color
	Text lipgloss.Color
	// Border color
	Border lipgloss.Color
}

// DefaultPalette returns the default violet/green dark palette.
func DefaultPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#A78BFA"), // Purple (violet-400)
		Secondary: lipgloss.Color("#10B981"), // Green
		Warning:   lipgloss.Color("#F59E0B"), // Amber
		Error:     lipgloss.Color("#F87171"), // Red (red-400)
		Muted:     lipgloss.Color("#9CA3AF"), // Gray
		Surface:   lipgloss.Color("#1F2937"), // Dark surface
		Text:      lipgloss.Color("#F9FAFB"), // Light text
		Border:    lipgloss.Color("#6B7280"), // Gray (gray-500)
	}
}

// NordPalette returns the Nord theme palette.
func NordPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#88C0D0"), // Frost cyan
		Secondary: lipgloss.Color("#A3BE8C"), // Aurora green
		Warning:   lipgloss.Color("#EBCB8B"), // Aurora yellow
		Error:     lipgloss.Color("#BF616A"), // Aurora red
		Muted:     lipgloss.Color("#4C566A"), // Polar night 3
		Surface:   lipgloss.Color("#2E3440"), // Polar night 0
		Text:      lipgloss.Color("#ECEFF4"), // Snow storm 2
		Border:    lipgloss.Color("#3B4252"), // Polar night 1
	}
}

// DraculaPalette returns the Dracula theme palette.
func DraculaPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#BD93F9"), // Purple
		Secondary: lipgloss.Color("#50FA7B"), // Green
		Warning:   lipgloss.Color("#F1FA8C"), // Yellow
		Error:     lipgloss.Color("#FF5555"), // Red
		Muted:     lipgloss.Color("#6272A4"), // Comment
		Surface:   lipgloss.Color("#282A36"), // Background
		Text:      lipgloss.Color("#F8F8F2"), // Foreground
		Border:    lipgloss.Color("#44475A"), // Current line
	}
}

// SolarizedLightPalette returns the Solarized Light palette.
func SolarizedLightPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#268BD2"), // Blue
		Secondary: lipgloss.Color("#859900"), // Green
		Warning:   lipgloss.Color("#B58900"), // Yellow
		Error:     lipgloss.Color("#DC322F"), // Red
		Muted:     lipgloss.Color("#93A1A1"), // Base1
		Surface:   lipgloss.Color("#FDF6E3"), // Base3
		Text:      lipgloss.Color("#657B83"), // Base00
		Border:    lipgloss.Color("#EEE8D5"), // Base2
	}
}

// GetPalette returns the palette for name, or the default palette for
// unknown names.
func GetPalette(name ThemeName) *ColorPalette {
	switch name {
	case ThemeNord:
		return NordPalette()
	case ThemeDracula:
		return DraculaPalette()
	case ThemeSolarizedLight:
		return SolarizedLightPalette()
	default:
		return DefaultPalette()
	}
}
