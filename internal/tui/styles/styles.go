// Package styles holds the lipgloss styles of the case browser.
package styles

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles built from one palette.
type Styles struct {
	Palette *ColorPalette

	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Muted     lipgloss.Style
	Text      lipgloss.Style

	Title lipgloss.Style

	// Sheet tabs
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// Footer / status bar
	StatusBar     lipgloss.Style
	ReadOnlyBadge lipgloss.Style
	WriteBadge    lipgloss.Style

	HelpBar lipgloss.Style
	HelpKey lipgloss.Style

	ErrorMsg   lipgloss.Style
	SuccessMsg lipgloss.Style
	WarningMsg lipgloss.Style

	// Banner shown when the case file changed on disk
	ChangedBanner lipgloss.Style

	// Dialogs and side panels
	Dialog       lipgloss.Style
	Panel        lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style

	// Table
	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
}

// New builds the styles for palette p.
func New(p *ColorPalette) *Styles {
	if p == nil {
		p = DefaultPalette()
	}
	return &Styles{
		Palette: p,

		Primary:   lipgloss.NewStyle().Foreground(p.Primary),
		Secondary: lipgloss.NewStyle().Foreground(p.Secondary),
		Muted:     lipgloss.NewStyle().Foreground(p.Muted),
		Text:      lipgloss.NewStyle().Foreground(p.Text),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 2),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Padding(0, 1),
		ReadOnlyBadge: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Surface).
			Background(p.Warning).
			Padding(0, 1),
		WriteBadge: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Surface).
			Background(p.Secondary).
			Padding(0, 1),

		HelpBar: lipgloss.NewStyle().
			Foreground(p.Muted),
		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Secondary),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true),
		SuccessMsg: lipgloss.NewStyle().
			Foreground(p.Secondary).
			Bold(true),
		WarningMsg: lipgloss.NewStyle().
			Foreground(p.Warning).
			Bold(true),

		ChangedBanner: lipgloss.NewStyle().
			Foreground(p.Surface).
			Background(p.Warning).
			Bold(true).
			Padding(0, 1),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Warning).
			Padding(1, 2),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Item: lipgloss.NewStyle().
			Foreground(p.Text).
			Padding(0, 1),
		ItemSelected: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Primary).
			Bold(true).
			Padding(0, 1),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Border),
		TableSelected: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Primary),
	}
}

// ForTheme builds the styles for a theme name. Unknown names use the
// default palette.
func ForTheme(name string) *Styles {
	return New(GetPalette(ThemeName(name)))
}

// Default returns the styles of the default theme.
func Default() *Styles {
	return New(DefaultPalette())
}
