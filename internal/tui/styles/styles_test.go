package styles

import (
	"slices"
	"testing"
)

func TestBuiltinThemes(t *testing.T) {
	themes := BuiltinThemes()
	for _, want := range []string{"default", "nord", "dracula", "solarized-light"} {
		if !slices.Contains(themes, want) {
			t.Errorf("BuiltinThemes() missing %q", want)
		}
	}
}

func TestIsValidTheme(t *testing.T) {
	tests := []struct {
		name  string
		theme string
		want  bool
	}{
		{"default theme", "default", true},
		{"nord theme", "nord", true},
		{"dracula theme", "dracula", true},
		{"solarized-light theme", "solarized-light", true},
		{"invalid theme", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "Default", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTheme(tt.theme); got != tt.want {
				t.Errorf("IsValidTheme(%q) = %v, want %v", tt.theme, got, tt.want)
			}
		})
	}
}

func TestGetPalette(t *testing.T) {
	tests := []struct {
		name    ThemeName
		primary string
	}{
		{ThemeDefault, "#A78BFA"},
		{ThemeNord, "#88C0D0"},
		{ThemeDracula, "#BD93F9"},
		{ThemeSolarizedLight, "#268BD2"},
		{"unknown", "#A78BFA"},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			if got := string(GetPalette(tt.name).Primary); got != tt.primary {
				t.Errorf("GetPalette(%q).Primary = %s, want %s", tt.name, got, tt.primary)
			}
		})
	}
}

func TestPalettesComplete(t *testing.T) {
	for _, name := range BuiltinThemes() {
		p := GetPalette(ThemeName(name))
		colors := []string{
			string(p.Primary), string(p.Secondary), string(p.Warning), string(p.Error),
			string(p.Muted), string(p.Surface), string(p.Text), string(p.Border),
		}
		for i, c := range colors {
			if c == "" {
				t.Errorf("theme %q color %d is empty", name, i)
			}
		}
	}
}

func TestNew_NilPaletteUsesDefault(t *testing.T) {
	s := New(nil)
	if s.Palette.Primary != DefaultPalette().Primary {
		t.Errorf("New(nil) palette primary = %s", s.Palette.Primary)
	}
	if ForTheme("nord").Palette.Primary != NordPalette().Primary {
		t.Error("ForTheme(nord) did not use the nord palette")
	}
}
