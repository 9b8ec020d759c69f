package theme

// Palette and ttk styles for the flame bot control panel.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// PaletteSnapshot holds the resolved colors of one mode.
type PaletteSnapshot struct {
	AppBg     string
	Surface   string
	Primary   string
	Danger    string
	Success   string
	Warning   string
	Text      string
	TextMuted string
}

var (
	light = PaletteSnapshot{
		AppBg:     "#f7f9fb",
		Surface:   "#ffffff",
		Primary:   "#2563eb",
		Danger:    "#dc2626",
		Success:   "#10b981",
		Warning:   "#d97706",
		Text:      "#1e293b",
		TextMuted: "#64748b",
	}
	dark = PaletteSnapshot{
		AppBg:     "#0f172a",
		Surface:   "#1e293b",
		Primary:   "#3b82f6",
		Danger:    "#ef4444",
		Success:   "#10b981",
		Warning:   "#f59e0b",
		Text:      "#f1f5f9",
		TextMuted: "#94a3b8",
	}
)

// Style names used with Style(...).
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleStateLabel    = "state.TLabel"
	StyleStatusLabel   = "status.TLabel"
)

var darkMode bool

// Current returns the palette of the active mode.
func Current() PaletteSnapshot {
	if darkMode {
		return dark
	}
	return light
}

// InitStyles applies the styles for the active mode.
func InitStyles() { apply(Current()) }

// ToggleDark flips the mode, reapplies styles and returns the new mode.
func ToggleDark() bool {
	darkMode = !darkMode
	apply(Current())
	return darkMode
}

func apply(p PaletteSnapshot) {
	_ = ActivateTheme("azure light")
	App.Configure(Background(p.AppBg))
	button := func(name, bg string) {
		StyleConfigure(name, Background(bg), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	}
	button(StylePrimaryButton, p.Primary)
	button(StyleDangerButton, p.Danger)
	StyleConfigure(StyleStateLabel, Foreground("white"), Background(p.Success), Padding("4p 2p"), Borderwidth(1), Relief("groove"))
	StyleConfigure(StyleStatusLabel, Foreground(p.Text), Background(p.Surface), Padding("2p 1p"))
}
