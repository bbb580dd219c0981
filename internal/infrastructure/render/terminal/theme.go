package terminal

import "github.com/charmbracelet/lipgloss"

const (
	colorGreen  lipgloss.Color = "#a6e3a1"
	colorYellow lipgloss.Color = "#f9e2af"
	colorPeach  lipgloss.Color = "#fab387"
	colorRed    lipgloss.Color = "#f38ba8"
	colorTeal   lipgloss.Color = "#94e2d5"
	colorSubtle lipgloss.Color = "#7f849c"
	colorText   lipgloss.Color = "#cdd6f4"
)

type theme struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	errText lipgloss.Style
	alert   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	badges  map[string]lipgloss.Style
	other   lipgloss.Style
}

func newTheme(r *lipgloss.Renderer) theme {
	badge := func(c lipgloss.Color) lipgloss.Style {
		return r.NewStyle().Foreground(c).Bold(true)
	}
	return theme{
		title:   r.NewStyle().Bold(true).Foreground(colorText),
		muted:   r.NewStyle().Foreground(colorSubtle),
		errText: r.NewStyle().Foreground(colorRed).Bold(true),
		alert: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Padding(0, 1),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		badges: map[string]lipgloss.Style{
			"MATCHED":       badge(colorGreen),
			"PARTIAL_MATCH": badge(colorYellow),
			"MISSING_IN_2B": badge(colorPeach),
			"RISKY_ITC":     badge(colorRed),
		},
		other: badge(colorTeal),
	}
}

func (t theme) badge(class string) lipgloss.Style {
	if style, ok := t.badges[class]; ok {
		return style
	}
	return t.other
}
