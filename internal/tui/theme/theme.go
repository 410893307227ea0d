package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title       lipgloss.Style
	ModePill    lipgloss.Style
	ScreenName  lipgloss.Style
	Timestamp   lipgloss.Style
	Placeholder lipgloss.Style
	ActiveLine  lipgloss.Style
	MetaLabel   lipgloss.Style
	MetaValue   lipgloss.Style
	StateIdle   lipgloss.Style
	StateWarn   lipgloss.Style
	StateLoad   lipgloss.Style
	CountBadge  lipgloss.Style
	CountDelta  lipgloss.Style

	LevelHigh   lipgloss.Style
	LevelNormal lipgloss.Style
	LevelLow    lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay0 := lipgloss.Color("#6c7086")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:    lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		ScreenName:  lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		Timestamp:   lipgloss.NewStyle().Foreground(cpOverlay1),
		Placeholder: lipgloss.NewStyle().Italic(true).Foreground(cpOverlay0),
		ActiveLine:  lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:   lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:   lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:   lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:   lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:   lipgloss.NewStyle().Foreground(cpPeach),
		CountBadge:  lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		CountDelta:  lipgloss.NewStyle().Foreground(cpSubtext0),
		LevelHigh:   lipgloss.NewStyle().Bold(true).Foreground(cpPeach),
		LevelNormal: lipgloss.NewStyle().Foreground(cpText),
		LevelLow:    lipgloss.NewStyle().Foreground(cpSubtext0),
	}
}

// StyleLevel renders s in the style of a status at the given level.
func (t Theme) StyleLevel(level int, s string) string {
	if s == "" {
		return s
	}
	switch {
	case level > 0:
		return t.LevelHigh.Render(s)
	case level < 0:
		return t.LevelLow.Render(s)
	default:
		return t.LevelNormal.Render(s)
	}
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
