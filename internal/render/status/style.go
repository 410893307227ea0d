package status

import "github.com/charmbracelet/lipgloss"

var linkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Underline(true)

func styleLinks(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = reHTTPURL.ReplaceAllStringFunc(line, func(u string) string {
			return linkStyle.Render(u)
		})
	}
	return out
}
