package view

import (
	"fmt"
	"strings"

	tuitheme "github.com/glabrego/busybird-cli/internal/tui/theme"
)

func Toolbar() string {
	return "j/k move | ctrl+d/ctrl+u scroll | +/- threshold | 0 reset | r unacked | n more | o open | y copy | ? help | q quit"
}

func Header(timeline string, level int, th tuitheme.Theme) string {
	return th.Title.Render("BusyBird") + " " + th.ModePill.Render(timeline) + " " +
		th.MetaLabel.Render("threshold") + " " + th.StyleLevel(level, fmt.Sprintf("Lv.%d", level))
}

func HelpLines() []string {
	return []string{
		"j/k, up/down     move cursor between visible statuses",
		"ctrl+d/ctrl+u    scroll half a page",
		"+/l, -/h, 0      raise, lower or reset the threshold level",
		"r                load unacked statuses",
		"n                load older statuses",
		"o/y              open or copy the permalink of the status under the cursor",
	}
}

func Footer(total, visible, scrollTop, totalRows int, th tuitheme.Theme) string {
	hidden := total - visible
	parts := []string{
		th.MetaValue.Render(fmt.Sprintf("%d statuses", total)),
		th.MetaLabel.Render("shown") + " " + th.MetaValue.Render(fmt.Sprintf("%d", visible)),
		th.MetaLabel.Render("hidden") + " " + th.MetaValue.Render(fmt.Sprintf("%d", hidden)),
		th.MetaLabel.Render("line") + " " + th.MetaValue.Render(fmt.Sprintf("%d/%d", min(scrollTop+1, totalRows), totalRows)),
	}
	return strings.Join(parts, " • ")
}

// Message renders the state line. spinner is shown in front while busy.
func Message(busy bool, spinner, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	stateLabel := th.StateIdle.Render("state")
	switch {
	case warning != "":
		state = "warning"
		stateLabel = th.StateWarn.Render("state")
	case busy:
		state = "loading"
		stateLabel = th.StateLoad.Render("state")
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if warning != "" {
		main = warning
	}
	line := fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
	if busy && spinner != "" {
		line = spinner + " " + line
	}
	return line
}
