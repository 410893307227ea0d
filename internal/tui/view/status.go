package view

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glabrego/busybird-cli/internal/busybird"
	renderstatus "github.com/glabrego/busybird-cli/internal/render/status"
	"github.com/glabrego/busybird-cli/internal/threshold"
	"github.com/glabrego/busybird-cli/internal/timeline"
	tuitheme "github.com/glabrego/busybird-cli/internal/tui/theme"
)

const (
	bodyIndent = "    "
	rowMarker  = "  "
)

// twitterTimeLayout is the created_at format of BusyBird statuses.
const twitterTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

// StatusRenderer returns the timeline renderer drawing a header line followed
// by the wrapped body of each status.
func StatusRenderer(th tuitheme.Theme, now func() time.Time) timeline.Renderer {
	if now == nil {
		now = time.Now
	}
	return func(s busybird.Status, width int) []string {
		return StatusLines(s, width, now(), th)
	}
}

func StatusLines(s busybird.Status, width int, now time.Time, th tuitheme.Theme) []string {
	width = max(20, width)
	lines := []string{StatusHeader(s, width, now, th)}
	body := renderstatus.BodyLines(s, width-len(bodyIndent)-len(rowMarker))
	for _, line := range body {
		lines = append(lines, bodyIndent+line)
	}
	return lines
}

func StatusHeader(s busybird.Status, width int, now time.Time, th tuitheme.Theme) string {
	level := th.StyleLevel(s.Level(), fmt.Sprintf("Lv.%d", s.Level()))
	name := strings.TrimSpace(s.User.ScreenName)
	if name == "" {
		name = "unknown"
	}
	left := level + " " + th.ScreenName.Render("@"+truncateRunes(name, max(1, width/2)))
	if s.BusyBird.IsNew {
		left += " " + th.CountBadge.Render("new")
	}
	when := CreatedAtLabel(now, s.CreatedAt)
	if when == "" {
		return left
	}
	right := th.Timestamp.Render(when)
	gap := width - len(rowMarker) - visibleLen(left) - visibleLen(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// CreatedAtLabel renders a status timestamp relative to now. Unparseable
// timestamps are shown as given.
func CreatedAtLabel(now time.Time, createdAt string) string {
	createdAt = strings.TrimSpace(createdAt)
	if createdAt == "" {
		return ""
	}
	for _, layout := range []string{twitterTimeLayout, time.RFC3339} {
		if then, err := time.Parse(layout, createdAt); err == nil {
			return RelativeTimeLabel(now, then)
		}
	}
	return createdAt
}

func RelativeTimeLabel(now, then time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	if then.IsZero() {
		return "unknown"
	}
	if then.After(now) {
		return "just now"
	}
	d := now.Sub(then)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", n)
	}
	if d < 24*time.Hour {
		n := int(d / time.Hour)
		if n == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", n)
	}
	n := int(d / (24 * time.Hour))
	if n == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", n)
}

func PlaceholderLine(count, width int, th tuitheme.Theme) string {
	text := "··· " + threshold.PlaceholderText(count)
	return th.Placeholder.Render(truncateRunes(text, max(1, width)))
}

// RenderRows draws the visible timeline rows, one terminal line each.
func RenderRows(rows []timeline.Row, width int, th tuitheme.Theme) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	for _, row := range rows {
		switch row.Kind {
		case timeline.RowPlaceholder:
			b.WriteString(bodyIndent)
			b.WriteString(PlaceholderLine(row.Count, width-len(bodyIndent), th))
		case timeline.RowStatus:
			marker := rowMarker
			if row.Cursor && row.Line == 0 {
				marker = "> "
			}
			line := marker + row.Text
			if row.Cursor {
				if pad := width - visibleLen(line); pad > 0 {
					line += strings.Repeat(" ", pad)
				}
			}
			b.WriteString(th.RenderActiveLine(row.Cursor, line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return renderstatus.VisibleWidth(s)
}
