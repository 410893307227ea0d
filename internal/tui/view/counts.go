package view

import (
	"strconv"
	"strings"

	"github.com/glabrego/busybird-cli/internal/busybird"
	tuitheme "github.com/glabrego/busybird-cli/internal/tui/theme"
)

const DefaultCountsLevelNum = 2

// CountsPair is one entry of the unacked counts summary. Sum counts every
// status at this level or above; Delta is the share of this level alone.
type CountsPair struct {
	Label    string
	Sum      int
	Delta    int
	HasDelta bool
}

// CountsPairs summarises counts as cumulative sums over the levelNum highest
// levels, followed by the total when more levels exist.
func CountsPairs(counts busybird.Counts, levelNum int) []CountsPair {
	if levelNum <= 0 {
		levelNum = DefaultCountsLevelNum
	}
	total := counts.Total()
	if total == 0 {
		return []CountsPair{{Label: "Total", Sum: 0}}
	}
	levels := counts.Levels()
	pairs := make([]CountsPair, 0, min(len(levels), levelNum)+1)
	sum := 0
	for i, level := range levels {
		if i >= levelNum {
			break
		}
		n := counts.Level(level)
		sum += n
		pair := CountsPair{Label: "Lv. " + strconv.Itoa(level), Sum: sum}
		if i > 0 {
			pair.Delta, pair.HasDelta = n, true
		}
		pairs = append(pairs, pair)
	}
	if len(levels) > levelNum {
		pairs = append(pairs, CountsPair{Label: "Total", Sum: total, Delta: total - sum, HasDelta: true})
	}
	return pairs
}

func UnackedCountsLine(counts busybird.Counts, levelNum int, th tuitheme.Theme) string {
	if counts == nil {
		return th.MetaLabel.Render("unacked") + " " + th.MetaValue.Render("-")
	}
	pairs := CountsPairs(counts, levelNum)
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		part := th.MetaLabel.Render(p.Label) + " " + th.CountBadge.Render(strconv.Itoa(p.Sum))
		if p.HasDelta {
			part += " " + th.CountDelta.Render("+"+strconv.Itoa(p.Delta))
		}
		parts = append(parts, part)
	}
	return th.MetaLabel.Render("unacked") + " " + strings.Join(parts, "  ")
}
