package threshold

import (
	"context"
	"sort"

	"github.com/glabrego/busybird-cli/internal/chunk"
)

// Layout exposes the geometry of an ordered item list. Rows are counted from
// the top of the list; hidden items report a zero height.
type Layout interface {
	Len() int
	Level(i int) int
	Visible(i int) bool
	Bounds(i int) (top, height int)
	Window() (top, height int)
}

type Metric struct {
	Index          int
	Action         Action
	WindowDistance int
	CursorDistance int
}

// HiddenRun is a maximal run of consecutive hidden items. FollowedBy is the
// index of the visible item right after the run, or -1 at the end of the list.
type HiddenRun struct {
	FollowedBy int
	Indexes    []int
}

func (r HiddenRun) Len() int {
	return len(r.Indexes)
}

type Plan struct {
	Metrics    []Metric
	HiddenRuns []HiddenRun
	Animated   []int
	Immediate  []int
	// Anchor is the visible item to pin while the plan is applied, or -1.
	Anchor int
}

type ScanOptions struct {
	Animate bool
	// Cursor is the focused item index or NoCursor.
	Cursor     int
	AnimateMax int
	ChunkSize  int
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.AnimateMax <= 0 {
		o.AnimateMax = DefaultAnimateMax
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultScanChunk
	}
	return o
}

func Scan(ctx context.Context, layout Layout, threshold int, opts ScanOptions) (Plan, error) {
	opts = opts.withDefaults()
	n := layout.Len()
	plan := Plan{Anchor: -1, Metrics: make([]Metric, 0, n)}
	winTop, winHeight := layout.Window()

	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}

	var pending []int
	prevTop := 0
	err := chunk.Each(ctx, indexes, opts.ChunkSize, func(_ context.Context, block []int, _ int) error {
		for _, i := range block {
			visible := layout.Visible(i)
			top, height := layout.Bounds(i)
			if !visible {
				top, height = prevTop, 0
			}
			action := Classify(layout.Level(i), threshold, visible)
			if action.Shown() {
				if len(pending) > 0 {
					plan.HiddenRuns = append(plan.HiddenRuns, HiddenRun{FollowedBy: i, Indexes: pending})
					pending = nil
				}
			} else {
				pending = append(pending, i)
			}
			m := Metric{
				Index:          i,
				Action:         action,
				WindowDistance: DistanceRanges(winTop, winHeight, top, height),
			}
			if opts.Cursor >= 0 {
				m.CursorDistance = abs(i - opts.Cursor)
			}
			plan.Metrics = append(plan.Metrics, m)
			prevTop = top
		}
		return nil
	})
	if err != nil {
		return Plan{}, err
	}
	if len(pending) > 0 {
		plan.HiddenRuns = append(plan.HiddenRuns, HiddenRun{FollowedBy: -1, Indexes: pending})
	}

	ordered := make([]Metric, len(plan.Metrics))
	copy(ordered, plan.Metrics)
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].WindowDistance != ordered[b].WindowDistance {
			return ordered[a].WindowDistance < ordered[b].WindowDistance
		}
		return ordered[a].CursorDistance < ordered[b].CursorDistance
	})

	animateMax := 0
	if opts.Animate {
		animateMax = opts.AnimateMax
	}
	for _, m := range ordered {
		if plan.Anchor < 0 && m.Action == StayVisible {
			plan.Anchor = m.Index
		}
		if !m.Action.Transition() {
			continue
		}
		if len(plan.Animated) < animateMax {
			plan.Animated = append(plan.Animated, m.Index)
		} else {
			plan.Immediate = append(plan.Immediate, m.Index)
		}
	}
	return plan, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
