package threshold

import (
	"context"
	"fmt"
)

const (
	DefaultAnimateMax       = 15
	DefaultScanChunk        = 150
	DefaultPlaceholderChunk = 40
	DefaultToggleChunk      = 100

	// NoCursor disables the cursor tie-break in Scan.
	NoCursor = -1
)

type Action int

const (
	StayVisible Action = iota
	StayInvisible
	BecomeVisible
	BecomeInvisible
)

func (a Action) String() string {
	switch a {
	case StayVisible:
		return "stay-visible"
	case StayInvisible:
		return "stay-invisible"
	case BecomeVisible:
		return "become-visible"
	case BecomeInvisible:
		return "become-invisible"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Transition reports whether the item changes visibility.
func (a Action) Transition() bool {
	return a == BecomeVisible || a == BecomeInvisible
}

// Shown reports whether the item is visible once the action is applied.
func (a Action) Shown() bool {
	return a == StayVisible || a == BecomeVisible
}

// Passes reports whether an item of the given level is shown under threshold.
func Passes(level, threshold int) bool {
	return level >= threshold
}

func Classify(level, threshold int, visible bool) Action {
	if Passes(level, threshold) {
		if visible {
			return StayVisible
		}
		return BecomeVisible
	}
	if visible {
		return BecomeInvisible
	}
	return StayInvisible
}

// DistanceRanges is how far range b sticks out of range a, or 0 if b lies within a.
func DistanceRanges(aTop, aRange, bTop, bRange int) int {
	aBottom := aTop + aRange
	bBottom := bTop + bRange
	dist := max(aTop-bTop, bBottom-aBottom)
	if dist < 0 {
		return 0
	}
	return dist
}

func PlaceholderText(n int) string {
	if n == 1 {
		return "1 status hidden here."
	}
	return fmt.Sprintf("%d statuses hidden here.", n)
}

// Target is a list that can be both measured and rearranged.
type Target interface {
	Layout
	Surface
}

type Options struct {
	Animate      bool
	AdjustScroll bool
	Cursor       int
	AnimateMax   int
}

// ApplyThreshold recomputes visibility of every item in t and applies it.
func ApplyThreshold(ctx context.Context, t Target, threshold int, opts Options) (Plan, error) {
	if t.Len() == 0 {
		return Plan{Anchor: -1}, nil
	}
	plan, err := Scan(ctx, t, threshold, ScanOptions{
		Animate:    opts.Animate,
		Cursor:     opts.Cursor,
		AnimateMax: opts.AnimateMax,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("scan statuses: %w", err)
	}
	if err := Apply(ctx, t, plan, ApplyOptions{AdjustScroll: opts.AdjustScroll}); err != nil {
		return plan, err
	}
	return plan, nil
}
