package threshold

import (
	"context"
	"fmt"

	"github.com/glabrego/busybird-cli/internal/chunk"
)

// Surface is the mutable side of an item list.
type Surface interface {
	RemovePlaceholders()
	// InsertPlaceholder puts a "count hidden" marker before item followedBy,
	// or after the last item when followedBy is -1.
	InsertPlaceholder(followedBy, count int)
	Toggle(indexes []int)
	// Animate toggles indexes progressively, calling step after each change.
	Animate(ctx context.Context, indexes []int, step func()) error
	// Offset is the row of item i relative to the top of the window.
	Offset(i int) int
	// Pin scrolls so that item i sits at offset rows from the window top.
	Pin(i, offset int)
}

type ApplyOptions struct {
	AdjustScroll     bool
	PlaceholderChunk int
	ToggleChunk      int
}

func (o ApplyOptions) withDefaults() ApplyOptions {
	if o.PlaceholderChunk <= 0 {
		o.PlaceholderChunk = DefaultPlaceholderChunk
	}
	if o.ToggleChunk <= 0 {
		o.ToggleChunk = DefaultToggleChunk
	}
	return o
}

func Apply(ctx context.Context, s Surface, plan Plan, opts ApplyOptions) error {
	opts = opts.withDefaults()
	adjust := func() {}
	if opts.AdjustScroll && plan.Anchor >= 0 {
		anchor := plan.Anchor
		offset := s.Offset(anchor)
		adjust = func() { s.Pin(anchor, offset) }
	}

	s.RemovePlaceholders()
	adjust()
	err := chunk.Each(ctx, plan.HiddenRuns, opts.PlaceholderChunk, func(_ context.Context, runs []HiddenRun, _ int) error {
		for _, run := range runs {
			s.InsertPlaceholder(run.FollowedBy, run.Len())
		}
		adjust()
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert hidden placeholders: %w", err)
	}

	if len(plan.Animated) > 0 {
		if err := s.Animate(ctx, plan.Animated, adjust); err != nil {
			return fmt.Errorf("animate statuses: %w", err)
		}
	}

	err = chunk.Each(ctx, plan.Immediate, opts.ToggleChunk, func(_ context.Context, block []int, _ int) error {
		s.Toggle(block)
		adjust()
		return nil
	})
	if err != nil {
		return fmt.Errorf("toggle statuses: %w", err)
	}
	return nil
}
