package timeline

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/glabrego/busybird-cli/internal/busybird"
	"github.com/glabrego/busybird-cli/internal/chunk"
	"github.com/glabrego/busybird-cli/internal/threshold"
)

const (
	DefaultAnimationDuration = 400 * time.Millisecond
	insertChunk              = 100
)

// Renderer turns a status into display lines for the given width.
type Renderer func(s busybird.Status, width int) []string

type RowKind int

const (
	RowStatus RowKind = iota
	RowPlaceholder
)

// Row is one terminal line of the list.
type Row struct {
	Kind RowKind
	// Index is the status index, or for placeholders the index of the status
	// that follows the hidden run (-1 at the end of the list).
	Index  int
	Line   int
	Text   string
	Count  int
	Cursor bool
}

type Placeholder struct {
	FollowedBy int
	Count      int
}

type Options struct {
	Renderer  Renderer
	Width     int
	Height    int
	Threshold int
	// AnimationDuration is spread over the animated items; zero toggles them
	// without pausing.
	AnimationDuration time.Duration
	AnimateMax        int
	Sleep             func(ctx context.Context, d time.Duration) error
}

type item struct {
	status  busybird.Status
	visible bool
	lines   []string
}

// Container is the ordered status list with its terminal geometry. Engine
// operations (insertions and threshold changes) run one at a time; reads for
// rendering may happen concurrently with them.
type Container struct {
	opMu sync.Mutex

	mu           sync.Mutex
	items        []*item
	ids          map[string]*item
	placeholders map[*item]int
	trailing     int
	threshold    int
	cursor       *item
	scrollTop    int
	width        int
	height       int

	renderer          Renderer
	animationDuration time.Duration
	animateMax        int
	sleep             func(ctx context.Context, d time.Duration) error

	dirty     bool
	tops      []int
	index     map[*item]int
	totalRows int
}

func NewContainer(opts Options) *Container {
	if opts.Renderer == nil {
		opts.Renderer = plainRenderer
	}
	if opts.AnimationDuration < 0 {
		opts.AnimationDuration = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Container{
		ids:               make(map[string]*item),
		placeholders:      make(map[*item]int),
		threshold:         opts.Threshold,
		width:             opts.Width,
		height:            opts.Height,
		renderer:          opts.Renderer,
		animationDuration: opts.AnimationDuration,
		animateMax:        opts.AnimateMax,
		sleep:             opts.Sleep,
		dirty:             true,
	}
}

func plainRenderer(s busybird.Status, _ int) []string {
	return []string{s.Text}
}

func (c *Container) Prepend(ctx context.Context, statuses []busybird.Status) error {
	return c.add(ctx, statuses, true)
}

func (c *Container) Append(ctx context.Context, statuses []busybird.Status) error {
	return c.add(ctx, statuses, false)
}

func (c *Container) add(ctx context.Context, statuses []busybird.Status, prepend bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	fresh := c.unseen(statuses)
	if len(fresh) == 0 {
		return nil
	}

	c.mu.Lock()
	insertAt := len(c.items)
	if prepend {
		insertAt = 0
	}
	width := c.width
	c.mu.Unlock()

	err := chunk.Each(ctx, fresh, insertChunk, func(_ context.Context, block []busybird.Status, _ int) error {
		added := make([]*item, 0, len(block))
		for _, s := range block {
			added = append(added, &item{status: s, lines: c.render(s, width)})
		}
		c.mu.Lock()
		c.items = slices.Insert(c.items, insertAt, added...)
		for _, it := range added {
			c.ids[it.status.ID] = it
		}
		c.dirty = true
		c.mu.Unlock()
		insertAt += len(added)
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert statuses: %w", err)
	}
	return c.applyThreshold(ctx, false, prepend)
}

// unseen drops statuses already in the list or repeated within the batch.
func (c *Container) unseen(statuses []busybird.Status) []busybird.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool, len(statuses))
	fresh := make([]busybird.Status, 0, len(statuses))
	for _, s := range statuses {
		if _, ok := c.ids[s.ID]; ok || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		fresh = append(fresh, s)
	}
	return fresh
}

// SetThreshold changes the threshold level and animates the items near the
// window into their new visibility while keeping the view anchored.
func (c *Container) SetThreshold(ctx context.Context, level int) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.threshold = level
	c.mu.Unlock()
	return c.applyThreshold(ctx, true, true)
}

func (c *Container) applyThreshold(ctx context.Context, animate, adjust bool) error {
	level := c.Threshold()
	_, err := threshold.ApplyThreshold(ctx, c, level, threshold.Options{
		Animate:      animate,
		AdjustScroll: adjust,
		Cursor:       c.Cursor(),
		AnimateMax:   c.animateMax,
	})
	c.mu.Lock()
	c.settleCursorLocked()
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("apply threshold %d: %w", level, err)
	}
	return nil
}

func (c *Container) Threshold() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold
}

func (c *Container) render(s busybird.Status, width int) []string {
	lines := c.renderer(s, width)
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// SetSize re-renders every status when the width changes.
func (c *Container) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = height
	if width == c.width {
		return
	}
	c.width = width
	for _, it := range c.items {
		it.lines = c.render(it.status, width)
	}
	c.dirty = true
}

func (c *Container) Statuses() []busybird.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]busybird.Status, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it.status)
	}
	return out
}

// LastID is the id of the bottom status, or "" when the list is empty.
func (c *Container) LastID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return ""
	}
	return c.items[len(c.items)-1].status.ID
}

func (c *Container) VisibleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		if it.visible {
			n++
		}
	}
	return n
}

func (c *Container) Placeholders() []Placeholder {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Placeholder
	for i, it := range c.items {
		if n, ok := c.placeholders[it]; ok {
			out = append(out, Placeholder{FollowedBy: i, Count: n})
		}
	}
	if c.trailing > 0 {
		out = append(out, Placeholder{FollowedBy: -1, Count: c.trailing})
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
