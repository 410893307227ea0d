package timeline

import "github.com/glabrego/busybird-cli/internal/busybird"

// Cursor is the index of the focused status, or -1.
func (c *Container) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursorIndexLocked()
}

func (c *Container) cursorIndexLocked() int {
	if c.cursor == nil {
		return -1
	}
	c.layoutLocked()
	if i, ok := c.index[c.cursor]; ok {
		return i
	}
	return -1
}

func (c *Container) CursorStatus() (busybird.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor == nil {
		return busybird.Status{}, false
	}
	return c.cursor.status, true
}

// MoveCursor moves the cursor by delta visible statuses and scrolls it into view.
func (c *Container) MoveCursor(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.cursorIndexLocked()
	if i < 0 {
		c.settleCursorLocked()
		return
	}
	step := 1
	if delta < 0 {
		step = -1
		delta = -delta
	}
	for ; delta > 0; delta-- {
		next := i + step
		for next >= 0 && next < len(c.items) && !c.items[next].visible {
			next += step
		}
		if next < 0 || next >= len(c.items) {
			break
		}
		i = next
	}
	c.cursor = c.items[i]
	c.revealCursorLocked()
}

// settleCursorLocked moves a missing or hidden cursor to the nearest visible
// status, preferring the one below.
func (c *Container) settleCursorLocked() {
	start := c.cursorIndexLocked()
	if start >= 0 && c.items[start].visible {
		return
	}
	if start < 0 {
		start = 0
	}
	c.cursor = nil
	for d := 0; d < len(c.items); d++ {
		if below := start + d; below < len(c.items) && c.items[below].visible {
			c.cursor = c.items[below]
			return
		}
		if above := start - d; above >= 0 && c.items[above].visible {
			c.cursor = c.items[above]
			return
		}
	}
}

func (c *Container) revealCursorLocked() {
	i := c.cursorIndexLocked()
	if i < 0 || c.height <= 0 {
		return
	}
	top := c.tops[i]
	bottom := top + len(c.items[i].lines)
	switch {
	case top < c.scrollTop, bottom-top >= c.height:
		c.scrollTop = top
	case bottom > c.scrollTop+c.height:
		c.scrollTop = bottom - c.height
	}
}
