package timeline

import (
	"context"
	"time"
)

// layoutLocked recomputes row positions after a change. Each placeholder
// takes one row in front of the status it precedes; the trailing one sits
// after the last status.
func (c *Container) layoutLocked() {
	if !c.dirty {
		return
	}
	c.tops = c.tops[:0]
	c.index = make(map[*item]int, len(c.items))
	row := 0
	for i, it := range c.items {
		if _, ok := c.placeholders[it]; ok {
			row++
		}
		c.tops = append(c.tops, row)
		c.index[it] = i
		if it.visible {
			row += len(it.lines)
		}
	}
	if c.trailing > 0 {
		row++
	}
	c.totalRows = row
	c.dirty = false
}

func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Container) Level(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[i].status.Level()
}

func (c *Container) Visible(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[i].visible
}

func (c *Container) Bounds(i int) (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layoutLocked()
	it := c.items[i]
	if !it.visible {
		return c.tops[i], 0
	}
	return c.tops[i], len(it.lines)
}

func (c *Container) Window() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrollTop, c.height
}

func (c *Container) RemovePlaceholders() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.placeholders)
	c.trailing = 0
	c.dirty = true
}

func (c *Container) InsertPlaceholder(followedBy, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if followedBy < 0 || followedBy >= len(c.items) {
		c.trailing = count
	} else {
		c.placeholders[c.items[followedBy]] = count
	}
	c.dirty = true
}

func (c *Container) Toggle(indexes []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, i := range indexes {
		c.items[i].visible = !c.items[i].visible
	}
	c.dirty = true
}

// Animate reveals or hides the items one by one over the animation duration.
func (c *Container) Animate(ctx context.Context, indexes []int, step func()) error {
	if len(indexes) == 0 {
		return nil
	}
	pause := c.animationDuration / time.Duration(len(indexes))
	for _, i := range indexes {
		c.Toggle([]int{i})
		step()
		if err := c.sleep(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) Offset(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layoutLocked()
	return c.tops[i] - c.scrollTop
}

func (c *Container) Pin(i, offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layoutLocked()
	c.scrollTop = max(0, c.tops[i]-offset)
}

func (c *Container) TotalRows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layoutLocked()
	return c.totalRows
}

func (c *Container) ScrollTop() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrollTop
}

// ScrollBy moves the window by delta rows within the list bounds.
func (c *Container) ScrollBy(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layoutLocked()
	c.scrollTop = clampScroll(c.scrollTop+delta, c.totalRows, c.height)
}

func clampScroll(top, total, height int) int {
	maxTop := max(0, total-height)
	return min(max(0, top), maxTop)
}

// Rows returns every line of the list from top to bottom.
func (c *Container) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rowsLocked()
}

// View returns the lines inside the window.
func (c *Container) View() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := c.rowsLocked()
	start := min(max(0, c.scrollTop), len(rows))
	end := len(rows)
	if c.height > 0 {
		end = min(start+c.height, len(rows))
	}
	return rows[start:end]
}

func (c *Container) rowsLocked() []Row {
	c.layoutLocked()
	rows := make([]Row, 0, c.totalRows)
	for i, it := range c.items {
		if n, ok := c.placeholders[it]; ok {
			rows = append(rows, Row{Kind: RowPlaceholder, Index: i, Count: n})
		}
		if !it.visible {
			continue
		}
		for line, text := range it.lines {
			rows = append(rows, Row{Kind: RowStatus, Index: i, Line: line, Text: text, Cursor: it == c.cursor})
		}
	}
	if c.trailing > 0 {
		rows = append(rows, Row{Kind: RowPlaceholder, Index: -1, Count: c.trailing})
	}
	return rows
}
