package state

// ChromeLines is the number of terminal lines taken by the header, counts
// line, message panel and footer around the timeline.
const ChromeLines = 5

// ListHeight is the number of rows left for the timeline in a terminal of
// the given height.
func ListHeight(height int, showHelp bool) int {
	if height <= 0 {
		return 20
	}
	chrome := ChromeLines
	if showHelp {
		chrome += helpLines
	}
	return max(3, height-chrome)
}

// PageStep is the half-page scroll distance for ctrl+d and ctrl+u.
func PageStep(listHeight int) int {
	if listHeight <= 0 {
		return 10
	}
	return max(1, listHeight/2)
}

// ClampLevel bounds a threshold level to the range the keys may reach.
func ClampLevel(level, lowest, highest int) int {
	if lowest > highest {
		lowest, highest = highest, lowest
	}
	return min(max(level, lowest), highest)
}

const helpLines = 6
