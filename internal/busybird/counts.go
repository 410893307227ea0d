package busybird

import (
	"sort"
	"strconv"
)

const TotalKey = "total"

// Counts holds unacked status counts of one timeline keyed by level, plus "total".
type Counts map[string]int

func (c Counts) Total() int {
	return c[TotalKey]
}

func (c Counts) Level(level int) int {
	return c[strconv.Itoa(level)]
}

// Get returns the count for a poll level, either "total" or a level number.
func (c Counts) Get(key string) int {
	return c[key]
}

// Levels returns the levels present in c, highest first.
func (c Counts) Levels() []int {
	levels := make([]int, 0, len(c))
	for key := range c {
		if key == TotalKey {
			continue
		}
		level, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		levels = append(levels, level)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	return levels
}

// ValidLevel reports whether key can be used as a poll level.
func ValidLevel(key string) bool {
	if key == TotalKey {
		return true
	}
	_, err := strconv.Atoi(key)
	return err == nil
}
