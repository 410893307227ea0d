package chunk

import (
	"context"
	"fmt"
	"runtime"
)

// Each calls fn for consecutive slices of items of at most size elements,
// in order. Between slices it yields the processor and checks ctx, so long
// lists do not starve other goroutines. It stops at the first error.
func Each[T any](ctx context.Context, items []T, size int, fn func(ctx context.Context, chunk []T, start int) error) error {
	if size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", size)
	}
	for start := 0; start < len(items); start += size {
		if start > 0 {
			runtime.Gosched()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, len(items))
		if err := fn(ctx, items[start:end], start); err != nil {
			return err
		}
	}
	return nil
}

// Count returns how many chunks Each would produce.
func Count(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
