package chunk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEachVisitsChunksInOrder(t *testing.T) {
	items := make([]int, 7)
	for i := range items {
		items[i] = i
	}

	var starts []int
	var seen []int
	err := Each(context.Background(), items, 3, func(_ context.Context, chunk []int, start int) error {
		starts = append(starts, start)
		seen = append(seen, chunk...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, starts)
	assert.Equal(t, items, seen)
}

func TestEachEmptyInputCallsNothing(t *testing.T) {
	called := false
	err := Each(context.Background(), []string(nil), 10, func(context.Context, []string, int) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestEachStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Each(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, chunk []int, _ int) error {
		calls++
		if chunk[0] == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestEachRejectsInvalidSize(t *testing.T) {
	err := Each(context.Background(), []int{1}, 0, func(context.Context, []int, int) error { return nil })
	assert.Error(t, err)
}

func TestEachHonoursCancellationBetweenChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	err := Each(ctx, []int{1, 2, 3, 4}, 1, func(context.Context, []int, int) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(0, 10))
	assert.Equal(t, 1, Count(10, 10))
	assert.Equal(t, 2, Count(11, 10))
	assert.Equal(t, 0, Count(5, 0))
}
