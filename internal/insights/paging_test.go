package insights

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestCursorFullThenShortPage(t *testing.T) {
	c := NewCursor[int](20)

	req, ok := c.Begin()
	require.True(t, ok)
	assert.Equal(t, PageRequest{Offset: 0, Limit: 20}, req)
	assert.Equal(t, PageLoading, c.State())
	require.True(t, c.Complete(req, ints(0, 20)))
	assert.False(t, c.Exhausted())
	assert.Equal(t, 20, c.NextOffset())
	assert.Equal(t, PageIdle, c.State())

	req, ok = c.Begin()
	require.True(t, ok)
	assert.Equal(t, 20, req.Offset)
	require.True(t, c.Complete(req, ints(20, 7)))
	assert.Equal(t, 27, c.Len())
	assert.True(t, c.Exhausted())
	assert.Equal(t, PageExhausted, c.State())

	_, ok = c.Begin()
	assert.False(t, ok, "no request after exhaustion")
	assert.False(t, c.CanLoadMore())
	assert.Equal(t, ints(0, 27), c.Items())
}

func TestCursorOrderMatchesRequestOrder(t *testing.T) {
	c := NewCursor[int](5)
	for page := 0; page < 4; page++ {
		req, ok := c.Begin()
		require.True(t, ok)
		require.True(t, c.Complete(req, ints(req.Offset, 5)))
	}
	assert.Equal(t, ints(0, 20), c.Items())
	assert.False(t, c.Exhausted())
}

func TestCursorIgnoresReentrantBegin(t *testing.T) {
	c := NewCursor[int](20)
	first, ok := c.Begin()
	require.True(t, ok)

	_, ok = c.Begin()
	assert.False(t, ok, "second begin while loading must not issue a request")
	assert.False(t, c.CanLoadMore())

	require.True(t, c.Complete(first, ints(0, 20)))
	_, ok = c.Begin()
	assert.True(t, ok)
}

func TestCursorFailureReturnsToIdle(t *testing.T) {
	c := NewCursor[int](20)
	c.Seed(ints(0, 20))

	req, ok := c.Begin()
	require.True(t, ok)
	boom := errors.New("boom")
	require.True(t, c.Fail(req, boom))
	assert.Equal(t, PageIdle, c.State())
	assert.False(t, c.Exhausted())
	assert.Equal(t, boom, c.Err())
	assert.Equal(t, 20, c.NextOffset())

	retry, ok := c.Begin()
	require.True(t, ok)
	assert.Equal(t, req, retry, "retry asks for the same window")
	assert.NoError(t, c.Err())
}

func TestCursorIgnoresStaleCompletion(t *testing.T) {
	c := NewCursor[int](20)
	req, _ := c.Begin()
	require.True(t, c.Complete(req, ints(0, 20)))

	// Replaying the same page must not append it twice.
	assert.False(t, c.Complete(req, ints(0, 20)))
	assert.False(t, c.Fail(req, errors.New("late")))
	assert.Equal(t, 20, c.Len())
}

func TestCursorSeed(t *testing.T) {
	t.Run("full page", func(t *testing.T) {
		c := NewCursor[int](20)
		c.Seed(ints(0, 20))
		assert.Equal(t, 20, c.NextOffset())
		assert.True(t, c.CanLoadMore())
	})
	t.Run("short page", func(t *testing.T) {
		c := NewCursor[int](20)
		c.Seed(ints(0, 3))
		assert.True(t, c.Exhausted())
		assert.False(t, c.CanLoadMore())
	})
	t.Run("empty page never offers load more", func(t *testing.T) {
		c := NewCursor[int](20)
		c.Seed(nil)
		assert.True(t, c.Exhausted())
		assert.False(t, c.CanLoadMore())
		_, ok := c.Begin()
		assert.False(t, ok)
	})
	t.Run("oversized inline page", func(t *testing.T) {
		c := NewCursor[int](20)
		c.Seed(ints(0, 35))
		assert.Equal(t, 35, c.NextOffset())
	})
	t.Run("seed only once", func(t *testing.T) {
		c := NewCursor[int](20)
		c.Seed(ints(0, 20))
		c.Seed(ints(100, 20))
		assert.Equal(t, ints(0, 20), c.Items())
	})
}

func TestCursorExhaustedIsMonotonic(t *testing.T) {
	c := NewCursor[int](2)
	req, _ := c.Begin()
	c.Complete(req, []int{1})
	require.True(t, c.Exhausted())

	c.Seed([]int{5, 6})
	_, ok := c.Begin()
	assert.False(t, ok)
	assert.True(t, c.Exhausted())
}

func TestNewCursorDefaultsPageSize(t *testing.T) {
	c := NewCursor[int](0)
	req, ok := c.Begin()
	require.True(t, ok)
	assert.Equal(t, PageSize, req.Limit)
}
