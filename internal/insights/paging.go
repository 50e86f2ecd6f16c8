package insights

// PageSize is the number of posts requested per "load more".
const PageSize = 20

// PageState is the state of a Cursor.
type PageState int

const (
	PageIdle PageState = iota
	PageLoading
	PageExhausted
)

func (s PageState) String() string {
	switch s {
	case PageIdle:
		return "idle"
	case PageLoading:
		return "loading"
	case PageExhausted:
		return "exhausted"
	}
	return "?"
}

// PageRequest is the window a Cursor asks for.
type PageRequest struct {
	Offset int
	Limit  int
}

// Cursor pages through one collection. Items keep arrival order and at most
// one page request is in flight, so pages land in the order they were
// requested. Once exhausted it stays exhausted.
type Cursor[T any] struct {
	items      []T
	pageSize   int
	nextOffset int
	exhausted  bool
	inFlight   *PageRequest
	err        error
}

// NewCursor returns an idle cursor at offset zero. A non-positive pageSize
// falls back to PageSize.
func NewCursor[T any](pageSize int) *Cursor[T] {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	return &Cursor[T]{pageSize: pageSize}
}

// Seed applies page 0 when it arrived embedded in the primary fetch. It is
// a no-op once any page has been applied or requested.
func (c *Cursor[T]) Seed(items []T) {
	if c.nextOffset != 0 || c.inFlight != nil || len(c.items) > 0 || c.exhausted {
		return
	}
	c.apply(items)
}

// Begin starts the next page request. It returns false, and changes
// nothing, when a request is already in flight or the collection is
// exhausted.
func (c *Cursor[T]) Begin() (PageRequest, bool) {
	if c.exhausted || c.inFlight != nil {
		return PageRequest{}, false
	}
	req := PageRequest{Offset: c.nextOffset, Limit: c.pageSize}
	c.inFlight = &req
	c.err = nil
	return req, true
}

// Complete applies the result of req. Results for anything but the
// in-flight request are ignored and Complete reports false.
func (c *Cursor[T]) Complete(req PageRequest, items []T) bool {
	if c.inFlight == nil || *c.inFlight != req {
		return false
	}
	c.inFlight = nil
	c.apply(items)
	return true
}

// Fail returns the cursor to idle after req failed. The failure is kept for
// display; exhaustion is untouched so the user can retry.
func (c *Cursor[T]) Fail(req PageRequest, err error) bool {
	if c.inFlight == nil || *c.inFlight != req {
		return false
	}
	c.inFlight = nil
	c.err = err
	return true
}

// State reports Idle, Loading or Exhausted.
func (c *Cursor[T]) State() PageState {
	switch {
	case c.exhausted:
		return PageExhausted
	case c.inFlight != nil:
		return PageLoading
	}
	return PageIdle
}

// Items returns the collected items in arrival order.
func (c *Cursor[T]) Items() []T { return c.items }

// Len returns the number of collected items.
func (c *Cursor[T]) Len() int { return len(c.items) }

// NextOffset returns the offset of the next page request.
func (c *Cursor[T]) NextOffset() int { return c.nextOffset }

// Exhausted reports whether a short page has been seen.
func (c *Cursor[T]) Exhausted() bool { return c.exhausted }

// Err returns the failure of the last page request, if it failed.
func (c *Cursor[T]) Err() error { return c.err }

// CanLoadMore reports whether a "load more" affordance should be offered.
func (c *Cursor[T]) CanLoadMore() bool {
	return !c.exhausted && c.inFlight == nil
}

func (c *Cursor[T]) apply(items []T) {
	c.items = append(c.items, items...)
	if len(items) < c.pageSize {
		c.exhausted = true
		return
	}
	// A seeded page 0 may carry more than one page worth of items.
	c.nextOffset += max(len(items), c.pageSize)
}
