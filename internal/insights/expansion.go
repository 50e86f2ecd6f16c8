package insights

// ExpansionStatus is the fetch state of one expansion entry.
type ExpansionStatus int

const (
	NotFetched ExpansionStatus = iota
	Fetching
	Ready
	Failed
)

func (s ExpansionStatus) String() string {
	switch s {
	case NotFetched:
		return "not fetched"
	case Fetching:
		return "fetching"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "?"
}

// Expansion is a snapshot of one parent's nested collection.
type Expansion[T any] struct {
	Status ExpansionStatus
	Items  []T
	Err    error
	// Visible is the panel toggle, independent of Status. Collapsing keeps
	// the cached result.
	Visible bool
}

// ExpansionCache lazily holds nested collections keyed by parent id. Each
// key is fetched at most once; Ready and Failed entries are reused.
//
// Not safe for concurrent use; confine it to the update loop.
type ExpansionCache[K comparable, T any] struct {
	entries map[K]*Expansion[T]
}

// NewExpansionCache returns an empty cache.
func NewExpansionCache[K comparable, T any]() *ExpansionCache[K, T] {
	return &ExpansionCache[K, T]{entries: make(map[K]*Expansion[T])}
}

// Toggle flips the panel for key. It returns true only when key moved from
// NotFetched to Fetching, in which case the caller must issue the fetch.
// Toggling while a fetch is in flight does nothing.
func (c *ExpansionCache[K, T]) Toggle(key K) (fetch bool) {
	e, ok := c.entries[key]
	if !ok {
		c.entries[key] = &Expansion[T]{Status: Fetching, Visible: true}
		return true
	}
	switch e.Status {
	case NotFetched:
		e.Status = Fetching
		e.Visible = true
		return true
	case Fetching:
		return false
	}
	e.Visible = !e.Visible
	return false
}

// Resolve stores the outcome of the fetch for key. Only a Fetching entry
// accepts a result; anything else reports false.
func (c *ExpansionCache[K, T]) Resolve(key K, items []T, err error) bool {
	e, ok := c.entries[key]
	if !ok || e.Status != Fetching {
		return false
	}
	if err != nil {
		e.Status = Failed
		e.Err = err
		return true
	}
	e.Status = Ready
	e.Items = items
	return true
}

// Get returns a copy of the entry for key; missing keys are NotFetched.
func (c *ExpansionCache[K, T]) Get(key K) Expansion[T] {
	if e, ok := c.entries[key]; ok {
		return *e
	}
	return Expansion[T]{}
}

// InFlight returns how many entries are currently Fetching.
func (c *ExpansionCache[K, T]) InFlight() int {
	n := 0
	for _, e := range c.entries {
		if e.Status == Fetching {
			n++
		}
	}
	return n
}

// Reset drops every entry.
func (c *ExpansionCache[K, T]) Reset() {
	clear(c.entries)
}
