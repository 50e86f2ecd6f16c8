package insights

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/daviddao/piv/internal/api"
)

// Searcher is the subset of api.Client a Search needs.
type Searcher interface {
	Search(ctx context.Context, f api.SearchFilters) ([]api.PageSummary, error)
}

// SearchResultsMsg carries the result of one submitted search.
type SearchResultsMsg struct {
	Seq   uint64
	Items []api.PageSummary
	Err   error
}

// Search holds the latest filtered search and its state. Only the result
// of the most recently submitted query is applied.
type Search struct {
	searcher  Searcher
	seq       uint64
	submitted bool
	filters   api.SearchFilters
	state     ViewState[[]api.PageSummary]
}

// NewSearch returns a search with nothing submitted.
func NewSearch(s Searcher) *Search {
	return &Search{searcher: s}
}

// Submit starts a search for f and moves the state to Loading.
func (s *Search) Submit(ctx context.Context, f api.SearchFilters) tea.Cmd {
	s.seq++
	s.submitted = true
	s.filters = f
	s.state = ClassifyItems(Started[[]api.PageSummary]())

	seq, searcher := s.seq, s.searcher
	return func() tea.Msg {
		items, err := searcher.Search(ctx, f)
		return SearchResultsMsg{Seq: seq, Items: items, Err: err}
	}
}

// Update applies msg if it answers the latest submission.
func (s *Search) Update(msg tea.Msg) bool {
	res, ok := msg.(SearchResultsMsg)
	if !ok || res.Seq != s.seq || s.state.Status() != StatusLoading {
		return false
	}
	if res.Err != nil {
		s.state = ClassifyItems(Failed[[]api.PageSummary](res.Err))
	} else {
		s.state = ClassifyItems(Succeeded(res.Items))
	}
	return true
}

// Clear forgets the current search; a pending result will be dropped.
func (s *Search) Clear() {
	s.seq++
	s.submitted = false
	s.filters = api.SearchFilters{}
	s.state = ViewState[[]api.PageSummary]{}
}

// Submitted reports whether a search is showing.
func (s *Search) Submitted() bool { return s.submitted }

// Filters returns the filters of the latest submission.
func (s *Search) Filters() api.SearchFilters { return s.filters }

// State returns the state of the latest submission.
func (s *Search) State() ViewState[[]api.PageSummary] { return s.state }

// ParseQuery interprets the search box. A single bare word is a page id to
// open directly. Otherwise the text is a filter expression such as
//
//	name=acme corp industry=AI min=100 max=5000
//
// where words without "=" extend the previous value. Bare multi-word text
// is a name search.
func ParseQuery(text string) (pageID string, f api.SearchFilters, err error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", f, fmt.Errorf("empty query")
	}
	if !strings.Contains(text, "=") {
		if len(words) == 1 {
			return words[0], f, nil
		}
		f.Name = strings.Join(words, " ")
		return "", f, nil
	}

	values := map[string][]string{}
	var order []string
	var current string
	for _, w := range words {
		key, val, ok := strings.Cut(w, "=")
		if !ok {
			if current == "" {
				return "", f, fmt.Errorf("unexpected %q before any filter", w)
			}
			values[current] = append(values[current], w)
			continue
		}
		key = strings.ToLower(key)
		if _, dup := values[key]; dup {
			return "", f, fmt.Errorf("filter %q given twice", key)
		}
		current = key
		order = append(order, key)
		values[key] = nil
		if val != "" {
			values[key] = append(values[key], val)
		}
	}

	for _, key := range order {
		val := strings.Join(values[key], " ")
		switch key {
		case "name":
			f.Name = val
		case "industry":
			f.Industry = val
		case "min", "min_followers":
			n, err := parseCount(key, val)
			if err != nil {
				return "", f, err
			}
			f.MinFollowers = &n
		case "max", "max_followers":
			n, err := parseCount(key, val)
			if err != nil {
				return "", f, err
			}
			f.MaxFollowers = &n
		default:
			return "", f, fmt.Errorf("unknown filter %q (valid: name, industry, min, max)", key)
		}
	}
	if f.MinFollowers != nil && f.MaxFollowers != nil && *f.MinFollowers > *f.MaxFollowers {
		return "", f, fmt.Errorf("min (%d) is greater than max (%d)", *f.MinFollowers, *f.MaxFollowers)
	}
	return "", f, nil
}

func parseCount(key, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: %q is not a follower count", key, val)
	}
	return n, nil
}
