package insights

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/piv/internal/api"
	"github.com/daviddao/piv/internal/api/apitest"
)

func intPtr(n int) *int { return &n }

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in      string
		pageID  string
		filters api.SearchFilters
		err     bool
	}{
		{in: "deepsolv", pageID: "deepsolv"},
		{in: "  google  ", pageID: "google"},
		{in: "acme corp", filters: api.SearchFilters{Name: "acme corp"}},
		{in: "industry=AI", filters: api.SearchFilters{Industry: "AI"}},
		{in: "name=acme corp industry=AI", filters: api.SearchFilters{Name: "acme corp", Industry: "AI"}},
		{in: "min=100 max=5000", filters: api.SearchFilters{MinFollowers: intPtr(100), MaxFollowers: intPtr(5000)}},
		{in: "min_followers=0", filters: api.SearchFilters{MinFollowers: intPtr(0)}},
		{in: "Industry=AI", filters: api.SearchFilters{Industry: "AI"}},
		{in: "", err: true},
		{in: "color=red", err: true},
		{in: "min=lots", err: true},
		{in: "min=-1", err: true},
		{in: "min=10 max=5", err: true},
		{in: "stray industry=AI", err: true},
		{in: "industry=AI industry=ML", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			pageID, f, err := ParseQuery(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pageID, pageID)
			assert.Equal(t, tt.filters, f)
		})
	}
}

func searchServer(t *testing.T) (*apitest.Server, *api.Client) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.SetSearchIndex([]api.PageSummary{
		{LinkedInID: "acme", Name: "Acme", Industry: "AI", FollowerCount: 500},
	})
	c, err := api.New(srv.URL)
	require.NoError(t, err)
	return srv, c
}

func TestSearchPopulatedEmptyAndError(t *testing.T) {
	srv, c := searchServer(t)
	s := NewSearch(c)
	ctx := context.Background()

	cmd := s.Submit(ctx, api.SearchFilters{Industry: "AI"})
	assert.Equal(t, StatusLoading, s.State().Status())
	require.True(t, s.Update(cmd()))
	assert.Equal(t, StatusPopulated, s.State().Status())
	assert.Equal(t, "industry=AI", srv.Requests()[0].RawQuery)

	cmd = s.Submit(ctx, api.SearchFilters{Industry: "Mining"})
	require.True(t, s.Update(cmd()))
	assert.Equal(t, StatusEmpty, s.State().Status())

	srv.Fail("/api/v1/pages/search", http.StatusInternalServerError)
	cmd = s.Submit(ctx, api.SearchFilters{Industry: "AI"})
	require.True(t, s.Update(cmd()))
	assert.Equal(t, StatusError, s.State().Status())
	assert.Equal(t, MsgRetry, s.State().Message())
}

func TestSearchDropsSupersededResults(t *testing.T) {
	_, c := searchServer(t)
	s := NewSearch(c)
	ctx := context.Background()

	first := s.Submit(ctx, api.SearchFilters{Industry: "AI"})
	second := s.Submit(ctx, api.SearchFilters{Industry: "Mining"})

	assert.False(t, s.Update(first()), "older submission is stale")
	assert.Equal(t, StatusLoading, s.State().Status())
	assert.True(t, s.Update(second()))
	assert.Equal(t, StatusEmpty, s.State().Status())
	assert.Equal(t, "Mining", s.Filters().Industry)
}

func TestSearchClear(t *testing.T) {
	_, c := searchServer(t)
	s := NewSearch(c)
	cmd := s.Submit(context.Background(), api.SearchFilters{Name: "acme"})
	s.Clear()
	assert.False(t, s.Submitted())
	assert.False(t, s.Update(cmd()))
}
