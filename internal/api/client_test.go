package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/piv/internal/api"
	"github.com/daviddao/piv/internal/api/apitest"
)

func newClient(t *testing.T, srv *apitest.Server) *api.Client {
	t.Helper()
	c, err := api.New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	tests := []string{"ftp://example.com", "localhost:8000", "://nope"}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := api.New(raw)
			assert.Error(t, err)
		})
	}
}

func TestFetchPage(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	posts := apitest.Posts(1, 1, 3)
	srv.AddPage(apitest.Page("acme", "Acme", posts, 3, nil), posts)

	page, err := newClient(t, srv).FetchPage(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", page.Name)
	assert.Equal(t, 500, page.FollowerCount)
	assert.Len(t, page.Posts, 3)
	assert.Empty(t, page.Employees)
	// Optional fields absent from the payload default to zero values.
	assert.Empty(t, page.Website)
	assert.Nil(t, page.LastScrapedAt)
}

func TestFetchPageNotFound(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	_, err := newClient(t, srv).FetchPage(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "fetch page", apiErr.Op)
}

func TestServerErrorKeepsStatus(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Fail("/api/v1/pages/acme", http.StatusBadGateway)

	_, err := newClient(t, srv).FetchPage(context.Background(), "acme")
	require.Error(t, err)
	assert.Equal(t, api.KindServer, api.KindOf(err))
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := api.New(url, api.WithHTTPClient(&http.Client{Timeout: time.Second}))
	require.NoError(t, err)
	_, err = c.FetchPosts(context.Background(), "acme", 0, 20)
	require.Error(t, err)
	assert.Equal(t, api.KindNetwork, api.KindOf(err))
}

func TestFetchPostsSendsSkipAndLimit(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	posts := apitest.Posts(1, 1, 27)
	srv.AddPage(apitest.Page("acme", "Acme", posts, 20, nil), posts)

	got, err := newClient(t, srv).FetchPosts(context.Background(), "acme", 20, 20)
	require.NoError(t, err)
	require.Len(t, got, 7)
	assert.Equal(t, int64(21), got[0].ID)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/v1/pages/acme/posts", reqs[0].Path)
	assert.Equal(t, "limit=20&skip=20", reqs[0].RawQuery)
}

func TestPageIDsAreSentVerbatim(t *testing.T) {
	for _, id := range []string{"acme corp", "café", "a/b", "100%"} {
		t.Run(id, func(t *testing.T) {
			srv := apitest.New()
			defer srv.Close()
			posts := apitest.Posts(1, 1, 2)
			srv.AddPage(apitest.Page(id, "Acme", posts, 1, nil), posts)
			c := newClient(t, srv)

			page, err := c.FetchPage(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, id, page.LinkedInID)

			got, err := c.FetchPosts(context.Background(), id, 0, 20)
			require.NoError(t, err)
			assert.Len(t, got, 2)

			reply, err := c.SendMessage(context.Background(), id, "hi")
			require.NoError(t, err)
			assert.Equal(t, "echo: hi", reply)

			reqs := srv.Requests()
			require.Len(t, reqs, 3)
			assert.Equal(t, "/api/v1/pages/"+id, reqs[0].Path)
			assert.Equal(t, "/api/v1/pages/"+id+"/posts", reqs[1].Path)
		})
	}
}

func TestFetchComments(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.SetComments(7, apitest.Comments(7, 3))

	got, err := newClient(t, srv).FetchComments(context.Background(), 7, 0, 20)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, srv.Count("/api/v1/posts/7/comments"))
}

func TestSearchOmitsAbsentFilters(t *testing.T) {
	minF := 0
	maxF := 1000
	tests := []struct {
		name    string
		filters api.SearchFilters
		query   string
	}{
		{"industry only", api.SearchFilters{Industry: "AI"}, "industry=AI"},
		{"none", api.SearchFilters{}, ""},
		{"zero min is sent", api.SearchFilters{MinFollowers: &minF}, "min_followers=0"},
		{"all", api.SearchFilters{Name: "acme", Industry: "AI", MinFollowers: &minF, MaxFollowers: &maxF},
			"industry=AI&max_followers=1000&min_followers=0&name=acme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.New()
			defer srv.Close()

			_, err := newClient(t, srv).Search(context.Background(), tt.filters)
			require.NoError(t, err)
			reqs := srv.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "/api/v1/pages/search", reqs[0].Path)
			assert.Equal(t, tt.query, reqs[0].RawQuery)
		})
	}
}

func TestSearchResults(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.SetSearchIndex([]api.PageSummary{
		{LinkedInID: "acme", Name: "Acme", Industry: "AI", FollowerCount: 500},
		{LinkedInID: "globex", Name: "Globex", Industry: "Energy", FollowerCount: 90},
	})

	got, err := newClient(t, srv).Search(context.Background(), api.SearchFilters{Industry: "AI"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "acme", got[0].LinkedInID)

	got, err = newClient(t, srv).Search(context.Background(), api.SearchFilters{Industry: "Mining"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSendMessage(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	posts := apitest.Posts(1, 1, 1)
	srv.AddPage(apitest.Page("acme", "Acme", posts, 1, nil), posts)

	reply, err := newClient(t, srv).SendMessage(context.Background(), "acme", "who are you?")
	require.NoError(t, err)
	assert.Equal(t, "echo: who are you?", reply)
}

func TestSendMessageFailuresAreChatErrors(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	// Unknown page: the chat endpoint answers 404, still a chat error.
	_, err := newClient(t, srv).SendMessage(context.Background(), "ghost", "hi")
	require.Error(t, err)
	assert.Equal(t, api.KindChat, api.KindOf(err))

	srv.Fail("/api/v1/chat", http.StatusInternalServerError)
	_, err = newClient(t, srv).SendMessage(context.Background(), "ghost", "hi")
	require.Error(t, err)
	assert.Equal(t, api.KindChat, api.KindOf(err))
}

func TestRequestIDHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(api.RequestIDHeader)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c, err := api.New(srv.URL)
	require.NoError(t, err)
	_, err = c.Search(context.Background(), api.SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, got, 36)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, api.KindUnknown, api.KindOf(errors.New("boom")))
	assert.Equal(t, api.KindUnknown, api.KindOf(nil))
}
