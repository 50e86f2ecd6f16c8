// Package api is the HTTP client for the page insights service.
//
// Every operation is a single request: no retries, no caching and no state
// beyond the client's configuration. Failures are returned as *Error so
// callers can tell a missing page apart from a transport or server problem.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries a per-request id so client and server logs can be
// correlated.
const RequestIDHeader = "X-Request-ID"

const apiPrefix = "/api/v1"

// Client talks to the /api/v1 resource surface.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Timeouts belong there.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l.With().Str("component", "api").Logger()
	}
}

// New returns a client for the service rooted at baseURL
// (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   http.DefaultClient,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// FetchPage returns the page identified by id, with its first page of posts
// and its employees embedded.
func (c *Client) FetchPage(ctx context.Context, id string) (*Page, error) {
	var page Page
	if err := c.getJSON(ctx, "fetch page", c.endpoint("pages", id), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchPosts returns up to limit posts of a page starting at skip. A page
// shorter than limit means the collection is exhausted.
func (c *Client) FetchPosts(ctx context.Context, pageID string, skip, limit int) ([]Post, error) {
	var posts []Post
	u := c.endpoint("pages", pageID, "posts")
	u.RawQuery = pageQuery(skip, limit).Encode()
	if err := c.getJSON(ctx, "fetch posts", u, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FetchComments returns up to limit comments of a post starting at skip.
func (c *Client) FetchComments(ctx context.Context, postID int64, skip, limit int) ([]Comment, error) {
	var comments []Comment
	u := c.endpoint("posts", strconv.FormatInt(postID, 10), "comments")
	u.RawQuery = pageQuery(skip, limit).Encode()
	if err := c.getJSON(ctx, "fetch comments", u, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Search returns the pages matching f. Unset filters are left out of the
// query string entirely.
func (c *Client) Search(ctx context.Context, f SearchFilters) ([]PageSummary, error) {
	var resp searchResponse
	u := c.endpoint("pages", "search")
	u.RawQuery = f.query().Encode()
	if err := c.getJSON(ctx, "search pages", u, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// SendMessage asks the analyst about the page identified by pageID and
// returns its reply. It keeps no conversation state; every failure is
// reported as KindChat.
func (c *Client) SendMessage(ctx context.Context, pageID, text string) (string, error) {
	const op = "send message"
	body, err := json.Marshal(chatRequest{PageID: pageID, Message: text})
	if err != nil {
		return "", &Error{Kind: KindChat, Op: op, Err: err}
	}
	var resp chatResponse
	if err := c.do(ctx, op, http.MethodPost, c.endpoint("chat"), bytes.NewReader(body), &resp); err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Kind = KindChat
			return "", e
		}
		return "", &Error{Kind: KindChat, Op: op, Err: err}
	}
	return resp.Response, nil
}

func (f SearchFilters) query() url.Values {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Industry != "" {
		q.Set("industry", f.Industry)
	}
	if f.MinFollowers != nil {
		q.Set("min_followers", strconv.Itoa(*f.MinFollowers))
	}
	if f.MaxFollowers != nil {
		q.Set("max_followers", strconv.Itoa(*f.MaxFollowers))
	}
	return q
}

func pageQuery(skip, limit int) url.Values {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// endpoint returns the URL of an /api/v1 resource. Each segment is taken
// literally: ids may contain spaces, slashes or non-ASCII text and still
// arrive at the server as one path segment.
func (c *Client) endpoint(segments ...string) url.URL {
	u := *c.base
	decoded := c.base.Path + apiPrefix
	escaped := c.base.EscapedPath() + apiPrefix
	for _, s := range segments {
		decoded += "/" + s
		escaped += "/" + url.PathEscape(s)
	}
	u.Path = decoded
	u.RawPath = escaped
	u.RawQuery = ""
	return u
}

func (c *Client) getJSON(ctx context.Context, op string, u url.URL, out any) error {
	return c.do(ctx, op, http.MethodGet, u, nil, out)
}

// do performs one request and decodes a 2xx JSON body into out. The
// returned error, when non-nil, is always an *Error.
func (c *Client) do(ctx context.Context, op, method string, u url.URL, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("request_id", reqID).Str("method", method).
			Str("path", u.Path).Dur("elapsed", time.Since(start)).Msg("request failed")
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().Str("request_id", reqID).Str("method", method).Str("path", u.Path).
		Str("query", u.RawQuery).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return statusError(op, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
