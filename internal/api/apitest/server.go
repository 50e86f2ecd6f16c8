// Package apitest provides an in-memory page insights service for tests.
//
// The server implements the same /api/v1 routes the api.Client consumes,
// records every request it receives, and can be told to fail or to hold a
// route open so tests can observe in-flight behavior.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/daviddao/piv/internal/api"
)

// Request is one request observed by the server.
type Request struct {
	Method   string
	Path     string
	RawQuery string
}

// Server is a fake insights service backed by httptest.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	pages     map[string]api.Page
	posts     map[string][]api.Post
	comments  map[int64][]api.Comment
	summaries []api.PageSummary
	chat      func(pageID, message string) string
	failures  map[string]int
	holds     map[string]chan struct{}
	requests  []Request
}

// New starts a server. Call Close when done.
func New() *Server {
	s := &Server{
		pages:    make(map[string]api.Page),
		posts:    make(map[string][]api.Post),
		comments: make(map[int64][]api.Comment),
		failures: make(map[string]int),
		holds:    make(map[string]chan struct{}),
		chat: func(_, message string) string {
			return "echo: " + message
		},
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/pages/search", s.handleSearch)
		r.Get("/pages/{id}", s.handlePage)
		r.Get("/pages/{id}/posts", s.handlePosts)
		r.Get("/posts/{id}/comments", s.handleComments)
		r.Post("/chat", s.handleChat)
	})
	s.Server = httptest.NewServer(r)
	return s
}

// Close releases every held route and shuts the server down.
func (s *Server) Close() {
	s.mu.Lock()
	for path, ch := range s.holds {
		close(ch)
		delete(s.holds, path)
	}
	s.mu.Unlock()
	s.Server.Close()
}

// AddPage registers a page. allPosts backs the paginated posts route; the
// page's own Posts field is what the page route embeds.
func (s *Server) AddPage(p api.Page, allPosts []api.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[p.LinkedInID] = p
	s.posts[p.LinkedInID] = allPosts
}

// SetComments registers the comments of a post.
func (s *Server) SetComments(postID int64, comments []api.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[postID] = comments
}

// SetSearchIndex replaces the pages that search matches against.
func (s *Server) SetSearchIndex(items []api.PageSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = items
}

// SetChat replaces the chat responder.
func (s *Server) SetChat(fn func(pageID, message string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = fn
}

// Fail makes every request to path answer with status. A zero status
// clears the failure.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// Hold blocks requests to path until the returned release func is called.
func (s *Server) Hold(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[path] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.holds[path] == ch {
				delete(s.holds, path)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit path.
func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// record logs the request, then applies any failure or hold for its path.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, RawQuery: r.URL.RawQuery})
		hold := s.holds[r.URL.Path]
		status := s.failures[r.URL.Path]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.pages[pathID(r)]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Page not found or could not be scraped", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	_, ok := s.pages[id]
	posts := s.posts[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	writeJSON(w, window(posts, r))
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad post id", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	comments := s.comments[id]
	s.mu.Unlock()
	writeJSON(w, window(comments, r))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.ToLower(q.Get("name"))
	industry := strings.ToLower(q.Get("industry"))
	minF, hasMin := intParam(q.Get("min_followers"))
	maxF, hasMax := intParam(q.Get("max_followers"))

	s.mu.Lock()
	items := make([]api.PageSummary, 0, len(s.summaries))
	for _, p := range s.summaries {
		switch {
		case name != "" && !strings.Contains(strings.ToLower(p.Name), name):
		case industry != "" && strings.ToLower(p.Industry) != industry:
		case hasMin && p.FollowerCount < minF:
		case hasMax && p.FollowerCount > maxF:
		default:
			items = append(items, p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, map[string]any{"items": items})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageID  string `json:"page_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.mu.Lock()
	_, ok := s.pages[req.PageID]
	chat := s.chat
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Page context not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"response": chat(req.PageID, req.Message)})
}

// pathID returns the decoded {id} segment. chi routes on the escaped path
// when the request carries one (an id holding a slash), so the parameter
// is still encoded in that case.
func pathID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if decoded, err := url.PathUnescape(id); err == nil {
		return decoded
	}
	return id
}

func window[T any](items []T, r *http.Request) []T {
	skip, _ := intParam(r.URL.Query().Get("skip"))
	limit, ok := intParam(r.URL.Query().Get("limit"))
	if !ok {
		limit = 10
	}
	if skip >= len(items) {
		return []T{}
	}
	end := min(skip+limit, len(items))
	return items[skip:end]
}

func intParam(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
