package insights

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/daviddao/piv/internal/api"
)

// CommentLimit is the number of comments fetched when a post is expanded.
const CommentLimit = 20

// Fetcher is the subset of api.Client a Detail needs.
type Fetcher interface {
	FetchPage(ctx context.Context, id string) (*api.Page, error)
	FetchPosts(ctx context.Context, pageID string, skip, limit int) ([]api.Post, error)
	FetchComments(ctx context.Context, postID int64, skip, limit int) ([]api.Comment, error)
}

// PageLoadedMsg carries the primary fetch result.
type PageLoadedMsg struct {
	Instance uint64
	Page     *api.Page
	Err      error
}

// PostsPageMsg carries one "load more" result.
type PostsPageMsg struct {
	Instance uint64
	Request  PageRequest
	Posts    []api.Post
	Err      error
}

// CommentsLoadedMsg carries the comments of one expanded post.
type CommentsLoadedMsg struct {
	Instance uint64
	PostID   int64
	Comments []api.Comment
	Err      error
}

// DetailOptions configures a Detail.
type DetailOptions struct {
	// OnEntrance returns the command that starts the entrance transition.
	// It is called at most once, when the page first becomes Populated.
	OnEntrance func(instance uint64) tea.Cmd
	Logger     zerolog.Logger
}

var instanceSeq atomic.Uint64

// Detail is one view instance of one page. Navigating to another page (or
// reloading) must Close it and build a new one; nothing carries over.
type Detail struct {
	instance uint64
	pageID   string
	fetcher  Fetcher
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool

	page     ViewState[*api.Page]
	posts    *Cursor[api.Post]
	comments *ExpansionCache[int64, api.Comment]
	gate     *Gate

	onEntrance func(uint64) tea.Cmd
	entrance   tea.Cmd
	logger     zerolog.Logger
}

// NewDetail returns a Loading view instance for pageID. Call Init to issue
// the primary fetch.
func NewDetail(ctx context.Context, pageID string, f Fetcher, opts DetailOptions) *Detail {
	ctx, cancel := context.WithCancel(ctx)
	d := &Detail{
		instance:   instanceSeq.Add(1),
		pageID:     pageID,
		fetcher:    f,
		ctx:        ctx,
		cancel:     cancel,
		page:       Classify(Started[*api.Page]()),
		posts:      NewCursor[api.Post](PageSize),
		comments:   NewExpansionCache[int64, api.Comment](),
		onEntrance: opts.OnEntrance,
	}
	d.logger = opts.Logger.With().Str("component", "detail").Str("page", pageID).
		Uint64("instance", d.instance).Logger()
	d.gate = NewGate(func() {
		if d.onEntrance != nil {
			d.entrance = d.onEntrance(d.instance)
		}
	})
	return d
}

// Instance returns the token that tags this instance's messages.
func (d *Detail) Instance() uint64 { return d.instance }

// PageID returns the route identity of this instance.
func (d *Detail) PageID() string { return d.pageID }

// Init issues the primary fetch.
func (d *Detail) Init() tea.Cmd {
	if d.closed {
		return nil
	}
	d.logger.Debug().Msg("fetching page")
	ctx, f, id, inst := d.ctx, d.fetcher, d.pageID, d.instance
	return func() tea.Msg {
		page, err := f.FetchPage(ctx, id)
		return PageLoadedMsg{Instance: inst, Page: page, Err: err}
	}
}

// Close tears the instance down. Results that arrive afterwards are
// discarded and in-flight requests are canceled.
func (d *Detail) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.cancel()
	d.logger.Debug().Int("comments_in_flight", d.comments.InFlight()).Msg("closed")
}

// Closed reports whether Close was called.
func (d *Detail) Closed() bool { return d.closed }

// Update applies a fetch result addressed to this instance and returns any
// follow-up command. Messages for other instances, and every message after
// Close, are ignored.
func (d *Detail) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PageLoadedMsg:
		if !d.owns(msg.Instance) {
			return nil
		}
		return d.applyPage(msg)

	case PostsPageMsg:
		if !d.owns(msg.Instance) {
			return nil
		}
		if msg.Err != nil {
			if d.posts.Fail(msg.Request, msg.Err) {
				d.logger.Warn().Err(msg.Err).Int("offset", msg.Request.Offset).Msg("load more failed")
			}
			return nil
		}
		if d.posts.Complete(msg.Request, msg.Posts) {
			d.logger.Debug().Int("offset", msg.Request.Offset).Int("count", len(msg.Posts)).
				Bool("exhausted", d.posts.Exhausted()).Msg("posts page applied")
		}

	case CommentsLoadedMsg:
		if !d.owns(msg.Instance) {
			return nil
		}
		if d.comments.Resolve(msg.PostID, msg.Comments, msg.Err) && msg.Err != nil {
			d.logger.Warn().Err(msg.Err).Int64("post", msg.PostID).Msg("comments failed")
		}
	}
	return nil
}

func (d *Detail) owns(instance uint64) bool {
	return !d.closed && instance == d.instance
}

func (d *Detail) applyPage(msg PageLoadedMsg) tea.Cmd {
	// The primary state leaves Loading exactly once per instance.
	if d.page.Status() != StatusLoading {
		return nil
	}
	if msg.Err != nil || msg.Page == nil {
		err := msg.Err
		if err == nil {
			err = &api.Error{Kind: api.KindServer, Op: "fetch page"}
		}
		d.page = Classify(Failed[*api.Page](err))
		d.gate.Observe(d.page.Status())
		d.logger.Warn().Err(err).Str("kind", api.KindOf(err).String()).Msg("page fetch failed")
		return nil
	}

	d.page = Classify(Succeeded(msg.Page))
	d.posts.Seed(msg.Page.Posts)
	d.logger.Debug().Int("posts", len(msg.Page.Posts)).Int("employees", len(msg.Page.Employees)).
		Msg("page populated")
	if d.gate.Observe(d.page.Status()) {
		return d.entrance
	}
	return nil
}

// LoadMore requests the next page of posts. It returns nil when the page is
// not populated yet, a page is already in flight, or posts are exhausted.
func (d *Detail) LoadMore() tea.Cmd {
	if d.closed || d.page.Status() != StatusPopulated {
		return nil
	}
	req, ok := d.posts.Begin()
	if !ok {
		return nil
	}
	ctx, f, id, inst := d.ctx, d.fetcher, d.pageID, d.instance
	return func() tea.Msg {
		posts, err := f.FetchPosts(ctx, id, req.Offset, req.Limit)
		return PostsPageMsg{Instance: inst, Request: req, Posts: posts, Err: err}
	}
}

// ToggleComments shows or hides the comments of postID, fetching them the
// first time only.
func (d *Detail) ToggleComments(postID int64) tea.Cmd {
	if d.closed || d.page.Status() != StatusPopulated {
		return nil
	}
	if !d.comments.Toggle(postID) {
		return nil
	}
	ctx, f, inst := d.ctx, d.fetcher, d.instance
	return func() tea.Msg {
		comments, err := f.FetchComments(ctx, postID, 0, CommentLimit)
		return CommentsLoadedMsg{Instance: inst, PostID: postID, Comments: comments, Err: err}
	}
}

// PageState returns the primary resource state.
func (d *Detail) PageState() ViewState[*api.Page] { return d.page }

// PostsState classifies the posts collected so far. It mirrors the primary
// state until the page is populated.
func (d *Detail) PostsState() ViewState[[]api.Post] {
	return collectionState(d.page, d.posts.Items())
}

// EmployeesState classifies the employees embedded in the page.
func (d *Detail) EmployeesState() ViewState[[]api.Employee] {
	page, ok := d.page.Data()
	if !ok {
		return collectionState[api.Employee](d.page, nil)
	}
	return collectionState(d.page, page.Employees)
}

// Posts returns the posts collected so far, in arrival order.
func (d *Detail) Posts() []api.Post { return d.posts.Items() }

// Paging returns the posts cursor state.
func (d *Detail) Paging() PageState { return d.posts.State() }

// NextOffset returns the offset the next "load more" will request.
func (d *Detail) NextOffset() int { return d.posts.NextOffset() }

// CanLoadMore reports whether the "load more" affordance applies.
func (d *Detail) CanLoadMore() bool {
	return d.page.Status() == StatusPopulated && d.posts.CanLoadMore()
}

// PagingErr returns the failure of the last "load more", if any.
func (d *Detail) PagingErr() error { return d.posts.Err() }

// Comments returns the expansion entry of postID.
func (d *Detail) Comments(postID int64) Expansion[api.Comment] { return d.comments.Get(postID) }

// EntranceFired reports whether the entrance gate has fired.
func (d *Detail) EntranceFired() bool { return d.gate.Fired() }

func collectionState[T any](page ViewState[*api.Page], items []T) ViewState[[]T] {
	switch page.Status() {
	case StatusPopulated:
		return ClassifyItems(Succeeded(items))
	case StatusError:
		return ClassifyItems(Failed[[]T](page.Err()))
	}
	return ClassifyItems(Started[[]T]())
}
