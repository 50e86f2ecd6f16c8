// Package snapshot builds a complete, immutable dump of one page for
// non-interactive output.
//
// A DataSnapshot captures the page, every post reachable by paging (up to a
// limit) and the first page of comments of each post. It uses the same
// Cursor as the interactive view, so paging stops on the first short page.
package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/daviddao/piv/internal/api"
	"github.com/daviddao/piv/internal/insights"
)

// Source is the subset of api.Client a snapshot needs.
type Source interface {
	insights.Fetcher
}

// Options bounds the work Build does.
type Options struct {
	// MaxPages caps "load more" requests after the inline page; 0 means
	// no paging beyond what the page embeds.
	MaxPages int
	// Concurrency caps parallel comment fetches; <= 0 means 4.
	Concurrency int
	// SkipComments disables comment fetching.
	SkipComments bool
	Logger       zerolog.Logger
}

// PostComments is the comment outcome for one post.
type PostComments struct {
	Comments []api.Comment
	// Err is set when the fetch failed. Other posts are unaffected.
	Err error
}

// DataSnapshot is a self-contained view of one page.
type DataSnapshot struct {
	Page      *api.Page
	Posts     []api.Post
	Exhausted bool
	Comments  map[int64]PostComments

	// PagingErr is the failure that stopped paging early, if any.
	PagingErr error

	BuiltAt time.Time
}

// Build fetches the page and everything beneath it. Only a failure of the
// primary fetch fails the snapshot.
func Build(ctx context.Context, src Source, pageID string, opts Options) (*DataSnapshot, error) {
	logger := opts.Logger.With().Str("component", "snapshot").Str("page", pageID).Logger()

	page, err := src.FetchPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	cursor := insights.NewCursor[api.Post](insights.PageSize)
	cursor.Seed(page.Posts)
	snap := &DataSnapshot{Page: page}

	for i := 0; i < opts.MaxPages; i++ {
		req, ok := cursor.Begin()
		if !ok {
			break
		}
		posts, err := src.FetchPosts(ctx, pageID, req.Offset, req.Limit)
		if err != nil {
			cursor.Fail(req, err)
			snap.PagingErr = err
			logger.Warn().Err(err).Int("offset", req.Offset).Msg("paging stopped")
			break
		}
		cursor.Complete(req, posts)
	}
	snap.Posts = cursor.Items()
	snap.Exhausted = cursor.Exhausted()

	if !opts.SkipComments {
		snap.Comments = fetchComments(ctx, src, snap.Posts, opts.Concurrency, logger)
	}

	snap.BuiltAt = time.Now()
	return snap, nil
}

func fetchComments(ctx context.Context, src Source, posts []api.Post, limit int, logger zerolog.Logger) map[int64]PostComments {
	if limit <= 0 {
		limit = 4
	}
	out := make(map[int64]PostComments, len(posts))
	seen := make(map[int64]bool, len(posts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, p := range posts {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		g.Go(func() error {
			comments, err := src.FetchComments(gctx, p.ID, 0, insights.CommentLimit)
			if err != nil {
				logger.Debug().Err(err).Int64("post", p.ID).Msg("comments failed")
			}
			mu.Lock()
			out[p.ID] = PostComments{Comments: comments, Err: err}
			mu.Unlock()
			// Per-post failures are recorded, never propagated.
			return nil
		})
	}
	_ = g.Wait()
	return out
}
