package apitest

import (
	"fmt"
	"time"

	"github.com/daviddao/piv/internal/api"
)

// Posts returns n posts for pageID with ids firstID, firstID+1, ...
func Posts(pageID int64, firstID int64, n int) []api.Post {
	posted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]api.Post, n)
	for i := range out {
		id := firstID + int64(i)
		ts := posted.Add(-time.Duration(i) * time.Hour)
		out[i] = api.Post{
			ID:           id,
			PageID:       pageID,
			Content:      fmt.Sprintf("post %d", id),
			PostURL:      fmt.Sprintf("https://www.linkedin.com/feed/update/%d", id),
			LikeCount:    int(id) * 3,
			CommentCount: 2,
			PostedAt:     &ts,
			CreatedAt:    posted,
		}
	}
	return out
}

// Comments returns n comments for postID.
func Comments(postID int64, n int) []api.Comment {
	out := make([]api.Comment, n)
	for i := range out {
		out[i] = api.Comment{
			ID:         postID*100 + int64(i),
			PostID:     postID,
			AuthorName: fmt.Sprintf("user%d", i),
			Content:    fmt.Sprintf("comment %d on post %d", i, postID),
		}
	}
	return out
}

// Page builds a page whose inline posts are the first inline entries of
// allPosts.
func Page(linkedInID, name string, allPosts []api.Post, inline int, employees []api.Employee) api.Page {
	inline = min(inline, len(allPosts))
	return api.Page{
		PageSummary: api.PageSummary{
			ID:            1,
			LinkedInID:    linkedInID,
			Name:          name,
			FollowerCount: 500,
			CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Posts:     append([]api.Post(nil), allPosts[:inline]...),
		Employees: employees,
	}
}
