package api

import "time"

// PageSummary is a company page without its child collections, as returned
// by search.
type PageSummary struct {
	ID              int64      `json:"id"`
	LinkedInID      string     `json:"linkedin_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Website         string     `json:"website"`
	Industry        string     `json:"industry"`
	FollowerCount   int        `json:"follower_count"`
	HeadCount       int        `json:"head_count"`
	Founded         string     `json:"founded"`
	Specialties     string     `json:"specialties"`
	ProfileImageURL string     `json:"profile_image_url"`
	CreatedAt       time.Time  `json:"created_at"`
	LastScrapedAt   *time.Time `json:"last_scraped_at"`
}

// Page is the primary resource: a company page with the first page of its
// posts and its known employees embedded.
type Page struct {
	PageSummary

	Posts     []Post     `json:"posts"`
	Employees []Employee `json:"employees"`
}

// Post is a single post published by a page.
type Post struct {
	ID           int64      `json:"id"`
	PageID       int64      `json:"page_id"`
	Content      string     `json:"content"`
	PostURL      string     `json:"post_url"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	PostedAt     *time.Time `json:"posted_at_timestamp"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Comment is a reply attached to a post.
type Comment struct {
	ID         int64      `json:"id"`
	PostID     int64      `json:"post_id"`
	AuthorName string     `json:"author_name"`
	Content    string     `json:"content"`
	LikeCount  int        `json:"like_count"`
	CreatedAt  *time.Time `json:"created_at"`
}

// Employee is a person listed as working at a page's company.
type Employee struct {
	ID         int64  `json:"id"`
	PageID     int64  `json:"page_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Location   string `json:"location"`
	ProfileURL string `json:"profile_url"`
}

// SearchFilters narrows a page search. Empty strings and nil bounds are
// absent and never sent.
type SearchFilters struct {
	Name         string
	Industry     string
	MinFollowers *int
	MaxFollowers *int
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return f.Name == "" && f.Industry == "" && f.MinFollowers == nil && f.MaxFollowers == nil
}

type searchResponse struct {
	Items []PageSummary `json:"items"`
}

type chatRequest struct {
	PageID  string `json:"page_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}
