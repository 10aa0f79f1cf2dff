package search

import "github.com/pders01/trvl/internal/post"

// Searcher defines the minimal search API used by the TUI.
type Searcher interface {
	Index(posts []post.Post) error
	Search(query string, limit int) ([]*Result, error)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// Result is a post matched by a query. Position is the post's index in the
// loaded list.
type Result struct {
	Post     post.Post
	Position int
	Score    float64
	Snippet  string
}
