package pagination

import (
	"github.com/pders01/trvl/internal/cms"
	"github.com/pders01/trvl/internal/post"
)

// Seed builds the initial state from the first raw page, fetched ahead of time by
// the caller. A nil page seeds an empty, exhausted state.
func Seed(first *cms.Page) State {
	if first == nil {
		return State{Results: []post.Post{}}
	}
	return State{
		Results:    post.NormalizeAll(first.Results),
		NextCursor: first.NextPage,
	}
}
