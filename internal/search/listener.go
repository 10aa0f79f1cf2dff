package search

import (
	"github.com/pders01/trvl/internal/debuglog"
	"github.com/pders01/trvl/internal/pagination"
)

// IndexOnChange keeps s in step with a pagination store. Positions are stable
// because the store only appends, so re-indexing the full list overwrites the
// documents it already holds and adds the new tail.
func IndexOnChange(s Searcher) pagination.ChangeListener {
	return func(state pagination.State) {
		if err := s.Index(state.Results); err != nil {
			debuglog.Warnf("indexing %d posts: %v", state.Len(), err)
		}
	}
}
