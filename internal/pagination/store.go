// Package pagination holds the cumulative, append-only list of posts for one
// view and extends it one CMS page at a time.
package pagination

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pders01/trvl/internal/cms"
	"github.com/pders01/trvl/internal/debuglog"
	"github.com/pders01/trvl/internal/post"
)

// Fetcher retrieves one raw page. A zero cursor is never passed by the store.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor cms.Cursor) (*cms.Page, error)
}

// Status is the load state of a Store.
type Status int32

const (
	Idle Status = iota
	Loading
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	default:
		return "unknown"
	}
}

// State is the data a Store owns: posts in arrival order and the next cursor.
type State struct {
	Results    []post.Post
	NextCursor cms.Cursor
}

// HasMore reports whether another page can be fetched.
func (s State) HasMore() bool {
	return !s.NextCursor.IsZero()
}

// Len returns the number of posts.
func (s State) Len() int {
	return len(s.Results)
}

// ChangeListener is called with a copy of the state after every successful merge.
type ChangeListener func(State)

type Option func(*Store)

// WithChangeListener registers fn to be notified after each merge. Listeners run
// on the goroutine that called AppendNextPage, before the store returns to Idle.
func WithChangeListener(fn ChangeListener) Option {
	return func(s *Store) {
		s.listeners = append(s.listeners, fn)
	}
}

// Store is the single writer of a State. At most one AppendNextPage runs at a
// time; overlapping calls return immediately without fetching.
type Store struct {
	fetcher   Fetcher
	listeners []ChangeListener

	status atomic.Int32

	mu    sync.RWMutex
	state State
}

// NewStore takes ownership of initial, normally built by Seed.
func NewStore(initial State, fetcher Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher: fetcher,
		state: State{
			Results:    copyPosts(initial.Results),
			NextCursor: initial.NextCursor,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendNextPage fetches the page at the current cursor, normalizes it and
// appends it to the results, returning the number of posts added.
//
// It is a no-op returning (0, nil) while another call is in flight or once the
// cursor is exhausted. On error the state is left exactly as it was and the
// fetcher's error is returned unchanged.
func (s *Store) AppendNextPage(ctx context.Context) (int, error) {
	if !s.status.CompareAndSwap(int32(Idle), int32(Loading)) {
		debuglog.Debugf("append skipped: fetch already in flight")
		return 0, nil
	}
	defer s.status.Store(int32(Idle))

	cursor := s.NextCursor()
	if cursor.IsZero() {
		return 0, nil
	}

	page, err := s.fetcher.FetchPage(ctx, cursor)
	if err != nil {
		debuglog.WithFields(map[string]interface{}{"cursor": cursor}).Warnf("append failed: %v", err)
		return 0, err
	}

	posts := post.NormalizeAll(page.Results)

	s.mu.Lock()
	s.state.Results = append(s.state.Results, posts...)
	s.state.NextCursor = page.NextPage
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	debuglog.WithFields(map[string]interface{}{
		"appended": len(posts),
		"total":    snapshot.Len(),
		"next":     snapshot.NextCursor,
	}).Infof("merged page")

	for _, fn := range s.listeners {
		fn(snapshot)
	}

	return len(posts), nil
}

// Results returns a copy of the posts in arrival order.
func (s *Store) Results() []post.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPosts(s.state.Results)
}

// Len returns the number of posts held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Results)
}

// HasMore reports whether the cursor points at another page.
func (s *Store) HasMore() bool {
	return !s.NextCursor().IsZero()
}

// NextCursor returns the cursor the next AppendNextPage will fetch.
func (s *Store) NextCursor() cms.Cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.NextCursor
}

// Status returns Loading while a fetch is in flight.
func (s *Store) Status() Status {
	return Status(s.status.Load())
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{
		Results:    copyPosts(s.state.Results),
		NextCursor: s.state.NextCursor,
	}
}

func copyPosts(posts []post.Post) []post.Post {
	out := make([]post.Post, len(posts))
	copy(out, posts)
	return out
}
