package storage

import (
	"time"

	"github.com/pders01/trvl/internal/cms"
)

// Snapshot is a statically generated first page, kept so a view can be seeded
// without waiting on the CMS.
type Snapshot struct {
	Ref       string    `json:"ref"`
	FetchedAt time.Time `json:"fetched_at"`
	Page      cms.Page  `json:"page"`
}

// Age reports how long ago the snapshot was fetched.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Stale reports whether the snapshot is older than revalidate.
func (s *Snapshot) Stale(now time.Time, revalidate time.Duration) bool {
	return s.Age(now) >= revalidate
}
