// Package prerender produces the first page of posts ahead of time and keeps
// it as a seed snapshot, regenerating it once it is older than the
// revalidation interval.
package prerender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pders01/trvl/internal/cms"
	"github.com/pders01/trvl/internal/debuglog"
	"github.com/pders01/trvl/internal/storage"
)

// DefaultRevalidate matches the regeneration interval of the published site.
const DefaultRevalidate = 10 * time.Minute

// PageFetcher fetches raw pages and names the content ref it reads from.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor cms.Cursor) (*cms.Page, error)
	RefLabel() string
}

// SnapshotStore persists seed snapshots by ref.
type SnapshotStore interface {
	SaveSnapshot(snap *storage.Snapshot) error
	GetSnapshot(ref string) (*storage.Snapshot, error)
}

type Generator struct {
	client     PageFetcher
	store      SnapshotStore
	revalidate time.Duration
	now        func() time.Time
}

// NewGenerator returns a Generator. A nil store disables persistence: every
// Load fetches page 1 from the CMS.
func NewGenerator(client PageFetcher, store SnapshotStore, revalidate time.Duration) *Generator {
	if revalidate <= 0 {
		revalidate = DefaultRevalidate
	}
	return &Generator{
		client:     client,
		store:      store,
		revalidate: revalidate,
		now:        time.Now,
	}
}

// Generate fetches page 1 and saves it, replacing any previous snapshot.
func (g *Generator) Generate(ctx context.Context) (*storage.Snapshot, error) {
	page, err := g.client.FetchPage(ctx, "")
	if err != nil {
		return nil, err
	}

	snap := &storage.Snapshot{
		Ref:       g.client.RefLabel(),
		FetchedAt: g.now(),
		Page:      *page,
	}

	if g.store != nil {
		if err := g.store.SaveSnapshot(snap); err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}
	}

	debuglog.WithFields(map[string]interface{}{
		"ref":     snap.Ref,
		"results": len(page.Results),
	}).Infof("generated seed snapshot")

	return snap, nil
}

// Load returns the stored snapshot while it is fresh and regenerates it
// otherwise. When regeneration fails a stale snapshot is still returned.
func (g *Generator) Load(ctx context.Context) (*storage.Snapshot, error) {
	if g.store == nil {
		return g.Generate(ctx)
	}

	ref := g.client.RefLabel()
	cached, err := g.store.GetSnapshot(ref)
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound):
		cached = nil
	case err != nil:
		debuglog.Warnf("reading snapshot %s: %v", ref, err)
		cached = nil
	}

	if cached != nil && !cached.Stale(g.now(), g.revalidate) {
		debuglog.Debugf("serving fresh snapshot %s (age %s)", ref, cached.Age(g.now()).Round(time.Second))
		return cached, nil
	}

	snap, err := g.Generate(ctx)
	if err != nil {
		if cached != nil {
			debuglog.Errorf("regenerating snapshot %s failed, serving stale copy: %v", ref, err)
			return cached, nil
		}
		return nil, err
	}
	return snap, nil
}
