package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/trvl/internal/debuglog"
	"github.com/pders01/trvl/internal/post"
)

const defaultLimit = 20

type bleveIndex struct {
	idx bleve.Index
}

// NewIndex creates an in-memory index. It lives as long as the view that
// owns it and is never written to disk.
func NewIndex() (Searcher, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return &bleveIndex{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	subtitle := bleve.NewTextFieldMapping()
	subtitle.Analyzer = standard.Name
	subtitle.Store = true

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	// stored only for rebuilding the post from a hit
	uid := bleve.NewTextFieldMapping()
	uid.Analyzer = keyword.Name
	uid.Store = true
	uid.Index = false

	published := bleve.NewTextFieldMapping()
	published.Analyzer = keyword.Name
	published.Store = true
	published.Index = false

	position := bleve.NewNumericFieldMapping()
	position.Store = true
	position.Index = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("subtitle", subtitle)
	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("uid", uid)
	dm.AddFieldMappingsAt("published_at", published)
	dm.AddFieldMappingsAt("position", position)

	im.DefaultMapping = dm
	return im
}

// Index adds posts keyed by their position in the list, so repeated uids
// across pages stay distinct. Re-indexing the same list is idempotent.
func (b *bleveIndex) Index(posts []post.Post) error {
	batch := b.idx.NewBatch()
	for i, p := range posts {
		err := batch.Index(docID(i, p.ID), map[string]any{
			"title":        p.Title,
			"subtitle":     p.Subtitle,
			"author":       p.Author,
			"uid":          p.ID,
			"published_at": p.PublishedAt,
			"position":     float64(i),
		})
		if err != nil {
			return fmt.Errorf("indexing post %s: %w", p.ID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("indexing batch: %w", err)
	}
	debuglog.Debugf("indexed %d posts", len(posts))
	return nil
}

func (b *bleveIndex) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qs = append(qs,
			fieldMatch(tok, "title", 4.0),
			fieldPrefix(tok, "title", 3.5),
			fieldMatch(tok, "subtitle", 2.0),
			fieldPrefix(tok, "subtitle", 1.8),
			fieldMatch(tok, "author", 1.5),
			fieldPrefix(tok, "author", 1.2),
		)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "subtitle", "author", "uid", "published_at", "position"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		r := &Result{Score: h.Score}
		r.Post.Title, _ = h.Fields["title"].(string)
		r.Post.Subtitle, _ = h.Fields["subtitle"].(string)
		r.Post.Author, _ = h.Fields["author"].(string)
		r.Post.ID, _ = h.Fields["uid"].(string)
		r.Post.PublishedAt, _ = h.Fields["published_at"].(string)
		if pos, ok := h.Fields["position"].(float64); ok {
			r.Position = int(pos)
		}
		r.Snippet = Snippet(r.Post, tokens, 80)
		out = append(out, r)
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *bleveIndex) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func fieldMatch(tok, field string, boost float64) bleveQuery.Query {
	q := bleve.NewMatchQuery(tok)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

func fieldPrefix(tok, field string, boost float64) bleveQuery.Query {
	q := bleve.NewPrefixQuery(tok)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

func docID(position int, uid string) string {
	return fmt.Sprintf("%d:%s", position, uid)
}
