package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

var ErrNotLoaded = errors.New("search index is not loaded")

// Index is an in-memory fuzzy index over post titles. It reports its own load
// state so a search UI can stay disabled until the index is ready.
type Index struct {
	mu      sync.RWMutex
	state   vo.LoadState
	entries []vo.SearchResult
	keys    []string
	logger  *zap.Logger
}

// Loader produces the records to index, usually the site's posts.
type Loader func(ctx context.Context) ([]vo.PageRecord, error)

func NewIndex(logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{logger: logger}
}

func (i *Index) State() vo.LoadState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Load replaces the index content with the records returned by load.
func (i *Index) Load(ctx context.Context, load Loader) error {
	i.mu.Lock()
	i.state = vo.LoadStateLoading
	i.mu.Unlock()

	records, err := load(ctx)
	if err != nil {
		i.mu.Lock()
		i.state = vo.LoadStateFailed
		i.mu.Unlock()
		i.logger.Error("failed to load search index", zap.Error(err))
		return err
	}
	i.Replace(Entries(records))
	return nil
}

func (i *Index) Replace(entries []vo.SearchResult) {
	keys := make([]string, len(entries))
	for n, e := range entries {
		keys[n] = strings.ToLower(e.Title)
	}
	i.mu.Lock()
	i.entries = entries
	i.keys = keys
	i.state = vo.LoadStateLoaded
	i.mu.Unlock()
	i.logger.Debug("search index loaded", zap.Int("entries", len(entries)))
}

// Search returns the best matches first, at most req.MaxResults of them when
// that is positive.
func (i *Index) Search(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.state != vo.LoadStateLoaded {
		return nil, ErrNotLoaded
	}

	results := []vo.SearchResult{}
	query := strings.ToLower(strings.TrimSpace(req.Query))
	if query == "" {
		return results, nil
	}
	for _, match := range fuzzy.Find(query, i.keys) {
		if req.MaxResults > 0 && len(results) == req.MaxResults {
			break
		}
		results = append(results, i.entries[match.Index])
	}
	return results, nil
}

// Entries maps records with a slug to search results, keeping their order.
func Entries(records []vo.PageRecord) []vo.SearchResult {
	entries := make([]vo.SearchResult, 0, len(records))
	for _, r := range records {
		if r.Slug == "" {
			continue
		}
		entries = append(entries, vo.SearchResult{Slug: r.Slug, Title: r.Title})
	}
	return entries
}
