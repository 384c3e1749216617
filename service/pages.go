package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/foomo/contentgraph-site/service/vo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Source is the content-graph capability the repository reads from. A nil
// node without an error means the store has no such page.
type Source interface {
	PageByURI(ctx context.Context, uri string) (vo.RawNode, error)
	PageSEOByURI(ctx context.Context, uri string) (vo.RawNode, error)
	AllPages(ctx context.Context, profile vo.QueryProfile) ([]vo.RawNode, error)
	AllPosts(ctx context.Context) ([]vo.RawNode, error)
	Menus(ctx context.Context) ([]vo.RawNode, error)
}

type PageRepository struct {
	source     Source
	normalizer *Normalizer
	seoEnabled bool
	apiHost    string
	logger     *zap.Logger
	group      singleflight.Group
}

type RepositoryOption func(r *PageRepository)

// WithSEO enables the second SEO query. Canonical URLs containing apiHost are dropped.
func WithSEO(enabled bool, apiHost string) RepositoryOption {
	return func(r *PageRepository) {
		r.seoEnabled = enabled
		r.apiHost = apiHost
	}
}

func WithNormalizer(n *Normalizer) RepositoryOption {
	return func(r *PageRepository) {
		r.normalizer = n
	}
}

func WithLogger(l *zap.Logger) RepositoryOption {
	return func(r *PageRepository) {
		r.logger = l
	}
}

func NewPageRepository(source Source, opts ...RepositoryOption) *PageRepository {
	r := &PageRepository{
		source:     source,
		normalizer: NewNormalizer(nil),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func PagePathBySlug(slug string) string {
	return "/" + slug
}

func PostPathBySlug(slug string) string {
	return "/posts/" + slug
}

// FetchByURI returns nil without an error when there is no page at uri.
func (r *PageRepository) FetchByURI(ctx context.Context, uri string) (*vo.PageRecord, error) {
	uri = NormalizeURI(uri)
	if uri == "" {
		uri = "/"
	}
	v, err := r.do(ctx, "page:"+uri, func(ctx context.Context) (any, error) {
		return r.fetchByURI(ctx, uri)
	})
	if err != nil {
		return nil, err
	}
	page, _ := v.(*vo.PageRecord)
	if page == nil {
		return nil, nil
	}
	clone := page.Clone()
	return &clone, nil
}

func (r *PageRepository) fetchByURI(ctx context.Context, uri string) (*vo.PageRecord, error) {
	raw, err := r.source.PageByURI(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %q: %w", uri, err)
	}
	if raw == nil {
		r.logger.Debug("page not found", zap.String("uri", uri))
		return nil, nil
	}

	page := r.normalizer.Normalize(raw)
	page.SEO = nil
	if r.seoEnabled {
		seo, err := r.source.PageSEOByURI(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch seo for page %q: %w", uri, err)
		}
		mergeSEO(&page, seo, r.apiHost)
	}
	return &page, nil
}

// FetchBySlug looks a page up at the path derived from slug.
func (r *PageRepository) FetchBySlug(ctx context.Context, slug string) (*vo.PageRecord, error) {
	return r.FetchByURI(ctx, PagePathBySlug(slug))
}

func (r *PageRepository) FetchAll(ctx context.Context, profile vo.QueryProfile) ([]vo.PageRecord, error) {
	if profile == "" {
		profile = vo.QueryProfileIndex
	}
	if !profile.Valid() {
		return nil, fmt.Errorf("unknown query profile %q", profile)
	}
	v, err := r.do(ctx, "pages:"+string(profile), func(ctx context.Context) (any, error) {
		raw, err := r.source.AllPages(ctx, profile)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch pages: %w", err)
		}
		return r.normalizeAll(raw), nil
	})
	if err != nil {
		return nil, err
	}
	return clonePages(v.([]vo.PageRecord)), nil
}

// FetchTopLevel returns the pages without a parent ordered by menu order.
func (r *PageRepository) FetchTopLevel(ctx context.Context, profile vo.QueryProfile) ([]vo.PageRecord, error) {
	pages, err := r.FetchAll(ctx, profile)
	if err != nil {
		return nil, err
	}
	return TopLevel(pages), nil
}

func (r *PageRepository) FetchAllPosts(ctx context.Context) ([]vo.PageRecord, error) {
	v, err := r.do(ctx, "posts", func(ctx context.Context) (any, error) {
		raw, err := r.source.AllPosts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch posts: %w", err)
		}
		return r.normalizeAll(raw), nil
	})
	if err != nil {
		return nil, err
	}
	return clonePages(v.([]vo.PageRecord)), nil
}

func (r *PageRepository) FetchMenus(ctx context.Context) (vo.Menus, error) {
	raw, err := r.source.Menus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch menus: %w", err)
	}
	return BuildMenus(raw), nil
}

// do runs fn once per key for all concurrent callers. Cancelling one caller's
// ctx does not cancel the shared fetch. That caller just stops waiting.
func (r *PageRepository) do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := r.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func clonePages(pages []vo.PageRecord) []vo.PageRecord {
	out := make([]vo.PageRecord, len(pages))
	for i, page := range pages {
		out[i] = page.Clone()
	}
	return out
}

func (r *PageRepository) normalizeAll(raw []vo.RawNode) []vo.PageRecord {
	pages := make([]vo.PageRecord, 0, len(raw))
	for _, node := range raw {
		page := r.normalizer.Normalize(node)
		page.SEO = nil
		pages = append(pages, page)
	}
	return pages
}

func TopLevel(pages []vo.PageRecord) []vo.PageRecord {
	top := make([]vo.PageRecord, 0, len(pages))
	for _, page := range pages {
		if page.IsTopLevel() {
			top = append(top, page)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].MenuOrder < top[j].MenuOrder
	})
	return top
}
