package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/foomo/contentgraph-site/markup"
	"github.com/foomo/contentgraph-site/service/vo"
	"go.uber.org/zap"
)

type Service interface {
	GetDocument(ctx context.Context, uri string) (*vo.Document, error)
	GetHome(ctx context.Context) (*vo.Document, error)
	Pages(ctx context.Context, profile vo.QueryProfile) ([]vo.PageRecord, error)
	TopLevelPages(ctx context.Context, profile vo.QueryProfile) ([]vo.PageRecord, error)
	Breadcrumbs(ctx context.Context, uri string) ([]vo.BreadcrumbEntry, error)
	Menu(ctx context.Context, location string) (vo.Menu, bool, error)
	Search(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error)
}

// Searcher is the search capability backing Service.Search.
type Searcher interface {
	Search(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error)
}

var ErrSearchDisabled = errors.New("search is not configured")

type service struct {
	repo         *PageRepository
	searcher     Searcher
	siteSettings SiteSettings
	logger       *zap.Logger
}

type SiteSettings struct {
	MenuLocation     string
	HomeFallbackSlug string
	ContentSelector  string
	SearchMaxResults int
}

const excerptLength = 160

func NewService(
	siteSettings SiteSettings,
	repo *PageRepository,
	searcher Searcher,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if siteSettings.SearchMaxResults <= 0 {
		siteSettings.SearchMaxResults = 5
	}
	return &service{
		repo:         repo,
		searcher:     searcher,
		siteSettings: siteSettings,
		logger:       logger,
	}
}

// GetDocument returns nil without an error when there is no page at uri.
func (s *service) GetDocument(ctx context.Context, uri string) (*vo.Document, error) {
	page, err := s.repo.FetchByURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	pages, err := s.repo.FetchAll(ctx, vo.QueryProfileIndex)
	if err != nil {
		return nil, err
	}

	doc := &vo.Document{
		Page:        *page,
		Breadcrumbs: Breadcrumbs(page.URI, pages),
		Description: s.description(page),
	}

	if page.Content != "" {
		markdown, err := s.markdown(page)
		if err != nil {
			return nil, fmt.Errorf("failed to convert content of %q: %w", page.URI, err)
		}
		doc.Markdown = markdown
	}

	byID := make(map[string]vo.PageRecord, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}
	for _, child := range page.Children {
		summary := vo.DocumentSummary{ID: child.ID, URI: child.URI, Title: child.Title}
		if known, ok := byID[child.ID]; ok {
			summary = summaryOf(known)
		}
		doc.Children = append(doc.Children, summary)
	}

	// a page missing from the listing has no position among its siblings
	listed := slices.ContainsFunc(pages, func(p vo.PageRecord) bool { return p.ID == page.ID })
	isPrevious := true
	for _, sibling := range siblings(page, pages) {
		if !listed {
			break
		}
		if sibling.ID == page.ID {
			isPrevious = false
			continue
		}
		if isPrevious {
			doc.PrevSiblings = append(doc.PrevSiblings, summaryOf(sibling))
		} else {
			doc.NextSiblings = append(doc.NextSiblings, summaryOf(sibling))
		}
	}
	return doc, nil
}

// GetHome resolves "/" and falls back to the configured slug when the store
// has no page at the root.
func (s *service) GetHome(ctx context.Context) (*vo.Document, error) {
	doc, err := s.GetDocument(ctx, "/")
	if err != nil || doc != nil {
		return doc, err
	}
	if s.siteSettings.HomeFallbackSlug == "" {
		return nil, nil
	}
	s.logger.Warn("home page not found, falling back to slug",
		zap.String("slug", s.siteSettings.HomeFallbackSlug))
	return s.GetDocument(ctx, PagePathBySlug(s.siteSettings.HomeFallbackSlug))
}

func (s *service) Pages(ctx context.Context, profile vo.QueryProfile) ([]vo.PageRecord, error) {
	return s.repo.FetchAll(ctx, profile)
}

func (s *service) TopLevelPages(ctx context.Context, profile vo.QueryProfile) ([]vo.PageRecord, error) {
	return s.repo.FetchTopLevel(ctx, profile)
}

func (s *service) Breadcrumbs(ctx context.Context, uri string) ([]vo.BreadcrumbEntry, error) {
	pages, err := s.repo.FetchAll(ctx, vo.QueryProfileIndex)
	if err != nil {
		return nil, err
	}
	return Breadcrumbs(NormalizeURI(uri), pages), nil
}

// Menu resolves an empty location to the configured navigation location and
// then to DefaultMenuLocation. The returned menu carries the resolved key.
func (s *service) Menu(ctx context.Context, location string) (vo.Menu, bool, error) {
	if location == "" {
		location = s.siteSettings.MenuLocation
	}
	menu := vo.Menu{Location: MenuLocation(location)}
	menus, err := s.repo.FetchMenus(ctx)
	if err != nil {
		return menu, false, err
	}
	items, ok := ResolveMenu(menus, menu.Location)
	menu.Items = items
	return menu, ok, nil
}

func (s *service) Search(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
	if s.searcher == nil {
		return nil, ErrSearchDisabled
	}
	if req.MaxResults <= 0 {
		req.MaxResults = s.siteSettings.SearchMaxResults
	}
	return s.searcher.Search(ctx, req)
}

// markdown falls back to the whole content when the content selector matches
// nothing in it.
func (s *service) markdown(page *vo.PageRecord) (vo.Markdown, error) {
	markdown, err := markup.ToMarkdown(page.Content, s.siteSettings.ContentSelector)
	if errors.Is(err, markup.ErrNoMatch) {
		s.logger.Debug("content selector matched nothing, converting whole content",
			zap.String("uri", page.URI),
			zap.String("selector", s.siteSettings.ContentSelector),
		)
		return markup.ToMarkdown(page.Content, "")
	}
	return markdown, err
}

func (s *service) description(page *vo.PageRecord) string {
	if page.SEO != nil && page.SEO.Description != "" {
		return page.SEO.Description
	}
	if page.Excerpt != "" {
		return markup.Excerpt(page.Excerpt, excerptLength)
	}
	return markup.Excerpt(page.Content, excerptLength)
}

// siblings returns the pages sharing page's parent in menu order, page included.
func siblings(page *vo.PageRecord, pages []vo.PageRecord) []vo.PageRecord {
	parentID := ""
	if page.Parent != nil {
		parentID = page.Parent.ID
	}
	var out []vo.PageRecord
	for _, p := range pages {
		pID := ""
		if p.Parent != nil {
			pID = p.Parent.ID
		}
		if pID == parentID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MenuOrder < out[j].MenuOrder
	})
	return out
}

func summaryOf(p vo.PageRecord) vo.DocumentSummary {
	return vo.DocumentSummary{ID: p.ID, URI: p.URI, Title: p.Title}
}
