package service

import (
	"context"
	"errors"
	"testing"

	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteSource() *fakeSource {
	tim := node("tim", "/o-nama/tim/", "Tim", "on", 0)
	tim["content"] = "<h2>Tim</h2><p>Naš tim.</p>"
	tim["children"] = map[string]any{"edges": []any{
		map[string]any{"node": map[string]any{"id": "ana", "uri": "/o-nama/tim/ana/", "title": "Ana"}},
	}}
	istorija := node("ist", "/o-nama/istorija/", "Istorija", "on", 1)
	istorija["excerpt"] = "<p>Od 1999.</p>"
	home := node("home", "/pocetna-strana/", "Početna", "", 0)

	all := []vo.RawNode{
		home,
		node("on", "/o-nama/", "O nama", "", 1),
		node("mis", "/o-nama/misija/", "Misija", "on", 2),
		tim,
		istorija,
		node("ana", "/o-nama/tim/ana/", "Ana Anić", "tim", 0),
	}
	pages := map[string]vo.RawNode{}
	for _, n := range all {
		pages[n["uri"].(string)] = n
	}
	return &fakeSource{
		pages: pages,
		all:   all,
		menus: []vo.RawNode{{
			"locations": []any{DefaultMenuLocation},
			"menuItems": []any{map[string]any{"id": "m1", "label": "O nama", "path": "/o-nama/"}},
		}},
	}
}

type fakeSearcher struct {
	req     vo.SearchRequest
	results []vo.SearchResult
}

func (f *fakeSearcher) Search(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
	f.req = req
	return f.results, nil
}

func newTestService(src Source, searcher Searcher) Service {
	settings := SiteSettings{HomeFallbackSlug: "pocetna-strana"}
	return NewService(settings, NewPageRepository(src), searcher, nil)
}

func summaries(docs []vo.DocumentSummary) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}

func TestGetDocument(t *testing.T) {
	svc := newTestService(siteSource(), nil)

	doc, err := svc.GetDocument(context.Background(), "/o-nama/tim/")
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "Tim", doc.Page.Title)
	assert.Equal(t, []vo.BreadcrumbEntry{{ID: "on", Title: "O nama", URI: "/o-nama/"}}, doc.Breadcrumbs)
	assert.Equal(t, "Tim Naš tim.", doc.Description)
	assert.Contains(t, string(doc.Markdown), "## Tim")
	assert.Contains(t, string(doc.Markdown), "Naš tim.")
	assert.Equal(t, []vo.DocumentSummary{{ID: "ana", URI: "/o-nama/tim/ana/", Title: "Ana Anić"}}, doc.Children)
	assert.Empty(t, doc.PrevSiblings)
	assert.Equal(t, []string{"ist", "mis"}, summaries(doc.NextSiblings))
}

func TestGetDocumentSiblings(t *testing.T) {
	svc := newTestService(siteSource(), nil)

	doc, err := svc.GetDocument(context.Background(), "/o-nama/istorija/")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, []string{"tim"}, summaries(doc.PrevSiblings))
	assert.Equal(t, []string{"mis"}, summaries(doc.NextSiblings))
	assert.Equal(t, "Od 1999.", doc.Description)

	top, err := svc.GetDocument(context.Background(), "/o-nama/")
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, summaries(top.PrevSiblings))
	assert.Empty(t, top.NextSiblings)
	assert.Empty(t, top.Breadcrumbs)
}

func TestGetDocumentContentSelector(t *testing.T) {
	src := siteSource()
	src.pages["/o-nama/istorija/"]["content"] = `<div id="content"><p>Od 1999.</p></div><p>Podnožje</p>`
	svc := NewService(SiteSettings{ContentSelector: "#content"}, NewPageRepository(src), nil, nil)

	t.Run("scopes content that carries the element", func(t *testing.T) {
		doc, err := svc.GetDocument(context.Background(), "/o-nama/istorija/")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, vo.Markdown("Od 1999."), doc.Markdown)
	})

	t.Run("converts the whole content when nothing matches", func(t *testing.T) {
		doc, err := svc.GetDocument(context.Background(), "/o-nama/tim/")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Contains(t, string(doc.Markdown), "## Tim")
		assert.Contains(t, string(doc.Markdown), "Naš tim.")
	})
}

func TestGetDocumentAbsent(t *testing.T) {
	svc := newTestService(siteSource(), nil)
	doc, err := svc.GetDocument(context.Background(), "/nema/")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestGetDocumentError(t *testing.T) {
	boom := errors.New("boom")
	svc := newTestService(&fakeSource{err: boom}, nil)
	_, err := svc.GetDocument(context.Background(), "/o-nama/")
	require.ErrorIs(t, err, boom)
}

func TestGetHome(t *testing.T) {
	t.Run("falls back to the home slug", func(t *testing.T) {
		svc := newTestService(siteSource(), nil)
		doc, err := svc.GetHome(context.Background())
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "home", doc.Page.ID)
	})

	t.Run("prefers the root page", func(t *testing.T) {
		src := siteSource()
		src.pages["/"] = node("root", "/", "Root", "", 0)
		svc := newTestService(src, nil)
		doc, err := svc.GetHome(context.Background())
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "root", doc.Page.ID)
	})

	t.Run("absent without fallback", func(t *testing.T) {
		svc := NewService(SiteSettings{}, NewPageRepository(siteSource()), nil, nil)
		doc, err := svc.GetHome(context.Background())
		require.NoError(t, err)
		assert.Nil(t, doc)
	})
}

func TestServiceBreadcrumbs(t *testing.T) {
	svc := newTestService(siteSource(), nil)
	crumbs, err := svc.Breadcrumbs(context.Background(), "o-nama/tim/ana")
	require.NoError(t, err)
	assert.Equal(t, []vo.BreadcrumbEntry{
		{ID: "on", Title: "O nama", URI: "/o-nama/"},
		{ID: "tim", Title: "Tim", URI: "/o-nama/tim/"},
	}, crumbs)
}

func TestServiceMenu(t *testing.T) {
	svc := newTestService(siteSource(), nil)

	menu, ok, err := svc.Menu(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DefaultMenuLocation, menu.Location)
	assert.Equal(t, []vo.MenuItem{{ID: "m1", Label: "O nama", URL: "/o-nama/"}}, menu.Items)

	menu, ok, err = svc.Menu(context.Background(), "FOOTER")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "FOOTER", menu.Location)
	assert.Nil(t, menu.Items)
}

func TestServiceMenuConfiguredLocation(t *testing.T) {
	src := siteSource()
	src.menus = []vo.RawNode{
		{
			"locations": []any{"PRIMARY"},
			"menuItems": []any{map[string]any{"id": "p1", "label": "Kontakt", "path": "/kontakt/"}},
		},
		{
			"locations": []any{"FOOTER"},
			"menuItems": []any{map[string]any{"id": "f1", "label": "Impresum", "path": "/impresum/"}},
		},
	}
	svc := NewService(SiteSettings{MenuLocation: "PRIMARY"}, NewPageRepository(src), nil, nil)

	menu, ok, err := svc.Menu(context.Background(), "")
	require.NoError(t, err)
	require.True(t, ok, "an empty location selects the configured one")
	assert.Equal(t, "PRIMARY", menu.Location)
	assert.Equal(t, []vo.MenuItem{{ID: "p1", Label: "Kontakt", URL: "/kontakt/"}}, menu.Items)

	menu, ok, err = svc.Menu(context.Background(), "FOOTER")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "FOOTER", menu.Location)
	assert.Equal(t, "f1", menu.Items[0].ID)
}

func TestServiceSearch(t *testing.T) {
	t.Run("disabled without a searcher", func(t *testing.T) {
		svc := newTestService(siteSource(), nil)
		_, err := svc.Search(context.Background(), vo.SearchRequest{Query: "tim"})
		require.ErrorIs(t, err, ErrSearchDisabled)
	})

	t.Run("defaults the result cap", func(t *testing.T) {
		searcher := &fakeSearcher{results: []vo.SearchResult{{Slug: "tim", Title: "Tim"}}}
		svc := newTestService(siteSource(), searcher)
		results, err := svc.Search(context.Background(), vo.SearchRequest{Query: "tim"})
		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, 5, searcher.req.MaxResults)
	})
}

func TestPrefetch(t *testing.T) {
	src := siteSource()
	src.posts = []vo.RawNode{{"__typename": "Post", "id": "post1", "slug": "prvi", "title": "Prvi"}}
	site, err := NewPageRepository(src).Prefetch(context.Background(), vo.QueryProfileIndex)
	require.NoError(t, err)
	assert.Len(t, site.Pages, 6)
	assert.Len(t, site.TopLevel, 2)
	assert.Len(t, site.Posts, 1)

	items, ok := site.Navigation("")
	assert.True(t, ok)
	assert.Len(t, items, 1)
}

func TestPrefetchError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewPageRepository(&fakeSource{err: boom}).Prefetch(context.Background(), vo.QueryProfileIndex)
	require.ErrorIs(t, err, boom)
}
