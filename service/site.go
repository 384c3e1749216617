package service

import (
	"context"

	"github.com/foomo/contentgraph-site/service/vo"
	"golang.org/x/sync/errgroup"
)

// Site is everything the build prepares before rendering.
type Site struct {
	Pages    []vo.PageRecord
	TopLevel []vo.PageRecord
	Posts    []vo.PageRecord
	Menus    vo.Menus
}

// Navigation resolves the navigation menu for the configured location.
func (s *Site) Navigation(configuredLocation string) ([]vo.MenuItem, bool) {
	return ResolveMenu(s.Menus, MenuLocation(configuredLocation))
}

// Prefetch loads pages, posts and menus concurrently. The first failure
// cancels the remaining fetches and is returned as is.
func (r *PageRepository) Prefetch(ctx context.Context, profile vo.QueryProfile) (*Site, error) {
	site := &Site{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pages, err := r.FetchAll(gctx, profile)
		if err != nil {
			return err
		}
		site.Pages = pages
		site.TopLevel = TopLevel(pages)
		return nil
	})
	g.Go(func() error {
		posts, err := r.FetchAllPosts(gctx)
		if err != nil {
			return err
		}
		site.Posts = posts
		return nil
	})
	g.Go(func() error {
		menus, err := r.FetchMenus(gctx)
		if err != nil {
			return err
		}
		site.Menus = menus
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return site, nil
}
