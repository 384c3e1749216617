package service

import (
	"slices"
	"strings"

	"github.com/foomo/contentgraph-site/service/vo"
)

// Breadcrumbs reconstructs the ancestors of uri, root first, by matching each
// URI prefix against pages. The page itself is not part of the chain and a
// prefix without a page is skipped.
func Breadcrumbs(uri string, pages []vo.PageRecord) []vo.BreadcrumbEntry {
	crumbs := []vo.BreadcrumbEntry{}
	segments := strings.FieldsFunc(uri, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return crumbs
	}
	segments = segments[:len(segments)-1]

	byURI := make(map[string]vo.PageRecord, len(pages))
	for _, page := range pages {
		if _, ok := byURI[page.URI]; !ok {
			byURI[page.URI] = page
		}
	}

	for len(segments) > 0 {
		if crumb, ok := byURI["/"+strings.Join(segments, "/")+"/"]; ok {
			crumbs = append(crumbs, vo.BreadcrumbEntry{
				ID:    crumb.ID,
				Title: crumb.Title,
				URI:   crumb.URI,
			})
		}
		segments = segments[:len(segments)-1]
	}
	slices.Reverse(crumbs)
	return crumbs
}
