package contentgraph

import (
	"context"
	"fmt"

	"github.com/foomo/contentgraph-site/service/vo"
)

// GraphSource answers page, post and menu lookups with the fixed query documents.
type GraphSource struct {
	querier Querier
}

type edges struct {
	Edges []struct {
		Node vo.RawNode `json:"node"`
	} `json:"edges"`
}

func (e edges) nodes() []vo.RawNode {
	nodes := make([]vo.RawNode, 0, len(e.Edges))
	for _, edge := range e.Edges {
		if edge.Node == nil {
			edge.Node = vo.RawNode{}
		}
		nodes = append(nodes, edge.Node)
	}
	return nodes
}

func NewGraphSource(querier Querier) *GraphSource {
	return &GraphSource{querier: querier}
}

// PageByURI returns nil without an error when the content graph has no page at uri.
func (s *GraphSource) PageByURI(ctx context.Context, uri string) (vo.RawNode, error) {
	var data struct {
		Page vo.RawNode `json:"page"`
	}
	if err := s.querier.Query(ctx, QueryPageByURI, map[string]any{"uri": uri}, &data); err != nil {
		return nil, err
	}
	return data.Page, nil
}

func (s *GraphSource) PageSEOByURI(ctx context.Context, uri string) (vo.RawNode, error) {
	var data struct {
		Page *struct {
			SEO vo.RawNode `json:"seo"`
		} `json:"page"`
	}
	if err := s.querier.Query(ctx, QueryPageSEOByURI, map[string]any{"uri": uri}, &data); err != nil {
		return nil, err
	}
	if data.Page == nil {
		return nil, nil
	}
	return data.Page.SEO, nil
}

func (s *GraphSource) AllPages(ctx context.Context, profile vo.QueryProfile) ([]vo.RawNode, error) {
	document, ok := allPagesQueries[profile]
	if !ok {
		return nil, fmt.Errorf("unknown query profile %q", profile)
	}
	var data struct {
		Pages edges `json:"pages"`
	}
	if err := s.querier.Query(ctx, document, nil, &data); err != nil {
		return nil, err
	}
	return data.Pages.nodes(), nil
}

func (s *GraphSource) AllPosts(ctx context.Context) ([]vo.RawNode, error) {
	var data struct {
		Posts edges `json:"posts"`
	}
	if err := s.querier.Query(ctx, QueryAllPosts, nil, &data); err != nil {
		return nil, err
	}
	return data.Posts.nodes(), nil
}

func (s *GraphSource) Menus(ctx context.Context) ([]vo.RawNode, error) {
	var data struct {
		Menus edges `json:"menus"`
	}
	if err := s.querier.Query(ctx, QueryAllMenus, nil, &data); err != nil {
		return nil, err
	}
	return data.Menus.nodes(), nil
}
