package contentgraph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/foomo/contentgraph-site/service/vo"
	contentserverclient "github.com/foomo/contentserver/client"
	"github.com/foomo/contentserver/content"
	"github.com/foomo/contentserver/requests"
)

// ContentServerSource serves the same raw node shapes as GraphSource from a
// foomo contentserver repository. It has no SEO extension and no posts.
type ContentServerSource struct {
	client       *contentserverclient.Client
	env          *requests.Env
	rootID       string
	mimeTypes    []string
	menuLocation string
}

type ContentServerSettings struct {
	URL          string
	Env          *requests.Env
	RootID       string
	MimeTypes    []string
	MenuLocation string
}

func NewContentServerSource(settings ContentServerSettings, httpClient *http.Client) *ContentServerSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if settings.Env == nil {
		settings.Env = &requests.Env{}
	}
	return &ContentServerSource{
		client: contentserverclient.New(
			contentserverclient.NewHTTPTransport(
				settings.URL,
				contentserverclient.HTTPTransportWithHTTPClient(httpClient),
			)),
		env:          settings.Env,
		rootID:       settings.RootID,
		mimeTypes:    settings.MimeTypes,
		menuLocation: settings.MenuLocation,
	}
}

func (s *ContentServerSource) PageByURI(ctx context.Context, uri string) (vo.RawNode, error) {
	uri = repoURI(uri)
	siteContent, err := s.client.GetContent(ctx, &requests.Content{
		URI:   uri,
		Env:   s.env,
		Nodes: map[string]*requests.Node{},
	})
	if err != nil {
		return nil, err
	}
	if siteContent == nil || siteContent.Item == nil || repoURI(siteContent.Item.URI) != uri {
		return nil, nil
	}

	node := itemNode(siteContent.Item)
	if len(siteContent.Path) > 0 && siteContent.Path[0] != nil {
		node["parent"] = vo.RawNode{"node": itemRef(siteContent.Path[0])}
	}

	nodes, err := s.client.GetNodes(ctx, s.env, map[string]*requests.Node{
		siteContent.Item.ID: {
			ID:        siteContent.Item.ID,
			MimeTypes: s.mimeTypes,
		},
	})
	if err != nil {
		return nil, err
	}
	if contentNode, ok := nodes[siteContent.Item.ID]; ok {
		node["children"] = childEdges(contentNode)
	}
	return node, nil
}

func (s *ContentServerSource) PageSEOByURI(ctx context.Context, uri string) (vo.RawNode, error) {
	return nil, nil
}

func (s *ContentServerSource) AllPages(ctx context.Context, profile vo.QueryProfile) ([]vo.RawNode, error) {
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}
	var pages []vo.RawNode
	var walk func(n *content.Node, parent *content.Item)
	walk = func(n *content.Node, parent *content.Item) {
		for i, id := range n.Index {
			child, ok := n.Nodes[id]
			if !ok || child.Item == nil {
				continue
			}
			node := itemNode(child.Item)
			node["menuOrder"] = i
			if parent != nil {
				node["parent"] = vo.RawNode{"node": itemRef(parent)}
			} else {
				node["parent"] = nil
			}
			if profile != vo.QueryProfileIndex {
				node["children"] = childEdges(child)
			}
			pages = append(pages, node)
			walk(child, child.Item)
		}
	}
	walk(root, nil)
	return pages, nil
}

func (s *ContentServerSource) AllPosts(ctx context.Context) ([]vo.RawNode, error) {
	return nil, nil
}

// Menus derives a single two level menu from the repository tree.
func (s *ContentServerSource) Menus(ctx context.Context) ([]vo.RawNode, error) {
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}
	var items []any
	for _, id := range root.Index {
		child, ok := root.Nodes[id]
		if !ok || child.Item == nil {
			continue
		}
		items = append(items, menuItemEdge(child.Item, ""))
		for _, subID := range child.Index {
			sub, ok := child.Nodes[subID]
			if !ok || sub.Item == nil {
				continue
			}
			items = append(items, menuItemEdge(sub.Item, child.Item.ID))
		}
	}
	return []vo.RawNode{{
		"id":        s.rootID,
		"locations": []any{s.menuLocation},
		"menuItems": map[string]any{"edges": items},
	}}, nil
}

func (s *ContentServerSource) root(ctx context.Context) (*content.Node, error) {
	nodes, err := s.client.GetNodes(ctx, s.env, map[string]*requests.Node{
		s.rootID: {
			ID:        s.rootID,
			MimeTypes: s.mimeTypes,
			Expand:    true,
		},
	})
	if err != nil {
		return nil, err
	}
	root, ok := nodes[s.rootID]
	if !ok {
		return nil, errors.New("root node not found")
	}
	return root, nil
}

// repoURI strips the trailing slash contentserver URIs do not carry.
func repoURI(uri string) string {
	if trimmed := strings.TrimSuffix(uri, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}

func itemRef(item *content.Item) vo.RawNode {
	return vo.RawNode{
		"id":    item.ID,
		"uri":   item.URI,
		"title": item.Name,
	}
}

func itemNode(item *content.Item) vo.RawNode {
	node := itemRef(item)
	node["__typename"] = item.MimeType
	node["parent"] = nil
	// data is round tripped through JSON to get plain maps and slices
	if b, err := json.Marshal(item.Data); err == nil {
		var fields map[string]any
		if json.Unmarshal(b, &fields) == nil && len(fields) > 0 {
			node["customFields"] = fields
		}
	}
	return node
}

func childEdges(n *content.Node) map[string]any {
	edges := make([]any, 0, len(n.Index))
	for _, id := range n.Index {
		child, ok := n.Nodes[id]
		if !ok || child.Item == nil {
			continue
		}
		edges = append(edges, map[string]any{"node": itemRef(child.Item)})
	}
	return map[string]any{"edges": edges}
}

func menuItemEdge(item *content.Item, parentID string) map[string]any {
	node := map[string]any{
		"id":    item.ID,
		"label": item.Name,
		"path":  item.URI,
	}
	if parentID != "" {
		node["parentId"] = parentID
	}
	return map[string]any{"node": node}
}
