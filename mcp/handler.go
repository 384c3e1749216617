package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/foomo/contentgraph-site/service"
	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const Version = "0.1.0"

type GetPageRequest struct {
	URI string `json:"uri"` // The page URI, e.g. /about/team/
}

type GetPageResponse struct {
	Document *vo.Document `json:"document"`
}

type ListPagesRequest struct {
	Profile string `json:"profile"` // index, archive or all
}

type ListPagesResponse struct {
	Pages []vo.PageRecord `json:"pages"`
}

type BreadcrumbsRequest struct {
	URI string `json:"uri"`
}

type BreadcrumbsResponse struct {
	Breadcrumbs []vo.BreadcrumbEntry `json:"breadcrumbs"`
}

type MenuRequest struct {
	Location string `json:"location"` // empty selects the configured navigation
}

type MenuResponse struct {
	Location string        `json:"location"`
	Items    []vo.MenuItem `json:"items"`
}

type SearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

type SearchResponse struct {
	Results []vo.SearchResult `json:"results"`
}

// NewServer creates a new MCP server exposing the site content as tools
func NewServer(serviceInstance service.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"Content Graph Site MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	getPageTool := mcp.NewTool("getPage",
		mcp.WithDescription("Get a page with breadcrumbs, siblings, children and its content as markdown"),
		mcp.WithString("uri",
			mcp.Required(),
			mcp.Description("The URI of the page, e.g. '/about/team/'"),
		),
	)
	s.AddTool(getPageTool, mcp.NewTypedToolHandler(getPageHandler(serviceInstance)))

	listPagesTool := mcp.NewTool("listPages",
		mcp.WithDescription("List all pages of the site"),
		mcp.WithString("profile",
			mcp.Description("Field profile of the listing: index, archive or all"),
			mcp.Enum(string(vo.QueryProfileIndex), string(vo.QueryProfileArchive), string(vo.QueryProfileAll)),
		),
	)
	s.AddTool(listPagesTool, mcp.NewTypedToolHandler(listPagesHandler(serviceInstance, false)))

	topLevelTool := mcp.NewTool("topLevelPages",
		mcp.WithDescription("List the pages without a parent ordered by menu order"),
		mcp.WithString("profile",
			mcp.Description("Field profile of the listing: index, archive or all"),
			mcp.Enum(string(vo.QueryProfileIndex), string(vo.QueryProfileArchive), string(vo.QueryProfileAll)),
		),
	)
	s.AddTool(topLevelTool, mcp.NewTypedToolHandler(listPagesHandler(serviceInstance, true)))

	breadcrumbsTool := mcp.NewTool("breadcrumbs",
		mcp.WithDescription("Get the ancestor trail of a page from the root down"),
		mcp.WithString("uri",
			mcp.Required(),
			mcp.Description("The URI of the page"),
		),
	)
	s.AddTool(breadcrumbsTool, mcp.NewTypedToolHandler(breadcrumbsHandler(serviceInstance)))

	menuTool := mcp.NewTool("menu",
		mcp.WithDescription("Get the menu tree assigned to a location"),
		mcp.WithString("location",
			mcp.Description("The menu location, defaults to the configured navigation"),
		),
	)
	s.AddTool(menuTool, mcp.NewTypedToolHandler(menuHandler(serviceInstance)))

	searchTool := mcp.NewTool("search",
		mcp.WithDescription("Fuzzy search the posts of the site by title"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search text"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results, defaults to 5"),
		),
	)
	s.AddTool(searchTool, mcp.NewTypedToolHandler(searchHandler(serviceInstance)))

	return s
}

func getPageHandler(serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
		if args.URI == "" {
			return mcp.NewToolResultError("uri is required"), nil
		}
		document, err := serviceInstance.GetDocument(ctx, args.URI)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get page: %v", err)), nil
		}
		if document == nil {
			return mcp.NewToolResultError(fmt.Sprintf("no page at %s", args.URI)), nil
		}
		return jsonResult(GetPageResponse{Document: document})
	}
}

func listPagesHandler(serviceInstance service.Service, topLevel bool) func(ctx context.Context, request mcp.CallToolRequest, args ListPagesRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ListPagesRequest) (*mcp.CallToolResult, error) {
		profile := vo.QueryProfile(args.Profile)
		if profile == "" {
			profile = vo.QueryProfileIndex
		}
		if !profile.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid profile %q", args.Profile)), nil
		}
		var (
			pages []vo.PageRecord
			err   error
		)
		if topLevel {
			pages, err = serviceInstance.TopLevelPages(ctx, profile)
		} else {
			pages, err = serviceInstance.Pages(ctx, profile)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list pages: %v", err)), nil
		}
		return jsonResult(ListPagesResponse{Pages: pages})
	}
}

func breadcrumbsHandler(serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args BreadcrumbsRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args BreadcrumbsRequest) (*mcp.CallToolResult, error) {
		if args.URI == "" {
			return mcp.NewToolResultError("uri is required"), nil
		}
		breadcrumbs, err := serviceInstance.Breadcrumbs(ctx, args.URI)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get breadcrumbs: %v", err)), nil
		}
		return jsonResult(BreadcrumbsResponse{Breadcrumbs: breadcrumbs})
	}
}

func menuHandler(serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args MenuRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args MenuRequest) (*mcp.CallToolResult, error) {
		menu, ok, err := serviceInstance.Menu(ctx, args.Location)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get menu: %v", err)), nil
		}
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no menu at location %q", menu.Location)), nil
		}
		return jsonResult(MenuResponse{Location: menu.Location, Items: menu.Items})
	}
}

func searchHandler(serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
		if args.Query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		if args.MaxResults < 0 {
			return mcp.NewToolResultError("maxResults must not be negative"), nil
		}
		results, err := serviceInstance.Search(ctx, vo.SearchRequest{Query: args.Query, MaxResults: args.MaxResults})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to search: %v", err)), nil
		}
		return jsonResult(SearchResponse{Results: results})
	}
}

func jsonResult(response any) (*mcp.CallToolResult, error) {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseBytes)), nil
}
