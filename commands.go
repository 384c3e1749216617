package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/foomo/contentgraph-site/config"
	"github.com/foomo/contentgraph-site/contentgraph"
	"github.com/foomo/contentgraph-site/mcp"
	"github.com/foomo/contentgraph-site/overlay"
	"github.com/foomo/contentgraph-site/search"
	"github.com/foomo/contentgraph-site/service"
	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio, or MCP, JSON API and search overlay over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var pageCmd = &cobra.Command{
	Use:   "page [uri]",
	Short: "Print the document for a page URI",
	Args:  cobra.ExactArgs(1),
	RunE:  runPage,
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List pages",
	Args:  cobra.NoArgs,
	RunE:  runPages,
}

var breadcrumbsCmd = &cobra.Command{
	Use:   "breadcrumbs [uri]",
	Short: "Print the ancestor trail of a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runBreadcrumbs,
}

var menuCmd = &cobra.Command{
	Use:   "menu [location]",
	Short: "Print the menu tree of a location",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMenu,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fuzzy search post titles",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	serveCmd.Flags().String("http", "", "HTTP server address (e.g., ':8080'), overrides site_http_addr")
	pageCmd.Flags().Bool("dump", false, "dump the document with go-spew instead of JSON")
	pagesCmd.Flags().String("profile", string(vo.QueryProfileIndex), "field profile: index, archive, all")
	pagesCmd.Flags().Bool("top", false, "only pages without a parent, in menu order")
	searchCmd.Flags().Int("max", 0, "maximum number of results, defaults to site_search_max_results")
	rootCmd.AddCommand(serveCmd, pageCmd, pagesCmd, breadcrumbsCmd, menuCmd, searchCmd)
}

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	repo    *service.PageRepository
	index   *search.Index
	service service.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	var (
		source  service.Source
		apiHost string
	)
	switch cfg.Source {
	case config.SourceContentServer:
		source = contentgraph.NewContentServerSource(contentgraph.ContentServerSettings{
			URL:          cfg.ContentServerURL,
			RootID:       cfg.ContentServerRootID,
			MimeTypes:    cfg.ContentServerMimeType,
			MenuLocation: service.MenuLocation(cfg.MenuLocation),
		}, httpClient)
	default:
		client := contentgraph.NewClient(cfg.GraphQLEndpoint, httpClient, logger)
		source = contentgraph.NewGraphSource(client)
		apiHost = client.Host()
	}

	repo := service.NewPageRepository(source,
		service.WithSEO(cfg.PluginSEO, apiHost),
		service.WithLogger(logger),
	)
	index := search.NewIndex(logger)
	svc := service.NewService(service.SiteSettings{
		MenuLocation:     cfg.MenuLocation,
		HomeFallbackSlug: cfg.HomeFallbackSlug,
		ContentSelector:  cfg.ContentSelector,
		SearchMaxResults: cfg.SearchMaxResults,
	}, repo, index, logger)

	return &app{cfg: cfg, logger: logger, repo: repo, index: index, service: svc}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	site, err := a.repo.Prefetch(ctx, vo.QueryProfileIndex)
	if err != nil {
		a.logger.Warn("prefetch failed, serving on demand", zap.Error(err))
	} else {
		a.logger.Info("site prefetched",
			zap.Int("pages", len(site.Pages)),
			zap.Int("topLevel", len(site.TopLevel)),
			zap.Int("posts", len(site.Posts)),
			zap.Int("menus", len(site.Menus)),
		)
	}
	go func() {
		if err := a.index.Load(ctx, a.repo.FetchAllPosts); err == nil {
			a.logger.Info("search index loaded", zap.Int("entries", a.index.Len()))
		}
	}()

	mcpServer := mcp.NewServer(a.service)

	addr, _ := cmd.Flags().GetString("http")
	if addr == "" {
		addr = a.cfg.HTTPAddr
	}
	if addr == "" {
		a.logger.Info("starting MCP server in stdio mode")
		return server.ServeStdio(mcpServer)
	}

	overlayHandler := overlay.NewHandler(a.index, overlay.Options{
		MaxResults: a.cfg.SearchMaxResults,
		Timeout:    a.cfg.SearchTimeout,
		Logger:     a.logger,
	})
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewHTTPServer(a.logger, mcpServer, a.service, mcp.HTTPServerConfig{
			Overlay: overlayHandler,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", addr))
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func runPage(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	document, err := a.service.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if document == nil {
		return fmt.Errorf("no page at %s", args[0])
	}
	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		fmt.Fprint(cmd.OutOrStdout(), spew.Sdump(document))
		return nil
	}
	return printJSON(cmd, document)
}

func runPages(cmd *cobra.Command, args []string) error {
	profileFlag, _ := cmd.Flags().GetString("profile")
	top, _ := cmd.Flags().GetBool("top")
	profile := vo.QueryProfile(profileFlag)
	if !profile.Valid() {
		return fmt.Errorf("invalid profile %q: must be one of index, archive, all", profileFlag)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	var pages []vo.PageRecord
	if top {
		pages, err = a.service.TopLevelPages(cmd.Context(), profile)
	} else {
		pages, err = a.service.Pages(cmd.Context(), profile)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd, pages)
}

func runBreadcrumbs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	breadcrumbs, err := a.service.Breadcrumbs(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, breadcrumbs)
}

func runMenu(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	location := ""
	if len(args) == 1 {
		location = args[0]
	}
	menu, ok, err := a.service.Menu(cmd.Context(), location)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no menu at location %q", menu.Location)
	}
	return printJSON(cmd, menu.Items)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.index.Load(cmd.Context(), a.repo.FetchAllPosts); err != nil {
		return fmt.Errorf("loading search index: %w", err)
	}
	maxResults, _ := cmd.Flags().GetInt("max")
	results, err := a.service.Search(cmd.Context(), vo.SearchRequest{Query: args[0], MaxResults: maxResults})
	if err != nil {
		return err
	}
	return printJSON(cmd, results)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
