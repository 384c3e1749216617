package mcp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/foomo/contentgraph-site/search"
	"github.com/foomo/contentgraph-site/service"
	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const DefaultEndpoint = "/mcp"

type HTTPServerConfig struct {
	Endpoint       string   // MCP endpoint path, defaults to /mcp
	AllowedOrigins []string // CORS origins, defaults to all
	Overlay        http.Handler
}

// NewMcpHTTPServer creates the streamable MCP handler served at endpoint
func NewMcpHTTPServer(s *server.MCPServer, endpoint string) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath(endpoint),
	)
}

// NewHTTPServer routes the MCP endpoint, the JSON API over serviceInstance
// and, when configured, the search overlay websocket.
func NewHTTPServer(logger *zap.Logger, s *server.MCPServer, serviceInstance service.Service, config HTTPServerConfig) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle(config.Endpoint, NewMcpHTTPServer(s, config.Endpoint))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/page", handlePage(logger, serviceInstance))
		r.Get("/home", handleHome(logger, serviceInstance))
		r.Get("/pages", handlePages(logger, serviceInstance, false))
		r.Get("/pages/top", handlePages(logger, serviceInstance, true))
		r.Get("/breadcrumbs", handleBreadcrumbs(logger, serviceInstance))
		r.Get("/menu", handleMenu(logger, serviceInstance))
		r.Get("/search", handleSearch(logger, serviceInstance))
	})

	if config.Overlay != nil {
		r.Handle("/overlay", config.Overlay)
	}
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func handlePage(logger *zap.Logger, serviceInstance service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uri := r.URL.Query().Get("uri")
		if uri == "" {
			writeError(w, http.StatusBadRequest, "uri is required")
			return
		}
		document, err := serviceInstance.GetDocument(r.Context(), uri)
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		if document == nil {
			writeError(w, http.StatusNotFound, "page not found")
			return
		}
		writeJSON(w, http.StatusOK, document)
	}
}

func handleHome(logger *zap.Logger, serviceInstance service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		document, err := serviceInstance.GetHome(r.Context())
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		if document == nil {
			writeError(w, http.StatusNotFound, "home page not found")
			return
		}
		writeJSON(w, http.StatusOK, document)
	}
}

func handlePages(logger *zap.Logger, serviceInstance service.Service, topLevel bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := vo.QueryProfile(r.URL.Query().Get("profile"))
		if profile == "" {
			profile = vo.QueryProfileIndex
		}
		if !profile.Valid() {
			writeError(w, http.StatusBadRequest, "profile must be one of index, archive, all")
			return
		}
		var (
			pages []vo.PageRecord
			err   error
		)
		if topLevel {
			pages, err = serviceInstance.TopLevelPages(r.Context(), profile)
		} else {
			pages, err = serviceInstance.Pages(r.Context(), profile)
		}
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ListPagesResponse{Pages: pages})
	}
}

func handleBreadcrumbs(logger *zap.Logger, serviceInstance service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uri := r.URL.Query().Get("uri")
		if uri == "" {
			writeError(w, http.StatusBadRequest, "uri is required")
			return
		}
		breadcrumbs, err := serviceInstance.Breadcrumbs(r.Context(), uri)
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, BreadcrumbsResponse{Breadcrumbs: breadcrumbs})
	}
}

func handleMenu(logger *zap.Logger, serviceInstance service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location := r.URL.Query().Get("location")
		menu, ok, err := serviceInstance.Menu(r.Context(), location)
		if err != nil {
			writeUpstreamError(w, logger, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "menu not found")
			return
		}
		writeJSON(w, http.StatusOK, MenuResponse{Location: menu.Location, Items: menu.Items})
	}
}

func handleSearch(logger *zap.Logger, serviceInstance service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := vo.SearchRequest{Query: q.Get("q")}
		if v := q.Get("max"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "max must be a non-negative integer")
				return
			}
			req.MaxResults = n
		}
		results, err := serviceInstance.Search(r.Context(), req)
		switch {
		case errors.Is(err, service.ErrSearchDisabled), errors.Is(err, search.ErrNotLoaded):
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		case err != nil:
			writeUpstreamError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, SearchResponse{Results: results})
	}
}

func writeUpstreamError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Warn("content backend request failed", zap.Error(err))
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
