package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Source string

const (
	SourceGraphQL       Source = "graphql"
	SourceContentServer Source = "contentserver"
)

type Config struct {
	GraphQLEndpoint string `koanf:"wordpress_graphql_endpoint"`
	MenuLocation    string `koanf:"wordpress_menu_location_navigation"`
	PluginSEO       bool   `koanf:"wordpress_plugin_seo"`

	Source                Source        `koanf:"site_source"`
	ContentServerURL      string        `koanf:"site_contentserver_url"`
	ContentServerRootID   string        `koanf:"site_contentserver_root_id"`
	ContentServerMimeType []string      `koanf:"site_contentserver_mime_types"`
	ContentSelector       string        `koanf:"site_content_selector"`
	HomeFallbackSlug      string        `koanf:"site_home_fallback_slug"`
	SearchMaxResults      int           `koanf:"site_search_max_results"`
	SearchTimeout         time.Duration `koanf:"site_search_timeout"`
	HTTPAddr              string        `koanf:"site_http_addr"` // empty serves MCP over stdio
}

func Default() *Config {
	return &Config{
		Source:           SourceGraphQL,
		HomeFallbackSlug: "pocetna-strana",
		SearchMaxResults: 5,
		SearchTimeout:    5 * time.Second,
	}
}

// Load starts from Default, overlays the YAML file at path when it exists and
// then the WORDPRESS_* and SITE_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	for _, prefix := range []string{"WORDPRESS_", "SITE_"} {
		if err := k.Load(env.Provider(prefix, ".", strings.ToLower), nil); err != nil {
			return nil, fmt.Errorf("loading env overrides: %w", err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Source {
	case SourceGraphQL:
		if c.GraphQLEndpoint == "" {
			return fmt.Errorf("wordpress_graphql_endpoint is required")
		}
		u, err := url.Parse(c.GraphQLEndpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid wordpress_graphql_endpoint %q", c.GraphQLEndpoint)
		}
	case SourceContentServer:
		if c.ContentServerURL == "" {
			return fmt.Errorf("site_contentserver_url is required")
		}
		if c.ContentServerRootID == "" {
			return fmt.Errorf("site_contentserver_root_id is required")
		}
	default:
		return fmt.Errorf("invalid site_source %q: must be one of graphql, contentserver", c.Source)
	}
	if c.SearchMaxResults <= 0 {
		return fmt.Errorf("site_search_max_results must be positive")
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("site_search_timeout must be positive")
	}
	return nil
}
