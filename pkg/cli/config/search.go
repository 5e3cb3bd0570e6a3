package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/scribe-lab/grimoire/pkg/service/search"
)

// Search holds configuration for the search index service
type Search struct {
	endpoint   string
	indexName  string
	apiKey     string
	apiVersion string
}

// Flags returns CLI flags for search index configuration
func (s *Search) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "search-endpoint",
			Usage:       "Search service endpoint URL (required)",
			Sources:     cli.EnvVars("GRIMOIRE_SEARCH_ENDPOINT"),
			Destination: &s.endpoint,
		},
		&cli.StringFlag{
			Name:        "search-index",
			Usage:       "Search index name",
			Value:       "notebook-index",
			Sources:     cli.EnvVars("GRIMOIRE_SEARCH_INDEX"),
			Destination: &s.indexName,
		},
		&cli.StringFlag{
			Name:        "search-api-key",
			Usage:       "Search service admin API key (required)",
			Sources:     cli.EnvVars("GRIMOIRE_SEARCH_API_KEY"),
			Destination: &s.apiKey,
		},
		&cli.StringFlag{
			Name:        "search-api-version",
			Usage:       "Search service REST API version",
			Sources:     cli.EnvVars("GRIMOIRE_SEARCH_API_VERSION"),
			Destination: &s.apiVersion,
		},
	}
}

// LogAttrs returns log attributes for the search configuration
func (s *Search) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("endpoint", s.endpoint),
		slog.String("index", s.indexName),
		slog.Bool("api_key", s.apiKey != ""),
	}
}

// Configure creates the search index client
func (s *Search) Configure() (*search.Client, error) {
	if s.endpoint == "" {
		return nil, goerr.New("search-endpoint is required")
	}
	if s.apiKey == "" {
		return nil, goerr.New("search-api-key is required")
	}

	var opts []search.Option
	if s.apiVersion != "" {
		opts = append(opts, search.WithAPIVersion(s.apiVersion))
	}

	return search.New(s.endpoint, s.indexName, s.apiKey, opts...)
}
