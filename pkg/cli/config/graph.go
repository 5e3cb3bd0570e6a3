package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/service/graph"
	"github.com/scribe-lab/grimoire/pkg/usecase"
)

// Graph holds configuration for the content source client
type Graph struct {
	baseURL string
	token   string
}

// Flags returns CLI flags for content source configuration
func (g *Graph) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "graph-base-url",
			Usage:       "Base URL of the Graph API",
			Sources:     cli.EnvVars("GRIMOIRE_GRAPH_BASE_URL"),
			Destination: &g.baseURL,
		},
		&cli.StringFlag{
			Name:        "graph-token",
			Usage:       "Static access token for the Graph API (used by CLI commands; HTTP callers send their own bearer token)",
			Sources:     cli.EnvVars("GRIMOIRE_GRAPH_TOKEN"),
			Destination: &g.token,
		},
	}
}

// LogAttrs returns log attributes for the source configuration
func (g *Graph) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("base_url", g.baseURL),
		slog.Bool("token", g.token != ""),
	}
}

// Token returns the static access token, empty when unset
func (g *Graph) Token() string {
	return g.token
}

// SourceFactory builds per-credential source clients honoring the
// configured base URL override.
func (g *Graph) SourceFactory() usecase.SourceFactory {
	return func(credential string) (interfaces.Source, error) {
		var opts []graph.Option
		if g.baseURL != "" {
			opts = append(opts, graph.WithBaseURL(g.baseURL))
		}
		return graph.New(credential, opts...)
	}
}
