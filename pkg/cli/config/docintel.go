package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/scribe-lab/grimoire/pkg/service/docintel"
)

// DocIntel holds configuration for the document analysis service
type DocIntel struct {
	endpoint   string
	apiKey     string
	apiVersion string
}

// Flags returns CLI flags for document analysis configuration
func (d *DocIntel) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "docintel-endpoint",
			Usage:       "Document analysis service endpoint URL",
			Sources:     cli.EnvVars("GRIMOIRE_DOCINTEL_ENDPOINT"),
			Destination: &d.endpoint,
		},
		&cli.StringFlag{
			Name:        "docintel-api-key",
			Usage:       "Document analysis service API key",
			Sources:     cli.EnvVars("GRIMOIRE_DOCINTEL_API_KEY"),
			Destination: &d.apiKey,
		},
		&cli.StringFlag{
			Name:        "docintel-api-version",
			Usage:       "Document analysis service API version",
			Sources:     cli.EnvVars("GRIMOIRE_DOCINTEL_API_VERSION"),
			Destination: &d.apiVersion,
		},
	}
}

// LogAttrs returns log attributes for the analysis configuration
func (d *DocIntel) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("endpoint", d.endpoint),
		slog.Bool("api_key", d.apiKey != ""),
	}
}

// Configure creates the document analysis client. Returns nil when no
// endpoint is configured; attachment analysis is then disabled.
func (d *DocIntel) Configure() (*docintel.Client, error) {
	if d.endpoint == "" {
		return nil, nil
	}

	var opts []docintel.Option
	if d.apiVersion != "" {
		opts = append(opts, docintel.WithAPIVersion(d.apiVersion))
	}

	return docintel.New(d.endpoint, d.apiKey, opts...)
}
