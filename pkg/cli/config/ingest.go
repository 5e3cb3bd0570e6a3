package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/scribe-lab/grimoire/pkg/usecase"
)

// Ingest holds the tunables of ingestion runs. Values come from flags, or
// from a TOML profile file which takes precedence when given.
type Ingest struct {
	chunkSize         int
	chunkOverlap      int
	maxAttachmentMB   int
	enableAttachments bool
	profilePath       string
	archiveBucket     string
}

// Flags returns CLI flags for ingestion configuration
func (i *Ingest) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Maximum chunk size in characters",
			Value:       1000,
			Sources:     cli.EnvVars("GRIMOIRE_CHUNK_SIZE"),
			Destination: &i.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Chunk overlap in characters",
			Value:       200,
			Sources:     cli.EnvVars("GRIMOIRE_CHUNK_OVERLAP"),
			Destination: &i.chunkOverlap,
		},
		&cli.IntFlag{
			Name:        "max-attachment-size-mb",
			Usage:       "Skip attachments larger than this many megabytes",
			Value:       30,
			Sources:     cli.EnvVars("GRIMOIRE_MAX_ATTACHMENT_SIZE_MB"),
			Destination: &i.maxAttachmentMB,
		},
		&cli.BoolFlag{
			Name:        "enable-attachments",
			Usage:       "Process embedded attachments during ingestion",
			Value:       true,
			Sources:     cli.EnvVars("GRIMOIRE_ENABLE_ATTACHMENTS"),
			Destination: &i.enableAttachments,
		},
		&cli.StringFlag{
			Name:        "ingest-profile",
			Usage:       "Path to a TOML ingestion profile (overrides the flags above)",
			Sources:     cli.EnvVars("GRIMOIRE_INGEST_PROFILE"),
			Destination: &i.profilePath,
		},
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket for raw attachment archival (disabled when empty)",
			Sources:     cli.EnvVars("GRIMOIRE_ARCHIVE_BUCKET"),
			Destination: &i.archiveBucket,
		},
	}
}

// LogAttrs returns log attributes for the ingestion configuration
func (i *Ingest) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("chunk_size", i.chunkSize),
		slog.Int("chunk_overlap", i.chunkOverlap),
		slog.Int("max_attachment_size_mb", i.maxAttachmentMB),
		slog.Bool("enable_attachments", i.enableAttachments),
		slog.String("profile", i.profilePath),
		slog.String("archive_bucket", i.archiveBucket),
	}
}

// ArchiveBucket returns the archive bucket name, empty when disabled
func (i *Ingest) ArchiveBucket() string {
	return i.archiveBucket
}

// ingestProfile is the TOML file form of the ingestion tunables
type ingestProfile struct {
	Chunking struct {
		Size    int `toml:"size"`
		Overlap int `toml:"overlap"`
	} `toml:"chunking"`
	Attachments struct {
		Enabled   *bool `toml:"enabled"`
		MaxSizeMB int   `toml:"max_size_mb"`
	} `toml:"attachments"`
}

// Configure resolves the effective ingestion config, applying the TOML
// profile over the flag values when one is given.
func (i *Ingest) Configure() (usecase.IngestConfig, error) {
	cfg := usecase.IngestConfig{
		ChunkSize:         i.chunkSize,
		ChunkOverlap:      i.chunkOverlap,
		MaxAttachmentSize: int64(i.maxAttachmentMB) * 1024 * 1024,
		EnableAttachments: i.enableAttachments,
	}

	if i.profilePath != "" {
		// #nosec G304 - path is expected to be provided by CLI argument
		data, err := os.ReadFile(i.profilePath)
		if err != nil {
			return cfg, goerr.Wrap(err, "failed to read ingest profile", goerr.V("path", i.profilePath))
		}

		var profile ingestProfile
		if err := toml.Unmarshal(data, &profile); err != nil {
			return cfg, goerr.Wrap(err, "failed to parse ingest profile", goerr.V("path", i.profilePath))
		}

		if profile.Chunking.Size > 0 {
			cfg.ChunkSize = profile.Chunking.Size
		}
		if profile.Chunking.Overlap > 0 {
			cfg.ChunkOverlap = profile.Chunking.Overlap
		}
		if profile.Attachments.MaxSizeMB > 0 {
			cfg.MaxAttachmentSize = int64(profile.Attachments.MaxSizeMB) * 1024 * 1024
		}
		if profile.Attachments.Enabled != nil {
			cfg.EnableAttachments = *profile.Attachments.Enabled
		}
	}

	if cfg.ChunkSize <= 0 {
		return cfg, goerr.New("chunk size must be positive", goerr.V("size", cfg.ChunkSize))
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return cfg, goerr.New("chunk overlap must be non-negative and smaller than chunk size",
			goerr.V("size", cfg.ChunkSize), goerr.V("overlap", cfg.ChunkOverlap))
	}

	return cfg, nil
}
