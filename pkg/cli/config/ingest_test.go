package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"

	"github.com/scribe-lab/grimoire/pkg/cli/config"
	"github.com/scribe-lab/grimoire/pkg/usecase"
)

// resolveIngest parses the given CLI args and resolves the effective
// ingestion config the way the commands do.
func resolveIngest(t *testing.T, args []string) (usecase.IngestConfig, error) {
	t.Helper()

	var ing config.Ingest
	var cfg usecase.IngestConfig
	var cfgErr error

	cmd := &cli.Command{
		Name:  "test",
		Flags: ing.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, cfgErr = ing.Configure()
			return nil
		},
	}

	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...))).Required()
	return cfg, cfgErr
}

func TestIngestDefaults(t *testing.T) {
	cfg, err := resolveIngest(t, nil)
	gt.NoError(t, err).Required()

	gt.Number(t, cfg.ChunkSize).Equal(1000)
	gt.Number(t, cfg.ChunkOverlap).Equal(200)
	gt.Value(t, cfg.MaxAttachmentSize).Equal(int64(30 * 1024 * 1024))
	gt.Bool(t, cfg.EnableAttachments).True()
}

func TestIngestFlagOverrides(t *testing.T) {
	cfg, err := resolveIngest(t, []string{
		"--chunk-size", "500",
		"--chunk-overlap", "50",
		"--max-attachment-size-mb", "10",
		"--enable-attachments=false",
	})
	gt.NoError(t, err).Required()

	gt.Number(t, cfg.ChunkSize).Equal(500)
	gt.Number(t, cfg.ChunkOverlap).Equal(50)
	gt.Value(t, cfg.MaxAttachmentSize).Equal(int64(10 * 1024 * 1024))
	gt.Bool(t, cfg.EnableAttachments).False()
}

func TestIngestProfileOverridesFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.toml")
	content := `
[chunking]
size = 800
overlap = 100

[attachments]
enabled = false
max_size_mb = 5
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()

	cfg, err := resolveIngest(t, []string{
		"--chunk-size", "2000",
		"--ingest-profile", path,
	})
	gt.NoError(t, err).Required()

	gt.Number(t, cfg.ChunkSize).Equal(800)
	gt.Number(t, cfg.ChunkOverlap).Equal(100)
	gt.Value(t, cfg.MaxAttachmentSize).Equal(int64(5 * 1024 * 1024))
	gt.Bool(t, cfg.EnableAttachments).False()
}

func TestIngestProfilePartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.toml")
	content := `
[chunking]
size = 600
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()

	cfg, err := resolveIngest(t, []string{"--ingest-profile", path})
	gt.NoError(t, err).Required()

	// Unset profile values keep the flag defaults.
	gt.Number(t, cfg.ChunkSize).Equal(600)
	gt.Number(t, cfg.ChunkOverlap).Equal(200)
	gt.Bool(t, cfg.EnableAttachments).True()
}

func TestIngestProfileMissingFile(t *testing.T) {
	_, err := resolveIngest(t, []string{"--ingest-profile", "/no/such/profile.toml"})
	gt.Error(t, err)
}

func TestIngestInvalidChunking(t *testing.T) {
	_, err := resolveIngest(t, []string{"--chunk-size", "100", "--chunk-overlap", "100"})
	gt.Error(t, err)

	_, err = resolveIngest(t, []string{"--chunk-size", "0"})
	gt.Error(t, err)
}
