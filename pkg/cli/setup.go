package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/scribe-lab/grimoire/pkg/cli/config"
	"github.com/scribe-lab/grimoire/pkg/service/archive"
	"github.com/scribe-lab/grimoire/pkg/service/chat"
	"github.com/scribe-lab/grimoire/pkg/service/embedding"
	"github.com/scribe-lab/grimoire/pkg/usecase"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

// serviceConfig bundles the per-concern configs shared by the commands
// that run the full pipeline.
type serviceConfig struct {
	Graph    config.Graph
	Search   config.Search
	DocIntel config.DocIntel
	Gemini   config.Gemini
	Ingest   config.Ingest
	Repo     config.Repository
}

func (c *serviceConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, c.Graph.Flags()...)
	flags = append(flags, c.Search.Flags()...)
	flags = append(flags, c.DocIntel.Flags()...)
	flags = append(flags, c.Gemini.Flags()...)
	flags = append(flags, c.Ingest.Flags()...)
	flags = append(flags, c.Repo.Flags()...)
	return flags
}

// Configure wires the services into a UseCases instance. The returned
// closer releases the repository and archive clients.
func (c *serviceConfig) Configure(ctx context.Context) (*usecase.UseCases, func(), error) {
	logger := logging.Default()

	repo, err := c.Repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	closers := []func(){func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository", "error", err.Error())
		}
	}}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	index, err := c.Search.Configure()
	if err != nil {
		closeAll()
		return nil, nil, goerr.Wrap(err, "failed to initialize search index client")
	}

	llmClient, err := c.Gemini.Configure(ctx)
	if err != nil {
		closeAll()
		return nil, nil, goerr.Wrap(err, "failed to initialize LLM client")
	}

	embedder, err := embedding.New(llmClient)
	if err != nil {
		closeAll()
		return nil, nil, goerr.Wrap(err, "failed to initialize embedding client")
	}

	chatSvc, err := chat.New(llmClient)
	if err != nil {
		closeAll()
		return nil, nil, goerr.Wrap(err, "failed to initialize chat service")
	}

	ingestCfg, err := c.Ingest.Configure()
	if err != nil {
		closeAll()
		return nil, nil, goerr.Wrap(err, "failed to resolve ingestion config")
	}

	opts := []usecase.Option{
		usecase.WithChatService(chatSvc),
		usecase.WithSourceFactory(c.Graph.SourceFactory()),
		usecase.WithIngestConfig(ingestCfg),
	}

	analyzer, err := c.DocIntel.Configure()
	if err != nil {
		closeAll()
		return nil, nil, goerr.Wrap(err, "failed to initialize document analysis client")
	}
	if analyzer != nil {
		opts = append(opts, usecase.WithAnalyzer(analyzer))
		logger.Info("document analysis enabled")
	} else {
		logger.Info("document analysis not configured, attachment processing disabled")
	}

	if bucket := c.Ingest.ArchiveBucket(); bucket != "" {
		arc, err := archive.New(ctx, bucket)
		if err != nil {
			closeAll()
			return nil, nil, goerr.Wrap(err, "failed to initialize attachment archive")
		}
		closers = append(closers, func() {
			if err := arc.Close(); err != nil {
				logger.Error("failed to close attachment archive", "error", err.Error())
			}
		})
		opts = append(opts, usecase.WithArchive(arc))
		logger.Info("attachment archival enabled", "bucket", bucket)
	}

	return usecase.New(repo, index, embedder, opts...), closeAll, nil
}
