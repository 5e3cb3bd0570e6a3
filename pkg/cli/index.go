package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/scribe-lab/grimoire/pkg/cli/config"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

func cmdIndex() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Manage the search index",
		Commands: []*cli.Command{
			cmdIndexCreate(),
			cmdIndexDelete(),
			cmdIndexReindex(),
		},
	}
}

func cmdIndexCreate() *cli.Command {
	var searchCfg config.Search

	return &cli.Command{
		Name:  "create",
		Usage: "Create the search index schema if it does not exist",
		Flags: searchCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := searchCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize search index client")
			}

			if err := client.EnsureIndex(ctx); err != nil {
				return goerr.Wrap(err, "failed to create search index")
			}

			logging.Default().Info("search index ready")
			return nil
		},
	}
}

func cmdIndexDelete() *cli.Command {
	var searchCfg config.Search

	return &cli.Command{
		Name:  "delete",
		Usage: "Delete the search index entirely",
		Flags: searchCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := searchCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize search index client")
			}

			if err := client.DeleteIndex(ctx); err != nil {
				return goerr.Wrap(err, "failed to delete search index")
			}

			logging.Default().Info("search index deleted")
			return nil
		},
	}
}

func cmdIndexReindex() *cli.Command {
	var notebookID string
	var svcCfg serviceConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "notebook-id",
			Usage:       "Notebook ID to reindex (required)",
			Required:    true,
			Sources:     cli.EnvVars("GRIMOIRE_NOTEBOOK_ID"),
			Destination: &notebookID,
		},
	}
	flags = append(flags, svcCfg.Flags()...)

	return &cli.Command{
		Name:  "reindex",
		Usage: "Delete a notebook's documents and ingest it again",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			credential := svcCfg.Graph.Token()
			if credential == "" {
				return goerr.New("graph-token is required for CLI reindexing")
			}

			uc, closer, err := svcCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure services")
			}
			defer closer()

			summary, err := uc.ReindexNotebook(ctx, credential, types.NotebookID(notebookID), "")
			if err != nil {
				return goerr.Wrap(err, "reindex failed", goerr.V("notebookID", notebookID))
			}

			logging.Default().Info("reindex summary",
				"batchID", summary.BatchID,
				"notebookID", summary.NotebookID,
				"success", summary.Success,
				"chunksCreated", summary.Stats.ChunksCreated,
				"errors", summary.Stats.Errors)

			return nil
		},
	}
}
