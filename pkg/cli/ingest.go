package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

func cmdIngest() *cli.Command {
	var notebookID string
	var notebookName string
	var svcCfg serviceConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "notebook-id",
			Usage:       "Notebook ID to ingest (required)",
			Required:    true,
			Sources:     cli.EnvVars("GRIMOIRE_NOTEBOOK_ID"),
			Destination: &notebookID,
		},
		&cli.StringFlag{
			Name:        "notebook-name",
			Usage:       "Notebook display name (resolved from the source when omitted)",
			Destination: &notebookName,
		},
	}
	flags = append(flags, svcCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Ingest one notebook into the search index",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			credential := svcCfg.Graph.Token()
			if credential == "" {
				return goerr.New("graph-token is required for CLI ingestion")
			}

			uc, closer, err := svcCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure services")
			}
			defer closer()

			summary, err := uc.Ingest(ctx, credential, types.NotebookID(notebookID), notebookName)
			if err != nil {
				return goerr.Wrap(err, "ingestion failed", goerr.V("notebookID", notebookID))
			}

			logging.Default().Info("ingestion summary",
				"batchID", summary.BatchID,
				"notebookID", summary.NotebookID,
				"success", summary.Success,
				"pagesProcessed", summary.Stats.PagesProcessed,
				"attachmentsProcessed", summary.Stats.AttachmentsProcessed,
				"attachmentsSkipped", summary.Stats.AttachmentsSkipped,
				"chunksCreated", summary.Stats.ChunksCreated,
				"degradedEmbeddings", summary.Stats.DegradedEmbeddings,
				"errors", summary.Stats.Errors,
				"duration", summary.Duration().String())

			if !summary.Success {
				return goerr.New("ingestion finished with errors",
					goerr.V("errors", summary.Stats.Errors))
			}
			return nil
		},
	}
}
