package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

func (uc *UseCases) ListNotebooks(ctx context.Context, credential string) ([]*model.Notebook, error) {
	source, err := uc.newSource(credential)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create content source")
	}
	return source.ListNotebooks(ctx)
}

func (uc *UseCases) ListSections(ctx context.Context, credential string, notebookID types.NotebookID) ([]*model.Section, error) {
	source, err := uc.newSource(credential)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create content source")
	}
	return source.ListSections(ctx, notebookID)
}

func (uc *UseCases) ListPages(ctx context.Context, credential string, sectionID types.SectionID) ([]*model.Page, error) {
	source, err := uc.newSource(credential)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create content source")
	}
	return source.ListPages(ctx, sectionID)
}

// DeleteNotebook removes every indexed document of the notebook and
// returns how many were deleted.
func (uc *UseCases) DeleteNotebook(ctx context.Context, notebookID types.NotebookID) (int, error) {
	count, err := uc.index.DeleteByNotebook(ctx, notebookID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to delete notebook documents", goerr.V("notebookID", notebookID))
	}

	logging.From(ctx).Info("notebook documents deleted",
		"notebookID", notebookID, "count", count)

	return count, nil
}

// ReindexNotebook deletes the notebook's documents and re-ingests it from
// scratch. The deleted count is folded into the log; the ingestion summary
// is the result.
func (uc *UseCases) ReindexNotebook(ctx context.Context, credential string, notebookID types.NotebookID, notebookName string) (*model.IngestionSummary, error) {
	count, err := uc.DeleteNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("reindexing notebook",
		"notebookID", notebookID, "deletedCount", count)

	return uc.Ingest(ctx, credential, notebookID, notebookName)
}
