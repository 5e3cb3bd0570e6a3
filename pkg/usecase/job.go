package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/async"
	"github.com/scribe-lab/grimoire/pkg/utils/errutil"
)

// StartIngestionJob records a running job and dispatches the ingestion in
// the background. The returned job carries the ID for status polling.
// The job record is written only by the dispatched goroutine after this
// function returns.
func (uc *UseCases) StartIngestionJob(ctx context.Context, credential string, notebookID types.NotebookID, notebookName string) (*model.IngestionJob, error) {
	if notebookID == "" {
		return nil, goerr.New("notebook ID is empty")
	}

	job := model.NewIngestionJob(notebookID)
	if err := uc.repo.PutJob(ctx, job); err != nil {
		return nil, goerr.Wrap(err, "failed to create job record", goerr.V("notebookID", notebookID))
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		summary, err := uc.Ingest(ctx, credential, notebookID, notebookName)
		if err != nil {
			job.Fail(err.Error())
		} else {
			job.Complete(summary)
		}

		if err := uc.repo.PutJob(ctx, job); err != nil {
			return errutil.Handle(ctx, err, "failed to update job record")
		}
		return nil
	})

	return job, nil
}

func (uc *UseCases) GetJob(ctx context.Context, id types.JobID) (*model.IngestionJob, error) {
	return uc.repo.GetJob(ctx, id)
}

func (uc *UseCases) ListJobs(ctx context.Context, notebookID types.NotebookID) ([]*model.IngestionJob, error) {
	return uc.repo.ListJobs(ctx, notebookID)
}
