package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

type Firestore struct {
	client *firestore.Client
	jobs   *jobRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.jobs.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client: client,
		jobs:   newJobRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) PutJob(ctx context.Context, job *model.IngestionJob) error {
	return f.jobs.Put(ctx, job)
}

func (f *Firestore) GetJob(ctx context.Context, id types.JobID) (*model.IngestionJob, error) {
	return f.jobs.Get(ctx, id)
}

func (f *Firestore) ListJobs(ctx context.Context, notebookID types.NotebookID) ([]*model.IngestionJob, error) {
	return f.jobs.List(ctx, notebookID)
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
