package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

type jobRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newJobRepository(client *firestore.Client) *jobRepository {
	return &jobRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *jobRepository) jobsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_ingestion_jobs"
	}
	return "ingestion_jobs"
}

func (r *jobRepository) Put(ctx context.Context, job *model.IngestionJob) error {
	if job.ID == "" {
		return goerr.New("job ID is empty")
	}

	_, err := r.client.Collection(r.jobsCollection()).Doc(string(job.ID)).Set(ctx, job)
	if err != nil {
		return goerr.Wrap(err, "failed to put job", goerr.V("id", job.ID))
	}

	return nil
}

func (r *jobRepository) Get(ctx context.Context, id types.JobID) (*model.IngestionJob, error) {
	docSnap, err := r.client.Collection(r.jobsCollection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrJobNotFound, "job not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get job", goerr.V("id", id))
	}

	var job model.IngestionJob
	if err := docSnap.DataTo(&job); err != nil {
		return nil, goerr.Wrap(err, "failed to decode job", goerr.V("id", id))
	}

	return &job, nil
}

func (r *jobRepository) List(ctx context.Context, notebookID types.NotebookID) ([]*model.IngestionJob, error) {
	query := r.client.Collection(r.jobsCollection()).OrderBy("created_at", firestore.Desc)
	if notebookID != "" {
		query = query.Where("notebook_id", "==", string(notebookID))
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var jobs []*model.IngestionJob
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate jobs")
		}

		var job model.IngestionJob
		if err := docSnap.DataTo(&job); err != nil {
			return nil, goerr.Wrap(err, "failed to decode job", goerr.V("doc_id", docSnap.Ref.ID))
		}

		jobs = append(jobs, &job)
	}

	return jobs, nil
}
