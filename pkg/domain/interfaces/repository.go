package interfaces

import (
	"context"
	"errors"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// ErrJobNotFound is returned by GetJob when no record exists for the ID
var ErrJobNotFound = errors.New("job not found")

// Repository defines the interface for job-record persistence
type Repository interface {
	// PutJob creates or overwrites a job record
	PutJob(ctx context.Context, job *model.IngestionJob) error

	// GetJob retrieves a job record by ID
	GetJob(ctx context.Context, id types.JobID) (*model.IngestionJob, error)

	// ListJobs retrieves job records for a notebook, newest first.
	// An empty notebook ID lists all jobs.
	ListJobs(ctx context.Context, notebookID types.NotebookID) ([]*model.IngestionJob, error)

	// Close releases underlying resources
	Close() error
}
