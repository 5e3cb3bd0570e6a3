package model

import (
	"time"

	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// IngestionJob is the persisted record of an asynchronous ingestion run.
// It is written only by the orchestrator goroutine handling that job.
type IngestionJob struct {
	ID         types.JobID       `firestore:"id"`
	NotebookID types.NotebookID  `firestore:"notebook_id"`
	Status     types.JobStatus   `firestore:"status"`
	Message    string            `firestore:"message"`
	Summary    *IngestionSummary `firestore:"summary,omitempty"`
	CreatedAt  time.Time         `firestore:"created_at"`
	UpdatedAt  time.Time         `firestore:"updated_at"`
}

// NewIngestionJob creates a running job record for the given notebook
func NewIngestionJob(notebookID types.NotebookID) *IngestionJob {
	now := time.Now().UTC()
	return &IngestionJob{
		ID:         types.NewJobID(),
		NotebookID: notebookID,
		Status:     types.JobStatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Complete marks the job finished with the run summary. The job fails when
// the summary reports a non-zero error count.
func (j *IngestionJob) Complete(summary *IngestionSummary) {
	j.Summary = summary
	j.UpdatedAt = time.Now().UTC()
	if summary.Success {
		j.Status = types.JobStatusCompleted
	} else {
		j.Status = types.JobStatusFailed
		j.Message = "ingestion finished with errors"
	}
}

// Fail marks the job failed with a reason
func (j *IngestionJob) Fail(message string) {
	j.Status = types.JobStatusFailed
	j.Message = message
	j.UpdatedAt = time.Now().UTC()
}
