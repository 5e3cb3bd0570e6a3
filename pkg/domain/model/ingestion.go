package model

import (
	"time"

	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// IngestionStats holds run-scoped counters. A stats instance is owned
// exclusively by one ingestion run; runs never share one.
type IngestionStats struct {
	PagesProcessed       int `json:"pages_processed" firestore:"pages_processed"`
	AttachmentsProcessed int `json:"attachments_processed" firestore:"attachments_processed"`
	AttachmentsSkipped   int `json:"attachments_skipped" firestore:"attachments_skipped"`
	ChunksCreated        int `json:"chunks_created" firestore:"chunks_created"`
	DegradedEmbeddings   int `json:"degraded_embeddings" firestore:"degraded_embeddings"`
	Errors               int `json:"errors" firestore:"errors"`
}

// IngestionSummary is the terminal report of one ingestion run. Success is
// true only when the error counter stayed at zero; it is the single source
// of truth for the run outcome.
type IngestionSummary struct {
	BatchID    string           `json:"batch_id" firestore:"batch_id"`
	NotebookID types.NotebookID `json:"notebook_id" firestore:"notebook_id"`
	Stats      IngestionStats   `json:"stats" firestore:"stats"`
	StartedAt  time.Time        `json:"started_at" firestore:"started_at"`
	FinishedAt time.Time        `json:"finished_at" firestore:"finished_at"`
	Success    bool             `json:"success" firestore:"success"`
}

// Duration returns the wall-clock duration of the run
func (s *IngestionSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
