package interfaces

import (
	"context"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// Index defines the interface for the hybrid search index.
//
// Failure semantics follow the split between ingestion-correctness paths
// and interactive paths: EnsureIndex, Upsert and DeleteByNotebook
// propagate errors; Search, Facets and Suggest degrade to empty results.
type Index interface {
	// EnsureIndex idempotently creates the index schema if it does not exist
	EnsureIndex(ctx context.Context) error

	// DeleteIndex removes the index entirely
	DeleteIndex(ctx context.Context) error

	// Upsert writes documents by deterministic id in bounded batches
	Upsert(ctx context.Context, docs []*model.IndexedDocument) error

	// Search executes a query in the given mode
	Search(ctx context.Context, query string, vector []float32, criteria model.SearchCriteria, mode types.SearchMode, top int) ([]*model.SearchHit, error)

	// DeleteByNotebook removes all documents of a notebook, returning the count
	DeleteByNotebook(ctx context.Context, notebookID types.NotebookID) (int, error)

	// Facets aggregates counts per metadata field
	Facets(ctx context.Context, query string, fields []string) (map[string][]model.FacetValue, error)

	// Suggest returns short completion snippets for a query prefix
	Suggest(ctx context.Context, query string, top int) ([]string, error)
}
