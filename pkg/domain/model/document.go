package model

import (
	"fmt"
	"strings"

	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector.
// text-embedding-3-large style models produce 1536 dimensions.
const EmbeddingDimension = 1536

// IndexedDocument is one persisted search-index record
type IndexedDocument struct {
	ID                string            `json:"id"`
	Content           string            `json:"content"`
	ContentVector     []float32         `json:"content_vector"`
	PageID            types.PageID      `json:"page_id"`
	PageTitle         string            `json:"page_title"`
	SectionID         types.SectionID   `json:"section_id"`
	SectionName       string            `json:"section_name"`
	NotebookID        types.NotebookID  `json:"notebook_id"`
	NotebookName      string            `json:"notebook_name"`
	ContentType       types.ContentType `json:"content_type"`
	AttachmentName    string            `json:"attachment_filename,omitempty"`
	AttachmentType    string            `json:"attachment_filetype,omitempty"`
	EmbeddingDegraded bool              `json:"embedding_degraded"`
	LastModified      string            `json:"last_modified,omitempty"`
}

// DocumentID builds the deterministic identifier for an indexed document.
// Re-ingesting the same page reproduces the same ids, so index writes are
// idempotent upserts rather than appends. The index only accepts keys of
// letters, digits, underscore, dash and equals, so anything else in the
// page id is mapped to underscore.
func DocumentID(pageID types.PageID, contentType types.ContentType, ordinal int) string {
	return fmt.Sprintf("%s-%s-%d", sanitizeKey(pageID.String()), contentType, ordinal)
}

func sanitizeKey(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '=':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// ZeroVector returns a zero-filled vector of the model dimensionality.
// It substitutes for a missing or malformed embedding so the document is
// still indexed and keyword-searchable.
func ZeroVector() []float32 {
	return make([]float32, EmbeddingDimension)
}
