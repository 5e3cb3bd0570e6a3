package interfaces

import (
	"context"

	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// Archive defines the interface for raw attachment archival. Archival is a
// best-effort side channel; callers log failures and continue.
type Archive interface {
	// StoreAttachment persists the raw bytes of a downloaded attachment
	StoreAttachment(ctx context.Context, notebookID types.NotebookID, pageID types.PageID, resourceID types.ResourceID, filename string, data []byte) error
}
