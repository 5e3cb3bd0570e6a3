package interfaces

import (
	"context"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// Source defines the interface for the remote hierarchy/content service.
// All calls are read-only against the upstream tree.
type Source interface {
	// ListNotebooks retrieves all top-level notebooks
	ListNotebooks(ctx context.Context) ([]*model.Notebook, error)

	// ListSections retrieves the sections of a notebook
	ListSections(ctx context.Context, notebookID types.NotebookID) ([]*model.Section, error)

	// ListPages retrieves the pages of a section
	ListPages(ctx context.Context, sectionID types.SectionID) ([]*model.Page, error)

	// GetPageContent retrieves a page's rendered markup and its plain-text form
	GetPageContent(ctx context.Context, pageID types.PageID) (*model.PageContent, error)

	// DiscoverAttachments recovers embedded resource references from page markup
	DiscoverAttachments(ctx context.Context, pageHTML string) ([]*model.AttachmentRef, error)

	// DownloadResource fetches the full content of a resource
	DownloadResource(ctx context.Context, resourceID types.ResourceID) ([]byte, error)
}
