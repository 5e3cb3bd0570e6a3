package model

import (
	"time"

	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// Notebook is a top-level container in the source content tree
type Notebook struct {
	ID          types.NotebookID
	DisplayName string
}

// Section is a mid-level container within a notebook
type Section struct {
	ID          types.SectionID
	DisplayName string
	NotebookID  types.NotebookID
}

// Page is a leaf content unit within a section
type Page struct {
	ID           types.PageID
	Title        string
	SectionID    types.SectionID
	NotebookID   types.NotebookID
	CreatedTime  time.Time
	ModifiedTime time.Time
}

// PageContent holds both representations of a fetched page: the raw
// rendered markup for attachment discovery, and the plain text derived
// from it for chunking.
type PageContent struct {
	HTML string
	Text string
}
