package types

import "github.com/google/uuid"

// NotebookID identifies a top-level notebook in the source hierarchy
type NotebookID string

// String returns the string representation of the notebook ID
func (id NotebookID) String() string { return string(id) }

// SectionID identifies a section within a notebook
type SectionID string

// String returns the string representation of the section ID
func (id SectionID) String() string { return string(id) }

// PageID identifies a leaf page within a section
type PageID string

// String returns the string representation of the page ID
func (id PageID) String() string { return string(id) }

// ResourceID identifies a binary resource embedded in a page
type ResourceID string

// String returns the string representation of the resource ID
func (id ResourceID) String() string { return string(id) }

// JobID is a UUID-based identifier for an ingestion job
type JobID string

// NewJobID generates a new UUID v4 JobID
func NewJobID() JobID {
	return JobID(uuid.New().String())
}

// String returns the string representation of the job ID
func (id JobID) String() string { return string(id) }
