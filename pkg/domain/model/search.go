package model

import (
	"time"

	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// DateRange bounds documents by their last-modified timestamp. Either end
// may be zero to leave that side unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether both ends are unset
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// SearchCriteria is a structured set of optional constraints for index
// queries. Absent fields are simply omitted from the resulting filter.
type SearchCriteria struct {
	NotebookIDs     []types.NotebookID
	SectionIDs      []types.SectionID
	PageIDs         []types.PageID
	ContentTypes    []types.ContentType
	AttachmentTypes []string
	DateRange       DateRange
	HasAttachments  *bool
}

// IsEmpty reports whether no constraint is set
func (c SearchCriteria) IsEmpty() bool {
	return len(c.NotebookIDs) == 0 &&
		len(c.SectionIDs) == 0 &&
		len(c.PageIDs) == 0 &&
		len(c.ContentTypes) == 0 &&
		len(c.AttachmentTypes) == 0 &&
		c.DateRange.IsZero() &&
		c.HasAttachments == nil
}

// SearchHit is one result from an index query. RerankerScore is set only
// when a semantic reranking stage was applied.
type SearchHit struct {
	Document      IndexedDocument
	Score         float64
	RerankerScore float64
}

// FacetValue is one aggregated bucket of a facet query
type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}
