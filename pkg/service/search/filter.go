package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
)

// BuildFilter produces the boolean filter expression for a structured
// criteria set: same-field alternatives are combined with OR, different
// fields with AND. Absent criteria are omitted; an empty criteria set
// yields no filter at all.
func BuildFilter(criteria model.SearchCriteria) string {
	var groups []string

	if g := orGroup("notebook_id", toStrings(criteria.NotebookIDs)); g != "" {
		groups = append(groups, g)
	}
	if g := orGroup("section_id", toStrings(criteria.SectionIDs)); g != "" {
		groups = append(groups, g)
	}
	if g := orGroup("page_id", toStrings(criteria.PageIDs)); g != "" {
		groups = append(groups, g)
	}
	if g := orGroup("content_type", toStrings(criteria.ContentTypes)); g != "" {
		groups = append(groups, g)
	}
	if g := orGroup("attachment_filetype", criteria.AttachmentTypes); g != "" {
		groups = append(groups, g)
	}

	if !criteria.DateRange.From.IsZero() {
		groups = append(groups, fmt.Sprintf("(last_modified ge %s)", criteria.DateRange.From.UTC().Format(time.RFC3339)))
	}
	if !criteria.DateRange.To.IsZero() {
		groups = append(groups, fmt.Sprintf("(last_modified le %s)", criteria.DateRange.To.UTC().Format(time.RFC3339)))
	}

	if criteria.HasAttachments != nil {
		if *criteria.HasAttachments {
			groups = append(groups, "(content_type eq 'attachment')")
		} else {
			groups = append(groups, "(content_type ne 'attachment')")
		}
	}

	return strings.Join(groups, " and ")
}

// orGroup renders one parenthesized same-field alternative group
func orGroup(field string, values []string) string {
	var terms []string
	for _, v := range values {
		if v == "" {
			continue
		}
		terms = append(terms, fmt.Sprintf("%s eq '%s'", field, escapeFilterValue(v)))
	}
	if len(terms) == 0 {
		return ""
	}
	return "(" + strings.Join(terms, " or ") + ")"
}

// escapeFilterValue doubles single quotes per the filter syntax
func escapeFilterValue(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
