package types

import "fmt"

// ContentType tags an indexed document with the kind of source unit it
// was extracted from.
type ContentType string

const (
	// ContentTypePageText marks chunks extracted from a page body.
	ContentTypePageText ContentType = "page_text"
	// ContentTypeAttachment marks chunks extracted from an embedded attachment.
	ContentTypeAttachment ContentType = "attachment"
)

// AllContentTypes returns all valid content types
func AllContentTypes() []ContentType {
	return []ContentType{
		ContentTypePageText,
		ContentTypeAttachment,
	}
}

// IsValid checks if the content type is valid
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypePageText, ContentTypeAttachment:
		return true
	default:
		return false
	}
}

// String returns the string representation of the content type
func (t ContentType) String() string {
	return string(t)
}

// ParseContentType parses a string into a ContentType
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid content type: %s", s)
	}
	return t, nil
}
