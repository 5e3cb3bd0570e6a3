package model

import (
	"path"
	"strings"

	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// AttachmentRef is an embedded resource discovered in page markup.
// Name, ContentType and Size are best-effort: the upstream API exposes no
// listing endpoint, so they are recovered from the markup and a
// partial-range probe.
type AttachmentRef struct {
	ID          types.ResourceID
	Name        string
	ContentType string
	Size        int64
	DownloadURL string
}

// FileExtension returns the lower-cased filename extension without the
// leading dot, or "" when the name carries none.
func (a *AttachmentRef) FileExtension() string {
	ext := path.Ext(a.Name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// processableContentTypes is the allow-list of attachment content types
// that the document analysis service can handle.
var processableContentTypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
	"text/plain",
	"text/csv",
	"image/jpeg",
	"image/png",
}

// IsProcessableContentType reports whether the content type is in the
// allow-list of analyzable attachment types.
func IsProcessableContentType(contentType string) bool {
	for _, t := range processableContentTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
