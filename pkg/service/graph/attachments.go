package graph

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
	"github.com/scribe-lab/grimoire/pkg/utils/safe"
)

// The Graph API exposes no "list resources for this page" operation, so
// embedded resources are recovered from the rendered markup itself.
// Resource URLs look like .../onenote/resources/{resource-id}/$value and
// appear under several embedding idioms; each idiom gets its own matcher
// and the results are unioned.

// minResourceIDLen filters out capture fragments too short to be a
// plausible resource id.
const minResourceIDLen = 8

// resourceIDPattern pairs a matcher with the capture group holding the id.
// Group 0 means the whole match.
type resourceIDPattern struct {
	re      *regexp.Regexp
	idGroup int
}

var resourceIDPatterns = []resourceIDPattern{
	// object/img/embed tags referencing a resource path
	{regexp.MustCompile(`(?i)<object[^>]*data="[^"]*/onenote/resources/([^/$"]+)(?:/\$value)?[^"]*"[^>]*>`), 1},
	{regexp.MustCompile(`(?i)<img[^>]*src="[^"]*/onenote/resources/([^/$"]+)(?:/\$value)?[^"]*"[^>]*>`), 1},
	{regexp.MustCompile(`(?i)<embed[^>]*src="[^"]*/onenote/resources/([^/$"]+)(?:/\$value)?[^"]*"[^>]*>`), 1},
	// bare attribute references outside a recognized tag shape
	{regexp.MustCompile(`(?i)data="[^"]*/onenote/resources/([^/$"]+)(?:/\$value)?[^"]*"`), 1},
	{regexp.MustCompile(`(?i)href="[^"]*/onenote/resources/([^/$"]+)(?:/\$value)?[^"]*"`), 1},
	// anchor-tag download links with a document filename in the link text
	{regexp.MustCompile(`(?i)<a[^>]*href="[^"]*/onenote/resources/([^/$"]+)[^"]*"[^>]*>.*?\.(?:pdf|docx?|xlsx?|pptx?).*?</a>`), 1},
	// fallback: the raw lexical shape of a resource id
	{regexp.MustCompile(`1-[a-fA-F0-9]{32}![a-fA-F0-9-]+`), 0},
}

// filenamePattern recovers an id -> filename hint. Markup ordering is
// inconsistent, so both orders are tried.
type filenamePattern struct {
	re        *regexp.Regexp
	nameGroup int
	idGroup   int
}

const fileExtAlternatives = `pdf|docx?|xlsx?|pptx?|txt|csv|png|jpe?g`

var filenamePatterns = []filenamePattern{
	// explicit data-attachment attribute on an object tag
	{regexp.MustCompile(`(?i)<object[^>]*data-attachment="([^"]+)"[^>]*data="[^"]*/onenote/resources/([^/$"]+)`), 1, 2},
	// filename text preceding the resource reference
	{regexp.MustCompile(`(?i)([^/\s"<>]*\.(?:` + fileExtAlternatives + `))\b.*?onenote/resources/([^/$"]+)`), 1, 2},
	// resource reference preceding the filename text
	{regexp.MustCompile(`(?i)onenote/resources/([^/$"]+).*?([^/\s"<>]*\.(?:` + fileExtAlternatives + `))\b`), 2, 1},
}

var extToContentType = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"doc":  "application/msword",
	"xls":  "application/vnd.ms-excel",
	"ppt":  "application/vnd.ms-powerpoint",
	"txt":  "text/plain",
	"csv":  "text/csv",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

var contentTypeToExt = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"text/plain": ".txt",
	"text/csv":   ".csv",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

var contentDispositionFilename = regexp.MustCompile(`filename="?([^"\s;]+)"?`)

// DiscoverAttachments recovers embedded resource references from page
// markup, resolves their metadata with a partial-range probe, and returns
// only attachments whose content type is in the processable allow-list.
// A probe failure drops that candidate; it never aborts the rest.
func (c *Client) DiscoverAttachments(ctx context.Context, pageHTML string) ([]*model.AttachmentRef, error) {
	if pageHTML == "" {
		return nil, nil
	}

	ids := discoverResourceIDs(pageHTML)
	names := recoverFilenames(pageHTML)

	logger := logging.From(ctx)
	logger.Debug("discovered resource candidates", "count", len(ids), "named", len(names))

	var refs []*model.AttachmentRef
	for _, id := range ids {
		ref, err := c.probeResource(ctx, id, names[id])
		if err != nil {
			logger.Warn("failed to probe resource, dropping candidate",
				"resourceID", id, "error", err.Error())
			continue
		}
		if !model.IsProcessableContentType(ref.ContentType) {
			continue
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// discoverResourceIDs unions all matcher results into a deduplicated,
// deterministically ordered id list. Overlap between matchers is expected.
func discoverResourceIDs(pageHTML string) []types.ResourceID {
	seen := make(map[types.ResourceID]struct{})
	for _, p := range resourceIDPatterns {
		for _, m := range p.re.FindAllStringSubmatch(pageHTML, -1) {
			id := m[p.idGroup]
			if len(id) < minResourceIDLen {
				continue
			}
			seen[types.ResourceID(id)] = struct{}{}
		}
	}

	ids := make([]types.ResourceID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// recoverFilenames builds the best-effort id -> filename hint map. The
// first successful match for an id wins; later matches never override it.
func recoverFilenames(pageHTML string) map[types.ResourceID]string {
	names := make(map[types.ResourceID]string)
	for _, p := range filenamePatterns {
		for _, m := range p.re.FindAllStringSubmatch(pageHTML, -1) {
			id := types.ResourceID(m[p.idGroup])
			name := m[p.nameGroup]
			if len(id) < minResourceIDLen || name == "" {
				continue
			}
			if _, ok := names[id]; !ok {
				names[id] = name
			}
		}
	}
	return names
}

// probeResource resolves content type and size without transferring the
// whole resource. The upstream rejects HEAD, so a single-byte range GET is
// used instead; the true size comes from the Content-Range header.
func (c *Client) probeResource(ctx context.Context, resourceID types.ResourceID, nameHint string) (*model.AttachmentRef, error) {
	url := fmt.Sprintf("%s/me/onenote/resources/%s/content", c.baseURL, resourceID)

	var contentType, disposition string
	var size int64

	err := c.retry.Do(ctx, "probe_resource", func(ctx context.Context) error {
		header := http.Header{}
		header.Set("Range", "bytes=0-0")

		resp, err := c.get(ctx, url, header)
		if err != nil {
			return err
		}
		defer safe.Close(ctx, resp.Body)

		contentType = resp.Header.Get("Content-Type")
		disposition = resp.Header.Get("Content-Disposition")
		size = resolveResourceSize(resp)
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "resource probe failed", goerr.V("resourceID", resourceID))
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name := nameHint
	if name == "" {
		if m := contentDispositionFilename.FindStringSubmatch(disposition); m != nil {
			name = m[1]
		}
	}
	if name == "" {
		// No filename recovered: synthesize one, with an extension inferred
		// from the content type when known.
		name = "resource_" + resourceID.String() + contentTypeToExt[contentType]
	}

	// A generic content type is refined from the filename extension, when
	// the extension is known.
	if contentType == "application/octet-stream" {
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			if inferred, ok := extToContentType[strings.ToLower(name[idx+1:])]; ok {
				contentType = inferred
			}
		}
	}

	return &model.AttachmentRef{
		ID:          resourceID,
		Name:        name,
		ContentType: contentType,
		Size:        size,
		DownloadURL: url,
	}, nil
}

// resolveResourceSize extracts the full resource size from a partial
// response. A 206 carries "bytes 0-0/<total>" in Content-Range; a 200
// fallback uses Content-Length.
func resolveResourceSize(resp *http.Response) int64 {
	if resp.StatusCode == http.StatusPartialContent {
		cr := resp.Header.Get("Content-Range")
		if idx := strings.LastIndex(cr, "/"); idx >= 0 {
			if total, err := strconv.ParseInt(cr[idx+1:], 10, 64); err == nil {
				return total
			}
		}
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}
