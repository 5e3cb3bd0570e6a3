package archive

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// Client stores raw attachment bytes in a Cloud Storage bucket so that
// source files survive page edits and can be re-analyzed later.
type Client struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.Archive = &Client{}

type Option func(*Client)

// WithObjectPrefix prepends a path prefix to every archived object
func WithObjectPrefix(prefix string) Option {
	return func(c *Client) {
		c.prefix = prefix
	}
}

func New(ctx context.Context, bucket string, opts ...Option) (*Client, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is empty")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	c := &Client{
		client: client,
		bucket: bucket,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) objectName(notebookID types.NotebookID, pageID types.PageID, resourceID types.ResourceID, filename string) string {
	name := fmt.Sprintf("notebooks/%s/pages/%s/%s_%s", notebookID, pageID, resourceID, filename)
	if c.prefix != "" {
		return c.prefix + "/" + name
	}
	return name
}

// StoreAttachment writes the attachment bytes to the bucket. The object is
// overwritten when the same attachment is archived again.
func (c *Client) StoreAttachment(ctx context.Context, notebookID types.NotebookID, pageID types.PageID, resourceID types.ResourceID, filename string, data []byte) error {
	obj := c.objectName(notebookID, pageID, resourceID, filename)

	w := c.client.Bucket(c.bucket).Object(obj).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)
	w.Metadata = map[string]string{
		"notebook_id": string(notebookID),
		"page_id":     string(pageID),
		"resource_id": string(resourceID),
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write attachment object",
			goerr.V("bucket", c.bucket), goerr.V("object", obj))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize attachment object",
			goerr.V("bucket", c.bucket), goerr.V("object", obj))
	}

	return nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
