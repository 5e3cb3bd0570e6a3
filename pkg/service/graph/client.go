package graph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/retryutil"
	"github.com/scribe-lab/grimoire/pkg/utils/safe"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// proactiveRate throttles requests ahead of the server-side limit.
	proactiveRate = 4.0

	requestTimeout = 30 * time.Second
)

// Client talks to the OneNote hierarchy through the Microsoft Graph REST
// API. All calls are read-only and guarded by the retry policy; a token
// bucket throttles proactively so the retry path is the exception, not
// the norm.
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
	retry      *retryutil.Policy
	limiter    *rate.Limiter
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithBaseURL overrides the Graph endpoint (used by tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryPolicy overrides the retry policy
func WithRetryPolicy(p *retryutil.Policy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// New creates a Graph client with the provided bearer credential. Token
// acquisition itself happens upstream; the credential is used as-is.
func New(credential string, opts ...Option) (*Client, error) {
	if credential == "" {
		return nil, goerr.New("source credential is required")
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		credential: credential,
		httpClient: &http.Client{Timeout: requestTimeout},
		retry:      retryutil.New(),
		limiter:    rate.NewLimiter(rate.Limit(proactiveRate), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// get performs one authorized GET, returning the response on 2xx and a
// retryutil.HTTPError otherwise. The caller owns the response body.
func (c *Client) get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", url))
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := retryutil.NewHTTPError(resp)
		safe.Close(ctx, resp.Body)
		return nil, httpErr
	}

	return resp, nil
}

// getBody performs an authorized GET under the retry policy and returns
// the whole response body.
func (c *Client) getBody(ctx context.Context, name, url string) ([]byte, error) {
	var body []byte
	err := c.retry.Do(ctx, name, func(ctx context.Context) error {
		resp, err := c.get(ctx, url, nil)
		if err != nil {
			return err
		}
		defer safe.Close(ctx, resp.Body)

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ListNotebooks retrieves all notebooks visible to the credential
func (c *Client) ListNotebooks(ctx context.Context) ([]*model.Notebook, error) {
	body, err := c.getBody(ctx, "list_notebooks", c.baseURL+"/me/onenote/notebooks")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notebooks")
	}
	return decodeNotebooks(body)
}

// ListSections retrieves the sections of a notebook
func (c *Client) ListSections(ctx context.Context, notebookID types.NotebookID) ([]*model.Section, error) {
	url := fmt.Sprintf("%s/me/onenote/notebooks/%s/sections", c.baseURL, notebookID)
	body, err := c.getBody(ctx, "list_sections", url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sections", goerr.V("notebookID", notebookID))
	}
	return decodeSections(body, notebookID)
}

// ListPages retrieves the pages of a section
func (c *Client) ListPages(ctx context.Context, sectionID types.SectionID) ([]*model.Page, error) {
	url := fmt.Sprintf("%s/me/onenote/sections/%s/pages", c.baseURL, sectionID)
	body, err := c.getBody(ctx, "list_pages", url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pages", goerr.V("sectionID", sectionID))
	}
	return decodePages(body, sectionID)
}

// GetPageContent retrieves a page's rendered markup and derives the plain
// text form used for chunking. The markup is retained for attachment
// discovery.
func (c *Client) GetPageContent(ctx context.Context, pageID types.PageID) (*model.PageContent, error) {
	url := fmt.Sprintf("%s/me/onenote/pages/%s/content", c.baseURL, pageID)
	body, err := c.getBody(ctx, "get_page_content", url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get page content", goerr.V("pageID", pageID))
	}

	html := string(body)
	return &model.PageContent{
		HTML: html,
		Text: HTMLToText(html),
	}, nil
}

// DownloadResource fetches the full content of an embedded resource
func (c *Client) DownloadResource(ctx context.Context, resourceID types.ResourceID) ([]byte, error) {
	url := fmt.Sprintf("%s/me/onenote/resources/%s/content", c.baseURL, resourceID)
	body, err := c.getBody(ctx, "download_resource", url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download resource", goerr.V("resourceID", resourceID))
	}
	return body, nil
}
