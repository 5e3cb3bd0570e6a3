package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/utils/retryutil"
	"github.com/scribe-lab/grimoire/pkg/utils/safe"
)

const (
	// DefaultAPIVersion is the search service REST API version
	DefaultAPIVersion = "2023-11-01"

	// DefaultSemanticConfiguration names the semantic ranking configuration
	// created with the index schema.
	DefaultSemanticConfiguration = "default"

	// uploadBatchSize bounds one document upload request
	uploadBatchSize = 1000

	// deleteBatchSize bounds one document delete request
	deleteBatchSize = 500

	requestTimeout = 30 * time.Second
)

// Client manages the search index: schema lifecycle, document writes,
// queries, facets and suggestions. It implements interfaces.Index.
type Client struct {
	endpoint    string
	indexName   string
	apiKey      string
	apiVersion  string
	semanticCfg string
	httpClient  *http.Client
	retry       *retryutil.Policy
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithAPIVersion overrides the REST API version
func WithAPIVersion(v string) Option {
	return func(c *Client) {
		c.apiVersion = v
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSemanticConfiguration overrides the semantic configuration name
func WithSemanticConfiguration(name string) Option {
	return func(c *Client) {
		c.semanticCfg = name
	}
}

// WithRetryPolicy overrides the retry policy
func WithRetryPolicy(p *retryutil.Policy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// New creates a search index client
func New(endpoint, indexName, apiKey string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, goerr.New("search endpoint is required")
	}
	if indexName == "" {
		return nil, goerr.New("search index name is required")
	}
	if apiKey == "" {
		return nil, goerr.New("search API key is required")
	}

	c := &Client{
		endpoint:    endpoint,
		indexName:   indexName,
		apiKey:      apiKey,
		apiVersion:  DefaultAPIVersion,
		semanticCfg: DefaultSemanticConfiguration,
		httpClient:  &http.Client{Timeout: requestTimeout},
		retry:       retryutil.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// do performs one request against the service under the retry policy,
// returning the response body and status code. Expected non-2xx statuses
// (e.g. 404 on index lookup) are reported through the status code with a
// nil error only when listed in accept.
func (c *Client) do(ctx context.Context, method, path string, body any, accept ...int) ([]byte, int, error) {
	u := fmt.Sprintf("%s%s?api-version=%s", c.endpoint, path, url.QueryEscape(c.apiVersion))

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to encode request body", goerr.V("path", path))
		}
	}

	var respBody []byte
	var status int

	err := c.retry.Do(ctx, method+" "+path, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return goerr.Wrap(err, "failed to build request", goerr.V("path", path))
		}
		req.Header.Set("api-key", c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer safe.Close(ctx, resp.Body)

		status = resp.StatusCode
		if status >= 200 && status < 300 {
			respBody, err = io.ReadAll(resp.Body)
			return err
		}

		for _, a := range accept {
			if status == a {
				respBody = nil
				return nil
			}
		}

		return retryutil.NewHTTPError(resp)
	})
	if err != nil {
		return nil, status, err
	}

	return respBody, status, nil
}
