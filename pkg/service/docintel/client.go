package docintel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
	"github.com/scribe-lab/grimoire/pkg/utils/retryutil"
	"github.com/scribe-lab/grimoire/pkg/utils/safe"
)

const (
	// DefaultAPIVersion is the layout analysis API version
	DefaultAPIVersion = "2024-07-31-preview"

	// analyzeModel is the prebuilt layout model used for extraction
	analyzeModel = "prebuilt-layout"

	defaultPollInterval = 2 * time.Second
	defaultPollLimit    = 60
	requestTimeout      = 60 * time.Second
)

// DefaultSupportedExtensions lists the file extensions the analysis
// service accepts. Anything else short-circuits before a remote call.
var DefaultSupportedExtensions = []string{
	"pdf", "docx", "xlsx", "pptx", "doc", "xls", "ppt", "txt", "csv", "jpg", "jpeg", "png",
}

// Client submits attachment bytes to the document layout/OCR service and
// normalizes its output. It implements interfaces.Analyzer.
type Client struct {
	endpoint     string
	apiKey       string
	apiVersion   string
	httpClient   *http.Client
	retry        *retryutil.Policy
	pollInterval time.Duration
	pollLimit    int
	supported    map[string]struct{}
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithAPIVersion overrides the analysis API version
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

// WithPollInterval overrides the result polling interval (used by tests)
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithSupportedExtensions replaces the accepted extension set
func WithSupportedExtensions(exts []string) Option {
	return func(c *Client) {
		c.supported = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			c.supported[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
		}
	}
}

// New creates a document analysis client
func New(endpoint, apiKey string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, goerr.New("document analysis endpoint is required")
	}
	if apiKey == "" {
		return nil, goerr.New("document analysis API key is required")
	}

	c := &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		apiVersion:   DefaultAPIVersion,
		httpClient:   &http.Client{Timeout: requestTimeout},
		retry:        retryutil.New(),
		pollInterval: defaultPollInterval,
		pollLimit:    defaultPollLimit,
	}
	WithSupportedExtensions(DefaultSupportedExtensions)(c)

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Analyze submits attachment bytes for layout analysis and returns the
// normalized extraction output. Remote failures are converted into a
// failed result; they never propagate and abort the surrounding page.
func (c *Client) Analyze(ctx context.Context, data []byte, filename, contentType string) *interfaces.AnalysisResult {
	ext := fileExtension(filename)
	if _, ok := c.supported[ext]; !ok {
		return &interfaces.AnalysisResult{
			Success: false,
			Error:   fmt.Sprintf("unsupported file type: %s", ext),
		}
	}

	logger := logging.From(ctx)
	logger.Info("analyzing document", "filename", filename, "size", len(data), "contentType", contentType)

	opLocation, err := c.submit(ctx, data)
	if err != nil {
		logger.Warn("document analysis submit failed", "filename", filename, "error", err.Error())
		return &interfaces.AnalysisResult{Success: false, Error: err.Error()}
	}

	result, err := c.poll(ctx, opLocation)
	if err != nil {
		logger.Warn("document analysis failed", "filename", filename, "error", err.Error())
		return &interfaces.AnalysisResult{Success: false, Error: err.Error()}
	}

	content := normalizeResult(result)
	logger.Info("document analysis completed",
		"filename", filename,
		"pages", content.PageCount,
		"tables", content.TableCount,
		"contentLength", len(content.Content),
	)

	return &interfaces.AnalysisResult{Success: true, Content: content}
}

// submit starts an analysis operation and returns its polling URL
func (c *Client) submit(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s&features=languages,keyValuePairs&outputContentFormat=markdown",
		c.endpoint, analyzeModel, c.apiVersion)

	payload, err := json.Marshal(analyzeRequest{
		Base64Source: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode analyze request")
	}

	var opLocation string
	err = c.retry.Do(ctx, "analyze_submit", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return goerr.Wrap(err, "failed to build analyze request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer safe.Close(ctx, resp.Body)

		if resp.StatusCode != http.StatusAccepted {
			return retryutil.NewHTTPError(resp)
		}

		opLocation = resp.Header.Get("Operation-Location")
		if opLocation == "" {
			return goerr.New("analyze response carries no operation location")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return opLocation, nil
}

// poll waits for the asynchronous analysis to reach a terminal state
func (c *Client) poll(ctx context.Context, opLocation string) (*analyzeResult, error) {
	for i := 0; i < c.pollLimit; i++ {
		var op operationStatus
		err := c.retry.Do(ctx, "analyze_poll", func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, opLocation, nil)
			if err != nil {
				return goerr.Wrap(err, "failed to build poll request")
			}
			req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, resp.Body)

			if resp.StatusCode != http.StatusOK {
				return retryutil.NewHTTPError(resp)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			return json.Unmarshal(body, &op)
		})
		if err != nil {
			return nil, err
		}

		switch op.Status {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, goerr.New("analysis succeeded without a result")
			}
			return op.AnalyzeResult, nil
		case "failed":
			msg := "analysis failed"
			if op.Error != nil {
				msg = op.Error.Message
			}
			return nil, goerr.New(msg)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	return nil, goerr.New("analysis did not complete in time", goerr.V("opLocation", opLocation))
}

// normalizeResult converts the wire result into the uniform extraction
// record. Table content is rendered as markdown and appended so tabular
// data stays part of the searchable text stream.
func normalizeResult(result *analyzeResult) *model.ExtractedContent {
	content := &model.ExtractedContent{
		Content:    result.Content,
		PageCount:  len(result.Pages),
		TableCount: len(result.Tables),
	}

	for i, t := range result.Tables {
		table := toTable(t)
		content.Tables = append(content.Tables, table)
		content.Content += "\n\n" + renderTable(i, table)
	}

	for _, kv := range result.KeyValuePairs {
		if kv.Key == nil || kv.Value == nil || kv.Key.Content == "" || kv.Value.Content == "" {
			continue
		}
		content.KeyValuePairs = append(content.KeyValuePairs, model.KeyValuePair{
			Key:             kv.Key.Content,
			Value:           kv.Value.Content,
			KeyConfidence:   kv.Key.Confidence,
			ValueConfidence: kv.Value.Confidence,
		})
	}

	for _, lang := range result.Languages {
		content.Languages = append(content.Languages, model.DetectedLanguage{
			Locale:     lang.Locale,
			Confidence: lang.Confidence,
		})
	}

	for _, style := range result.Styles {
		if style.IsHandwritten {
			content.Handwritten = true
			break
		}
	}

	return content
}

func fileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
