package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

// searchDocument is the wire form of a query hit, including the
// service-assigned relevance scores.
type searchDocument struct {
	Score             float64 `json:"@search.score"`
	RerankerScore     float64 `json:"@search.rerankerScore"`
	ID                string  `json:"id"`
	Content           string  `json:"content"`
	PageID            string  `json:"page_id"`
	PageTitle         string  `json:"page_title"`
	SectionID         string  `json:"section_id"`
	SectionName       string  `json:"section_name"`
	NotebookID        string  `json:"notebook_id"`
	NotebookName      string  `json:"notebook_name"`
	ContentType       string  `json:"content_type"`
	AttachmentName    string  `json:"attachment_filename"`
	AttachmentType    string  `json:"attachment_filetype"`
	EmbeddingDegraded bool    `json:"embedding_degraded"`
	LastModified      string  `json:"last_modified"`
}

func (d *searchDocument) toHit() *model.SearchHit {
	return &model.SearchHit{
		Document: model.IndexedDocument{
			ID:                d.ID,
			Content:           d.Content,
			PageID:            types.PageID(d.PageID),
			PageTitle:         d.PageTitle,
			SectionID:         types.SectionID(d.SectionID),
			SectionName:       d.SectionName,
			NotebookID:        types.NotebookID(d.NotebookID),
			NotebookName:      d.NotebookName,
			ContentType:       types.ContentType(d.ContentType),
			AttachmentName:    d.AttachmentName,
			AttachmentType:    d.AttachmentType,
			EmbeddingDegraded: d.EmbeddingDegraded,
			LastModified:      d.LastModified,
		},
		Score:         d.Score,
		RerankerScore: d.RerankerScore,
	}
}

// Search executes a query in the given mode. Hybrid combines full-text
// and vector similarity; semantic additionally applies the reranking
// stage. Query failures degrade to an empty result set since search
// serves interactive, best-effort paths.
func (c *Client) Search(ctx context.Context, query string, vector []float32, criteria model.SearchCriteria, mode types.SearchMode, top int) ([]*model.SearchHit, error) {
	path := fmt.Sprintf("/indexes/%s/docs/search", c.indexName)

	req := map[string]any{
		"search": query,
		"top":    top,
	}
	if filter := BuildFilter(criteria); filter != "" {
		req["filter"] = filter
	}

	switch mode {
	case types.SearchModeKeyword:
		// full-text only
	case types.SearchModeFull:
		req["queryType"] = "full"
	case types.SearchModeSemantic:
		req["queryType"] = "semantic"
		req["semanticConfiguration"] = c.semanticCfg
		fallthrough
	default: // hybrid
		if len(vector) > 0 {
			req["vectorQueries"] = []map[string]any{
				{
					"kind":   "vector",
					"vector": vector,
					"k":      top,
					"fields": "content_vector",
				},
			}
		}
	}

	body, _, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		logging.From(ctx).Warn("search query failed, returning empty result",
			"index", c.indexName, "mode", mode.String(), "error", err.Error())
		return nil, nil
	}

	var resp struct {
		Value []searchDocument `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		logging.From(ctx).Warn("failed to decode search response, returning empty result",
			"index", c.indexName, "error", err.Error())
		return nil, nil
	}

	hits := make([]*model.SearchHit, 0, len(resp.Value))
	for i := range resp.Value {
		hits = append(hits, resp.Value[i].toHit())
	}
	return hits, nil
}

// Facets aggregates counts per metadata field for building filter UIs.
// Failures degrade to an empty result.
func (c *Client) Facets(ctx context.Context, query string, fields []string) (map[string][]model.FacetValue, error) {
	if query == "" {
		query = "*"
	}

	path := fmt.Sprintf("/indexes/%s/docs/search", c.indexName)
	req := map[string]any{
		"search": query,
		"facets": fields,
		"top":    0,
	}

	body, _, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		logging.From(ctx).Warn("facet query failed, returning empty result",
			"index", c.indexName, "error", err.Error())
		return map[string][]model.FacetValue{}, nil
	}

	var resp struct {
		Facets map[string][]struct {
			Value any   `json:"value"`
			Count int64 `json:"count"`
		} `json:"@search.facets"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return map[string][]model.FacetValue{}, nil
	}

	facets := make(map[string][]model.FacetValue, len(resp.Facets))
	for field, values := range resp.Facets {
		for _, v := range values {
			facets[field] = append(facets[field], model.FacetValue{
				Value: fmt.Sprintf("%v", v.Value),
				Count: v.Count,
			})
		}
	}
	return facets, nil
}

// Suggest returns short completion snippets for autocomplete. Failures
// degrade to an empty result.
func (c *Client) Suggest(ctx context.Context, query string, top int) ([]string, error) {
	path := fmt.Sprintf("/indexes/%s/docs/suggest", c.indexName)
	req := map[string]any{
		"search":        query,
		"suggesterName": suggesterName,
		"top":           top,
	}

	body, _, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		logging.From(ctx).Warn("suggest query failed, returning empty result",
			"index", c.indexName, "error", err.Error())
		return nil, nil
	}

	var resp struct {
		Value []struct {
			Text string `json:"@search.text"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		logging.From(ctx).Warn("failed to decode suggest response, returning empty result",
			"index", c.indexName, "error", err.Error())
		return nil, nil
	}

	suggestions := make([]string, 0, len(resp.Value))
	for _, v := range resp.Value {
		if v.Text != "" {
			suggestions = append(suggestions, v.Text)
		}
	}
	return suggestions, nil
}
