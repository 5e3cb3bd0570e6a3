package search

import (
	"context"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

// Index schema wire types. Only the subset of the management API this
// service uses is modeled.

type indexSchema struct {
	Name       string          `json:"name"`
	Fields     []fieldSchema   `json:"fields"`
	VectorCfg  *vectorSearch   `json:"vectorSearch,omitempty"`
	Semantic   *semanticSearch `json:"semantic,omitempty"`
	Suggesters []suggester     `json:"suggesters,omitempty"`
}

type fieldSchema struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Key           bool   `json:"key,omitempty"`
	Searchable    bool   `json:"searchable"`
	Filterable    bool   `json:"filterable"`
	Facetable     bool   `json:"facetable"`
	Sortable      bool   `json:"sortable"`
	Retrievable   bool   `json:"retrievable"`
	Dimensions    int    `json:"dimensions,omitempty"`
	VectorProfile string `json:"vectorSearchProfile,omitempty"`
}

type vectorSearch struct {
	Algorithms []vectorAlgorithm `json:"algorithms"`
	Profiles   []vectorProfile   `json:"profiles"`
}

type vectorAlgorithm struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type vectorProfile struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

type semanticSearch struct {
	Configurations []semanticConfiguration `json:"configurations"`
}

type semanticConfiguration struct {
	Name              string              `json:"name"`
	PrioritizedFields semanticFieldConfig `json:"prioritizedFields"`
}

type semanticFieldConfig struct {
	TitleField    semanticField   `json:"titleField"`
	ContentFields []semanticField `json:"prioritizedContentFields"`
}

type semanticField struct {
	FieldName string `json:"fieldName"`
}

type suggester struct {
	Name         string   `json:"name"`
	SearchMode   string   `json:"searchMode"`
	SourceFields []string `json:"sourceFields"`
}

const (
	vectorAlgorithmName = "hnsw-default"
	vectorProfileName   = "vector-profile"
	suggesterName       = "sg"
)

// buildSchema returns the full index definition: key field, full-text
// fields, filterable/facetable metadata, and a fixed-dimensionality
// vector field with an approximate-nearest-neighbor profile.
func (c *Client) buildSchema() *indexSchema {
	return &indexSchema{
		Name: c.indexName,
		Fields: []fieldSchema{
			{Name: "id", Type: "Edm.String", Key: true, Filterable: true, Retrievable: true},
			{Name: "content", Type: "Edm.String", Searchable: true, Retrievable: true},
			{Name: "content_vector", Type: "Collection(Edm.Single)", Searchable: true, Retrievable: true,
				Dimensions: model.EmbeddingDimension, VectorProfile: vectorProfileName},
			{Name: "page_id", Type: "Edm.String", Filterable: true, Retrievable: true},
			{Name: "page_title", Type: "Edm.String", Searchable: true, Filterable: true, Facetable: true, Retrievable: true},
			{Name: "section_id", Type: "Edm.String", Filterable: true, Retrievable: true},
			{Name: "section_name", Type: "Edm.String", Searchable: true, Filterable: true, Facetable: true, Retrievable: true},
			{Name: "notebook_id", Type: "Edm.String", Filterable: true, Facetable: true, Retrievable: true},
			{Name: "notebook_name", Type: "Edm.String", Searchable: true, Filterable: true, Facetable: true, Retrievable: true},
			{Name: "content_type", Type: "Edm.String", Filterable: true, Facetable: true, Retrievable: true},
			{Name: "attachment_filename", Type: "Edm.String", Searchable: true, Filterable: true, Retrievable: true},
			{Name: "attachment_filetype", Type: "Edm.String", Filterable: true, Facetable: true, Retrievable: true},
			{Name: "embedding_degraded", Type: "Edm.Boolean", Filterable: true, Retrievable: true},
			{Name: "last_modified", Type: "Edm.DateTimeOffset", Filterable: true, Sortable: true, Retrievable: true},
		},
		VectorCfg: &vectorSearch{
			Algorithms: []vectorAlgorithm{{Name: vectorAlgorithmName, Kind: "hnsw"}},
			Profiles:   []vectorProfile{{Name: vectorProfileName, Algorithm: vectorAlgorithmName}},
		},
		Semantic: &semanticSearch{
			Configurations: []semanticConfiguration{
				{
					Name: c.semanticCfg,
					PrioritizedFields: semanticFieldConfig{
						TitleField:    semanticField{FieldName: "page_title"},
						ContentFields: []semanticField{{FieldName: "content"}},
					},
				},
			},
		},
		Suggesters: []suggester{
			{
				Name:         suggesterName,
				SearchMode:   "analyzingInfixMatching",
				SourceFields: []string{"page_title", "attachment_filename"},
			},
		},
	}
}

// EnsureIndex idempotently creates the index when it does not already
// exist. A pre-existing index is left untouched so schema drift never
// destroys indexed content.
func (c *Client) EnsureIndex(ctx context.Context) error {
	path := fmt.Sprintf("/indexes/%s", c.indexName)

	_, status, err := c.do(ctx, http.MethodGet, path, nil, http.StatusNotFound)
	if err != nil {
		return goerr.Wrap(err, "failed to check index existence", goerr.V("index", c.indexName))
	}
	if status == http.StatusOK {
		logging.From(ctx).Debug("search index already exists", "index", c.indexName)
		return nil
	}

	if _, _, err := c.do(ctx, http.MethodPut, path, c.buildSchema()); err != nil {
		return goerr.Wrap(err, "failed to create search index", goerr.V("index", c.indexName))
	}

	logging.From(ctx).Info("created search index", "index", c.indexName, "dimensions", model.EmbeddingDimension)
	return nil
}

// DeleteIndex removes the index entirely. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context) error {
	path := fmt.Sprintf("/indexes/%s", c.indexName)
	if _, _, err := c.do(ctx, http.MethodDelete, path, nil, http.StatusNotFound); err != nil {
		return goerr.Wrap(err, "failed to delete search index", goerr.V("index", c.indexName))
	}
	return nil
}
