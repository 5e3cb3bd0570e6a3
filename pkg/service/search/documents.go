package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

// indexAction is one document operation in a batch upload
type indexAction map[string]any

type indexBatch struct {
	Value []indexAction `json:"value"`
}

// toAction converts a document into a mergeOrUpload action. Writes go by
// deterministic id, so re-ingested content overwrites instead of growing
// the index.
func toAction(doc *model.IndexedDocument) indexAction {
	action := indexAction{
		"@search.action":     "mergeOrUpload",
		"id":                 doc.ID,
		"content":            doc.Content,
		"content_vector":     doc.ContentVector,
		"page_id":            doc.PageID.String(),
		"page_title":         doc.PageTitle,
		"section_id":         doc.SectionID.String(),
		"section_name":       doc.SectionName,
		"notebook_id":        doc.NotebookID.String(),
		"notebook_name":      doc.NotebookName,
		"content_type":       doc.ContentType.String(),
		"embedding_degraded": doc.EmbeddingDegraded,
	}
	if doc.AttachmentName != "" {
		action["attachment_filename"] = doc.AttachmentName
		action["attachment_filetype"] = doc.AttachmentType
	}
	if doc.LastModified != "" {
		action["last_modified"] = doc.LastModified
	}
	return action
}

// Upsert writes documents in bounded batches. Vector fields must already
// be populated; callers substitute a zero vector for degraded embeddings.
// Write failures propagate, since they are ingestion-correctness failures.
func (c *Client) Upsert(ctx context.Context, docs []*model.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	path := fmt.Sprintf("/indexes/%s/docs/index", c.indexName)

	for start := 0; start < len(docs); start += uploadBatchSize {
		end := start + uploadBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch := indexBatch{}
		for _, doc := range docs[start:end] {
			batch.Value = append(batch.Value, toAction(doc))
		}

		if _, _, err := c.do(ctx, http.MethodPost, path, batch); err != nil {
			return goerr.Wrap(err, "failed to upload documents",
				goerr.V("index", c.indexName), goerr.V("batchSize", end-start))
		}
	}

	logging.From(ctx).Debug("upserted documents", "index", c.indexName, "count", len(docs))
	return nil
}

// DeleteByNotebook enumerates all documents tagged with the notebook id
// and deletes them in bounded batches, returning the count. Used both for
// explicit deletion and as the first phase of reindexing.
func (c *Client) DeleteByNotebook(ctx context.Context, notebookID types.NotebookID) (int, error) {
	filter := BuildFilter(model.SearchCriteria{NotebookIDs: []types.NotebookID{notebookID}})

	deleted := 0
	for {
		ids, err := c.collectIDs(ctx, filter, deleteBatchSize)
		if err != nil {
			return deleted, err
		}
		if len(ids) == 0 {
			return deleted, nil
		}

		if err := c.deleteByIDs(ctx, ids); err != nil {
			return deleted, err
		}
		deleted += len(ids)

		// Deletes are eventually consistent; give the service a moment
		// before re-enumerating the remainder.
		select {
		case <-ctx.Done():
			return deleted, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// collectIDs fetches up to limit document ids matching the filter
func (c *Client) collectIDs(ctx context.Context, filter string, limit int) ([]string, error) {
	path := fmt.Sprintf("/indexes/%s/docs/search", c.indexName)

	req := map[string]any{
		"search": "*",
		"filter": filter,
		"select": "id",
		"top":    limit,
	}

	body, _, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to enumerate documents", goerr.V("filter", filter))
	}

	var resp struct {
		Value []struct {
			ID string `json:"id"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode enumeration response")
	}

	ids := make([]string, 0, len(resp.Value))
	for _, v := range resp.Value {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// deleteByIDs removes one batch of documents by key
func (c *Client) deleteByIDs(ctx context.Context, ids []string) error {
	path := fmt.Sprintf("/indexes/%s/docs/index", c.indexName)

	batch := indexBatch{}
	for _, id := range ids {
		batch.Value = append(batch.Value, indexAction{
			"@search.action": "delete",
			"id":             id,
		})
	}

	if _, _, err := c.do(ctx, http.MethodPost, path, batch); err != nil {
		return goerr.Wrap(err, "failed to delete documents", goerr.V("count", len(ids)))
	}
	return nil
}
