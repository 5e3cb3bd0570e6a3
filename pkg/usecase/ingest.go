package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/service/chunker"
	"github.com/scribe-lab/grimoire/pkg/utils/errutil"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

// Ingest walks one notebook's sections and pages, chunking and indexing
// page text and processable attachments. Page and attachment failures are
// counted and skipped; only a failure to list the hierarchy itself, or to
// ensure the index schema, fails the run.
func (uc *UseCases) Ingest(ctx context.Context, credential string, notebookID types.NotebookID, notebookName string) (*model.IngestionSummary, error) {
	source, err := uc.newSource(credential)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create content source")
	}

	if err := uc.index.EnsureIndex(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to ensure search index")
	}

	if notebookName == "" {
		notebookName = uc.resolveNotebookName(ctx, source, notebookID)
	}

	summary := &model.IngestionSummary{
		BatchID:    uuid.New().String(),
		NotebookID: notebookID,
		StartedAt:  time.Now().UTC(),
	}

	logger := logging.From(ctx)
	logger.Info("ingestion started",
		"batchID", summary.BatchID,
		"notebookID", notebookID,
		"notebookName", notebookName)

	sections, err := source.ListSections(ctx, notebookID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sections", goerr.V("notebookID", notebookID))
	}

	for _, section := range sections {
		pages, err := source.ListPages(ctx, section.ID)
		if err != nil {
			errutil.Handle(ctx, err, "failed to list pages")
			summary.Stats.Errors++
			continue
		}

		for _, page := range pages {
			if err := uc.ingestPage(ctx, source, notebookID, notebookName, section, page, summary); err != nil {
				errutil.Handle(ctx, err, "failed to ingest page")
				summary.Stats.Errors++
			}
		}
	}

	summary.FinishedAt = time.Now().UTC()
	summary.Success = summary.Stats.Errors == 0

	logger.Info("ingestion finished",
		"batchID", summary.BatchID,
		"notebookID", notebookID,
		"pagesProcessed", summary.Stats.PagesProcessed,
		"attachmentsProcessed", summary.Stats.AttachmentsProcessed,
		"attachmentsSkipped", summary.Stats.AttachmentsSkipped,
		"chunksCreated", summary.Stats.ChunksCreated,
		"degradedEmbeddings", summary.Stats.DegradedEmbeddings,
		"errors", summary.Stats.Errors,
		"duration", summary.Duration().String())

	return summary, nil
}

// resolveNotebookName looks up the display name so indexed documents carry
// it. Lookup failure is tolerable: documents are still filterable by id.
func (uc *UseCases) resolveNotebookName(ctx context.Context, source interfaces.Source, notebookID types.NotebookID) string {
	notebooks, err := source.ListNotebooks(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to resolve notebook name", "notebookID", notebookID, "error", err.Error())
		return ""
	}
	for _, nb := range notebooks {
		if nb.ID == notebookID {
			return nb.DisplayName
		}
	}
	return ""
}

func (uc *UseCases) ingestPage(ctx context.Context, source interfaces.Source, notebookID types.NotebookID, notebookName string, section *model.Section, page *model.Page, summary *model.IngestionSummary) error {
	content, err := source.GetPageContent(ctx, page.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch page content", goerr.V("pageID", page.ID))
	}

	meta := documentMeta{
		NotebookID:   notebookID,
		NotebookName: notebookName,
		SectionID:    section.ID,
		SectionName:  section.DisplayName,
		PageID:       page.ID,
		PageTitle:    page.Title,
		LastModified: page.ModifiedTime,
	}

	if text := strings.TrimSpace(content.Text); text != "" {
		chunks := chunker.Split(text, uc.config.ChunkSize, uc.config.ChunkOverlap)
		if err := uc.indexChunks(ctx, meta, types.ContentTypePageText, chunks, 0, summary); err != nil {
			return goerr.Wrap(err, "failed to index page text", goerr.V("pageID", page.ID))
		}
	}

	summary.Stats.PagesProcessed++

	if uc.config.EnableAttachments && uc.analyzer != nil {
		refs, err := source.DiscoverAttachments(ctx, content.HTML)
		if err != nil {
			errutil.Handle(ctx, err, "failed to discover attachments")
			summary.Stats.Errors++
			return nil
		}

		// One ordinal space per page for attachment chunks. Discovery
		// order is deterministic, so re-ingestion reproduces the ids.
		ordinal := 0
		for _, ref := range refs {
			next, err := uc.processAttachment(ctx, source, meta, ref, ordinal, summary)
			if err != nil {
				errutil.Handle(ctx, err, "failed to process attachment")
				summary.Stats.Errors++
				continue
			}
			ordinal = next
		}
	}

	return nil
}

// processAttachment returns the next free attachment chunk ordinal for the
// page, whether or not this attachment produced documents.
func (uc *UseCases) processAttachment(ctx context.Context, source interfaces.Source, meta documentMeta, ref *model.AttachmentRef, ordinal int, summary *model.IngestionSummary) (int, error) {
	logger := logging.From(ctx)

	if uc.config.MaxAttachmentSize > 0 && ref.Size > uc.config.MaxAttachmentSize {
		logger.Info("skipping oversized attachment",
			"pageID", meta.PageID,
			"resourceID", ref.ID,
			"name", ref.Name,
			"size", ref.Size,
			"limit", uc.config.MaxAttachmentSize)
		summary.Stats.AttachmentsSkipped++
		return ordinal, nil
	}

	data, err := source.DownloadResource(ctx, ref.ID)
	if err != nil {
		return ordinal, goerr.Wrap(err, "failed to download attachment",
			goerr.V("resourceID", ref.ID), goerr.V("name", ref.Name))
	}

	if uc.archive != nil {
		if err := uc.archive.StoreAttachment(ctx, meta.NotebookID, meta.PageID, ref.ID, ref.Name, data); err != nil {
			logger.Warn("failed to archive attachment",
				"resourceID", ref.ID, "name", ref.Name, "error", err.Error())
		}
	}

	result := uc.analyzer.Analyze(ctx, data, ref.Name, ref.ContentType)
	if !result.Success {
		return ordinal, goerr.New("attachment analysis failed",
			goerr.V("resourceID", ref.ID),
			goerr.V("name", ref.Name),
			goerr.V("reason", result.Error))
	}

	text := strings.TrimSpace(result.Content.Content)
	if text == "" {
		logger.Info("skipping attachment with empty extraction",
			"resourceID", ref.ID, "name", ref.Name)
		summary.Stats.AttachmentsSkipped++
		return ordinal, nil
	}

	attMeta := meta
	attMeta.PageTitle = meta.PageTitle + " - " + ref.Name
	attMeta.AttachmentName = ref.Name
	attMeta.AttachmentType = ref.FileExtension()

	chunks := chunker.Split(text, uc.config.ChunkSize, uc.config.ChunkOverlap)
	for i := range chunks {
		chunks[i] = "Attachment: " + ref.Name + "\n\n" + chunks[i]
	}

	if err := uc.indexChunks(ctx, attMeta, types.ContentTypeAttachment, chunks, ordinal, summary); err != nil {
		return ordinal, goerr.Wrap(err, "failed to index attachment",
			goerr.V("resourceID", ref.ID), goerr.V("name", ref.Name))
	}

	summary.Stats.AttachmentsProcessed++
	return ordinal + len(chunks), nil
}

// documentMeta carries the per-page identity fields copied into every
// indexed document.
type documentMeta struct {
	NotebookID     types.NotebookID
	NotebookName   string
	SectionID      types.SectionID
	SectionName    string
	PageID         types.PageID
	PageTitle      string
	LastModified   time.Time
	AttachmentName string
	AttachmentType string
}

// indexChunks embeds the chunks as one batch and upserts the resulting
// documents. Embedding failure degrades to zero vectors instead of failing
// the page; index write failure propagates.
func (uc *UseCases) indexChunks(ctx context.Context, meta documentMeta, contentType types.ContentType, chunks []string, baseOrdinal int, summary *model.IngestionSummary) error {
	if len(chunks) == 0 {
		return nil
	}

	vectors, degraded := uc.embedChunks(ctx, chunks)
	summary.Stats.DegradedEmbeddings += degraded

	docs := make([]*model.IndexedDocument, 0, len(chunks))
	for i, chunk := range chunks {
		doc := &model.IndexedDocument{
			ID:                model.DocumentID(meta.PageID, contentType, baseOrdinal+i),
			Content:           chunk,
			ContentVector:     vectors[i],
			PageID:            meta.PageID,
			PageTitle:         meta.PageTitle,
			SectionID:         meta.SectionID,
			SectionName:       meta.SectionName,
			NotebookID:        meta.NotebookID,
			NotebookName:      meta.NotebookName,
			ContentType:       contentType,
			AttachmentName:    meta.AttachmentName,
			AttachmentType:    meta.AttachmentType,
			EmbeddingDegraded: isZeroVector(vectors[i]),
		}
		if !meta.LastModified.IsZero() {
			doc.LastModified = meta.LastModified.UTC().Format(time.RFC3339)
		}
		docs = append(docs, doc)
	}

	if err := uc.index.Upsert(ctx, docs); err != nil {
		return goerr.Wrap(err, "failed to upsert documents", goerr.V("count", len(docs)))
	}

	summary.Stats.ChunksCreated += len(docs)
	return nil
}

// embedChunks returns one vector per chunk. A failed or malformed batch is
// replaced with zero vectors so the documents stay keyword-searchable; the
// second return value counts how many were degraded this way.
func (uc *UseCases) embedChunks(ctx context.Context, chunks []string) ([][]float32, int) {
	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil || len(vectors) != len(chunks) {
		if err != nil {
			logging.From(ctx).Warn("embedding failed, substituting zero vectors",
				"chunks", len(chunks), "error", err.Error())
		} else {
			logging.From(ctx).Warn("embedding count mismatch, substituting zero vectors",
				"chunks", len(chunks), "vectors", len(vectors))
		}
		vectors = make([][]float32, len(chunks))
		for i := range vectors {
			vectors[i] = model.ZeroVector()
		}
		return vectors, len(chunks)
	}

	degraded := 0
	for i, vec := range vectors {
		if len(vec) != uc.embedder.Dimension() {
			vectors[i] = model.ZeroVector()
			degraded++
		}
	}
	if degraded > 0 {
		logging.From(ctx).Warn("malformed embedding vectors replaced", "count", degraded)
	}

	return vectors, degraded
}

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return len(vec) > 0
}
