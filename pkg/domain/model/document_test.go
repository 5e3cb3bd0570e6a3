package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

func TestDocumentIDDeterministic(t *testing.T) {
	first := model.DocumentID("page-1", types.ContentTypePageText, 3)
	second := model.DocumentID("page-1", types.ContentTypePageText, 3)
	gt.Value(t, first).Equal(second)
	gt.Value(t, first).Equal("page-1-page_text-3")
}

func TestDocumentIDSanitizesKey(t *testing.T) {
	// OneNote ids carry '!' which index keys do not accept.
	got := model.DocumentID("1-abc!def", types.ContentTypeAttachment, 0)
	gt.Value(t, got).Equal("1-abc_def-attachment-0")
}

func TestDocumentIDDistinguishesOrdinalsAndTypes(t *testing.T) {
	a := model.DocumentID("p1", types.ContentTypePageText, 0)
	b := model.DocumentID("p1", types.ContentTypePageText, 1)
	c := model.DocumentID("p1", types.ContentTypeAttachment, 0)

	gt.Value(t, a).NotEqual(b)
	gt.Value(t, a).NotEqual(c)
	gt.Value(t, b).NotEqual(c)
}

func TestZeroVector(t *testing.T) {
	vec := model.ZeroVector()
	gt.Array(t, vec).Length(model.EmbeddingDimension)
	for _, v := range vec {
		gt.Value(t, v).Equal(float32(0))
	}
}

func TestIsProcessableContentType(t *testing.T) {
	gt.Bool(t, model.IsProcessableContentType("application/pdf")).True()
	gt.Bool(t, model.IsProcessableContentType("text/plain; charset=utf-8")).True()
	gt.Bool(t, model.IsProcessableContentType("image/png")).True()
	gt.Bool(t, model.IsProcessableContentType("application/zip")).False()
	gt.Bool(t, model.IsProcessableContentType("")).False()
}

func TestAttachmentRefFileExtension(t *testing.T) {
	ref := &model.AttachmentRef{Name: "Report.PDF"}
	gt.Value(t, ref.FileExtension()).Equal("pdf")

	ref = &model.AttachmentRef{Name: "noextension"}
	gt.Value(t, ref.FileExtension()).Equal("")
}
