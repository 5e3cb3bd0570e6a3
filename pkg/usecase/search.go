package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/service/chat"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

const defaultSearchTop = 10

// Search runs an index query in the given mode. Hybrid and semantic modes
// embed the query first; when embedding fails the query degrades to
// keyword matching instead of failing.
func (uc *UseCases) Search(ctx context.Context, query string, criteria model.SearchCriteria, mode types.SearchMode, top int) ([]*model.SearchHit, error) {
	if query == "" {
		return nil, goerr.New("query is empty")
	}
	if top <= 0 {
		top = defaultSearchTop
	}

	var vector []float32
	if mode == types.SearchModeHybrid || mode == types.SearchModeSemantic {
		vectors, err := uc.embedder.Embed(ctx, []string{query})
		if err != nil || len(vectors) != 1 {
			logging.From(ctx).Warn("failed to embed query, falling back to keyword search",
				"query", query)
			mode = types.SearchModeKeyword
		} else {
			vector = vectors[0]
		}
	}

	return uc.index.Search(ctx, query, vector, criteria, mode, top)
}

// AnswerWithSearch retrieves relevant chunks and composes a grounded
// answer with citations.
func (uc *UseCases) AnswerWithSearch(ctx context.Context, question string, criteria model.SearchCriteria, mode types.SearchMode, top int) (*chat.Result, error) {
	if uc.chat == nil {
		return nil, goerr.New("chat service is not configured")
	}

	hits, err := uc.Search(ctx, question, criteria, mode, top)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search for answer context")
	}

	return uc.chat.Answer(ctx, question, hits)
}

// defaultFacetFields are the metadata fields the filter UI aggregates on
var defaultFacetFields = []string{
	"notebook_name",
	"section_name",
	"content_type",
	"attachment_filetype",
}

func (uc *UseCases) Facets(ctx context.Context, query string, fields []string) (map[string][]model.FacetValue, error) {
	if query == "" {
		query = "*"
	}
	if len(fields) == 0 {
		fields = defaultFacetFields
	}
	return uc.index.Facets(ctx, query, fields)
}

func (uc *UseCases) Suggestions(ctx context.Context, query string, top int) ([]string, error) {
	if query == "" {
		return nil, nil
	}
	if top <= 0 {
		top = 5
	}
	return uc.index.Suggest(ctx, query, top)
}
