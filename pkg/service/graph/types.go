package graph

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
)

// Wire representations of the Graph OneNote API responses. Collection
// responses wrap their items in a "value" array.

type notebookDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type sectionDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type pageDTO struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	CreatedDateTime  time.Time `json:"createdDateTime"`
	LastModifiedTime time.Time `json:"lastModifiedDateTime"`
}

func decodeNotebooks(body []byte) ([]*model.Notebook, error) {
	var resp struct {
		Value []notebookDTO `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode notebook list")
	}

	notebooks := make([]*model.Notebook, 0, len(resp.Value))
	for _, nb := range resp.Value {
		notebooks = append(notebooks, &model.Notebook{
			ID:          types.NotebookID(nb.ID),
			DisplayName: nb.DisplayName,
		})
	}
	return notebooks, nil
}

func decodeSections(body []byte, notebookID types.NotebookID) ([]*model.Section, error) {
	var resp struct {
		Value []sectionDTO `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode section list")
	}

	sections := make([]*model.Section, 0, len(resp.Value))
	for _, s := range resp.Value {
		sections = append(sections, &model.Section{
			ID:          types.SectionID(s.ID),
			DisplayName: s.DisplayName,
			NotebookID:  notebookID,
		})
	}
	return sections, nil
}

func decodePages(body []byte, sectionID types.SectionID) ([]*model.Page, error) {
	var resp struct {
		Value []pageDTO `json:"value"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode page list")
	}

	pages := make([]*model.Page, 0, len(resp.Value))
	for _, p := range resp.Value {
		pages = append(pages, &model.Page{
			ID:           types.PageID(p.ID),
			Title:        p.Title,
			SectionID:    sectionID,
			CreatedTime:  p.CreatedDateTime,
			ModifiedTime: p.LastModifiedTime,
		})
	}
	return pages, nil
}
