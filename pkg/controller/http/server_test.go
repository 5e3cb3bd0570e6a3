package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/scribe-lab/grimoire/pkg/controller/http"
	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/repository/memory"
	"github.com/scribe-lab/grimoire/pkg/usecase"
)

type stubSource struct{}

func (s *stubSource) ListNotebooks(ctx context.Context) ([]*model.Notebook, error) {
	return []*model.Notebook{{ID: "nb1", DisplayName: "Work"}}, nil
}

func (s *stubSource) ListSections(ctx context.Context, notebookID types.NotebookID) ([]*model.Section, error) {
	return []*model.Section{{ID: "sec1", DisplayName: "Meetings", NotebookID: notebookID}}, nil
}

func (s *stubSource) ListPages(ctx context.Context, sectionID types.SectionID) ([]*model.Page, error) {
	return []*model.Page{{ID: "p1", Title: "Standup", SectionID: sectionID}}, nil
}

func (s *stubSource) GetPageContent(ctx context.Context, pageID types.PageID) (*model.PageContent, error) {
	return &model.PageContent{HTML: "<p>notes</p>", Text: "notes"}, nil
}

func (s *stubSource) DiscoverAttachments(ctx context.Context, pageHTML string) ([]*model.AttachmentRef, error) {
	return nil, nil
}

func (s *stubSource) DownloadResource(ctx context.Context, resourceID types.ResourceID) ([]byte, error) {
	return nil, nil
}

type stubIndex struct {
	mu   sync.Mutex
	docs map[string]*model.IndexedDocument
	hits []*model.SearchHit
}

func newStubIndex() *stubIndex {
	return &stubIndex{docs: make(map[string]*model.IndexedDocument)}
}

func (f *stubIndex) EnsureIndex(ctx context.Context) error { return nil }
func (f *stubIndex) DeleteIndex(ctx context.Context) error { return nil }

func (f *stubIndex) Upsert(ctx context.Context, docs []*model.IndexedDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range docs {
		f.docs[doc.ID] = doc
	}
	return nil
}

func (f *stubIndex) Search(ctx context.Context, query string, vector []float32, criteria model.SearchCriteria, mode types.SearchMode, top int) ([]*model.SearchHit, error) {
	return f.hits, nil
}

func (f *stubIndex) DeleteByNotebook(ctx context.Context, notebookID types.NotebookID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, doc := range f.docs {
		if doc.NotebookID == notebookID {
			delete(f.docs, id)
			count++
		}
	}
	return count, nil
}

func (f *stubIndex) Facets(ctx context.Context, query string, fields []string) (map[string][]model.FacetValue, error) {
	return map[string][]model.FacetValue{
		"content_type": {{Value: "page_text", Count: 12}},
	}, nil
}

func (f *stubIndex) Suggest(ctx context.Context, query string, top int) ([]string, error) {
	return []string{"standup notes"}, nil
}

type stubEmbedder struct{}

func (f *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, model.EmbeddingDimension)
		vectors[i][0] = 1.0
	}
	return vectors, nil
}

func (f *stubEmbedder) Dimension() int { return model.EmbeddingDimension }

func newTestServer(t *testing.T) (*httpctrl.Server, interfaces.Repository, *stubIndex) {
	t.Helper()

	repo := memory.New()
	index := newStubIndex()
	uc := usecase.New(repo, index, &stubEmbedder{},
		usecase.WithSourceFactory(func(credential string) (interfaces.Source, error) {
			return &stubSource{}, nil
		}),
	)

	srv, err := httpctrl.New(uc)
	gt.NoError(t, err).Required()
	return srv, repo, index
}

func doRequest(srv *httpctrl.Server, method, path, token string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), "ok")).True()
}

func TestCredentialRequired(t *testing.T) {
	srv, _, _ := newTestServer(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/notebooks/"},
		{http.MethodGet, "/api/notebooks/nb1/sections"},
		{http.MethodGet, "/api/sections/sec1/pages"},
		{http.MethodPost, "/api/ingestion/"},
	}
	for _, tc := range cases {
		rec := doRequest(srv, tc.method, tc.path, "", "")
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	}

	// Malformed header is also rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/notebooks/", nil)
	req.Header.Set("Authorization", "Basic dXNlcg==")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
}

func TestListNotebooks(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/notebooks/", "token", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Notebooks []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"notebooks"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Array(t, resp.Notebooks).Length(1).Required()
	gt.Value(t, resp.Notebooks[0].ID).Equal("nb1")
	gt.Value(t, resp.Notebooks[0].Name).Equal("Work")
}

func TestListSectionsAndPages(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/notebooks/nb1/sections", "token", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), "Meetings")).True()

	rec = doRequest(srv, http.MethodGet, "/api/sections/sec1/pages", "token", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), "Standup")).True()
}

func TestStartIngestionValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/ingestion/", "token", "not json")
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

	rec = doRequest(srv, http.MethodPost, "/api/ingestion/", "token", `{"notebook_name":"Work"}`)
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestStartIngestionAccepted(t *testing.T) {
	srv, repo, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/ingestion/", "token", `{"notebook_id":"nb1","notebook_name":"Work"}`)
	gt.Number(t, rec.Code).Equal(http.StatusAccepted)

	var resp struct {
		ID         string `json:"id"`
		NotebookID string `json:"notebook_id"`
		Status     string `json:"status"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Value(t, resp.NotebookID).Equal("nb1")
	gt.Value(t, resp.Status).Equal("running")
	gt.Bool(t, resp.ID != "").True()

	// The dispatched run lands in the job record.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := repo.GetJob(context.Background(), types.JobID(resp.ID))
		gt.NoError(t, err).Required()
		if job.Status.IsTerminal() {
			gt.Value(t, job.Status).Equal(types.JobStatusCompleted)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not complete")
}

func TestGetJobNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/ingestion/no-such-job", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusNotFound)
}

func TestListJobs(t *testing.T) {
	srv, repo, _ := newTestServer(t)

	job := model.NewIngestionJob("nb1")
	gt.NoError(t, repo.PutJob(context.Background(), job)).Required()

	rec := doRequest(srv, http.MethodGet, "/api/ingestion/?notebook_id=nb1", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), string(job.ID))).True()

	rec = doRequest(srv, http.MethodGet, "/api/ingestion/?notebook_id=other", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), string(job.ID))).False()
}

func TestSearchEndpoint(t *testing.T) {
	srv, _, index := newTestServer(t)
	index.hits = []*model.SearchHit{
		{
			Document: model.IndexedDocument{
				ID:          "p1-page_text-0",
				Content:     "standup notes",
				PageID:      "p1",
				PageTitle:   "Standup",
				NotebookID:  "nb1",
				ContentType: types.ContentTypePageText,
			},
			Score: 1.5,
		},
	}

	rec := doRequest(srv, http.MethodGet, "/api/search?q=standup&mode=keyword&top=5", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		Hits []struct {
			ID        string  `json:"id"`
			PageTitle string  `json:"page_title"`
			Score     float64 `json:"score"`
		} `json:"hits"`
		Total int    `json:"total"`
		Mode  string `json:"mode"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Number(t, resp.Total).Equal(1)
	gt.Value(t, resp.Mode).Equal("keyword")
	gt.Array(t, resp.Hits).Length(1).Required()
	gt.Value(t, resp.Hits[0].ID).Equal("p1-page_text-0")
	gt.Value(t, resp.Hits[0].Score).Equal(1.5)
}

func TestSearchEndpointValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/search", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

	rec = doRequest(srv, http.MethodGet, "/api/search?q=x&mode=fuzzy", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

	rec = doRequest(srv, http.MethodGet, "/api/search?q=x&top=abc", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

	rec = doRequest(srv, http.MethodGet, "/api/search?q=x&content_type=video", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

	rec = doRequest(srv, http.MethodGet, "/api/search?q=x&date_from=yesterday", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

	rec = doRequest(srv, http.MethodGet, "/api/search?q=x&has_attachments=maybe", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestFacetsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/facets", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), "page_text")).True()
}

func TestSuggestEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/suggest?q=stand", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Bool(t, strings.Contains(rec.Body.String(), "standup notes")).True()

	rec = doRequest(srv, http.MethodGet, "/api/suggest", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestChatEndpointValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/chat", "", `{"search_mode":"hybrid"}`)
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

	rec = doRequest(srv, http.MethodPost, "/api/chat", "", `{"message":"hi","search_mode":"fuzzy"}`)
	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestDeleteNotebookEndpoint(t *testing.T) {
	srv, _, index := newTestServer(t)
	index.docs["d1"] = &model.IndexedDocument{ID: "d1", NotebookID: "nb1"}
	index.docs["d2"] = &model.IndexedDocument{ID: "d2", NotebookID: "nb1"}
	index.docs["d3"] = &model.IndexedDocument{ID: "d3", NotebookID: "other"}

	rec := doRequest(srv, http.MethodDelete, "/api/notebooks/nb1/index", "", "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var resp struct {
		DeletedCount int `json:"deleted_count"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Number(t, resp.DeletedCount).Equal(2)
}

func TestReindexNotebookEndpoint(t *testing.T) {
	srv, _, index := newTestServer(t)
	index.docs["d1"] = &model.IndexedDocument{ID: "d1", NotebookID: "nb1"}

	rec := doRequest(srv, http.MethodPost, "/api/notebooks/nb1/reindex", "token", "")
	gt.Number(t, rec.Code).Equal(http.StatusAccepted)

	var resp struct {
		DeletedCount int `json:"deleted_count"`
		Job          struct {
			Status string `json:"status"`
		} `json:"job"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
	gt.Number(t, resp.DeletedCount).Equal(1)
	gt.Value(t, resp.Job.Status).Equal("running")
}
