package search_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/service/search"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeSearchServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (s *fakeSearchServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
	if r.Body != nil {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			rec.Body = body
		}
	}
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()

	s.handler(w, r)
}

func (s *fakeSearchServer) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest{}, s.requests...)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*search.Client, *fakeSearchServer) {
	t.Helper()

	fake := &fakeSearchServer{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := search.New(srv.URL, "test-index", "test-key")
	gt.NoError(t, err).Required()
	return client, fake
}

func TestNewValidation(t *testing.T) {
	_, err := search.New("", "idx", "key")
	gt.Error(t, err)
	_, err = search.New("http://example.com", "", "key")
	gt.Error(t, err)
	_, err = search.New("http://example.com", "idx", "")
	gt.Error(t, err)
}

func TestEnsureIndexAlreadyExists(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodGet)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"name":"test-index"}`)
	})

	gt.NoError(t, client.EnsureIndex(context.Background()))

	reqs := fake.recorded()
	gt.Array(t, reqs).Length(1)
	gt.Value(t, reqs[0].Method).Equal(http.MethodGet)
}

func TestEnsureIndexCreatesOnMissing(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusCreated)
		default:
			t.Fatalf("unexpected method: %s", r.Method)
		}
	})

	gt.NoError(t, client.EnsureIndex(context.Background()))

	reqs := fake.recorded()
	gt.Array(t, reqs).Length(2)
	gt.Value(t, reqs[1].Method).Equal(http.MethodPut)
	gt.Value(t, reqs[1].Path).Equal("/indexes/test-index")

	fields, ok := reqs[1].Body["fields"].([]any)
	gt.Bool(t, ok).True()
	names := make(map[string]bool)
	for _, f := range fields {
		field := f.(map[string]any)
		names[field["name"].(string)] = true
	}
	for _, want := range []string{"id", "content", "content_vector", "notebook_id", "content_type", "embedding_degraded", "last_modified"} {
		gt.Bool(t, names[want]).True()
	}
}

func TestUpsertBatches(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"value":[]}`)
	})

	docs := make([]*model.IndexedDocument, 1500)
	for i := range docs {
		docs[i] = &model.IndexedDocument{
			ID:          fmt.Sprintf("doc-%d", i),
			Content:     "text",
			PageID:      "p1",
			NotebookID:  "nb1",
			ContentType: types.ContentTypePageText,
		}
	}

	gt.NoError(t, client.Upsert(context.Background(), docs))

	reqs := fake.recorded()
	gt.Array(t, reqs).Length(2)
	gt.Array(t, reqs[0].Body["value"].([]any)).Length(1000)
	gt.Array(t, reqs[1].Body["value"].([]any)).Length(500)

	first := reqs[0].Body["value"].([]any)[0].(map[string]any)
	gt.Value(t, first["@search.action"]).Equal("mergeOrUpload")
	gt.Value(t, first["id"]).Equal("doc-0")
}

func TestUpsertEmpty(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	gt.NoError(t, client.Upsert(context.Background(), nil))
	gt.Array(t, fake.recorded()).Length(0)
}

func TestDeleteByNotebook(t *testing.T) {
	searchCalls := 0
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/docs/search") {
			searchCalls++
			w.WriteHeader(http.StatusOK)
			if searchCalls == 1 {
				fmt.Fprint(w, `{"value":[{"id":"a"},{"id":"b"},{"id":"c"}]}`)
			} else {
				fmt.Fprint(w, `{"value":[]}`)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"value":[]}`)
	})

	deleted, err := client.DeleteByNotebook(context.Background(), "nb1")
	gt.NoError(t, err)
	gt.Number(t, deleted).Equal(3)

	var deleteReq *recordedRequest
	reqs := fake.recorded()
	for i := range reqs {
		if strings.HasSuffix(reqs[i].Path, "/docs/index") {
			deleteReq = &reqs[i]
			break
		}
	}
	if deleteReq == nil {
		t.Fatal("no delete request recorded")
	}
	actions := deleteReq.Body["value"].([]any)
	gt.Array(t, actions).Length(3)
	gt.Value(t, actions[0].(map[string]any)["@search.action"]).Equal("delete")
}

func TestSearchDegradesToEmptyOnFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"boom"}`)
	})

	hits, err := client.Search(context.Background(), "query", nil, model.SearchCriteria{}, types.SearchModeKeyword, 10)
	gt.NoError(t, err)
	gt.Array(t, hits).Length(0)
}

func TestSearchParsesHits(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"value":[
			{"@search.score":1.5,"id":"p1-page_text-0","content":"hello","page_id":"p1","page_title":"Notes","notebook_id":"nb1","notebook_name":"Work","content_type":"page_text"},
			{"@search.score":1.2,"@search.rerankerScore":2.8,"id":"p1-attachment-0","content":"report","page_id":"p1","content_type":"attachment","attachment_filename":"q3.pdf","attachment_filetype":"pdf"}
		]}`)
	})

	vector := []float32{0.1, 0.2}
	hits, err := client.Search(context.Background(), "hello", vector, model.SearchCriteria{
		NotebookIDs: []types.NotebookID{"nb1"},
	}, types.SearchModeHybrid, 5)
	gt.NoError(t, err)
	gt.Array(t, hits).Length(2).Required()

	gt.Value(t, hits[0].Document.ID).Equal("p1-page_text-0")
	gt.Value(t, hits[0].Score).Equal(1.5)
	gt.Value(t, hits[0].Document.NotebookName).Equal("Work")
	gt.Value(t, hits[1].Document.AttachmentName).Equal("q3.pdf")
	gt.Value(t, hits[1].RerankerScore).Equal(2.8)

	req := fake.recorded()[0]
	gt.Value(t, req.Body["filter"]).Equal("(notebook_id eq 'nb1')")
	if _, ok := req.Body["vectorQueries"]; !ok {
		t.Fatal("hybrid query must carry vectorQueries")
	}
}

func TestSearchKeywordModeSkipsVector(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"value":[]}`)
	})

	_, err := client.Search(context.Background(), "hello", []float32{0.1}, model.SearchCriteria{}, types.SearchModeKeyword, 5)
	gt.NoError(t, err)

	req := fake.recorded()[0]
	if _, ok := req.Body["vectorQueries"]; ok {
		t.Fatal("keyword query must not carry vectorQueries")
	}
}

func TestFacets(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"@search.facets":{
			"content_type":[{"value":"page_text","count":42},{"value":"attachment","count":7}],
			"notebook_name":[{"value":"Work","count":30}]
		},"value":[]}`)
	})

	facets, err := client.Facets(context.Background(), "", []string{"content_type", "notebook_name"})
	gt.NoError(t, err)
	gt.Array(t, facets["content_type"]).Length(2)
	gt.Value(t, facets["content_type"][0].Value).Equal("page_text")
	gt.Value(t, facets["content_type"][0].Count).Equal(int64(42))
	gt.Array(t, facets["notebook_name"]).Length(1)

	// empty query falls back to match-all
	gt.Value(t, fake.recorded()[0].Body["search"]).Equal("*")
}

func TestSuggest(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"value":[{"@search.text":"quarterly report"},{"@search.text":"quarterly goals"}]}`)
	})

	got, err := client.Suggest(context.Background(), "quart", 5)
	gt.NoError(t, err)
	gt.Array(t, got).Length(2)
	gt.Value(t, got[0]).Equal("quarterly report")
}

func TestDeleteIndexMissingIsNotError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	gt.NoError(t, client.DeleteIndex(context.Background()))
}
