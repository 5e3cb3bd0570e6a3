package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/scribe-lab/grimoire/pkg/domain/interfaces"
	"github.com/scribe-lab/grimoire/pkg/domain/model"
	"github.com/scribe-lab/grimoire/pkg/domain/types"
	"github.com/scribe-lab/grimoire/pkg/utils/errutil"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type notebookResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) listNotebooksHandler(w http.ResponseWriter, r *http.Request) {
	notebooks, err := s.uc.ListNotebooks(r.Context(), credentialFrom(r.Context()))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadGateway)
		return
	}

	resp := make([]notebookResponse, 0, len(notebooks))
	for _, nb := range notebooks {
		resp = append(resp, notebookResponse{ID: string(nb.ID), Name: nb.DisplayName})
	}
	respondJSON(w, http.StatusOK, map[string]any{"notebooks": resp})
}

type sectionResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NotebookID string `json:"notebook_id"`
}

func (s *Server) listSectionsHandler(w http.ResponseWriter, r *http.Request) {
	notebookID := types.NotebookID(chi.URLParam(r, "notebookID"))

	sections, err := s.uc.ListSections(r.Context(), credentialFrom(r.Context()), notebookID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadGateway)
		return
	}

	resp := make([]sectionResponse, 0, len(sections))
	for _, sec := range sections {
		resp = append(resp, sectionResponse{
			ID:         string(sec.ID),
			Name:       sec.DisplayName,
			NotebookID: string(sec.NotebookID),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"sections": resp})
}

type pageResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CreatedTime  string `json:"created_time,omitempty"`
	ModifiedTime string `json:"modified_time,omitempty"`
}

func (s *Server) listPagesHandler(w http.ResponseWriter, r *http.Request) {
	sectionID := types.SectionID(chi.URLParam(r, "sectionID"))

	pages, err := s.uc.ListPages(r.Context(), credentialFrom(r.Context()), sectionID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadGateway)
		return
	}

	resp := make([]pageResponse, 0, len(pages))
	for _, page := range pages {
		p := pageResponse{ID: string(page.ID), Title: page.Title}
		if !page.CreatedTime.IsZero() {
			p.CreatedTime = page.CreatedTime.Format(time.RFC3339)
		}
		if !page.ModifiedTime.IsZero() {
			p.ModifiedTime = page.ModifiedTime.Format(time.RFC3339)
		}
		resp = append(resp, p)
	}
	respondJSON(w, http.StatusOK, map[string]any{"pages": resp})
}

type startIngestionRequest struct {
	NotebookID   string `json:"notebook_id"`
	NotebookName string `json:"notebook_name"`
}

type jobResponse struct {
	ID         string                  `json:"id"`
	NotebookID string                  `json:"notebook_id"`
	Status     string                  `json:"status"`
	Message    string                  `json:"message,omitempty"`
	Summary    *model.IngestionSummary `json:"summary,omitempty"`
	CreatedAt  string                  `json:"created_at"`
	UpdatedAt  string                  `json:"updated_at"`
}

func toJobResponse(job *model.IngestionJob) jobResponse {
	return jobResponse{
		ID:         string(job.ID),
		NotebookID: string(job.NotebookID),
		Status:     string(job.Status),
		Message:    job.Message,
		Summary:    job.Summary,
		CreatedAt:  job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  job.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) startIngestionHandler(w http.ResponseWriter, r *http.Request) {
	var req startIngestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.NotebookID == "" {
		http.Error(w, "notebook_id is required", http.StatusBadRequest)
		return
	}

	job, err := s.uc.StartIngestionJob(r.Context(), credentialFrom(r.Context()),
		types.NotebookID(req.NotebookID), req.NotebookName)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := types.JobID(chi.URLParam(r, "jobID"))

	job, err := s.uc.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	notebookID := types.NotebookID(r.URL.Query().Get("notebook_id"))

	jobs, err := s.uc.ListJobs(r.Context(), notebookID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	resp := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, toJobResponse(job))
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": resp})
}

func (s *Server) deleteNotebookHandler(w http.ResponseWriter, r *http.Request) {
	notebookID := types.NotebookID(chi.URLParam(r, "notebookID"))

	count, err := s.uc.DeleteNotebook(r.Context(), notebookID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted_count": count})
}

func (s *Server) reindexNotebookHandler(w http.ResponseWriter, r *http.Request) {
	notebookID := types.NotebookID(chi.URLParam(r, "notebookID"))

	count, err := s.uc.DeleteNotebook(r.Context(), notebookID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	job, err := s.uc.StartIngestionJob(r.Context(), credentialFrom(r.Context()), notebookID, "")
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"deleted_count": count,
		"job":           toJobResponse(job),
	})
}

// filterRequest is the wire form of structured search constraints
type filterRequest struct {
	NotebookIDs     []string `json:"notebook_ids"`
	SectionIDs      []string `json:"section_ids"`
	PageIDs         []string `json:"page_ids"`
	ContentTypes    []string `json:"content_types"`
	AttachmentTypes []string `json:"attachment_types"`
	DateFrom        string   `json:"date_from"`
	DateTo          string   `json:"date_to"`
	HasAttachments  *bool    `json:"has_attachments"`
}

func (f *filterRequest) toCriteria() (model.SearchCriteria, error) {
	var criteria model.SearchCriteria
	if f == nil {
		return criteria, nil
	}

	for _, id := range f.NotebookIDs {
		criteria.NotebookIDs = append(criteria.NotebookIDs, types.NotebookID(id))
	}
	for _, id := range f.SectionIDs {
		criteria.SectionIDs = append(criteria.SectionIDs, types.SectionID(id))
	}
	for _, id := range f.PageIDs {
		criteria.PageIDs = append(criteria.PageIDs, types.PageID(id))
	}
	for _, ct := range f.ContentTypes {
		parsed, err := types.ParseContentType(ct)
		if err != nil {
			return criteria, goerr.Wrap(err, "invalid content type", goerr.V("value", ct))
		}
		criteria.ContentTypes = append(criteria.ContentTypes, parsed)
	}
	criteria.AttachmentTypes = f.AttachmentTypes
	criteria.HasAttachments = f.HasAttachments

	if f.DateFrom != "" {
		from, err := time.Parse(time.RFC3339, f.DateFrom)
		if err != nil {
			return criteria, goerr.Wrap(err, "invalid date_from", goerr.V("value", f.DateFrom))
		}
		criteria.DateRange.From = from
	}
	if f.DateTo != "" {
		to, err := time.Parse(time.RFC3339, f.DateTo)
		if err != nil {
			return criteria, goerr.Wrap(err, "invalid date_to", goerr.V("value", f.DateTo))
		}
		criteria.DateRange.To = to
	}

	return criteria, nil
}

type chatRequest struct {
	Message    string         `json:"message"`
	SearchMode string         `json:"search_mode"`
	Top        int            `json:"top"`
	Filters    *filterRequest `json:"filters"`
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	mode, err := types.ParseSearchMode(req.SearchMode)
	if err != nil {
		http.Error(w, "invalid search_mode", http.StatusBadRequest)
		return
	}

	criteria, err := req.Filters.toCriteria()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.uc.AnswerWithSearch(r.Context(), req.Message, criteria, mode, req.Top)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

type searchHitResponse struct {
	ID                 string  `json:"id"`
	Content            string  `json:"content"`
	PageID             string  `json:"page_id"`
	PageTitle          string  `json:"page_title"`
	SectionID          string  `json:"section_id,omitempty"`
	SectionName        string  `json:"section_name,omitempty"`
	NotebookID         string  `json:"notebook_id"`
	NotebookName       string  `json:"notebook_name,omitempty"`
	ContentType        string  `json:"content_type"`
	AttachmentFilename string  `json:"attachment_filename,omitempty"`
	AttachmentFiletype string  `json:"attachment_filetype,omitempty"`
	EmbeddingDegraded  bool    `json:"embedding_degraded,omitempty"`
	Score              float64 `json:"score"`
	RerankerScore      float64 `json:"reranker_score,omitempty"`
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	mode, err := types.ParseSearchMode(q.Get("mode"))
	if err != nil {
		http.Error(w, "invalid mode", http.StatusBadRequest)
		return
	}

	top := 0
	if v := q.Get("top"); v != "" {
		top, err = strconv.Atoi(v)
		if err != nil || top < 0 {
			http.Error(w, "invalid top", http.StatusBadRequest)
			return
		}
	}

	filters := filterRequest{
		NotebookIDs:     q["notebook_id"],
		SectionIDs:      q["section_id"],
		PageIDs:         q["page_id"],
		ContentTypes:    q["content_type"],
		AttachmentTypes: q["attachment_type"],
		DateFrom:        q.Get("date_from"),
		DateTo:          q.Get("date_to"),
	}
	if v := q.Get("has_attachments"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid has_attachments", http.StatusBadRequest)
			return
		}
		filters.HasAttachments = &b
	}

	criteria, err := filters.toCriteria()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hits, err := s.uc.Search(r.Context(), query, criteria, mode, top)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	resp := make([]searchHitResponse, 0, len(hits))
	for _, hit := range hits {
		resp = append(resp, searchHitResponse{
			ID:                 hit.Document.ID,
			Content:            hit.Document.Content,
			PageID:             string(hit.Document.PageID),
			PageTitle:          hit.Document.PageTitle,
			SectionID:          string(hit.Document.SectionID),
			SectionName:        hit.Document.SectionName,
			NotebookID:         string(hit.Document.NotebookID),
			NotebookName:       hit.Document.NotebookName,
			ContentType:        string(hit.Document.ContentType),
			AttachmentFilename: hit.Document.AttachmentName,
			AttachmentFiletype: hit.Document.AttachmentType,
			EmbeddingDegraded:  hit.Document.EmbeddingDegraded,
			Score:              hit.Score,
			RerankerScore:      hit.RerankerScore,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"hits":  resp,
		"total": len(resp),
		"mode":  string(mode),
	})
}

func (s *Server) facetsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	facets, err := s.uc.Facets(r.Context(), q.Get("q"), q["field"])
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"facets": facets})
}

func (s *Server) suggestHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	top := 0
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid top", http.StatusBadRequest)
			return
		}
		top = n
	}

	suggestions, err := s.uc.Suggestions(r.Context(), query, top)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
