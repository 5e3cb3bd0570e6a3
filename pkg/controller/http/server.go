package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scribe-lab/grimoire/pkg/usecase"
	"github.com/scribe-lab/grimoire/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/notebooks", func(r chi.Router) {
			r.With(requireCredential).Get("/", s.listNotebooksHandler)
			r.With(requireCredential).Get("/{notebookID}/sections", s.listSectionsHandler)
			r.Delete("/{notebookID}/index", s.deleteNotebookHandler)
			r.With(requireCredential).Post("/{notebookID}/reindex", s.reindexNotebookHandler)
		})

		r.With(requireCredential).Get("/sections/{sectionID}/pages", s.listPagesHandler)

		r.Route("/ingestion", func(r chi.Router) {
			r.With(requireCredential).Post("/", s.startIngestionHandler)
			r.Get("/", s.listJobsHandler)
			r.Get("/{jobID}", s.getJobHandler)
		})

		r.Post("/chat", s.chatHandler)
		r.Get("/search", s.searchHandler)
		r.Get("/facets", s.facetsHandler)
		r.Get("/suggest", s.suggestHandler)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
