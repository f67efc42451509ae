// Package httpapi exposes the snippet and crypto operations over HTTP
// JSON, the contract the CLI's remote client speaks.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dkotlyar/snipstash/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SnippetService is the server-side operation set the handlers dispatch to.
type SnippetService interface {
	ListPage(ctx context.Context, page, limit int, lightweight bool) ([]models.Snippet, int, error)
	GetByID(ctx context.Context, id int64) (*models.Snippet, error)
	GetURL(ctx context.Context, id int64) (*models.Snippet, error)
	GetContent(ctx context.Context, id int64) (string, error)
	GetUploadTarget(ctx context.Context, id int64, fileName string) (string, string, error)
	Save(ctx context.Context, snippet *models.Snippet) (*models.Snippet, error)
	ReplaceAll(ctx context.Context, snippets []models.Snippet) error
	Delete(ctx context.Context, id int64) error
}

type Server struct {
	snippets SnippetService
	router   *chi.Mux
}

func New(snippets SnippetService) *Server {
	s := &Server{
		snippets: snippets,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.healthHandler)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/snippets", s.getSnippetsHandler)
		r.Post("/snippets", s.postSnippetsHandler)
		r.Delete("/snippets", s.deleteSnippetHandler)
		r.Post("/crypto", s.cryptoHandler)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}
