package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pagefold/readercore/internal/config"
	"github.com/pagefold/readercore/internal/session"
)

// Server is the HTTP API over a shelf of books.
type Server struct {
	router chi.Router
	shelf  *session.Shelf
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(shelf *session.Shelf, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		shelf: shelf,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/books", s.handleListBooks)
		r.Post("/api/books/{bookID}/open", s.handleOpenBook)
		r.Delete("/api/books/{bookID}", s.handleCloseBook)

		r.Get("/api/books/{bookID}/location", s.handleLocation)
		r.Post("/api/books/{bookID}/goto", s.handleGoTo)

		r.Get("/api/books/{bookID}/search", s.handleSearch)
		r.Post("/api/books/{bookID}/search/goto", s.handleSearchGoTo)
		r.Delete("/api/books/{bookID}/search/decoration", s.handleClearDecoration)

		r.Get("/api/books/{bookID}/highlights", s.handleListHighlights)
		r.Post("/api/books/{bookID}/highlights", s.handleAddHighlight)
		r.Patch("/api/books/{bookID}/highlights/{highlightID}", s.handleUpdateHighlightNote)
		r.Delete("/api/books/{bookID}/highlights/{highlightID}", s.handleRemoveHighlight)

		r.Get("/api/books/{bookID}/notes", s.handleListNotes)
		r.Post("/api/books/{bookID}/notes", s.handleAddNote)
		r.Patch("/api/books/{bookID}/notes/{noteID}", s.handleUpdateNote)
		r.Delete("/api/books/{bookID}/notes/{noteID}", s.handleRemoveNote)

		r.Post("/api/books/{bookID}/summarize", s.handleSummarize)
		r.Post("/api/books/{bookID}/summarize-chunk", s.handleSummarizeChunk)
		r.Post("/api/books/{bookID}/ask", s.handleAsk)
		r.Delete("/api/books/{bookID}/summaries", s.handleEvictSummaries)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"model":         s.cfg.PrimaryModel,
		"summarization": s.cfg.SummarizationEnabled(),
	})
}

// openSession resolves the session for a request's book, requiring it to
// be open already.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	bookID := chi.URLParam(r, "bookID")
	sess, ok := s.shelf.Get(bookID)
	if !ok {
		jsonError(w, "book is not open: "+bookID, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
