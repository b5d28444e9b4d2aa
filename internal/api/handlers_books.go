package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pagefold/readercore/internal/reader"
)

// handleListBooks lists shelf book IDs and which of them are open.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	ids, err := s.shelf.List()
	if err != nil {
		jsonError(w, "failed to list shelf: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type bookInfo struct {
		ID   string `json:"id"`
		Open bool   `json:"open"`
	}
	books := make([]bookInfo, 0, len(ids))
	for _, id := range ids {
		_, open := s.shelf.Get(id)
		books = append(books, bookInfo{ID: id, Open: open})
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

// handleOpenBook opens a book's session. Opening an open book is a no-op
// returning the same session state.
func (s *Server) handleOpenBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	sess, err := s.shelf.Open(bookID)
	if err != nil {
		jsonError(w, "failed to open book: "+err.Error(), http.StatusNotFound)
		return
	}

	book := sess.Book()
	writeJSON(w, http.StatusOK, map[string]any{
		"book_id":  book.ID(),
		"sections": len(book.Sections()),
		"location": book.CurrentLocation(),
	})
}

// handleCloseBook tears down a book's session.
func (s *Server) handleCloseBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	if !s.shelf.Close(bookID) {
		jsonError(w, "book is not open: "+bookID, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"closed": bookID})
}

// handleLocation reports the reader's current position.
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}
	book := sess.Book()
	writeJSON(w, http.StatusOK, map[string]any{
		"location": book.CurrentLocation(),
		"pages":    book.PageCount(),
	})
}

// handleGoTo navigates to a location or a section href.
func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Location string `json:"location"`
		Href     string `json:"href"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	book := sess.Book()
	var err error
	switch {
	case req.Location != "":
		err = book.NavigateToLocation(r.Context(), reader.LocationID(req.Location))
	case req.Href != "":
		err = book.NavigateToSection(r.Context(), req.Href)
	default:
		jsonError(w, "location or href is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, "navigation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": book.CurrentLocation()})
}
