package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pagefold/readercore/internal/annotate"
	"github.com/pagefold/readercore/internal/reader"
)

func (s *Server) handleListHighlights(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}
	hs, err := sess.Highlights().List()
	if err != nil {
		jsonError(w, "failed to list highlights: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if hs == nil {
		hs = []annotate.Highlight{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"highlights": hs})
}

// handleAddHighlight persists a highlight and applies its overlay
// immediately. Duplicate ranges are absorbed silently on the overlay side.
func (s *Server) handleAddHighlight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var req struct {
		CFI    string          `json:"cfi"`
		Text   string          `json:"text"`
		Colour annotate.Colour `json:"colour"`
		Note   string          `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.CFI == "" || req.Text == "" {
		jsonError(w, "cfi and text are required", http.StatusBadRequest)
		return
	}
	if req.Colour != "" && !req.Colour.Valid() {
		jsonError(w, "invalid colour: "+string(req.Colour), http.StatusBadRequest)
		return
	}

	h := &annotate.Highlight{
		BookID: sess.Book().ID(),
		CFI:    reader.Range(req.CFI),
		Text:   req.Text,
		Colour: req.Colour,
		Note:   req.Note,
	}
	if err := sess.Highlights().Add(h); err != nil {
		jsonError(w, "failed to add highlight: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleUpdateHighlightNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "highlightID")
	h, err := sess.Highlights().UpdateNote(id, req.Note)
	if err != nil {
		jsonError(w, "failed to update note: "+err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleRemoveHighlight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "highlightID")
	removed, err := sess.Highlights().Remove(id)
	if err != nil {
		jsonError(w, "failed to remove highlight: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !removed {
		jsonError(w, "highlight not found: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}
	ns, err := sess.Notes().List()
	if err != nil {
		jsonError(w, "failed to list notes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if ns == nil {
		ns = []annotate.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": ns})
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var req struct {
		CFIRange string `json:"cfi_range"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		jsonError(w, "content is required", http.StatusBadRequest)
		return
	}

	n, err := sess.Notes().Add(reader.Range(req.CFIRange), req.Content)
	if err != nil {
		jsonError(w, "failed to add note: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "noteID")
	n, err := sess.Notes().Update(id, req.Content)
	if err != nil {
		jsonError(w, "failed to update note: "+err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleRemoveNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "noteID")
	removed, err := sess.Notes().Remove(id)
	if err != nil {
		jsonError(w, "failed to remove note: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !removed {
		jsonError(w, "note not found: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}
