package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pagefold/readercore/internal/reader"
	"github.com/pagefold/readercore/internal/search"
	"github.com/pagefold/readercore/internal/session"
)

// handleSearch runs a query over the book's chunks. The first search on a
// freshly opened book builds the chunk set.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	results, err := sess.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, session.ErrChunksInFlight) {
			jsonError(w, "chunk build in progress, retry shortly", http.StatusConflict)
			return
		}
		jsonError(w, "search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

// handleSearchGoTo navigates the reader to a previously returned search
// result. The result's resolved location does not travel over the wire;
// it is recovered from the CFI unless the CFI is the synthesized
// href#offset fallback.
func (s *Server) handleSearchGoTo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var res search.Result
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if res.Href == "" {
		jsonError(w, "href is required", http.StatusBadRequest)
		return
	}
	if res.CFI != "" && !strings.Contains(res.CFI, "#") {
		res.Location = reader.LocationID(res.CFI)
	}

	if err := sess.GoToResult(r.Context(), res); err != nil {
		jsonError(w, "navigation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location": sess.Book().CurrentLocation(),
	})
}

// handleClearDecoration removes transient search overlays.
func (s *Server) handleClearDecoration(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}
	sess.ClearSearchDecoration()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
