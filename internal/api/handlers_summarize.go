package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pagefold/readercore/internal/pagemap"
	"github.com/pagefold/readercore/internal/session"
	"github.com/pagefold/readercore/internal/summarize"
)

// handleSummarize summarizes everything read up to the current page.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var req struct {
		BookTitle string `json:"book_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	summary, usage, err := sess.SummarizeSoFar(r.Context(), req.BookTitle)
	if err != nil {
		summarizeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": summary,
		"usage":   usage,
	})
}

// handleSummarizeChunk summarizes the chunk at the current page, served
// from the summary cache when fresh.
func (s *Server) handleSummarizeChunk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var req struct {
		BookTitle string `json:"book_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := sess.SummarizeCurrentChunk(r.Context(), req.BookTitle)
	if err != nil {
		summarizeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleAsk answers a question from the chunks read so far.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Question  string         `json:"question"`
		BookTitle string         `json:"book_title"`
		History   []summarize.QA `json:"history"`
		MaxChunks int            `json:"max_chunks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	answer, err := sess.Ask(r.Context(), summarize.Question{
		Question:  req.Question,
		BookTitle: req.BookTitle,
		History:   req.History,
		MaxChunks: req.MaxChunks,
	})
	if err != nil {
		summarizeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// handleEvictSummaries drops the book's cached summaries.
func (s *Server) handleEvictSummaries(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.openSession(w, r)
	if !ok {
		return
	}
	sess.EvictSummaries()
	writeJSON(w, http.StatusOK, map[string]string{"status": "evicted"})
}

// summarizeError maps pipeline failures to HTTP statuses: no provider is
// a config problem, chunk builds in flight are retryable, provider
// exhaustion is a bad gateway.
func summarizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoPipeline):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, session.ErrChunksInFlight), errors.Is(err, pagemap.ErrMappingInFlight):
		jsonError(w, "chunk indexing in progress, retry shortly", http.StatusConflict)
	case summarize.IsRetryable(err):
		jsonError(w, "all providers failed: "+err.Error(), http.StatusBadGateway)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
