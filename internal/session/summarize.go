package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/pagefold/readercore/internal/chunk"
	"github.com/pagefold/readercore/internal/summarize"
)

// ErrNoPipeline is returned from summarization calls on a session created
// without a summarize.Pipeline.
var ErrNoPipeline = errors.New("no summarization pipeline configured")

// chunksUpToCurrent returns the chunks at or before the reader's current
// page, in spine order. Page comparison uses the mapping's resolved
// locations; chunks the mapping could not resolve fall back to global
// index order against the last resolved chunk on or before the page.
func (s *Session) chunksUpToCurrent(ctx context.Context) ([]chunk.Chunk, error) {
	set, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.Mapping(ctx)
	if err != nil {
		return nil, err
	}

	curOrd, err := s.book.OrdinalForLocation(s.book.CurrentLocation())
	if err != nil {
		return nil, fmt.Errorf("current page: %w", err)
	}

	lastIdx := -1
	for _, e := range m.Entries {
		ord, err := s.book.OrdinalForLocation(e.Location)
		if err != nil {
			continue
		}
		if ord <= curOrd && e.GlobalIndex > lastIdx {
			lastIdx = e.GlobalIndex
		}
	}
	if lastIdx < 0 {
		// Nothing resolved at or before the page; treat the whole book
		// as read rather than answering from no context.
		return set.Chunks, nil
	}

	var out []chunk.Chunk
	for _, c := range set.Chunks {
		if c.GlobalIndex <= lastIdx {
			out = append(out, c)
		}
	}
	return out, nil
}

// SummarizeSoFar summarizes everything read up to the current page.
func (s *Session) SummarizeSoFar(ctx context.Context, bookTitle string) (string, summarize.Usage, error) {
	if s.pipeline == nil {
		return "", summarize.Usage{}, ErrNoPipeline
	}
	chunks, err := s.chunksUpToCurrent(ctx)
	if err != nil {
		return "", summarize.Usage{}, err
	}
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return s.pipeline.SummarizeSoFar(ctx, bookTitle, texts)
}

// SummarizeCurrentChunk summarizes the chunk at the reader's current page,
// going through the pipeline's cache.
func (s *Session) SummarizeCurrentChunk(ctx context.Context, bookTitle string) (*summarize.Summary, error) {
	if s.pipeline == nil {
		return nil, ErrNoPipeline
	}
	set, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.Mapping(ctx)
	if err != nil {
		return nil, err
	}

	cur := s.book.CurrentLocation()
	indices := m.ChunksAt(cur)
	if len(indices) == 0 {
		return nil, fmt.Errorf("no chunk mapped at %s", cur)
	}
	c := set.ByGlobalIndex(indices[0])
	if c == nil {
		return nil, fmt.Errorf("mapped chunk %d missing from set", indices[0])
	}
	return s.pipeline.SummarizeChunk(ctx, s.book.ID(), bookTitle, *c, c.GlobalIndex > 0)
}

// Ask answers a question from the chunks read so far. The question's book
// title is filled from the argument when unset.
func (s *Session) Ask(ctx context.Context, q summarize.Question) (summarize.Answer, error) {
	if s.pipeline == nil {
		return summarize.Answer{}, ErrNoPipeline
	}
	chunks, err := s.chunksUpToCurrent(ctx)
	if err != nil {
		return summarize.Answer{}, err
	}
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return s.pipeline.Ask(ctx, q, texts)
}

// EvictSummaries drops this book's cached summaries.
func (s *Session) EvictSummaries() {
	if s.pipeline == nil {
		return
	}
	s.pipeline.Cache().EvictBook(s.book.ID())
}
