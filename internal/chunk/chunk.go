// Package chunk segments section text into bounded, overlapping chunks. The
// split is a pure function of section content and configuration: identical
// input always yields identical chunk boundaries, which downstream caching
// and idempotent rebuilds depend on.
package chunk

import (
	"fmt"

	"github.com/pagefold/readercore/internal/reader"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize       int // Target chunk length in characters.
	Overlap         int // Characters carried from the end of one chunk into the next.
	MinSectionChars int // Sections shorter than this are skipped as structural.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:       500,
		Overlap:         50,
		MinSectionChars: 200,
	}
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 500
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.MinSectionChars <= 0 {
		c.MinSectionChars = 200
	}
	return c
}

// Chunk is one bounded segment of section text. Offsets index the section's
// concatenated text; EndOffset-StartOffset approximates ChunkSize plus
// overlap. PageLocation is attached later by the page mapper and stays empty
// when the renderer cannot resolve one.
type Chunk struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	Href         string            `json:"href"`
	SpineIndex   int               `json:"spine_index"`
	ChunkIndex   int               `json:"chunk_index"`
	StartOffset  int               `json:"start_offset"`
	EndOffset    int               `json:"end_offset"`
	GlobalIndex  int               `json:"global_chunk_index"`
	PageLocation reader.LocationID `json:"page_location,omitempty"`
}

// Set is the ordered chunk sequence for one book. GlobalIndex values form a
// contiguous sequence starting at 0, so Set indexing and GlobalIndex agree.
type Set struct {
	BookID string
	Chunks []Chunk
}

// Len returns the number of chunks.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Chunks)
}

// Texts returns chunk texts in spine order, the flat sequence handed to the
// summarization pipeline.
func (s *Set) Texts() []string {
	out := make([]string, len(s.Chunks))
	for i, c := range s.Chunks {
		out[i] = c.Text
	}
	return out
}

// ByGlobalIndex returns the chunk with the given global index, or nil.
func (s *Set) ByGlobalIndex(i int) *Chunk {
	if s == nil || i < 0 || i >= len(s.Chunks) {
		return nil
	}
	return &s.Chunks[i]
}

// SectionChunks returns the chunks belonging to one section href, in order.
func (s *Set) SectionChunks(href string) []Chunk {
	var out []Chunk
	for _, c := range s.Chunks {
		if c.Href == href {
			out = append(out, c)
		}
	}
	return out
}

// ChunkID derives the stable chunk identifier from its section and local
// index.
func ChunkID(href string, chunkIndex int) string {
	return fmt.Sprintf("%s:%d", href, chunkIndex)
}
