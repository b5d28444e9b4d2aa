// Package search matches literal queries against the chunk set and resolves
// matches back to renderer-navigable targets.
package search

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pagefold/readercore/internal/chunk"
	"github.com/pagefold/readercore/internal/reader"
)

// excerptRadius is how much surrounding context a result excerpt carries on
// each side of the match, clipped to the chunk.
const excerptRadius = 100

// Result is one search hit. CFI is the navigable target: the chunk's
// resolved page location when one exists, otherwise a synthesized
// href#offset=N fallback.
type Result struct {
	CFI          string  `json:"cfi"`
	Excerpt      string  `json:"excerpt"`
	Terms        string  `json:"terms"`
	Href         string  `json:"href"`
	SpineIndex   int     `json:"spine_index"`
	TextOffset   int     `json:"text_offset"`   // character offset within the section
	TextPosition float64 `json:"text_position"` // fractional position within the chunk, 0..1
	ChunkIndex   int     `json:"chunk_index"`   // index into the current chunk set

	// Location is the resolved page location, empty when CFI is the
	// synthesized fallback. Not part of the wire shape.
	Location reader.LocationID `json:"-"`
}

// Engine executes pattern queries over a chunk set.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Search returns every match of query across the set, ordered by
// (globalChunkIndex, match offset within chunk). The query is matched as a
// literal, case-insensitive substring; regex metacharacters have no effect.
func (e *Engine) Search(query string, set *chunk.Set) []Result {
	query = strings.TrimSpace(query)
	if query == "" || set.Len() == 0 {
		return nil
	}

	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(query))

	var results []Result
	for _, c := range set.Chunks {
		for _, m := range pattern.FindAllStringIndex(c.Text, -1) {
			results = append(results, makeResult(c, query, m[0], m[1]))
		}
	}
	return results
}

func makeResult(c chunk.Chunk, query string, start, end int) Result {
	r := Result{
		Excerpt:    excerpt(c.Text, start, end),
		Terms:      query,
		Href:       c.Href,
		SpineIndex: c.SpineIndex,
		TextOffset: c.StartOffset + start,
		ChunkIndex: c.GlobalIndex,
		Location:   c.PageLocation,
	}
	if len(c.Text) > 0 {
		r.TextPosition = float64(start) / float64(len(c.Text))
	}
	if c.PageLocation != "" {
		r.CFI = string(c.PageLocation)
	} else {
		r.CFI = fmt.Sprintf("%s#offset=%d", c.Href, r.TextOffset)
	}
	return r
}

// excerpt returns a bounded window of the match with surrounding context,
// clipped to chunk boundaries.
func excerpt(text string, start, end int) string {
	lo := start - excerptRadius
	if lo < 0 {
		lo = 0
	}
	for lo < len(text) && !utf8.RuneStart(text[lo]) {
		lo++
	}
	hi := end + excerptRadius
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	out := text[lo:hi]
	if lo > 0 {
		out = "…" + out
	}
	if hi < len(text) {
		out += "…"
	}
	return out
}
