// Package annotate persists highlights and notes and re-applies highlight
// overlays to the renderer as content becomes visible.
package annotate

import (
	"fmt"
	"time"

	"github.com/pagefold/readercore/internal/reader"
)

// Colour is the closed set of highlight colours.
type Colour string

const (
	ColourYellow Colour = "yellow"
	ColourGreen  Colour = "green"
	ColourBlue   Colour = "blue"
	ColourPink   Colour = "pink"
	ColourPurple Colour = "purple"
)

// Valid reports whether c is one of the defined colours.
func (c Colour) Valid() bool {
	switch c {
	case ColourYellow, ColourGreen, ColourBlue, ColourPink, ColourPurple:
		return true
	}
	return false
}

// Highlight is a persisted user highlight. CFI addresses the highlighted
// range in the renderer's native scheme; Text snapshots the highlighted
// text at creation time. At most one live visual overlay exists per
// highlight ID at any time.
type Highlight struct {
	ID        string       `json:"id"`
	BookID    string       `json:"book_id"`
	CFI       reader.Range `json:"cfi"`
	Text      string       `json:"text"`
	Colour    Colour       `json:"colour"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Note is a standalone annotation; it may exist without a highlight.
type Note struct {
	ID        string       `json:"id"`
	BookID    string       `json:"book_id"`
	CFIRange  reader.Range `json:"cfi_range"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// highlightsKey and notesKey are the KV namespaces, per book.
func highlightsKey(bookID string) string { return fmt.Sprintf("highlights/%s", bookID) }
func notesKey(bookID string) string      { return fmt.Sprintf("notes/%s", bookID) }
