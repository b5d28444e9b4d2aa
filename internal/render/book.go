// Package render is the file-backed reference renderer: it paginates plain
// section text into fixed-size pages and implements the full reader.Handle
// contract (locations, navigation, overlays, events). The server and the
// test suites drive the core against it; a DOM-backed renderer would plug in
// behind the same interfaces.
package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pagefold/readercore/internal/reader"
)

// DefaultPageChars is the pagination window when none is configured.
const DefaultPageChars = 1024

// SectionContent is one spine entry with its resolved text.
type SectionContent struct {
	Href  string
	Title string
	Text  string
}

// Book is an open book bound to one renderer session. All methods are safe
// for use from the event-driven core; internally a single mutex serializes
// section loads, matching the one-active-section model.
type Book struct {
	id        string
	pageChars int

	mu       sync.Mutex
	sections []reader.Section
	texts    map[string]string
	index    []page
	indexed  bool
	current  reader.LocationID
	overlays []reader.Overlay
	closed   bool

	selectedFns  map[int]func(reader.Range, string)
	renderedFns  map[int]func()
	relocatedFns map[int]func()
	nextSubID    int
}

// New builds a Book over in-memory sections.
func New(id string, contents []SectionContent, pageChars int) *Book {
	if pageChars <= 0 {
		pageChars = DefaultPageChars
	}
	b := &Book{
		id:           id,
		pageChars:    pageChars,
		texts:        make(map[string]string, len(contents)),
		selectedFns:  make(map[int]func(reader.Range, string)),
		renderedFns:  make(map[int]func()),
		relocatedFns: make(map[int]func()),
	}
	for i, c := range contents {
		b.sections = append(b.sections, reader.Section{
			Href:       c.Href,
			SpineIndex: i,
			Title:      c.Title,
		})
		b.texts[c.Href] = c.Text
	}
	return b
}

// ID returns the book identifier.
func (b *Book) ID() string { return b.id }

// Close releases the session. Further renderer calls fail; events are
// dropped.
func (b *Book) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.selectedFns = map[int]func(reader.Range, string){}
	b.renderedFns = map[int]func(){}
	b.relocatedFns = map[int]func(){}
}

func (b *Book) Sections() []reader.Section {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]reader.Section, len(b.sections))
	copy(out, b.sections)
	return out
}

func (b *Book) SectionText(ctx context.Context, href string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", fmt.Errorf("book %s is closed", b.id)
	}
	text, ok := b.texts[href]
	if !ok {
		return "", fmt.Errorf("no section %q", href)
	}
	return text, nil
}

func (b *Book) CurrentLocation() reader.LocationID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Book) NavigateToLocation(ctx context.Context, loc reader.LocationID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	href, offset, err := parseLocation(loc)
	if err != nil {
		return err
	}
	return b.moveTo(href, offset)
}

func (b *Book) NavigateToSection(ctx context.Context, href string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.moveTo(href, 0)
}

func (b *Book) ScrollToOffset(ctx context.Context, href string, offset int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	text, ok := b.texts[href]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("no section %q", href)
	}
	if offset < 0 || offset >= len(text) {
		return fmt.Errorf("offset %d not found in %q", offset, href)
	}
	return b.moveTo(href, offset)
}

func (b *Book) ScrollToFraction(ctx context.Context, href string, fraction float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	text, ok := b.texts[href]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("no section %q", href)
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	offset := int(fraction * float64(len(text)))
	if offset >= len(text) && len(text) > 0 {
		offset = len(text) - 1
	}
	return b.moveTo(href, offset)
}

// moveTo snaps the position to the containing page and fires render and
// relocate events, mirroring a paginated renderer's burst on navigation.
func (b *Book) moveTo(href string, offset int) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("book %s is closed", b.id)
	}
	if _, ok := b.texts[href]; !ok {
		b.mu.Unlock()
		return fmt.Errorf("no section %q", href)
	}
	b.ensureIndexLocked()
	pg, ok := b.pageAtLocked(href, offset)
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("no page for %s@%d", href, offset)
	}
	b.current = formatLocation(pg.href, pg.start)
	rendered := snapshotFns(b.renderedFns)
	relocated := snapshotFns(b.relocatedFns)
	b.mu.Unlock()

	for _, fn := range rendered {
		fn()
	}
	for _, fn := range relocated {
		fn()
	}
	return nil
}

// Select simulates a user text selection, firing selection subscribers with
// the range and a snapshot of the selected text.
func (b *Book) Select(href string, start, end int) error {
	b.mu.Lock()
	text, ok := b.texts[href]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("no section %q", href)
	}
	if start < 0 || end > len(text) || start >= end {
		b.mu.Unlock()
		return fmt.Errorf("invalid selection %d-%d in %q", start, end, href)
	}
	r := formatRange(href, start, end)
	selected := strings.Clone(text[start:end])
	fns := make([]func(reader.Range, string), 0, len(b.selectedFns))
	for _, fn := range b.selectedFns {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(r, selected)
	}
	return nil
}

func snapshotFns(m map[int]func()) []func() {
	out := make([]func(), 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}
