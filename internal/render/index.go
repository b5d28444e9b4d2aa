package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/pagefold/readercore/internal/reader"
)

// Location index and range resolution (the reader.Locator contract).

func (b *Book) EnsureLocationIndex(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("book %s is closed", b.id)
	}
	b.ensureIndexLocked()
	return nil
}

func (b *Book) ensureIndexLocked() {
	if b.indexed {
		return
	}
	for _, sec := range b.sections {
		text := b.texts[sec.Href]
		if text == "" {
			continue
		}
		for start := 0; start < len(text); start += b.pageChars {
			end := start + b.pageChars
			if end > len(text) {
				end = len(text)
			}
			b.index = append(b.index, page{href: sec.Href, start: start, end: end})
		}
	}
	b.indexed = true
}

// pageAtLocked finds the page containing a section offset; callers hold
// b.mu with the index built.
func (b *Book) pageAtLocked(href string, offset int) (page, bool) {
	for _, pg := range b.index {
		if pg.href == href && offset >= pg.start && offset < pg.end {
			return pg, true
		}
	}
	return page{}, false
}

// RangeAtOffset resolves the minimal content range at a character offset by
// an incremental walk over the section's text nodes (paragraphs, in this
// renderer).
func (b *Book) RangeAtOffset(href string, offset int) (reader.Range, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, ok := b.texts[href]
	if !ok {
		return "", fmt.Errorf("no section %q", href)
	}
	if offset < 0 || offset >= len(text) {
		return "", fmt.Errorf("offset %d outside section %q", offset, href)
	}

	// Walk paragraph nodes until the one containing the offset.
	pos := 0
	for _, para := range strings.SplitAfter(text, "\n\n") {
		if offset < pos+len(para) {
			end := offset + 1
			if end > len(text) {
				end = len(text)
			}
			return formatRange(href, offset, end), nil
		}
		pos += len(para)
	}
	return "", fmt.Errorf("no text node at offset %d in %q", offset, href)
}

func (b *Book) LocationForRange(r reader.Range) (reader.LocationID, error) {
	href, start, _, err := parseRange(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.indexed {
		return "", fmt.Errorf("location index not generated")
	}
	if _, ok := b.pageAtLocked(href, start); !ok {
		return "", fmt.Errorf("no location for range %q", r)
	}
	// Exact position; the canonical page location comes from the ordinal
	// round trip.
	return formatLocation(href, start), nil
}

func (b *Book) OrdinalForLocation(loc reader.LocationID) (int, error) {
	href, offset, err := parseLocation(loc)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.indexed {
		return 0, fmt.Errorf("location index not generated")
	}
	for i, pg := range b.index {
		if pg.href == href && offset >= pg.start && offset < pg.end {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no page for location %q", loc)
}

func (b *Book) LocationForOrdinal(ordinal int) (reader.LocationID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.indexed {
		return "", fmt.Errorf("location index not generated")
	}
	if ordinal < 0 || ordinal >= len(b.index) {
		return "", fmt.Errorf("ordinal %d out of range", ordinal)
	}
	pg := b.index[ordinal]
	return formatLocation(pg.href, pg.start), nil
}

// PageCount returns the size of the location index.
func (b *Book) PageCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.index)
}
