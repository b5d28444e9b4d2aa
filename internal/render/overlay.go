package render

import (
	"fmt"

	"github.com/pagefold/readercore/internal/reader"
)

// Overlay registry (the reader.Overlays contract). Overlays are stored
// flat; removal and duplicate checks scan, which matches the scale of a
// reading session.

func (b *Book) AddOverlay(o reader.Overlay) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("book %s is closed", b.id)
	}
	if _, _, _, err := parseRange(o.Range); err != nil {
		return fmt.Errorf("overlay range: %w", err)
	}
	b.overlays = append(b.overlays, o)
	return nil
}

func (b *Book) RemoveOverlay(tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.overlays[:0]
	for _, o := range b.overlays {
		if o.Tag != tag {
			kept = append(kept, o)
		}
	}
	b.overlays = kept
}

func (b *Book) ListOverlays() []reader.Overlay {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]reader.Overlay, len(b.overlays))
	copy(out, b.overlays)
	return out
}
