package search

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/pagefold/readercore/internal/reader"
)

// searchOverlayTag marks every transient search decoration so a new query
// can clear the previous one wholesale. Search decoration is never confused
// with persisted highlights, which carry their own tags and kind.
const searchOverlayTag = "search"

// maxDecorations bounds how many in-place match decorations one navigation
// applies within a section.
const maxDecorations = 50

// Navigator takes a search result to its location in the renderer. It
// degrades through three ordered tiers: precise page location, then
// section + offset scan, then proportional scroll. Exact resolution is
// not always available because page mapping is best-effort.
type Navigator struct {
	log *slog.Logger
}

func NewNavigator(log *slog.Logger) *Navigator {
	return &Navigator{log: log}
}

// GoTo navigates the renderer to the result and re-applies in-place
// decoration of the query at the new position.
func (n *Navigator) GoTo(ctx context.Context, h reader.Handle, res Result) error {
	// Tier 1: resolved page location.
	if res.Location != "" {
		err := h.NavigateToLocation(ctx, res.Location)
		if err == nil {
			n.decorate(ctx, h, res.Href, res.Terms)
			return nil
		}
		n.log.Warn("location navigation failed, falling back to section",
			"location", res.Location, "error", err)
	}

	// Tier 2: section plus offset scan.
	if err := h.NavigateToSection(ctx, res.Href); err != nil {
		return fmt.Errorf("navigate to %s: %w", res.Href, err)
	}
	if err := h.ScrollToOffset(ctx, res.Href, res.TextOffset); err != nil {
		// Tier 3: proportional position.
		n.log.Warn("offset scan failed, scrolling proportionally",
			"href", res.Href, "offset", res.TextOffset, "error", err)
		fraction := n.sectionFraction(ctx, h, res)
		if err := h.ScrollToFraction(ctx, res.Href, fraction); err != nil {
			return fmt.Errorf("scroll to %s: %w", res.Href, err)
		}
	}
	n.decorate(ctx, h, res.Href, res.Terms)
	return nil
}

// ClearDecoration removes every transient search overlay.
func (n *Navigator) ClearDecoration(h reader.Overlays) {
	h.RemoveOverlay(searchOverlayTag)
}

// decorate clears previous search decoration and marks the query's matches
// within the displayed section. Decoration is transient and fully removable;
// failures only cost the visual marks.
func (n *Navigator) decorate(ctx context.Context, h reader.Handle, href, query string) {
	n.ClearDecoration(h)
	if query == "" {
		return
	}

	text, err := h.SectionText(ctx, href)
	if err != nil {
		n.log.Warn("decoration skipped, section load failed", "href", href, "error", err)
		return
	}
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(query))
	for _, m := range pattern.FindAllStringIndex(text, maxDecorations) {
		r, err := h.RangeAtOffset(href, m[0])
		if err != nil {
			n.log.Debug("decoration range unresolved", "href", href, "offset", m[0], "error", err)
			continue
		}
		if err := h.AddOverlay(reader.Overlay{
			Kind:  reader.OverlaySearch,
			Range: r,
			Style: "search-match",
			Tag:   searchOverlayTag,
		}); err != nil {
			n.log.Debug("decoration overlay rejected", "href", href, "error", err)
		}
	}
}

// sectionFraction estimates the result's proportional position in its
// section for last-resort scrolling.
func (n *Navigator) sectionFraction(ctx context.Context, h reader.Renderer, res Result) float64 {
	text, err := h.SectionText(ctx, res.Href)
	if err != nil || len(text) == 0 {
		return res.TextPosition
	}
	f := float64(res.TextOffset) / float64(len(text))
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
