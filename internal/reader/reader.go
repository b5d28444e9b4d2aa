// Package reader defines the contracts the core expects from a paginated
// document renderer. The renderer owns pagination, layout and display; the
// core only consumes section iteration, location generation, navigation and
// overlay placement through these interfaces, so it can be unit-tested
// against any implementation.
package reader

import "context"

// LocationID is a renderer-native, stable identifier for a paginated
// position. Its syntax is opaque to the core except for the section-address
// prefix used by restoration containment checks.
type LocationID string

// Range is a renderer-native identifier for a content range (a CFI-style
// address). The core treats it as opaque.
type Range string

// Section is one entry of the document spine.
type Section struct {
	Href       string // unique within the book
	SpineIndex int    // ordinal position in reading order
	Title      string // display title, may be empty
}

// Renderer exposes the section space and navigation of one open book.
// SectionText loads are sequential: the renderer keeps a single active
// section at a time, so callers must not interleave loads.
type Renderer interface {
	Sections() []Section
	SectionText(ctx context.Context, href string) (string, error)

	CurrentLocation() LocationID
	NavigateToLocation(ctx context.Context, loc LocationID) error
	NavigateToSection(ctx context.Context, href string) error

	// ScrollToOffset positions the view at the given character offset within
	// an already-displayed section. It fails when the offset cannot be found
	// in the rendered content.
	ScrollToOffset(ctx context.Context, href string, offset int) error
	// ScrollToFraction positions the view proportionally within a section.
	// Last-resort navigation; never fails on a displayed section.
	ScrollToFraction(ctx context.Context, href string, fraction float64) error
}

// Locator exposes the renderer's pagination index. RangeAtOffset is the
// single "resolve content range for byte offset in section" capability;
// implementations walk whatever node structure backs the section text.
type Locator interface {
	EnsureLocationIndex(ctx context.Context) error
	RangeAtOffset(href string, offset int) (Range, error)
	LocationForRange(r Range) (LocationID, error)
	OrdinalForLocation(loc LocationID) (int, error)
	LocationForOrdinal(ordinal int) (LocationID, error)
}

// OverlayKind distinguishes persisted highlight overlays from transient
// search decoration.
type OverlayKind string

const (
	OverlayHighlight OverlayKind = "highlight"
	OverlaySearch    OverlayKind = "search"
)

// Overlay is a visual decoration bound to a content range. Tag carries
// application metadata (a highlight ID, or a search marker).
type Overlay struct {
	Kind  OverlayKind
	Range Range
	Style string
	Tag   string
}

// Overlays is the decoration surface the core drives on the renderer.
// RemoveOverlay removes every overlay carrying the tag.
type Overlays interface {
	AddOverlay(o Overlay) error
	RemoveOverlay(tag string)
	ListOverlays() []Overlay
}

// Events is the subscription surface for renderer-emitted events. Each
// registration returns an unsubscribe func; callers must invoke it on
// teardown so handlers never outlive their session.
type Events interface {
	OnSelected(fn func(r Range, text string)) (unsubscribe func())
	OnRendered(fn func()) (unsubscribe func())
	OnRelocated(fn func()) (unsubscribe func())
}

// Handle bundles every renderer capability for one open book. Exactly one
// live Handle exists per book session; it is passed explicitly to the core
// components and released on session teardown.
type Handle interface {
	Renderer
	Locator
	Overlays
	Events
}
