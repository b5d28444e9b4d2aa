package annotate

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pagefold/readercore/internal/reader"
)

// DefaultRestoreDebounce is the quiet period before a restoration pass runs.
// Render and relocate events fire in bursts during a single logical
// navigation; the debounce coalesces them.
const DefaultRestoreDebounce = 150 * time.Millisecond

// Restorer applies persisted highlights to the renderer and keeps overlays
// in sync with the store. One Restorer exists per book session.
type Restorer struct {
	log      *slog.Logger
	store    *HighlightStore
	h        reader.Handle
	deferred *Deferred
}

func NewRestorer(store *HighlightStore, h reader.Handle, debounce time.Duration, log *slog.Logger) *Restorer {
	if debounce <= 0 {
		debounce = DefaultRestoreDebounce
	}
	return &Restorer{
		log:      log,
		store:    store,
		h:        h,
		deferred: NewDeferred(debounce),
	}
}

// Add persists the highlight and attempts immediate annotation. An empty
// text selection is rejected by the caller before reaching here.
func (r *Restorer) Add(h *Highlight) error {
	if err := r.store.Add(h); err != nil {
		return err
	}
	r.annotate(*h)
	return nil
}

// List returns every persisted highlight for the book.
func (r *Restorer) List() ([]Highlight, error) {
	return r.store.List()
}

// Remove deletes the persisted record and scans out any live overlay bound
// to the highlight's ID. A later restoration pass cannot resurrect it.
func (r *Restorer) Remove(id string) (bool, error) {
	_, ok, err := r.store.Remove(id)
	if err != nil {
		return false, err
	}
	for _, o := range r.h.ListOverlays() {
		if o.Kind == reader.OverlayHighlight && o.Tag == id {
			r.h.RemoveOverlay(o.Tag)
		}
	}
	return ok, nil
}

// UpdateNote edits the stored note without touching the visual overlay.
func (r *Restorer) UpdateNote(id, note string) (Highlight, error) {
	return r.store.UpdateNote(id, note)
}

// HighlightForOverlay resolves a clicked overlay back to its persisted
// highlight. Overlay tags are highlight IDs; there is no separate click
// target registry.
func (r *Restorer) HighlightForOverlay(tag string) (Highlight, bool, error) {
	return r.store.Get(tag)
}

// ScheduleRestore queues a debounced restoration pass. Wire it to the
// renderer's render and relocate events.
func (r *Restorer) ScheduleRestore() {
	r.deferred.Schedule(r.restoreVisible)
}

// Stop cancels any pending restoration. Call on session teardown before
// releasing the renderer handle.
func (r *Restorer) Stop() {
	r.deferred.Stop()
}

// restoreVisible re-annotates highlights belonging to the currently visible
// section. Running it twice in a row is idempotent: existing overlays are
// detected and skipped.
func (r *Restorer) restoreVisible() {
	current := r.h.CurrentLocation()
	if current == "" {
		return
	}
	prefix := sectionPrefix(string(current))

	hs, err := r.store.List()
	if err != nil {
		r.log.Warn("restore pass skipped, store read failed", "error", err)
		return
	}

	restored := 0
	for _, h := range hs {
		// Coarse containment: same section-address prefix as the current
		// location. A highlight near a section boundary may restore a page
		// early or late.
		if sectionPrefix(string(h.CFI)) != prefix {
			continue
		}
		if r.annotate(h) {
			restored++
		}
	}
	if restored > 0 {
		r.log.Debug("restored highlights", "location", current, "count", restored)
	}
}

// annotate creates the overlay for a highlight unless one already exists.
// Two independent duplicate conditions are checked, an overlay tagged with
// this ID or an overlay bound to this exact stored range, because initial
// creation and restoration are not mutually exclusive in time. A duplicate
// attempt is a silent skip, not an error.
func (r *Restorer) annotate(h Highlight) bool {
	for _, o := range r.h.ListOverlays() {
		if o.Kind != reader.OverlayHighlight {
			continue
		}
		if o.Tag == h.ID || o.Range == h.CFI {
			return false
		}
	}
	err := r.h.AddOverlay(reader.Overlay{
		Kind:  reader.OverlayHighlight,
		Range: h.CFI,
		Style: string(h.Colour),
		Tag:   h.ID,
	})
	if err != nil {
		r.log.Debug("overlay rejected", "highlight", h.ID, "error", err)
		return false
	}
	return true
}

// sectionPrefix extracts the section-address part of a location or range
// identifier: everything before the first intra-section separator.
func sectionPrefix(s string) string {
	if i := strings.IndexAny(s, "@#!"); i >= 0 {
		return s[:i]
	}
	return s
}
