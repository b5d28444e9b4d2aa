package annotate

import (
	"testing"

	"github.com/pagefold/readercore/internal/store"
)

func TestHighlightStore_AddAssignsIdentityAndDefaults(t *testing.T) {
	s := NewHighlightStore(store.NewMemory(), "book1")

	h := &Highlight{BookID: "book1", CFI: "ch1@10-25", Text: "a passage"}
	if err := s.Add(h); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if h.ID == "" {
		t.Errorf("expected generated ID")
	}
	if h.Colour != ColourYellow {
		t.Errorf("expected default colour yellow, got %q", h.Colour)
	}
	if h.CreatedAt.IsZero() || h.UpdatedAt.IsZero() {
		t.Errorf("expected timestamps set")
	}

	got, ok, err := s.Get(h.ID)
	if err != nil || !ok {
		t.Fatalf("expected stored highlight, ok=%v err=%v", ok, err)
	}
	if got.Text != "a passage" {
		t.Errorf("expected text round trip, got %q", got.Text)
	}
}

func TestHighlightStore_ListIsPerBook(t *testing.T) {
	kv := store.NewMemory()
	s1 := NewHighlightStore(kv, "book1")
	s2 := NewHighlightStore(kv, "book2")

	if err := s1.Add(&Highlight{BookID: "book1", CFI: "ch1@0-5", Text: "one"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s2.Add(&Highlight{BookID: "book2", CFI: "ch1@0-5", Text: "two"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	hs, err := s1.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(hs) != 1 || hs[0].Text != "one" {
		t.Errorf("expected only book1 highlights, got %v", hs)
	}
}

func TestHighlightStore_RemoveReturnsRecord(t *testing.T) {
	s := NewHighlightStore(store.NewMemory(), "book1")

	h := &Highlight{BookID: "book1", CFI: "ch1@0-5", Text: "gone"}
	if err := s.Add(h); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	removed, ok, err := s.Remove(h.ID)
	if err != nil || !ok {
		t.Fatalf("expected removal, ok=%v err=%v", ok, err)
	}
	if removed.Text != "gone" {
		t.Errorf("expected removed record returned, got %q", removed.Text)
	}

	if _, ok, _ := s.Get(h.ID); ok {
		t.Errorf("expected highlight gone after remove")
	}
	if _, ok, _ := s.Remove(h.ID); ok {
		t.Errorf("expected second remove to report not found")
	}
}

func TestHighlightStore_UpdateNoteTouchesTimestamp(t *testing.T) {
	s := NewHighlightStore(store.NewMemory(), "book1")

	h := &Highlight{BookID: "book1", CFI: "ch1@0-5", Text: "keep"}
	if err := s.Add(h); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	updated, err := s.UpdateNote(h.ID, "margin note")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Note != "margin note" {
		t.Errorf("expected note set, got %q", updated.Note)
	}
	if updated.UpdatedAt.Before(h.UpdatedAt) {
		t.Errorf("expected UpdatedAt to advance")
	}

	if _, err := s.UpdateNote("missing", "x"); err == nil {
		t.Errorf("expected error for unknown highlight")
	}
}

func TestNoteStore_CRUD(t *testing.T) {
	s := NewNoteStore(store.NewMemory(), "book1")

	n, err := s.Add("ch2@40-80", "standalone thought")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if n.ID == "" || n.BookID != "book1" {
		t.Errorf("expected identity fields set, got %+v", n)
	}

	updated, err := s.Update(n.ID, "revised thought")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Content != "revised thought" {
		t.Errorf("expected content updated, got %q", updated.Content)
	}

	ns, err := s.List()
	if err != nil || len(ns) != 1 {
		t.Fatalf("expected 1 note, got %d err=%v", len(ns), err)
	}

	ok, err := s.Remove(n.ID)
	if err != nil || !ok {
		t.Fatalf("expected removal, ok=%v err=%v", ok, err)
	}
	if ns, _ := s.List(); len(ns) != 0 {
		t.Errorf("expected empty list after remove, got %d", len(ns))
	}
}
