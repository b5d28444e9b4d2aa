package session

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/pagefold/readercore/internal/chunk"
	"github.com/pagefold/readercore/internal/reader"
	"github.com/pagefold/readercore/internal/render"
	"github.com/pagefold/readercore/internal/store"
)

func testOptions() Options {
	return Options{
		Chunk:           chunk.Config{ChunkSize: 200, Overlap: 20, MinSectionChars: 10},
		RestoreDebounce: time.Millisecond,
		Log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testBook() *render.Book {
	para := strings.Repeat("Narrative text flowing through the section nicely. ", 4)
	body := para + "\n\n" + para + "\n\n" + para
	return render.New("book1", []render.SectionContent{
		{Href: "ch1", Title: "One", Text: body},
		{Href: "ch2", Title: "Two", Text: body},
	}, 120)
}

func TestSession_ChunksBuildOnceAndCache(t *testing.T) {
	s := New(testBook(), store.NewMemory(), testOptions())
	defer s.Close()

	set1, err := s.Chunks(context.Background())
	if err != nil {
		t.Fatalf("chunk build failed: %v", err)
	}
	if set1.Len() == 0 {
		t.Fatalf("expected chunks")
	}

	set2, err := s.Chunks(context.Background())
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if set1 != set2 {
		t.Errorf("expected cached chunk set reused")
	}
}

func TestSession_SearchBuildsChunksOnFirstUse(t *testing.T) {
	s := New(testBook(), store.NewMemory(), testOptions())
	defer s.Close()

	results, err := s.Search(context.Background(), "narrative")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected matches across sections")
	}
}

func TestSession_SelectionPersistsHighlight(t *testing.T) {
	book := testBook()
	s := New(book, store.NewMemory(), testOptions())
	defer s.Close()

	if err := book.NavigateToSection(context.Background(), "ch1"); err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	if err := book.Select("ch1", 0, 14); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	hs, err := s.Highlights().List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(hs) != 1 {
		t.Fatalf("expected 1 highlight from selection, got %d", len(hs))
	}
	if hs[0].Text != "Narrative text" {
		t.Errorf("expected selected text snapshot, got %q", hs[0].Text)
	}
	if hs[0].CFI != "ch1@0-14" {
		t.Errorf("expected selection range, got %q", hs[0].CFI)
	}

	found := false
	for _, o := range book.ListOverlays() {
		if o.Kind == reader.OverlayHighlight && o.Tag == hs[0].ID {
			found = true
		}
	}
	if !found {
		t.Errorf("expected overlay applied immediately")
	}
}

func TestSession_RelocationRestoresHighlights(t *testing.T) {
	book := testBook()
	kv := store.NewMemory()

	// A prior session leaves a persisted highlight behind.
	first := New(book, kv, testOptions())
	if err := book.NavigateToSection(context.Background(), "ch1"); err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	if err := book.Select("ch1", 0, 14); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	first.Close()

	reopened := render.New("book1", []render.SectionContent{
		{Href: "ch1", Title: "One", Text: strings.Repeat("Narrative text flowing through the section nicely. ", 12)},
	}, 120)
	s := New(reopened, kv, testOptions())
	defer s.Close()

	if err := reopened.NavigateToSection(context.Background(), "ch1"); err != nil {
		t.Fatalf("navigate failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if n := len(reopened.ListOverlays()); n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("highlight never restored, overlays: %d", len(reopened.ListOverlays()))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSession_CloseUnsubscribesEvents(t *testing.T) {
	book := testBook()
	kv := store.NewMemory()
	s := New(book, kv, testOptions())
	s.Close()

	if _, err := s.Chunks(context.Background()); err == nil {
		t.Errorf("expected closed session to reject chunk builds")
	}

	// Selection after close must not write through dead subscriptions;
	// the renderer is closed as part of teardown anyway.
	if err := book.Select("ch1", 0, 5); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	hls, _ := s.Highlights().List()
	if len(hls) != 0 {
		t.Errorf("expected no highlight after teardown, got %d", len(hls))
	}
}

func TestSession_ChunksUpToCurrentPage(t *testing.T) {
	book := testBook()
	s := New(book, store.NewMemory(), testOptions())
	defer s.Close()

	if err := book.NavigateToSection(context.Background(), "ch1"); err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	onFirstPage, err := s.chunksUpToCurrent(context.Background())
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}

	set, _ := s.Chunks(context.Background())
	if len(onFirstPage) == 0 || len(onFirstPage) >= set.Len() {
		t.Fatalf("expected a strict prefix on the first page, got %d of %d", len(onFirstPage), set.Len())
	}

	if err := book.NavigateToSection(context.Background(), "ch2"); err != nil {
		t.Fatalf("navigate failed: %v", err)
	}
	if err := book.ScrollToFraction(context.Background(), "ch2", 1.0); err != nil {
		t.Fatalf("scroll failed: %v", err)
	}
	atEnd, err := s.chunksUpToCurrent(context.Background())
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if len(atEnd) != set.Len() {
		t.Errorf("expected every chunk at book end, got %d of %d", len(atEnd), set.Len())
	}

	// Spine order within the filtered prefix.
	for i := 1; i < len(atEnd); i++ {
		if atEnd[i].GlobalIndex != atEnd[i-1].GlobalIndex+1 {
			t.Fatalf("expected contiguous prefix, got %d after %d", atEnd[i].GlobalIndex, atEnd[i-1].GlobalIndex)
		}
	}
}
