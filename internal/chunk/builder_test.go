package chunk

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/pagefold/readercore/internal/reader"
	"github.com/pagefold/readercore/internal/render"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSplitSection_OverlapSeedsNextChunk(t *testing.T) {
	b := NewBuilder(Config{ChunkSize: 20, Overlap: 5, MinSectionChars: 1}, testLogger())
	sec := reader.Section{Href: "ch1", SpineIndex: 0}
	text := "aaaaaaaaaa\n\nbbbbbbbbbb"

	chunks := b.SplitSection(sec, text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	first := chunks[0]
	if first.Text != "aaaaaaaaaa" {
		t.Errorf("expected first chunk %q, got %q", "aaaaaaaaaa", first.Text)
	}
	if first.StartOffset != 0 || first.EndOffset != 10 {
		t.Errorf("expected first chunk offsets [0,10), got [%d,%d)", first.StartOffset, first.EndOffset)
	}

	second := chunks[1]
	tail := first.Text[len(first.Text)-5:]
	if !strings.HasPrefix(second.Text, tail) {
		t.Errorf("expected second chunk to begin with overlap %q, got %q", tail, second.Text)
	}
	if second.StartOffset != first.EndOffset-5 {
		t.Errorf("expected second chunk to back up by the overlap, got start %d", second.StartOffset)
	}
	if second.EndOffset != len(text) {
		t.Errorf("expected second chunk to end at %d, got %d", len(text), second.EndOffset)
	}
}

func TestSplitSection_Deterministic(t *testing.T) {
	b := NewBuilder(Config{ChunkSize: 120, Overlap: 20, MinSectionChars: 1}, testLogger())
	sec := reader.Section{Href: "ch2", SpineIndex: 1}
	text := strings.Repeat("The quick brown fox jumps over the lazy dog.\n\n", 12)

	first := b.SplitSection(sec, text)
	second := b.SplitSection(sec, text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different chunk boundaries")
	}
	if len(first) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(first))
	}
}

func TestSplitSection_OversizedParagraphStaysWhole(t *testing.T) {
	b := NewBuilder(Config{ChunkSize: 50, Overlap: 10, MinSectionChars: 1}, testLogger())
	big := strings.Repeat("x", 200)

	chunks := b.SplitSection(reader.Section{Href: "ch3"}, big)
	if len(chunks) != 1 {
		t.Fatalf("expected oversized paragraph to stay one chunk, got %d", len(chunks))
	}
	if chunks[0].Text != big {
		t.Errorf("expected paragraph kept intact, got %d chars", len(chunks[0].Text))
	}
}

func TestSplitSection_ChunkIDFormat(t *testing.T) {
	b := NewBuilder(Config{ChunkSize: 20, Overlap: 0, MinSectionChars: 1}, testLogger())
	text := "one paragraph here\n\nanother paragraph here\n\na third paragraph"

	chunks := b.SplitSection(reader.Section{Href: "intro"}, text)
	for i, c := range chunks {
		want := ChunkID("intro", i)
		if c.ID != want {
			t.Errorf("chunk %d: expected ID %q, got %q", i, want, c.ID)
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d: expected ChunkIndex %d, got %d", i, i, c.ChunkIndex)
		}
	}
}

func TestBuild_GlobalIndicesContiguousAcrossSections(t *testing.T) {
	para := strings.Repeat("Narrative text for one paragraph of the story. ", 8)
	body := para + "\n\n" + para + "\n\n" + para
	book := render.New("book1", []render.SectionContent{
		{Href: "ch1", Title: "One", Text: body},
		{Href: "ch2", Title: "Two", Text: body},
	}, 1024)

	b := NewBuilder(Config{ChunkSize: 300, Overlap: 30, MinSectionChars: 10}, testLogger())
	set, err := b.Build(context.Background(), "book1", book)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if set.Len() < 3 {
		t.Fatalf("expected chunks from both sections, got %d", set.Len())
	}
	for i, c := range set.Chunks {
		if c.GlobalIndex != i {
			t.Errorf("chunk %d: expected global index %d, got %d", i, i, c.GlobalIndex)
		}
	}
	if len(set.SectionChunks("ch1")) == 0 || len(set.SectionChunks("ch2")) == 0 {
		t.Errorf("expected chunks in both sections")
	}
}

func TestBuild_SkipsStructuralSections(t *testing.T) {
	para := strings.Repeat("Real story content flowing along nicely here. ", 10)
	book := render.New("book2", []render.SectionContent{
		{Href: "toc", Title: "Contents", Text: para},
		{Href: "cover", Title: "Cover", Text: para},
		{Href: "ch1", Title: "One", Text: para},
		{Href: "ch2", Title: "Two", Text: "too short"},
	}, 1024)

	b := NewBuilder(Config{ChunkSize: 500, Overlap: 50, MinSectionChars: 100}, testLogger())
	set, err := b.Build(context.Background(), "book2", book)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for _, c := range set.Chunks {
		if c.Href != "ch1" {
			t.Errorf("expected only ch1 chunks, got one from %q", c.Href)
		}
	}
	if set.Len() == 0 {
		t.Fatalf("expected ch1 to produce chunks")
	}
}

func TestSkipSection_MetadataSignatures(t *testing.T) {
	b := NewBuilder(Config{MinSectionChars: 10}, testLogger())

	listing := "Chapter 1 The Start\nChapter 2 The Middle\nChapter 3 More\nChapter 4 Still More\nChapter 5 The End\n" +
		strings.Repeat("filler ", 20)
	if skip, reason := b.skipSection("body1", listing); !skip {
		t.Errorf("expected chapter listing to be skipped, reason %q", reason)
	}

	boilerplate := "Copyright 2019. All rights reserved. ISBN: 978-0-000-00000-0. " + strings.Repeat("legal ", 30)
	if skip, _ := b.skipSection("body2", boilerplate); !skip {
		t.Errorf("expected publisher boilerplate to be skipped")
	}

	prose := strings.Repeat("It was the best of times, it was the worst of times. ", 80)
	if skip, reason := b.skipSection("body3", prose); skip {
		t.Errorf("expected narrative prose to be kept, skipped as %q", reason)
	}
}
