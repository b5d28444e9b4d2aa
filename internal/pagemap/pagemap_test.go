package pagemap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pagefold/readercore/internal/chunk"
	"github.com/pagefold/readercore/internal/reader"
	"github.com/pagefold/readercore/internal/render"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBook(t *testing.T) *render.Book {
	t.Helper()
	// 25 chars and 10-char pages: pages start at 0, 10 and 20.
	return render.New("b1", []render.SectionContent{
		{Href: "s1", Title: "One", Text: strings.Repeat("abcde", 5)},
	}, 10)
}

func TestMap_NormalizesSamePageChunksToOneLocation(t *testing.T) {
	book := testBook(t)
	set := &chunk.Set{BookID: "b1", Chunks: []chunk.Chunk{
		{ID: "s1:0", Href: "s1", StartOffset: 0, GlobalIndex: 0},
		{ID: "s1:1", Href: "s1", StartOffset: 5, GlobalIndex: 1},
		{ID: "s1:2", Href: "s1", StartOffset: 12, GlobalIndex: 2},
	}}

	m, err := NewMapper(testLogger()).Map(context.Background(), set, book)
	if err != nil {
		t.Fatalf("map failed: %v", err)
	}
	if m.Resolved() != 3 {
		t.Fatalf("expected 3 resolved chunks, got %d", m.Resolved())
	}

	loc0, _ := m.LocationFor(0)
	loc1, _ := m.LocationFor(1)
	if loc0 != loc1 {
		t.Errorf("expected chunks on one page to share a location, got %q and %q", loc0, loc1)
	}
	if loc0 != reader.LocationID("s1@0") {
		t.Errorf("expected canonical page start s1@0, got %q", loc0)
	}

	loc2, _ := m.LocationFor(2)
	if loc2 != reader.LocationID("s1@10") {
		t.Errorf("expected second-page chunk at s1@10, got %q", loc2)
	}

	if got := m.ChunksAt("s1@0"); len(got) != 2 {
		t.Errorf("expected 2 chunks at s1@0, got %v", got)
	}
}

func TestMap_UnresolvableChunkStaysAbsent(t *testing.T) {
	book := testBook(t)
	set := &chunk.Set{BookID: "b1", Chunks: []chunk.Chunk{
		{ID: "s1:0", Href: "s1", StartOffset: 0, GlobalIndex: 0},
		{ID: "gone:0", Href: "gone", StartOffset: 0, GlobalIndex: 1},
	}}

	m, err := NewMapper(testLogger()).Map(context.Background(), set, book)
	if err != nil {
		t.Fatalf("map failed: %v", err)
	}
	if m.Resolved() != 1 {
		t.Fatalf("expected 1 resolved chunk, got %d", m.Resolved())
	}
	if _, ok := m.LocationFor(1); ok {
		t.Errorf("expected unresolvable chunk to have no location")
	}
	if set.Chunks[1].PageLocation != "" {
		t.Errorf("expected unresolved chunk's PageLocation to stay empty, got %q", set.Chunks[1].PageLocation)
	}
}

// blockingLocator parks EnsureLocationIndex until released, to hold a Map
// call in flight.
type blockingLocator struct {
	entered chan struct{}
	release chan struct{}
}

func (l *blockingLocator) EnsureLocationIndex(ctx context.Context) error {
	close(l.entered)
	<-l.release
	return nil
}

func (l *blockingLocator) RangeAtOffset(href string, offset int) (reader.Range, error) {
	return "", errors.New("no range")
}

func (l *blockingLocator) LocationForRange(r reader.Range) (reader.LocationID, error) {
	return "", errors.New("no location")
}

func (l *blockingLocator) OrdinalForLocation(loc reader.LocationID) (int, error) {
	return 0, errors.New("no ordinal")
}

func (l *blockingLocator) LocationForOrdinal(ordinal int) (reader.LocationID, error) {
	return "", errors.New("no location")
}

func TestMap_RejectsConcurrentRun(t *testing.T) {
	mapper := NewMapper(testLogger())
	set := &chunk.Set{BookID: "b1"}
	loc := &blockingLocator{entered: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := mapper.Map(context.Background(), set, loc)
		done <- err
	}()
	<-loc.entered

	if _, err := mapper.Map(context.Background(), set, loc); !errors.Is(err, ErrMappingInFlight) {
		t.Errorf("expected ErrMappingInFlight, got %v", err)
	}

	close(loc.release)
	if err := <-done; err != nil {
		t.Fatalf("first map failed: %v", err)
	}

	// The guard clears once the first run finishes.
	loc2 := &blockingLocator{entered: make(chan struct{}), release: make(chan struct{})}
	close(loc2.release)
	if _, err := mapper.Map(context.Background(), set, loc2); err != nil {
		t.Errorf("expected guard to clear, got %v", err)
	}
}

// flakyLocator fails index generation once, then succeeds.
type flakyLocator struct {
	blockingLocator
	calls int
}

func (l *flakyLocator) EnsureLocationIndex(ctx context.Context) error {
	l.calls++
	if l.calls == 1 {
		return errors.New("index generation failed")
	}
	return nil
}

func TestMap_RetriesIndexGenerationOnce(t *testing.T) {
	mapper := NewMapper(testLogger())
	set := &chunk.Set{BookID: "b1"}

	loc := &flakyLocator{}
	if _, err := mapper.Map(context.Background(), set, loc); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if loc.calls != 2 {
		t.Errorf("expected 2 index attempts, got %d", loc.calls)
	}
}
