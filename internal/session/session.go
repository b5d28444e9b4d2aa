package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pagefold/readercore/internal/annotate"
	"github.com/pagefold/readercore/internal/chunk"
	"github.com/pagefold/readercore/internal/pagemap"
	"github.com/pagefold/readercore/internal/reader"
	"github.com/pagefold/readercore/internal/render"
	"github.com/pagefold/readercore/internal/search"
	"github.com/pagefold/readercore/internal/store"
	"github.com/pagefold/readercore/internal/summarize"
)

// ErrChunksInFlight is returned when a chunk build is requested while a
// prior build for the same session is still running.
var ErrChunksInFlight = errors.New("chunk build already in flight")

// Options configures a Session.
type Options struct {
	Chunk           chunk.Config
	RestoreDebounce time.Duration
	Pipeline        *summarize.Pipeline
	Log             *slog.Logger
}

// Session owns one open book: the renderer handle, its annotation stores,
// and the lazily built chunk set with its page mapping. A session is the
// unit of teardown; Close releases everything it wired up.
type Session struct {
	log  *slog.Logger
	book *render.Book

	builder *chunk.Builder
	mapper  *pagemap.Mapper
	engine  *search.Engine
	nav     *search.Navigator

	restorer *annotate.Restorer
	notes    *annotate.NoteStore
	pipeline *summarize.Pipeline

	mu       sync.Mutex
	set      *chunk.Set
	mapping  *pagemap.Mapping
	building bool
	closed   bool
	unsubs   []func()
}

// New wires a session around an open book. Selection, render and relocation
// events are subscribed immediately so highlights persist and restore
// without further calls.
func New(book *render.Book, kv store.KV, opts Options) *Session {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("book_id", book.ID())

	highlights := annotate.NewHighlightStore(kv, book.ID())
	s := &Session{
		log:      log,
		book:     book,
		builder:  chunk.NewBuilder(opts.Chunk, log),
		mapper:   pagemap.NewMapper(log),
		engine:   search.NewEngine(),
		nav:      search.NewNavigator(log),
		restorer: annotate.NewRestorer(highlights, book, opts.RestoreDebounce, log),
		notes:    annotate.NewNoteStore(kv, book.ID()),
		pipeline: opts.Pipeline,
	}
	s.subscribe()
	return s
}

func (s *Session) subscribe() {
	s.unsubs = append(s.unsubs,
		s.book.OnSelected(func(r reader.Range, text string) {
			if text == "" {
				return
			}
			h := &annotate.Highlight{
				BookID: s.book.ID(),
				CFI:    r,
				Text:   text,
			}
			if err := s.restorer.Add(h); err != nil {
				s.log.Error("persist selection highlight", "error", err)
			}
		}),
		s.book.OnRendered(s.restorer.ScheduleRestore),
		s.book.OnRelocated(s.restorer.ScheduleRestore),
	)
}

// Book exposes the renderer handle for direct navigation.
func (s *Session) Book() *render.Book { return s.book }

// Highlights exposes the session's highlight operations. All highlight
// mutation goes through the restorer so the rendered overlays stay in
// step with the store.
func (s *Session) Highlights() *annotate.Restorer { return s.restorer }

// Notes exposes the session's note store.
func (s *Session) Notes() *annotate.NoteStore { return s.notes }

// Close unsubscribes from renderer events, stops pending restoration work
// and releases the renderer. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	s.restorer.Stop()
	s.book.Close()
}

// Chunks returns the session's chunk set, building it on first use. Only
// one build runs at a time; concurrent callers get ErrChunksInFlight
// instead of a duplicate walk over the spine.
func (s *Session) Chunks(ctx context.Context) (*chunk.Set, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("session closed")
	}
	if s.set != nil {
		set := s.set
		s.mu.Unlock()
		return set, nil
	}
	if s.building {
		s.mu.Unlock()
		return nil, ErrChunksInFlight
	}
	s.building = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.building = false
		s.mu.Unlock()
	}()

	set, err := s.builder.Build(ctx, s.book.ID(), s.book)
	if err != nil {
		return nil, fmt.Errorf("build chunks: %w", err)
	}

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
	return set, nil
}

// Mapping resolves chunk page locations, building chunks first when
// needed. The result is cached for the life of the session.
func (s *Session) Mapping(ctx context.Context) (*pagemap.Mapping, error) {
	s.mu.Lock()
	if m := s.mapping; m != nil {
		s.mu.Unlock()
		return m, nil
	}
	s.mu.Unlock()

	set, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.mapper.Map(ctx, set, s.book)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.mapping = m
	s.mu.Unlock()
	return m, nil
}

// Search runs a literal query over the book's chunks, building them if
// this is the first chunk-dependent call.
func (s *Session) Search(ctx context.Context, query string) ([]search.Result, error) {
	set, err := s.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Search(query, set), nil
}

// GoToResult navigates the renderer to a search result and decorates the
// target section's matches.
func (s *Session) GoToResult(ctx context.Context, res search.Result) error {
	return s.nav.GoTo(ctx, s.book, res)
}

// ClearSearchDecoration removes search overlays left by GoToResult.
func (s *Session) ClearSearchDecoration() {
	s.nav.ClearDecoration(s.book)
}
