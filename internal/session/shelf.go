package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pagefold/readercore/internal/parser"
	"github.com/pagefold/readercore/internal/render"
	"github.com/pagefold/readercore/internal/store"
)

// Shelf manages the sessions for the books in a library directory. Each
// book is either a supported file or a subdirectory of section files; the
// book ID is the file name without extension, or the directory name.
type Shelf struct {
	dir       string
	kv        store.KV
	pageChars int
	opts      Options

	mu   sync.Mutex
	open map[string]*Session
}

// NewShelf creates a shelf over dir. Sessions share the KV store and the
// session options.
func NewShelf(dir string, kv store.KV, pageChars int, opts Options) *Shelf {
	return &Shelf{
		dir:       dir,
		kv:        kv,
		pageChars: pageChars,
		opts:      opts,
		open:      make(map[string]*Session),
	}
}

// List returns the IDs of the books on the shelf, sorted.
func (s *Shelf) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read shelf: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
			continue
		}
		if parser.IsSupportedExtension(e.Name()) {
			ids = append(ids, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Open returns the session for a book, opening it on first use. Opening
// an already open book returns the existing session.
func (s *Shelf) Open(bookID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.open[bookID]; ok {
		return sess, nil
	}

	path, err := s.resolve(bookID)
	if err != nil {
		return nil, err
	}
	book, err := render.Open(path, s.pageChars)
	if err != nil {
		return nil, err
	}
	sess := New(book, s.kv, s.opts)
	s.open[bookID] = sess
	return sess, nil
}

// Get returns the session for an already open book.
func (s *Shelf) Get(bookID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.open[bookID]
	return sess, ok
}

// Close tears down a book's session. Returns false when the book was not
// open.
func (s *Shelf) Close(bookID string) bool {
	s.mu.Lock()
	sess, ok := s.open[bookID]
	delete(s.open, bookID)
	s.mu.Unlock()

	if ok {
		sess.Close()
	}
	return ok
}

// CloseAll tears down every open session. Used at shutdown.
func (s *Shelf) CloseAll() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.open))
	for _, sess := range s.open {
		sessions = append(sessions, sess)
	}
	s.open = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// resolve maps a book ID to its path on the shelf: a directory with that
// name, or a supported file whose name without extension matches.
func (s *Shelf) resolve(bookID string) (string, error) {
	if strings.ContainsAny(bookID, `/\`) || bookID == "" || bookID == "." || bookID == ".." {
		return "", fmt.Errorf("invalid book id %q", bookID)
	}

	dir := filepath.Join(s.dir, bookID)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("read shelf: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		if strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())) == bookID {
			return filepath.Join(s.dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("book %q not on shelf", bookID)
}
