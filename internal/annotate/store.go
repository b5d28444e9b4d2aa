package annotate

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pagefold/readercore/internal/store"
)

// HighlightStore is the authoritative highlight record store for one book.
// Every mutation is a read-modify-write of the persisted record list under
// one lock, so direct user actions and the restoration path's note-edit flow
// never diverge onto separate copies.
type HighlightStore struct {
	mu     sync.Mutex
	kv     store.KV
	bookID string
}

func NewHighlightStore(kv store.KV, bookID string) *HighlightStore {
	return &HighlightStore{kv: kv, bookID: bookID}
}

// List returns all persisted highlights for the book.
func (s *HighlightStore) List() ([]Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the highlight with the given ID.
func (s *HighlightStore) Get(id string) (Highlight, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, err := s.load()
	if err != nil {
		return Highlight{}, false, err
	}
	for _, h := range hs {
		if h.ID == id {
			return h, true, nil
		}
	}
	return Highlight{}, false, nil
}

// Add persists a new highlight, filling ID, book and timestamps.
func (s *HighlightStore) Add(h *Highlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.BookID = s.bookID
	if !h.Colour.Valid() {
		h.Colour = ColourYellow
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now

	hs, err := s.load()
	if err != nil {
		return err
	}
	hs = append(hs, *h)
	return s.save(hs)
}

// Remove deletes the highlight record. It returns the removed record so the
// caller can clear its overlay.
func (s *HighlightStore) Remove(id string) (Highlight, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hs, err := s.load()
	if err != nil {
		return Highlight{}, false, err
	}
	for i, h := range hs {
		if h.ID == id {
			hs = append(hs[:i], hs[i+1:]...)
			if err := s.save(hs); err != nil {
				return Highlight{}, false, err
			}
			return h, true, nil
		}
	}
	return Highlight{}, false, nil
}

// UpdateNote mutates the stored record's note and updated time. It never
// touches the highlight's visual overlay.
func (s *HighlightStore) UpdateNote(id, note string) (Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hs, err := s.load()
	if err != nil {
		return Highlight{}, err
	}
	for i := range hs {
		if hs[i].ID == id {
			hs[i].Note = note
			hs[i].UpdatedAt = time.Now().UTC()
			if err := s.save(hs); err != nil {
				return Highlight{}, err
			}
			return hs[i], nil
		}
	}
	return Highlight{}, fmt.Errorf("highlight %s not found", id)
}

// load and save hold s.mu.

func (s *HighlightStore) load() ([]Highlight, error) {
	data, err := s.kv.Get(highlightsKey(s.bookID))
	if err != nil {
		return nil, fmt.Errorf("load highlights: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var hs []Highlight
	if err := json.Unmarshal(data, &hs); err != nil {
		return nil, fmt.Errorf("decode highlights: %w", err)
	}
	return hs, nil
}

func (s *HighlightStore) save(hs []Highlight) error {
	if hs == nil {
		hs = []Highlight{}
	}
	data, err := json.Marshal(hs)
	if err != nil {
		return fmt.Errorf("encode highlights: %w", err)
	}
	if err := s.kv.Set(highlightsKey(s.bookID), data); err != nil {
		return fmt.Errorf("save highlights: %w", err)
	}
	return nil
}
