package annotate

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pagefold/readercore/internal/reader"
	"github.com/pagefold/readercore/internal/store"
)

// NoteStore persists standalone notes for one book. Notes are independent
// of highlights; deleting a highlight leaves its notes untouched.
type NoteStore struct {
	mu     sync.Mutex
	kv     store.KV
	bookID string
}

func NewNoteStore(kv store.KV, bookID string) *NoteStore {
	return &NoteStore{kv: kv, bookID: bookID}
}

func (s *NoteStore) List() ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add persists a new note at the given range.
func (s *NoteStore) Add(cfiRange reader.Range, content string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	n := Note{
		ID:        uuid.NewString(),
		BookID:    s.bookID,
		CFIRange:  cfiRange,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ns, err := s.load()
	if err != nil {
		return Note{}, err
	}
	ns = append(ns, n)
	if err := s.save(ns); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Update replaces a note's content.
func (s *NoteStore) Update(id, content string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, err := s.load()
	if err != nil {
		return Note{}, err
	}
	for i := range ns {
		if ns[i].ID == id {
			ns[i].Content = content
			ns[i].UpdatedAt = time.Now().UTC()
			if err := s.save(ns); err != nil {
				return Note{}, err
			}
			return ns[i], nil
		}
	}
	return Note{}, fmt.Errorf("note %s not found", id)
}

// Remove deletes a note.
func (s *NoteStore) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, err := s.load()
	if err != nil {
		return false, err
	}
	for i := range ns {
		if ns[i].ID == id {
			ns = append(ns[:i], ns[i+1:]...)
			if err := s.save(ns); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *NoteStore) load() ([]Note, error) {
	data, err := s.kv.Get(notesKey(s.bookID))
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var ns []Note
	if err := json.Unmarshal(data, &ns); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return ns, nil
}

func (s *NoteStore) save(ns []Note) error {
	if ns == nil {
		ns = []Note{}
	}
	data, err := json.Marshal(ns)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	if err := s.kv.Set(notesKey(s.bookID), data); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}
