// Package store implements the key-value persistence contract used for
// highlight, note and summary records: Get/Set of JSON values plus a prefix
// scan for maintenance sweeps. Drivers: in-memory, single JSON file, SQLite.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrStorageFull reports a write rejected for storage pressure. Callers that
// treat their data as a cache should evict and retry once, then drop the
// write.
var ErrStorageFull = errors.New("store: storage full")

// KV is the persistence contract. Get returns (nil, nil) for an absent key,
// mirroring a not-found lookup rather than an error. Values are opaque JSON
// bytes; callers own the schema.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// ListKeys returns every stored key with the given prefix, in
	// lexicographic order.
	ListKeys(prefix string) ([]string, error)
	Close() error
}

// Memory is an in-process KV used by tests and ephemeral sessions.
type Memory struct {
	mu sync.Mutex
	m  map[string][]byte

	// FailSets makes the next n Set calls return ErrStorageFull. Tests use
	// it to exercise the eviction-sweep-then-retry path.
	FailSets int
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (s *Memory) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Memory) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSets > 0 {
		s.FailSets--
		return ErrStorageFull
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.m[key] = v
	return nil
}

func (s *Memory) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Memory) ListKeys(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Memory) Close() error { return nil }
