// Package summarize produces and caches section summaries and answers
// questions over the chunk set, using remote language models behind a
// layered fallback chain. Summaries are a pure optimization: every cache
// failure degrades to recomputation or a dropped write, never to an error
// surfaced past the pipeline.
package summarize

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagefold/readercore/internal/store"
)

// DefaultTTL is how long a cached summary stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// Summary is a cached, externally computed summary of one chunk.
type Summary struct {
	ChunkID    string    `json:"chunk_id"`
	SpineIndex int       `json:"spine_index"`
	Href       string    `json:"href"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
	TokenCount int       `json:"token_count,omitempty"`
}

// Cache is a content-addressed, TTL-bounded summary cache keyed by
// (bookID, chunkID). Expired entries read as absent and are evicted lazily;
// write pressure triggers an opportunistic sweep across all books.
type Cache struct {
	kv  store.KV
	ttl time.Duration
	log *slog.Logger
}

func NewCache(kv store.KV, ttl time.Duration, log *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{kv: kv, ttl: ttl, log: log}
}

func summaryKey(bookID, chunkID string) string {
	return fmt.Sprintf("summaries/%s/%s", bookID, chunkID)
}

func bookPrefix(bookID string) string {
	return fmt.Sprintf("summaries/%s/", bookID)
}

// Get returns the cached summary, or nil when absent or expired. An expired
// entry is evicted on the way out.
func (c *Cache) Get(bookID, chunkID string) (*Summary, error) {
	key := summaryKey(bookID, chunkID)
	data, err := c.kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt entry is as good as absent; drop it.
		c.log.Warn("dropping undecodable summary", "key", key, "error", err)
		_ = c.kv.Delete(key)
		return nil, nil
	}
	if c.expired(s) {
		_ = c.kv.Delete(key)
		return nil, nil
	}
	return &s, nil
}

// Put stores a summary. On a storage-pressure failure it sweeps expired
// entries across all books and retries once; if the write still fails it is
// dropped, not surfaced.
func (c *Cache) Put(bookID string, s Summary) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	key := summaryKey(bookID, s.ChunkID)

	err = c.kv.Set(key, data)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrStorageFull) {
		return fmt.Errorf("cache put: %w", err)
	}

	c.log.Warn("summary write under storage pressure, sweeping", "key", key)
	c.SweepAll()
	if err := c.kv.Set(key, data); err != nil {
		c.log.Warn("dropping summary write", "key", key, "error", err)
	}
	return nil
}

// EvictBook removes every cached summary for a book, e.g. when it leaves
// the shelf.
func (c *Cache) EvictBook(bookID string) {
	keys, err := c.kv.ListKeys(bookPrefix(bookID))
	if err != nil {
		c.log.Warn("book eviction scan failed", "book_id", bookID, "error", err)
		return
	}
	for _, k := range keys {
		_ = c.kv.Delete(k)
	}
}

// SweepAll evicts expired entries across every book's cache.
func (c *Cache) SweepAll() {
	keys, err := c.kv.ListKeys("summaries/")
	if err != nil {
		c.log.Warn("sweep scan failed", "error", err)
		return
	}
	evicted := 0
	for _, k := range keys {
		data, err := c.kv.Get(k)
		if err != nil || data == nil {
			continue
		}
		var s Summary
		if err := json.Unmarshal(data, &s); err != nil || c.expired(s) {
			_ = c.kv.Delete(k)
			evicted++
		}
	}
	if evicted > 0 {
		c.log.Info("swept expired summaries", "evicted", evicted)
	}
}

func (c *Cache) expired(s Summary) bool {
	return time.Since(s.CreatedAt) > c.ttl
}
