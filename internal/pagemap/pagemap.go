// Package pagemap binds chunks to stable renderer page locations. Mapping is
// best-effort: a chunk whose location cannot be resolved keeps an absent
// PageLocation and downstream consumers fall back to href+offset navigation.
package pagemap

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pagefold/readercore/internal/chunk"
	"github.com/pagefold/readercore/internal/reader"
)

// ErrMappingInFlight reports a Map call made while a prior run for the same
// mapper is still executing. Mapping depends on the renderer's single-active
// -section loading model and must not be restarted concurrently.
var ErrMappingInFlight = errors.New("pagemap: mapping already in flight")

// Entry is one chunk-to-location record. The persisted shape and the
// in-memory shape are identical: an ordered list of these records.
type Entry struct {
	GlobalIndex int               `json:"global_chunk_index"`
	ChunkID     string            `json:"chunk_id"`
	Location    reader.LocationID `json:"page_location"`
}

// Mapping holds the chunk↔page maps produced by a mapping run. Entries are
// ordered by GlobalIndex and contain only resolved chunks.
type Mapping struct {
	Entries []Entry `json:"entries"`

	byChunk map[int]reader.LocationID
	byLoc   map[reader.LocationID][]int
}

// LocationFor returns the resolved location for a global chunk index.
func (m *Mapping) LocationFor(globalIndex int) (reader.LocationID, bool) {
	loc, ok := m.byChunk[globalIndex]
	return loc, ok
}

// ChunksAt returns the global indices of every chunk resolved to the given
// page location, in order.
func (m *Mapping) ChunksAt(loc reader.LocationID) []int {
	return m.byLoc[loc]
}

// Resolved returns how many chunks obtained a page location.
func (m *Mapping) Resolved() int { return len(m.Entries) }

// rebuildIndex populates the lookup maps from Entries, e.g. after the
// Mapping was decoded from its persisted JSON form.
func (m *Mapping) rebuildIndex() {
	m.byChunk = make(map[int]reader.LocationID, len(m.Entries))
	m.byLoc = make(map[reader.LocationID][]int)
	for _, e := range m.Entries {
		m.byChunk[e.GlobalIndex] = e.Location
		m.byLoc[e.Location] = append(m.byLoc[e.Location], e.GlobalIndex)
	}
}

// FromEntries builds an indexed Mapping from decoded entries.
func FromEntries(entries []Entry) *Mapping {
	m := &Mapping{Entries: entries}
	m.rebuildIndex()
	return m
}

// Mapper attaches page locations to a chunk set.
type Mapper struct {
	log *slog.Logger

	mu       sync.Mutex
	inFlight bool
}

func NewMapper(log *slog.Logger) *Mapper {
	return &Mapper{log: log}
}

// Map resolves a page location for each chunk in the set, mutating
// Chunk.PageLocation in place and returning the mapping records. It is
// sequential per chunk and refuses to run while a prior run is in flight.
//
// Each chunk resolves in two steps: range-at-offset → location, then
// location → ordinal → canonical location. The re-resolve normalizes every
// chunk on the same page to an identical location value, which duplicate
// suppression during restoration and search grouping rely on.
func (p *Mapper) Map(ctx context.Context, set *chunk.Set, loc reader.Locator) (*Mapping, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrMappingInFlight
	}
	p.inFlight = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	if err := p.ensureIndex(ctx, loc); err != nil {
		return nil, err
	}

	m := &Mapping{}
	unresolved := 0
	for i := range set.Chunks {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c := &set.Chunks[i]
		location, ok := p.resolveChunk(c, loc)
		if !ok {
			unresolved++
			continue
		}
		c.PageLocation = location
		m.Entries = append(m.Entries, Entry{
			GlobalIndex: c.GlobalIndex,
			ChunkID:     c.ID,
			Location:    location,
		})
	}
	m.rebuildIndex()

	p.log.Info("mapped chunk locations",
		"book_id", set.BookID,
		"resolved", len(m.Entries),
		"unresolved", unresolved,
	)
	return m, nil
}

// ensureIndex triggers location index generation, retrying once on a stale
// or failed index.
func (p *Mapper) ensureIndex(ctx context.Context, loc reader.Locator) error {
	err := loc.EnsureLocationIndex(ctx)
	if err == nil {
		return nil
	}
	p.log.Warn("location index generation failed, retrying", "error", err)
	if err := loc.EnsureLocationIndex(ctx); err != nil {
		return err
	}
	return nil
}

// resolveChunk runs the two-step resolution for one chunk. Any failure
// leaves the chunk unresolved; none are fatal.
func (p *Mapper) resolveChunk(c *chunk.Chunk, loc reader.Locator) (reader.LocationID, bool) {
	r, err := loc.RangeAtOffset(c.Href, c.StartOffset)
	if err != nil {
		p.log.Debug("no range at offset", "chunk", c.ID, "offset", c.StartOffset, "error", err)
		return "", false
	}
	location, err := loc.LocationForRange(r)
	if err != nil {
		p.log.Debug("range has no location", "chunk", c.ID, "error", err)
		return "", false
	}
	ordinal, err := loc.OrdinalForLocation(location)
	if err != nil {
		p.log.Debug("location has no ordinal", "chunk", c.ID, "error", err)
		return "", false
	}
	canonical, err := loc.LocationForOrdinal(ordinal)
	if err != nil {
		p.log.Debug("ordinal has no canonical location", "chunk", c.ID, "error", err)
		return "", false
	}
	return canonical, true
}
