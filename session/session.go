// Package session tracks the records each signed-in session marked as recently added.
package session

import (
	"sync"
	"time"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/patrickmn/go-cache"
)

const (
	// DefaultTTL is how long an idle session keeps its marks
	DefaultTTL = 12 * time.Hour
)

type idSet map[int]bool

// Marks holds each session's marked record IDs. Idle sessions expire after the TTL.
type Marks struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMarks returns an empty Marks. A ttl <= 0 uses DefaultTTL.
func NewMarks(ttl time.Duration) *Marks {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Marks{
		cache: cache.New(ttl, ttl/2),
	}
}

func (m *Marks) get(sessionID string) idSet {
	if value, found := m.cache.Get(sessionID); found {
		return value.(idSet)
	}
	return nil
}

// update swaps the session's set for a modified copy, refreshing the session's TTL
func (m *Marks) update(sessionID string, fn func(idSet)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.get(sessionID)
	next := make(idSet, len(current))
	for id := range current {
		next[id] = true
	}
	fn(next)
	m.cache.SetDefault(sessionID, next)
}

// Mark adds 'ids' to the session's marks
func (m *Marks) Mark(sessionID string, ids ...int) {
	m.update(sessionID, func(set idSet) {
		for _, id := range ids {
			set[id] = true
		}
	})
}

// Unmark removes 'ids' from the session's marks
func (m *Marks) Unmark(sessionID string, ids ...int) {
	m.update(sessionID, func(set idSet) {
		for _, id := range ids {
			delete(set, id)
		}
	})
}

// Clear removes every mark but keeps the session alive
func (m *Marks) Clear(sessionID string) {
	m.update(sessionID, func(set idSet) {
		for id := range set {
			delete(set, id)
		}
	})
}

// ClearAll removes every session's marks, i.e. after the catalog is replaced
func (m *Marks) ClearAll() {
	m.cache.Flush()
}

// Set returns a copy of the session's marked IDs
func (m *Marks) Set(sessionID string) map[int]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.get(sessionID)
	set := make(map[int]bool, len(current))
	for id := range current {
		set[id] = true
	}
	return set
}

// End forgets the session entirely
func (m *Marks) End(sessionID string) {
	m.cache.Delete(sessionID)
}

// Titles returns the titles of the 'marked' records, oldest first
func Titles(records []catalog.Record, marked map[int]bool) []string {
	var selected []catalog.Record
	for _, r := range records {
		if marked[r.ID] {
			selected = append(selected, r)
		}
	}
	selected = catalog.Sort(selected, catalog.DateAsc)
	titles := make([]string, 0, len(selected))
	for _, r := range selected {
		titles = append(titles, r.Title)
	}
	return titles
}
