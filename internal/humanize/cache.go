package humanize

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Store is a process-lifetime string cache keyed case-insensitively. Misses
// are populated at most once per key via singleflight, so concurrent
// workers asking for the same owner/repo share a single fetch.
type Store struct {
	mu    sync.Mutex
	items map[string]string
	group singleflight.Group
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{items: make(map[string]string)}
}

// Get returns the cached value for key, invoking fill on first access. A
// fill error caches the empty string so failing keys are not re-fetched
// within the run.
func (s *Store) Get(key string, fill func() (string, error)) string {
	key = strings.ToLower(key)

	s.mu.Lock()
	if v, ok := s.items[key]; ok {
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()

	v, _, _ := s.group.Do(key, func() (any, error) {
		val, err := fill()
		if err != nil {
			val = ""
		}
		s.mu.Lock()
		s.items[key] = val
		s.mu.Unlock()
		return val, nil
	})
	return v.(string)
}

// Len reports the number of cached keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
