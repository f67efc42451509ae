// Package store holds the authoritative in-memory snippet collection.
// All mutation goes through its methods; display order is newest-first,
// which (ids being time-derived) equals numeric-descending id order.
package store

import (
	"sort"
	"sync"

	"github.com/dkotlyar/snipstash/internal/models"
)

// Store is a process-wide singleton in spirit; the mutex stands in for
// the cooperative single-threaded scheduling the original relied on.
type Store struct {
	mu       sync.RWMutex
	snippets []models.Snippet
}

func New() *Store {
	return &Store{}
}

// Add inserts the snippet at its id-ordered position. New snippets carry
// the highest id and land first; rollback re-inserts restore the old
// position the same way.
func (s *Store) Add(snippet models.Snippet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.snippets), func(i int) bool {
		return s.snippets[i].ID <= snippet.ID
	})
	if i < len(s.snippets) && s.snippets[i].ID == snippet.ID {
		s.snippets[i] = snippet
		return
	}
	s.snippets = append(s.snippets, models.Snippet{})
	copy(s.snippets[i+1:], s.snippets[i:])
	s.snippets[i] = snippet
}

// Remove deletes the snippet with the given id. It is unconditional:
// password authorization is the caller's responsibility.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snippets {
		if s.snippets[i].ID == id {
			s.snippets = append(s.snippets[:i], s.snippets[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceAll swaps in a fresh remote list, carrying forward the
// ephemeral FileURL of any matching id from the old list: signed URLs
// are not server truth and would otherwise be lost on every poll.
func (s *Store) ReplaceAll(snippets []models.Snippet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make(map[int64]string, len(s.snippets))
	for _, old := range s.snippets {
		if old.FileURL != "" {
			urls[old.ID] = old.FileURL
		}
	}

	replacement := make([]models.Snippet, len(snippets))
	copy(replacement, snippets)
	for i := range replacement {
		if replacement[i].FileURL == "" {
			replacement[i].FileURL = urls[replacement[i].ID]
		}
	}
	sort.Slice(replacement, func(i, j int) bool {
		return replacement[i].ID > replacement[j].ID
	})
	s.snippets = replacement
}

// FindByID returns a copy of the snippet with the given id.
func (s *Store) FindByID(id int64) (models.Snippet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snippet := range s.snippets {
		if snippet.ID == id {
			return snippet, true
		}
	}
	return models.Snippet{}, false
}

// SetFileURL records a freshly resolved signed URL on the snippet.
func (s *Store) SetFileURL(id int64, fileURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snippets {
		if s.snippets[i].ID == id {
			s.snippets[i].FileURL = fileURL
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the collection in display order.
func (s *Store) Snapshot() []models.Snippet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Snippet, len(s.snippets))
	copy(out, s.snippets)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snippets)
}
