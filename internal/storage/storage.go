package storage

import (
	"sync"

	"github.com/KarthikMasi/dax-local/internal/viewer"
)

// ViewerStore holds the live viewer sessions, keyed by ID.
type ViewerStore struct {
	viewers map[string]*viewer.Viewer
	mu      sync.RWMutex
}

func New() *ViewerStore {
	return &ViewerStore{
		viewers: make(map[string]*viewer.Viewer),
	}
}

func (s *ViewerStore) Get(id string) (*viewer.Viewer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, exists := s.viewers[id]
	return v, exists
}

func (s *ViewerStore) Set(id string, v *viewer.Viewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewers[id] = v
}

// Delete pauses and drops a viewer so its timers stop.
func (s *ViewerStore) Delete(id string) {
	s.mu.Lock()
	v, exists := s.viewers[id]
	delete(s.viewers, id)
	s.mu.Unlock()

	if exists {
		v.Pause()
	}
}

// IDs lists the live viewer session IDs.
func (s *ViewerStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.viewers))
	for id := range s.viewers {
		ids = append(ids, id)
	}
	return ids
}
