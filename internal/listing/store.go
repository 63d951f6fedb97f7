package listing

import (
	"sync"

	"github.com/mkarev/nftmarket/internal/model"
)

// Store holds the active listing per token id.
type Store struct {
	mu       sync.RWMutex
	listings map[model.TokenID]model.Listing
}

// NewStore creates an empty listing store.
func NewStore() *Store {
	return &Store{
		listings: make(map[model.TokenID]model.Listing),
	}
}

// Create records a listing for l.TokenID, replacing any previous record.
func (s *Store) Create(l model.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[l.TokenID] = l
}

// Get returns the active listing for the token, if any.
func (s *Store) Get(id model.TokenID) (model.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	return l, ok
}

// Clear removes the listing for the token, resetting it to the unlisted state.
func (s *Store) Clear(id model.TokenID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listings, id)
}

// Active returns a snapshot of all current listings.
func (s *Store) Active() []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	return out
}

// Len returns the number of active listings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}
