// Package cache holds the in-memory view of the latest quote per
// subscribed symbol. There is no TTL; staleness is the reader's concern
// via Quote.Timestamp.
package cache

import (
	"sync"

	"github.com/seenimoa/faststock/pkg/models"
	"github.com/seenimoa/faststock/pkg/symbols"
)

// Store maps uppercased symbols to their latest quote. Writes for one
// symbol are totally ordered: last writer wins.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]models.Quote
}

// New creates an empty quote store.
func New() *Store {
	return &Store{quotes: make(map[string]models.Quote)}
}

// Set replaces any prior entry for the quote's symbol.
func (s *Store) Set(symbol string, q models.Quote) {
	symbol = symbols.Normalize(symbol)
	s.mu.Lock()
	s.quotes[symbol] = q
	s.mu.Unlock()
}

// Get returns the latest quote for a symbol.
func (s *Store) Get(symbol string) (models.Quote, bool) {
	symbol = symbols.Normalize(symbol)
	s.mu.RLock()
	q, ok := s.quotes[symbol]
	s.mu.RUnlock()
	return q, ok
}

// Snapshot returns a point-in-time copy of the whole store. Writers
// racing with the copy see either their update in full or not at all.
func (s *Store) Snapshot() map[string]models.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Quote, len(s.quotes))
	for k, v := range s.quotes {
		out[k] = v
	}
	return out
}

// Len returns the number of cached symbols.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}
