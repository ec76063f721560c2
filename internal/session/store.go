// Package session manages billing sessions: one cart ledger per open
// point-of-sale interaction, addressed by an opaque session ID.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pageturn/bookshop-pos/internal/domain/cart"
)

// Store holds the live ledgers. Sessions expire after the configured idle
// TTL and the oldest sessions are evicted beyond the capacity bound, so an
// abandoned browser tab cannot pin a cart forever.
type Store struct {
	cache   *expirable.LRU[string, *cart.Ledger]
	pricing cart.Pricing
}

// NewStore creates a Store that prices new ledgers with the given policy.
func NewStore(pricing cart.Pricing, capacity int, ttl time.Duration) *Store {
	return &Store{
		cache:   expirable.NewLRU[string, *cart.Ledger](capacity, nil, ttl),
		pricing: pricing,
	}
}

// Open creates a fresh empty ledger and returns its session ID.
func (s *Store) Open() (string, *cart.Ledger) {
	id := uuid.New().String()
	ledger := cart.NewLedger(s.pricing)
	s.cache.Add(id, ledger)
	return id, ledger
}

// Get returns the ledger for the given session ID. A hit refreshes the
// session's TTL, so a session stays alive while it is being worked.
func (s *Store) Get(id string) (*cart.Ledger, bool) {
	ledger, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	// The cache expires entries at a fixed point after insertion; re-adding
	// moves that point forward, turning the fixed TTL into an idle TTL.
	s.cache.Add(id, ledger)
	return ledger, true
}

// Close discards the session. Closing an unknown or already-closed session
// is a no-op.
func (s *Store) Close(id string) {
	s.cache.Remove(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}
