package session

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageturn/bookshop-pos/internal/domain/cart"
)

func TestStore_OpenGetClose(t *testing.T) {
	s := NewStore(cart.DefaultPricing(), 16, time.Minute)

	id, ledger := s.Open()
	require.NotEmpty(t, id)
	require.NotNil(t, ledger)

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, ledger, got)

	// State written through one handle is visible through the other.
	require.NoError(t, ledger.AddItem(1, "A", decimal.NewFromInt(5), 3))
	assert.Len(t, got.Lines(), 1)

	s.Close(id)
	_, ok = s.Get(id)
	assert.False(t, ok)

	// Closing twice is harmless.
	s.Close(id)
}

func TestStore_GetKeepsActiveSessionAlive(t *testing.T) {
	const ttl = 250 * time.Millisecond
	s := NewStore(cart.DefaultPricing(), 16, ttl)

	id, _ := s.Open()

	// Touch the session every 50ms for twice the TTL; each Get must refresh
	// the expiry so an in-progress sale never vanishes mid-transaction.
	deadline := time.Now().Add(2 * ttl)
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		_, ok := s.Get(id)
		require.True(t, ok, "session expired despite continuous activity")
	}

	// Once idle past the TTL, the session does expire.
	time.Sleep(ttl + 100*time.Millisecond)
	_, ok := s.Get(id)
	assert.False(t, ok, "idle session should expire after the TTL")
}

func TestStore_UnknownSession(t *testing.T) {
	s := NewStore(cart.DefaultPricing(), 16, time.Minute)

	_, ok := s.Get("not-a-session")
	assert.False(t, ok)
}

func TestStore_CapacityEvictsOldest(t *testing.T) {
	s := NewStore(cart.DefaultPricing(), 2, time.Minute)

	first, _ := s.Open()
	second, _ := s.Open()
	third, _ := s.Open()

	_, ok := s.Get(first)
	assert.False(t, ok, "oldest session should be evicted")
	_, ok = s.Get(second)
	assert.True(t, ok)
	_, ok = s.Get(third)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
}
