package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
)

func TestSessions_GetCreatesEmptyCartOnce(t *testing.T) {
	s := NewSessions()
	defer s.Close()

	first := s.Get("session-1")
	require.NotNil(t, first)
	assert.Empty(t, first.Lines())

	first.AddItem(domain.CartLine{ItemID: "x", SellerID: "s1", Quantity: 1})

	again := s.Get("session-1")
	assert.Same(t, first, again, "same session must get the same store")
	assert.Len(t, again.Lines(), 1)

	other := s.Get("session-2")
	assert.NotSame(t, first, other)
	assert.Empty(t, other.Lines())
	assert.Equal(t, 2, s.Len())
}

func TestSessions_ExpireDropsIdleCarts(t *testing.T) {
	s := NewSessions()
	defer s.Close()

	s.Get("stale")
	s.mu.Lock()
	s.entries["stale"].lastSeen = s.entries["stale"].lastSeen.Add(-2 * SessionTTL)
	s.mu.Unlock()
	s.Get("fresh")

	s.expire()

	assert.Equal(t, 1, s.Len())
}
