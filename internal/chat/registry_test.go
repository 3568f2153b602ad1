// AngelaMos | 2026
// registry_test.go

package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// nopConn carries a field so it is not zero-sized: distinct &nopConn{}
// allocations must have distinct addresses to act as distinct map keys.
type nopConn struct{ _ int }

func (nopConn) WriteJSON(any) error { return nil }
func (nopConn) Close() error        { return nil }

func TestRegistryOnlineTracking(t *testing.T) {
	r := NewRegistry()

	require.False(t, r.IsOnline(1))

	c1 := &nopConn{}
	c2 := &nopConn{}

	r.Register(1, c1)
	require.True(t, r.IsOnline(1))
	require.False(t, r.IsOnline(2))

	r.Register(1, c2)
	require.Len(t, r.ConnectionsFor(1), 2)

	r.Deregister(1, c1)
	require.True(t, r.IsOnline(1))
	require.Len(t, r.ConnectionsFor(1), 1)

	r.Deregister(1, c2)
	require.False(t, r.IsOnline(1))
	require.Empty(t, r.ConnectionsFor(1))
}

func TestRegistryDeregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	c := &nopConn{}

	r.Register(7, c)
	r.Deregister(7, c)
	r.Deregister(7, c)
	r.Deregister(42, c)

	require.False(t, r.IsOnline(7))
}

func TestRegistryOnlineUsers(t *testing.T) {
	r := NewRegistry()

	require.Zero(t, r.OnlineUsers())

	c1 := &nopConn{}
	c2 := &nopConn{}
	r.Register(1, c1)
	r.Register(1, c2)
	r.Register(2, &nopConn{})

	require.Equal(t, 2, r.OnlineUsers())

	r.Deregister(1, c1)
	r.Deregister(1, c2)
	require.Equal(t, 1, r.OnlineUsers())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			c := &nopConn{}
			r.Register(userID, c)
			r.IsOnline(userID)
			r.ConnectionsFor(userID)
			r.Deregister(userID, c)
		}(int64(i % 10))
	}
	wg.Wait()

	require.Zero(t, r.OnlineUsers())
}
