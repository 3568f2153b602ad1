// AngelaMos | 2026
// registry.go

package chat

import (
	"sync"
)

// Registry tracks which users currently hold live duplex connections. It is
// process-local and advisory only: it is rebuilt empty on restart and is
// never treated as authoritative for message durability. It is the single
// piece of shared mutable state between session handlers and the delivery
// engine, so every method is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]map[Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[int64]map[Conn]struct{}),
	}
}

// Register adds a connection to the user's set. A user may hold any number
// of concurrent connections (multi-device).
func (r *Registry) Register(userID int64, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[Conn]struct{})
		r.conns[userID] = set
	}
	set[conn] = struct{}{}
}

// Deregister removes a connection. Removing an unknown connection is a
// no-op, so cleanup paths may run more than once.
func (r *Registry) Deregister(userID int64, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return
	}

	delete(set, conn)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns[userID]) > 0
}

// ConnectionsFor returns a snapshot of the user's connections. The snapshot
// may race with concurrent register/deregister; callers must tolerate
// writing to a connection that has since closed.
func (r *Registry) ConnectionsFor(userID int64) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	if len(set) == 0 {
		return nil
	}

	conns := make([]Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// OnlineUsers returns the number of users with at least one connection.
func (r *Registry) OnlineUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
