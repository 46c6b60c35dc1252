package realtime

import (
	"sync"

	"github.com/mcoot/battlecode-go/internal/model"
)

// ConnectionRegistry maps a user identity to the set of live
// connections it currently holds. It is the sole owner of the
// connection->user mapping.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byUser map[model.UserID]map[ConnectionID]Connection
	byID   map[ConnectionID]Connection
}

// NewConnectionRegistry creates an empty ConnectionRegistry
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byUser: make(map[model.UserID]map[ConnectionID]Connection),
		byID:   make(map[ConnectionID]Connection),
	}
}

// Add registers a connection under its user identity. Adding the same
// connection twice is a no-op.
func (r *ConnectionRegistry) Add(conn Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.byUser[conn.UserID()]
	if !ok {
		conns = make(map[ConnectionID]Connection)
		r.byUser[conn.UserID()] = conns
	}
	conns[conn.ID()] = conn
	r.byID[conn.ID()] = conn
}

// Remove deregisters a connection. When the user's last connection is
// removed the user entry itself is garbage-collected.
func (r *ConnectionRegistry) Remove(conn Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, conn.ID())
	conns, ok := r.byUser[conn.UserID()]
	if !ok {
		return
	}
	delete(conns, conn.ID())
	if len(conns) == 0 {
		delete(r.byUser, conn.UserID())
	}
}

// ConnectionsOf returns a snapshot of all connections held by a user.
// The returned slice is safe to iterate without holding any lock.
func (r *ConnectionRegistry) ConnectionsOf(userID model.UserID) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	result := make([]Connection, 0, len(conns))
	for _, c := range conns {
		result = append(result, c)
	}
	return result
}

// HasUser reports whether the user currently holds any connection
func (r *ConnectionRegistry) HasUser(userID model.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Get returns the connection with the given ID, if registered
func (r *ConnectionRegistry) Get(id ConnectionID) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}
