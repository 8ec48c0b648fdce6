package app

import "sync"

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// Registry tracks the live connections for one room, keyed by player ID.
// It only maps connections; the room owns the authoritative player state.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]ClientConnection
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]ClientConnection)}
}

// Register binds a connection to a player ID, replacing any previous one
func (r *Registry) Register(playerID string, conn ClientConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[playerID] = conn
}

// Unregister removes the connection for a player ID
func (r *Registry) Unregister(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, playerID)
}

// UnregisterIf removes the entry only if it still maps to the given
// connection. A reconnect replaces the entry; the old connection's teardown
// must not evict its replacement.
func (r *Registry) UnregisterIf(playerID string, conn ClientConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[playerID] != conn {
		return false
	}
	delete(r.conns, playerID)
	return true
}

// Get returns the connection for a player
func (r *Registry) Get(playerID string) (ClientConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[playerID]
	return conn, ok
}

// Snapshot returns a copy of the current connection map for fan-out
func (r *Registry) Snapshot() map[string]ClientConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]ClientConnection, len(r.conns))
	for id, conn := range r.conns {
		out[id] = conn
	}
	return out
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes and drops every connection
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.conns {
		conn.Close()
	}
	r.conns = make(map[string]ClientConnection)
}
