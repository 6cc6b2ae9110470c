// Package ws owns every live push channel on this instance. No other
// component holds a direct reference to a connection; delivery goes through
// the Registry.
package ws

import (
	"sync"
)

// Registry tracks which users have a live push channel on this instance.
// At most one connection is retained per user; a newer connection for the
// same user displaces the old one. The displaced connection is not closed
// here, its transport teardown does that.
//
// Safe for concurrent use by connection handlers and the dispatcher.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]*Conn)}
}

// Register makes c the user's live channel, displacing any previous one.
func (r *Registry) Register(userID int64, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = c
}

// Unregister removes the user's entry, but only if it still is c. A displaced
// connection tearing down must not evict its successor.
func (r *Registry) Unregister(userID int64, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
	}
}

// Send queues payload for the user's live channel. Returns false when the
// user has no channel here or the channel is unwritable; an unwritable
// channel is dropped from the registry.
func (r *Registry) Send(userID int64, payload []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[userID]
	if !ok {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		// Buffer full means the client stopped draining. Drop the entry;
		// the connection handler owns the channel and closes it on
		// disconnect.
		delete(r.conns, userID)
		return false
	}
}

// Connected reports whether the user has a live channel on this instance.
func (r *Registry) Connected(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Len returns the number of live channels on this instance.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
