// Package lock provides short-lived, per-key mutual exclusion backed by a
// shared Redis instance. A lease expires on its own if the holder dies, so a
// crashed writer can never wedge a room.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the lock is still held by someone else at
// the end of the wait window.
var ErrNotAcquired = errors.New("lock: not acquired within wait timeout")

// Lease is proof of lock ownership. The token fences the release so a lease
// that expired and was re-acquired by another holder is never deleted by us.
type Lease struct {
	Key   string
	Token string
}

// Locker hands out exclusive leases on arbitrary keys.
type Locker interface {
	// Acquire blocks up to wait for the key, then holds it for at most ttl.
	Acquire(ctx context.Context, key string, wait, ttl time.Duration) (*Lease, error)
	// Release returns the lease early. Releasing an expired lease is a no-op.
	Release(ctx context.Context, lease *Lease) error
}
