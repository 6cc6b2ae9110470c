package chat

import "errors"

// Caller-facing errors. Handlers map these onto HTTP statuses; anything else
// coming out of the service is an internal error.
var (
	ErrRoomNotFound = errors.New("chat: room not found")
	ErrUserNotFound = errors.New("chat: user not found")
	ErrNotAMember   = errors.New("chat: not a member of room")
	ErrEmptyContent = errors.New("chat: content required")
	ErrInvalidRead  = errors.New("chat: last read message id required")

	// ErrBusy covers both a send that lost the race for the room lock and a
	// read-position update that exhausted its optimistic retries. Retryable
	// by the caller.
	ErrBusy = errors.New("chat: busy, try again")
)
