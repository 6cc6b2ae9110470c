package models

import "time"

// Membership links a user to a room and carries the user's read position in
// that room. LastReadMessageID only ever increases; Version guards concurrent
// read-position updates (optimistic concurrency).
type Membership struct {
	ID                int64      `json:"id"`
	RoomID            int64      `json:"room_id"`
	UserID            int64      `json:"user_id"`
	LastReadMessageID *int64     `json:"last_read_message_id,omitempty"`
	LastReadAt        *time.Time `json:"last_read_at,omitempty"`
	Version           int64      `json:"-"`
	Timestamps
}
