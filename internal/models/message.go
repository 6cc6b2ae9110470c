package models

// Message is immutable once created. Messages are ordered within a room by
// creation time, ties broken by id; the insert order is the only ordering
// authority.
type Message struct {
	ID          int64  `json:"id"`
	RoomID      int64  `json:"room_id"`
	SenderID    int64  `json:"sender_id"`
	ContentType string `json:"content_type"` // TEXT/IMAGE/FILE
	Content     string `json:"content"`
	Timestamps
}
