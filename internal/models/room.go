package models

// Room kinds. A room is immutable after creation except for its title.
const (
	RoomKindDirect = "DIRECT"
	RoomKindGroup  = "GROUP"
)

type Room struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	CreatedBy int64  `json:"created_by"` // User ID
	Timestamps
}
