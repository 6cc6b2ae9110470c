package chat

import (
	"encoding/json"
	"time"

	"chatd/internal/models"
)

// TopicMessages is the broker topic delivery events travel on. One stream,
// partitioned by room id, consumed by group GroupMessages on every instance.
const (
	TopicMessages = "chat-messages"
	GroupMessages = "chat-consumer"
)

// WireMessage is the outbound representation of a committed message, exactly
// what a connected client receives.
type WireMessage struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"roomId"`
	SenderID    int64     `json:"senderId"`
	ContentType string    `json:"contentType"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	SeenCount   int64     `json:"seenCount"`
}

// DeliveryEvent is produced exactly once per successful commit and drives
// fan-out. It is transient, never persisted. Origin identifies the producing
// instance so that instance skips its own broker redelivery (the local path
// already pushed it).
type DeliveryEvent struct {
	Message WireMessage `json:"message"`
	Origin  string      `json:"origin"`
}

// NewDeliveryEvent builds the event for a just-committed message. The sender
// has seen their own message, hence seenCount 1.
func NewDeliveryEvent(m *models.Message, origin string) DeliveryEvent {
	return DeliveryEvent{
		Message: WireMessage{
			ID:          m.ID,
			RoomID:      m.RoomID,
			SenderID:    m.SenderID,
			ContentType: m.ContentType,
			Content:     m.Content,
			CreatedAt:   m.CreatedAt.UTC(),
			SeenCount:   1,
		},
		Origin: origin,
	}
}

func (e DeliveryEvent) Encode() []byte {
	b, _ := json.Marshal(e)
	return b
}

func DecodeDeliveryEvent(payload []byte) (DeliveryEvent, error) {
	var e DeliveryEvent
	err := json.Unmarshal(payload, &e)
	return e, err
}
